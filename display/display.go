/*
Package display composites decoded frames onto a wider 1-bit surface.

The content area is placed at a fixed horizontal offset with the remaining
columns split between a left and a right border, each filled white or black
as instructed by the frame header. With the default geometry an 80 pixel wide
frame is centred on a 128 pixel wide surface leaving 24 pixel borders.

Surface bytes follow the stream convention, a set bit being white.
*/
package display

import (
	"errors"
	"fmt"
	"image"
	"image/color"

	"github.com/bodgit/badapple/frame"
)

// DefaultWidth is the width in pixels of the handheld screen.
const DefaultWidth = 128

var errWrongSize = errors.New("display: content is wrong size")

// Surface is a 1-bit display buffer. It implements badapple.Renderer.
type Surface struct {
	content frame.Geometry
	width   int
	stride  int
	left    int
	right   int
	pix     []byte
}

// New returns a Surface width pixels wide for content of geometry g.
func New(g frame.Geometry, width int) (*Surface, error) {
	if err := g.Validate(); err != nil {
		return nil, err
	}
	if width%8 != 0 || width < g.Width {
		return nil, fmt.Errorf("display: invalid width %d for %d pixel content", width, g.Width)
	}
	stride := width >> 3
	border := stride - g.RowBytes()
	return &Surface{
		content: g,
		width:   width,
		stride:  stride,
		left:    border / 2,
		right:   border - border/2,
		pix:     make([]byte, stride*g.Height),
	}, nil
}

func fill(b []byte, white bool) {
	var v byte
	if white {
		v = 0xff
	}
	for i := range b {
		b[i] = v
	}
}

// Render composites content with the given border colours.
func (s *Surface) Render(content []byte, left, right bool) error {
	if len(content) != s.content.Size() {
		return errWrongSize
	}
	cb := s.content.RowBytes()
	for y := 0; y < s.content.Height; y++ {
		row := s.pix[y*s.stride : (y+1)*s.stride]
		fill(row[:s.left], left)
		copy(row[s.left:s.left+cb], content[y*cb:(y+1)*cb])
		fill(row[s.left+cb:], right)
	}
	return nil
}

// Bytes returns the surface buffer.
func (s *Surface) Bytes() []byte {
	return s.pix
}

// Bounds returns the size of the surface.
func (s *Surface) Bounds() image.Rectangle {
	return image.Rect(0, 0, s.width, s.content.Height)
}

// White reports whether the pixel at (x, y) is white.
func (s *Surface) White(x, y int) bool {
	return s.pix[y*s.stride+x>>3]&(0x80>>uint(x&7)) != 0
}

// Image returns a copy of the surface as a black and white image.
func (s *Surface) Image() *image.Paletted {
	m := image.NewPaletted(s.Bounds(), color.Palette{color.Black, color.White})
	for y := 0; y < s.content.Height; y++ {
		for x := 0; x < s.width; x++ {
			if s.White(x, y) {
				m.SetColorIndex(x, y, 1)
			}
		}
	}
	return m
}
