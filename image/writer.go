package image

import (
	"errors"
	"image"
	"image/color"
	"image/draw"
	"io"

	"github.com/bodgit/badapple/frame"
	"github.com/ericpauley/go-quantize/quantize"
)

func luma(c color.Color) uint8 {
	return color.GrayModel.Convert(c).(color.Gray).Y
}

// threshold returns the brightness at or below which a pixel of the palette
// is black.
func threshold(p color.Palette) uint8 {
	if len(p) < 2 {
		return midpoint
	}
	lo, hi := luma(p[0]), luma(p[0])
	for _, c := range p[1:] {
		switch y := luma(c); {
		case y < lo:
			lo = y
		case y > hi:
			hi = y
		}
	}
	if lo == hi {
		return midpoint
	}
	return uint8((int(lo) + int(hi)) / 2)
}

func uniqueColors(m image.Image, limit int) (color.Palette, bool) {
	seen := make(map[color.Color]struct{})
	var p color.Palette
	b := m.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			c := m.At(x, y)
			if _, ok := seen[c]; ok {
				continue
			}
			if len(p) == limit {
				return nil, false
			}
			seen[c] = struct{}{}
			p = append(p, c)
		}
	}
	return p, true
}

// reduce returns m as a paletted image of at most two colours.
func reduce(m image.Image) *image.Paletted {
	b := m.Bounds()

	if pm, ok := m.(*image.Paletted); ok && len(pm.Palette) <= 2 {
		return pm
	}

	p, ok := uniqueColors(m, 2)
	if !ok {
		q := quantize.MedianCutQuantizer{}
		p = q.Quantize(make(color.Palette, 0, 2), m)
	}

	pm := image.NewPaletted(b, p)
	draw.Draw(pm, b, m, b.Min, draw.Src)
	return pm
}

// Encode writes the image m to w as a raw frame of geometry g.
func Encode(w io.Writer, m image.Image, g frame.Geometry) error {
	b, err := Frame(m, g)
	if err != nil {
		return err
	}
	_, err = w.Write(b)
	return err
}

// Frame returns the image m as a raw frame of geometry g.
func Frame(m image.Image, g frame.Geometry) ([]byte, error) {
	if err := g.Validate(); err != nil {
		return nil, err
	}

	b := m.Bounds()
	if b.Dx() != g.Width || b.Dy() != g.Height {
		return nil, errors.New("image: image is wrong size")
	}

	pm := reduce(m)

	t := threshold(pm.Palette)
	black := make([]bool, len(pm.Palette))
	for i, c := range pm.Palette {
		black[i] = luma(c) <= t
	}

	out := make([]byte, g.Size())
	stride := g.RowBytes()
	for y := 0; y < g.Height; y++ {
		for x := 0; x < g.Width; x++ {
			if black[pm.ColorIndexAt(b.Min.X+x, b.Min.Y+y)] {
				out[y*stride+x>>3] |= 0x80 >> uint(x&7)
			}
		}
	}

	return out, nil
}
