package image

import (
	"errors"
	"image"
	"io"

	"github.com/bodgit/badapple/frame"
)

var errNotEnough = errors.New("image: not enough frame data")

func readFull(r io.Reader, b []byte) error {
	_, err := io.ReadFull(r, b)
	if err == io.EOF {
		err = io.ErrUnexpectedEOF
	}
	return err
}

type decoder struct {
	g     frame.Geometry
	image *image.Paletted
	tmp   []byte
}

func (d *decoder) decode(r io.Reader) error {
	d.tmp = make([]byte, d.g.Size())
	if err := readFull(r, d.tmp); err != nil {
		if err != io.ErrUnexpectedEOF {
			return err
		}
		return errNotEnough
	}

	d.image = image.NewPaletted(image.Rect(0, 0, d.g.Width, d.g.Height), Palette)

	stride := d.g.RowBytes()
	for y := 0; y < d.g.Height; y++ {
		for x := 0; x < d.g.Width; x++ {
			if d.tmp[y*stride+x>>3]&(0x80>>uint(x&7)) == 0 {
				d.image.SetColorIndex(x, y, 1)
			}
		}
	}

	return nil
}

// Decode reads a single raw frame of geometry g from r and returns it as an
// image.Image.
func Decode(r io.Reader, g frame.Geometry) (image.Image, error) {
	if err := g.Validate(); err != nil {
		return nil, err
	}
	d := decoder{g: g}
	if err := d.decode(r); err != nil {
		return nil, err
	}
	return d.image, nil
}
