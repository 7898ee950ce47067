/*
Package frame defines the geometry of a packed 1-bit frame and the byte
layout of a single encoded frame record.

A frame is stored row-major with eight pixels per byte, the most significant
bit being the leftmost pixel. Within a stream a set bit is a white pixel; raw
clips use the opposite convention and are converted with Invert.

Each record is laid out as:

	header   1 byte
	runs     (count, value) pairs, see package rle
	checksum 2 bytes, little-endian CRC-16 of the reconstructed frame
*/
package frame

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/bodgit/badapple/rle"
)

const (
	// DefaultWidth is the width in pixels of the content area.
	DefaultWidth = 80
	// DefaultHeight is the height in pixels of the content area.
	DefaultHeight = 64

	// ChecksumSize is the size in bytes of the record trailer.
	ChecksumSize = 2
)

// Header bits.
const (
	LeftWhite byte = 1 << iota
	RightWhite
	Keyframe
)

var errBadWidth = errors.New("frame: width must be a positive multiple of 8")

// Geometry describes the dimensions of a frame.
type Geometry struct {
	Width  int
	Height int
}

// Default returns the 80 by 64 geometry of the original player.
func Default() Geometry {
	return Geometry{Width: DefaultWidth, Height: DefaultHeight}
}

// Validate checks the geometry can be packed into whole bytes.
func (g Geometry) Validate() error {
	if g.Width <= 0 || g.Width%8 != 0 {
		return errBadWidth
	}
	if g.Height <= 0 {
		return fmt.Errorf("frame: invalid height %d", g.Height)
	}
	return nil
}

// RowBytes returns the number of bytes in a single row.
func (g Geometry) RowBytes() int {
	return g.Width >> 3
}

// Size returns the number of bytes in a frame.
func (g Geometry) Size() int {
	return g.RowBytes() * g.Height
}

// Header is the first byte of every record.
type Header byte

// NewHeader builds a header from its component flags.
func NewHeader(left, right, keyframe bool) Header {
	var h Header
	if left {
		h |= Header(LeftWhite)
	}
	if right {
		h |= Header(RightWhite)
	}
	if keyframe {
		h |= Header(Keyframe)
	}
	return h
}

// LeftWhite reports whether the left border is white.
func (h Header) LeftWhite() bool { return byte(h)&LeftWhite != 0 }

// RightWhite reports whether the right border is white.
func (h Header) RightWhite() bool { return byte(h)&RightWhite != 0 }

// Keyframe reports whether the payload is a complete frame rather than a
// delta against the previous one.
func (h Header) Keyframe() bool { return byte(h)&Keyframe != 0 }

func (h Header) String() string {
	kind := "delta"
	if h.Keyframe() {
		kind = "key"
	}
	return fmt.Sprintf("%s left=%s right=%s", kind, color(h.LeftWhite()), color(h.RightWhite()))
}

func color(white bool) string {
	if white {
		return "white"
	}
	return "black"
}

// Invert complements every byte of src into dst, converting between the raw
// and stream pixel conventions. dst and src may be the same slice.
func Invert(dst, src []byte) {
	for i, b := range src {
		dst[i] = ^b
	}
}

// Xor stores a ^ b into dst and returns the number of nonzero bytes written.
func Xor(dst, a, b []byte) int {
	var n int
	for i := range dst {
		dst[i] = a[i] ^ b[i]
		if dst[i] != 0 {
			n++
		}
	}
	return n
}

// WriteRecord writes a complete record to w. payload is either the frame or
// the delta, checksum is of the reconstructed frame.
func WriteRecord(w io.Writer, h Header, payload []byte, checksum uint16) (int, error) {
	b := rle.Append([]byte{byte(h)}, payload)
	b = binary.LittleEndian.AppendUint16(b, checksum)
	return w.Write(b)
}
