/*
Package badapple is a library for converting 1-bit video clips into a compact
stream suitable for playback on small monochrome handhelds, and for decoding
and playing such streams back.

Encoding is an offline batch transform over a whole clip held in memory. Each
frame is written as either a keyframe or an XOR delta against the previous
frame, run-length encoded and followed by a CRC-16 of the reconstructed frame.
The colour of the padding either side of the content is decided per frame at
encode time and carried in each record header.

Decoding is sequential and holds only the previous frame, so its memory use is
bounded by two frame buffers.
*/
package badapple

import (
	"errors"

	"github.com/bodgit/badapple/border"
	"github.com/bodgit/badapple/frame"
	"github.com/bodgit/badapple/rle"
)

var (
	// ErrStreamTruncated means the input ran out while reading a header,
	// a run or the checksum.
	ErrStreamTruncated = rle.ErrStreamTruncated
	// ErrRunOverflow means a run would write past the end of the frame.
	ErrRunOverflow = rle.ErrRunOverflow
	// ErrChecksumMismatch means the reconstructed frame does not match
	// the stored checksum.
	ErrChecksumMismatch = errors.New("badapple: checksum mismatch")
	// ErrDeltaWithoutHistory means a delta frame arrived with no valid
	// previous frame to apply it to.
	ErrDeltaWithoutHistory = errors.New("badapple: delta frame without previous frame")
)

// Options controls the encoder.
type Options struct {
	Geometry frame.Geometry
	// Window is the number of frames a border colour change must persist
	// for before it is accepted.
	Window int
}

// DefaultOptions returns the settings of the original converter.
func DefaultOptions() Options {
	return Options{
		Geometry: frame.Default(),
		Window:   border.DefaultWindow,
	}
}

// Validate checks the options are usable.
func (o Options) Validate() error {
	if err := o.Geometry.Validate(); err != nil {
		return err
	}
	if o.Window < 1 {
		return errors.New("badapple: window must be at least 1")
	}
	return nil
}
