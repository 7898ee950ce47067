/*
Package rle implements the byte-oriented run-length encoding used for frame
payloads.

A payload is written as a sequence of (count, value) byte pairs where count is
between 1 and 255 inclusive. Runs longer than 255 bytes are split into as many
full 255 byte runs as needed followed by a shorter remainder. The counts of a
payload always sum to exactly the size of the buffer that was encoded.
*/
package rle

import (
	"errors"
	"io"
)

// MaxRun is the longest run a single pair can describe.
const MaxRun = 255

var (
	// ErrRunOverflow is returned when a run would write past the end of
	// the destination buffer.
	ErrRunOverflow = errors.New("rle: run overflows frame")
	// ErrStreamTruncated is returned when the input ends before the
	// destination buffer is filled.
	ErrStreamTruncated = errors.New("rle: stream truncated")
)

// Run is a single (count, value) pair.
type Run struct {
	Count byte
	Value byte
}

// Runs returns the runs describing p.
func Runs(p []byte) []Run {
	var runs []Run
	for i := 0; i < len(p); {
		n := 1
		for i+n < len(p) && p[i+n] == p[i] && n < MaxRun {
			n++
		}
		runs = append(runs, Run{Count: byte(n), Value: p[i]})
		i += n
	}
	return runs
}

// Append appends the encoding of p to dst and returns the extended buffer.
func Append(dst, p []byte) []byte {
	for _, r := range Runs(p) {
		dst = append(dst, r.Count, r.Value)
	}
	return dst
}

// Encode writes the encoding of p to w.
func Encode(w io.Writer, p []byte) error {
	_, err := w.Write(Append(nil, p))
	return err
}

// Decode fills p by reading (count, value) pairs from r. It reads exactly as
// many pairs as are required to fill p and no more.
func Decode(r io.ByteReader, p []byte) error {
	var n int
	for n < len(p) {
		count, err := r.ReadByte()
		if err != nil {
			return truncated(err)
		}
		value, err := r.ReadByte()
		if err != nil {
			return truncated(err)
		}
		if n+int(count) > len(p) {
			return ErrRunOverflow
		}
		for end := n + int(count); n < end; n++ {
			p[n] = value
		}
	}
	return nil
}

func truncated(err error) error {
	if err == io.EOF || err == io.ErrUnexpectedEOF {
		return ErrStreamTruncated
	}
	return err
}
