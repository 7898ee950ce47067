/*
Package index implements a small sidecar index of the records in a stream.

A stream has no length prefix or frame count so finding a frame means decoding
everything before it. The index records the offset and header of every record
so a player can jump to the nearest preceding keyframe instead.

The binary form is a little-endian uint32 count followed by, for each record,
a little-endian uint32 offset and the header byte.
*/
package index

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"sort"

	"github.com/bodgit/badapple"
	"github.com/bodgit/badapple/frame"
)

const (
	// Extension is appended to the stream filename when writing to disk
	Extension = ".idx"

	entrySize = 5
)

var errOutOfRange = errors.New("index: frame out of range")

// Entry describes a single record.
type Entry struct {
	Offset uint32
	Header frame.Header
}

// Index is the record index of a stream. It implements the
// encoding.BinaryMarshaler and encoding.BinaryUnmarshaler interfaces.
type Index struct {
	entries []Entry
}

// New returns an empty index
func New() *Index {
	return &Index{}
}

// Build decodes the stream in r and indexes every record up to the first
// failure.
func Build(r io.Reader, g frame.Geometry) (*Index, error) {
	d, err := badapple.NewDecoder(r, g)
	if err != nil {
		return nil, err
	}
	idx := New()
	for d.Next() {
		if err := idx.Add(d.Offset(), d.Header()); err != nil {
			return nil, err
		}
	}
	if !d.AtEnd() {
		return idx, fmt.Errorf("index: frame %d: %w", idx.Length(), d.Err())
	}
	return idx, nil
}

// Length returns the number of records in the index
func (idx *Index) Length() int {
	return len(idx.entries)
}

// Add appends a record. Offsets must be increasing.
func (idx *Index) Add(offset int64, h frame.Header) error {
	if offset < 0 || offset > 0xffffffff {
		return fmt.Errorf("index: offset %d out of range", offset)
	}
	if n := len(idx.entries); n > 0 && uint32(offset) <= idx.entries[n-1].Offset {
		return errors.New("index: offsets must be increasing")
	}
	idx.entries = append(idx.entries, Entry{Offset: uint32(offset), Header: h})
	return nil
}

// Entry returns the entry for frame n.
func (idx *Index) Entry(n int) (Entry, error) {
	if n < 0 || n >= len(idx.entries) {
		return Entry{}, errOutOfRange
	}
	return idx.entries[n], nil
}

// Keyframes returns the number of keyframes.
func (idx *Index) Keyframes() (n int) {
	for _, e := range idx.entries {
		if e.Header.Keyframe() {
			n++
		}
	}
	return
}

// Nearest returns the frame number and entry of the last keyframe at or
// before frame n.
func (idx *Index) Nearest(n int) (int, Entry, error) {
	if n < 0 || n >= len(idx.entries) {
		return 0, Entry{}, errOutOfRange
	}
	for i := n; i >= 0; i-- {
		if idx.entries[i].Header.Keyframe() {
			return i, idx.entries[i], nil
		}
	}
	return 0, Entry{}, errors.New("index: no keyframe before frame")
}

// MarshalBinary encodes the index into binary form and returns the result
func (idx *Index) MarshalBinary() ([]byte, error) {
	b := new(bytes.Buffer)

	if err := binary.Write(b, binary.LittleEndian, uint32(len(idx.entries))); err != nil {
		return nil, err
	}

	for _, e := range idx.entries {
		if err := binary.Write(b, binary.LittleEndian, e.Offset); err != nil {
			return nil, err
		}
		if err := b.WriteByte(byte(e.Header)); err != nil {
			return nil, err
		}
	}

	return b.Bytes(), nil
}

// UnmarshalBinary decodes the index from binary form
func (idx *Index) UnmarshalBinary(b []byte) error {
	r := bytes.NewReader(b)

	var count uint32
	if err := binary.Read(r, binary.LittleEndian, &count); err != nil {
		return err
	}
	if int64(count)*entrySize != int64(r.Len()) {
		return errors.New("index: insufficient data")
	}

	idx.entries = make([]Entry, count)
	for i := range idx.entries {
		if err := binary.Read(r, binary.LittleEndian, &idx.entries[i].Offset); err != nil {
			return err
		}
		h, err := r.ReadByte()
		if err != nil {
			return err
		}
		idx.entries[i].Header = frame.Header(h)
	}

	if !sort.SliceIsSorted(idx.entries, func(i, j int) bool { return idx.entries[i].Offset < idx.entries[j].Offset }) {
		return errors.New("index: offsets not in order")
	}

	return nil
}
