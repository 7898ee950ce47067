package badapple

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/bodgit/badapple/crc16"
	"github.com/bodgit/badapple/frame"
	"github.com/bodgit/badapple/rle"
)

// State is the position of the decoder within a record.
type State int

// Decoder states. A record always finishes in either Committed or Failed.
const (
	AwaitingHeader State = iota
	DecodingRuns
	ApplyingDelta
	VerifyingChecksum
	Committed
	Failed
)

var stateNames = [...]string{
	AwaitingHeader:    "awaiting header",
	DecodingRuns:      "decoding runs",
	ApplyingDelta:     "applying delta",
	VerifyingChecksum: "verifying checksum",
	Committed:         "committed",
	Failed:            "failed",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return fmt.Sprintf("State(%d)", int(s))
	}
	return stateNames[s]
}

// errEndOfStream is returned by Err when the input ended cleanly on a record
// boundary. It is still a truncation as far as the record is concerned.
var errEndOfStream = fmt.Errorf("%w: %w", ErrStreamTruncated, io.EOF)

var errNotSeekable = errors.New("badapple: source is not seekable")

const readBufferSize = 64

// countingReader tracks the stream offset.
type countingReader struct {
	r *bufio.Reader
	n int64
}

func (c *countingReader) ReadByte() (byte, error) {
	b, err := c.r.ReadByte()
	if err == nil {
		c.n++
	}
	return b, err
}

// Decoder reconstructs frames from a stream one record at a time. It keeps a
// single previous frame for applying deltas and is not safe for concurrent
// use.
type Decoder struct {
	g   frame.Geometry
	src io.Reader
	r   countingReader

	buf  []byte
	prev []byte
	// havePrev is false until a frame has been committed and again after
	// any failure or rewind
	havePrev bool

	header frame.Header
	state  State
	err    error
	start  int64
}

// NewDecoder returns a Decoder reading records of geometry g from r. If r
// implements io.Seeker the decoder can be rewound.
func NewDecoder(r io.Reader, g frame.Geometry) (*Decoder, error) {
	if err := g.Validate(); err != nil {
		return nil, err
	}
	return &Decoder{
		g:    g,
		src:  r,
		r:    countingReader{r: bufio.NewReaderSize(r, readBufferSize)},
		buf:  make([]byte, g.Size()),
		prev: make([]byte, g.Size()),
	}, nil
}

// Next decodes the next record. It returns true if a frame was produced, in
// which case it is available from Frame. On false the frame in progress has
// been discarded and Err describes why.
func (d *Decoder) Next() bool {
	d.start = d.r.n
	if err := d.decode(); err != nil {
		d.state = Failed
		d.err = err
		d.havePrev = false
		return false
	}

	d.buf, d.prev = d.prev, d.buf
	d.havePrev = true
	d.state = Committed
	d.err = nil
	return true
}

func (d *Decoder) decode() error {
	d.state = AwaitingHeader
	h, err := d.r.ReadByte()
	if err != nil {
		if err == io.EOF {
			return errEndOfStream
		}
		return err
	}
	d.header = frame.Header(h)

	d.state = DecodingRuns
	if err := rle.Decode(&d.r, d.buf); err != nil {
		return err
	}

	if !d.header.Keyframe() {
		d.state = ApplyingDelta
		if !d.havePrev {
			return ErrDeltaWithoutHistory
		}
		frame.Xor(d.buf, d.buf, d.prev)
	}

	d.state = VerifyingChecksum
	var tmp [frame.ChecksumSize]byte
	for i := range tmp {
		if tmp[i], err = d.r.ReadByte(); err != nil {
			if err == io.EOF {
				return ErrStreamTruncated
			}
			return err
		}
	}
	if binary.LittleEndian.Uint16(tmp[:]) != crc16.Checksum(d.buf) {
		return ErrChecksumMismatch
	}

	return nil
}

// Frame returns the most recently committed frame in stream convention, or
// nil if the last call to Next failed. The slice is owned by the decoder and
// is only valid until the next call to Next.
func (d *Decoder) Frame() []byte {
	if d.state != Committed {
		return nil
	}
	return d.prev
}

// Header returns the header of the most recent record.
func (d *Decoder) Header() frame.Header {
	return d.header
}

// State returns where the last call to Next finished.
func (d *Decoder) State() State {
	return d.state
}

// Err returns the reason the last call to Next failed.
func (d *Decoder) Err() error {
	return d.err
}

// AtEnd reports whether the last failure was the input ending cleanly on a
// record boundary.
func (d *Decoder) AtEnd() bool {
	return d.err == errEndOfStream
}

// Offset returns the stream offset of the start of the most recent record.
func (d *Decoder) Offset() int64 {
	return d.start
}

// Geometry returns the frame geometry.
func (d *Decoder) Geometry() frame.Geometry {
	return d.g
}

// Seek positions the decoder at offset, which must be the start of a
// keyframe record for the following frames to decode. The previous frame is
// forgotten.
func (d *Decoder) Seek(offset int64) error {
	s, ok := d.src.(io.Seeker)
	if !ok {
		return errNotSeekable
	}
	if _, err := s.Seek(offset, io.SeekStart); err != nil {
		return err
	}
	d.r.r.Reset(d.src)
	d.r.n = offset
	d.start = offset
	d.havePrev = false
	d.state = AwaitingHeader
	d.err = nil
	return nil
}

// Rewind restarts decoding from the start of the stream.
func (d *Decoder) Rewind() error {
	return d.Seek(0)
}
