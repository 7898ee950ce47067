package badapple

import (
	"bufio"
	"fmt"
	"io"
	"log"

	"github.com/bodgit/badapple/border"
	"github.com/bodgit/badapple/crc16"
	"github.com/bodgit/badapple/frame"
)

// Stats summarises an encoded clip.
type Stats struct {
	Frames    int
	Keyframes int
	Bytes     int64
}

// Encoder converts raw clips into streams.
type Encoder struct {
	opts   Options
	logger *log.Logger
}

// NewEncoder returns an Encoder using the provided options.
func NewEncoder(opts Options, logger *log.Logger) (*Encoder, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	return &Encoder{
		opts:   opts,
		logger: logger,
	}, nil
}

// Split divides a raw clip into frames. The length of clip must be a multiple
// of the frame size.
func Split(g frame.Geometry, clip []byte) ([][]byte, error) {
	size := g.Size()
	if len(clip)%size != 0 {
		return nil, fmt.Errorf("badapple: clip length %d is not a multiple of the frame size %d", len(clip), size)
	}
	frames := make([][]byte, 0, len(clip)/size)
	for i := 0; i < len(clip); i += size {
		frames = append(frames, clip[i:i+size:i+size])
	}
	return frames, nil
}

// Encode writes the stream for a raw clip to w. Raw frames use a set bit for
// a black pixel.
func (e *Encoder) Encode(w io.Writer, clip []byte) (Stats, error) {
	frames, err := Split(e.opts.Geometry, clip)
	if err != nil {
		return Stats{}, err
	}
	return e.EncodeFrames(w, frames)
}

// EncodeFrames writes the stream for a sequence of raw frames to w.
func (e *Encoder) EncodeFrames(w io.Writer, frames [][]byte) (Stats, error) {
	size := e.opts.Geometry.Size()

	inverted := make([][]byte, len(frames))
	for i, f := range frames {
		if len(f) != size {
			return Stats{}, fmt.Errorf("badapple: frame %d is %d bytes, expected %d", i, len(f), size)
		}
		inverted[i] = make([]byte, size)
		frame.Invert(inverted[i], f)
	}

	state, err := border.Compute(e.opts.Geometry, inverted, e.opts.Window)
	if err != nil {
		return Stats{}, err
	}

	bw := bufio.NewWriter(w)
	delta := make([]byte, size)

	var stats Stats
	var prev []byte
	for i, cur := range inverted {
		payload, key := selectPayload(cur, prev, delta)

		h := frame.NewHeader(state.Left[i], state.Right[i], key)
		if i > 0 && (state.Left[i] != state.Left[i-1] || state.Right[i] != state.Right[i-1]) {
			e.logger.Printf("Frame %d: border change to %s\n", i, h)
		}
		if key {
			stats.Keyframes++
			if i > 0 {
				e.logger.Printf("Frame %d: delta too dense, using keyframe\n", i)
			}
		}

		n, err := frame.WriteRecord(bw, h, payload, crc16.Checksum(cur))
		if err != nil {
			return stats, err
		}
		stats.Frames++
		stats.Bytes += int64(n)

		prev = cur
	}

	if err := bw.Flush(); err != nil {
		return stats, err
	}

	e.logger.Printf("Encoded %d frames, %d keyframes, %d bytes\n", stats.Frames, stats.Keyframes, stats.Bytes)

	return stats, nil
}
