package badapple

import (
	"bytes"
	"encoding/binary"
	"io"
	"testing"

	"github.com/bodgit/badapple/crc16"
	"github.com/bodgit/badapple/frame"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var tiny = frame.Geometry{Width: 16, Height: 2}

func tinyOptions() Options {
	opts := DefaultOptions()
	opts.Geometry = tiny
	return opts
}

// record builds a record by hand, checksum is of reconstructed.
func record(h frame.Header, runs []byte, reconstructed []byte) []byte {
	b := append([]byte{byte(h)}, runs...)
	return binary.LittleEndian.AppendUint16(b, crc16.Checksum(reconstructed))
}

func TestDecoderStates(t *testing.T) {
	stream, _ := encode(t, tinyOptions(), []byte{1, 2, 3, 4}, []byte{1, 2, 3, 5})

	d, err := NewDecoder(bytes.NewReader(stream), tiny)
	require.NoError(t, err)
	assert.Nil(t, d.Frame())

	require.True(t, d.Next())
	assert.Equal(t, Committed, d.State())
	assert.NoError(t, d.Err())
	assert.Equal(t, int64(0), d.Offset())
	assert.Equal(t, []byte{^byte(1), ^byte(2), ^byte(3), ^byte(4)}, d.Frame())

	require.True(t, d.Next())
	assert.False(t, d.Header().Keyframe())
	assert.Equal(t, []byte{^byte(1), ^byte(2), ^byte(3), ^byte(5)}, d.Frame())

	assert.False(t, d.Next())
	assert.Equal(t, Failed, d.State())
	assert.True(t, d.AtEnd())
	assert.ErrorIs(t, d.Err(), ErrStreamTruncated)
	assert.ErrorIs(t, d.Err(), io.EOF)
	assert.Nil(t, d.Frame())
}

func TestDecoderErrors(t *testing.T) {
	zero := make([]byte, tiny.Size())
	key := frame.NewHeader(false, false, true)

	tests := []struct {
		name string
		in   []byte
		err  error
	}{
		{
			name: "delta without history",
			in:   record(frame.NewHeader(true, true, false), []byte{4, 0}, zero),
			err:  ErrDeltaWithoutHistory,
		},
		{
			name: "run overflow",
			in:   record(key, []byte{5, 0}, zero),
			err:  ErrRunOverflow,
		},
		{
			name: "checksum mismatch",
			in:   record(key, []byte{4, 1}, zero),
			err:  ErrChecksumMismatch,
		},
		{
			name: "truncated runs",
			in:   []byte{byte(key), 3, 0},
			err:  ErrStreamTruncated,
		},
		{
			name: "truncated checksum",
			in:   []byte{byte(key), 4, 0, 0x12},
			err:  ErrStreamTruncated,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := NewDecoder(bytes.NewReader(tt.in), tiny)
			require.NoError(t, err)
			assert.False(t, d.Next())
			assert.ErrorIs(t, d.Err(), tt.err)
			assert.False(t, d.AtEnd())
			assert.Equal(t, Failed, d.State())
			assert.Nil(t, d.Frame())
		})
	}
}

func TestDecoderFailureStages(t *testing.T) {
	zero := make([]byte, tiny.Size())
	key := frame.NewHeader(false, false, true)

	tests := []struct {
		name  string
		in    []byte
		state State
	}{
		{"delta without history", record(0, []byte{4, 0}, zero), ApplyingDelta},
		{"run overflow", record(key, []byte{5, 0}, zero), DecodingRuns},
		{"checksum mismatch", record(key, []byte{4, 1}, zero), VerifyingChecksum},
		{"empty", nil, AwaitingHeader},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := NewDecoder(bytes.NewReader(tt.in), tiny)
			require.NoError(t, err)
			assert.Error(t, d.decode())
			assert.Equal(t, tt.state, d.state)
		})
	}
}

func TestDecoderZeroDeltaIsNotBlank(t *testing.T) {
	// A delta of zeros with no history must fail even though its checksum
	// matches a blank frame.
	zero := make([]byte, tiny.Size())
	d, err := NewDecoder(bytes.NewReader(record(0, []byte{4, 0}, zero)), tiny)
	require.NoError(t, err)
	assert.False(t, d.Next())
	assert.ErrorIs(t, d.Err(), ErrDeltaWithoutHistory)
}

func TestDecoderTruncation(t *testing.T) {
	stream, _ := encode(t, tinyOptions(), []byte{1, 1, 1, 1}, []byte{1, 1, 1, 2}, []byte{0xff, 0, 0xff, 0})

	d, err := NewDecoder(bytes.NewReader(stream), tiny)
	require.NoError(t, err)
	require.True(t, d.Next())
	second := d.r.n
	require.True(t, d.Next())
	third := d.r.n

	// Truncate anywhere inside the second record
	for cut := second; cut < third; cut++ {
		d, err := NewDecoder(bytes.NewReader(stream[:cut]), tiny)
		require.NoError(t, err)
		require.True(t, d.Next())

		cache := append([]byte(nil), d.prev...)

		assert.False(t, d.Next(), "cut at %d", cut)
		assert.ErrorIs(t, d.Err(), ErrStreamTruncated, "cut at %d", cut)
		assert.Equal(t, cut == second, d.AtEnd(), "cut at %d", cut)
		assert.Equal(t, cache, d.prev, "cut at %d", cut)
		assert.Nil(t, d.Frame())
	}
}

func TestDecoderFailureInvalidatesHistory(t *testing.T) {
	stream, _ := encode(t, tinyOptions(), []byte{1, 1, 1, 1}, []byte{1, 1, 1, 2})

	d, err := NewDecoder(bytes.NewReader(stream), tiny)
	require.NoError(t, err)
	require.True(t, d.Next())
	second := stream[d.r.n:]

	// Corrupt record, then the valid delta
	bad := append([]byte(nil), stream[:d.r.n]...)
	bad = append(bad, record(frame.NewHeader(false, false, true), []byte{4, 0}, []byte{1, 2, 3, 4})...)
	bad = append(bad, second...)

	d, err = NewDecoder(bytes.NewReader(bad), tiny)
	require.NoError(t, err)
	require.True(t, d.Next())
	assert.False(t, d.Next())
	assert.ErrorIs(t, d.Err(), ErrChecksumMismatch)
	assert.False(t, d.Next())
	assert.ErrorIs(t, d.Err(), ErrDeltaWithoutHistory)
}

func TestDecoderRewind(t *testing.T) {
	stream, _ := encode(t, tinyOptions(), []byte{1, 1, 1, 1}, []byte{1, 1, 1, 2})

	d, err := NewDecoder(bytes.NewReader(stream), tiny)
	require.NoError(t, err)

	var first [][]byte
	for d.Next() {
		first = append(first, append([]byte(nil), d.Frame()...))
	}
	require.True(t, d.AtEnd())
	require.Len(t, first, 2)

	require.NoError(t, d.Rewind())
	assert.Equal(t, AwaitingHeader, d.State())
	for i := range first {
		require.True(t, d.Next())
		assert.Equal(t, first[i], d.Frame())
	}
}

func TestDecoderRewindForgetsHistory(t *testing.T) {
	stream, _ := encode(t, tinyOptions(), []byte{1, 1, 1, 1}, []byte{1, 1, 1, 2})

	d, err := NewDecoder(bytes.NewReader(stream), tiny)
	require.NoError(t, err)
	require.True(t, d.Next())
	require.True(t, d.Next())
	require.False(t, d.Header().Keyframe())
	delta := d.Offset()

	require.NoError(t, d.Rewind())
	assert.False(t, d.havePrev)

	require.NoError(t, d.Seek(delta))
	assert.False(t, d.Next())
	assert.ErrorIs(t, d.Err(), ErrDeltaWithoutHistory)
	assert.Equal(t, Failed, d.State())
	assert.Nil(t, d.Frame())

	// A rewind then a keyframe recovers
	require.NoError(t, d.Rewind())
	require.True(t, d.Next())
	require.True(t, d.Next())
	assert.Equal(t, []byte{0xfe, 0xfe, 0xfe, 0xfd}, d.Frame())
}

func TestDecoderSeekUnsupported(t *testing.T) {
	d, err := NewDecoder(io.MultiReader(bytes.NewReader(nil)), tiny)
	require.NoError(t, err)
	assert.Error(t, d.Rewind())
}

func TestNewDecoderGeometry(t *testing.T) {
	_, err := NewDecoder(bytes.NewReader(nil), frame.Geometry{Width: 7, Height: 1})
	assert.Error(t, err)
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "applying delta", ApplyingDelta.String())
	assert.Equal(t, "State(9)", State(9).String())
}
