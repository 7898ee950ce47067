package frame

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGeometry(t *testing.T) {
	g := Default()
	require.NoError(t, g.Validate())
	assert.Equal(t, 10, g.RowBytes())
	assert.Equal(t, 640, g.Size())

	for _, bad := range []Geometry{{0, 64}, {12, 64}, {80, 0}, {-8, 8}} {
		assert.Error(t, bad.Validate(), "%+v", bad)
	}
}

func TestHeader(t *testing.T) {
	tests := []struct {
		left, right, key bool
		want             byte
	}{
		{false, false, false, 0x00},
		{true, false, false, 0x01},
		{false, true, false, 0x02},
		{false, false, true, 0x04},
		{true, true, true, 0x07},
	}

	for _, tt := range tests {
		h := NewHeader(tt.left, tt.right, tt.key)
		assert.Equal(t, tt.want, byte(h))
		assert.Equal(t, tt.left, h.LeftWhite())
		assert.Equal(t, tt.right, h.RightWhite())
		assert.Equal(t, tt.key, h.Keyframe())
	}

	assert.Equal(t, "key left=white right=black", NewHeader(true, false, true).String())
}

func TestInvert(t *testing.T) {
	b := []byte{0x00, 0xff, 0x0f}
	Invert(b, b)
	assert.Equal(t, []byte{0xff, 0x00, 0xf0}, b)
}

func TestXor(t *testing.T) {
	dst := make([]byte, 4)
	n := Xor(dst, []byte{1, 2, 3, 4}, []byte{1, 0, 3, 0})
	assert.Equal(t, 2, n)
	assert.Equal(t, []byte{0, 2, 0, 4}, dst)
}

func TestWriteRecord(t *testing.T) {
	var b bytes.Buffer
	n, err := WriteRecord(&b, NewHeader(false, true, true), []byte{5, 5, 5, 6}, 0xbeef)
	require.NoError(t, err)
	assert.Equal(t, b.Len(), n)
	assert.Equal(t, []byte{0x06, 3, 5, 1, 6, 0xef, 0xbe}, b.Bytes())
}
