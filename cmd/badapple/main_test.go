package main

import (
	"bytes"
	"errors"
	"io/ioutil"
	"log"
	"path/filepath"
	"testing"

	"github.com/bodgit/badapple"
	"github.com/bodgit/badapple/frame"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"
)

var errClose = errors.New("close failed")

type closer struct {
	bytes.Buffer
	err    error
	closed bool
}

func (c *closer) Close() error {
	c.closed = true
	return c.err
}

func newEncoder(t *testing.T) *badapple.Encoder {
	t.Helper()
	opts := badapple.DefaultOptions()
	opts.Geometry = frame.Geometry{Width: 16, Height: 2}
	e, err := badapple.NewEncoder(opts, log.New(ioutil.Discard, "", 0))
	require.NoError(t, err)
	return e
}

func TestEncodeStream(t *testing.T) {
	t.Run("ok", func(t *testing.T) {
		w := &closer{}
		stats, err := encodeStream(newEncoder(t), w, []byte{1, 1, 1, 1})
		require.NoError(t, err)
		assert.True(t, w.closed)
		assert.Equal(t, 1, stats.Frames)
		assert.NotZero(t, w.Len())
	})

	t.Run("close error", func(t *testing.T) {
		w := &closer{err: errClose}
		_, err := encodeStream(newEncoder(t), w, []byte{1, 1, 1, 1})
		assert.ErrorIs(t, err, errClose)
		assert.True(t, w.closed)
	})

	t.Run("encode error", func(t *testing.T) {
		w := &closer{err: errClose}
		_, err := encodeStream(newEncoder(t), w, []byte{1, 1, 1})
		require.Error(t, err)
		assert.NotErrorIs(t, err, errClose)
		assert.True(t, w.closed)
	})
}

func catalogFlagOf(t *testing.T, app *cli.App, command string) *cli.StringFlag {
	t.Helper()
	for _, c := range app.Commands {
		if c.Name != command {
			continue
		}
		for _, f := range c.Flags {
			if sf, ok := f.(*cli.StringFlag); ok && sf.Name == "catalog" {
				return sf
			}
		}
	}
	require.FailNow(t, "no catalog flag", command)
	return nil
}

func TestCatalogFlags(t *testing.T) {
	cwd := t.TempDir()
	app := newApp(cwd)

	encodeFlag := catalogFlagOf(t, app, "encode")
	assert.Empty(t, encodeFlag.Value)
	assert.Equal(t, []string{"BADAPPLE_CATALOG"}, encodeFlag.EnvVars)

	listFlag := catalogFlagOf(t, app, "list")
	assert.Equal(t, filepath.Join(cwd, defaultCatalog), listFlag.Value)
}
