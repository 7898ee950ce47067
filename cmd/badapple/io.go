package main

import (
	"io"
	"io/ioutil"
	"os"
	"path/filepath"
	"strings"

	"github.com/bodgit/badapple"
	"github.com/klauspost/compress/zstd"
)

func isZstd(file string) bool {
	return strings.EqualFold(filepath.Ext(file), ".zst")
}

// readClip reads a raw clip, decompressing it if it has a .zst extension.
func readClip(file string) ([]byte, error) {
	f, err := os.Open(file)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	if !isZstd(file) {
		return ioutil.ReadAll(f)
	}

	dec, err := zstd.NewReader(f)
	if err != nil {
		return nil, err
	}
	defer dec.Close()

	return ioutil.ReadAll(dec)
}

type zstdFile struct {
	*zstd.Encoder
	f *os.File
}

func (z *zstdFile) Close() error {
	if err := z.Encoder.Close(); err != nil {
		z.f.Close()
		return err
	}
	return z.f.Close()
}

// createClip creates a file for writing a raw clip, compressing it if it has
// a .zst extension.
func createClip(file string) (io.WriteCloser, error) {
	f, err := os.Create(file)
	if err != nil {
		return nil, err
	}

	if !isZstd(file) {
		return f, nil
	}

	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedBestCompression))
	if err != nil {
		f.Close()
		return nil, err
	}
	return &zstdFile{enc, f}, nil
}

// encodeStream encodes clip to w and closes it. A failed close is reported as
// the stream may not have been completely written.
func encodeStream(e *badapple.Encoder, w io.WriteCloser, clip []byte) (badapple.Stats, error) {
	stats, err := e.Encode(w, clip)
	if err != nil {
		w.Close()
		return stats, err
	}
	return stats, w.Close()
}
