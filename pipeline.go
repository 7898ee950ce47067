package badapple

import (
	"context"
	"errors"
	"fmt"
	stdimage "image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"

	"github.com/bodgit/badapple/frame"
	"github.com/bodgit/badapple/image"
)

type job struct {
	index int
	file  string
}

func isImage(file string) bool {
	switch strings.ToLower(filepath.Ext(file)) {
	case ".gif", ".jpeg", ".jpg", ".png":
		return true
	}
	return false
}

// findImages lists the images in dir sorted by name.
func findImages(dir string) ([]string, error) {
	d, err := os.Open(dir)
	if err != nil {
		return nil, err
	}
	defer d.Close()

	info, err := d.Stat()
	if err != nil {
		return nil, err
	}

	if !info.IsDir() {
		return nil, errors.New("not a directory")
	}

	names, err := d.Readdirnames(0)
	if err != nil {
		return nil, err
	}

	var files []string
	for _, name := range names {
		// Ignore any hidden files, otherwise we end up fighting with things like Spotlight, etc.
		if name[0] == '.' || !isImage(name) {
			continue
		}
		files = append(files, filepath.Join(dir, name))
	}
	sort.Strings(files)

	return files, nil
}

func sendJobs(ctx context.Context, files []string) (<-chan job, <-chan error) {
	out := make(chan job)
	errc := make(chan error, 1)
	go func() {
		defer close(out)
		defer close(errc)
		for i, file := range files {
			select {
			case out <- job{i, file}:
			case <-ctx.Done():
				errc <- errors.New("import cancelled")
				return
			}
		}
	}()
	return out, errc
}

func convertImage(file string, g frame.Geometry) ([]byte, error) {
	f, err := os.Open(file)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	m, _, err := stdimage.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", file, err)
	}

	b, err := image.Frame(m, g)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", file, err)
	}
	return b, nil
}

func imageWorker(ctx context.Context, in <-chan job, g frame.Geometry, frames [][]byte) <-chan error {
	errc := make(chan error, 1)
	go func() {
		defer close(errc)
		for j := range in {
			b, err := convertImage(j.file, g)
			if err != nil {
				errc <- err
				return
			}
			// Each worker writes a distinct index
			frames[j.index] = b
		}
	}()
	return errc
}

func waitForPipeline(errs ...<-chan error) error {
	errc := mergeErrors(errs...)
	for err := range errc {
		if err != nil {
			return err
		}
	}
	return nil
}

func mergeErrors(cs ...<-chan error) <-chan error {
	var wg sync.WaitGroup
	out := make(chan error, len(cs))
	wg.Add(len(cs))
	for _, c := range cs {
		go func(c <-chan error) {
			for n := range c {
				out <- n
			}
			wg.Done()
		}(c)
	}
	go func() {
		wg.Wait()
		close(out)
	}()
	return out
}

// ImportImages converts a directory of images, taken in filename order, into
// a raw clip of geometry g.
func ImportImages(ctx context.Context, dir string, g frame.Geometry) ([][]byte, error) {
	if err := g.Validate(); err != nil {
		return nil, err
	}

	files, err := findImages(dir)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no images found in %s", dir)
	}

	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	frames := make([][]byte, len(files))

	jobs, errc := sendJobs(ctx, files)
	errcList := []<-chan error{errc}

	for i := 0; i < runtime.NumCPU(); i++ {
		errcList = append(errcList, imageWorker(ctx, jobs, g, frames))
	}

	if err := waitForPipeline(errcList...); err != nil {
		return nil, err
	}

	return frames, nil
}
