package main

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"image/png"
	"io/ioutil"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/bodgit/badapple"
	"github.com/bodgit/badapple/display"
	"github.com/bodgit/badapple/frame"
	"github.com/bodgit/badapple/index"
	"github.com/urfave/cli/v2"
)

const defaultCatalog = "badapple.db"

func init() {
	cli.VersionFlag = &cli.BoolFlag{
		Name:    "version",
		Aliases: []string{"V"},
		Usage:   "print the version",
	}
}

func newLogger(c *cli.Context) *log.Logger {
	logger := log.New(ioutil.Discard, "", 0)
	if c.Bool("verbose") {
		logger.SetOutput(os.Stderr)
	}
	return logger
}

func geometry(c *cli.Context) frame.Geometry {
	return frame.Geometry{
		Width:  c.Int("width"),
		Height: c.Int("height"),
	}
}

func readIndex(file string) (*index.Index, error) {
	b, err := ioutil.ReadFile(file + index.Extension)
	if err != nil {
		return nil, err
	}
	idx := index.New()
	if err := idx.UnmarshalBinary(b); err != nil {
		return nil, err
	}
	return idx, nil
}

func writeIndex(file string, g frame.Geometry) (*index.Index, error) {
	f, err := os.Open(file)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	idx, err := index.Build(f, g)
	if err != nil {
		return nil, err
	}

	b, err := idx.MarshalBinary()
	if err != nil {
		return nil, err
	}

	return idx, ioutil.WriteFile(file+index.Extension, b, 0644)
}

func encode(c *cli.Context) error {
	if c.NArg() < 2 {
		cli.ShowCommandHelpAndExit(c, c.Command.FullName(), 1)
	}

	logger := newLogger(c)

	opts := badapple.DefaultOptions()
	opts.Geometry = geometry(c)
	opts.Window = c.Int("window")

	e, err := badapple.NewEncoder(opts, logger)
	if err != nil {
		return cli.Exit(err, 1)
	}

	input := c.Args().Get(0)
	fi, err := os.Stat(input)
	if err != nil {
		return cli.Exit(err, 1)
	}

	var clip []byte
	if fi.IsDir() {
		frames, err := badapple.ImportImages(c.Context, input, opts.Geometry)
		if err != nil {
			return cli.Exit(err, 1)
		}
		clip = bytes.Join(frames, nil)
		logger.Printf("Imported %d images from \"%s\"\n", len(frames), input)
	} else {
		if clip, err = readClip(input); err != nil {
			return cli.Exit(err, 1)
		}
	}

	output := c.Args().Get(1)
	f, err := os.Create(output)
	if err != nil {
		return cli.Exit(err, 1)
	}

	stats, err := encodeStream(e, f, clip)
	if err != nil {
		return cli.Exit(err, 1)
	}

	if c.Bool("index") {
		if _, err := writeIndex(output, opts.Geometry); err != nil {
			return cli.Exit(err, 1)
		}
	}

	if file := c.String("catalog"); file != "" {
		catalog, err := badapple.OpenCatalog(file)
		if err != nil {
			return cli.Exit(err, 1)
		}
		defer catalog.Close()

		name := c.String("name")
		if name == "" {
			name = strings.TrimSuffix(filepath.Base(input), filepath.Ext(input))
		}

		entry, err := catalog.Add(name, clip, opts.Geometry, stats)
		if err != nil {
			return cli.Exit(err, 1)
		}
		logger.Printf("Catalogued \"%s\" as %s\n", entry.Name, entry.ID)
	}

	fmt.Printf("Encoded %d frames (%d keyframes) into %d bytes\n", stats.Frames, stats.Keyframes, stats.Bytes)

	return nil
}

func decode(c *cli.Context) error {
	if c.NArg() < 2 {
		cli.ShowCommandHelpAndExit(c, c.Command.FullName(), 1)
	}

	logger := newLogger(c)
	g := geometry(c)

	input := c.Args().Get(0)
	f, err := os.Open(input)
	if err != nil {
		return cli.Exit(err, 1)
	}
	defer f.Close()

	d, err := badapple.NewDecoder(f, g)
	if err != nil {
		return cli.Exit(err, 1)
	}

	// Skip to the nearest keyframe if an index is available
	start, skip := c.Int("start"), 0
	if start > 0 {
		idx, err := readIndex(input)
		if err != nil {
			return cli.Exit(err, 1)
		}
		n, e, err := idx.Nearest(start)
		if err != nil {
			return cli.Exit(err, 1)
		}
		if err := d.Seek(int64(e.Offset)); err != nil {
			return cli.Exit(err, 1)
		}
		skip = start - n
	}

	out, err := createClip(c.Args().Get(1))
	if err != nil {
		return cli.Exit(err, 1)
	}
	defer out.Close()
	w := bufio.NewWriter(out)

	var s *display.Surface
	dir := c.String("png")
	if dir != "" {
		if s, err = display.New(g, c.Int("surface-width")); err != nil {
			return cli.Exit(err, 1)
		}
		if err := os.MkdirAll(dir, 0755); err != nil {
			return cli.Exit(err, 1)
		}
	}

	raw := make([]byte, g.Size())
	var n int
	for d.Next() {
		if skip > 0 {
			skip--
			continue
		}

		frame.Invert(raw, d.Frame())
		if _, err := w.Write(raw); err != nil {
			return cli.Exit(err, 1)
		}

		if s != nil {
			h := d.Header()
			if err := s.Render(d.Frame(), h.LeftWhite(), h.RightWhite()); err != nil {
				return cli.Exit(err, 1)
			}
			if err := writePNG(filepath.Join(dir, fmt.Sprintf("%06d.png", start+n)), s); err != nil {
				return cli.Exit(err, 1)
			}
		}
		n++
	}
	if !d.AtEnd() {
		logger.Printf("Stopped at offset %d (%s): %v\n", d.Offset(), d.State(), d.Err())
	}

	if err := w.Flush(); err != nil {
		return cli.Exit(err, 1)
	}
	if err := out.Close(); err != nil {
		return cli.Exit(err, 1)
	}

	fmt.Printf("Decoded %d frames\n", n)

	return nil
}

func writePNG(file string, s *display.Surface) error {
	f, err := os.Create(file)
	if err != nil {
		return err
	}
	defer f.Close()

	return png.Encode(f, s.Image())
}

func play(c *cli.Context) error {
	if c.NArg() < 1 {
		cli.ShowCommandHelpAndExit(c, c.Command.FullName(), 1)
	}

	logger := newLogger(c)
	g := geometry(c)

	f, err := os.Open(c.Args().First())
	if err != nil {
		return cli.Exit(err, 1)
	}
	defer f.Close()

	d, err := badapple.NewDecoder(f, g)
	if err != nil {
		return cli.Exit(err, 1)
	}

	s, err := display.New(g, c.Int("surface-width"))
	if err != nil {
		return cli.Exit(err, 1)
	}

	p := badapple.NewPlayer(d, display.NewTerminal(s, os.Stdout), logger)
	p.SetLoop(!c.Bool("no-loop"))

	ctx, cancel := signal.NotifyContext(c.Context, os.Interrupt)
	defer cancel()

	// Clear the screen
	fmt.Print("\x1b[2J")

	if err := p.Play(ctx, badapple.NewTicker(c.Duration("delay")), readCommands(ctx)); err != nil && err != context.Canceled {
		return cli.Exit(err, 1)
	}

	return nil
}

// readCommands maps lines on stdin to player commands: "p" pauses, "l"
// toggles looping and "q" quits.
func readCommands(ctx context.Context) <-chan badapple.Command {
	out := make(chan badapple.Command)
	go func() {
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			var cmd badapple.Command
			switch strings.TrimSpace(scanner.Text()) {
			case "p":
				cmd = badapple.TogglePause
			case "l":
				cmd = badapple.ToggleLoop
			case "q":
				cmd = badapple.Quit
			default:
				continue
			}
			select {
			case out <- cmd:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}

func info(c *cli.Context) error {
	if c.NArg() < 1 {
		cli.ShowCommandHelpAndExit(c, c.Command.FullName(), 1)
	}

	g := geometry(c)
	file := c.Args().First()

	idx, err := writeIndex(file, g)
	if err != nil {
		return cli.Exit(err, 1)
	}

	fi, err := os.Stat(file)
	if err != nil {
		return cli.Exit(err, 1)
	}

	fmt.Printf("Frames:      %d\n", idx.Length())
	fmt.Printf("Keyframes:   %d\n", idx.Keyframes())
	fmt.Printf("Bytes:       %d\n", fi.Size())
	if idx.Length() > 0 {
		fmt.Printf("Bytes/frame: %.1f (raw %d)\n", float64(fi.Size())/float64(idx.Length()), g.Size())
	}

	return nil
}

func list(c *cli.Context) error {
	catalog, err := badapple.OpenCatalog(c.String("catalog"))
	if err != nil {
		return cli.Exit(err, 1)
	}
	defer catalog.Close()

	clips, err := catalog.List()
	if err != nil {
		return cli.Exit(err, 1)
	}

	for _, clip := range clips {
		fmt.Printf("%s %s %dx%d %d frames %d keyframes %d bytes %s %s\n", clip.ID, clip.Hash, clip.Geometry.Width, clip.Geometry.Height, clip.Frames, clip.Keyframes, clip.Bytes, clip.Created.Format("2006-01-02 15:04:05"), clip.Name)
	}

	return nil
}

func newApp(cwd string) *cli.App {
	app := cli.NewApp()

	app.Name = "badapple"
	app.Usage = "1-bit video encoder and player"
	app.Version = "1.0.0"

	geometryFlags := []cli.Flag{
		&cli.IntFlag{
			Name:  "width",
			Value: frame.DefaultWidth,
			Usage: "frame width in pixels, a multiple of 8",
		},
		&cli.IntFlag{
			Name:  "height",
			Value: frame.DefaultHeight,
			Usage: "frame height in pixels",
		},
	}

	catalogFlag := &cli.StringFlag{
		Name:    "catalog",
		EnvVars: []string{"BADAPPLE_CATALOG"},
		Value:   filepath.Join(cwd, defaultCatalog),
		Usage:   "path to catalog database",
	}

	surfaceFlag := &cli.IntFlag{
		Name:  "surface-width",
		Value: display.DefaultWidth,
		Usage: "display width in pixels including borders",
	}

	app.Flags = []cli.Flag{
		&cli.BoolFlag{
			Name:    "verbose",
			Aliases: []string{"v"},
			Usage:   "increase verbosity",
		},
	}

	app.Commands = []*cli.Command{
		{
			Name:        "encode",
			Usage:       "Encode a raw clip or a directory of images",
			Description: "Raw clips use a set bit for a black pixel and may be zstd compressed with a .zst extension. The clip is only catalogued when --catalog or BADAPPLE_CATALOG is set.",
			ArgsUsage:   "INPUT OUTPUT",
			Flags: append([]cli.Flag{
				&cli.IntFlag{
					Name:  "window",
					Value: badapple.DefaultOptions().Window,
					Usage: "frames a border colour change must persist for",
				},
				&cli.BoolFlag{
					Name:  "index",
					Usage: "write an index alongside the stream",
				},
				&cli.StringFlag{
					Name:    "catalog",
					EnvVars: []string{"BADAPPLE_CATALOG"},
					Usage:   "record the clip in this catalog database",
				},
				&cli.StringFlag{
					Name:  "name",
					Usage: "catalog name, defaults to the input filename",
				},
			}, geometryFlags...),
			Action: encode,
		},
		{
			Name:      "decode",
			Usage:     "Decode a stream to a raw clip",
			ArgsUsage: "INPUT OUTPUT",
			Flags: append([]cli.Flag{
				&cli.StringFlag{
					Name:  "png",
					Usage: "also write each composited frame as a PNG to this directory",
				},
				&cli.IntFlag{
					Name:  "start",
					Usage: "first frame to decode, requires an index",
				},
				surfaceFlag,
			}, geometryFlags...),
			Action: decode,
		},
		{
			Name:        "play",
			Usage:       "Play a stream in the terminal",
			Description: "Enter p to pause, l to toggle looping and q to quit.",
			ArgsUsage:   "FILE",
			Flags: append([]cli.Flag{
				&cli.DurationFlag{
					Name:  "delay",
					Value: badapple.FrameDelay,
					Usage: "delay between frames",
				},
				&cli.BoolFlag{
					Name:  "no-loop",
					Usage: "stop at the end rather than looping",
				},
				surfaceFlag,
			}, geometryFlags...),
			Action: play,
		},
		{
			Name:      "info",
			Usage:     "Show stream statistics and write its index",
			ArgsUsage: "FILE",
			Flags:     geometryFlags,
			Action:    info,
		},
		{
			Name:   "list",
			Usage:  "List catalogued clips",
			Flags:  []cli.Flag{catalogFlag},
			Action: list,
		},
	}

	return app
}

func main() {
	cwd, err := os.Getwd()
	if err != nil {
		log.Fatal(err)
	}

	if err := newApp(cwd).Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
