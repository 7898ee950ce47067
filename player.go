package badapple

import (
	"context"
	"errors"
	"log"
	"time"
)

// FrameDelay is the interval between frames of the original player, roughly
// 15 frames per second.
const FrameDelay = 66 * time.Millisecond

// Renderer draws a decoded frame. content is in stream convention and the
// border flags are true for white.
type Renderer interface {
	Render(content []byte, left, right bool) error
}

// Ticker delivers "advance one frame" signals.
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

type timeTicker struct {
	t *time.Ticker
}

// NewTicker returns a Ticker firing every d.
func NewTicker(d time.Duration) Ticker {
	return &timeTicker{time.NewTicker(d)}
}

func (t *timeTicker) C() <-chan time.Time { return t.t.C }

func (t *timeTicker) Stop() { t.t.Stop() }

// Command changes the behaviour of a running Player.
type Command int

// Player commands.
const (
	TogglePause Command = iota + 1
	ToggleLoop
	Quit
)

var errNoFrames = errors.New("badapple: stream contains no playable frames")

// Player drives a Decoder from a Ticker, handing each frame to a Renderer.
// On a decode failure it either rewinds to the start or stops, depending on
// whether looping is enabled.
type Player struct {
	dec    *Decoder
	r      Renderer
	logger *log.Logger

	loop   bool
	paused bool
	frames int
}

// NewPlayer returns a Player with looping enabled.
func NewPlayer(dec *Decoder, r Renderer, logger *log.Logger) *Player {
	return &Player{
		dec:    dec,
		r:      r,
		logger: logger,
		loop:   true,
	}
}

// SetLoop enables or disables looping.
func (p *Player) SetLoop(loop bool) {
	p.loop = loop
}

// Frames returns the number of frames rendered so far.
func (p *Player) Frames() int {
	return p.frames
}

// step decodes and renders a single frame. It returns false when playback
// has finished.
func (p *Player) step() (bool, error) {
	if p.dec.Next() {
		return true, p.render()
	}

	if !p.dec.AtEnd() {
		p.logger.Printf("Frame at offset %d: %v\n", p.dec.Offset(), p.dec.Err())
	}
	if !p.loop {
		p.logger.Println("End of video")
		return false, nil
	}

	p.logger.Println("Rewinding")
	if err := p.dec.Rewind(); err != nil {
		return false, err
	}
	if !p.dec.Next() {
		return false, errNoFrames
	}
	return true, p.render()
}

func (p *Player) render() error {
	h := p.dec.Header()
	if err := p.r.Render(p.dec.Frame(), h.LeftWhite(), h.RightWhite()); err != nil {
		return err
	}
	p.frames++
	return nil
}

// Play renders frames on every tick of t until the stream ends with looping
// disabled, a Quit command is received or ctx is cancelled. Ticks that arrive
// while paused are dropped.
func (p *Player) Play(ctx context.Context, t Ticker, commands <-chan Command) error {
	defer t.Stop()

	if more, err := p.step(); err != nil || !more {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case c, ok := <-commands:
			if !ok {
				// Closed, stop listening
				commands = nil
				continue
			}
			switch c {
			case TogglePause:
				p.paused = !p.paused
				p.logger.Printf("Paused: %v\n", p.paused)
			case ToggleLoop:
				p.loop = !p.loop
				p.logger.Printf("Loop: %v\n", p.loop)
			case Quit:
				return nil
			}
		case <-t.C():
			if p.paused {
				continue
			}
			if more, err := p.step(); err != nil || !more {
				return err
			}
		}
	}
}
