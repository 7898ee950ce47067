package display

import (
	"bufio"
	"io"
)

// Terminal renders a Surface as text using half block characters, two
// pixel rows per line.
type Terminal struct {
	*Surface
	w *bufio.Writer
}

// NewTerminal returns a Terminal writing to w.
func NewTerminal(s *Surface, w io.Writer) *Terminal {
	return &Terminal{
		Surface: s,
		w:       bufio.NewWriter(w),
	}
}

// Indexed by top then bottom pixel, white pixels are drawn
var blocks = [2][2]string{
	{" ", "▄"},
	{"▀", "█"},
}

func index(white bool) int {
	if white {
		return 1
	}
	return 0
}

// Render composites the frame then redraws the whole surface from the top
// left of the terminal.
func (t *Terminal) Render(content []byte, left, right bool) error {
	if err := t.Surface.Render(content, left, right); err != nil {
		return err
	}

	// Cursor home
	if _, err := t.w.WriteString("\x1b[H"); err != nil {
		return err
	}

	b := t.Bounds()
	for y := 0; y < b.Dy(); y += 2 {
		for x := 0; x < b.Dx(); x++ {
			var bottom bool
			if y+1 < b.Dy() {
				bottom = t.White(x, y+1)
			}
			if _, err := t.w.WriteString(blocks[index(t.White(x, y))][index(bottom)]); err != nil {
				return err
			}
		}
		if err := t.w.WriteByte('\n'); err != nil {
			return err
		}
	}

	return t.w.Flush()
}
