/*
Package border decides the colour of the padding either side of the content
area for every frame of a clip.

Classify takes a majority vote of the leftmost and rightmost pixel columns of
each frame. Stabilize then filters the resulting sequence so that a change of
colour is only accepted when it persists, which stops single frame flicker
while still switching on the first frame of a sustained change.
*/
package border

import (
	"errors"

	"github.com/bodgit/badapple/frame"
)

// DefaultWindow is the number of frames a change must persist for.
const DefaultWindow = 15

var errBadWindow = errors.New("border: window must be at least 1")

// Majority holds the per-frame majority colour of each edge column, true
// meaning white.
type Majority struct {
	Left  []bool
	Right []bool
}

// Classify computes the edge column majorities of each frame in a clip. The
// frames must already be in stream convention, a set bit being white.
func Classify(g frame.Geometry, frames [][]byte) Majority {
	m := Majority{
		Left:  make([]bool, len(frames)),
		Right: make([]bool, len(frames)),
	}
	stride := g.RowBytes()
	for i, f := range frames {
		var left, right int
		for y := 0; y < g.Height; y++ {
			row := f[y*stride : (y+1)*stride]
			if row[0]&0x80 != 0 {
				left++
			}
			if row[stride-1]&0x01 != 0 {
				right++
			}
		}
		// Ties are black
		m.Left[i] = left > g.Height/2
		m.Right[i] = right > g.Height/2
	}
	return m
}

// Stabilize filters a majority sequence. A differing value only replaces the
// current state if every one of the following window-1 frames, or as many as
// remain, agrees with it.
func Stabilize(majority []bool, window int) ([]bool, error) {
	if window < 1 {
		return nil, errBadWindow
	}
	out := make([]bool, len(majority))
	if len(majority) == 0 {
		return out, nil
	}

	current := majority[0]
	out[0] = current
	for f := 1; f < len(majority); f++ {
		if m := majority[f]; m != current && sustained(majority[f+1:], m, window-1) {
			current = m
		}
		out[f] = current
	}
	return out, nil
}

func sustained(ahead []bool, m bool, n int) bool {
	if len(ahead) > n {
		ahead = ahead[:n]
	}
	for _, v := range ahead {
		if v != m {
			return false
		}
	}
	return true
}

// State is the stabilized colour of both borders for every frame.
type State struct {
	Left  []bool
	Right []bool
}

// Compute classifies and stabilizes both sides of a clip.
func Compute(g frame.Geometry, frames [][]byte, window int) (State, error) {
	m := Classify(g, frames)
	left, err := Stabilize(m.Left, window)
	if err != nil {
		return State{}, err
	}
	right, err := Stabilize(m.Right, window)
	if err != nil {
		return State{}, err
	}
	return State{Left: left, Right: right}, nil
}
