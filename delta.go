package badapple

import "github.com/bodgit/badapple/frame"

// IsKeyframe reports whether a delta with changed nonzero bytes out of size
// is dense enough that the whole frame should be sent instead. Scene cuts
// produce near random deltas that compress worse than the frame itself.
func IsKeyframe(changed, size int) bool {
	return changed*4 > size*3
}

// selectPayload returns the payload to encode for cur and whether it is a
// keyframe. prev is nil for the first frame. delta is scratch space of the
// same size as cur.
func selectPayload(cur, prev, delta []byte) ([]byte, bool) {
	if prev == nil {
		return cur, true
	}
	if IsKeyframe(frame.Xor(delta, cur, prev), len(cur)) {
		return cur, true
	}
	return delta, false
}
