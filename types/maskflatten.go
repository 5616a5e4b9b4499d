package types

import "math"

// FlattenMask writes m as x1,y1,x2,y2,…, NaN, x3,y3,… — a single NaN
// separates consecutive polygons; there is no trailing separator and no
// leading separator before the first polygon.
func FlattenMask(m Mask) []float32 {
	var out []float32
	for i, ring := range m {
		if i > 0 {
			out = append(out, float32(math.NaN()))
		}
		for _, p := range ring {
			out = append(out, float32(p.X), float32(p.Y))
		}
	}
	return out
}

// UnflattenMask is the inverse of FlattenMask. A lone NaN token between
// rings is the ordinary polygon separator; a NaN appearing as either half
// of an otherwise-paired (x,y) also terminates the current polygon, so
// (finite, NaN) has the same effect as a clean separator. Rings shorter
// than three points are dropped, mirroring every polygon constructor in
// this package.
func UnflattenMask(flat []float32) Mask {
	var m Mask
	var ring []Point
	flush := func() {
		if len(ring) >= 3 {
			m = append(m, ring)
		}
		ring = nil
	}

	havePendingX := false
	var pendingX float32
	for _, v := range flat {
		if !havePendingX {
			if isNaN32(v) {
				flush()
				continue
			}
			pendingX = v
			havePendingX = true
			continue
		}
		x, y := pendingX, v
		havePendingX = false
		if isNaN32(x) || isNaN32(y) {
			flush()
			continue
		}
		ring = append(ring, Point{X: float64(x), Y: float64(y)})
	}
	flush()
	return m
}

func isNaN32(f float32) bool { return f != f }
