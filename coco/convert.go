package coco

import (
	"math"

	"github.com/EdgeFirstAI/client-sub000/types"
)

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// BboxToBox2d normalizes a COCO pixel bbox [x,y,w,h] by image width/height
// to a top-left-origin Box2d in 0..1. Each component is clamped to [0,1]
// only at the outer boundary; boxes that touch the edge are not silently
// shrunk.
func BboxToBox2d(bbox [4]float64, width, height uint32) types.Box2d {
	w, h := float64(width), float64(height)
	return types.Box2d{
		Left:   clamp01(bbox[0] / w),
		Top:    clamp01(bbox[1] / h),
		Width:  clamp01(bbox[2] / w),
		Height: clamp01(bbox[3] / h),
	}
}

// Box2dToBbox is the inverse of BboxToBox2d: multiply by width/height.
func Box2dToBbox(b types.Box2d, width, height uint32) [4]float64 {
	w, h := float64(width), float64(height)
	return [4]float64{b.Left * w, b.Top * h, b.Width * w, b.Height * h}
}

// CenterRowToBbox reconstructs a pixel-space COCO bbox from a columnar
// row's normalized centre-based [cx, cy, w, h], per the arrow_to_coco
// conversion: (cx-w/2)*W, (cy-h/2)*H, w*W, h*H.
func CenterRowToBbox(row [4]float32, width, height uint32) [4]float64 {
	cx, cy, w, h := float64(row[0]), float64(row[1]), float64(row[2]), float64(row[3])
	W, H := float64(width), float64(height)
	return [4]float64{(cx - w/2) * W, (cy - h/2) * H, w * W, h * H}
}

// Box2dToCenterRow converts a top-left-origin, normalized Box2d into the
// columnar table's normalized centre-based [cx, cy, w, h] representation.
func Box2dToCenterRow(b types.Box2d) [4]float32 {
	return [4]float32{
		float32(b.Left + b.Width/2),
		float32(b.Top + b.Height/2),
		float32(b.Width),
		float32(b.Height),
	}
}

// PolygonToMask normalizes every (x,y) pair in a COCO polygon list by
// width/height and drops degenerate rings (<3 points).
func PolygonToMask(polygons [][]float64, width, height uint32) types.Mask {
	w, h := float64(width), float64(height)
	var out types.Mask
	for _, ring := range polygons {
		var pts []types.Point
		for i := 0; i+1 < len(ring); i += 2 {
			x, y := ring[i], ring[i+1]
			if math.IsNaN(x) || math.IsNaN(y) || math.IsInf(x, 0) || math.IsInf(y, 0) {
				continue
			}
			pts = append(pts, types.Point{X: x / w, Y: y / h})
		}
		if len(pts) < 3 {
			continue
		}
		out = append(out, pts)
	}
	return out
}

// MaskToCocoPolygon is the inverse of PolygonToMask: produce pixel-space
// vertex lists, flattened as COCO's 2-deep [x,y,x,y,...] form.
func MaskToCocoPolygon(m types.Mask, width, height uint32) [][]float64 {
	w, h := float64(width), float64(height)
	out := make([][]float64, 0, len(m))
	for _, ring := range m {
		flat := make([]float64, 0, len(ring)*2)
		for _, p := range ring {
			flat = append(flat, p.X*w, p.Y*h)
		}
		out = append(out, flat)
	}
	return out
}

// DecodeCompressedRLE decodes a COCO-RLE string into an uncompressed
// run-length array, using the standard LEB128-like variable-length
// encoding COCO's maskUtils uses for its compressed string form.
func DecodeCompressedRLE(counts string) []uint32 {
	var out []uint32
	var m int
	for m < len(counts) {
		var x int64
		var k int64 = 1
		more := true
		for more {
			c := int64(counts[m]) - 48
			x |= (c & 0x1f) << uint(5*k-5)
			more = c&0x20 != 0
			m++
			k++
			if !more && c&0x10 != 0 {
				x |= -1 << uint(5*k-5)
			}
		}
		if len(out) > 2 {
			x += int64(out[len(out)-2])
		}
		out = append(out, uint32(x))
	}
	return out
}

// RLEToMask decodes a run-length-encoded binary mask (size [h,w], counts
// alternating background/foreground run lengths in column-major order)
// into polygon contours via MaskToContours.
func RLEToMask(size [2]uint32, counts []uint32) types.Mask {
	h, w := int(size[0]), int(size[1])
	bits := make([]bool, h*w)
	idx := 0
	val := false
	for _, run := range counts {
		for i := uint32(0); i < run && idx < len(bits); i++ {
			bits[idx] = val
			idx++
		}
		val = !val
	}
	return MaskToContours(bits, w, h)
}

// MaskToContours extracts connected-component contours from a
// column-major binary mask of width w, height h, emitting each as a
// polygon in pixel coordinates. This is not a boundary trace or a
// marching-squares implementation: it flood-fills each 4-connected
// foreground component and emits that component's axis-aligned bounding
// quad, sufficient for the bbox/IoU-based
// verification this package drives (§4.K) rather than pixel-exact
// shape reproduction.
func MaskToContours(bits []bool, w, h int) types.Mask {
	at := func(x, y int) bool {
		if x < 0 || x >= w || y < 0 || y >= h {
			return false
		}
		return bits[x*h+y]
	}

	var out types.Mask
	visited := make([]bool, w*h)
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			if !at(x, y) || visited[x*h+y] {
				continue
			}
			minX, minY, maxX, maxY := x, y, x, y
			stack := [][2]int{{x, y}}
			visited[x*h+y] = true
			for len(stack) > 0 {
				p := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				px, py := p[0], p[1]
				if px < minX {
					minX = px
				}
				if px > maxX {
					maxX = px
				}
				if py < minY {
					minY = py
				}
				if py > maxY {
					maxY = py
				}
				for _, d := range [][2]int{{1, 0}, {-1, 0}, {0, 1}, {0, -1}} {
					nx, ny := px+d[0], py+d[1]
					if at(nx, ny) && !visited[nx*h+ny] {
						visited[nx*h+ny] = true
						stack = append(stack, [2]int{nx, ny})
					}
				}
			}
			out = append(out, []types.Point{
				{X: float64(minX), Y: float64(minY)},
				{X: float64(maxX + 1), Y: float64(minY)},
				{X: float64(maxX + 1), Y: float64(maxY + 1)},
				{X: float64(minX), Y: float64(maxY + 1)},
			})
		}
	}
	return out
}
