package coco

import (
	"math"
	"sort"
)

// BboxHistogram buckets matched-pair coordinate errors, in pixels, into
// the bands <1, <2, <5, <10, >=10.
type BboxHistogram struct {
	Under1, Under2, Under5, Under10, Over10 int
}

func (h *BboxHistogram) add(errPx float64) {
	switch {
	case errPx < 1:
		h.Under1++
	case errPx < 2:
		h.Under2++
	case errPx < 5:
		h.Under5++
	case errPx < 10:
		h.Under10++
	default:
		h.Over10++
	}
}

// BboxReport summarizes bbox validation over the matched pairs of every
// sample_name key that Verify compares.
type BboxReport struct {
	Histogram       BboxHistogram
	MaxError        float64
	IoUSum          float64
	Matched         int
	UnmatchedO      int
	UnmatchedR      int
}

// MaskReport summarizes mask validation over matched pairs carrying
// segmentation on both sides.
type MaskReport struct {
	VertexCountExact      int
	VertexCountWithin10Pct int
	PartCountEqual        int
	AreaRatioWithin1Pct   int
	AreaRatioWithin5Pct   int
	BboxIoUHigh           int // >= 0.9
	BboxIoULow            int // < 0.5
	ZeroArea              int
	Compared              int
}

// CategoryReport is the set difference of category names between O and R.
type CategoryReport struct {
	OnlyInO []string
	OnlyInR []string
}

// Report is the full round-trip verification output, aggregated across
// every sample_name key found in either dataset.
type Report struct {
	Bbox       BboxReport
	Mask       MaskReport
	Categories CategoryReport
}

// bboxIoU computes intersection-over-union of two [x,y,w,h] pixel boxes.
func bboxIoU(a, b [4]float64) float64 {
	ax1, ay1, ax2, ay2 := a[0], a[1], a[0]+a[2], a[1]+a[3]
	bx1, by1, bx2, by2 := b[0], b[1], b[0]+b[2], b[1]+b[3]

	ix1, iy1 := math.Max(ax1, bx1), math.Max(ay1, by1)
	ix2, iy2 := math.Min(ax2, bx2), math.Min(ay2, by2)
	iw, ih := math.Max(0, ix2-ix1), math.Max(0, iy2-iy1)
	inter := iw * ih

	areaA := a[2] * a[3]
	areaB := b[2] * b[3]
	union := areaA + areaB - inter
	if union <= 0 {
		return 0
	}
	return inter / union
}

// groupByStem buckets a dataset's annotations by the image filename
// stem, joining through image_id.
func groupByStem(d *Dataset) map[string][]Annotation {
	stemByImage := map[uint64]string{}
	for _, img := range d.Images {
		stemByImage[img.ID] = stem(img.FileName)
	}
	out := map[string][]Annotation{}
	for _, a := range d.Annotations {
		s := stemByImage[a.ImageID]
		out[s] = append(out[s], a)
	}
	return out
}

// hungarian solves the minimum-cost assignment over a square cost
// matrix using the Kuhn-Munkres algorithm, returning assignment[i] = the
// column matched to row i.
func hungarian(cost [][]int) []int {
	n := len(cost)
	const inf = 1 << 30

	u := make([]int, n+1)
	v := make([]int, n+1)
	p := make([]int, n+1)
	way := make([]int, n+1)

	for i := 1; i <= n; i++ {
		p[0] = i
		j0 := 0
		minv := make([]int, n+1)
		used := make([]bool, n+1)
		for j := range minv {
			minv[j] = inf
		}
		for {
			used[j0] = true
			i0, delta, j1 := p[j0], inf, -1
			for j := 1; j <= n; j++ {
				if used[j] {
					continue
				}
				cur := cost[i0-1][j-1] - u[i0] - v[j]
				if cur < minv[j] {
					minv[j] = cur
					way[j] = j0
				}
				if minv[j] < delta {
					delta = minv[j]
					j1 = j
				}
			}
			for j := 0; j <= n; j++ {
				if used[j] {
					u[p[j]] += delta
					v[j] -= delta
				} else {
					minv[j] -= delta
				}
			}
			j0 = j1
			if p[j0] == 0 {
				break
			}
		}
		for j0 != 0 {
			j1 := way[j0]
			p[j0] = p[j1]
			j0 = j1
		}
	}

	assignment := make([]int, n)
	for j := 1; j <= n; j++ {
		if p[j] != 0 {
			assignment[p[j]-1] = j - 1
		}
	}
	return assignment
}

// matchPair is one accepted assignment between O and R annotations for a
// shared sample_name key.
type matchPair struct {
	o, r *Annotation
	iou  float64
}

const ioUAcceptThreshold = 0.3

// matchBboxes builds the square-padded cost matrix described in the
// verifier's matching step and solves it via Kuhn-Munkres, returning
// accepted matches (IoU >= 0.3) plus the unmatched counts on each side.
func matchBboxes(o, r []Annotation) ([]matchPair, int, int) {
	if len(o) == 0 || len(r) == 0 {
		return nil, len(o), len(r)
	}

	n := len(o)
	if len(r) > n {
		n = len(r)
	}

	cost := make([][]int, n)
	iou := make([][]float64, n)
	for i := range cost {
		cost[i] = make([]int, n)
		iou[i] = make([]float64, n)
		for j := range cost[i] {
			if i < len(o) && j < len(r) {
				v := bboxIoU(o[i].Bbox, r[j].Bbox)
				iou[i][j] = v
				cost[i][j] = int(math.Round((1 - v) * 10000))
			} else {
				cost[i][j] = 10000
			}
		}
	}

	assignment := hungarian(cost)

	var matches []matchPair
	matchedO := make([]bool, len(o))
	matchedR := make([]bool, len(r))
	for i, j := range assignment {
		if i >= len(o) || j >= len(r) {
			continue
		}
		if iou[i][j] < ioUAcceptThreshold {
			continue
		}
		oi, rj := o[i], r[j]
		matches = append(matches, matchPair{o: &oi, r: &rj, iou: iou[i][j]})
		matchedO[i] = true
		matchedR[j] = true
	}

	unmatchedO, unmatchedR := 0, 0
	for _, m := range matchedO {
		if !m {
			unmatchedO++
		}
	}
	for _, m := range matchedR {
		if !m {
			unmatchedR++
		}
	}
	return matches, unmatchedO, unmatchedR
}

func bboxCornerError(a, b [4]float64) float64 {
	max := 0.0
	for k := 0; k < 4; k++ {
		d := math.Abs(a[k] - b[k])
		if d > max {
			max = d
		}
	}
	return max
}

// shoelaceArea computes the absolute polygon area via the shoelace
// formula for a single ring given as flat [x,y,x,y,...] pixel coords.
func shoelaceArea(flat []float64) float64 {
	n := len(flat) / 2
	if n < 3 {
		return 0
	}
	var sum float64
	for i := 0; i < n; i++ {
		j := (i + 1) % n
		sum += flat[i*2]*flat[j*2+1] - flat[j*2]*flat[i*2+1]
	}
	return math.Abs(sum) / 2
}

func polygonBbox(flat []float64) [4]float64 {
	if len(flat) < 2 {
		return [4]float64{}
	}
	minX, minY := flat[0], flat[1]
	maxX, maxY := flat[0], flat[1]
	for i := 0; i+1 < len(flat); i += 2 {
		x, y := flat[i], flat[i+1]
		minX = math.Min(minX, x)
		minY = math.Min(minY, y)
		maxX = math.Max(maxX, x)
		maxY = math.Max(maxY, y)
	}
	return [4]float64{minX, minY, maxX - minX, maxY - minY}
}

func addMaskValidation(m *MaskReport, oPoly, rPoly [][]float64) {
	oVerts, rVerts := 0, 0
	for _, ring := range oPoly {
		oVerts += len(ring) / 2
	}
	for _, ring := range rPoly {
		rVerts += len(ring) / 2
	}

	m.Compared++
	if oVerts == rVerts {
		m.VertexCountExact++
	}
	if oVerts > 0 && math.Abs(float64(oVerts-rVerts))/float64(oVerts) <= 0.1 {
		m.VertexCountWithin10Pct++
	}
	if len(oPoly) == len(rPoly) {
		m.PartCountEqual++
	}

	oArea, rArea := 0.0, 0.0
	var oBboxUnion, rBboxUnion [4]float64
	first := true
	for _, ring := range oPoly {
		oArea += shoelaceArea(ring)
		bb := polygonBbox(ring)
		if first {
			oBboxUnion = bb
		} else {
			oBboxUnion = unionBbox(oBboxUnion, bb)
		}
		first = false
	}
	first = true
	for _, ring := range rPoly {
		rArea += shoelaceArea(ring)
		bb := polygonBbox(ring)
		if first {
			rBboxUnion = bb
		} else {
			rBboxUnion = unionBbox(rBboxUnion, bb)
		}
		first = false
	}

	if oArea == 0 || rArea == 0 {
		m.ZeroArea++
		return
	}

	ratio := rArea / oArea
	if math.Abs(ratio-1) <= 0.01 {
		m.AreaRatioWithin1Pct++
	}
	if math.Abs(ratio-1) <= 0.05 {
		m.AreaRatioWithin5Pct++
	}

	unionIoU := bboxIoU(oBboxUnion, rBboxUnion)
	if unionIoU >= 0.9 {
		m.BboxIoUHigh++
	}
	if unionIoU < 0.5 {
		m.BboxIoULow++
	}
}

func unionBbox(a, b [4]float64) [4]float64 {
	x1 := math.Min(a[0], b[0])
	y1 := math.Min(a[1], b[1])
	x2 := math.Max(a[0]+a[2], b[0]+b[2])
	y2 := math.Max(a[1]+a[3], b[1]+b[3])
	return [4]float64{x1, y1, x2 - x1, y2 - y1}
}

// segmentationPolygons returns a's segmentation as pixel-space polygon
// rings, decoding RLE/CompressedRLE shapes via RLEToMask/DecodeCompressedRLE,
// and whether the annotation carries any segmentation at all.
func segmentationPolygons(a Annotation) ([][]float64, bool) {
	if a.Segmentation == nil {
		return nil, false
	}
	if poly, ok := a.Segmentation.Polygon(); ok {
		return poly, true
	}
	if size, counts, ok := a.Segmentation.RLE(); ok {
		mask := RLEToMask(size, counts)
		return MaskToCocoPolygon(mask, 1, 1), true
	}
	if size, counts, ok := a.Segmentation.CompressedRLE(); ok {
		decoded := DecodeCompressedRLE(counts)
		mask := RLEToMask(size, decoded)
		return MaskToCocoPolygon(mask, 1, 1), true
	}
	return nil, false
}

// Verify compares O (the original/input COCO dataset) against R (the
// round-tripped result), keyed by image filename stem, per the bbox,
// mask, and category checks.
func Verify(o, r *Dataset) Report {
	oByName := groupByStem(o)
	rByName := groupByStem(r)

	var report Report

	keys := map[string]bool{}
	for k := range oByName {
		keys[k] = true
	}
	for k := range rByName {
		keys[k] = true
	}

	for key := range keys {
		matches, unmatchedO, unmatchedR := matchBboxes(oByName[key], rByName[key])
		report.Bbox.Matched += len(matches)
		report.Bbox.UnmatchedO += unmatchedO
		report.Bbox.UnmatchedR += unmatchedR

		for _, m := range matches {
			report.Bbox.IoUSum += m.iou
			errPx := bboxCornerError(m.o.Bbox, m.r.Bbox)
			report.Bbox.Histogram.add(errPx)
			if errPx > report.Bbox.MaxError {
				report.Bbox.MaxError = errPx
			}

			oPoly, oHas := segmentationPolygons(*m.o)
			rPoly, rHas := segmentationPolygons(*m.r)
			if oHas && rHas {
				addMaskValidation(&report.Mask, oPoly, rPoly)
			}
		}
	}

	oCats := map[string]bool{}
	for _, c := range o.Categories {
		oCats[c.Name] = true
	}
	rCats := map[string]bool{}
	for _, c := range r.Categories {
		rCats[c.Name] = true
	}
	for name := range oCats {
		if !rCats[name] {
			report.Categories.OnlyInO = append(report.Categories.OnlyInO, name)
		}
	}
	for name := range rCats {
		if !oCats[name] {
			report.Categories.OnlyInR = append(report.Categories.OnlyInR, name)
		}
	}
	sort.Strings(report.Categories.OnlyInO)
	sort.Strings(report.Categories.OnlyInR)

	return report
}
