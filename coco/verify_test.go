package coco

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBboxIoUIdenticalBoxesIsOne(t *testing.T) {
	a := [4]float64{0, 0, 10, 10}
	assert.InDelta(t, 1.0, bboxIoU(a, a), 1e-9)
}

func TestBboxIoUDisjointBoxesIsZero(t *testing.T) {
	a := [4]float64{0, 0, 10, 10}
	b := [4]float64{100, 100, 10, 10}
	assert.Equal(t, 0.0, bboxIoU(a, b))
}

func TestBboxIoUPartialOverlap(t *testing.T) {
	a := [4]float64{0, 0, 10, 10}
	b := [4]float64{5, 5, 10, 10}
	// intersection 5x5=25, union 100+100-25=175
	assert.InDelta(t, 25.0/175.0, bboxIoU(a, b), 1e-9)
}

func TestHungarianSolvesSimpleAssignment(t *testing.T) {
	cost := [][]int{
		{1, 10},
		{10, 1},
	}
	assignment := hungarian(cost)
	assert.Equal(t, []int{0, 1}, assignment)
}

func TestMatchBboxesAcceptsAboveThresholdRejectsBelow(t *testing.T) {
	o := []Annotation{
		{ID: 1, Bbox: [4]float64{0, 0, 10, 10}},
		{ID: 2, Bbox: [4]float64{100, 100, 10, 10}},
	}
	r := []Annotation{
		{ID: 1, Bbox: [4]float64{0, 0, 10, 10}},   // exact match, IoU 1.0
		{ID: 2, Bbox: [4]float64{500, 500, 1, 1}}, // far away, IoU ~0
	}
	matches, unmatchedO, unmatchedR := matchBboxes(o, r)
	require.Len(t, matches, 1)
	assert.InDelta(t, 1.0, matches[0].iou, 1e-9)
	assert.Equal(t, 1, unmatchedO)
	assert.Equal(t, 1, unmatchedR)
}

func TestMatchBboxesEmptySideReturnsAllUnmatched(t *testing.T) {
	o := []Annotation{{ID: 1, Bbox: [4]float64{0, 0, 10, 10}}}
	matches, unmatchedO, unmatchedR := matchBboxes(o, nil)
	assert.Empty(t, matches)
	assert.Equal(t, 1, unmatchedO)
	assert.Equal(t, 0, unmatchedR)
}

func TestShoelaceAreaOfUnitSquare(t *testing.T) {
	// Square with corners (0,0),(1,0),(1,1),(0,1).
	flat := []float64{0, 0, 1, 0, 1, 1, 0, 1}
	assert.InDelta(t, 1.0, shoelaceArea(flat), 1e-9)
}

func TestVerifyIdenticalDatasetsYieldFullMatchAndNoCategoryDiff(t *testing.T) {
	d := &Dataset{
		Images:     []Image{{ID: 1, FileName: "a.jpg"}},
		Categories: []Category{{ID: 1, Name: "cat"}},
		Annotations: []Annotation{
			{ID: 1, ImageID: 1, CategoryID: 1, Bbox: [4]float64{10, 10, 20, 20}},
		},
	}
	report := Verify(d, d)
	assert.Equal(t, 1, report.Bbox.Matched)
	assert.Equal(t, 0, report.Bbox.UnmatchedO)
	assert.Equal(t, 0, report.Bbox.UnmatchedR)
	assert.Equal(t, 1, report.Bbox.Histogram.Under1)
	assert.Empty(t, report.Categories.OnlyInO)
	assert.Empty(t, report.Categories.OnlyInR)
}

func TestVerifyReportsCategorySetDifference(t *testing.T) {
	o := &Dataset{Categories: []Category{{ID: 1, Name: "cat"}, {ID: 2, Name: "dog"}}}
	r := &Dataset{Categories: []Category{{ID: 1, Name: "cat"}, {ID: 3, Name: "bird"}}}
	report := Verify(o, r)
	assert.Equal(t, []string{"dog"}, report.Categories.OnlyInO)
	assert.Equal(t, []string{"bird"}, report.Categories.OnlyInR)
}
