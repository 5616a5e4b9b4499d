// Package coco implements the wire-exact COCO dataset interchange format:
// reading and writing COCO JSON/ZIP archives, the bbox/polygon/RLE
// conversions to and from this SDK's internal model, and the Arrow-shaped
// columnar bridge and round-trip verifier built on top of it.
package coco

import (
	"encoding/json"
	"fmt"
)

// Image is a COCO "images" entry.
type Image struct {
	ID       uint64  `json:"id"`
	FileName string  `json:"file_name"`
	Width    uint32  `json:"width"`
	Height   uint32  `json:"height"`
	License  *uint64 `json:"license,omitempty"`
	DateCaptured string `json:"date_captured,omitempty"`
}

// Category is a COCO "categories" entry.
type Category struct {
	ID            uint64 `json:"id"`
	Name          string `json:"name"`
	Supercategory string `json:"supercategory,omitempty"`
}

// License is a COCO "licenses" entry.
type License struct {
	ID   uint64 `json:"id"`
	Name string `json:"name,omitempty"`
	URL  string `json:"url,omitempty"`
}

// Info is the COCO "info" block, copied verbatim from whichever merged
// source file has it non-empty first.
type Info struct {
	Description string `json:"description,omitempty"`
	Version     string `json:"version,omitempty"`
	Year        int    `json:"year,omitempty"`
	Contributor string `json:"contributor,omitempty"`
	DateCreated string `json:"date_created,omitempty"`
}

func (i Info) isEmpty() bool {
	return i == Info{}
}

// Annotation is a COCO "annotations" entry.
type Annotation struct {
	ID          uint64        `json:"id"`
	ImageID     uint64        `json:"image_id"`
	CategoryID  uint64        `json:"category_id"`
	Bbox        [4]float64    `json:"bbox"`
	Area        float64       `json:"area"`
	IsCrowd     int           `json:"iscrowd"`
	Segmentation *Segmentation `json:"segmentation,omitempty"`
}

// segmentationKind discriminates Segmentation's three wire shapes.
type segmentationKind int

const (
	segmentationNone segmentationKind = iota
	segmentationPolygon
	segmentationRLE
	segmentationCompressedRLE
)

// Segmentation is COCO's `segmentation` sum type: a list of polygons, an
// uncompressed RLE ({size, counts: []uint32}), or a compressed RLE
// ({size, counts: string}).
type Segmentation struct {
	kind segmentationKind

	polygon [][]float64

	size   [2]uint32
	counts []uint32

	compressedCounts string
}

// NewPolygonSegmentation builds a polygon-form segmentation.
func NewPolygonSegmentation(polygons [][]float64) Segmentation {
	return Segmentation{kind: segmentationPolygon, polygon: polygons}
}

// NewRLESegmentation builds an uncompressed RLE segmentation.
func NewRLESegmentation(size [2]uint32, counts []uint32) Segmentation {
	return Segmentation{kind: segmentationRLE, size: size, counts: counts}
}

// NewCompressedRLESegmentation builds a compressed (COCO-RLE-string) RLE
// segmentation.
func NewCompressedRLESegmentation(size [2]uint32, counts string) Segmentation {
	return Segmentation{kind: segmentationCompressedRLE, size: size, compressedCounts: counts}
}

// Polygon returns the polygon list and whether this segmentation holds one.
func (s Segmentation) Polygon() ([][]float64, bool) {
	if s.kind == segmentationPolygon {
		return s.polygon, true
	}
	return nil, false
}

// RLE returns the uncompressed RLE payload and whether this segmentation
// holds one.
func (s Segmentation) RLE() ([2]uint32, []uint32, bool) {
	if s.kind == segmentationRLE {
		return s.size, s.counts, true
	}
	return [2]uint32{}, nil, false
}

// CompressedRLE returns the compressed RLE payload and whether this
// segmentation holds one.
func (s Segmentation) CompressedRLE() ([2]uint32, string, bool) {
	if s.kind == segmentationCompressedRLE {
		return s.size, s.compressedCounts, true
	}
	return [2]uint32{}, "", false
}

type segmentationWire struct {
	Size   *[2]uint32      `json:"size,omitempty"`
	Counts json.RawMessage `json:"counts,omitempty"`
}

func (s Segmentation) MarshalJSON() ([]byte, error) {
	switch s.kind {
	case segmentationPolygon:
		return json.Marshal(s.polygon)
	case segmentationRLE:
		counts, err := json.Marshal(s.counts)
		if err != nil {
			return nil, err
		}
		size := s.size
		return json.Marshal(segmentationWire{Size: &size, Counts: counts})
	case segmentationCompressedRLE:
		counts, err := json.Marshal(s.compressedCounts)
		if err != nil {
			return nil, err
		}
		size := s.size
		return json.Marshal(segmentationWire{Size: &size, Counts: counts})
	default:
		return []byte("null"), nil
	}
}

func (s *Segmentation) UnmarshalJSON(data []byte) error {
	var asPolygon [][]float64
	if err := json.Unmarshal(data, &asPolygon); err == nil {
		*s = Segmentation{kind: segmentationPolygon, polygon: asPolygon}
		return nil
	}

	var wire segmentationWire
	if err := json.Unmarshal(data, &wire); err != nil {
		return fmt.Errorf("decode segmentation: %w", err)
	}
	if wire.Size == nil {
		return fmt.Errorf("decode segmentation: missing size")
	}

	var asCounts []uint32
	if err := json.Unmarshal(wire.Counts, &asCounts); err == nil {
		*s = Segmentation{kind: segmentationRLE, size: *wire.Size, counts: asCounts}
		return nil
	}
	var asString string
	if err := json.Unmarshal(wire.Counts, &asString); err == nil {
		*s = Segmentation{kind: segmentationCompressedRLE, size: *wire.Size, compressedCounts: asString}
		return nil
	}
	return fmt.Errorf("decode segmentation: counts is neither []uint32 nor string")
}

// Dataset is a full COCO dataset document.
type Dataset struct {
	Info        Info         `json:"info,omitempty"`
	Licenses    []License    `json:"licenses,omitempty"`
	Images      []Image      `json:"images"`
	Categories  []Category   `json:"categories"`
	Annotations []Annotation `json:"annotations"`
}

// Index is a read-once lookup structure over a Dataset, built by
// BuildIndex.
type Index struct {
	AnnotationsByImage map[uint64][]*Annotation
	LabelName          map[uint64]string
	LabelIndex         map[uint64]uint64
}

// BuildIndex constructs an Index over d. LabelIndex assigns each category
// a dense, zero-based index in category-id sorted order, matching the
// dataset's label table semantics (§3's Label.Index).
func BuildIndex(d *Dataset) *Index {
	idx := &Index{
		AnnotationsByImage: make(map[uint64][]*Annotation),
		LabelName:          make(map[uint64]string, len(d.Categories)),
		LabelIndex:         make(map[uint64]uint64, len(d.Categories)),
	}
	for i := range d.Annotations {
		a := &d.Annotations[i]
		idx.AnnotationsByImage[a.ImageID] = append(idx.AnnotationsByImage[a.ImageID], a)
	}
	ordered := make([]Category, len(d.Categories))
	copy(ordered, d.Categories)
	for i := 0; i < len(ordered); i++ {
		for j := i + 1; j < len(ordered); j++ {
			if ordered[j].ID < ordered[i].ID {
				ordered[i], ordered[j] = ordered[j], ordered[i]
			}
		}
	}
	for i, c := range ordered {
		idx.LabelName[c.ID] = c.Name
		idx.LabelIndex[c.ID] = uint64(i)
	}
	return idx
}

// Error reports a COCO-dataset-level validation failure: an unresolved
// image_id/category_id reference, a degenerate bbox, or a mismatched
// parallel-array input to split_by_group.
type Error struct{ Detail string }

func (e *Error) Error() string { return fmt.Sprintf("coco: %s", e.Detail) }
