package types

import (
	"encoding/json"
	"math"

	"github.com/EdgeFirstAI/client-sub000/ids"
)

// Annotation is one labeled geometry attached to a sample.
type Annotation struct {
	SampleID *ids.SampleID

	Name         string
	Group        string
	SequenceName string
	FrameNumber  *int64
	ObjectID     string
	Label        string
	LabelIndex   *uint64

	Box2d *Box2d
	Box3d *Box3d
	Mask  Mask
}

// New returns an Annotation with no geometry set yet.
func New() Annotation { return Annotation{} }

// SetSampleID attaches the owning sample's id.
func (a *Annotation) SetSampleID(id ids.SampleID) { a.SampleID = &id }

type annotationWire struct {
	SampleID *ids.SampleID `json:"sample_id,omitempty"`

	Name         string `json:"name,omitempty"`
	Group        string `json:"group,omitempty"`
	SequenceName string `json:"sequence_name,omitempty"`
	FrameNumber  *int64 `json:"frame_number,omitempty"`

	ObjectID        string `json:"object_id,omitempty"`
	ObjectReference string `json:"object_reference,omitempty"`

	Label      string  `json:"label,omitempty"`
	LabelIndex *uint64 `json:"label_index,omitempty"`

	Box2d *Box2d `json:"box2d,omitempty"`
	// Flat peer fields accepted alongside/in place of a nested box2d.
	X *float64 `json:"x,omitempty"`
	Y *float64 `json:"y,omitempty"`
	W *float64 `json:"w,omitempty"`
	H *float64 `json:"h,omitempty"`

	Box3d *Box3d `json:"box3d,omitempty"`

	Mask json.RawMessage `json:"mask,omitempty"`
}

func (a *Annotation) UnmarshalJSON(data []byte) error {
	var w annotationWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}

	a.SampleID = w.SampleID
	a.Name = w.Name
	a.Group = w.Group
	a.SequenceName = w.SequenceName
	a.FrameNumber = w.FrameNumber
	a.ObjectID = w.ObjectID
	if a.ObjectID == "" {
		a.ObjectID = w.ObjectReference
	}
	a.Label = w.Label
	a.LabelIndex = w.LabelIndex

	if w.Box2d != nil {
		a.Box2d = w.Box2d
	} else if w.X != nil && w.Y != nil && w.W != nil && w.H != nil {
		a.Box2d = &Box2d{Left: *w.X, Top: *w.Y, Width: *w.W, Height: *w.H}
	}
	a.Box3d = w.Box3d

	mask, err := parsePolygonValue(w.Mask)
	if err != nil {
		return err
	}
	a.Mask = mask
	return nil
}

func (a Annotation) MarshalJSON() ([]byte, error) {
	w := annotationWire{
		SampleID:        a.SampleID,
		Name:            a.Name,
		Group:           a.Group,
		SequenceName:    a.SequenceName,
		FrameNumber:     a.FrameNumber,
		ObjectReference: a.ObjectID,
		Label:           a.Label,
		LabelIndex:      a.LabelIndex,
		Box2d:           a.Box2d,
		Box3d:           a.Box3d,
	}
	if len(a.Mask) > 0 {
		raw, err := json.Marshal(polygonsToNested(a.Mask))
		if err != nil {
			return nil, err
		}
		w.Mask = raw
	}
	return json.Marshal(w)
}

// parsePolygonValue accepts the three legacy mask-polygon shapes: 3-deep
// [[[x,y],...]], 2-deep [[x,y,x,y,...]] (COCO-style), and an object
// {"polygon": <either shape above>}. NaN/Infinity coordinates are dropped
// and rings left with fewer than three valid points are dropped entirely.
func parsePolygonValue(raw json.RawMessage) (Mask, error) {
	if len(raw) == 0 {
		return nil, nil
	}

	// Unwrap {"polygon": ...}.
	var wrapped struct {
		Polygon json.RawMessage `json:"polygon"`
	}
	if err := json.Unmarshal(raw, &wrapped); err == nil && len(wrapped.Polygon) > 0 {
		raw = wrapped.Polygon
	}

	// 3-deep: [[[x,y],...], ...]
	var deep3 [][][2]float64
	if err := json.Unmarshal(raw, &deep3); err == nil {
		return buildMask(deep3), nil
	}

	// 2-deep flat: [[x,y,x,y,...], ...]
	var deep2 [][]float64
	if err := json.Unmarshal(raw, &deep2); err == nil {
		var rings [][][2]float64
		for _, flat := range deep2 {
			var ring [][2]float64
			for i := 0; i+1 < len(flat); i += 2 {
				ring = append(ring, [2]float64{flat[i], flat[i+1]})
			}
			rings = append(rings, ring)
		}
		return buildMask(rings), nil
	}

	return nil, nil
}

func buildMask(rings [][][2]float64) Mask {
	var m Mask
	for _, ring := range rings {
		var pts []Point
		for _, xy := range ring {
			if !validCoord(xy[0]) || !validCoord(xy[1]) {
				continue
			}
			pts = append(pts, Point{X: xy[0], Y: xy[1]})
		}
		if len(pts) >= 3 {
			m = append(m, pts)
		}
	}
	return m
}

func validCoord(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// polygonsToNested renders a Mask back to the 3-deep wire shape.
func polygonsToNested(m Mask) [][][2]float64 {
	out := make([][][2]float64, 0, len(m))
	for _, ring := range m {
		r := make([][2]float64, 0, len(ring))
		for _, p := range ring {
			r = append(r, [2]float64{p.X, p.Y})
		}
		out = append(out, r)
	}
	return out
}
