// Package columnar implements the annotation table schema (§3 of the data
// model) and its binary container: the bridge between the Sample/
// Annotation model and the COCO codec's Arrow-shaped interchange file.
package columnar

import "fmt"

// Row is one annotation-scoped record before dictionary encoding. A
// sample with no annotations contributes one Row with every
// annotation-scoped field left at its zero value / nil.
type Row struct {
	Name        string
	Frame       *uint64
	ObjectID    *string
	Label       string
	LabelIndex  *uint64
	Group       string
	Mask []float32
	// Box2d is normalized centre-based [cx, cy, w, h], distinct from the
	// top-left-origin representation the Annotation/Box2d type uses at
	// the model level; callers building rows from Annotations convert.
	Box2d [4]float32
	Box3d [6]float32
	Size        *[2]uint32
	Location    *[2]float32
	Pose        *[3]float32
	Degradation *string
}

// maxDictionaryValues is the overflow point for a u8-width dictionary
// column: 256 codes, 0..255.
const maxDictionaryValues = 256

// InvalidParametersError mirrors the client package's error of the same
// name; columnar is a leaf package and does not import client, so it
// declares its own copy with an identical shape.
type InvalidParametersError struct{ Msg string }

func (e *InvalidParametersError) Error() string { return fmt.Sprintf("invalid parameters: %s", e.Msg) }

// dictionary assigns each distinct string a stable uint8 code in
// first-seen order, erroring if more than 256 distinct values are seen.
type dictionary struct {
	values []string
	index  map[string]uint8
}

func newDictionary() *dictionary {
	return &dictionary{index: map[string]uint8{}}
}

func (d *dictionary) code(s string) (uint8, error) {
	if c, ok := d.index[s]; ok {
		return c, nil
	}
	if len(d.values) >= maxDictionaryValues {
		return 0, &InvalidParametersError{Msg: fmt.Sprintf("dictionary overflow: more than %d distinct values", maxDictionaryValues)}
	}
	c := uint8(len(d.values))
	d.values = append(d.values, s)
	d.index[s] = c
	return c, nil
}

// Table is the full 13-column schema.
type Table struct {
	Name []string

	Frame      []uint64
	FrameValid []bool

	ObjectID      []string
	ObjectIDValid []bool

	LabelDict  []string
	LabelCode  []uint8
	LabelIndex      []uint64
	LabelIndexValid []bool

	GroupDict []string
	GroupCode []uint8

	Mask  [][]float32
	Box2d [][4]float32
	Box3d [][6]float32

	Size      [][2]uint32
	SizeValid []bool

	Location      [][2]float32
	LocationValid []bool

	Pose      [][3]float32
	PoseValid []bool

	Degradation      []string
	DegradationValid []bool
}

// Len returns the row count.
func (t *Table) Len() int { return len(t.Name) }

// BuildTable constructs the full 13-column schema from rows.
func BuildTable(rows []Row) (*Table, error) {
	t := &Table{}
	labelDict := newDictionary()
	groupDict := newDictionary()

	for _, r := range rows {
		t.Name = append(t.Name, r.Name)

		if r.Frame != nil {
			t.Frame = append(t.Frame, *r.Frame)
			t.FrameValid = append(t.FrameValid, true)
		} else {
			t.Frame = append(t.Frame, 0)
			t.FrameValid = append(t.FrameValid, false)
		}

		if r.ObjectID != nil {
			t.ObjectID = append(t.ObjectID, *r.ObjectID)
			t.ObjectIDValid = append(t.ObjectIDValid, true)
		} else {
			t.ObjectID = append(t.ObjectID, "")
			t.ObjectIDValid = append(t.ObjectIDValid, false)
		}

		labelCode, err := labelDict.code(r.Label)
		if err != nil {
			return nil, err
		}
		t.LabelCode = append(t.LabelCode, labelCode)

		if r.LabelIndex != nil {
			t.LabelIndex = append(t.LabelIndex, *r.LabelIndex)
			t.LabelIndexValid = append(t.LabelIndexValid, true)
		} else {
			t.LabelIndex = append(t.LabelIndex, 0)
			t.LabelIndexValid = append(t.LabelIndexValid, false)
		}

		groupCode, err := groupDict.code(r.Group)
		if err != nil {
			return nil, err
		}
		t.GroupCode = append(t.GroupCode, groupCode)

		t.Mask = append(t.Mask, r.Mask)
		t.Box2d = append(t.Box2d, r.Box2d)
		t.Box3d = append(t.Box3d, r.Box3d)

		if r.Size != nil {
			t.Size = append(t.Size, *r.Size)
			t.SizeValid = append(t.SizeValid, true)
		} else {
			t.Size = append(t.Size, [2]uint32{})
			t.SizeValid = append(t.SizeValid, false)
		}

		if r.Location != nil {
			t.Location = append(t.Location, *r.Location)
			t.LocationValid = append(t.LocationValid, true)
		} else {
			t.Location = append(t.Location, [2]float32{})
			t.LocationValid = append(t.LocationValid, false)
		}

		if r.Pose != nil {
			t.Pose = append(t.Pose, *r.Pose)
			t.PoseValid = append(t.PoseValid, true)
		} else {
			t.Pose = append(t.Pose, [3]float32{})
			t.PoseValid = append(t.PoseValid, false)
		}

		if r.Degradation != nil {
			t.Degradation = append(t.Degradation, *r.Degradation)
			t.DegradationValid = append(t.DegradationValid, true)
		} else {
			t.Degradation = append(t.Degradation, "")
			t.DegradationValid = append(t.DegradationValid, false)
		}
	}

	t.LabelDict = labelDict.values
	t.GroupDict = groupDict.values
	return t, nil
}

// Row reconstructs row i as a Row value.
func (t *Table) Row(i int) Row {
	r := Row{
		Name:  t.Name[i],
		Label: t.LabelDict[t.LabelCode[i]],
		Group: t.GroupDict[t.GroupCode[i]],
		Mask:  t.Mask[i],
		Box2d: t.Box2d[i],
		Box3d: t.Box3d[i],
	}
	if t.FrameValid[i] {
		v := t.Frame[i]
		r.Frame = &v
	}
	if t.ObjectIDValid[i] {
		v := t.ObjectID[i]
		r.ObjectID = &v
	}
	if t.LabelIndexValid[i] {
		v := t.LabelIndex[i]
		r.LabelIndex = &v
	}
	if t.SizeValid[i] {
		v := t.Size[i]
		r.Size = &v
	}
	if t.LocationValid[i] {
		v := t.Location[i]
		r.Location = &v
	}
	if t.PoseValid[i] {
		v := t.Pose[i]
		r.Pose = &v
	}
	if t.DegradationValid[i] {
		v := t.Degradation[i]
		r.Degradation = &v
	}
	return r
}

// LegacyRow is the 9-column schema: the full row minus Size, Location,
// Pose, and Degradation.
type LegacyRow struct {
	Name       string
	Frame      *uint64
	ObjectID   *string
	Label      string
	LabelIndex *uint64
	Group      string
	Mask       []float32
	Box2d      [4]float32
	Box3d      [6]float32
}

// LegacyTable is the 9-column schema. It intentionally does not embed
// Table or share its struct shape: conflating the two at the column level
// is explicitly disallowed by §4.I even though they're built with the same
// dictionary-encoding helper.
type LegacyTable struct {
	Name []string

	Frame      []uint64
	FrameValid []bool

	ObjectID      []string
	ObjectIDValid []bool

	LabelDict []string
	LabelCode []uint8

	LabelIndex      []uint64
	LabelIndexValid []bool

	GroupDict []string
	GroupCode []uint8

	Mask  [][]float32
	Box2d [][4]float32
	Box3d [][6]float32
}

func (t *LegacyTable) Len() int { return len(t.Name) }

// BuildLegacyTable constructs the 9-column schema from rows.
func BuildLegacyTable(rows []LegacyRow) (*LegacyTable, error) {
	t := &LegacyTable{}
	labelDict := newDictionary()
	groupDict := newDictionary()

	for _, r := range rows {
		t.Name = append(t.Name, r.Name)

		if r.Frame != nil {
			t.Frame = append(t.Frame, *r.Frame)
			t.FrameValid = append(t.FrameValid, true)
		} else {
			t.Frame = append(t.Frame, 0)
			t.FrameValid = append(t.FrameValid, false)
		}

		if r.ObjectID != nil {
			t.ObjectID = append(t.ObjectID, *r.ObjectID)
			t.ObjectIDValid = append(t.ObjectIDValid, true)
		} else {
			t.ObjectID = append(t.ObjectID, "")
			t.ObjectIDValid = append(t.ObjectIDValid, false)
		}

		labelCode, err := labelDict.code(r.Label)
		if err != nil {
			return nil, err
		}
		t.LabelCode = append(t.LabelCode, labelCode)

		if r.LabelIndex != nil {
			t.LabelIndex = append(t.LabelIndex, *r.LabelIndex)
			t.LabelIndexValid = append(t.LabelIndexValid, true)
		} else {
			t.LabelIndex = append(t.LabelIndex, 0)
			t.LabelIndexValid = append(t.LabelIndexValid, false)
		}

		groupCode, err := groupDict.code(r.Group)
		if err != nil {
			return nil, err
		}
		t.GroupCode = append(t.GroupCode, groupCode)

		t.Mask = append(t.Mask, r.Mask)
		t.Box2d = append(t.Box2d, r.Box2d)
		t.Box3d = append(t.Box3d, r.Box3d)
	}

	t.LabelDict = labelDict.values
	t.GroupDict = groupDict.values
	return t, nil
}
