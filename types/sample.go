package types

import (
	"encoding/json"
	"strings"

	"github.com/EdgeFirstAI/client-sub000/ids"
)

// Sample is one captured frame: identity, grouping, provenance, and the
// files/annotations it carries.
type Sample struct {
	ID        *ids.SampleID
	UUID      string
	ImageName string

	Group               string
	SequenceName         string
	SequenceUUID         string
	SequenceDescription  string
	FrameNumber          *int64

	Width, Height *uint32

	Date        string
	Source      string
	Degradation string
	Location    *Location

	Files       []SampleFile
	Annotations []Annotation
}

// sampleWire is the over-the-wire shape, before the decode-time quirk
// handling in UnmarshalJSON/MarshalJSON is applied.
type sampleWire struct {
	ID        *ids.SampleID `json:"id,omitempty"`
	UUID      string        `json:"uuid,omitempty"`
	ImageName string        `json:"image_name,omitempty"`

	Group     string `json:"group,omitempty"`
	GroupName string `json:"group_name,omitempty"`

	SequenceName        string `json:"sequence_name,omitempty"`
	SequenceUUID         string `json:"sequence_uuid,omitempty"`
	SequenceDescription  string `json:"sequence_description,omitempty"`
	FrameNumber          *int64 `json:"frame_number,omitempty"`

	Width  *uint32 `json:"width,omitempty"`
	Height *uint32 `json:"height,omitempty"`

	Date        string          `json:"date,omitempty"`
	Source      string          `json:"source,omitempty"`
	Degradation string          `json:"degradation,omitempty"`
	Sensors     json.RawMessage `json:"sensors,omitempty"`

	Annotations []Annotation `json:"annotations,omitempty"`
}

// UnmarshalJSON applies the wire quirks documented in §4.G: group/
// group_name aliasing, the -1 frame-number absent sentinel, and the
// heterogeneous sensors field.
func (s *Sample) UnmarshalJSON(data []byte) error {
	var w sampleWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}

	s.ID = w.ID
	s.UUID = w.UUID
	s.ImageName = w.ImageName
	s.Group = w.Group
	if s.Group == "" {
		s.Group = w.GroupName
	}
	s.SequenceName = w.SequenceName
	s.SequenceUUID = w.SequenceUUID
	s.SequenceDescription = w.SequenceDescription
	if w.FrameNumber != nil && *w.FrameNumber != -1 {
		s.FrameNumber = w.FrameNumber
	}
	s.Width = w.Width
	s.Height = w.Height
	s.Date = w.Date
	s.Source = w.Source
	s.Degradation = w.Degradation
	s.Annotations = w.Annotations

	loc, files, err := decodeSensors(w.Sensors)
	if err != nil {
		return err
	}
	s.Location = loc
	s.Files = files
	return nil
}

// decodeSensors handles the "sensors" field, which may be a JSON object or
// an array of single-key objects; keys "gps"/"imu" become Location data,
// every other key/value pair becomes a SampleFile.
func decodeSensors(raw json.RawMessage) (*Location, []SampleFile, error) {
	if len(raw) == 0 {
		return nil, nil, nil
	}

	merged := map[string]json.RawMessage{}

	var asObject map[string]json.RawMessage
	if err := json.Unmarshal(raw, &asObject); err == nil {
		merged = asObject
	} else {
		var asArray []map[string]json.RawMessage
		if err := json.Unmarshal(raw, &asArray); err != nil {
			return nil, nil, err
		}
		for _, entry := range asArray {
			for k, v := range entry {
				merged[k] = v
			}
		}
	}

	var loc *Location
	var files []SampleFile
	for key, value := range merged {
		switch key {
		case "gps":
			var g GpsData
			if err := json.Unmarshal(value, &g); err != nil {
				return nil, nil, err
			}
			if loc == nil {
				loc = &Location{}
			}
			loc.Gps = &g
		case "imu":
			var i ImuData
			if err := json.Unmarshal(value, &i); err != nil {
				return nil, nil, err
			}
			if loc == nil {
				loc = &Location{}
			}
			loc.Imu = &i
		default:
			ft, err := ParseFileType(key)
			if err != nil {
				continue
			}
			files = append(files, sampleFileFromValue(ft, value))
		}
	}
	return loc, files, nil
}

// sampleFileFromValue builds a SampleFile from one "sensors" map value: a
// string is a URL if it has an http(s):// scheme, otherwise inline data;
// any other JSON shape is re-serialized to a string and treated as inline
// data.
func sampleFileFromValue(t FileType, raw json.RawMessage) SampleFile {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://") {
			return NewSampleFileURL(t, s)
		}
		return NewSampleFileData(t, s)
	}
	return NewSampleFileData(t, string(raw))
}

// MarshalJSON serializes for upload, omitting empty optional fields and
// writing "sensors" as an object keyed by file type / "gps" / "imu".
func (s Sample) MarshalJSON() ([]byte, error) {
	w := sampleWire{
		ID:                  s.ID,
		UUID:                s.UUID,
		ImageName:           s.ImageName,
		Group:               s.Group,
		SequenceName:        s.SequenceName,
		SequenceUUID:        s.SequenceUUID,
		SequenceDescription: s.SequenceDescription,
		FrameNumber:         s.FrameNumber,
		Width:               s.Width,
		Height:              s.Height,
		Date:                s.Date,
		Source:              s.Source,
		Degradation:         s.Degradation,
		Annotations:         s.Annotations,
	}

	sensors := map[string]any{}
	if s.Location != nil {
		if s.Location.Gps != nil {
			sensors["gps"] = s.Location.Gps
		}
		if s.Location.Imu != nil {
			sensors["imu"] = s.Location.Imu
		}
	}
	for _, f := range s.Files {
		if u, ok := f.URL(); ok {
			sensors[f.Type.String()] = u
		} else if d, ok := f.Data(); ok {
			sensors[f.Type.String()] = d
		}
	}
	if len(sensors) > 0 {
		raw, err := json.Marshal(sensors)
		if err != nil {
			return nil, err
		}
		w.Sensors = raw
	}

	return json.Marshal(w)
}
