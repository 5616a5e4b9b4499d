package types

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSampleGroupNameAlias(t *testing.T) {
	var s Sample
	require.NoError(t, json.Unmarshal([]byte(`{"group_name":"train"}`), &s))
	assert.Equal(t, "train", s.Group)
}

func TestSampleFrameNumberNegativeOneIsAbsent(t *testing.T) {
	var s Sample
	require.NoError(t, json.Unmarshal([]byte(`{"frame_number":-1}`), &s))
	assert.Nil(t, s.FrameNumber)

	var s2 Sample
	require.NoError(t, json.Unmarshal([]byte(`{"frame_number":7}`), &s2))
	require.NotNil(t, s2.FrameNumber)
	assert.Equal(t, int64(7), *s2.FrameNumber)
}

func TestSampleSensorsObjectForm(t *testing.T) {
	var s Sample
	raw := `{"sensors":{"gps":{"lat":1.0,"lon":2.0},"imu":{"roll":0.1,"pitch":0.2,"yaw":0.3},"image":"https://example.com/a.jpg"}}`
	require.NoError(t, json.Unmarshal([]byte(raw), &s))
	require.NotNil(t, s.Location)
	require.NotNil(t, s.Location.Gps)
	assert.Equal(t, 1.0, s.Location.Gps.Lat)
	require.NotNil(t, s.Location.Imu)
	assert.Equal(t, 0.3, s.Location.Imu.Yaw)
	require.Len(t, s.Files, 1)
	url, ok := s.Files[0].URL()
	assert.True(t, ok)
	assert.Equal(t, "https://example.com/a.jpg", url)
}

func TestSampleSensorsArrayForm(t *testing.T) {
	var s Sample
	raw := `{"sensors":[{"gps":{"lat":1.0,"lon":2.0}},{"image":"https://example.com/a.jpg"}]}`
	require.NoError(t, json.Unmarshal([]byte(raw), &s))
	require.NotNil(t, s.Location)
	require.Len(t, s.Files, 1)
}

func TestSampleSensorsObjectValueSerializedAsInlineData(t *testing.T) {
	var s Sample
	raw := `{"sensors":{"lidar.pcd":{"foo":"bar"}}}`
	require.NoError(t, json.Unmarshal([]byte(raw), &s))
	require.Len(t, s.Files, 1)
	data, ok := s.Files[0].Data()
	assert.True(t, ok)
	assert.JSONEq(t, `{"foo":"bar"}`, data)
}
