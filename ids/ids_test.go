package ids

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDatasetIDRoundTrip(t *testing.T) {
	// S2 from the spec: "ds-10a" parses to 266 and reformats identically.
	id, err := ParseDatasetID("ds-10a")
	require.NoError(t, err)
	assert.Equal(t, uint64(266), id.Value())
	assert.Equal(t, "ds-10a", id.String())
}

func TestRoundTripAllValues(t *testing.T) {
	for _, v := range []uint64{0, 1, 266, 0xDEADBEEF, ^uint64(0)} {
		id := DatasetIDFromUint(v)
		reparsed, err := ParseDatasetID(id.String())
		require.NoError(t, err)
		assert.Equal(t, id, reparsed)
	}
}

func TestParseErrors(t *testing.T) {
	_, err := ParseDatasetID("p-10a")
	assert.Error(t, err, "wrong prefix should fail")

	_, err = ParseDatasetID("ds-")
	assert.Error(t, err, "empty hex should fail")

	_, err = ParseDatasetID("ds-zz")
	assert.Error(t, err, "non-hex should fail")

	var pe *ParseError
	_, err = ParseDatasetID("ds-zz")
	assert.ErrorAs(t, err, &pe)
}

func TestDistinctTypes(t *testing.T) {
	// OrgID and ProjectID must not be interchangeable at compile time; this
	// test only documents that the same numeric value renders with each
	// type's own prefix at runtime, since Go can't assert
	// non-interchangeability statically here.
	org := OrgIDFromUint(5)
	proj := ProjectIDFromUint(5)
	assert.Equal(t, "org-5", org.String())
	assert.Equal(t, "p-5", proj.String())
}

func TestJSONRoundTrip(t *testing.T) {
	id := SampleIDFromUint(4096)
	data, err := json.Marshal(id)
	require.NoError(t, err)
	assert.Equal(t, `"s-1000"`, string(data))

	var out SampleID
	require.NoError(t, json.Unmarshal(data, &out))
	assert.Equal(t, id, out)
}

func TestAllPrefixes(t *testing.T) {
	cases := []struct {
		name string
		s    string
	}{
		{"org", "org-1"},
		{"p", "p-1"},
		{"ds", "ds-1"},
		{"as", "as-1"},
		{"exp", "exp-1"},
		{"t", "t-1"},
		{"v", "v-1"},
		{"task", "task-1"},
		{"ss", "ss-1"},
		{"s", "s-1"},
		{"im", "im-1"},
		{"se", "se-1"},
		{"app", "app-1"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			switch c.name {
			case "org":
				_, err := ParseOrgID(c.s)
				require.NoError(t, err)
			case "p":
				_, err := ParseProjectID(c.s)
				require.NoError(t, err)
			case "ds":
				_, err := ParseDatasetID(c.s)
				require.NoError(t, err)
			case "as":
				_, err := ParseAnnotationSetID(c.s)
				require.NoError(t, err)
			case "exp":
				_, err := ParseExperimentID(c.s)
				require.NoError(t, err)
			case "t":
				_, err := ParseTrainingSessionID(c.s)
				require.NoError(t, err)
			case "v":
				_, err := ParseValidationSessionID(c.s)
				require.NoError(t, err)
			case "task":
				_, err := ParseTaskID(c.s)
				require.NoError(t, err)
			case "ss":
				_, err := ParseSnapshotID(c.s)
				require.NoError(t, err)
			case "s":
				_, err := ParseSampleID(c.s)
				require.NoError(t, err)
			case "im":
				_, err := ParseImageID(c.s)
				require.NoError(t, err)
			case "se":
				_, err := ParseSequenceID(c.s)
				require.NoError(t, err)
			case "app":
				_, err := ParseAppID(c.s)
				require.NoError(t, err)
			}
		})
	}
}
