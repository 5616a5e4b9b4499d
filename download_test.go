package client

import (
	"context"
	"encoding/base64"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/EdgeFirstAI/client-sub000/types"
)

func TestDecodeLegacyInlineDataPlainBase64(t *testing.T) {
	encoded := base64.StdEncoding.EncodeToString([]byte("hello world"))
	got := decodeLegacyInlineData(encoded)
	assert.Equal(t, "hello world", string(got))
}

func TestDecodeLegacyInlineDataJSONWrapper(t *testing.T) {
	inner := `{"value":"payload-bytes"}`
	encoded := base64.StdEncoding.EncodeToString([]byte(inner))
	got := decodeLegacyInlineData(encoded)
	assert.Equal(t, "payload-bytes", string(got))
}

func TestDecodeLegacyInlineDataInvalidBase64FallsBackToRawBytes(t *testing.T) {
	got := decodeLegacyInlineData("not valid base64!!!")
	assert.Equal(t, "not valid base64!!!", string(got))
}

func TestDownloadSampleWritesInlineDataFile(t *testing.T) {
	outDir := t.TempDir()
	sample := types.Sample{
		ImageName: "frame-1",
		Files: []types.SampleFile{
			types.NewSampleFileData(types.LidarPcd, base64.StdEncoding.EncodeToString([]byte("pcd-bytes"))),
		},
	}

	require.NoError(t, DownloadSample(context.Background(), nil, sample, []types.FileType{types.LidarPcd}, outDir))

	got, err := os.ReadFile(filepath.Join(outDir, "frame-1.lidar.pcd"))
	require.NoError(t, err)
	assert.Equal(t, "pcd-bytes", string(got))
}

func TestDownloadSampleSkipsUnrequestedTypes(t *testing.T) {
	outDir := t.TempDir()
	sample := types.Sample{
		ImageName: "frame-2",
		Files: []types.SampleFile{
			types.NewSampleFileData(types.RadarPcd, base64.StdEncoding.EncodeToString([]byte("radar-bytes"))),
		},
	}

	require.NoError(t, DownloadSample(context.Background(), nil, sample, []types.FileType{types.LidarPcd}, outDir))

	entries, err := os.ReadDir(outDir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}
