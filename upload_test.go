package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/EdgeFirstAI/client-sub000/ids"
)

func TestPartCountAndLengthScenario(t *testing.T) {
	const size = 250 * 1024 * 1024
	n := partCount(size)
	assert.Equal(t, 3, n)
	assert.EqualValues(t, 100*1024*1024, partLength(size, 0))
	assert.EqualValues(t, 100*1024*1024, partLength(size, 1))
	assert.EqualValues(t, 52428800, partLength(size, 2))
}

func TestPartCountExactMultipleHasFullTail(t *testing.T) {
	const size = 200 * 1024 * 1024
	n := partCount(size)
	assert.Equal(t, 2, n)
	assert.EqualValues(t, partSize, partLength(size, 0))
	assert.EqualValues(t, partSize, partLength(size, 1))
}

func TestUploadSnapshotMultipart(t *testing.T) {
	fileBytes := make([]byte, 150)
	for i := range fileBytes {
		fileBytes[i] = byte(i)
	}
	path := filepath.Join(t.TempDir(), "snapshot.bin")
	require.NoError(t, os.WriteFile(path, fileBytes, 0o600))

	objectStore := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("ETag", `"`+r.URL.Path+`"`)
		w.WriteHeader(http.StatusOK)
	}))
	defer objectStore.Close()

	var completeParts []partETag
	var updateStatus string
	srv := rpcServer(t, map[string]func(json.RawMessage) (any, *rpcErrorBody){
		METHOD_SNAPSHOTS_CREATE_UPLOAD_URL_MULTIPART: func(p json.RawMessage) (any, *rpcErrorBody) {
			return createUploadURLResult{
				Uploads: map[string]uploadURLSet{
					"snapshot-key": {
						UploadID: "upload-1",
						URLs:     []string{objectStore.URL + "/part-0"},
					},
				},
			}, nil
		},
		METHOD_SNAPSHOTS_COMPLETE_MULTIPART_UPLOAD: func(p json.RawMessage) (any, *rpcErrorBody) {
			var req completeMultipartUploadParams
			require.NoError(t, json.Unmarshal(p, &req))
			completeParts = req.Parts
			return struct{}{}, nil
		},
		METHOD_SNAPSHOTS_UPDATE: func(p json.RawMessage) (any, *rpcErrorBody) {
			var req updateSnapshotParams
			require.NoError(t, json.Unmarshal(p, &req))
			updateStatus = req.Status
			return struct{}{}, nil
		},
	})
	defer srv.Close()

	s := NewSession()
	tok := tokenFor(t, "acme", time.Now().Add(time.Hour).Unix())
	require.NoError(t, s.SetToken(tok))
	s.url = srv.URL

	err := UploadSnapshot(context.Background(), s, ids.SnapshotIDFromUint(1), "snapshot-key", path, nil)
	require.NoError(t, err)

	require.Len(t, completeParts, 1)
	assert.Equal(t, 1, completeParts[0].PartNumber)
	assert.Equal(t, "/part-0", completeParts[0].ETag)
	assert.Equal(t, "available", updateStatus)
}
