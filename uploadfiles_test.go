package client

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/EdgeFirstAI/client-sub000/ids"
)

func multipartUploadServer(t *testing.T, wantMethod string, onRequest func(r *http.Request)) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, wantMethod, r.URL.Query().Get("method"))
		onRequest(r)
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(rpcResponse{ID: json.RawMessage(`999`), JSONRPC: "2.0", Result: json.RawMessage(`"ok"`)})
	}))
}

func TestUploadTrainerFilesSendsParamsAndFileParts(t *testing.T) {
	var gotParams string
	var gotFileNames []string
	var gotFileContents [][]byte

	srv := multipartUploadServer(t, "trainer.upload.files", func(r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(1<<20))
		gotParams = r.MultipartForm.Value["params"][0]
		for _, fh := range r.MultipartForm.File["file"] {
			gotFileNames = append(gotFileNames, fh.Filename)
			f, err := fh.Open()
			require.NoError(t, err)
			b, err := io.ReadAll(f)
			require.NoError(t, err)
			gotFileContents = append(gotFileContents, b)
		}
	})
	defer srv.Close()

	s := newTestSession(t, srv.URL)
	err := s.UploadTrainerFiles(context.Background(), ids.TrainingSessionIDFromUint(5), []UploadFile{
		{Name: "checkpoints/epoch-1.pt", Content: bytes.NewReader([]byte("weights"))},
		{Name: "artifacts/report.json", Content: bytes.NewReader([]byte(`{"ok":true}`))},
	})
	require.NoError(t, err)

	var params map[string]any
	require.NoError(t, json.Unmarshal([]byte(gotParams), &params))
	assert.Equal(t, ids.TrainingSessionIDFromUint(5).String(), params["session_id"])

	require.Len(t, gotFileNames, 2)
	assert.Equal(t, "checkpoints/epoch-1.pt", gotFileNames[0])
	assert.Equal(t, "artifacts/report.json", gotFileNames[1])
	assert.Equal(t, []byte("weights"), gotFileContents[0])
	assert.Equal(t, []byte(`{"ok":true}`), gotFileContents[1])
}

func TestUploadValidateFilesSendsSessionID(t *testing.T) {
	var gotParams string

	srv := multipartUploadServer(t, "validate.upload.files", func(r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(1<<20))
		gotParams = r.MultipartForm.Value["params"][0]
	})
	defer srv.Close()

	s := newTestSession(t, srv.URL)
	err := s.UploadValidateFiles(context.Background(), ids.ValidationSessionIDFromUint(9), []UploadFile{
		{Name: "logs/output.txt", Content: bytes.NewReader([]byte("done"))},
	})
	require.NoError(t, err)

	var params map[string]any
	require.NoError(t, json.Unmarshal([]byte(gotParams), &params))
	assert.Equal(t, ids.ValidationSessionIDFromUint(9).String(), params["session_id"])
}
