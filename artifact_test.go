package client

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/EdgeFirstAI/client-sub000/progress"
)

func TestFetchArtifactWritesFileAndReportsProgress(t *testing.T) {
	payload := []byte("checkpoint-weights-blob")
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Length", "23")
		w.Write(payload)
	}))
	defer srv.Close()

	s := NewSession()
	tok := tokenFor(t, "acme", time.Now().Add(time.Hour).Unix())
	require.NoError(t, s.SetToken(tok))
	s.url = srv.URL

	dest := filepath.Join(t.TempDir(), "nested", "checkpoint.bin")
	sink := progress.NewSink(8)
	var updates []progress.Update
	done := make(chan struct{})
	go func() {
		for u := range sink {
			updates = append(updates, u)
		}
		close(done)
	}()

	err := FetchArtifactWithProgress(context.Background(), s, "/artifacts/checkpoint.bin", dest, sink)
	<-done
	require.NoError(t, err)

	got, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, payload, got)

	require.NotEmpty(t, updates)
	last := updates[len(updates)-1]
	assert.EqualValues(t, len(payload), last.Current)
	assert.EqualValues(t, 23, last.Total)
}

func TestFetchArtifactNon2xxIsHttpError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte("boom"))
	}))
	defer srv.Close()

	s := NewSession()
	tok := tokenFor(t, "acme", time.Now().Add(time.Hour).Unix())
	require.NoError(t, s.SetToken(tok))
	s.url = srv.URL

	err := FetchArtifact(context.Background(), s, "/artifacts/missing.bin", filepath.Join(t.TempDir(), "out.bin"))
	var httpErr *HttpError
	assert.ErrorAs(t, err, &httpErr)
}
