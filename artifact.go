package client

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/EdgeFirstAI/client-sub000/progress"
)

// FetchArtifact streams an authenticated GET of pathOrURL (a checkpoint,
// training artifact, or other server-hosted file) to destPath, creating
// its parent directory if absent. When sink is non-nil, the response's
// Content-Length is reported as the total and each written chunk
// increments current. This layer performs no retry of its own: artifact
// streams may be arbitrarily large, and a partial retry would have to
// resume mid-stream, which the server does not support here.
func FetchArtifact(ctx context.Context, s *Session, pathOrURL, destPath string) error {
	return FetchArtifactWithProgress(ctx, s, pathOrURL, destPath, nil)
}

// FetchArtifactWithProgress is FetchArtifact with an explicit progress
// sink, which is closed when the transfer ends, successfully or not.
func FetchArtifactWithProgress(ctx context.Context, s *Session, pathOrURL, destPath string, sink progress.Sink) error {
	defer progress.Close(sink)

	body, contentLength, err := s.fetch(ctx, pathOrURL)
	if err != nil {
		return err
	}
	defer body.Close()

	if err := os.MkdirAll(filepath.Dir(destPath), 0o755); err != nil {
		return fmt.Errorf("create artifact directory: %w", err)
	}

	f, err := os.Create(destPath)
	if err != nil {
		return fmt.Errorf("create artifact file: %w", err)
	}
	defer f.Close()

	total := uint64(0)
	if contentLength > 0 {
		total = uint64(contentLength)
	}

	var current uint64
	buf := make([]byte, 32*1024)
	for {
		n, readErr := body.Read(buf)
		if n > 0 {
			if _, err := f.Write(buf[:n]); err != nil {
				return fmt.Errorf("write artifact file: %w", err)
			}
			current += uint64(n)
			progress.Report(sink, current, total)
		}
		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			return fmt.Errorf("read artifact stream: %w", readErr)
		}
	}
	return nil
}
