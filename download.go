package client

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"

	"github.com/h2non/filetype"
	"golang.org/x/sync/errgroup"

	"github.com/EdgeFirstAI/client-sub000/ids"
	"github.com/EdgeFirstAI/client-sub000/progress"
	"github.com/EdgeFirstAI/client-sub000/types"
)

// maxTasks bounds the concurrency of both the dataset download and the
// multipart upload paths.
const maxTasks = 32

// DownloadDataset fetches every requested file type for every sample in a
// dataset into outDir, named "<sample.name>.<ext>". Sample metadata (file
// URLs and any inline legacy data) comes from the Annotation Pager's raw
// sample listing, not its denormalized annotation output.
func DownloadDataset(ctx context.Context, s *Session, datasetID ids.DatasetID, group string, fileTypes []types.FileType, outDir string, sink progress.Sink) error {
	defer progress.Close(sink)

	samples, err := PageSamples(ctx, s, PagerFilter{Group: group}, nil)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	wanted := types.ExpandFileTypes(fileTypes)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxTasks)

	var current atomic.Uint64
	total := uint64(len(samples))

	for _, sample := range samples {
		sample := sample
		g.Go(func() error {
			if err := DownloadSample(gctx, s, sample, wanted, outDir); err != nil {
				return err
			}
			c := current.Add(1)
			progress.Report(sink, c, total)
			return nil
		})
	}

	return g.Wait()
}

// DownloadSample resolves and writes every requested file type for a
// single sample into outDir. This is the unit of work submitted per
// sample by DownloadDataset.
func DownloadSample(ctx context.Context, s *Session, sample types.Sample, wanted []types.FileType, outDir string) error {
	byType := map[types.FileType]types.SampleFile{}
	for _, f := range sample.Files {
		byType[f.Type] = f
	}

	for _, ft := range wanted {
		f, ok := byType[ft]
		if !ok {
			continue
		}
		if err := downloadOne(ctx, s, sample.ImageName, ft, f, outDir); err != nil {
			return err
		}
	}
	return nil
}

func downloadOne(ctx context.Context, s *Session, sampleName string, ft types.FileType, f types.SampleFile, outDir string) error {
	payload, err := resolvePayload(ctx, s, f)
	if err != nil {
		return err
	}

	ext := ft.FileExtension()
	if ft == types.Image {
		if kind, err := filetype.Match(payload); err == nil && kind != filetype.Unknown {
			ext = kind.Extension
		}
	}

	path := filepath.Join(outDir, fmt.Sprintf("%s.%s", sampleName, ext))
	return os.WriteFile(path, payload, 0o644)
}

// resolvePayload fetches a SampleFile's bytes, following a URL via the
// authenticated fetch path or decoding inline legacy data.
func resolvePayload(ctx context.Context, s *Session, f types.SampleFile) ([]byte, error) {
	if url, ok := f.URL(); ok {
		body, _, err := s.fetch(ctx, url)
		if err != nil {
			return nil, err
		}
		defer body.Close()
		buf := new(bytes.Buffer)
		if _, err := buf.ReadFrom(body); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	}
	if data, ok := f.Data(); ok {
		return decodeLegacyInlineData(data), nil
	}
	if b, ok := f.Bytes(); ok {
		return b, nil
	}
	return nil, &InvalidParametersError{Msg: "sample file has neither url nor data"}
}

// decodeLegacyInlineData implements the legacy inline-data decode chain:
// try base64 -> UTF-8; if the result begins with '{', treat it as a JSON
// wrapper and extract the single string value; otherwise use the decoded
// bytes; if base64 decoding fails, fall back to the raw string bytes.
func decodeLegacyInlineData(s string) []byte {
	decoded, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return []byte(s)
	}
	if len(decoded) > 0 && decoded[0] == '{' {
		var wrapper map[string]string
		if err := json.Unmarshal(decoded, &wrapper); err == nil {
			for _, v := range wrapper {
				return []byte(v)
			}
		}
	}
	return decoded
}
