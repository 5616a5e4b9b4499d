package client

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/EdgeFirstAI/client-sub000/ids"
	"github.com/EdgeFirstAI/client-sub000/progress"
)

// partSize is the multipart upload chunk size: 100 MiB.
const partSize = 100 * 1024 * 1024

type createUploadURLParams struct {
	Keys  []string `json:"keys"`
	Sizes []int64  `json:"sizes"`
}

type uploadURLSet struct {
	UploadID string   `json:"upload_id"`
	URLs     []string `json:"urls"`
}

type createUploadURLResult struct {
	Uploads map[string]uploadURLSet `json:"uploads"`
}

type partETag struct {
	PartNumber int    `json:"part_number"`
	ETag       string `json:"etag"`
}

type completeMultipartUploadParams struct {
	SnapshotID ids.SnapshotID `json:"snapshot_id"`
	Key        string         `json:"key"`
	UploadID   string         `json:"upload_id"`
	Parts      []partETag     `json:"parts"`
}

type updateSnapshotParams struct {
	SnapshotID ids.SnapshotID `json:"snapshot_id"`
	Status     string         `json:"status"`
}

// UploadSnapshot uploads path as a snapshot's single object-store key,
// using the multipart protocol: one presigned URL per 100 MiB part,
// uploaded with bounded concurrency, committed in ascending part-number
// order once every part succeeds.
func UploadSnapshot(ctx context.Context, s *Session, snapshotID ids.SnapshotID, key, path string, sink progress.Sink) error {
	defer progress.Close(sink)

	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("stat upload file: %w", err)
	}
	size := info.Size()
	n := partCount(size)

	urlsRaw, err := s.Rpc(ctx, METHOD_SNAPSHOTS_CREATE_UPLOAD_URL_MULTIPART, createUploadURLParams{
		Keys:  []string{key},
		Sizes: []int64{size},
	})
	if err != nil {
		return err
	}
	var created createUploadURLResult
	if err := json.Unmarshal(urlsRaw, &created); err != nil {
		return fmt.Errorf("decode create_upload_url_multipart response: %w", err)
	}
	set, ok := created.Uploads[key]
	if !ok || len(set.URLs) != n {
		return &InvalidParametersError{Msg: "upload url response did not match requested part count"}
	}

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open upload file: %w", err)
	}
	defer f.Close()

	etags := make([]string, n)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxTasks)

	var current atomic.Uint64
	total := uint64(n) * uint64(partSize)

	for i := 0; i < n; i++ {
		i := i
		length := partLength(size, i)
		g.Go(func() error {
			buf := make([]byte, length)
			if _, err := f.ReadAt(buf, int64(i)*partSize); err != nil {
				return fmt.Errorf("read part %d: %w", i, err)
			}
			etag, err := s.putPart(gctx, set.URLs[i], buf)
			if err != nil {
				return err
			}
			etags[i] = etag
			c := current.Add(uint64(partSize))
			progress.Report(sink, c, total)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}

	parts := make([]partETag, n)
	for i, etag := range etags {
		parts[i] = partETag{PartNumber: i + 1, ETag: etag}
	}

	if _, err := s.Rpc(ctx, METHOD_SNAPSHOTS_COMPLETE_MULTIPART_UPLOAD, completeMultipartUploadParams{
		SnapshotID: snapshotID,
		Key:        key,
		UploadID:   set.UploadID,
		Parts:      parts,
	}); err != nil {
		return err
	}

	_, err = s.Rpc(ctx, METHOD_SNAPSHOTS_UPDATE, updateSnapshotParams{SnapshotID: snapshotID, Status: "available"})
	return err
}

// partCount returns ceil(size / partSize), with a minimum of one part for
// a zero-length file.
func partCount(size int64) int {
	if size == 0 {
		return 1
	}
	n := size / partSize
	if size%partSize != 0 {
		n++
	}
	return int(n)
}

// partLength returns the byte length of part i: a full partSize for every
// non-tail part, and the remainder for the tail -- never zero for a
// non-empty file, since a file whose size is an exact multiple of partSize
// has a full-size tail. A zero-length file's single part has length zero.
func partLength(size int64, i int) int64 {
	remainder := size - int64(i)*partSize
	if remainder > partSize {
		return partSize
	}
	return remainder
}
