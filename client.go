package client

import (
	"context"

	"github.com/EdgeFirstAI/client-sub000/ids"
	"github.com/EdgeFirstAI/client-sub000/progress"
	"github.com/EdgeFirstAI/client-sub000/types"
)

// Client is the facade every caller of this SDK constructs: an
// authenticated Session plus the transfer-engine operations (download,
// multipart upload, artifact fetch) and the Annotation Pager, all wired
// against that one Session.
type Client struct {
	*Session
}

// New returns a Client pointed at the default EdgeFirst Studio host,
// unauthenticated.
func New() *Client {
	return &Client{Session: NewSession()}
}

// ListAnnotations runs the Annotation Pager against filter.AnnotationSetID,
// resolving its owning dataset internally to fetch the label table.
func (c *Client) ListAnnotations(ctx context.Context, filter PagerFilter, sink progress.Sink) ([]types.Annotation, error) {
	return PageAnnotations(ctx, c.Session, filter, sink)
}

// DownloadDataset fetches every requested file type for every sample
// matching group into outDir.
func (c *Client) DownloadDataset(ctx context.Context, datasetID ids.DatasetID, group string, fileTypes []types.FileType, outDir string, sink progress.Sink) error {
	return DownloadDataset(ctx, c.Session, datasetID, group, fileTypes, outDir, sink)
}

// UploadSnapshot uploads path as a snapshot's object-store key via the
// multipart protocol.
func (c *Client) UploadSnapshot(ctx context.Context, snapshotID ids.SnapshotID, key, path string, sink progress.Sink) error {
	return UploadSnapshot(ctx, c.Session, snapshotID, key, path, sink)
}

// FetchArtifact streams an authenticated GET of pathOrURL to destPath.
func (c *Client) FetchArtifact(ctx context.Context, pathOrURL, destPath string, sink progress.Sink) error {
	return FetchArtifactWithProgress(ctx, c.Session, pathOrURL, destPath, sink)
}
