/*************************************************************************
 * Copyright 2026 EdgeFirst AI. All rights reserved.
 *
 * This software may be modified and distributed under the terms of the
 * BSD 2-clause license. See the LICENSE file for details.
 **************************************************************************/

package client

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/EdgeFirstAI/client-sub000/ids"
)

// Snapshot is a dataset snapshot as returned by snapshots.list/get.
type Snapshot struct {
	ID        ids.SnapshotID `json:"id"`
	DatasetID ids.DatasetID  `json:"dataset_id"`
	Name      string         `json:"name"`
	Status    string         `json:"status"`
}

type listSnapshotsParams struct {
	DatasetID ids.DatasetID `json:"dataset_id"`
}

// ListSnapshots returns every snapshot belonging to datasetID.
func (s *Session) ListSnapshots(ctx context.Context, datasetID ids.DatasetID) ([]Snapshot, error) {
	raw, err := s.Rpc(ctx, METHOD_SNAPSHOTS_LIST, listSnapshotsParams{DatasetID: datasetID})
	if err != nil {
		return nil, err
	}
	var snapshots []Snapshot
	if err := json.Unmarshal(raw, &snapshots); err != nil {
		return nil, fmt.Errorf("decode snapshots.list response: %w", err)
	}
	return snapshots, nil
}

type getSnapshotParams struct {
	SnapshotID ids.SnapshotID `json:"snapshot_id"`
}

// GetSnapshot fetches a single snapshot by id.
func (s *Session) GetSnapshot(ctx context.Context, snapshotID ids.SnapshotID) (*Snapshot, error) {
	raw, err := s.Rpc(ctx, METHOD_SNAPSHOTS_GET, getSnapshotParams{SnapshotID: snapshotID})
	if err != nil {
		return nil, err
	}
	var snap Snapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return nil, fmt.Errorf("decode snapshots.get response: %w", err)
	}
	return &snap, nil
}

type restoreSnapshotParams struct {
	SnapshotID ids.SnapshotID `json:"snapshot_id"`
}

// RestoreSnapshot asks the server to restore the contents held by
// snapshotID.
func (s *Session) RestoreSnapshot(ctx context.Context, snapshotID ids.SnapshotID) error {
	_, err := s.Rpc(ctx, METHOD_SNAPSHOTS_RESTORE, restoreSnapshotParams{SnapshotID: snapshotID})
	return err
}
