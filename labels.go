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
	"github.com/EdgeFirstAI/client-sub000/types"
)

type listLabelsParams struct {
	DatasetID ids.DatasetID `json:"dataset_id"`
}

// ListLabels returns every label defined on datasetID, the same call the
// annotation pager uses internally (loadLabelTable, pager.go) to build its
// label_index join. The wire response is a bare label array.
func (s *Session) ListLabels(ctx context.Context, datasetID ids.DatasetID) ([]types.Label, error) {
	raw, err := s.Rpc(ctx, METHOD_LABEL_LIST, listLabelsParams{DatasetID: datasetID})
	if err != nil {
		return nil, err
	}
	var labels []types.Label
	if err := json.Unmarshal(raw, &labels); err != nil {
		return nil, fmt.Errorf("decode label.list response: %w", err)
	}
	return labels, nil
}

type addLabelParams struct {
	DatasetID ids.DatasetID `json:"dataset_id"`
	Name      string        `json:"name"`
}

// AddLabel creates a new label on datasetID, returning the server-assigned
// label record (including its dense index).
func (s *Session) AddLabel(ctx context.Context, datasetID ids.DatasetID, name string) (*types.Label, error) {
	raw, err := s.Rpc(ctx, METHOD_LABEL_ADD2, addLabelParams{DatasetID: datasetID, Name: name})
	if err != nil {
		return nil, err
	}
	var label types.Label
	if err := json.Unmarshal(raw, &label); err != nil {
		return nil, fmt.Errorf("decode label.add2 response: %w", err)
	}
	return &label, nil
}

type deleteLabelParams struct {
	LabelID uint64 `json:"label_id"`
}

// DeleteLabel removes labelID from its dataset.
func (s *Session) DeleteLabel(ctx context.Context, labelID uint64) error {
	_, err := s.Rpc(ctx, METHOD_LABEL_DEL, deleteLabelParams{LabelID: labelID})
	return err
}

type updateLabelParams struct {
	LabelID uint64 `json:"label_id"`
	Name    string `json:"name"`
}

// UpdateLabel renames labelID.
func (s *Session) UpdateLabel(ctx context.Context, labelID uint64, name string) error {
	_, err := s.Rpc(ctx, METHOD_LABEL_UPDATE, updateLabelParams{LabelID: labelID, Name: name})
	return err
}
