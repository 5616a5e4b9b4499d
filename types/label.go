package types

import "github.com/EdgeFirstAI/client-sub000/ids"

// Label is a dataset's (index, name) model-emission entry. The pair
// (DatasetID, Name) is assumed unique per dataset. Labels are not one of
// the prefixed-hex identifier kinds (§3); the server assigns a plain
// numeric id.
type Label struct {
	ID        uint64        `json:"id"`
	DatasetID ids.DatasetID `json:"dataset_id"`
	Index     uint64        `json:"index"`
	Name      string        `json:"name"`
}
