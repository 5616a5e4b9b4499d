package client

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/EdgeFirstAI/client-sub000/ids"
	"github.com/EdgeFirstAI/client-sub000/progress"
	"github.com/EdgeFirstAI/client-sub000/types"
)

// PagerFilter selects which samples/annotations an Annotation Pager run
// covers.
type PagerFilter struct {
	AnnotationSetID ids.AnnotationSetID
	Group           string
	AnnotationType  *types.AnnotationType
}

func (f PagerFilter) params(continueToken string) map[string]any {
	p := map[string]any{
		"annset_id": f.AnnotationSetID.String(),
	}
	if f.Group != "" {
		p["group"] = f.Group
	}
	if f.AnnotationType != nil {
		p["annotation_type"] = f.AnnotationType.String()
	}
	if continueToken != "" {
		p["continue_token"] = continueToken
	}
	return p
}

type countResult struct {
	Total uint64 `json:"total"`
}

// AnnotationSet is the annset.get/list record; its DatasetID is what lets
// the pager resolve a dataset from an annotation-set id alone.
type AnnotationSet struct {
	ID          ids.AnnotationSetID `json:"id"`
	DatasetID   ids.DatasetID       `json:"dataset_id"`
	Name        string              `json:"name"`
	Description string              `json:"description"`
}

// annotationSet fetches the annotation set identified by annotationSetID,
// which carries the dataset id it belongs to.
func annotationSet(ctx context.Context, s *Session, annotationSetID ids.AnnotationSetID) (AnnotationSet, error) {
	raw, err := s.Rpc(ctx, METHOD_ANNSET_GET, map[string]any{"annotation_set_id": annotationSetID.String()})
	if err != nil {
		return AnnotationSet{}, err
	}
	var set AnnotationSet
	if err := json.Unmarshal(raw, &set); err != nil {
		return AnnotationSet{}, fmt.Errorf("decode annset.get response: %w", err)
	}
	return set, nil
}

type samplesPage struct {
	Samples       []types.Sample `json:"samples"`
	ContinueToken string         `json:"continue_token"`
}

// pageSamples drives samples.count and samples.list against filter,
// invoking onPage with each raw page of samples (files, annotations, and
// all) and reporting {current, total} after each page. It returns
// immediately, without calling samples.list, when the count is zero. This
// is the shared core behind PageAnnotations (which denormalizes into a
// flat annotation list) and the download path (which only needs each
// sample's file manifest).
func pageSamples(ctx context.Context, s *Session, filter PagerFilter, sink progress.Sink, onPage func([]types.Sample) error) error {
	countRaw, err := s.Rpc(ctx, METHOD_SAMPLES_COUNT, filter.params(""))
	if err != nil {
		return err
	}
	var count countResult
	if err := json.Unmarshal(countRaw, &count); err != nil {
		return fmt.Errorf("decode samples.count response: %w", err)
	}
	if count.Total == 0 {
		return nil
	}

	var current uint64
	var continueToken string
	for {
		pageRaw, err := s.Rpc(ctx, METHOD_SAMPLES_LIST, filter.params(continueToken))
		if err != nil {
			return err
		}
		var page samplesPage
		if err := json.Unmarshal(pageRaw, &page); err != nil {
			return fmt.Errorf("decode samples.list response: %w", err)
		}

		if err := onPage(page.Samples); err != nil {
			return err
		}

		current += uint64(len(page.Samples))
		progress.Report(sink, current, count.Total)

		if page.ContinueToken == "" {
			return nil
		}
		continueToken = page.ContinueToken
	}
}

// PageAnnotations denormalizes every annotation returned by the pager,
// attaching sample_id/name/group/sequence_name and the dataset's
// label_index, and synthesizes one empty annotation for samples that
// carry none so they remain visible in the result. Order matches server
// page order; no global sort is applied.
//
// filter.AnnotationSetID is the only dataset-identifying input: the
// pager resolves it to a dataset id via annset.get before fetching
// labels, rather than requiring the caller to also pass a dataset id.
func PageAnnotations(ctx context.Context, s *Session, filter PagerFilter, sink progress.Sink) ([]types.Annotation, error) {
	defer progress.Close(sink)

	set, err := annotationSet(ctx, s, filter.AnnotationSetID)
	if err != nil {
		return nil, err
	}

	// The label table is loaded with the first page, so a zero count
	// returns without a label.list call.
	var labels map[string]uint64
	var out []types.Annotation
	err = pageSamples(ctx, s, filter, sink, func(samples []types.Sample) error {
		if labels == nil {
			l, err := loadLabelTable(ctx, s, set.DatasetID)
			if err != nil {
				return err
			}
			labels = l
		}
		for _, sample := range samples {
			anns := sample.Annotations
			if len(anns) == 0 {
				empty := types.New()
				denormalize(&empty, sample, labels)
				out = append(out, empty)
				continue
			}
			for _, ann := range anns {
				denormalize(&ann, sample, labels)
				out = append(out, ann)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// PageSamples returns every sample in the dataset matching filter,
// without denormalizing annotations. The download path uses this to
// reach each sample's file manifest, which PageAnnotations discards once
// it flattens to annotations.
func PageSamples(ctx context.Context, s *Session, filter PagerFilter, sink progress.Sink) ([]types.Sample, error) {
	defer progress.Close(sink)

	var out []types.Sample
	err := pageSamples(ctx, s, filter, sink, func(samples []types.Sample) error {
		out = append(out, samples...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// denormalize attaches the owning sample's identity fields to ann and
// resolves label_index from the dataset's label table, mutating ann in
// place.
func denormalize(ann *types.Annotation, sample types.Sample, labels map[string]uint64) {
	if sample.ID != nil {
		ann.SetSampleID(*sample.ID)
	}
	ann.Name = sample.ImageName
	ann.Group = sample.Group
	ann.SequenceName = sample.SequenceName

	if idx, ok := labels[ann.Label]; ok {
		v := idx
		ann.LabelIndex = &v
	}
}

func loadLabelTable(ctx context.Context, s *Session, datasetID ids.DatasetID) (map[string]uint64, error) {
	raw, err := s.Rpc(ctx, METHOD_LABEL_LIST, map[string]any{"dataset_id": datasetID.String()})
	if err != nil {
		return nil, err
	}
	var rows []types.Label
	if err := json.Unmarshal(raw, &rows); err != nil {
		return nil, fmt.Errorf("decode label.list response: %w", err)
	}
	out := make(map[string]uint64, len(rows))
	for _, l := range rows {
		out[l.Name] = l.Index
	}
	return out, nil
}
