package client

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/EdgeFirstAI/client-sub000/ids"
	"github.com/EdgeFirstAI/client-sub000/progress"
	"github.com/EdgeFirstAI/client-sub000/types"
)

func newTestSession(t *testing.T, url string) *Session {
	t.Helper()
	s := NewSession()
	tok := tokenFor(t, "acme", time.Now().Add(time.Hour).Unix())
	require.NoError(t, s.SetToken(tok))
	s.url = url
	return s
}

func TestPageAnnotationsZeroCountShortCircuits(t *testing.T) {
	calledList := false
	srv := rpcServer(t, map[string]func(json.RawMessage) (any, *rpcErrorBody){
		"annset.get": func(p json.RawMessage) (any, *rpcErrorBody) {
			return AnnotationSet{ID: ids.AnnotationSetIDFromUint(1), DatasetID: ids.DatasetIDFromUint(1)}, nil
		},
		"samples.count": func(p json.RawMessage) (any, *rpcErrorBody) {
			return countResult{Total: 0}, nil
		},
		"samples.list": func(p json.RawMessage) (any, *rpcErrorBody) {
			calledList = true
			return samplesPage{}, nil
		},
	})
	defer srv.Close()

	s := newTestSession(t, srv.URL)
	anns, err := PageAnnotations(context.Background(), s, PagerFilter{
		AnnotationSetID: ids.AnnotationSetIDFromUint(1),
	}, nil)
	require.NoError(t, err)
	assert.Nil(t, anns)
	assert.False(t, calledList, "samples.list must not be called when samples.count is zero")
}

func TestPageAnnotationsSynthesizesEmptySampleAndJoinsLabelIndex(t *testing.T) {
	sampleID := ids.SampleIDFromUint(42)
	page1 := samplesPage{
		Samples: []types.Sample{
			{
				ID:        &sampleID,
				ImageName: "frame-1.jpg",
				Group:     "train",
				Annotations: []types.Annotation{
					{Label: "car"},
				},
			},
			{
				ImageName:   "frame-2.jpg",
				Group:       "train",
				Annotations: nil,
			},
		},
		ContinueToken: "page-2",
	}
	page2 := samplesPage{
		Samples:       []types.Sample{{ImageName: "frame-3.jpg", Group: "val"}},
		ContinueToken: "",
	}

	calls := 0
	srv := rpcServer(t, map[string]func(json.RawMessage) (any, *rpcErrorBody){
		"annset.get": func(p json.RawMessage) (any, *rpcErrorBody) {
			return AnnotationSet{ID: ids.AnnotationSetIDFromUint(1), DatasetID: ids.DatasetIDFromUint(1)}, nil
		},
		"samples.count": func(p json.RawMessage) (any, *rpcErrorBody) {
			return countResult{Total: 3}, nil
		},
		"label.list": func(p json.RawMessage) (any, *rpcErrorBody) {
			return []types.Label{{Name: "car", Index: 7}}, nil
		},
		"samples.list": func(p json.RawMessage) (any, *rpcErrorBody) {
			calls++
			if calls == 1 {
				return page1, nil
			}
			return page2, nil
		},
	})
	defer srv.Close()

	s := newTestSession(t, srv.URL)
	sink := progress.NewSink(8)
	var updates []progress.Update
	done := make(chan struct{})
	go func() {
		for u := range sink {
			updates = append(updates, u)
		}
		close(done)
	}()

	anns, err := PageAnnotations(context.Background(), s, PagerFilter{
		AnnotationSetID: ids.AnnotationSetIDFromUint(1),
	}, sink)
	<-done
	require.NoError(t, err)
	require.Len(t, anns, 3)

	assert.Equal(t, "car", anns[0].Label)
	require.NotNil(t, anns[0].LabelIndex)
	assert.Equal(t, uint64(7), *anns[0].LabelIndex)
	require.NotNil(t, anns[0].SampleID)
	assert.Equal(t, "frame-1.jpg", anns[0].Name)
	assert.Equal(t, "train", anns[0].Group)

	assert.Equal(t, "", anns[1].Label, "sample with no annotations synthesizes an empty one")
	assert.Equal(t, "frame-2.jpg", anns[1].Name)

	assert.Equal(t, "frame-3.jpg", anns[2].Name)
	assert.Equal(t, "val", anns[2].Group)

	require.Len(t, updates, 2)
	assert.Equal(t, progress.Update{Current: 2, Total: 3}, updates[0])
	assert.Equal(t, progress.Update{Current: 3, Total: 3}, updates[1])
}
