package progress

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSinkReportsInOrder(t *testing.T) {
	sink := NewSink(4)
	Report(sink, 10, 100)
	Report(sink, 20, 100)
	Close(sink)

	var got []Update
	for u := range sink {
		got = append(got, u)
	}
	assert.Equal(t, []Update{{Current: 10, Total: 100}, {Current: 20, Total: 100}}, got)
}

func TestNilSinkNeverBlocksOrPanics(t *testing.T) {
	var sink Sink
	assert.NotPanics(t, func() {
		Report(sink, 1, 1)
		Close(sink)
	})
}
