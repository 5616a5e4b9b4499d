// Package progress carries transfer progress from the SDK's transfer
// engine to a caller without forcing the engine to know anything about how
// progress is displayed.
package progress

// Update reports how much of a transfer has completed so far. Total is the
// size known up front: a byte count, or for a multipart upload (see the
// client package's upload path) the part count times the full part size,
// so an upload's Total can exceed the file's size. Each completed upload
// part, the last one included, adds a full part size to Current.
type Update struct {
	Current uint64
	Total   uint64
}

// Sink is a single-producer, single-consumer channel of Update values. The
// transfer engine is the sole producer and always closes the channel when
// the transfer ends, successfully or not; callers range over it rather
// than polling.
type Sink chan Update

// NewSink returns a Sink with the given buffer depth. A small buffer lets
// the producer emit an update per completed unit of work without blocking
// on a slow consumer.
func NewSink(buffer int) Sink {
	return make(Sink, buffer)
}

// send reports an update, dropping it instead of blocking if sink is nil.
// The transfer engine calls this on every sink it is handed so callers who
// don't want progress reporting can simply pass a nil Sink.
func (s Sink) send(u Update) {
	if s == nil {
		return
	}
	s <- u
}

// Report is exported so the transfer engine's various components (which
// live in other files/packages) can push an update without re-deriving the
// nil-safety above.
func Report(s Sink, current, total uint64) {
	s.send(Update{Current: current, Total: total})
}

// Close closes sink if it is non-nil. Safe to call once per transfer.
func Close(s Sink) {
	if s == nil {
		return
	}
	close(s)
}
