package sink

import (
	"fmt"

	"github.com/GoSim-25-26J-441/mlp-gridsearch/pkg/models"
)

// FlushFunc is told how many rows each flush wrote
type FlushFunc func(written int, dest string)

// Stats counts outcomes seen by a Batcher
type Stats struct {
	Completed int
	Failed    int
	Persisted int
	Buffered  int
}

// Batcher buffers completed trials in completion order and writes them once
// the batch threshold is reached. It has a single owner and is not safe for
// concurrent use.
type Batcher struct {
	w       Writer
	size    int
	buf     []models.TrialResult
	onFlush FlushFunc
	stats   Stats
}

// NewBatcher creates a batcher flushing every size completed trials
func NewBatcher(w Writer, size int, onFlush FlushFunc) *Batcher {
	if size <= 0 {
		size = 1
	}
	return &Batcher{
		w:       w,
		size:    size,
		buf:     make([]models.TrialResult, 0, size),
		onFlush: onFlush,
	}
}

// Append records an outcome. Failed trials are counted but never persisted.
func (b *Batcher) Append(o models.Outcome) {
	if o.Failed() || o.Result == nil {
		b.stats.Failed++
		return
	}
	b.stats.Completed++
	b.buf = append(b.buf, *o.Result)
}

// FlushIfFull writes the buffer when it has reached the threshold
func (b *Batcher) FlushIfFull() (bool, error) {
	if len(b.buf) < b.size {
		return false, nil
	}
	return true, b.flush()
}

// FlushRemaining writes whatever is buffered
func (b *Batcher) FlushRemaining() error {
	if len(b.buf) == 0 {
		return nil
	}
	return b.flush()
}

func (b *Batcher) flush() error {
	n := len(b.buf)
	if err := b.w.WriteResults(b.buf); err != nil {
		return fmt.Errorf("sink: failed to write %d results to %s: %w", n, b.w.Dest(), err)
	}
	b.stats.Persisted += n
	b.buf = b.buf[:0]
	if b.onFlush != nil {
		b.onFlush(n, b.w.Dest())
	}
	return nil
}

// Stats returns the current counters
func (b *Batcher) Stats() Stats {
	s := b.stats
	s.Buffered = len(b.buf)
	return s
}
