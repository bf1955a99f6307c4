package upload

import (
	"context"
	"fmt"

	"github.com/flashvolt/blockvault/internal/layout"
)

// writeJob is what the FSM hands a Writer actor: write data at logical
// block blockID of uuidBytes in bucket, then report back on result.
type writeJob struct {
	bucket    []byte
	uuidBytes []byte
	blockID   uint64
	data      []byte
	result    chan<- blockWrittenEvent
}

// Writer is a worker actor that accepts write jobs and reports completion
// back to whichever upload FSM currently owns it, modeled on
// FlashLogGo's WALWriter.loop: a goroutine draining a buffered request
// channel and replying on a per-request channel.
type Writer struct {
	id   int
	jobs chan writeJob
}

func newWriter(id int, engine *layout.Engine) *Writer {
	w := &Writer{id: id, jobs: make(chan writeJob, 1)}
	go w.loop(engine)
	return w
}

func (w *Writer) loop(engine *layout.Engine) {
	for job := range w.jobs {
		err := engine.PutBlock(job.bucket, job.uuidBytes, job.blockID, job.data, false)
		job.result <- blockWrittenEvent{writerID: w.id, blockID: job.blockID, err: err}
	}
}

// Pool is the writer pool shared across uploads (spec.md §5): a bounded
// number of Writer actors, acquired in batches by an upload's prepare
// step and returned when the upload finishes or fails.
type Pool struct {
	available chan *Writer
	size      int
}

// NewPool starts size Writer actors, all backed by engine, and returns a
// Pool holding them.
func NewPool(size int, engine *layout.Engine) *Pool {
	p := &Pool{available: make(chan *Writer, size), size: size}
	for i := 0; i < size; i++ {
		p.available <- newWriter(i, engine)
	}
	return p
}

// Size reports the pool's total writer count.
func (p *Pool) Size() int { return p.size }

// Acquire blocks until count writers are available or ctx is done.
func (p *Pool) Acquire(ctx context.Context, count int) ([]*Writer, error) {
	if count > p.size {
		return nil, fmt.Errorf("upload: requested %d writers, pool only has %d", count, p.size)
	}
	writers := make([]*Writer, 0, count)
	for len(writers) < count {
		select {
		case w := <-p.available:
			writers = append(writers, w)
		case <-ctx.Done():
			p.release(writers)
			return nil, ctx.Err()
		}
	}
	return writers, nil
}

// Release returns writers to the pool for reuse by other uploads.
func (p *Pool) Release(writers []*Writer) {
	p.release(writers)
}

func (p *Pool) release(writers []*Writer) {
	for _, w := range writers {
		p.available <- w
	}
}
