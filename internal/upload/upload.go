// Package upload implements the chunked upload coordinator: the
// per-upload state machine from spec.md §4.7. It streams an object of
// known length in from a client, slices it into fixed-size blocks,
// dispatches them to a shared writer pool, applies backpressure once too
// many writes are in flight, and finalizes once every block is durable.
//
// The FSM is a single goroutine reading a serialized event channel, the
// same actor shape FlashLogGo's WALWriter uses for its WAL: public
// methods package a request plus a reply channel and send it in, never
// touching FSM state directly.
package upload

import (
	"context"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/flashvolt/blockvault/internal/layout"
	"github.com/flashvolt/blockvault/internal/orderedset"
	"github.com/flashvolt/blockvault/internal/slicer"
	"github.com/flashvolt/blockvault/internal/verrors"
)

// ErrUploadCancelled is returned to any deferred caller when an upload is
// shut down mid-flight (spec.md §7).
var ErrUploadCancelled = fmt.Errorf("%w: upload cancelled", verrors.ErrCancelled)

// ErrUploadRejected is returned by augment_data when the FSM is not in a
// state that accepts more data.
var ErrUploadRejected = fmt.Errorf("%w: upload is not accepting data in its current state", verrors.ErrInvalidArgument)

// ErrFinalizeTooEarly is returned by Finalize before all bytes have been
// received.
var ErrFinalizeTooEarly = fmt.Errorf("%w: finalize called before all_received", verrors.ErrInvalidArgument)

type state int

const (
	stateNotFull state = iota
	stateFull
	stateAllReceived
	stateDone
	stateFailed
)

// Config parameterizes a single upload.
type Config struct {
	BlockSize            int
	MaxBufferSize        int
	WriterCount          int
	ManifestSaveInterval time.Duration
}

// DefaultManifestSaveInterval is the 60s default from spec.md §6.
const DefaultManifestSaveInterval = 60 * time.Second

func (c Config) resolved() Config {
	out := c
	if out.ManifestSaveInterval <= 0 {
		out.ManifestSaveInterval = DefaultManifestSaveInterval
	}
	if out.WriterCount <= 0 {
		out.WriterCount = 1
	}
	return out
}

type augmentDataEvent struct {
	data  []byte
	reply chan error
}

type blockWrittenEvent struct {
	writerID int
	blockID  uint64
	err      error
}

type finalizeRequest struct {
	reply chan finalizeResult
}

type finalizeResult struct {
	manifest Manifest
	err      error
}

type cancelEvent struct{}

// pendingBlock is a sliced block waiting for a free writer.
type pendingBlock struct {
	id   uint64
	data []byte
}

// Upload is one chunked-upload coordinator instance: a running actor
// goroutine plus the channel used to send it events.
type Upload struct {
	bucket      []byte
	key         []byte
	objectUUID  []byte
	contentType string
	totalLength uint64
	cfg         Config

	engine *layout.Engine
	saver  Saver
	pool   *Pool

	augmentCh  chan augmentDataEvent
	blockCh    chan blockWrittenEvent
	finalizeCh chan finalizeRequest
	cancelCh   chan cancelEvent

	done chan struct{}
}

// Start acquires cfg.WriterCount writers from pool, allocates the
// manifest, and launches the FSM's actor goroutine. It corresponds to
// spec.md's `prepare` state: a one-shot init that always lands in
// not_full before any event is processed.
func Start(ctx context.Context, bucket, key []byte, contentType string, totalLength uint64, engine *layout.Engine, saver Saver, pool *Pool, cfg Config) (*Upload, error) {
	cfg = cfg.resolved()

	writers, err := pool.Acquire(ctx, cfg.WriterCount)
	if err != nil {
		return nil, fmt.Errorf("upload: acquiring writer pool: %w", err)
	}

	objectUUID := uuid.New()

	u := &Upload{
		bucket:      append([]byte(nil), bucket...),
		key:         append([]byte(nil), key...),
		objectUUID:  objectUUID[:],
		contentType: contentType,
		totalLength: totalLength,
		cfg:         cfg,
		engine:      engine,
		saver:       saver,
		pool:        pool,

		augmentCh:  make(chan augmentDataEvent),
		blockCh:    make(chan blockWrittenEvent, cfg.WriterCount),
		finalizeCh: make(chan finalizeRequest),
		cancelCh:   make(chan cancelEvent, 1),
		done:       make(chan struct{}),
	}

	manifest := Manifest{
		Bucket:      u.bucket,
		Key:         u.key,
		ContentType: contentType,
		TotalLength: totalLength,
	}

	fsm := &fsmLoop{
		u:             u,
		writers:       writersByID(writers),
		freeWriters:   orderedset.New(uint(cfg.WriterCount)),
		unackedWrites: orderedset.New(64),
		manifest:      manifest,
		state:         stateNotFull,
	}
	for _, w := range writers {
		fsm.freeWriters.Add(uint64(w.id))
	}

	go fsm.run(ctx)

	return u, nil
}

func writersByID(writers []*Writer) map[int]*Writer {
	m := make(map[int]*Writer, len(writers))
	for _, w := range writers {
		m[w.id] = w
	}
	return m
}

// AugmentData feeds new_bytes into the upload. It blocks until the chunk
// is accepted (immediately, or, when this chunk pushes the buffer over
// max_buffer_size, once acks drain it below the cap) or the upload
// fails/cancels. A call made while the upload is full, all_received or
// done is rejected with ErrUploadRejected.
func (u *Upload) AugmentData(ctx context.Context, newBytes []byte) error {
	reply := make(chan error, 1)
	select {
	case u.augmentCh <- augmentDataEvent{data: newBytes, reply: reply}:
	case <-u.done:
		return ErrUploadCancelled
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case err := <-reply:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Finalize waits for the upload to reach done, then returns its manifest.
// Per spec.md §4.7, it only ever blocks when called from all_received.
func (u *Upload) Finalize(ctx context.Context) (Manifest, error) {
	reply := make(chan finalizeResult, 1)
	select {
	case u.finalizeCh <- finalizeRequest{reply: reply}:
	case <-u.done:
		return Manifest{}, ErrUploadCancelled
	case <-ctx.Done():
		return Manifest{}, ctx.Err()
	}
	select {
	case r := <-reply:
		return r.manifest, r.err
	case <-ctx.Done():
		return Manifest{}, ctx.Err()
	}
}

// Cancel shuts the upload down: the manifest timer stops, buffered bytes
// are dropped, acquired writers return to the pool without waiting for
// outstanding I/O, and any deferred caller is woken with
// ErrUploadCancelled.
func (u *Upload) Cancel() {
	select {
	case u.cancelCh <- cancelEvent{}:
	default:
	}
	<-u.done
}

// fsmLoop holds the state the actor goroutine owns exclusively; nothing
// here is touched outside fsm.run.
type fsmLoop struct {
	u *Upload

	state state
	err   error

	writers     map[int]*Writer
	freeWriters *orderedset.Set

	accumulator       []byte
	bytesReceived     uint64
	currentBufferSize int

	pending       []pendingBlock
	unackedWrites *orderedset.Set
	blockSizes    map[uint64]int
	nextBlockID   uint64

	deferredAugment  chan error
	deferredFinalize chan finalizeResult

	manifest Manifest
}

func (f *fsmLoop) run(ctx context.Context) {
	u := f.u
	f.blockSizes = make(map[uint64]int)

	ticker := time.NewTicker(u.cfg.ManifestSaveInterval)
	defer ticker.Stop()
	defer close(u.done)

	for {
		select {
		case ev := <-u.augmentCh:
			f.handleAugmentData(ev)

		case ev := <-u.blockCh:
			finalizeResolved := f.handleBlockWritten(ctx, ev)
			if f.state == stateFailed || finalizeResolved {
				f.releaseWriters()
				return
			}

		case req := <-u.finalizeCh:
			if f.handleFinalize(req) {
				f.releaseWriters()
				return
			}

		case <-u.cancelCh:
			f.handleCancel()
			f.releaseWriters()
			return

		case <-ticker.C:
			f.handleManifestTick(ctx)

		case <-ctx.Done():
			f.handleCancel()
			f.releaseWriters()
			return
		}
	}
}

func (f *fsmLoop) releaseWriters() {
	writers := make([]*Writer, 0, len(f.writers))
	for _, w := range f.writers {
		writers = append(writers, w)
	}
	f.u.pool.Release(writers)
}

func (f *fsmLoop) handleAugmentData(ev augmentDataEvent) {
	if f.state != stateNotFull {
		ev.reply <- ErrUploadRejected
		return
	}

	newSize := len(ev.data)
	cls := classify(f.u.totalLength, f.bytesReceived, newSize, f.currentBufferSize, f.u.cfg.MaxBufferSize)

	f.accumulator = append(f.accumulator, ev.data...)
	f.bytesReceived += uint64(newSize)
	f.manifest.BytesReceived = f.bytesReceived

	full, remainder := slicer.Slice(f.accumulator, f.u.cfg.BlockSize, f.bytesReceived, f.u.totalLength)
	f.accumulator = remainder
	f.enqueueBlocks(full)
	f.tryDispatch()

	switch cls {
	case classLastChunk:
		f.state = stateAllReceived
		ev.reply <- nil
	case classAccept:
		f.state = stateNotFull
		ev.reply <- nil
	case classBackpressure:
		f.state = stateFull
		f.deferredAugment = ev.reply
	}
}

func (f *fsmLoop) enqueueBlocks(blocks [][]byte) {
	for _, b := range blocks {
		id := f.nextBlockID
		f.nextBlockID++
		f.pending = append(f.pending, pendingBlock{id: id, data: b})
		f.currentBufferSize += len(b)
		f.blockSizes[id] = len(b)
	}
}

func (f *fsmLoop) tryDispatch() {
	for len(f.pending) > 0 {
		writerID, ok := f.freeWriters.PopLowest()
		if !ok {
			return
		}
		blk := f.pending[0]
		f.pending = f.pending[1:]

		f.unackedWrites.Add(blk.id)
		w := f.writers[int(writerID)]
		w.jobs <- writeJob{
			bucket:    f.u.bucket,
			uuidBytes: f.u.objectUUID,
			blockID:   blk.id,
			data:      blk.data,
			result:    f.u.blockCh,
		}
	}
}

// handleBlockWritten applies one writer's ack. It reports whether this ack
// resolved an outstanding deferred finalize (i.e. a finalize event that was
// already received and parked in all_received, now completed because the
// upload reached done). The loop in run() stops on this, never on the bare
// fact that state is now done: an upload that reaches done with no
// finalize outstanding keeps running until Finalize is called.
func (f *fsmLoop) handleBlockWritten(ctx context.Context, ev blockWrittenEvent) bool {
	f.freeWriters.Add(uint64(ev.writerID))
	f.unackedWrites.Remove(ev.blockID)
	if size, ok := f.blockSizes[ev.blockID]; ok {
		f.currentBufferSize -= size
		delete(f.blockSizes, ev.blockID)
	}

	if ev.err != nil {
		f.fail(ev.err)
		return false
	}

	f.manifest.Blocks = append(f.manifest.Blocks, ev.blockID)
	sort.Slice(f.manifest.Blocks, func(i, j int) bool { return f.manifest.Blocks[i] < f.manifest.Blocks[j] })

	f.tryDispatch()

	switch f.state {
	case stateFull:
		// Only release backpressure once the buffer has actually drained
		// below the cap (spec.md §4.7.1, §8 invariant 9) — an ack that
		// frees less than it costs must leave the caller deferred.
		if f.currentBufferSize < f.u.cfg.MaxBufferSize {
			f.state = stateNotFull
			if f.deferredAugment != nil {
				reply := f.deferredAugment
				f.deferredAugment = nil
				reply <- nil
			}
		}

	case stateAllReceived:
		if f.unackedWrites.Empty() {
			f.state = stateDone
			if f.deferredFinalize != nil {
				reply := f.deferredFinalize
				f.deferredFinalize = nil
				reply <- finalizeResult{manifest: f.manifest.clone()}
				return true
			}
		}
	}
	return false
}

// handleFinalize reports whether this finalize event itself concludes the
// FSM: only true when the upload was already done before this request
// arrived, i.e. spec.md §4.7's "finalize in done: terminate" case. A
// finalize that arrives in all_received only parks a deferred reply;
// handleBlockWritten resolves and terminates it later once every block is
// acked.
func (f *fsmLoop) handleFinalize(req finalizeRequest) bool {
	switch f.state {
	case stateDone:
		req.reply <- finalizeResult{manifest: f.manifest.clone()}
		return true
	case stateAllReceived:
		f.deferredFinalize = req.reply
	case stateFailed:
		req.reply <- finalizeResult{err: f.err}
	default:
		req.reply <- finalizeResult{err: ErrFinalizeTooEarly}
	}
	return false
}

func (f *fsmLoop) handleManifestTick(ctx context.Context) {
	manifest := f.manifest.clone()
	saver := f.u.saver
	if saver == nil {
		return
	}
	go func() {
		if err := saver.SaveManifest(ctx, manifest); err != nil {
			fmt.Fprintf(os.Stderr, "upload: manifest save failed: %v\n", err)
		}
	}()
}

func (f *fsmLoop) handleCancel() {
	f.accumulator = nil
	f.pending = nil

	if f.deferredAugment != nil {
		f.deferredAugment <- ErrUploadCancelled
		f.deferredAugment = nil
	}
	if f.deferredFinalize != nil {
		f.deferredFinalize <- finalizeResult{err: ErrUploadCancelled}
		f.deferredFinalize = nil
	}
	f.state = stateFailed
	f.err = ErrUploadCancelled
}

func (f *fsmLoop) fail(err error) {
	f.state = stateFailed
	f.err = err
	f.pending = nil

	if f.deferredAugment != nil {
		f.deferredAugment <- err
		f.deferredAugment = nil
	}
	if f.deferredFinalize != nil {
		f.deferredFinalize <- finalizeResult{err: err}
		f.deferredFinalize = nil
	}
}
