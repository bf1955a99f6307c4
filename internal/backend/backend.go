// Package backend is the facade that routes get/put/delete/fold calls to
// the block path or the plain path, starts a partition, and validates its
// version file — the role FlashLogGo's segmentmanager.NewDiskSegmentManager
// plays for a single WAL directory, generalized to a whole partition tree
// with two addressing schemes instead of one.
package backend

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/flashvolt/blockvault/internal/bucketkind"
	"github.com/flashvolt/blockvault/internal/fold"
	"github.com/flashvolt/blockvault/internal/layout"
	"github.com/flashvolt/blockvault/internal/verrors"
)

// Capabilities is the {async_fold, write_once_keys, put_plus_object}
// triple advertised per spec.md §6.
type Capabilities struct {
	AsyncFold     bool
	WriteOnceKeys bool
	PutPlusObject bool
}

// Backend is a started partition: the layout engine, fold driver, and
// resolved config bound together.
type Backend struct {
	cfg               Config
	partition         string
	partitionDir      string
	engine            *layout.Engine
	fold              *fold.Driver
	blockBucketPrefix []byte
}

// Start resolves cfg, creates or validates the partition directory and
// version file, and probes for a case-insensitive filesystem — refusing
// to come up on one, per the design note in spec.md §9. Any opts are
// applied to cfg before resolution, overriding whatever the caller set
// explicitly.
func Start(partition string, cfg Config, opts ...Option) (*Backend, error) {
	for _, opt := range opts {
		opt(&cfg)
	}

	resolved, err := cfg.resolved()
	if err != nil {
		return nil, err
	}

	partitionDir := filepath.Join(resolved.DataRoot, partition)
	if err := os.MkdirAll(partitionDir, 0o755); err != nil {
		return nil, fmt.Errorf("%w: creating partition dir: %v", verrors.ErrConfig, err)
	}

	if err := probeCaseSensitivity(partitionDir); err != nil {
		return nil, err
	}

	if err := loadOrCreateVersionFile(partitionDir, resolved); err != nil {
		return nil, err
	}

	engine := layout.New(layout.Config{
		DataRoot:  resolved.DataRoot,
		Partition: partition,
		BlockSize: resolved.BlockSize,
		MaxBlocks: resolved.MaxBlocks,
		BDepth:    resolved.BDepth,
		KDepth:    resolved.KDepth,
	})

	return &Backend{
		cfg:               resolved,
		partition:         partition,
		partitionDir:      partitionDir,
		engine:            engine,
		fold:              fold.New(engine, resolved.BlockBucketPrefix),
		blockBucketPrefix: resolved.BlockBucketPrefix,
	}, nil
}

// probeCaseSensitivity creates a zero-length upper-case probe file under
// dir, then stats the same name in lower case and refuses to proceed if it
// is found, i.e. if the filesystem folds the two names together.
func probeCaseSensitivity(dir string) error {
	upper := filepath.Join(dir, ".CASEPROBE")
	lower := filepath.Join(dir, ".caseprobe")

	if err := os.WriteFile(upper, nil, 0o600); err != nil {
		return fmt.Errorf("%w: case-sensitivity probe: %v", verrors.ErrConfig, err)
	}
	defer os.Remove(upper)

	if _, err := os.Stat(lower); err == nil {
		return fmt.Errorf("%w: data_root is on a case-insensitive filesystem", verrors.ErrConfig)
	}

	return nil
}

func (b *Backend) isBlock(bucket []byte) bool {
	return bucketkind.IsBlock(b.blockBucketPrefix, bucket)
}

// Get routes to a block read or a plain read depending on the bucket.
func (b *Backend) Get(bucket, key []byte) ([]byte, error) {
	if b.isBlock(bucket) {
		uuidBytes, n, err := layout.ParseBlockKey(key)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", verrors.ErrInvalidArgument, err)
		}
		return b.engine.ReadBlock(bucket, uuidBytes, n)
	}
	return b.engine.Get(bucket, key)
}

// Put routes to a block write or a plain write. A block put whose value
// exceeds the configured block size fails before any I/O (spec.md §4.5).
func (b *Backend) Put(bucket, key, value []byte) error {
	if b.isBlock(bucket) {
		uuidBytes, n, err := layout.ParseBlockKey(key)
		if err != nil {
			return fmt.Errorf("%w: %v", verrors.ErrInvalidArgument, err)
		}
		if len(value) > b.cfg.BlockSize {
			return fmt.Errorf("%w: value is %d bytes, max is %d", verrors.ErrInvalidArgument, len(value), b.cfg.BlockSize)
		}
		return b.engine.PutBlock(bucket, uuidBytes, n, value, false)
	}
	return b.engine.Put(bucket, key, value)
}

// Delete routes to a whole-file-group unlink for block keys, or a plain
// delete.
func (b *Backend) Delete(bucket, key []byte) error {
	if b.isBlock(bucket) {
		uuidBytes, n, err := layout.ParseBlockKey(key)
		if err != nil {
			return fmt.Errorf("%w: %v", verrors.ErrInvalidArgument, err)
		}
		return b.engine.DeleteBlock(bucket, uuidBytes, n)
	}
	return b.engine.Delete(bucket, key)
}

// TombstoneBlock marks the file group holding key as tombstoned without
// unlinking it, per spec.md §4.3's is_tombstone_request path.
func (b *Backend) TombstoneBlock(bucket, key []byte) error {
	uuidBytes, n, err := layout.ParseBlockKey(key)
	if err != nil {
		return fmt.Errorf("%w: %v", verrors.ErrInvalidArgument, err)
	}
	return b.engine.PutBlock(bucket, uuidBytes, n, nil, true)
}

// FoldBuckets/FoldKeys/FoldObjects pass through to the fold driver,
// running synchronously. The *Async variants return a thunk instead,
// satisfying the async_fold capability.

func (b *Backend) FoldBuckets(emit fold.EmitBucket) error { return b.fold.FoldBuckets(emit) }
func (b *Backend) FoldKeys(emit fold.EmitKey) error        { return b.fold.FoldKeys(emit) }
func (b *Backend) FoldObjects(emit fold.EmitObject) error  { return b.fold.FoldObjects(emit) }

func (b *Backend) FoldBucketsAsync(emit fold.EmitBucket) func() error {
	return b.fold.FoldBucketsAsync(emit)
}
func (b *Backend) FoldKeysAsync(emit fold.EmitKey) func() error { return b.fold.FoldKeysAsync(emit) }
func (b *Backend) FoldObjectsAsync(emit fold.EmitObject) func() error {
	return b.fold.FoldObjectsAsync(emit)
}

var errStopFold = errors.New("backend: stop fold")

// IsEmpty reports whether the partition holds no buckets at all.
func (b *Backend) IsEmpty() (bool, error) {
	found := false
	err := b.fold.FoldBuckets(func(bucket []byte) error {
		found = true
		return errStopFold
	})
	if err != nil && !errors.Is(err, errStopFold) {
		return false, err
	}
	return !found, nil
}

// Drop recursively removes the partition directory then recreates it,
// rewriting the version file so the backend remains usable afterward.
func (b *Backend) Drop() error {
	if err := os.RemoveAll(b.partitionDir); err != nil {
		return fmt.Errorf("%w: %v", verrors.ErrIO, err)
	}
	if err := os.MkdirAll(b.partitionDir, 0o755); err != nil {
		return fmt.Errorf("%w: %v", verrors.ErrIO, err)
	}
	return loadOrCreateVersionFile(b.partitionDir, b.cfg)
}

// Capabilities reports the fixed {async_fold, write_once_keys,
// put_plus_object} triple this core advertises (spec.md §6).
func (b *Backend) Capabilities() Capabilities {
	return Capabilities{AsyncFold: true, WriteOnceKeys: true, PutPlusObject: false}
}

// Config returns the backend's resolved configuration.
func (b *Backend) Config() Config { return b.cfg }

// Engine exposes the underlying layout engine for callers (notably the
// upload FSM's writers) that need direct block access without going
// through bucket/key-length dispatch on every call.
func (b *Backend) Engine() *layout.Engine { return b.engine }
