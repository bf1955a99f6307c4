// Package fold traverses a partition's directory tree with an explicit
// work stack instead of recursion, so memory use stays bounded no matter
// how many buckets/keys/objects a partition holds (spec.md §4.4, §9).
// It plays the same "read records lazily instead of loading everything"
// role FlashLogGo's wal.WALReader.Iter plays for its log file, generalized
// from a flat append-only stream to a nested directory tree.
package fold

import (
	"os"
	"path/filepath"
	"sort"

	"github.com/flashvolt/blockvault/internal/bucketkind"
	"github.com/flashvolt/blockvault/internal/layout"
	"github.com/flashvolt/blockvault/internal/pathenc"
)

// Driver runs the three public folds (buckets/keys/objects) over a single
// partition using the layout engine to resolve block groups and reads.
type Driver struct {
	engine            *layout.Engine
	blockBucketPrefix []byte
	bloom             *Bloom
}

// New returns a fold Driver bound to engine, classifying buckets whose
// name begins with blockBucketPrefix as block buckets.
func New(engine *layout.Engine, blockBucketPrefix []byte) *Driver {
	return &Driver{engine: engine, blockBucketPrefix: blockBucketPrefix}
}

type opKind int

const (
	opBucketIntermediate opKind = iota
	opBucketLeaf
	opKeyIntermediate
	opKeyFile
)

type op struct {
	kind   opKind
	dir    string
	level  int
	bucket []byte
}

type mode int

const (
	modeBuckets mode = iota
	modeKeys
	modeObjects
)

// EmitObject is the callback signature for FoldObjects; EmitKey and
// EmitBucket below drop the trailing arguments the other two folds don't
// need.
type EmitObject func(bucket, key, value []byte) error
type EmitKey func(bucket, key []byte) error
type EmitBucket func(bucket []byte) error

// FoldBuckets emits each distinct bucket exactly once, in the order the
// directory tree yields them, deduped defensively via a seen-set per
// spec.md §4.4.
func (d *Driver) FoldBuckets(emit EmitBucket) error {
	seen := make(map[string]bool)
	return d.run(modeBuckets, func(bucket, key, value []byte) error {
		k := string(bucket)
		if seen[k] {
			return nil
		}
		seen[k] = true
		d.recordBucket(bucket)
		return emit(bucket)
	})
}

// BucketMightExist consults the attached Bloom, if any, before a caller
// pays for a directory walk just to check whether a single bucket has
// ever been written. It always returns true when no Bloom is attached —
// callers must still treat this as a maybe, never a guarantee of
// presence.
func (d *Driver) BucketMightExist(bucket []byte) bool {
	if d.bloom == nil {
		return true
	}
	return d.bloom.MaybeContains(bucket)
}

// FoldBucketsAsync returns a thunk that performs FoldBuckets when called,
// instead of running it immediately (spec.md's async_fold capability).
func (d *Driver) FoldBucketsAsync(emit EmitBucket) func() error {
	return func() error { return d.FoldBuckets(emit) }
}

// FoldKeys emits every key under every bucket.
func (d *Driver) FoldKeys(emit EmitKey) error {
	return d.run(modeKeys, func(bucket, key, value []byte) error {
		return emit(bucket, key)
	})
}

// FoldKeysAsync is the thunk form of FoldKeys.
func (d *Driver) FoldKeysAsync(emit EmitKey) func() error {
	return func() error { return d.FoldKeys(emit) }
}

// FoldObjects emits every (bucket, key, value). A key whose value can't
// be read (missing, tombstoned, corrupt) is silently skipped — fold
// enumeration is documented as approximately correct, not transactional
// (spec.md §7).
func (d *Driver) FoldObjects(emit EmitObject) error {
	return d.run(modeObjects, emit)
}

// FoldObjectsAsync is the thunk form of FoldObjects.
func (d *Driver) FoldObjectsAsync(emit EmitObject) func() error {
	return func() error { return d.FoldObjects(emit) }
}

func (d *Driver) run(m mode, emit EmitObject) error {
	cfg := d.engine.Config()

	stack := []op{{kind: opBucketIntermediate, dir: d.engine.PartitionDir(), level: 0}}

	for len(stack) > 0 {
		n := len(stack) - 1
		current := stack[n]
		stack = stack[:n]

		switch current.kind {
		case opBucketIntermediate:
			children, err := sortedDirs(current.dir)
			if err != nil {
				continue
			}
			// Pushed in reverse so the LIFO stack pops them back out in
			// ascending order (spec.md §8, invariant 5).
			if current.level >= cfg.BDepth {
				for i := len(children) - 1; i >= 0; i-- {
					stack = append(stack, op{kind: opBucketLeaf, dir: filepath.Join(current.dir, children[i])})
				}
				continue
			}
			for i := len(children) - 1; i >= 0; i-- {
				stack = append(stack, op{
					kind:  opBucketIntermediate,
					dir:   filepath.Join(current.dir, children[i]),
					level: current.level + 1,
				})
			}

		case opBucketLeaf:
			encodedBucket := filepath.Base(current.dir)
			bucket, err := pathenc.Decode(encodedBucket)
			if err != nil {
				continue
			}

			if m == modeBuckets {
				if err := emit(bucket, nil, nil); err != nil {
					return err
				}
				continue
			}

			stack = append(stack, op{kind: opKeyIntermediate, dir: current.dir, level: 0, bucket: bucket})

		case opKeyIntermediate:
			if current.level >= cfg.KDepth {
				files, err := sortedFiles(current.dir)
				if err != nil {
					continue
				}
				for i := len(files) - 1; i >= 0; i-- {
					stack = append(stack, op{
						kind:   opKeyFile,
						dir:    filepath.Join(current.dir, files[i]),
						bucket: current.bucket,
					})
				}
				continue
			}
			children, err := sortedDirs(current.dir)
			if err != nil {
				continue
			}
			for i := len(children) - 1; i >= 0; i-- {
				stack = append(stack, op{
					kind:   opKeyIntermediate,
					dir:    filepath.Join(current.dir, children[i]),
					level:  current.level + 1,
					bucket: current.bucket,
				})
			}

		case opKeyFile:
			if err := d.visitKeyFile(current.bucket, current.dir, m, emit); err != nil {
				return err
			}
		}
	}

	return nil
}

// sortedDirs lists the directory entries at dir that should be descended
// into, skipping the reserved version file and anything that isn't a
// directory, and returns names in sorted order so a sequential fold
// yields results in a fixed order: sorted by the encoded path component
// names. The base64url alphabet is not in byte order, so this is not in
// general the sorted order of the raw (bucket, key) bytes.
func sortedDirs(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.Name() == pathenc.VersionFileName {
			continue
		}
		if !e.IsDir() {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)
	return names, nil
}

// sortedFiles is sortedDirs' counterpart for the final, file-holding
// level of either tree (key leaves, whether plain files or packed block
// group files).
func sortedFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)
	return names, nil
}

func (d *Driver) visitKeyFile(bucket []byte, path string, m mode, emit EmitObject) error {
	encodedKey := filepath.Base(path)
	rawKey, err := pathenc.Decode(encodedKey)
	if err != nil {
		return nil
	}

	if !bucketkind.IsBlock(d.blockBucketPrefix, bucket) {
		if m == modeKeys {
			return emit(bucket, rawKey, nil)
		}
		value, err := d.engine.Get(bucket, rawKey)
		if err != nil {
			return nil
		}
		return emit(bucket, rawKey, value)
	}

	uuidBytes, fileGroup, err := layout.DecodeGroupKey(rawKey)
	if err != nil {
		return nil
	}

	blocks, err := d.engine.EnumerateChunksInFile(bucket, uuidBytes, fileGroup)
	if err != nil {
		return nil
	}
	sort.Slice(blocks, func(i, j int) bool { return blocks[i] < blocks[j] })

	for _, n := range blocks {
		key := layout.EncodeBlockKey(uuidBytes, n)
		if m == modeKeys {
			if err := emit(bucket, key, nil); err != nil {
				return err
			}
			continue
		}
		value, err := d.engine.ReadBlock(bucket, uuidBytes, n)
		if err != nil {
			continue
		}
		if err := emit(bucket, key, value); err != nil {
			return err
		}
	}
	return nil
}
