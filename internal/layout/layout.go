// Package layout maps a (bucket, UUID, block_number) triple to a physical
// file and byte offset, packs/unpacks the block there, and tracks the
// out-of-order trailer that lets a fold enumerate holes. It plays the role
// FlashLogGo's segmentmanager plays for its WAL segments — owning the
// on-disk file(s) for a stream of records — except blocks are addressed
// randomly (pwrite at a computed offset) instead of appended sequentially,
// so there is no "active file" to rotate: every (bucket, UUID, block
// number) maps to exactly one deterministic path and offset.
package layout

import (
	"os"
	"path/filepath"

	"github.com/flashvolt/blockvault/internal/framing"
	"github.com/flashvolt/blockvault/internal/pathenc"
)

// UUIDBytes is the width of the UUID half of a block key.
const UUIDBytes = 16

// BlockFieldBytes is the width of the big-endian block number half of a
// block key (BLOCK_FIELD_BITS/8 in spec terms).
const BlockFieldBytes = 8

// BlockKeyLen is the total width of a block key: UUID || block_number.
const BlockKeyLen = UUIDBytes + BlockFieldBytes

// HeaderSize is the packed-slot header width (re-exported from framing so
// callers of layout don't need to import framing just for the constant).
const HeaderSize = framing.HeaderSize

// Config parameterizes an Engine. BDepth/KDepth are the directory nesting
// depths from spec.md's path encoder; BlockSize/MaxBlocks size the
// physical slot grid.
type Config struct {
	DataRoot  string
	Partition string
	BlockSize int
	MaxBlocks uint64
	BDepth    int
	KDepth    int
}

// Engine is the file layout engine: it owns no long-lived file handles
// (§5 of spec.md), only the configuration needed to compute paths and
// offsets and open/pwrite/close on demand.
type Engine struct {
	cfg Config
}

// New returns a layout Engine for the given config. Callers are expected
// to have already created cfg.DataRoot/cfg.Partition (backend.Start's job).
func New(cfg Config) *Engine {
	return &Engine{cfg: cfg}
}

// Config returns the engine's configuration.
func (e *Engine) Config() Config {
	return e.cfg
}

func (e *Engine) slotWidth() int64 {
	return int64(HeaderSize + e.cfg.BlockSize)
}

func (e *Engine) trailerOffset() int64 {
	return int64(e.cfg.MaxBlocks) * e.slotWidth()
}

func (e *Engine) partitionDir() string {
	return filepath.Join(e.cfg.DataRoot, e.cfg.Partition)
}

// PartitionDir exposes the partition's root directory to the fold engine,
// which needs to start its directory-stack traversal somewhere.
func (e *Engine) PartitionDir() string {
	return e.partitionDir()
}

// KeyPath exposes the key-path builder: it turns a decoded (bucket, rawKey)
// pair back into the same path the engine itself would have written it at.
func (e *Engine) KeyPath(bucket, rawKey []byte) string {
	return e.keyPath(bucket, rawKey)
}

// bucketDir returns the nested directory holding the given bucket, and
// the bucket's own encoded directory name.
func (e *Engine) bucketDir(bucket []byte) (dir, encodedBucket string) {
	encodedBucket = pathenc.Encode(bucket)
	nest := pathenc.Nest(encodedBucket, e.cfg.BDepth)
	parts := append([]string{e.partitionDir()}, nest...)
	return filepath.Join(parts...), encodedBucket
}

// keyPath returns the full path for a (bucket, rawKey) pair, nesting the
// key under the bucket directory the same way the bucket itself is
// nested under the partition root.
func (e *Engine) keyPath(bucket, rawKey []byte) string {
	bucketDir, encodedBucket := e.bucketDir(bucket)
	encodedKey := pathenc.Encode(rawKey)
	nest := pathenc.Nest(encodedKey, e.cfg.KDepth)
	parts := append([]string{bucketDir, encodedBucket}, nest...)
	parts = append(parts, encodedKey)
	return filepath.Join(parts...)
}

// blockFilePath returns the path and in-file offset for logical block n of
// the given uuid, and the file_group (base block number) that path holds.
func (e *Engine) blockFilePath(bucket []byte, uuidBytes []byte, n uint64) (path string, offset int64, fileGroup uint64) {
	fileGroup = (n / e.cfg.MaxBlocks) * e.cfg.MaxBlocks
	groupKey := EncodeGroupKey(uuidBytes, fileGroup)
	path = e.keyPath(bucket, groupKey)
	offset = int64(n%e.cfg.MaxBlocks) * e.slotWidth()
	return path, offset, fileGroup
}

func ensureParentDir(path string) error {
	return os.MkdirAll(filepath.Dir(path), 0o755)
}

func floorDiv(a, b int64) int64 {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

// maxBlockFromSize returns the highest block index implied by a file of
// the given size, or -1 if the file is empty.
func (e *Engine) maxBlockFromSize(size int64) int64 {
	if size <= 0 {
		return -1
	}
	return floorDiv(size-1, e.slotWidth())
}
