package layout

import (
	"io"
	"os"

	"github.com/flashvolt/blockvault/internal/framing"
	"github.com/flashvolt/blockvault/internal/verrors"
)

// ReadBlock reads logical block n of uuid in bucket. Any I/O error, short
// read, or CRC mismatch is reported as verrors.ErrNotFound — never a
// partial value (spec.md §7).
func (e *Engine) ReadBlock(bucket, uuidBytes []byte, n uint64) ([]byte, error) {
	path, offset, _ := e.blockFilePath(bucket, uuidBytes, n)

	if tombstoned, err := isTombstoned(path); err == nil && tombstoned {
		return nil, verrors.ErrNotFound
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, verrors.ErrNotFound
	}
	defer f.Close()

	slot := make([]byte, HeaderSize+e.cfg.BlockSize)
	read, err := f.ReadAt(slot, offset)
	if err != nil && err != io.EOF {
		return nil, verrors.ErrNotFound
	}
	if read < HeaderSize {
		return nil, verrors.ErrNotFound
	}

	return framing.Unpack(slot[:read])
}

// PutBlock writes value at logical block n of uuid in bucket. If
// isTombstoneRequest is set, the write instead marks the whole file
// tombstoned and value/n are ignored beyond routing to the right file.
func (e *Engine) PutBlock(bucket, uuidBytes []byte, n uint64, value []byte, isTombstoneRequest bool) error {
	if len(value) > e.cfg.BlockSize {
		return framing.ErrValueTooLarge(len(value), e.cfg.BlockSize)
	}

	path, offset, _ := e.blockFilePath(bucket, uuidBytes, n)

	tombstoned, statErr := isTombstoned(path)
	if statErr != nil && statErr != os.ErrNotExist {
		return verrors.ErrIO
	}
	if tombstoned {
		return nil
	}

	if isTombstoneRequest {
		if err := markTombstoned(path); err != nil {
			return verrors.ErrIO
		}
		return nil
	}

	outOfOrder, size, err := e.isOutOfOrder(path, n)
	if err != nil {
		return verrors.ErrIO
	}
	_ = size

	if err := ensureParentDir(path); err != nil {
		return verrors.ErrIO
	}

	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o600)
	if err != nil {
		return verrors.ErrIO
	}
	defer f.Close()

	if _, err := f.WriteAt(framing.Pack(value), offset); err != nil {
		return verrors.ErrIO
	}

	if outOfOrder {
		if _, err := f.WriteAt(trailerRecord(false), e.trailerOffset()); err != nil {
			return verrors.ErrIO
		}
	}

	return nil
}

// DeleteBlock unlinks the whole physical file holding block n. Per
// spec.md §4.3 this invalidates every sibling block packed into the same
// file — callers are expected to delete the rest of the group soon after.
func (e *Engine) DeleteBlock(bucket, uuidBytes []byte, n uint64) error {
	path, _, _ := e.blockFilePath(bucket, uuidBytes, n)

	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return verrors.ErrIO
	}
	return nil
}

// isOutOfOrder implements the §4.3.1 classification: in-order iff the
// file doesn't exist and n is the first slot of a group, or the file
// exists and n is exactly one past the file's current highest block.
func (e *Engine) isOutOfOrder(path string, n uint64) (outOfOrder bool, size int64, err error) {
	info, statErr := os.Stat(path)
	if statErr != nil {
		if !os.IsNotExist(statErr) {
			return false, 0, statErr
		}
		return n%e.cfg.MaxBlocks != 0, 0, nil
	}

	size = info.Size()
	maxBlock := e.maxBlockFromSize(size)
	inOrder := int64(n%e.cfg.MaxBlocks) == maxBlock+1
	return !inOrder, size, nil
}
