package layout

import (
	"bytes"
	"os"

	"github.com/natefinch/atomic"

	"github.com/flashvolt/blockvault/internal/verrors"
)

// Get reads a plain (non-block-bucket) key.
func (e *Engine) Get(bucket, key []byte) ([]byte, error) {
	path := e.keyPath(bucket, key)

	tombstoned, err := isTombstoned(path)
	if err != nil {
		if err == os.ErrNotExist {
			return nil, verrors.ErrNotFound
		}
		return nil, verrors.ErrIO
	}
	if tombstoned {
		return nil, verrors.ErrNotFound
	}

	value, err := os.ReadFile(path)
	if err != nil {
		return nil, verrors.ErrNotFound
	}
	return value, nil
}

// Put writes a plain key via a temp-file-then-atomic-rename, the same
// durability shape spec.md §4.3 describes (path.tmpwrite -> rename).
func (e *Engine) Put(bucket, key, value []byte) error {
	path := e.keyPath(bucket, key)

	if err := ensureParentDir(path); err != nil {
		return verrors.ErrIO
	}

	if err := atomic.WriteFile(path, bytes.NewReader(value)); err != nil {
		return verrors.ErrIO
	}
	return nil
}

// Delete removes a plain key.
func (e *Engine) Delete(bucket, key []byte) error {
	path := e.keyPath(bucket, key)

	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return verrors.ErrIO
	}
	return nil
}
