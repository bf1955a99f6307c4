package backend

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/flashvolt/blockvault/internal/layout"
	"github.com/flashvolt/blockvault/internal/verrors"
)

func newTestBackend(t *testing.T) *Backend {
	t.Helper()
	dir := t.TempDir()
	b, err := Start("p0", Config{
		DataRoot:  dir,
		BlockSize: 16,
		MaxBlocks: 64,
		BDepth:    1,
		KDepth:    1,
	})
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	return b
}

func TestStartRequiresDataRoot(t *testing.T) {
	_, err := Start("p0", Config{BlockSize: 16})
	if !errors.Is(err, verrors.ErrConfig) {
		t.Fatalf("got %v, want ErrConfig", err)
	}
}

func TestStartWritesVersionFileOnce(t *testing.T) {
	dir := t.TempDir()
	cfg := Config{DataRoot: dir, BlockSize: 16, MaxBlocks: 64, BDepth: 1, KDepth: 1}

	b1, err := Start("p0", cfg)
	if err != nil {
		t.Fatalf("first Start: %v", err)
	}

	b2, err := Start("p0", cfg)
	if err != nil {
		t.Fatalf("second Start: %v", err)
	}

	if b1.Config().BackendID != "" || b2.Config().BackendID != "" {
		t.Fatalf("BackendID should only be set by caller, not round-tripped through resolved()")
	}

	path := versionFilePath(filepath.Join(dir, "p0"))
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("version file missing: %v", err)
	}
}

func TestStartRejectsGrowingBlockSize(t *testing.T) {
	dir := t.TempDir()
	if _, err := Start("p0", Config{DataRoot: dir, BlockSize: 32, MaxBlocks: 64, BDepth: 1, KDepth: 1}); err != nil {
		t.Fatalf("first Start: %v", err)
	}

	_, err := Start("p0", Config{DataRoot: dir, BlockSize: 64, MaxBlocks: 64, BDepth: 1, KDepth: 1})
	if !errors.Is(err, verrors.ErrConfig) {
		t.Fatalf("got %v, want ErrConfig for growing block_size", err)
	}
}

func TestStartRejectsDepthMismatch(t *testing.T) {
	dir := t.TempDir()
	if _, err := Start("p0", Config{DataRoot: dir, BlockSize: 16, MaxBlocks: 64, BDepth: 1, KDepth: 1}); err != nil {
		t.Fatalf("first Start: %v", err)
	}

	_, err := Start("p0", Config{DataRoot: dir, BlockSize: 16, MaxBlocks: 64, BDepth: 2, KDepth: 1})
	if !errors.Is(err, verrors.ErrConfig) {
		t.Fatalf("got %v, want ErrConfig for b_depth mismatch", err)
	}
}

func TestPlainPutGetDelete(t *testing.T) {
	b := newTestBackend(t)

	if err := b.Put([]byte("bucket"), []byte("key1"), []byte("hello")); err != nil {
		t.Fatalf("Put: %v", err)
	}

	got, err := b.Get([]byte("bucket"), []byte("key1"))
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !bytes.Equal(got, []byte("hello")) {
		t.Fatalf("got %q, want %q", got, "hello")
	}

	if err := b.Delete([]byte("bucket"), []byte("key1")); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := b.Get([]byte("bucket"), []byte("key1")); !errors.Is(err, verrors.ErrNotFound) {
		t.Fatalf("got %v, want ErrNotFound after delete", err)
	}
}

func TestBlockPutGetRejectsOversize(t *testing.T) {
	b := newTestBackend(t)

	bucket := append([]byte(nil), DefaultBlockBucketPrefix...)
	bucket = append(bucket, "obj"...)
	uuidBytes := bytes.Repeat([]byte{0x01}, layout.UUIDBytes)
	key := layout.EncodeBlockKey(uuidBytes, 0)

	err := b.Put(bucket, key, bytes.Repeat([]byte{'x'}, 17))
	if !errors.Is(err, verrors.ErrInvalidArgument) {
		t.Fatalf("got %v, want ErrInvalidArgument for oversize block", err)
	}

	if err := b.Put(bucket, key, []byte("0123456789ABCDEF")); err != nil {
		t.Fatalf("Put block: %v", err)
	}

	got, err := b.Get(bucket, key)
	if err != nil {
		t.Fatalf("Get block: %v", err)
	}
	if !bytes.Equal(got, []byte("0123456789ABCDEF")) {
		t.Fatalf("got %q", got)
	}
}

func TestTombstoneBlockHidesFromFold(t *testing.T) {
	b := newTestBackend(t)

	bucket := append([]byte(nil), DefaultBlockBucketPrefix...)
	bucket = append(bucket, "obj"...)
	uuidBytes := bytes.Repeat([]byte{0x02}, layout.UUIDBytes)
	key := layout.EncodeBlockKey(uuidBytes, 0)

	if err := b.Put(bucket, key, []byte("v")); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if err := b.TombstoneBlock(bucket, key); err != nil {
		t.Fatalf("TombstoneBlock: %v", err)
	}

	if _, err := b.Get(bucket, key); !errors.Is(err, verrors.ErrNotFound) {
		t.Fatalf("got %v, want ErrNotFound after tombstone", err)
	}

	n := 0
	if err := b.FoldObjects(func(bucket, key, value []byte) error {
		n++
		return nil
	}); err != nil {
		t.Fatal(err)
	}
	if n != 0 {
		t.Fatalf("expected tombstoned block to be hidden from fold, got %d objects", n)
	}
}

func TestIsEmpty(t *testing.T) {
	b := newTestBackend(t)

	empty, err := b.IsEmpty()
	if err != nil {
		t.Fatal(err)
	}
	if !empty {
		t.Fatal("expected fresh partition to be empty")
	}

	if err := b.Put([]byte("bucket"), []byte("k"), []byte("v")); err != nil {
		t.Fatal(err)
	}

	empty, err = b.IsEmpty()
	if err != nil {
		t.Fatal(err)
	}
	if empty {
		t.Fatal("expected partition with a key to be non-empty")
	}
}

func TestDropRemovesDataAndRestartsClean(t *testing.T) {
	b := newTestBackend(t)

	if err := b.Put([]byte("bucket"), []byte("k"), []byte("v")); err != nil {
		t.Fatal(err)
	}

	if err := b.Drop(); err != nil {
		t.Fatalf("Drop: %v", err)
	}

	empty, err := b.IsEmpty()
	if err != nil {
		t.Fatal(err)
	}
	if !empty {
		t.Fatal("expected partition to be empty after Drop")
	}

	if _, err := os.Stat(versionFilePath(b.partitionDir)); err != nil {
		t.Fatalf("version file missing after Drop: %v", err)
	}
}

func TestStartOptionsOverrideConfig(t *testing.T) {
	dir := t.TempDir()

	b, err := Start("p0", Config{DataRoot: dir, BlockSize: 16, MaxBlocks: 64, BDepth: 1, KDepth: 1},
		WithBlockBucketPrefix([]byte("#chunks:")))
	if err != nil {
		t.Fatalf("Start: %v", err)
	}

	if got := string(b.Config().BlockBucketPrefix); got != "#chunks:" {
		t.Fatalf("got block_bucket_prefix %q, want %q", got, "#chunks:")
	}
	if !b.isBlock([]byte("#chunks:obj")) {
		t.Fatal("expected overridden prefix to classify as a block bucket")
	}
}

func TestCapabilities(t *testing.T) {
	b := newTestBackend(t)
	caps := b.Capabilities()
	if !caps.AsyncFold || !caps.WriteOnceKeys || caps.PutPlusObject {
		t.Fatalf("unexpected capabilities: %+v", caps)
	}
}

func TestFoldBucketsAsyncDefersUntilCalled(t *testing.T) {
	b := newTestBackend(t)
	if err := b.Put([]byte("bucket"), []byte("k"), []byte("v")); err != nil {
		t.Fatal(err)
	}

	ran := false
	thunk := b.FoldBucketsAsync(func(bucket []byte) error {
		ran = true
		return nil
	})
	if ran {
		t.Fatal("FoldBucketsAsync must not run before the thunk is invoked")
	}
	if err := thunk(); err != nil {
		t.Fatal(err)
	}
	if !ran {
		t.Fatal("expected thunk invocation to run the fold")
	}
}
