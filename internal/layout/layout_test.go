package layout

import (
	"bytes"
	"os"
	"testing"

	"github.com/flashvolt/blockvault/internal/verrors"
)

func newTestEngine(t *testing.T, blockSize int, maxBlocks uint64) *Engine {
	t.Helper()
	dir := t.TempDir()
	return New(Config{
		DataRoot:  dir,
		Partition: "p0",
		BlockSize: blockSize,
		MaxBlocks: maxBlocks,
		BDepth:    2,
		KDepth:    2,
	})
}

func TestSequentialTwoBlocks(t *testing.T) {
	e := newTestEngine(t, 22, 64)
	bucket := []byte("#blocks:obj")
	uuidBytes := bytes.Repeat([]byte{0x01}, UUIDBytes)

	v0 := bytes.Repeat([]byte{0x2A}, 22)
	v1 := bytes.Repeat([]byte{0x2B}, 22)

	if err := e.PutBlock(bucket, uuidBytes, 0, v0, false); err != nil {
		t.Fatalf("put block 0: %v", err)
	}
	if err := e.PutBlock(bucket, uuidBytes, 1, v1, false); err != nil {
		t.Fatalf("put block 1: %v", err)
	}

	got0, err := e.ReadBlock(bucket, uuidBytes, 0)
	if err != nil || !bytes.Equal(got0, v0) {
		t.Fatalf("read block 0: %v %v", got0, err)
	}
	got1, err := e.ReadBlock(bucket, uuidBytes, 1)
	if err != nil || !bytes.Equal(got1, v1) {
		t.Fatalf("read block 1: %v %v", got1, err)
	}

	path, _, _ := e.blockFilePath(bucket, uuidBytes, 0)
	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if want := int64(2 * (HeaderSize + 22)); info.Size() != want {
		t.Fatalf("file size = %d, want %d", info.Size(), want)
	}

	chunks, err := e.EnumerateChunksInFile(bucket, uuidBytes, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(chunks) != 2 || chunks[0] != 0 || chunks[1] != 1 {
		t.Fatalf("chunks = %v", chunks)
	}
}

func TestOutOfOrderTwoBlocks(t *testing.T) {
	e := newTestEngine(t, 22, 64)
	bucket := []byte("#blocks:obj")
	uuidBytes := bytes.Repeat([]byte{0x02}, UUIDBytes)

	v0 := bytes.Repeat([]byte{0x2A}, 22)
	v1 := bytes.Repeat([]byte{0x2B}, 22)

	if err := e.PutBlock(bucket, uuidBytes, 1, v1, false); err != nil {
		t.Fatalf("put block 1: %v", err)
	}
	if err := e.PutBlock(bucket, uuidBytes, 0, v0, false); err != nil {
		t.Fatalf("put block 0: %v", err)
	}

	got0, err := e.ReadBlock(bucket, uuidBytes, 0)
	if err != nil || !bytes.Equal(got0, v0) {
		t.Fatalf("read block 0: %v %v", got0, err)
	}
	got1, err := e.ReadBlock(bucket, uuidBytes, 1)
	if err != nil || !bytes.Equal(got1, v1) {
		t.Fatalf("read block 1: %v %v", got1, err)
	}

	chunks, err := e.EnumerateChunksInFile(bucket, uuidBytes, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(chunks) != 2 || chunks[0] != 0 || chunks[1] != 1 {
		t.Fatalf("chunks = %v, want [0 1]", chunks)
	}
}

func TestOversizeRejection(t *testing.T) {
	e := newTestEngine(t, 10, 64)
	bucket := []byte("#blocks:obj")
	uuidBytes := make([]byte, UUIDBytes)

	err := e.PutBlock(bucket, uuidBytes, 0, bytes.Repeat([]byte{1}, 11), false)
	if err == nil {
		t.Fatal("expected oversize rejection")
	}

	path, _, _ := e.blockFilePath(bucket, uuidBytes, 0)
	if _, statErr := os.Stat(path); !os.IsNotExist(statErr) {
		t.Fatal("expected no file to have been created")
	}
}

func TestTombstoneHidesSiblingsAndIsIdempotent(t *testing.T) {
	e := newTestEngine(t, 8, 64)
	bucket := []byte("#blocks:obj")
	uuidBytes := bytes.Repeat([]byte{0x03}, UUIDBytes)

	if err := e.PutBlock(bucket, uuidBytes, 0, []byte("v0"), false); err != nil {
		t.Fatal(err)
	}
	if err := e.PutBlock(bucket, uuidBytes, 1, []byte("v1"), false); err != nil {
		t.Fatal(err)
	}

	if err := e.PutBlock(bucket, uuidBytes, 1, nil, true); err != nil {
		t.Fatalf("tombstone put: %v", err)
	}

	if _, err := e.ReadBlock(bucket, uuidBytes, 0); err != verrors.ErrNotFound {
		t.Fatalf("expected not found for sibling block 0, got %v", err)
	}
	if _, err := e.ReadBlock(bucket, uuidBytes, 1); err != verrors.ErrNotFound {
		t.Fatalf("expected not found for tombstoned block 1, got %v", err)
	}

	if err := e.PutBlock(bucket, uuidBytes, 0, []byte("v0-again"), false); err != nil {
		t.Fatalf("tombstoned put should be a no-op, not error: %v", err)
	}
	if _, err := e.ReadBlock(bucket, uuidBytes, 0); err != verrors.ErrNotFound {
		t.Fatal("tombstoned write should not have landed")
	}
}

func TestPlainRoundTrip(t *testing.T) {
	e := newTestEngine(t, 64, 8)
	bucket := []byte("plain-bucket")

	if err := e.Put(bucket, []byte("k1"), []byte("v1")); err != nil {
		t.Fatal(err)
	}
	got, err := e.Get(bucket, []byte("k1"))
	if err != nil || !bytes.Equal(got, []byte("v1")) {
		t.Fatalf("got %v, %v", got, err)
	}

	if err := e.Delete(bucket, []byte("k1")); err != nil {
		t.Fatal(err)
	}
	if _, err := e.Get(bucket, []byte("k1")); err != verrors.ErrNotFound {
		t.Fatalf("expected not found after delete, got %v", err)
	}
}
