// Package framing packs and unpacks a single block slot on disk as
// CRC32(4) || LEN32(4) || VALUE(LEN32 bytes), the same header-then-payload
// shape FlashLogGo's wal.go uses for its log records, minus the
// TOTAL_LEN/TYPE/KEY framing that the WAL needs and blocks don't.
package framing

import (
	"encoding/binary"
	"fmt"
	"hash/crc32"

	"github.com/flashvolt/blockvault/internal/verrors"
)

// HeaderSize is the width of the CRC32+LEN32 header in front of every
// packed value.
const HeaderSize = 8

// Pack encodes value into a self-describing, CRC-checked slot. The caller
// must ensure len(value) <= blockSize before calling; Pack itself only
// refuses a value that cannot be framed at all (len(value) > math.MaxUint32
// is the only such case and is not reachable with in-memory byte slices
// today, so Pack never errors).
func Pack(value []byte) []byte {
	lenBuf := make([]byte, 4)
	binary.BigEndian.PutUint32(lenBuf, uint32(len(value)))

	crc := crc32.NewIEEE()
	_, _ = crc.Write(lenBuf)
	_, _ = crc.Write(value)

	out := make([]byte, HeaderSize+len(value))
	binary.BigEndian.PutUint32(out[0:4], crc.Sum32())
	copy(out[4:8], lenBuf)
	copy(out[8:], value)
	return out
}

// Unpack recovers the value from a packed slot read from disk. b may be
// padded with trailing garbage (the caller reads a fixed-size slot that is
// usually larger than the payload it holds); Unpack only consumes the
// bytes its own header claims. Any malformed header, a claimed length
// larger than what remains, or a CRC mismatch returns ErrNotFound — never
// a partial value.
func Unpack(b []byte) ([]byte, error) {
	if len(b) < HeaderSize {
		return nil, verrors.ErrNotFound
	}

	wantCRC := binary.BigEndian.Uint32(b[0:4])
	valSize := binary.BigEndian.Uint32(b[4:8])

	remainder := b[4:]
	if uint64(valSize) > uint64(len(remainder)-4) {
		return nil, verrors.ErrNotFound
	}

	value := remainder[4 : 4+valSize]

	gotCRC := crc32.ChecksumIEEE(remainder[:4+valSize])
	if gotCRC != wantCRC {
		return nil, verrors.ErrNotFound
	}

	out := make([]byte, valSize)
	copy(out, value)
	return out, nil
}

// ErrValueTooLarge is a formatting helper for callers (layout, backend)
// that need to reject a put before doing any I/O.
func ErrValueTooLarge(got, max int) error {
	return fmt.Errorf("%w: value is %d bytes, max is %d", verrors.ErrInvalidArgument, got, max)
}
