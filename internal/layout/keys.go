package layout

import (
	"encoding/binary"
	"fmt"
)

// EncodeBlockKey builds the logical block key UUID || block_number used
// at the backend facade, per spec.md §3.
func EncodeBlockKey(uuidBytes []byte, blockNumber uint64) []byte {
	out := make([]byte, BlockKeyLen)
	copy(out, uuidBytes)
	binary.BigEndian.PutUint64(out[UUIDBytes:], blockNumber)
	return out
}

// ParseBlockKey splits a logical block key back into its UUID and block
// number halves. It returns an error if key is not exactly BlockKeyLen
// bytes.
func ParseBlockKey(key []byte) (uuidBytes []byte, blockNumber uint64, err error) {
	if len(key) != BlockKeyLen {
		return nil, 0, fmt.Errorf("layout: block key must be %d bytes, got %d", BlockKeyLen, len(key))
	}
	uuidBytes = append([]byte(nil), key[:UUIDBytes]...)
	blockNumber = binary.BigEndian.Uint64(key[UUIDBytes:])
	return uuidBytes, blockNumber, nil
}

// EncodeGroupKey builds the path key for the physical file holding a file
// group: UUID || file_group. Unlike the logical block key, this is never
// handed to a caller — it only ever becomes a directory leaf name.
func EncodeGroupKey(uuidBytes []byte, fileGroup uint64) []byte {
	out := make([]byte, BlockKeyLen)
	copy(out, uuidBytes)
	binary.BigEndian.PutUint64(out[UUIDBytes:], fileGroup)
	return out
}

// DecodeGroupKey is the inverse of EncodeGroupKey, used by the fold engine
// to recover (uuid, file_group) from a decoded directory leaf.
func DecodeGroupKey(raw []byte) (uuidBytes []byte, fileGroup uint64, err error) {
	return ParseBlockKey(raw)
}
