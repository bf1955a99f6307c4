package layout

import (
	"encoding/binary"

	"github.com/flashvolt/blockvault/internal/framing"
)

// trailerRecord packs {written_sequentially: bool} as a single byte,
// then frames it like any other block and appends a 4-byte big-endian
// size footer equal to the framed length, per spec.md §6.
func trailerRecord(writtenSequentially bool) []byte {
	payload := []byte{0}
	if writtenSequentially {
		payload[0] = 1
	}

	packed := framing.Pack(payload)

	out := make([]byte, len(packed)+4)
	copy(out, packed)
	binary.BigEndian.PutUint32(out[len(packed):], uint32(len(packed)))
	return out
}
