package upload

import "context"

// Manifest is the coordinator's view of an object under construction. It
// is handed off to the external manifest collaborator on every tick and
// returned to the Finalize caller — the coordinator never persists it itself (spec.md §9:
// the manifest FSM is out of scope, treated as an external collaborator).
type Manifest struct {
	Bucket        []byte
	Key           []byte
	ContentType   string
	TotalLength   uint64
	BytesReceived uint64

	// Blocks holds the ids of every block acknowledged as durable so
	// far, in ascending order.
	Blocks []uint64
}

func (m Manifest) clone() Manifest {
	out := m
	out.Blocks = append([]uint64(nil), m.Blocks...)
	return out
}

// Saver persists a Manifest through the cluster-wide manifest collaborator.
// The coordinator only calls this from its periodic tick; a failure here
// never fails the upload (spec.md §4.7.3).
type Saver interface {
	SaveManifest(ctx context.Context, m Manifest) error
}
