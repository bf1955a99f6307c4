// Package verrors holds the error kinds shared across the storage core,
// the way FlashLogGo keeps its sentinel errors (ErrCorruptWAL, ErrWALClosed)
// beside the code that raises them, except here multiple packages need to
// test against the same kinds so they're collected in one place.
package verrors

import "errors"

var (
	// ErrNotFound covers a missing file, a tombstoned file, a short pread,
	// a CRC mismatch, or any I/O error encountered while reading a block.
	// It is never fatal.
	ErrNotFound = errors.New("blockvault: not found")

	// ErrInvalidArgument is returned before any I/O when a put value is
	// larger than the configured block size.
	ErrInvalidArgument = errors.New("blockvault: invalid user argument")

	// ErrConfig is fatal to Start: a missing required config key, or a
	// version file that doesn't match the configured block size / depth.
	ErrConfig = errors.New("blockvault: config error")

	// ErrIO surfaces an unexpected open/pwrite failure not covered by
	// ErrNotFound; the FSM treats it as a writer failure.
	ErrIO = errors.New("blockvault: io error")

	// ErrCancelled is delivered to any deferred caller when an upload is
	// shut down mid-flight.
	ErrCancelled = errors.New("blockvault: upload cancelled")
)
