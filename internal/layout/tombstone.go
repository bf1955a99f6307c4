package layout

import (
	"os"

	"golang.org/x/sys/unix"
)

// isTombstoned reports whether the file at path carries the setgid mode
// bit, the deliberately-reused-unused-bit tombstone marker from spec.md
// §3/§6. A missing file is not tombstoned — it's just absent.
func isTombstoned(path string) (bool, error) {
	var st unix.Stat_t
	if err := unix.Stat(path, &st); err != nil {
		if os.IsNotExist(err) {
			return false, os.ErrNotExist
		}
		return false, err
	}
	return st.Mode&unix.S_ISGID != 0, nil
}

// markTombstoned sets the setgid bit on path, creating an empty 0600 file
// first if it doesn't already exist.
func markTombstoned(path string) error {
	if err := ensureParentDir(path); err != nil {
		return err
	}

	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o600)
	if err != nil {
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}

	info, err := os.Stat(path)
	if err != nil {
		return err
	}

	return os.Chmod(path, info.Mode()|os.ModeSetgid)
}
