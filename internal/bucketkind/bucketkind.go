// Package bucketkind classifies a bucket name as plain or block, the one
// routing decision shared by the backend facade and the fold engine.
package bucketkind

import "bytes"

// IsBlock reports whether bucket is a block bucket: its name begins with
// the reserved prefix configured for the partition.
func IsBlock(prefix, bucket []byte) bool {
	return len(prefix) > 0 && bytes.HasPrefix(bucket, prefix)
}
