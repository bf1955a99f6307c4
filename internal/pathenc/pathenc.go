// Package pathenc turns opaque bucket/key byte strings into filesystem-safe
// path components and nests them into a directory tree, the same way
// FlashLogGo's segmentmanager turns a numeric segment id into a filename
// via a fixed, reversible format (there: fmt.Sprintf("segment-%04d%s", ...);
// here: a base64-like alphabet over arbitrary bytes).
package pathenc

import "encoding/base64"

// encoding is URL-safe, unpadded base64: every character it can produce is
// a plain alnum, '-' or '_' — safe on every POSIX filesystem and never
// produces a leading '.', which is what keeps the reserved ".version.data"
// name from ever colliding with an encoded bucket.
var encoding = base64.RawURLEncoding

// VersionFileName is reserved: no bucket ever encodes to a string starting
// with '.', so this name can never collide with a real bucket directory.
const VersionFileName = ".version.data"

// Encode turns an opaque byte string into its filesystem-safe token.
func Encode(b []byte) string {
	return encoding.EncodeToString(b)
}

// Decode is the inverse of Encode.
func Decode(s string) ([]byte, error) {
	return encoding.DecodeString(s)
}

// Nest splits the first 2*depth characters of encoded into depth two-char
// directory components. When encoded is shorter than that, it is first
// chunked as-is (its last chunk may be a single character), and the
// resulting list is left-padded with literal "0" placeholder components
// until it has exactly depth entries — see DESIGN.md for why this, rather
// than padding the string itself, is what matches the spec's own nesting
// example for very short encoded strings.
func Nest(encoded string, depth int) []string {
	if depth <= 0 {
		return nil
	}

	prefixLen := len(encoded)
	if max := 2 * depth; prefixLen > max {
		prefixLen = max
	}
	prefix := encoded[:prefixLen]

	chunks := make([]string, 0, depth)
	for i := 0; i < len(prefix); i += 2 {
		end := i + 2
		if end > len(prefix) {
			end = len(prefix)
		}
		chunks = append(chunks, prefix[i:end])
	}

	if missing := depth - len(chunks); missing > 0 {
		padded := make([]string, 0, depth)
		for i := 0; i < missing; i++ {
			padded = append(padded, "0")
		}
		chunks = append(padded, chunks...)
	}

	return chunks
}
