package upload

// chunkClass is the classification of an incoming augment_data chunk per
// spec.md §4.7.1.
type chunkClass int

const (
	classAccept chunkClass = iota
	classLastChunk
	classBackpressure
)

// classify decides how augment_data's new_bytes should be handled, given
// the upload's content_length/bytes_received (before this chunk is
// applied) and the buffer occupancy. bytesReceived and newSize must both
// be measured before the chunk is appended to the accumulator.
func classify(contentLength, bytesReceived uint64, newSize, currentBuffer, maxBuffer int) chunkClass {
	if bytesReceived+uint64(newSize) == contentLength {
		return classLastChunk
	}
	if currentBuffer+newSize > maxBuffer {
		return classBackpressure
	}
	return classAccept
}
