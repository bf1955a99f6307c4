package upload

import "testing"

func TestClassify(t *testing.T) {
	cases := []struct {
		name                          string
		contentLength, bytesReceived  uint64
		newSize, currentBuffer        int
		maxBuffer                     int
		want                          chunkClass
	}{
		{"last chunk exact fit", 16, 12, 4, 0, 100, classLastChunk},
		{"accept under buffer cap", 100, 0, 10, 0, 20, classAccept},
		{"backpressure over buffer cap", 100, 0, 10, 15, 20, classBackpressure},
		{"last chunk wins over backpressure", 10, 0, 10, 100, 1, classLastChunk},
		{"accept at exact buffer cap", 100, 0, 10, 10, 20, classAccept},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got := classify(c.contentLength, c.bytesReceived, c.newSize, c.currentBuffer, c.maxBuffer)
			if got != c.want {
				t.Fatalf("got %v, want %v", got, c.want)
			}
		})
	}
}
