package pathenc

import (
	"bytes"
	"testing"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	tests := [][]byte{
		{},
		[]byte("bucket"),
		{0, 1, 2, 3, 255, 254},
		bytes.Repeat([]byte("k"), 64),
	}

	for _, tt := range tests {
		got, err := Decode(Encode(tt))
		if err != nil {
			t.Fatalf("decode error: %v", err)
		}
		if !bytes.Equal(got, tt) {
			t.Fatalf("got %v, want %v", got, tt)
		}
	}
}

func TestEncodeNeverProducesLeadingDot(t *testing.T) {
	for i := 0; i < 256; i++ {
		s := Encode([]byte{byte(i)})
		if len(s) > 0 && s[0] == '.' {
			t.Fatalf("encode(%d) produced a leading dot: %q", i, s)
		}
	}
}

func TestNestPadding(t *testing.T) {
	got := Nest("a", 3)
	want := []string{"0", "0", "a"}
	if !equal(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}

	got = Nest("abcdefg", 3)
	want = []string{"ab", "cd", "ef"}
	if !equal(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestNestTotalFunction(t *testing.T) {
	for _, s := range []string{"", "a", "ab", "abcde", "abcdefghij"} {
		for depth := 0; depth <= 4; depth++ {
			got := Nest(s, depth)
			if len(got) != depth {
				t.Fatalf("Nest(%q, %d) returned %d components, want %d", s, depth, len(got), depth)
			}
		}
	}
}

func equal(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
