package orderedset

import "testing"

func TestPopLowestReturnsAscendingOrder(t *testing.T) {
	s := New(8)
	s.Add(5)
	s.Add(1)
	s.Add(3)

	var got []uint64
	for !s.Empty() {
		id, ok := s.PopLowest()
		if !ok {
			t.Fatal("PopLowest returned false while set reports non-empty")
		}
		got = append(got, id)
	}

	want := []uint64{1, 3, 5}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}

func TestAddRemoveContains(t *testing.T) {
	s := New(4)
	if s.Contains(2) {
		t.Fatal("fresh set should not contain 2")
	}
	s.Add(2)
	if !s.Contains(2) {
		t.Fatal("expected set to contain 2 after Add")
	}
	s.Remove(2)
	if s.Contains(2) {
		t.Fatal("expected set to not contain 2 after Remove")
	}
}

func TestLowestDoesNotRemove(t *testing.T) {
	s := New(4)
	s.Add(7)

	id, ok := s.Lowest()
	if !ok || id != 7 {
		t.Fatalf("got (%d, %v), want (7, true)", id, ok)
	}
	if !s.Contains(7) {
		t.Fatal("Lowest must not remove the element")
	}
}

func TestEmptyOnFreshSet(t *testing.T) {
	s := New(4)
	if !s.Empty() {
		t.Fatal("fresh set should be empty")
	}
}
