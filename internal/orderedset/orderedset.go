// Package orderedset is a small ordered set of non-negative integer ids,
// backed by a bitset instead of a map so "give me the lowest id" is a
// single scan instruction rather than a sort. It exists for the upload
// FSM's free_writers and unacked_writes sets (spec.md §4.7.2), which are
// always consulted for their minimum element.
package orderedset

import "github.com/bits-and-blooms/bitset"

// Set holds a set of ids in [0, capacity). It grows automatically past
// its initial capacity, same as the underlying bitset.
type Set struct {
	bits *bitset.BitSet
}

// New returns an empty Set sized for ids up to capacity without
// reallocating.
func New(capacity uint) *Set {
	return &Set{bits: bitset.New(capacity)}
}

// Add inserts id into the set. Adding an id already present is a no-op.
func (s *Set) Add(id uint64) {
	s.bits.Set(uint(id))
}

// Remove deletes id from the set, if present.
func (s *Set) Remove(id uint64) {
	s.bits.Clear(uint(id))
}

// Contains reports whether id is in the set.
func (s *Set) Contains(id uint64) bool {
	return s.bits.Test(uint(id))
}

// Empty reports whether the set holds no ids.
func (s *Set) Empty() bool {
	return s.bits.None()
}

// Len reports how many ids the set currently holds.
func (s *Set) Len() uint {
	return s.bits.Count()
}

// Lowest returns the smallest id in the set without removing it.
func (s *Set) Lowest() (uint64, bool) {
	id, ok := s.bits.NextSet(0)
	return uint64(id), ok
}

// PopLowest removes and returns the smallest id in the set.
func (s *Set) PopLowest() (uint64, bool) {
	id, ok := s.bits.NextSet(0)
	if !ok {
		return 0, false
	}
	s.bits.Clear(id)
	return uint64(id), true
}
