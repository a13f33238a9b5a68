// Copyright 2013 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ijha

import "encoding/binary"

// Width selects the byte width of the index values a SparseSet stores
// in its dense and sparse arrays.
type Width uint8

const (
	Width8  Width = 1
	Width16 Width = 2
	Width32 Width = 4
)

// SparseSet is the dense<->sparse index mapping of DensePool, without
// the handle/generation/freelist bookkeeping Pool adds on top: it only
// tracks which sparse indices (0..capacity-1) are currently "in the
// set" and at which dense position. Composed with ResetIdentity, it
// doubles as a minimal LIFO allocator whose handles are plain indices:
// see AllocateLIFO.
type SparseSet struct {
	dense  []byte
	sparse []byte
	width  Width

	capacity uint32
	size     uint32
}

// NewSparseSet configures a SparseSet over dense and sparse, each of
// which must hold at least capacity values of the given Width.
func NewSparseSet(dense, sparse []byte, width Width, capacity uint32) (*SparseSet, Status) {
	switch width {
	case Width8, Width16, Width32:
	default:
		return nil, StatusInvalidInputFlags
	}
	need := capacity * uint32(width)
	if uint32(len(dense)) < need || uint32(len(sparse)) < need {
		return nil, StatusConfigurationUnsupported
	}
	return &SparseSet{dense: dense, sparse: sparse, width: width, capacity: capacity}, StatusOK
}

// Capacity returns the number of sparse indices the set can track.
func (s *SparseSet) Capacity() uint32 { return s.capacity }

// Size returns the number of sparse indices currently in the set.
func (s *SparseSet) Size() uint32 { return s.size }

func (s *SparseSet) load(buf []byte, i uint32) uint32 {
	off := i * uint32(s.width)
	switch s.width {
	case Width8:
		return uint32(buf[off])
	case Width16:
		return uint32(binary.LittleEndian.Uint16(buf[off : off+2]))
	default:
		return binary.LittleEndian.Uint32(buf[off : off+4])
	}
}

func (s *SparseSet) store(buf []byte, i, v uint32) {
	off := i * uint32(s.width)
	switch s.width {
	case Width8:
		buf[off] = byte(v)
	case Width16:
		binary.LittleEndian.PutUint16(buf[off:off+2], uint16(v))
	default:
		binary.LittleEndian.PutUint32(buf[off:off+4], v)
	}
}

// Reset empties the set without touching the dense/sparse arrays'
// identity mapping (use ResetIdentity if that's wanted too).
func (s *SparseSet) Reset() { s.size = 0 }

// ResetIdentity empties the set and rewrites both arrays so that
// dense[i] == sparse[i] == i for every i. This is the configuration
// AllocateLIFO requires.
func (s *SparseSet) ResetIdentity() {
	for i := uint32(0); i < s.capacity; i++ {
		s.store(s.dense, i, i)
		s.store(s.sparse, i, i)
	}
	s.size = 0
}

// Has reports whether sparseIndex is currently in the set.
func (s *SparseSet) Has(sparseIndex uint32) bool {
	if sparseIndex >= s.capacity {
		return false
	}
	d := s.load(s.sparse, sparseIndex)
	return d < s.size && s.load(s.dense, d) == sparseIndex
}

// Add inserts sparseIndex at the next free dense position and returns
// that position. Callers that need idempotence should check Has first;
// Add itself does not, matching the minimal primitive this type wraps.
func (s *SparseSet) Add(sparseIndex uint32) uint32 {
	d := s.size
	s.store(s.dense, d, sparseIndex)
	s.store(s.sparse, sparseIndex, d)
	s.size++
	return d
}

// Remove takes sparseIndex out of the set via swap-and-pop: the dense
// entry at the last live position is moved into the gap sparseIndex's
// dense position leaves behind, unless sparseIndex was already at the
// last position. ok is false if sparseIndex was not in the set.
func (s *SparseSet) Remove(sparseIndex uint32) (moveFrom, moveTo uint32, wasTail, ok bool) {
	if !s.Has(sparseIndex) {
		return InvalidIndex, InvalidIndex, false, false
	}

	d := s.load(s.sparse, sparseIndex)
	last := s.size - 1
	s.size--

	if d == last {
		return InvalidIndex, InvalidIndex, true, true
	}

	lastSparse := s.load(s.dense, last)
	s.store(s.dense, d, lastSparse)
	s.store(s.sparse, lastSparse, d)
	return last, d, false, true
}

// DenseIndex returns the dense position sparseIndex currently occupies.
// The result is meaningless if Has(sparseIndex) is false.
func (s *SparseSet) DenseIndex(sparseIndex uint32) uint32 { return s.load(s.sparse, sparseIndex) }

// SparseIndex returns the sparse index currently at dense position
// denseIndex. The result is meaningless if denseIndex >= Size().
func (s *SparseSet) SparseIndex(denseIndex uint32) uint32 { return s.load(s.dense, denseIndex) }

// AllocateLIFO composes ResetIdentity with Add to produce a minimal
// LIFO handle allocator: SparseIndex(Size()) names whichever sparse
// index currently sits at the next free dense position (its own
// identity, unless a previous Remove swapped something else into that
// position), and Add marks it used. Paired with Remove, this gives a
// caller a stream of stable uint32 IDs with no handle/generation
// packing at all, useful when validity checking isn't needed because
// the caller never holds an ID across a point where it might have been
// freed and reused.
func (s *SparseSet) AllocateLIFO() (sparseIndex uint32, ok bool) {
	if s.size >= s.capacity {
		return InvalidIndex, false
	}
	sparseIndex = s.SparseIndex(s.size)
	s.Add(sparseIndex)
	return sparseIndex, true
}
