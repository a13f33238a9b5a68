// Copyright 2013 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ijha

import (
	"math/bits"

	"github.com/cznic/mathutil"
)

// Layout selects where the in-use bit sits within a handle word.
type Layout uint8

const (
	// LayoutMSB places the in-use bit at bit 31. Index, generation and
	// userflag bits fill outward from bit 0, and never reach bit 31.
	LayoutMSB Layout = iota
	// LayoutAdjacent places the in-use bit immediately above the index
	// field, leaving bit 31 free for callers that pass handles through
	// code that treats them as a signed int32.
	LayoutAdjacent
)

// Flags selects the reuse policy and thread-safety mode of a Pool or
// ConcurrentPool. Exactly one of FlagFIFO or FlagLIFO must be set.
type Flags uint32

const (
	// FlagFIFO hands out the longest-free slot first.
	FlagFIFO Flags = 1 << iota
	// FlagLIFO hands out the most-recently-freed slot first.
	FlagLIFO
	// FlagThreadsafe selects the lock-free CAS acquire/release path.
	// Only valid together with FlagLIFO.
	FlagThreadsafe
)

// InvalidIndex is returned by Acquire, Release and the dense-pool and
// sparse-set equivalents to report "no such slot" or "operation did not
// apply".
const InvalidIndex uint32 = 0xffffffff

// maxPackedBits is the number of bits available for index, generation
// and userflags combined: bit 31 is always reserved, either as the
// in-use bit directly (LayoutMSB) or pushed out by the bit the
// in-use field occupies next to the index (LayoutAdjacent).
const maxPackedBits = 31

// layoutMasks holds the derived bit geometry for one (capacity,
// userFlagBits, Layout) combination: the index field occupies the low
// indexBits bits of the handle word, generation sits above it,
// userflags sit above generation, and the in-use bit lives either at
// bit 31 or directly above the index field.
type layoutMasks struct {
	indexBits    uint
	genBits      uint
	userFlagBits uint

	indexMask uint32
	genMask   uint32
	userMask  uint32
	inUseBit  uint32

	genShift  uint
	userShift uint
}

// bitsNeeded returns ceil(log2(capacity)), but at least 1, the number of
// bits used to index capacity distinct slots (0..capacity-1). mathutil's MaxUint32
// clamps the degenerate capacity-0 case; mathutil has no integer log2
// of its own, so the bit-length arithmetic itself comes straight from
// math/bits.
func bitsNeeded(capacity uint32) uint {
	capacity = mathutil.MaxUint32(capacity, 1)
	if capacity == 1 {
		return 1
	}
	return uint(bits.Len32(capacity - 1))
}

func deriveMasks(capacity uint32, userFlagBits uint, layout Layout) (layoutMasks, Status) {
	var m layoutMasks
	var status Status

	m.indexBits = bitsNeeded(capacity)
	m.userFlagBits = userFlagBits

	switch layout {
	case LayoutMSB:
		// bit 31 is the in-use bit; index, generation and userflags
		// share the remaining 31 bits.
		if m.indexBits+userFlagBits > maxPackedBits {
			return m, status | StatusConfigurationUnsupported
		}
		m.indexMask = lowMask(m.indexBits)
		m.genShift = m.indexBits
		m.genBits = maxPackedBits - m.indexBits - userFlagBits
		m.genMask = lowMask(m.genBits) << m.genShift
		m.userShift = m.indexBits + m.genBits
		m.userMask = lowMask(userFlagBits) << m.userShift
		m.inUseBit = 1 << 31
	case LayoutAdjacent:
		// the in-use bit sits directly above the index field and is
		// carved out of the same 31-bit budget as LayoutMSB's, so bit
		// 31 is left untouched either way.
		if m.indexBits+1+userFlagBits > maxPackedBits {
			return m, status | StatusConfigurationUnsupported
		}
		m.indexMask = lowMask(m.indexBits)
		m.inUseBit = 1 << m.indexBits
		m.genShift = m.indexBits + 1
		m.genBits = maxPackedBits - m.indexBits - 1 - userFlagBits
		m.genMask = lowMask(m.genBits) << m.genShift
		m.userShift = m.genShift + m.genBits
		m.userMask = lowMask(userFlagBits) << m.userShift
	default:
		return m, status | StatusConfigurationUnsupported
	}

	if m.genBits == 0 {
		return m, status | StatusConfigurationUnsupported
	}

	return m, status
}

func lowMask(n uint) uint32 {
	if n == 0 {
		return 0
	}
	if n >= 32 {
		return 0xffffffff
	}
	return (uint32(1) << n) - 1
}

// packIndex returns handle's index field.
func (m *layoutMasks) packIndex(h uint32) uint32 { return h & m.indexMask }

// withIndex overwrites h's index field with index, leaving every other
// field (generation, userflags, in-use bit) untouched. Used to rewrite
// a freelist link's "next" pointer in place.
func (m *layoutMasks) withIndex(h, index uint32) uint32 {
	return (h &^ m.indexMask) | (index & m.indexMask)
}

// generation returns handle's generation field, shifted down to bit 0.
func (m *layoutMasks) generation(h uint32) uint32 {
	return (h & m.genMask) >> m.genShift
}

// nextGeneration advances gen by one, wrapping at the field width. With
// two or more generation bits it also skips the all-ones value (wrapping
// straight from max-1 to 0), so a handle with every index and userflag
// bit set still never equals the sentinel 0xffffffff. A single
// generation bit simply alternates between 0 and 1.
func (m *layoutMasks) nextGeneration(gen uint32) uint32 {
	max := lowMask(m.genBits)
	gen++
	if gen > max || (m.genBits >= 2 && gen == max) {
		gen = 0
	}
	return gen
}

func (m *layoutMasks) withGeneration(h, gen uint32) uint32 {
	return (h &^ m.genMask) | ((gen << m.genShift) & m.genMask)
}

func (m *layoutMasks) userFlags(h uint32) uint32 {
	return (h & m.userMask) >> m.userShift
}

func (m *layoutMasks) withUserFlags(h, flags uint32) uint32 {
	return (h &^ m.userMask) | ((flags << m.userShift) & m.userMask)
}

func (m *layoutMasks) inUse(h uint32) bool { return h&m.inUseBit != 0 }

func (m *layoutMasks) withInUse(h uint32, inUse bool) uint32 {
	if inUse {
		return h | m.inUseBit
	}
	return h &^ m.inUseBit
}

func (m *layoutMasks) makeHandle(index, gen, userFlags uint32, inUse bool) uint32 {
	h := index & m.indexMask
	h = m.withGeneration(h, gen)
	h = m.withUserFlags(h, userFlags)
	return m.withInUse(h, inUse)
}

// EncodeUserFlags packs value into the userflag field a Pool configured
// with the given layout and userFlagBits would use, without requiring a
// live Pool. Bits of value beyond userFlagBits are discarded.
func EncodeUserFlags(layout Layout, capacity uint32, userFlagBits uint, value uint32) uint32 {
	m, _ := deriveMasks(capacity, userFlagBits, layout)
	return (value << m.userShift) & m.userMask
}

// DecodeUserFlags extracts the userflag field from handle, using the
// bit geometry a Pool configured with the given layout, capacity and
// userFlagBits would use.
func DecodeUserFlags(layout Layout, capacity uint32, userFlagBits uint, handle uint32) uint32 {
	m, _ := deriveMasks(capacity, userFlagBits, layout)
	return m.userFlags(handle)
}
