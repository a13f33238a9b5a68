// Copyright 2013 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ijha

import "testing"

func TestDeriveMasksNoOverlap(t *testing.T) {
	for _, layout := range []Layout{LayoutMSB, LayoutAdjacent} {
		for _, cap := range []uint32{1, 2, 3, 16, 1000, 1 << 20} {
			for _, uf := range []uint{0, 1, 4, 8} {
				m, status := deriveMasks(cap, uf, layout)
				if !status.Ok() {
					continue
				}
				fields := []uint32{m.indexMask, m.genMask, m.userMask, m.inUseBit}
				var seen uint32
				for _, f := range fields {
					if f&seen != 0 {
						t.Fatalf("layout %v cap %d uf %d: overlapping fields %08x vs seen %08x", layout, cap, uf, f, seen)
					}
					seen |= f
				}
				if layout == LayoutAdjacent && seen&(1<<31) != 0 {
					t.Fatalf("layout %v cap %d uf %d: bit 31 used, want untouched", layout, cap, uf)
				}
			}
		}
	}
}

func TestBitsNeeded(t *testing.T) {
	cases := []struct {
		capacity uint32
		want     uint
	}{
		{1, 1},
		{2, 1},
		{3, 2},
		{4, 2},
		{5, 3},
		{1024, 10},
		{1025, 11},
	}
	for _, c := range cases {
		if got := bitsNeeded(c.capacity); got != c.want {
			t.Errorf("bitsNeeded(%d) = %d, want %d", c.capacity, got, c.want)
		}
	}
}

func TestGenerationWrapAvoidsSentinels(t *testing.T) {
	m, status := deriveMasks(4, 0, LayoutMSB)
	if !status.Ok() {
		t.Fatalf("unexpected status %v", status)
	}
	gen := uint32(0)
	max := lowMask(m.genBits)
	for i := uint32(0); i < max+2; i++ {
		h := m.makeHandle(1, gen, 0, true)
		if h == 0 || h == 0xffffffff {
			t.Fatalf("generation %d produced sentinel handle %#x", gen, h)
		}
		gen = m.nextGeneration(gen)
	}
}

func TestEncodeDecodeUserFlagsRoundtrip(t *testing.T) {
	const capacity = 64
	const userFlagBits = 5
	for v := uint32(0); v < 1<<userFlagBits; v++ {
		encoded := EncodeUserFlags(LayoutMSB, capacity, userFlagBits, v)
		if got := DecodeUserFlags(LayoutMSB, capacity, userFlagBits, encoded); got != v {
			t.Fatalf("roundtrip value %d: got %d", v, got)
		}
	}
}
