// Copyright 2013 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ijha

import "testing"

func newTestDensePool(t *testing.T, capacity uint32) *DensePool {
	t.Helper()
	cfg := Config{
		Capacity:     capacity,
		UserFlagBits: 0,
		Layout:       LayoutMSB,
		Flags:        FlagFIFO,
		Stride:       4,
	}
	n, status := MemorySizeNeeded(cfg)
	if !status.Ok() {
		t.Fatalf("MemorySizeNeeded: %v", status)
	}
	d, status := NewDensePool(cfg, make([]byte, n))
	if !status.Ok() {
		t.Fatalf("NewDensePool: %v", status)
	}
	return d
}

func TestNewDensePoolRejectsLIFO(t *testing.T) {
	cfg := Config{Capacity: 8, Layout: LayoutMSB, Flags: FlagLIFO, Stride: 4}
	n, _ := MemorySizeNeeded(Config{Capacity: 8, Layout: LayoutMSB, Flags: FlagFIFO, Stride: 4})
	if _, status := NewDensePool(cfg, make([]byte, n)); status.Ok() {
		t.Fatalf("NewDensePool accepted FlagLIFO, want rejection")
	}
}

func TestDensePoolAcquireAppendsToTail(t *testing.T) {
	d := newTestDensePool(t, 8)
	for i := uint32(0); i < 5; i++ {
		_, _, dense := d.Acquire(0)
		if dense != i {
			t.Fatalf("Acquire #%d returned dense index %d, want %d", i, dense, i)
		}
	}
}

// TestDensePoolReleaseSwapsTail models the caller-side swap-and-pop: a
// parallel "active objects" slice is kept in sync using the
// (moveFrom, moveTo) pair Release reports.
func TestDensePoolReleaseSwapsTail(t *testing.T) {
	const n = 6
	d := newTestDensePool(t, n+1) // +1: FIFO reserves one slot

	type object struct{ name string }
	active := make([]*object, 0, n)
	handles := make([]uint32, 0, n)
	names := []string{"a", "b", "c", "d", "e", "f"}

	for i := 0; i < n; i++ {
		_, h, dense := d.Acquire(0)
		if int(dense) != len(active) {
			t.Fatalf("dense index %d != active length %d", dense, len(active))
		}
		active = append(active, &object{name: names[i]})
		handles = append(handles, h)
	}

	// Release "b" (dense index 1); "f" (the tail, dense index 5) should
	// move into its place.
	moveFrom, moveTo, wasTail := d.Release(handles[1])
	if wasTail {
		t.Fatalf("Release(b) reported wasTail, want a swap")
	}
	if moveFrom != 5 || moveTo != 1 {
		t.Fatalf("Release(b) = (%d, %d), want (5, 1)", moveFrom, moveTo)
	}
	active[moveTo] = active[moveFrom]
	active = active[:moveFrom]

	if got := active[1].name; got != "f" {
		t.Fatalf("active[1] = %q after swap, want %q", got, "f")
	}
	if len(active) != n-1 {
		t.Fatalf("active len = %d, want %d", len(active), n-1)
	}

	// "f" moved into dense position 1, so the new tail is "e" (dense
	// position 4, handles[4]); releasing it directly should report no
	// swap.
	moveFrom, moveTo, wasTail = d.Release(handles[4])
	if !wasTail {
		t.Fatalf("Release of tail entry reported a swap (%d, %d)", moveFrom, moveTo)
	}
	active = active[:len(active)-1]

	if d.Size() != uint32(len(active)) {
		t.Fatalf("DensePool.Size() = %d, want %d", d.Size(), len(active))
	}
}

func TestDensePoolDenseIndexTracksSwaps(t *testing.T) {
	d := newTestDensePool(t, 4)
	_, h0, _ := d.Acquire(0)
	_, h1, _ := d.Acquire(0)
	_, h2, _ := d.Acquire(0)

	d.Release(h0) // h2 (tail) moves into dense position 0
	if got := d.DenseIndex(h2); got != 0 {
		t.Fatalf("DenseIndex(h2) = %d after swap, want 0", got)
	}
	if got := d.DenseIndex(h1); got != 1 {
		t.Fatalf("DenseIndex(h1) = %d, want 1 (unaffected)", got)
	}
}
