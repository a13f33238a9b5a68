// Copyright 2013 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ijha

import (
	"sync"
	"testing"

	"golang.org/x/sync/errgroup"
)

func newTestConcurrentPool(t *testing.T, capacity uint32) *ConcurrentPool {
	t.Helper()
	cfg := Config{
		Capacity:      capacity,
		UserFlagBits:  0,
		Layout:        LayoutMSB,
		Flags:         FlagLIFO | FlagThreadsafe,
		Stride:        4,
		HandleOffset:  0,
		PayloadOffset: 0,
		PayloadSize:   0,
	}
	n, status := MemorySizeNeeded(cfg)
	if !status.Ok() {
		t.Fatalf("MemorySizeNeeded: %v", status)
	}
	p, status := NewConcurrentPool(cfg, make([]byte, n))
	if !status.Ok() {
		t.Fatalf("NewConcurrentPool: %v", status)
	}
	return p
}

func TestConcurrentPoolSlotZeroNeverHandedOut(t *testing.T) {
	p := newTestConcurrentPool(t, 4)
	for i := 0; i < 3; i++ {
		index, h := p.Acquire(0)
		if index == 0 {
			t.Fatalf("Acquire returned reserved slot 0 (handle %#x)", h)
		}
	}
	if index, _ := p.Acquire(0); index != InvalidIndex {
		t.Fatalf("Acquire on exhausted pool (capacity-1 used) returned %d", index)
	}
}

func TestConcurrentPoolSingleThreadedSanity(t *testing.T) {
	p := newTestConcurrentPool(t, 64)
	var handles []uint32
	for {
		_, h := p.Acquire(0)
		if h == 0 {
			break
		}
		handles = append(handles, h)
	}
	if len(handles) != 63 {
		t.Fatalf("acquired %d handles, want 63 (capacity 64 minus reserved slot 0)", len(handles))
	}
	for _, h := range handles {
		if !p.Valid(h) {
			t.Fatalf("handle %#x invalid while live", h)
		}
	}
	for _, h := range handles {
		if p.Release(h) == InvalidIndex {
			t.Fatalf("Release(%#x) failed", h)
		}
	}
	if p.Size() != 0 {
		t.Fatalf("Size() = %d after draining, want 0", p.Size())
	}
}

// TestConcurrentPoolConcurrentChurn drives several goroutines each
// acquiring and releasing their own handles against a shared
// ConcurrentPool, then checks that no handle was ever handed out twice
// while live and that Size returns to 0.
func TestConcurrentPoolConcurrentChurn(t *testing.T) {
	const workers = 4
	const perWorker = 100000
	const capacity = 1024

	p := newTestConcurrentPool(t, capacity)

	var mu sync.Mutex
	live := map[uint32]bool{}

	var g errgroup.Group
	for w := 0; w < workers; w++ {
		g.Go(func() error {
			for i := 0; i < perWorker; i++ {
				index, h := p.Acquire(0)
				if index == InvalidIndex {
					continue
				}
				mu.Lock()
				if live[h] {
					mu.Unlock()
					t.Errorf("handle %#x acquired while already live", h)
					continue
				}
				live[h] = true
				mu.Unlock()

				if p.Release(h) == InvalidIndex {
					t.Errorf("Release(%#x) failed", h)
				}
				mu.Lock()
				delete(live, h)
				mu.Unlock()
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		t.Fatalf("errgroup: %v", err)
	}
	if p.Size() != 0 {
		t.Fatalf("Size() = %d after churn, want 0", p.Size())
	}
}

func TestConcurrentPoolDrain(t *testing.T) {
	p := newTestConcurrentPool(t, 256)
	var handles []uint32
	for {
		_, h := p.Acquire(0)
		if h == 0 {
			break
		}
		handles = append(handles, h)
	}
	if err := p.Drain(handles, 8); err != nil {
		t.Fatalf("Drain: %v", err)
	}
	if p.Size() != 0 {
		t.Fatalf("Size() = %d after Drain, want 0", p.Size())
	}
}
