// Copyright 2013 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ijha

import (
	"sync/atomic"

	"golang.org/x/sync/errgroup"
)

// ConcurrentPool is a lock-free LIFO handle allocator: Acquire and
// Release may be called concurrently from any number of goroutines
// without a lock, using a CAS loop over a tagged head word. Slot 0 is
// permanently reserved as the end-of-freelist marker and is never
// handed out, so a ConcurrentPool configured with capacity n has n-1
// usable slots.
type ConcurrentPool struct {
	cfg   Config
	masks layoutMasks
	table slotTable

	head atomic.Uint32 // low indexBits: top-of-stack index (0 = empty); remainder: ABA-guard serial
	size atomic.Uint32

	log Logger
}

// NewConcurrentPool configures a ConcurrentPool over mem, sized per
// MemorySizeNeeded(cfg). cfg.Flags must set FlagLIFO and FlagThreadsafe
// and must not set FlagFIFO.
func NewConcurrentPool(cfg Config, mem []byte) (*ConcurrentPool, Status) {
	status := cfg.validate()
	if cfg.Flags&FlagThreadsafe == 0 || cfg.Flags&FlagFIFO != 0 {
		status |= StatusThreadsafeUnsupported
	}
	if !status.Ok() {
		return nil, status
	}
	if uint32(len(mem)) < cfg.Capacity*cfg.Stride {
		return nil, status | StatusConfigurationUnsupported
	}

	masks, s := deriveMasks(cfg.Capacity, cfg.UserFlagBits, cfg.Layout)
	status |= s
	if !status.Ok() {
		return nil, status
	}

	p := &ConcurrentPool{
		cfg:   cfg,
		masks: masks,
		table: newSlotTable(mem, cfg.Capacity, cfg.Stride, cfg.HandleOffset, cfg.PayloadOffset, cfg.PayloadSize),
		log:   nopLogger{},
	}
	p.Reset()
	return p, StatusOK
}

// SetLogger installs l as the destination for CAS-retry diagnostics. A
// nil l restores the default no-op logger.
func (p *ConcurrentPool) SetLogger(l Logger) {
	if l == nil {
		l = nopLogger{}
	}
	p.log = l
}

const concurrentPoolNilIndex = 0

// Capacity returns the number of slots configured, including the
// permanently reserved sentinel slot 0.
func (p *ConcurrentPool) Capacity() uint32 { return p.cfg.Capacity }

// Size returns the number of currently acquired slots. It is updated
// with an atomic add after, and separately from, the head CAS: a
// concurrent caller observing Size should treat it as a snapshot, not a
// linearization point.
func (p *ConcurrentPool) Size() uint32 { return p.size.Load() }

// headTagBits is the number of bits reserved for the ABA-guard serial
// above the index field in the head word.
func (p *ConcurrentPool) headTagBits() uint { return 32 - p.masks.indexBits }

func (p *ConcurrentPool) packHead(serial, index uint32) uint32 {
	serialMask := lowMask(p.headTagBits())
	return ((serial & serialMask) << p.masks.indexBits) | (index & p.masks.indexMask)
}

func (p *ConcurrentPool) unpackHead(h uint32) (serial, index uint32) {
	return h >> p.masks.indexBits, h & p.masks.indexMask
}

// Reset discards every outstanding handle and rebuilds the freelist as
// a chain 1 -> 2 -> ... -> capacity-1 -> 0 (the reserved sentinel).
// Reset is not safe to call concurrently with Acquire/Release.
func (p *ConcurrentPool) Reset() {
	n := p.cfg.Capacity
	for i := uint32(1); i < n; i++ {
		next := i + 1
		if i == n-1 {
			next = concurrentPoolNilIndex
		}
		p.table.setWordAt(i, p.masks.packIndex(next))
	}
	if n > 1 {
		p.table.setWordAt(0, p.masks.packIndex(concurrentPoolNilIndex))
		p.head.Store(p.packHead(0, 1))
	} else {
		p.head.Store(p.packHead(0, concurrentPoolNilIndex))
	}
	p.size.Store(0)
}

// Acquire hands out the top-of-stack slot, stamping it with userFlags
// and its current generation. It returns (InvalidIndex, 0) if the pool
// is exhausted.
func (p *ConcurrentPool) Acquire(userFlags uint32) (index uint32, handle uint32) {
	for {
		old := p.head.Load()
		serial, idx := p.unpackHead(old)
		if idx == concurrentPoolNilIndex {
			return InvalidIndex, 0
		}

		free := p.table.wordAt(idx)
		next := p.masks.packIndex(free)
		newHead := p.packHead(serial+1, next)

		if p.head.CompareAndSwap(old, newHead) {
			gen := p.masks.generation(free)
			h := p.masks.makeHandle(idx, gen, userFlags, true)
			p.table.setWordAt(idx, h)
			p.size.Add(1)
			return idx, h
		}
		p.log.Printf("ijha: ConcurrentPool.Acquire CAS retry (head changed under us)")
	}
}

// Release returns handle's slot to the freelist. It returns the slot's
// index on success, or InvalidIndex if handle does not currently name
// a live slot.
func (p *ConcurrentPool) Release(handle uint32) uint32 {
	index := p.masks.packIndex(handle)
	if index >= p.cfg.Capacity || index == concurrentPoolNilIndex {
		return InvalidIndex
	}
	cur := p.table.wordAt(index)
	if cur != handle || !p.masks.inUse(handle) {
		return InvalidIndex
	}

	gen := p.masks.nextGeneration(p.masks.generation(handle))

	for {
		old := p.head.Load()
		serial, idx := p.unpackHead(old)

		word := p.masks.withGeneration(p.masks.packIndex(idx), gen)
		p.table.setWordAt(index, word)

		newHead := p.packHead(serial+1, index)
		if p.head.CompareAndSwap(old, newHead) {
			p.size.Add(^uint32(0)) // Add(-1)
			return index
		}
		p.log.Printf("ijha: ConcurrentPool.Release CAS retry (head changed under us)")
	}
}

// Valid reports whether handle currently names a live slot.
func (p *ConcurrentPool) Valid(handle uint32) bool {
	index := p.masks.packIndex(handle)
	if index >= p.cfg.Capacity || index == concurrentPoolNilIndex {
		return false
	}
	return p.table.wordAt(index) == handle && p.masks.inUse(handle)
}

// UserFlags returns the userflags field of handle.
func (p *ConcurrentPool) UserFlags(handle uint32) uint32 { return p.masks.userFlags(handle) }

// PayloadAt returns the payload region of the slot at index, or nil if
// the pool was configured without a payload region.
func (p *ConcurrentPool) PayloadAt(index uint32) []byte { return p.table.payloadAt(index) }

// Drain concurrently releases every handle in handles using n worker
// goroutines, returning the first error any worker's release reported.
// It exists as a convenience built on errgroup for callers tearing down
// a large number of outstanding handles at once; Release itself never
// needs a worker pool.
func (p *ConcurrentPool) Drain(handles []uint32, n int) error {
	if n <= 0 {
		n = 1
	}
	var g errgroup.Group
	chunk := (len(handles) + n - 1) / n
	if chunk == 0 {
		return nil
	}
	for start := 0; start < len(handles); start += chunk {
		end := start + chunk
		if end > len(handles) {
			end = len(handles)
		}
		batch := handles[start:end]
		g.Go(func() error {
			for _, h := range batch {
				if p.Release(h) == InvalidIndex {
					return &InvalidHandleError{Handle: h}
				}
			}
			return nil
		})
	}
	return g.Wait()
}
