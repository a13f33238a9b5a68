// Copyright 2013 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ijha

// Config describes how a Pool, ConcurrentPool or DensePool packs
// handles into, and addresses payloads within, caller-supplied memory.
type Config struct {
	// Capacity is the number of slots the pool manages.
	Capacity uint32
	// UserFlagBits is the width, in bits, of the caller-defined
	// userflags field carried in every handle.
	UserFlagBits uint
	// Layout selects where the in-use bit sits in the handle word.
	Layout Layout
	// Flags selects FIFO or LIFO reuse, and optionally FlagThreadsafe
	// (ConcurrentPool only; FlagThreadsafe|FlagFIFO is rejected).
	Flags Flags
	// Stride is the byte size of one slot, handle word and payload
	// together.
	Stride uint32
	// HandleOffset is the byte offset of the 4-byte handle word within
	// a slot.
	HandleOffset uint32
	// PayloadOffset is the byte offset of the payload within a slot.
	// Ignored if PayloadSize is 0.
	PayloadOffset uint32
	// PayloadSize is the byte size of the payload carried in a slot, or
	// 0 if the pool carries no payload (the caller stores payloads
	// elsewhere, indexed by handle index).
	PayloadSize uint32
}

// MemorySizeNeeded returns the number of bytes a Pool or ConcurrentPool
// configured with cfg requires, or (0, status) if cfg is not usable.
func MemorySizeNeeded(cfg Config) (uint32, Status) {
	status := cfg.validate()
	if !status.Ok() {
		return 0, status
	}
	return cfg.Capacity * cfg.Stride, StatusOK
}

// Err reports the configuration problems NewPool checks cfg for,
// wrapped as a ConfigError, or nil if there are none. NewConcurrentPool
// and NewDensePool additionally reject configurations Err accepts (no
// FlagThreadsafe, no FlagFIFO respectively), and Err does not check a
// memory size. It exists for callers that prefer Go's ordinary error
// convention over inspecting a Status bitset directly.
func (cfg Config) Err() error {
	status := cfg.validate()
	if status.Ok() {
		return nil
	}
	return &ConfigError{Status: status, Detail: "Config"}
}

func (cfg Config) validate() Status {
	var status Status

	switch cfg.Flags & (FlagFIFO | FlagLIFO) {
	case FlagFIFO, FlagLIFO:
		// exactly one set, good
	default:
		status |= StatusInvalidInputFlags
	}
	if cfg.Flags&FlagThreadsafe != 0 && cfg.Flags&FlagFIFO != 0 {
		status |= StatusThreadsafeUnsupported
	}
	if cfg.Stride < 4 {
		status |= StatusHandleNonInlineSizeTooBig
	}
	if cfg.HandleOffset+4 > cfg.Stride {
		status |= StatusHandleOffsetTooBig
	}
	if cfg.PayloadSize > 0 && cfg.PayloadOffset+cfg.PayloadSize > cfg.Stride {
		status |= StatusUserdataTooBig
	}
	_, s := deriveMasks(cfg.Capacity, cfg.UserFlagBits, cfg.Layout)
	status |= s
	return status
}

// reclaimer implements the slot-reuse policy difference between FIFO
// and LIFO: where a freed slot rejoins the freelist. Acquire is
// identical for both policies (always pop the head), so only release
// needs a policy split. handle is the slot's handle immediately before
// release - still carrying its current generation and userflags, which
// the reclaimer preserves unchanged into the freelist link; only the
// next Acquire of that slot advances the generation.
type reclaimer interface {
	release(p *Pool, index, handle uint32)
}

type fifoReclaimer struct{}

func (fifoReclaimer) release(p *Pool, index, handle uint32) {
	p.table.setWordAt(index, p.masks.withInUse(handle, false))
	switch {
	case p.size == p.effectiveCapacity:
		// every usable slot was acquired, so the freelist is empty and
		// index becomes its only entry.
		p.dequeueHead = index
	case p.enqueueTail == p.cfg.Capacity-1:
		// nothing released since Reset: the freelist is what is left of
		// the initial chain, whose last slot is effectiveCapacity-1.
		last := p.effectiveCapacity - 1
		p.table.setWordAt(last, p.masks.withIndex(p.table.wordAt(last), index))
	default:
		tailWord := p.table.wordAt(p.enqueueTail)
		p.table.setWordAt(p.enqueueTail, p.masks.withIndex(tailWord, index))
	}
	p.enqueueTail = index
}

type lifoReclaimer struct{}

func (lifoReclaimer) release(p *Pool, index, handle uint32) {
	freed := p.masks.withInUse(handle, false)
	p.table.setWordAt(index, p.masks.withIndex(freed, p.dequeueHead))
	p.dequeueHead = index
}

// Pool is a single-threaded handle allocator: it hands out 32-bit
// handles packing an index, a generation counter and caller userflags,
// reusing freed slots either in FIFO or LIFO order.
type Pool struct {
	cfg     Config
	masks   layoutMasks
	table   slotTable
	reclaim reclaimer

	// effectiveCapacity is the usable capacity: cfg.Capacity for LIFO,
	// cfg.Capacity-1 for FIFO. FIFO never hands out slot cfg.Capacity-1;
	// Reset parks enqueueTail on it to mark a freelist that nothing has
	// been released into yet (see fifoReclaimer.release).
	effectiveCapacity uint32

	size        uint32
	dequeueHead uint32
	enqueueTail uint32
}

// NewPool configures a Pool over mem, which must be at least as large
// as MemorySizeNeeded(cfg). Reset writes every slot's handle word before
// first use; payload bytes are left as they are.
func NewPool(cfg Config, mem []byte) (*Pool, Status) {
	status := cfg.validate()
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

	p := &Pool{
		cfg:               cfg,
		masks:             masks,
		table:             newSlotTable(mem, cfg.Capacity, cfg.Stride, cfg.HandleOffset, cfg.PayloadOffset, cfg.PayloadSize),
		effectiveCapacity: cfg.Capacity,
	}
	if cfg.Flags&FlagFIFO != 0 {
		p.reclaim = fifoReclaimer{}
		p.effectiveCapacity = cfg.Capacity - 1
	} else {
		p.reclaim = lifoReclaimer{}
	}
	p.Reset()
	return p, StatusOK
}

// Capacity returns the number of slots a caller can hold acquired at
// once: cfg.Capacity for LIFO, cfg.Capacity-1 for FIFO (slot
// cfg.Capacity-1 is never handed out).
func (p *Pool) Capacity() uint32 { return p.effectiveCapacity }

// Size returns the number of currently acquired slots.
func (p *Pool) Size() uint32 { return p.size }

// MemorySizeAllocated returns the number of bytes p actually occupies
// in the memory it was constructed over - capacity*stride, the same
// value MemorySizeNeeded would compute from p's Config, made available
// without the caller having to keep the Config around.
func (p *Pool) MemorySizeAllocated() uint32 { return p.cfg.Capacity * p.cfg.Stride }

// Reset discards every outstanding handle and rebuilds the freelist as
// a single chain 0 -> 1 -> ... -> effectiveCapacity-1 -> 0, preserving
// no generation history: every handle acquired after Reset starts at
// generation 1. Slot payload bytes are left untouched.
//
// For FIFO, slot cfg.Capacity-1 is excluded from this chain and is
// never reachable from dequeueHead; enqueueTail starts on it, which
// fifoReclaimer.release reads as "nothing released since Reset".
func (p *Pool) Reset() {
	n := p.effectiveCapacity
	for i := uint32(0); i < n; i++ {
		next := i + 1
		if i == n-1 {
			next = 0
		}
		p.table.setWordAt(i, p.masks.packIndex(next))
	}
	if n < p.cfg.Capacity {
		p.table.setWordAt(n, 0)
	}
	p.dequeueHead = 0
	p.enqueueTail = p.cfg.Capacity - 1
	p.size = 0
}

// Acquire hands out the next free slot according to the pool's reuse
// policy, stamping it with userFlags and the slot's advanced
// generation. It returns (InvalidIndex, 0) if the pool is exhausted.
func (p *Pool) Acquire(userFlags uint32) (index uint32, handle uint32) {
	if p.size >= p.effectiveCapacity {
		return InvalidIndex, 0
	}

	index = p.dequeueHead
	free := p.table.wordAt(index)
	next := p.masks.packIndex(free)
	gen := p.masks.nextGeneration(p.masks.generation(free))

	handle = p.masks.makeHandle(index, gen, userFlags, true)
	p.table.setWordAt(index, handle)

	p.dequeueHead = next
	p.size++
	return index, handle
}

// Release returns handle's slot to the freelist. It returns the slot's
// index on success, or InvalidIndex if handle is not currently valid
// (stale generation, double free, or out of range).
func (p *Pool) Release(handle uint32) uint32 {
	index := p.masks.packIndex(handle)
	if index >= p.cfg.Capacity {
		return InvalidIndex
	}
	if p.table.wordAt(index) != handle || !p.masks.inUse(handle) {
		return InvalidIndex
	}

	p.reclaim.release(p, index, handle)
	p.size--
	return index
}

// Valid reports whether handle currently names a live slot: its index
// is in range, its generation matches the slot's current generation,
// and its in-use bit is set.
func (p *Pool) Valid(handle uint32) bool {
	index := p.masks.packIndex(handle)
	if index >= p.cfg.Capacity {
		return false
	}
	return p.table.wordAt(index) == handle && p.masks.inUse(handle)
}

// InUseAtIndex reports whether the slot at index currently holds a live
// handle, without requiring the caller to already have that handle.
func (p *Pool) InUseAtIndex(index uint32) bool {
	if index >= p.cfg.Capacity {
		return false
	}
	return p.masks.inUse(p.table.wordAt(index))
}

// IndexOf returns the index field of handle, without validating it.
func (p *Pool) IndexOf(handle uint32) uint32 { return p.masks.packIndex(handle) }

// HandleAtIndex returns the current handle word stored at index,
// whether or not that slot is currently in use. Callers that only want
// live handles should check InUseAtIndex first.
func (p *Pool) HandleAtIndex(index uint32) uint32 {
	return p.table.wordAt(index)
}

// UserFlags returns the userflags field of handle. The handle is not
// otherwise validated; callers that need validity should call Valid
// first.
func (p *Pool) UserFlags(handle uint32) uint32 { return p.masks.userFlags(handle) }

// SetUserFlags overwrites the userflags field of the live slot handle
// names, returning the previous handle value and true, or (0, false)
// if handle does not currently name a live slot.
func (p *Pool) SetUserFlags(handle uint32, userFlags uint32) (previous uint32, ok bool) {
	index := p.masks.packIndex(handle)
	if index >= p.cfg.Capacity {
		return 0, false
	}
	cur := p.table.wordAt(index)
	if cur != handle || !p.masks.inUse(handle) {
		return 0, false
	}
	p.table.setWordAt(index, p.masks.withUserFlags(cur, userFlags))
	return cur, true
}

// PayloadAt returns the payload region of the slot at index, or nil if
// the pool was configured without a payload region.
func (p *Pool) PayloadAt(index uint32) []byte { return p.table.payloadAt(index) }

// WalkEvent describes one slot visited by Walk.
type WalkEvent struct {
	Index  uint32
	Handle uint32
	InUse  bool
}

// Walk calls visit once per slot, in index order, stopping early if
// visit returns false. It is meant for diagnostics and tests (e.g.
// counting live slots, or dumping freelist shape); Pool never calls it
// itself.
func (p *Pool) Walk(visit func(WalkEvent) bool) {
	for i := uint32(0); i < p.cfg.Capacity; i++ {
		w := p.table.wordAt(i)
		if !visit(WalkEvent{Index: i, Handle: w, InUse: p.masks.inUse(w)}) {
			return
		}
	}
}
