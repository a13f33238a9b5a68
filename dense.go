// Copyright 2013 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ijha

// DensePool augments a FIFO Pool with a dense<->sparse index mapping,
// so a caller can keep a tightly packed array of payloads indexed by
// acquisition slot rather than by the (sparser, order-independent) slot
// index the base Pool hands out. Release reports how to keep that
// dense array packed: move the element currently at the tail into the
// gap the released entry leaves behind, unless the released entry was
// already at the tail.
type DensePool struct {
	base *Pool

	denseOf  []uint32 // sparse (slot) index -> dense position
	sparseOf []uint32 // dense position -> sparse (slot) index
}

// NewDensePool configures a DensePool over mem; cfg.Flags must set
// FlagFIFO (the dense/sparse swap-and-pop bookkeeping assumes FIFO slot
// reuse, the configuration the original allocator this package is
// modeled on requires for this extension).
func NewDensePool(cfg Config, mem []byte) (*DensePool, Status) {
	if cfg.Flags&FlagFIFO == 0 {
		return nil, StatusConfigurationUnsupported
	}
	base, status := NewPool(cfg, mem)
	if !status.Ok() {
		return nil, status
	}
	d := &DensePool{
		base:     base,
		denseOf:  make([]uint32, cfg.Capacity),
		sparseOf: make([]uint32, cfg.Capacity),
	}
	return d, StatusOK
}

// Capacity returns the number of slots the underlying Pool manages.
func (d *DensePool) Capacity() uint32 { return d.base.Capacity() }

// Size returns the number of currently acquired slots, i.e. the number
// of valid entries in the dense array (0..Size()-1).
func (d *DensePool) Size() uint32 { return d.base.Size() }

// Reset discards every outstanding handle, as Pool.Reset does, and
// clears the dense<->sparse mapping.
func (d *DensePool) Reset() {
	d.base.Reset()
	clear(d.denseOf)
	clear(d.sparseOf)
}

// Acquire hands out a slot exactly as Pool.Acquire does, additionally
// returning the dense position (always the current Size()-1 after
// acquiring: acquired entries are always appended to the dense array).
func (d *DensePool) Acquire(userFlags uint32) (index, handle, denseIndex uint32) {
	index, handle = d.base.Acquire(userFlags)
	if index == InvalidIndex {
		return InvalidIndex, 0, InvalidIndex
	}
	denseIndex = d.base.Size() - 1
	d.denseOf[index] = denseIndex
	d.sparseOf[denseIndex] = index
	return index, handle, denseIndex
}

// Release returns handle's slot to the freelist, exactly as
// Pool.Release does, and reports how the caller must repack its dense
// array: move the element at dense position moveFrom into dense
// position moveTo. If wasTail is true, the released entry was already
// the last dense entry; moveFrom and moveTo are InvalidIndex and no
// move is needed.
func (d *DensePool) Release(handle uint32) (moveFrom, moveTo uint32, wasTail bool) {
	oldSize := d.base.Size()
	sparseIdx := d.base.Release(handle)
	if sparseIdx == InvalidIndex {
		return InvalidIndex, InvalidIndex, false
	}

	lastDense := oldSize - 1
	denseIdx := d.denseOf[sparseIdx]
	if denseIdx == lastDense {
		return InvalidIndex, InvalidIndex, true
	}

	movedSparse := d.sparseOf[lastDense]
	d.denseOf[movedSparse] = denseIdx
	d.sparseOf[denseIdx] = movedSparse
	return lastDense, denseIdx, false
}

// DenseIndex returns the dense position currently occupied by handle's
// slot. The handle is not otherwise validated.
func (d *DensePool) DenseIndex(handle uint32) uint32 {
	return d.denseOf[d.base.IndexOf(handle)]
}

// Valid reports whether handle currently names a live slot.
func (d *DensePool) Valid(handle uint32) bool { return d.base.Valid(handle) }

// UserFlags returns the userflags field of handle.
func (d *DensePool) UserFlags(handle uint32) uint32 { return d.base.UserFlags(handle) }

// PayloadAt returns the payload region of the slot at (sparse) index.
func (d *DensePool) PayloadAt(index uint32) []byte { return d.base.PayloadAt(index) }
