// Copyright 2013 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

/*
Package ijha implements bit-packed 32-bit handles over caller-supplied
memory: a slot table with an intrusive freelist, a single-threaded
allocator supporting FIFO or LIFO slot reuse, a lock-free LIFO variant
built on a CAS loop, a dense/sparse index mapping layered on top of the
FIFO allocator, and a standalone sparse-set primitive.

A handle is an opaque uint32 identifying one slot of a fixed-capacity
table. It packs an index, a generation counter that changes every time
the slot is reused, optional caller-defined userflag bits, and a single
in-use bit, all in one machine word. Handles remain meaningful after the
slot they name has been freed and reacquired: Valid reports false for a
stale handle instead of silently accepting it, because the generation
embedded in the handle no longer matches the one stored in the slot.

Pool and ConcurrentPool keep all slot state in a []byte the caller owns
and sized according to MemorySizeNeeded, and only ever read and write
within that slice. SparseSet likewise works over two caller-supplied
arrays. DensePool is the exception: NewDensePool allocates its two
dense<->sparse index arrays (capacity uint32 values each) itself. This
mirrors the caller-supplied-buffer discipline of lldb.Allocator, which
never owns the file it operates on.

Pool is the general-purpose allocator: configure it with NewPool,
acquire slots with Acquire, hand them back with Release, and check
handle validity with Valid. ConcurrentPool is the same bookkeeping
made safe for concurrent LIFO acquire/release from multiple goroutines
without a lock, using a tagged, ABA-safe CAS loop. DensePool augments a
FIFO Pool with dense<->sparse index bookkeeping, useful when a caller
keeps a tightly packed array of payloads indexed by acquisition order
rather than by handle index. SparseSet is the same dense/sparse
bookkeeping without generation or userflag tracking, usable on its own
or, composed with ResetIdentity, as a LIFO handle allocator whose
handles are plain indices.

None of the types here interpret payload bytes or perform I/O, and
apart from ConcurrentPool.Drain, which runs its own worker goroutines,
none start goroutines; all of that is left to the caller, exactly as
lldb.Allocator leaves block content and file I/O to the Filer it's given.
*/
package ijha
