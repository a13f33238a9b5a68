// Copyright 2013 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ijha

import "encoding/binary"

// slotTable addresses a caller-supplied []byte as capacity fixed-size
// slots of stride bytes each. Each slot holds one 4-byte little-endian
// handle word, at handleOffset within the slot, and an optional
// payload region of payloadSize bytes at payloadOffset. Handle and
// payload regions may be placed in either order within the stride, or
// omitted (payloadSize 0) entirely; the table never assumes one
// particular layout, so "handle before payload" and "payload before
// handle" both fall out of the same addressing arithmetic.
type slotTable struct {
	mem           []byte
	capacity      uint32
	stride        uint32
	handleOffset  uint32
	payloadOffset uint32
	payloadSize   uint32
}

func newSlotTable(mem []byte, capacity, stride, handleOffset, payloadOffset, payloadSize uint32) slotTable {
	return slotTable{
		mem:           mem,
		capacity:      capacity,
		stride:        stride,
		handleOffset:  handleOffset,
		payloadOffset: payloadOffset,
		payloadSize:   payloadSize,
	}
}

func (t *slotTable) slotBase(index uint32) uint32 { return index * t.stride }

// wordAt reads the raw handle word stored in slot index. While the slot
// is free this word is a freelist link (see pool.go); while in use it
// is the live handle.
func (t *slotTable) wordAt(index uint32) uint32 {
	off := t.slotBase(index) + t.handleOffset
	return binary.LittleEndian.Uint32(t.mem[off : off+4])
}

func (t *slotTable) setWordAt(index, word uint32) {
	off := t.slotBase(index) + t.handleOffset
	binary.LittleEndian.PutUint32(t.mem[off:off+4], word)
}

// payloadAt returns the payload region of slot index, or nil if the
// table carries no payload (payloadSize 0). The caller interprets the
// bytes; the table never reads or writes them itself.
func (t *slotTable) payloadAt(index uint32) []byte {
	if t.payloadSize == 0 {
		return nil
	}
	start := t.slotBase(index) + t.payloadOffset
	return t.mem[start : start+t.payloadSize : start+t.payloadSize]
}
