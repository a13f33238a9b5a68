// Copyright 2013 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ijha

import "fmt"

// Status is a bitset of configuration problems detected by NewPool,
// NewConcurrentPool, NewDensePool and NewSparseSet. A zero Status means
// the configuration was accepted.
type Status uint32

// StatusOK reports an accepted configuration.
const StatusOK Status = 0

const (
	// StatusConfigurationUnsupported reports that capacity and
	// userFlagBits together don't fit the available index/generation
	// bits for the requested Layout.
	StatusConfigurationUnsupported Status = 1 << iota
	// StatusThreadsafeUnsupported reports FlagThreadsafe combined with
	// FlagFIFO: the lock-free variant only ever supports LIFO reuse.
	StatusThreadsafeUnsupported
	// StatusUserdataTooBig reports a payload size that doesn't fit the
	// configured stride.
	StatusUserdataTooBig
	// StatusHandleOffsetTooBig reports a handle byte offset that leaves
	// no room for a full handle word within the stride.
	StatusHandleOffsetTooBig
	// StatusHandleNonInlineSizeTooBig reports a stride too small to hold
	// a handle word when handles are stored out of line.
	StatusHandleNonInlineSizeTooBig
	// StatusInvalidInputFlags reports a Flags value that sets neither or
	// both of FlagFIFO and FlagLIFO.
	StatusInvalidInputFlags
)

var statusNames = []struct {
	bit  Status
	name string
}{
	{StatusConfigurationUnsupported, "configuration unsupported"},
	{StatusThreadsafeUnsupported, "threadsafe unsupported"},
	{StatusUserdataTooBig, "userdata too big"},
	{StatusHandleOffsetTooBig, "handle offset too big"},
	{StatusHandleNonInlineSizeTooBig, "handle non-inline size too big"},
	{StatusInvalidInputFlags, "invalid input flags"},
}

// Ok reports whether s carries no error bits.
func (s Status) Ok() bool { return s == StatusOK }

// Has reports whether s carries every bit set in bit.
func (s Status) Has(bit Status) bool { return s&bit == bit }

func (s Status) String() string {
	if s == StatusOK {
		return "ok"
	}
	out := ""
	for _, e := range statusNames {
		if s.Has(e.bit) {
			if out != "" {
				out += "; "
			}
			out += e.name
		}
	}
	return out
}

// ConfigError reports why a Config was rejected; Config.Err returns it.
// Detail names what was checked (Config.Err sets it to "Config"); Status
// carries the machine-checkable reason bits.
type ConfigError struct {
	Status Status
	Detail string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("ijha: invalid configuration: %s (%s)", e.Detail, e.Status)
}

// InvalidHandleError reports that a handle passed to an operation like
// ConcurrentPool.Drain did not name a live slot at the time it was
// used. Handle carries the offending value for the caller's logs.
type InvalidHandleError struct {
	Handle uint32
}

func (e *InvalidHandleError) Error() string {
	return fmt.Sprintf("ijha: invalid handle %#x", e.Handle)
}
