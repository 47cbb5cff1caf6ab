// ring.go: shared ring state - segment table, borrow accounting, slot selection
//
// Copyright (c) 2025 AGILira
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0

package ringcast

import (
	"sync"
	"sync/atomic"
)

// MaxSegments is the hard cap on the segment table. Two slots are always
// reserved above the receiver count (invariant 1), so the usable receiver
// cap is MaxSegments-2.
const MaxSegments = 16

// MaxReceivers is the derived cap on live Receiver handles.
const MaxReceivers = MaxSegments - 2

// flags bits, see spec.md §3.
const (
	flagConflation uint8 = 1 << iota
	flagNoSender
)

// ring is the shared control block jointly owned by one Sender and any
// number of Receivers. The zero value is not usable; construct with newRing.
type ring struct {
	lock sync.Mutex

	bufsize int

	segments   [][]byte
	timestamps []uint64
	numBorrows []uint8

	numSegments      int
	lastWrittenBlock int
	prevWrittenBlock int

	numReceivers int
	flags        uint8

	// owners counts live Sender+Receiver handles. The holder whose Close
	// observes this reach zero is responsible for destroy().
	owners atomic.Int64

	errorCallback func(op string, err error)
}

// newRing allocates and initializes a ring with three segments, matching
// new_ringq in the original source.
func newRing(cfg Config) *ring {
	r := &ring{
		bufsize:          cfg.BufSize,
		segments:         make([][]byte, 3, MaxSegments),
		timestamps:       make([]uint64, 3, MaxSegments),
		numBorrows:       make([]uint8, 3, MaxSegments),
		numSegments:      3,
		lastWrittenBlock: 0,
		prevWrittenBlock: 1,
		numReceivers:     1,
		errorCallback:    cfg.ErrorCallback,
	}
	for i := range r.segments {
		r.segments[i] = make([]byte, r.bufsize)
	}
	r.owners.Store(2) // one Sender, one Receiver
	return r
}

// pickWriteTarget scans segments 0..numSegments, skipping lastWrittenBlock
// on the first pass, returning the first with numBorrows == 0. If none is
// found, it falls back to lastWrittenBlock itself (conflation). Caller must
// hold r.lock.
func (r *ring) pickWriteTarget() int {
	target := r.lastWrittenBlock

	for i := 0; i < r.numSegments; i++ {
		if i == r.lastWrittenBlock {
			continue
		}
		if r.numBorrows[i] == 0 {
			target = i
			break
		}
	}

	return target
}

// pickReadIndex returns the freshest slot that is not currently being
// written: prevWrittenBlock while a conflating write is in flight,
// lastWrittenBlock otherwise. This is the safe reading from spec.md §9 —
// the source (original_source/src/videoq/videoq.c) returns the inverse,
// which would hand a reader the slot the Sender is mid-copy on. Caller
// must hold r.lock.
func (r *ring) pickReadIndex() int {
	if r.flags&flagConflation != 0 {
		return r.prevWrittenBlock
	}
	return r.lastWrittenBlock
}

// grow appends a new zeroed segment, raising numSegments by one. Returns
// ErrMaxReceivers if the table is already at MaxSegments. Caller must hold
// r.lock.
func (r *ring) grow() error {
	if r.numSegments == MaxSegments {
		return ErrMaxReceivers
	}

	r.segments = append(r.segments, make([]byte, r.bufsize))
	r.timestamps = append(r.timestamps, 0)
	r.numBorrows = append(r.numBorrows, 0)
	r.numSegments++

	return nil
}

// destroy releases every segment buffer. Must be called only once, after
// the last owner has dropped its handle; the caller must not hold r.lock
// when calling destroy, since there is nothing left to synchronize.
func (r *ring) destroy() {
	r.segments = nil
	r.timestamps = nil
	r.numBorrows = nil
}

// releaseOwner decrements the owner count and runs destroy exactly once,
// for whichever caller observes the count reach zero. The "am I last"
// decision is the atomic decrement itself, not made under r.lock. It
// must be called without r.lock held, so destroy never runs while the
// caller is still locking the state it tears down.
func (r *ring) releaseOwner() {
	if r.owners.Add(-1) == 0 {
		r.destroy()
	}
}
