// receiver.go: borrow handle, clone to spawn more receivers
//
// Copyright (c) 2025 AGILira
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0

package ringcast

import (
	"sync"
)

// Receiver holds a borrow handle on a ring. Any number of Receivers may
// exist (up to MaxReceivers); clone the first one returned by NewRing to
// obtain more.
//
// Between a successful StartRecv and the matching EndRecv, the Receiver
// exposes the borrowed segment's bytes and timestamp. Prefer
// View, which cannot forget to call EndRecv.
type Receiver struct {
	r         *ring
	bufsize   int
	closeOnce sync.Once

	index     int
	borrowed  bool
	frame     []byte
	timestamp uint64
}

// StartRecv acquires a borrow on the freshest segment that is not
// currently being written (spec.md §4.1's pickReadIndex), making it
// available via Receiver.Frame/Timestamp until the matching EndRecv.
//
// Returns ErrSenderClosed if the Sender has already been closed; the
// receiver should tear down. Must be matched by exactly one EndRecv.
func (rv *Receiver) StartRecv() error {
	r := rv.r

	r.lock.Lock()
	if r.flags&flagNoSender != 0 {
		r.lock.Unlock()
		return ErrSenderClosed
	}

	idx := r.pickReadIndex()
	r.numBorrows[idx]++
	ts := r.timestamps[idx]
	frame := r.segments[idx]
	r.lock.Unlock()

	rv.index = idx
	rv.frame = frame
	rv.timestamp = ts
	rv.borrowed = true

	return nil
}

// Frame returns the segment bytes borrowed by the most recent successful
// StartRecv. The slice is only valid to read between StartRecv and
// EndRecv; reading it afterward is undefined, since the Sender may have
// begun overwriting it.
func (rv *Receiver) Frame() []byte {
	return rv.frame
}

// Timestamp returns the opaque tag stamped alongside the currently
// borrowed frame.
func (rv *Receiver) Timestamp() uint64 {
	return rv.timestamp
}

// EndRecv releases the borrow acquired by the most recent StartRecv.
// Must be called exactly once per successful StartRecv; calling it
// while no borrow is held is a no-op.
func (rv *Receiver) EndRecv() {
	if !rv.borrowed {
		return
	}
	r := rv.r

	r.lock.Lock()
	r.numBorrows[rv.index]--
	r.lock.Unlock()

	rv.borrowed = false
	rv.frame = nil
}

// View is a scoped-guard convenience around StartRecv/EndRecv (spec.md
// §9's "borrow bookkeeping replaces pointer aliasing" note): it acquires
// the borrow, invokes fn with the frame and timestamp, and releases the
// borrow on every exit path, including a panic inside fn, which is
// re-panicked after the borrow is released.
func (rv *Receiver) View(fn func(frame []byte, timestamp uint64) error) (err error) {
	if startErr := rv.StartRecv(); startErr != nil {
		return startErr
	}

	defer func() {
		rv.EndRecv()
		if p := recover(); p != nil {
			panic(p)
		}
	}()

	err = fn(rv.frame, rv.timestamp)
	return err
}

// Clone grows the shared segment table by one slot and returns a fresh
// Receiver bound to the same ring. The extra slot keeps the pool
// sufficiency invariant (numSegments >= numReceivers+2) intact for the
// new total receiver count.
//
// Returns ErrMaxReceivers if the segment table is already at
// MaxSegments; the returned Receiver value is not live and must not be
// used.
func (rv *Receiver) Clone() (*Receiver, error) {
	r := rv.r

	r.lock.Lock()
	if err := r.grow(); err != nil {
		r.lock.Unlock()
		if r.errorCallback != nil {
			r.errorCallback("clone", err)
		}
		return nil, err
	}
	r.numReceivers++
	r.lock.Unlock()

	r.owners.Add(1)

	return &Receiver{r: r, bufsize: rv.bufsize}, nil
}

// Close releases this Receiver's borrow accounting and ownership of the
// ring. If the Receiver currently holds a borrow (StartRecv without a
// matching EndRecv), it is released first. Close never fails and must
// not be called more than once.
func (rv *Receiver) Close() error {
	rv.closeOnce.Do(func() {
		if rv.borrowed {
			rv.EndRecv()
		}

		r := rv.r
		r.lock.Lock()
		r.numReceivers--
		r.lock.Unlock()

		r.releaseOwner()
	})
	return nil
}
