// sender.go: exclusive write capability, two-phase send
//
// Copyright (c) 2025 AGILira
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0

package ringcast

import (
	"fmt"
	"sync"
)

// Sender holds the exclusive write capability for a ring. Exactly one
// Sender exists per ring, created by NewRing.
type Sender struct {
	r         *ring
	bufsize   int
	closeOnce sync.Once
}

// Send publishes payload as the newest frame, tagged with the caller-
// supplied opaque timestamp. payload must be exactly Sender-configured
// BufSize bytes.
//
// Send executes in two phases: a short locked phase that picks the write
// target and updates bookkeeping, then an unlocked memcpy into that
// segment, then a second short locked phase that publishes the new
// lastWrittenBlock. The memcpy never runs with the lock held — see
// ring.go's pickWriteTarget for why no reader can alias the chosen
// target.
//
// Returns ErrNoReceivers if the ring currently has no live receivers;
// the sender may retry later or discard the frame.
func (s *Sender) Send(payload []byte, timestamp uint64) error {
	if len(payload) != s.bufsize {
		return fmt.Errorf("ring: payload length %d does not match bufsize %d", len(payload), s.bufsize)
	}

	r := s.r

	r.lock.Lock()
	if r.numReceivers == 0 {
		r.lock.Unlock()
		return ErrNoReceivers
	}

	target := r.pickWriteTarget()
	if target == r.lastWrittenBlock {
		r.flags |= flagConflation
	} else {
		r.prevWrittenBlock = r.lastWrittenBlock
	}
	r.lock.Unlock()

	// Unlocked copy: target had zero borrows at selection time, and any
	// reader that starts between here and the next lock section takes
	// either lastWrittenBlock or prevWrittenBlock (pickReadIndex), never
	// target, unless target == lastWrittenBlock (conflation), in which
	// case new readers take prevWrittenBlock instead.
	copy(r.segments[target], payload)
	r.timestamps[target] = timestamp

	r.lock.Lock()
	r.lastWrittenBlock = target
	r.flags &^= flagConflation
	r.lock.Unlock()

	return nil
}

// Close releases the Sender's ownership of the ring. It sets the
// terminal NO_SENDER condition so that all current and future
// StartRecv calls return ErrSenderClosed. Close never fails and must
// not be called more than once.
func (s *Sender) Close() error {
	s.closeOnce.Do(func() {
		r := s.r
		r.lock.Lock()
		r.flags |= flagNoSender
		r.lock.Unlock()

		r.releaseOwner()
	})
	return nil
}
