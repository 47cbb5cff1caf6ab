// ring_test.go: end-to-end scenarios from spec.md §8
//
// Copyright (c) 2025 AGILira
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0

package ringcast

import (
	"bytes"
	"errors"
	"testing"
)

func TestNewRing_RejectsNonPositiveBufSize(t *testing.T) {
	if _, _, err := NewRing(Config{BufSize: 0}); err == nil {
		t.Fatal("expected error for zero bufsize")
	}
	if _, _, err := NewRing(Config{BufSize: -1}); err == nil {
		t.Fatal("expected error for negative bufsize")
	}
}

// Scenario 1: create, single send, single recv.
func TestRing_SingleSendSingleRecv(t *testing.T) {
	sender, receiver, err := NewRing(Config{BufSize: 4})
	if err != nil {
		t.Fatalf("NewRing: %v", err)
	}
	defer sender.Close()
	defer receiver.Close()

	payload := []byte{0xDE, 0xAD, 0xBE, 0xEF}
	if err := sender.Send(payload, 100); err != nil {
		t.Fatalf("Send: %v", err)
	}

	if err := receiver.StartRecv(); err != nil {
		t.Fatalf("StartRecv: %v", err)
	}
	if !bytes.Equal(receiver.Frame(), payload) {
		t.Fatalf("Frame() = %x, want %x", receiver.Frame(), payload)
	}
	if receiver.Timestamp() != 100 {
		t.Fatalf("Timestamp() = %d, want 100", receiver.Timestamp())
	}
	receiver.EndRecv()
}

// Scenario 2: send before any receiver waits; a clone taken before the
// sends also observes the latest frame once it calls StartRecv after.
func TestRing_LatestFrameWins(t *testing.T) {
	sender, receiver, err := NewRing(Config{BufSize: 4})
	if err != nil {
		t.Fatalf("NewRing: %v", err)
	}
	defer sender.Close()
	defer receiver.Close()

	second, err := receiver.Clone()
	if err != nil {
		t.Fatalf("Clone: %v", err)
	}
	defer second.Close()

	a := bytes.Repeat([]byte{'A'}, 4)
	b := bytes.Repeat([]byte{'B'}, 4)

	if err := sender.Send(a, 1); err != nil {
		t.Fatalf("Send a: %v", err)
	}
	if err := sender.Send(b, 2); err != nil {
		t.Fatalf("Send b: %v", err)
	}

	for _, rv := range []*Receiver{receiver, second} {
		if err := rv.StartRecv(); err != nil {
			t.Fatalf("StartRecv: %v", err)
		}
		if !bytes.Equal(rv.Frame(), b) {
			t.Fatalf("Frame() = %x, want %x", rv.Frame(), b)
		}
		if rv.Timestamp() != 2 {
			t.Fatalf("Timestamp() = %d, want 2", rv.Timestamp())
		}
		rv.EndRecv()
	}
}

// Scenario 3 (minimal sufficient condition): conflation requires every
// non-lastWrittenBlock segment to be borrowed. With three segments that
// means two simultaneous borrows, not one — see DESIGN.md's resolution
// of this scenario against the §4.1 algorithm and original_source/.
func TestRing_Conflation(t *testing.T) {
	sender, r1, err := NewRing(Config{BufSize: 4})
	if err != nil {
		t.Fatalf("NewRing: %v", err)
	}
	defer sender.Close()
	defer r1.Close()

	r2, err := r1.Clone()
	if err != nil {
		t.Fatalf("Clone: %v", err)
	}
	defer r2.Close()
	r3, err := r1.Clone()
	if err != nil {
		t.Fatalf("Clone: %v", err)
	}
	defer r3.Close()

	// Ring now has 5 segments (3 + 2 clones) and 3 receivers. Prime
	// lastWrittenBlock with one send so the upcoming borrows pin
	// every segment except it.
	if err := sender.Send(bytes.Repeat([]byte{0}, 4), 0); err != nil {
		t.Fatalf("prime send: %v", err)
	}

	r := sender.r
	r.lock.Lock()
	numSegments := r.numSegments
	last := r.lastWrittenBlock
	r.lock.Unlock()

	// Borrow every segment except lastWrittenBlock directly through the
	// ring's own bookkeeping, simulating numSegments-1 concurrent
	// readers without needing that many live Receiver handles.
	r.lock.Lock()
	for i := 0; i < numSegments; i++ {
		if i == last {
			continue
		}
		r.numBorrows[i]++
	}
	r.lock.Unlock()

	held := bytes.Repeat([]byte{'H'}, 4)
	if err := sender.Send(held, 10); err != nil {
		t.Fatalf("Send 10: %v", err)
	}

	// flagConflation is cleared again before Send returns (sender.go's last
	// step, per spec.md §4.2) — it only exists to be visible to a reader
	// racing in during the unlocked copy window, not as a sticky post-hoc
	// indicator. What a completed conflating Send leaves behind is the
	// reused slot: with every other segment borrowed, pickWriteTarget had
	// no free slot to fall forward to and wrote lastWrittenBlock in place.
	r.lock.Lock()
	target := r.lastWrittenBlock
	r.lock.Unlock()

	if target != last {
		t.Fatalf("conflating send should reuse lastWrittenBlock %d, got %d", last, target)
	}

	second := bytes.Repeat([]byte{'S'}, 4)
	if err := sender.Send(second, 11); err != nil {
		t.Fatalf("Send 11: %v", err)
	}

	r.lock.Lock()
	stillTarget := r.lastWrittenBlock
	r.lock.Unlock()
	if stillTarget != last {
		t.Fatalf("conflation should keep reusing lastWrittenBlock %d while the same segments remain borrowed, got %d", last, stillTarget)
	}

	// Release the simulated borrows.
	r.lock.Lock()
	for i := 0; i < numSegments; i++ {
		if i == last {
			continue
		}
		r.numBorrows[i]--
	}
	r.lock.Unlock()
}

// Scenario 4: NO_RECEIVERS once the sole receiver has dropped.
func TestRing_NoReceivers(t *testing.T) {
	sender, receiver, err := NewRing(Config{BufSize: 4})
	if err != nil {
		t.Fatalf("NewRing: %v", err)
	}
	defer sender.Close()

	if err := receiver.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	err = sender.Send(bytes.Repeat([]byte{0}, 4), 1)
	if !errors.Is(err, ErrNoReceivers) {
		t.Fatalf("Send = %v, want ErrNoReceivers", err)
	}
}

// Scenario 5: SENDER_CLOSED once the sender has dropped.
func TestRing_SenderClosed(t *testing.T) {
	sender, receiver, err := NewRing(Config{BufSize: 4})
	if err != nil {
		t.Fatalf("NewRing: %v", err)
	}
	defer receiver.Close()

	if err := sender.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	err = receiver.StartRecv()
	if !errors.Is(err, ErrSenderClosed) {
		t.Fatalf("StartRecv = %v, want ErrSenderClosed", err)
	}
}

// Scenario 6: clone cap.
func TestRing_CloneCap(t *testing.T) {
	sender, receiver, err := NewRing(Config{BufSize: 4})
	if err != nil {
		t.Fatalf("NewRing: %v", err)
	}
	defer sender.Close()
	defer receiver.Close()

	receivers := []*Receiver{receiver}
	defer func() {
		for _, rv := range receivers[1:] {
			rv.Close()
		}
	}()

	// 3 initial segments, cap MaxSegments=16: 13 successful clones grow
	// the table to 16; the 14th must fail.
	for i := 0; i < MaxReceivers-1; i++ {
		rv, err := receivers[len(receivers)-1].Clone()
		if err != nil {
			t.Fatalf("Clone #%d: %v", i, err)
		}
		receivers = append(receivers, rv)
	}

	_, err = receivers[len(receivers)-1].Clone()
	if !errors.Is(err, ErrMaxReceivers) {
		t.Fatalf("Clone at cap = %v, want ErrMaxReceivers", err)
	}
}

func TestSender_RejectsWrongSizedPayload(t *testing.T) {
	sender, receiver, err := NewRing(Config{BufSize: 4})
	if err != nil {
		t.Fatalf("NewRing: %v", err)
	}
	defer sender.Close()
	defer receiver.Close()

	if err := sender.Send([]byte{1, 2, 3}, 1); err == nil {
		t.Fatal("expected error for undersized payload")
	}
}

func TestReceiver_View(t *testing.T) {
	sender, receiver, err := NewRing(Config{BufSize: 4})
	if err != nil {
		t.Fatalf("NewRing: %v", err)
	}
	defer sender.Close()
	defer receiver.Close()

	payload := []byte{1, 2, 3, 4}
	if err := sender.Send(payload, 7); err != nil {
		t.Fatalf("Send: %v", err)
	}

	var got []byte
	var gotTS uint64
	err = receiver.View(func(frame []byte, ts uint64) error {
		got = append([]byte(nil), frame...)
		gotTS = ts
		return nil
	})
	if err != nil {
		t.Fatalf("View: %v", err)
	}
	if !bytes.Equal(got, payload) || gotTS != 7 {
		t.Fatalf("View observed (%x, %d), want (%x, 7)", got, gotTS, payload)
	}
}

func TestReceiver_ViewReleasesBorrowOnPanic(t *testing.T) {
	sender, receiver, err := NewRing(Config{BufSize: 4})
	if err != nil {
		t.Fatalf("NewRing: %v", err)
	}
	defer sender.Close()
	defer receiver.Close()

	if err := sender.Send(bytes.Repeat([]byte{0}, 4), 1); err != nil {
		t.Fatalf("Send: %v", err)
	}

	func() {
		defer func() {
			if recover() == nil {
				t.Fatal("expected the panic to propagate out of View")
			}
		}()
		_ = receiver.View(func(frame []byte, ts uint64) error {
			panic("boom")
		})
	}()

	r := sender.r
	r.lock.Lock()
	borrows := append([]uint8(nil), r.numBorrows...)
	r.lock.Unlock()

	for i, b := range borrows {
		if b != 0 {
			t.Fatalf("segment %d still borrowed (%d) after panic in View", i, b)
		}
	}
}
