// doc.go: package overview
//
// Copyright (c) 2025 AGILira
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0

// Package ringcast provides a fixed-size, single-producer/multi-consumer
// in-process fanout queue specialized for fixed-width, latest-value
// payloads. The canonical use case is live video frames, where a dropped
// old frame is always preferable to blocking the producer or delivering
// a stale one.
//
// One Sender broadcasts frames of a configured byte size. Any number of
// Receivers (up to MaxSegments-2) independently obtain the most recent
// frame that is not currently being overwritten. Receivers do not queue
// history — StartRecv always returns *a* recent frame, not *every*
// frame the Sender has produced.
//
// # Quick Start
//
//	sender, receiver, err := ringcast.NewRing(ringcast.Config{BufSize: 1920 * 1080 * 3})
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer sender.Close()
//	defer receiver.Close()
//
//	go func() {
//		for frame := range frames {
//			if err := sender.Send(frame, uint64(time.Now().UnixNano())); err != nil {
//				// ringcast.ErrNoReceivers: nobody is listening, drop or retry
//			}
//		}
//	}()
//
//	for {
//		if err := receiver.View(func(frame []byte, ts uint64) error {
//			return process(frame, ts)
//		}); err != nil {
//			// ringcast.ErrSenderClosed: the producer is gone, tear down
//			return
//		}
//	}
//
// # Fanning Out
//
// Additional independent readers are obtained with Receiver.Clone, which
// grows the shared segment table by one slot so the sender always has a
// free slot to write into without waiting on any reader:
//
//	second, err := receiver.Clone()
//	if err != nil {
//		// ringcast.ErrMaxReceivers: the segment table is at its cap (16 segments)
//	}
//
// # Concurrency model
//
// A single mutex guards ring metadata (segment table, borrow counts,
// write pointers, flags) but never the payload bytes themselves. Send
// copies the frame into its chosen segment with the lock released;
// correctness rests on the invariant that no borrow may alias the slot
// currently being written, enforced by slot selection rather than by
// holding the lock across the copy. See pickWriteTarget and
// pickReadIndex in ring.go for the slot-selection rules.
package ringcast
