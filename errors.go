// errors.go: sentinel error surface
//
// Copyright (c) 2025 AGILira
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0

package ringcast

import (
	goerrors "github.com/agilira/go-errors"
)

// Error codes from spec.md §6/§7.
const (
	codeNoReceivers  = 1
	codeSenderClosed = 2
	codeMaxReceivers = 3
)

// ErrNoReceivers is returned by Send when the ring has no live receivers.
// Recoverable: the sender may retry later or discard the frame.
var ErrNoReceivers = goerrors.New(codeNoReceivers, "ring: send with no receivers")

// ErrSenderClosed is returned by StartRecv once the Sender has been
// closed. Terminal: the receiver should tear down.
var ErrSenderClosed = goerrors.New(codeSenderClosed, "ring: sender closed")

// ErrMaxReceivers is returned by Clone when the segment table is already
// at MaxSegments. Terminal for that clone attempt; the returned handle
// must not be treated as live.
var ErrMaxReceivers = goerrors.New(codeMaxReceivers, "ring: max receivers reached")
