// pair.go: matched Sender/Receiver construction
//
// Copyright (c) 2025 AGILira
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0

package ringcast

import "fmt"

// NewRing allocates a ring and returns a matched Sender/Receiver pair,
// equivalent to new_ringq in the original source. The ring starts with
// three segments, lastWrittenBlock=0, prevWrittenBlock=1, and exactly
// one live receiver.
func NewRing(cfg Config) (*Sender, *Receiver, error) {
	if cfg.BufSize <= 0 {
		return nil, nil, fmt.Errorf("ring: bufsize must be positive, got %d", cfg.BufSize)
	}

	r := newRing(cfg)

	sender := &Sender{r: r, bufsize: cfg.BufSize}
	receiver := &Receiver{r: r, bufsize: cfg.BufSize}

	return sender, receiver, nil
}
