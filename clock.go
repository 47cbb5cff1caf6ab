// clock.go: opaque timestamp source for Send callers that don't track their own
//
// Copyright (c) 2025 AGILira
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0

package ringcast

import (
	"time"

	timecache "github.com/agilira/go-timecache"
)

// Clock produces the opaque 64-bit tag Sender.Send stamps onto a segment
// when the caller does not already have one (e.g. a monotonic frame
// counter from upstream capture hardware). The ring never interprets this
// value; it is returned to readers unchanged.
type Clock interface {
	Now() uint64
}

// TimecacheClock adapts github.com/agilira/go-timecache to Clock. lethe
// uses the same cache (timecache.NewWithResolution) to avoid a time.Now()
// syscall on every hot-path write; Send is exactly that kind of hot path.
type TimecacheClock struct {
	cache *timecache.TimeCache
}

// NewTimecacheClock returns a Clock backed by a millisecond-resolution
// agilira/go-timecache instance. Callers that already stamp their own
// timestamps (e.g. a capture device's own PTS) should not use this and
// should pass their own tag to Send instead.
func NewTimecacheClock() *TimecacheClock {
	return &TimecacheClock{cache: timecache.NewWithResolution(time.Millisecond)}
}

func (c *TimecacheClock) Now() uint64 {
	return uint64(c.cache.CachedTime().UnixNano())
}

// Stop releases the underlying cache's background ticker. Safe to call
// more than once.
func (c *TimecacheClock) Stop() {
	c.cache.Stop()
}
