// config.go: ring construction options and size-string parsing
//
// Copyright (c) 2025 AGILira
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0

package ringcast

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Config configures a new ring. BufSize is the only required field: every
// segment is exactly BufSize bytes, fixed for the life of the ring.
type Config struct {
	// BufSize is the fixed byte size of every segment. Must be positive.
	BufSize int

	// ErrorCallback, if set, is invoked for conditions worth observing
	// outside the immediate caller. The only such condition is a Clone
	// that hit MaxReceivers, which is reported here in addition to being
	// returned to the caller. It never changes control flow. Mirrors lethe.Logger's ErrorCallback/
	// reportError pattern.
	ErrorCallback func(op string, err error)
}

func (c *Config) reportError(op string, err error) {
	if c.ErrorCallback != nil {
		c.ErrorCallback(op, err)
	}
}

// ParseSize converts size strings like "4KB", "1MB" to a byte count
// suitable for Config.BufSize. Supports case-insensitive input and
// single-letter units (K, M, G); there is no terabyte suffix. Carried over from the log-rotation
// size parser this module is descended from, since a frame's fixed byte
// size and a file's rotation threshold are the same kind of value.
func ParseSize(s string) (int, error) {
	if s == "" {
		return 0, fmt.Errorf("empty size string")
	}

	if val, err := strconv.Atoi(s); err == nil {
		return val, nil
	}

	upper := strings.ToUpper(s)

	var multiplier int64
	var numStr string

	switch {
	case strings.HasSuffix(upper, "KB"):
		multiplier = 1024
		numStr = upper[:len(upper)-2]
	case strings.HasSuffix(upper, "MB"):
		multiplier = 1024 * 1024
		numStr = upper[:len(upper)-2]
	case strings.HasSuffix(upper, "GB"):
		multiplier = 1024 * 1024 * 1024
		numStr = upper[:len(upper)-2]
	case strings.HasSuffix(upper, "K"):
		multiplier = 1024
		numStr = upper[:len(upper)-1]
	case strings.HasSuffix(upper, "M"):
		multiplier = 1024 * 1024
		numStr = upper[:len(upper)-1]
	case strings.HasSuffix(upper, "G"):
		multiplier = 1024 * 1024 * 1024
		numStr = upper[:len(upper)-1]
	default:
		return 0, fmt.Errorf("unknown size suffix in %q (supported: KB/K, MB/M, GB/G)", s)
	}

	val, err := strconv.ParseInt(numStr, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid size number in %q: %v", s, err)
	}

	result := val * multiplier
	if result <= 0 || result > int64(^uint(0)>>1) {
		return 0, fmt.Errorf("size %q out of range", s)
	}

	return int(result), nil
}

// ParseDuration converts duration strings using the standard Go duration
// grammar plus a "d" (day) suffix. Carried over from the log-rotation
// ancestor's ParseDuration for use by cmd/ringcast-bench's --interval
// flag.
func ParseDuration(s string) (time.Duration, error) {
	if s == "" {
		return 0, fmt.Errorf("empty duration string")
	}

	if d, err := time.ParseDuration(s); err == nil {
		return d, nil
	}

	lower := strings.ToLower(s)
	if strings.HasSuffix(lower, "d") {
		val, err := strconv.ParseInt(lower[:len(lower)-1], 10, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid duration number in %q: %v", s, err)
		}
		return time.Duration(val) * 24 * time.Hour, nil
	}

	return 0, fmt.Errorf("unknown duration suffix in %q", s)
}
