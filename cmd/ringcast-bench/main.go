// main.go: demonstration producer/fanout-consumer harness for ringcast
//
// Copyright (c) 2025 AGILira
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0

// Command ringcast-bench drives a ringcast Sender and a configurable
// number of Receiver goroutines so the two-phase send protocol and the
// fanout behaviour can be observed outside of the test suite. It is a
// demonstration binary, not a protocol server: it opens no network port
// and defines no wire format (spec.md §1/§13's non-goals).
package main

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"go.uber.org/zap"

	ringcast "github.com/agilira/ringcast"

	"github.com/agilira/argus"
	flashflags "github.com/agilira/flash-flags"
)

// reloadableConfig is the shape of the optional --watch JSON file: a
// knob the producer picks up without restarting, the CLI analogue of
// the teacher's (agilira/lethe) hot-reload example, adapted from
// log-rotation config to ring-producer tuning.
type reloadableConfig struct {
	IntervalMS int  `json:"interval_ms"`
	FillByte   byte `json:"fill_byte"`
}

func main() {
	if err := run(); err != nil {
		os.Exit(1)
	}
}

func run() error {
	fs := flashflags.New("ringcast-bench")
	bufSizeStr := fs.String("bufsize", "4KB", "fixed frame size, e.g. 4KB, 1MB")
	receiverCount := fs.Int("receivers", 4, "number of concurrent receiver goroutines")
	intervalStr := fs.String("interval", "10ms", "base send interval")
	watchPath := fs.String("watch", "", "optional path to a JSON {interval_ms,fill_byte} file to hot-reload")
	durationStr := fs.String("duration", "2s", "how long to run before shutting down")

	if err := fs.Parse(os.Args[1:]); err != nil {
		return err
	}

	bufSize, err := ringcast.ParseSize(*bufSizeStr)
	if err != nil {
		return err
	}
	interval, err := ringcast.ParseDuration(*intervalStr)
	if err != nil {
		return err
	}
	runFor, err := ringcast.ParseDuration(*durationStr)
	if err != nil {
		return err
	}

	logger, err := zap.NewProduction()
	if err != nil {
		return err
	}
	defer logger.Sync()
	log := logger.Sugar().Named("ringcast-bench")

	sender, receiver, err := ringcast.NewRing(ringcast.Config{
		BufSize: bufSize,
		ErrorCallback: func(op string, err error) {
			log.Warnw("ring error", "op", op, "error", err)
		},
	})
	if err != nil {
		return err
	}

	var intervalNanos atomic.Int64
	intervalNanos.Store(int64(interval))
	var fillByte atomic.Int32

	if path := *watchPath; path != "" {
		watcher, werr := argus.Watch(path, 500*time.Millisecond, func(data []byte) {
			var cfg reloadableConfig
			if jerr := json.Unmarshal(data, &cfg); jerr != nil {
				log.Warnw("ignoring malformed watch file", "error", jerr)
				return
			}
			if cfg.IntervalMS > 0 {
				intervalNanos.Store(int64(time.Duration(cfg.IntervalMS) * time.Millisecond))
			}
			fillByte.Store(int32(cfg.FillByte))
			log.Infow("reloaded producer config", "interval_ms", cfg.IntervalMS, "fill_byte", cfg.FillByte)
		})
		if werr != nil {
			log.Warnw("could not start config watcher", "path", path, "error", werr)
		} else {
			defer watcher.Close()
		}
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	runCtx, runCancel := context.WithTimeout(ctx, runFor)
	defer runCancel()

	group, groupCtx := errgroup.WithContext(runCtx)

	group.Go(func() error {
		return produce(groupCtx, log, sender, bufSize, &intervalNanos, &fillByte)
	})

	receivers := make([]*ringcast.Receiver, 0, *receiverCount)
	receivers = append(receivers, receiver)
	for i := 1; i < *receiverCount; i++ {
		rv, cerr := receivers[len(receivers)-1].Clone()
		if cerr != nil {
			log.Warnw("stopped cloning receivers early", "wanted", *receiverCount, "got", i, "error", cerr)
			break
		}
		receivers = append(receivers, rv)
	}

	for i, rv := range receivers {
		i, rv := i, rv
		group.Go(func() error {
			return consume(groupCtx, log.With("receiver", i), rv)
		})
	}

	err = group.Wait()

	sender.Close()
	for _, rv := range receivers {
		rv.Close()
	}

	if err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return nil
}

func produce(ctx context.Context, log *zap.SugaredLogger, sender *ringcast.Sender, bufSize int, intervalNanos *atomic.Int64, fillByte *atomic.Int32) error {
	clock := ringcast.NewTimecacheClock()
	defer clock.Stop()

	frame := make([]byte, bufSize)
	var sent uint64

	for {
		select {
		case <-ctx.Done():
			log.Infow("producer stopping", "frames_sent", sent)
			return nil
		default:
		}

		b := byte(fillByte.Load())
		for i := range frame {
			frame[i] = b
		}

		ts := clock.Now()
		if err := sender.Send(frame, ts); err != nil {
			if errors.Is(err, ringcast.ErrNoReceivers) {
				log.Debugw("no receivers yet, dropping frame")
			} else {
				return err
			}
		} else {
			sent++
		}

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(time.Duration(intervalNanos.Load())):
		}
	}
}

func consume(ctx context.Context, log *zap.SugaredLogger, rv *ringcast.Receiver) error {
	var observed uint64

	for {
		select {
		case <-ctx.Done():
			log.Infow("receiver stopping", "frames_observed", observed)
			return nil
		default:
		}

		err := rv.View(func(frame []byte, ts uint64) error {
			observed++
			return nil
		})
		if err != nil {
			if errors.Is(err, ringcast.ErrSenderClosed) {
				log.Infow("sender closed", "frames_observed", observed)
				return nil
			}
			return err
		}
	}
}
