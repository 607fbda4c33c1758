// Package schedule gates crawl batches to a recurring daily time window.
package schedule

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/laborview/jobspider/internal/spider"
)

// DefaultPoll is the cadence for re-checking the window while idle.
const DefaultPoll = time.Minute

// Window is the daily time-of-day range during which batches may run.
// It assumes begin < end within one calendar day; the end is exclusive.
type Window struct {
	Enable          bool
	BeginHour       int
	BeginMinute     int
	EndHour         int
	EndMinute       int
	IntervalMinutes int
}

// Contains reports whether now falls inside [begin, end) on now's day,
// at minute granularity.
func (w Window) Contains(now time.Time) bool {
	begin := time.Date(now.Year(), now.Month(), now.Day(), w.BeginHour, w.BeginMinute, 0, 0, now.Location())
	end := time.Date(now.Year(), now.Month(), now.Day(), w.EndHour, w.EndMinute, 0, 0, now.Location())
	return !now.Before(begin) && now.Before(end)
}

// Interval returns the post-batch sleep duration.
func (w Window) Interval() time.Duration {
	return time.Duration(w.IntervalMinutes) * time.Minute
}

// BatchFunc runs one full crawl batch synchronously.
type BatchFunc func(ctx context.Context) error

// Loop is a two-state machine: idle-waiting and running-batch. With the
// window disabled it runs exactly one batch and returns. Enabled, it is a
// long-lived daemon stopped only by context cancellation; a failed batch
// is logged and the loop resumes at the next tick.
type Loop struct {
	window Window
	run    BatchFunc
	clock  spider.Clock
	logger *zap.Logger

	poll  time.Duration
	sleep func(ctx context.Context, d time.Duration) error
}

// NewLoop constructs a Loop.
func NewLoop(window Window, run BatchFunc, clock spider.Clock, logger *zap.Logger) *Loop {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Loop{
		window: window,
		run:    run,
		clock:  clock,
		logger: logger,
		poll:   DefaultPoll,
		sleep:  sleepContext,
	}
}

// Run drives the loop until the context finishes. In disabled mode the
// single batch's error surfaces to the caller; in enabled mode only the
// context error ever comes back.
func (l *Loop) Run(ctx context.Context) error {
	if !l.window.Enable {
		l.logger.Info("scheduling disabled, running one batch")
		return l.run(ctx)
	}

	l.logger.Info("schedule loop started",
		zap.Int("begin_hour", l.window.BeginHour),
		zap.Int("begin_minute", l.window.BeginMinute),
		zap.Int("end_hour", l.window.EndHour),
		zap.Int("end_minute", l.window.EndMinute),
		zap.Int("interval_minutes", l.window.IntervalMinutes),
	)

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		now := l.clock.Now()
		if l.window.Contains(now) {
			l.logger.Info("inside schedule window, starting batch", zap.Time("now", now))
			if err := l.run(ctx); err != nil {
				l.logger.Error("batch failed, loop continues", zap.Error(err))
			}
			l.logger.Info("batch finished, sleeping interval",
				zap.Duration("interval", l.window.Interval()),
			)
			if err := l.sleep(ctx, l.window.Interval()); err != nil {
				return err
			}
			continue
		}

		l.logger.Debug("outside schedule window, waiting", zap.Time("now", now))
		if err := l.sleep(ctx, l.poll); err != nil {
			return err
		}
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
