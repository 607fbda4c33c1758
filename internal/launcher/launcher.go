// Package launcher fans crawl tasks out to isolated workers, one exclusive
// session per in-flight task.
package launcher

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/laborview/jobspider/internal/metrics"
	"github.com/laborview/jobspider/internal/spider"
)

// DefaultStagger spaces out browser launches to spread connection load.
const DefaultStagger = 1500 * time.Millisecond

// Config controls launch behavior.
type Config struct {
	// Concurrent selects staggered fan-out; false runs tasks serially in
	// the caller's flow, trading throughput for resource economy.
	Concurrent bool
	// Stagger is the fixed inter-launch delay in concurrent mode.
	Stagger time.Duration
}

// Launcher starts one worker per task. Every worker gets a freshly built
// session it owns exclusively; a crash or hang inside one worker cannot
// corrupt another's session or block the shared queue.
type Launcher struct {
	cfg      Config
	sessions spider.SessionFactory
	resolver spider.Resolver
	queue    spider.Queue
	logger   *zap.Logger
	pacer    *rate.Limiter
}

// New constructs a Launcher.
func New(cfg Config, sessions spider.SessionFactory, resolver spider.Resolver, q spider.Queue, logger *zap.Logger) *Launcher {
	if cfg.Stagger <= 0 {
		cfg.Stagger = DefaultStagger
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Launcher{
		cfg:      cfg,
		sessions: sessions,
		resolver: resolver,
		queue:    q,
		logger:   logger,
		pacer:    rate.NewLimiter(rate.Every(cfg.Stagger), 1),
	}
}

// Run executes all tasks in the configured mode, joins every producer, and
// then injects the sentinel exactly once.
func (l *Launcher) Run(ctx context.Context, tasks []spider.Task) {
	if l.cfg.Concurrent {
		l.LaunchAll(ctx, tasks)
	} else {
		l.RunAllSequential(ctx, tasks)
	}
	l.queue.Push(spider.SentinelItem())
	l.logger.Info("all workers joined, sentinel pushed", zap.Int("tasks", len(tasks)))
}

// LaunchAll starts one worker goroutine per task with a fixed inter-launch
// delay, then blocks on an unbounded join-all. A hung session stalls the
// batch; there is deliberately no timeout-and-reap.
func (l *Launcher) LaunchAll(ctx context.Context, tasks []spider.Task) {
	var wg sync.WaitGroup
	for _, task := range tasks {
		if err := l.pacer.Wait(ctx); err != nil {
			l.logger.Warn("launch pacing interrupted, no further tasks started", zap.Error(err))
			break
		}
		wg.Add(1)
		go func(t spider.Task) {
			defer wg.Done()
			l.runTask(ctx, t)
		}(task)
	}
	wg.Wait()
}

// RunAllSequential executes tasks one at a time in the caller's goroutine.
func (l *Launcher) RunAllSequential(ctx context.Context, tasks []spider.Task) {
	for _, task := range tasks {
		if ctx.Err() != nil {
			l.logger.Warn("context finished, remaining tasks skipped", zap.Error(ctx.Err()))
			return
		}
		l.runTask(ctx, task)
	}
}

// runTask is the per-task body shared by both modes: build a session,
// resolve the city, run the paging worker, release the session on every
// exit path. Any panic is contained here so siblings and the sink keep
// running with one fewer producer.
func (l *Launcher) runTask(ctx context.Context, task spider.Task) {
	logger := l.logger.With(zap.String("task", task.Name()))

	defer func() {
		if r := recover(); r != nil {
			logger.Error("worker crashed", zap.Any("panic", r))
		}
	}()

	session, err := l.sessions.New(ctx)
	if err != nil {
		logger.Error("session create failed", zap.Error(err))
		return
	}
	defer func() {
		if cerr := session.Close(); cerr != nil {
			logger.Warn("session close failed", zap.Error(cerr))
		}
	}()

	metrics.WorkerStarted()
	defer metrics.WorkerStopped()

	code := l.resolver.Resolve(task.City)
	logger.Info("worker started",
		zap.String("geo_code", code),
		zap.Int("limit", task.Limit),
	)

	worker := spider.NewWorker(task, code, session, l.queue, l.logger)
	status := worker.Run(ctx)
	metrics.TaskFinished(string(status))

	logger.Info("worker finished",
		zap.String("status", string(status)),
		zap.Int("records", worker.Count()),
	)
}
