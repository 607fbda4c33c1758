// Package batch orchestrates a single crawl pass: task building, staggered
// fan-out, queue draining, and report rendering.
package batch

import (
	"context"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/laborview/jobspider/internal/launcher"
	"github.com/laborview/jobspider/internal/metrics"
	"github.com/laborview/jobspider/internal/queue"
	"github.com/laborview/jobspider/internal/report"
	"github.com/laborview/jobspider/internal/sink"
	"github.com/laborview/jobspider/internal/spider"
)

// Options are the process-wide knobs shared by every batch.
type Options struct {
	CSVPath     string
	HTMLPath    string
	IdleTimeout time.Duration
	Stagger     time.Duration
}

// Params select what one batch crawls. Zero-value fields fall back to the
// built-in defaults.
type Params struct {
	Cities     []string
	Keywords   []string
	Limit      int
	Concurrent bool
}

// Summary describes a finished batch.
type Summary struct {
	Tasks    int           `json:"tasks"`
	Rows     int           `json:"rows"`
	Elapsed  time.Duration `json:"elapsed_ns"`
	CSVPath  string        `json:"csv_path"`
	HTMLPath string        `json:"html_path"`
}

// Runner executes crawl batches one at a time.
type Runner struct {
	opts     Options
	sessions spider.SessionFactory
	resolver spider.Resolver
	logger   *zap.Logger
}

// NewRunner constructs a Runner.
func NewRunner(opts Options, sessions spider.SessionFactory, resolver spider.Resolver, logger *zap.Logger) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{
		opts:     opts,
		sessions: sessions,
		resolver: resolver,
		logger:   logger,
	}
}

type sinkResult struct {
	rows int
	err  error
}

// Run executes one full batch. Task-local failures never surface here;
// only artifact I/O errors do.
func (r *Runner) Run(ctx context.Context, p Params) (Summary, error) {
	start := time.Now()

	tasks := spider.BuildTasks(p.Cities, p.Keywords, p.Limit)
	r.logger.Info("batch starting",
		zap.Int("tasks", len(tasks)),
		zap.Bool("concurrent", p.Concurrent),
		zap.Int("limit", tasks[0].Limit),
	)

	if err := r.removeStale(); err != nil {
		metrics.BatchFinished("failed", time.Since(start))
		return Summary{}, err
	}

	q := queue.New()
	writer := sink.New(sink.Config{
		Path:        r.opts.CSVPath,
		IdleTimeout: r.opts.IdleTimeout,
	}, q, r.logger)

	done := make(chan sinkResult, 1)
	go func() {
		rows, err := writer.Run()
		done <- sinkResult{rows: rows, err: err}
	}()

	l := launcher.New(launcher.Config{
		Concurrent: p.Concurrent,
		Stagger:    r.opts.Stagger,
	}, r.sessions, r.resolver, q, r.logger)
	l.Run(ctx, tasks)

	res := <-done
	if res.err != nil {
		metrics.BatchFinished("failed", time.Since(start))
		return Summary{}, fmt.Errorf("writer sink: %w", res.err)
	}

	if err := report.Render(r.opts.CSVPath, r.opts.HTMLPath, r.logger); err != nil {
		metrics.BatchFinished("failed", time.Since(start))
		return Summary{}, fmt.Errorf("render report: %w", err)
	}

	elapsed := time.Since(start)
	metrics.BatchFinished("succeeded", elapsed)
	summary := Summary{
		Tasks:    len(tasks),
		Rows:     res.rows,
		Elapsed:  elapsed,
		CSVPath:  r.opts.CSVPath,
		HTMLPath: r.opts.HTMLPath,
	}
	r.logger.Info("batch finished",
		zap.Int("tasks", summary.Tasks),
		zap.Int("rows", summary.Rows),
		zap.Duration("elapsed", elapsed),
	)
	return summary, nil
}

// removeStale drops leftover artifacts from a previous batch so a partial
// run is never mistaken for a fresh one.
func (r *Runner) removeStale() error {
	for _, path := range []string{r.opts.CSVPath, r.opts.HTMLPath} {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("remove stale artifact %s: %w", path, err)
		}
	}
	return nil
}
