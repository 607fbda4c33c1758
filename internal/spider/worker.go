package spider

import (
	"context"

	"go.uber.org/zap"

	"github.com/laborview/jobspider/internal/metrics"
)

// Worker paginates the search API for exactly one task, emitting normalized
// records onto the queue until the task's limit, an empty page, or a fetch
// error stops it. It never retries; a failed fetch ends only this task.
type Worker struct {
	task    Task
	geoCode string
	session Session
	queue   Queue
	logger  *zap.Logger
	count   int
}

// NewWorker constructs a Worker. The session must be exclusively owned by
// this worker; the caller remains responsible for closing it.
func NewWorker(task Task, geoCode string, session Session, queue Queue, logger *zap.Logger) *Worker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Worker{
		task:    task,
		geoCode: geoCode,
		session: session,
		queue:   queue,
		logger:  logger.With(zap.String("task", task.Name())),
	}
}

// Run drives the paging loop and reports why it stopped.
func (w *Worker) Run(ctx context.Context) TerminalStatus {
	if err := w.session.Prime(ctx, w.geoCode); err != nil {
		w.logger.Error("session prime failed", zap.Error(err))
		return StatusFetchError
	}

	for page := 1; ; page++ {
		if w.count >= w.task.Limit {
			w.logger.Info("limit reached",
				zap.Int("count", w.count),
				zap.Int("limit", w.task.Limit),
			)
			return StatusLimitReached
		}

		body, err := w.session.Search(ctx, w.task.Keyword, page, w.geoCode)
		if err != nil {
			w.logger.Error("search fetch failed", zap.Int("page", page), zap.Error(err))
			return StatusFetchError
		}
		postings, err := DecodeSearch(body)
		if err != nil {
			w.logger.Error("search response rejected", zap.Int("page", page), zap.Error(err))
			return StatusFetchError
		}
		metrics.PageFetched()

		if len(postings) == 0 {
			w.logger.Info("all pages exhausted", zap.Int("count", w.count))
			return StatusExhausted
		}

		for _, p := range postings {
			if w.count >= w.task.Limit {
				break
			}
			w.queue.Push(Item{Record: p.Record(w.task.Keyword)})
			w.count++
			metrics.RecordEmitted(w.task.Keyword)
		}

		w.logger.Info("page fetched",
			zap.Int("page", page),
			zap.Int("count", w.count),
			zap.Int("limit", w.task.Limit),
		)
	}
}

// Count reports how many records this worker has emitted so far.
func (w *Worker) Count() int {
	return w.count
}
