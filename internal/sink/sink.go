// Package sink implements the sole consumer of the result queue, streaming
// records into the CSV artifact.
package sink

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/laborview/jobspider/internal/queue"
	"github.com/laborview/jobspider/internal/spider"
)

// DefaultIdleTimeout is how long the sink waits on an empty queue before
// treating the batch as finished. A safety net for a producer that crashed
// before the launcher could inject the sentinel.
const DefaultIdleTimeout = 60 * time.Second

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Config controls Writer behavior.
type Config struct {
	Path        string
	IdleTimeout time.Duration
}

// Writer drains the queue into a UTF-8(+BOM) CSV file. Exactly one Writer
// is active per batch and it is the only writer of the artifact.
type Writer struct {
	cfg    Config
	queue  *queue.Queue
	logger *zap.Logger
}

// New constructs a Writer.
func New(cfg Config, q *queue.Queue, logger *zap.Logger) *Writer {
	if cfg.IdleTimeout <= 0 {
		cfg.IdleTimeout = DefaultIdleTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Writer{cfg: cfg, queue: q, logger: logger}
}

// Run consumes the queue until the sentinel arrives or the idle timeout
// elapses, flushing each row as it lands so partial progress survives an
// aborted batch. It returns the number of data rows written.
func (w *Writer) Run() (int, error) {
	if err := os.MkdirAll(filepath.Dir(w.cfg.Path), 0o750); err != nil {
		return 0, fmt.Errorf("create artifact dir: %w", err)
	}
	f, err := os.Create(w.cfg.Path)
	if err != nil {
		return 0, fmt.Errorf("create artifact %s: %w", w.cfg.Path, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil {
			w.logger.Warn("artifact close failed", zap.Error(cerr))
		}
	}()

	if _, err := f.Write(utf8BOM); err != nil {
		return 0, fmt.Errorf("write BOM: %w", err)
	}
	cw := csv.NewWriter(f)
	if err := cw.Write(spider.Columns); err != nil {
		return 0, fmt.Errorf("write header: %w", err)
	}
	cw.Flush()

	rows := 0
	for {
		item, ok := w.queue.Pop(w.cfg.IdleTimeout)
		if !ok {
			w.logger.Warn("no data within idle timeout, stopping writer",
				zap.Duration("idle_timeout", w.cfg.IdleTimeout),
			)
			break
		}
		if item.Sentinel {
			w.logger.Info("sentinel received, writer exiting", zap.Int("rows", rows))
			break
		}
		if err := cw.Write(item.Record.Row()); err != nil {
			return rows, fmt.Errorf("write row: %w", err)
		}
		cw.Flush()
		if err := cw.Error(); err != nil {
			return rows, fmt.Errorf("flush row: %w", err)
		}
		rows++
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return rows, fmt.Errorf("flush artifact: %w", err)
	}
	return rows, nil
}
