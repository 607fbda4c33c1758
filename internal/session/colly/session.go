// Package collysession implements spider.Session over plain HTTP using the
// Colly collector. It skips the browser entirely, which makes it suitable
// for development and tests on hosts without Chrome, at the cost of a
// higher bot-detection risk.
package collysession

import (
	"context"
	"fmt"
	"time"

	"github.com/gocolly/colly/v2"
	"go.uber.org/zap"

	"github.com/laborview/jobspider/internal/spider"
)

// Config controls collector behavior.
type Config struct {
	UserAgent string
	Timeout   time.Duration
}

// Factory builds one collector per session.
type Factory struct {
	cfg    Config
	logger *zap.Logger
}

// NewFactory constructs a Factory.
func NewFactory(cfg Config, logger *zap.Logger) *Factory {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Factory{cfg: cfg, logger: logger}
}

// New builds a session with its own collector and cookie jar.
func (f *Factory) New(ctx context.Context) (spider.Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("session create: %w", err)
	}
	c := colly.NewCollector(colly.Async(false))
	c.IgnoreRobotsTxt = true
	c.AllowURLRevisit = true
	if f.cfg.UserAgent != "" {
		c.UserAgent = f.cfg.UserAgent
	}
	c.SetRequestTimeout(f.cfg.Timeout)

	s := &Session{collector: c, logger: f.logger}
	c.OnResponse(func(r *colly.Response) {
		s.body = append([]byte(nil), r.Body...)
	})
	c.OnError(func(_ *colly.Response, err error) {
		s.err = err
	})
	return s, nil
}

// Session issues the search API calls over the collector's shared cookie
// jar. A session is owned by one worker, so the response fields need no
// locking.
type Session struct {
	collector *colly.Collector
	logger    *zap.Logger
	body      []byte
	err       error
}

// Prime visits the public search page to pick up session cookies.
func (s *Session) Prime(ctx context.Context, geoCode string) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("prime: %w", err)
	}
	if _, err := s.fetch(spider.SearchPageURL(geoCode)); err != nil {
		return fmt.Errorf("prime visit: %w", err)
	}
	return nil
}

// Search fetches one page of results and returns the raw JSON body.
func (s *Session) Search(ctx context.Context, keyword string, page int, geoCode string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}
	body, err := s.fetch(spider.SearchURL(keyword, page, geoCode))
	if err != nil {
		return nil, fmt.Errorf("search fetch: %w", err)
	}
	return body, nil
}

func (s *Session) fetch(url string) ([]byte, error) {
	s.body, s.err = nil, nil
	if err := s.collector.Visit(url); err != nil {
		return nil, err
	}
	if s.err != nil {
		return nil, s.err
	}
	return s.body, nil
}

// Close is a no-op; the collector holds no external resources.
func (s *Session) Close() error {
	return nil
}
