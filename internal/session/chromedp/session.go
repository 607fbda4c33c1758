// Package chromedpsession implements spider.Session on a dedicated Chrome
// instance driven by chromedp. Issuing the search call as an in-page fetch
// inherits the session's cookies and headers, which lowers bot-detection
// risk versus a bare HTTP client.
package chromedpsession

import (
	"context"
	"fmt"
	"time"

	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"github.com/laborview/jobspider/internal/spider"
)

// Config controls browser behavior for every session built by the factory.
type Config struct {
	Headless    bool
	UserAgent   string
	NavTimeout  time.Duration
	SettleDelay time.Duration
}

// Factory builds one fresh browser per session. Each worker gets its own
// allocator, so a crashed browser never touches a sibling task.
type Factory struct {
	cfg    Config
	logger *zap.Logger
}

// NewFactory constructs a Factory.
func NewFactory(cfg Config, logger *zap.Logger) *Factory {
	if cfg.NavTimeout <= 0 {
		cfg.NavTimeout = 45 * time.Second
	}
	if cfg.SettleDelay <= 0 {
		cfg.SettleDelay = 3 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Factory{cfg: cfg, logger: logger}
}

// New spawns a browser context for exclusive use by one worker.
func (f *Factory) New(ctx context.Context) (spider.Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("session create: %w", err)
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", f.cfg.Headless),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.Flag("enable-automation", false),
		chromedp.Flag("start-maximized", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("disable-dev-shm-usage", true),
	)
	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), opts...)
	taskCtx, taskCancel := chromedp.NewContext(allocCtx)

	return &Session{
		cfg:         f.cfg,
		logger:      f.logger,
		ctx:         taskCtx,
		taskCancel:  taskCancel,
		allocCancel: allocCancel,
	}, nil
}

// Session owns one Chrome instance for one task's lifetime.
type Session struct {
	cfg         Config
	logger      *zap.Logger
	ctx         context.Context
	taskCancel  context.CancelFunc
	allocCancel context.CancelFunc
}

// Prime navigates to the provider search page so the first API call runs
// with established cookies, then waits for the page to settle.
func (s *Session) Prime(ctx context.Context, geoCode string) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("prime: %w", err)
	}
	runCtx, cancel := context.WithTimeout(s.ctx, s.cfg.NavTimeout+s.cfg.SettleDelay)
	defer cancel()

	actions := []chromedp.Action{
		chromedp.ActionFunc(func(ctx context.Context) error {
			if err := network.Enable().Do(ctx); err != nil {
				return fmt.Errorf("enable network domain: %w", err)
			}
			if s.cfg.UserAgent != "" {
				if err := emulation.SetUserAgentOverride(s.cfg.UserAgent).Do(ctx); err != nil {
					return fmt.Errorf("set user-agent: %w", err)
				}
			}
			return nil
		}),
		chromedp.Navigate(spider.SearchPageURL(geoCode)),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.Sleep(s.cfg.SettleDelay),
	}
	if err := chromedp.Run(runCtx, actions...); err != nil {
		return fmt.Errorf("prime navigation: %w", err)
	}
	return nil
}

// Search performs the paginated API call from inside the page and returns
// the raw response body.
func (s *Session) Search(ctx context.Context, keyword string, page int, geoCode string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}
	runCtx, cancel := context.WithTimeout(s.ctx, s.cfg.NavTimeout)
	defer cancel()

	script := fmt.Sprintf("fetch(%q).then(r => r.text())", spider.SearchURL(keyword, page, geoCode))
	var body string
	err := chromedp.Run(runCtx, chromedp.Evaluate(script, &body,
		func(p *runtime.EvaluateParams) *runtime.EvaluateParams {
			return p.WithAwaitPromise(true)
		},
	))
	if err != nil {
		return nil, fmt.Errorf("in-page fetch: %w", err)
	}
	return []byte(body), nil
}

// Close releases the browser. Called on every exit path of the owning
// worker.
func (s *Session) Close() error {
	s.taskCancel()
	s.allocCancel()
	return nil
}
