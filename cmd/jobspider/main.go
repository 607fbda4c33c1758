// Package main wires together the jobspider binary.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/laborview/jobspider/internal/api"
	"github.com/laborview/jobspider/internal/batch"
	"github.com/laborview/jobspider/internal/clock/system"
	"github.com/laborview/jobspider/internal/config"
	"github.com/laborview/jobspider/internal/geo"
	"github.com/laborview/jobspider/internal/logging"
	"github.com/laborview/jobspider/internal/metrics"
	"github.com/laborview/jobspider/internal/schedule"
	chromedpsession "github.com/laborview/jobspider/internal/session/chromedp"
	collysession "github.com/laborview/jobspider/internal/session/colly"
	"github.com/laborview/jobspider/internal/spider"
)

func main() {
	cfgPath := flag.String("config", "", "Path to config file")
	serve := flag.Bool("serve", false, "Run the HTTP trigger server instead of a one-shot crawl")
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config failed: %v\n", err)
		os.Exit(1)
	}
	logger, err := logging.New(cfg.Logging.Development)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger init failed: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = logger.Sync()
	}()

	metrics.Init()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, *serve, logger); err != nil && !errors.Is(err, context.Canceled) {
		logger.Fatal("jobspider exited with error", zap.Error(err))
	}
}

func run(ctx context.Context, cfg config.Config, serve bool, logger *zap.Logger) error {
	sessions, err := buildSessionFactory(cfg, logger)
	if err != nil {
		return err
	}
	resolver := geo.NewResolver(geo.MergeTable(cfg.CityCodes), logger)
	runner := batch.NewRunner(batch.Options{
		CSVPath:     cfg.Output.CSVPath,
		HTMLPath:    cfg.Output.HTMLPath,
		IdleTimeout: cfg.IdleTimeout(),
		Stagger:     cfg.Stagger(),
	}, sessions, resolver, logger)
	clock := system.New()

	if serve {
		return serveHTTP(ctx, cfg, runner, clock, logger)
	}

	loop := schedule.NewLoop(cfg.Window(), func(ctx context.Context) error {
		_, err := runner.Run(ctx, batch.Params{
			Cities:     cfg.Crawler.Cities,
			Keywords:   cfg.Crawler.Keywords,
			Limit:      cfg.Crawler.Limit,
			Concurrent: cfg.Crawler.Concurrent,
		})
		return err
	}, clock, logger)
	return loop.Run(ctx)
}

func buildSessionFactory(cfg config.Config, logger *zap.Logger) (spider.SessionFactory, error) {
	switch cfg.Session.Provider {
	case config.ProviderChromedp:
		return chromedpsession.NewFactory(chromedpsession.Config{
			Headless:    cfg.Session.Headless,
			UserAgent:   cfg.Session.UserAgent,
			NavTimeout:  cfg.NavTimeout(),
			SettleDelay: cfg.SettleDelay(),
		}, logger), nil
	case config.ProviderColly:
		return collysession.NewFactory(collysession.Config{
			UserAgent: cfg.Session.UserAgent,
			Timeout:   cfg.NavTimeout(),
		}, logger), nil
	default:
		return nil, fmt.Errorf("unknown session provider: %s", cfg.Session.Provider)
	}
}

func serveHTTP(ctx context.Context, cfg config.Config, runner *batch.Runner, clock spider.Clock, logger *zap.Logger) error {
	server := api.NewServer(runner, clock, logger)
	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           server.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server listening", zap.Int("port", cfg.Server.Port))
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	logger.Info("http server stopped")
	return nil
}
