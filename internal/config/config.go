// Package config loads and validates spider configuration via Viper.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/laborview/jobspider/internal/schedule"
)

// Config captures all service configuration knobs loaded via Viper.
type Config struct {
	Server    ServerConfig      `mapstructure:"server"`
	Crawler   CrawlerConfig     `mapstructure:"crawler"`
	Session   SessionConfig     `mapstructure:"session"`
	Output    OutputConfig      `mapstructure:"output"`
	Timer     TimerConfig       `mapstructure:"timer"`
	Logging   LoggingConfig     `mapstructure:"logging"`
	CityCodes map[string]string `mapstructure:"city_codes"`
}

// ServerConfig controls the HTTP trigger surface.
type ServerConfig struct {
	Port int `mapstructure:"port"`
}

// CrawlerConfig governs task building and fan-out behavior.
type CrawlerConfig struct {
	Cities             []string `mapstructure:"cities"`
	Keywords           []string `mapstructure:"keywords"`
	Limit              int      `mapstructure:"limit"`
	Concurrent         bool     `mapstructure:"concurrent"`
	StaggerMs          int      `mapstructure:"stagger_ms"`
	IdleTimeoutSeconds int      `mapstructure:"idle_timeout_seconds"`
}

// SessionConfig selects and tunes the automation session provider.
type SessionConfig struct {
	Provider          string `mapstructure:"provider"`
	Headless          bool   `mapstructure:"headless"`
	UserAgent         string `mapstructure:"user_agent"`
	NavTimeoutSeconds int    `mapstructure:"nav_timeout_seconds"`
	SettleSeconds     int    `mapstructure:"settle_seconds"`
}

// OutputConfig sets artifact locations.
type OutputConfig struct {
	CSVPath  string `mapstructure:"csv_path"`
	HTMLPath string `mapstructure:"html_path"`
}

// TimerConfig is the daily schedule window.
type TimerConfig struct {
	Enable          bool `mapstructure:"enable"`
	BeginHour       int  `mapstructure:"begin_hour"`
	BeginMinute     int  `mapstructure:"begin_minute"`
	EndHour         int  `mapstructure:"end_hour"`
	EndMinute       int  `mapstructure:"end_minute"`
	IntervalMinutes int  `mapstructure:"interval_minutes"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool `mapstructure:"development"`
}

// Session providers accepted by SessionConfig.Provider.
const (
	ProviderChromedp = "chromedp"
	ProviderColly    = "colly"
)

// Load builds a Config from disk/environment.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("JOBSPIDER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("crawler.limit", 999999)
	v.SetDefault("crawler.concurrent", true)
	v.SetDefault("crawler.stagger_ms", 1500)
	v.SetDefault("crawler.idle_timeout_seconds", 60)
	v.SetDefault("session.provider", ProviderChromedp)
	v.SetDefault("session.headless", true)
	v.SetDefault("session.nav_timeout_seconds", 45)
	v.SetDefault("session.settle_seconds", 3)
	v.SetDefault("output.csv_path", "data/qcwy.csv")
	v.SetDefault("output.html_path", "static/html/data.html")
	v.SetDefault("timer.enable", false)
	v.SetDefault("timer.interval_minutes", 60)
	v.SetDefault("logging.development", true)
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if c.Server.Port <= 0 {
		return fmt.Errorf("server.port must be > 0")
	}
	if c.Crawler.Limit < 1 {
		return fmt.Errorf("crawler.limit must be >= 1")
	}
	if c.Crawler.StaggerMs < 0 {
		return fmt.Errorf("crawler.stagger_ms must be >= 0")
	}
	if c.Crawler.IdleTimeoutSeconds <= 0 {
		return fmt.Errorf("crawler.idle_timeout_seconds must be > 0")
	}
	if c.Session.Provider != ProviderChromedp && c.Session.Provider != ProviderColly {
		return fmt.Errorf("session.provider must be %q or %q", ProviderChromedp, ProviderColly)
	}
	if c.Output.CSVPath == "" || c.Output.HTMLPath == "" {
		return fmt.Errorf("output paths must be set")
	}
	if c.Timer.Enable {
		if err := c.validateTimer(); err != nil {
			return err
		}
	}
	return nil
}

func (c Config) validateTimer() error {
	t := c.Timer
	if t.BeginHour < 0 || t.BeginHour > 23 || t.EndHour < 0 || t.EndHour > 23 {
		return fmt.Errorf("timer hours must be within 0-23")
	}
	if t.BeginMinute < 0 || t.BeginMinute > 59 || t.EndMinute < 0 || t.EndMinute > 59 {
		return fmt.Errorf("timer minutes must be within 0-59")
	}
	if t.IntervalMinutes < 1 {
		return fmt.Errorf("timer.interval_minutes must be >= 1")
	}
	begin := t.BeginHour*60 + t.BeginMinute
	end := t.EndHour*60 + t.EndMinute
	// Midnight-crossing windows are rejected rather than guessed at.
	if begin >= end {
		return fmt.Errorf("timer window must begin before it ends within one calendar day")
	}
	return nil
}

// Window converts the timer section into a schedule.Window.
func (c Config) Window() schedule.Window {
	return schedule.Window{
		Enable:          c.Timer.Enable,
		BeginHour:       c.Timer.BeginHour,
		BeginMinute:     c.Timer.BeginMinute,
		EndHour:         c.Timer.EndHour,
		EndMinute:       c.Timer.EndMinute,
		IntervalMinutes: c.Timer.IntervalMinutes,
	}
}

// Stagger returns the inter-launch delay.
func (c Config) Stagger() time.Duration {
	return time.Duration(c.Crawler.StaggerMs) * time.Millisecond
}

// IdleTimeout returns the sink's idle timeout.
func (c Config) IdleTimeout() time.Duration {
	return time.Duration(c.Crawler.IdleTimeoutSeconds) * time.Second
}

// NavTimeout returns the session navigation timeout.
func (c Config) NavTimeout() time.Duration {
	return time.Duration(c.Session.NavTimeoutSeconds) * time.Second
}

// SettleDelay returns the post-navigation settle delay.
func (c Config) SettleDelay() time.Duration {
	return time.Duration(c.Session.SettleSeconds) * time.Second
}
