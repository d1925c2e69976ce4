// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/pdiddy/deadline-tracker/internal/canvas"
	"github.com/pdiddy/deadline-tracker/internal/cache"
	"github.com/pdiddy/deadline-tracker/internal/scheduler"
	"github.com/pdiddy/deadline-tracker/internal/secrets"
	"github.com/pdiddy/deadline-tracker/internal/snapshot"
	"github.com/pdiddy/deadline-tracker/pkg/types"
)

const (
	defaultTimeout      = 60 * time.Second
	defaultUserAgent    = "deadline-tracker/0.1"
	defaultDownloadDir  = "downloaded_materials"
	defaultMarkitdown   = "markitdown:latest"
	defaultAnnouncement = 50
)

// setDefaults registers every configuration key so AutomaticEnv can
// resolve DEADLINE_TRACKER_* overrides during Unmarshal.
func setDefaults(v *viper.Viper) {
	v.SetDefault("canvas.api_url", canvas.DefaultAPIURL)
	v.SetDefault("canvas.api_token", "")
	v.SetDefault("canvas.timeout", defaultTimeout)
	v.SetDefault("canvas.user_agent", defaultUserAgent)
	v.SetDefault("canvas.rate_limit_retries", 0)
	v.SetDefault("canvas.per_page", 100)
	v.SetDefault("canvas.announcement_limit", defaultAnnouncement)
	v.SetDefault("canvas.download_dir", defaultDownloadDir)

	v.SetDefault("extraction.provider", string(types.ProviderAnthropic))
	v.SetDefault("extraction.model", "")
	v.SetDefault("extraction.api_key", "")
	v.SetDefault("extraction.max_retries", 0)
	v.SetDefault("extraction.max_document_chars", 100000)
	v.SetDefault("extraction.max_announcement_chars", 5000)
	v.SetDefault("extraction.cache_path", cache.DefaultPath)

	v.SetDefault("conversion.pdftotext_bin", "pdftotext")
	v.SetDefault("conversion.markitdown_image", defaultMarkitdown)

	v.SetDefault("output.dir", ".")
	v.SetDefault("output.snapshot_file", snapshot.DefaultSnapshotFile)
	v.SetDefault("output.changes_file", snapshot.DefaultChangesFile)
	v.SetDefault("output.report_file", snapshot.DefaultReportFile)

	v.SetDefault("notify.telegram_token", "")
	v.SetDefault("notify.telegram_chat_id", 0)

	v.SetDefault("log.verbose", false)
	v.SetDefault("log.file", "")

	v.SetDefault("schedule.cron", scheduler.DefaultSpec)
	v.SetDefault("schedule.timezone", "")
}

// bindEnv maps the plain environment names used by existing .env files.
// The prefixed DEADLINE_TRACKER_* form still works for every key.
func bindEnv(v *viper.Viper) {
	_ = v.BindEnv("canvas.api_token", "DEADLINE_TRACKER_CANVAS_API_TOKEN", "CANVAS_API_TOKEN")
	_ = v.BindEnv("canvas.api_url", "DEADLINE_TRACKER_CANVAS_API_URL", "CANVAS_API_URL")
	_ = v.BindEnv("notify.telegram_token", "DEADLINE_TRACKER_NOTIFY_TELEGRAM_TOKEN", "TELEGRAM_BOT_TOKEN")
	_ = v.BindEnv("notify.telegram_chat_id", "DEADLINE_TRACKER_NOTIFY_TELEGRAM_CHAT_ID", "TELEGRAM_CHAT_ID")
}

// buildConfig resolves the single Config value handed to every component.
// Model keys fall back to the provider's conventional variable, then to
// .secrets/.
func buildConfig(v *viper.Viper, s map[string]string) (types.Config, error) {
	var cfg types.Config
	if err := v.Unmarshal(&cfg); err != nil {
		return types.Config{}, fmt.Errorf("decoding configuration: %w", err)
	}

	if cfg.Extraction.APIKey == "" {
		switch cfg.Extraction.Provider {
		case types.ProviderGemini:
			cfg.Extraction.APIKey = envFirst("GEMINI_API_KEY", "GOOGLE_API_KEY")
		default:
			cfg.Extraction.APIKey = envFirst("ANTHROPIC_API_KEY")
		}
	}
	secrets.Apply(&cfg, s)
	return cfg, nil
}

func envFirst(names ...string) string {
	for _, n := range names {
		if val := os.Getenv(n); val != "" {
			return val
		}
	}
	return ""
}

// newLogger builds the console logger. A non-empty file adds a second sink.
func newLogger(verbose bool, file string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Encoding = "console"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.DisableStacktrace = true
	cfg.Sampling = nil
	if verbose {
		cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	}
	if file != "" {
		cfg.OutputPaths = append(cfg.OutputPaths, file)
	}
	l, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("building logger: %w", err)
	}
	return l, nil
}
