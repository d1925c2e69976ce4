// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"errors"
	"time"
)

// ErrMissingCredentials is returned when a required API credential is not
// configured. The run aborts before any work begins.
var ErrMissingCredentials = errors.New("missing credentials")

// HTTPConfig holds shared HTTP settings used by stages that make network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout. Zero leaves the transport default.
	Timeout time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "deadline-tracker/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent" mapstructure:"user_agent"`

	// RateLimitRetries is the number of retries on HTTP 429. Zero disables retries.
	RateLimitRetries int `json:"rate_limit_retries" yaml:"rate_limit_retries" mapstructure:"rate_limit_retries"`
}

// CanvasConfig holds settings for the Canvas LMS API.
type CanvasConfig struct {
	HTTPConfig `yaml:",inline" mapstructure:",squash"`

	// APIURL is the API base, e.g. "https://canvas.nus.edu.sg/api/v1".
	APIURL string `json:"api_url" yaml:"api_url" mapstructure:"api_url"`

	// APIToken is the Canvas personal access token.
	APIToken string `json:"api_token,omitempty" yaml:"api_token,omitempty" mapstructure:"api_token"`

	// PerPage is the page size requested from list endpoints (default 100).
	PerPage int `json:"per_page" yaml:"per_page" mapstructure:"per_page"`

	// AnnouncementLimit caps the announcements read per course (default 50).
	AnnouncementLimit int `json:"announcement_limit" yaml:"announcement_limit" mapstructure:"announcement_limit"`

	// DownloadDir is where course files are cached (default "downloaded_materials").
	DownloadDir string `json:"download_dir" yaml:"download_dir" mapstructure:"download_dir"`
}

// AIProvider selects the generative model backend.
type AIProvider string

const (
	ProviderAnthropic AIProvider = "anthropic"
	ProviderGemini    AIProvider = "gemini"
)

// AIConfig holds shared settings for stages that call a Generative AI API.
type AIConfig struct {
	// Provider selects the backend: anthropic or gemini.
	Provider AIProvider `json:"provider" yaml:"provider" mapstructure:"provider"`

	// Model is the AI model identifier (e.g. "claude-sonnet-4-20250514").
	Model string `json:"model" yaml:"model" mapstructure:"model"`

	// APIKey is the authentication key for the AI API.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty" mapstructure:"api_key"`

	// MaxRetries is the number of retry attempts for failed API calls (default 0).
	MaxRetries int `json:"max_retries" yaml:"max_retries" mapstructure:"max_retries"`
}

// ExtractionConfig holds settings for the deadline extraction stage.
type ExtractionConfig struct {
	AIConfig `yaml:",inline" mapstructure:",squash"`

	// MaxDocumentChars truncates document text sent to the model (default 100000).
	MaxDocumentChars int `json:"max_document_chars" yaml:"max_document_chars" mapstructure:"max_document_chars"`

	// MaxAnnouncementChars truncates announcement text (default 5000).
	MaxAnnouncementChars int `json:"max_announcement_chars" yaml:"max_announcement_chars" mapstructure:"max_announcement_chars"`

	// CachePath is the SQLite extraction cache. Empty disables the cache.
	CachePath string `json:"cache_path" yaml:"cache_path" mapstructure:"cache_path"`
}

// ConversionConfig holds settings for document text extraction.
type ConversionConfig struct {
	// PdftotextBin is the pdftotext binary name or path (default "pdftotext").
	PdftotextBin string `json:"pdftotext_bin" yaml:"pdftotext_bin" mapstructure:"pdftotext_bin"`

	// MarkitdownImage is the container image used when pdftotext is missing.
	// Empty disables the container fallback.
	MarkitdownImage string `json:"markitdown_image" yaml:"markitdown_image" mapstructure:"markitdown_image"`
}

// OutputConfig names the persisted artefacts of a run.
type OutputConfig struct {
	// Dir is the directory holding the artefacts (default ".").
	Dir string `json:"dir" yaml:"dir" mapstructure:"dir"`

	SnapshotFile string `json:"snapshot_file" yaml:"snapshot_file" mapstructure:"snapshot_file"`
	ChangesFile  string `json:"changes_file" yaml:"changes_file" mapstructure:"changes_file"`
	ReportFile   string `json:"report_file" yaml:"report_file" mapstructure:"report_file"`
}

// NotifyConfig holds the optional Telegram change notification settings.
type NotifyConfig struct {
	TelegramToken  string `json:"telegram_token,omitempty" yaml:"telegram_token,omitempty" mapstructure:"telegram_token"`
	TelegramChatID int64  `json:"telegram_chat_id" yaml:"telegram_chat_id" mapstructure:"telegram_chat_id"`
}

// Enabled reports whether both token and chat are configured.
func (n NotifyConfig) Enabled() bool {
	return n.TelegramToken != "" && n.TelegramChatID != 0
}

// LogConfig controls the zap logger.
type LogConfig struct {
	Verbose bool   `json:"verbose" yaml:"verbose" mapstructure:"verbose"`
	File    string `json:"file" yaml:"file" mapstructure:"file"`
}

// ScheduleConfig holds watch mode settings.
type ScheduleConfig struct {
	Cron     string `json:"cron" yaml:"cron" mapstructure:"cron"`
	Timezone string `json:"timezone" yaml:"timezone" mapstructure:"timezone"`
}

// Config is built once at process start and passed to every collaborator.
type Config struct {
	Canvas     CanvasConfig     `json:"canvas" yaml:"canvas" mapstructure:"canvas"`
	Extraction ExtractionConfig `json:"extraction" yaml:"extraction" mapstructure:"extraction"`
	Conversion ConversionConfig `json:"conversion" yaml:"conversion" mapstructure:"conversion"`
	Output     OutputConfig     `json:"output" yaml:"output" mapstructure:"output"`
	Notify     NotifyConfig     `json:"notify" yaml:"notify" mapstructure:"notify"`
	Log        LogConfig        `json:"log" yaml:"log" mapstructure:"log"`
	Schedule   ScheduleConfig   `json:"schedule" yaml:"schedule" mapstructure:"schedule"`
}

// Validate checks the credentials a full run needs.
func (c Config) Validate() error {
	if c.Canvas.APIToken == "" {
		return errors.Join(ErrMissingCredentials, errors.New("CANVAS_API_TOKEN not set"))
	}
	if c.Extraction.APIKey == "" {
		switch c.Extraction.Provider {
		case ProviderGemini:
			return errors.Join(ErrMissingCredentials, errors.New("GEMINI_API_KEY not set"))
		default:
			return errors.Join(ErrMissingCredentials, errors.New("ANTHROPIC_API_KEY not set"))
		}
	}
	return nil
}
