// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package secrets loads API keys and credentials from a directory of plain-text files.
// Each file in the directory represents one secret: the filename is the key name and the
// file contents (trimmed) are the value.
//
// Supported key files: canvas-api-token, anthropic-api-key, gemini-api-key, telegram-bot-token.
package secrets

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/pdiddy/deadline-tracker/pkg/types"
)

// Key file names recognised by Apply.
const (
	CanvasAPIToken   = "canvas-api-token"
	AnthropicAPIKey  = "anthropic-api-key"
	GeminiAPIKey     = "gemini-api-key"
	TelegramBotToken = "telegram-bot-token"
)

// Load reads all files in dir and returns a map of filename to trimmed contents.
// A missing directory or missing files are not errors; Load returns an empty map.
// Unreadable files are logged as warnings but do not abort.
func Load(dir string, logger *zap.Logger) (map[string]string, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("reading secrets directory %s: %w", dir, err)
	}

	secrets := make(map[string]string)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if strings.HasPrefix(name, ".") {
			continue
		}

		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			logger.Warn("could not read secret", zap.String("name", name), zap.Error(err))
			continue
		}

		value := strings.TrimSpace(string(data))
		if value != "" {
			secrets[name] = value
		}
	}

	return secrets, nil
}

// Apply fills credentials in cfg that are still empty from the loaded
// secrets. Values already set from flags, config, or environment win.
func Apply(cfg *types.Config, s map[string]string) {
	fill := func(dst *string, key string) {
		if *dst == "" {
			*dst = s[key]
		}
	}

	fill(&cfg.Canvas.APIToken, CanvasAPIToken)
	switch cfg.Extraction.Provider {
	case types.ProviderGemini:
		fill(&cfg.Extraction.APIKey, GeminiAPIKey)
	default:
		fill(&cfg.Extraction.APIKey, AnthropicAPIKey)
	}
	fill(&cfg.Notify.TelegramToken, TelegramBotToken)
}
