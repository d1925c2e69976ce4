// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"github.com/pdiddy/deadline-tracker/internal/search"
	"github.com/pdiddy/deadline-tracker/internal/secrets"
	"github.com/pdiddy/deadline-tracker/internal/snapshot"
	"github.com/pdiddy/deadline-tracker/pkg/types"
)

func newTestViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix("DEADLINE_TRACKER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)
	bindEnv(v)
	return v
}

func TestBuildConfig_Defaults(t *testing.T) {
	t.Setenv("CANVAS_API_TOKEN", "canvas-token")
	t.Setenv("ANTHROPIC_API_KEY", "sk-ant")

	cfg, err := buildConfig(newTestViper(), nil)
	require.NoError(t, err)

	assert.Equal(t, "canvas-token", cfg.Canvas.APIToken)
	assert.Equal(t, "https://canvas.nus.edu.sg/api/v1", cfg.Canvas.APIURL)
	assert.Equal(t, 60*time.Second, cfg.Canvas.Timeout)
	assert.Equal(t, 50, cfg.Canvas.AnnouncementLimit)
	assert.Equal(t, types.ProviderAnthropic, cfg.Extraction.Provider)
	assert.Equal(t, "sk-ant", cfg.Extraction.APIKey)
	assert.Equal(t, 0, cfg.Extraction.MaxRetries)
	assert.Equal(t, 100000, cfg.Extraction.MaxDocumentChars)
	assert.Equal(t, "deadlines.json", cfg.Output.SnapshotFile)
	assert.Equal(t, "0 8 * * *", cfg.Schedule.Cron)
	assert.NoError(t, cfg.Validate())
}

func TestBuildConfig_GeminiKeyAndSecrets(t *testing.T) {
	t.Setenv("CANVAS_API_TOKEN", "")
	t.Setenv("GEMINI_API_KEY", "g-key")
	t.Setenv("TELEGRAM_CHAT_ID", "4242")

	v := newTestViper()
	v.Set("extraction.provider", "gemini")

	cfg, err := buildConfig(v, map[string]string{
		secrets.CanvasAPIToken:   "from-secrets",
		secrets.TelegramBotToken: "bot-token",
	})
	require.NoError(t, err)

	assert.Equal(t, types.ProviderGemini, cfg.Extraction.Provider)
	assert.Equal(t, "g-key", cfg.Extraction.APIKey)
	assert.Equal(t, "from-secrets", cfg.Canvas.APIToken)
	assert.Equal(t, "bot-token", cfg.Notify.TelegramToken)
	assert.Equal(t, int64(4242), cfg.Notify.TelegramChatID)
	assert.True(t, cfg.Notify.Enabled())
}

func TestBuildConfig_MissingCredentials(t *testing.T) {
	t.Setenv("CANVAS_API_TOKEN", "")
	t.Setenv("ANTHROPIC_API_KEY", "")

	cfg, err := buildConfig(newTestViper(), nil)
	require.NoError(t, err)
	assert.ErrorIs(t, cfg.Validate(), types.ErrMissingCredentials)
}

func TestNewLogger(t *testing.T) {
	file := filepath.Join(t.TempDir(), "scraper.log")
	l, err := newLogger(true, file)
	require.NoError(t, err)
	assert.True(t, l.Core().Enabled(zapcore.DebugLevel), "verbose enables debug")
	l.Info("hello")
	_ = l.Sync()
	assert.FileExists(t, file)
}

func TestDiffCommand(t *testing.T) {
	dir := t.TempDir()
	oldPath := filepath.Join(dir, "old.json")
	newPath := filepath.Join(dir, "new.json")
	require.NoError(t, snapshot.Save(oldPath, []types.Deadline{
		{Date: "2024-10-08", Title: "Midterm", Course: "CS101"},
		{Date: "2024-09-10", Title: "Lab 0", Course: "CS101"},
	}))
	require.NoError(t, snapshot.Save(newPath, []types.Deadline{
		{Date: "2024-10-15", Title: "Midterm", Course: "CS101"},
		{Date: "TBD", Title: "Project", Course: "CS101"},
	}))

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"diff", oldPath, newPath})
	t.Cleanup(func() { rootCmd.SetOut(nil); rootCmd.SetArgs(nil) })
	require.NoError(t, rootCmd.Execute())

	var cs types.ChangeSet
	require.NoError(t, json.Unmarshal(out.Bytes(), &cs))
	require.Len(t, cs.Added, 1)
	assert.Equal(t, "Project", cs.Added[0].Title)
	require.Len(t, cs.Removed, 1)
	assert.Equal(t, "Lab 0", cs.Removed[0].Title)
	require.Len(t, cs.Modified, 1)
	assert.Equal(t, "2024-10-08", cs.Modified[0].OldDate)
}

func TestShowFiltersBySearch(t *testing.T) {
	records := []types.Deadline{
		{Date: "2024-10-15", Title: "Midterm", Type: types.TypeExam, Course: "CS101"},
		{Date: "2024-10-20", Title: "Essay", Type: types.TypeAssignment, Course: "EN1101"},
	}
	var out bytes.Buffer
	require.NoError(t, show(&out, records, nil, search.ParseQuery("exam"), false))
	assert.Contains(t, out.String(), "Midterm")
	assert.NotContains(t, out.String(), "Essay")
}

func TestHTTPClients(t *testing.T) {
	cfg := types.Config{Canvas: types.CanvasConfig{HTTPConfig: types.HTTPConfig{Timeout: 60 * time.Second}}}
	canvasClient, modelClient := httpClients(cfg)

	assert.Equal(t, 60*time.Second, canvasClient.Timeout)
	assert.Zero(t, modelClient.Timeout, "model calls are not cut off by the Canvas timeout")
	assert.NotSame(t, canvasClient, modelClient)
}
