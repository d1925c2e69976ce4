// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package extract turns course text into deadline records by prompting a
// generative model and decoding its JSON reply.
package extract

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/pdiddy/deadline-tracker/internal/convert"
	"github.com/pdiddy/deadline-tracker/pkg/types"
)

const (
	defaultMaxDocumentChars     = 100000
	defaultMaxAnnouncementChars = 5000
	truncationMarker            = "\n... [truncated]"
)

// updateKeywords gate which announcements are worth a model call.
var updateKeywords = []string{
	"deadline", "due", "extended", "postponed", "rescheduled",
	"changed", "updated", "new date", "assignment", "exam", "quiz",
}

// AIBackend abstracts the Generative AI API so tests can supply a mock.
type AIBackend interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// NewBackend builds the backend selected by cfg.Provider.
func NewBackend(ctx context.Context, cfg types.AIConfig, httpClient *http.Client, rateLimitRetries int) (AIBackend, error) {
	switch cfg.Provider {
	case types.ProviderGemini:
		return NewGeminiBackend(ctx, cfg.APIKey, cfg.Model)
	case types.ProviderAnthropic, "":
		if cfg.APIKey == "" {
			return nil, errors.New("anthropic API key is required")
		}
		return &ClaudeBackend{
			APIKey:           cfg.APIKey,
			Model:            cfg.Model,
			Client:           httpClient,
			RateLimitRetries: rateLimitRetries,
		}, nil
	default:
		return nil, fmt.Errorf("unknown AI provider %q", cfg.Provider)
	}
}

// Extractor prompts a backend for deadlines in documents and announcements.
type Extractor struct {
	backend AIBackend
	cfg     types.ExtractionConfig
	logger  *zap.Logger

	// Now supplies the current-year context. Defaults to time.Now.
	Now func() time.Time
}

// New returns an Extractor. A nil logger discards output.
func New(backend AIBackend, cfg types.ExtractionConfig, logger *zap.Logger) *Extractor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Extractor{backend: backend, cfg: cfg, logger: logger, Now: time.Now}
}

// FromDocument extracts the deadlines in one document's text and stamps
// them with course. Empty text yields no deadlines and no error; model
// failures and malformed replies are returned for the caller to log.
func (e *Extractor) FromDocument(ctx context.Context, text, course string) ([]types.Deadline, error) {
	if strings.TrimSpace(text) == "" {
		e.logger.Warn("no text to extract from", zap.String("course", course))
		return nil, nil
	}

	prompt, err := renderPrompt(documentPromptTmpl, promptData{
		Course: course,
		Year:   e.Now().Year(),
		Text:   truncate(text, orDefault(e.cfg.MaxDocumentChars, defaultMaxDocumentChars)),
	})
	if err != nil {
		return nil, fmt.Errorf("rendering document prompt: %w", err)
	}

	e.logger.Info("extracting deadlines", zap.String("course", course))
	reply, err := e.complete(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("extracting deadlines for %s: %w", course, err)
	}

	deadlines, err := ParseResponse(reply)
	if err != nil {
		e.logger.Debug("model response", zap.String("text", reply))
		return nil, fmt.Errorf("parsing response for %s: %w", course, err)
	}
	for i := range deadlines {
		deadlines[i].Course = course
	}

	e.logger.Info("extracted deadlines", zap.String("course", course), zap.Int("count", len(deadlines)))
	return deadlines, nil
}

// FromAnnouncement extracts deadline updates from one announcement. An
// announcement that mentions no deadline keyword is skipped without a model
// call. Each record carries the announcement as provenance.
func (e *Extractor) FromAnnouncement(ctx context.Context, ann types.Announcement, course string) ([]types.Deadline, error) {
	message, err := convert.HTMLText(ann.Message)
	if err != nil {
		message = ann.Message
	}
	full := fmt.Sprintf("Title: %s\n\n%s", ann.Title, message)
	if !MentionsDeadline(full) {
		return nil, nil
	}

	e.logger.Info("checking announcement", zap.String("course", course), zap.String("title", ann.Title))

	prompt, err := renderPrompt(announcementPromptTmpl, promptData{
		Course:   course,
		Year:     e.Now().Year(),
		Text:     clip(full, orDefault(e.cfg.MaxAnnouncementChars, defaultMaxAnnouncementChars)),
		PostedAt: ann.PostedAt,
	})
	if err != nil {
		return nil, fmt.Errorf("rendering announcement prompt: %w", err)
	}

	reply, err := e.complete(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("processing announcement %q: %w", ann.Title, err)
	}
	found, err := ParseResponse(reply)
	if err != nil {
		return nil, fmt.Errorf("no valid JSON from announcement %q: %w", ann.Title, err)
	}

	for i := range found {
		found[i].Course = course
		found[i].Source = "Announcement: " + ann.Title
		found[i].AnnouncementDate = ann.PostedAt
	}
	if len(found) > 0 {
		e.logger.Info("found deadline updates", zap.String("title", ann.Title), zap.Int("count", len(found)))
	}
	return found, nil
}

// MentionsDeadline reports whether text contains any deadline keyword,
// case-insensitively.
func MentionsDeadline(text string) bool {
	lower := strings.ToLower(text)
	for _, kw := range updateKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// rawDeadline mirrors the reply schema. Weight and date are decoded loosely
// since models sometimes quote numbers or emit null.
type rawDeadline struct {
	Date     *string         `json:"date"`
	Title    string          `json:"title"`
	Type     string          `json:"type"`
	Weight   json.RawMessage `json:"weight"`
	Notes    *string         `json:"notes"`
	IsUpdate bool            `json:"is_update"`
}

// ParseResponse decodes a model reply into deadlines. A surrounding
// Markdown code fence (optionally tagged json) is removed first. Dates that
// are null or empty become types.DateTBD.
func ParseResponse(text string) ([]types.Deadline, error) {
	text = stripCodeFence(strings.TrimSpace(text))

	var raw []rawDeadline
	if err := json.Unmarshal([]byte(text), &raw); err != nil {
		return nil, fmt.Errorf("parsing AI response JSON: %w", err)
	}

	deadlines := make([]types.Deadline, 0, len(raw))
	for _, r := range raw {
		d := types.Deadline{
			Date:     types.DateTBD,
			Title:    strings.TrimSpace(r.Title),
			Type:     types.NormalizeType(r.Type),
			Weight:   parseWeight(r.Weight),
			IsUpdate: r.IsUpdate,
		}
		if r.Date != nil && strings.TrimSpace(*r.Date) != "" {
			d.Date = strings.TrimSpace(*r.Date)
		}
		if r.Notes != nil {
			d.Notes = *r.Notes
		}
		deadlines = append(deadlines, d)
	}
	return deadlines, nil
}

func stripCodeFence(text string) string {
	if !strings.HasPrefix(text, "```") {
		return text
	}
	parts := strings.Split(text, "```")
	if len(parts) < 2 {
		return text
	}
	body := parts[1]
	body = strings.TrimPrefix(body, "json")
	return strings.TrimSpace(body)
}

// parseWeight accepts a JSON number or a numeric string such as "15%".
// Null, zero-length, and non-numeric values yield nil.
func parseWeight(raw json.RawMessage) *float64 {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return &f
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil
	}
	s = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), "%"))
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &f
}

// truncate caps text at limit characters, appending a marker when cut.
func truncate(text string, limit int) string {
	r := []rune(text)
	if len(r) <= limit {
		return text
	}
	return string(r[:limit]) + truncationMarker
}

// clip caps text at limit characters without a marker.
func clip(text string, limit int) string {
	r := []rune(text)
	if len(r) <= limit {
		return text
	}
	return string(r[:limit])
}

func orDefault(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}

// backoffBase controls the base duration for exponential backoff. Tests
// override this to avoid real sleeps.
var backoffBase = time.Second

// complete calls the backend, retrying failures cfg.MaxRetries times with
// exponential backoff. MaxRetries 0 means a single attempt.
func (e *Extractor) complete(ctx context.Context, prompt string) (string, error) {
	maxRetries := e.cfg.MaxRetries
	if maxRetries < 0 {
		maxRetries = 0
	}

	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(math.Pow(2, float64(attempt-1))) * backoffBase
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(backoff):
			}
		}

		reply, err := e.backend.Complete(ctx, prompt)
		if err == nil {
			return reply, nil
		}
		lastErr = err
		if ctx.Err() != nil {
			return "", lastErr
		}
	}
	if maxRetries == 0 {
		return "", lastErr
	}
	return "", fmt.Errorf("after %d retries: %w", maxRetries, lastErr)
}
