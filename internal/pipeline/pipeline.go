// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pipeline runs one full scrape: authenticate with Canvas, pull
// each course's intro documents and announcements, extract deadlines,
// reconcile against the previous snapshot, and persist the artefacts.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/pdiddy/deadline-tracker/internal/cache"
	"github.com/pdiddy/deadline-tracker/internal/canvas"
	"github.com/pdiddy/deadline-tracker/internal/reconcile"
	"github.com/pdiddy/deadline-tracker/internal/report"
	"github.com/pdiddy/deadline-tracker/internal/snapshot"
	"github.com/pdiddy/deadline-tracker/pkg/types"
)

// maxListedFiles caps the available-files hint for courses without intro
// documents.
const maxListedFiles = 10

// Canvas is the subset of the Canvas client the pipeline uses.
type Canvas interface {
	CurrentUser(ctx context.Context) (types.User, error)
	Courses(ctx context.Context) ([]types.Course, error)
	Files(ctx context.Context, courseID int64) ([]types.File, error)
	Announcements(ctx context.Context, courseID int64, limit int) ([]types.Announcement, error)
	Download(ctx context.Context, fileURL, dest string) error
}

// TextSource returns the plain text of a downloaded document, or "" when
// the format is unsupported or parsing fails.
type TextSource interface {
	Text(path string) string
}

// Extractor turns text into deadlines.
type Extractor interface {
	FromDocument(ctx context.Context, text, course string) ([]types.Deadline, error)
	FromAnnouncement(ctx context.Context, ann types.Announcement, course string) ([]types.Deadline, error)
}

// Cache memoizes extraction results. Optional.
type Cache interface {
	Get(ctx context.Context, key cache.Key) ([]types.Deadline, bool, error)
	Put(ctx context.Context, key cache.Key, deadlines []types.Deadline) error
}

// Notifier is told about non-empty change sets. Optional.
type Notifier interface {
	Notify(ctx context.Context, cs types.ChangeSet) error
}

// Options tune a single run.
type Options struct {
	// NoCache ignores cached extractions and previously downloaded files.
	// Fresh results are still written to the cache.
	NoCache bool
}

// Stats counts the work done in one run.
type Stats struct {
	Courses       int
	Files         int
	IntroFiles    int
	Announcements int
	CacheHits     int
	Failures      int
}

// Result is the outcome of a run.
type Result struct {
	User types.User

	// Deadlines is the full extracted list, in extraction order.
	Deadlines []types.Deadline

	// Previous is the snapshot loaded at the start of the run.
	Previous []types.Deadline

	// Changes is nil on a first run (no previous snapshot).
	Changes *types.ChangeSet

	// Report is the Markdown written to the report file.
	Report string

	// Duplicates lists identity keys that occur more than once.
	Duplicates []string

	Stats Stats
}

// Runner wires the collaborators of a run. Canvas, Text, and Extractor are
// required.
type Runner struct {
	Canvas    Canvas
	Text      TextSource
	Extractor Extractor
	Cache     Cache
	Notifier  Notifier

	Config  types.Config
	Options Options
	Logger  *zap.Logger

	// Now stamps the report header. Defaults to time.Now.
	Now func() time.Time
}

// Run executes one scrape. It returns an error only for failures that make
// the whole run meaningless: missing credentials, failed authentication,
// an unreachable course list, or unwritable artefacts. Everything else is
// logged and skipped.
func (r *Runner) Run(ctx context.Context) (Result, error) {
	logger := r.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	now := r.Now
	if now == nil {
		now = time.Now
	}
	if err := r.Config.Validate(); err != nil {
		return Result{}, err
	}
	if r.Canvas == nil || r.Text == nil || r.Extractor == nil {
		return Result{}, errors.New("pipeline: canvas, text source, and extractor are required")
	}

	paths := snapshot.PathsFor(r.Config.Output)
	var res Result

	logger.Info("starting canvas deadline scraper")

	old, err := snapshot.Load(paths.Snapshot)
	if err != nil {
		logger.Warn("could not load previous deadlines", zap.String("path", paths.Snapshot), zap.Error(err))
		old = nil
	} else if len(old) > 0 {
		logger.Info("loaded previous deadlines for change detection", zap.Int("count", len(old)))
	}
	res.Previous = old

	user, err := r.Canvas.CurrentUser(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("failed to authenticate with Canvas API: %w", err)
	}
	res.User = user
	logger.Info("authenticated", zap.String("name", user.Name))

	courses, err := r.Canvas.Courses(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("listing enrolled courses: %w", err)
	}
	logger.Info("found enrolled courses", zap.Int("count", len(courses)))

	all := []types.Deadline{}
	for _, course := range courses {
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}
		res.Stats.Courses++
		all = append(all, r.processCourse(ctx, logger, course, &res.Stats)...)
	}
	res.Deadlines = all

	if dups := reconcile.Duplicates(all); len(dups) > 0 {
		res.Duplicates = dups
		logger.Warn("duplicate deadline keys, last occurrence wins", zap.Strings("keys", dups))
	}

	if len(old) > 0 {
		logger.Info("detecting changes from previous run")
		cs := reconcile.Reconcile(old, all)
		res.Changes = &cs
		if cs.IsEmpty() {
			logger.Info("no changes detected")
		} else {
			logger.Info("found changes",
				zap.Int("total", cs.Total()),
				zap.Int("added", len(cs.Added)),
				zap.Int("modified", len(cs.Modified)),
				zap.Int("removed", len(cs.Removed)))
		}
	}

	logger.Info("total deadlines extracted", zap.Int("count", len(all)))

	// Snapshot last, so a failed write leaves the previous one for the next diff.
	res.Report = report.Render(all, res.Changes, report.Options{Now: now()})
	if err := snapshot.WriteReport(paths.Report, res.Report); err != nil {
		return res, err
	}
	logger.Info("saved report", zap.String("path", paths.Report))

	changed := res.Changes != nil && !res.Changes.IsEmpty()
	if changed {
		if err := snapshot.SaveChanges(paths.Changes, *res.Changes); err != nil {
			return res, err
		}
		logger.Info("saved changes", zap.String("path", paths.Changes))
	} else if err := snapshot.ClearChanges(paths.Changes); err != nil {
		return res, err
	}

	if err := snapshot.Save(paths.Snapshot, all); err != nil {
		return res, err
	}
	logger.Info("saved deadlines", zap.String("path", paths.Snapshot))

	if changed && r.Notifier != nil {
		if err := r.Notifier.Notify(ctx, *res.Changes); err != nil {
			logger.Warn("change notification failed", zap.Error(err))
		} else {
			logger.Info("change notification sent")
		}
	}

	logger.Info("done", zap.Int("courses", res.Stats.Courses), zap.Int("failures", res.Stats.Failures))
	return res, nil
}

func (r *Runner) processCourse(ctx context.Context, logger *zap.Logger, course types.Course, stats *Stats) []types.Deadline {
	name := course.DisplayName()
	log := logger.With(zap.String("course", name))
	log.Info("processing course")

	var out []types.Deadline

	files, err := r.Canvas.Files(ctx, course.ID)
	if err != nil {
		log.Error("listing course files", zap.Error(err))
		stats.Failures++
	}
	stats.Files += len(files)
	log.Info("found files", zap.Int("count", len(files)))

	var intro []types.File
	for _, f := range files {
		if canvas.IsIntroDocument(f.Filename) {
			intro = append(intro, f)
		}
	}

	if len(intro) == 0 {
		logAvailableFiles(log, files)
	} else {
		log.Info("found intro documents", zap.Int("count", len(intro)))
		stats.IntroFiles += len(intro)
		for _, f := range intro {
			out = append(out, r.processFile(ctx, log, course, f, stats)...)
		}
	}

	log.Info("checking announcements for updates")
	anns, err := r.Canvas.Announcements(ctx, course.ID, r.Config.Canvas.AnnouncementLimit)
	if err != nil {
		log.Error("listing announcements", zap.Error(err))
		stats.Failures++
		return out
	}
	stats.Announcements += len(anns)
	log.Info("found announcements", zap.Int("count", len(anns)))

	var updates []types.Deadline
	for _, ann := range anns {
		key := cache.Key{Kind: cache.KindAnnouncement, CourseID: course.ID, SourceID: ann.ID, Version: ann.PostedAt}
		found, ok := r.cached(ctx, log, key)
		if ok {
			stats.CacheHits++
		} else {
			found, err = r.Extractor.FromAnnouncement(ctx, ann, name)
			if err != nil {
				log.Error("failed to extract announcement", zap.String("title", ann.Title), zap.Error(err))
				stats.Failures++
				continue
			}
			r.remember(ctx, log, key, found)
		}
		updates = append(updates, found...)
	}
	if len(updates) > 0 {
		log.Info("extracted deadline updates from announcements", zap.Int("count", len(updates)))
	}
	return append(out, updates...)
}

func (r *Runner) processFile(ctx context.Context, log *zap.Logger, course types.Course, f types.File, stats *Stats) []types.Deadline {
	name := course.DisplayName()
	if f.URL == "" {
		return nil
	}

	key := cache.Key{Kind: cache.KindFile, CourseID: course.ID, SourceID: f.ID, Version: f.UpdatedAt}
	if deadlines, ok := r.cached(ctx, log, key); ok {
		log.Info("using cached extraction", zap.String("file", f.Filename), zap.Int("count", len(deadlines)))
		stats.CacheHits++
		return deadlines
	}

	dest := canvas.LocalPath(r.Config.Canvas.DownloadDir, name, f.Filename)
	if _, err := os.Stat(dest); err != nil || r.Options.NoCache {
		if err := r.Canvas.Download(ctx, f.URL, dest); err != nil {
			log.Error("failed to download file", zap.String("file", f.Filename), zap.Error(err))
			stats.Failures++
			return nil
		}
	}

	log.Info("parsing", zap.String("file", f.Filename))
	text := r.Text.Text(dest)
	if text == "" {
		log.Warn("no text extracted", zap.String("file", f.Filename))
		return nil
	}

	deadlines, err := r.Extractor.FromDocument(ctx, text, name)
	if err != nil {
		log.Error("failed to extract deadlines", zap.String("file", f.Filename), zap.Error(err))
		stats.Failures++
		return nil
	}
	r.remember(ctx, log, key, deadlines)
	return deadlines
}

// cached looks key up unless caching is off or the source has no version.
func (r *Runner) cached(ctx context.Context, log *zap.Logger, key cache.Key) ([]types.Deadline, bool) {
	if r.Cache == nil || r.Options.NoCache || key.Version == "" {
		return nil, false
	}
	deadlines, ok, err := r.Cache.Get(ctx, key)
	if err != nil {
		log.Warn("reading extraction cache", zap.Error(err))
		return nil, false
	}
	return deadlines, ok
}

func (r *Runner) remember(ctx context.Context, log *zap.Logger, key cache.Key, deadlines []types.Deadline) {
	if r.Cache == nil || key.Version == "" {
		return
	}
	if err := r.Cache.Put(ctx, key, deadlines); err != nil {
		log.Warn("writing extraction cache", zap.Error(err))
	}
}

func logAvailableFiles(log *zap.Logger, files []types.File) {
	log.Warn("no intro documents found")
	shown := files
	if len(shown) > maxListedFiles {
		shown = shown[:maxListedFiles]
	}
	names := make([]string, 0, len(shown))
	for _, f := range shown {
		names = append(names, f.Filename)
	}
	fields := []zap.Field{zap.Strings("files", names)}
	if extra := len(files) - len(shown); extra > 0 {
		fields = append(fields, zap.Int("more", extra))
	}
	log.Info("available files", fields...)
	log.Info("tip: intro docs should contain keywords like: intro, syllabus, L0, L01, Topic 0, etc.")
}
