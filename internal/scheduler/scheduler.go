// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package scheduler runs a job on a cron schedule for watch mode.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// DefaultSpec runs the job every day at 08:00.
const DefaultSpec = "0 8 * * *"

// Job is one scheduled unit of work.
type Job func(ctx context.Context) error

// Scheduler triggers a Job on a cron expression. Runs never overlap: a tick
// that fires while the previous run is still busy is skipped.
type Scheduler struct {
	cron     *cron.Cron
	location *time.Location
	entry    cron.EntryID
	logger   *zap.Logger

	mu      sync.Mutex
	running bool
}

// New parses spec (standard five-field cron, or descriptors like "@daily")
// in timezone and binds job to it. An empty timezone means local time.
func New(spec, timezone string, job Job, logger *zap.Logger) (*Scheduler, error) {
	if job == nil {
		return nil, errors.New("job must not be nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if spec == "" {
		spec = DefaultSpec
	}

	loc := time.Local
	if timezone != "" {
		l, err := time.LoadLocation(timezone)
		if err != nil {
			return nil, fmt.Errorf("load timezone: %w", err)
		}
		loc = l
	}

	s := &Scheduler{
		cron:     cron.New(cron.WithLocation(loc)),
		location: loc,
		logger:   logger,
	}
	id, err := s.cron.AddFunc(spec, func() { s.runOnce(context.Background(), job) })
	if err != nil {
		return nil, fmt.Errorf("add cron %q: %w", spec, err)
	}
	s.entry = id
	return s, nil
}

// Location returns the scheduler's time zone.
func (s *Scheduler) Location() *time.Location {
	return s.location
}

// Next returns the next activation time.
func (s *Scheduler) Next() time.Time {
	return s.cron.Entry(s.entry).Next
}

// Run starts the cron loop and blocks until ctx is cancelled, then waits
// for an in-flight job to finish.
func (s *Scheduler) Run(ctx context.Context) {
	s.cron.Start()
	s.logger.Info("scheduler started", zap.Time("next", s.Next()))
	<-ctx.Done()
	stopped := s.cron.Stop()
	<-stopped.Done()
	s.logger.Info("scheduler stopped")
}

func (s *Scheduler) runOnce(ctx context.Context, job Job) {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		s.logger.Warn("previous run still in progress, skipping tick")
		return
	}
	s.running = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
	}()

	if err := job(ctx); err != nil {
		s.logger.Error("scheduled run failed", zap.Error(err))
	}
}
