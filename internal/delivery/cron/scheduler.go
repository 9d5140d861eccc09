package cron

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	cron "github.com/robfig/cron/v3"

	"slidecast/config"
	"slidecast/internal/domain"
	"slidecast/internal/infrastructure/ffmpeg"
	"slidecast/internal/logger"
)

// CurrentRender reports the artifact the session still holds.
type CurrentRender interface {
	Current() *domain.RenderResult
}

// Scheduler runs the artifact retention sweep on a cron schedule.
type Scheduler struct {
	cron    *cron.Cron
	config  *config.Config
	current CurrentRender
	now     func() time.Time
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// SweepResult summarizes one retention pass.
type SweepResult struct {
	Removed int
	Freed   int64
}

// NewScheduler creates a new cron scheduler. current may be nil.
func NewScheduler(cfg *config.Config, current CurrentRender) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())

	return &Scheduler{
		cron:    cron.New(cron.WithSeconds()),
		config:  cfg,
		current: current,
		now:     time.Now,
		ctx:     ctx,
		cancel:  cancel,
	}
}

// Start schedules the sweep and runs it once immediately.
func (s *Scheduler) Start() error {
	schedule := normalizeSchedule(s.config.RetentionSchedule)
	jobID, err := s.cron.AddFunc(schedule, s.sweepJob)
	if err != nil {
		return fmt.Errorf("failed to schedule retention job: %w", err)
	}
	logger.Info().Int("job_id", int(jobID)).Str("schedule", schedule).Msg("scheduled artifact retention job")

	s.cron.Start()
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.sweepJob()
	}()
	return nil
}

// Stop stops the cron scheduler and waits for a running sweep.
func (s *Scheduler) Stop() {
	s.cancel()
	<-s.cron.Stop().Done()
	s.wg.Wait()
	logger.Info().Msg("cron scheduler stopped")
}

func (s *Scheduler) sweepJob() {
	start := time.Now()
	res, err := s.Sweep(s.ctx)
	if err != nil {
		logger.Error().Err(err).Msg("artifact retention sweep failed")
		return
	}
	logger.Info().
		Int("removed", res.Removed).
		Str("freed", humanize.IBytes(uint64(res.Freed))).
		Dur("elapsed", time.Since(start)).
		Msg("artifact retention sweep completed")
}

// Sweep removes rendered artifacts in the work directory older than the
// configured TTL. The artifact the session currently holds is kept.
func (s *Scheduler) Sweep(ctx context.Context) (SweepResult, error) {
	var res SweepResult
	if s.config.ArtifactTTL <= 0 {
		return res, nil
	}

	matches, err := filepath.Glob(filepath.Join(s.config.RenderWorkDir, ffmpeg.ArtifactPrefix+"*.mp4"))
	if err != nil {
		return res, err
	}

	keep := ""
	if s.current != nil {
		if cur := s.current.Current(); cur != nil {
			keep = filepath.Clean(cur.PlayableRef)
		}
	}
	cutoff := s.now().Add(-s.config.ArtifactTTL)

	for _, path := range matches {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		if filepath.Clean(path) == keep {
			continue
		}
		info, err := os.Stat(path)
		if err != nil || info.IsDir() || info.ModTime().After(cutoff) {
			continue
		}
		if err := os.Remove(path); err != nil {
			logger.Warn().Err(err).Str("path", path).Msg("failed to remove expired artifact")
			continue
		}
		res.Removed++
		res.Freed += info.Size()
	}
	return res, nil
}

// normalizeSchedule ensures cron expressions are compatible with cron.WithSeconds
func normalizeSchedule(expr string) string {
	fields := strings.Fields(expr)
	if len(fields) == 5 {
		return "0 " + expr
	}
	return expr
}
