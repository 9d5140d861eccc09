package cron

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"slidecast/config"
	"slidecast/internal/domain"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type heldRender struct{ path string }

func (h heldRender) Current() *domain.RenderResult {
	if h.path == "" {
		return nil
	}
	return &domain.RenderResult{PlayableRef: h.path}
}

func writeAged(t *testing.T, path string, size int, age time.Duration) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, make([]byte, size), 0o644))
	mtime := time.Now().Add(-age)
	require.NoError(t, os.Chtimes(path, mtime, mtime))
}

func TestSweepRemovesExpiredArtifacts(t *testing.T) {
	dir := t.TempDir()
	cfg := config.Default()
	cfg.RenderWorkDir = dir
	cfg.ArtifactTTL = time.Hour

	expired := filepath.Join(dir, "render-old.mp4")
	held := filepath.Join(dir, "render-held.mp4")
	fresh := filepath.Join(dir, "render-new.mp4")
	other := filepath.Join(dir, "notes.mp4")
	writeAged(t, expired, 10, 2*time.Hour)
	writeAged(t, held, 20, 3*time.Hour)
	writeAged(t, fresh, 30, time.Minute)
	writeAged(t, other, 40, 5*time.Hour)

	s := NewScheduler(cfg, heldRender{path: held})
	defer s.cancel()

	res, err := s.Sweep(context.Background())
	require.NoError(t, err)
	assert.Equal(t, SweepResult{Removed: 1, Freed: 10}, res)

	assert.NoFileExists(t, expired)
	assert.FileExists(t, held, "the held artifact survives")
	assert.FileExists(t, fresh)
	assert.FileExists(t, other, "only rendered artifacts are swept")
}

func TestSweepDisabledWithoutTTL(t *testing.T) {
	dir := t.TempDir()
	cfg := config.Default()
	cfg.RenderWorkDir = dir
	cfg.ArtifactTTL = 0

	path := filepath.Join(dir, "render-old.mp4")
	writeAged(t, path, 1, 48*time.Hour)

	s := NewScheduler(cfg, nil)
	defer s.cancel()
	res, err := s.Sweep(context.Background())
	require.NoError(t, err)
	assert.Zero(t, res.Removed)
	assert.FileExists(t, path)
}

func TestSweepHonorsCancellation(t *testing.T) {
	dir := t.TempDir()
	cfg := config.Default()
	cfg.RenderWorkDir = dir
	writeAged(t, filepath.Join(dir, "render-a.mp4"), 1, 48*time.Hour)

	s := NewScheduler(cfg, nil)
	defer s.cancel()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := s.Sweep(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestStartStop(t *testing.T) {
	cfg := config.Default()
	cfg.RenderWorkDir = t.TempDir()
	cfg.RetentionSchedule = "*/30 * * * *"

	s := NewScheduler(cfg, nil)
	require.NoError(t, s.Start())
	s.Stop()
}

func TestStartRejectsBadSchedule(t *testing.T) {
	cfg := config.Default()
	cfg.RetentionSchedule = "not a schedule"

	s := NewScheduler(cfg, nil)
	defer s.cancel()
	assert.Error(t, s.Start())
}

func TestNormalizeSchedule(t *testing.T) {
	assert.Equal(t, "0 */5 * * * *", normalizeSchedule("*/5 * * * *"))
	assert.Equal(t, "30 0 * * * *", normalizeSchedule("30 0 * * * *"))
}
