package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"slidecast/config"
	"slidecast/internal/delivery/cron"
	"slidecast/internal/delivery/httpapi"
	"slidecast/internal/domain"
	"slidecast/internal/infrastructure/ffmpeg"
	httpclient "slidecast/internal/infrastructure/http"
	"slidecast/internal/infrastructure/publishapi"
	"slidecast/internal/infrastructure/youtube"
	"slidecast/internal/logger"
	"slidecast/internal/publish"
	"slidecast/internal/render"
	memoryrepo "slidecast/internal/repository/memory"
	sqliterepo "slidecast/internal/repository/sqlite"
	"slidecast/internal/scenes"
	"slidecast/internal/usecase"
)

func newServeCommand(ctx *commandContext) *cobra.Command {
	var (
		port     string
		inMemory bool
		topic    string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the studio API and the publish endpoint",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if port != "" {
				cfg.ServerPort = port
			}
			return runServe(cmd.Context(), cfg, inMemory, topic)
		},
	}
	cmd.Flags().StringVarP(&port, "port", "p", "", "Override server.port")
	cmd.Flags().BoolVar(&inMemory, "memory", false, "Keep publish history in memory instead of SQLite")
	cmd.Flags().StringVarP(&topic, "topic", "t", "", "Seed the session with scenes for a topic")
	return cmd
}

func runServe(parent context.Context, cfg *config.Config, inMemory bool, topic string) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var records domain.PublishRecordRepository
	if inMemory {
		records = memoryrepo.NewPublishRepository()
	} else {
		db, err := sqliterepo.Open(cfg.DatabaseURL)
		if err != nil {
			return fmt.Errorf("open database: %w", err)
		}
		defer db.Close()
		records = sqliterepo.NewPublishRepository(db)
	}

	engine := ffmpeg.New(cfg)
	adapter := render.NewAdapter(engine)
	if err := adapter.Load(ctx); err != nil {
		// The studio retries the load on the next render request.
		logger.Warn().Err(err).Msg("render engine unavailable at startup")
	} else {
		logger.Info().Str("version", engine.Version()).Str("work_dir", engine.WorkDir()).Msg("render engine ready")
	}

	publishClient := httpclient.NewHTTPClient(cfg, cfg.PublishTimeout)
	workflow := publish.NewWorkflow(publishapi.New(publishClient, cfg.PublishEndpoint))
	uploader := youtube.NewUploader(cfg, publishClient)

	store := scenes.NewStore()
	if topic != "" {
		store.Seed(topic)
	}
	studio := usecase.NewStudio(cfg, store, adapter, workflow, records)

	scheduler := cron.NewScheduler(cfg, studio)
	if err := scheduler.Start(); err != nil {
		return fmt.Errorf("start scheduler: %w", err)
	}
	defer scheduler.Stop()

	server := httpapi.NewServer(cfg, studio, uploader)
	if err := server.Start(); err != nil {
		return fmt.Errorf("start http server: %w", err)
	}

	logger.Info().Str("publish_endpoint", cfg.PublishEndpoint).Msg("slidecast started, press Ctrl+C to stop")
	<-ctx.Done()

	logger.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("http server shutdown failed")
	}
	studio.WaitRenders()
	if err := studio.Close(); err != nil {
		logger.Warn().Err(err).Msg("failed to release rendered artifact")
	}
	logger.Info().Msg("slidecast stopped")
	return nil
}
