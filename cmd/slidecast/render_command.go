package main

import (
	"context"
	"fmt"
	"io"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"

	"github.com/dustin/go-humanize"
	"github.com/google/renameio/v2"
	"github.com/spf13/cobra"

	"slidecast/internal/composition"
	"slidecast/internal/domain"
	"slidecast/internal/infrastructure/ffmpeg"
	"slidecast/internal/render"
	"slidecast/internal/scenes"
)

func newRenderCommand(ctx *commandContext) *cobra.Command {
	var (
		topic  string
		output string
		audio  string
		params domain.RenderParams
	)

	cmd := &cobra.Command{
		Use:   "render",
		Short: "Seed scenes for a topic and render them to an MP4 file",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if params.Width == 0 {
				params.Width = cfg.RenderWidth
			}
			if params.Height == 0 {
				params.Height = cfg.RenderHeight
			}
			if params.FPS == 0 {
				params.FPS = cfg.RenderFPS
			}
			if audio != "" {
				params.BackgroundAudio = &domain.AudioAsset{Name: filepath.Base(audio), Path: audio}
			}

			runCtx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			store := scenes.NewStore()
			store.Seed(topic)
			return renderToFile(runCtx, cmd.OutOrStdout(), render.NewAdapter(ffmpeg.New(cfg)), store, params, output)
		},
	}
	cmd.Flags().StringVarP(&topic, "topic", "t", "", "Topic to seed scenes from")
	cmd.Flags().StringVarP(&output, "output", "o", "slidecast.mp4", "Output MP4 path")
	cmd.Flags().StringVar(&audio, "audio", "", "Background audio file looped under the video")
	cmd.Flags().IntVar(&params.Width, "width", 0, "Frame width (defaults to render.width)")
	cmd.Flags().IntVar(&params.Height, "height", 0, "Frame height (defaults to render.height)")
	cmd.Flags().IntVar(&params.FPS, "fps", 0, "Frame rate (defaults to render.fps)")
	return cmd
}

func renderToFile(ctx context.Context, out io.Writer, adapter *render.Adapter, store *scenes.Store, params domain.RenderParams, output string) error {
	defer adapter.Close()

	req, err := composition.Build(store, params)
	if err != nil {
		return err
	}
	fmt.Fprintln(out, renderScenes(req.Scenes))

	if err := adapter.Load(ctx); err != nil {
		return err
	}
	job, err := adapter.Generate(ctx, req)
	if err != nil {
		return err
	}

	for p := range job.Progress() {
		fmt.Fprintf(out, "\rRendering %3.0f%%", p*100)
	}
	fmt.Fprintln(out)

	result, err := job.Wait(ctx)
	if err != nil {
		return err
	}
	written, err := copyArtifact(result.Artifact, output)
	if err != nil {
		return err
	}

	fmt.Fprintln(out, renderTable(
		[]string{"Output", "Resolution", "Runtime", "Size"},
		[][]string{{
			output,
			fmt.Sprintf("%dx%d@%d", req.Width, req.Height, req.FPS),
			strconv.Itoa(req.Runtime()) + "s",
			humanize.IBytes(uint64(written)),
		}},
		[]columnAlignment{alignLeft, alignLeft, alignRight, alignRight},
	))
	return nil
}

func copyArtifact(a domain.Artifact, dest string) (int64, error) {
	src, err := a.Open()
	if err != nil {
		return 0, fmt.Errorf("open rendered video: %w", err)
	}
	defer src.Close()

	pending, err := renameio.NewPendingFile(dest, renameio.WithPermissions(0o644))
	if err != nil {
		return 0, fmt.Errorf("create %s: %w", dest, err)
	}
	defer pending.Cleanup()

	n, err := io.Copy(pending, src)
	if err != nil {
		return n, fmt.Errorf("write %s: %w", dest, err)
	}
	if err := pending.CloseAtomicallyReplace(); err != nil {
		return n, fmt.Errorf("commit %s: %w", dest, err)
	}
	return n, nil
}
