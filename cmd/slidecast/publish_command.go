package main

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/signal"
	"syscall"

	"github.com/dustin/go-humanize"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"slidecast/internal/artifact"
	"slidecast/internal/domain"
	httpclient "slidecast/internal/infrastructure/http"
	"slidecast/internal/infrastructure/publishapi"
	"slidecast/internal/publish"
)

const (
	envClientID     = "YOUTUBE_CLIENT_ID"
	envClientSecret = "YOUTUBE_CLIENT_SECRET"
	envRefreshToken = "YOUTUBE_REFRESH_TOKEN"
)

type publishOptions struct {
	file        string
	title       string
	description string
	tags        string
	privacy     string
	endpoint    string
	envFile     string
}

func newPublishCommand(ctx *commandContext) *cobra.Command {
	var opts publishOptions

	cmd := &cobra.Command{
		Use:   "publish",
		Short: "Upload a rendered MP4 through the publish endpoint",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if err := loadEnvFile(opts.envFile); err != nil {
				return err
			}

			form, err := buildPublishForm(opts, cfg.DefaultPrivacy)
			if err != nil {
				return err
			}

			info, err := os.Stat(opts.file)
			if err != nil {
				return fmt.Errorf("read video: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Uploading %s (%s)\n", opts.file, humanize.IBytes(uint64(info.Size())))

			endpoint := cfg.PublishEndpoint
			if opts.endpoint != "" {
				endpoint = opts.endpoint
			}
			runCtx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			client := publishapi.New(httpclient.NewHTTPClient(cfg, cfg.PublishTimeout), endpoint)
			result, err := publish.NewWorkflow(client).Submit(runCtx, form, artifact.File{Path: opts.file})
			printPublishResult(cmd.OutOrStdout(), result)
			return err
		},
	}
	cmd.Flags().StringVarP(&opts.file, "file", "f", "slidecast.mp4", "MP4 file to publish")
	cmd.Flags().StringVar(&opts.title, "title", "", "Video title")
	cmd.Flags().StringVar(&opts.description, "description", "", "Video description")
	cmd.Flags().StringVar(&opts.tags, "tags", "", "Comma-separated tags")
	cmd.Flags().StringVar(&opts.privacy, "privacy", "", "public, unlisted or private (defaults to publish.default_privacy)")
	cmd.Flags().StringVar(&opts.endpoint, "endpoint", "", "Override publish.endpoint")
	cmd.Flags().StringVar(&opts.envFile, "env-file", ".env", "File holding YOUTUBE_* credentials")
	return cmd
}

// loadEnvFile loads credentials without overriding variables already set.
func loadEnvFile(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

func buildPublishForm(opts publishOptions, defaultPrivacy string) (domain.PublishForm, error) {
	form := publish.NewForm()
	form.Title = opts.title
	form.Description = opts.description
	form.SetTags(opts.tags)

	privacy := opts.privacy
	if privacy == "" {
		privacy = defaultPrivacy
	}
	if privacy != "" {
		if err := form.SetPrivacy(privacy); err != nil {
			return domain.PublishForm{}, err
		}
	}

	form.Credentials = domain.Credentials{
		ClientID:     os.Getenv(envClientID),
		ClientSecret: os.Getenv(envClientSecret),
		RefreshToken: os.Getenv(envRefreshToken),
	}
	return form.Snapshot(), nil
}

func printPublishResult(out io.Writer, result *domain.PublishResult) {
	if result == nil {
		return
	}
	status := "failed"
	if result.Success {
		status = "published"
	}
	rows := [][]string{
		{"Status", status},
		{"Message", result.Message},
		{"Title", result.Title},
		{"Privacy", string(result.Privacy)},
	}
	if result.RemoteURL != "" {
		rows = append(rows, []string{"URL", result.RemoteURL})
	}
	fmt.Fprintln(out, renderTable([]string{"Field", "Value"}, rows, nil))
}
