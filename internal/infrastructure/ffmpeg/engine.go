// Package ffmpeg renders composition requests with the ffmpeg command-line encoder.
package ffmpeg

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/renameio/v2"
	"github.com/google/uuid"

	"slidecast/config"
	"slidecast/internal/artifact"
	"slidecast/internal/domain"
	"slidecast/internal/logger"
	"slidecast/internal/render"
)

var commandContext = exec.CommandContext

// ArtifactPrefix names rendered files in the work directory.
const ArtifactPrefix = "render-"

// Engine implements render.Engine by shelling out to ffmpeg.
type Engine struct {
	binary   string
	workDir  string
	fontFile string
	timeout  time.Duration

	resolved string
	version  string
}

// Option configures an Engine.
type Option func(*Engine)

// WithBinary overrides the configured ffmpeg binary.
func WithBinary(binary string) Option {
	return func(e *Engine) {
		if binary != "" {
			e.binary = binary
		}
	}
}

// WithWorkDir overrides the configured work directory.
func WithWorkDir(dir string) Option {
	return func(e *Engine) {
		if dir != "" {
			e.workDir = dir
		}
	}
}

// New creates an engine from the render configuration.
func New(cfg *config.Config, opts ...Option) *Engine {
	e := &Engine{
		binary:   cfg.FFmpegPath,
		workDir:  cfg.RenderWorkDir,
		fontFile: cfg.FontFile,
		timeout:  cfg.RenderTimeout,
	}
	if e.binary == "" {
		e.binary = "ffmpeg"
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// WorkDir returns the directory rendered artifacts are written to.
func (e *Engine) WorkDir() string {
	return e.workDir
}

// Version returns the first line of `ffmpeg -version` after Load.
func (e *Engine) Version() string {
	return e.version
}

// Load resolves the binary, checks it runs and prepares the work directory.
func (e *Engine) Load(ctx context.Context) error {
	path, err := exec.LookPath(e.binary)
	if err != nil {
		return fmt.Errorf("locate ffmpeg %q: %w", e.binary, err)
	}

	out, err := commandContext(ctx, path, "-hide_banner", "-version").Output() //nolint:gosec
	if err != nil {
		return fmt.Errorf("run %s -version: %w", path, err)
	}

	if err := os.MkdirAll(e.workDir, 0o755); err != nil {
		return fmt.Errorf("create work directory: %w", err)
	}

	e.resolved = path
	e.version = strings.TrimSpace(strings.SplitN(string(out), "\n", 2)[0])
	logger.Info().Str("binary", path).Str("version", e.version).Str("work_dir", e.workDir).Msg("ffmpeg ready")
	return nil
}

// Render encodes req to a fragmented MP4 in the work directory.
func (e *Engine) Render(ctx context.Context, req domain.CompositionRequest, progress func(float64)) (*render.Output, error) {
	if e.resolved == "" {
		return nil, domain.ErrEngineNotReady
	}
	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	scratch, err := os.MkdirTemp(e.workDir, ".scratch-")
	if err != nil {
		return nil, fmt.Errorf("create scratch directory: %w", err)
	}
	defer os.RemoveAll(scratch)

	inputs, err := prepareInputs(scratch, req)
	if err != nil {
		return nil, err
	}
	args := buildArgs(req, inputs, e.fontFile)

	final := filepath.Join(e.workDir, ArtifactPrefix+uuid.NewString()+".mp4")
	pending, err := renameio.NewPendingFile(final, renameio.WithPermissions(0o644), renameio.WithTempDir(e.workDir))
	if err != nil {
		return nil, fmt.Errorf("create pending artifact: %w", err)
	}
	defer func() {
		if err := pending.Cleanup(); err != nil {
			logger.Debug().Err(err).Msg("cleanup pending artifact")
		}
	}()

	cmd := commandContext(ctx, e.resolved, args...) //nolint:gosec
	cmd.Stdout = pending.File
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, fmt.Errorf("stderr pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start ffmpeg: %w", err)
	}

	total := time.Duration(req.Runtime()) * time.Second
	tail := newTail(20)
	parseProgress(stderr, total, progress, tail)

	if err := cmd.Wait(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("ffmpeg interrupted: %w", ctxErr)
		}
		if msg := tail.String(); msg != "" {
			return nil, fmt.Errorf("ffmpeg: %w: %s", err, msg)
		}
		return nil, fmt.Errorf("ffmpeg: %w", err)
	}

	if err := pending.CloseAtomicallyReplace(); err != nil {
		return nil, fmt.Errorf("commit artifact: %w", err)
	}

	file := artifact.File{Path: final}
	if file.Size() <= 0 {
		_ = os.Remove(final)
		return nil, errors.New("ffmpeg produced no output")
	}

	return &render.Output{
		Artifact:    file,
		PlayableRef: final,
		Release: func() error {
			if err := os.Remove(final); err != nil && !errors.Is(err, os.ErrNotExist) {
				return err
			}
			return nil
		},
	}, nil
}

type sceneInputs struct {
	titleFile     string
	narrationFile string
}

type inputs struct {
	scenes []sceneInputs
	audio  string
}

func prepareInputs(scratch string, req domain.CompositionRequest) (inputs, error) {
	var in inputs
	wrapAt := wrapWidth(req.Width, narrationFontSize(req.Height))
	for i, s := range req.Scenes {
		si := sceneInputs{
			titleFile:     filepath.Join(scratch, fmt.Sprintf("title_%03d.txt", i)),
			narrationFile: filepath.Join(scratch, fmt.Sprintf("narration_%03d.txt", i)),
		}
		if err := os.WriteFile(si.titleFile, []byte(s.Title), 0o600); err != nil {
			return in, fmt.Errorf("write scene title: %w", err)
		}
		if err := os.WriteFile(si.narrationFile, []byte(wrapText(s.Narration, wrapAt)), 0o600); err != nil {
			return in, fmt.Errorf("write scene narration: %w", err)
		}
		in.scenes = append(in.scenes, si)
	}

	if a := req.BackgroundAudio; a != nil {
		switch {
		case a.Path != "":
			in.audio = a.Path
		case len(a.Data) > 0:
			in.audio = filepath.Join(scratch, "audio"+filepath.Ext(a.Name))
			if err := os.WriteFile(in.audio, a.Data, 0o600); err != nil {
				return in, fmt.Errorf("write background audio: %w", err)
			}
		}
	}
	return in, nil
}

func buildArgs(req domain.CompositionRequest, in inputs, fontFile string) []string {
	args := []string{"-hide_banner", "-nostdin", "-loglevel", "error", "-progress", "pipe:2", "-y"}

	for _, s := range req.Scenes {
		src := fmt.Sprintf("gradients=s=%dx%d:r=%d:d=%d:c0=%s:c1=%s:x0=0:y0=0:x1=%d:y1=%d:nb_colors=2:speed=0.01",
			req.Width, req.Height, req.FPS, s.Duration,
			ffmpegColor(s.Gradient[0]), ffmpegColor(s.Gradient[1]),
			req.Width, req.Height)
		args = append(args, "-f", "lavfi", "-i", src)
	}

	audioIndex := -1
	if in.audio != "" {
		audioIndex = len(req.Scenes)
		// file: keeps ffmpeg from treating the path as a protocol URL
		args = append(args, "-stream_loop", "-1", "-i", "file:"+in.audio)
	}

	titleSize := titleFontSize(req.Height)
	bodySize := narrationFontSize(req.Height)
	font := ""
	if fontFile != "" {
		font = "fontfile=" + escapeFilterValue(fontFile) + ":"
	}

	var graph strings.Builder
	for i, si := range in.scenes {
		fmt.Fprintf(&graph,
			"[%d:v]drawtext=%stextfile=%s:fontcolor=white:fontsize=%d:x=(w-text_w)/2:y=h*0.3:shadowcolor=black@0.5:shadowx=2:shadowy=2,"+
				"drawtext=%stextfile=%s:fontcolor=white:fontsize=%d:line_spacing=%d:x=(w-text_w)/2:y=h*0.5,"+
				"setsar=1,format=yuv420p[v%d];",
			i, font, escapeFilterValue(si.titleFile), titleSize,
			font, escapeFilterValue(si.narrationFile), bodySize, bodySize/2, i)
	}
	for i := range in.scenes {
		fmt.Fprintf(&graph, "[v%d]", i)
	}
	fmt.Fprintf(&graph, "concat=n=%d:v=1:a=0[vout]", len(in.scenes))

	args = append(args, "-filter_complex", graph.String(), "-map", "[vout]")
	if audioIndex >= 0 {
		args = append(args, "-map", fmt.Sprintf("%d:a:0", audioIndex), "-c:a", "aac", "-b:a", "192k", "-shortest")
	}
	args = append(args,
		"-c:v", "libx264",
		"-preset", "veryfast",
		"-crf", "23",
		"-pix_fmt", "yuv420p",
		"-r", fmt.Sprint(req.FPS),
		"-t", fmt.Sprint(req.Runtime()),
		"-movflags", "frag_keyframe+empty_moov+default_base_moof",
		"-f", "mp4",
		"pipe:1",
	)
	return args
}

func titleFontSize(height int) int {
	return max(height/12, 12)
}

func narrationFontSize(height int) int {
	return max(height/26, 10)
}

// wrapWidth estimates how many characters fit across 80% of the frame.
func wrapWidth(width, fontSize int) int {
	return max(width*8/10*100/(fontSize*55), 10)
}

func wrapText(s string, width int) string {
	var lines []string
	for _, para := range strings.Split(s, "\n") {
		var line strings.Builder
		for _, word := range strings.Fields(para) {
			if line.Len() > 0 && line.Len()+1+len(word) > width {
				lines = append(lines, line.String())
				line.Reset()
			}
			if line.Len() > 0 {
				line.WriteByte(' ')
			}
			line.WriteString(word)
		}
		lines = append(lines, line.String())
	}
	return strings.Join(lines, "\n")
}

// ffmpegColor turns #rgb, #rrggbb or #rrggbbaa into ffmpeg's 0x form.
func ffmpegColor(c string) string {
	hex := strings.TrimPrefix(strings.TrimSpace(c), "#")
	if len(hex) == 3 {
		hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]})
	}
	if len(hex) != 6 && len(hex) != 8 {
		return "0x000000"
	}
	return "0x" + strings.ToLower(hex)
}

func escapeFilterValue(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `'`, `\'`, `:`, `\:`, `,`, `\,`, `;`, `\;`, `[`, `\[`, `]`, `\]`)
	return r.Replace(s)
}

type tail struct {
	max   int
	lines []string
}

func newTail(n int) *tail {
	return &tail{max: n}
}

func (t *tail) add(line string) {
	t.lines = append(t.lines, line)
	if len(t.lines) > t.max {
		t.lines = t.lines[len(t.lines)-t.max:]
	}
}

func (t *tail) String() string {
	return strings.Join(t.lines, "; ")
}

var _ render.Engine = (*Engine)(nil)

// ResolveAudioPath maps a client-supplied background audio name onto a file
// inside dir. Absolute paths, parent references and anything carrying a
// protocol or scheme prefix are rejected, as is any name when dir is unset.
func ResolveAudioPath(dir, name string) (string, error) {
	if dir == "" {
		return "", fmt.Errorf("%w: no audio directory is configured", domain.ErrInvalidAudioPath)
	}
	if strings.Contains(name, ":") || !filepath.IsLocal(name) {
		return "", fmt.Errorf("%w: %q", domain.ErrInvalidAudioPath, name)
	}
	return filepath.Join(dir, filepath.Clean(name)), nil
}
