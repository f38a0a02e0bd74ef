package ffmpeg

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"storyreel/internal/config"
)

// Runner executes an external command.
type Runner func(ctx context.Context, name string, args ...string) error

// Encoder wraps the ffmpeg binary with the configured output format.
type Encoder struct {
	binary      string
	width       int
	height      int
	fps         int
	videoCodec  string
	audioCodec  string
	preset      string
	crf         int
	musicVolume float64
	run         Runner
}

// NewEncoder returns an encoder for the render settings.
func NewEncoder(cfg config.Render) *Encoder {
	binary := strings.TrimSpace(cfg.FFmpegBinary)
	if binary == "" {
		binary = "ffmpeg"
	}
	return &Encoder{
		binary:      binary,
		width:       cfg.Width,
		height:      cfg.Height,
		fps:         cfg.FPS,
		videoCodec:  valueOr(cfg.VideoCodec, "libx264"),
		audioCodec:  valueOr(cfg.AudioCodec, "aac"),
		preset:      valueOr(cfg.Preset, "medium"),
		crf:         cfg.CRF,
		musicVolume: cfg.MusicVolume,
		run:         execRunner,
	}
}

// WithRunner replaces the command runner (for testing).
func (e *Encoder) WithRunner(run Runner) *Encoder {
	e.run = run
	return e
}

func execRunner(ctx context.Context, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...) //nolint:gosec
	if output, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("%s: %w: %s", name, err, lastLines(string(output), 5))
	}
	return nil
}

// Trim writes duration seconds of src starting at offset to dest, scaled and
// centre-cropped to the output frame, without audio. Sources shorter than
// offset+duration are looped.
func (e *Encoder) Trim(ctx context.Context, src, dest string, offset, duration float64) error {
	if duration <= 0 {
		return fmt.Errorf("ffmpeg trim: non-positive duration %.2f", duration)
	}
	if offset < 0 {
		return fmt.Errorf("ffmpeg trim: negative offset %.2f", offset)
	}
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return fmt.Errorf("ffmpeg trim: create directory: %w", err)
	}
	if err := e.run(ctx, e.binary, e.trimArgs(src, dest, offset, duration)...); err != nil {
		_ = os.Remove(dest)
		return fmt.Errorf("ffmpeg trim %s: %w", filepath.Base(src), err)
	}
	return nil
}

func (e *Encoder) trimArgs(src, dest string, offset, duration float64) []string {
	return []string{
		"-hide_banner", "-loglevel", "error", "-y",
		"-stream_loop", "-1",
		"-ss", seconds(offset),
		"-i", src,
		"-t", seconds(duration),
		"-an",
		"-vf", e.frameFilter(),
		"-c:v", e.videoCodec,
		"-preset", e.preset,
		"-crf", strconv.Itoa(e.crf),
		"-pix_fmt", "yuv420p",
		dest,
	}
}

// frameFilter scales to cover the output frame, then crops the centre.
func (e *Encoder) frameFilter() string {
	return fmt.Sprintf("scale=%d:%d:force_original_aspect_ratio=increase,crop=%d:%d,setsar=1,fps=%d",
		e.width, e.height, e.width, e.height, e.fps)
}

func seconds(v float64) string {
	return strconv.FormatFloat(v, 'f', 3, 64)
}

func valueOr(v, fallback string) string {
	if v = strings.TrimSpace(v); v != "" {
		return v
	}
	return fallback
}

func lastLines(output string, n int) string {
	lines := strings.Split(strings.TrimSpace(output), "\n")
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return strings.Join(lines, " | ")
}

var errNoClips = errors.New("render job has no footage clips")
