package ffmpeg

import (
	"context"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Clip is one trimmed footage file placed on the output timeline.
type Clip struct {
	Path     string
	Start    float64
	Duration float64
}

// RenderJob describes the final composition.
type RenderJob struct {
	Clips     []Clip
	Narration string
	Music     string
	Subtitles string
	Duration  float64
	Output    string
}

func (j RenderJob) validate() error {
	if len(j.Clips) == 0 {
		return errNoClips
	}
	if strings.TrimSpace(j.Narration) == "" {
		return fmt.Errorf("render job: narration path required")
	}
	if strings.TrimSpace(j.Output) == "" {
		return fmt.Errorf("render job: output path required")
	}
	if j.Duration <= 0 {
		return fmt.Errorf("render job: non-positive duration %.2f", j.Duration)
	}
	for i, c := range j.Clips {
		if c.Duration <= 0 {
			return fmt.Errorf("render job: clip %d has non-positive duration %.2f", i, c.Duration)
		}
	}
	return nil
}

// Render encodes the job into Output. The file is written under a partial
// name and renamed once ffmpeg exits cleanly.
func (e *Encoder) Render(ctx context.Context, job RenderJob) error {
	args, err := e.RenderArgs(job)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(job.Output), 0o755); err != nil {
		return fmt.Errorf("ffmpeg render: create directory: %w", err)
	}
	partial := partialPath(job.Output)
	args[len(args)-1] = partial
	if err := e.run(ctx, e.binary, args...); err != nil {
		_ = os.Remove(partial)
		return fmt.Errorf("ffmpeg render: %w", err)
	}
	if err := os.Rename(partial, job.Output); err != nil {
		_ = os.Remove(partial)
		return fmt.Errorf("ffmpeg render: finalize output: %w", err)
	}
	return nil
}

// RenderArgs returns the ffmpeg arguments for job, ending with the output path.
//
// Input 0 is a black base of the full duration. The clips follow in timeline
// order and are concatenated, then shifted to the first clip's start and
// overlaid on the base. Narration and music come last.
func (e *Encoder) RenderArgs(job RenderJob) ([]string, error) {
	if err := job.validate(); err != nil {
		return nil, err
	}
	args := []string{
		"-hide_banner", "-loglevel", "error", "-y",
		"-f", "lavfi",
		"-i", fmt.Sprintf("color=c=black:s=%dx%d:r=%d:d=%s", e.width, e.height, e.fps, seconds(job.Duration)),
	}
	for _, c := range job.Clips {
		args = append(args, "-i", c.Path)
	}
	narrationIdx := len(job.Clips) + 1
	args = append(args, "-i", job.Narration)
	musicIdx := -1
	if strings.TrimSpace(job.Music) != "" {
		musicIdx = narrationIdx + 1
		args = append(args, "-stream_loop", "-1", "-i", job.Music)
	}

	args = append(args, "-filter_complex", e.filterGraph(job, narrationIdx, musicIdx))
	args = append(args,
		"-map", "[vout]",
		"-map", "[aout]",
		"-c:v", e.videoCodec,
		"-preset", e.preset,
		"-crf", strconv.Itoa(e.crf),
		"-pix_fmt", "yuv420p",
		"-r", strconv.Itoa(e.fps),
		"-c:a", e.audioCodec,
		"-t", seconds(job.Duration),
		"-movflags", "+faststart",
		job.Output,
	)
	return args, nil
}

func (e *Encoder) filterGraph(job RenderJob, narrationIdx, musicIdx int) string {
	var parts []string

	var concatInputs strings.Builder
	for i, c := range job.Clips {
		label := fmt.Sprintf("c%d", i)
		parts = append(parts, fmt.Sprintf("[%d:v]trim=duration=%s,setpts=PTS-STARTPTS,%s[%s]",
			i+1, seconds(c.Duration), e.frameFilter(), label))
		concatInputs.WriteString("[" + label + "]")
	}
	parts = append(parts, fmt.Sprintf("%sconcat=n=%d:v=1:a=0,setpts=PTS-STARTPTS+%s/TB[footage]",
		concatInputs.String(), len(job.Clips), seconds(job.Clips[0].Start)))

	video := "[0:v][footage]overlay=0:0:eof_action=pass"
	if strings.TrimSpace(job.Subtitles) != "" {
		video += ",subtitles=filename=" + escapeFilterValue(job.Subtitles)
	}
	parts = append(parts, video+"[vout]")

	narration := fmt.Sprintf("[%d:a]aresample=async=1", narrationIdx)
	if musicIdx < 0 {
		parts = append(parts, narration+"[aout]")
		return strings.Join(parts, ";")
	}
	parts = append(parts,
		narration+"[narr]",
		fmt.Sprintf("[%d:a]volume=%s,atrim=0:%s[music]", musicIdx, volume(e.musicVolume), seconds(job.Duration)),
		"[narr][music]amix=inputs=2:duration=first:dropout_transition=0:normalize=0[aout]",
	)
	return strings.Join(parts, ";")
}

func volume(v float64) string {
	if v <= 0 || math.IsNaN(v) {
		v = 0
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// escapeFilterValue escapes a path for use as a filtergraph option value.
// Option-level specials are escaped twice, graph-level specials once.
func escapeFilterValue(path string) string {
	return filterEscaper.Replace(path)
}

var filterEscaper = strings.NewReplacer(
	`\`, `\\\\`,
	`'`, `\\\'`,
	`:`, `\\:`,
	`,`, `\,`,
	`;`, `\;`,
	`[`, `\[`,
	`]`, `\]`,
)

func partialPath(output string) string {
	ext := filepath.Ext(output)
	return strings.TrimSuffix(output, ext) + ".partial" + ext
}
