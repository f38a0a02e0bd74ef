package deps

import (
	"fmt"
	"os/exec"
	"strings"

	"storyreel/internal/config"
)

// Requirement defines an external binary an assembly run shells out to.
type Requirement struct {
	Name        string
	Command     string
	Description string
	Optional    bool
}

// Status reports the availability of a dependency.
type Status struct {
	Name        string
	Command     string
	Description string
	Optional    bool
	Available   bool
	Detail      string
}

// Requirements lists the binaries the configured pipeline needs. uvx is only
// mandatory when transcription runs locally through WhisperX.
func Requirements(cfg *config.Config) []Requirement {
	ffmpeg := strings.TrimSpace(cfg.Render.FFmpegBinary)
	ffprobe := strings.TrimSpace(cfg.Render.FFprobeBinary)
	if ffprobe == "" {
		ffprobe = ResolveFFprobe(ffmpeg).Command
	}
	return []Requirement{
		{Name: "FFmpeg", Command: ffmpeg, Description: "Trims footage and renders the final video"},
		{Name: "FFprobe", Command: ffprobe, Description: "Measures narration and clip durations"},
		{
			Name:        "uvx",
			Command:     "uvx",
			Description: "Runs WhisperX for local transcription",
			Optional:    !strings.EqualFold(cfg.Speech.Provider, "whisperx"),
		},
	}
}

// CheckBinaries evaluates the provided requirements and reports availability.
func CheckBinaries(requirements []Requirement) []Status {
	results := make([]Status, 0, len(requirements))
	for _, req := range requirements {
		cmd := strings.TrimSpace(req.Command)
		status := Status{
			Name:        req.Name,
			Command:     cmd,
			Description: strings.TrimSpace(req.Description),
			Optional:    req.Optional,
		}
		if cmd == "" {
			status.Detail = "command not configured"
			results = append(results, status)
			continue
		}
		if _, err := exec.LookPath(cmd); err != nil {
			status.Detail = fmt.Sprintf("binary %q not found", cmd)
			results = append(results, status)
			continue
		}
		status.Available = true
		results = append(results, status)
	}
	return results
}

// Missing returns the required (non-optional) dependencies that are unavailable.
func Missing(statuses []Status) []Status {
	var out []Status
	for _, s := range statuses {
		if !s.Available && !s.Optional {
			out = append(out, s)
		}
	}
	return out
}
