package deps

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
)

// ResolveFFprobe reports the ffprobe binary paired with ffmpegCommand.
//
// Static ffmpeg builds ship ffprobe in the same directory, so a sibling of the
// resolved ffmpeg binary wins over whatever "ffprobe" resolves to on PATH.
func ResolveFFprobe(ffmpegCommand string) Status {
	result := Status{
		Name:        "FFprobe",
		Description: "Measures narration and clip durations",
	}

	ffmpegBinary := strings.TrimSpace(ffmpegCommand)
	if ffmpegBinary != "" {
		if resolved, err := exec.LookPath(ffmpegBinary); err == nil {
			candidate := siblingBinary(resolved, "ffprobe")
			if info, statErr := os.Stat(candidate); statErr == nil && isExecutable(info) {
				result.Command = candidate
				result.Available = true
				return result
			}
		}
	}

	name := "ffprobe"
	if path, err := exec.LookPath(name); err == nil {
		result.Command = path
		result.Available = true
		return result
	}

	result.Command = name
	result.Detail = fmt.Sprintf("binary %q not found", name)
	return result
}

func siblingBinary(path, name string) string {
	if runtime.GOOS == "windows" {
		name += ".exe"
	}
	return filepath.Join(filepath.Dir(path), name)
}

func isExecutable(info os.FileInfo) bool {
	if info == nil || info.IsDir() {
		return false
	}
	if runtime.GOOS == "windows" {
		return true
	}
	return info.Mode().Perm()&0o111 != 0
}
