package assembly

import (
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// VideoID returns the stable identifier of a theme. The same theme always
// maps to the same workspace, which is what makes artifact reuse work.
func VideoID(theme string) string {
	return uuid.NewSHA1(uuid.NameSpaceDNS, []byte(strings.TrimSpace(theme))).String()
}

// Workspace lays out the files of one video.
type Workspace struct {
	Dir    string
	Output string
}

// NewWorkspace places artifacts under outputDir/YYYY-MM-DD/<videoID>/ and the
// rendered file next to that directory.
func NewWorkspace(outputDir string, day time.Time, videoID string) Workspace {
	dated := filepath.Join(outputDir, day.Format("2006-01-02"))
	return Workspace{
		Dir:    filepath.Join(dated, videoID),
		Output: filepath.Join(dated, videoID+".mp4"),
	}
}

func (w Workspace) ScenarioPath() string  { return filepath.Join(w.Dir, "scenario.json") }
func (w Workspace) NarrationPath() string { return filepath.Join(w.Dir, "narration.mp3") }
func (w Workspace) WordsPath() string     { return filepath.Join(w.Dir, "words.json") }
func (w Workspace) ASSPath() string       { return filepath.Join(w.Dir, "captions.ass") }
func (w Workspace) SRTPath() string       { return filepath.Join(w.Dir, "captions.srt") }
func (w Workspace) TimelinePath() string  { return filepath.Join(w.Dir, "timeline.json") }
