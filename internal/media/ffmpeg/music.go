package ffmpeg

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

var musicExtensions = map[string]bool{".mp3": true, ".m4a": true}

// ListMusic returns the background tracks in dir, sorted by name. A missing
// or empty dir yields no tracks.
func ListMusic(dir string) ([]string, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, nil
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("list music: %w", err)
	}
	var tracks []string
	for _, entry := range entries {
		if entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		if musicExtensions[strings.ToLower(filepath.Ext(entry.Name()))] {
			tracks = append(tracks, filepath.Join(dir, entry.Name()))
		}
	}
	sort.Strings(tracks)
	return tracks, nil
}
