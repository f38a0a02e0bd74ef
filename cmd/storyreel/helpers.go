package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"time"
)

func humanBytes(v int64) string {
	const unit = 1024
	if v < unit {
		return fmt.Sprintf("%d B", v)
	}
	div := int64(unit)
	exp := 0
	for n := v / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	value := float64(v) / float64(div)
	return fmt.Sprintf("%.1f %ciB", value, "KMGTPEZY"[exp])
}

func formatSeconds(v float64) string {
	return fmt.Sprintf("%.2fs", v)
}

func formatTimestamp(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format("2006-01-02 15:04")
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// readThemes returns the non-blank, non-comment lines of path.
func readThemes(path string) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open themes file: %w", err)
	}
	defer file.Close()

	var themes []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		themes = append(themes, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read themes file: %w", err)
	}
	return themes, nil
}
