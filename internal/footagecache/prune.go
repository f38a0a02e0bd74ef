package footagecache

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"storyreel/internal/logging"
)

// Stats describes current cache usage.
type Stats struct {
	Entries      int            `json:"entries"`
	Downloads    int            `json:"downloads"`
	Trimmed      int            `json:"trimmed"`
	TotalBytes   int64          `json:"total_bytes"`
	MaxBytes     int64          `json:"max_bytes"`
	FreeBytes    uint64         `json:"free_bytes"`
	TotalFSBytes uint64         `json:"total_fs_bytes"`
	Files        []EntrySummary `json:"files"`
}

// EntrySummary describes one cached file, newest first in Stats.
type EntrySummary struct {
	Path       string    `json:"path"`
	Kind       string    `json:"kind"`
	SizeBytes  int64     `json:"size_bytes"`
	ModifiedAt time.Time `json:"modified_at"`
}

type cacheEntry struct {
	path      string
	kind      string
	sizeBytes int64
	modTime   time.Time
}

// Prune removes least recently used files until both size and free-space
// limits hold. It returns the number of files removed.
func (m *Manager) Prune(ctx context.Context) (int, error) {
	before, _, err := m.scan()
	if err != nil {
		return 0, err
	}
	if err := m.prune(ctx); err != nil {
		return 0, err
	}
	after, _, err := m.scan()
	if err != nil {
		return 0, err
	}
	return len(before) - len(after), nil
}

// Clear removes every cached file not in use.
func (m *Manager) Clear(ctx context.Context) (int, error) {
	entries, _, err := m.scan()
	if err != nil {
		return 0, err
	}
	removed := 0
	for _, entry := range entries {
		if m.inUse(entry.path) {
			continue
		}
		if err := os.Remove(entry.path); err != nil && !errors.Is(err, os.ErrNotExist) {
			return removed, fmt.Errorf("footagecache: remove %q: %w", entry.path, err)
		}
		removed++
	}
	m.logger.InfoContext(ctx, "cleared footage cache", logging.Int("removed", removed))
	return removed, nil
}

// Stats returns current cache usage and filesystem free-space info.
func (m *Manager) Stats(ctx context.Context) (Stats, error) {
	entries, total, err := m.scan()
	if err != nil {
		return Stats{}, err
	}
	s := Stats{
		Entries:    len(entries),
		TotalBytes: total,
		MaxBytes:   m.maxBytes,
	}
	if _, statErr := os.Stat(m.root); statErr == nil {
		totalFS, freeFS, err := m.statfs(m.root)
		if err != nil {
			return s, fmt.Errorf("footagecache: statfs: %w", err)
		}
		s.TotalFSBytes, s.FreeBytes = totalFS, freeFS
	}
	s.Files = make([]EntrySummary, 0, len(entries))
	for i := len(entries) - 1; i >= 0; i-- {
		e := entries[i]
		switch e.kind {
		case downloadsDir:
			s.Downloads++
		case trimmedDir:
			s.Trimmed++
		}
		s.Files = append(s.Files, EntrySummary{Path: e.path, Kind: e.kind, SizeBytes: e.sizeBytes, ModifiedAt: e.modTime})
	}
	if len(entries) == 0 {
		m.logger.DebugContext(ctx, "footage cache empty")
	}
	return s, nil
}

func (m *Manager) prune(ctx context.Context) error {
	entries, totalSize, err := m.scan()
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		return nil
	}
	for _, oldest := range entries {
		freeOK, err := m.freeSpaceOK()
		if err != nil {
			return err
		}
		if (m.maxBytes <= 0 || totalSize <= m.maxBytes) && freeOK {
			return nil
		}
		if m.inUse(oldest.path) {
			continue
		}
		if err := os.Remove(oldest.path); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("footagecache: remove %q: %w", oldest.path, err)
		}
		m.logger.InfoContext(ctx, "pruned footage cache file",
			logging.String("path", oldest.path),
			logging.Int64("size_bytes", oldest.sizeBytes),
		)
		totalSize -= oldest.sizeBytes
	}
	freeOK, err := m.freeSpaceOK()
	if err != nil {
		return err
	}
	if (m.maxBytes > 0 && totalSize > m.maxBytes) || !freeOK {
		return fmt.Errorf("footagecache: cache over limits and remaining files are in use")
	}
	return nil
}

func (m *Manager) scan() ([]cacheEntry, int64, error) {
	var (
		entries []cacheEntry
		total   int64
	)
	for _, kind := range []string{downloadsDir, trimmedDir} {
		dir := filepath.Join(m.root, kind)
		files, err := os.ReadDir(dir)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return nil, 0, fmt.Errorf("footagecache: list %s: %w", dir, err)
		}
		for _, f := range files {
			name := f.Name()
			if f.IsDir() || strings.HasPrefix(name, ".") || strings.HasSuffix(name, ".partial.mp4") {
				continue
			}
			info, err := f.Info()
			if err != nil {
				continue
			}
			entries = append(entries, cacheEntry{
				path:      filepath.Join(dir, name),
				kind:      kind,
				sizeBytes: info.Size(),
				modTime:   info.ModTime(),
			})
			total += info.Size()
		}
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].modTime.Before(entries[j].modTime)
	})
	return entries, total, nil
}

func (m *Manager) freeSpaceOK() (bool, error) {
	if m.minFreeBytes == 0 {
		return true, nil
	}
	total, free, err := m.statfs(m.root)
	if err != nil {
		return false, fmt.Errorf("footagecache: statfs: %w", err)
	}
	if total == 0 {
		return true, nil
	}
	return free >= m.minFreeBytes, nil
}
