package main

import (
	"fmt"
	"io"
	"path/filepath"

	"github.com/spf13/cobra"

	"storyreel/internal/footagecache"
	"storyreel/internal/logging"
	"storyreel/internal/media/ffmpeg"
)

func newCacheCommand(ctx *commandContext) *cobra.Command {
	cacheCmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect and manage the footage cache",
	}

	cacheCmd.AddCommand(newCacheStatsCommand(ctx))
	cacheCmd.AddCommand(newCachePruneCommand(ctx))
	cacheCmd.AddCommand(newCacheClearCommand(ctx))

	return cacheCmd
}

func newCacheStatsCommand(ctx *commandContext) *cobra.Command {
	var (
		jsonOutput bool
		limit      int
	)
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show footage cache usage",
		RunE: func(cmd *cobra.Command, args []string) error {
			manager, err := cacheManager(ctx)
			if err != nil {
				return err
			}
			stats, err := manager.Stats(cmd.Context())
			if err != nil {
				return err
			}
			if jsonOutput {
				return writeJSON(cmd, stats)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Root:    %s\n", manager.Root())
			fmt.Fprintf(out, "Entries: %d (%d downloads, %d trimmed)\n", stats.Entries, stats.Downloads, stats.Trimmed)
			fmt.Fprintf(out, "Size:    %s / %s\n", humanBytes(stats.TotalBytes), humanBytes(stats.MaxBytes))
			if stats.TotalFSBytes > 0 {
				fmt.Fprintf(out, "Disk:    %s free of %s\n", humanBytes(int64(stats.FreeBytes)), humanBytes(int64(stats.TotalFSBytes)))
			}
			printCacheEntries(out, stats.Files, limit)
			return nil
		},
	}
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Print cache stats as JSON")
	cmd.Flags().IntVarP(&limit, "limit", "n", 10, "Newest files to list (0 = all)")
	return cmd
}

func printCacheEntries(out io.Writer, entries []footagecache.EntrySummary, limit int) {
	if len(entries) == 0 {
		fmt.Fprintln(out, "Cached clips: none")
		return
	}
	shown := entries
	if limit > 0 && len(shown) > limit {
		shown = shown[:limit]
	}
	rows := make([][]string, 0, len(shown))
	for _, entry := range shown {
		rows = append(rows, []string{
			filepath.Base(entry.Path),
			entry.Kind,
			humanBytes(entry.SizeBytes),
			formatTimestamp(entry.ModifiedAt),
		})
	}
	fmt.Fprintln(out, renderTable(
		[]string{"File", "Kind", "Size", "Used"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignRight, alignLeft},
	))
	if hidden := len(entries) - len(shown); hidden > 0 {
		fmt.Fprintf(out, "(+%d older files)\n", hidden)
	}
}

func newCachePruneCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "prune",
		Short: "Evict least recently used clips until cache limits hold",
		RunE: func(cmd *cobra.Command, args []string) error {
			manager, err := cacheManager(ctx)
			if err != nil {
				return err
			}
			before, err := manager.Stats(cmd.Context())
			if err != nil {
				return err
			}
			removed, err := manager.Prune(cmd.Context())
			if err != nil {
				return err
			}
			after, err := manager.Stats(cmd.Context())
			if err != nil {
				return err
			}
			if removed == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No cache entries pruned")
				return nil
			}
			freed := before.TotalBytes - after.TotalBytes
			fmt.Fprintf(cmd.OutOrStdout(), "Pruned %d files, %s (now %s / %s)\n",
				removed, humanBytes(freed), humanBytes(after.TotalBytes), humanBytes(after.MaxBytes))
			return nil
		},
	}
}

func newCacheClearCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove every cached clip",
		RunE: func(cmd *cobra.Command, args []string) error {
			manager, err := cacheManager(ctx)
			if err != nil {
				return err
			}
			removed, err := manager.Clear(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %d cached files\n", removed)
			return nil
		},
	}
}

func cacheManager(ctx *commandContext) (*footagecache.Manager, error) {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return nil, err
	}
	logger, err := logging.New(logging.Options{Level: "info", Format: "console"})
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	logger = logging.NewComponentLogger(logger, "cli-cache")
	return footagecache.NewManager(cfg, ffmpeg.NewEncoder(cfg.Render), logger), nil
}
