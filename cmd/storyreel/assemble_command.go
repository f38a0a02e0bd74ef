package main

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"storyreel/internal/assembly"
	"storyreel/internal/footage"
	"storyreel/internal/store"
)

func newAssembleCommand(ctx *commandContext) *cobra.Command {
	var (
		themes     []string
		themesFile string
		jsonOutput bool
	)

	cmd := &cobra.Command{
		Use:   "assemble",
		Short: "Write, narrate and render a video for each theme",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if err := cfg.RequireCredentials(); err != nil {
				return err
			}
			list := append([]string(nil), themes...)
			list = append(list, args...)
			if strings.TrimSpace(themesFile) != "" {
				fromFile, err := readThemes(themesFile)
				if err != nil {
					return err
				}
				list = append(list, fromFile...)
			}
			if len(list) == 0 {
				return errors.New("no themes given; use --theme or --themes-file")
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}

			return ctx.withStore(func(st *store.Store) error {
				asm, err := assembly.New(cfg, st, assembly.NewServices(cfg, logger), logger)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				colorize := shouldColorize(out)
				results := make([]*assembly.Result, 0, len(list))
				failed := 0
				for _, theme := range list {
					if err := cmd.Context().Err(); err != nil {
						return err
					}
					result, err := asm.Assemble(cmd.Context(), theme)
					if result != nil {
						results = append(results, result)
					}
					if err != nil {
						failed++
						if !jsonOutput {
							fmt.Fprintln(out, renderStatusLine(theme, statusError, err.Error(), colorize))
						}
						continue
					}
					if !jsonOutput {
						printResult(out, result, colorize)
					}
				}
				if jsonOutput {
					if err := writeJSON(cmd, results); err != nil {
						return err
					}
				}
				if failed > 0 {
					return fmt.Errorf("%d of %d themes failed", failed, len(list))
				}
				return nil
			})
		},
	}

	cmd.Flags().StringArrayVarP(&themes, "theme", "t", nil, "Theme to assemble (repeatable)")
	cmd.Flags().StringVar(&themesFile, "themes-file", "", "File with one theme per line")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Print results as JSON")
	return cmd
}

func printResult(out io.Writer, result *assembly.Result, colorize bool) {
	fmt.Fprintln(out, renderStatusLine(result.Theme, statusOK, result.OutputPath, colorize))
	fmt.Fprintln(out, renderField("Video", fmt.Sprintf("%s (seed %d, run %s)", formatSeconds(result.Duration), result.Seed, shortID(result.RunID))))
	fmt.Fprintln(out, renderField("Script", fmt.Sprintf("%d blocks, %d caption lines", result.Blocks, result.Lines)))
	fmt.Fprintln(out, renderField("Footage", formatTiers(result.TierCounts)))
	if result.Music != "" {
		fmt.Fprintln(out, renderField("Music", result.Music))
	}
	if len(result.Misses) > 0 {
		fmt.Fprintln(out, renderStatusLine("Alignment", statusWarn,
			fmt.Sprintf("%d script words missing from transcript (%.1f%%)", len(result.Misses), result.MissRate*100), colorize))
	}
	if len(result.SkippedBlocks) > 0 {
		fmt.Fprintln(out, renderStatusLine("Skipped blocks", statusWarn, joinInts(result.SkippedBlocks), colorize))
	}
	if len(result.Reused) > 0 {
		fmt.Fprintln(out, renderField("Reused", strings.Join(result.Reused, ", ")))
	}
}

func formatTiers(counts map[footage.Tier]int) string {
	if len(counts) == 0 {
		return "none"
	}
	tiers := make([]footage.Tier, 0, len(counts))
	for tier := range counts {
		tiers = append(tiers, tier)
	}
	sort.Slice(tiers, func(i, j int) bool { return tiers[i] < tiers[j] })
	parts := make([]string, 0, len(tiers))
	for _, tier := range tiers {
		parts = append(parts, fmt.Sprintf("%d %s", counts[tier], tier))
	}
	return strings.Join(parts, ", ")
}

func joinInts(values []int) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = fmt.Sprint(v)
	}
	return strings.Join(parts, ", ")
}
