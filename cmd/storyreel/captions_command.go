package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"storyreel/internal/assembly"
	"storyreel/internal/captions"
	"storyreel/internal/scenario"
)

func newCaptionsCommand(ctx *commandContext) *cobra.Command {
	var (
		preset     string
		policy     string
		maxChars   int
		srtPath    string
		assPath    string
		jsonOutput bool
	)

	cmd := &cobra.Command{
		Use:   "captions WORDS.json",
		Short: "Segment a stored word stream into caption lines",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			words, err := scenario.LoadWords(args[0])
			if err != nil {
				return err
			}
			settings := cfg.Captions
			if cmd.Flags().Changed("preset") {
				settings.Preset = preset
				settings.MaxChars, settings.MaxDuration, settings.MaxGap = 0, 0, 0
			}
			if cmd.Flags().Changed("policy") {
				settings.Policy = policy
			}
			if maxChars > 0 {
				settings.MaxChars = maxChars
			}
			limits, err := assembly.CaptionLimits(settings)
			if err != nil {
				return err
			}

			lines := captions.Segment(words, limits)
			if err := assembly.WriteCaptionFiles(lines, assembly.CaptionStyle(cfg), srtPath, assPath); err != nil {
				return err
			}
			if jsonOutput {
				return writeJSON(cmd, lines)
			}

			out := cmd.OutOrStdout()
			rows := make([][]string, 0, len(lines))
			for i, line := range lines {
				rows = append(rows, []string{
					fmt.Sprint(i + 1),
					formatSeconds(line.Start),
					formatSeconds(line.End),
					fmt.Sprint(len(line.Words)),
					line.Text,
				})
			}
			if len(rows) > 0 {
				fmt.Fprintln(out, renderTable(
					[]string{"#", "Start", "End", "Words", "Text"},
					rows,
					[]columnAlignment{alignRight, alignRight, alignRight, alignRight, alignLeft},
				))
			}
			fmt.Fprintf(out, "%d words -> %d lines (max %d chars, %.1fs, gap %.1fs, %s)\n",
				len(words), len(lines), limits.MaxChars, limits.MaxDuration, limits.MaxGap, limits.Policy)
			for _, written := range []string{srtPath, assPath} {
				if strings.TrimSpace(written) != "" {
					fmt.Fprintf(out, "Wrote %s\n", written)
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&preset, "preset", "", "Caption preset (standard or dense)")
	cmd.Flags().StringVar(&policy, "policy", "", "Flush policy (strict or inclusive)")
	cmd.Flags().IntVar(&maxChars, "max-chars", 0, "Override the maximum characters per line")
	cmd.Flags().StringVar(&srtPath, "srt", "", "Write SubRip captions to this path")
	cmd.Flags().StringVar(&assPath, "ass", "", "Write ASS captions to this path")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Print lines as JSON")
	return cmd
}
