package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"storyreel/internal/alignment"
	"storyreel/internal/scenario"
)

type alignOutput struct {
	Report   alignment.Report `json:"report"`
	MissRate float64          `json:"miss_rate"`
	Skipped  []int            `json:"unaligned_blocks,omitempty"`
}

func newAlignCommand(ctx *commandContext) *cobra.Command {
	var (
		outputPath   string
		maxLookahead int
		jsonOutput   bool
	)

	cmd := &cobra.Command{
		Use:   "align SCENARIO.json WORDS.json",
		Short: "Align script blocks to a word stream and report misses",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			sc, err := scenario.Load(args[0])
			if err != nil {
				return err
			}
			words, err := scenario.LoadWords(args[1])
			if err != nil {
				return err
			}
			if len(sc.Blocks) == 0 {
				sc.Blocks = scenario.SplitBlocks(sc.FullScript, cfg.Script.MinBlockWords)
			}
			lookahead := cfg.Alignment.MaxLookahead
			if cmd.Flags().Changed("max-lookahead") {
				lookahead = maxLookahead
			}

			report := alignment.Align(sc.Blocks, words, alignment.WithMaxLookahead(lookahead))
			unaligned := alignment.UnalignedBlocks(sc.Blocks)
			if strings.TrimSpace(outputPath) != "" {
				sc.Words = words
				if err := sc.Save(outputPath); err != nil {
					return err
				}
			}
			if jsonOutput {
				return writeJSON(cmd, alignOutput{Report: report, MissRate: report.MissRate(), Skipped: unaligned})
			}

			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)
			kind := statusOK
			if len(report.Misses) > 0 || len(unaligned) > 0 {
				kind = statusWarn
			}
			fmt.Fprintln(out, renderStatusLine("Alignment", kind,
				fmt.Sprintf("%d/%d tokens matched across %d blocks (%.1f%% missed)",
					report.Matched, report.Tokens, len(sc.Blocks), report.MissRate()*100), colorize))
			if len(unaligned) > 0 {
				fmt.Fprintln(out, renderStatusLine("Unaligned blocks", statusWarn, joinInts(unaligned), colorize))
			}
			if len(report.Misses) > 0 {
				rows := make([][]string, 0, len(report.Misses))
				for _, m := range report.Misses {
					rows = append(rows, []string{fmt.Sprint(m.Block), m.Token, fmt.Sprint(m.Cursor)})
				}
				fmt.Fprintln(out, renderTable([]string{"Block", "Token", "Cursor"}, rows,
					[]columnAlignment{alignRight, alignLeft, alignRight}))
			}
			if outputPath != "" {
				fmt.Fprintf(out, "Wrote %s\n", outputPath)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "Write the aligned scenario to this path")
	cmd.Flags().IntVar(&maxLookahead, "max-lookahead", 0, "Bound the transcript scan per token (0 = unbounded)")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Print the report as JSON")
	return cmd
}
