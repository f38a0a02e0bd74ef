package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"storyreel/internal/assembly"
	"storyreel/internal/captions"
	"storyreel/internal/logging"
	"storyreel/internal/scenario"
	"storyreel/internal/store"
	"storyreel/internal/timeline"
)

func newPlanCommand(ctx *commandContext) *cobra.Command {
	var (
		seed        int64
		runID       string
		granularity string
		format      string
	)

	cmd := &cobra.Command{
		Use:   "plan SCENARIO.json",
		Short: "Allocate footage and compose the timeline without rendering",
		Long: "Allocate footage for an aligned scenario and print the composed timeline.\n" +
			"Pass --run to replay the seed recorded for an earlier assembly.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			sc, err := scenario.Load(args[0])
			if err != nil {
				return err
			}

			if !cmd.Flags().Changed("seed") {
				seed = cfg.Footage.Seed
			}
			if strings.TrimSpace(runID) != "" {
				err := ctx.withStore(func(st *store.Store) error {
					run, err := st.GetRun(cmd.Context(), runID)
					if err != nil {
						return err
					}
					seed = run.Seed
					return nil
				})
				if err != nil {
					return err
				}
			}
			if !cmd.Flags().Changed("granularity") {
				granularity = cfg.Footage.Granularity
			}
			g, err := timeline.ParseGranularity(granularity)
			if err != nil {
				return err
			}

			lines := sc.Lines
			if len(lines) == 0 && len(sc.Words) > 0 {
				limits, err := assembly.CaptionLimits(cfg.Captions)
				if err != nil {
					return err
				}
				lines = captions.Segment(sc.Words, limits)
			}

			plan, err := assembly.BuildPlan(sc.Blocks, lines, assembly.PlanOptions{
				Seed:        seed,
				Granularity: g,
				Logger:      logging.NewNop(),
			})
			if err != nil {
				return err
			}

			return writeFormatted(cmd, format, plan, func(out io.Writer) {
				printPlan(out, plan, seed)
			})
		},
	}

	cmd.Flags().Int64Var(&seed, "seed", 0, "Seed for fresh footage picks")
	cmd.Flags().StringVar(&runID, "run", "", "Reuse the seed of a recorded run (id or prefix)")
	cmd.Flags().StringVar(&granularity, "granularity", "", "Footage granularity (block or line)")
	cmd.Flags().StringVarP(&format, "format", "f", "table", "Output format: table, json or yaml")
	return cmd
}

func printPlan(out io.Writer, plan *assembly.Plan, seed int64) {
	rows := make([][]string, 0, len(plan.Placements))
	for _, p := range plan.Placements {
		detail := ""
		switch p.Kind {
		case timeline.KindFootage:
			detail = fmt.Sprintf("%s @%s (%s)", p.Footage.ID, formatSeconds(p.Footage.Offset), p.Footage.Tier)
		case timeline.KindCaption:
			detail = p.Caption.Text
		}
		rows = append(rows, []string{
			string(p.Kind),
			formatSeconds(p.Start),
			formatSeconds(p.Duration),
			detail,
		})
	}
	fmt.Fprintln(out, renderTable(
		[]string{"Kind", "Start", "Duration", "Detail"},
		rows,
		[]columnAlignment{alignLeft, alignRight, alignRight, alignLeft},
	))
	fmt.Fprintf(out, "Seed %d: %d segments, %s, timeline %s\n",
		seed, len(plan.Allocations), formatTiers(plan.TierCounts), formatSeconds(plan.Duration))
	if len(plan.Skipped) > 0 {
		fmt.Fprintf(out, "Skipped unaligned blocks: %s\n", joinInts(plan.Skipped))
	}
}
