package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"storyreel/internal/store"
)

func newRunsCommand(ctx *commandContext) *cobra.Command {
	runsCmd := &cobra.Command{
		Use:   "runs",
		Short: "Inspect the assembly run ledger",
	}
	runsCmd.AddCommand(newRunsListCommand(ctx))
	runsCmd.AddCommand(newRunsShowCommand(ctx))
	runsCmd.AddCommand(newRunsAbandonCommand(ctx))
	runsCmd.AddCommand(newRunsPruneCommand(ctx))
	return runsCmd
}

func newRunsListCommand(ctx *commandContext) *cobra.Command {
	var (
		statusFilter []string
		limit        int
		jsonOutput   bool
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recent runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			statuses := make([]store.Status, 0, len(statusFilter))
			for _, value := range statusFilter {
				status, ok := store.ParseStatus(strings.ToLower(strings.TrimSpace(value)))
				if !ok {
					return fmt.Errorf("unknown status %q", value)
				}
				statuses = append(statuses, status)
			}
			return ctx.withStore(func(st *store.Store) error {
				runs, err := st.ListRuns(cmd.Context(), limit, statuses...)
				if err != nil {
					return err
				}
				if jsonOutput {
					return writeJSON(cmd, runs)
				}
				out := cmd.OutOrStdout()
				if len(runs) == 0 {
					fmt.Fprintln(out, "No runs recorded")
					return nil
				}
				rows := make([][]string, 0, len(runs))
				for _, run := range runs {
					rows = append(rows, []string{
						shortID(run.ID),
						string(run.Status),
						run.Stage,
						run.Theme,
						formatSeconds(run.Duration),
						formatTimestamp(run.CreatedAt),
					})
				}
				fmt.Fprintln(out, renderTable(
					[]string{"Run", "Status", "Stage", "Theme", "Length", "Started"},
					rows,
					[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignRight, alignLeft},
				))
				stats, err := st.Stats(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "Totals: %s\n", formatRunStats(stats))
				return nil
			})
		},
	}
	cmd.Flags().StringSliceVarP(&statusFilter, "status", "s", nil, "Filter by status (running, completed, failed, invalid)")
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum runs to list (0 = all)")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Print runs as JSON")
	return cmd
}

type runDetail struct {
	Run         *store.Run               `json:"run"`
	Allocations []store.AllocationRecord `json:"allocations"`
	Misses      []store.MissRecord       `json:"misses"`
}

func newRunsShowCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool
	cmd := &cobra.Command{
		Use:   "show RUN",
		Short: "Show one run with its footage allocation and alignment misses",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(st *store.Store) error {
				run, err := st.GetRun(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				allocs, err := st.Allocations(cmd.Context(), run.ID)
				if err != nil {
					return err
				}
				misses, err := st.Misses(cmd.Context(), run.ID)
				if err != nil {
					return err
				}
				if jsonOutput {
					return writeJSON(cmd, runDetail{Run: run, Allocations: allocs, Misses: misses})
				}

				out := cmd.OutOrStdout()
				colorize := shouldColorize(out)
				for _, line := range renderSectionHeader("Run "+run.ID, colorize) {
					fmt.Fprintln(out, line)
				}
				fmt.Fprintln(out, renderStatusLine("Status", runStatusKind(run.Status), string(run.Status), colorize))
				fmt.Fprintln(out, renderField("Theme", run.Theme))
				fmt.Fprintln(out, renderField("Video ID", run.VideoID))
				fmt.Fprintln(out, renderField("Stage", run.Stage))
				fmt.Fprintln(out, renderField("Seed", fmt.Sprintf("%d", run.Seed)))
				fmt.Fprintln(out, renderField("Started", formatTimestamp(run.CreatedAt)))
				if run.OutputPath != "" {
					fmt.Fprintln(out, renderField("Output", fmt.Sprintf("%s (%s)", run.OutputPath, formatSeconds(run.Duration))))
				}
				if run.ErrorMessage != "" {
					fmt.Fprintln(out, renderStatusLine("Error", statusError, run.ErrorMessage, colorize))
				}
				if len(allocs) > 0 {
					rows := make([][]string, 0, len(allocs))
					for _, a := range allocs {
						rows = append(rows, []string{fmt.Sprint(a.Index), formatSeconds(a.Start), formatSeconds(a.End), a.ClipID, a.Tier})
					}
					fmt.Fprintln(out, renderTable([]string{"#", "Start", "End", "Clip", "Tier"}, rows,
						[]columnAlignment{alignRight, alignRight, alignRight, alignLeft, alignLeft}))
				}
				if len(misses) > 0 {
					tokens := make([]string, 0, len(misses))
					for _, m := range misses {
						tokens = append(tokens, fmt.Sprintf("%s (block %d)", m.Token, m.Block))
					}
					fmt.Fprintln(out, renderStatusLine("Alignment misses", statusWarn, strings.Join(tokens, ", "), colorize))
				}
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Print the run as JSON")
	return cmd
}

func newRunsAbandonCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "abandon",
		Short: "Mark runs left running by an interrupted process as failed",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(st *store.Store) error {
				n, err := st.AbandonRunning(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Marked %d runs as failed\n", n)
				return nil
			})
		},
	}
}

func newRunsPruneCommand(ctx *commandContext) *cobra.Command {
	var olderThan time.Duration
	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Delete finished runs older than a cutoff",
		RunE: func(cmd *cobra.Command, args []string) error {
			if olderThan <= 0 {
				return fmt.Errorf("--older-than must be positive")
			}
			return ctx.withStore(func(st *store.Store) error {
				n, err := st.PruneBefore(cmd.Context(), time.Now().Add(-olderThan))
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted %d runs\n", n)
				return nil
			})
		},
	}
	cmd.Flags().DurationVar(&olderThan, "older-than", 30*24*time.Hour, "Age cutoff for finished runs")
	return cmd
}

func runStatusKind(status store.Status) statusKind {
	switch status {
	case store.StatusCompleted:
		return statusOK
	case store.StatusRunning:
		return statusInfo
	case store.StatusInvalid:
		return statusWarn
	default:
		return statusError
	}
}

func formatRunStats(stats map[store.Status]int) string {
	order := []store.Status{store.StatusRunning, store.StatusCompleted, store.StatusFailed, store.StatusInvalid}
	parts := make([]string, 0, len(order))
	for _, status := range order {
		if n := stats[status]; n > 0 {
			parts = append(parts, fmt.Sprintf("%d %s", n, status))
		}
	}
	if len(parts) == 0 {
		return "none"
	}
	return strings.Join(parts, ", ")
}
