package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"storyreel/internal/assembly"
	"storyreel/internal/config"
	"storyreel/internal/deps"
	"storyreel/internal/media/ffmpeg"
	"storyreel/internal/services/llm"
)

func newDoctorCommand(ctx *commandContext) *cobra.Command {
	var checkAPI bool
	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check external tools, credentials and directories",
		Long: "Check external tools, credentials and directories.\n" +
			"Pass --check-api to send one keyword request to the configured LLM.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)

			statuses := deps.CheckBinaries(deps.Requirements(cfg))
			for _, line := range renderSectionHeader("Dependencies", colorize) {
				fmt.Fprintln(out, line)
			}
			for _, line := range dependencyLines(statuses, colorize) {
				fmt.Fprintln(out, line)
			}
			fmt.Fprintln(out)

			for _, line := range renderSectionHeader("Setup", colorize) {
				fmt.Fprintln(out, line)
			}
			for _, line := range setupLines(cfg, colorize) {
				fmt.Fprintln(out, line)
			}
			var apiErr error
			if checkAPI {
				apiErr = checkLLM(cmd.Context(), cfg)
				if apiErr != nil {
					fmt.Fprintln(out, renderStatusLine("LLM API", statusError, apiErr.Error(), colorize))
				} else {
					fmt.Fprintln(out, renderStatusLine("LLM API", statusOK, "keyword model answered ("+cfg.LLM.KeywordModel+")", colorize))
				}
			}

			if missing := deps.Missing(statuses); len(missing) > 0 {
				names := make([]string, 0, len(missing))
				for _, dep := range missing {
					names = append(names, dep.Name)
				}
				return fmt.Errorf("missing required tools: %s", strings.Join(names, ", "))
			}
			if apiErr != nil {
				return errors.New("llm api check failed")
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&checkAPI, "check-api", false, "Send a test request to the LLM endpoint")
	return cmd
}

func checkLLM(ctx context.Context, cfg *config.Config) error {
	if strings.TrimSpace(cfg.LLM.APIKey) == "" {
		return errors.New("llm api key not set")
	}
	return assembly.NewLLMClient(cfg, llm.WithRetryMaxAttempts(1)).HealthCheck(ctx)
}

func dependencyLines(statuses []deps.Status, colorize bool) []string {
	lines := make([]string, 0, len(statuses)+1)
	var missing []string
	for _, dep := range statuses {
		if dep.Available {
			message := "Ready"
			if dep.Command != "" {
				message = fmt.Sprintf("Ready (command: %s)", dep.Command)
			}
			lines = append(lines, renderStatusLine(dep.Name, statusOK, message, colorize))
			continue
		}
		detail := strings.TrimSpace(dep.Detail)
		if detail == "" {
			detail = "not available"
		}
		kind := statusError
		if dep.Optional {
			kind = statusWarn
			detail += " (optional)"
		}
		lines = append(lines, renderStatusLine(dep.Name, kind, detail, colorize))
		if !dep.Optional {
			missing = append(missing, dep.Name)
		}
	}
	if len(missing) > 0 {
		lines = append(lines, renderStatusLine("Missing dependencies", statusError, strings.Join(missing, ", "), colorize))
	}
	return lines
}

func setupLines(cfg *config.Config, colorize bool) []string {
	var lines []string
	if err := cfg.RequireCredentials(); err != nil {
		lines = append(lines, renderStatusLine("Credentials", statusWarn, err.Error(), colorize))
	} else {
		lines = append(lines, renderStatusLine("Credentials", statusOK, "LLM, speech and stock keys set", colorize))
	}

	music, err := ffmpeg.ListMusic(cfg.Render.MusicDir)
	switch {
	case err != nil:
		lines = append(lines, renderStatusLine("Music", statusWarn, err.Error(), colorize))
	case len(music) == 0:
		lines = append(lines, renderStatusLine("Music", statusInfo, "no tracks; videos render without background music", colorize))
	default:
		lines = append(lines, renderStatusLine("Music", statusOK, fmt.Sprintf("%d tracks in %s", len(music), cfg.Render.MusicDir), colorize))
	}

	lines = append(lines,
		renderStatusLine("Output", statusInfo, cfg.Paths.OutputDir, colorize),
		renderStatusLine("Run ledger", statusInfo, cfg.StorePath(), colorize),
	)
	return lines
}
