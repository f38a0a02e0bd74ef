package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// writeJSON encodes v as indented JSON to the command's stdout.
func writeJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeYAML(out io.Writer, v any) error {
	enc := yaml.NewEncoder(out)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode yaml: %w", err)
	}
	return enc.Close()
}

// writeFormatted prints v as json or yaml, or calls table for the default
// human-readable form.
func writeFormatted(cmd *cobra.Command, format string, v any, table func(io.Writer)) error {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "json":
		return writeJSON(cmd, v)
	case "yaml", "yml":
		return writeYAML(cmd.OutOrStdout(), v)
	case "", "table":
		table(cmd.OutOrStdout())
		return nil
	default:
		return fmt.Errorf("unknown format %q (want table, json or yaml)", format)
	}
}
