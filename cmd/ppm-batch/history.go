// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/pdiddy/ppm-batch/internal/ledger"
	"github.com/pdiddy/ppm-batch/pkg/types"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List conversions recorded in the ledger",
	Long: `History reads the ledger given by --ledger (or ledger.path) and prints the
recorded conversions, newest first. Use --runs for one line per batch run and
--format json or yaml for machine-readable output.`,
	Args: cobra.NoArgs,
	RunE: runHistory,
}

func init() {
	historyCmd.Flags().String("run", "", "only show conversions from this run ID")
	historyCmd.Flags().String("source", "", "only show conversions of this source path")
	historyCmd.Flags().Int("limit", 20, "maximum number of rows")
	historyCmd.Flags().Bool("runs", false, "summarize per run instead of per file")
	historyCmd.Flags().String("format", "table", "output format: table, json, or yaml")

	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cfg.Ledger.Path == "" {
		return fmt.Errorf("no ledger configured: pass --ledger or set ledger.path")
	}

	store, err := ledger.Open(cfg.Ledger.Path)
	if err != nil {
		return err
	}
	defer store.Close()

	runID, _ := cmd.Flags().GetString("run")
	source, _ := cmd.Flags().GetString("source")
	limit, _ := cmd.Flags().GetInt("limit")
	perRun, _ := cmd.Flags().GetBool("runs")
	format, _ := cmd.Flags().GetString("format")

	out := cmd.OutOrStdout()
	ctx := cmd.Context()
	opts := ledger.ListOptions{RunID: runID, Source: source, Limit: limit}

	if perRun {
		runs, err := store.Runs(ctx, limit)
		if err != nil {
			return err
		}
		if format != "table" && format != "" {
			return fmt.Errorf("--runs only supports table output")
		}
		return formatRuns(out, runs)
	}

	switch format {
	case "table", "":
		conversions, err := store.List(ctx, opts)
		if err != nil {
			return err
		}
		return formatConversions(out, conversions)
	case "json":
		return store.ExportJSON(ctx, out, opts)
	case "yaml":
		return store.ExportYAML(ctx, out, opts)
	default:
		return fmt.Errorf("unsupported format %q: use table, json, or yaml", format)
	}
}

func formatConversions(w io.Writer, conversions []types.Conversion) error {
	if len(conversions) == 0 {
		fmt.Fprintln(w, "No conversions recorded.")
		return nil
	}

	fmt.Fprintf(w, "%-20s  %-40s  %-5s  %-9s  %s\n", "Converted", "Output", "Fmt", "Size", "Run")
	fmt.Fprintln(w, strings.Repeat("-", 100))
	for _, c := range conversions {
		output := c.Output
		if len(output) > 40 {
			output = "..." + output[len(output)-37:]
		}
		fmt.Fprintf(w, "%-20s  %-40s  %-5s  %-9s  %s\n",
			c.ConvertedAt.Local().Format(time.DateTime), output, c.Format,
			fmt.Sprintf("%dx%d", c.Width, c.Height), shortID(c.RunID))
	}
	fmt.Fprintf(w, "\n%d conversions\n", len(conversions))
	return nil
}

func formatRuns(w io.Writer, runs []ledger.RunSummary) error {
	if len(runs) == 0 {
		fmt.Fprintln(w, "No runs recorded.")
		return nil
	}

	fmt.Fprintf(w, "%-36s  %-20s  %5s  %s\n", "Run", "Finished", "Files", "Bytes")
	fmt.Fprintln(w, strings.Repeat("-", 80))
	for _, r := range runs {
		fmt.Fprintf(w, "%-36s  %-20s  %5d  %d\n",
			r.RunID, r.LastAt.Local().Format(time.DateTime), r.Conversions, r.Bytes)
	}
	return nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
