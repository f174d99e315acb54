// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/pdiddy/ppm-batch/internal/checker"
)

var checkerCmd = &cobra.Command{
	Use:   "checker [path]",
	Short: "Write a checkerboard test frame as PPM",
	Long: `Checker writes a black and white checkerboard as a binary PPM, by default
to checker.ppm inside the configured source folder, so the convert command
has something to work on.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		size, _ := cmd.Flags().GetInt("size")
		cell, _ := cmd.Flags().GetInt("cell")

		path := filepath.Join(cfg.Conversion.SourceDir, "checker.ppm")
		if len(args) > 0 {
			path = args[0]
		}

		img, err := checker.Checkerboard(size, size, cell)
		if err != nil {
			return err
		}
		if err := checker.WritePPM(path, img); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s (%dx%d)\n", path, size, size)
		return nil
	},
}

func init() {
	checkerCmd.Flags().Int("size", checker.DefaultSize, "width and height in pixels")
	checkerCmd.Flags().Int("cell", checker.DefaultCell, "checker square size in pixels")

	rootCmd.AddCommand(checkerCmd)
}
