// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"github.com/spf13/cobra"
)

var fileCmd = &cobra.Command{
	Use:   "file <input.ppm> <output>",
	Short: "Convert a single PPM/PGM file",
	Long: `File converts one image. The output extension selects the encoder, the
same way the convert command's ext argument does.`,
	Example: `  ppm-batch file frames/checker.ppm out/checker.png`,
	Args:    cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		conv, closeLedger, err := newConverter(cmd, cfg)
		if err != nil {
			return err
		}
		defer closeLedger()

		_, err = conv.ConvertFile(cmd.Context(), args[0], args[1])
		return err
	},
}

func init() {
	rootCmd.AddCommand(fileCmd)
}
