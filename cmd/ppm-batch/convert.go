// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"github.com/spf13/cobra"

	"github.com/pdiddy/ppm-batch/internal/codec"
	"github.com/pdiddy/ppm-batch/internal/convert"
	"github.com/pdiddy/ppm-batch/internal/ledger"
	"github.com/pdiddy/ppm-batch/pkg/types"
)

var convertCmd = &cobra.Command{
	Use:   "convert [folder] [ext]",
	Short: "Convert every *.ppm file in a folder to PNG or JPEG",
	Long: `Convert decodes each *.ppm file directly inside folder (default ./frames)
and writes it next to the source with the extension ext (default png). The
extension picks the encoder: png, jpg/jpeg, gif, tif/tiff or bmp.

One "Converted <source> -> <output>" line is printed per file. The first file
that cannot be decoded or written stops the run with a non-zero exit status;
files converted before it are kept.`,
	Example: `  ppm-batch convert
  ppm-batch convert ./renders jpg --quality 85
  ppm-batch convert ./frames png --delete --ledger state/ledger.db`,
	Args: cobra.MaximumNArgs(2),
	RunE: runConvert,
}

func init() {
	convertCmd.Flags().Bool("delete", false, "remove each source file after it has been converted")
	convertCmd.Flags().String("report", "", "write a YAML run report to this path")

	mustBindFlags(convertCmd.Flags(), map[string]string{
		"conversion.delete_source": "delete",
		"report.path":              "report",
	})

	rootCmd.AddCommand(convertCmd)
}

func runConvert(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if len(args) > 0 {
		cfg.Conversion.SourceDir = args[0]
	}
	if len(args) > 1 {
		cfg.Conversion.TargetExt = args[1]
	}

	conv, closeLedger, err := newConverter(cmd, cfg)
	if err != nil {
		return err
	}
	defer closeLedger()

	report, runErr := conv.Run(cmd.Context(), convert.ConfigFrom(cfg.Conversion))

	if cfg.Report.Path != "" && report.RunID != "" {
		if err := report.WriteYAML(cfg.Report.Path); err != nil {
			logger.Warn().Err(err).Str("path", cfg.Report.Path).Msg("could not write run report")
		}
	}
	return runErr
}

// newConverter builds a Converter from cfg, attaching the ledger when one is
// configured. The returned func closes the ledger and is always safe to call.
func newConverter(cmd *cobra.Command, cfg types.Config) (*convert.Converter, func(), error) {
	opts := []convert.Option{convert.WithLogger(logger)}
	closeFn := func() {}

	if cfg.Ledger.Path != "" {
		store, err := ledger.Open(cfg.Ledger.Path)
		if err != nil {
			return nil, closeFn, err
		}
		opts = append(opts, convert.WithRecorder(store))
		closeFn = func() {
			if err := store.Close(); err != nil {
				logger.Warn().Err(err).Msg("closing ledger")
			}
		}
	}

	cdc := codec.NewPNM(cfg.Conversion.JPEGQuality)
	return convert.NewConverter(cdc, cmd.OutOrStdout(), opts...), closeFn, nil
}
