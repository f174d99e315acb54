// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the ppm-batch CLI, which converts
// folders of PPM frames into PNG or JPEG files.
package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/pdiddy/ppm-batch/internal/logging"
	"github.com/pdiddy/ppm-batch/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

// logger is configured from the log.* settings before any subcommand runs.
var logger = zerolog.Nop()

// rootCmd is the base command for the ppm-batch CLI.
var rootCmd = &cobra.Command{
	Use:   "ppm-batch",
	Short: "Batch-convert PPM frames to PNG or JPEG",
	Long: `ppm-batch converts the *.ppm frames a renderer leaves in a folder into
PNG or JPEG files with the same base name, one file at a time.

Settings come from flags, PPM_BATCH_* environment variables, and an optional
ppm-batch.yaml config file, in that order of precedence. Without any of them
the convert command reads ./frames and writes PNG.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		l, err := logging.New(cmd.ErrOrStderr(), cfg.Log)
		if err != nil {
			return err
		}
		logger = l
		if used := viper.ConfigFileUsed(); used != "" {
			logger.Debug().Str("path", used).Msg("using config file")
		}
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	pf := rootCmd.PersistentFlags()
	pf.String("config", "", "config file (default: ./ppm-batch.yaml or ~/.config/ppm-batch/config.yaml)")
	pf.String("ledger", "", "SQLite ledger recording every conversion (disabled when empty)")
	pf.Int("quality", types.DefaultJPEGQuality, "JPEG encoder quality (1-100)")
	pf.String("log-level", "info", "log level: debug, info, warn, error")
	pf.String("log-format", "console", "log format: console or json")

	mustBindFlags(pf, map[string]string{
		"ledger.path":             "ledger",
		"conversion.jpeg_quality": "quality",
		"log.level":               "log-level",
		"log.format":              "log-format",
	})
}

// configErr holds a config file read failure from initConfig.
var configErr error

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("ppm-batch")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "ppm-batch"))
		}
	}

	def := types.DefaultConfig()
	viper.SetDefault("conversion.source_dir", def.Conversion.SourceDir)
	viper.SetDefault("conversion.target_ext", def.Conversion.TargetExt)
	viper.SetDefault("conversion.jpeg_quality", def.Conversion.JPEGQuality)
	viper.SetDefault("conversion.delete_source", def.Conversion.DeleteSource)
	viper.SetDefault("ledger.path", def.Ledger.Path)
	viper.SetDefault("report.path", def.Report.Path)
	viper.SetDefault("log.level", def.Log.Level)
	viper.SetDefault("log.format", def.Log.Format)

	viper.SetEnvPrefix("PPM_BATCH")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// A missing config file is fine; a broken one is reported once the
	// logger exists, through loadConfig.
	configErr = bindFlags()
	if configErr != nil {
		return
	}
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			configErr = fmt.Errorf("reading config: %w", err)
		}
	}
}

// loadConfig resolves the effective configuration from viper.
func loadConfig() (types.Config, error) {
	if configErr != nil {
		return types.Config{}, configErr
	}
	cfg := types.DefaultConfig()
	if err := viper.Unmarshal(&cfg); err != nil {
		return types.Config{}, fmt.Errorf("decoding config: %w", err)
	}
	return cfg, nil
}

// flagBindings maps viper keys to the flags that override them. initConfig
// applies them on every run, so they survive a viper.Reset.
var flagBindings = map[string]*pflag.Flag{}

// mustBindFlags registers viper keys for the named flags in fs. It panics on
// a missing flag, which is a programming error caught at startup.
func mustBindFlags(fs *pflag.FlagSet, bindings map[string]string) {
	for key, name := range bindings {
		flag := fs.Lookup(name)
		if flag == nil {
			panic(fmt.Sprintf("flag --%s not defined", name))
		}
		flagBindings[key] = flag
	}
}

func bindFlags() error {
	for key, flag := range flagBindings {
		if err := viper.BindPFlag(key, flag); err != nil {
			return fmt.Errorf("binding --%s: %w", flag.Name, err)
		}
	}
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
