// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

const (
	// DefaultSourceDir is the folder scanned when no source directory is configured.
	DefaultSourceDir = "./frames"

	// DefaultTargetExt is the output extension used when none is configured.
	DefaultTargetExt = "png"

	// DefaultJPEGQuality is the JPEG encoder quality used when none is configured.
	DefaultJPEGQuality = 95
)

// ConversionConfig holds settings for the batch conversion stage.
type ConversionConfig struct {
	// SourceDir is the directory scanned for *.ppm files (non-recursive).
	SourceDir string `json:"source_dir" yaml:"source_dir" mapstructure:"source_dir"`

	// TargetExt is the output extension (e.g. "png", "jpg"). It also selects
	// the output encoder.
	TargetExt string `json:"target_ext" yaml:"target_ext" mapstructure:"target_ext"`

	// JPEGQuality is the encoder quality (1-100) for JPEG output.
	JPEGQuality int `json:"jpeg_quality" yaml:"jpeg_quality" mapstructure:"jpeg_quality"`

	// DeleteSource removes each source file after its output has been written.
	DeleteSource bool `json:"delete_source" yaml:"delete_source" mapstructure:"delete_source"`
}

// LedgerConfig holds settings for the conversion ledger.
type LedgerConfig struct {
	// Path is the SQLite database file. An empty path disables the ledger.
	Path string `json:"path" yaml:"path" mapstructure:"path"`
}

// ReportConfig holds settings for the per-run YAML report.
type ReportConfig struct {
	// Path is where the run report is written. An empty path disables it.
	Path string `json:"path" yaml:"path" mapstructure:"path"`
}

// LogConfig holds logger settings.
type LogConfig struct {
	// Level is a zerolog level name: debug, info, warn, error.
	Level string `json:"level" yaml:"level" mapstructure:"level"`

	// Format selects "console" (human readable) or "json" output.
	Format string `json:"format" yaml:"format" mapstructure:"format"`
}

// Config groups all settings for a ppm-batch invocation.
type Config struct {
	Conversion ConversionConfig `json:"conversion" yaml:"conversion" mapstructure:"conversion"`
	Ledger     LedgerConfig     `json:"ledger" yaml:"ledger" mapstructure:"ledger"`
	Report     ReportConfig     `json:"report" yaml:"report" mapstructure:"report"`
	Log        LogConfig        `json:"log" yaml:"log" mapstructure:"log"`
}

// DefaultConfig returns the configuration used when nothing is overridden.
func DefaultConfig() Config {
	return Config{
		Conversion: ConversionConfig{
			SourceDir:   DefaultSourceDir,
			TargetExt:   DefaultTargetExt,
			JPEGQuality: DefaultJPEGQuality,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
	}
}
