// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package ledger

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"go.yaml.in/yaml/v3"
)

// exportLimit applies when the caller sets no limit, so an export covers the
// whole ledger by default.
const exportLimit = 100000

// ExportYAML writes the conversions matching opts to w as a YAML list.
func (s *Store) ExportYAML(ctx context.Context, w io.Writer, opts ListOptions) error {
	entries, err := s.List(ctx, exportOptions(opts))
	if err != nil {
		return fmt.Errorf("querying for export: %w", err)
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(entries); err != nil {
		return fmt.Errorf("marshaling YAML: %w", err)
	}
	return enc.Close()
}

// ExportJSON writes the conversions matching opts to w as an indented JSON array.
func (s *Store) ExportJSON(ctx context.Context, w io.Writer, opts ListOptions) error {
	entries, err := s.List(ctx, exportOptions(opts))
	if err != nil {
		return fmt.Errorf("querying for export: %w", err)
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(entries); err != nil {
		return fmt.Errorf("marshaling JSON: %w", err)
	}
	return nil
}

func exportOptions(opts ListOptions) ListOptions {
	if opts.Limit <= 0 {
		opts.Limit = exportLimit
	}
	return opts
}
