// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package convert

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// SourcePattern matches the file names picked up from the source directory.
const SourcePattern = "*.ppm"

// Discover lists the regular files directly inside dir whose names match
// SourcePattern, in lexical order. Subdirectories are not descended into and
// symlinks count when they point at a regular file. A directory that does not
// exist yields no files and no error.
func Discover(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading source directory %s: %w", dir, err)
	}

	var paths []string
	for _, entry := range entries {
		if ok, _ := filepath.Match(SourcePattern, entry.Name()); !ok {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		if !isRegular(path, entry) {
			continue
		}
		paths = append(paths, path)
	}
	return paths, nil
}

func isRegular(path string, entry fs.DirEntry) bool {
	if entry.Type()&fs.ModeSymlink == 0 {
		return entry.Type().IsRegular()
	}
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return info.Mode().IsRegular()
}

// OutputPath replaces the final extension of src with ext. A leading dot on
// ext is optional.
func OutputPath(src, ext string) string {
	return strings.TrimSuffix(src, filepath.Ext(src)) + "." + strings.TrimPrefix(ext, ".")
}
