//go:build mage

// Package main contains Mage build targets for ppm-batch developer tooling.
package main

import (
	"bytes"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/magefile/mage/sh"
)

// framesDir holds the sample frames and their converted outputs.
const framesDir = "frames"

// projectDirs lists the working directories the CLI expects.
var projectDirs = []string{
	framesDir,
	"state",
	"reports",
}

// Init creates the working directory structure.
func Init() error {
	for _, dir := range projectDirs {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating %s: %w", dir, err)
		}
		fmt.Println("  ", dir)
	}
	fmt.Println("Project directories initialized.")
	return nil
}

const (
	binDir  = "bin"
	binName = "ppm-batch"
	cmdPkg  = "./cmd/ppm-batch"
)

// Build compiles the CLI binary into bin/.
func Build() error {
	if err := os.MkdirAll(binDir, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", binDir, err)
	}
	out := filepath.Join(binDir, binName)
	if err := sh.RunV("go", "build", "-o", out, cmdPkg); err != nil {
		return fmt.Errorf("go build: %w", err)
	}
	fmt.Printf("Built %s\n", out)
	return nil
}

// Test runs the unit tests. go-sqlite3 needs cgo.
func Test() error {
	return sh.RunWithV(map[string]string{"CGO_ENABLED": "1"}, "go", "test", "./...")
}

// Stats prints the frame counts in frames/ by extension and the Go line
// counts for production and test code.
func Stats() error {
	frames, err := frameCounts(framesDir)
	if err != nil {
		return err
	}
	prodLines, err := countGoLines(".", false)
	if err != nil {
		return err
	}
	testLines, err := countGoLines(".", true)
	if err != nil {
		return err
	}

	exts := make([]string, 0, len(frames))
	for ext := range frames {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	fmt.Printf("Frames in %s:\n", framesDir)
	if len(exts) == 0 {
		fmt.Println("   (none)")
	}
	for _, ext := range exts {
		fmt.Printf("   %-6s %d\n", ext, frames[ext])
	}
	fmt.Printf("Lines of code (Go, production): %d\n", prodLines)
	fmt.Printf("Lines of code (Go, tests):      %d\n", testLines)
	return nil
}

// binPath is where Build puts the CLI.
func binPath() string {
	return filepath.Join(binDir, binName)
}

// frameCounts counts the regular files directly in dir by lower-cased
// extension, so pending .ppm sources and converted outputs show side by
// side. A missing dir counts as empty.
func frameCounts(dir string) (map[string]int, error) {
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return map[string]int{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", dir, err)
	}
	counts := map[string]int{}
	for _, e := range entries {
		if !e.Type().IsRegular() {
			continue
		}
		ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(e.Name()), "."))
		if ext == "" {
			ext = "(none)"
		}
		counts[ext]++
	}
	return counts, nil
}

// countGoLines counts non-blank lines in the Go files under root, skipping
// the reference pack and build output. testOnly selects _test.go files.
func countGoLines(root string, testOnly bool) (int, error) {
	total := 0
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if d.Name() == "_examples" || d.Name() == binDir {
				return filepath.SkipDir
			}
			return nil
		}
		if filepath.Ext(path) != ".go" || strings.HasSuffix(path, "_test.go") != testOnly {
			return nil
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("reading %s: %w", path, err)
		}
		for _, line := range bytes.Split(data, []byte("\n")) {
			if len(bytes.TrimSpace(line)) > 0 {
				total++
			}
		}
		return nil
	})
	return total, err
}
