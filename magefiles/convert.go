//go:build mage

package main

import (
	"fmt"
	"path/filepath"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

// Frames writes a checkerboard sample frame into frames/.
func Frames() error {
	mg.Deps(Build, Init)
	return sh.RunV(binPath(), "checker", filepath.Join(framesDir, "checker.ppm"))
}

// Convert converts frames/*.ppm to PNG, recording the run in the ledger.
func Convert() error {
	mg.Deps(Frames)
	fmt.Println("[convert] frames/*.ppm -> png")
	return sh.RunV(binPath(), "convert", framesDir, "png",
		"--ledger", filepath.Join("state", "ledger.db"),
		"--report", filepath.Join("reports", "last-run.yaml"))
}
