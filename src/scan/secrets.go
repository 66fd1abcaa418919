// Package scan runs the pre-push secrets gate: the build context is swept
// with gitleaks' default ruleset before any image leaves the machine.
package scan

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/zricethezav/gitleaks/v8/detect"
)

// maxFileSize caps how large a file the gate will read. Anything bigger is
// almost certainly a binary artifact, not source carrying a credential.
const maxFileSize = 1 << 20

// Finding is a single detected secret.
type Finding struct {
	File        string // path relative to the scanned root
	Line        int    // 1-indexed
	RuleID      string
	Description string
}

// skipDirs are directory names never worth scanning.
var skipDirs = map[string]bool{
	".git":         true,
	"node_modules": true,
	"vendor":       true,
	".venv":        true,
	"dist":         true,
	"__pycache__":  true,
}

// Scanner sweeps a directory tree for secrets.
type Scanner struct {
	detector *detect.Detector
}

// NewScanner creates a scanner with gitleaks' default ruleset.
func NewScanner() (*Scanner, error) {
	d, err := detect.NewDetectorDefaultConfig()
	if err != nil {
		return nil, fmt.Errorf("initializing secrets detector: %w", err)
	}
	return &Scanner{detector: d}, nil
}

// ScanDir walks rootDir and returns every secret hit. An empty result
// means the gate is open.
func (s *Scanner) ScanDir(ctx context.Context, rootDir string) ([]Finding, error) {
	var findings []Finding

	err := filepath.WalkDir(rootDir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}

		if d.IsDir() {
			if skipDirs[d.Name()] {
				return filepath.SkipDir
			}
			return nil
		}

		info, err := d.Info()
		if err != nil || info.Size() > maxFileSize {
			return nil
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil // unreadable files don't fail the gate
		}

		rel, _ := filepath.Rel(rootDir, path)
		for _, hit := range s.detector.DetectBytes(data) {
			findings = append(findings, Finding{
				File:        rel,
				Line:        hit.StartLine + 1, // gitleaks is 0-indexed
				RuleID:      hit.RuleID,
				Description: hit.Description,
			})
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scanning %s: %w", rootDir, err)
	}

	return findings, nil
}
