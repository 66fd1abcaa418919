package cmd

import (
	"fmt"
	"os"

	"github.com/google/uuid"

	"github.com/alderglen/stevedore/src/build"
	"github.com/alderglen/stevedore/src/ci"
	"github.com/alderglen/stevedore/src/output"
	"github.com/alderglen/stevedore/src/pipeline"
	"github.com/alderglen/stevedore/src/scan"
)

// newRunner wires a pipeline runner for the given working tree: trigger
// context, buildx executor, secrets scanner, and a fresh run ID.
func newRunner(args []string, dryRun bool) (*pipeline.Runner, error) {
	rootDir, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("getting working directory: %w", err)
	}
	if len(args) > 0 {
		rootDir = args[0]
	}

	trigger, err := ci.Load(rootDir)
	if err != nil {
		return nil, err
	}

	var scanner pipeline.SecretScanner
	if cfg.Scan.SecretsEnabled() {
		s, err := scan.NewScanner()
		if err != nil {
			return nil, err
		}
		scanner = s
	}

	return &pipeline.Runner{
		Config:  cfg,
		Trigger: trigger,
		Exec:    build.NewBuildx(verbose),
		Scanner: scanner,
		RootDir: rootDir,
		RunID:   uuid.NewString()[:8],
		Out:     os.Stdout,
		Color:   output.UseColor(),
		Verbose: verbose,
		DryRun:  dryRun,
	}, nil
}
