package cmd

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/alderglen/stevedore/src/pipeline"
)

var buildCmd = &cobra.Command{
	Use:   "build [dir]",
	Short: "Run the build stage only",
	Long: `Build the image without publishing anything.

The stage never pushes, regardless of trigger or configuration; it exists
to prove the build and warm the layer cache.`,
	RunE: runBuild,
}

func init() {
	rootCmd.AddCommand(buildCmd)
}

func runBuild(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	runner, err := newRunner(args, false)
	if err != nil {
		return err
	}

	in, err := pipeline.ResolveInputs(runner.RootDir, runner.Config, runner.Trigger)
	if err != nil {
		return err
	}

	return runner.RunBuildStage(ctx, in)
}
