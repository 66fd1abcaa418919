package cmd

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/alderglen/stevedore/src/output"
	"github.com/alderglen/stevedore/src/pipeline"
)

var pushForce bool

var pushCmd = &cobra.Command{
	Use:   "push [dir]",
	Short: "Run the push stage only",
	Long: `Publish the image to the configured registries.

The push gate is evaluated first: a closed gate skips the stage and exits
successfully. --force bypasses the gate for manual releases.`,
	RunE: runPush,
}

func init() {
	pushCmd.Flags().BoolVar(&pushForce, "force", false, "push even when the gate is closed")
	rootCmd.AddCommand(pushCmd)
}

func runPush(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	runner, err := newRunner(args, false)
	if err != nil {
		return err
	}

	gate := pipeline.EvalGate(runner.Config.Gate, runner.Trigger)
	if !gate.Open && !pushForce {
		output.Notice(runner.Out, "push skipped: %s", gate.Reason)
		return nil
	}

	in, err := pipeline.ResolveInputs(runner.RootDir, runner.Config, runner.Trigger)
	if err != nil {
		return err
	}

	_, err = runner.RunPushStage(ctx, in)
	return err
}
