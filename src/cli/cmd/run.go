package cmd

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var runDryRun bool

var runCmd = &cobra.Command{
	Use:   "run [dir]",
	Short: "Run the full delivery pipeline",
	Long: `Run both pipeline stages against the working tree.

The build stage always runs: it builds the image with layer caching and
discards the artifact. The push stage runs only when the build succeeded
and the push gate is open (by default: a push event on main); it logs in
to the configured registries and publishes the tagged image.`,
	RunE: runRun,
}

func init() {
	runCmd.Flags().BoolVar(&runDryRun, "dry-run", false, "show the resolved plan without executing")
	rootCmd.AddCommand(runCmd)
}

func runRun(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	runner, err := newRunner(args, runDryRun)
	if err != nil {
		return err
	}

	_, err = runner.Run(ctx)
	return err
}
