package main

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/fyrsmithlabs/appsrag/internal/service"
)

// watchCmd keeps the index in sync with the tracker.
var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Rebuild automatically when the tracker changes",
	Long: `Watch the tracker CSV and rebuild the index on change, debounced
so editors that save in bursts trigger one rebuild. Runs until
interrupted.`,
	RunE: runWatch,
}

// autonomousCmd is watch plus the feedback loop.
var autonomousCmd = &cobra.Command{
	Use:   "autonomous",
	Short: "Watch the tracker and apply derived feedback automatically",
	Long: `Like watch, but after each rebuild outcomes are derived from the
tracker's status columns and replayed into the bandit model, so the
channel posteriors track the spreadsheet without manual feedback
commands.`,
	RunE: runAutonomous,
}

func runWatch(cmd *cobra.Command, args []string) error {
	return watchLoop(cmd, service.WatchOptions{})
}

func runAutonomous(cmd *cobra.Command, args []string) error {
	return watchLoop(cmd, service.WatchOptions{Autonomous: true})
}

func watchLoop(cmd *cobra.Command, opts service.WatchOptions) error {
	svc, logger, err := openService()
	if err != nil {
		return err
	}
	defer svc.Close()
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := svc.Watch(ctx, opts); err != nil && ctx.Err() == nil {
		return err
	}
	return nil
}
