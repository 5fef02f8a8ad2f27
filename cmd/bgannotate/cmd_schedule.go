package main

import (
	"fmt"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/spf13/cobra"
)

var scheduleFlags struct {
	at string
}

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Run all annotators on a recurring daily schedule",
	Long: "Keeps the process alive and runs the full annotation pass once a day,\n" +
		"off-peak. Per-record failures within a pass are logged and retried on\n" +
		"the next pass by virtue of the fill-in-gaps selection.",
	RunE: runSchedule,
}

func init() {
	scheduleCmd.Flags().StringVar(&scheduleFlags.at, "at", "04:00:00", "time of day (HH:MM:SS, UTC) to start the daily pass")
}

func runSchedule(cmd *cobra.Command, _ []string) error {
	// Fail on bad credentials now, not at 4am.
	if _, err := resolveConfig(cmd); err != nil {
		return err
	}
	if _, err := policyFromFlags(); err != nil {
		return err
	}

	scheduler := gocron.NewScheduler(time.UTC)
	_, err := scheduler.Every(1).Day().At(scheduleFlags.at).Do(func() {
		if err := runAll(cmd, nil); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "scheduled annotation pass failed: %v\n", err)
		}
	})
	if err != nil {
		return fmt.Errorf("schedule annotation pass: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "scheduling daily annotation pass at %s UTC\n", scheduleFlags.at)
	scheduler.StartBlocking()
	return nil
}
