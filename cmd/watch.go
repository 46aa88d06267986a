package cmd

import (
	"time"

	"github.com/spf13/cobra"

	"cdrq/internal/clock"
	"cdrq/internal/tui"
)

var flagWatchInterval time.Duration

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Live rolling-window view, refreshed on a timer",
	RunE:  runWatch,
}

func init() {
	watchCmd.Flags().DurationVarP(&flagWatchInterval, "interval", "i", 30*time.Second, "Refresh interval")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(_ *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	return tui.Run(cfg, clock.UTC{}, flagWatchInterval)
}
