package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"cdrq/internal/clock"
	"cdrq/internal/pipeline"
)

// SALT mode is deliberately bare: the rolling-window extraction takes
// no filter or selection options, so none are registered here and any
// attempt to pass one fails flag parsing.
var saltCmd = &cobra.Command{
	Use:   "salt",
	Short: "Rolling-window extraction of the current half-hour bucket",
	Long: "Emit the STOP and deduplicated ATTEMPT records of the half-hour\n" +
		"bucket just completed or in progress, for near-real-time monitoring.",
	RunE: runSalt,
}

func init() {
	rootCmd.AddCommand(saltCmd)
}

func runSalt(_ *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	_, err = pipeline.RunSalt(cfg, clock.UTC{}, os.Stdout)
	return err
}
