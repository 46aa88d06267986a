package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"cdrq/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show current configuration",
	RunE:  runConfig,
}

func init() {
	rootCmd.AddCommand(configCmd)
}

func runConfig(_ *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	fmt.Printf("  Config file: %s\n", config.Path())
	if config.Exists() {
		fmt.Println("  Status: loaded")
	} else {
		fmt.Println("  Status: using defaults (no config file)")
	}
	fmt.Println()

	fmt.Println("  [Source]")
	fmt.Printf("    Directory:        %s\n", cfg.Source.Dir)
	fmt.Printf("    Host label:       %s\n", cfg.HostLabel())
	fmt.Printf("    Extension:        %s\n", cfg.Source.Extension)
	fmt.Printf("    Compress suffix:  %s\n", cfg.Source.CompressSuffix)
	fmt.Printf("    Salt pattern:     %s\n", cfg.Source.SaltPattern)
	fmt.Printf("    Salt window:      %d min\n", cfg.Source.SaltWindowMins)
	fmt.Println()

	fmt.Println("  [Tuning]")
	fmt.Printf("    Dedup minute prefix:  %d\n", cfg.Tuning.DedupMinutePrefix)
	fmt.Printf("    Report bucket prefix: %d\n", cfg.Tuning.ReportBucketPrefix)

	return nil
}
