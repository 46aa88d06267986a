package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"cdrq/internal/config"
)

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "First-time setup wizard",
	RunE:  runSetup,
}

func init() {
	rootCmd.AddCommand(setupCmd)
}

func runSetup(_ *cobra.Command, _ []string) error {
	// Load existing config or defaults
	cfg, _ := config.Load()

	dir := cfg.Source.Dir
	host := cfg.Source.Host
	ext := cfg.Source.Extension
	save := true

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("CDR log directory").
				Description("Where the rotated accounting files land.").
				Value(&dir).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return fmt.Errorf("directory is required")
					}
					return nil
				}),
			huh.NewInput().
				Title("Host label").
				Description("Shown in the output header. Empty = local hostname.").
				Value(&host),
			huh.NewInput().
				Title("File extension").
				Description("Base extension of the accounting files.").
				Value(&ext),
		),
		huh.NewGroup(
			huh.NewConfirm().
				Title("Write config?").
				Description(config.Path()).
				Value(&save),
		),
	)

	if err := form.Run(); err != nil {
		return err
	}
	if !save {
		fmt.Println("  Aborted, nothing written.")
		return nil
	}

	cfg.Source.Dir = strings.TrimSpace(dir)
	cfg.Source.Host = strings.TrimSpace(host)
	cfg.Source.Extension = strings.TrimSpace(ext)

	if err := config.Save(cfg); err != nil {
		return err
	}

	if _, err := os.Stat(cfg.Source.Dir); err != nil {
		fmt.Printf("  Saved. Note: %s does not exist yet on this host.\n", cfg.Source.Dir)
		return nil
	}
	fmt.Printf("  Saved to %s\n", config.Path())
	return nil
}
