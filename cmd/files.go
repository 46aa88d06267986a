package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"cdrq/internal/cli"
	"cdrq/internal/clock"
	"cdrq/internal/pipeline"
)

var filesCmd = &cobra.Command{
	Use:   "files",
	Short: "Show which files a time window selects, without reading them",
	RunE:  runFiles,
}

func init() {
	addSelectionFlags(filesCmd)
	rootCmd.AddCommand(filesCmd)
}

func runFiles(_ *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	sel, err := buildSelection()
	if err != nil {
		return err
	}

	files, err := pipeline.SelectFiles(cfg, sel, clock.UTC{})
	if err != nil {
		return err
	}

	rows := make([][]string, 0, len(files))
	for _, f := range files {
		compressed := ""
		if f.Compressed {
			compressed = "gzip"
		}
		rows = append(rows, []string{
			f.Name,
			f.ModTime.Format("2006-01-02 15:04:05"),
			compressed,
		})
	}

	fmt.Println()
	fmt.Print(cli.RenderTable(cli.Table{
		Title:   fmt.Sprintf("%s  %d file(s)", cfg.HostLabel(), len(files)),
		Headers: []string{"File", "Created (UTC)", ""},
		Rows:    rows,
	}))
	return nil
}
