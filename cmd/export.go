package cmd

import (
	"bufio"
	"bytes"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"cdrq/internal/clock"
	"cdrq/internal/pipeline"
	"cdrq/internal/store"
)

var flagExportOut string

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Run a query and write the output rows to a SQLite database",
	RunE:  runExport,
}

func init() {
	addSelectionFlags(exportCmd)
	addFilterFlags(exportCmd)
	exportCmd.Flags().StringVarP(&flagExportOut, "out", "o", "cdrq-results.db", "Results database path")
	rootCmd.AddCommand(exportCmd)
}

func runExport(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	sel, err := buildSelection()
	if err != nil {
		return err
	}
	fc, err := buildFilter()
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	if _, err := pipeline.Run(pipeline.Options{
		Config: cfg,
		Filter: fc,
		Sel:    sel,
		Head:   flagHead,
		Tail:   flagTail,
		Clock:  clock.UTC{},
	}, &buf); err != nil {
		return err
	}

	// First line is the identifying header; the rest are output rows.
	var lines []string
	scanner := bufio.NewScanner(&buf)
	scanner.Buffer(make([]byte, 0, 64*1024), 2*1024*1024)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return err
	}
	if len(lines) > 0 {
		lines = lines[1:]
	}

	db, err := store.Open(flagExportOut)
	if err != nil {
		return err
	}
	defer db.Close()

	runID, err := db.SaveRun(cfg.HostLabel(), describeRun(cmd), lines)
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stderr, "  run %d: %d row(s) written to %s\n", runID, len(lines), flagExportOut)
	return nil
}

// describeRun records the effective flag set so a stored run is
// reproducible.
func describeRun(cmd *cobra.Command) string {
	var parts []string
	cmd.Flags().Visit(func(f *pflag.Flag) {
		parts = append(parts, "--"+f.Name+"="+f.Value.String())
	})
	if len(parts) == 0 {
		return "(defaults)"
	}
	return strings.Join(parts, " ")
}
