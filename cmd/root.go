// Package cmd implements the cdrq CLI commands.
package cmd

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"cdrq/internal/catalog"
	"cdrq/internal/cdr"
	"cdrq/internal/clock"
	"cdrq/internal/config"
	"cdrq/internal/errs"
	"cdrq/internal/filter"
	"cdrq/internal/logger"
	"cdrq/internal/pipeline"
)

var (
	flagQuiet bool
	flagDir   string

	// File selection. Exactly one mode per invocation.
	flagLast      bool
	flagNum       int
	flagToday     bool
	flagYesterday bool
	flagWeek      bool
	flagDate      string
	flagFrom      string
	flagTo        string

	// Filtering and projection.
	flagType      string
	flagSearch    string
	flagAddSearch string
	flagExclude   string
	flagCalling   bool
	flagCalled    bool
	flagEmergency string
	flagDR        int
	flagDedup     bool
	flagFields    string
	flagCount     bool
	flagVariant   bool
	flagReport    string
	flagHead      int
	flagTail      int
)

var rootCmd = &cobra.Command{
	Use:   "cdrq",
	Short: "Query rotated CDR accounting logs",
	Long: "Select the accounting files covering a time window, then filter,\n" +
		"deduplicate and project fields from the record stream.",
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runQuery,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.Init(flagQuiet)
	},
}

// Execute is the main entry point called from main.go. Categorized
// errors carry their own exit status; anything else exits 1.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "cdrq: %v\n", err)
		var coded *errs.Error
		if errors.As(err, &coded) {
			os.Exit(coded.ExitCode())
		}
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&flagQuiet, "quiet", "q", false, "Suppress per-record warnings")
	rootCmd.PersistentFlags().StringVarP(&flagDir, "dir", "d", "", "CDR log directory (overrides config)")

	addSelectionFlags(rootCmd)
	addFilterFlags(rootCmd)
}

// addSelectionFlags registers the file-selection mode flags. Shared by
// the commands that pick a time window.
func addSelectionFlags(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&flagLast, "last", false, "Newest file only")
	cmd.Flags().IntVar(&flagNum, "num", 0, "Newest n files")
	cmd.Flags().BoolVar(&flagToday, "today", false, "Files covering today")
	cmd.Flags().BoolVar(&flagYesterday, "yesterday", false, "Files covering yesterday")
	cmd.Flags().BoolVar(&flagWeek, "week", false, "Files from the last 7 days")
	cmd.Flags().StringVar(&flagDate, "date", "", "Files covering one day (MM/DD/YYYY)")
	cmd.Flags().StringVar(&flagFrom, "from", "", "Range start day (MM/DD/YYYY)")
	cmd.Flags().StringVar(&flagTo, "to", "", "Range end day (MM/DD/YYYY)")
}

// addFilterFlags registers the filter/projection flags.
func addFilterFlags(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&flagType, "type", "t", "", "Record type: START, ATTEMPT or STOP")
	cmd.Flags().StringVarP(&flagSearch, "search", "s", "", "Include pattern (comma-separated = OR)")
	cmd.Flags().StringVar(&flagAddSearch, "add-search", "", "Second required pattern")
	cmd.Flags().StringVarP(&flagExclude, "exclude", "x", "", "Drop pattern")
	cmd.Flags().BoolVar(&flagCalling, "calling", false, "Match search against the calling-party field")
	cmd.Flags().BoolVar(&flagCalled, "called", false, "Match search against the called-party field")
	cmd.Flags().StringVar(&flagEmergency, "emergency", "", "Emergency called number: 911 or 933")
	cmd.Flags().IntVar(&flagDR, "dr", 0, "Disconnect reason code")
	cmd.Flags().BoolVar(&flagDedup, "dedup", false, "Suppress duplicate ATTEMPT records")
	cmd.Flags().StringVarP(&flagFields, "fields", "f", "", "Project fields (1-based, e.g. 1,9,17)")
	cmd.Flags().BoolVarP(&flagCount, "count", "c", false, "Count distinct projected rows")
	cmd.Flags().BoolVar(&flagVariant, "protocol-variant", false, "Keep quoted protocol-variant detail")
	cmd.Flags().StringVarP(&flagReport, "report", "r", "", "Aggregated report: total or time")
	cmd.Flags().IntVar(&flagHead, "head", 0, "Emit only the first n output lines")
	cmd.Flags().IntVar(&flagTail, "tail", 0, "Emit only the last n output lines")
}

// loadConfig reads the defaults file with flag overrides applied.
func loadConfig() (config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return cfg, err
	}
	if flagDir != "" {
		cfg.Source.Dir = flagDir
	}
	return cfg, nil
}

const dateLayout = "01/02/2006"

// buildSelection maps the mode flags onto a selector Selection,
// rejecting ambiguous combinations.
func buildSelection() (catalog.Selection, error) {
	var sel catalog.Selection
	modes := 0
	set := func(m catalog.Mode) {
		sel.Mode = m
		modes++
	}

	if flagLast {
		set(catalog.ModeLast)
	}
	if flagNum > 0 {
		set(catalog.ModeNum)
		sel.N = flagNum
	}
	if flagToday {
		set(catalog.ModeToday)
	}
	if flagYesterday {
		set(catalog.ModeYesterday)
	}
	if flagWeek {
		set(catalog.ModeWeek)
	}
	if flagDate != "" {
		set(catalog.ModeDate)
		d, err := time.ParseInLocation(dateLayout, flagDate, time.UTC)
		if err != nil {
			return sel, errs.Config("bad --date %q: want MM/DD/YYYY", flagDate)
		}
		sel.Date = d
	}
	if flagFrom != "" || flagTo != "" {
		if flagFrom == "" || flagTo == "" {
			return sel, errs.Config("--from and --to must be given together")
		}
		set(catalog.ModeRange)
		from, err := time.ParseInLocation(dateLayout, flagFrom, time.UTC)
		if err != nil {
			return sel, errs.Config("bad --from %q: want MM/DD/YYYY", flagFrom)
		}
		to, err := time.ParseInLocation(dateLayout, flagTo, time.UTC)
		if err != nil {
			return sel, errs.Config("bad --to %q: want MM/DD/YYYY", flagTo)
		}
		if to.Before(from) {
			return sel, errs.Config("--to precedes --from")
		}
		sel.From, sel.To = from, to
	}

	switch modes {
	case 0:
		sel.Mode = catalog.ModeToday
	case 1:
	default:
		return sel, errs.Config("exactly one file-selection mode may be given")
	}
	return sel, nil
}

// buildFilter maps the filter flags onto the validated core config.
func buildFilter() (filter.Config, error) {
	fc := filter.Config{
		Type:             cdr.Type(strings.ToUpper(flagType)),
		Search:           flagSearch,
		AddSearch:        flagAddSearch,
		Exclude:          flagExclude,
		CallingSearch:    flagCalling,
		CalledSearch:     flagCalled,
		Emergency:        flagEmergency,
		DisconnectReason: flagDR,
		Dedup:            flagDedup,
		Count:            flagCount,
		ProtocolVariant:  flagVariant,
	}

	if flagFields != "" {
		for _, part := range strings.Split(flagFields, ",") {
			n, err := strconv.Atoi(strings.TrimSpace(part))
			if err != nil {
				return fc, errs.Config("bad --fields value %q", part)
			}
			fc.Fields = append(fc.Fields, n)
		}
	}

	switch flagReport {
	case "":
	case "total":
		fc.Report = filter.ReportTotalCalls
	case "time":
		fc.Report = filter.ReportTimeDisposition
	default:
		return fc, errs.Config("unknown report %q: want total or time", flagReport)
	}

	return fc, nil
}

func runQuery(_ *cobra.Command, _ []string) error {
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

	_, err = pipeline.Run(pipeline.Options{
		Config: cfg,
		Filter: fc,
		Sel:    sel,
		Head:   flagHead,
		Tail:   flagTail,
		Clock:  clock.UTC{},
	}, os.Stdout)
	return err
}
