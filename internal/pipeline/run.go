// Package pipeline wires the query together: catalog scan, file
// selection, streaming read, filter chain, projection or aggregation,
// and output truncation.
package pipeline

import (
	"bufio"
	"fmt"
	"io"
	"iter"
	"regexp"
	"time"

	"cdrq/internal/catalog"
	"cdrq/internal/cdr"
	"cdrq/internal/cli"
	"cdrq/internal/clock"
	"cdrq/internal/config"
	"cdrq/internal/errs"
	"cdrq/internal/filter"
	"cdrq/internal/reader"
	"cdrq/internal/report"
	"cdrq/internal/salt"
)

// Options is one query invocation.
type Options struct {
	Config config.Config
	Filter filter.Config
	Sel    catalog.Selection
	Head   int // emit only the first n output lines
	Tail   int // emit only the last n output lines
	Clock  clock.Clock
}

// Result summarizes a completed run.
type Result struct {
	Files []catalog.LogFile
	Lines int
}

// SelectFiles scans the log directory and applies the selector. SALT
// parameters come from the defaults file.
func SelectFiles(cfg config.Config, sel catalog.Selection, clk clock.Clock) ([]catalog.LogFile, error) {
	files, err := catalog.Scan(cfg.Source.Dir, cfg.Source.Extension, cfg.Source.CompressSuffix)
	if err != nil {
		return nil, err
	}
	if sel.Mode == catalog.ModeSalt {
		pat, err := regexp.Compile(cfg.Source.SaltPattern)
		if err != nil {
			return nil, errs.Config("bad salt_pattern in config: %v", err)
		}
		sel.SaltPattern = pat
		sel.SaltWindow = time.Duration(cfg.Source.SaltWindowMins) * time.Minute
	}
	return catalog.Select(sel, files, clk)
}

// Run executes the general query pipeline and writes the header plus
// the output stream to out. Everything that can fail on configuration
// fails here before the first file is opened.
func Run(opts Options, out io.Writer) (*Result, error) {
	if opts.Head > 0 && opts.Tail > 0 {
		return nil, errs.Config("head and tail truncation are mutually exclusive")
	}
	fcfg := opts.Filter
	if fcfg.MinutePrefix == 0 {
		fcfg.MinutePrefix = opts.Config.Tuning.DedupMinutePrefix
	}
	if err := fcfg.Validate(); err != nil {
		return nil, err
	}
	stages, err := fcfg.Chain()
	if err != nil {
		return nil, err
	}

	files, err := SelectFiles(opts.Config, opts.Sel, opts.Clock)
	if err != nil {
		return nil, err
	}

	lines := reader.Lines(files)
	for _, s := range stages {
		lines = s(lines)
	}

	output := shape(lines, fcfg, opts.Config.Tuning.ReportBucketPrefix)
	if opts.Head > 0 {
		output = report.Head(output, opts.Head)
	}
	if opts.Tail > 0 {
		output = report.Tail(output, opts.Tail)
	}

	w := bufio.NewWriter(out)
	defer w.Flush()
	fmt.Fprintln(w, cli.Header(opts.Config.HostLabel(), fcfg.Types()))

	res := &Result{Files: files}
	for line := range output {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return res, err
		}
		res.Lines++
	}
	return res, w.Flush()
}

// shape applies the configured projection or aggregation to the
// filtered stream. Mutually exclusive modes; validation already ran.
func shape(lines iter.Seq[string], fcfg filter.Config, bucketPrefix int) iter.Seq[string] {
	switch {
	case fcfg.Report == filter.ReportTotalCalls:
		return formatRows(report.TotalCalls(lines, fcfg.DisconnectReason != 0, bucketPrefix))
	case fcfg.Report == filter.ReportTimeDisposition:
		return formatRows(report.TimeDisposition(lines, bucketPrefix))
	case len(fcfg.Fields) > 0 && fcfg.Count:
		return formatRows(report.CountRows(report.Project(lines, fcfg.Fields, fcfg.ProtocolVariant)))
	case len(fcfg.Fields) > 0:
		return report.Project(lines, fcfg.Fields, fcfg.ProtocolVariant)
	default:
		return lines
	}
}

func formatRows(rows []report.Row) iter.Seq[string] {
	return func(yield func(string) bool) {
		for _, r := range rows {
			if !yield(r.Format()) {
				return
			}
		}
	}
}

// RunSalt executes the rolling-window extraction and writes the header
// plus surviving raw lines to out.
func RunSalt(cfg config.Config, clk clock.Clock, out io.Writer) (*Result, error) {
	files, err := SelectFiles(cfg, catalog.Selection{Mode: catalog.ModeSalt}, clk)
	if err != nil {
		return nil, err
	}

	bucket := salt.CurrentBucket(clk)
	extracted := salt.Extract(reader.Lines(files), bucket, cfg.Tuning.DedupMinutePrefix)

	w := bufio.NewWriter(out)
	defer w.Flush()
	fmt.Fprintln(w, cli.Header(cfg.HostLabel(), []cdr.Type{cdr.Stop, cdr.Attempt}))

	res := &Result{Files: files}
	for line := range extracted {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return res, err
		}
		res.Lines++
	}
	return res, w.Flush()
}

// SaltSummary runs the rolling-window extraction and reduces it to
// per-trunk-group counts, for the live watch view.
func SaltSummary(cfg config.Config, clk clock.Clock) (salt.Bucket, []report.Row, error) {
	files, err := SelectFiles(cfg, catalog.Selection{Mode: catalog.ModeSalt}, clk)
	bucket := salt.CurrentBucket(clk)
	if err != nil {
		return bucket, nil, err
	}

	extracted := salt.Extract(reader.Lines(files), bucket, cfg.Tuning.DedupMinutePrefix)
	rows := report.TotalCalls(extracted, false, cfg.Tuning.ReportBucketPrefix)
	return bucket, rows, nil
}
