package pipeline

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"cdrq/internal/catalog"
	"cdrq/internal/cdr"
	"cdrq/internal/clock"
	"cdrq/internal/config"
	"cdrq/internal/errs"
	"cdrq/internal/filter"
)

func makeLine(typ string, n int, set map[int]string) string {
	fields := make([]string, n)
	fields[0] = typ
	for pos, v := range set {
		fields[pos-1] = v
	}
	return strings.Join(fields, ",")
}

func attemptLine(tg, start, calling, called string) string {
	return makeLine("ATTEMPT", 18, map[int]string{
		9: tg, 10: start, 17: calling, 18: called,
	})
}

func stopLine(tg, start, calling, called string) string {
	return makeLine("STOP", 21, map[int]string{
		9: tg, 12: start, 20: calling, 21: called,
	})
}

func testConfig(dir string) config.Config {
	cfg := config.DefaultConfig()
	cfg.Source.Dir = dir
	cfg.Source.Host = "sbc01"
	return cfg
}

func writeLog(tb testing.TB, dir, name string, mtime time.Time, lines ...string) {
	tb.Helper()
	path := filepath.Join(dir, name)
	data := strings.Join(lines, "\n") + "\n"
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		tb.Fatal(err)
	}
	if err := os.Chtimes(path, mtime, mtime); err != nil {
		tb.Fatal(err)
	}
}

func outputLines(t *testing.T, buf *bytes.Buffer) []string {
	t.Helper()
	out := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if len(out) == 0 || !strings.HasPrefix(out[0], "# ") {
		t.Fatalf("missing header line in %q", buf.String())
	}
	return out
}

func TestRunEndToEnd(t *testing.T) {
	dir := t.TempDir()
	now := time.Date(2026, 1, 15, 14, 15, 0, 0, time.UTC)

	s1 := stopLine("TG1", "09:01:00.0", "4045551234", "7705550000")
	s2 := stopLine("TG2", "10:01:00.0", "2125559876", "7705550000")
	a1 := attemptLine("TG1", "09:02:00.0", "4045551234", "7705550000")

	writeLog(t, dir, "0000000A.ACT", now.Add(-2*time.Hour), s1, a1)
	writeLog(t, dir, "0000000B.ACT", now.Add(-1*time.Hour), s2, "garbage line")

	var buf bytes.Buffer
	res, err := Run(Options{
		Config: testConfig(dir),
		Filter: filter.Config{Type: cdr.Stop},
		Sel:    catalog.Selection{Mode: catalog.ModeNum, N: 2},
		Clock:  clock.Fixed{T: now},
	}, &buf)
	if err != nil {
		t.Fatal(err)
	}

	out := outputLines(t, &buf)
	if out[0] != "# sbc01 STOP" {
		t.Errorf("header = %q", out[0])
	}
	want := []string{s1, s2}
	if len(out) != 3 || out[1] != want[0] || out[2] != want[1] {
		t.Errorf("body = %v, want %v", out[1:], want)
	}
	if res.Lines != 2 || len(res.Files) != 2 {
		t.Errorf("result = %+v", res)
	}
}

func TestRunHeaderListsAllTypesWhenUnfiltered(t *testing.T) {
	dir := t.TempDir()
	now := time.Date(2026, 1, 15, 14, 15, 0, 0, time.UTC)
	writeLog(t, dir, "0000000A.ACT", now, stopLine("TG1", "09:01:00.0", "a", "b"))

	var buf bytes.Buffer
	_, err := Run(Options{
		Config: testConfig(dir),
		Sel:    catalog.Selection{Mode: catalog.ModeLast},
		Clock:  clock.Fixed{T: now},
	}, &buf)
	if err != nil {
		t.Fatal(err)
	}
	if out := outputLines(t, &buf); out[0] != "# sbc01 START,ATTEMPT,STOP" {
		t.Errorf("header = %q", out[0])
	}
}

// A bad filter must be rejected before the log directory is touched.
func TestRunFailsFastOnConfig(t *testing.T) {
	cfg := testConfig("/nonexistent/cdr/logs")

	var buf bytes.Buffer
	_, err := Run(Options{
		Config: cfg,
		Filter: filter.Config{Count: true},
		Sel:    catalog.Selection{Mode: catalog.ModeLast},
		Clock:  clock.UTC{},
	}, &buf)

	var e *errs.Error
	if !errors.As(err, &e) || e.ExitCode() != errs.ExitConfig {
		t.Fatalf("err = %v, want a config error before any file access", err)
	}
}

func TestRunHeadTailExclusive(t *testing.T) {
	var buf bytes.Buffer
	_, err := Run(Options{
		Config: testConfig(t.TempDir()),
		Sel:    catalog.Selection{Mode: catalog.ModeLast},
		Head:   1,
		Tail:   1,
		Clock:  clock.UTC{},
	}, &buf)

	var e *errs.Error
	if !errors.As(err, &e) || e.ExitCode() != errs.ExitConfig {
		t.Fatalf("err = %v, want config error", err)
	}
}

func TestRunEmptyWindowIsNotFound(t *testing.T) {
	var buf bytes.Buffer
	_, err := Run(Options{
		Config: testConfig(t.TempDir()),
		Sel:    catalog.Selection{Mode: catalog.ModeLast},
		Clock:  clock.UTC{},
	}, &buf)

	var e *errs.Error
	if !errors.As(err, &e) || e.ExitCode() != errs.ExitNotFound {
		t.Fatalf("err = %v, want not-found", err)
	}
}

func TestRunReportShape(t *testing.T) {
	dir := t.TempDir()
	now := time.Date(2026, 1, 15, 14, 15, 0, 0, time.UTC)
	writeLog(t, dir, "0000000A.ACT", now,
		stopLine("TG1", "10:01:00.0", "a", "b"),
		stopLine("TG1", "10:05:00.0", "a", "b"),
		stopLine("TG2", "10:05:00.0", "a", "b"),
	)

	var buf bytes.Buffer
	_, err := Run(Options{
		Config: testConfig(dir),
		Filter: filter.Config{Type: cdr.Stop, Report: filter.ReportTotalCalls},
		Sel:    catalog.Selection{Mode: catalog.ModeLast},
		Clock:  clock.Fixed{T: now},
	}, &buf)
	if err != nil {
		t.Fatal(err)
	}

	out := outputLines(t, &buf)
	want := []string{
		"      2 STOP TG1 10:0",
		"      1 STOP TG2 10:0",
	}
	if len(out) != 3 || out[1] != want[0] || out[2] != want[1] {
		t.Errorf("body = %v, want %v", out[1:], want)
	}
}

func TestRunProjectionWithHead(t *testing.T) {
	dir := t.TempDir()
	now := time.Date(2026, 1, 15, 14, 15, 0, 0, time.UTC)
	writeLog(t, dir, "0000000A.ACT", now,
		stopLine("TG1", "10:01:00.0", "a", "b"),
		stopLine("TG2", "10:02:00.0", "a", "b"),
		stopLine("TG3", "10:03:00.0", "a", "b"),
	)

	var buf bytes.Buffer
	res, err := Run(Options{
		Config: testConfig(dir),
		Filter: filter.Config{Type: cdr.Stop, Fields: []int{9}},
		Sel:    catalog.Selection{Mode: catalog.ModeLast},
		Head:   2,
		Clock:  clock.Fixed{T: now},
	}, &buf)
	if err != nil {
		t.Fatal(err)
	}

	out := outputLines(t, &buf)
	if len(out) != 3 || out[1] != "TG1" || out[2] != "TG2" || res.Lines != 2 {
		t.Errorf("body = %v, lines = %d", out[1:], res.Lines)
	}
}

func TestRunSalt(t *testing.T) {
	dir := t.TempDir()
	now := time.Date(2026, 1, 15, 14, 15, 0, 0, time.UTC)

	in := stopLine("TG1", "13:45:12.3", "a", "b")
	outOfBucket := stopLine("TG1", "13:05:00.0", "a", "b")

	// Fresh rotation file inside the visibility window.
	writeLog(t, dir, "0000ABCD.ACT", now.Add(-5*time.Minute), in, outOfBucket)
	// Too old for the rolling window.
	writeLog(t, dir, "0000ABCC.ACT", now.Add(-2*time.Hour), stopLine("TG9", "13:40:00.0", "a", "b"))

	var buf bytes.Buffer
	res, err := RunSalt(testConfig(dir), clock.Fixed{T: now}, &buf)
	if err != nil {
		t.Fatal(err)
	}

	out := outputLines(t, &buf)
	if out[0] != "# sbc01 STOP,ATTEMPT" {
		t.Errorf("header = %q", out[0])
	}
	if len(out) != 2 || out[1] != in {
		t.Errorf("body = %v, want only the in-bucket record", out[1:])
	}
	if len(res.Files) != 1 {
		t.Errorf("files = %v, want the fresh file only", res.Files)
	}
}

func TestSaltSummary(t *testing.T) {
	dir := t.TempDir()
	now := time.Date(2026, 1, 15, 14, 15, 0, 0, time.UTC)
	writeLog(t, dir, "0000ABCD.ACT", now.Add(-5*time.Minute),
		stopLine("TG1", "13:45:00.0", "a", "b"),
		stopLine("TG1", "13:46:00.0", "a", "b"),
		attemptLine("TG2", "13:50:00.0", "a", "b"),
	)

	bucket, rows, err := SaltSummary(testConfig(dir), clock.Fixed{T: now})
	if err != nil {
		t.Fatal(err)
	}
	if bucket.Hour != 13 || !bucket.SecondHalf {
		t.Errorf("bucket = %+v", bucket)
	}
	if len(rows) != 2 || rows[0].Count != 2 || rows[0].Key != "STOP TG1 13:4" {
		t.Errorf("rows = %v", rows)
	}
}
