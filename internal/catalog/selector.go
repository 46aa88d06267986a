package catalog

import (
	"regexp"
	"sort"
	"time"

	"cdrq/internal/clock"
	"cdrq/internal/errs"
)

// Mode is a file-selection mode.
type Mode int

const (
	ModeLast Mode = iota + 1
	ModeNum
	ModeToday
	ModeYesterday
	ModeWeek
	ModeDate
	ModeRange
	ModeSalt
)

// Selection carries a mode and its parameters. Date, From and To are
// UTC midnights of the requested day(s).
type Selection struct {
	Mode Mode
	N    int       // ModeNum
	Date time.Time // ModeDate
	From time.Time // ModeRange
	To   time.Time // ModeRange

	// SALT mode only: narrow naming pattern and visibility lag window.
	SaltPattern *regexp.Regexp
	SaltWindow  time.Duration
}

// Select returns the ordered file list whose content covers the
// selection's logical window. Files roll at UTC midnight but a call
// spanning the boundary lands in the adjacent file, so the date/range
// modes drop the rollover artifact at the window start and pull in the
// midnight file that follows the window end. The result is
// chronological and free of duplicates; an empty result is a NotFound
// error so callers can exit with a distinct status.
func Select(sel Selection, files []LogFile, clk clock.Clock) ([]LogFile, error) {
	var out []LogFile

	switch sel.Mode {
	case ModeLast:
		out = lastByName(files, 1)
	case ModeNum:
		out = lastByName(files, sel.N)
	case ModeToday:
		start := clock.Midnight(clk.Now())
		out = boundedWindow(files, start, start.AddDate(0, 0, 1), true)
	case ModeYesterday:
		end := clock.Midnight(clk.Now())
		out = boundedWindow(files, end.AddDate(0, 0, -1), end, true)
	case ModeWeek:
		now := clk.Now()
		out = inWindow(files, now.AddDate(0, 0, -7), now)
		sortByTime(out)
	case ModeDate:
		out = dateWindow(files, clock.Midnight(sel.Date))
	case ModeRange:
		out = rangeWindow(files, clock.Midnight(sel.From), clock.Midnight(sel.To))
	case ModeSalt:
		out = saltWindow(files, clk.Now(), sel)
	}

	out = dedupe(out)
	if len(out) == 0 {
		return nil, errs.NotFound("no log files match the requested window")
	}
	return out, nil
}

// lastByName takes the n lexicographically-last names. File names are
// chronologically sortable by construction (hex rotation sequence).
func lastByName(files []LogFile, n int) []LogFile {
	if n < 1 {
		return nil
	}
	sorted := append([]LogFile(nil), files...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Name < sorted[j].Name })
	if n > len(sorted) {
		n = len(sorted)
	}
	return sorted[len(sorted)-n:]
}

// inWindow returns files with mtime in [start, end), unsorted.
func inWindow(files []LogFile, start, end time.Time) []LogFile {
	var out []LogFile
	for _, f := range files {
		if !f.ModTime.Before(start) && f.ModTime.Before(end) {
			out = append(out, f)
		}
	}
	return out
}

// boundedWindow implements the today/yesterday selection: matches by
// mtime, drops the earliest match (the file the prior window rolled
// into, already attributable to that window), and appends the first
// file created at or after the window end to capture records that
// spilled past the rotation.
func boundedWindow(files []LogFile, start, end time.Time, dropFirst bool) []LogFile {
	out := inWindow(files, start, end)
	sortByTime(out)
	if dropFirst && len(out) > 0 {
		out = out[1:]
	}
	if next, ok := firstAtOrAfter(files, end); ok {
		out = append(out, next)
	}
	return out
}

// dateWindow selects the files holding one calendar day's records.
// The earliest match is dropped only when it was created exactly at
// midnight: such a file is the prior day's rollover artifact and holds
// none of this day's traffic. The next day's midnight file is appended
// because it may hold this day's tail, recorded before rollover.
func dateWindow(files []LogFile, start time.Time) []LogFile {
	end := start.AddDate(0, 0, 1)
	out := inWindow(files, start, end)
	sortByTime(out)
	if len(out) > 0 && out[0].ModTime.Equal(start) {
		out = out[1:]
	}
	if next, ok := firstAtOrAfter(files, end); ok && next.ModTime.Equal(end) {
		out = append(out, next)
	}
	return out
}

// rangeWindow generalizes dateWindow across [from, to] inclusive days.
func rangeWindow(files []LogFile, from, to time.Time) []LogFile {
	endPlus := to.AddDate(0, 0, 1)
	out := inWindow(files, from, endPlus.Add(time.Second))
	sortByTime(out)
	if len(out) > 0 && out[0].ModTime.Equal(from) {
		out = out[1:]
	}
	// The midnight boundary right after the range end, searched in a
	// narrow window so a late-started next-day file is not dragged in.
	lo, hi := endPlus.Add(-time.Second), endPlus.Add(time.Second)
	var boundary *LogFile
	for i := range files {
		f := files[i]
		if f.ModTime.Before(lo) || f.ModTime.After(hi) {
			continue
		}
		if boundary == nil || f.ModTime.Before(boundary.ModTime) {
			boundary = &f
		}
	}
	if boundary != nil {
		out = append(out, *boundary)
	}
	return out
}

// saltWindow keeps uncompressed files matching the rolling-extraction
// naming pattern with mtime inside the visibility lag window.
func saltWindow(files []LogFile, now time.Time, sel Selection) []LogFile {
	window := sel.SaltWindow
	if window <= 0 {
		window = 35 * time.Minute
	}
	var out []LogFile
	for _, f := range files {
		if f.Compressed {
			continue
		}
		if sel.SaltPattern != nil && !sel.SaltPattern.MatchString(f.Name) {
			continue
		}
		if f.ModTime.Before(now.Add(-window)) || f.ModTime.After(now) {
			continue
		}
		out = append(out, f)
	}
	sortByTime(out)
	return out
}

// firstAtOrAfter finds the earliest file created at or after t.
func firstAtOrAfter(files []LogFile, t time.Time) (LogFile, bool) {
	var best LogFile
	found := false
	for _, f := range files {
		if f.ModTime.Before(t) {
			continue
		}
		if !found || f.ModTime.Before(best.ModTime) {
			best = f
			found = true
		}
	}
	return best, found
}

func sortByTime(files []LogFile) {
	sort.Slice(files, func(i, j int) bool {
		if files[i].ModTime.Equal(files[j].ModTime) {
			return files[i].Name < files[j].Name
		}
		return files[i].ModTime.Before(files[j].ModTime)
	})
}

func dedupe(files []LogFile) []LogFile {
	seen := make(map[string]struct{}, len(files))
	out := files[:0]
	for _, f := range files {
		if _, ok := seen[f.Path]; ok {
			continue
		}
		seen[f.Path] = struct{}{}
		out = append(out, f)
	}
	return out
}
