// Package report projects fields from the filtered stream and reduces
// it into the aggregated report shapes.
package report

import (
	"iter"
	"sort"
	"strings"

	"cdrq/internal/cdr"
)

// Project strips embedded quoted sub-fields, splits on comma and emits
// only the requested 1-based positions, space-joined for readability.
// With keepQuoted the quoted content survives (minus the quote chars)
// so protocol-variant detail fields stay intact.
func Project(lines iter.Seq[string], fields []int, keepQuoted bool) iter.Seq[string] {
	return func(yield func(string) bool) {
		for line := range lines {
			stripped := cdr.StripQuoted(line, keepQuoted)
			parts := strings.Split(stripped, ",")
			picked := make([]string, 0, len(fields))
			for _, f := range fields {
				if f >= 1 && f <= len(parts) {
					picked = append(picked, parts[f-1])
				} else {
					picked = append(picked, "")
				}
			}
			if !yield(strings.Join(picked, " ")) {
				return
			}
		}
	}
}

// Row is one aggregated output row.
type Row struct {
	Count int
	Key   string
}

// CountRows groups identical projected rows and counts them: the
// stream is sorted, consecutive duplicates collapse, and output stays
// in sorted-row order. Reordering the input never changes the result.
func CountRows(lines iter.Seq[string]) []Row {
	var all []string
	for line := range lines {
		all = append(all, line)
	}
	sort.Strings(all)

	var rows []Row
	for _, line := range all {
		if n := len(rows); n > 0 && rows[n-1].Key == line {
			rows[n-1].Count++
			continue
		}
		rows = append(rows, Row{Count: 1, Key: line})
	}
	return rows
}
