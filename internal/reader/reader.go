// Package reader streams raw CDR lines across an ordered list of
// rotated files, decompressing transparently. File order comes from the
// selector and approximates record chronology; it is preserved exactly.
package reader

import (
	"bufio"
	"io"
	"iter"
	"os"

	"github.com/klauspost/compress/gzip"
	"github.com/rs/zerolog/log"

	"cdrq/internal/catalog"
)

// Scanner buffer sizing: CDR lines are normally a few hundred bytes,
// but quoted display names can inflate them.
const (
	initialBuf = 256 * 1024
	maxLine    = 2 * 1024 * 1024
)

// Lines yields every line of the given files in order, oldest file
// first. Memory stays bounded at one line regardless of file sizes.
// A file that cannot be opened or read is logged and skipped; once
// streaming begins the contract is best effort.
func Lines(files []catalog.LogFile) iter.Seq[string] {
	return func(yield func(string) bool) {
		for _, f := range files {
			if !streamFile(f, yield) {
				return
			}
		}
	}
}

// streamFile pushes one file's lines to yield. Returns false when the
// consumer stopped pulling.
func streamFile(f catalog.LogFile, yield func(string) bool) bool {
	fh, err := os.Open(f.Path)
	if err != nil {
		log.Warn().Err(err).Str("file", f.Name).Msg("skipping unreadable log file")
		return true
	}
	defer func() { _ = fh.Close() }()

	var r io.Reader = fh
	if f.Compressed {
		gz, err := gzip.NewReader(fh)
		if err != nil {
			log.Warn().Err(err).Str("file", f.Name).Msg("skipping corrupt gzip file")
			return true
		}
		defer func() { _ = gz.Close() }()
		r = gz
	}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, initialBuf), maxLine)
	for scanner.Scan() {
		if !yield(scanner.Text()) {
			return false
		}
	}
	if err := scanner.Err(); err != nil {
		log.Warn().Err(err).Str("file", f.Name).Msg("read aborted mid-file")
	}
	return true
}
