// Package catalog enumerates rotated CDR log files and selects the
// subset covering a requested time window.
package catalog

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"cdrq/internal/errs"
)

// LogFile is one rotated accounting file. ModTime stands in for the
// file's creation instant: the rotation scheme closes a file the moment
// the next one opens, so mtime marks where the file's records end, not
// where they begin. The selector exists to resolve that ambiguity.
type LogFile struct {
	Name       string
	Path       string
	Compressed bool
	ModTime    time.Time
}

// Scan lists the accounting files in dir. ext is the base extension
// (".ACT"); files carrying an additional gzSuffix are marked compressed.
// A missing directory means the source system is not currently active
// and is reported as an environment error.
func Scan(dir, ext, gzSuffix string) ([]LogFile, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errs.Env("log directory %s not present; source system inactive", dir)
		}
		return nil, err
	}

	var files []LogFile
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		compressed := false
		switch {
		case strings.HasSuffix(name, ext+gzSuffix):
			compressed = true
		case strings.HasSuffix(name, ext):
		default:
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue // vanished between readdir and stat
		}
		files = append(files, LogFile{
			Name:       name,
			Path:       filepath.Join(dir, name),
			Compressed: compressed,
			ModTime:    info.ModTime().UTC(),
		})
	}
	return files, nil
}
