package catalog

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"cdrq/internal/errs"
)

func TestScan(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{
		"016A2B3C.ACT",
		"016A2B3D.ACT.gz",
		"notes.txt",
		"trace.log",
	} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x\n"), 0o600); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.Mkdir(filepath.Join(dir, "archive.ACT"), 0o755); err != nil {
		t.Fatal(err)
	}

	files, err := Scan(dir, ".ACT", ".gz")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(files) != 2 {
		t.Fatalf("got %d files, want 2", len(files))
	}

	byName := make(map[string]LogFile)
	for _, f := range files {
		byName[f.Name] = f
	}
	if f, ok := byName["016A2B3C.ACT"]; !ok || f.Compressed {
		t.Errorf("plain file missing or marked compressed: %+v", f)
	}
	if f, ok := byName["016A2B3D.ACT.gz"]; !ok || !f.Compressed {
		t.Errorf("gzip file missing or not marked compressed: %+v", f)
	}
}

func TestScanMissingDirIsEnvError(t *testing.T) {
	_, err := Scan(filepath.Join(t.TempDir(), "nope"), ".ACT", ".gz")
	if err == nil {
		t.Fatal("expected error for missing directory")
	}
	var coded *errs.Error
	if !errors.As(err, &coded) || coded.ExitCode() != errs.ExitEnv {
		t.Errorf("got %v, want environment error", err)
	}
}

func TestScanModTimeUTC(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "00000001.ACT")
	if err := os.WriteFile(path, []byte("x\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	stamp := time.Date(2026, 1, 10, 8, 0, 0, 0, time.UTC)
	if err := os.Chtimes(path, stamp, stamp); err != nil {
		t.Fatal(err)
	}

	files, err := Scan(dir, ".ACT", ".gz")
	if err != nil {
		t.Fatal(err)
	}
	if len(files) != 1 {
		t.Fatalf("got %d files, want 1", len(files))
	}
	if !files[0].ModTime.Equal(stamp) {
		t.Errorf("ModTime = %v, want %v", files[0].ModTime, stamp)
	}
	if files[0].ModTime.Location() != time.UTC {
		t.Errorf("ModTime location = %v, want UTC", files[0].ModTime.Location())
	}
}
