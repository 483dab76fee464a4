package fsio

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestCommitter_CommitReplacesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "track.opus")
	if err := os.WriteFile(path, []byte("original"), 0o644); err != nil {
		t.Fatalf("seed file: %v", err)
	}

	c, err := NewCommitter(path)
	if err != nil {
		t.Fatalf("NewCommitter: %v", err)
	}
	if _, err := c.Write([]byte("rewritten")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := c.Commit(); err != nil {
		t.Fatalf("Commit: %v", err)
	}

	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if string(got) != "rewritten" {
		t.Errorf("file contents = %q, want %q", got, "rewritten")
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	for _, e := range entries {
		if strings.Contains(e.Name(), ".tmp") {
			t.Errorf("leftover temp file after commit: %s", e.Name())
		}
	}
}

func TestCommitter_DiscardLeavesOriginalUntouched(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "track.opus")
	if err := os.WriteFile(path, []byte("original"), 0o644); err != nil {
		t.Fatalf("seed file: %v", err)
	}

	c, err := NewCommitter(path)
	if err != nil {
		t.Fatalf("NewCommitter: %v", err)
	}
	if _, err := c.Write([]byte("discarded bytes")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := c.Discard(); err != nil {
		t.Fatalf("Discard: %v", err)
	}

	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read original: %v", err)
	}
	if string(got) != "original" {
		t.Errorf("original file changed after Discard: %q", got)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	if len(entries) != 1 {
		t.Errorf("expected only the original file to remain, got %v", entries)
	}
}

func TestCommitter_TempFileSharesInputDirectory(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "track.opus")
	if err := os.WriteFile(path, nil, 0o644); err != nil {
		t.Fatalf("seed file: %v", err)
	}

	c, err := NewCommitter(path)
	if err != nil {
		t.Fatalf("NewCommitter: %v", err)
	}
	defer c.Discard()

	if filepath.Dir(c.tempPath) != dir {
		t.Errorf("temp file dir = %q, want %q", filepath.Dir(c.tempPath), dir)
	}
}
