// Package fsio implements the filesystem and concurrency collaborators the
// core rewriter treats as external: atomic commit of a rewritten stream
// back to disk, a dry-run sink, cooperative interrupt polling, and the
// bounded worker pool that drives many files through a Rewriter at once.
package fsio

import (
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/skystar-p/zoog"
)

// Committer stages a rewritten Ogg stream in a temporary file next to the
// input so the final rename is atomic (same filesystem), then either
// replaces the input on success or discards the temp file.
//
// Grounded on the teacher's SaveAs: temp file in the output directory,
// fsync before close, atomic rename over the original. The temp name's
// uuid suffix (rather than os.CreateTemp's own random suffix) disambiguates
// concurrent runs in logs that interleave output from many files at once.
type Committer struct {
	// Path is the file being rewritten in place.
	Path string

	tempFile *os.File
	tempPath string
}

// NewCommitter opens a temp file in the same directory as path, ready to
// receive the rewritten stream.
func NewCommitter(path string) (*Committer, error) {
	dir := filepath.Dir(path)
	name := ".zoog-" + uuid.NewString() + ".tmp"
	f, err := os.OpenFile(filepath.Join(dir, name), os.O_RDWR|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		return nil, zoog.WrapError(zoog.TempFileOpen, path, err)
	}
	return &Committer{Path: path, tempFile: f, tempPath: f.Name()}, nil
}

// Write implements io.Writer, forwarding to the temp file so a Committer
// can be handed directly to oggstream.NewWriter.
func (c *Committer) Write(p []byte) (int, error) {
	n, err := c.tempFile.Write(p)
	if err != nil {
		return n, zoog.WrapError(zoog.WriteError, c.Path, err)
	}
	return n, nil
}

// Commit fsyncs and closes the temp file, then atomically renames it over
// Path. Call this only when the rewrite produced HeadersChanged (or the
// caller otherwise wants the bytes kept); Discard covers every other case.
func (c *Committer) Commit() (err error) {
	defer func() {
		if err != nil {
			_ = c.tempFile.Close()
			_ = os.Remove(c.tempPath)
		}
	}()

	if err = c.tempFile.Sync(); err != nil {
		return zoog.WrapError(zoog.WriteError, c.Path, err)
	}
	if err = c.tempFile.Close(); err != nil {
		return zoog.WrapError(zoog.WriteError, c.Path, err)
	}
	if err = os.Rename(c.tempPath, c.Path); err != nil {
		return zoog.WrapError(zoog.FileMove, c.Path, err)
	}
	return nil
}

// Discard closes and removes the temp file without touching Path, used
// when the rewrite left the headers unchanged or failed partway through.
func (c *Committer) Discard() error {
	_ = c.tempFile.Close()
	if err := os.Remove(c.tempPath); err != nil && !os.IsNotExist(err) {
		return zoog.WrapError(zoog.FileMove, c.Path, err)
	}
	return nil
}
