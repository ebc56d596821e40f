// Package finalize gathers a run's intermediate files into a timestamped workspace.
package finalize

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/lwneal/cinematic-generator/types"
)

// Finalizer moves intermediates into story_<unix-seconds> under Root
type Finalizer struct {
	Root string
	Now  func() time.Time
}

// New creates a new Finalizer rooted at dir
func New(dir string) *Finalizer {
	return &Finalizer{Root: dir, Now: time.Now}
}

// WorkspaceName is the directory name used for a run finished at t
func WorkspaceName(t time.Time) string {
	return fmt.Sprintf("story_%d", t.Unix())
}

// Finalize creates the workspace and moves every file into it. An existing
// workspace is never reused, and no file in it is ever overwritten.
func (f *Finalizer) Finalize(files []string) (string, error) {
	logger := log.WithField("stage", "finalize")
	now := time.Now
	if f.Now != nil {
		now = f.Now
	}

	dir := filepath.Join(f.Root, WorkspaceName(now()))
	if err := os.Mkdir(dir, 0755); err != nil {
		if errors.Is(err, os.ErrExist) {
			err = types.ErrWorkspaceExists
		}
		return "", &types.FinalizeFailedError{Path: dir, Err: err}
	}

	for _, src := range files {
		dst := filepath.Join(dir, filepath.Base(src))
		if err := move(src, dst); err != nil {
			return dir, &types.FinalizeFailedError{Path: src, Err: err}
		}
	}
	logger.Infof("Moved %d files into %s", len(files), dir)
	return dir, nil
}

func move(src, dst string) error {
	if _, err := os.Lstat(dst); err == nil {
		return fmt.Errorf("%s already exists", dst)
	}
	err := os.Rename(src, dst)
	if err == nil {
		return nil
	}
	if !errors.Is(err, syscall.EXDEV) {
		return err
	}
	// rename fails across filesystems; fall back to copy and remove
	if cerr := copyFile(src, dst); cerr != nil {
		return fmt.Errorf("%v (copy fallback: %w)", err, cerr)
	}
	return os.Remove(src)
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		os.Remove(dst)
		return err
	}
	return out.Close()
}
