package fetch

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofrs/flock"
	"github.com/hashicorp/go-multierror"
)

// ErrRootLocked means another process already owns the scratch root.
var ErrRootLocked = errors.New("fetch: scratch root is locked by another process")

const lockFile = ".mediabot.lock"

// LockRoot creates root if needed and takes an exclusive advisory lock on it.
// The caller must Unlock the returned lock on shutdown.
func LockRoot(root string) (*flock.Flock, error) {
	root = strings.TrimSpace(root)
	if root == "" {
		return nil, errors.New("fetch: scratch root required")
	}
	if err := os.MkdirAll(root, 0o700); err != nil {
		return nil, fmt.Errorf("create scratch root: %w", err)
	}
	lock := flock.New(filepath.Join(root, lockFile))
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire scratch lock: %w", err)
	}
	if !ok {
		return nil, ErrRootLocked
	}
	return lock, nil
}

// SweepResult lists what SweepStale removed.
type SweepResult struct {
	Removed []string
	Err     error
}

// SweepStale removes workspaces under root last modified before now-maxAge.
// Only directories named like workspaces are touched.
func SweepStale(root string, maxAge time.Duration, now time.Time) SweepResult {
	var (
		res  SweepResult
		errs *multierror.Error
	)
	root = strings.TrimSpace(root)
	if root == "" || maxAge <= 0 {
		return res
	}
	entries, err := os.ReadDir(root)
	if err != nil {
		if !os.IsNotExist(err) {
			res.Err = err
		}
		return res
	}

	cutoff := now.Add(-maxAge)
	for _, entry := range entries {
		if !entry.IsDir() || !strings.HasPrefix(entry.Name(), workspacePrefix) {
			continue
		}
		dir := filepath.Join(root, entry.Name())
		info, err := entry.Info()
		if err != nil {
			errs = multierror.Append(errs, fmt.Errorf("stat %s: %w", entry.Name(), err))
			continue
		}
		if !info.ModTime().Before(cutoff) {
			continue
		}
		if err := os.RemoveAll(dir); err != nil {
			errs = multierror.Append(errs, fmt.Errorf("remove %s: %w", entry.Name(), err))
			continue
		}
		res.Removed = append(res.Removed, dir)
	}
	res.Err = errs.ErrorOrNil()
	return res
}
