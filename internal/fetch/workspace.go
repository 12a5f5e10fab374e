package fetch

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/hashicorp/go-multierror"
)

const workspacePrefix = "fetch-"

// Workspace is a request-private directory under the scratch root.
type Workspace struct {
	ID  string
	Dir string
}

// NewWorkspace creates <root>/fetch-<id>. It fails if the directory already exists.
func NewWorkspace(root, id string) (*Workspace, error) {
	id = strings.TrimSpace(id)
	if id == "" || strings.ContainsAny(id, `/\`) || id == "." || id == ".." {
		return nil, fmt.Errorf("invalid workspace id %q", id)
	}
	dir := filepath.Join(root, workspacePrefix+id)
	if err := os.Mkdir(dir, 0o700); err != nil {
		return nil, fmt.Errorf("create workspace: %w", err)
	}
	return &Workspace{ID: id, Dir: dir}, nil
}

// Contains reports whether path lies inside the workspace.
func (w *Workspace) Contains(path string) bool {
	rel, err := filepath.Rel(w.Dir, filepath.Clean(path))
	if err != nil {
		return false
	}
	return rel != "." && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

// Cleanup removes every entry and then the directory itself using remove.
// It attempts every removal and returns the collected errors.
func (w *Workspace) Cleanup(remove func(string) error) error {
	if remove == nil {
		remove = os.RemoveAll
	}
	var result *multierror.Error

	entries, err := os.ReadDir(w.Dir)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		result = multierror.Append(result, fmt.Errorf("list %s: %w", w.Dir, err))
	}
	for _, e := range entries {
		p := filepath.Join(w.Dir, e.Name())
		if err := remove(p); err != nil {
			result = multierror.Append(result, fmt.Errorf("remove %s: %w", e.Name(), err))
		}
	}
	if err := remove(w.Dir); err != nil && !errors.Is(err, fs.ErrNotExist) {
		result = multierror.Append(result, fmt.Errorf("remove workspace: %w", err))
	}
	return result.ErrorOrNil()
}
