package codegen

// #region imports
import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/danielpatrickdp/tastegate/internal/failure"
)

// #endregion

// #region writer

// ErrUnsafePath is returned for artifact paths that would land outside the output directory.
var ErrUnsafePath = errors.New("artifact path escapes output directory")

// DirWriter writes an attempt's files under one directory. Files from the
// previous Write are removed first, so the directory always holds exactly the
// latest attempt.
type DirWriter struct {
	root string

	mu      sync.Mutex
	written []string
}

// NewDirWriter creates a writer rooted at dir.
func NewDirWriter(dir string) *DirWriter {
	return &DirWriter{root: dir}
}

// Root returns the output directory.
func (w *DirWriter) Root() string { return w.root }

// Write validates every path, clears the previous attempt and writes set.
// Absolute paths are rooted at the output directory; a path that still escapes
// it is a ValidationFailure wrapping ErrUnsafePath.
func (w *DirWriter) Write(ctx context.Context, set ArtifactSet) error {
	targets := make([]string, len(set.Files))
	for i, f := range set.Files {
		rel := filepath.FromSlash(cleanPath(f.Path))
		if !filepath.IsLocal(rel) {
			return &failure.Error{
				Kind:   failure.KindValidation,
				Stage:  "write",
				Reason: fmt.Sprintf("unsafe artifact path %q", f.Path),
				Err:    ErrUnsafePath,
			}
		}
		targets[i] = filepath.Join(w.root, rel)
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	for _, old := range w.written {
		if err := os.Remove(old); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("remove previous artifact: %w", err)
		}
	}
	w.written = w.written[:0]

	for i, f := range set.Files {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := os.MkdirAll(filepath.Dir(targets[i]), 0o755); err != nil {
			return fmt.Errorf("create artifact dir: %w", err)
		}
		if err := os.WriteFile(targets[i], []byte(f.Content), 0o644); err != nil {
			return fmt.Errorf("write %s: %w", f.Path, err)
		}
		w.written = append(w.written, targets[i])
	}
	return nil
}

// #endregion
