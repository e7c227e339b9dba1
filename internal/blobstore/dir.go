package blobstore

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// trashDir is where trashed blobs move inside a Dir store.
const trashDir = ".trash"

// Dir is a Store backed by a local directory: the reference is the file
// name. Used for development and tests.
type Dir struct {
	root string
}

// NewDir creates a directory-backed blob store rooted at root.
func NewDir(root string) (*Dir, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("blob directory %s not accessible: %w", root, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("blob path %s is not a directory", root)
	}
	return &Dir{root: root}, nil
}

func (d *Dir) path(ref string) (string, error) {
	// ExtractRef guarantees refs are [\w-]+, but guard against path
	// traversal anyway since refs originate in operator-typed cells.
	if ref == "" || ref != filepath.Base(ref) {
		return "", &InvalidReferenceError{Text: ref}
	}
	return filepath.Join(d.root, ref), nil
}

func (d *Dir) Content(_ context.Context, ref string) ([]byte, error) {
	path, err := d.path(ref)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read blob %s: %w", ref, err)
	}
	return data, nil
}

func (d *Dir) Size(_ context.Context, ref string) (int64, error) {
	path, err := d.path(ref)
	if err != nil {
		return 0, err
	}
	info, err := os.Stat(path)
	if err != nil {
		return 0, fmt.Errorf("failed to stat blob %s: %w", ref, err)
	}
	return info.Size(), nil
}

func (d *Dir) Trash(_ context.Context, ref string) error {
	path, err := d.path(ref)
	if err != nil {
		return err
	}
	dest := filepath.Join(d.root, trashDir)
	if err := os.MkdirAll(dest, 0o755); err != nil {
		return fmt.Errorf("failed to create trash directory: %w", err)
	}
	if err := os.Rename(path, filepath.Join(dest, ref)); err != nil {
		return fmt.Errorf("failed to trash blob %s: %w", ref, err)
	}
	return nil
}

var _ Store = (*Dir)(nil)
