package blobstore

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func newDirStore(t *testing.T) (*Dir, string) {
	t.Helper()
	root := t.TempDir()
	store, err := NewDir(root)
	if err != nil {
		t.Fatalf("NewDir() error: %v", err)
	}
	return store, root
}

func TestDir_ContentAndSize(t *testing.T) {
	store, root := newDirStore(t)
	ctx := context.Background()

	ref := "1a2b3c4d5e6f7g8h9i0j1k2l3m4n5o"
	if err := os.WriteFile(filepath.Join(root, ref), []byte("<p>body</p>"), 0o644); err != nil {
		t.Fatal(err)
	}

	data, err := store.Content(ctx, ref)
	if err != nil {
		t.Fatalf("Content() error: %v", err)
	}
	if string(data) != "<p>body</p>" {
		t.Errorf("Content() = %q, want %q", data, "<p>body</p>")
	}

	size, err := store.Size(ctx, ref)
	if err != nil {
		t.Fatalf("Size() error: %v", err)
	}
	if size != int64(len("<p>body</p>")) {
		t.Errorf("Size() = %d, want %d", size, len("<p>body</p>"))
	}
}

func TestDir_MissingBlob(t *testing.T) {
	store, _ := newDirStore(t)
	ctx := context.Background()

	if _, err := store.Content(ctx, "does-not-exist-aaaaaaaaaaaaaaa"); err == nil {
		t.Error("Content() on missing blob expected error, got nil")
	}
	if _, err := store.Size(ctx, "does-not-exist-aaaaaaaaaaaaaaa"); err == nil {
		t.Error("Size() on missing blob expected error, got nil")
	}
}

func TestDir_Trash(t *testing.T) {
	store, root := newDirStore(t)
	ctx := context.Background()

	ref := "trashme-aaaaaaaaaaaaaaaaaaaaaaa"
	if err := os.WriteFile(filepath.Join(root, ref), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := store.Trash(ctx, ref); err != nil {
		t.Fatalf("Trash() error: %v", err)
	}

	if _, err := os.Stat(filepath.Join(root, ref)); !os.IsNotExist(err) {
		t.Error("trashed blob should no longer exist at its original path")
	}
	if _, err := os.Stat(filepath.Join(root, trashDir, ref)); err != nil {
		t.Errorf("trashed blob should exist under %s: %v", trashDir, err)
	}
}

func TestDir_RejectsTraversal(t *testing.T) {
	store, _ := newDirStore(t)
	ctx := context.Background()

	if _, err := store.Content(ctx, "../escape"); err == nil {
		t.Error("Content() with path traversal ref expected error, got nil")
	}
}
