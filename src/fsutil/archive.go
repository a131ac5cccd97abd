package fsutil

import (
	"context"
	"fmt"
	"path/filepath"
)

// LocalArchive keeps raw uploads on the local filesystem, one
// directory per session under the configured root.
type LocalArchive struct {
	root string
	fs   FileStore
}

func NewLocalArchive(root string, fs FileStore) (*LocalArchive, error) {
	if root == "" {
		return nil, fmt.Errorf("archive root is required")
	}
	if fs == nil {
		fs = NewLocalFileStore()
	}

	if err := fs.MakeDirectory(root); err != nil {
		return nil, fmt.Errorf("failed to create archive root %s: %w", root, err)
	}

	return &LocalArchive{
		root: root,
		fs:   fs,
	}, nil
}

// Archive stores one upload under <root>/<sessionID>/<name>.
func (a *LocalArchive) Archive(ctx context.Context, sessionID, name string, data []byte) error {
	dir := filepath.Join(a.root, sessionID)
	if err := a.fs.MakeDirectory(dir); err != nil {
		return fmt.Errorf("failed to create session directory: %w", err)
	}

	// Uploads carry display names; keep only the base name so a crafted
	// name cannot escape the session directory.
	path := filepath.Join(dir, filepath.Base(name))
	if err := a.fs.WriteFile(path, data); err != nil {
		return fmt.Errorf("failed to write archived upload: %w", err)
	}
	return nil
}

// Purge removes a session's archived uploads.
func (a *LocalArchive) Purge(ctx context.Context, sessionID string) error {
	if err := a.fs.RemoveAll(filepath.Join(a.root, sessionID)); err != nil {
		return fmt.Errorf("failed to remove session archive: %w", err)
	}
	return nil
}

// Stats reports how many files a session's archive holds and their
// total size.
func (a *LocalArchive) Stats(sessionID string) (count int, size int64, err error) {
	return a.fs.GetFileStats(filepath.Join(a.root, sessionID))
}

// Healthy reports whether the archive root is usable.
func (a *LocalArchive) Healthy(ctx context.Context) bool {
	_, _, err := a.fs.GetFileStats(a.root)
	return err == nil
}
