package vault

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/cockroachdb/errors"

	"lostfound/internal/lf"
)

const (
	snapshotExt = ".json"
	tempPrefix  = ".tmp-"
)

// FileSystemVault stores snapshots as files in a single directory:
//
//	<root>/
//	  backup_2025-06-01_10-00-00.json
//	  auto_backup_2025-06-01_10-10.json
type FileSystemVault struct {
	name string
	root string
}

// NewFileSystemVault creates a new filesystem vault rooted at the given path.
// The directory is created if it does not exist.
func NewFileSystemVault(name, root string) (*FileSystemVault, error) {
	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, errors.Wrap(err, "creating snapshot directory")
	}
	return &FileSystemVault{name: name, root: root}, nil
}

// Name returns the configured vault name.
func (v *FileSystemVault) Name() string {
	return v.name
}

func (v *FileSystemVault) path(name string) (string, error) {
	if name == "" || filepath.Base(name) != name || strings.HasPrefix(name, ".") {
		return "", errors.Newf("invalid snapshot name %q", name)
	}
	return filepath.Join(v.root, name), nil
}

// PutSnapshot writes the snapshot to a temp file and then hard-links it into
// place. The link fails if the name is taken, so an existing snapshot is never
// replaced and a half-written file is never visible under its final name.
func (v *FileSystemVault) PutSnapshot(ctx context.Context, name string, r io.Reader, size int64) error {
	destPath, err := v.path(name)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	tmpFile, err := os.CreateTemp(v.root, tempPrefix+"*")
	if err != nil {
		return errors.Wrap(err, "creating temp file")
	}
	tmpPath := tmpFile.Name()
	defer os.Remove(tmpPath)

	written, err := io.Copy(tmpFile, r)
	if err != nil {
		tmpFile.Close()
		return errors.Wrap(err, "writing snapshot data")
	}
	if err := tmpFile.Sync(); err != nil {
		tmpFile.Close()
		return errors.Wrap(err, "syncing temp file")
	}
	if err := tmpFile.Close(); err != nil {
		return errors.Wrap(err, "closing temp file")
	}

	if written != size {
		return errors.Newf("size mismatch: expected %d bytes, got %d", size, written)
	}

	if err := os.Link(tmpPath, destPath); err != nil {
		if os.IsExist(err) {
			return errors.Mark(errors.Newf("snapshot %s already exists", name), lf.ErrConflict)
		}
		return errors.Wrap(err, "publishing snapshot")
	}
	return nil
}

// GetSnapshot copies the named snapshot to w.
func (v *FileSystemVault) GetSnapshot(ctx context.Context, name string, w io.Writer) error {
	srcPath, err := v.path(name)
	if err != nil {
		return err
	}

	f, err := os.Open(srcPath)
	if err != nil {
		if os.IsNotExist(err) {
			return errors.Mark(errors.Newf("snapshot not found: %s", name), lf.ErrNotFound)
		}
		return errors.Wrap(err, "opening snapshot")
	}
	defer f.Close()

	if _, err := io.Copy(w, f); err != nil {
		return errors.Wrap(err, "reading snapshot")
	}
	return nil
}

// StatSnapshot returns size and modification time of the named snapshot.
func (v *FileSystemVault) StatSnapshot(ctx context.Context, name string) (*lf.SnapshotInfo, error) {
	p, err := v.path(name)
	if err != nil {
		return nil, err
	}

	info, err := os.Stat(p)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Mark(errors.Newf("snapshot not found: %s", name), lf.ErrNotFound)
		}
		return nil, errors.Wrap(err, "stat snapshot")
	}
	return &lf.SnapshotInfo{Name: name, Size: info.Size(), ModifiedAt: info.ModTime()}, nil
}

// ListSnapshots returns every .json file in the vault directory.
func (v *FileSystemVault) ListSnapshots(ctx context.Context) ([]*lf.SnapshotInfo, error) {
	entries, err := os.ReadDir(v.root)
	if err != nil {
		return nil, errors.Wrap(err, "reading snapshot directory")
	}

	result := make([]*lf.SnapshotInfo, 0, len(entries))
	for _, e := range entries {
		name := e.Name()
		if !e.Type().IsRegular() || strings.HasPrefix(name, ".") || !strings.HasSuffix(name, snapshotExt) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			// Deleted between ReadDir and Info.
			continue
		}
		result = append(result, &lf.SnapshotInfo{Name: name, Size: info.Size(), ModifiedAt: info.ModTime()})
	}
	return result, nil
}

// DeleteSnapshot removes the named snapshot.
func (v *FileSystemVault) DeleteSnapshot(ctx context.Context, name string) error {
	p, err := v.path(name)
	if err != nil {
		return err
	}

	if err := os.Remove(p); err != nil {
		if os.IsNotExist(err) {
			return errors.Mark(errors.Newf("snapshot not found: %s", name), lf.ErrNotFound)
		}
		return errors.Wrap(err, "deleting snapshot")
	}
	return nil
}

// ValidateSetup verifies that the vault directory exists and is writable.
func (v *FileSystemVault) ValidateSetup(ctx context.Context) error {
	info, err := os.Stat(v.root)
	if err != nil {
		return errors.Wrap(err, "vault root not accessible")
	}
	if !info.IsDir() {
		return errors.Newf("vault root is not a directory: %s", v.root)
	}

	probe, err := os.CreateTemp(v.root, tempPrefix+"probe-*")
	if err != nil {
		return errors.Wrap(err, "vault root not writable")
	}
	probe.Close()
	os.Remove(probe.Name())
	return nil
}

var _ lf.SnapshotVault = (*FileSystemVault)(nil)
