// Package filestore gives read-only access to files under a document root.
package filestore

import (
	stderrors "errors"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/nczempin/httpd-go-uring/errors"
)

// Kind is the result of an existence check
type Kind int

const (
	KindNone Kind = iota
	KindFile
	KindDirectory
)

func (k Kind) String() string {
	switch k {
	case KindFile:
		return "file"
	case KindDirectory:
		return "directory"
	default:
		return "none"
	}
}

// FileStore defines the storage operations the server needs.
// Paths are slash-separated and relative to the store's root; "." is the root itself.
type FileStore interface {
	// Stat reports whether rel names a regular file, a directory, or nothing
	Stat(rel string) (Kind, error)

	// ReadAll returns the full contents of the file at rel
	ReadAll(rel string) ([]byte, error)
}

// Dir implements FileStore on top of the os package
type Dir struct {
	root string
}

// NewDir creates a Dir rooted at root
func NewDir(root string) *Dir {
	return &Dir{root: root}
}

// Stat checks rel without following it outside the root.
// Anything that is neither a regular file nor a directory is reported as KindNone.
func (d *Dir) Stat(rel string) (Kind, error) {
	full, err := d.path(rel)
	if err != nil {
		return KindNone, err
	}

	info, err := os.Stat(full)
	if err != nil {
		if stderrors.Is(err, fs.ErrNotExist) {
			return KindNone, nil
		}
		return KindNone, errors.NewStorageError(errors.StorageErrorReadFailure, "stat failed", err)
	}

	switch {
	case info.IsDir():
		return KindDirectory, nil
	case info.Mode().IsRegular():
		return KindFile, nil
	default:
		return KindNone, nil
	}
}

// ReadAll reads the file at rel with os.ReadFile
func (d *Dir) ReadAll(rel string) ([]byte, error) {
	full, err := d.path(rel)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(full)
	if err != nil {
		return nil, readError(rel, err)
	}
	return data, nil
}

// path maps rel onto the filesystem, rejecting anything fs.ValidPath refuses
func (d *Dir) path(rel string) (string, error) {
	if !fs.ValidPath(rel) {
		return "", errors.NewStorageError(errors.StorageErrorNotFound, "invalid path "+rel, nil)
	}
	return filepath.Join(d.root, filepath.FromSlash(rel)), nil
}

func readError(rel string, err error) error {
	if stderrors.Is(err, fs.ErrNotExist) {
		return errors.NewStorageError(errors.StorageErrorNotFound, rel, err)
	}
	return errors.NewStorageError(errors.StorageErrorReadFailure, rel, err)
}
