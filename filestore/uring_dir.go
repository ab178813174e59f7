package filestore

import (
	"os"

	"github.com/godzie44/go-uring/uring"
	"github.com/nczempin/httpd-go-uring/errors"
)

// UringDir implements FileStore with reads submitted through io_uring
// (godzie44/go-uring). Existence checks are the same as Dir.
type UringDir struct {
	Dir
	entries uint32
}

// NewUringDir creates a UringDir rooted at root
func NewUringDir(root string) *UringDir {
	return &UringDir{
		Dir:     Dir{root: root},
		entries: 8,
	}
}

// ReadAll reads the file at rel using io_uring.
// Each call sets up its own ring, so a UringDir may be shared between goroutines.
func (d *UringDir) ReadAll(rel string) ([]byte, error) {
	full, err := d.path(rel)
	if err != nil {
		return nil, err
	}

	file, err := os.Open(full)
	if err != nil {
		return nil, readError(rel, err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return nil, readError(rel, err)
	}
	if !info.Mode().IsRegular() {
		return nil, errors.NewStorageError(errors.StorageErrorReadFailure, rel+" is not a regular file", nil)
	}

	size := int(info.Size())
	data := make([]byte, size)
	if size == 0 {
		return data, nil
	}

	ring, err := uring.New(d.entries)
	if err != nil {
		return nil, errors.NewStorageError(
			errors.StorageErrorIoUringInit,
			"failed to initialize io_uring",
			err,
		)
	}
	defer ring.Close()

	totalRead := 0
	for totalRead < size {
		// Queue read operation
		sqe := uring.Read(file.Fd(), data[totalRead:], uint64(totalRead))
		if err := ring.QueueSQE(sqe, 0, 0); err != nil {
			return nil, errors.NewStorageError(
				errors.StorageErrorIoUringSubmit,
				"failed to queue read request",
				err,
			)
		}

		// Submit and wait
		if _, err := ring.Submit(); err != nil {
			return nil, errors.NewStorageError(
				errors.StorageErrorIoUringSubmit,
				"failed to submit read request",
				err,
			)
		}

		cqe, err := ring.WaitCQEvents(1)
		if err != nil {
			return nil, errors.NewStorageError(
				errors.StorageErrorReadFailure,
				"failed to wait for read completion",
				err,
			)
		}

		if err := cqe.Error(); err != nil {
			ring.SeenCQE(cqe)
			return nil, errors.NewStorageError(
				errors.StorageErrorReadFailure,
				"read operation failed",
				err,
			)
		}

		n := int(cqe.Res)
		ring.SeenCQE(cqe)

		// File shrank since Stat
		if n == 0 {
			break
		}

		totalRead += n
	}

	return data[:totalRead], nil
}
