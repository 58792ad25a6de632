// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package convert

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/pdiddy/photoscan/pkg/types"
)

// Resource is an input that must be acquired before it is read. The
// orchestrator calls BeginAccess and EndAccess exactly once per job;
// EndAccess runs even when BeginAccess failed, so it must cope with a
// partial or absent acquisition.
type Resource interface {
	Name() string
	BeginAccess(ctx context.Context) error
	Open() (io.ReadCloser, error)
	EndAccess()
}

// lockRetry is the pause between lock attempts.
const lockRetry = 25 * time.Millisecond

// FileResource is a local file held under an exclusive advisory lock for
// the duration of a job.
type FileResource struct {
	path    string
	timeout time.Duration

	f *os.File
}

// NewFileResource returns a resource for path. BeginAccess gives up after
// timeout; zero means a single attempt.
func NewFileResource(path string, timeout time.Duration) *FileResource {
	return &FileResource{path: path, timeout: timeout}
}

// Name returns the file's base name.
func (r *FileResource) Name() string { return filepath.Base(r.path) }

// Path returns the file path.
func (r *FileResource) Path() string { return r.path }

// BeginAccess opens the file and locks it, retrying until the timeout.
func (r *FileResource) BeginAccess(ctx context.Context) error {
	if r.f != nil {
		return fmt.Errorf("%w: %s already acquired", types.ErrResourceAccessDenied, r.path)
	}

	f, err := os.Open(r.path)
	if err != nil {
		return fmt.Errorf("%w: %v", types.ErrResourceAccessDenied, err)
	}
	if info, err := f.Stat(); err != nil || !info.Mode().IsRegular() {
		f.Close()
		return fmt.Errorf("%w: %s is not a regular file", types.ErrResourceAccessDenied, r.path)
	}

	deadline := time.Now().Add(r.timeout)
	for {
		err := lockFile(f)
		if err == nil {
			r.f = f
			return nil
		}
		if !errors.Is(err, errLocked) || !time.Now().Before(deadline) {
			f.Close()
			return fmt.Errorf("%w: locking %s: %v", types.ErrResourceAccessDenied, r.path, err)
		}

		select {
		case <-ctx.Done():
			f.Close()
			return fmt.Errorf("%w: %v", types.ErrResourceAccessDenied, ctx.Err())
		case <-time.After(lockRetry):
		}
	}
}

// Open returns a reader over the locked file. Closing it leaves the lock
// in place.
func (r *FileResource) Open() (io.ReadCloser, error) {
	if r.f == nil {
		return nil, fmt.Errorf("%w: %s not acquired", types.ErrResourceAccessDenied, r.path)
	}
	info, err := r.f.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", r.path, err)
	}
	return io.NopCloser(io.NewSectionReader(r.f, 0, info.Size())), nil
}

// EndAccess unlocks and closes the file. It is safe to call without a
// successful BeginAccess.
func (r *FileResource) EndAccess() {
	if r.f == nil {
		return
	}
	unlockFile(r.f)
	r.f.Close()
	r.f = nil
}
