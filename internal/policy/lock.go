package policy

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
)

// AcquireRunLock takes an exclusive file lock so two grouping jobs on
// the same machine cannot run concurrently. The returned release
// function must be called when the run finishes. Returns an error
// without blocking when another run holds the lock.
//
// This guards local operation only; nothing stops a second job on
// another host, so operators still must not point two runs at the same
// database.
func AcquireRunLock(dir string) (release func(), err error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("creating lock directory: %w", err)
	}

	lock := flock.New(filepath.Join(dir, "grouper.lock"))
	locked, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquiring run lock: %w", err)
	}
	if !locked {
		return nil, fmt.Errorf("another grouping run is already in progress (lock held at %s)", lock.Path())
	}

	return func() { _ = lock.Unlock() }, nil
}
