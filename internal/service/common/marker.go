//nolint:revive,nolintlint // Package name "common" is intentional for shared helpers.
package common

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/mitchellh/go-ps"

	"github.com/oshokin/spin-pluginify/internal/logger"
)

// MarkerFilename marks a working directory as being packaged right now.
// Output filenames are deterministic, so two runs in one directory would clobber each other.
const MarkerFilename = ".spin-pluginify.lock"

// ErrAlreadyRunning is returned when another live process holds the marker.
var ErrAlreadyRunning = errors.New("another packaging run is in progress")

// AcquireMarker creates the marker in dir and returns a function removing it.
// A marker left behind by a dead process is taken over.
func AcquireMarker(ctx context.Context, dir string) (func(), error) {
	path := filepath.Join(dir, MarkerFilename)

	if err := clearStaleMarker(ctx, path); err != nil {
		return nil, err
	}

	marker, err := os.OpenFile(filepath.Clean(path), os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600)
	if err != nil {
		if errors.Is(err, os.ErrExist) {
			return nil, fmt.Errorf("%s: %w", path, ErrAlreadyRunning)
		}

		return nil, fmt.Errorf("create marker: %w", err)
	}

	_, err = marker.WriteString(strconv.Itoa(os.Getpid()))
	if closeErr := marker.Close(); err == nil {
		err = closeErr
	}

	if err != nil {
		_ = os.Remove(path)
		return nil, fmt.Errorf("write marker: %w", err)
	}

	release := func() {
		if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			logger.WarnKV(ctx, "Unable to remove marker", "path", path, "error", err)
		}
	}

	return release, nil
}

// clearStaleMarker removes the marker when its owner is gone.
func clearStaleMarker(ctx context.Context, path string) error {
	contents, err := os.ReadFile(filepath.Clean(path))
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}

	if err != nil {
		return fmt.Errorf("read marker: %w", err)
	}

	pid, err := strconv.Atoi(strings.TrimSpace(string(contents)))
	if err == nil && pid != os.Getpid() && isProcessAlive(pid) {
		return fmt.Errorf("%s (pid %d): %w", path, pid, ErrAlreadyRunning)
	}

	logger.InfoKV(ctx, "Removing stale marker", "path", path)

	if err = os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove stale marker: %w", err)
	}

	return nil
}

// isProcessAlive reports whether a process with pid exists.
// Lookup failures count as alive so a marker is never stolen by mistake.
func isProcessAlive(pid int) bool {
	process, err := ps.FindProcess(pid)
	if err != nil {
		return true
	}

	return process != nil
}
