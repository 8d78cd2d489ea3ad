package packager

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// ErrDigest is returned when a file cannot be read while hashing.
var ErrDigest = errors.New("digest calculation failed")

// FileDigest streams the file through SHA-256 and returns the lowercase hex digest.
func FileDigest(path string) (string, error) {
	file, err := os.Open(filepath.Clean(path))
	if err != nil {
		return "", fmt.Errorf("%w: open %s: %w", ErrDigest, path, err)
	}

	defer func() {
		_ = file.Close()
	}()

	hasher := sha256.New()
	if _, err = io.Copy(hasher, file); err != nil {
		return "", fmt.Errorf("%w: read %s: %w", ErrDigest, path, err)
	}

	return hex.EncodeToString(hasher.Sum(nil)), nil
}
