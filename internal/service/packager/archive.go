package packager

import (
	"archive/tar"
	"compress/gzip"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/oshokin/spin-pluginify/internal/config"
	"github.com/oshokin/spin-pluginify/internal/domain/plugin"
)

const (
	// ArchiveExtension is appended to every archive file name.
	ArchiveExtension = ".tar.gz"

	// windowsExecutableSuffix is tried when a Windows artifact is named without it.
	windowsExecutableSuffix = ".exe"
)

var (
	// ErrArtifactNotFound is returned when the artifact to package does not exist.
	ErrArtifactNotFound = errors.New("artifact not found")
	// ErrArchive is returned when the archive cannot be written.
	ErrArchive = errors.New("archive creation failed")
)

// ArchiveFilename returns {name}-{version}-{os}-{arch}.tar.gz.
func ArchiveFilename(name, version string, osTag plugin.OS, arch plugin.Arch) string {
	return fmt.Sprintf("%s-%s-%s-%s%s", name, version, osTag, arch, ArchiveExtension)
}

// ResolveArtifact returns the path of the artifact to package.
// For Windows targets a missing path falls back to the same path with ".exe" appended.
func ResolveArtifact(path string, osTag plugin.OS) (string, error) {
	candidates := []string{path}
	if osTag == plugin.OSWindows && filepath.Ext(path) != windowsExecutableSuffix {
		candidates = append(candidates, path+windowsExecutableSuffix)
	}

	for _, candidate := range candidates {
		info, err := os.Stat(candidate)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}

			return "", fmt.Errorf("stat %s: %w", candidate, err)
		}

		if !info.Mode().IsRegular() {
			return "", fmt.Errorf("%s is not a regular file: %w", candidate, ErrArtifactNotFound)
		}

		return candidate, nil
	}

	return "", fmt.Errorf("%s: %w", path, ErrArtifactNotFound)
}

// writeArchive stores src as the only entry of a gzip tar at dst.
// The entry is named after the base name of src. All writers are closed on return.
func writeArchive(dst, src string) (err error) {
	source, err := os.Open(filepath.Clean(src))
	if err != nil {
		return fmt.Errorf("%w: open %s: %w", ErrArchive, src, err)
	}

	defer func() {
		_ = source.Close()
	}()

	info, err := source.Stat()
	if err != nil {
		return fmt.Errorf("%w: stat %s: %w", ErrArchive, src, err)
	}

	header, err := tar.FileInfoHeader(info, "")
	if err != nil {
		return fmt.Errorf("%w: header for %s: %w", ErrArchive, src, err)
	}

	header.Name = filepath.Base(src)

	output, err := os.OpenFile(filepath.Clean(dst), os.O_CREATE|os.O_TRUNC|os.O_WRONLY, config.DefaultFilePermissions)
	if err != nil {
		return fmt.Errorf("%w: create %s: %w", ErrArchive, dst, err)
	}

	// Close order matters: tar trailer, then gzip footer, then the file.
	gzipWriter := gzip.NewWriter(output)
	tarWriter := tar.NewWriter(gzipWriter)

	defer func() {
		err = errors.Join(err, closeAll(tarWriter, gzipWriter, output))
		if err != nil && !errors.Is(err, ErrArchive) {
			err = fmt.Errorf("%w: %w", ErrArchive, err)
		}
	}()

	if err = tarWriter.WriteHeader(header); err != nil {
		return fmt.Errorf("%w: write header: %w", ErrArchive, err)
	}

	if _, err = io.Copy(tarWriter, source); err != nil {
		return fmt.Errorf("%w: copy %s: %w", ErrArchive, src, err)
	}

	return nil
}

// closeAll closes every closer in order and joins the failures.
func closeAll(closers ...io.Closer) error {
	var errs []error

	for _, c := range closers {
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}
