package packager

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/oshokin/spin-pluginify/internal/domain/plugin"
	"github.com/oshokin/spin-pluginify/internal/logger"
)

// Request describes one artifact to package for one platform.
type Request struct {
	// ArtifactPath is the built artifact.
	ArtifactPath string
	// OS is the target operating system.
	OS plugin.OS
	// Arch is the target architecture.
	Arch plugin.Arch
	// Name and Version name the archive.
	Name    string
	Version string
	// OutputDir receives the archive; empty means the working directory.
	OutputDir string
}

// Package archives the artifact and returns the manifest entry describing it.
// The URL of the entry is a file:// reference to the local archive.
func Package(ctx context.Context, req *Request) (*plugin.Package, error) {
	artifact, err := ResolveArtifact(req.ArtifactPath, req.OS)
	if err != nil {
		return nil, err
	}

	logger.DebugKV(ctx, "Resolved artifact", "path", artifact)

	outputDir := req.OutputDir
	if outputDir == "" {
		outputDir = "."
	}

	archivePath, err := filepath.Abs(filepath.Join(outputDir, ArchiveFilename(req.Name, req.Version, req.OS, req.Arch)))
	if err != nil {
		return nil, fmt.Errorf("%w: resolve archive path: %w", ErrArchive, err)
	}

	logger.DebugKV(ctx, "Creating archive", "path", archivePath, "entry", filepath.Base(artifact))

	if err = writeArchive(archivePath, artifact); err != nil {
		return nil, err
	}

	digest, err := FileDigest(archivePath)
	if err != nil {
		return nil, err
	}

	archiveURL := FileURL(archivePath)

	logger.InfoKV(ctx, "Archive created", "url", archiveURL, "sha256", digest)

	return &plugin.Package{
		OS:     req.OS,
		Arch:   req.Arch,
		URL:    archiveURL,
		SHA256: digest,
	}, nil
}

// FileURL converts an absolute path into a file:// URL.
func FileURL(path string) string {
	slashed := filepath.ToSlash(path)
	if !strings.HasPrefix(slashed, "/") {
		// Windows drive paths become file:///C:/...
		slashed = "/" + slashed
	}

	return (&url.URL{Scheme: "file", Path: slashed}).String()
}

// workingDir returns dir or the process working directory when dir is empty.
func workingDir(dir string) (string, error) {
	if dir != "" {
		return dir, nil
	}

	return os.Getwd()
}
