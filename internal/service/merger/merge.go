package merger

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"path/filepath"

	"github.com/oshokin/spin-pluginify/internal/domain/plugin"
	"github.com/oshokin/spin-pluginify/internal/logger"
	"github.com/oshokin/spin-pluginify/internal/repository/manifest"
)

var (
	// ErrNothingToMerge is returned when no subdirectory is a merge set.
	ErrNothingToMerge = errors.New("nothing to merge")
	// ErrMergeParse is returned when a merge set's manifest cannot be used.
	ErrMergeParse = errors.New("unusable manifest")
	// ErrNoPackage is returned for a manifest without packages.
	ErrNoPackage = fmt.Errorf("%w: there is no package", ErrMergeParse)
	// ErrTooManyPackages is returned for a manifest with more than one package.
	ErrTooManyPackages = fmt.Errorf("%w: expected a single package", ErrMergeParse)
	// ErrURLResolution is returned when the release URL base is missing or cannot be joined.
	ErrURLResolution = errors.New("release url resolution failed")
)

// ParseReleaseBase validates the release URL base. It must be an absolute URL.
func ParseReleaseBase(raw string) (*url.URL, error) {
	if raw == "" {
		return nil, fmt.Errorf("%w: must pass a URL base", ErrURLResolution)
	}

	base, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrURLResolution, err)
	}

	if !base.IsAbs() {
		return nil, fmt.Errorf("%w: %q is not an absolute URL", ErrURLResolution, raw)
	}

	return base, nil
}

// ReleaseURL resolves the archive's file name against base.
// As with any relative reference, a base without a trailing slash loses its last segment.
func ReleaseURL(base *url.URL, archivePath string) (string, error) {
	name := filepath.Base(archivePath)
	if name == "." || name == string(filepath.Separator) {
		return "", fmt.Errorf("%w: can't get archive filename of %q", ErrURLResolution, archivePath)
	}

	return base.ResolveReference(&url.URL{Path: name}).String(), nil
}

// Merge reads every set and folds them into one manifest.
// The first set provides the metadata; every set contributes its package.
func Merge(ctx context.Context, base *url.URL, sets []MergeSet) (*plugin.Manifest, error) {
	if len(sets) == 0 {
		return nil, ErrNothingToMerge
	}

	var merged *plugin.Manifest

	for _, set := range sets {
		setCtx := logger.WithKV(ctx, "dir", set.Dir)

		var repo manifest.Repository = manifest.NewFileRepository(set.Manifest)

		source, err := repo.Load(setCtx)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrMergeParse, err)
		}

		pkg, err := releasePackage(base, source, set.Archive)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", set.Manifest, err)
		}

		logger.InfoKV(setCtx, "Merging package",
			"os", pkg.OS.String(), "arch", pkg.Arch.String(), "url", pkg.URL)

		if merged == nil {
			seed := source.Metadata()
			seed.Packages = []plugin.Package{pkg}
			merged = &seed

			continue
		}

		// Only the first manifest's metadata survives; disagreement is reported, not resolved.
		if !merged.SameMetadata(source) {
			logger.WarnKV(setCtx, "Manifest metadata differs from the first merged manifest",
				"manifest", set.Manifest,
				"name", source.Name, "version", source.Version,
				"expected_name", merged.Name, "expected_version", merged.Version)
		}

		merged.Packages = append(merged.Packages, pkg)
	}

	return merged, nil
}

// releasePackage extracts the sole package of a single-platform manifest
// and points its URL at the release location of the archive.
func releasePackage(base *url.URL, source *plugin.Manifest, archivePath string) (plugin.Package, error) {
	switch len(source.Packages) {
	case 0:
		return plugin.Package{}, ErrNoPackage
	case 1:
	default:
		return plugin.Package{}, fmt.Errorf("%w: found %d", ErrTooManyPackages, len(source.Packages))
	}

	releaseURL, err := ReleaseURL(base, archivePath)
	if err != nil {
		return plugin.Package{}, err
	}

	pkg := source.Packages[0]
	pkg.URL = releaseURL

	return pkg, nil
}
