package merger

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/oshokin/spin-pluginify/internal/logger"
)

const (
	// archiveExtension identifies the archive of a merge set.
	archiveExtension = ".gz"
	// manifestExtension identifies the manifest of a merge set.
	manifestExtension = ".json"
	// mergeSetFileCount is the exact number of regular files in a merge set.
	mergeSetFileCount = 2
)

// MergeSet is a directory holding one platform's manifest and archive.
type MergeSet struct {
	// Dir is the subdirectory the pair was found in.
	Dir string
	// Manifest is the path of the single-platform manifest.
	Manifest string
	// Archive is the path of the archive the manifest refers to.
	Archive string
}

// Discover returns the merge sets among the immediate subdirectories of root,
// in directory listing order. Subdirectories of any other shape are skipped.
func Discover(ctx context.Context, root string) ([]MergeSet, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", root, err)
	}

	sets := make([]MergeSet, 0, len(entries))

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		dir := filepath.Join(root, entry.Name())

		set, ok := asMergeSet(dir)
		if !ok {
			logger.DebugKV(ctx, "Skipping directory", "dir", dir)
			continue
		}

		logger.DebugKV(ctx, "Found merge set", "dir", dir, "manifest", set.Manifest, "archive", set.Archive)

		sets = append(sets, set)
	}

	return sets, nil
}

// asMergeSet checks that dir holds exactly two regular files:
// one archive and one manifest. Unreadable directories do not qualify.
func asMergeSet(dir string) (MergeSet, bool) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return MergeSet{}, false
	}

	files := make([]string, 0, mergeSetFileCount)

	for _, entry := range entries {
		if entry.Type().IsRegular() {
			files = append(files, filepath.Join(dir, entry.Name()))
		}
	}

	if len(files) != mergeSetFileCount {
		return MergeSet{}, false
	}

	set := MergeSet{Dir: dir}

	for _, file := range files {
		switch filepath.Ext(file) {
		case archiveExtension:
			set.Archive = file
		case manifestExtension:
			set.Manifest = file
		}
	}

	if set.Archive == "" || set.Manifest == "" {
		return MergeSet{}, false
	}

	return set, true
}
