package merger

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/oshokin/spin-pluginify/internal/domain/plugin"
	"github.com/oshokin/spin-pluginify/internal/logger"
)

// Options contains inputs for the merge entry point.
type Options struct {
	// ReleaseURLBase is where the archives will be published, e.g.
	// https://github.com/org/repo/releases/download/v1.0.0/
	ReleaseURLBase string
	// Dir is scanned for merge sets; empty means the working directory.
	Dir string
	// Output receives the merged manifest; nil means os.Stdout.
	Output io.Writer
}

// Run discovers, merges and prints the merged manifest.
func Run(ctx context.Context, opts *Options) error {
	ctx = logger.WithName(ctx, "merger")

	base, err := ParseReleaseBase(opts.ReleaseURLBase)
	if err != nil {
		return err
	}

	dir := opts.Dir
	if dir == "" {
		dir = "."
	}

	sets, err := Discover(ctx, dir)
	if err != nil {
		return err
	}

	merged, err := Merge(ctx, base, sets)
	if err != nil {
		return err
	}

	data, err := plugin.Marshal(merged)
	if err != nil {
		return err
	}

	output := opts.Output
	if output == nil {
		output = os.Stdout
	}

	if _, err = output.Write(data); err != nil {
		return fmt.Errorf("write merged manifest: %w", err)
	}

	logger.InfoKV(ctx, "Merged manifests", "packages", len(merged.Packages))

	return nil
}
