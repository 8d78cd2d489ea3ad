package manifest

import (
	"bytes"
	"context"
	"crypto"
	"crypto/sha256"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	goupdate "github.com/doitdistributed/go-update"
	"github.com/xeipuuv/gojsonschema"

	"github.com/oshokin/spin-pluginify/internal/config"
	"github.com/oshokin/spin-pluginify/internal/domain/plugin"
)

var (
	// ErrNotFound is returned when the manifest file does not exist.
	ErrNotFound = errors.New("manifest not found")
	// ErrInvalid is returned when a manifest violates the schema.
	ErrInvalid = errors.New("invalid manifest")

	//go:embed schema.json
	schemaJSON []byte

	//nolint:gochecknoglobals // Compiled once, read-only afterwards.
	schema = mustCompileSchema(schemaJSON)
)

// Repository defines persistence operations for a manifest.
type Repository interface {
	Load(ctx context.Context) (*plugin.Manifest, error)
	Save(ctx context.Context, m *plugin.Manifest) error
}

// FileRepository stores one manifest as JSON on disk.
type FileRepository struct {
	// path is the filesystem location of the manifest.
	path string
}

// NewFileRepository creates a repository that reads/writes JSON at the provided path.
func NewFileRepository(path string) *FileRepository {
	return &FileRepository{
		path: filepath.Clean(path),
	}
}

// Load reads, validates and decodes the manifest.
func (r *FileRepository) Load(_ context.Context) (*plugin.Manifest, error) {
	contents, err := os.ReadFile(r.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%s: %w", r.path, ErrNotFound)
		}

		return nil, fmt.Errorf("read manifest: %w", err)
	}

	if err = Validate(contents); err != nil {
		return nil, fmt.Errorf("%s: %w", r.path, err)
	}

	m, err := plugin.Unmarshal(contents)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", r.path, err)
	}

	return m, nil
}

// Save validates the manifest and atomically replaces the file with its JSON form.
func (r *FileRepository) Save(_ context.Context, m *plugin.Manifest) error {
	data, err := plugin.Marshal(m)
	if err != nil {
		return err
	}

	if err = Validate(data); err != nil {
		return err
	}

	// The updater swaps an existing file, so make sure there is one.
	if _, err = os.Stat(r.path); errors.Is(err, os.ErrNotExist) {
		if err = os.WriteFile(r.path, nil, config.DefaultFilePermissions); err != nil {
			return fmt.Errorf("create manifest file: %w", err)
		}
	}

	checksum := sha256.Sum256(data)

	options := goupdate.Options{
		TargetPath: r.path,
		TargetMode: config.DefaultFilePermissions,
		Checksum:   checksum[:],
		Hash:       crypto.SHA256,
	}

	if err = goupdate.Apply(bytes.NewReader(data), options); err != nil {
		return fmt.Errorf("write manifest file: %w", err)
	}

	return nil
}

// Validate checks raw manifest JSON against the Spin plugin manifest schema.
func Validate(data []byte) error {
	result, err := schema.Validate(gojsonschema.NewBytesLoader(data))
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}

	if result.Valid() {
		return nil
	}

	problems := make([]string, 0, len(result.Errors()))
	for _, desc := range result.Errors() {
		problems = append(problems, desc.String())
	}

	return fmt.Errorf("%w: %s", ErrInvalid, strings.Join(problems, "; "))
}

func mustCompileSchema(raw []byte) *gojsonschema.Schema {
	compiled, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(raw))
	if err != nil {
		panic(fmt.Sprintf("compile manifest schema: %v", err))
	}

	return compiled
}
