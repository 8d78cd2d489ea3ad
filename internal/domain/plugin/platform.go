package plugin

import (
	"errors"
	"fmt"
	"runtime"
)

// ErrUnknownPlatform is returned when an OS or architecture name is not in the alias table.
var ErrUnknownPlatform = errors.New("unknown platform")

// OS is a canonical operating system tag.
type OS uint8

// Supported operating systems.
const (
	OSUnknown OS = iota
	OSLinux
	OSMacos
	OSWindows
)

// Arch is a canonical CPU architecture tag.
type Arch uint8

// Supported architectures.
const (
	ArchUnknown Arch = iota
	ArchAmd64
	ArchAarch64
	ArchArm
)

var (
	// osAliases maps every accepted OS spelling to its tag.
	//nolint:gochecknoglobals // Read-only lookup table.
	osAliases = map[string]OS{
		"linux":   OSLinux,
		"macos":   OSMacos,
		"osx":     OSMacos,
		"windows": OSWindows,
		"win32":   OSWindows,
	}

	// archAliases maps every accepted architecture spelling to its tag.
	//nolint:gochecknoglobals // Read-only lookup table.
	archAliases = map[string]Arch{
		"amd64":   ArchAmd64,
		"x86_64":  ArchAmd64,
		"aarch64": ArchAarch64,
		"arm":     ArchArm,
		"arm64":   ArchArm,
	}

	// goosNames translates runtime.GOOS values that differ from the alias table vocabulary.
	//nolint:gochecknoglobals // Read-only lookup table.
	goosNames = map[string]string{
		"darwin": "macos",
	}

	// goarchNames translates runtime.GOARCH values that differ from the alias table vocabulary.
	//nolint:gochecknoglobals // Read-only lookup table.
	goarchNames = map[string]string{
		"arm64": "aarch64",
	}
)

// ParseOS normalizes an OS name. Matching is exact and case-sensitive.
func ParseOS(s string) (OS, error) {
	if tag, ok := osAliases[s]; ok {
		return tag, nil
	}

	return OSUnknown, fmt.Errorf("%w: unknown OS %q", ErrUnknownPlatform, s)
}

// ParseArch normalizes an architecture name. Matching is exact and case-sensitive.
func ParseArch(s string) (Arch, error) {
	if tag, ok := archAliases[s]; ok {
		return tag, nil
	}

	return ArchUnknown, fmt.Errorf("%w: unknown architecture %q", ErrUnknownPlatform, s)
}

// HostPlatformNames returns the OS and architecture of the running process
// in the alias table vocabulary, ready for ParseOS and ParseArch.
func HostPlatformNames() (string, string) {
	return hostPlatformName(runtime.GOOS, runtime.GOARCH)
}

// hostPlatformName translates Go's GOOS/GOARCH spellings into the alias table vocabulary.
func hostPlatformName(goos, goarch string) (string, string) {
	return translate(goosNames, goos), translate(goarchNames, goarch)
}

func translate(names map[string]string, s string) string {
	if name, ok := names[s]; ok {
		return name
	}

	return s
}

// String returns the canonical manifest spelling.
func (o OS) String() string {
	switch o {
	case OSLinux:
		return "linux"
	case OSMacos:
		return "macos"
	case OSWindows:
		return "windows"
	case OSUnknown:
	}

	return "unknown"
}

// MarshalText implements encoding.TextMarshaler.
func (o OS) MarshalText() ([]byte, error) {
	if o == OSUnknown || o > OSWindows {
		return nil, fmt.Errorf("%w: OS tag %d", ErrUnknownPlatform, uint8(o))
	}

	return []byte(o.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
// Only canonical spellings are accepted, aliases are a CLI concern.
func (o *OS) UnmarshalText(text []byte) error {
	for _, tag := range []OS{OSLinux, OSMacos, OSWindows} {
		if tag.String() == string(text) {
			*o = tag
			return nil
		}
	}

	return fmt.Errorf("%w: unknown OS %q", ErrUnknownPlatform, text)
}

// String returns the canonical manifest spelling.
func (a Arch) String() string {
	switch a {
	case ArchAmd64:
		return "amd64"
	case ArchAarch64:
		return "aarch64"
	case ArchArm:
		return "arm"
	case ArchUnknown:
	}

	return "unknown"
}

// MarshalText implements encoding.TextMarshaler.
func (a Arch) MarshalText() ([]byte, error) {
	if a == ArchUnknown || a > ArchArm {
		return nil, fmt.Errorf("%w: architecture tag %d", ErrUnknownPlatform, uint8(a))
	}

	return []byte(a.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (a *Arch) UnmarshalText(text []byte) error {
	for _, tag := range []Arch{ArchAmd64, ArchAarch64, ArchArm} {
		if tag.String() == string(text) {
			*a = tag
			return nil
		}
	}

	return fmt.Errorf("%w: unknown architecture %q", ErrUnknownPlatform, text)
}
