// Package versions exposes the embedded release manifest: which server
// build to install per platform and which models are available for
// download.
package versions

import (
	_ "embed"
	"errors"
	"fmt"
	"runtime"
	"sort"

	"gopkg.in/yaml.v3"
)

//go:embed versions.yaml
var manifestData []byte

var ErrUnsupportedPlatform = errors.New("unsupported platform")

const sha256HexLen = 64

// Build is one platform-specific server release artifact.
type Build struct {
	URL    string `yaml:"url"`
	SHA256 string `yaml:"sha256"`
}

// ServerRelease pins the server version and its per-platform builds.
type ServerRelease struct {
	Version   string           `yaml:"version"`
	Platforms map[string]Build `yaml:"platforms"`
}

// Model is one downloadable model entry in the catalog.
type Model struct {
	Version  string `yaml:"version"`
	Filename string `yaml:"filename"`
	URL      string `yaml:"url"`
	SHA256   string `yaml:"sha256"`
}

// Manifest is the parsed release manifest.
type Manifest struct {
	AppVersion string           `yaml:"app_version"`
	LlamaCpp   ServerRelease    `yaml:"llama_cpp"`
	Models     map[string]Model `yaml:"models"`
}

// Load parses the embedded manifest.
func Load() (*Manifest, error) {
	return parse(manifestData)
}

func parse(data []byte) (*Manifest, error) {
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse versions manifest: %w", err)
	}
	for key, build := range m.LlamaCpp.Platforms {
		if err := validDigest(build.SHA256); err != nil {
			return nil, fmt.Errorf("server build %s: %w", key, err)
		}
	}
	for name, model := range m.Models {
		if err := validDigest(model.SHA256); err != nil {
			return nil, fmt.Errorf("model %s: %w", name, err)
		}
	}
	return &m, nil
}

// validDigest rejects entries that would silently bypass the checksum gate
// after download.
func validDigest(digest string) error {
	if len(digest) != sha256HexLen {
		return fmt.Errorf("sha256 must be %d hex characters, got %q", sha256HexLen, digest)
	}
	for _, c := range digest {
		switch {
		case c >= '0' && c <= '9', c >= 'a' && c <= 'f', c >= 'A' && c <= 'F':
		default:
			return fmt.Errorf("sha256 contains non-hex character %q", c)
		}
	}
	return nil
}

// PlatformKey returns the manifest key for the running platform.
func PlatformKey() (string, error) {
	return platformKey(runtime.GOOS, runtime.GOARCH)
}

func platformKey(goos, goarch string) (string, error) {
	switch {
	case goos == "darwin" && goarch == "arm64":
		return "macos-arm64", nil
	case goos == "darwin" && goarch == "amd64":
		return "macos-x64", nil
	case goos == "linux" && goarch == "amd64":
		return "linux-x64", nil
	case goos == "windows" && goarch == "amd64":
		return "windows-x64", nil
	}
	return "", fmt.Errorf("%w: %s/%s", ErrUnsupportedPlatform, goos, goarch)
}

// ServerBuild returns the server build for the running platform.
func (m *Manifest) ServerBuild() (*Build, error) {
	key, err := PlatformKey()
	if err != nil {
		return nil, err
	}
	build, ok := m.LlamaCpp.Platforms[key]
	if !ok {
		return nil, fmt.Errorf("%w: no server build for %s", ErrUnsupportedPlatform, key)
	}
	return &build, nil
}

// Model looks up a catalog entry by name.
func (m *Manifest) Model(name string) (*Model, error) {
	model, ok := m.Models[name]
	if !ok {
		return nil, fmt.Errorf("unknown model: %s", name)
	}
	return &model, nil
}

// ModelNames returns the catalog's model names in sorted order.
func (m *Manifest) ModelNames() []string {
	names := make([]string, 0, len(m.Models))
	for name := range m.Models {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
