package frontend

import (
	"errors"
	"fmt"
	"os"
	"strings"

	theme "github.com/goliatone/go-theme"
	"gopkg.in/yaml.v3"
)

type manifestFile struct {
	Name     string                 `yaml:"name"`
	Version  string                 `yaml:"version"`
	Tokens   map[string]string      `yaml:"tokens"`
	Variants map[string]variantFile `yaml:"variants"`
}

type variantFile struct {
	Tokens map[string]string `yaml:"tokens"`
}

// ParseThemeManifest decodes a YAML theme manifest carrying name, version,
// tokens and per-variant tokens.
func ParseThemeManifest(data []byte) (*theme.Manifest, error) {
	var file manifestFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("frontend: decode theme manifest: %w", err)
	}
	if strings.TrimSpace(file.Name) == "" {
		return nil, errors.New("frontend: theme manifest name is required")
	}
	version := file.Version
	if version == "" {
		version = "1.0.0"
	}
	manifest := &theme.Manifest{
		Name:    file.Name,
		Version: version,
		Tokens:  file.Tokens,
	}
	if len(file.Variants) > 0 {
		manifest.Variants = make(map[string]theme.Variant, len(file.Variants))
		for name, variant := range file.Variants {
			manifest.Variants[name] = theme.Variant{Tokens: variant.Tokens}
		}
	}
	return manifest, nil
}

// LoadThemeOverrides reads the manifest at path, registers it with a go-theme
// registry to validate it, and returns the overrides for variant.
func LoadThemeOverrides(path, variant string) (Overrides, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Overrides{}, fmt.Errorf("frontend: read theme manifest: %w", err)
	}
	manifest, err := ParseThemeManifest(data)
	if err != nil {
		return Overrides{}, err
	}
	if err := theme.NewRegistry().Register(manifest); err != nil {
		return Overrides{}, fmt.Errorf("frontend: register theme %q: %w", manifest.Name, err)
	}
	return ManifestOverrides(manifest, variant), nil
}
