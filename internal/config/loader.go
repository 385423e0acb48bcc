// Package config loads the plugin information file that describes a 3GX
// plugin: its author, title, version, compatible titles and loader flags.
// TOML and YAML files are supported and selected by extension.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/isseis/go-3gxtool/internal/safefileio"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Format identifies the syntax of a plugin information file.
type Format int

// Supported formats
const (
	FormatTOML Format = iota
	FormatYAML
)

func (f Format) String() string {
	if f == FormatYAML {
		return "yaml"
	}
	return "toml"
}

// FormatForPath chooses the format from the file extension.
func FormatForPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		return FormatTOML, nil
	case ".yml", ".yaml":
		return FormatYAML, nil
	}
	return 0, fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
}

// Loader handles loading and validating plugin information files
type Loader struct {
	readFile func(string) ([]byte, error)
}

// NewLoader creates a loader that reads files with safefileio.SafeReadFile
func NewLoader() *Loader {
	return NewLoaderWithReader(safefileio.SafeReadFile)
}

// NewLoaderWithReader creates a loader with a custom file reader
func NewLoaderWithReader(readFile func(string) ([]byte, error)) *Loader {
	return &Loader{readFile: readFile}
}

// LoadFile reads, parses, defaults and validates the file at path.
func (l *Loader) LoadFile(path string) (*PluginInfo, error) {
	format, err := FormatForPath(path)
	if err != nil {
		return nil, err
	}
	content, err := l.readFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read plugin information: %w", err)
	}
	info, err := Parse(format, content)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return info, nil
}

// Parse decodes content, applies defaults and validates the result.
// Unknown keys are rejected so that typos do not silently drop settings.
func Parse(format Format, content []byte) (*PluginInfo, error) {
	var info PluginInfo
	switch format {
	case FormatYAML:
		dec := yaml.NewDecoder(bytes.NewReader(content))
		dec.KnownFields(true)
		// An empty document decodes to io.EOF; validation reports what is missing.
		if err := dec.Decode(&info); err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("failed to parse plugin information: %w", err)
		}
	default:
		dec := toml.NewDecoder(bytes.NewReader(content))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&info); err != nil {
			return nil, fmt.Errorf("failed to parse plugin information: %w", err)
		}
	}

	ApplyDefaults(&info)
	if err := info.Validate(); err != nil {
		return nil, err
	}
	return &info, nil
}
