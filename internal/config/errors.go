package config

import "errors"

// Plugin information errors
var (
	// ErrUnsupportedFormat is returned when the file extension is neither TOML nor YAML
	ErrUnsupportedFormat = errors.New("unsupported plugin information format")

	// ErrMissingTitle is returned when the plugin has no title
	ErrMissingTitle = errors.New("plugin title is required")

	// ErrInvalidVersion is returned when a version component is outside 0-255
	ErrInvalidVersion = errors.New("invalid plugin version")

	// ErrInvalidTarget is returned when a target title ID is not a hex number
	ErrInvalidTarget = errors.New("invalid target title ID")

	// ErrInvalidCompatibility is returned for an unknown compatibility value
	ErrInvalidCompatibility = errors.New("invalid compatibility")

	// ErrInvalidMemoryRegion is returned for an unknown memory region size
	ErrInvalidMemoryRegion = errors.New("invalid memory region size")
)
