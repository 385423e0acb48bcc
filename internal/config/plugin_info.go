package config

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/isseis/go-3gxtool/internal/threegx"
)

const maxVersionComponent = 0xFF

// Version is the plugin version as written in the information file.
type Version struct {
	Major    int `toml:"major" yaml:"Major"`
	Minor    int `toml:"minor" yaml:"Minor"`
	Revision int `toml:"revision" yaml:"Revision"`
}

// PluginInfo is the content of a plugin information file. TOML files use
// snake_case keys; YAML files use the capitalized keys of the classic
// plgInfo format.
type PluginInfo struct {
	Author            string   `toml:"author" yaml:"Author"`
	Title             string   `toml:"title" yaml:"Title"`
	Summary           string   `toml:"summary" yaml:"Summary"`
	Description       string   `toml:"description" yaml:"Description"`
	Version           Version  `toml:"version" yaml:"Version"`
	Targets           []string `toml:"targets" yaml:"Targets"`
	Compatibility     string   `toml:"compatibility" yaml:"Compatibility"`
	MemoryRegionSize  string   `toml:"memory_region_size" yaml:"MemoryRegionSize"`
	EventsSelfManaged bool     `toml:"events_self_managed" yaml:"EventsSelfManaged"`
	SwapNotNeeded     bool     `toml:"swap_not_needed" yaml:"SwapNotNeeded"`
}

var compatibilities = map[string]threegx.Compatibility{
	"console": threegx.CompatConsole,
	"citra":   threegx.CompatCitra,
	"both":    threegx.CompatBoth,
}

var memoryRegions = map[string]threegx.MemoryRegion{
	"default": threegx.MemoryRegionDefault,
	"2mb":     threegx.MemoryRegion2MB,
	"5mb":     threegx.MemoryRegion5MB,
	"10mb":    threegx.MemoryRegion10MB,
}

// Validate checks every field that Info and ContainerVersion depend on.
func (p *PluginInfo) Validate() error {
	if strings.TrimSpace(p.Title) == "" {
		return ErrMissingTitle
	}
	components := []struct {
		name  string
		value int
	}{
		{"major", p.Version.Major},
		{"minor", p.Version.Minor},
		{"revision", p.Version.Revision},
	}
	for _, c := range components {
		if c.value < 0 || c.value > maxVersionComponent {
			return fmt.Errorf("%w: %s component %d is outside 0-%d", ErrInvalidVersion, c.name, c.value, maxVersionComponent)
		}
	}
	if _, err := p.titleIDs(); err != nil {
		return err
	}
	if _, ok := compatibilities[strings.ToLower(p.Compatibility)]; !ok {
		return fmt.Errorf("%w: %q (expected console, citra or both)", ErrInvalidCompatibility, p.Compatibility)
	}
	if _, ok := memoryRegions[strings.ToLower(p.MemoryRegionSize)]; !ok {
		return fmt.Errorf("%w: %q (expected default, 2MB, 5MB or 10MB)", ErrInvalidMemoryRegion, p.MemoryRegionSize)
	}
	return nil
}

// ContainerVersion returns the version in header form. p must be valid.
func (p *PluginInfo) ContainerVersion() threegx.Version {
	return threegx.Version{
		Major:    uint8(p.Version.Major),
		Minor:    uint8(p.Version.Minor),
		Revision: uint8(p.Version.Revision),
	}
}

// Info converts the plugin information to its container form.
func (p *PluginInfo) Info() (threegx.Info, error) {
	if err := p.Validate(); err != nil {
		return threegx.Info{}, err
	}
	targets, _ := p.titleIDs()

	var flags threegx.InfoFlags
	if p.EventsSelfManaged {
		flags |= threegx.FlagEventsSelfManaged
	}
	if p.SwapNotNeeded {
		flags |= threegx.FlagSwapNotNeeded
	}
	flags = flags.
		WithCompatibility(compatibilities[strings.ToLower(p.Compatibility)]).
		WithMemoryRegion(memoryRegions[strings.ToLower(p.MemoryRegionSize)])

	return threegx.Info{
		Author:      p.Author,
		Title:       p.Title,
		Summary:     p.Summary,
		Description: p.Description,
		Flags:       flags,
		Targets:     targets,
	}, nil
}

// titleIDs parses the target list. Full 64-bit title IDs are accepted and
// reduced to their low 32 bits, which is what the loader compares.
func (p *PluginInfo) titleIDs() ([]uint32, error) {
	ids := make([]uint32, 0, len(p.Targets))
	for i, t := range p.Targets {
		id, err := ParseTitleID(t)
		if err != nil {
			return nil, fmt.Errorf("targets[%d]: %w", i, err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// ParseTitleID parses a hexadecimal title ID with an optional 0x prefix and
// returns its low 32 bits.
func ParseTitleID(s string) (uint32, error) {
	digits := strings.TrimSpace(s)
	digits = strings.TrimPrefix(strings.TrimPrefix(digits, "0x"), "0X")
	if digits == "" {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTarget, s)
	}
	v, err := strconv.ParseUint(digits, 16, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTarget, s)
	}
	return uint32(v), nil
}
