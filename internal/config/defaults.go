package config

// Default values for plugin information fields
const (
	DefaultCompatibility    = "both"
	DefaultMemoryRegionSize = "default"
)

// ApplyDefaults fills in fields left empty by the plugin information file.
func ApplyDefaults(p *PluginInfo) {
	if p.Compatibility == "" {
		p.Compatibility = DefaultCompatibility
	}
	if p.MemoryRegionSize == "" {
		p.MemoryRegionSize = DefaultMemoryRegionSize
	}
}
