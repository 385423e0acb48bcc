package threegx

// InfoFlags is the loader flag word of the Infos block.
type InfoFlags uint32

// Flag bits and fields.
const (
	FlagEmbedExeLoad      InfoFlags = 1 << 0
	FlagEmbedSwapSaveLoad InfoFlags = 1 << 1
	FlagEventsSelfManaged InfoFlags = 1 << 6
	FlagSwapNotNeeded     InfoFlags = 1 << 7

	memoryRegionShift  = 2
	compatibilityShift = 4
	twoBitMask         = 0x3
)

// MemoryRegion selects how much memory the loader reserves for the plugin.
type MemoryRegion uint32

// Memory region sizes.
const (
	MemoryRegionDefault MemoryRegion = iota
	MemoryRegion2MB
	MemoryRegion5MB
	MemoryRegion10MB
)

// Compatibility tells the loader on which systems the plugin may run.
type Compatibility uint32

// Compatibility values.
const (
	CompatConsole Compatibility = iota
	CompatCitra
	CompatBoth
)

// WithMemoryRegion returns f with the memory region field replaced.
func (f InfoFlags) WithMemoryRegion(m MemoryRegion) InfoFlags {
	f &^= twoBitMask << memoryRegionShift
	return f | InfoFlags(uint32(m)&twoBitMask)<<memoryRegionShift
}

// MemoryRegion extracts the memory region field.
func (f InfoFlags) MemoryRegion() MemoryRegion {
	return MemoryRegion(uint32(f>>memoryRegionShift) & twoBitMask)
}

// WithCompatibility returns f with the compatibility field replaced.
func (f InfoFlags) WithCompatibility(c Compatibility) InfoFlags {
	f &^= twoBitMask << compatibilityShift
	return f | InfoFlags(uint32(c)&twoBitMask)<<compatibilityShift
}

// Compatibility extracts the compatibility field.
func (f InfoFlags) Compatibility() Compatibility {
	return Compatibility(uint32(f>>compatibilityShift) & twoBitMask)
}
