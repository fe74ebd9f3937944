package vm

import "fmt"

// PageTableStart is the first word of the reserved page table region.
const PageTableStart = 0

// Config holds the geometry of the simulated memory. All sizes are in words.
type Config struct {
	PageSize                uint64 `yaml:"page_size" json:"page_size"`
	PhysicalMemorySize      uint64 `yaml:"physical_memory_size" json:"physical_memory_size"`
	VirtualAddressSpaceSize uint64 `yaml:"virtual_address_space_size" json:"virtual_address_space_size"`
	ReservedPageTableFrames uint64 `yaml:"reserved_page_table_frames" json:"reserved_page_table_frames"`
}

// DefaultConfig returns 256-word pages, 4096 words of physical memory, a
// 4096-word virtual address space and 8 frames reserved for page tables.
func DefaultConfig() Config {
	return Config{
		PageSize:                256,
		PhysicalMemorySize:      4096,
		VirtualAddressSpaceSize: 4096,
		ReservedPageTableFrames: 8,
	}
}

// Validate checks that the four sizes are consistent with each other.
func (c Config) Validate() error {
	switch {
	case c.PageSize == 0:
		return fmt.Errorf("%w: page size is zero", ErrInvalidConfig)
	case c.PhysicalMemorySize == 0:
		return fmt.Errorf("%w: physical memory size is zero", ErrInvalidConfig)
	case c.VirtualAddressSpaceSize == 0:
		return fmt.Errorf("%w: virtual address space size is zero",
			ErrInvalidConfig)
	case c.PhysicalMemorySize%c.PageSize != 0:
		return fmt.Errorf(
			"%w: page size %d does not divide physical memory size %d",
			ErrInvalidConfig, c.PageSize, c.PhysicalMemorySize)
	case c.VirtualAddressSpaceSize%c.PageSize != 0:
		return fmt.Errorf(
			"%w: page size %d does not divide virtual address space size %d",
			ErrInvalidConfig, c.PageSize, c.VirtualAddressSpaceSize)
	case c.ReservedPageTableFrames >= c.NumFrames():
		return fmt.Errorf(
			"%w: %d reserved frames leave no usable frame out of %d",
			ErrInvalidConfig, c.ReservedPageTableFrames, c.NumFrames())
	case c.MaxPID() == 0:
		return fmt.Errorf(
			"%w: %d reserved frames cannot hold a page table of %d entries",
			ErrInvalidConfig, c.ReservedPageTableFrames, c.PageTableSize())
	}

	return nil
}

// NumFrames returns the number of frames in the physical memory, including
// the reserved ones.
func (c Config) NumFrames() uint64 {
	return c.PhysicalMemorySize / c.PageSize
}

// UsableFrames returns the number of frames that can hold process data.
func (c Config) UsableFrames() uint64 {
	return c.NumFrames() - c.ReservedPageTableFrames
}

// PageTableSize returns the number of entries in the page table of a process.
func (c Config) PageTableSize() uint64 {
	return c.VirtualAddressSpaceSize / c.PageSize
}

// ReservedWords returns the size of the page table region.
func (c Config) ReservedWords() uint64 {
	return c.ReservedPageTableFrames * c.PageSize
}

// PageTableBase returns the address of the first entry of the page table of
// a process.
func (c Config) PageTableBase(pid PID) uint64 {
	return PageTableStart + uint64(pid)*c.PageTableSize()
}

// PageTableFits tells if the page table of a process lies entirely within the
// reserved region.
func (c Config) PageTableFits(pid PID) bool {
	return c.PageTableBase(pid)+c.PageTableSize() <=
		PageTableStart+c.ReservedWords()
}

// MaxPID returns the largest PID whose page table fits in the reserved
// region.
func (c Config) MaxPID() PID {
	size := c.PageTableSize()
	if size == 0 {
		return 0
	}

	slices := c.ReservedWords() / size
	if slices == 0 {
		return 0
	}

	return PID(slices - 1)
}

// Split returns the page number and the in-page offset of a virtual address.
func (c Config) Split(vAddr uint64) (VPN, uint64) {
	return VPN(vAddr / c.PageSize), vAddr % c.PageSize
}

// PhysicalAddress returns the address of the offset-th word of a frame.
func (c Config) PhysicalAddress(frame Frame, offset uint64) uint64 {
	return uint64(frame)*c.PageSize + offset
}
