package mmu

import (
	"sort"

	"github.com/sarchlab/vmsim/mem/storage"
	"github.com/sarchlab/vmsim/mem/vm"
	"github.com/sarchlab/vmsim/mem/vm/frametable"
	"github.com/sarchlab/vmsim/mem/vm/swap"
)

// Stats counts what the memory manager has done so far.
type Stats struct {
	Reads      uint64 `json:"reads"`
	Writes     uint64 `json:"writes"`
	Faults     uint64 `json:"faults"`
	Resolved   uint64 `json:"resolved"`
	SwapIns    uint64 `json:"swap_ins"`
	ZeroFills  uint64 `json:"zero_fills"`
	Evictions  uint64 `json:"evictions"`
	Teardowns  uint64 `json:"teardowns"`
	Terminated uint64 `json:"terminated"`
	SwapPurged uint64 `json:"swap_purged"`

	FreeFrames    int        `json:"free_frames"`
	LiveProcesses int        `json:"live_processes"`
	Swap          swap.Stats `json:"swap"`
}

// Stats returns the counters together with the current occupancy.
func (c *Comp) Stats() Stats {
	c.lock.Lock()
	defer c.lock.Unlock()

	st := c.stats
	st.FreeFrames = c.frames.NumFree()
	st.LiveProcesses = len(c.processes)
	st.Swap = c.swap.Stats()

	return st
}

// MemoryUsage returns the fraction of the physical memory that holds
// something: data words that have been written plus page table entries,
// which live in the reserved region.
func (c *Comp) MemoryUsage() float64 {
	c.lock.Lock()
	defer c.lock.Unlock()

	used := c.storage.Occupied() + uint64(c.pageTable.NumEntries())

	return float64(used) / float64(c.config.PhysicalMemorySize)
}

// FrameOwnership returns a copy of the frame ownership table.
func (c *Comp) FrameOwnership() []frametable.Ownership {
	c.lock.Lock()
	defer c.lock.Unlock()

	return c.frames.Snapshot()
}

// SwappedPages returns copies of the swapped pages in the order they were
// evicted.
func (c *Comp) SwappedPages() ([]swap.SwappedPage, error) {
	c.lock.Lock()
	defer c.lock.Unlock()

	return c.swap.Records()
}

// Processes returns copies of the live processes ordered by PID.
func (c *Comp) Processes() []vm.Process {
	c.lock.Lock()
	defer c.lock.Unlock()

	res := make([]vm.Process, 0, len(c.processes))
	for _, p := range c.processes {
		res = append(res, *p)
	}

	sort.Slice(res, func(i, j int) bool {
		return res[i].PID < res[j].PID
	})

	return res
}

// Process returns a copy of a live process.
func (c *Comp) Process(pid vm.PID) (vm.Process, bool) {
	c.lock.Lock()
	defer c.lock.Unlock()

	p, found := c.processes[pid]
	if !found {
		return vm.Process{}, false
	}

	return *p, true
}

// PageTableEntries lists the page table entries of a process.
func (c *Comp) PageTableEntries(pid vm.PID) []vm.MappedEntry {
	c.lock.Lock()
	defer c.lock.Unlock()

	return c.pageTable.Entries(pid)
}

// FrameContent returns a copy of the words of a frame.
func (c *Comp) FrameContent(frame vm.Frame) ([]storage.Word, error) {
	c.lock.Lock()
	defer c.lock.Unlock()

	return c.storage.ReadUnit(uint64(frame))
}
