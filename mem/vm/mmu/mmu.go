// Package mmu provides the memory manager of the simulator. It translates
// virtual addresses, signals page faults, allocates frames and evicts the least
// recently used frame to the swap store when memory runs out.
package mmu

import (
	"fmt"
	"strings"
	"sync"

	"github.com/sarchlab/vmsim/mem/storage"
	"github.com/sarchlab/vmsim/mem/vm"
	"github.com/sarchlab/vmsim/mem/vm/frametable"
	"github.com/sarchlab/vmsim/mem/vm/swap"
	"github.com/sarchlab/vmsim/sim"
)

// SwapPolicy decides what happens to the swapped pages of a process when the
// process terminates.
type SwapPolicy int

// Supported swap policies.
const (
	// SwapPolicyPurge deletes the swapped pages of a terminated process.
	SwapPolicyPurge SwapPolicy = iota

	// SwapPolicyRetain keeps them until ReapSwap is called.
	SwapPolicyRetain
)

var swapPolicyNames = map[SwapPolicy]string{
	SwapPolicyPurge:  "purge",
	SwapPolicyRetain: "retain",
}

func (p SwapPolicy) String() string {
	name, ok := swapPolicyNames[p]
	if !ok {
		return fmt.Sprintf("SwapPolicy(%d)", int(p))
	}

	return name
}

// ParseSwapPolicy converts a policy name into a SwapPolicy.
func ParseSwapPolicy(name string) (SwapPolicy, error) {
	for p, n := range swapPolicyNames {
		if strings.EqualFold(n, name) {
			return p, nil
		}
	}

	return SwapPolicyPurge, fmt.Errorf("unknown swap policy %q", name)
}

// Comp is the memory manager. All its methods are safe for concurrent use;
// they are serialized by a single lock.
type Comp struct {
	*sim.HookableBase

	name   string
	lock   sync.Mutex
	config vm.Config

	storage      *storage.Storage
	pageTable    vm.PageTable
	frames       *frametable.Table
	victimFinder frametable.VictimFinder
	swap         *swap.Store
	swapPolicy   SwapPolicy

	processes map[vm.PID]*vm.Process
	stats     Stats
}

// Name returns the name of the memory manager.
func (c *Comp) Name() string {
	return c.name
}

// Config returns the memory geometry.
func (c *Comp) Config() vm.Config {
	return c.config
}

// SwapPolicy returns the policy applied when processes terminate.
func (c *Comp) SwapPolicy() SwapPolicy {
	return c.swapPolicy
}

// Translate returns the physical address of a virtual address. The bool
// return value is false if the page has no valid entry or if the entry points
// at a frame the process does not own. Translate does not count as an access.
func (c *Comp) Translate(p *vm.Process, vAddr uint64) (uint64, bool) {
	c.lock.Lock()
	defer c.lock.Unlock()

	pAddr, _, ok := c.translate(p, vAddr)

	return pAddr, ok
}

func (c *Comp) translate(
	p *vm.Process,
	vAddr uint64,
) (pAddr uint64, entry vm.PageTableEntry, ok bool) {
	if vAddr >= c.config.VirtualAddressSpaceSize {
		return 0, entry, false
	}

	vpn, offset := c.config.Split(vAddr)

	entry, found := c.pageTable.Find(p.PID, vpn)
	if !found || !entry.Valid {
		return 0, entry, false
	}

	if !c.frames.Contains(entry.Frame) ||
		c.frames.Owner(entry.Frame) != p.PID {
		return 0, entry, false
	}

	return c.config.PhysicalAddress(entry.Frame, offset), entry, true
}

// Read returns the word at a virtual address as a vm.Hit. If the page is not
// resident, the process is blocked and a vm.Fault is returned; the read must
// be reissued after the fault is resolved.
func (c *Comp) Read(
	p *vm.Process,
	vAddr uint64,
	tick vm.Tick,
) (vm.Outcome, error) {
	c.lock.Lock()
	defer c.lock.Unlock()

	if err := c.prepareAccess(p, vAddr); err != nil {
		return nil, err
	}

	pAddr, entry, ok := c.translate(p, vAddr)
	if !ok {
		return c.fault(p, vAddr, tick, false), nil
	}

	value, err := c.storage.Read(pAddr)
	if err != nil {
		return nil, err
	}

	c.frames.Touch(entry.Frame, tick)
	c.stats.Reads++

	return vm.Hit{Value: value}, nil
}

// Write stores a word at a virtual address and marks the page dirty. If the
// page is not resident, the process is blocked and a vm.Fault is returned;
// nothing is written.
func (c *Comp) Write(
	p *vm.Process,
	vAddr uint64,
	value storage.Word,
	tick vm.Tick,
) (vm.Outcome, error) {
	c.lock.Lock()
	defer c.lock.Unlock()

	if err := c.prepareAccess(p, vAddr); err != nil {
		return nil, err
	}

	pAddr, entry, ok := c.translate(p, vAddr)
	if !ok {
		return c.fault(p, vAddr, tick, true), nil
	}

	if err := c.storage.Write(pAddr, value); err != nil {
		return nil, err
	}

	vpn, _ := c.config.Split(vAddr)
	entry.Dirty = true
	c.pageTable.Update(p.PID, vpn, entry)
	c.frames.Touch(entry.Frame, tick)
	c.stats.Writes++

	return vm.Hit{}, nil
}

func (c *Comp) prepareAccess(p *vm.Process, vAddr uint64) error {
	if vAddr >= c.config.VirtualAddressSpaceSize {
		return fmt.Errorf("%w: address %d of %s, space size is %d",
			vm.ErrAddressOutOfRange, vAddr, p.PID,
			c.config.VirtualAddressSpaceSize)
	}

	return c.attach(p)
}

// attach registers a process on its first access and assigns its page table
// base. Swapped pages left behind by an earlier process with the same PID are
// purged.
func (c *Comp) attach(p *vm.Process) error {
	if p.IsTerminated() {
		return fmt.Errorf("%w: %s", vm.ErrProcessTerminated, p.PID)
	}

	if registered, found := c.processes[p.PID]; found {
		if registered != p {
			return fmt.Errorf("%w: %s", vm.ErrDuplicatePID, p.PID)
		}

		return nil
	}

	if p.PID == 0 || !c.config.PageTableFits(p.PID) {
		return fmt.Errorf("%w: %s, largest PID is %d",
			vm.ErrPageTableRegionFull, p.PID, uint32(c.config.MaxPID()))
	}

	if _, assigned := p.PageTableBase(); !assigned {
		p.SetPageTableBase(c.config.PageTableBase(p.PID))
	}

	// Pages retained from a terminated process with the same PID must never
	// reach the new one.
	c.stats.SwapPurged += uint64(c.swap.Purge(p.PID))

	c.processes[p.PID] = p

	return nil
}

func (c *Comp) fault(
	p *vm.Process,
	vAddr uint64,
	tick vm.Tick,
	isWrite bool,
) vm.Fault {
	vpn, _ := c.config.Split(vAddr)

	p.Block(vAddr)
	c.stats.Faults++

	c.InvokeHook(sim.HookCtx{
		Domain: c,
		Pos:    HookPosPageFault,
		Item: PageFaultEvent{
			PID:     p.PID,
			Address: vAddr,
			VPN:     vpn,
			IsWrite: isWrite,
			Tick:    tick,
		},
	})

	return vm.Fault{Address: vAddr, VPN: vpn}
}
