package mmu

import (
	"errors"

	"github.com/sarchlab/vmsim/mem/vm"
	"github.com/sarchlab/vmsim/mem/vm/swap"
	"github.com/sarchlab/vmsim/sim"
)

// AllocateFrame gives a frame to a page of a process. A free frame is used if
// there is one; otherwise the victim finder selects a frame whose content is
// moved to the swap store. The frame is stamped with tick.
//
// AllocateFrame does not map the page. ResolveFault does both.
func (c *Comp) AllocateFrame(
	p *vm.Process,
	vpn vm.VPN,
	tick vm.Tick,
) (vm.Frame, error) {
	c.lock.Lock()
	defer c.lock.Unlock()

	if err := c.attach(p); err != nil {
		return 0, err
	}

	return c.allocateFrame(p, vpn, tick)
}

func (c *Comp) allocateFrame(
	p *vm.Process,
	vpn vm.VPN,
	tick vm.Tick,
) (vm.Frame, error) {
	frame, found := c.frames.FindFree()
	if !found {
		victim, err := c.evict(p, tick)
		if err != nil {
			return 0, err
		}

		frame = victim
	}

	c.frames.Assign(frame, p.PID, vpn, tick)

	return frame, nil
}

// evict moves the content of the victim frame to the swap store and unmaps
// it. Nothing is changed if an error is returned.
func (c *Comp) evict(requester *vm.Process, tick vm.Tick) (vm.Frame, error) {
	victim, found := c.victimFinder.FindVictim(c.frames)
	if !found {
		return 0, vm.NewInvariantError("victim selection",
			"no frame can be evicted")
	}

	if !c.frames.Contains(victim) {
		return 0, vm.NewInvariantError("reserved frame",
			"frame %d is not an evictable frame", victim)
	}

	ownership := c.frames.Get(victim)
	if _, live := c.processes[ownership.Owner]; !live {
		return 0, vm.NewInvariantError("victim owner",
			"frame %d is owned by %s, which is not a live process",
			victim, ownership.Owner)
	}

	vpn, found := c.pageTable.FindByFrame(ownership.Owner, victim)
	if !found {
		return 0, vm.NewInvariantError("reverse lookup",
			"no page of %s maps frame %d", ownership.Owner, victim)
	}

	if !ownership.Mapped || ownership.VPN != vpn {
		return 0, vm.NewInvariantError("back reference",
			"frame %d records page %d but page %d of %s maps it",
			victim, ownership.VPN, vpn, ownership.Owner)
	}

	words, err := c.storage.ReadUnit(uint64(victim))
	if err != nil {
		return 0, err
	}

	err = c.swap.Put(swap.SwappedPage{
		Owner: ownership.Owner,
		VPN:   vpn,
		Words: words,
	})
	if errors.Is(err, swap.ErrDuplicateRecord) {
		return 0, vm.NewInvariantError("single copy",
			"page %d of %s is both resident and swapped out",
			vpn, ownership.Owner)
	}

	if err != nil {
		return 0, err
	}

	c.pageTable.Invalidate(ownership.Owner, vpn)
	c.frames.Free(victim)
	c.stats.Evictions++

	c.InvokeHook(sim.HookCtx{
		Domain: c,
		Pos:    HookPosEviction,
		Item: EvictionEvent{
			Frame:     victim,
			Owner:     ownership.Owner,
			VPN:       vpn,
			Requester: requester.PID,
			Tick:      tick,
		},
	})

	return victim, nil
}
