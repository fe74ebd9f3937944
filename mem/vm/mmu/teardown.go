package mmu

import (
	"fmt"

	"github.com/sarchlab/vmsim/mem/vm"
	"github.com/sarchlab/vmsim/sim"
)

// ClearTable removes every page table entry of a process and frees every frame
// it owns. The swapped pages of the process are not touched.
func (c *Comp) ClearTable(p *vm.Process) {
	c.lock.Lock()
	defer c.lock.Unlock()

	freed := c.clearTable(p.PID)

	c.stats.Teardowns++

	c.InvokeHook(sim.HookCtx{
		Domain: c,
		Pos:    HookPosTeardown,
		Item: TeardownEvent{
			PID:         p.PID,
			FramesFreed: freed,
		},
	})
}

func (c *Comp) clearTable(pid vm.PID) int {
	c.pageTable.Clear(pid)

	owned := c.frames.OwnedBy(pid)
	for _, frame := range owned {
		c.frames.Free(frame)
	}

	return len(owned)
}

// Terminate marks a process as terminated, clears its page table and applies
// the swap policy. The process is forgotten by the memory manager and its PID
// may be reused by a new process. Retained pages are purged when that
// happens.
func (c *Comp) Terminate(p *vm.Process) {
	c.lock.Lock()
	defer c.lock.Unlock()

	p.Terminate()

	freed := c.clearTable(p.PID)

	purged := 0
	if c.swapPolicy == SwapPolicyPurge {
		purged = c.swap.Purge(p.PID)
	}

	if c.processes[p.PID] == p {
		delete(c.processes, p.PID)
	}

	c.stats.Teardowns++
	c.stats.Terminated++
	c.stats.SwapPurged += uint64(purged)

	c.InvokeHook(sim.HookCtx{
		Domain: c,
		Pos:    HookPosTeardown,
		Item: TeardownEvent{
			PID:         p.PID,
			FramesFreed: freed,
			SwapPurged:  purged,
			Terminated:  true,
		},
	})
}

// ReapSwap deletes the swapped pages of a process that is no longer attached
// to the memory manager. It returns the number of deleted pages.
func (c *Comp) ReapSwap(pid vm.PID) (int, error) {
	c.lock.Lock()
	defer c.lock.Unlock()

	if _, live := c.processes[pid]; live {
		return 0, fmt.Errorf("cannot reap the swapped pages of live %s", pid)
	}

	purged := c.swap.Purge(pid)
	c.stats.SwapPurged += uint64(purged)

	return purged, nil
}

// FreeFrame releases a single frame and unmaps the page it holds. The content
// of the page is discarded, so the page is zero-filled when it faults again.
func (c *Comp) FreeFrame(frame vm.Frame) error {
	c.lock.Lock()
	defer c.lock.Unlock()

	if !c.frames.Contains(frame) {
		return fmt.Errorf("frame %d is reserved or beyond the %d frames",
			frame, c.config.NumFrames())
	}

	o := c.frames.Get(frame)
	if o.Mapped {
		entry, found := c.pageTable.Find(o.Owner, o.VPN)
		if found && entry.Valid && entry.Frame == frame {
			c.pageTable.Invalidate(o.Owner, o.VPN)
		}
	}

	c.frames.Free(frame)

	return nil
}
