package mmu

import (
	"log"

	"github.com/sarchlab/vmsim/sim"
)

// LogHook prints the page faults, evictions and teardowns of a memory
// manager.
type LogHook struct {
	sim.LogHookBase
}

// NewLogHook creates a LogHook that writes to the logger.
func NewLogHook(logger *log.Logger) *LogHook {
	h := new(LogHook)
	h.Logger = logger

	return h
}

// Func writes one line for each event.
func (h *LogHook) Func(ctx sim.HookCtx) {
	switch e := ctx.Item.(type) {
	case PageFaultEvent:
		access := "read"
		if e.IsWrite {
			access = "write"
		}

		h.Printf("[%d] page fault: %s %s at address %d (page %d)",
			e.Tick, e.PID, access, e.Address, e.VPN)
	case FaultResolvedEvent:
		source := "zero-filled"
		if e.FromSwap {
			source = "restored from swap"
		}

		h.Printf("[%d] page %d of %s loaded into frame %d, %s",
			e.Tick, e.VPN, e.PID, e.Frame, source)
	case EvictionEvent:
		h.Printf("[%d] frame %d evicted: page %d of %s swapped out for %s",
			e.Tick, e.Frame, e.VPN, e.Owner, e.Requester)
	case TeardownEvent:
		if e.Terminated {
			h.Printf("%s terminated: %d frames freed, %d swapped pages purged",
				e.PID, e.FramesFreed, e.SwapPurged)
		} else {
			h.Printf("page table of %s cleared: %d frames freed",
				e.PID, e.FramesFreed)
		}
	}
}
