package mmu

import (
	"fmt"
	"log"

	"github.com/sarchlab/vmsim/mem/vm"
	"github.com/sarchlab/vmsim/sim"
)

// ResolveFault loads the page a blocked process faulted on and makes the
// process ready. The page is restored from the swap store if it was swapped
// out, or zero-filled on first touch. The faulting access is not replayed.
func (c *Comp) ResolveFault(p *vm.Process, tick vm.Tick) error {
	c.lock.Lock()
	defer c.lock.Unlock()

	if p.IsTerminated() {
		return fmt.Errorf("%w: %s", vm.ErrProcessTerminated, p.PID)
	}

	if p.State != vm.ProcessStateBlocked {
		return fmt.Errorf("%w: %s is %s",
			vm.ErrNotBlocked, p.PID, p.State)
	}

	if err := c.attach(p); err != nil {
		return err
	}

	if _, _, ok := c.translate(p, p.FaultAddress); ok {
		p.MakeReady()
		return nil
	}

	vpn, _ := c.config.Split(p.FaultAddress)

	frame, err := c.allocateFrame(p, vpn, tick)
	if err != nil {
		return err
	}

	fromSwap, err := c.loadPage(p, vpn, frame)
	if err != nil {
		c.frames.Free(frame)
		return err
	}

	c.pageTable.Insert(p.PID, vpn, vm.PageTableEntry{
		Valid: true,
		Dirty: false,
		Frame: frame,
	})

	p.MakeReady()
	c.stats.Resolved++

	c.InvokeHook(sim.HookCtx{
		Domain: c,
		Pos:    HookPosFaultResolved,
		Item: FaultResolvedEvent{
			PID:      p.PID,
			VPN:      vpn,
			Frame:    frame,
			FromSwap: fromSwap,
			Tick:     tick,
		},
	})

	return nil
}

func (c *Comp) loadPage(
	p *vm.Process,
	vpn vm.VPN,
	frame vm.Frame,
) (fromSwap bool, err error) {
	page, found, err := c.swap.Take(p.PID, vpn)
	if err != nil {
		return false, vm.NewInvariantError("swap record",
			"page %d of %s cannot be restored: %v", vpn, p.PID, err)
	}

	if found {
		c.stats.SwapIns++
		return true, c.storage.WriteUnit(uint64(frame), page.Words)
	}

	c.stats.ZeroFills++

	return false, c.storage.ZeroUnit(uint64(frame))
}

// A TickSource tells the current simulation tick.
type TickSource interface {
	CurrentTick() vm.Tick
}

// A TickSourceFunc adapts a function to the TickSource interface.
type TickSourceFunc func() vm.Tick

// CurrentTick calls f.
func (f TickSourceFunc) CurrentTick() vm.Tick {
	return f()
}

// A FaultHandler resolves the page faults of blocked processes on behalf of a
// scheduler, stamping the loaded frames with the current tick.
type FaultHandler struct {
	mmu    *Comp
	ticks  TickSource
	logger *log.Logger
}

// NewFaultHandler creates a fault handler. The logger may be nil.
func NewFaultHandler(
	mmu *Comp,
	ticks TickSource,
	logger *log.Logger,
) *FaultHandler {
	return &FaultHandler{
		mmu:    mmu,
		ticks:  ticks,
		logger: logger,
	}
}

// Handle resolves the fault of a process.
func (h *FaultHandler) Handle(p *vm.Process) error {
	tick := h.ticks.CurrentTick()
	addr := p.FaultAddress

	h.logf("%s: handling page fault at address %d, tick %d",
		p.PID, addr, tick)

	err := h.mmu.ResolveFault(p, tick)
	if err != nil {
		h.logf("%s: page fault at address %d not resolved: %v",
			p.PID, addr, err)

		return err
	}

	h.logf("%s: page fault at address %d resolved", p.PID, addr)

	return nil
}

func (h *FaultHandler) logf(format string, args ...any) {
	if h.logger == nil {
		return
	}

	h.logger.Printf(format, args...)
}
