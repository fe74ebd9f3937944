package mmu

import "github.com/sarchlab/vmsim/mem/vm"

// Dispatch marks a process as running. Schedulers change the state of the
// processes a memory manager knows through Dispatch and Yield, so that the
// snapshots never see a half-written process.
func (c *Comp) Dispatch(p *vm.Process) {
	c.lock.Lock()
	defer c.lock.Unlock()

	p.Run()
}

// Yield marks a running process as ready.
func (c *Comp) Yield(p *vm.Process) {
	c.lock.Lock()
	defer c.lock.Unlock()

	p.MakeReady()
}
