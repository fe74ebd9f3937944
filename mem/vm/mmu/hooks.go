package mmu

import (
	"github.com/sarchlab/vmsim/mem/vm"
	"github.com/sarchlab/vmsim/sim"
)

// Hook positions of the memory manager. Hooks run while the memory manager is
// locked and must not call back into it.
var (
	// HookPosPageFault marks an access that found no valid translation.
	HookPosPageFault = &sim.HookPos{Name: "PageFault"}

	// HookPosFaultResolved marks a page that has been loaded into a frame.
	HookPosFaultResolved = &sim.HookPos{Name: "FaultResolved"}

	// HookPosEviction marks a page that has been moved to the swap store.
	HookPosEviction = &sim.HookPos{Name: "Eviction"}

	// HookPosTeardown marks a cleared page table.
	HookPosTeardown = &sim.HookPos{Name: "Teardown"}
)

// PageFaultEvent is the item of HookPosPageFault.
type PageFaultEvent struct {
	PID     vm.PID
	Address uint64
	VPN     vm.VPN
	IsWrite bool
	Tick    vm.Tick
}

// FaultResolvedEvent is the item of HookPosFaultResolved.
type FaultResolvedEvent struct {
	PID      vm.PID
	VPN      vm.VPN
	Frame    vm.Frame
	FromSwap bool
	Tick     vm.Tick
}

// EvictionEvent is the item of HookPosEviction. Owner lost the frame to
// Requester.
type EvictionEvent struct {
	Frame     vm.Frame
	Owner     vm.PID
	VPN       vm.VPN
	Requester vm.PID
	Tick      vm.Tick
}

// TeardownEvent is the item of HookPosTeardown.
type TeardownEvent struct {
	PID         vm.PID
	FramesFreed int
	SwapPurged  int
	Terminated  bool
}
