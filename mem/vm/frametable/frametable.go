// Package frametable keeps track of which process owns each physical frame
// and when each frame was last accessed.
package frametable

import (
	"fmt"

	"github.com/sarchlab/vmsim/mem/vm"
)

// Ownership describes a frame outside of the reserved page table region.
type Ownership struct {
	Frame      vm.Frame `json:"frame"`
	Owner      vm.PID   `json:"owner"`
	LastAccess vm.Tick  `json:"last_access"`

	// VPN is the page currently held by the frame. It is only meaningful when
	// Mapped is true.
	VPN    vm.VPN `json:"vpn"`
	Mapped bool   `json:"mapped"`
}

// IsFree tells if no process owns the frame.
func (o Ownership) IsFree() bool {
	return o.Owner == 0
}

// A Table is the frame ownership table. Frames below reservedFrames hold page
// tables and are never entered in the table.
type Table struct {
	numFrames      uint64
	reservedFrames uint64
	frames         []Ownership
}

// New creates a table for numFrames frames, the first reservedFrames of which
// are reserved.
func New(numFrames, reservedFrames uint64) *Table {
	if reservedFrames > numFrames {
		panic("more reserved frames than frames")
	}

	t := &Table{
		numFrames:      numFrames,
		reservedFrames: reservedFrames,
		frames:         make([]Ownership, numFrames-reservedFrames),
	}

	for i := range t.frames {
		t.frames[i].Frame = vm.Frame(reservedFrames + uint64(i))
	}

	return t
}

// NumFrames returns the number of frames, including the reserved ones.
func (t *Table) NumFrames() uint64 {
	return t.numFrames
}

// FirstUsable returns the lowest frame that can hold data.
func (t *Table) FirstUsable() vm.Frame {
	return vm.Frame(t.reservedFrames)
}

// IsReserved tells if a frame belongs to the page table region.
func (t *Table) IsReserved(frame vm.Frame) bool {
	return uint64(frame) < t.reservedFrames
}

// Contains tells if a frame is tracked by the table.
func (t *Table) Contains(frame vm.Frame) bool {
	return !t.IsReserved(frame) && uint64(frame) < t.numFrames
}

func (t *Table) slot(frame vm.Frame) *Ownership {
	if !t.Contains(frame) {
		panic(fmt.Sprintf("frame %d is not tracked by the ownership table",
			frame))
	}

	return &t.frames[uint64(frame)-t.reservedFrames]
}

// Get returns the ownership record of a frame.
func (t *Table) Get(frame vm.Frame) Ownership {
	return *t.slot(frame)
}

// Owner returns the owner of a frame. Reserved and out-of-range frames have
// no owner.
func (t *Table) Owner(frame vm.Frame) vm.PID {
	if !t.Contains(frame) {
		return 0
	}

	return t.slot(frame).Owner
}

// Assign gives a frame to a process for the given page and stamps the access
// tick.
func (t *Table) Assign(frame vm.Frame, pid vm.PID, vpn vm.VPN, tick vm.Tick) {
	if pid == 0 {
		panic("cannot assign a frame to PID 0")
	}

	s := t.slot(frame)
	s.Owner = pid
	s.VPN = vpn
	s.Mapped = true
	s.LastAccess = tick
}

// Touch refreshes the last access tick of a frame.
func (t *Table) Touch(frame vm.Frame, tick vm.Tick) {
	t.slot(frame).LastAccess = tick
}

// Free releases a frame. The last access tick is kept.
func (t *Table) Free(frame vm.Frame) {
	s := t.slot(frame)
	s.Owner = 0
	s.VPN = 0
	s.Mapped = false
}

// FindFree returns the lowest free frame.
func (t *Table) FindFree() (vm.Frame, bool) {
	for _, o := range t.frames {
		if o.IsFree() {
			return o.Frame, true
		}
	}

	return 0, false
}

// NumFree returns the number of free frames.
func (t *Table) NumFree() int {
	n := 0

	for _, o := range t.frames {
		if o.IsFree() {
			n++
		}
	}

	return n
}

// OwnedBy lists the frames owned by a process in frame order.
func (t *Table) OwnedBy(pid vm.PID) []vm.Frame {
	res := make([]vm.Frame, 0)

	for _, o := range t.frames {
		if pid != 0 && o.Owner == pid {
			res = append(res, o.Frame)
		}
	}

	return res
}

// Snapshot returns a copy of all the ownership records in frame order.
func (t *Table) Snapshot() []Ownership {
	res := make([]Ownership, len(t.frames))
	copy(res, t.frames)

	return res
}
