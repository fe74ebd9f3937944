package vm

import "fmt"

// NumRegisters is the size of the register file of a process.
const NumRegisters = 16

// ControlRegister is the register that keeps the page table base address of
// a process. Zero means no base has been assigned yet.
const ControlRegister = 15

// ProcessState is the scheduling state of a process as far as the memory
// system is concerned.
type ProcessState int

// The states a process goes through.
const (
	ProcessStateNew ProcessState = iota
	ProcessStateReady
	ProcessStateRunning
	ProcessStateBlocked
	ProcessStateTerminated
)

var processStateNames = map[ProcessState]string{
	ProcessStateNew:        "NEW",
	ProcessStateReady:      "READY",
	ProcessStateRunning:    "RUNNING",
	ProcessStateBlocked:    "BLOCKED",
	ProcessStateTerminated: "TERMINATED",
}

func (s ProcessState) String() string {
	name, ok := processStateNames[s]
	if !ok {
		return fmt.Sprintf("ProcessState(%d)", int(s))
	}

	return name
}

// A Process is the part of a process control block that the memory system
// reads and writes. The scheduler owns the process; the memory manager only
// changes its state and its control register.
type Process struct {
	PID          PID
	State        ProcessState
	FaultAddress uint64
	Registers    [NumRegisters]uint64
}

// NewProcess creates a process in the NEW state.
func NewProcess(pid PID) *Process {
	if pid == 0 {
		panic("PID 0 is reserved for unowned frames")
	}

	return &Process{
		PID:   pid,
		State: ProcessStateNew,
	}
}

// PageTableBase returns the page table base kept in the control register.
// The bool return value is false if no base has been assigned.
func (p *Process) PageTableBase() (uint64, bool) {
	base := p.Registers[ControlRegister]
	return base, base != 0
}

// SetPageTableBase stores the page table base in the control register.
func (p *Process) SetPageTableBase(base uint64) {
	p.Registers[ControlRegister] = base
}

// IsTerminated tells if the process has been terminated.
func (p *Process) IsTerminated() bool {
	return p.State == ProcessStateTerminated
}

// Block marks the process as waiting for the page fault at vAddr.
func (p *Process) Block(vAddr uint64) {
	p.mustNotBeTerminated()

	p.State = ProcessStateBlocked
	p.FaultAddress = vAddr
}

// MakeReady marks the process as ready to run.
func (p *Process) MakeReady() {
	p.mustNotBeTerminated()

	p.State = ProcessStateReady
}

// Run marks the process as running.
func (p *Process) Run() {
	p.mustNotBeTerminated()

	if p.State == ProcessStateBlocked {
		panic(fmt.Sprintf("%s is blocked on address %d",
			p.PID, p.FaultAddress))
	}

	p.State = ProcessStateRunning
}

// Terminate marks the process as terminated. No transition is possible
// afterwards.
func (p *Process) Terminate() {
	p.State = ProcessStateTerminated
}

func (p *Process) mustNotBeTerminated() {
	if p.State == ProcessStateTerminated {
		panic(fmt.Sprintf("%s is terminated", p.PID))
	}
}
