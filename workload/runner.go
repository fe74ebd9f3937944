package workload

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/sarchlab/vmsim/mem/storage"
	"github.com/sarchlab/vmsim/mem/vm"
	"github.com/sarchlab/vmsim/mem/vm/mmu"
)

// ErrUnresolvedFault is returned when an access faults again right after its
// fault has been resolved.
var ErrUnresolvedFault = errors.New("access faulted after resolution")

// Progress receives the number of finished steps.
type Progress interface {
	IncrementFinished(amount uint64)
}

// A Mismatch is a read that did not return the expected word.
type Mismatch struct {
	Step     int          `json:"step"`
	PID      vm.PID       `json:"pid"`
	Address  uint64       `json:"address"`
	Expected storage.Word `json:"expected"`
	Got      storage.Word `json:"got"`
}

// A Report summarizes a run.
type Report struct {
	Name       string     `json:"name"`
	Steps      int        `json:"steps"`
	Reads      int        `json:"reads"`
	Writes     int        `json:"writes"`
	Faults     int        `json:"faults"`
	FinalTick  vm.Tick    `json:"final_tick"`
	Usage      float64    `json:"usage"`
	Mismatches []Mismatch `json:"mismatches"`
	Stats      mmu.Stats  `json:"stats"`
}

// Failed tells if a read did not return what was expected.
func (r Report) Failed() bool {
	return len(r.Mismatches) > 0
}

// A Runner executes workloads on a memory manager. Every access takes one
// tick and every fault resolution takes one more.
type Runner struct {
	mmu       *mmu.Comp
	handler   *mmu.FaultHandler
	logger    *log.Logger
	progress  Progress
	tick      vm.Tick
	processes map[vm.PID]*vm.Process
}

// NewRunner creates a runner. The logger may be nil.
func NewRunner(c *mmu.Comp, logger *log.Logger) *Runner {
	r := &Runner{
		mmu:       c,
		logger:    logger,
		processes: make(map[vm.PID]*vm.Process),
	}

	r.handler = mmu.NewFaultHandler(c, mmu.TickSourceFunc(r.nextTick), logger)

	return r
}

// WithProgress lets the runner report the finished steps.
func (r *Runner) WithProgress(p Progress) *Runner {
	r.progress = p
	return r
}

// CurrentTick returns the last tick used.
func (r *Runner) CurrentTick() vm.Tick {
	return r.tick
}

func (r *Runner) nextTick() vm.Tick {
	r.tick++
	return r.tick
}

// Run executes the steps of a workload in order. It stops at the first error,
// including invariant violations of the memory manager, or when ctx is done.
// The report covers the steps executed so far.
func (r *Runner) Run(ctx context.Context, w *Workload) (Report, error) {
	report := Report{Name: w.Name}

	for i, s := range w.Steps {
		if err := ctx.Err(); err != nil {
			return r.finish(report), err
		}

		if err := r.step(i, s, &report); err != nil {
			return r.finish(report), fmt.Errorf("step %d (%s %s): %w",
				i, s.Op, s.PID, err)
		}

		report.Steps++

		if r.progress != nil {
			r.progress.IncrementFinished(1)
		}
	}

	return r.finish(report), nil
}

func (r *Runner) finish(report Report) Report {
	report.FinalTick = r.tick
	report.Usage = r.mmu.MemoryUsage()
	report.Stats = r.mmu.Stats()

	return report
}

func (r *Runner) step(i int, s Step, report *Report) error {
	switch s.Op {
	case OpRead:
		value, err := r.access(s, report)
		if err != nil {
			return err
		}

		report.Reads++
		r.check(i, s, value, report)
	case OpWrite:
		if _, err := r.access(s, report); err != nil {
			return err
		}

		report.Writes++
	case OpTerminate:
		r.mmu.Terminate(r.process(s.PID))
		delete(r.processes, s.PID)
	case OpClear:
		r.mmu.ClearTable(r.process(s.PID))
	case OpReap:
		if _, err := r.mmu.ReapSwap(s.PID); err != nil {
			return err
		}
	default:
		return fmt.Errorf("unknown operation %q", s.Op)
	}

	return nil
}

func (r *Runner) process(pid vm.PID) *vm.Process {
	p, found := r.processes[pid]
	if !found {
		p = vm.NewProcess(pid)
		r.mmu.Yield(p)
		r.processes[pid] = p
	}

	return p
}

// access issues a read or a write. A faulting access is reissued once after
// the fault is resolved.
func (r *Runner) access(s Step, report *Report) (storage.Word, error) {
	p := r.process(s.PID)

	for attempt := 0; attempt < 2; attempt++ {
		r.mmu.Dispatch(p)

		outcome, err := r.issue(p, s)
		if err != nil {
			return nil, err
		}

		switch o := outcome.(type) {
		case vm.Hit:
			r.mmu.Yield(p)
			return o.Value, nil
		case vm.Fault:
			report.Faults++

			if err := r.handler.Handle(p); err != nil {
				return nil, err
			}
		}
	}

	return nil, fmt.Errorf("%w: address %d", ErrUnresolvedFault, s.Address)
}

func (r *Runner) issue(p *vm.Process, s Step) (vm.Outcome, error) {
	if s.Op == OpWrite {
		return r.mmu.Write(p, s.Address, s.Value, r.nextTick())
	}

	return r.mmu.Read(p, s.Address, r.nextTick())
}

func (r *Runner) check(i int, s Step, got storage.Word, report *Report) {
	if s.Expect == nil {
		return
	}

	if fmt.Sprint(got) == fmt.Sprint(s.Expect) {
		return
	}

	report.Mismatches = append(report.Mismatches, Mismatch{
		Step:     i,
		PID:      s.PID,
		Address:  s.Address,
		Expected: s.Expect,
		Got:      got,
	})

	if r.logger != nil {
		r.logger.Printf("step %d: %s read %v at address %d, expected %v",
			i, s.PID, got, s.Address, s.Expect)
	}
}
