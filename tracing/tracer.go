// Package tracing records the events of memory managers into a database.
package tracing

import (
	"fmt"
	"reflect"

	"github.com/sarchlab/vmsim/datarecording"
	"github.com/sarchlab/vmsim/mem/vm/mmu"
	"github.com/sarchlab/vmsim/sim"
)

// Names of the tables written by a DBTracer.
const (
	TablePageFault     = "page_fault"
	TableFaultResolved = "fault_resolved"
	TableEviction      = "eviction"
	TableTeardown      = "teardown"
)

type pageFaultEntry struct {
	ID      string `json:"id" vmsim_data:"unique"`
	Where   string `json:"where" vmsim_data:"index"`
	PID     uint32 `json:"pid" vmsim_data:"index"`
	Address uint64 `json:"address"`
	VPN     uint64 `json:"vpn"`
	IsWrite bool   `json:"is_write"`
	Tick    uint64 `json:"tick" vmsim_data:"index"`
}

type faultResolvedEntry struct {
	ID       string `json:"id" vmsim_data:"unique"`
	Where    string `json:"where" vmsim_data:"index"`
	PID      uint32 `json:"pid" vmsim_data:"index"`
	VPN      uint64 `json:"vpn"`
	Frame    uint64 `json:"frame"`
	FromSwap bool   `json:"from_swap"`
	Tick     uint64 `json:"tick" vmsim_data:"index"`
}

type evictionEntry struct {
	ID        string `json:"id" vmsim_data:"unique"`
	Where     string `json:"where" vmsim_data:"index"`
	Frame     uint64 `json:"frame"`
	Owner     uint32 `json:"owner" vmsim_data:"index"`
	VPN       uint64 `json:"vpn"`
	Requester uint32 `json:"requester"`
	Tick      uint64 `json:"tick" vmsim_data:"index"`
}

type teardownEntry struct {
	ID          string `json:"id" vmsim_data:"unique"`
	Where       string `json:"where" vmsim_data:"index"`
	PID         uint32 `json:"pid" vmsim_data:"index"`
	FramesFreed int    `json:"frames_freed"`
	SwapPurged  int    `json:"swap_purged"`
	Terminated  bool   `json:"terminated"`
}

// NamedHookable is a hookable domain that has a name.
type NamedHookable interface {
	sim.Hookable
	Name() string
}

// A DBTracer is a hook that records the events of memory managers through a
// data recorder.
type DBTracer struct {
	recorder datarecording.DataRecorder
}

// NewDBTracer creates a tracer and the tables it writes into.
func NewDBTracer(recorder datarecording.DataRecorder) *DBTracer {
	t := &DBTracer{recorder: recorder}

	recorder.CreateTable(TablePageFault, pageFaultEntry{})
	recorder.CreateTable(TableFaultResolved, faultResolvedEntry{})
	recorder.CreateTable(TableEviction, evictionEntry{})
	recorder.CreateTable(TableTeardown, teardownEntry{})

	return t
}

// CollectTrace lets the tracer record the events of a domain.
func CollectTrace(domain NamedHookable, tracer *DBTracer) {
	for _, hook := range domain.Hooks() {
		if hook == sim.Hook(tracer) {
			panic(fmt.Sprintf(
				"domain %s already has tracer %s",
				domain.Name(), reflect.TypeOf(tracer)))
		}
	}

	domain.AcceptHook(tracer)
}

// Func records the event carried by the hook context.
func (t *DBTracer) Func(ctx sim.HookCtx) {
	where := ""
	if named, ok := ctx.Domain.(NamedHookable); ok {
		where = named.Name()
	}

	id := sim.GetIDGenerator().Generate()

	switch e := ctx.Item.(type) {
	case mmu.PageFaultEvent:
		t.recorder.InsertData(TablePageFault, pageFaultEntry{
			ID:      id,
			Where:   where,
			PID:     uint32(e.PID),
			Address: e.Address,
			VPN:     uint64(e.VPN),
			IsWrite: e.IsWrite,
			Tick:    uint64(e.Tick),
		})
	case mmu.FaultResolvedEvent:
		t.recorder.InsertData(TableFaultResolved, faultResolvedEntry{
			ID:       id,
			Where:    where,
			PID:      uint32(e.PID),
			VPN:      uint64(e.VPN),
			Frame:    uint64(e.Frame),
			FromSwap: e.FromSwap,
			Tick:     uint64(e.Tick),
		})
	case mmu.EvictionEvent:
		t.recorder.InsertData(TableEviction, evictionEntry{
			ID:        id,
			Where:     where,
			Frame:     uint64(e.Frame),
			Owner:     uint32(e.Owner),
			VPN:       uint64(e.VPN),
			Requester: uint32(e.Requester),
			Tick:      uint64(e.Tick),
		})
	case mmu.TeardownEvent:
		t.recorder.InsertData(TableTeardown, teardownEntry{
			ID:          id,
			Where:       where,
			PID:         uint32(e.PID),
			FramesFreed: e.FramesFreed,
			SwapPurged:  e.SwapPurged,
			Terminated:  e.Terminated,
		})
	}
}

// Flush writes the buffered records.
func (t *DBTracer) Flush() {
	t.recorder.Flush()
}
