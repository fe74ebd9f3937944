// Package workload drives memory managers with scripted memory accesses. It
// plays the role of the CPU and of the scheduler: it issues the accesses,
// resolves the page faults and retries the faulting accesses.
package workload

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/sarchlab/vmsim/mem/vm"
)

// Op is the kind of a step.
type Op string

// Supported operations.
const (
	OpRead      Op = "read"
	OpWrite     Op = "write"
	OpTerminate Op = "terminate"
	OpClear     Op = "clear"
	OpReap      Op = "reap"
)

// A Step is one operation of a workload. Expect, if set, is compared with the
// word returned by a read.
type Step struct {
	PID     vm.PID `yaml:"pid"`
	Op      Op     `yaml:"op"`
	Address uint64 `yaml:"address,omitempty"`
	Value   any    `yaml:"value,omitempty"`
	Expect  any    `yaml:"expect,omitempty"`
}

// Memory holds the memory settings of a workload. Zero values and empty
// strings leave the setting to the caller.
type Memory struct {
	PageSize                uint64 `yaml:"page_size,omitempty"`
	PhysicalMemorySize      uint64 `yaml:"physical_memory_size,omitempty"`
	VirtualAddressSpaceSize uint64 `yaml:"virtual_address_space_size,omitempty"`
	ReservedPageTableFrames uint64 `yaml:"reserved_page_table_frames,omitempty"`
	SwapCodec               string `yaml:"swap_codec,omitempty"`
	SwapPolicy              string `yaml:"swap_policy,omitempty"`
}

// ApplyTo overrides the sizes of cfg with the ones set in m.
func (m Memory) ApplyTo(cfg vm.Config) vm.Config {
	if m.PageSize != 0 {
		cfg.PageSize = m.PageSize
	}

	if m.PhysicalMemorySize != 0 {
		cfg.PhysicalMemorySize = m.PhysicalMemorySize
	}

	if m.VirtualAddressSpaceSize != 0 {
		cfg.VirtualAddressSpaceSize = m.VirtualAddressSpaceSize
	}

	if m.ReservedPageTableFrames != 0 {
		cfg.ReservedPageTableFrames = m.ReservedPageTableFrames
	}

	return cfg
}

// A Workload is a named list of steps.
type Workload struct {
	Name   string `yaml:"name"`
	Memory Memory `yaml:"memory,omitempty"`
	Steps  []Step `yaml:"steps"`
}

// Load reads a workload from a YAML file.
func Load(path string) (*Workload, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	w, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return w, nil
}

// Parse decodes a workload from YAML. Unknown fields are rejected.
func Parse(data []byte) (*Workload, error) {
	w := new(Workload)

	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)

	if err := decoder.Decode(w); err != nil {
		return nil, fmt.Errorf("decoding workload: %w", err)
	}

	if err := w.Validate(); err != nil {
		return nil, err
	}

	return w, nil
}

// Validate checks that every step can be executed.
func (w *Workload) Validate() error {
	for i, s := range w.Steps {
		if s.PID == 0 {
			return fmt.Errorf("step %d: PID 0 is reserved", i)
		}

		switch s.Op {
		case OpWrite:
			if s.Value == nil {
				return fmt.Errorf("step %d: write without a value", i)
			}
		case OpRead, OpTerminate, OpClear, OpReap:
		default:
			return fmt.Errorf("step %d: unknown operation %q", i, s.Op)
		}
	}

	return nil
}

// Marshal encodes the workload in YAML.
func (w *Workload) Marshal() ([]byte, error) {
	return yaml.Marshal(w)
}

// RestoreScenario writes "X" at address 10 and fills two more pages, so
// that page 0 is evicted when only two frames are usable. Reading address 10
// again must give "X" back from the swap store.
func RestoreScenario() *Workload {
	return &Workload{
		Name: "restore-after-eviction",
		Memory: Memory{
			PageSize:                256,
			PhysicalMemorySize:      2560,
			VirtualAddressSpaceSize: 4096,
			ReservedPageTableFrames: 8,
		},
		Steps: []Step{
			{PID: 1, Op: OpWrite, Address: 10, Value: "X"},
			{PID: 1, Op: OpRead, Address: 10, Expect: "X"},
			{PID: 1, Op: OpWrite, Address: 300, Value: "Y"},
			{PID: 1, Op: OpWrite, Address: 600, Value: "Z"},
			{PID: 1, Op: OpRead, Address: 10, Expect: "X"},
			{PID: 1, Op: OpRead, Address: 300, Expect: "Y"},
			{PID: 1, Op: OpTerminate},
		},
	}
}
