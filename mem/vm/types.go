// Package vm defines the data model of the virtual memory system: process
// identifiers, page numbers, frames, page tables and processes.
package vm

import "fmt"

// PID stands for Process ID. PID 0 is reserved to mark unowned frames.
type PID uint32

// VPN is a virtual page number.
type VPN uint64

// A Frame is the index of a pageSize-word slice of the physical storage.
type Frame uint64

// Tick is the logical time stamp supplied by the caller of every memory
// operation.
type Tick uint64

// String formats the PID for logs.
func (p PID) String() string {
	return fmt.Sprintf("pid %d", uint32(p))
}
