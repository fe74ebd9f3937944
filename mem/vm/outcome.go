package vm

import "github.com/sarchlab/vmsim/mem/storage"

// An Outcome is the result of a memory access. It is either a Hit or a Fault.
type Outcome interface {
	isOutcome()
}

// Hit is the outcome of an access that found a valid translation. Value holds
// the word read; it is nil for writes.
type Hit struct {
	Value storage.Word
}

// Fault is the outcome of an access that did not find a valid, owned frame
// for its page. The process has been blocked and the access must be reissued
// after the fault is resolved.
type Fault struct {
	Address uint64
	VPN     VPN
}

func (Hit) isOutcome()   {}
func (Fault) isOutcome() {}

// IsFault tells whether an outcome is a Fault.
func IsFault(o Outcome) bool {
	_, ok := o.(Fault)
	return ok
}
