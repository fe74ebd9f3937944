package frametable

import "github.com/sarchlab/vmsim/mem/vm"

// A VictimFinder decides which frame should be evicted when no frame is free.
type VictimFinder interface {
	FindVictim(t *Table) (vm.Frame, bool)
}

// LRUVictimFinder evicts the least recently used frame.
type LRUVictimFinder struct {
}

// NewLRUVictimFinder returns a newly constructed lru evictor
func NewLRUVictimFinder() *LRUVictimFinder {
	e := new(LRUVictimFinder)
	return e
}

// FindVictim returns the frame with the smallest last access tick. Ties go to
// the lowest frame index. The scan covers every frame, so it is linear in the
// number of usable frames.
func (e *LRUVictimFinder) FindVictim(t *Table) (vm.Frame, bool) {
	found := false
	victim := Ownership{}

	for _, o := range t.frames {
		if !found || o.LastAccess < victim.LastAccess {
			victim = o
			found = true
		}
	}

	return victim.Frame, found
}
