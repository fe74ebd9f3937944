package mmu

import (
	"fmt"
	"log"

	"github.com/sarchlab/vmsim/mem/storage"
	"github.com/sarchlab/vmsim/mem/vm"
	"github.com/sarchlab/vmsim/mem/vm/frametable"
	"github.com/sarchlab/vmsim/mem/vm/swap"
	"github.com/sarchlab/vmsim/sim"
)

// A Builder can build memory managers.
type Builder struct {
	config       vm.Config
	swapCodec    swap.Codec
	swapPolicy   SwapPolicy
	victimFinder frametable.VictimFinder
	logger       *log.Logger
}

// MakeBuilder creates a new builder with the default configuration.
func MakeBuilder() Builder {
	return Builder{
		config:     vm.DefaultConfig(),
		swapCodec:  swap.CodecNone,
		swapPolicy: SwapPolicyPurge,
	}
}

// WithConfig sets the memory geometry.
func (b Builder) WithConfig(config vm.Config) Builder {
	b.config = config
	return b
}

// WithSwapCodec sets how swapped pages are kept.
func (b Builder) WithSwapCodec(codec swap.Codec) Builder {
	b.swapCodec = codec
	return b
}

// WithSwapPolicy sets what happens to the swapped pages of a terminated
// process.
func (b Builder) WithSwapPolicy(policy SwapPolicy) Builder {
	b.swapPolicy = policy
	return b
}

// WithVictimFinder sets the algorithm that selects the frame to evict. The
// default is LRU.
func (b Builder) WithVictimFinder(finder frametable.VictimFinder) Builder {
	b.victimFinder = finder
	return b
}

// WithLogger attaches a log hook that writes to the logger.
func (b Builder) WithLogger(logger *log.Logger) Builder {
	b.logger = logger
	return b
}

// Build returns a newly created memory manager. It panics if the
// configuration is invalid.
func (b Builder) Build(name string) *Comp {
	c, err := b.BuildE(name)
	if err != nil {
		panic(err)
	}

	return c
}

// BuildE returns a newly created memory manager, or an error if the
// configuration is invalid.
func (b Builder) BuildE(name string) (*Comp, error) {
	if err := b.config.Validate(); err != nil {
		return nil, fmt.Errorf("building %s: %w", name, err)
	}

	if _, known := swapPolicyNames[b.swapPolicy]; !known {
		return nil, fmt.Errorf("building %s: unknown swap policy %d",
			name, b.swapPolicy)
	}

	c := &Comp{
		HookableBase: sim.NewHookableBase(),
		name:         name,
		config:       b.config,
		swapPolicy:   b.swapPolicy,
		processes:    make(map[vm.PID]*vm.Process),
	}

	b.createStores(c)

	if b.logger != nil {
		c.AcceptHook(NewLogHook(b.logger))
	}

	return c, nil
}

func (b Builder) createStores(c *Comp) {
	c.storage = storage.NewStorage(
		b.config.PhysicalMemorySize, b.config.PageSize)
	c.pageTable = vm.NewPageTable(b.config.PageTableSize())
	c.frames = frametable.New(
		b.config.NumFrames(), b.config.ReservedPageTableFrames)
	c.swap = swap.NewStore(b.swapCodec)

	c.victimFinder = b.victimFinder
	if c.victimFinder == nil {
		c.victimFinder = frametable.NewLRUVictimFinder()
	}
}
