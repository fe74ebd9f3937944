package mmu

import (
	"bytes"
	"encoding/gob"
	"errors"
	"log"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/mock/gomock"

	"github.com/sarchlab/vmsim/mem/storage"
	"github.com/sarchlab/vmsim/mem/vm"
	"github.com/sarchlab/vmsim/mem/vm/frametable"
	"github.com/sarchlab/vmsim/mem/vm/swap"
	"github.com/sarchlab/vmsim/sim"
)

// smallConfig has 4-word pages, 16-entry page tables, room for the page
// tables of PIDs 1 to 3 and 3 usable frames (16, 17 and 18).
func smallConfig() vm.Config {
	return vm.Config{
		PageSize:                4,
		PhysicalMemorySize:      76,
		VirtualAddressSpaceSize: 64,
		ReservedPageTableFrames: 16,
	}
}

// undecodable is encoded into the swap store but can never be restored.
type undecodable struct{}

func (undecodable) GobEncode() ([]byte, error) {
	return []byte{1}, nil
}

func (*undecodable) GobDecode([]byte) error {
	return errors.New("corrupted word")
}

func init() {
	gob.Register(undecodable{})
}

type fixedVictimFinder struct {
	frame vm.Frame
}

func (f fixedVictimFinder) FindVictim(_ *frametable.Table) (vm.Frame, bool) {
	return f.frame, true
}

type driver struct {
	mmu  *Comp
	tick vm.Tick
}

func (d *driver) next() vm.Tick {
	d.tick++
	return d.tick
}

func (d *driver) write(p *vm.Process, vAddr uint64, value storage.Word) {
	outcome, err := d.mmu.Write(p, vAddr, value, d.next())
	Expect(err).NotTo(HaveOccurred())

	if vm.IsFault(outcome) {
		Expect(p.State).To(Equal(vm.ProcessStateBlocked))
		Expect(d.mmu.ResolveFault(p, d.next())).To(Succeed())

		outcome, err = d.mmu.Write(p, vAddr, value, d.next())
		Expect(err).NotTo(HaveOccurred())
	}

	Expect(outcome).To(Equal(vm.Hit{}))
}

func (d *driver) read(p *vm.Process, vAddr uint64) storage.Word {
	outcome, err := d.mmu.Read(p, vAddr, d.next())
	Expect(err).NotTo(HaveOccurred())

	if vm.IsFault(outcome) {
		Expect(d.mmu.ResolveFault(p, d.next())).To(Succeed())

		outcome, err = d.mmu.Read(p, vAddr, d.next())
		Expect(err).NotTo(HaveOccurred())
	}

	Expect(outcome).To(BeAssignableToTypeOf(vm.Hit{}))

	return outcome.(vm.Hit).Value
}

var _ = Describe("Builder", func() {
	It("should panic on an invalid configuration", func() {
		cfg := smallConfig()
		cfg.PageSize = 5

		Expect(func() { MakeBuilder().WithConfig(cfg).Build("MMU") }).
			To(Panic())
	})

	It("should return configuration errors", func() {
		cfg := smallConfig()
		cfg.PhysicalMemorySize = 0

		_, err := MakeBuilder().WithConfig(cfg).BuildE("MMU")

		Expect(err).To(MatchError(vm.ErrInvalidConfig))
	})

	It("should reject unknown swap policies", func() {
		_, err := MakeBuilder().WithSwapPolicy(SwapPolicy(9)).BuildE("MMU")

		Expect(err).To(HaveOccurred())
	})

	It("should use the default configuration", func() {
		c := MakeBuilder().Build("MMU")

		Expect(c.Name()).To(Equal("MMU"))
		Expect(c.Config()).To(Equal(vm.DefaultConfig()))
		Expect(c.SwapPolicy()).To(Equal(SwapPolicyPurge))
		Expect(c.FrameOwnership()).To(HaveLen(8))
		Expect(c.MemoryUsage()).To(Equal(0.0))
	})

	It("should parse swap policies", func() {
		p, err := ParseSwapPolicy("Retain")
		Expect(err).NotTo(HaveOccurred())
		Expect(p).To(Equal(SwapPolicyRetain))
		Expect(p.String()).To(Equal("retain"))

		_, err = ParseSwapPolicy("keep")
		Expect(err).To(HaveOccurred())
	})
})

var _ = Describe("Comp", func() {
	var (
		c  *Comp
		d  *driver
		p1 *vm.Process
		p2 *vm.Process
	)

	BeforeEach(func() {
		c = MakeBuilder().WithConfig(smallConfig()).Build("MMU")
		d = &driver{mmu: c}
		p1 = vm.NewProcess(1)
		p2 = vm.NewProcess(2)
	})

	Context("access", func() {
		It("should fault on first touch without touching memory", func() {
			outcome, err := c.Write(p1, 9, "A", 1)

			Expect(err).NotTo(HaveOccurred())
			Expect(outcome).To(Equal(vm.Fault{Address: 9, VPN: 2}))
			Expect(p1.State).To(Equal(vm.ProcessStateBlocked))
			Expect(p1.FaultAddress).To(Equal(uint64(9)))
			Expect(c.MemoryUsage()).To(Equal(0.0))
			Expect(c.frames.NumFree()).To(Equal(3))
		})

		It("should assign the page table base on first access", func() {
			_, err := c.Read(p1, 0, 1)
			Expect(err).NotTo(HaveOccurred())

			base, assigned := p1.PageTableBase()
			Expect(assigned).To(BeTrue())
			Expect(base).To(Equal(uint64(16)))
			Expect(p1.Registers[vm.ControlRegister]).To(Equal(uint64(16)))
		})

		It("should read back what was written across a fault", func() {
			d.write(p1, 5, "X")

			Expect(d.read(p1, 5)).To(Equal("X"))
			Expect(d.read(p1, 6)).To(Equal(0))
		})

		It("should zero-fill a page on first touch", func() {
			Expect(d.read(p1, 13)).To(Equal(0))

			pAddr, ok := c.Translate(p1, 13)
			Expect(ok).To(BeTrue())
			Expect(pAddr).To(Equal(uint64(16*4 + 1)))
		})

		It("should translate consistently", func() {
			d.write(p1, 7, 1)

			a1, ok1 := c.Translate(p1, 7)
			a2, ok2 := c.Translate(p1, 7)

			Expect(ok1).To(BeTrue())
			Expect(ok2).To(BeTrue())
			Expect(a1).To(Equal(a2))
		})

		It("should set the dirty bit on writes only", func() {
			d.read(p1, 0)
			d.write(p1, 4, 1)

			entries := c.PageTableEntries(1)
			Expect(entries).To(HaveLen(2))
			Expect(entries[0].VPN).To(Equal(vm.VPN(0)))
			Expect(entries[0].Dirty).To(BeFalse())
			Expect(entries[1].VPN).To(Equal(vm.VPN(1)))
			Expect(entries[1].Dirty).To(BeTrue())
			Expect(entries[1].Valid).To(BeTrue())
		})

		It("should isolate processes", func() {
			d.write(p1, 0, "p1")
			d.write(p2, 0, "p2")

			Expect(d.read(p1, 0)).To(Equal("p1"))
			Expect(d.read(p2, 0)).To(Equal("p2"))

			a1, _ := c.Translate(p1, 0)
			a2, _ := c.Translate(p2, 0)
			Expect(a1).NotTo(Equal(a2))
		})

		It("should not translate pages of other processes", func() {
			d.write(p1, 0, "p1")

			_, ok := c.Translate(p2, 0)

			Expect(ok).To(BeFalse())
		})

		It("should reject addresses beyond the virtual space", func() {
			_, err := c.Read(p1, 64, 1)
			Expect(err).To(MatchError(vm.ErrAddressOutOfRange))

			_, err = c.Write(p1, 100, 1, 1)
			Expect(err).To(MatchError(vm.ErrAddressOutOfRange))

			_, ok := c.Translate(p1, 64)
			Expect(ok).To(BeFalse())
			Expect(p1.State).To(Equal(vm.ProcessStateNew))
		})

		It("should reject PIDs whose page table does not fit", func() {
			_, err := c.Read(vm.NewProcess(4), 0, 1)

			Expect(err).To(MatchError(vm.ErrPageTableRegionFull))
		})

		It("should reject two processes with the same PID", func() {
			d.write(p1, 0, 1)

			_, err := c.Read(vm.NewProcess(1), 0, d.next())

			Expect(err).To(MatchError(vm.ErrDuplicatePID))
		})

		It("should reject accesses of terminated processes", func() {
			d.write(p1, 0, 1)
			c.Terminate(p1)

			_, err := c.Read(p1, 0, d.next())

			Expect(err).To(MatchError(vm.ErrProcessTerminated))
		})

		It("should not change the usage on reads", func() {
			d.write(p1, 0, 1)
			usage := c.MemoryUsage()
			Expect(usage).To(Equal(5.0 / 76.0))

			d.read(p1, 0)
			d.read(p1, 3)

			Expect(c.MemoryUsage()).To(Equal(usage))
		})
	})

	Context("eviction", func() {
		touchPages := func(p *vm.Process, pages ...uint64) {
			for _, page := range pages {
				d.write(p, page*4, page)
			}
		}

		It("should evict the least recently used frame", func() {
			touchPages(p1, 0, 1, 2, 3)

			_, ok := c.Translate(p1, 0)
			Expect(ok).To(BeFalse())
			Expect(c.swap.Has(1, 0)).To(BeTrue())
			Expect(c.Stats().Evictions).To(Equal(uint64(1)))

			outcome, err := c.Read(p1, 0, d.next())
			Expect(err).NotTo(HaveOccurred())
			Expect(vm.IsFault(outcome)).To(BeTrue())
		})

		It("should not count translations as accesses", func() {
			touchPages(p1, 0, 1, 2)

			for i := 0; i < 3; i++ {
				_, ok := c.Translate(p1, 0)
				Expect(ok).To(BeTrue())
			}

			touchPages(p1, 3)

			_, ok := c.Translate(p1, 0)
			Expect(ok).To(BeFalse())
		})

		It("should keep recently read pages", func() {
			touchPages(p1, 0, 1, 2)
			d.read(p1, 0)

			touchPages(p1, 3)

			_, ok := c.Translate(p1, 0)
			Expect(ok).To(BeTrue())
			_, ok = c.Translate(p1, 4)
			Expect(ok).To(BeFalse())
		})

		It("should break ties with the lowest frame", func() {
			for vpn := vm.VPN(0); vpn < 3; vpn++ {
				_, err := c.Write(p1, uint64(vpn)*4, 1, 1)
				Expect(err).NotTo(HaveOccurred())
				Expect(c.ResolveFault(p1, 1)).To(Succeed())
			}

			_, err := c.Write(p1, 12, 1, 1)
			Expect(err).NotTo(HaveOccurred())
			Expect(c.ResolveFault(p1, 1)).To(Succeed())

			o := c.FrameOwnership()
			Expect(o[0].VPN).To(Equal(vm.VPN(3)))
			Expect(c.swap.Has(1, 0)).To(BeTrue())
		})

		It("should restore swapped content", func() {
			for i := uint64(0); i < 4; i++ {
				d.write(p1, i, i+10)
			}
			touchPages(p1, 1, 2, 3)

			for i := uint64(0); i < 4; i++ {
				Expect(d.read(p1, i)).To(Equal(i + 10))
			}
			Expect(c.swap.Has(1, 0)).To(BeFalse())
			Expect(c.Stats().SwapIns).To(Equal(uint64(1)))
		})

		It("should keep a single copy of every page", func() {
			touchPages(p1, 0, 1, 2, 3, 4, 0, 5, 1)

			pages, err := c.SwappedPages()
			Expect(err).NotTo(HaveOccurred())

			Expect(pages).To(HaveLen(3))

			for vpn := vm.VPN(0); vpn < 6; vpn++ {
				_, resident := c.Translate(p1, uint64(vpn)*4)
				Expect(resident).NotTo(Equal(c.swap.Has(1, vpn)))
			}
		})

		It("should evict pages of other processes", func() {
			touchPages(p1, 0, 1)
			touchPages(p2, 0, 1)

			Expect(c.swap.Has(1, 0)).To(BeTrue())
			Expect(d.read(p1, 0)).To(Equal(uint64(0)))
		})

		It("should fail on a frame that no page maps", func() {
			for vpn := vm.VPN(0); vpn < 3; vpn++ {
				_, err := c.AllocateFrame(p1, vpn, d.next())
				Expect(err).NotTo(HaveOccurred())
			}
			before := c.FrameOwnership()

			_, err := c.AllocateFrame(p1, 3, d.next())

			var invariantErr *vm.InvariantError
			Expect(errors.As(err, &invariantErr)).To(BeTrue())
			Expect(invariantErr.Invariant).To(Equal("reverse lookup"))
			Expect(err).To(MatchError(vm.ErrInvariantViolation))
			Expect(c.FrameOwnership()).To(Equal(before))
			Expect(c.swap.Len()).To(Equal(0))
		})

		It("should fail when a reserved frame is selected", func() {
			c = MakeBuilder().
				WithConfig(smallConfig()).
				WithVictimFinder(fixedVictimFinder{frame: 3}).
				Build("MMU")
			d = &driver{mmu: c}
			touchPages(p1, 0, 1, 2)

			_, err := c.Write(p1, 12, 1, d.next())
			Expect(err).NotTo(HaveOccurred())
			err = c.ResolveFault(p1, d.next())

			Expect(err).To(MatchError(vm.ErrInvariantViolation))
			Expect(p1.State).To(Equal(vm.ProcessStateBlocked))
			Expect(c.swap.Len()).To(Equal(0))
		})
	})

	Context("fault resolution", func() {
		It("should refuse processes that are not blocked", func() {
			err := c.ResolveFault(p1, 1)

			Expect(err).To(MatchError(vm.ErrNotBlocked))
		})

		It("should refuse terminated processes", func() {
			c.Terminate(p1)

			err := c.ResolveFault(p1, 1)

			Expect(err).To(MatchError(vm.ErrProcessTerminated))
		})

		It("should make the process ready", func() {
			_, _ = c.Read(p1, 8, 1)
			Expect(c.ResolveFault(p1, 2)).To(Succeed())

			Expect(p1.State).To(Equal(vm.ProcessStateReady))
			Expect(c.Stats().ZeroFills).To(Equal(uint64(1)))
			Expect(c.Stats().Resolved).To(Equal(uint64(1)))
		})

		It("should release the frame of a page that cannot be restored",
			func() {
				c = MakeBuilder().
					WithConfig(smallConfig()).
					WithSwapCodec(swap.CodecSnappy).
					Build("MMU")
				d = &driver{mmu: c}

				d.write(p1, 0, undecodable{})
				for vpn := uint64(1); vpn < 4; vpn++ {
					d.write(p1, vpn*4, 1)
				}
				Expect(c.swap.Has(1, 0)).To(BeTrue())

				outcome, err := c.Read(p1, 0, d.next())
				Expect(err).NotTo(HaveOccurred())
				Expect(vm.IsFault(outcome)).To(BeTrue())

				err = c.ResolveFault(p1, d.next())

				Expect(err).To(MatchError(vm.ErrInvariantViolation))
				Expect(c.frames.NumFree()).To(Equal(1))
				for _, o := range c.FrameOwnership() {
					if o.Owner == 1 {
						Expect(o.VPN).NotTo(Equal(vm.VPN(0)))
					}
				}

				d.write(p2, 0, "a")
				d.write(p2, 4, "b")
				Expect(d.read(p2, 0)).To(Equal("a"))
			})

		It("should change the scheduling state under the lock", func() {
			c.Yield(p1)
			Expect(p1.State).To(Equal(vm.ProcessStateReady))

			c.Dispatch(p1)
			Expect(p1.State).To(Equal(vm.ProcessStateRunning))

			c.Terminate(p1)
			Expect(func() { c.Dispatch(p1) }).To(Panic())
		})

		It("should be resolved through a fault handler", func() {
			buf := new(bytes.Buffer)
			h := NewFaultHandler(c,
				TickSourceFunc(func() vm.Tick { return 7 }),
				log.New(buf, "", 0))

			_, _ = c.Read(p1, 8, 1)
			Expect(h.Handle(p1)).To(Succeed())

			Expect(p1.State).To(Equal(vm.ProcessStateReady))
			Expect(c.FrameOwnership()[0].LastAccess).To(Equal(vm.Tick(7)))
			Expect(buf.String()).To(ContainSubstring("resolved"))

			Expect(h.Handle(p1)).To(MatchError(vm.ErrNotBlocked))
			Expect(buf.String()).To(ContainSubstring("not resolved"))
		})
	})

	Context("teardown", func() {
		It("should free frames and fault translations", func() {
			d.write(p1, 0, 1)
			d.write(p1, 4, 1)
			d.write(p2, 0, 2)

			c.ClearTable(p1)

			for _, o := range c.FrameOwnership() {
				Expect(o.Owner).NotTo(Equal(vm.PID(1)))
			}
			_, ok := c.Translate(p1, 0)
			Expect(ok).To(BeFalse())
			_, ok = c.Translate(p1, 4)
			Expect(ok).To(BeFalse())
			Expect(d.read(p2, 0)).To(Equal(2))
			Expect(c.PageTableEntries(1)).To(BeEmpty())
		})

		It("should purge swapped pages on termination", func() {
			for vpn := uint64(0); vpn < 4; vpn++ {
				d.write(p1, vpn*4, 1)
			}
			Expect(c.swap.Len()).To(Equal(1))

			c.Terminate(p1)

			Expect(p1.State).To(Equal(vm.ProcessStateTerminated))
			Expect(c.swap.Len()).To(Equal(0))
			Expect(c.frames.NumFree()).To(Equal(3))
			Expect(c.Processes()).To(BeEmpty())
			Expect(c.Stats().SwapPurged).To(Equal(uint64(1)))
		})

		It("should retain swapped pages when asked to", func() {
			c = MakeBuilder().
				WithConfig(smallConfig()).
				WithSwapPolicy(SwapPolicyRetain).
				Build("MMU")
			d = &driver{mmu: c}
			for vpn := uint64(0); vpn < 4; vpn++ {
				d.write(p1, vpn*4, 1)
			}

			_, err := c.ReapSwap(1)
			Expect(err).To(HaveOccurred())

			c.Terminate(p1)
			Expect(c.swap.Len()).To(Equal(1))

			n, err := c.ReapSwap(1)
			Expect(err).NotTo(HaveOccurred())
			Expect(n).To(Equal(1))
			Expect(c.swap.Len()).To(Equal(0))
		})

		It("should let a new process reuse the PID", func() {
			d.write(p1, 0, 1)
			c.Terminate(p1)

			again := vm.NewProcess(1)
			Expect(d.read(again, 0)).To(Equal(0))
		})

		It("should not hand retained pages to a new process with the PID",
			func() {
				c = MakeBuilder().
					WithConfig(smallConfig()).
					WithSwapPolicy(SwapPolicyRetain).
					Build("MMU")
				d = &driver{mmu: c}

				d.write(p1, 0, "secret")
				for vpn := uint64(1); vpn < 4; vpn++ {
					d.write(p1, vpn*4, 1)
				}
				Expect(c.swap.Has(1, 0)).To(BeTrue())

				c.Terminate(p1)
				Expect(c.swap.Len()).To(Equal(1))

				again := vm.NewProcess(1)
				Expect(d.read(again, 0)).To(Equal(0))
				Expect(c.swap.Len()).To(Equal(0))
				Expect(c.Stats().SwapPurged).To(Equal(uint64(1)))
				Expect(c.Stats().SwapIns).To(Equal(uint64(0)))
			})

		It("should free a single frame", func() {
			d.write(p1, 0, "lost")

			Expect(c.FreeFrame(2)).NotTo(Succeed())
			Expect(c.FreeFrame(100)).NotTo(Succeed())
			Expect(c.FreeFrame(16)).To(Succeed())

			_, ok := c.Translate(p1, 0)
			Expect(ok).To(BeFalse())
			Expect(d.read(p1, 0)).To(Equal(0))
		})
	})

	Context("hooks", func() {
		var (
			mockCtrl *gomock.Controller
			hook     *MockHook
		)

		BeforeEach(func() {
			mockCtrl = gomock.NewController(GinkgoT())
			hook = NewMockHook(mockCtrl)
			c.AcceptHook(hook)
		})

		AfterEach(func() {
			mockCtrl.Finish()
		})

		It("should report faults, evictions and teardowns", func() {
			var positions []*sim.HookPos
			hook.EXPECT().Func(gomock.Any()).
				Do(func(ctx sim.HookCtx) {
					Expect(ctx.Domain).To(BeIdenticalTo(c))
					positions = append(positions, ctx.Pos)
				}).
				AnyTimes()

			for vpn := uint64(0); vpn < 4; vpn++ {
				d.write(p1, vpn*4, 1)
			}
			c.Terminate(p1)

			Expect(positions).To(Equal([]*sim.HookPos{
				HookPosPageFault, HookPosFaultResolved,
				HookPosPageFault, HookPosFaultResolved,
				HookPosPageFault, HookPosFaultResolved,
				HookPosPageFault, HookPosEviction, HookPosFaultResolved,
				HookPosTeardown,
			}))
		})

		It("should describe the eviction", func() {
			var eviction EvictionEvent
			hook.EXPECT().Func(gomock.Any()).
				Do(func(ctx sim.HookCtx) {
					if ctx.Pos == HookPosEviction {
						eviction = ctx.Item.(EvictionEvent)
					}
				}).
				AnyTimes()

			for vpn := uint64(0); vpn < 3; vpn++ {
				d.write(p1, vpn*4, 1)
			}
			d.write(p2, 0, 1)

			Expect(eviction.Frame).To(Equal(vm.Frame(16)))
			Expect(eviction.Owner).To(Equal(vm.PID(1)))
			Expect(eviction.VPN).To(Equal(vm.VPN(0)))
			Expect(eviction.Requester).To(Equal(vm.PID(2)))
		})
	})

	It("should log through the log hook", func() {
		buf := new(bytes.Buffer)
		c = MakeBuilder().
			WithConfig(smallConfig()).
			WithLogger(log.New(buf, "", 0)).
			Build("MMU")
		d = &driver{mmu: c}

		for vpn := uint64(0); vpn < 4; vpn++ {
			d.write(p1, vpn*4, 1)
		}
		c.ClearTable(p1)
		c.Terminate(p1)

		Expect(buf.String()).To(ContainSubstring(
			"page fault: pid 1 write at address 0 (page 0)"))
		Expect(buf.String()).To(ContainSubstring("zero-filled"))
		Expect(buf.String()).To(ContainSubstring(
			"frame 16 evicted: page 0 of pid 1 swapped out for pid 1"))
		Expect(buf.String()).To(ContainSubstring("page table of pid 1 cleared"))
		Expect(buf.String()).To(ContainSubstring("pid 1 terminated"))
	})
})

var _ = Describe("Two usable frames of 256 words", func() {
	for _, codec := range []swap.Codec{
		swap.CodecNone, swap.CodecSnappy, swap.CodecLZ4,
	} {
		codec := codec

		It("should restore page 0 after eviction with codec "+
			codec.String(), func() {
			cfg := vm.DefaultConfig()
			cfg.PhysicalMemorySize = 10 * 256
			c := MakeBuilder().
				WithConfig(cfg).
				WithSwapCodec(codec).
				Build("MMU")
			p := vm.NewProcess(1)

			outcome, err := c.Write(p, 10, "X", 1)
			Expect(err).NotTo(HaveOccurred())
			Expect(outcome).To(Equal(vm.Fault{Address: 10, VPN: 0}))
			Expect(c.ResolveFault(p, 2)).To(Succeed())
			Expect(c.Write(p, 10, "X", 3)).To(Equal(vm.Hit{}))
			Expect(c.Read(p, 10, 4)).To(Equal(vm.Hit{Value: "X"}))

			Expect(c.Write(p, 300, "Y", 5)).
				To(Equal(vm.Fault{Address: 300, VPN: 1}))
			Expect(c.ResolveFault(p, 6)).To(Succeed())
			Expect(c.Write(p, 300, "Y", 7)).To(Equal(vm.Hit{}))

			Expect(c.Write(p, 600, "Z", 8)).
				To(Equal(vm.Fault{Address: 600, VPN: 2}))
			Expect(c.ResolveFault(p, 9)).To(Succeed())
			Expect(c.Write(p, 600, "Z", 10)).To(Equal(vm.Hit{}))

			Expect(c.Read(p, 10, 11)).
				To(Equal(vm.Fault{Address: 10, VPN: 0}))
			Expect(c.ResolveFault(p, 12)).To(Succeed())
			Expect(c.Read(p, 10, 13)).To(Equal(vm.Hit{Value: "X"}))

			pages, err := c.SwappedPages()
			Expect(err).NotTo(HaveOccurred())
			Expect(pages).To(HaveLen(1))
			Expect(pages[0].VPN).To(Equal(vm.VPN(1)))
			Expect(pages[0].Words[300-256]).To(Equal("Y"))
		})
	}
})
