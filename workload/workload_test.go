package workload_test

import (
	"bytes"
	"context"
	"log"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/vmsim/mem/vm"
	"github.com/sarchlab/vmsim/mem/vm/mmu"
	"github.com/sarchlab/vmsim/workload"
)

type countingProgress struct {
	finished uint64
}

func (p *countingProgress) IncrementFinished(amount uint64) {
	p.finished += amount
}

func build(w *workload.Workload) *mmu.Comp {
	return mmu.MakeBuilder().
		WithConfig(w.Memory.ApplyTo(vm.DefaultConfig())).
		Build("MMU")
}

var _ = Describe("Workload", func() {
	It("should load a workload file", func() {
		w, err := workload.Load("testdata/lru.yaml")

		Expect(err).NotTo(HaveOccurred())
		Expect(w.Name).To(Equal("lru"))
		Expect(w.Memory.SwapCodec).To(Equal("snappy"))
		Expect(w.Steps).To(HaveLen(9))
		Expect(w.Steps[0].Value).To(Equal(100))
		Expect(w.Steps[3].Value).To(Equal("a"))
		Expect(w.Steps[7].Op).To(Equal(workload.OpTerminate))
	})

	It("should reject unknown fields", func() {
		_, err := workload.Load("testdata/unknown_field.yaml")

		Expect(err).To(HaveOccurred())
	})

	It("should reject missing files", func() {
		_, err := workload.Load("testdata/missing.yaml")

		Expect(err).To(HaveOccurred())
	})

	DescribeTable("invalid steps",
		func(doc string) {
			_, err := workload.Parse([]byte(doc))
			Expect(err).To(HaveOccurred())
		},
		Entry("PID 0", "steps: [{pid: 0, op: read}]"),
		Entry("unknown op", "steps: [{pid: 1, op: jump}]"),
		Entry("write without value", "steps: [{pid: 1, op: write}]"),
	)

	It("should apply memory settings", func() {
		m := workload.Memory{PageSize: 16, ReservedPageTableFrames: 2}

		cfg := m.ApplyTo(vm.DefaultConfig())

		Expect(cfg.PageSize).To(Equal(uint64(16)))
		Expect(cfg.ReservedPageTableFrames).To(Equal(uint64(2)))
		Expect(cfg.PhysicalMemorySize).To(Equal(uint64(4096)))
	})

	It("should encode the built-in scenario", func() {
		data, err := workload.RestoreScenario().Marshal()
		Expect(err).NotTo(HaveOccurred())

		w, err := workload.Parse(data)
		Expect(err).NotTo(HaveOccurred())
		Expect(w.Steps).To(Equal(workload.RestoreScenario().Steps))
	})
})

var _ = Describe("Runner", func() {
	It("should run the built-in scenario", func() {
		w := workload.RestoreScenario()
		c := build(w)
		progress := &countingProgress{}
		r := workload.NewRunner(c, nil).WithProgress(progress)

		report, err := r.Run(context.Background(), w)

		Expect(err).NotTo(HaveOccurred())
		Expect(report.Failed()).To(BeFalse())
		Expect(report.Steps).To(Equal(7))
		Expect(report.Reads).To(Equal(3))
		Expect(report.Writes).To(Equal(3))
		Expect(report.Faults).To(Equal(5))
		Expect(report.Stats.Evictions).To(Equal(uint64(3)))
		Expect(report.Stats.SwapIns).To(Equal(uint64(2)))
		Expect(report.Stats.Terminated).To(Equal(uint64(1)))
		Expect(report.FinalTick).To(Equal(r.CurrentTick()))
		Expect(progress.finished).To(Equal(uint64(7)))
	})

	It("should let snapshots be taken while running", func() {
		w := workload.RestoreScenario()
		c := build(w)
		r := workload.NewRunner(c, nil)

		done := make(chan struct{})
		watched := make(chan int)

		go func() {
			defer GinkgoRecover()

			n := 0
			for {
				for _, p := range c.Processes() {
					Expect(p.PID).To(Equal(vm.PID(1)))
				}
				_, _ = c.Process(1)
				n++

				select {
				case <-done:
					watched <- n
					return
				default:
				}
			}
		}()

		report, err := r.Run(context.Background(), w)
		close(done)

		Expect(err).NotTo(HaveOccurred())
		Expect(report.Failed()).To(BeFalse())
		Expect(<-watched).To(BeNumerically(">", 0))
	})

	It("should run a workload file", func() {
		w, err := workload.Load("testdata/lru.yaml")
		Expect(err).NotTo(HaveOccurred())

		buf := new(bytes.Buffer)
		r := workload.NewRunner(build(w), log.New(buf, "", 0))

		report, err := r.Run(context.Background(), w)

		Expect(err).NotTo(HaveOccurred())
		Expect(report.Mismatches).To(BeEmpty())
		Expect(report.Stats.LiveProcesses).To(Equal(1))
		Expect(buf.String()).To(ContainSubstring("resolved"))
	})

	It("should report unexpected values", func() {
		w := &workload.Workload{
			Steps: []workload.Step{
				{PID: 1, Op: workload.OpWrite, Address: 3, Value: "X"},
				{PID: 1, Op: workload.OpRead, Address: 3, Expect: "Y"},
			},
		}

		report, err := workload.NewRunner(build(w), nil).
			Run(context.Background(), w)

		Expect(err).NotTo(HaveOccurred())
		Expect(report.Failed()).To(BeTrue())
		Expect(report.Mismatches[0].Got).To(Equal("X"))
		Expect(report.Mismatches[0].Step).To(Equal(1))
	})

	It("should stop on errors", func() {
		w := &workload.Workload{
			Steps: []workload.Step{
				{PID: 1, Op: workload.OpRead, Address: 1 << 20},
			},
		}

		_, err := workload.NewRunner(build(w), nil).
			Run(context.Background(), w)

		Expect(err).To(MatchError(vm.ErrAddressOutOfRange))
	})

	It("should not reap the swap of live processes", func() {
		w := &workload.Workload{
			Steps: []workload.Step{
				{PID: 1, Op: workload.OpRead},
				{PID: 1, Op: workload.OpReap},
			},
		}

		report, err := workload.NewRunner(build(w), nil).
			Run(context.Background(), w)

		Expect(err).To(HaveOccurred())
		Expect(report.Steps).To(Equal(1))
	})

	It("should stop when the context is done", func() {
		w := workload.RestoreScenario()
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		report, err := workload.NewRunner(build(w), nil).Run(ctx, w)

		Expect(err).To(MatchError(context.Canceled))
		Expect(report.Steps).To(Equal(0))
	})

	It("should let a PID be reused after termination", func() {
		w := &workload.Workload{
			Steps: []workload.Step{
				{PID: 1, Op: workload.OpWrite, Address: 0, Value: 5},
				{PID: 1, Op: workload.OpTerminate},
				{PID: 1, Op: workload.OpRead, Address: 0, Expect: 0},
			},
		}

		report, err := workload.NewRunner(build(w), nil).
			Run(context.Background(), w)

		Expect(err).NotTo(HaveOccurred())
		Expect(report.Failed()).To(BeFalse())
	})
})
