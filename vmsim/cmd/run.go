package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"

	"github.com/pkg/browser"
	"github.com/spf13/cobra"
	"github.com/tebeka/atexit"

	"github.com/sarchlab/vmsim/datarecording"
	"github.com/sarchlab/vmsim/mem/vm/mmu"
	"github.com/sarchlab/vmsim/monitoring"
	"github.com/sarchlab/vmsim/tracing"
	"github.com/sarchlab/vmsim/workload"
)

var runCmd = &cobra.Command{
	Use:   "run [workload.yaml]",
	Short: "Run a workload on a memory manager.",
	Long: `Run a workload on a memory manager. Without a workload file, a ` +
		`built-in scenario writes a page, forces it out to the swap store ` +
		`and reads it back.`,
	Args: cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		w, err := loadWorkload(args)
		if err != nil {
			fatalf("Error loading workload: %v", err)
		}

		s, err := loadSettings(cmd, w)
		if err != nil {
			fatalf("Error loading settings: %v", err)
		}

		opts := readRunOptions(cmd)

		report, err := execute(cmd.Context(), w, s, opts, cmd.OutOrStdout())
		if err != nil {
			fatalf("Error running %s: %v", w.Name, err)
		}

		if report.Failed() {
			atexit.Exit(1)
		}
	},
}

func init() {
	addMemoryFlags(runCmd)

	runCmd.Flags().BoolP("verbose", "v", false,
		"log page faults, evictions and teardowns to stderr")
	runCmd.Flags().Bool("json", false, "print the report in JSON")
	runCmd.Flags().Bool("dump", false,
		"print the frame table and the swap store after the run")
	runCmd.Flags().String("trace", "",
		"record the memory manager events into the given SQLite file "+
			"(without the .sqlite3 suffix)")
	runCmd.Flags().Bool("monitor", false,
		"serve the memory manager state over HTTP until interrupted")
	runCmd.Flags().Int("port", 0, "port of the monitoring server")
	runCmd.Flags().Bool("open", false,
		"open the monitoring server in the browser")

	rootCmd.AddCommand(runCmd)
}

type runOptions struct {
	verbose bool
	json    bool
	dump    bool
	trace   string
	monitor bool
	port    int
	open    bool
}

func readRunOptions(cmd *cobra.Command) runOptions {
	var o runOptions

	o.verbose, _ = cmd.Flags().GetBool("verbose")
	o.json, _ = cmd.Flags().GetBool("json")
	o.dump, _ = cmd.Flags().GetBool("dump")
	o.trace, _ = cmd.Flags().GetString("trace")
	o.monitor, _ = cmd.Flags().GetBool("monitor")
	o.port, _ = cmd.Flags().GetInt("port")
	o.open, _ = cmd.Flags().GetBool("open")

	return o
}

func loadWorkload(args []string) (*workload.Workload, error) {
	if len(args) == 0 {
		return workload.RestoreScenario(), nil
	}

	return workload.Load(args[0])
}

func execute(
	ctx context.Context,
	w *workload.Workload,
	s settings,
	opts runOptions,
	out io.Writer,
) (workload.Report, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	var logger *log.Logger
	if opts.verbose {
		logger = log.New(os.Stderr, "", 0)
	}

	c, err := s.builder().WithLogger(logger).BuildE("MMU")
	if err != nil {
		return workload.Report{}, err
	}

	var recorder datarecording.DataRecorder
	if opts.trace != "" {
		recorder = datarecording.New(opts.trace)
		defer recorder.Close()

		tracing.CollectTrace(c, tracing.NewDBTracer(recorder))
	}

	runner := workload.NewRunner(c, logger)

	var monitor *monitoring.Monitor
	if opts.monitor {
		monitor = startMonitor(c, w, runner, opts)
	}

	report, runErr := runner.Run(ctx, w)

	if err := printReport(out, report, opts.json); err != nil {
		return report, err
	}

	if opts.dump {
		if err := dump(out, c); err != nil {
			return report, err
		}
	}

	if recorder != nil {
		if err := summarizeTrace(ctx, recorder, opts.trace, out); err != nil {
			return report, err
		}
	}

	if monitor != nil {
		waitForInterrupt(ctx)

		if err := monitor.StopServer(); err != nil {
			return report, err
		}
	}

	return report, runErr
}

// fatalf logs the error and exits through atexit, so that the recorded traces
// are flushed.
func fatalf(format string, args ...any) {
	log.Printf(format, args...)
	atexit.Exit(1)
}

func startMonitor(
	c *mmu.Comp,
	w *workload.Workload,
	runner *workload.Runner,
	opts runOptions,
) *monitoring.Monitor {
	monitor := monitoring.NewMonitor().WithPortNumber(opts.port)
	monitor.RegisterMemoryManager(c)

	bar := monitor.CreateProgressBar(w.Name, uint64(len(w.Steps)))
	runner.WithProgress(bar)

	url := monitor.StartServer()

	if opts.open {
		if err := browser.OpenURL(url); err != nil {
			fmt.Fprintf(os.Stderr, "Cannot open %s: %v\n", url, err)
		}
	}

	return monitor
}

func waitForInterrupt(ctx context.Context) {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	fmt.Fprintln(os.Stderr, "Run finished, press Ctrl+C to stop monitoring")
	<-ctx.Done()
}

func summarizeTrace(
	ctx context.Context,
	recorder datarecording.DataRecorder,
	path string,
	out io.Writer,
) error {
	if err := recorder.Close(); err != nil {
		return err
	}

	reader := datarecording.NewReader(path + ".sqlite3")
	defer reader.Close()

	tracing.MapTables(reader)

	summary, err := tracing.Summarize(ctx, reader)
	if err != nil {
		return err
	}

	fmt.Fprintf(out,
		"trace: %d page faults, %d resolved (%d from swap), "+
			"%d evictions, %d teardowns\n",
		summary.PageFaults, summary.FaultsResolved, summary.SwapIns,
		summary.Evictions, summary.Teardowns)

	return nil
}

func printReport(out io.Writer, report workload.Report, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")

		return enc.Encode(report)
	}

	st := report.Stats

	fmt.Fprintf(out, "%s: %d steps, %d reads, %d writes, final tick %d\n",
		report.Name, report.Steps, report.Reads, report.Writes,
		report.FinalTick)
	fmt.Fprintf(out,
		"faults %d, zero fills %d, swap ins %d, evictions %d, "+
			"teardowns %d\n",
		st.Faults, st.ZeroFills, st.SwapIns, st.Evictions, st.Teardowns)
	fmt.Fprintf(out, "memory usage %.2f%%, %d free frames, %d swapped pages\n",
		report.Usage*100, st.FreeFrames, st.Swap.Records)

	for _, m := range report.Mismatches {
		fmt.Fprintf(out, "step %d: %s read %v at %d, expected %v\n",
			m.Step, m.PID, m.Got, m.Address, m.Expected)
	}

	return nil
}
