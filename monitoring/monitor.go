// Package monitoring serves the state of running memory managers over HTTP.
package monitoring

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"runtime/pprof"
	"strconv"
	"sync"
	"time"

	"github.com/google/pprof/profile"
	"github.com/gorilla/mux"
	"github.com/shirou/gopsutil/process"
	"github.com/syifan/goseth"

	"github.com/sarchlab/vmsim/mem/vm"
	"github.com/sarchlab/vmsim/mem/vm/mmu"
	"github.com/sarchlab/vmsim/sim"
)

// Monitor turns a simulation into a server that reports the frames, the swap
// store and the processes of memory managers.
type Monitor struct {
	portNumber int
	mmus       []*mmu.Comp

	progressBarsLock sync.Mutex
	progressBars     []*ProgressBar

	server *http.Server
}

// NewMonitor creates a new Monitor
func NewMonitor() *Monitor {
	return &Monitor{}
}

// WithPortNumber sets the port number of the monitor.
func (m *Monitor) WithPortNumber(portNumber int) *Monitor {
	if portNumber != 0 && portNumber < 1000 {
		fmt.Fprintf(os.Stderr,
			"Port number %d is assigned to the monitoring server, "+
				"which is not allowed. Using a random port instead.\n", portNumber)
		portNumber = 0
	}

	m.portNumber = portNumber

	return m
}

// RegisterMemoryManager registers a memory manager to be monitored.
func (m *Monitor) RegisterMemoryManager(c *mmu.Comp) {
	for _, registered := range m.mmus {
		if registered.Name() == c.Name() {
			panic(fmt.Sprintf("memory manager %s already registered",
				c.Name()))
		}
	}

	m.mmus = append(m.mmus, c)
}

// CreateProgressBar creates a new progress bar.
func (m *Monitor) CreateProgressBar(name string, total uint64) *ProgressBar {
	bar := &ProgressBar{
		ID:        sim.GetIDGenerator().Generate(),
		Name:      name,
		StartTime: time.Now(),
		Total:     total,
	}

	m.progressBarsLock.Lock()
	defer m.progressBarsLock.Unlock()

	m.progressBars = append(m.progressBars, bar)

	return bar
}

// CompleteProgressBar removes a bar to be shown on the webpage.
func (m *Monitor) CompleteProgressBar(pb *ProgressBar) {
	m.progressBarsLock.Lock()
	defer m.progressBarsLock.Unlock()

	newBars := make([]*ProgressBar, 0, len(m.progressBars))
	for _, b := range m.progressBars {
		if b != pb {
			newBars = append(newBars, b)
		}
	}

	m.progressBars = newBars
}

// Handler returns the router that serves the monitoring API.
func (m *Monitor) Handler() http.Handler {
	r := mux.NewRouter()

	r.HandleFunc("/api/list_mmus", m.listMMUs)
	r.HandleFunc("/api/mmu/{name}/stats", m.reportStats)
	r.HandleFunc("/api/mmu/{name}/usage", m.reportUsage)
	r.HandleFunc("/api/mmu/{name}/frames", m.listFrames)
	r.HandleFunc("/api/mmu/{name}/swap", m.listSwappedPages)
	r.HandleFunc("/api/mmu/{name}/processes", m.listProcesses)
	r.HandleFunc("/api/mmu/{name}/process/{pid}", m.processDetails)
	r.HandleFunc("/api/mmu/{name}/pagetable/{pid}", m.listPageTable)
	r.HandleFunc("/api/progress", m.listProgressBars)
	r.HandleFunc("/api/resource", m.listResources)
	r.HandleFunc("/api/profile", m.collectProfile)

	return r
}

// StartServer starts serving in the background and returns the URL of the
// server.
func (m *Monitor) StartServer() string {
	actualPort := ":0"
	if m.portNumber > 1000 {
		actualPort = ":" + strconv.Itoa(m.portNumber)
	}

	listener, err := net.Listen("tcp", actualPort)
	dieOnErr(err)

	url := fmt.Sprintf("http://localhost:%d",
		listener.Addr().(*net.TCPAddr).Port)

	fmt.Fprintf(os.Stderr, "Monitoring simulation with %s\n", url)

	m.server = &http.Server{
		Handler:           m.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		err := m.server.Serve(listener)
		if err != http.ErrServerClosed {
			dieOnErr(err)
		}
	}()

	return url
}

// StopServer stops a server started with StartServer.
func (m *Monitor) StopServer() error {
	if m.server == nil {
		return nil
	}

	return m.server.Close()
}

func (m *Monitor) listMMUs(w http.ResponseWriter, _ *http.Request) {
	names := make([]string, 0, len(m.mmus))
	for _, c := range m.mmus {
		names = append(names, c.Name())
	}

	writeJSON(w, names)
}

func (m *Monitor) reportStats(w http.ResponseWriter, r *http.Request) {
	c := m.findMMUOr404(w, r)
	if c == nil {
		return
	}

	writeJSON(w, c.Stats())
}

type usageRsp struct {
	Usage float64 `json:"usage"`
}

func (m *Monitor) reportUsage(w http.ResponseWriter, r *http.Request) {
	c := m.findMMUOr404(w, r)
	if c == nil {
		return
	}

	writeJSON(w, usageRsp{Usage: c.MemoryUsage()})
}

func (m *Monitor) listFrames(w http.ResponseWriter, r *http.Request) {
	c := m.findMMUOr404(w, r)
	if c == nil {
		return
	}

	writeJSON(w, c.FrameOwnership())
}

func (m *Monitor) listSwappedPages(w http.ResponseWriter, r *http.Request) {
	c := m.findMMUOr404(w, r)
	if c == nil {
		return
	}

	pages, err := c.SwappedPages()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, pages)
}

type processRsp struct {
	PID          vm.PID `json:"pid"`
	State        string `json:"state"`
	FaultAddress uint64 `json:"fault_address"`
	PageTable    uint64 `json:"page_table_base"`
}

func (m *Monitor) listProcesses(w http.ResponseWriter, r *http.Request) {
	c := m.findMMUOr404(w, r)
	if c == nil {
		return
	}

	processes := c.Processes()
	rsp := make([]processRsp, 0, len(processes))

	for _, p := range processes {
		base, _ := p.PageTableBase()
		rsp = append(rsp, processRsp{
			PID:          p.PID,
			State:        p.State.String(),
			FaultAddress: p.FaultAddress,
			PageTable:    base,
		})
	}

	writeJSON(w, rsp)
}

func (m *Monitor) processDetails(w http.ResponseWriter, r *http.Request) {
	c := m.findMMUOr404(w, r)
	if c == nil {
		return
	}

	pid, ok := parsePIDOr400(w, r)
	if !ok {
		return
	}

	p, found := c.Process(pid)
	if !found {
		http.Error(w, "Process not found", http.StatusNotFound)
		return
	}

	serializer := goseth.NewSerializer()
	serializer.SetRoot(&p)
	serializer.SetMaxDepth(1)
	err := serializer.Serialize(w)

	dieOnErr(err)
}

func (m *Monitor) listPageTable(w http.ResponseWriter, r *http.Request) {
	c := m.findMMUOr404(w, r)
	if c == nil {
		return
	}

	pid, ok := parsePIDOr400(w, r)
	if !ok {
		return
	}

	writeJSON(w, c.PageTableEntries(pid))
}

func (m *Monitor) findMMUOr404(
	w http.ResponseWriter,
	r *http.Request,
) *mmu.Comp {
	name := mux.Vars(r)["name"]

	for _, c := range m.mmus {
		if c.Name() == name {
			return c
		}
	}

	http.Error(w, "Memory manager not found", http.StatusNotFound)

	return nil
}

func parsePIDOr400(w http.ResponseWriter, r *http.Request) (vm.PID, bool) {
	pid, err := strconv.ParseUint(mux.Vars(r)["pid"], 10, 32)
	if err != nil || pid == 0 {
		http.Error(w, "Invalid PID", http.StatusBadRequest)
		return 0, false
	}

	return vm.PID(pid), true
}

func (m *Monitor) listProgressBars(w http.ResponseWriter, _ *http.Request) {
	m.progressBarsLock.Lock()
	bars := make([]progressBarRsp, 0, len(m.progressBars))
	for _, b := range m.progressBars {
		bars = append(bars, b.snapshot())
	}
	m.progressBarsLock.Unlock()

	writeJSON(w, bars)
}

type resourceRsp struct {
	CPUPercent float64 `json:"cpu_percent"`
	MemorySize uint64  `json:"memory_size"`
}

func (m *Monitor) listResources(w http.ResponseWriter, _ *http.Request) {
	pid := os.Getpid()
	process, err := process.NewProcess(int32(pid))
	dieOnErr(err)

	cpuPercent, err := process.CPUPercent()
	dieOnErr(err)

	memorySize, err := process.MemoryInfo()
	dieOnErr(err)

	writeJSON(w, resourceRsp{
		CPUPercent: cpuPercent,
		MemorySize: memorySize.RSS,
	})
}

func (m *Monitor) collectProfile(w http.ResponseWriter, r *http.Request) {
	duration := time.Second

	if d := r.URL.Query().Get("duration"); d != "" {
		parsed, err := time.ParseDuration(d)
		if err != nil || parsed <= 0 {
			http.Error(w, "Invalid duration", http.StatusBadRequest)
			return
		}

		duration = parsed
	}

	buf := bytes.NewBuffer(nil)

	err := pprof.StartCPUProfile(buf)
	if err != nil {
		http.Error(w, err.Error(), http.StatusConflict)
		return
	}

	time.Sleep(duration)

	pprof.StopCPUProfile()

	prof, err := profile.ParseData(buf.Bytes())
	dieOnErr(err)

	writeJSON(w, prof)
}

func writeJSON(w http.ResponseWriter, v any) {
	bytes, err := json.Marshal(v)
	dieOnErr(err)

	w.Header().Set("Content-Type", "application/json")
	_, err = w.Write(bytes)
	dieOnErr(err)
}

func dieOnErr(err error) {
	if err != nil {
		log.Panic(err)
	}
}
