// Package monitoring serves the state of a running testbench over HTTP.
package monitoring

import (
	"bytes"
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"runtime/pprof"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/pprof/profile"
	"github.com/gorilla/mux"
	"github.com/pkg/browser"
	"github.com/shirou/gopsutil/process"
	"github.com/syifan/goseth"

	"github.com/sarchlab/tbsim/mem"
	"github.com/sarchlab/tbsim/signal"
	"github.com/sarchlab/tbsim/sim"
)

// maxMemoryDump bounds the number of bytes /api/memory returns at once.
const maxMemoryDump = 4096

// Monitor can turn a simulation into a server and allows external monitoring
// controlling of the simulation.
type Monitor struct {
	simLock    sync.RWMutex
	engine     sim.Engine
	components []sim.Named
	signals    []*signal.Signal
	memories   []*mem.Storage
	portNumber int

	progressBarsLock sync.Mutex
	progressBars     []*ProgressBar

	server   *http.Server
	listener net.Listener
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

// RegisterEngine registers the engine that is used in the simulation.
func (m *Monitor) RegisterEngine(e sim.Engine) {
	m.simLock.Lock()
	defer m.simLock.Unlock()

	m.engine = e
}

// RegisterComponent registers a component to be inspected.
func (m *Monitor) RegisterComponent(c sim.Named) {
	m.simLock.Lock()
	defer m.simLock.Unlock()

	m.components = append(m.components, c)
}

// RegisterSignal registers a signal whose value can be read.
func (m *Monitor) RegisterSignal(s *signal.Signal) {
	m.simLock.Lock()
	defer m.simLock.Unlock()

	m.signals = append(m.signals, s)
}

// RegisterMemory registers a memory whose content can be read.
func (m *Monitor) RegisterMemory(s *mem.Storage) {
	m.simLock.Lock()
	defer m.simLock.Unlock()

	m.memories = append(m.memories, s)
}

// Reset forgets the engine, components, signals and memories registered so
// far. Progress bars are kept.
func (m *Monitor) Reset() {
	m.simLock.Lock()
	defer m.simLock.Unlock()

	m.engine = nil
	m.components = nil
	m.signals = nil
	m.memories = nil
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

// CompleteProgressBar removes a bar from the list of progress bars.
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

// Router returns the HTTP handler serving the monitor API.
func (m *Monitor) Router() http.Handler {
	r := mux.NewRouter()

	r.HandleFunc("/api/pause", m.pauseEngine)
	r.HandleFunc("/api/continue", m.continueEngine)
	r.HandleFunc("/api/now", m.now)
	r.HandleFunc("/api/list_components", m.listComponents)
	r.HandleFunc("/api/component/{name}", m.listComponentDetails)
	r.HandleFunc("/api/field/{json}", m.listFieldValue)
	r.HandleFunc("/api/signals", m.listSignals)
	r.HandleFunc("/api/signal/{name}", m.signalValue)
	r.HandleFunc("/api/memory/{name}", m.dumpMemory)
	r.HandleFunc("/api/progress", m.listProgressBars)
	r.HandleFunc("/api/resource", m.listResources)
	r.HandleFunc("/api/profile", m.collectProfile)
	r.HandleFunc("/", m.index)

	return r
}

// StartServer starts the monitor as a web server.
func (m *Monitor) StartServer() error {
	actualPort := ":0"
	if m.portNumber > 1000 {
		actualPort = ":" + strconv.Itoa(m.portNumber)
	}

	listener, err := net.Listen("tcp", actualPort)
	if err != nil {
		return err
	}

	m.listener = listener
	m.server = &http.Server{
		Handler:           m.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	fmt.Fprintf(os.Stderr, "Monitoring simulation with %s\n", m.URL())

	go func() {
		err := m.server.Serve(listener)
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Panic(err)
		}
	}()

	return nil
}

// URL returns the address of the running server.
func (m *Monitor) URL() string {
	if m.listener == nil {
		return ""
	}

	return fmt.Sprintf("http://localhost:%d",
		m.listener.Addr().(*net.TCPAddr).Port)
}

// OpenInBrowser opens the monitor in the default browser.
func (m *Monitor) OpenInBrowser() error {
	if m.listener == nil {
		return errors.New("monitoring server is not running")
	}

	return browser.OpenURL(m.URL())
}

// StopServer shuts the server down.
func (m *Monitor) StopServer(ctx context.Context) error {
	if m.server == nil {
		return nil
	}

	return m.server.Shutdown(ctx)
}

func (m *Monitor) index(w http.ResponseWriter, _ *http.Request) {
	fmt.Fprintln(w, "tbsim monitor")
	fmt.Fprintln(w, "  /api/now /api/pause /api/continue")
	fmt.Fprintln(w, "  /api/signals /api/signal/{name} /api/memory/{name}?addr=&len=")
	fmt.Fprintln(w, "  /api/list_components /api/component/{name}")
	fmt.Fprintln(w, "  /api/progress /api/resource /api/profile")
}

// snapshot returns what is registered now. The handlers run on server
// goroutines while the runner registers and resets simulations.
func (m *Monitor) snapshot() (
	sim.Engine, []sim.Named, []*signal.Signal, []*mem.Storage,
) {
	m.simLock.RLock()
	defer m.simLock.RUnlock()

	return m.engine, m.components, m.signals, m.memories
}

func (m *Monitor) engineOr503(w http.ResponseWriter) sim.Engine {
	engine, _, _, _ := m.snapshot()
	if engine == nil {
		http.Error(w, "No simulation is running", http.StatusServiceUnavailable)
	}

	return engine
}

func (m *Monitor) pauseEngine(w http.ResponseWriter, _ *http.Request) {
	engine := m.engineOr503(w)
	if engine == nil {
		return
	}

	engine.Pause()
	_, err := w.Write(nil)
	dieOnErr(err)
}

func (m *Monitor) continueEngine(w http.ResponseWriter, _ *http.Request) {
	engine := m.engineOr503(w)
	if engine == nil {
		return
	}

	engine.Continue()
	_, err := w.Write(nil)
	dieOnErr(err)
}

type nowRsp struct {
	Now  uint64 `json:"now"`
	Text string `json:"text"`
}

func (m *Monitor) now(w http.ResponseWriter, _ *http.Request) {
	engine := m.engineOr503(w)
	if engine == nil {
		return
	}

	now := engine.CurrentTime()
	writeJSON(w, nowRsp{Now: uint64(now), Text: now.String()})
}

func (m *Monitor) listComponents(w http.ResponseWriter, _ *http.Request) {
	_, components, _, _ := m.snapshot()

	names := make([]string, 0, len(components))
	for _, c := range components {
		names = append(names, c.Name())
	}

	writeJSON(w, names)
}

func (m *Monitor) listComponentDetails(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]

	component := m.findComponentOr404(w, name)
	if component == nil {
		return
	}

	serializer := goseth.NewSerializer()
	serializer.SetRoot(component)
	serializer.SetMaxDepth(1)
	err := serializer.Serialize(w)

	dieOnErr(err)
}

type fieldReq struct {
	CompName  string `json:"comp_name,omitempty"`
	FieldName string `json:"field_name,omitempty"`
}

func (m *Monitor) listFieldValue(w http.ResponseWriter, r *http.Request) {
	req := fieldReq{}

	err := json.Unmarshal([]byte(mux.Vars(r)["json"]), &req)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	component := m.findComponentOr404(w, req.CompName)
	if component == nil {
		return
	}

	serializer := goseth.NewSerializer()
	serializer.SetRoot(component)
	serializer.SetMaxDepth(1)

	err = serializer.SetEntryPoint(strings.Split(req.FieldName, "."))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	err = serializer.Serialize(w)
	dieOnErr(err)
}

type signalRsp struct {
	Name  string `json:"name"`
	Width int    `json:"width"`
	Value uint64 `json:"value"`
}

func makeSignalRsp(s *signal.Signal) signalRsp {
	return signalRsp{Name: s.Name(), Width: s.Width(), Value: s.Value()}
}

func (m *Monitor) listSignals(w http.ResponseWriter, _ *http.Request) {
	_, _, signals, _ := m.snapshot()

	rsp := make([]signalRsp, 0, len(signals))
	for _, s := range signals {
		rsp = append(rsp, makeSignalRsp(s))
	}

	writeJSON(w, rsp)
}

func (m *Monitor) signalValue(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	_, _, signals, _ := m.snapshot()

	for _, s := range signals {
		if s.Name() == name {
			writeJSON(w, makeSignalRsp(s))
			return
		}
	}

	http.Error(w, "Signal not found", http.StatusNotFound)
}

type memoryRsp struct {
	Name string `json:"name"`
	Addr uint64 `json:"addr"`
	Data string `json:"data"`
}

func (m *Monitor) dumpMemory(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]

	_, _, _, memories := m.snapshot()

	var storage *mem.Storage
	for _, s := range memories {
		if s.Name() == name {
			storage = s
		}
	}

	if storage == nil {
		http.Error(w, "Memory not found", http.StatusNotFound)
		return
	}

	addr, length, err := parseRange(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	data, err := storage.Read(addr, length)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	writeJSON(w, memoryRsp{Name: name, Addr: addr, Data: hex.EncodeToString(data)})
}

func parseRange(r *http.Request) (addr, length uint64, err error) {
	query := r.URL.Query()

	length = 64

	if s := query.Get("addr"); s != "" {
		addr, err = strconv.ParseUint(s, 0, 64)
		if err != nil {
			return 0, 0, fmt.Errorf("invalid addr: %w", err)
		}
	}

	if s := query.Get("len"); s != "" {
		length, err = strconv.ParseUint(s, 0, 64)
		if err != nil {
			return 0, 0, fmt.Errorf("invalid len: %w", err)
		}
	}

	if length > maxMemoryDump {
		return 0, 0, fmt.Errorf("len cannot exceed %d", maxMemoryDump)
	}

	return addr, length, nil
}

func (m *Monitor) findComponentOr404(
	w http.ResponseWriter,
	name string,
) sim.Named {
	_, components, _, _ := m.snapshot()

	for _, c := range components {
		if c.Name() == name {
			return c
		}
	}

	w.WriteHeader(http.StatusNotFound)
	_, err := w.Write([]byte("Component not found"))
	dieOnErr(err)

	return nil
}

func (m *Monitor) listProgressBars(w http.ResponseWriter, _ *http.Request) {
	m.progressBarsLock.Lock()
	defer m.progressBarsLock.Unlock()

	writeJSON(w, m.progressBars)
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

func (m *Monitor) collectProfile(w http.ResponseWriter, _ *http.Request) {
	buf := bytes.NewBuffer(nil)

	err := pprof.StartCPUProfile(buf)
	if err != nil {
		http.Error(w, err.Error(), http.StatusConflict)
		return
	}

	time.Sleep(time.Second)

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
