// Package simulation assembles the engine, signals, memories and services of
// one testbench run.
package simulation

import (
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/sarchlab/tbsim/datarecording"
	"github.com/sarchlab/tbsim/hostif"
	"github.com/sarchlab/tbsim/mem"
	"github.com/sarchlab/tbsim/monitoring"
	"github.com/sarchlab/tbsim/signal"
	"github.com/sarchlab/tbsim/sim"
	"github.com/sarchlab/tbsim/tracing"
)

// A Simulation owns everything a test drives. It implements testbench.DUT.
type Simulation struct {
	id     string
	engine *sim.SerialEngine

	dataRecorder datarecording.DataRecorder
	tracers      []tracing.Tracer
	vcd          *tracing.VCDWriter
	monitor      *monitoring.Monitor
	console      io.Writer

	signals       []*signal.Signal
	signalIndex   map[string]int
	memories      []*mem.Storage
	memoryIndex   map[string]int
	components    []sim.Named
	compNameIndex map[string]int
	hostIfs       []*hostif.HostInterface

	terminated bool
}

// ID returns the unique ID of the simulation.
func (s *Simulation) ID() string {
	return s.id
}

// Engine returns the engine used in the simulation.
func (s *Simulation) Engine() sim.Engine {
	return s.engine
}

// SerialEngine returns the engine with its concrete type.
func (s *Simulation) SerialEngine() *sim.SerialEngine {
	return s.engine
}

// GetDataRecorder returns the data recorder, or nil if nothing is recorded.
func (s *Simulation) GetDataRecorder() datarecording.DataRecorder {
	return s.dataRecorder
}

// NewSignal creates and registers a signal.
func (s *Simulation) NewSignal(name string, width int) *signal.Signal {
	sig := signal.New(name, width)
	s.RegisterSignal(sig)

	return sig
}

// RegisterSignal makes a signal reachable by name, traced and monitored.
func (s *Simulation) RegisterSignal(sig *signal.Signal) {
	if _, found := s.signalIndex[sig.Name()]; found {
		panic("signal " + sig.Name() + " already registered")
	}

	s.signals = append(s.signals, sig)
	s.signalIndex[sig.Name()] = len(s.signals) - 1

	for _, t := range s.tracers {
		t.TraceSignal(sig)
	}

	if s.monitor != nil {
		s.monitor.RegisterSignal(sig)
	}
}

// NewMemory creates and registers a memory.
func (s *Simulation) NewMemory(name string, capacity uint64) *mem.Storage {
	m := mem.NewStorage(name, capacity)
	s.RegisterMemory(m)

	return m
}

// RegisterMemory makes a memory reachable by name, traced and monitored.
func (s *Simulation) RegisterMemory(m *mem.Storage) {
	if _, found := s.memoryIndex[m.Name()]; found {
		panic("memory " + m.Name() + " already registered")
	}

	s.memories = append(s.memories, m)
	s.memoryIndex[m.Name()] = len(s.memories) - 1

	for _, t := range s.tracers {
		t.TraceMemory(m)
	}

	if s.monitor != nil {
		s.monitor.RegisterMemory(m)
	}
}

// RegisterComponent registers a component with the simulation.
func (s *Simulation) RegisterComponent(c sim.Named) {
	compName := c.Name()
	if _, found := s.compNameIndex[compName]; found {
		panic("component " + compName + " already registered")
	}

	s.components = append(s.components, c)
	s.compNameIndex[compName] = len(s.components) - 1

	if s.monitor != nil {
		s.monitor.RegisterComponent(c)
	}
}

// AttachHostInterface watches a registered memory for the firmware's
// tohost and hosthalt stores. A halt stops the engine.
func (s *Simulation) AttachHostInterface(
	memName string,
	b hostif.Builder,
) *hostif.HostInterface {
	h := b.
		WithConsole(s.console).
		WithTimeTeller(s.engine).
		WithHaltHandler(func(uint32) { s.engine.Stop() }).
		Build(memName+".HostInterface", s.Memory(memName))

	s.hostIfs = append(s.hostIfs, h)
	s.RegisterComponent(h)

	return h
}

// Signal returns the signal with the given name. It panics if there is none,
// so that a test naming a wrong signal fails where the name is.
func (s *Simulation) Signal(name string) *signal.Signal {
	i, found := s.signalIndex[name]
	if !found {
		log.Panicf("no signal named %q", name)
	}

	return s.signals[i]
}

// Memory returns the memory with the given name. It panics if there is none.
func (s *Simulation) Memory(name string) *mem.Storage {
	i, found := s.memoryIndex[name]
	if !found {
		log.Panicf("no memory named %q", name)
	}

	return s.memories[i]
}

// Signals returns the registered signals.
func (s *Simulation) Signals() []*signal.Signal {
	return s.signals
}

// Memories returns the registered memories.
func (s *Simulation) Memories() []*mem.Storage {
	return s.memories
}

// Components returns all registered components.
func (s *Simulation) Components() []sim.Named {
	return s.components
}

// GetComponentByName returns the component with the given name.
func (s *Simulation) GetComponentByName(name string) sim.Named {
	i, found := s.compNameIndex[name]
	if !found {
		return nil
	}

	return s.components[i]
}

// Halted reports whether a host interface received a halt.
func (s *Simulation) Halted() bool {
	for _, h := range s.hostIfs {
		halted, _, _ := h.Halted()
		if halted {
			return true
		}
	}

	return false
}

// ConsoleOutput returns what the firmware printed through every host
// interface, in the order the interfaces were attached.
func (s *Simulation) ConsoleOutput() string {
	var b strings.Builder
	for _, h := range s.hostIfs {
		b.WriteString(h.Output())
	}

	return b.String()
}

// HostInterfaces returns the attached host interfaces.
func (s *Simulation) HostInterfaces() []*hostif.HostInterface {
	return s.hostIfs
}

// Terminate flushes traces, closes the output files and detaches the monitor.
func (s *Simulation) Terminate() {
	if s.terminated {
		return
	}
	s.terminated = true

	s.engine.Finished()

	for _, t := range s.tracers {
		t.Terminate()
	}

	if s.vcd != nil {
		if err := s.vcd.Err(); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to write VCD file: %v\n", err)
		}
	}

	if s.dataRecorder != nil {
		if err := s.dataRecorder.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to close the data recorder: %v\n", err)
		}
	}

	if s.monitor != nil {
		s.monitor.Reset()
	}
}
