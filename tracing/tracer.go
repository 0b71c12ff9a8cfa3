// Package tracing records what happens to the signals and memories of a
// testbench.
package tracing

import (
	"github.com/sarchlab/tbsim/mem"
	"github.com/sarchlab/tbsim/signal"
)

// A Tracer follows the signals, and possibly the memories, it is given.
type Tracer interface {
	TraceSignal(s *signal.Signal)
	TraceMemory(m *mem.Storage)

	// Terminate writes out whatever the tracer still buffers.
	Terminate()
}

// Transition is a value a signal takes at a time.
type Transition struct {
	Time   uint64
	Signal string
	Value  uint64
}

// SignalInfo describes a traced signal.
type SignalInfo struct {
	Name  string
	Width int
}

// MemoryWrite is a write to a traced memory.
type MemoryWrite struct {
	Time   uint64
	Memory string
	Addr   uint64
	Size   int
}

// Names of the tables the DBTracer writes.
const (
	SignalTable     = "signals"
	TransitionTable = "signal_transitions"
	MemWriteTable   = "memory_writes"
)
