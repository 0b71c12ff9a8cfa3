// Package signal provides the named wires a testbench drives and watches.
package signal

import (
	"fmt"
	"log"
	"sync/atomic"

	"github.com/sarchlab/tbsim/sim"
)

// Edge classifies a change of a signal.
type Edge int

// Kinds of changes.
const (
	NoEdge Edge = iota
	RisingEdge
	FallingEdge
	AnyChange
)

func (e Edge) String() string {
	switch e {
	case NoEdge:
		return "none"
	case RisingEdge:
		return "rising"
	case FallingEdge:
		return "falling"
	case AnyChange:
		return "change"
	default:
		return fmt.Sprintf("Edge(%d)", int(e))
	}
}

// HookPosChange marks that the value of a signal has changed.
var HookPosChange = &sim.HookPos{Name: "SignalChange"}

// Change is the detail carried by hooks at HookPosChange.
type Change struct {
	Signal *Signal
	Old    uint64
	New    uint64
	Edge   Edge
}

// A Signal is a named value of 1 to 64 bits.
type Signal struct {
	sim.HookableBase

	name  string
	width int
	value atomic.Uint64
}

// New creates a signal. It panics if width is not within 1..64.
func New(name string, width int) *Signal {
	if width < 1 || width > 64 {
		log.Panicf("signal %s: width %d out of range", name, width)
	}

	return &Signal{name: name, width: width}
}

// NewBit creates a 1-bit signal.
func NewBit(name string) *Signal {
	return New(name, 1)
}

// Name returns the name of the signal.
func (s *Signal) Name() string {
	return s.name
}

// Width returns the number of bits of the signal.
func (s *Signal) Width() int {
	return s.width
}

// Value returns the current value.
func (s *Signal) Value() uint64 {
	return s.value.Load()
}

// Bool reports whether the value is non-zero.
func (s *Signal) Bool() bool {
	return s.value.Load() != 0
}

func (s *Signal) mask() uint64 {
	if s.width == 64 {
		return ^uint64(0)
	}

	return (uint64(1) << s.width) - 1
}

// Set drives the signal. Bits beyond the width are dropped. Hooks only fire
// when the value actually changes.
func (s *Signal) Set(v uint64) {
	v &= s.mask()
	old := s.value.Load()
	if v == old {
		return
	}

	s.value.Store(v)

	if s.NumHooks() == 0 {
		return
	}

	s.InvokeHook(sim.HookCtx{
		Domain: s,
		Pos:    HookPosChange,
		Item:   s,
		Detail: Change{Signal: s, Old: old, New: v, Edge: s.edge(v)},
	})
}

// SetBool drives the signal to 1 or 0.
func (s *Signal) SetBool(b bool) {
	if b {
		s.Set(1)
		return
	}

	s.Set(0)
}

func (s *Signal) edge(v uint64) Edge {
	if s.width != 1 {
		return AnyChange
	}

	if v == 1 {
		return RisingEdge
	}

	return FallingEdge
}

// Matches reports whether a change satisfies a wait for the given edge.
// AnyChange matches every change.
func (c Change) Matches(want Edge) bool {
	return want == AnyChange || c.Edge == want
}
