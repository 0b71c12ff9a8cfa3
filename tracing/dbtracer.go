package tracing

import (
	"sync"

	"github.com/sarchlab/tbsim/datarecording"
	"github.com/sarchlab/tbsim/mem"
	"github.com/sarchlab/tbsim/signal"
	"github.com/sarchlab/tbsim/sim"
)

// DBTracer stores signal transitions and memory writes with a DataRecorder.
type DBTracer struct {
	mu         sync.Mutex
	timeTeller sim.TimeTeller
	backend    datarecording.DataRecorder

	signals  map[*signal.Signal]bool
	memories map[*mem.Storage]bool
}

// NewDBTracer creates a new DBTracer.
func NewDBTracer(
	timeTeller sim.TimeTeller,
	dataRecorder datarecording.DataRecorder,
) *DBTracer {
	dataRecorder.CreateTable(SignalTable, SignalInfo{})
	dataRecorder.CreateTable(TransitionTable, Transition{})
	dataRecorder.CreateTable(MemWriteTable, MemoryWrite{})

	return &DBTracer{
		timeTeller: timeTeller,
		backend:    dataRecorder,
		signals:    make(map[*signal.Signal]bool),
		memories:   make(map[*mem.Storage]bool),
	}
}

// TraceSignal records the current value of s and every later change.
// Tracing a signal twice has no effect.
func (t *DBTracer) TraceSignal(s *signal.Signal) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.signals[s] {
		return
	}
	t.signals[s] = true

	t.backend.InsertData(SignalTable, SignalInfo{Name: s.Name(), Width: s.Width()})
	t.backend.InsertData(TransitionTable, Transition{
		Time:   uint64(t.timeTeller.CurrentTime()),
		Signal: s.Name(),
		Value:  s.Value(),
	})

	s.AcceptHook(t)
}

// TraceMemory records every write to m.
func (t *DBTracer) TraceMemory(m *mem.Storage) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.memories[m] {
		return
	}
	t.memories[m] = true

	m.AcceptHook(t)
}

// Func records the change or the write described by ctx.
func (t *DBTracer) Func(ctx sim.HookCtx) {
	now := uint64(t.timeTeller.CurrentTime())

	switch ctx.Pos {
	case signal.HookPosChange:
		change := ctx.Detail.(signal.Change)
		t.backend.InsertData(TransitionTable, Transition{
			Time:   now,
			Signal: change.Signal.Name(),
			Value:  change.New,
		})
	case mem.HookPosWrite:
		info := ctx.Detail.(mem.WriteInfo)
		t.backend.InsertData(MemWriteTable, MemoryWrite{
			Time:   now,
			Memory: ctx.Domain.(sim.Named).Name(),
			Addr:   info.Addr,
			Size:   len(info.Data),
		})
	}
}

// Terminate flushes the recorder.
func (t *DBTracer) Terminate() {
	t.backend.Flush()
}
