package testbench

import (
	"github.com/sarchlab/tbsim/signal"
	"github.com/sarchlab/tbsim/sim"
)

type edgeWaiter struct {
	proc *Process
	want signal.Edge
}

// edgeWatcher is the single hook a testbench attaches to a signal. Waiters
// are resumed after the primary events of the time of the change.
type edgeWatcher struct {
	tb      *Testbench
	waiters []edgeWaiter
}

func (tb *Testbench) watch(s *signal.Signal) *edgeWatcher {
	w, ok := tb.watchers[s]
	if ok {
		return w
	}

	w = &edgeWatcher{tb: tb}
	tb.watchers[s] = w
	s.AcceptHook(w)

	return w
}

func (w *edgeWatcher) add(p *Process, want signal.Edge) {
	w.waiters = append(w.waiters, edgeWaiter{proc: p, want: want})
}

// Func wakes the waiters whose edge matches the change.
func (w *edgeWatcher) Func(ctx sim.HookCtx) {
	if w.tb.closed || ctx.Pos != signal.HookPosChange {
		return
	}

	change := ctx.Detail.(signal.Change)
	now := w.tb.engine.CurrentTime()

	remaining := w.waiters[:0]
	for _, waiter := range w.waiters {
		if !change.Matches(waiter.want) {
			remaining = append(remaining, waiter)
			continue
		}

		w.tb.scheduleWake(waiter.proc, now, true)
	}

	for i := len(remaining); i < len(w.waiters); i++ {
		w.waiters[i] = edgeWaiter{}
	}
	w.waiters = remaining
}
