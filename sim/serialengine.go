package sim

import (
	"fmt"
	"log"
	"reflect"
	"sync"
)

// A SerialEngine is an Engine that always run events one after another.
type SerialEngine struct {
	HookableBase

	timeLock       sync.RWMutex
	time           VTime
	queue          EventQueue
	secondaryQueue EventQueue

	isPaused     bool
	isPausedLock sync.Mutex
	pauseLock    sync.Mutex

	stopLock  sync.Mutex
	isStopped bool

	singleRunLock sync.Mutex

	simulationEndHandlers []SimulationEndHandler
}

// NewSerialEngine creates a SerialEngine
func NewSerialEngine() *SerialEngine {
	e := new(SerialEngine)

	e.queue = NewEventQueue()
	e.secondaryQueue = NewEventQueue()

	return e
}

// Schedule register an event to be happen in the future
func (e *SerialEngine) Schedule(evt Event) {
	now := e.readNow()
	if evt.Time() < now {
		log.Panicf(
			"scheduling an event earlier than current time, evt %s @ %s, now %s",
			reflect.TypeOf(evt), evt.Time(), now,
		)
	}

	if evt.IsSecondary() {
		e.secondaryQueue.Push(evt)
		return
	}

	e.queue.Push(evt)
}

func (e *SerialEngine) readNow() VTime {
	e.timeLock.RLock()
	t := e.time
	e.timeLock.RUnlock()

	return t
}

func (e *SerialEngine) writeNow(t VTime) {
	e.timeLock.Lock()
	e.time = t
	e.timeLock.Unlock()
}

// Run processes all the events scheduled in the SerialEngine. It returns the
// first error returned by an event handler.
func (e *SerialEngine) Run() error {
	e.singleRunLock.Lock()
	defer e.singleRunLock.Unlock()

	e.setStopped(false)

	for {
		if e.stopped() {
			e.queue.Clear()
			e.secondaryQueue.Clear()

			return nil
		}

		if e.noMoreEvent() {
			return nil
		}

		err := e.runOneEvent()
		if err != nil {
			return err
		}
	}
}

func (e *SerialEngine) runOneEvent() error {
	e.pauseLock.Lock()
	defer e.pauseLock.Unlock()

	evt := e.nextEvent()
	now := e.readNow()
	if evt.Time() < now {
		log.Panicf(
			"cannot run event in the past, evt %s @ %s, now %s",
			reflect.TypeOf(evt), evt.Time(), now,
		)
	}
	e.writeNow(evt.Time())

	hookCtx := HookCtx{
		Domain: e,
		Pos:    HookPosBeforeEvent,
		Item:   evt,
	}
	e.InvokeHook(hookCtx)

	err := evt.Handler().Handle(evt)
	if err != nil {
		return fmt.Errorf("event %s @ %s: %w",
			reflect.TypeOf(evt), evt.Time(), err)
	}

	hookCtx.Pos = HookPosAfterEvent
	e.InvokeHook(hookCtx)

	return nil
}

func (e *SerialEngine) noMoreEvent() bool {
	return e.queue.Len() == 0 && e.secondaryQueue.Len() == 0
}

func (e *SerialEngine) nextEvent() Event {
	if e.queue.Len() == 0 {
		return e.secondaryQueue.Pop()
	}

	if e.secondaryQueue.Len() == 0 {
		return e.queue.Pop()
	}

	primaryEvt := e.queue.Peek()
	secondaryEvt := e.secondaryQueue.Peek()

	if primaryEvt.Time() <= secondaryEvt.Time() {
		e.queue.Pop()
		return primaryEvt
	}

	e.secondaryQueue.Pop()

	return secondaryEvt
}

// Stop makes Run return once the event being handled completes.
func (e *SerialEngine) Stop() {
	e.setStopped(true)
}

func (e *SerialEngine) setStopped(v bool) {
	e.stopLock.Lock()
	e.isStopped = v
	e.stopLock.Unlock()
}

func (e *SerialEngine) stopped() bool {
	e.stopLock.Lock()
	defer e.stopLock.Unlock()

	return e.isStopped
}

// Pause prevents the SerialEngine to trigger more events.
func (e *SerialEngine) Pause() {
	e.isPausedLock.Lock()
	defer e.isPausedLock.Unlock()

	if e.isPaused {
		return
	}

	e.pauseLock.Lock()
	e.isPaused = true
}

// Continue allows the SerialEngine to trigger more events.
func (e *SerialEngine) Continue() {
	e.isPausedLock.Lock()
	defer e.isPausedLock.Unlock()

	if !e.isPaused {
		return
	}

	e.pauseLock.Unlock()
	e.isPaused = false
}

// CurrentTime returns the current time at which the engine is at.
// Specifically, the run time of the current event.
func (e *SerialEngine) CurrentTime() VTime {
	return e.readNow()
}

// Pending returns the number of events waiting in the queues.
func (e *SerialEngine) Pending() int {
	return e.queue.Len() + e.secondaryQueue.Len()
}

// RegisterSimulationEndHandler registers a handler to be called by Finished.
func (e *SerialEngine) RegisterSimulationEndHandler(
	handler SimulationEndHandler,
) {
	e.simulationEndHandlers = append(e.simulationEndHandlers, handler)
}

// Finished should be called after the simulation ends. This function
// calls all the registered SimulationEndHandler.
func (e *SerialEngine) Finished() {
	now := e.readNow()
	for _, h := range e.simulationEndHandlers {
		h.Handle(now)
	}
}
