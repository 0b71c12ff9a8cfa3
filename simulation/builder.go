package simulation

import (
	"io"
	"log"

	"github.com/rs/xid"

	"github.com/sarchlab/tbsim/datarecording"
	"github.com/sarchlab/tbsim/monitoring"
	"github.com/sarchlab/tbsim/sim"
	"github.com/sarchlab/tbsim/tracing"
)

// Builder can be used to build a simulation.
type Builder struct {
	outputFileName string
	vcdFileName    string
	monitor        *monitoring.Monitor
	eventLogger    *log.Logger
	console        io.Writer
}

// MakeBuilder creates a new builder. By default nothing is recorded and no
// monitor is attached.
func MakeBuilder() Builder {
	return Builder{}
}

// WithOutputFileName records signal transitions and memory writes into
// filename + ".sqlite3".
func (b Builder) WithOutputFileName(filename string) Builder {
	b.outputFileName = filename
	return b
}

// WithVCDFile dumps signal changes into a VCD file.
func (b Builder) WithVCDFile(filename string) Builder {
	b.vcdFileName = filename
	return b
}

// WithMonitor registers the simulation with a running monitor.
func (b Builder) WithMonitor(m *monitoring.Monitor) Builder {
	b.monitor = m
	return b
}

// WithEventLogger prints every event handled by the engine.
func (b Builder) WithEventLogger(l *log.Logger) Builder {
	b.eventLogger = l
	return b
}

// WithConsole sets where host interfaces print characters.
func (b Builder) WithConsole(w io.Writer) Builder {
	b.console = w
	return b
}

// Build builds the simulation.
func (b Builder) Build() (*Simulation, error) {
	engine := sim.NewSerialEngine()

	s := &Simulation{
		id:            xid.New().String(),
		engine:        engine,
		signalIndex:   make(map[string]int),
		memoryIndex:   make(map[string]int),
		compNameIndex: make(map[string]int),
		monitor:       b.monitor,
		console:       b.console,
	}

	if b.eventLogger != nil {
		engine.AcceptHook(sim.NewEventLogger(b.eventLogger))
	}

	if b.outputFileName != "" {
		recorder, err := datarecording.New(b.outputFileName)
		if err != nil {
			return nil, err
		}

		s.dataRecorder = recorder
		s.tracers = append(s.tracers, tracing.NewDBTracer(engine, recorder))
	}

	if b.vcdFileName != "" {
		vcd, err := tracing.CreateVCDFile(b.vcdFileName, engine)
		if err != nil {
			s.Terminate()
			return nil, err
		}

		s.vcd = vcd
		s.tracers = append(s.tracers, vcd)
	}

	if s.monitor != nil {
		s.monitor.RegisterEngine(engine)
	}

	return s, nil
}
