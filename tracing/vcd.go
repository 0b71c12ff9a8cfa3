package tracing

import (
	"bufio"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"
	"sync"

	"github.com/sarchlab/tbsim/mem"
	"github.com/sarchlab/tbsim/signal"
	"github.com/sarchlab/tbsim/sim"
)

type vcdVar struct {
	sig *signal.Signal
	id  string
}

// VCDWriter dumps signal changes as a Value Change Dump that waveform viewers
// can open. Time is written in picoseconds. All signals must be traced before
// the first change, when the header is written.
type VCDWriter struct {
	mu         sync.Mutex
	w          *bufio.Writer
	closer     io.Closer
	timeTeller sim.TimeTeller
	scope      string

	vars  []vcdVar
	known map[*signal.Signal]bool

	start         sim.VTime
	headerWritten bool
	lastTime      sim.VTime
	terminated    bool
	err           error
}

// NewVCDWriter creates a VCDWriter that writes to w.
func NewVCDWriter(w io.Writer, timeTeller sim.TimeTeller) *VCDWriter {
	return &VCDWriter{
		w:          bufio.NewWriter(w),
		timeTeller: timeTeller,
		scope:      "tb",
		known:      make(map[*signal.Signal]bool),
	}
}

// CreateVCDFile creates a VCD file. Terminate closes it.
func CreateVCDFile(path string, timeTeller sim.TimeTeller) (*VCDWriter, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}

	v := NewVCDWriter(f, timeTeller)
	v.closer = f

	return v, nil
}

// TraceSignal adds s to the dump.
func (v *VCDWriter) TraceSignal(s *signal.Signal) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.known[s] {
		return
	}

	if v.headerWritten {
		log.Panicf("cannot trace %s after the VCD header is written", s.Name())
	}

	if len(v.vars) == 0 {
		v.start = v.timeTeller.CurrentTime()
	}

	v.known[s] = true
	v.vars = append(v.vars, vcdVar{sig: s, id: vcdID(len(v.vars))})

	s.AcceptHook(v)
}

// TraceMemory does nothing. Memories do not appear in a VCD.
func (v *VCDWriter) TraceMemory(_ *mem.Storage) {}

// Func writes the change described by ctx.
func (v *VCDWriter) Func(ctx sim.HookCtx) {
	if ctx.Pos != signal.HookPosChange {
		return
	}

	change := ctx.Detail.(signal.Change)
	now := v.timeTeller.CurrentTime()

	v.mu.Lock()
	defer v.mu.Unlock()

	if v.terminated {
		return
	}

	if !v.headerWritten {
		v.writeHeader(change)
	}

	if now != v.lastTime {
		v.printf("#%d\n", uint64(now))
		v.lastTime = now
	}

	v.writeValue(change.Signal, change.New)
}

func (v *VCDWriter) writeHeader(first signal.Change) {
	v.headerWritten = true

	v.printf("$version tbsim $end\n")
	v.printf("$timescale 1ps $end\n")
	v.printf("$scope module %s $end\n", v.scope)

	for _, x := range v.vars {
		v.printf("$var wire %d %s %s $end\n", x.sig.Width(), x.id, x.sig.Name())
	}

	v.printf("$upscope $end\n")
	v.printf("$enddefinitions $end\n")

	v.printf("#%d\n", uint64(v.start))
	v.printf("$dumpvars\n")

	for _, x := range v.vars {
		value := x.sig.Value()
		if first.Signal == x.sig {
			value = first.Old
		}

		v.writeValue(x.sig, value)
	}

	v.printf("$end\n")
	v.lastTime = v.start
}

func (v *VCDWriter) writeValue(s *signal.Signal, value uint64) {
	id := v.idOf(s)

	if s.Width() == 1 {
		v.printf("%d%s\n", value, id)
		return
	}

	v.printf("b%s %s\n", strconv.FormatUint(value, 2), id)
}

func (v *VCDWriter) idOf(s *signal.Signal) string {
	for _, x := range v.vars {
		if x.sig == s {
			return x.id
		}
	}

	log.Panicf("signal %s is not traced", s.Name())

	return ""
}

func (v *VCDWriter) printf(format string, args ...any) {
	if v.err != nil {
		return
	}

	_, v.err = fmt.Fprintf(v.w, format, args...)
}

// Terminate writes the header if nothing changed, then flushes and closes
// the output.
func (v *VCDWriter) Terminate() {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.terminated {
		return
	}
	v.terminated = true

	if !v.headerWritten {
		v.writeHeader(signal.Change{})
	}

	if v.err == nil {
		v.err = v.w.Flush()
	}

	if v.closer != nil {
		err := v.closer.Close()
		if v.err == nil {
			v.err = err
		}
	}
}

// Err returns the first error met while writing.
func (v *VCDWriter) Err() error {
	v.mu.Lock()
	defer v.mu.Unlock()

	return v.err
}

// vcdID returns the short identifier of the i-th variable, built from the
// printable characters '!' to '~'.
func vcdID(i int) string {
	var b []byte

	for {
		b = append(b, byte('!'+i%94))
		i /= 94

		if i == 0 {
			break
		}

		i--
	}

	return string(b)
}
