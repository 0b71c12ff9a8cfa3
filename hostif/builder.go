package hostif

import (
	"io"

	"github.com/sarchlab/tbsim/loader"
	"github.com/sarchlab/tbsim/mem"
	"github.com/sarchlab/tbsim/sim"
)

// Builder can build host interfaces.
type Builder struct {
	toHost     uint64
	hostHalt   uint64
	hasAddrs   bool
	console    io.Writer
	onHalt     HaltHandler
	timeTeller sim.TimeTeller
}

// MakeBuilder creates a new builder.
func MakeBuilder() Builder {
	return Builder{}
}

// WithAddresses sets the tohost and hosthalt addresses.
func (b Builder) WithAddresses(toHost, hostHalt uint64) Builder {
	b.toHost = toHost
	b.hostHalt = hostHalt
	b.hasAddrs = true

	return b
}

// WithImage takes the tohost and hosthalt addresses from a loaded image. It
// panics if the image does not define both symbols.
func (b Builder) WithImage(img loader.Image) Builder {
	toHost, ok1 := img.Symbol(loader.SymToHost)
	hostHalt, ok2 := img.Symbol(loader.SymHostHalt)

	if !ok1 || !ok2 {
		panic("image does not define tohost and hosthalt")
	}

	return b.WithAddresses(toHost, hostHalt)
}

// WithConsole sets where printed characters are forwarded to.
func (b Builder) WithConsole(w io.Writer) Builder {
	b.console = w
	return b
}

// WithHaltHandler sets the function called on halt, typically stopping the
// engine.
func (b Builder) WithHaltHandler(h HaltHandler) Builder {
	b.onHalt = h
	return b
}

// WithTimeTeller makes the interface record when the halt happened.
func (b Builder) WithTimeTeller(t sim.TimeTeller) Builder {
	b.timeTeller = t
	return b
}

// Build creates a host interface and attaches it to the storage.
func (b Builder) Build(name string, storage *mem.Storage) *HostInterface {
	if !b.hasAddrs {
		panic("host interface requires tohost and hosthalt addresses")
	}

	if b.toHost == b.hostHalt {
		panic("tohost and hosthalt cannot share an address")
	}

	h := &HostInterface{
		name:       name,
		toHost:     b.toHost,
		hostHalt:   b.hostHalt,
		console:    b.console,
		onHalt:     b.onHalt,
		timeTeller: b.timeTeller,
	}

	storage.AcceptHook(h)

	return h
}
