// Package hostif implements the host side of the firmware's tohost/hosthalt
// convention. The firmware prints a character by storing it to the tohost
// word and ends the run by storing a non-zero value to the hosthalt word.
package hostif

import (
	"bytes"
	"encoding/binary"
	"io"
	"sync"

	"github.com/sarchlab/tbsim/mem"
	"github.com/sarchlab/tbsim/sim"
)

// HaltHandler is called once when the firmware requests a halt.
type HaltHandler func(code uint32)

// A HostInterface watches the writes into a storage.
type HostInterface struct {
	lock sync.Mutex

	name       string
	toHost     uint64
	hostHalt   uint64
	console    io.Writer
	onHalt     HaltHandler
	timeTeller sim.TimeTeller

	output   bytes.Buffer
	halted   bool
	haltCode uint32
	haltTime sim.VTime
	writeErr error
}

// Name returns the name of the host interface.
func (h *HostInterface) Name() string {
	return h.name
}

// Func handles the write hooks of the watched storage.
func (h *HostInterface) Func(ctx sim.HookCtx) {
	if ctx.Pos != mem.HookPosWrite {
		return
	}

	info := ctx.Detail.(mem.WriteInfo)

	if covers(info, h.toHost) {
		h.putc(info.Data[h.toHost-info.Addr])
	}

	if covers(info, h.hostHalt) {
		h.checkHalt(info)
	}
}

func covers(info mem.WriteInfo, addr uint64) bool {
	return addr >= info.Addr && addr-info.Addr < uint64(len(info.Data))
}

func (h *HostInterface) putc(b byte) {
	h.lock.Lock()
	defer h.lock.Unlock()

	h.output.WriteByte(b)

	if h.console == nil {
		return
	}

	_, err := h.console.Write([]byte{b})
	if err != nil && h.writeErr == nil {
		h.writeErr = err
	}
}

func (h *HostInterface) checkHalt(info mem.WriteInfo) {
	code := haltWord(info, h.hostHalt)
	if code == 0 {
		return
	}

	h.lock.Lock()
	if h.halted {
		h.lock.Unlock()
		return
	}

	h.halted = true
	h.haltCode = code
	if h.timeTeller != nil {
		h.haltTime = h.timeTeller.CurrentTime()
	}
	h.lock.Unlock()

	if h.onHalt != nil {
		h.onHalt(code)
	}
}

// haltWord extracts the part of the hosthalt word covered by a write.
func haltWord(info mem.WriteInfo, addr uint64) uint32 {
	var word [4]byte

	start := addr - info.Addr
	copy(word[:], info.Data[start:])

	return binary.LittleEndian.Uint32(word[:])
}

// Output returns everything the firmware printed.
func (h *HostInterface) Output() string {
	h.lock.Lock()
	defer h.lock.Unlock()

	return h.output.String()
}

// Halted reports whether the firmware requested a halt, with the value it
// wrote and the time of the request.
func (h *HostInterface) Halted() (halted bool, code uint32, at sim.VTime) {
	h.lock.Lock()
	defer h.lock.Unlock()

	return h.halted, h.haltCode, h.haltTime
}

// ConsoleErr returns the first error the console writer reported.
func (h *HostInterface) ConsoleErr() error {
	h.lock.Lock()
	defer h.lock.Unlock()

	return h.writeErr
}
