// Package mem provides the byte-addressed memory arrays that a testbench
// loads and inspects.
package mem

import (
	"encoding/binary"
	"errors"
	"fmt"
	"sync"

	"github.com/sarchlab/tbsim/sim"
)

// ErrOutOfRange is returned when an access touches bytes beyond the capacity
// of a storage.
var ErrOutOfRange = errors.New("mem: access beyond storage capacity")

// HookPosWrite marks a write into a storage.
var HookPosWrite = &sim.HookPos{Name: "MemWrite"}

// WriteInfo is the detail carried by hooks at HookPosWrite.
type WriteInfo struct {
	Addr uint64
	Data []byte
}

const defaultUnitSize = 4096

// A Storage is a simulated memory array.
//
// The storage manages its bytes in units, similar to pages. Units that are
// never written are not allocated and read back as the fill byte.
type Storage struct {
	sim.HookableBase

	lock     sync.RWMutex
	name     string
	unitSize uint64
	capacity uint64
	fillByte byte
	data     map[uint64][]byte
}

// NewStorage creates a storage object with the specified capacity in bytes.
func NewStorage(name string, capacity uint64) *Storage {
	return &Storage{
		name:     name,
		unitSize: defaultUnitSize,
		capacity: capacity,
		data:     make(map[uint64][]byte),
	}
}

// Name returns the name of the storage.
func (s *Storage) Name() string {
	return s.name
}

// Capacity returns the number of addressable bytes.
func (s *Storage) Capacity() uint64 {
	return s.capacity
}

func (s *Storage) checkRange(addr, length uint64) error {
	if addr > s.capacity || length > s.capacity-addr {
		return fmt.Errorf("%w: [%#x, %#x) in %s of %#x bytes",
			ErrOutOfRange, addr, addr+length, s.name, s.capacity)
	}

	return nil
}

func (s *Storage) unit(baseAddr uint64, create bool) []byte {
	unit, ok := s.data[baseAddr]
	if ok || !create {
		return unit
	}

	unit = make([]byte, s.unitSize)
	if s.fillByte != 0 {
		fill(unit, s.fillByte)
	}

	s.data[baseAddr] = unit

	return unit
}

func (s *Storage) parseAddress(addr uint64) (baseAddr, inUnitAddr uint64) {
	inUnitAddr = addr % s.unitSize
	baseAddr = addr - inUnitAddr

	return baseAddr, inUnitAddr
}

// Read returns a copy of length bytes starting at address.
func (s *Storage) Read(address, length uint64) ([]byte, error) {
	if err := s.checkRange(address, length); err != nil {
		return nil, err
	}

	res := make([]byte, length)

	s.lock.RLock()
	defer s.lock.RUnlock()

	s.walk(address, length, false, func(unit []byte, inUnit, offset, n uint64) {
		if unit == nil {
			fill(res[offset:offset+n], s.fillByte)
			return
		}

		copy(res[offset:offset+n], unit[inUnit:inUnit+n])
	})

	return res, nil
}

// Write copies data into the storage starting at address. Nothing is written
// if any byte falls outside the capacity.
func (s *Storage) Write(address uint64, data []byte) error {
	length := uint64(len(data))
	if err := s.checkRange(address, length); err != nil {
		return err
	}

	s.lock.Lock()
	s.walk(address, length, true, func(unit []byte, inUnit, offset, n uint64) {
		copy(unit[inUnit:inUnit+n], data[offset:offset+n])
	})
	s.lock.Unlock()

	if s.NumHooks() > 0 {
		s.InvokeHook(sim.HookCtx{
			Domain: s,
			Pos:    HookPosWrite,
			Item:   s,
			Detail: WriteInfo{Addr: address, Data: append([]byte(nil), data...)},
		})
	}

	return nil
}

// walk visits the units covering [address, address+length). The caller holds
// the lock.
func (s *Storage) walk(
	address, length uint64,
	create bool,
	visit func(unit []byte, inUnit, offset, n uint64),
) {
	offset := uint64(0)
	for offset < length {
		currAddr := address + offset
		baseAddr, inUnit := s.parseAddress(currAddr)

		n := s.unitSize - inUnit
		if length-offset < n {
			n = length - offset
		}

		visit(s.unit(baseAddr, create), inUnit, offset, n)
		offset += n
	}
}

// ReadWord reads a little-endian 32-bit word.
func (s *Storage) ReadWord(address uint64) (uint32, error) {
	b, err := s.Read(address, 4)
	if err != nil {
		return 0, err
	}

	return binary.LittleEndian.Uint32(b), nil
}

// WriteWord writes a little-endian 32-bit word.
func (s *Storage) WriteWord(address uint64, v uint32) error {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)

	return s.Write(address, b[:])
}

// Fill sets every byte of the storage to b. Allocated units are released and
// later reads return b without allocating.
func (s *Storage) Fill(b byte) {
	s.lock.Lock()
	defer s.lock.Unlock()

	s.fillByte = b
	s.data = make(map[uint64][]byte)
}

// AllocatedBytes returns the number of bytes backed by allocated units.
func (s *Storage) AllocatedBytes() uint64 {
	s.lock.RLock()
	defer s.lock.RUnlock()

	return uint64(len(s.data)) * s.unitSize
}

func fill(b []byte, v byte) {
	for i := range b {
		b[i] = v
	}
}
