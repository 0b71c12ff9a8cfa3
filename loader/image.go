package loader

import (
	"debug/elf"
	"os"

	"github.com/pkg/errors"

	"github.com/sarchlab/tbsim/mem"
)

// Symbols resolved from firmware images. The firmware runtime prints by
// storing bytes to tohost and stops by storing 1 to hosthalt.
const (
	SymToHost   = "tohost"
	SymHostHalt = "hosthalt"
)

// LoadBinary writes the raw content of a file to m at loc.
func LoadBinary(m Memory, loc uint64, path string) (Result, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Result{Addr: loc}, errors.Wrap(err, "read binary image")
	}

	return FillMemory(m, loc, data)
}

// A Segment is a loaded region of an image.
type Segment struct {
	Addr     uint64
	FileSize uint64
	MemSize  uint64
}

// An Image describes a loaded ELF file.
type Image struct {
	Entry    uint64
	Segments []Segment
	Symbols  map[string]uint64
}

// Symbol returns the address of a symbol.
func (img Image) Symbol(name string) (uint64, bool) {
	addr, ok := img.Symbols[name]
	return addr, ok
}

// LoadELF writes the loadable segments of an ELF file to m at their physical
// addresses. Bytes between the file size and the memory size of a segment are
// zeroed. The tohost and hosthalt symbols are resolved when present.
func LoadELF(m Memory, path string) (Image, error) {
	f, err := elf.Open(path)
	if err != nil {
		return Image{}, errors.Wrapf(err, "open elf %s", path)
	}
	defer f.Close()

	img := Image{
		Entry:   f.Entry,
		Symbols: make(map[string]uint64),
	}

	for _, prog := range f.Progs {
		if prog.Type != elf.PT_LOAD || prog.Memsz == 0 {
			continue
		}

		err := loadSegment(m, prog)
		if err != nil {
			return img, errors.Wrapf(err, "load segment at %#x", prog.Paddr)
		}

		img.Segments = append(img.Segments, Segment{
			Addr:     prog.Paddr,
			FileSize: prog.Filesz,
			MemSize:  prog.Memsz,
		})
	}

	err = resolveSymbols(f, &img)
	if err != nil {
		return img, err
	}

	return img, nil
}

func loadSegment(m Memory, prog *elf.Prog) error {
	if prog.Filesz > prog.Memsz {
		return errors.Errorf("file size %d exceeds memory size %d",
			prog.Filesz, prog.Memsz)
	}

	if prog.Paddr > m.Capacity() || prog.Memsz > m.Capacity()-prog.Paddr {
		return errors.Wrapf(mem.ErrOutOfRange,
			"segment of %d bytes", prog.Memsz)
	}

	data := make([]byte, prog.Memsz)

	if prog.Filesz > 0 {
		_, err := prog.ReadAt(data[:prog.Filesz], 0)
		if err != nil {
			return errors.Wrap(err, "read segment")
		}
	}

	return m.Write(prog.Paddr, data)
}

func resolveSymbols(f *elf.File, img *Image) error {
	syms, err := f.Symbols()
	if errors.Is(err, elf.ErrNoSymbols) {
		return nil
	}

	if err != nil {
		return errors.Wrap(err, "read symbols")
	}

	for _, s := range syms {
		switch s.Name {
		case SymToHost, SymHostHalt:
			img.Symbols[s.Name] = s.Value
		}
	}

	return nil
}
