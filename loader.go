// loader.go - program/ROM image loading
//
// A raw big-endian word stream, no header, read until EOF; a nil path loads
// a single literal NOP word instead of failing.

package main

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"
)

// LoadImage reads a raw big-endian word stream from path into bus starting
// at base. A clean EOF on a word boundary ends the load; a short trailing
// read (fewer than 4 bytes left) is rejected as an error.
func LoadImage(bus *Bus, path string, base uint32) error {
	if path == "" {
		return loadNOP(bus, base)
	}

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	addr := base
	var word uint32
	for {
		if err := binary.Read(f, binary.BigEndian, &word); err != nil {
			if err == io.EOF {
				return nil
			}
			if err == io.ErrUnexpectedEOF {
				return fmt.Errorf("read %s: short read (truncated trailing word)", path)
			}
			return fmt.Errorf("read %s: %w", path, err)
		}
		if berr := bus.WriteWord(addr, word); berr != BusErrNone {
			return fmt.Errorf("write image word at 0x%08X: %w", addr, berr)
		}
		addr += WordSize
	}
}

func loadNOP(bus *Bus, base uint32) error {
	if berr := bus.WriteWord(base, uint32(opNop)<<24); berr != BusErrNone {
		return fmt.Errorf("write default NOP at 0x%08X: %w", base, berr)
	}
	return nil
}

// LoadROM loads path into bus at ROMAddress, temporarily unlocking rom for
// writes (the sole legitimate use of SetMode outside construction).
func LoadROM(bus *Bus, rom *Region, path string) error {
	rom.SetMode(ReadWrite)
	defer rom.SetMode(ReadOnly)
	return LoadImage(bus, path, ROMAddress)
}
