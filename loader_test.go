package main

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadImageNilPathLoadsNOP(t *testing.T) {
	bus := NewBus()
	ram := NewRegion("RAM", 4096, ReadWrite)
	if err := bus.Attach(ram, 0, "RAM"); err != nil {
		t.Fatalf("attach: %v", err)
	}

	if err := LoadImage(bus, "", 0); err != nil {
		t.Fatalf("LoadImage: %v", err)
	}

	got, err := bus.ReadWord(0)
	if err != BusErrNone {
		t.Fatalf("read: %v", err)
	}
	if got != uint32(opNop)<<24 {
		t.Fatalf("word at 0 = 0x%08X, want the NOP opcode in the top byte", got)
	}
}

func TestLoadImageBigEndianWordStream(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "image.bin")
	data := []byte{
		0x00, 0x00, 0x00, 0x01, // word 0 = 1
		0xDE, 0xAD, 0xBE, 0xEF, // word 1 = 0xDEADBEEF
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write test image: %v", err)
	}

	bus := NewBus()
	ram := NewRegion("RAM", 4096, ReadWrite)
	if err := bus.Attach(ram, 0, "RAM"); err != nil {
		t.Fatalf("attach: %v", err)
	}

	if err := LoadImage(bus, path, 0); err != nil {
		t.Fatalf("LoadImage: %v", err)
	}

	w0, _ := bus.ReadWord(0)
	if w0 != 1 {
		t.Fatalf("word 0 = 0x%08X, want 0x00000001", w0)
	}
	w1, _ := bus.ReadWord(WordSize)
	if w1 != 0xDEADBEEF {
		t.Fatalf("word 1 = 0x%08X, want 0xDEADBEEF", w1)
	}
}

func TestLoadImageShortTrailingWordRejected(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "short.bin")
	data := []byte{
		0x00, 0x00, 0x00, 0x01, // one full word
		0xDE, 0xAD, // a truncated second word
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write test image: %v", err)
	}

	bus := NewBus()
	ram := NewRegion("RAM", 4096, ReadWrite)
	if err := bus.Attach(ram, 0, "RAM"); err != nil {
		t.Fatalf("attach: %v", err)
	}

	if err := LoadImage(bus, path, 0); err == nil {
		t.Fatalf("expected LoadImage to reject a short trailing word, got nil error")
	}
}

func TestLoadROMTemporarilyUnlocksThenRelocks(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "rom.bin")
	if err := os.WriteFile(path, []byte{0, 0, 0, 0}, 0o644); err != nil {
		t.Fatalf("write rom image: %v", err)
	}

	bus := NewBus()
	rom := NewRegion("ROM", 4096, ReadOnly)
	if err := bus.Attach(rom, ROMAddress, "ROM"); err != nil {
		t.Fatalf("attach: %v", err)
	}

	if err := LoadROM(bus, rom, path); err != nil {
		t.Fatalf("LoadROM: %v", err)
	}
	if rom.Mode() != ReadOnly {
		t.Fatalf("expected ROM relocked to ReadOnly after LoadROM returns")
	}
	if err := bus.WriteWord(ROMAddress, 1); err != BusErrIllegalAccess {
		t.Fatalf("err = %v, want IllegalAccess (ROM must be locked again)", err)
	}
}
