package main

import (
	"bytes"
	"testing"
)

func TestNewVMWiringDefaults(t *testing.T) {
	vm, err := NewVM(Config{RAMSize: 8192, RegisterCount: 8, VideoMode: VideoNone})
	if err != nil {
		t.Fatalf("NewVM: %v", err)
	}
	if vm.CPU().PC() != StackSize {
		t.Fatalf("pc = 0x%08X, want 0x%08X", vm.CPU().PC(), StackSize)
	}
	if vm.CPU().SP() != StackSize {
		t.Fatalf("sp = 0x%08X, want 0x%08X", vm.CPU().SP(), StackSize)
	}
	if vm.CPU().CS() != StackSize {
		t.Fatalf("cs = 0x%08X, want 0x%08X", vm.CPU().CS(), StackSize)
	}
}

func TestNewVMRegisterInit(t *testing.T) {
	vm, err := NewVM(Config{
		RAMSize:       8192,
		RegisterCount: 8,
		VideoMode:     VideoNone,
		RegisterInit:  map[uint8]uint32{3: 0x99},
	})
	if err != nil {
		t.Fatalf("NewVM: %v", err)
	}
	got, err := vm.CPU().RegisterGet(3)
	if err != nil {
		t.Fatalf("read r3: %v", err)
	}
	if got != 0x99 {
		t.Fatalf("r3 = 0x%02X, want 0x99", got)
	}
}

func TestVMStartRunsToHaltWithNoVideo(t *testing.T) {
	vm, err := NewVM(Config{RAMSize: 8192, RegisterCount: 8, VideoMode: VideoNone})
	if err != nil {
		t.Fatalf("NewVM: %v", err)
	}

	if err := LoadImage(vm.Bus(), "", StackSize); err != nil {
		t.Fatalf("load default NOP: %v", err)
	}
	if err := vm.Bus().WriteWord(StackSize, encode(opHalt, 0, 0, 0)); err != BusErrNone {
		t.Fatalf("overwrite with HALT: %v", err)
	}

	if err := vm.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	vm.Shutdown()

	if vm.CPU().IsRunning() {
		t.Fatalf("expected CPU stopped after HALT")
	}
	if vm.CPU().Panic() != CPUOk {
		t.Fatalf("panic = %v, want ok", vm.CPU().Panic())
	}
}

func TestVMStartDrivesTermDisplayUntilHalt(t *testing.T) {
	vm, err := NewVM(Config{RAMSize: 8192, RegisterCount: 8, VideoMode: VideoSlave})
	if err != nil {
		t.Fatalf("NewVM: %v", err)
	}

	if err := LoadImage(vm.Bus(), "", StackSize); err != nil {
		t.Fatalf("load default NOP: %v", err)
	}
	if err := vm.Bus().WriteWord(StackSize, encode(opHalt, 0, 0, 0)); err != BusErrNone {
		t.Fatalf("overwrite with HALT: %v", err)
	}

	var out bytes.Buffer
	display := NewTermDisplay(&out, 8, 4)
	vm.SetDisplay(display)

	if err := vm.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	vm.Shutdown()

	if vm.CPU().IsRunning() {
		t.Fatalf("expected CPU stopped after HALT")
	}
	if display.Open() {
		t.Fatalf("expected the headless display closed once the CPU halted (Slave mode)")
	}
	if out.Len() == 0 {
		t.Fatalf("expected TermDisplay to have rendered at least one frame")
	}
}

func TestVMDumpIncludesCPUState(t *testing.T) {
	vm, err := NewVM(Config{RAMSize: 8192, RegisterCount: 8, VideoMode: VideoNone})
	if err != nil {
		t.Fatalf("NewVM: %v", err)
	}
	var buf bytes.Buffer
	vm.Dump(&buf)
	if buf.Len() == 0 {
		t.Fatalf("expected Dump to write a non-empty state report")
	}
}
