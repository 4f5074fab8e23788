// vm.go - VM container: construction order, thread wiring, shutdown
//
// The CPU goroutine runs under a golang.org/x/sync/errgroup group, which
// gives Start its join point; the timer and keyboard goroutines are joined
// by Shutdown through their own Stop methods.

package main

import (
	"fmt"
	"io"
	"time"

	"golang.org/x/sync/errgroup"
)

// Config are the constructor parameters needed to build a VM.
type Config struct {
	RAMSize       uint32
	RegisterCount uint8
	VideoMode     VideoMode
	InitialPC     uint32
	RegisterInit  map[uint8]uint32
	TimerPeriodUs int64 // defaults to 1,000,000 (1s)
}

// VM wires together the Bus, PIC, CPU, Timer, Keyboard, Video, and RAM/ROM
// regions, and owns their goroutines.
type VM struct {
	config Config

	bus *Bus
	ram *Region
	rom *Region

	pic      *PIC
	cpu      *CPU
	timer    *Timer
	keyboard *Keyboard
	video    *Video

	group *errgroup.Group
}

// NewVM constructs a VM per config, attaching RAM at 0 and ROM at
// ROMAddress.
func NewVM(config Config) (*VM, error) {
	if config.RegisterCount == 0 {
		config.RegisterCount = 32
	}
	if config.TimerPeriodUs == 0 {
		config.TimerPeriodUs = 1_000_000
	}
	if config.InitialPC == 0 {
		config.InitialPC = StackSize
	}

	vm := &VM{config: config}
	vm.bus = NewBus()
	vm.ram = NewRegion("RAM", config.RAMSize, ReadWrite)
	vm.rom = NewRegion("ROM", ROMSize, ReadOnly)
	vm.pic = NewPIC()
	vm.keyboard = NewKeyboard(vm.bus, vm.pic)
	vm.video = NewVideo(vm.bus, vm.pic, vm.keyboard, config.VideoMode != VideoNone)
	vm.cpu = NewCPU(vm.bus, vm.pic, config.RegisterCount)
	vm.timer = NewTimer(vm.pic, time.Duration(config.TimerPeriodUs)*time.Microsecond, IntTimer)

	if err := vm.bus.Attach(vm.ram, 0, "RAM"); err != nil {
		return nil, err
	}
	if err := vm.bus.Attach(vm.rom, ROMAddress, "ROM"); err != nil {
		return nil, err
	}
	if err := vm.pic.AttachTo(vm.bus); err != nil {
		return nil, err
	}
	if err := vm.keyboard.AttachTo(vm.bus); err != nil {
		return nil, err
	}
	if err := vm.video.AttachTo(vm.bus); err != nil {
		return nil, err
	}

	vm.cpu.SetPC(config.InitialPC)
	vm.cpu.SetCS(config.InitialPC)
	vm.cpu.SetIDT(IDTAddr)
	for reg, val := range config.RegisterInit {
		if err := vm.cpu.RegisterSet(reg, val); err != nil {
			return nil, fmt.Errorf("initial register %d: %w", reg, err)
		}
	}

	return vm, nil
}

// Bus, CPU, ROM expose the container's components for external wiring
// (loader, display, debugger) and state dumps.
func (vm *VM) Bus() *Bus    { return vm.bus }
func (vm *VM) CPU() *CPU    { return vm.cpu }
func (vm *VM) ROM() *Region { return vm.rom }

// SetDisplay installs the host display adapter for the video loop.
func (vm *VM) SetDisplay(d Display) {
	vm.video.SetDisplay(d)
}

// AttachDebugger installs a single-step trap hook on the CPU.
func (vm *VM) AttachDebugger(d Debugger) {
	vm.cpu.AttachDebugger(d)
}

// Start launches the CPU, timer, and keyboard goroutines, then runs the
// video loop on the calling goroutine. If VideoMode is Master, the CPU is
// stopped once the video loop returns (window closed); if Slave, the CPU
// loop stopping closes the video window.
func (vm *VM) Start() error {
	vm.group = &errgroup.Group{}

	vm.group.Go(func() error {
		vm.cpu.Run()
		if vm.config.VideoMode == VideoSlave {
			vm.video.Stop()
		}
		return nil
	})

	vm.keyboard.Start()
	vm.timer.Start()
	vm.video.StartBufferSwap()

	vm.video.Loop()

	if vm.config.VideoMode == VideoMaster {
		vm.cpu.Stop()
	}

	return vm.group.Wait()
}

// Shutdown stops the timer and keyboard goroutines; called after Start
// returns. A halted CPU never restarts without an explicit Reset.
func (vm *VM) Shutdown() {
	vm.timer.Stop()
	vm.keyboard.Stop()
}

// Dump writes cpu/bus/rom state.
func (vm *VM) Dump(w io.Writer) {
	vm.cpu.Dump(w)
	vm.bus.Dump(w)
	vm.bus.HexDump(w, 0, 32)
	vm.bus.HexDump(w, ROMAddress, 32)
}
