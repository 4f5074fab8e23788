// cpu.go - register file, flags, and the fetch-decode-execute loop

package main

import (
	"fmt"
	"io"
)

// CPUErrorKind enumerates the fatal error taxonomy the CPU can raise.
type CPUErrorKind int

const (
	CPUOk CPUErrorKind = iota
	CPUErrCannotReadMemory
	CPUErrCannotWriteMemory
	CPUErrUnimplementedOpcode
	CPUErrInvalidRegister
	CPUErrPanic
)

func (k CPUErrorKind) String() string {
	switch k {
	case CPUOk:
		return "ok"
	case CPUErrCannotReadMemory:
		return "cannot read memory"
	case CPUErrCannotWriteMemory:
		return "cannot write memory"
	case CPUErrUnimplementedOpcode:
		return "unimplemented opcode"
	case CPUErrInvalidRegister:
		return "invalid register"
	case CPUErrPanic:
		return "panic"
	default:
		return "unknown"
	}
}

// DebugAction is what a Debugger returns from OnTrap.
type DebugAction int

const (
	DebugContinue DebugAction = iota
	DebugStep
)

// Debugger is a pluggable single-step hook.
type Debugger interface {
	OnTrap(cpu *CPU) DebugAction
}

// CPU is the register file, special registers, flags, and the main loop.
// The register file, special registers, and flags are owned exclusively by
// the CPU's own goroutine — no other goroutine reads or writes them.
type CPU struct {
	bus *Bus
	pic *PIC

	registers     []uint32
	registerCount uint8

	pc, sp, cs, bp uint32
	ir             uint32
	idt            uint32

	flags struct {
		zero              bool
		negative          bool
		interruptsEnabled bool
	}

	running bool
	panic   CPUErrorKind

	debug struct {
		printOp bool
		step    uint64
		trap    bool
	}

	debugger Debugger
}

// NewCPU constructs a CPU with registerCount general registers, wired to bus
// and pic.
func NewCPU(bus *Bus, pic *PIC, registerCount uint8) *CPU {
	c := &CPU{
		bus:           bus,
		pic:           pic,
		registers:     make([]uint32, registerCount),
		registerCount: registerCount,
	}
	c.Reset()
	return c
}

// Reset restores the CPU to its initial state: all general registers zero,
// PC = SP = CS = STACK_SIZE, IDT = IDTAddr, flags clear, not running.
func (c *CPU) Reset() {
	for i := range c.registers {
		c.registers[i] = 0
	}
	c.pc, c.sp, c.cs = StackSize, StackSize, StackSize
	c.bp = 0
	c.ir = 0
	c.idt = IDTAddr
	c.flags.zero = false
	c.flags.negative = false
	c.flags.interruptsEnabled = false
	c.running = false
	c.panic = CPUOk
	c.debug.printOp = false
	c.debug.step = 0
	c.debug.trap = false
}

// AttachDebugger installs d as the CPU's single-step hook.
func (c *CPU) AttachDebugger(d Debugger) {
	c.debugger = d
}

// SetTrap arms the debugger trap for the next instruction (XBRK, or a
// host-side single-step command).
func (c *CPU) SetTrap(v bool) {
	c.debug.trap = v
}

// SetPC, SetCS, SetIDT, SetPrintOp let an external loader/CLI configure the
// CPU before Run.
func (c *CPU) SetPC(v uint32)      { c.pc = v }
func (c *CPU) SetCS(v uint32)      { c.cs = v }
func (c *CPU) SetIDT(v uint32)     { c.idt = v }
func (c *CPU) SetPrintOp(v bool)   { c.debug.printOp = v }
func (c *CPU) PC() uint32          { return c.pc }
func (c *CPU) SP() uint32          { return c.sp }
func (c *CPU) CS() uint32          { return c.cs }
func (c *CPU) IR() uint32          { return c.ir }
func (c *CPU) Step() uint64        { return c.debug.step }
func (c *CPU) Panic() CPUErrorKind { return c.panic }
func (c *CPU) IsRunning() bool     { return c.running }
func (c *CPU) Zero() bool          { return c.flags.zero }
func (c *CPU) Negative() bool      { return c.flags.negative }
func (c *CPU) InterruptsEnabled() bool {
	return c.flags.interruptsEnabled
}

// RegisterGet reads general register reg, or a special register if reg is
// one of the designated special register numbers (vmarch.go).
func (c *CPU) RegisterGet(reg uint8) (uint32, error) {
	switch reg {
	case RegIR:
		return c.ir, nil
	case RegIDT:
		return c.idt, nil
	case RegCS:
		return c.cs, nil
	case RegPC:
		return c.pc, nil
	case RegBP:
		return c.bp, nil
	case RegSP:
		return c.sp, nil
	}
	if int(reg) >= len(c.registers) {
		return 0, fmt.Errorf("register %d: %w", reg, cpuErrInvalidRegister)
	}
	return c.registers[reg], nil
}

// RegisterSet writes general register reg (or a special register) and, for
// general registers, updates Z/N per the value written.
func (c *CPU) RegisterSet(reg uint8, value uint32) error {
	switch reg {
	case RegIR:
		c.ir = value
		return nil
	case RegIDT:
		c.idt = value
		return nil
	case RegCS:
		c.cs = value
		return nil
	case RegPC:
		c.pc = value
		return nil
	case RegBP:
		c.bp = value
		return nil
	case RegSP:
		c.sp = value
		return nil
	}
	if int(reg) >= len(c.registers) {
		return fmt.Errorf("register %d: %w", reg, cpuErrInvalidRegister)
	}
	c.registers[reg] = value
	c.updateFlags(value)
	return nil
}

func (c *CPU) updateFlags(value uint32) {
	c.flags.zero = value == 0
	c.flags.negative = int32(value) < 0
}

var cpuErrInvalidRegister = fmt.Errorf("invalid register")

// readWord fetches a word from the bus, setting Panic on failure.
func (c *CPU) readWord(addr uint32) (uint32, bool) {
	v, err := c.bus.ReadWord(addr)
	if err != BusErrNone {
		c.panic = CPUErrCannotReadMemory
		return 0, false
	}
	return v, true
}

// writeWord writes a word to the bus, setting Panic on failure.
func (c *CPU) writeWord(addr uint32, value uint32) bool {
	if err := c.bus.WriteWord(addr, value); err != BusErrNone {
		c.panic = CPUErrCannotWriteMemory
		return false
	}
	return true
}

// fetch reads the word at PC and advances PC by one word.
func (c *CPU) fetch() (uint32, bool) {
	word, ok := c.readWord(c.pc)
	if !ok {
		return 0, false
	}
	c.pc += AddrSize
	return word, true
}

// push decrements SP and stores value, in that order.
func (c *CPU) push(value uint32) bool {
	c.sp -= WordSize
	return c.writeWord(c.sp, value)
}

// pop loads the word at SP and advances SP.
func (c *CPU) pop() (uint32, bool) {
	v, ok := c.readWord(c.sp)
	if !ok {
		return 0, false
	}
	c.sp += WordSize
	return v, true
}

// Run executes the fetch-decode-execute loop until Running is cleared or a
// panic occurs.
func (c *CPU) Run() {
	c.running = true
	for c.running && c.panic == CPUOk {
		c.step()
	}
	c.running = false
}

// Stop clears Running, causing Run's loop to exit after the current step.
func (c *CPU) Stop() {
	c.running = false
}

func (c *CPU) step() {
	// 1. Interrupt check.
	if c.flags.interruptsEnabled && c.pic.AnyDeliverable() {
		c.flags.interruptsEnabled = false
		c.ir = uint32(c.pic.NextDeliverable())
		c.pic.Reset(int(c.ir))
		if !c.push(c.pc) {
			return
		}
		// Handler dispatch always reads the target address from the IDT; it
		// never jumps to a fixed entry point.
		handler, ok := c.readWord(c.idt + c.ir*AddrSize)
		if !ok {
			return
		}
		c.pc = handler
	}

	// 2. Debugger trap, before the next fetch/decode/execute.
	if c.debug.trap && c.debugger != nil {
		if c.debugger.OnTrap(c) == DebugContinue {
			c.debug.trap = false
		}
	}

	// 3. Fetch.
	word, ok := c.fetch()
	if !ok {
		return
	}
	if c.debug.printOp {
		fmt.Printf("0x%08X: %08X\n", c.pc-AddrSize, word)
	}

	// 4. Decode + execute.
	opcode := uint8(word >> 24)
	handler, ok := decode(opcode)
	if !ok {
		c.panic = CPUErrUnimplementedOpcode
		return
	}
	handler(c, word)
	c.debug.step++
}

// Dump writes a human-readable register/flag/state dump.
func (c *CPU) Dump(w io.Writer) {
	for i := 0; i < len(c.registers); i += 4 {
		for j := i; j < i+4 && j < len(c.registers); j++ {
			fmt.Fprintf(w, "r%-3d = 0x%08X  ", j, c.registers[j])
		}
		fmt.Fprintln(w)
	}
	fmt.Fprintf(w, "pc = 0x%08X  sp = 0x%08X  cs = 0x%08X  bp = 0x%08X\n", c.pc, c.sp, c.cs, c.bp)
	fmt.Fprintf(w, "ir = 0x%08X  idt = 0x%08X\n", c.ir, c.idt)
	fmt.Fprintf(w, "z = %v  n = %v  i = %v\n", c.flags.zero, c.flags.negative, c.flags.interruptsEnabled)
	fmt.Fprintf(w, "running = %v  step = %d  panic = %s\n", c.running, c.debug.step, c.panic)
}
