// debugger.go - pluggable single-step trap hook and a REPL debugger
//
// Breakpoint conditions are boolean Lua expressions evaluated via
// gopher-lua against the CPU's visible register/flag state.

package main

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	lua "github.com/yuin/gopher-lua"
)

type debuggerCommand int

const (
	cmdHelp debuggerCommand = iota
	cmdContinue
	cmdStep
	cmdQuit
	cmdPrintRegister
	cmdPrintMemory
	cmdBreak
	cmdUnknown
)

func decodeDebuggerCommand(word string) debuggerCommand {
	switch word {
	case "h", "help":
		return cmdHelp
	case "c", "continue":
		return cmdContinue
	case "s", "step":
		return cmdStep
	case "q", "quit":
		return cmdQuit
	case "r", "reg":
		return cmdPrintRegister
	case "m", "mem":
		return cmdPrintMemory
	case "break":
		return cmdBreak
	default:
		return cmdUnknown
	}
}

// ReplDebugger is a line-oriented debugger reading commands from in and
// writing output to out. It implements Debugger.
type ReplDebugger struct {
	in  *bufio.Scanner
	out io.Writer
	bus *Bus

	quit bool

	breakExpr string
	luaState  *lua.LState
}

// NewReplDebugger constructs a debugger reading from in and writing to out.
func NewReplDebugger(in io.Reader, out io.Writer, bus *Bus) *ReplDebugger {
	return &ReplDebugger{
		in:  bufio.NewScanner(in),
		out: out,
		bus: bus,
	}
}

// OnTrap implements Debugger: prints a prompt, reads commands until one
// resumes execution, and returns the resulting action. While a break
// expression is set the trap stays armed: a step on which the expression is
// false returns DebugStep without prompting.
func (d *ReplDebugger) OnTrap(cpu *CPU) DebugAction {
	if d.luaState != nil && d.breakExpr != "" && !d.breakHit(cpu) {
		return DebugStep
	}

	for {
		fmt.Fprintf(d.out, "(thm-dbg pc=0x%08X step=%d) ", cpu.PC(), cpu.Step())
		if !d.in.Scan() {
			d.quit = true
			return DebugContinue
		}
		fields := strings.Fields(d.in.Text())
		if len(fields) == 0 {
			continue
		}

		switch decodeDebuggerCommand(fields[0]) {
		case cmdHelp:
			fmt.Fprintln(d.out, "commands: help continue step quit reg [n] mem <addr> [count] break <lua-expr>")
		case cmdContinue:
			if d.breakExpr != "" {
				return DebugStep
			}
			return DebugContinue
		case cmdStep:
			return DebugStep
		case cmdQuit:
			d.quit = true
			cpu.Stop()
			return DebugContinue
		case cmdPrintRegister:
			d.printRegister(cpu, fields[1:])
		case cmdPrintMemory:
			d.printMemory(fields[1:])
		case cmdBreak:
			d.setBreak(strings.Join(fields[1:], " "))
		default:
			fmt.Fprintf(d.out, "unknown command: %s\n", fields[0])
		}
	}
}

// Quit reports whether the debugger has requested the session end.
func (d *ReplDebugger) Quit() bool { return d.quit }

func (d *ReplDebugger) printRegister(cpu *CPU, args []string) {
	if len(args) == 0 {
		cpu.Dump(d.out)
		return
	}
	n, err := strconv.Atoi(args[0])
	if err != nil {
		fmt.Fprintf(d.out, "bad register: %s\n", args[0])
		return
	}
	v, err := cpu.RegisterGet(uint8(n))
	if err != nil {
		fmt.Fprintf(d.out, "%v\n", err)
		return
	}
	fmt.Fprintf(d.out, "r%d = 0x%08X\n", n, v)
}

func (d *ReplDebugger) printMemory(args []string) {
	if len(args) == 0 {
		fmt.Fprintln(d.out, "usage: mem <addr> [count]")
		return
	}
	addr, err := strconv.ParseUint(strings.TrimPrefix(args[0], "0x"), 16, 32)
	if err != nil {
		fmt.Fprintf(d.out, "bad address: %s\n", args[0])
		return
	}
	count := 16
	if len(args) > 1 {
		if c, err := strconv.Atoi(args[1]); err == nil {
			count = c
		}
	}
	d.bus.HexDump(d.out, uint32(addr), count)
}

// setBreak installs a Lua boolean expression evaluated on every future trap
// against the CPU's visible state (registers, flags, pc).
func (d *ReplDebugger) setBreak(expr string) {
	if expr == "" {
		d.breakExpr = ""
		return
	}
	if d.luaState == nil {
		d.luaState = lua.NewState()
	}
	d.breakExpr = expr
}

func (d *ReplDebugger) breakHit(cpu *CPU) bool {
	L := d.luaState
	regs := L.NewTable()
	for i := 0; i < 256; i++ {
		v, err := cpu.RegisterGet(uint8(i))
		if err != nil {
			break
		}
		regs.Append(lua.LNumber(v))
	}
	L.SetGlobal("r", regs)
	L.SetGlobal("pc", lua.LNumber(cpu.PC()))
	L.SetGlobal("sp", lua.LNumber(cpu.SP()))
	L.SetGlobal("z", lua.LBool(cpu.Zero()))
	L.SetGlobal("n", lua.LBool(cpu.Negative()))

	if err := L.DoString("__break_result = (" + d.breakExpr + ")"); err != nil {
		fmt.Fprintf(d.out, "break expression error: %v\n", err)
		return true
	}
	result := L.GetGlobal("__break_result")
	return lua.LVAsBool(result)
}
