// main.go - CLI entry point

package main

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
)

func main() {
	registers := flag.Int("registers", 32, "general register count (1-255)")
	ramBytes := flag.Uint("ram", StackSize+64*1024, "RAM size in bytes")
	pc := flag.Uint("pc", uint(StackSize), "initial program counter")
	registerValues := flag.String("register-values", "", "initial register values r:v[,r:v...]")
	rom := flag.String("rom", "", "optional ROM image path")
	video := flag.String("video", "none", "video mode: none|master|slave")
	displayKind := flag.String("display", "ebiten", "display backend when video is enabled: ebiten|term")
	debug := flag.Bool("debug", false, "attach the REPL debugger")
	printSteps := flag.Bool("print-steps", false, "enable instruction printing")
	printState := flag.Bool("print-state", false, "print CPU/bus state before and after running")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: %s [flags] <image>\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	videoMode, err := parseVideoMode(*video)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	registerInit, err := parseRegisterValues(*registerValues)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	vm, err := NewVM(Config{
		RAMSize:       uint32(*ramBytes),
		RegisterCount: uint8(*registers),
		VideoMode:     videoMode,
		InitialPC:     uint32(*pc),
		RegisterInit:  registerInit,
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, "create vm:", err)
		os.Exit(1)
	}

	vm.CPU().SetPrintOp(*printSteps)

	image := flag.Arg(0)
	if err := LoadImage(vm.Bus(), image, StackSize); err != nil {
		fmt.Fprintln(os.Stderr, "load image:", err)
		os.Exit(1)
	}
	if *rom != "" {
		if err := LoadROM(vm.Bus(), vm.ROM(), *rom); err != nil {
			fmt.Fprintln(os.Stderr, "load rom:", err)
			os.Exit(1)
		}
	}

	if *debug {
		vm.AttachDebugger(NewReplDebugger(os.Stdin, os.Stdout, vm.Bus()))
		vm.CPU().SetTrap(true)
	}

	if videoMode != VideoNone {
		display, err := newDisplay(*displayKind)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		display.Start()
		vm.SetDisplay(display)
	}

	if *printState {
		vm.Dump(os.Stdout)
	}

	if err := vm.Start(); err != nil {
		fmt.Fprintln(os.Stderr, "run:", err)
	}
	vm.Shutdown()

	if *printState {
		vm.Dump(os.Stdout)
	}
}

// startableDisplay is the local union of Display and the Start() method each
// concrete adapter exposes to launch its background goroutine(s).
type startableDisplay interface {
	Display
	Start()
}

// newDisplay picks the host display adapter: an ebiten window, or a
// headless ASCII terminal renderer for environments without GUI support
// (CI, SSH sessions).
func newDisplay(kind string) (startableDisplay, error) {
	switch kind {
	case "ebiten", "":
		return NewEbitenDisplay("thm-vm", 4), nil
	case "term":
		return NewTermDisplay(os.Stdout, 80, 40), nil
	default:
		return nil, fmt.Errorf("unsupported display backend: %s", kind)
	}
}

func parseVideoMode(s string) (VideoMode, error) {
	switch s {
	case "none":
		return VideoNone, nil
	case "master":
		return VideoMaster, nil
	case "slave":
		return VideoSlave, nil
	default:
		return VideoNone, fmt.Errorf("unsupported video mode: %s", s)
	}
}

func parseRegisterValues(s string) (map[uint8]uint32, error) {
	if s == "" {
		return nil, nil
	}
	out := make(map[uint8]uint32)
	for _, pair := range strings.Split(s, ",") {
		parts := strings.SplitN(pair, ":", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("bad register-values entry: %s", pair)
		}
		reg, err := strconv.Atoi(parts[0])
		if err != nil {
			return nil, fmt.Errorf("bad register number %q: %w", parts[0], err)
		}
		val, err := strconv.ParseUint(parts[1], 0, 32)
		if err != nil {
			return nil, fmt.Errorf("bad register value %q: %w", parts[1], err)
		}
		out[uint8(reg)] = uint32(val)
	}
	return out, nil
}
