// display_term.go - headless ASCII Display adapter
//
// A second, simpler Display implementation for runs without a GUI.
// golang.org/x/term puts the controlling terminal into raw mode so single
// keystrokes can be read without line buffering.

package main

import (
	"fmt"
	"io"
	"os"
	"sync"

	"golang.org/x/term"
)

// asciiRamp maps luminance to a printable character, darkest to brightest.
const asciiRamp = " .:-=+*#%@"

// TermDisplay renders frames as a coarse downsampled ASCII grid on out, and
// reads single keystrokes from a raw-mode terminal.
type TermDisplay struct {
	out        io.Writer
	cols, rows int

	fd       int
	oldState *term.State
	rawOK    bool

	mu     sync.Mutex
	closed bool
	events []KeyEvent
}

// NewTermDisplay constructs a terminal display downsampled to cols x rows
// characters.
func NewTermDisplay(out io.Writer, cols, rows int) *TermDisplay {
	return &TermDisplay{out: out, cols: cols, rows: rows, fd: int(os.Stdin.Fd())}
}

// Start puts stdin into raw mode, if it is a terminal, and begins reading
// keystrokes on a background goroutine.
func (d *TermDisplay) Start() {
	if term.IsTerminal(d.fd) {
		if old, err := term.MakeRaw(d.fd); err == nil {
			d.oldState = old
			d.rawOK = true
			go d.readKeys()
		}
	}
}

func (d *TermDisplay) readKeys() {
	buf := make([]byte, 1)
	for {
		n, err := os.Stdin.Read(buf)
		if err != nil || n == 0 {
			return
		}
		d.mu.Lock()
		if d.closed {
			d.mu.Unlock()
			return
		}
		d.events = append(d.events, KeyEvent{Code: buf[0], Pressed: true})
		d.events = append(d.events, KeyEvent{Code: buf[0], Pressed: false})
		d.mu.Unlock()
	}
}

// Present implements Display: downsamples pixels to a coarse luminance grid
// and writes it as text.
func (d *TermDisplay) Present(pixels []byte, w, h int) error {
	cellW := w / d.cols
	cellH := h / d.rows
	if cellW < 1 {
		cellW = 1
	}
	if cellH < 1 {
		cellH = 1
	}

	fmt.Fprint(d.out, "\x1b[H")
	for row := 0; row < d.rows; row++ {
		for col := 0; col < d.cols; col++ {
			px := col * cellW
			py := row * cellH
			if px >= w || py >= h {
				fmt.Fprint(d.out, " ")
				continue
			}
			idx := (py*w + px) * 4
			if idx+2 >= len(pixels) {
				fmt.Fprint(d.out, " ")
				continue
			}
			lum := (int(pixels[idx]) + int(pixels[idx+1]) + int(pixels[idx+2])) / 3
			ch := asciiRamp[lum*(len(asciiRamp)-1)/255]
			fmt.Fprintf(d.out, "%c", ch)
		}
		fmt.Fprintln(d.out)
	}
	return nil
}

// PollEvents implements Display.
func (d *TermDisplay) PollEvents() []KeyEvent {
	d.mu.Lock()
	defer d.mu.Unlock()
	events := d.events
	d.events = nil
	return events
}

// Open implements Display.
func (d *TermDisplay) Open() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return !d.closed
}

// Close restores the terminal's original mode.
func (d *TermDisplay) Close() error {
	d.mu.Lock()
	d.closed = true
	d.mu.Unlock()
	if d.rawOK {
		return term.Restore(d.fd, d.oldState)
	}
	return nil
}
