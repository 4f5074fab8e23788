// keyboard.go - host key events translated into a memory-mapped status word
//
// keyboard_in is left inert: a reserved channel for future use, not yet
// backed by a response protocol.

package main

import "golang.design/x/clipboard"

// Keyboard exposes keyboard_out (device -> guest) and keyboard_in
// (guest -> device), and owns a goroutine that wakes on writes to
// keyboard_in.
type Keyboard struct {
	bus *Bus
	pic *PIC

	out *Region
	in  *Region

	running bool
	stop    chan struct{}
	done    chan struct{}

	clipboardEnabled bool
}

// NewKeyboard constructs a Keyboard with its two bus-attached word regions.
func NewKeyboard(bus *Bus, pic *PIC) *Keyboard {
	return &Keyboard{
		bus: bus,
		pic: pic,
		out: NewRegion("keyboard_out", WordSize, ReadWrite),
		in:  NewRegion("keyboard_in", WordSize, ReadWrite),
	}
}

// AttachTo maps keyboard_out and keyboard_in into bus at their fixed
// addresses.
func (k *Keyboard) AttachTo(bus *Bus) error {
	if err := bus.Attach(k.out, KeyboardOutAddr, "KBD_OUT"); err != nil {
		return err
	}
	return bus.Attach(k.in, KeyboardInAddr, "KBD_IN")
}

// EnableClipboardPaste turns on the PasteClipboard convenience method. It is
// a no-op (leaving the feature off) if the host has no usable clipboard —
// e.g. headless CI — since clipboard.Init requires platform windowing
// support.
func (k *Keyboard) EnableClipboardPaste() error {
	if err := clipboard.Init(); err != nil {
		return err
	}
	k.clipboardEnabled = true
	return nil
}

// Start launches the goroutine that waits on keyboard_in writes.
func (k *Keyboard) Start() {
	k.running = true
	k.stop = make(chan struct{})
	k.done = make(chan struct{})
	wake := k.bus.Subscribe(KeyboardInAddr)
	go k.loop(wake)
}

func (k *Keyboard) loop(wake <-chan struct{}) {
	defer close(k.done)
	for k.running {
		select {
		case <-wake:
			// keyboard_in is a reserved channel with no response protocol.
			// Wake, observe nothing, go back to sleep.
		case <-k.stop:
			return
		}
	}
}

// Stop clears the running flag, wakes the loop via stop (it may be parked
// on <-wake indefinitely otherwise), and joins the goroutine.
func (k *Keyboard) Stop() {
	k.running = false
	close(k.stop)
	<-k.done
}

// KeyPressed translates a host key-press event: sets keyboard_out to
// (keycode<<8)|1 and raises KEYBOARD_INT.
func (k *Keyboard) KeyPressed(keycode uint8) {
	k.out.WriteWord(0, (uint32(keycode)<<8)|1)
	k.pic.Trigger(IntKeyboard)
}

// KeyReleased translates a host key-release event: sets keyboard_out to
// keycode<<8 with the pressed bit clear, and raises KEYBOARD_INT just like
// KeyPressed.
func (k *Keyboard) KeyReleased(keycode uint8) {
	k.out.WriteWord(0, uint32(keycode)<<8)
	k.pic.Trigger(IntKeyboard)
}

// PasteClipboard drains the host clipboard's text contents and injects each
// rune as a synthetic press/release pair.
func (k *Keyboard) PasteClipboard() {
	if !k.clipboardEnabled {
		return
	}
	text := clipboard.Read(clipboard.FmtText)
	for _, r := range string(text) {
		if r > 0xFF {
			continue
		}
		k.KeyPressed(uint8(r))
		k.KeyReleased(uint8(r))
	}
}
