package main

import (
	"testing"
	"time"
)

func TestKeyboardPressedSetsOutAndTriggersInterrupt(t *testing.T) {
	bus := NewBus()
	pic := NewPIC()
	kbd := NewKeyboard(bus, pic)
	if err := kbd.AttachTo(bus); err != nil {
		t.Fatalf("attach: %v", err)
	}

	kbd.KeyPressed(0x41)

	got, err := bus.ReadWord(KeyboardOutAddr)
	if err != BusErrNone {
		t.Fatalf("read keyboard_out: %v", err)
	}
	if want := uint32(0x41)<<8 | 1; got != want {
		t.Fatalf("keyboard_out = 0x%08X, want 0x%08X", got, want)
	}
	if !pic.AnyDeliverable() {
		t.Fatalf("expected KeyPressed to trigger IntKeyboard")
	}
	if got := pic.NextDeliverable(); got != IntKeyboard {
		t.Fatalf("delivered interrupt = %d, want IntKeyboard", got)
	}
}

func TestKeyboardReleasedSetsOutAndTriggersInterrupt(t *testing.T) {
	bus := NewBus()
	pic := NewPIC()
	kbd := NewKeyboard(bus, pic)
	if err := kbd.AttachTo(bus); err != nil {
		t.Fatalf("attach: %v", err)
	}

	kbd.KeyReleased(0x41)

	got, err := bus.ReadWord(KeyboardOutAddr)
	if err != BusErrNone {
		t.Fatalf("read keyboard_out: %v", err)
	}
	if want := uint32(0x41) << 8; got != want {
		t.Fatalf("keyboard_out = 0x%08X, want 0x%08X", got, want)
	}
	if !pic.AnyDeliverable() {
		t.Fatalf("expected KeyReleased to trigger IntKeyboard")
	}
	if got := pic.NextDeliverable(); got != IntKeyboard {
		t.Fatalf("delivered interrupt = %d, want IntKeyboard", got)
	}
}

func TestKeyboardStopJoinsLoopGoroutine(t *testing.T) {
	bus := NewBus()
	pic := NewPIC()
	kbd := NewKeyboard(bus, pic)
	if err := kbd.AttachTo(bus); err != nil {
		t.Fatalf("attach: %v", err)
	}

	kbd.Start()

	done := make(chan struct{})
	go func() {
		kbd.Stop()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("Stop did not return; keyboard loop goroutine leaked")
	}
}

func TestKeyboardPasteClipboardNoopWhenNeverEnabled(t *testing.T) {
	bus := NewBus()
	pic := NewPIC()
	kbd := NewKeyboard(bus, pic)
	if err := kbd.AttachTo(bus); err != nil {
		t.Fatalf("attach: %v", err)
	}

	kbd.PasteClipboard() // must be a no-op, not a panic, when never enabled

	if pic.AnyDeliverable() {
		t.Fatalf("PasteClipboard must not trigger anything before EnableClipboardPaste succeeds")
	}
}
