// display_ebiten.go - windowed Display adapter
//
// A mutex-guarded framebuffer and ebiten.RunGame driven from its own
// goroutine.

package main

import (
	"fmt"
	"image"
	"sync"

	"github.com/hajimehoshi/ebiten/v2"
	"golang.org/x/image/draw"
)

// EbitenDisplay implements Display by opening an ebiten window and scaling
// the fixed 320x200 guest framebuffer up to the configured window size.
type EbitenDisplay struct {
	title  string
	scale  int
	mu     sync.Mutex
	frame  *image.RGBA
	events []KeyEvent
	closed bool

	prevKeys map[ebiten.Key]bool
}

// NewEbitenDisplay constructs a display scaled by factor (e.g. 4) around the
// fixed guest resolution.
func NewEbitenDisplay(title string, scale int) *EbitenDisplay {
	if scale < 1 {
		scale = 1
	}
	return &EbitenDisplay{
		title:    title,
		scale:    scale,
		prevKeys: make(map[ebiten.Key]bool),
	}
}

// Start opens the window and runs ebiten.RunGame on its own background
// goroutine.
func (d *EbitenDisplay) Start() {
	ebiten.SetWindowSize(VideoScreenWidth*d.scale, VideoScreenHeight*d.scale)
	ebiten.SetWindowTitle(d.title)
	go func() {
		if err := ebiten.RunGame(d); err != nil {
			fmt.Printf("display closed: %v\n", err)
		}
		d.mu.Lock()
		d.closed = true
		d.mu.Unlock()
	}()
}

// Present implements Display.
func (d *EbitenDisplay) Present(pixels []byte, w, h int) error {
	img := &image.RGBA{
		Pix:    pixels,
		Stride: w * 4,
		Rect:   image.Rect(0, 0, w, h),
	}
	d.mu.Lock()
	d.frame = img
	d.mu.Unlock()
	return nil
}

// PollEvents implements Display, draining accumulated key events.
func (d *EbitenDisplay) PollEvents() []KeyEvent {
	d.mu.Lock()
	defer d.mu.Unlock()
	events := d.events
	d.events = nil
	return events
}

// Open implements Display.
func (d *EbitenDisplay) Open() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return !d.closed
}

// Close implements Display.
func (d *EbitenDisplay) Close() error {
	d.mu.Lock()
	d.closed = true
	d.mu.Unlock()
	return nil
}

// Update implements ebiten.Game: samples the keyboard each tick and queues
// press/release transitions.
func (d *EbitenDisplay) Update() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	for key := ebiten.Key(0); key <= ebiten.KeyMax; key++ {
		pressed := ebiten.IsKeyPressed(key)
		if pressed != d.prevKeys[key] {
			d.events = append(d.events, KeyEvent{Code: keycodeFor(key), Pressed: pressed})
			d.prevKeys[key] = pressed
		}
	}
	return nil
}

// Draw implements ebiten.Game, scaling the guest framebuffer onto the
// window surface with golang.org/x/image/draw.
func (d *EbitenDisplay) Draw(screen *ebiten.Image) {
	d.mu.Lock()
	frame := d.frame
	d.mu.Unlock()
	if frame == nil {
		return
	}

	dst := image.NewRGBA(image.Rect(0, 0, VideoScreenWidth*d.scale, VideoScreenHeight*d.scale))
	draw.NearestNeighbor.Scale(dst, dst.Bounds(), frame, frame.Bounds(), draw.Over, nil)
	screen.WritePixels(dst.Pix)
}

// Layout implements ebiten.Game.
func (d *EbitenDisplay) Layout(outsideWidth, outsideHeight int) (int, int) {
	return VideoScreenWidth * d.scale, VideoScreenHeight * d.scale
}

// keycodeFor maps an ebiten key to the machine's stable 8-bit keycode. Only
// letters, digits, space and a handful of control keys are mapped; the rest
// translate to 0.
func keycodeFor(key ebiten.Key) uint8 {
	switch {
	case key >= ebiten.KeyA && key <= ebiten.KeyZ:
		return uint8('a' + (key - ebiten.KeyA))
	case key >= ebiten.Key0 && key <= ebiten.Key9:
		return uint8('0' + (key - ebiten.Key0))
	case key == ebiten.KeySpace:
		return ' '
	case key == ebiten.KeyEnter:
		return '\r'
	case key == ebiten.KeyBackspace:
		return 0x08
	case key == ebiten.KeyEscape:
		return 0x1B
	default:
		return 0
	}
}
