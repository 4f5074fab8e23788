// pic.go - the programmable interrupt controller

package main

import "sync"

// PIC holds the 256-bit pending and mask vectors and selects the lowest-
// numbered deliverable interrupt. Both the interrupt descriptor table and
// the mask vector are backed by bus-attached memory regions, so guest code
// programs them by ordinary stores.
type PIC struct {
	mu      sync.Mutex
	arrived *sync.Cond

	pending [InterruptsWordsCount]uint32

	// mask and idt are bus-attached regions. mask.words IS the mask vector
	// Mask/Unmask/NextDeliverable read — not a copy kept in sync with it.
	mask *Region
	idt  *Region
}

// NewPIC constructs a PIC with its IDT and mask regions, both zeroed and
// read-write so guest code can program them.
func NewPIC() *PIC {
	p := &PIC{
		mask: NewRegion("mask", InterruptsWordsCount*WordSize, ReadWrite),
		idt:  NewRegion("idt", InterruptsCount*AddrSize, ReadWrite),
	}
	p.arrived = sync.NewCond(&p.mu)
	return p
}

// AttachTo maps the PIC's IDT and mask regions into bus at their fixed
// addresses.
func (p *PIC) AttachTo(bus *Bus) error {
	if err := bus.Attach(p.idt, IDTAddr, "IDT"); err != nil {
		return err
	}
	return bus.Attach(p.mask, InterruptMaskAddr, "MASK")
}

// HandlerAddress returns the handler address programmed for interrupt i.
func (p *PIC) HandlerAddress(i int) uint32 {
	v, _ := p.idt.ReadWord(uint32(i) * AddrSize)
	return v
}

func findInterruptLocation(i int) (word int, bit uint32) {
	return i / InterruptsPerWord, 1 << uint(i%InterruptsPerWord)
}

// Trigger sets pending[i] and wakes any CPU blocked in WFI.
func (p *PIC) Trigger(i int) {
	p.mu.Lock()
	word, bit := findInterruptLocation(i)
	p.pending[word] |= bit
	p.arrived.Broadcast()
	p.mu.Unlock()
}

// Reset clears pending[i]; called by the CPU after entering the handler.
func (p *PIC) Reset(i int) {
	p.mu.Lock()
	word, bit := findInterruptLocation(i)
	p.pending[word] &^= bit
	p.mu.Unlock()
}

// Mask sets mask[i] directly in the bus-shared mask region.
func (p *PIC) Mask(i int) {
	p.mu.Lock()
	word, bit := findInterruptLocation(i)
	p.mask.words[word] |= bit
	p.mu.Unlock()
}

// Unmask clears mask[i] directly in the bus-shared mask region.
func (p *PIC) Unmask(i int) {
	p.mu.Lock()
	word, bit := findInterruptLocation(i)
	p.mask.words[word] &^= bit
	p.mu.Unlock()
}

// AnyDeliverable reports whether some interrupt is pending and unmasked.
func (p *PIC) AnyDeliverable() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	for i := 0; i < InterruptsWordsCount; i++ {
		if p.pending[i]&^p.mask.words[i] != 0 {
			return true
		}
	}
	return false
}

// NextDeliverable returns the lowest-numbered i with pending[i] && !mask[i],
// scanning ascending. Undefined (returns 0) if none is deliverable — callers
// must check AnyDeliverable first.
func (p *PIC) NextDeliverable() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	for i := 0; i < InterruptsCount; i++ {
		word, bit := findInterruptLocation(i)
		if p.pending[word]&bit != 0 && p.mask.words[word]&bit == 0 {
			return i
		}
	}
	return 0
}

// WaitForInterrupt blocks until Trigger is called at least once after this
// call begins waiting. Used only by the WFI opcode.
func (p *PIC) WaitForInterrupt() {
	p.mu.Lock()
	p.arrived.Wait()
	p.mu.Unlock()
}
