// vmarch.go - address map and architectural constants for the thm-vm machine

package main

import "strconv"

// Word and address sizes. Both words and addresses are 32-bit unsigned
// integers; all bus traffic is word-aligned.
const (
	WordSize = 4
	AddrSize = 4
)

// Stack and RAM layout. The stack occupies the bottom STACK_SIZE bytes of
// the address space; user code and data follow immediately.
const (
	StackLength = 1024
	StackSize   = StackLength * WordSize // 4096
)

// ROM occupies the top ROMSize bytes of the 32-bit address space.
const (
	ROMSize    = 32 * 1024 * 1024
	ROMAddress = uint32(1<<32 - ROMSize)
)

// Video: two double-buffered RAM-backed framebuffers sit immediately below
// ROM, a one-word metadata cell immediately below the buffers.
const (
	VideoScreenWidth  = 320
	VideoScreenHeight = 200
	VideoScreenDepth  = 4
	VideoScreenFPS    = 30

	VideoBufferSize   = uint32(VideoScreenWidth * VideoScreenHeight * VideoScreenDepth)
	VideoBuffer1Addr  = ROMAddress - VideoBufferSize
	VideoBuffer0Addr  = VideoBuffer1Addr - VideoBufferSize
	VideoMetaSize     = uint32(WordSize)
	VideoMetaAddr     = VideoBuffer0Addr - VideoMetaSize
	VideoBitBuffer    = uint32(1) // bit0: which buffer is displayed
	VideoBitEnabled   = uint32(2) // bit1: video enabled
)

// PIC: a 256-bit pending/mask pair, a 256-slot interrupt descriptor table
// (one handler address per interrupt number) and an 8-word mask region, both
// bus-mapped so guest code can program them directly.
const (
	InterruptsCount      = 256
	InterruptsPerWord    = WordSize * 8 // 32
	InterruptsWordsCount = InterruptsCount / InterruptsPerWord

	InterruptMaskAddr = VideoMetaAddr - uint32(InterruptsWordsCount*WordSize)
	IDTAddr           = InterruptMaskAddr - uint32(InterruptsCount*AddrSize)
)

// Keyboard: one word each direction, placed directly below the IDT block.
const (
	KeyboardOutAddr = IDTAddr - WordSize
	KeyboardInAddr  = KeyboardOutAddr - WordSize
)

// Fixed interrupt number assignments; further interrupts may extend beyond
// these three.
const (
	IntTimer    = 0
	IntVSync    = 1
	IntKeyboard = 2
)

// Special register numbers, addressable wherever an instruction takes a
// general register operand.
const (
	RegIR = iota + 0xF0
	RegIDT
	RegCS
	RegPC
	RegBP
	RegSP
)

func registerName(reg uint8) string {
	switch reg {
	case RegIR:
		return "ir"
	case RegIDT:
		return "idt"
	case RegCS:
		return "cs"
	case RegPC:
		return "pc"
	case RegBP:
		return "bp"
	case RegSP:
		return "sp"
	default:
		return "r" + strconv.Itoa(int(reg))
	}
}
