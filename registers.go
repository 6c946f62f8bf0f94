// registers.go - Master memory map and MMIO register reference

/*
███████  ██████  ██████  ██████  ███████     ███████ ███    ██  ██████  ██ ███    ██ ███████
██      ██      ██    ██ ██   ██ ██          ██      ████   ██ ██       ██ ████   ██ ██
███████ ██      ██    ██ ██████  █████       █████   ██ ██  ██ ██   ███ ██ ██ ██  ██ █████
     ██ ██      ██    ██ ██   ██ ██          ██      ██  ██ ██ ██    ██ ██ ██  ██ ██ ██
███████  ██████  ██████  ██   ██ ███████     ███████ ██   ████  ██████  ██ ██   ████ ███████

(c) 2024 - 2026 Zayn Otley
https://github.com/IntuitionAmiga/ScoreEngine
Buy me a coffee: https://ko-fi.com/intuition/tip

License: GPLv3 or later
*/

/*
registers.go - Master Memory Map for the Score Engine

The SPCE3200 address space is segmented: the top byte of every 32-bit
address selects one of 256 segments, each bound to a single backing
region. Individual peripherals define their detailed register constants
next to their implementations; this file is the one-stop reference.

MEMORY MAP OVERVIEW
===================

Segment   Region              Size    Notes
---------------------------------------------------------------------------
0x08      MMIO window         1MB     Peripheral register files (below)
0x09      CD-ROM controller   64B     STATUS..DMA_COUNT
0x9E      FLASH/BIOS          8MB     Boot firmware at offset 0
0xA0      DRAM                16MB    Main memory, framebuffers live here
other     Unmapped sink       -       Reads return 0, access optionally logged

MMIO WINDOW (segment 0x08, offsets within the segment)
======================================================

+0x00000  INTC   INT_MASK 0x0, INT_PRIO 0x4, INT_STATUS 0x8, INT_ACK 0xC
+0x10000  SPU    SPU_CTRL 0x00 .. SPU_DMA_COUNT 0x30 (13 registers)
+0x40000  VDU    P_TFT_MODE_CTRL 0x0, P_TFT_HW_SIZE 0x8,
                 buffer select/address registers 0x7000-0x700C
+0xA0000  Timer  CTRL, PERIOD, COUNT, STATUS
+0xB0000  UART   DATA, STATUS, CTRL, IRQ_CTRL

IRQ LINES
=========

4  VBlank    5  Timer    6  CD-ROM    7  UART    10  Audio

Exception cause codes below 32 are hardware IRQs. Causes 0x00-0x03 are
raised by SP-Form instructions (nop-adjacent/syscall/trap/debug-break);
cause 0xFF is the synthetic illegal-memory-access exception.
*/

package main

// =============================================================================
// Segment assignments (top byte of a 32-bit address)
// =============================================================================

const (
	SEG_MMIO  = 0x08
	SEG_CDROM = 0x09
	SEG_FLASH = 0x9E
	SEG_DRAM  = 0xA0
)

const (
	DRAM_SIZE  = 16 * 1024 * 1024
	FLASH_SIZE = 8 * 1024 * 1024

	// The MMIO window spans 1MB so the Timer (+0xA0000) and UART (+0xB0000)
	// register files fall inside the mapped region.
	MMIO_SIZE = 0x100000

	BOOT_VECTOR = 0x9E000000
)

// =============================================================================
// MMIO window bases (offsets within segment 0x08)
// =============================================================================

const (
	INTC_BASE  = 0x00000
	SPU_BASE   = 0x10000
	VDU_BASE   = 0x40000
	TIMER_BASE = 0xA0000
	UART_BASE  = 0xB0000

	INTC_WINDOW_SIZE  = 0x10
	SPU_WINDOW_SIZE   = 0x40
	VDU_WINDOW_SIZE   = 0x8000
	TIMER_WINDOW_SIZE = 0x10
	UART_WINDOW_SIZE  = 0x10
)

// =============================================================================
// IRQ line assignments
// =============================================================================

const (
	IRQ_VBLANK = 4
	IRQ_TIMER  = 5
	IRQ_CDROM  = 6
	IRQ_UART   = 7
	IRQ_AUDIO  = 10
)

// =============================================================================
// Exception cause codes
// =============================================================================

const (
	CAUSE_NOP     = 0x00 // reserved, never raised
	CAUSE_SYSCALL = 0x01
	CAUSE_TRAP    = 0x02
	CAUSE_BREAK   = 0x03
	CAUSE_FAULT   = 0xFF // synthetic illegal memory access
)

// SegmentOf returns the segment index an address routes to.
func SegmentOf(addr uint32) uint8 {
	return uint8(addr >> 24)
}

// OffsetOf returns the low 24 offset bits of an address.
func OffsetOf(addr uint32) uint32 {
	return addr & 0xFFFFFF
}
