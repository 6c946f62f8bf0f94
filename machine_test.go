// machine_test.go - Full machine wiring and end-to-end tests

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

package main

import (
	"encoding/binary"
	"testing"
)

// assemble packs instruction words into a little-endian firmware image.
func assemble(words ...uint32) []byte {
	image := make([]byte, len(words)*4)
	for i, w := range words {
		binary.LittleEndian.PutUint32(image[i*4:], w)
	}
	return image
}

func newTestMachine(t *testing.T) *Machine {
	t.Helper()
	m, err := NewMachine(MachineConfig{})
	if err != nil {
		t.Fatalf("NewMachine: %v", err)
	}
	return m
}

// TestNewMachineWiring verifies the segment map and that the CPU comes
// up at the boot vector.
func TestNewMachineWiring(t *testing.T) {
	m := newTestMachine(t)

	for _, tc := range []struct {
		segment uint8
		label   string
	}{
		{SEG_MMIO, "MMIO"},
		{SEG_CDROM, "CDROM"},
		{SEG_FLASH, "FLASH"},
		{SEG_DRAM, "DRAM"},
	} {
		if got := m.MIU.RegionLabel(tc.segment); got != tc.label {
			t.Errorf("segment 0x%02X bound to %q, expected %q", tc.segment, got, tc.label)
		}
	}

	if m.CPU.PC != BOOT_VECTOR {
		t.Fatalf("PC = %08X at power-on, expected boot vector %08X", m.CPU.PC, uint32(BOOT_VECTOR))
	}

	// The UART answers through the MMIO window.
	uartStatus := uint32(SEG_MMIO)<<24 + UART_BASE + UART_REG_STATUS
	if m.MIU.ReadU32(uartStatus)&UART_STATUS_TX_READY == 0 {
		t.Fatalf("UART status not reachable through the MMIO window")
	}
}

// TestMachineBootsFromFlash runs a firmware fragment that stores a
// value into DRAM.
func TestMachineBootsFromFlash(t *testing.T) {
	m := newTestMachine(t)

	err := m.LoadFirmwareBytes(assemble(
		iForm(I_LDI, 8, 0xA000, true, false), // r8 = DRAM base
		iForm(I_LDI, 9, 0x1234, false, false),
		memForm(MEM_SW, 9, 8, 0x100),
	))
	if err != nil {
		t.Fatalf("LoadFirmwareBytes: %v", err)
	}

	for i := 0; i < 3; i++ {
		if !m.CPU.Step() {
			t.Fatalf("Step %d refused at PC %08X", i, m.CPU.PC)
		}
	}

	if got := m.MIU.ReadU32(uint32(SEG_DRAM)<<24 + 0x100); got != 0x1234 {
		t.Fatalf("DRAM word = %08X, expected 0x1234", got)
	}
}

// TestGuestWritesUART runs firmware that transmits a byte through the
// memory-mapped serial port.
func TestGuestWritesUART(t *testing.T) {
	m := newTestMachine(t)

	uartBase := uint32(SEG_MMIO)<<8 | UART_BASE>>16 // upper half of the UART address
	err := m.LoadFirmwareBytes(assemble(
		iForm(I_LDI, 8, uartBase, true, false),
		iForm(I_LDI, 9, 'H', false, false),
		memForm(MEM_SW, 9, 8, UART_REG_DATA),
	))
	if err != nil {
		t.Fatalf("LoadFirmwareBytes: %v", err)
	}

	for i := 0; i < 3; i++ {
		if !m.CPU.Step() {
			t.Fatalf("Step %d refused at PC %08X", i, m.CPU.PC)
		}
	}

	if got := m.UART.DrainOutput(); got != "H" {
		t.Fatalf("UART output %q, expected %q", got, "H")
	}
}

// TestVBlankDeliveryScenario verifies the full interrupt path: guest
// installs a vector base, the run loop's vblank trigger enters the
// handler with the correct saved state.
func TestVBlankDeliveryScenario(t *testing.T) {
	m := newTestMachine(t)

	err := m.LoadFirmwareBytes(assemble(
		iForm(I_LDI, 5, 0xA000, true, false), // r5 = DRAM base
		spForm(SP_MTCR, 0, 5, 3, 0, false),  // cr3 = vector base
	))
	if err != nil {
		t.Fatalf("LoadFirmwareBytes: %v", err)
	}
	for i := 0; i < 2; i++ {
		if !m.CPU.Step() {
			t.Fatalf("Step %d refused at PC %08X", i, m.CPU.PC)
		}
	}

	prePC := m.CPU.PC
	m.INTC.Trigger(IRQ_VBLANK)

	// Delivery happens on the run-loop thread, at the next step.
	if !m.CPU.Step() {
		t.Fatalf("delivery step refused at PC %08X", m.CPU.PC)
	}

	if m.CPU.CR[5] != prePC {
		t.Errorf("CR5 = %08X, expected interrupted PC %08X", m.CPU.CR[5], prePC)
	}
	dramBase := uint32(SEG_DRAM) << 24
	if m.CPU.PC != dramBase+IRQ_VBLANK*4 {
		t.Errorf("PC = %08X, expected vblank vector %08X", m.CPU.PC, dramBase+IRQ_VBLANK*4)
	}
	if !m.INTC.Pending(IRQ_VBLANK) {
		t.Errorf("vblank not pending after delivery")
	}
}

// TestMachineReset verifies DRAM and peripherals clear while flash
// survives.
func TestMachineReset(t *testing.T) {
	m := newTestMachine(t)

	if err := m.LoadFirmwareBytes(assemble(iForm(I_LDI, 4, 1, false, false))); err != nil {
		t.Fatalf("LoadFirmwareBytes: %v", err)
	}
	m.MIU.WriteU32(uint32(SEG_DRAM)<<24, 0xDEADBEEF)
	m.UART.Receive('x')
	m.CPU.PC = 0x12345678

	m.Reset()

	if got := m.MIU.ReadU32(uint32(SEG_DRAM) << 24); got != 0 {
		t.Errorf("DRAM survived reset: %08X", got)
	}
	if m.CPU.PC != BOOT_VECTOR {
		t.Errorf("PC = %08X after reset, expected boot vector", m.CPU.PC)
	}
	uartStatus := uint32(SEG_MMIO)<<24 + UART_BASE + UART_REG_STATUS
	if m.MIU.ReadU32(uartStatus)&UART_STATUS_RX_READY != 0 {
		t.Errorf("UART RX data survived reset")
	}
	if got := m.Flash.ReadU32(0); got != iForm(I_LDI, 4, 1, false, false) {
		t.Errorf("flash content lost on reset: %08X", got)
	}
}

// TestMachineGuestExceptionOnWildFetch verifies a jump into an unbound
// segment turns into a guest fault, not a host error.
func TestMachineGuestExceptionOnWildFetch(t *testing.T) {
	m := newTestMachine(t)
	dramBase := uint32(SEG_DRAM) << 24
	m.CPU.CR[3] = dramBase

	m.CPU.PC = 0x50000000
	if m.CPU.Step() {
		t.Fatalf("fetch from unbound segment succeeded")
	}
	if m.CPU.PC != dramBase+CAUSE_FAULT*4 {
		t.Fatalf("PC = %08X, expected fault vector", m.CPU.PC)
	}
}
