// uart_test.go - Serial port tests

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

import "testing"

// TestUARTReceiveAndDrain verifies the RX ring preserves byte order
// through the guest DATA register.
func TestUARTReceiveAndDrain(t *testing.T) {
	u := NewUART(NewINTC())
	region := u.Region()

	u.ReceiveString("ok\n")

	if region.ReadU32(UART_REG_STATUS)&UART_STATUS_RX_READY == 0 {
		t.Fatalf("RX ready not set with buffered bytes")
	}

	got := []byte{
		byte(region.ReadU32(UART_REG_DATA)),
		byte(region.ReadU32(UART_REG_DATA)),
		byte(region.ReadU32(UART_REG_DATA)),
	}
	if string(got) != "ok\n" {
		t.Fatalf("drained %q, expected %q", got, "ok\n")
	}

	if region.ReadU32(UART_REG_STATUS)&UART_STATUS_RX_READY != 0 {
		t.Fatalf("RX ready still set on an empty ring")
	}
	if got := region.ReadU32(UART_REG_DATA); got != 0 {
		t.Fatalf("empty DATA read = %02X, expected 0", got)
	}
}

func TestUARTTransmitBuffersWithoutCallback(t *testing.T) {
	u := NewUART(NewINTC())
	region := u.Region()

	for _, b := range []byte("hello") {
		region.WriteU32(UART_REG_DATA, uint32(b))
	}
	if got := u.DrainOutput(); got != "hello" {
		t.Fatalf("DrainOutput = %q, expected %q", got, "hello")
	}
	if got := u.DrainOutput(); got != "" {
		t.Fatalf("second drain = %q, expected empty", got)
	}
}

func TestUARTTransmitCallback(t *testing.T) {
	u := NewUART(NewINTC())
	region := u.Region()

	var sent []byte
	u.SetTransmitCallback(func(b byte) { sent = append(sent, b) })

	region.WriteU32(UART_REG_DATA, 'X')
	if string(sent) != "X" {
		t.Fatalf("callback received %q, expected %q", sent, "X")
	}
	if got := u.DrainOutput(); got != "" {
		t.Fatalf("internal buffer grew with callback installed: %q", got)
	}
}

// TestUARTReceiveInterrupt verifies IRQ 7 fires on RX only when the
// guest enabled it.
func TestUARTReceiveInterrupt(t *testing.T) {
	cpu, _ := newTestCPU(t)
	cpu.CR[3] = testRAMBase + 0x1000
	ic := NewINTC()
	ic.ConnectCPU(cpu)
	u := NewUART(ic)
	region := u.Region()

	oldPC := cpu.PC
	u.Receive('a')
	step(t, cpu)
	if cpu.PC != oldPC+4 {
		t.Fatalf("RX raised an interrupt with UART_IRQ_RX_EN clear")
	}

	region.WriteU32(UART_REG_IRQ, UART_IRQ_RX_EN)
	u.Receive('b')
	step(t, cpu)
	if cpu.PC != testRAMBase+0x1000+IRQ_UART*4 {
		t.Fatalf("PC = %08X, expected the uart vector", cpu.PC)
	}
}

// TestUARTOverrun verifies bytes past the ring capacity are dropped
// and counted, leaving the buffered data intact.
func TestUARTOverrun(t *testing.T) {
	u := NewUART(NewINTC())
	region := u.Region()

	for i := 0; i < 1024; i++ {
		u.Receive('x')
	}
	u.Receive('y')
	u.Receive('y')

	if got := u.Overruns(); got != 2 {
		t.Fatalf("overrun count = %d, expected 2", got)
	}
	if got := region.ReadU32(UART_REG_DATA); got != 'x' {
		t.Fatalf("first buffered byte = %02X, expected 'x'", got)
	}
}

func TestUARTStatusTXAlwaysReady(t *testing.T) {
	u := NewUART(NewINTC())
	region := u.Region()

	if region.ReadU32(UART_REG_STATUS)&UART_STATUS_TX_READY == 0 {
		t.Fatalf("TX ready not set")
	}
}

func TestUARTResetClearsRing(t *testing.T) {
	u := NewUART(NewINTC())
	region := u.Region()

	u.ReceiveString("stale")
	region.WriteU32(UART_REG_IRQ, UART_IRQ_RX_EN)
	u.Reset()

	if region.ReadU32(UART_REG_STATUS)&UART_STATUS_RX_READY != 0 {
		t.Fatalf("reset left RX data buffered")
	}
	if got := region.ReadU32(UART_REG_IRQ); got != 0 {
		t.Fatalf("reset left IRQ enable = %08X", got)
	}
}
