// uart.go - Serial port device

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
uart.go - serial port behind MMIO window +0xB0000

Pure state machine: a receive ring buffer fed by the console host (or
tests, or clipboard pastes from the video backend), a transmit path
that hands bytes to a callback, and the four guest registers. TX is
modelled as always ready; there is no simulated baud rate.

An RX byte arriving while the receive interrupt is enabled raises
IRQ 7. The guest drains DATA until the rx-ready status bit clears.
*/

package main

import "sync"

// UART register offsets.
const (
	UART_REG_DATA   = 0x0
	UART_REG_STATUS = 0x4
	UART_REG_CTRL   = 0x8
	UART_REG_IRQ    = 0xC
)

const (
	UART_STATUS_RX_READY = 1 << 0
	UART_STATUS_TX_READY = 1 << 1

	UART_CTRL_ENABLE = 1 << 0

	UART_IRQ_RX_EN = 1 << 0
)

type UART struct {
	mu sync.Mutex

	rxBuf  [1024]byte
	rxHead int
	rxTail int
	rxLen  int

	ctrl  uint32
	irqEn uint32

	intc *INTC

	// onTransmit receives TX bytes; when nil they accumulate in txBuf
	// for DrainOutput (tests run without a console host).
	onTransmit func(byte)
	txBuf      []byte

	overruns uint64
}

func NewUART(intc *INTC) *UART {
	return &UART{
		intc:  intc,
		ctrl:  UART_CTRL_ENABLE,
		txBuf: make([]byte, 0, 256),
	}
}

func (u *UART) Reset() {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.rxHead = 0
	u.rxTail = 0
	u.rxLen = 0
	u.ctrl = UART_CTRL_ENABLE
	u.irqEn = 0
	u.txBuf = u.txBuf[:0]
}

// SetTransmitCallback routes TX bytes directly to fn instead of the
// internal buffer. The console host wires this to stdout.
func (u *UART) SetTransmitCallback(fn func(byte)) {
	u.mu.Lock()
	u.onTransmit = fn
	u.mu.Unlock()
}

// Receive feeds one byte into the RX ring. Called by the console host
// reader goroutine and by clipboard pastes, so it takes the lock.
func (u *UART) Receive(b byte) {
	u.mu.Lock()
	if u.rxLen >= len(u.rxBuf) {
		u.overruns++
		u.mu.Unlock()
		return
	}
	u.rxBuf[u.rxTail] = b
	u.rxTail = (u.rxTail + 1) % len(u.rxBuf)
	u.rxLen++
	raise := u.irqEn&UART_IRQ_RX_EN != 0
	u.mu.Unlock()

	if raise {
		u.intc.Trigger(IRQ_UART)
	}
}

// ReceiveString feeds a whole string, for pastes.
func (u *UART) ReceiveString(s string) {
	for i := 0; i < len(s); i++ {
		u.Receive(s[i])
	}
}

// DrainOutput returns and clears buffered TX bytes. Test-side only;
// with a transmit callback installed nothing accumulates here.
func (u *UART) DrainOutput() string {
	u.mu.Lock()
	defer u.mu.Unlock()
	s := string(u.txBuf)
	u.txBuf = u.txBuf[:0]
	return s
}

// Overruns returns how many RX bytes were dropped on a full ring.
func (u *UART) Overruns() uint64 {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.overruns
}

func (u *UART) readReg(off uint32) uint32 {
	u.mu.Lock()

	switch off {
	case UART_REG_DATA:
		if u.rxLen == 0 {
			u.mu.Unlock()
			return 0
		}
		b := u.rxBuf[u.rxHead]
		u.rxHead = (u.rxHead + 1) % len(u.rxBuf)
		u.rxLen--
		u.mu.Unlock()
		return uint32(b)

	case UART_REG_STATUS:
		status := uint32(UART_STATUS_TX_READY)
		if u.rxLen > 0 {
			status |= UART_STATUS_RX_READY
		}
		u.mu.Unlock()
		return status

	case UART_REG_CTRL:
		v := u.ctrl
		u.mu.Unlock()
		return v

	case UART_REG_IRQ:
		v := u.irqEn
		u.mu.Unlock()
		return v
	}

	u.mu.Unlock()
	emuLog.Debugf("UART: read from unknown register 0x%X", off)
	return 0
}

func (u *UART) writeReg(off uint32, value uint32) {
	var txFn func(byte)
	var txByte byte

	u.mu.Lock()
	switch off {
	case UART_REG_DATA:
		b := byte(value)
		if u.onTransmit != nil {
			txFn = u.onTransmit
			txByte = b
		} else {
			u.txBuf = append(u.txBuf, b)
		}
	case UART_REG_STATUS:
		// read-only, drop
	case UART_REG_CTRL:
		u.ctrl = value
	case UART_REG_IRQ:
		u.irqEn = value
	default:
		emuLog.Debugf("UART: write to unknown register 0x%X", off)
	}
	u.mu.Unlock()

	// Deliver outside the lock, the callback may re-enter the device.
	if txFn != nil {
		txFn(txByte)
	}
}

// Region returns the guest-visible register file.
func (u *UART) Region() Region {
	return NewMMIORegion(UART_WINDOW_SIZE, u.readReg, u.writeReg)
}
