// intc.go - Interrupt controller

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
intc.go - interrupt controller for the Score Engine

Gates interrupt requests from the peripherals into the CPU's exception
mechanism. Despite the historical register name, INT_MASK is an enable
set: bit i set means IRQ i is delivered. It resets to all-ones.

Trigger only latches. Callers run on many threads (the run loop, the
oto pull thread behind the SPU, the console reader and ebiten key
handlers behind the UART), so Trigger never touches the CPU: it records
the request under the controller mutex and returns. The CPU drains the
latched lines itself at the top of Step, which keeps every PC/SR/CR
write on the run-loop thread.

Pending state (INT_STATUS) is set on every trigger, enabled or not, and
stays set until the guest acknowledges it through INT_ACK. A trigger on
a masked line is counted and logged, never fatal, and is not delivered
later even if the guest re-enables the line.

The controller is itself a memory-mapped peripheral; Region() exposes
the guest register file that is mounted in the MMIO window. Host-side
Trigger and guest-side register writes operate on the same state.
*/

package main

import (
	"fmt"
	"math/bits"
	"sync"
)

// Guest register offsets.
const (
	INTC_REG_MASK   = 0x0
	INTC_REG_PRIO   = 0x4
	INTC_REG_STATUS = 0x8 // read-only from the guest side
	INTC_REG_ACK    = 0xC // write-1-to-clear
)

type INTC struct {
	mu sync.Mutex

	mask   uint32 // enable set, bit per IRQ
	prio   uint32
	status uint32 // pending set

	// Enabled triggers waiting for the CPU to take them. Distinct from
	// status: status is the guest-visible latch cleared by ACK, this is
	// the delivery queue drained by TakePending.
	deliverable uint32

	blocked   uint64
	delivered uint64
}

func NewINTC() *INTC {
	return &INTC{mask: 0xFFFFFFFF}
}

// ConnectCPU registers the controller as the CPU's interrupt source.
// Triggers before attachment stay latched and deliver once the CPU
// starts stepping.
func (ic *INTC) ConnectCPU(cpu *CPUScore) {
	cpu.intc = ic
}

// Reset clears pending and undelivered state and re-enables every line.
func (ic *INTC) Reset() {
	ic.mu.Lock()
	ic.mask = 0xFFFFFFFF
	ic.prio = 0
	ic.status = 0
	ic.deliverable = 0
	ic.mu.Unlock()
}

func (ic *INTC) EnableIRQ(irq uint32) {
	if irq > 31 {
		return
	}
	ic.mu.Lock()
	ic.mask |= 1 << irq
	ic.mu.Unlock()
}

func (ic *INTC) DisableIRQ(irq uint32) {
	if irq > 31 {
		return
	}
	ic.mu.Lock()
	ic.mask &^= 1 << irq
	ic.mu.Unlock()
}

// Enabled reports whether a line is currently in the enable set.
func (ic *INTC) Enabled(irq uint32) bool {
	if irq > 31 {
		return false
	}
	ic.mu.Lock()
	defer ic.mu.Unlock()
	return ic.mask&(1<<irq) != 0
}

// Pending reports whether a line has an unacknowledged trigger.
func (ic *INTC) Pending(irq uint32) bool {
	if irq > 31 {
		return false
	}
	ic.mu.Lock()
	defer ic.mu.Unlock()
	return ic.status&(1<<irq) != 0
}

// Blocked returns how many triggers could not be delivered.
func (ic *INTC) Blocked() uint64 {
	ic.mu.Lock()
	defer ic.mu.Unlock()
	return ic.blocked
}

// Trigger raises an interrupt request line. Safe from any thread: the
// pending bit is latched unconditionally, and when the line is enabled
// the request is queued for the CPU to take on its own thread.
func (ic *INTC) Trigger(irq uint32) {
	if irq > 31 {
		ic.mu.Lock()
		ic.blocked++
		ic.mu.Unlock()
		emuLog.Warnf("INTC: trigger with invalid IRQ %d", irq)
		return
	}

	ic.mu.Lock()
	ic.status |= 1 << irq
	if ic.mask&(1<<irq) == 0 {
		ic.blocked++
		ic.mu.Unlock()
		emuLog.Debugf("INTC: IRQ %d masked, left pending", irq)
		return
	}
	ic.deliverable |= 1 << irq
	ic.mu.Unlock()
}

// TakePending pops the lowest queued line. The CPU calls this at the
// top of Step; nothing else should drain the queue.
func (ic *INTC) TakePending() (uint32, bool) {
	ic.mu.Lock()
	defer ic.mu.Unlock()
	if ic.deliverable == 0 {
		return 0, false
	}
	irq := uint32(bits.TrailingZeros32(ic.deliverable))
	ic.deliverable &^= 1 << irq
	ic.delivered++
	return irq, true
}

// Acknowledge clears pending bits. Matches a guest write to INT_ACK.
// Acknowledging a line the CPU has not taken yet cancels the delivery.
func (ic *INTC) Acknowledge(bits uint32) {
	ic.mu.Lock()
	ic.status &^= bits
	ic.deliverable &^= bits
	ic.mu.Unlock()
}

func (ic *INTC) readReg(off uint32) uint32 {
	switch off {
	case INTC_REG_MASK:
		ic.mu.Lock()
		defer ic.mu.Unlock()
		return ic.mask
	case INTC_REG_PRIO:
		ic.mu.Lock()
		defer ic.mu.Unlock()
		return ic.prio
	case INTC_REG_STATUS:
		ic.mu.Lock()
		defer ic.mu.Unlock()
		return ic.status
	case INTC_REG_ACK:
		return 0
	}
	emuLog.Debugf("INTC: read from unknown register 0x%X", off)
	return 0
}

func (ic *INTC) writeReg(off uint32, value uint32) {
	switch off {
	case INTC_REG_MASK:
		ic.mu.Lock()
		ic.mask = value
		ic.mu.Unlock()
	case INTC_REG_PRIO:
		ic.mu.Lock()
		ic.prio = value
		ic.mu.Unlock()
	case INTC_REG_STATUS:
		// read-only, drop
	case INTC_REG_ACK:
		ic.Acknowledge(value)
	default:
		emuLog.Debugf("INTC: write to unknown register 0x%X", off)
	}
}

// Region returns the guest-visible register file.
func (ic *INTC) Region() Region {
	return NewMMIORegion(INTC_WINDOW_SIZE, ic.readReg, ic.writeReg)
}

func (ic *INTC) String() string {
	ic.mu.Lock()
	defer ic.mu.Unlock()
	return fmt.Sprintf("INTC mask=%08X status=%08X delivered=%d blocked=%d",
		ic.mask, ic.status, ic.delivered, ic.blocked)
}
