// timer.go - Programmable interval timer

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
timer.go - the interval timer behind MMIO window +0xA0000

A single down-counter clocked from the run loop's tick slices. When the
counter reaches zero with the timer enabled it reloads from PERIOD,
latches the expired bit in STATUS and raises IRQ 5. Writing PERIOD also
reloads COUNT so guests can restart the timer with one store.
*/

package main

// Timer register offsets.
const (
	TIMER_REG_CTRL   = 0x0
	TIMER_REG_PERIOD = 0x4
	TIMER_REG_COUNT  = 0x8 // read-only snapshot of the down-counter
	TIMER_REG_STATUS = 0xC // bit 0 expired, write-1-to-clear
)

const (
	TIMER_CTRL_ENABLE = 1 << 0
	TIMER_CTRL_IRQ_EN = 1 << 1

	TIMER_STATUS_EXPIRED = 1 << 0
)

type Timer struct {
	ctrl   uint32
	period uint32
	count  uint32
	status uint32

	intc *INTC

	expiries uint64
}

func NewTimer(intc *INTC) *Timer {
	return &Timer{intc: intc}
}

func (t *Timer) Reset() {
	t.ctrl = 0
	t.period = 0
	t.count = 0
	t.status = 0
}

// Tick advances the down-counter by the given number of timer clocks.
// Multiple expiries inside one slice collapse into a single interrupt;
// the guest reads STATUS, not an expiry count.
func (t *Timer) Tick(clocks uint32) {
	if t.ctrl&TIMER_CTRL_ENABLE == 0 || t.period == 0 {
		return
	}

	expired := false
	for clocks > 0 {
		if t.count > clocks {
			t.count -= clocks
			break
		}
		clocks -= t.count
		t.count = t.period
		expired = true
		t.expiries++
	}

	if expired {
		t.status |= TIMER_STATUS_EXPIRED
		if t.ctrl&TIMER_CTRL_IRQ_EN != 0 {
			t.intc.Trigger(IRQ_TIMER)
		}
	}
}

// Expiries returns the lifetime expiry count, for the monitor.
func (t *Timer) Expiries() uint64 { return t.expiries }

func (t *Timer) readReg(off uint32) uint32 {
	switch off {
	case TIMER_REG_CTRL:
		return t.ctrl
	case TIMER_REG_PERIOD:
		return t.period
	case TIMER_REG_COUNT:
		return t.count
	case TIMER_REG_STATUS:
		return t.status
	}
	emuLog.Debugf("Timer: read from unknown register 0x%X", off)
	return 0
}

func (t *Timer) writeReg(off uint32, value uint32) {
	switch off {
	case TIMER_REG_CTRL:
		t.ctrl = value
	case TIMER_REG_PERIOD:
		t.period = value
		t.count = value
	case TIMER_REG_COUNT:
		// read-only, drop
	case TIMER_REG_STATUS:
		t.status &^= value
	default:
		emuLog.Debugf("Timer: write to unknown register 0x%X", off)
	}
}

// Region returns the guest-visible register file.
func (t *Timer) Region() Region {
	return NewMMIORegion(TIMER_WINDOW_SIZE, t.readReg, t.writeReg)
}
