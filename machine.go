// machine.go - Owning aggregate and run loop

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
machine.go - the Machine owns every hardware block

One explicit aggregate holds the MIU, CPU, interrupt controller and
peripherals; nothing hangs off package globals. Construction wires the
segment map:

    0x08  MMIO window (INTC, SPU, VDU, Timer, UART sub-windows)
    0x09  CD-ROM controller
    0x9E  FLASH (boot vector 0x9E000000)
    0xA0  DRAM

Run drives the CPU in cycle batches: TICK_INTERVAL instructions per
peripheral tick, CYCLES_PER_FRAME per 60 Hz frame. Frame boundaries
raise the vblank interrupt and composite the display. The CPU and
peripherals advance on one goroutine; backends pull audio and push keys
from their own threads, where they only latch state (the UART RX ring,
INTC pending bits) under the device mutexes. The run-loop thread alone
takes latched interrupts into the CPU, at the top of Step.
*/

package main

import (
	"fmt"
	"os"
	"sync/atomic"
	"time"
)

const (
	CPU_CLOCK_HZ     = 24_000_000
	FRAME_RATE       = 60
	CYCLES_PER_FRAME = CPU_CLOCK_HZ / FRAME_RATE
	TICK_INTERVAL    = 1024
)

// MachineConfig carries the host-side knobs. Guest-visible behavior
// never depends on it.
type MachineConfig struct {
	Scale       int
	Fullscreen  bool
	Trace       bool
	LogUnmapped bool
}

type Machine struct {
	MIU   *MIU
	CPU   *CPUScore
	INTC  *INTC
	DRAM  *RAMRegion
	Flash *ROMRegion

	VDU   *VDU
	SPU   *SPU
	CDROM *CDROM
	Timer *Timer
	UART  *UART

	video VideoOutput
	audio *OtoPlayer

	running atomic.Bool
	frames  uint64
}

// NewMachine builds and wires the full hardware set. The video backend
// may be nil for monitor-driven use without a display.
func NewMachine(cfg MachineConfig) (*Machine, error) {
	SetTraceLogging(cfg.Trace)

	m := &Machine{}

	m.MIU = NewMIU(cfg.LogUnmapped)
	m.INTC = NewINTC()
	m.CPU = NewCPUScore()
	m.INTC.ConnectCPU(m.CPU)

	m.DRAM = NewRAMRegion(DRAM_SIZE, "DRAM")
	m.MIU.SetRegion(SEG_DRAM, m.DRAM, "DRAM")

	m.Flash = NewROMRegion(FLASH_SIZE, "FLASH")
	m.MIU.SetRegion(SEG_FLASH, m.Flash, "FLASH")

	video, err := NewVideoOutput(VIDEO_BACKEND_EBITEN)
	if err != nil {
		return nil, fmt.Errorf("machine: %w", err)
	}
	m.video = video

	m.VDU = NewVDU(m.MIU, m.video)
	m.SPU = NewSPU(m.MIU, m.INTC)
	m.Timer = NewTimer(m.INTC)
	m.UART = NewUART(m.INTC)
	m.CDROM = NewCDROM(m.MIU, m.INTC)

	router := NewMMIORouter(MMIO_SIZE)
	router.AddWindow(INTC_BASE, INTC_WINDOW_SIZE, "INTC", m.INTC.Region())
	router.AddWindow(SPU_BASE, SPU_WINDOW_SIZE, "SPU", m.SPU.Region())
	router.AddWindow(VDU_BASE, VDU_WINDOW_SIZE, "VDU", m.VDU.Region())
	router.AddWindow(TIMER_BASE, TIMER_WINDOW_SIZE, "Timer", m.Timer.Region())
	router.AddWindow(UART_BASE, UART_WINDOW_SIZE, "UART", m.UART.Region())
	m.MIU.SetRegion(SEG_MMIO, router, "MMIO")

	m.MIU.SetRegion(SEG_CDROM, m.CDROM.Region(), "CDROM")

	if err := m.CPU.InitializeCPU(m.MIU); err != nil {
		return nil, fmt.Errorf("machine: %w", err)
	}
	m.CPU.Reset()

	if err := m.video.SetDisplayConfig(DisplayConfig{
		Width:       VDU_DEFAULT_WIDTH,
		Height:      VDU_DEFAULT_HEIGHT,
		Scale:       ClampScale(cfg.Scale),
		RefreshRate: FRAME_RATE,
		PixelFormat: PixelFormatRGBA,
		VSync:       true,
		Fullscreen:  cfg.Fullscreen,
	}); err != nil {
		return nil, fmt.Errorf("machine: %w", err)
	}

	if kb, ok := m.video.(KeyInputCapable); ok {
		kb.SetKeyHandler(m.UART.Receive)
	}
	if rc, ok := m.video.(ResetCapable); ok {
		rc.SetHardResetHandler(m.Reset)
	}
	if sc, ok := m.video.(StatusCapable); ok {
		sc.SetStatusProvider(m.statusLine)
	}

	audio, err := NewOtoPlayer(SPU_SAMPLE_RATE)
	if err != nil {
		emuLog.Warnf("machine: audio unavailable: %v", err)
	} else {
		audio.SetupPlayer(m.SPU)
		m.audio = audio
	}

	return m, nil
}

// LoadFirmware reads a flash image from disk into the boot segment.
func (m *Machine) LoadFirmware(path string) error {
	image, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("machine: %w", err)
	}
	return m.LoadFirmwareBytes(image)
}

// LoadFirmwareBytes places a firmware image at the flash base, where
// the boot vector points.
func (m *Machine) LoadFirmwareBytes(image []byte) error {
	return m.Flash.LoadImage(0, image)
}

// LoadDisc mounts a disc image in the CD-ROM drive.
func (m *Machine) LoadDisc(path string) error {
	return m.CDROM.LoadDisc(path)
}

// Reset returns the machine to power-on state: DRAM cleared, all
// peripherals back to defaults, CPU at the boot vector. Flash contents
// survive.
func (m *Machine) Reset() {
	m.DRAM.Clear()
	m.INTC.Reset()
	m.VDU.Reset()
	m.SPU.Reset()
	m.Timer.Reset()
	m.UART.Reset()
	m.CDROM.Reset()
	m.CPU.Reset()
	emuLog.Info("machine: reset")
}

// Stop asks the run loop to exit after the current frame.
func (m *Machine) Stop() {
	m.running.Store(false)
}

// Running reports whether the run loop is active.
func (m *Machine) Running() bool {
	return m.running.Load()
}

// Frames returns the number of completed frames.
func (m *Machine) Frames() uint64 {
	return atomic.LoadUint64(&m.frames)
}

// runFrame executes one frame worth of cycles. Returns false when the
// CPU stops making progress (halted or paused at a breakpoint).
func (m *Machine) runFrame() bool {
	executed := 0
	for executed < CYCLES_PER_FRAME {
		slice := TICK_INTERVAL
		if remaining := CYCLES_PER_FRAME - executed; remaining < slice {
			slice = remaining
		}
		for i := 0; i < slice; i++ {
			if !m.CPU.Step() {
				return false
			}
		}
		executed += slice
		m.Timer.Tick(uint32(slice))
	}
	return true
}

// Run drives the machine until Stop, halt or breakpoint. Must be
// called after firmware loading; the segment map seals here.
func (m *Machine) Run() error {
	if m.running.Swap(true) {
		return fmt.Errorf("machine: already running")
	}
	defer m.running.Store(false)

	m.MIU.Seal()

	if err := m.video.Start(); err != nil {
		return fmt.Errorf("machine: %w", err)
	}
	defer m.video.Close()

	if ss, ok := m.video.(interface{ SetStopHandler(func()) }); ok {
		ss.SetStopHandler(m.Stop)
	}
	if m.audio != nil {
		m.audio.Start()
		defer m.audio.Close()
	}

	frameTick := time.NewTicker(time.Second / FRAME_RATE)
	defer frameTick.Stop()

	for m.running.Load() {
		progress := m.runFrame()

		m.INTC.Trigger(IRQ_VBLANK)
		m.VDU.CompositeFrame()
		atomic.AddUint64(&m.frames, 1)

		if !progress && m.CPU.Halted() {
			emuLog.Info("machine: CPU halted, stopping")
			return nil
		}

		<-frameTick.C
	}
	return nil
}

func (m *Machine) statusLine() string {
	state := "RUN"
	switch {
	case m.CPU.Halted():
		state = "HALT"
	case m.CPU.Paused():
		state = "PAUSE"
	}
	return fmt.Sprintf("%s  PC %08X  %d frames", state, m.CPU.PC, m.Frames())
}
