// cpu_score.go - Sunplus S+core 32-bit RISC CPU core

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
cpu_score.go - S+core (SPCE3200) CPU core

Fetch/decode/execute engine for the S+core 32-bit RISC. The CPU owns its
register arrays exclusively and holds a non-owning reference to the MIU,
attached after construction through InitializeCPU - peripherals may need
the MIU live before the CPU is wired, so constructor injection is
deliberately avoided.

State machine: Uninitialized -> Initialized -> {Running, Halted}.

Step() executes exactly one instruction and recovers every hot-path
fault locally: a decode error or a detached memory interface is logged
with the faulting PC, counted, and converted into a false return. After
100 consecutive faults the breaker trips and the CPU force-halts; this
is the only automatic halt and the run loop must tolerate false returns
without crashing. Guest-visible faults (illegal fetch) never surface as
host errors - they enter the guest exception vector with cause 0xFF.

The primary opcode is the top 5 bits of the fetched word:

    0x00        SP-Form     ALU/system/memory-via-rA/rte (func6 + CU bit)
    0x01/0x05   I-Form      immediate ops, 0x05 shifts the immediate <<16
    0x02        J-Form      jump/call, disp24 sign-extended, link reg r3
    0x03/0x07   RIX-Form    base+imm12 load/store, 0x07 post-update
    0x04        B-Form      conditional branch, split 22-bit displacement
    0x10-0x17   Memory-Form base+imm15 load/store family
    others      low 16 bits decode as a compressed instruction
*/

package main

import (
	"errors"
	"fmt"
)

const (
	// Consecutive-fault circuit breaker threshold.
	FAULT_LIMIT = 100

	// Link register for J-Form and brl.
	REG_LINK = 3

	// Stack pointer used by the compressed push/pop convenience forms.
	REG_SP = 2
)

// ErrCPUNotInitialized is returned when execution is requested before a
// memory interface has been attached.
var ErrCPUNotInitialized = errors.New("cpu: not initialized, call InitializeCPU first")

// ErrNoMemoryInterface is returned by InitializeCPU when no MIU is supplied.
var ErrNoMemoryInterface = errors.New("cpu: no memory interface supplied")

// CPUScore is the S+core CPU state. One mutable aggregate, exclusively
// owned by the machine that constructed it.
type CPUScore struct {
	// General registers. R[0] is hard-wired to zero; the invariant is
	// enforced at the write boundary in SetRegister, not by zeroing reads.
	R [32]uint32

	// System registers. SR[0] is a packed mirror of the five flags
	// (N,Z,C,V in bits 31..28, T in bit 0) and is kept synchronized on
	// every write to either representation.
	SR [32]uint32

	// Control registers: CR[1] saved SR[0], CR[2] cause bits 23:18,
	// CR[3] exception vector base, CR[5] saved PC.
	CR [32]uint32

	PC uint32

	FlagN, FlagZ, FlagC, FlagV, FlagT bool

	// Custom-engine multiply/divide result pair.
	CEL, CEH uint32

	Cycles       uint64
	Instructions uint64

	mem         *MIU
	initialized bool
	halted      bool
	paused      bool // stopped on a breakpoint, distinct from halted

	faultCount  int
	faultLogged bool

	// Interrupt source drained at the top of Step. Set by
	// INTC.ConnectCPU; nil means no controller is attached.
	intc *INTC

	breakpoints map[uint32]bool

	// One-shot suppression so Resume can step off the breakpoint it
	// stopped on without immediately re-triggering it.
	resumePC    uint32
	resumeArmed bool

	// Optional pre-fetch hook for the debugger. Returning true pauses
	// the CPU before the instruction at pc executes.
	breakpointHook func(pc uint32) bool
}

// NewCPUScore constructs an uninitialized CPU. The memory interface is
// attached later via InitializeCPU.
func NewCPUScore() *CPUScore {
	return &CPUScore{
		breakpoints: make(map[uint32]bool),
	}
}

// InitializeCPU attaches the memory interface and moves the CPU to the
// Initialized state. Fails hard when no interface is supplied; this is
// a setup-time configuration error, not a runtime fault.
func (cpu *CPUScore) InitializeCPU(mem *MIU) error {
	if mem == nil {
		return ErrNoMemoryInterface
	}
	cpu.mem = mem
	cpu.initialized = true
	return nil
}

// Reset returns the CPU to its power-on register state with PC at the
// boot vector. The memory interface attachment survives a reset.
func (cpu *CPUScore) Reset() {
	cpu.R = [32]uint32{}
	cpu.SR = [32]uint32{}
	cpu.CR = [32]uint32{}
	cpu.FlagN, cpu.FlagZ, cpu.FlagC, cpu.FlagV, cpu.FlagT = false, false, false, false, false
	cpu.CEL, cpu.CEH = 0, 0
	cpu.PC = BOOT_VECTOR
	cpu.halted = false
	cpu.paused = false
	cpu.faultCount = 0
	cpu.faultLogged = false
	cpu.resumeArmed = false
}

// Halted reports whether the CPU has stopped (explicitly or via the
// fault breaker).
func (cpu *CPUScore) Halted() bool { return cpu.halted }

// Halt stops the CPU; Step becomes a no-op until Resume.
func (cpu *CPUScore) Halt() { cpu.halted = true }

// Resume clears the halted and breakpoint-paused states.
func (cpu *CPUScore) Resume() {
	if cpu.paused {
		cpu.resumePC = cpu.PC
		cpu.resumeArmed = true
	}
	cpu.halted = false
	cpu.paused = false
	cpu.faultCount = 0
}

// Paused reports whether the CPU is stopped on a breakpoint.
func (cpu *CPUScore) Paused() bool { return cpu.paused }

// =============================================================================
// Register access (debugger/console surface)
// =============================================================================

// GetRegister returns a general register. r0 always reads 0.
func (cpu *CPUScore) GetRegister(index int) uint32 {
	return cpu.R[index&31]
}

// SetRegister writes a general register. Writes to r0 are discarded;
// this is the single place the r0 invariant is enforced.
func (cpu *CPUScore) SetRegister(index int, value uint32) {
	index &= 31
	if index == 0 {
		return
	}
	cpu.R[index] = value
}

func (cpu *CPUScore) setReg(index uint32, value uint32) {
	if index&31 == 0 {
		return
	}
	cpu.R[index&31] = value
}

// GetFlags returns the five flags in N,Z,C,V,T order.
func (cpu *CPUScore) GetFlags() (n, z, c, v, t bool) {
	return cpu.FlagN, cpu.FlagZ, cpu.FlagC, cpu.FlagV, cpu.FlagT
}

// packFlags folds the individual flag bits into SR[0].
func (cpu *CPUScore) packFlags() {
	var sr uint32
	if cpu.FlagN {
		sr |= 1 << 31
	}
	if cpu.FlagZ {
		sr |= 1 << 30
	}
	if cpu.FlagC {
		sr |= 1 << 29
	}
	if cpu.FlagV {
		sr |= 1 << 28
	}
	if cpu.FlagT {
		sr |= 1
	}
	cpu.SR[0] = sr
}

// unpackFlags restores the individual flag bits from SR[0].
func (cpu *CPUScore) unpackFlags() {
	sr := cpu.SR[0]
	cpu.FlagN = sr&(1<<31) != 0
	cpu.FlagZ = sr&(1<<30) != 0
	cpu.FlagC = sr&(1<<29) != 0
	cpu.FlagV = sr&(1<<28) != 0
	cpu.FlagT = sr&1 != 0
}

// ReadSysReg reads a system register, packing the live flags first for
// SR[0] so both representations stay consistent.
func (cpu *CPUScore) ReadSysReg(index uint32) uint32 {
	index &= 31
	if index == 0 {
		cpu.packFlags()
	}
	return cpu.SR[index]
}

// WriteSysReg writes a system register, unpacking flags on an SR[0] write.
func (cpu *CPUScore) WriteSysReg(index uint32, value uint32) {
	index &= 31
	cpu.SR[index] = value
	if index == 0 {
		cpu.unpackFlags()
	}
}

// =============================================================================
// Breakpoints
// =============================================================================

// SetBreakpoint arms a breakpoint at the given PC.
func (cpu *CPUScore) SetBreakpoint(addr uint32) {
	cpu.breakpoints[addr] = true
}

// ClearBreakpoint removes a breakpoint.
func (cpu *CPUScore) ClearBreakpoint(addr uint32) {
	delete(cpu.breakpoints, addr)
}

// Breakpoints returns the armed breakpoint addresses.
func (cpu *CPUScore) Breakpoints() []uint32 {
	addrs := make([]uint32, 0, len(cpu.breakpoints))
	for addr := range cpu.breakpoints {
		addrs = append(addrs, addr)
	}
	return addrs
}

// SetBreakpointHook installs a pre-fetch check invoked with the next PC.
func (cpu *CPUScore) SetBreakpointHook(hook func(pc uint32) bool) {
	cpu.breakpointHook = hook
}

func (cpu *CPUScore) breakpointHit(pc uint32) bool {
	if cpu.breakpoints[pc] {
		return true
	}
	if cpu.breakpointHook != nil && cpu.breakpointHook(pc) {
		return true
	}
	return false
}

// =============================================================================
// Exception entry and exit
// =============================================================================

// Exception performs guest exception entry: flags are packed into SR[0]
// and saved to CR[1], the cause code lands in CR[2] bits 23:18, the
// return PC in CR[5], the global interrupt-enable bit of CR[0] clears,
// and control transfers to CR[3] + cause*4 - a flat jump table in guest
// memory, not a host-side dispatch. Exactly one nesting level is kept:
// a second exception during handling overwrites CR[1]/CR[5].
func (cpu *CPUScore) Exception(cause uint32) {
	cpu.packFlags()
	cpu.CR[1] = cpu.SR[0]
	cpu.CR[2] = (cause & 0x3F) << 18
	cpu.CR[5] = cpu.PC
	cpu.CR[0] &^= 1
	cpu.PC = cpu.CR[3] + cause*4
}

// rte restores SR[0] from CR[1] (unpacking the flags) and PC from CR[5].
func (cpu *CPUScore) rte() {
	cpu.SR[0] = cpu.CR[1]
	cpu.unpackFlags()
	cpu.PC = cpu.CR[5]
}

// =============================================================================
// Step
// =============================================================================

func (cpu *CPUScore) fault(format string, args ...interface{}) bool {
	if !cpu.faultLogged {
		emuLog.Warnf("cpu: "+format, args...)
		cpu.faultLogged = true
	}
	cpu.faultCount++
	if cpu.faultCount > FAULT_LIMIT {
		emuLog.Warnf("cpu: %d consecutive faults, halting", cpu.faultCount)
		cpu.halted = true
	}
	return false
}

// Step executes a single instruction. It returns false without side
// effects when the CPU is halted or paused, and false with fault
// accounting when execution cannot proceed. The run loop keeps calling
// regardless; nothing propagates out of here except via the return.
//
// Interrupt entry also happens here: a line queued in the attached INTC
// is taken before the fetch, consuming the step. Peripherals on other
// threads only latch requests; this is the sole place they reach the
// CPU registers.
func (cpu *CPUScore) Step() bool {
	if cpu.halted || cpu.paused {
		return false
	}
	if !cpu.initialized || cpu.mem == nil {
		return cpu.fault("step with no memory interface attached")
	}

	if cpu.intc != nil {
		if irq, ok := cpu.intc.TakePending(); ok {
			cpu.Exception(irq)
			cpu.Cycles++
			return true
		}
	}

	if !cpu.mem.CanFetch(cpu.PC) {
		cpu.Exception(CAUSE_FAULT)
		return false
	}

	if cpu.breakpointHit(cpu.PC) {
		if !cpu.resumeArmed || cpu.resumePC != cpu.PC {
			cpu.paused = true
			return false
		}
	}
	cpu.resumeArmed = false

	word := cpu.mem.ReadU32(cpu.PC)

	delta, err := cpu.execute(word)
	if err != nil {
		emuLog.Warnf("cpu: execute fault at PC=0x%08X: %v", cpu.PC, err)
		cpu.faultCount++
		if cpu.faultCount > FAULT_LIMIT {
			cpu.halted = true
		}
		return false
	}

	cpu.PC += delta
	cpu.faultCount = 0
	cpu.faultLogged = false
	cpu.Cycles++
	cpu.Instructions++
	return true
}

// Run steps up to maxInstructions or until the CPU halts/pauses. It is
// the checked entry point: stepping an uninitialized CPU is reported as
// an error here instead of burning through the fault breaker.
func (cpu *CPUScore) Run(maxInstructions uint64) (uint64, error) {
	if !cpu.initialized {
		return 0, ErrCPUNotInitialized
	}
	var executed uint64
	for executed < maxInstructions {
		if !cpu.Step() {
			break
		}
		executed++
	}
	return executed, nil
}

// execute decodes the primary opcode and dispatches to the form
// executor. The returned delta is the byte length to advance PC by:
// 0 means the executor set PC itself (jump/branch taken, exception,
// rte), otherwise 2 or 4.
func (cpu *CPUScore) execute(word uint32) (uint32, error) {
	op := word >> 27
	switch {
	case op == 0x00:
		return cpu.execSPForm(word)
	case op == 0x01 || op == 0x05:
		return cpu.execIForm(word, op == 0x05)
	case op == 0x02:
		return cpu.execJForm(word)
	case op == 0x03 || op == 0x07:
		return cpu.execRIXForm(word, op == 0x07)
	case op == 0x04:
		return cpu.execBForm(word)
	case op >= 0x10 && op <= 0x17:
		return cpu.execMemForm(word)
	default:
		return cpu.execCompressed(uint16(word))
	}
}

// String summarizes the CPU state for the monitor.
func (cpu *CPUScore) String() string {
	return fmt.Sprintf("PC=%08X N=%t Z=%t C=%t V=%t T=%t cycles=%d",
		cpu.PC, cpu.FlagN, cpu.FlagZ, cpu.FlagC, cpu.FlagV, cpu.FlagT, cpu.Cycles)
}
