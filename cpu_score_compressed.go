// cpu_score_compressed.go - 16-bit compressed instruction decoder

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
cpu_score_compressed.go - the 16-bit code-density instruction set

Compressed instructions live in the low halfword of a fetched word and
advance PC by 2, not 4. The sub-opcode is bits [14:12]; register fields
are 4 bits wide, so only r0-r15 are reachable. Every compressed
instruction has the exact semantics of its 32-bit counterpart with a
narrower immediate; the executors below call straight into the same ALU
primitives. The "!" suffix convention (flags always updated) applies
throughout.

Sub-tables:

    0  system/move/jump   nop! mv! br! brl! break!
    1  ALU-immediate      addi! subi! cmpi! ldi!  (5-bit immediates)
    2  register ALU       add! sub! and! or! xor! not! cmp! mlo!
    3  branch             b<cond>!  (8-bit signed halfword displacement)
    4  shift-immediate    slli! srli! srai!
    5  extend             extsb! extsh! extzb! extzh!
    6  push/pop           push! pop!  (r2 is the stack pointer)
    7  SP-relative        lwp! swp!   (7-bit word-scaled offset)
*/

package main

import "fmt"

// Sub-table 0 function codes.
const (
	C0_NOP   = 0x0
	C0_MV    = 0x1
	C0_BR    = 0x2
	C0_BRL   = 0x3
	C0_BREAK = 0x4
)

// Sub-table 1 function codes.
const (
	C1_ADDI = 0x0
	C1_SUBI = 0x1
	C1_CMPI = 0x2
	C1_LDI  = 0x3
)

// Sub-table 2 function codes.
const (
	C2_ADD = 0x0
	C2_SUB = 0x1
	C2_AND = 0x2
	C2_OR  = 0x3
	C2_XOR = 0x4
	C2_NOT = 0x5
	C2_CMP = 0x6
	C2_MLO = 0x7 // mfcel into rD
)

// Sub-table 4 function codes.
const (
	C4_SLLI = 0x0
	C4_SRLI = 0x1
	C4_SRAI = 0x2
)

// Sub-table 5 function codes.
const (
	C5_EXTSB = 0x0
	C5_EXTSH = 0x1
	C5_EXTZB = 0x2
	C5_EXTZH = 0x3
)

func (cpu *CPUScore) execCompressed(half uint16) (uint32, error) {
	sub := (half >> 12) & 7

	switch sub {
	case 0:
		return cpu.execC0System(half)
	case 1:
		return cpu.execC1ALUImm(half)
	case 2:
		return cpu.execC2ALUReg(half)
	case 3:
		return cpu.execC3Branch(half)
	case 4:
		return cpu.execC4ShiftImm(half)
	case 5:
		return cpu.execC5Extend(half)
	case 6:
		return cpu.execC6PushPop(half)
	default:
		return cpu.execC7SPRel(half)
	}
}

// Sub-table 0: func4 [11:8], rD [7:4], rA [3:0].
func (cpu *CPUScore) execC0System(half uint16) (uint32, error) {
	fn := (half >> 8) & 0xF
	rD := uint32((half >> 4) & 0xF)
	rA := uint32(half & 0xF)

	switch fn {
	case C0_NOP:
		return 2, nil
	case C0_MV:
		cpu.setReg(rD, cpu.R[rA])
		return 2, nil
	case C0_BR:
		cpu.PC = cpu.R[rA]
		return 0, nil
	case C0_BRL:
		cpu.setReg(REG_LINK, cpu.PC+2)
		cpu.PC = cpu.R[rA]
		return 0, nil
	case C0_BREAK:
		cpu.PC += 2
		cpu.Exception(CAUSE_BREAK)
		return 0, nil
	}
	return 0, fmt.Errorf("compressed/0: unknown func 0x%X", fn)
}

// Sub-table 1: func3 [11:9], imm5 [8:4], rD [3:0]. addi/subi/cmpi take
// the immediate unsigned (subi exists so no sign bit is needed), ldi
// zero-extends.
func (cpu *CPUScore) execC1ALUImm(half uint16) (uint32, error) {
	fn := (half >> 9) & 7
	imm := uint32((half >> 4) & 0x1F)
	rD := uint32(half & 0xF)

	d := cpu.R[rD]

	switch fn {
	case C1_ADDI:
		cpu.setReg(rD, cpu.aluAdd(d, imm, true))
	case C1_SUBI:
		cpu.setReg(rD, cpu.aluSub(d, imm, true))
	case C1_CMPI:
		cpu.aluSub(d, imm, true)
	case C1_LDI:
		cpu.setReg(rD, imm)
		cpu.setNZ(imm)
	default:
		return 0, fmt.Errorf("compressed/1: unknown func 0x%X", fn)
	}
	return 2, nil
}

// Sub-table 2: func4 [11:8], rD [7:4], rA [3:0].
func (cpu *CPUScore) execC2ALUReg(half uint16) (uint32, error) {
	fn := (half >> 8) & 0xF
	rD := uint32((half >> 4) & 0xF)
	rA := uint32(half & 0xF)

	d := cpu.R[rD]
	a := cpu.R[rA]

	switch fn {
	case C2_ADD:
		cpu.setReg(rD, cpu.aluAdd(d, a, true))
	case C2_SUB:
		cpu.setReg(rD, cpu.aluSub(d, a, true))
	case C2_AND:
		cpu.setReg(rD, cpu.aluAnd(d, a, true))
	case C2_OR:
		cpu.setReg(rD, cpu.aluOr(d, a, true))
	case C2_XOR:
		cpu.setReg(rD, cpu.aluXor(d, a, true))
	case C2_NOT:
		cpu.setReg(rD, cpu.aluNot(a, true))
	case C2_CMP:
		cpu.aluSub(d, a, true)
	case C2_MLO:
		cpu.setReg(rD, cpu.CEL)
	default:
		return 0, fmt.Errorf("compressed/2: unknown func 0x%X", fn)
	}
	return 2, nil
}

// Sub-table 3: cond4 [11:8], disp8 [7:0] signed, halfword-scaled.
func (cpu *CPUScore) execC3Branch(half uint16) (uint32, error) {
	cond := uint32((half >> 8) & 0xF)
	disp := signExtend(uint32(half&0xFF), 8)

	if !cpu.conditional(cond) {
		return 2, nil
	}
	cpu.PC += disp << 1
	return 0, nil
}

// Sub-table 4: func3 [11:9], imm5 [8:4], rD [3:0].
func (cpu *CPUScore) execC4ShiftImm(half uint16) (uint32, error) {
	fn := (half >> 9) & 7
	imm := uint32((half >> 4) & 0x1F)
	rD := uint32(half & 0xF)

	d := cpu.R[rD]

	switch fn {
	case C4_SLLI:
		cpu.setReg(rD, cpu.aluSll(d, imm, true))
	case C4_SRLI:
		cpu.setReg(rD, cpu.aluSrl(d, imm, true))
	case C4_SRAI:
		cpu.setReg(rD, cpu.aluSra(d, imm, true))
	default:
		return 0, fmt.Errorf("compressed/4: unknown func 0x%X", fn)
	}
	return 2, nil
}

// Sub-table 5: func4 [11:8], rD [7:4], rA [3:0].
func (cpu *CPUScore) execC5Extend(half uint16) (uint32, error) {
	fn := (half >> 8) & 0xF
	rD := uint32((half >> 4) & 0xF)
	rA := uint32(half & 0xF)

	a := cpu.R[rA]

	switch fn {
	case C5_EXTSB:
		cpu.setReg(rD, cpu.aluExtsb(a, true))
	case C5_EXTSH:
		cpu.setReg(rD, cpu.aluExtsh(a, true))
	case C5_EXTZB:
		cpu.setReg(rD, cpu.aluExtzb(a, true))
	case C5_EXTZH:
		cpu.setReg(rD, cpu.aluExtzh(a, true))
	default:
		return 0, fmt.Errorf("compressed/5: unknown func 0x%X", fn)
	}
	return 2, nil
}

// Sub-table 6: func4 [11:8] (0 push, 1 pop), rD [3:0]. The stack grows
// downward through r2. push! decrements before the store, pop! loads
// then increments, so they pair without adjustment.
func (cpu *CPUScore) execC6PushPop(half uint16) (uint32, error) {
	fn := (half >> 8) & 0xF
	rD := uint32(half & 0xF)

	switch fn {
	case 0:
		sp := cpu.R[REG_SP] - 4
		cpu.mem.WriteU32(sp, cpu.R[rD])
		cpu.setReg(REG_SP, sp)
	case 1:
		sp := cpu.R[REG_SP]
		cpu.setReg(rD, cpu.mem.ReadU32(sp))
		cpu.setReg(REG_SP, sp+4)
	default:
		return 0, fmt.Errorf("compressed/6: unknown func 0x%X", fn)
	}
	return 2, nil
}

// Sub-table 7: store bit [11], imm7 [10:4] word-scaled, rD [3:0].
// Addresses r2 + imm*4, covering the first 512 bytes of frame.
func (cpu *CPUScore) execC7SPRel(half uint16) (uint32, error) {
	store := half&(1<<11) != 0
	imm := uint32((half >> 4) & 0x7F)
	rD := uint32(half & 0xF)

	addr := cpu.R[REG_SP] + imm*4

	if store {
		cpu.mem.WriteU32(addr, cpu.R[rD])
	} else {
		cpu.setReg(rD, cpu.mem.ReadU32(addr))
	}
	return 2, nil
}
