// cpu_score_forms.go - 32-bit instruction form executors

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
cpu_score_forms.go - executors for the six 32-bit encodings

Field layout (primary opcode always bits [31:27]):

    SP-Form   rD[26:22] rA[21:17] rB[16:12] cond[10:7] func6[6:1] CU[0]
    I-Form    rD[26:22] func3[21:19] imm16[18:3] CU[0]
    J-Form    LK[26] disp24[23:0]
    B-Form    dispHi14[26:13] cond[12:9] dispLo8[8:1] LK[0]
    RIX-Form  rD[26:22] rA[21:17] imm12[16:5] func3[4:2]
    Mem-Form  rD[26:22] rA[21:17] imm15[14:0], width in the low opcode bits

Each executor returns the byte length to add to PC, or 0 when it set PC
directly. Unknown function codes are host-side decode errors, recovered
at the Step boundary.
*/

package main

import "fmt"

// SP-Form function codes.
const (
	SP_NOP     = 0x00
	SP_SYSCALL = 0x01
	SP_TRAP    = 0x02
	SP_SDBBP   = 0x03 // software debug breakpoint
	SP_BR      = 0x04 // conditional jump through rA, CU bit links

	SP_ADD  = 0x08
	SP_ADDC = 0x09
	SP_SUB  = 0x0A
	SP_SUBC = 0x0B
	SP_CMP  = 0x0C

	SP_AND = 0x10
	SP_OR  = 0x11
	SP_XOR = 0x12
	SP_NOT = 0x13
	SP_SLL = 0x14
	SP_SRL = 0x15
	SP_SRA = 0x16
	SP_ROR = 0x17
	SP_ROL = 0x18
	SP_RORC = 0x19
	SP_ROLC = 0x1A

	SP_MUL  = 0x1C
	SP_MULU = 0x1D
	SP_DIV  = 0x1E
	SP_DIVU = 0x1F

	SP_MFCEL = 0x20
	SP_MFCEH = 0x21
	SP_MTCEL = 0x22
	SP_MTCEH = 0x23
	SP_MFSR  = 0x24
	SP_MTSR  = 0x25
	SP_MFCR  = 0x26
	SP_MTCR  = 0x27
	SP_CMOV  = 0x28

	SP_EXTSB = 0x2C
	SP_EXTSH = 0x2D
	SP_EXTZB = 0x2E
	SP_EXTZH = 0x2F

	SP_BITCLR = 0x30
	SP_BITSET = 0x31
	SP_BITTST = 0x32
	SP_BITTGL = 0x33

	SP_LDW = 0x34
	SP_LDB = 0x35
	SP_STW = 0x36
	SP_STB = 0x37

	SP_RTE = 0x3F
)

// I-Form function codes (opcode 0x01 low immediate, 0x05 upper).
const (
	I_ADDI = 0x0
	I_CMPI = 0x1
	I_ANDI = 0x2
	I_ORI  = 0x3
	I_XORI = 0x4
	I_LDI  = 0x5
)

// RIX-Form width selectors.
const (
	RIX_LW  = 0x0
	RIX_LH  = 0x1
	RIX_LHU = 0x2
	RIX_LB  = 0x3
	RIX_LBU = 0x4
	RIX_SW  = 0x5
	RIX_SH  = 0x6
	RIX_SB  = 0x7
)

// Memory-Form width selectors (low 3 bits of the primary opcode).
const (
	MEM_LW  = 0x0
	MEM_LH  = 0x1
	MEM_LHU = 0x2
	MEM_LB  = 0x3
	MEM_SW  = 0x4
	MEM_SH  = 0x5
	MEM_SB  = 0x6
	MEM_LBU = 0x7
)

func (cpu *CPUScore) execSPForm(word uint32) (uint32, error) {
	rD := (word >> 22) & 31
	rA := (word >> 17) & 31
	rB := (word >> 12) & 31
	cond := (word >> 7) & 0xF
	fn := (word >> 1) & 0x3F
	cu := word&1 != 0

	a := cpu.R[rA]
	b := cpu.R[rB]

	switch fn {
	case SP_NOP:
		return 4, nil
	case SP_SYSCALL:
		cpu.PC += 4 // the handler returns past the syscall
		cpu.Exception(CAUSE_SYSCALL)
		return 0, nil
	case SP_TRAP:
		if cpu.conditional(cond) {
			cpu.PC += 4
			cpu.Exception(CAUSE_TRAP)
			return 0, nil
		}
		return 4, nil
	case SP_SDBBP:
		cpu.PC += 4
		cpu.Exception(CAUSE_BREAK)
		return 0, nil
	case SP_BR:
		if !cpu.conditional(cond) {
			return 4, nil
		}
		if cu {
			cpu.setReg(REG_LINK, cpu.PC+4)
		}
		cpu.PC = a
		return 0, nil

	case SP_ADD:
		cpu.setReg(rD, cpu.aluAdd(a, b, cu))
	case SP_ADDC:
		cpu.setReg(rD, cpu.aluAddc(a, b, cu))
	case SP_SUB:
		cpu.setReg(rD, cpu.aluSub(a, b, cu))
	case SP_SUBC:
		cpu.setReg(rD, cpu.aluSubc(a, b, cu))
	case SP_CMP:
		cpu.aluSub(a, b, true)

	case SP_AND:
		cpu.setReg(rD, cpu.aluAnd(a, b, cu))
	case SP_OR:
		cpu.setReg(rD, cpu.aluOr(a, b, cu))
	case SP_XOR:
		cpu.setReg(rD, cpu.aluXor(a, b, cu))
	case SP_NOT:
		cpu.setReg(rD, cpu.aluNot(a, cu))
	case SP_SLL:
		cpu.setReg(rD, cpu.aluSll(a, b, cu))
	case SP_SRL:
		cpu.setReg(rD, cpu.aluSrl(a, b, cu))
	case SP_SRA:
		cpu.setReg(rD, cpu.aluSra(a, b, cu))
	case SP_ROR:
		cpu.setReg(rD, cpu.aluRor(a, b, cu))
	case SP_ROL:
		cpu.setReg(rD, cpu.aluRol(a, b, cu))
	case SP_RORC:
		cpu.setReg(rD, cpu.aluRorc(a, cu))
	case SP_ROLC:
		cpu.setReg(rD, cpu.aluRolc(a, cu))

	case SP_MUL:
		cpu.aluMul(a, b)
	case SP_MULU:
		cpu.aluMulu(a, b)
	case SP_DIV:
		cpu.aluDiv(a, b)
	case SP_DIVU:
		cpu.aluDivu(a, b)

	case SP_MFCEL:
		cpu.setReg(rD, cpu.CEL)
	case SP_MFCEH:
		cpu.setReg(rD, cpu.CEH)
	case SP_MTCEL:
		cpu.CEL = a
	case SP_MTCEH:
		cpu.CEH = a
	case SP_MFSR:
		cpu.setReg(rD, cpu.ReadSysReg(rB))
	case SP_MTSR:
		cpu.WriteSysReg(rB, a)
	case SP_MFCR:
		cpu.setReg(rD, cpu.CR[rB])
	case SP_MTCR:
		cpu.CR[rB] = a
	case SP_CMOV:
		if cpu.conditional(cond) {
			cpu.setReg(rD, a)
		}

	case SP_EXTSB:
		cpu.setReg(rD, cpu.aluExtsb(a, cu))
	case SP_EXTSH:
		cpu.setReg(rD, cpu.aluExtsh(a, cu))
	case SP_EXTZB:
		cpu.setReg(rD, cpu.aluExtzb(a, cu))
	case SP_EXTZH:
		cpu.setReg(rD, cpu.aluExtzh(a, cu))

	case SP_BITCLR:
		cpu.setReg(rD, cpu.aluBitclr(a, rB, cu))
	case SP_BITSET:
		cpu.setReg(rD, cpu.aluBitset(a, rB, cu))
	case SP_BITTST:
		cpu.aluBittst(a, rB)
	case SP_BITTGL:
		cpu.setReg(rD, cpu.aluBittgl(a, rB, cu))

	case SP_LDW:
		cpu.setReg(rD, cpu.mem.ReadU32(a))
	case SP_LDB:
		cpu.setReg(rD, uint32(cpu.mem.ReadU8(a)))
	case SP_STW:
		cpu.mem.WriteU32(a, cpu.R[rD])
	case SP_STB:
		cpu.mem.WriteU8(a, uint8(cpu.R[rD]))

	case SP_RTE:
		cpu.rte()
		return 0, nil

	default:
		return 0, fmt.Errorf("sp-form: unknown func 0x%02X", fn)
	}
	return 4, nil
}

// execIForm handles both immediate opcodes: 0x01 operates on the low
// 16 immediate bits, 0x05 is the same instruction family with the
// immediate pre-shifted left 16. One decoder serves both on purpose -
// the pairing is architectural and must not be flattened apart.
func (cpu *CPUScore) execIForm(word uint32, upper bool) (uint32, error) {
	rD := (word >> 22) & 31
	fn := (word >> 19) & 7
	imm16 := (word >> 3) & 0xFFFF
	cu := word&1 != 0

	var imm uint32
	if upper {
		imm = imm16 << 16
	} else {
		switch fn {
		case I_ADDI, I_CMPI:
			imm = signExtend(imm16, 16)
		default:
			imm = imm16
		}
	}

	d := cpu.R[rD]

	switch fn {
	case I_ADDI:
		cpu.setReg(rD, cpu.aluAdd(d, imm, cu))
	case I_CMPI:
		cpu.aluSub(d, imm, true)
	case I_ANDI:
		cpu.setReg(rD, cpu.aluAnd(d, imm, cu))
	case I_ORI:
		cpu.setReg(rD, cpu.aluOr(d, imm, cu))
	case I_XORI:
		cpu.setReg(rD, cpu.aluXor(d, imm, cu))
	case I_LDI:
		cpu.setReg(rD, imm)
		if cu {
			cpu.setNZ(imm)
		}
	default:
		return 0, fmt.Errorf("i-form: unknown func 0x%X", fn)
	}
	return 4, nil
}

// execJForm: unconditional jump/call. The 24-bit displacement is
// sign-extended (earlier hardware revisions of the decoder omitted the
// sign extension and could only jump forward; the extended form is the
// corrected, authoritative behavior). The link bit stores the return
// address in r3.
func (cpu *CPUScore) execJForm(word uint32) (uint32, error) {
	link := word&(1<<26) != 0
	disp := signExtend(word&0xFFFFFF, 24)

	if link {
		cpu.setReg(REG_LINK, cpu.PC+4)
	}
	cpu.PC += disp << 1
	return 0, nil
}

// execBForm: conditional branch. The 22-bit displacement is
// reconstructed from two non-adjacent bitfields (14 high bits above the
// condition code, 8 low bits below it), sign-extended and shifted left
// one.
func (cpu *CPUScore) execBForm(word uint32) (uint32, error) {
	dispHi := (word >> 13) & 0x3FFF
	cond := (word >> 9) & 0xF
	dispLo := (word >> 1) & 0xFF
	link := word&1 != 0

	if !cpu.conditional(cond) {
		return 4, nil
	}
	if link {
		cpu.setReg(REG_LINK, cpu.PC+4)
	}
	disp := signExtend(dispHi<<8|dispLo, 22)
	cpu.PC += disp << 1
	return 0, nil
}

func (cpu *CPUScore) loadWidth(addr uint32, width uint32) (uint32, error) {
	switch width {
	case RIX_LW:
		return cpu.mem.ReadU32(addr), nil
	case RIX_LH:
		return signExtend(uint32(cpu.mem.ReadU16(addr)), 16), nil
	case RIX_LHU:
		return uint32(cpu.mem.ReadU16(addr)), nil
	case RIX_LB:
		return signExtend(uint32(cpu.mem.ReadU8(addr)), 8), nil
	case RIX_LBU:
		return uint32(cpu.mem.ReadU8(addr)), nil
	}
	return 0, fmt.Errorf("load: bad width selector %d", width)
}

// execRIXForm: register-indirect plus 12-bit immediate offset
// load/store. The post-update variant (opcode 0x07) writes the computed
// address back into the base register after the access.
func (cpu *CPUScore) execRIXForm(word uint32, postUpdate bool) (uint32, error) {
	rD := (word >> 22) & 31
	rA := (word >> 17) & 31
	imm := signExtend((word>>5)&0xFFF, 12)
	fn := (word >> 2) & 7

	addr := cpu.R[rA] + imm

	switch fn {
	case RIX_LW, RIX_LH, RIX_LHU, RIX_LB, RIX_LBU:
		value, err := cpu.loadWidth(addr, fn)
		if err != nil {
			return 0, err
		}
		cpu.setReg(rD, value)
	case RIX_SW:
		cpu.mem.WriteU32(addr, cpu.R[rD])
	case RIX_SH:
		cpu.mem.WriteU16(addr, uint16(cpu.R[rD]))
	case RIX_SB:
		cpu.mem.WriteU8(addr, uint8(cpu.R[rD]))
	}

	if postUpdate {
		cpu.setReg(rA, addr)
	}
	return 4, nil
}

// execMemForm: the flat 15-bit-offset load/store family, width selected
// by the low 3 bits of the primary opcode.
func (cpu *CPUScore) execMemForm(word uint32) (uint32, error) {
	op := word >> 27
	rD := (word >> 22) & 31
	rA := (word >> 17) & 31
	imm := signExtend(word&0x7FFF, 15)

	addr := cpu.R[rA] + imm

	switch op & 7 {
	case MEM_LW:
		cpu.setReg(rD, cpu.mem.ReadU32(addr))
	case MEM_LH:
		cpu.setReg(rD, signExtend(uint32(cpu.mem.ReadU16(addr)), 16))
	case MEM_LHU:
		cpu.setReg(rD, uint32(cpu.mem.ReadU16(addr)))
	case MEM_LB:
		cpu.setReg(rD, signExtend(uint32(cpu.mem.ReadU8(addr)), 8))
	case MEM_SW:
		cpu.mem.WriteU32(addr, cpu.R[rD])
	case MEM_SH:
		cpu.mem.WriteU16(addr, uint16(cpu.R[rD]))
	case MEM_SB:
		cpu.mem.WriteU8(addr, uint8(cpu.R[rD]))
	case MEM_LBU:
		cpu.setReg(rD, uint32(cpu.mem.ReadU8(addr)))
	}
	return 4, nil
}
