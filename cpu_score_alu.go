// cpu_score_alu.go - S+core ALU primitives and flag computation

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
cpu_score_alu.go - ALU primitives for the S+core CPU

Arithmetic, logic, shift/rotate, extension and bit operations used by
every instruction-form executor. All values are unsigned 32-bit words;
signedness only matters for the V flag and the condition table.

Flag rules:

    N is bit 31 of the result, Z is result==0.
    Add carry:  C=1 iff b > 0xFFFFFFFF - a (unsigned carry out).
    Sub carry:  C=1 iff a >= b (carry-as-no-borrow).
    Overflow:   XOR-of-operands-vs-result test, add and sub families.
    Shifts:     C is the last bit shifted out; amount 0 leaves C alone.
    bittst:     sets both T (bit value) and Z (its inverse). This dual
                write is architectural, not a bug.
*/

package main

import "math/bits"

// Condition codes for the conditional() truth table.
const (
	COND_CS = 0x0 // carry set
	COND_CC = 0x1 // carry clear
	COND_HI = 0x2 // unsigned higher
	COND_LS = 0x3 // unsigned lower or same
	COND_EQ = 0x4
	COND_NE = 0x5
	COND_GT = 0x6
	COND_LE = 0x7
	COND_GE = 0x8
	COND_LT = 0x9
	COND_MI = 0xA
	COND_PL = 0xB
	COND_VS = 0xC
	COND_VC = 0xD
	COND_T  = 0xE
	COND_AL = 0xF
)

// signExtend extends the low `width` bits of x to a full 32-bit two's
// complement value. Widths of 32 or more are the identity.
func signExtend(x uint32, width uint) uint32 {
	if width >= 32 {
		return x
	}
	shift := 32 - width
	return uint32(int32(x<<shift) >> shift)
}

func (cpu *CPUScore) setNZ(res uint32) {
	cpu.FlagN = res&0x80000000 != 0
	cpu.FlagZ = res == 0
}

func (cpu *CPUScore) aluAdd(a, b uint32, update bool) uint32 {
	res := a + b
	if update {
		cpu.setNZ(res)
		cpu.FlagC = b > 0xFFFFFFFF-a
		cpu.FlagV = ((^(a ^ b))&(a^res))>>31 != 0
	}
	return res
}

func (cpu *CPUScore) aluAddc(a, b uint32, update bool) uint32 {
	carry := uint32(0)
	if cpu.FlagC {
		carry = 1
	}
	wide := uint64(a) + uint64(b) + uint64(carry)
	res := uint32(wide)
	if update {
		cpu.setNZ(res)
		cpu.FlagC = wide > 0xFFFFFFFF
		cpu.FlagV = ((^(a ^ b))&(a^res))>>31 != 0
	}
	return res
}

func (cpu *CPUScore) aluSub(a, b uint32, update bool) uint32 {
	res := a - b
	if update {
		cpu.setNZ(res)
		cpu.FlagC = a >= b
		cpu.FlagV = ((a^b)&(^(res ^ b)))>>31 != 0
	}
	return res
}

func (cpu *CPUScore) aluSubc(a, b uint32, update bool) uint32 {
	borrow := uint32(1)
	if cpu.FlagC {
		borrow = 0
	}
	res := a - b - borrow
	if update {
		cpu.setNZ(res)
		cpu.FlagC = uint64(a) >= uint64(b)+uint64(borrow)
		cpu.FlagV = ((a^b)&(^(res ^ b)))>>31 != 0
	}
	return res
}

func (cpu *CPUScore) aluAnd(a, b uint32, update bool) uint32 {
	res := a & b
	if update {
		cpu.setNZ(res)
	}
	return res
}

func (cpu *CPUScore) aluOr(a, b uint32, update bool) uint32 {
	res := a | b
	if update {
		cpu.setNZ(res)
	}
	return res
}

func (cpu *CPUScore) aluXor(a, b uint32, update bool) uint32 {
	res := a ^ b
	if update {
		cpu.setNZ(res)
	}
	return res
}

func (cpu *CPUScore) aluNot(a uint32, update bool) uint32 {
	res := ^a
	if update {
		cpu.setNZ(res)
	}
	return res
}

// Shift amount is masked to 0-31. With the amount masked to 0 the carry
// flag is left untouched.

func (cpu *CPUScore) aluSll(a, amount uint32, update bool) uint32 {
	amount &= 31
	res := a << amount
	if update {
		cpu.setNZ(res)
		if amount != 0 {
			cpu.FlagC = (a>>(32-amount))&1 != 0
		}
	}
	return res
}

func (cpu *CPUScore) aluSrl(a, amount uint32, update bool) uint32 {
	amount &= 31
	res := a >> amount
	if update {
		cpu.setNZ(res)
		if amount != 0 {
			cpu.FlagC = (a>>(amount-1))&1 != 0
		}
	}
	return res
}

func (cpu *CPUScore) aluSra(a, amount uint32, update bool) uint32 {
	amount &= 31
	res := uint32(int32(a) >> amount)
	if update {
		cpu.setNZ(res)
		if amount != 0 {
			cpu.FlagC = (a>>(amount-1))&1 != 0
		}
	}
	return res
}

func (cpu *CPUScore) aluRor(a, amount uint32, update bool) uint32 {
	amount &= 31
	res := bits.RotateLeft32(a, -int(amount))
	if update {
		cpu.setNZ(res)
		if amount != 0 {
			cpu.FlagC = res&0x80000000 != 0
		}
	}
	return res
}

func (cpu *CPUScore) aluRol(a, amount uint32, update bool) uint32 {
	amount &= 31
	res := bits.RotateLeft32(a, int(amount))
	if update {
		cpu.setNZ(res)
		if amount != 0 {
			cpu.FlagC = res&1 != 0
		}
	}
	return res
}

// rorc/rolc rotate by one position through the carry flag (33-bit rotate).

func (cpu *CPUScore) aluRorc(a uint32, update bool) uint32 {
	carry := uint32(0)
	if cpu.FlagC {
		carry = 1
	}
	res := (a >> 1) | (carry << 31)
	if update {
		cpu.setNZ(res)
		cpu.FlagC = a&1 != 0
	}
	return res
}

func (cpu *CPUScore) aluRolc(a uint32, update bool) uint32 {
	carry := uint32(0)
	if cpu.FlagC {
		carry = 1
	}
	res := (a << 1) | carry
	if update {
		cpu.setNZ(res)
		cpu.FlagC = a&0x80000000 != 0
	}
	return res
}

func (cpu *CPUScore) aluExtsb(a uint32, update bool) uint32 {
	res := signExtend(a&0xFF, 8)
	if update {
		cpu.setNZ(res)
	}
	return res
}

func (cpu *CPUScore) aluExtsh(a uint32, update bool) uint32 {
	res := signExtend(a&0xFFFF, 16)
	if update {
		cpu.setNZ(res)
	}
	return res
}

func (cpu *CPUScore) aluExtzb(a uint32, update bool) uint32 {
	res := a & 0xFF
	if update {
		cpu.setNZ(res)
	}
	return res
}

func (cpu *CPUScore) aluExtzh(a uint32, update bool) uint32 {
	res := a & 0xFFFF
	if update {
		cpu.setNZ(res)
	}
	return res
}

func (cpu *CPUScore) aluBitclr(a, bit uint32, update bool) uint32 {
	res := a &^ (1 << (bit & 31))
	if update {
		cpu.setNZ(res)
	}
	return res
}

func (cpu *CPUScore) aluBitset(a, bit uint32, update bool) uint32 {
	res := a | (1 << (bit & 31))
	if update {
		cpu.setNZ(res)
	}
	return res
}

func (cpu *CPUScore) aluBittgl(a, bit uint32, update bool) uint32 {
	res := a ^ (1 << (bit & 31))
	if update {
		cpu.setNZ(res)
	}
	return res
}

// aluBittst sets both T (the tested bit) and Z (its inverse).
func (cpu *CPUScore) aluBittst(a, bit uint32) {
	set := a&(1<<(bit&31)) != 0
	cpu.FlagT = set
	cpu.FlagZ = !set
}

// Multiply/divide write the full 64-bit product or quotient/remainder
// pair into the custom-engine registers: CEL gets the low word or the
// quotient, CEH the high word or the remainder. Division by zero leaves
// CEL/CEH unchanged; no exception is raised.

func (cpu *CPUScore) aluMul(a, b uint32) {
	prod := int64(int32(a)) * int64(int32(b))
	cpu.CEL = uint32(prod)
	cpu.CEH = uint32(uint64(prod) >> 32)
}

func (cpu *CPUScore) aluMulu(a, b uint32) {
	prod := uint64(a) * uint64(b)
	cpu.CEL = uint32(prod)
	cpu.CEH = uint32(prod >> 32)
}

func (cpu *CPUScore) aluDiv(a, b uint32) {
	if b == 0 {
		return
	}
	cpu.CEL = uint32(int32(a) / int32(b))
	cpu.CEH = uint32(int32(a) % int32(b))
}

func (cpu *CPUScore) aluDivu(a, b uint32) {
	if b == 0 {
		return
	}
	cpu.CEL = a / b
	cpu.CEH = a % b
}

// conditional evaluates one of the 16 architectural condition codes
// against the current flags.
func (cpu *CPUScore) conditional(code uint32) bool {
	switch code & 0xF {
	case COND_CS:
		return cpu.FlagC
	case COND_CC:
		return !cpu.FlagC
	case COND_HI:
		return cpu.FlagC && !cpu.FlagZ
	case COND_LS:
		return !cpu.FlagC || cpu.FlagZ
	case COND_EQ:
		return cpu.FlagZ
	case COND_NE:
		return !cpu.FlagZ
	case COND_GT:
		return !cpu.FlagZ && cpu.FlagN == cpu.FlagV
	case COND_LE:
		return cpu.FlagZ || cpu.FlagN != cpu.FlagV
	case COND_GE:
		return cpu.FlagN == cpu.FlagV
	case COND_LT:
		return cpu.FlagN != cpu.FlagV
	case COND_MI:
		return cpu.FlagN
	case COND_PL:
		return !cpu.FlagN
	case COND_VS:
		return cpu.FlagV
	case COND_VC:
		return !cpu.FlagV
	case COND_T:
		return cpu.FlagT
	default: // COND_AL
		return true
	}
}
