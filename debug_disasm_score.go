// debug_disasm_score.go - S+core instruction disassembler

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
debug_disasm_score.go - one-line-per-instruction disassembly

Mirrors the executor decode tables exactly; any divergence between the
two is a bug in one of them. Returns the mnemonic line and the
instruction length in bytes so callers can walk a region.
*/

package main

import "fmt"

var condNames = [16]string{
	"cs", "cc", "hi", "ls", "eq", "ne", "gt", "le",
	"ge", "lt", "mi", "pl", "vs", "vc", "t", "",
}

func condSuffix(cond uint32) string {
	return condNames[cond&0xF]
}

func cuSuffix(word uint32) string {
	if word&1 != 0 {
		return "!"
	}
	return ""
}

// DisassembleScore renders the instruction word at pc. The length
// return is 4 for full-width forms and 2 for compressed.
func DisassembleScore(word uint32, pc uint32) (string, int) {
	op := word >> 27

	switch {
	case op == 0x00:
		return disasmSPForm(word), 4
	case op == 0x01:
		return disasmIForm(word, false), 4
	case op == 0x05:
		return disasmIForm(word, true), 4
	case op == 0x02:
		return disasmJForm(word, pc), 4
	case op == 0x03:
		return disasmRIXForm(word, false), 4
	case op == 0x07:
		return disasmRIXForm(word, true), 4
	case op == 0x04:
		return disasmBForm(word, pc), 4
	case op >= 0x10 && op <= 0x17:
		return disasmMemForm(word), 4
	}
	return disasmCompressed(uint16(word), pc), 2
}

func disasmSPForm(word uint32) string {
	rD := (word >> 22) & 31
	rA := (word >> 17) & 31
	rB := (word >> 12) & 31
	cond := (word >> 7) & 0xF
	fn := (word >> 1) & 0x3F
	cu := cuSuffix(word)

	switch fn {
	case SP_NOP:
		return "nop"
	case SP_SYSCALL:
		return "syscall"
	case SP_TRAP:
		return fmt.Sprintf("trap%s", condSuffix(cond))
	case SP_SDBBP:
		return "sdbbp"
	case SP_BR:
		link := ""
		if word&1 != 0 {
			link = "l"
		}
		return fmt.Sprintf("br%s%s r%d", condSuffix(cond), link, rA)
	case SP_ADD:
		return fmt.Sprintf("add%s r%d, r%d, r%d", cu, rD, rA, rB)
	case SP_ADDC:
		return fmt.Sprintf("addc%s r%d, r%d, r%d", cu, rD, rA, rB)
	case SP_SUB:
		return fmt.Sprintf("sub%s r%d, r%d, r%d", cu, rD, rA, rB)
	case SP_SUBC:
		return fmt.Sprintf("subc%s r%d, r%d, r%d", cu, rD, rA, rB)
	case SP_CMP:
		return fmt.Sprintf("cmp r%d, r%d", rA, rB)
	case SP_AND:
		return fmt.Sprintf("and%s r%d, r%d, r%d", cu, rD, rA, rB)
	case SP_OR:
		return fmt.Sprintf("or%s r%d, r%d, r%d", cu, rD, rA, rB)
	case SP_XOR:
		return fmt.Sprintf("xor%s r%d, r%d, r%d", cu, rD, rA, rB)
	case SP_NOT:
		return fmt.Sprintf("not%s r%d, r%d", cu, rD, rA)
	case SP_SLL:
		return fmt.Sprintf("sll%s r%d, r%d, r%d", cu, rD, rA, rB)
	case SP_SRL:
		return fmt.Sprintf("srl%s r%d, r%d, r%d", cu, rD, rA, rB)
	case SP_SRA:
		return fmt.Sprintf("sra%s r%d, r%d, r%d", cu, rD, rA, rB)
	case SP_ROR:
		return fmt.Sprintf("ror%s r%d, r%d, r%d", cu, rD, rA, rB)
	case SP_ROL:
		return fmt.Sprintf("rol%s r%d, r%d, r%d", cu, rD, rA, rB)
	case SP_RORC:
		return fmt.Sprintf("rorc%s r%d, r%d", cu, rD, rA)
	case SP_ROLC:
		return fmt.Sprintf("rolc%s r%d, r%d", cu, rD, rA)
	case SP_MUL:
		return fmt.Sprintf("mul r%d, r%d", rA, rB)
	case SP_MULU:
		return fmt.Sprintf("mulu r%d, r%d", rA, rB)
	case SP_DIV:
		return fmt.Sprintf("div r%d, r%d", rA, rB)
	case SP_DIVU:
		return fmt.Sprintf("divu r%d, r%d", rA, rB)
	case SP_MFCEL:
		return fmt.Sprintf("mfcel r%d", rD)
	case SP_MFCEH:
		return fmt.Sprintf("mfceh r%d", rD)
	case SP_MTCEL:
		return fmt.Sprintf("mtcel r%d", rA)
	case SP_MTCEH:
		return fmt.Sprintf("mtceh r%d", rA)
	case SP_MFSR:
		return fmt.Sprintf("mfsr r%d, sr%d", rD, rB)
	case SP_MTSR:
		return fmt.Sprintf("mtsr r%d, sr%d", rA, rB)
	case SP_MFCR:
		return fmt.Sprintf("mfcr r%d, cr%d", rD, rB)
	case SP_MTCR:
		return fmt.Sprintf("mtcr r%d, cr%d", rA, rB)
	case SP_CMOV:
		return fmt.Sprintf("cmov%s r%d, r%d", condSuffix(cond), rD, rA)
	case SP_EXTSB:
		return fmt.Sprintf("extsb%s r%d, r%d", cu, rD, rA)
	case SP_EXTSH:
		return fmt.Sprintf("extsh%s r%d, r%d", cu, rD, rA)
	case SP_EXTZB:
		return fmt.Sprintf("extzb%s r%d, r%d", cu, rD, rA)
	case SP_EXTZH:
		return fmt.Sprintf("extzh%s r%d, r%d", cu, rD, rA)
	case SP_BITCLR:
		return fmt.Sprintf("bitclr%s r%d, r%d, %d", cu, rD, rA, rB)
	case SP_BITSET:
		return fmt.Sprintf("bitset%s r%d, r%d, %d", cu, rD, rA, rB)
	case SP_BITTST:
		return fmt.Sprintf("bittst r%d, %d", rA, rB)
	case SP_BITTGL:
		return fmt.Sprintf("bittgl%s r%d, r%d, %d", cu, rD, rA, rB)
	case SP_LDW:
		return fmt.Sprintf("ldw r%d, [r%d]", rD, rA)
	case SP_LDB:
		return fmt.Sprintf("ldb r%d, [r%d]", rD, rA)
	case SP_STW:
		return fmt.Sprintf("stw r%d, [r%d]", rD, rA)
	case SP_STB:
		return fmt.Sprintf("stb r%d, [r%d]", rD, rA)
	case SP_RTE:
		return "rte"
	}
	return fmt.Sprintf(".word 0x%08X", word)
}

var iFormNames = [8]string{"addi", "cmpi", "andi", "ori", "xori", "ldi", "?", "?"}

func disasmIForm(word uint32, upper bool) string {
	rD := (word >> 22) & 31
	fn := (word >> 19) & 7
	imm16 := (word >> 3) & 0xFFFF
	cu := cuSuffix(word)

	if fn > I_LDI {
		return fmt.Sprintf(".word 0x%08X", word)
	}
	name := iFormNames[fn]
	if upper {
		return fmt.Sprintf("%su%s r%d, 0x%X0000", name, cu, rD, imm16)
	}
	return fmt.Sprintf("%s%s r%d, 0x%X", name, cu, rD, imm16)
}

func disasmJForm(word uint32, pc uint32) string {
	name := "j"
	if word&(1<<26) != 0 {
		name = "jl"
	}
	target := pc + (signExtend(word&0xFFFFFF, 24) << 1)
	return fmt.Sprintf("%s 0x%08X", name, target)
}

func disasmBForm(word uint32, pc uint32) string {
	dispHi := (word >> 13) & 0x3FFF
	cond := (word >> 9) & 0xF
	dispLo := (word >> 1) & 0xFF
	link := ""
	if word&1 != 0 {
		link = "l"
	}
	target := pc + (signExtend(dispHi<<8|dispLo, 22) << 1)
	return fmt.Sprintf("b%s%s 0x%08X", condSuffix(cond), link, target)
}

var rixNames = [8]string{"lw", "lh", "lhu", "lb", "lbu", "sw", "sh", "sb"}

func disasmRIXForm(word uint32, postUpdate bool) string {
	rD := (word >> 22) & 31
	rA := (word >> 17) & 31
	imm := int32(signExtend((word>>5)&0xFFF, 12))
	fn := (word >> 2) & 7

	if postUpdate {
		return fmt.Sprintf("%s r%d, [r%d]+, %d", rixNames[fn], rD, rA, imm)
	}
	return fmt.Sprintf("%s r%d, [r%d, %d]", rixNames[fn], rD, rA, imm)
}

var memFormNames = [8]string{"lw", "lh", "lhu", "lb", "sw", "sh", "sb", "lbu"}

func disasmMemForm(word uint32) string {
	op := word >> 27
	rD := (word >> 22) & 31
	rA := (word >> 17) & 31
	imm := int32(signExtend(word&0x7FFF, 15))
	return fmt.Sprintf("%s r%d, [r%d, %d]", memFormNames[op&7], rD, rA, imm)
}

func disasmCompressed(half uint16, pc uint32) string {
	sub := (half >> 12) & 7
	rD4 := uint32((half >> 4) & 0xF)
	rA4 := uint32(half & 0xF)

	switch sub {
	case 0:
		switch (half >> 8) & 0xF {
		case C0_NOP:
			return "nop!"
		case C0_MV:
			return fmt.Sprintf("mv! r%d, r%d", rD4, rA4)
		case C0_BR:
			return fmt.Sprintf("br! r%d", rA4)
		case C0_BRL:
			return fmt.Sprintf("brl! r%d", rA4)
		case C0_BREAK:
			return "break!"
		}
	case 1:
		imm := (half >> 4) & 0x1F
		rD := half & 0xF
		switch (half >> 9) & 7 {
		case C1_ADDI:
			return fmt.Sprintf("addi! r%d, %d", rD, imm)
		case C1_SUBI:
			return fmt.Sprintf("subi! r%d, %d", rD, imm)
		case C1_CMPI:
			return fmt.Sprintf("cmpi! r%d, %d", rD, imm)
		case C1_LDI:
			return fmt.Sprintf("ldi! r%d, %d", rD, imm)
		}
	case 2:
		names := [8]string{"add!", "sub!", "and!", "or!", "xor!", "not!", "cmp!", "mlo!"}
		fn := (half >> 8) & 0xF
		if fn < 8 {
			return fmt.Sprintf("%s r%d, r%d", names[fn], rD4, rA4)
		}
	case 3:
		cond := uint32((half >> 8) & 0xF)
		target := pc + (signExtend(uint32(half&0xFF), 8) << 1)
		return fmt.Sprintf("b%s! 0x%08X", condSuffix(cond), target)
	case 4:
		imm := (half >> 4) & 0x1F
		rD := half & 0xF
		switch (half >> 9) & 7 {
		case C4_SLLI:
			return fmt.Sprintf("slli! r%d, %d", rD, imm)
		case C4_SRLI:
			return fmt.Sprintf("srli! r%d, %d", rD, imm)
		case C4_SRAI:
			return fmt.Sprintf("srai! r%d, %d", rD, imm)
		}
	case 5:
		names := [4]string{"extsb!", "extsh!", "extzb!", "extzh!"}
		fn := (half >> 8) & 0xF
		if fn < 4 {
			return fmt.Sprintf("%s r%d, r%d", names[fn], rD4, rA4)
		}
	case 6:
		rD := half & 0xF
		switch (half >> 8) & 0xF {
		case 0:
			return fmt.Sprintf("push! r%d", rD)
		case 1:
			return fmt.Sprintf("pop! r%d", rD)
		}
	case 7:
		imm := uint32((half>>4)&0x7F) * 4
		rD := half & 0xF
		if half&(1<<11) != 0 {
			return fmt.Sprintf("swp! r%d, [r2, %d]", rD, imm)
		}
		return fmt.Sprintf("lwp! r%d, [r2, %d]", rD, imm)
	}
	return fmt.Sprintf(".half 0x%04X", half)
}
