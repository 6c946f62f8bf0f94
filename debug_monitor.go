// debug_monitor.go - Machine monitor (line-oriented debugger)

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
debug_monitor.go - interactive machine monitor

Line-oriented debugger over any reader/writer pair, so the same code
serves interactive stdin sessions and scripted tests. The monitor owns
a Lua engine for automation; `script file.lua` and `lua <expr>` hand
control to it with the full hardware API from debug_script.go.
*/

package main

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

type Monitor struct {
	machine *Machine
	in      *bufio.Scanner
	out     io.Writer
	script  *ScriptEngine

	prevRegs [32]uint32
}

func NewMonitor(machine *Machine, in io.Reader, out io.Writer) *Monitor {
	return &Monitor{
		machine: machine,
		in:      bufio.NewScanner(in),
		out:     out,
		script:  NewScriptEngine(machine, out),
	}
}

func (mon *Monitor) Close() {
	mon.script.Close()
}

func (mon *Monitor) printf(format string, args ...interface{}) {
	fmt.Fprintf(mon.out, format+"\n", args...)
}

// Run processes commands until quit or EOF.
func (mon *Monitor) Run() {
	mon.printf("MACHINE MONITOR - type ? for help")
	mon.saveRegs()

	for {
		fmt.Fprint(mon.out, "> ")
		if !mon.in.Scan() {
			return
		}
		line := strings.TrimSpace(mon.in.Text())
		if line == "" {
			continue
		}
		if !mon.Execute(line) {
			return
		}
	}
}

// Execute runs one command line. Returns false on quit.
func (mon *Monitor) Execute(line string) bool {
	fields := strings.Fields(line)
	cmd := fields[0]
	args := fields[1:]

	switch cmd {
	case "?", "help":
		mon.showHelp()
	case "r", "regs":
		mon.showRegisters()
	case "s", "step":
		mon.cmdStep(args)
	case "c", "cont":
		mon.machine.CPU.Resume()
		mon.printf("resumed")
	case "b", "break":
		mon.cmdBreak(args, true)
	case "bc":
		mon.cmdBreak(args, false)
	case "bl":
		for _, addr := range mon.machine.CPU.Breakpoints() {
			mon.printf("  %08X", addr)
		}
	case "m", "mem":
		mon.cmdMem(args)
	case "w", "poke":
		mon.cmdPoke(args)
	case "d", "dis":
		mon.cmdDisasm(args)
	case "ir":
		mon.printf("%s", mon.machine.INTC)
	case "irq":
		if v, ok := parseNum(args, 0); ok {
			mon.machine.INTC.Trigger(v)
		}
	case "cd":
		mon.cmdDisc(args)
	case "script":
		if len(args) != 1 {
			mon.printf("usage: script <file.lua>")
			break
		}
		if err := mon.script.RunFile(args[0]); err != nil {
			mon.printf("%v", err)
		}
	case "lua":
		if err := mon.script.RunString(strings.TrimPrefix(line, "lua ")); err != nil {
			mon.printf("%v", err)
		}
	case "reset":
		mon.machine.Reset()
		mon.printf("machine reset")
	case "q", "quit":
		return false
	default:
		mon.printf("unknown command %q, type ? for help", cmd)
	}
	return true
}

func (mon *Monitor) showHelp() {
	mon.printf("  r               show registers")
	mon.printf("  s [n]           step n instructions (default 1)")
	mon.printf("  c               resume from pause")
	mon.printf("  b <addr>        set breakpoint")
	mon.printf("  bc <addr>       clear breakpoint")
	mon.printf("  bl              list breakpoints")
	mon.printf("  m <addr> [n]    hex dump n bytes (default 64)")
	mon.printf("  w <addr> <val>  write a 32-bit word")
	mon.printf("  d [addr] [n]    disassemble n instructions (default 8)")
	mon.printf("  ir              interrupt controller state")
	mon.printf("  irq <n>         inject IRQ n")
	mon.printf("  cd vol|ls [dir] disc volume / directory listing")
	mon.printf("  script <file>   run a Lua script")
	mon.printf("  lua <code>      evaluate Lua inline")
	mon.printf("  reset           reset the machine")
	mon.printf("  q               quit")
}

func (mon *Monitor) saveRegs() {
	cpu := mon.machine.CPU
	for i := 0; i < 32; i++ {
		mon.prevRegs[i] = cpu.GetRegister(i)
	}
}

func (mon *Monitor) showRegisters() {
	cpu := mon.machine.CPU
	for row := 0; row < 8; row++ {
		var b strings.Builder
		for col := 0; col < 4; col++ {
			i := row*4 + col
			v := cpu.GetRegister(i)
			mark := " "
			if v != mon.prevRegs[i] {
				mark = "*"
			}
			fmt.Fprintf(&b, "r%-2d %08X%s  ", i, v, mark)
		}
		mon.printf("%s", strings.TrimRight(b.String(), " "))
	}
	n, z, c, v, t := cpu.GetFlags()
	mon.printf("pc  %08X   N=%t Z=%t C=%t V=%t T=%t", cpu.PC, n, z, c, v, t)
	mon.printf("cel %08X   ceh %08X   cycles %d", cpu.CEL, cpu.CEH, cpu.Cycles)
	mon.saveRegs()
}

func (mon *Monitor) cmdStep(args []string) {
	n, ok := parseNum(args, 0)
	if !ok {
		n = 1
	}
	executed := uint32(0)
	for i := uint32(0); i < n; i++ {
		if !mon.machine.CPU.Step() {
			break
		}
		executed++
	}
	mon.printf("stepped %d", executed)
	mon.showRegisters()
	mon.disasmAt(mon.machine.CPU.PC, 1)
}

func (mon *Monitor) cmdBreak(args []string, set bool) {
	addr, ok := parseNum(args, 0)
	if !ok {
		mon.printf("usage: b <addr>")
		return
	}
	if set {
		mon.machine.CPU.SetBreakpoint(addr)
		mon.printf("breakpoint at %08X", addr)
	} else {
		mon.machine.CPU.ClearBreakpoint(addr)
		mon.printf("breakpoint cleared at %08X", addr)
	}
}

func (mon *Monitor) cmdMem(args []string) {
	addr, ok := parseNum(args, 0)
	if !ok {
		mon.printf("usage: m <addr> [count]")
		return
	}
	count, ok := parseNum(args, 1)
	if !ok {
		count = 64
	}
	for base := addr &^ 15; base < addr+count; base += 16 {
		var hex, ascii strings.Builder
		for i := uint32(0); i < 16; i++ {
			b := mon.machine.MIU.ReadU8(base + i)
			fmt.Fprintf(&hex, "%02X ", b)
			if b >= 0x20 && b < 0x7F {
				ascii.WriteByte(b)
			} else {
				ascii.WriteByte('.')
			}
		}
		mon.printf("%08X  %s %s", base, hex.String(), ascii.String())
	}
}

func (mon *Monitor) cmdPoke(args []string) {
	addr, ok1 := parseNum(args, 0)
	value, ok2 := parseNum(args, 1)
	if !ok1 || !ok2 {
		mon.printf("usage: w <addr> <value>")
		return
	}
	mon.machine.MIU.WriteU32(addr, value)
	mon.printf("%08X <- %08X", addr, value)
}

func (mon *Monitor) cmdDisasm(args []string) {
	addr, ok := parseNum(args, 0)
	if !ok {
		addr = mon.machine.CPU.PC
	}
	count, ok := parseNum(args, 1)
	if !ok {
		count = 8
	}
	mon.disasmAt(addr, count)
}

func (mon *Monitor) disasmAt(addr uint32, count uint32) {
	for i := uint32(0); i < count; i++ {
		word := mon.machine.MIU.ReadU32(addr)
		text, size := DisassembleScore(word, addr)
		marker := "  "
		if addr == mon.machine.CPU.PC {
			marker = "> "
		}
		if size == 2 {
			mon.printf("%s%08X  %04X      %s", marker, addr, uint16(word), text)
		} else {
			mon.printf("%s%08X  %08X  %s", marker, addr, word, text)
		}
		addr += uint32(size)
	}
}

func (mon *Monitor) cmdDisc(args []string) {
	if len(args) == 0 {
		mon.printf("usage: cd vol|ls [dir]")
		return
	}
	cd := mon.machine.CDROM
	switch args[0] {
	case "vol":
		mon.printf("volume %q, %d sectors", cd.VolumeID(), cd.Sectors())
	case "ls":
		dir := "/"
		if len(args) > 1 {
			dir = args[1]
		}
		names, err := cd.ListDirectory(dir)
		if err != nil {
			mon.printf("%v", err)
			return
		}
		for _, name := range names {
			mon.printf("  %s", name)
		}
	default:
		mon.printf("usage: cd vol|ls [dir]")
	}
}

// parseNum reads args[idx] as hex (with or without 0x prefix) or
// decimal with a # prefix.
func parseNum(args []string, idx int) (uint32, bool) {
	if idx >= len(args) {
		return 0, false
	}
	s := args[idx]
	if strings.HasPrefix(s, "#") {
		v, err := strconv.ParseUint(s[1:], 10, 32)
		return uint32(v), err == nil
	}
	s = strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	v, err := strconv.ParseUint(s, 16, 32)
	return uint32(v), err == nil
}
