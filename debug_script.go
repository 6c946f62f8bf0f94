// debug_script.go - Lua scripting for the machine monitor

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
debug_script.go - Lua bindings over the machine

The monitor embeds one Lua state per session with a small hardware
API: memory peek/poke, register access, single-stepping, breakpoints
and interrupt injection. Scripts drive reproducible debugging sessions
and double as hardware smoke tests:

    poke32(0xA0000000, 0x12345678)
    setreg(4, peek32(0xA0000000))
    step(10)
    print(string.format("pc=%08x", pc()))
*/

package main

import (
	"fmt"
	"io"

	lua "github.com/yuin/gopher-lua"
)

type ScriptEngine struct {
	state   *lua.LState
	machine *Machine
	out     io.Writer
}

func NewScriptEngine(machine *Machine, out io.Writer) *ScriptEngine {
	se := &ScriptEngine{
		state:   lua.NewState(),
		machine: machine,
		out:     out,
	}
	se.register()
	return se
}

func (se *ScriptEngine) Close() {
	se.state.Close()
}

// RunFile executes a script from disk.
func (se *ScriptEngine) RunFile(path string) error {
	if err := se.state.DoFile(path); err != nil {
		return fmt.Errorf("script: %w", err)
	}
	return nil
}

// RunString executes inline script text.
func (se *ScriptEngine) RunString(src string) error {
	if err := se.state.DoString(src); err != nil {
		return fmt.Errorf("script: %w", err)
	}
	return nil
}

func (se *ScriptEngine) register() {
	L := se.state
	m := se.machine

	L.SetGlobal("peek8", L.NewFunction(func(L *lua.LState) int {
		L.Push(lua.LNumber(m.MIU.ReadU8(uint32(L.CheckInt64(1)))))
		return 1
	}))
	L.SetGlobal("peek16", L.NewFunction(func(L *lua.LState) int {
		L.Push(lua.LNumber(m.MIU.ReadU16(uint32(L.CheckInt64(1)))))
		return 1
	}))
	L.SetGlobal("peek32", L.NewFunction(func(L *lua.LState) int {
		L.Push(lua.LNumber(m.MIU.ReadU32(uint32(L.CheckInt64(1)))))
		return 1
	}))
	L.SetGlobal("poke8", L.NewFunction(func(L *lua.LState) int {
		m.MIU.WriteU8(uint32(L.CheckInt64(1)), uint8(L.CheckInt64(2)))
		return 0
	}))
	L.SetGlobal("poke16", L.NewFunction(func(L *lua.LState) int {
		m.MIU.WriteU16(uint32(L.CheckInt64(1)), uint16(L.CheckInt64(2)))
		return 0
	}))
	L.SetGlobal("poke32", L.NewFunction(func(L *lua.LState) int {
		m.MIU.WriteU32(uint32(L.CheckInt64(1)), uint32(L.CheckInt64(2)))
		return 0
	}))

	L.SetGlobal("reg", L.NewFunction(func(L *lua.LState) int {
		L.Push(lua.LNumber(m.CPU.GetRegister(L.CheckInt(1))))
		return 1
	}))
	L.SetGlobal("setreg", L.NewFunction(func(L *lua.LState) int {
		m.CPU.SetRegister(L.CheckInt(1), uint32(L.CheckInt64(2)))
		return 0
	}))
	L.SetGlobal("pc", L.NewFunction(func(L *lua.LState) int {
		L.Push(lua.LNumber(m.CPU.PC))
		return 1
	}))
	L.SetGlobal("setpc", L.NewFunction(func(L *lua.LState) int {
		m.CPU.PC = uint32(L.CheckInt64(1))
		return 0
	}))

	L.SetGlobal("step", L.NewFunction(func(L *lua.LState) int {
		n := 1
		if L.GetTop() >= 1 {
			n = L.CheckInt(1)
		}
		executed := 0
		for i := 0; i < n; i++ {
			if !m.CPU.Step() {
				break
			}
			executed++
		}
		L.Push(lua.LNumber(executed))
		return 1
	}))

	L.SetGlobal("bp", L.NewFunction(func(L *lua.LState) int {
		m.CPU.SetBreakpoint(uint32(L.CheckInt64(1)))
		return 0
	}))
	L.SetGlobal("bc", L.NewFunction(func(L *lua.LState) int {
		m.CPU.ClearBreakpoint(uint32(L.CheckInt64(1)))
		return 0
	}))

	L.SetGlobal("irq", L.NewFunction(func(L *lua.LState) int {
		m.INTC.Trigger(uint32(L.CheckInt(1)))
		return 0
	}))

	L.SetGlobal("disasm", L.NewFunction(func(L *lua.LState) int {
		addr := uint32(L.CheckInt64(1))
		word := m.MIU.ReadU32(addr)
		text, size := DisassembleScore(word, addr)
		L.Push(lua.LString(text))
		L.Push(lua.LNumber(size))
		return 2
	}))

	// Route print through the monitor's writer.
	L.SetGlobal("print", L.NewFunction(func(L *lua.LState) int {
		top := L.GetTop()
		for i := 1; i <= top; i++ {
			if i > 1 {
				fmt.Fprint(se.out, "\t")
			}
			fmt.Fprint(se.out, L.ToStringMeta(L.Get(i)).String())
		}
		fmt.Fprintln(se.out)
		return 0
	}))
}
