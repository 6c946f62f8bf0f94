// debug_monitor_test.go - Monitor command tests

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

package main

import (
	"strings"
	"testing"
)

func newTestMonitor(t *testing.T) (*Monitor, *Machine, *strings.Builder) {
	t.Helper()
	m := newTestMachine(t)
	out := &strings.Builder{}
	mon := NewMonitor(m, strings.NewReader(""), out)
	t.Cleanup(mon.Close)
	return mon, m, out
}

func TestMonitorParseNum(t *testing.T) {
	for _, tc := range []struct {
		arg  string
		want uint32
		ok   bool
	}{
		{"10", 0x10, true},
		{"0x10", 0x10, true},
		{"#10", 10, true},
		{"DEADBEEF", 0xDEADBEEF, true},
		{"#junk", 0, false},
		{"zz", 0, false},
	} {
		got, ok := parseNum([]string{tc.arg}, 0)
		if got != tc.want || ok != tc.ok {
			t.Errorf("parseNum(%q) = %08X, %t, expected %08X, %t", tc.arg, got, ok, tc.want, tc.ok)
		}
	}
	if _, ok := parseNum(nil, 0); ok {
		t.Errorf("parseNum accepted a missing argument")
	}
}

// TestMonitorPokeAndDump verifies w writes through the MIU and m dumps
// it back with the ASCII gutter.
func TestMonitorPokeAndDump(t *testing.T) {
	mon, m, out := newTestMonitor(t)

	mon.Execute("w A0000000 44434241")
	if got := m.MIU.ReadU32(0xA0000000); got != 0x44434241 {
		t.Fatalf("poked word = %08X, expected 0x44434241", got)
	}

	out.Reset()
	mon.Execute("m A0000000 #4")
	dump := out.String()
	if !strings.Contains(dump, "41 42 43 44") {
		t.Errorf("dump missing hex bytes:\n%s", dump)
	}
	if !strings.Contains(dump, "ABCD") {
		t.Errorf("dump missing ASCII gutter:\n%s", dump)
	}
}

func TestMonitorBreakpointCommands(t *testing.T) {
	mon, m, out := newTestMonitor(t)

	mon.Execute("b A0000010")
	out.Reset()
	mon.Execute("bl")
	if !strings.Contains(out.String(), "A0000010") {
		t.Fatalf("bl output missing the breakpoint:\n%s", out.String())
	}

	mon.Execute("bc A0000010")
	if len(m.CPU.Breakpoints()) != 0 {
		t.Fatalf("breakpoint survived bc")
	}
}

// TestMonitorStepCommand verifies s executes firmware and reports the
// step count.
func TestMonitorStepCommand(t *testing.T) {
	mon, m, out := newTestMonitor(t)
	if err := m.LoadFirmwareBytes(assemble(iForm(I_LDI, 4, 7, false, false))); err != nil {
		t.Fatalf("LoadFirmwareBytes: %v", err)
	}

	mon.Execute("s")

	if got := m.CPU.GetRegister(4); got != 7 {
		t.Fatalf("r4 = %d after step, expected 7", got)
	}
	if !strings.Contains(out.String(), "stepped 1") {
		t.Fatalf("step output missing count:\n%s", out.String())
	}
}

func TestMonitorDisassemblyMarksPC(t *testing.T) {
	mon, m, out := newTestMonitor(t)
	if err := m.LoadFirmwareBytes(assemble(iForm(I_LDI, 4, 7, false, false))); err != nil {
		t.Fatalf("LoadFirmwareBytes: %v", err)
	}

	mon.Execute("d 9E000000 #1")
	line := out.String()
	if !strings.Contains(line, "> 9E000000") {
		t.Errorf("disassembly missing PC marker:\n%s", line)
	}
	if !strings.Contains(line, "ldi r4, 0x7") {
		t.Errorf("disassembly missing mnemonic:\n%s", line)
	}
}

func TestMonitorIRQInjection(t *testing.T) {
	mon, m, _ := newTestMonitor(t)
	dramBase := uint32(SEG_DRAM) << 24
	m.CPU.CR[3] = dramBase

	mon.Execute("irq #4")
	mon.Execute("s") // injected line delivers on the next step

	if m.CPU.PC != dramBase+IRQ_VBLANK*4 {
		t.Fatalf("PC = %08X after irq inject, expected the vblank vector", m.CPU.PC)
	}
}

func TestMonitorRegisterDisplayMarksChanges(t *testing.T) {
	mon, m, out := newTestMonitor(t)

	mon.Execute("r") // baseline snapshot
	m.CPU.SetRegister(5, 0x1234)
	out.Reset()
	mon.Execute("r")

	if !strings.Contains(out.String(), "r5  00001234*") {
		t.Fatalf("changed register not marked:\n%s", out.String())
	}
}

func TestMonitorQuitAndUnknown(t *testing.T) {
	mon, _, out := newTestMonitor(t)

	if mon.Execute("q") {
		t.Fatalf("q did not request exit")
	}
	if !mon.Execute("xyzzy") {
		t.Fatalf("unknown command requested exit")
	}
	if !strings.Contains(out.String(), "unknown command") {
		t.Fatalf("no diagnostic for unknown command:\n%s", out.String())
	}
}
