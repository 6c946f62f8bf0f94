// spu_test.go - Sound processing unit tests

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

import "testing"

func newTestSPU(t *testing.T) (*SPU, *MIU, *INTC) {
	t.Helper()
	mem := NewMIU(false)
	mem.SetRegion(SEG_DRAM, NewRAMRegion(0x100000, "testram"), "testram")
	ic := NewINTC()
	return NewSPU(mem, ic), mem, ic
}

func TestSPUDisabledIsSilent(t *testing.T) {
	spu, _, _ := newTestSPU(t)
	region := spu.Region()
	region.WriteU32(SPU_REG_CH_ENABLE, 1)
	region.WriteU32(SPU_REG_CH_FREQ, 440)

	for i := 0; i < 100; i++ {
		if got := spu.GenerateSample(); got != 0 {
			t.Fatalf("sample %d = %f with SPU_CTRL_ENABLE clear, expected 0", i, got)
		}
	}
}

// TestSPUSquareVoiceProducesSignal verifies an enabled voice ramps in
// through its envelope and produces both polarities of a square wave.
func TestSPUSquareVoiceProducesSignal(t *testing.T) {
	spu, _, _ := newTestSPU(t)
	region := spu.Region()

	region.WriteU32(SPU_REG_CTRL, SPU_CTRL_ENABLE)
	region.WriteU32(SPU_REG_ENV_CTRL, 0) // voice 0, instant attack/release
	region.WriteU32(SPU_REG_CH_FREQ, 1000)
	region.WriteU32(SPU_REG_CH_ENABLE, 1)

	sawHigh, sawLow := false, false
	for i := 0; i < SPU_SAMPLE_RATE/100; i++ {
		s := spu.GenerateSample()
		if s > 0.01 {
			sawHigh = true
		}
		if s < -0.01 {
			sawLow = true
		}
	}
	if !sawHigh || !sawLow {
		t.Fatalf("square voice produced high=%t low=%t, expected both polarities", sawHigh, sawLow)
	}
}

func TestSPUReleaseRampsToSilence(t *testing.T) {
	spu, _, _ := newTestSPU(t)
	region := spu.Region()

	region.WriteU32(SPU_REG_CTRL, SPU_CTRL_ENABLE)
	region.WriteU32(SPU_REG_ENV_CTRL, 0)
	region.WriteU32(SPU_REG_CH_FREQ, 1000)
	region.WriteU32(SPU_REG_CH_ENABLE, 1)
	spu.GenerateSample()

	region.WriteU32(SPU_REG_CH_ENABLE, 0)
	// Instant release: the very next sample is fully ramped out.
	if got := spu.GenerateSample(); got != 0 {
		t.Fatalf("sample after instant release = %f, expected 0", got)
	}
}

// TestSPUDMAPlayback verifies the PCM stream is copied out of memory,
// consumed one byte per sample, and completion raises IRQ 10 once.
func TestSPUDMAPlayback(t *testing.T) {
	cpu, mem := newTestCPU(t)
	cpu.CR[3] = testRAMBase + 0x1000
	ic := NewINTC()
	ic.ConnectCPU(cpu)
	spu := NewSPU(mem, ic)
	region := spu.Region()

	pcm := testRAMBase + 0x4000
	mem.WriteU8(pcm, 0x40)   // +0.5
	mem.WriteU8(pcm+1, 0xC0) // -0.5
	mem.WriteU8(pcm+2, 0)

	region.WriteU32(SPU_REG_CTRL, SPU_CTRL_ENABLE)
	region.WriteU32(SPU_REG_IRQ_CTRL, SPU_IRQ_DMA_EN)
	region.WriteU32(SPU_REG_DMA_ADDR, pcm)
	region.WriteU32(SPU_REG_DMA_LEN, 3)

	if region.ReadU32(SPU_REG_STATUS)&SPU_STATUS_DMA_BUSY == 0 {
		t.Fatalf("DMA busy not set after DMA_LEN write")
	}

	s0 := spu.GenerateSample()
	if s0 < 0.1 {
		t.Errorf("first PCM sample = %f, expected positive", s0)
	}
	s1 := spu.GenerateSample()
	if s1 > -0.1 {
		t.Errorf("second PCM sample = %f, expected negative", s1)
	}
	spu.GenerateSample() // consumes the last byte

	if got := region.ReadU32(SPU_REG_DMA_COUNT); got != 3 {
		t.Fatalf("DMA_COUNT = %d, expected 3", got)
	}
	step(t, cpu)
	if cpu.PC != testRAMBase+0x1000+IRQ_AUDIO*4 {
		t.Fatalf("PC = %08X, expected the audio vector after exhaustion", cpu.PC)
	}

	// No second completion interrupt.
	cpu.PC = testRAMBase
	spu.GenerateSample()
	step(t, cpu)
	if cpu.PC != testRAMBase+4 {
		t.Fatalf("exhausted DMA raised a second interrupt, PC = %08X", cpu.PC)
	}
}

func TestSPUChannelSelectBits(t *testing.T) {
	spu, _, _ := newTestSPU(t)
	region := spu.Region()

	// Voice 2 selected in bits 31:30.
	region.WriteU32(SPU_REG_CH_FREQ, 2<<30|880)
	if got := spu.voices[2].freq; got != 880 {
		t.Fatalf("voice 2 freq = %d, expected 880", got)
	}
	if got := spu.voices[0].freq; got != 0 {
		t.Fatalf("voice 0 freq = %d, expected untouched 0", got)
	}

	region.WriteU32(SPU_REG_CH_VOL, 2<<30|255)
	if got := spu.voices[2].volume; got != 1.0 {
		t.Fatalf("voice 2 volume = %f, expected 1.0", got)
	}
}

func TestSPUBeatCounter(t *testing.T) {
	spu, _, _ := newTestSPU(t)
	region := spu.Region()
	region.WriteU32(SPU_REG_CTRL, SPU_CTRL_ENABLE)

	for i := 0; i < SPU_SAMPLES_PER_BEAT; i++ {
		spu.GenerateSample()
	}
	if got := region.ReadU32(SPU_REG_BEAT_COUNT); got != 1 {
		t.Fatalf("BEAT_COUNT after one beat of samples = %d, expected 1", got)
	}
}

func TestSPUResetSilencesVoices(t *testing.T) {
	spu, _, _ := newTestSPU(t)
	region := spu.Region()

	region.WriteU32(SPU_REG_CTRL, SPU_CTRL_ENABLE)
	region.WriteU32(SPU_REG_CH_FREQ, 440)
	region.WriteU32(SPU_REG_CH_ENABLE, 1)

	spu.Reset()

	if got := region.ReadU32(SPU_REG_CTRL); got != 0 {
		t.Fatalf("CTRL after reset = %08X, expected 0", got)
	}
	if got := spu.GenerateSample(); got != 0 {
		t.Fatalf("sample after reset = %f, expected silence", got)
	}
}
