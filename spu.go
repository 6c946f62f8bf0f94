// spu.go - Sound processing unit

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
spu.go - sound processing unit behind MMIO window +0x10000

Four square-wave voices with phase accumulators, per-voice volume and
duty, and a linear attack/release envelope, plus an 8-bit signed PCM
stream fed by DMA out of physical memory. The mix is pulled a sample
at a time by the audio backend on its own thread, so every register
touch and every GenerateSample call goes through the mutex.

Channel-indexed registers (CH_FREQ, CH_VOL, CH_DUTY, ENV_CTRL) carry
the voice number in bits 31:30 and the payload in the low bits, which
keeps the register file at one word per concern.

DMA playback: the host copies the whole buffer out of DRAM when
DMA_LEN is written, then consumes one PCM byte per output sample.
Exhaustion raises IRQ 10 when enabled through IRQ_CTRL.
*/

package main

import "sync"

// SPU register offsets.
const (
	SPU_REG_CTRL       = 0x00
	SPU_REG_STATUS     = 0x04
	SPU_REG_MAIN_VOL   = 0x08
	SPU_REG_CH_ENABLE  = 0x0C
	SPU_REG_CH_FREQ    = 0x10
	SPU_REG_CH_VOL     = 0x14
	SPU_REG_CH_DUTY    = 0x18
	SPU_REG_ENV_CTRL   = 0x1C
	SPU_REG_IRQ_CTRL   = 0x20
	SPU_REG_BEAT_COUNT = 0x24
	SPU_REG_DMA_ADDR   = 0x28
	SPU_REG_DMA_LEN    = 0x2C
	SPU_REG_DMA_COUNT  = 0x30
)

const (
	SPU_CTRL_ENABLE = 1 << 0

	SPU_STATUS_DMA_BUSY = 1 << 0

	SPU_IRQ_DMA_EN = 1 << 0

	SPU_VOICES      = 4
	SPU_SAMPLE_RATE = 44100

	// One beat per 60 Hz tick of generated audio.
	SPU_SAMPLES_PER_BEAT = SPU_SAMPLE_RATE / 60
)

type spuVoice struct {
	freq    uint32  // Hz
	volume  float32 // 0..1
	duty    float32 // 0..1, high fraction of the period
	phase   float32 // 0..1
	level   float32 // envelope output, 0..1
	attack  float32 // level delta per sample while rising
	release float32 // level delta per sample while falling
	enabled bool
}

type SPU struct {
	mu sync.Mutex

	ctrl    uint32
	mainVol float32
	irqCtrl uint32

	voices [SPU_VOICES]spuVoice

	dmaAddr  uint32
	dmaLen   uint32
	dmaPos   uint32
	dmaBuf   []byte
	dmaDone  bool // completion already signalled
	beats    uint32
	beatAcc  uint32

	mem  *MIU
	intc *INTC
}

func NewSPU(mem *MIU, intc *INTC) *SPU {
	s := &SPU{mem: mem, intc: intc, mainVol: 1.0}
	for i := range s.voices {
		s.voices[i].duty = 0.5
		s.voices[i].volume = 1.0
		s.voices[i].attack = defaultEnvRate(8)
		s.voices[i].release = defaultEnvRate(8)
	}
	return s
}

// defaultEnvRate maps an 8-bit rate value to a per-sample level delta.
// Rate 0 is instantaneous, 255 is roughly a two second ramp.
func defaultEnvRate(rate uint32) float32 {
	if rate == 0 {
		return 1.0
	}
	return 1.0 / (float32(rate) * float32(SPU_SAMPLE_RATE) / 128.0)
}

func (s *SPU) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ctrl = 0
	s.mainVol = 1.0
	s.irqCtrl = 0
	s.dmaAddr = 0
	s.dmaLen = 0
	s.dmaPos = 0
	s.dmaBuf = nil
	s.dmaDone = false
	s.beats = 0
	s.beatAcc = 0
	for i := range s.voices {
		s.voices[i] = spuVoice{
			duty:    0.5,
			volume:  1.0,
			attack:  defaultEnvRate(8),
			release: defaultEnvRate(8),
		}
	}
}

// GenerateSample produces one mixed mono sample. Called from the audio
// backend's pull thread.
func (s *SPU) GenerateSample() float32 {
	s.mu.Lock()

	if s.ctrl&SPU_CTRL_ENABLE == 0 {
		s.mu.Unlock()
		return 0
	}

	var mix float32
	for i := range s.voices {
		v := &s.voices[i]

		// Envelope first so a freshly enabled voice ramps in.
		if v.enabled {
			v.level += v.attack
			if v.level > 1 {
				v.level = 1
			}
		} else {
			v.level -= v.release
			if v.level < 0 {
				v.level = 0
			}
		}
		if v.level == 0 || v.freq == 0 {
			continue
		}

		v.phase += float32(v.freq) / SPU_SAMPLE_RATE
		for v.phase >= 1 {
			v.phase -= 1
		}
		sample := float32(-1)
		if v.phase < v.duty {
			sample = 1
		}
		mix += sample * v.volume * v.level
	}

	// PCM stream on top of the voices.
	var irq bool
	if s.dmaPos < uint32(len(s.dmaBuf)) {
		pcm := int8(s.dmaBuf[s.dmaPos])
		s.dmaPos++
		mix += float32(pcm) / 128.0
		if s.dmaPos >= uint32(len(s.dmaBuf)) && !s.dmaDone {
			s.dmaDone = true
			irq = s.irqCtrl&SPU_IRQ_DMA_EN != 0
		}
	}

	mix *= s.mainVol / SPU_VOICES

	s.beatAcc++
	if s.beatAcc >= SPU_SAMPLES_PER_BEAT {
		s.beatAcc = 0
		s.beats++
	}

	s.mu.Unlock()

	if irq {
		s.intc.Trigger(IRQ_AUDIO)
	}

	if mix > 1 {
		mix = 1
	} else if mix < -1 {
		mix = -1
	}
	return mix
}

// startDMA copies the PCM buffer out of physical memory. Called with
// the lock held.
func (s *SPU) startDMA() {
	if s.dmaLen == 0 {
		s.dmaBuf = nil
		s.dmaPos = 0
		s.dmaDone = false
		return
	}
	buf := make([]byte, s.dmaLen)
	for i := range buf {
		buf[i] = s.mem.ReadU8(s.dmaAddr + uint32(i))
	}
	s.dmaBuf = buf
	s.dmaPos = 0
	s.dmaDone = false
	emuLog.Debugf("SPU: DMA %d bytes from 0x%08X", s.dmaLen, s.dmaAddr)
}

func (s *SPU) chanSel(value uint32) *spuVoice {
	return &s.voices[(value>>30)&3]
}

func (s *SPU) readReg(off uint32) uint32 {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch off {
	case SPU_REG_CTRL:
		return s.ctrl
	case SPU_REG_STATUS:
		if s.dmaPos < uint32(len(s.dmaBuf)) {
			return SPU_STATUS_DMA_BUSY
		}
		return 0
	case SPU_REG_MAIN_VOL:
		return uint32(s.mainVol * 255)
	case SPU_REG_CH_ENABLE:
		var bits uint32
		for i := range s.voices {
			if s.voices[i].enabled {
				bits |= 1 << i
			}
		}
		return bits
	case SPU_REG_IRQ_CTRL:
		return s.irqCtrl
	case SPU_REG_BEAT_COUNT:
		return s.beats
	case SPU_REG_DMA_ADDR:
		return s.dmaAddr
	case SPU_REG_DMA_LEN:
		return s.dmaLen
	case SPU_REG_DMA_COUNT:
		return s.dmaPos
	}
	emuLog.Debugf("SPU: read from unknown register 0x%X", off)
	return 0
}

func (s *SPU) writeReg(off uint32, value uint32) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch off {
	case SPU_REG_CTRL:
		s.ctrl = value
	case SPU_REG_MAIN_VOL:
		s.mainVol = float32(value&0xFF) / 255.0
	case SPU_REG_CH_ENABLE:
		for i := range s.voices {
			s.voices[i].enabled = value&(1<<i) != 0
		}
	case SPU_REG_CH_FREQ:
		s.chanSel(value).freq = value & 0xFFFF
	case SPU_REG_CH_VOL:
		s.chanSel(value).volume = float32(value&0xFF) / 255.0
	case SPU_REG_CH_DUTY:
		s.chanSel(value).duty = float32(value&0xFF) / 256.0
	case SPU_REG_ENV_CTRL:
		v := s.chanSel(value)
		v.attack = defaultEnvRate(value & 0xFF)
		v.release = defaultEnvRate((value >> 8) & 0xFF)
	case SPU_REG_IRQ_CTRL:
		s.irqCtrl = value
	case SPU_REG_DMA_ADDR:
		s.dmaAddr = value
	case SPU_REG_DMA_LEN:
		s.dmaLen = value
		s.startDMA()
	case SPU_REG_STATUS, SPU_REG_BEAT_COUNT, SPU_REG_DMA_COUNT:
		// read-only, drop
	default:
		emuLog.Debugf("SPU: write to unknown register 0x%X", off)
	}
}

// Region returns the guest-visible register file.
func (s *SPU) Region() Region {
	return NewMMIORegion(SPU_WINDOW_SIZE, s.readReg, s.writeReg)
}
