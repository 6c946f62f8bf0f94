// vdu.go - Video display unit

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
vdu.go - TFT display controller behind MMIO window +0x40000

Double-buffered RGB565 framebuffer controller. The guest points the
two buffer registers at physical memory, selects the front buffer, and
the host composites once per frame: the active buffer is pulled out of
DRAM through the MIU, expanded to RGBA and, when the guest resolution
differs from the output resolution, rescaled with the x/image nearest
neighbour scaler before it is handed to the display backend.

The guest sees the flip immediately through the active-buffer status
register; the pixels reach the screen on the next composite. Vblank
(IRQ 4) is the run loop's business, not the controller's.
*/

package main

import (
	"image"
	"sync"

	xdraw "golang.org/x/image/draw"
)

// VDU register offsets.
const (
	P_TFT_MODE_CTRL = 0x0000 // bit 0 display enable
	P_TFT_HW_SIZE   = 0x0008 // width low 16 bits, height high 16

	VDU_REG_BUF_SELECT = 0x7000
	VDU_REG_BUF0_ADDR  = 0x7004
	VDU_REG_BUF1_ADDR  = 0x7008
	VDU_REG_BUF_STATUS = 0x700C // read-only, active buffer index
)

const (
	VDU_MODE_ENABLE = 1 << 0

	VDU_MAX_WIDTH  = 1024
	VDU_MAX_HEIGHT = 1024

	VDU_DEFAULT_WIDTH  = 320
	VDU_DEFAULT_HEIGHT = 240
)

type VDU struct {
	mu sync.Mutex

	modeCtrl uint32
	width    uint32
	height   uint32
	bufAddr  [2]uint32
	active   uint32

	rgbaBuf []byte
	srcImg  *image.RGBA
	dstImg  *image.RGBA

	frames uint64

	mem    *MIU
	output VideoOutput
}

func NewVDU(mem *MIU, output VideoOutput) *VDU {
	return &VDU{
		mem:    mem,
		output: output,
		width:  VDU_DEFAULT_WIDTH,
		height: VDU_DEFAULT_HEIGHT,
	}
}

func (v *VDU) Reset() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.modeCtrl = 0
	v.width = VDU_DEFAULT_WIDTH
	v.height = VDU_DEFAULT_HEIGHT
	v.bufAddr = [2]uint32{}
	v.active = 0
	v.frames = 0
}

// Enabled reports whether the guest has switched the display on.
func (v *VDU) Enabled() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.modeCtrl&VDU_MODE_ENABLE != 0
}

// Resolution returns the guest-programmed framebuffer size.
func (v *VDU) Resolution() (uint32, uint32) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.width, v.height
}

// Frames returns how many frames have been composited.
func (v *VDU) Frames() uint64 {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.frames
}

// CompositeFrame pulls the active RGB565 buffer out of physical memory,
// converts to RGBA, scales to the output resolution and pushes it to
// the backend. Called by the run loop at frame boundaries.
func (v *VDU) CompositeFrame() {
	v.mu.Lock()

	if v.modeCtrl&VDU_MODE_ENABLE == 0 || v.output == nil {
		v.mu.Unlock()
		return
	}

	w := int(v.width)
	h := int(v.height)
	base := v.bufAddr[v.active&1]

	need := w * h * 4
	if len(v.rgbaBuf) != need {
		v.rgbaBuf = make([]byte, need)
		v.srcImg = nil
	}

	addr := base
	for i := 0; i < w*h; i++ {
		px := v.mem.ReadU16(addr)
		addr += 2
		// RGB565 to RGBA8888 with bit replication into the low bits.
		r := uint8((px >> 11) & 0x1F)
		g := uint8((px >> 5) & 0x3F)
		b := uint8(px & 0x1F)
		v.rgbaBuf[i*4+0] = r<<3 | r>>2
		v.rgbaBuf[i*4+1] = g<<2 | g>>4
		v.rgbaBuf[i*4+2] = b<<3 | b>>2
		v.rgbaBuf[i*4+3] = 0xFF
	}

	frame := v.rgbaBuf
	cfg := v.output.GetDisplayConfig()
	if cfg.Width > 0 && cfg.Height > 0 && (cfg.Width != w || cfg.Height != h) {
		frame = v.scaleFrame(w, h, cfg.Width, cfg.Height)
	}

	v.frames++
	out := v.output
	v.mu.Unlock()

	if err := out.UpdateFrame(frame); err != nil {
		emuLog.Warnf("VDU: %v", err)
	}
}

// scaleFrame rescales the composited RGBA buffer. Called with the lock
// held; reuses the wrapping images across frames.
func (v *VDU) scaleFrame(sw, sh, dw, dh int) []byte {
	if v.srcImg == nil || v.srcImg.Rect.Dx() != sw || v.srcImg.Rect.Dy() != sh {
		v.srcImg = &image.RGBA{
			Pix:    v.rgbaBuf,
			Stride: sw * 4,
			Rect:   image.Rect(0, 0, sw, sh),
		}
	} else {
		v.srcImg.Pix = v.rgbaBuf
	}
	if v.dstImg == nil || v.dstImg.Rect.Dx() != dw || v.dstImg.Rect.Dy() != dh {
		v.dstImg = image.NewRGBA(image.Rect(0, 0, dw, dh))
	}
	xdraw.NearestNeighbor.Scale(v.dstImg, v.dstImg.Rect, v.srcImg, v.srcImg.Rect, xdraw.Src, nil)
	return v.dstImg.Pix
}

func (v *VDU) clampSize(value uint32) (uint32, uint32) {
	w := value & 0xFFFF
	h := value >> 16
	if w == 0 || w > VDU_MAX_WIDTH {
		w = VDU_DEFAULT_WIDTH
	}
	if h == 0 || h > VDU_MAX_HEIGHT {
		h = VDU_DEFAULT_HEIGHT
	}
	return w, h
}

func (v *VDU) readReg(off uint32) uint32 {
	v.mu.Lock()
	defer v.mu.Unlock()

	switch off {
	case P_TFT_MODE_CTRL:
		return v.modeCtrl
	case P_TFT_HW_SIZE:
		return v.height<<16 | v.width
	case VDU_REG_BUF_SELECT:
		return v.active
	case VDU_REG_BUF0_ADDR:
		return v.bufAddr[0]
	case VDU_REG_BUF1_ADDR:
		return v.bufAddr[1]
	case VDU_REG_BUF_STATUS:
		return v.active
	}
	emuLog.Debugf("VDU: read from unknown register 0x%X", off)
	return 0
}

func (v *VDU) writeReg(off uint32, value uint32) {
	v.mu.Lock()
	defer v.mu.Unlock()

	switch off {
	case P_TFT_MODE_CTRL:
		v.modeCtrl = value
	case P_TFT_HW_SIZE:
		v.width, v.height = v.clampSize(value)
	case VDU_REG_BUF_SELECT:
		v.active = value & 1
	case VDU_REG_BUF0_ADDR:
		v.bufAddr[0] = value
	case VDU_REG_BUF1_ADDR:
		v.bufAddr[1] = value
	case VDU_REG_BUF_STATUS:
		// read-only, drop
	default:
		emuLog.Debugf("VDU: write to unknown register 0x%X", off)
	}
}

// Region returns the guest-visible register file.
func (v *VDU) Region() Region {
	return NewMMIORegion(VDU_WINDOW_SIZE, v.readReg, v.writeReg)
}
