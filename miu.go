// miu.go - Memory Interface Unit (segmented address-space router)

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
miu.go - Memory Interface Unit for the Score Engine

The MIU routes every load and store from the CPU and from DMA-capable
peripherals to the correct backing region. The top byte of a 32-bit
address selects one of 256 segments; each segment is bound to exactly
one region and regions only ever see the low 24 offset bits.

Unused segments are filled with a shared sink region so that any read
resolves to a deterministic 0 instead of faulting. A fetch from a sink
segment is still detected by the CPU (the sink advertises size 0) and
raised as a guest-visible exception rather than a host error.

The region table is mutated only during hardware setup and reset. Once
execution starts the table is sealed; a rebind after sealing is a
programming error and panics, matching the setup-time failure policy.
*/

package main

import (
	"encoding/binary"
	"fmt"
	"sync/atomic"
)

// Region is the capability set a backing region must implement to be
// MIU-mountable. Offsets are always segment-local (low 24 bits).
type Region interface {
	ReadU8(off uint32) uint8
	ReadU16(off uint32) uint16
	ReadU32(off uint32) uint32
	WriteU8(off uint32, value uint8)
	WriteU16(off uint32, value uint16)
	WriteU32(off uint32, value uint32)
	Size() uint32
}

// MIU is the segmented memory router. All peripherals and the CPU share
// one instance; it is constructed once at hardware setup.
type MIU struct {
	segments [256]Region
	labels   [256]string
	sink     *SinkRegion
	sealed   atomic.Bool
}

// NewMIU creates a router with every segment bound to a shared sink
// region. logUnmapped controls whether sink accesses are logged.
func NewMIU(logUnmapped bool) *MIU {
	miu := &MIU{
		sink: &SinkRegion{logAccess: logUnmapped},
	}
	for i := range miu.segments {
		miu.segments[i] = miu.sink
		miu.labels[i] = "unmapped"
	}
	return miu
}

// SetRegion binds or rebinds a segment. Rebinding silently replaces the
// prior binding (last-write-wins); this is used to re-home a segment
// after reconfiguration, so no error is reported.
func (miu *MIU) SetRegion(segment uint8, region Region, label string) {
	if miu.sealed.Load() {
		panic(fmt.Sprintf("SetRegion called after execution started (segment 0x%02X %q)", segment, label))
	}
	if region == nil {
		region = miu.sink
		label = "unmapped"
	}
	miu.segments[segment] = region
	miu.labels[segment] = label
}

// Seal freezes the region table. Called when execution starts.
func (miu *MIU) Seal() {
	miu.sealed.CompareAndSwap(false, true)
}

// RegionLabel returns the label a segment was bound with.
func (miu *MIU) RegionLabel(segment uint8) string {
	return miu.labels[segment]
}

// CanFetch reports whether a full 32-bit instruction word at addr falls
// inside the bound region of its segment. Sink regions advertise size 0,
// so fetches from unbound segments fail here and surface as a guest
// exception (cause 0xFF) instead of a host panic.
func (miu *MIU) CanFetch(addr uint32) bool {
	region := miu.segments[addr>>24]
	off := addr & 0xFFFFFF
	return uint64(off)+4 <= uint64(region.Size())
}

func (miu *MIU) ReadU8(addr uint32) uint8 {
	return miu.segments[addr>>24].ReadU8(addr & 0xFFFFFF)
}

func (miu *MIU) ReadU16(addr uint32) uint16 {
	return miu.segments[addr>>24].ReadU16(addr & 0xFFFFFF)
}

func (miu *MIU) ReadU32(addr uint32) uint32 {
	return miu.segments[addr>>24].ReadU32(addr & 0xFFFFFF)
}

func (miu *MIU) WriteU8(addr uint32, value uint8) {
	miu.segments[addr>>24].WriteU8(addr&0xFFFFFF, value)
}

func (miu *MIU) WriteU16(addr uint32, value uint16) {
	miu.segments[addr>>24].WriteU16(addr&0xFFFFFF, value)
}

func (miu *MIU) WriteU32(addr uint32, value uint32) {
	miu.segments[addr>>24].WriteU32(addr&0xFFFFFF, value)
}

// =============================================================================
// RAM region
// =============================================================================

// RAMRegion is an owning dense byte array, fixed size at construction.
// Out-of-range reads return 0 and out-of-range writes are dropped; both
// are logged at debug level. Multi-byte accesses are little-endian.
type RAMRegion struct {
	data  []byte
	label string
}

func NewRAMRegion(size uint32, label string) *RAMRegion {
	return &RAMRegion{
		data:  make([]byte, size),
		label: label,
	}
}

func (r *RAMRegion) Size() uint32 {
	return uint32(len(r.data))
}

// Bytes exposes the backing slice for host-side bulk operations
// (firmware loading, DMA, framebuffer composite).
func (r *RAMRegion) Bytes() []byte {
	return r.data
}

// Clear zeroes the whole region.
func (r *RAMRegion) Clear() {
	for i := range r.data {
		r.data[i] = 0
	}
}

func (r *RAMRegion) inRange(off, width uint32) bool {
	if uint64(off)+uint64(width) > uint64(len(r.data)) {
		emuLog.Debugf("%s: out-of-range access at offset 0x%06X", r.label, off)
		return false
	}
	return true
}

func (r *RAMRegion) ReadU8(off uint32) uint8 {
	if !r.inRange(off, 1) {
		return 0
	}
	return r.data[off]
}

func (r *RAMRegion) ReadU16(off uint32) uint16 {
	if !r.inRange(off, 2) {
		return 0
	}
	return binary.LittleEndian.Uint16(r.data[off:])
}

func (r *RAMRegion) ReadU32(off uint32) uint32 {
	if !r.inRange(off, 4) {
		return 0
	}
	return binary.LittleEndian.Uint32(r.data[off:])
}

func (r *RAMRegion) WriteU8(off uint32, value uint8) {
	if !r.inRange(off, 1) {
		return
	}
	r.data[off] = value
}

func (r *RAMRegion) WriteU16(off uint32, value uint16) {
	if !r.inRange(off, 2) {
		return
	}
	binary.LittleEndian.PutUint16(r.data[off:], value)
}

func (r *RAMRegion) WriteU32(off uint32, value uint32) {
	if !r.inRange(off, 4) {
		return
	}
	binary.LittleEndian.PutUint32(r.data[off:], value)
}

// =============================================================================
// ROM region
// =============================================================================

// ROMRegion wraps a RAMRegion and discards guest writes. The host loads
// firmware through LoadImage before execution starts.
type ROMRegion struct {
	RAMRegion
}

func NewROMRegion(size uint32, label string) *ROMRegion {
	rom := &ROMRegion{}
	rom.data = make([]byte, size)
	rom.label = label
	return rom
}

// LoadImage copies a firmware image into the ROM at the given offset.
func (r *ROMRegion) LoadImage(off uint32, image []byte) error {
	if uint64(off)+uint64(len(image)) > uint64(len(r.data)) {
		return fmt.Errorf("%s: image of %d bytes does not fit at offset 0x%06X", r.label, len(image), off)
	}
	copy(r.data[off:], image)
	return nil
}

func (r *ROMRegion) WriteU8(off uint32, value uint8) {
	emuLog.Debugf("%s: write to read-only region at offset 0x%06X ignored", r.label, off)
}

func (r *ROMRegion) WriteU16(off uint32, value uint16) {
	emuLog.Debugf("%s: write to read-only region at offset 0x%06X ignored", r.label, off)
}

func (r *ROMRegion) WriteU32(off uint32, value uint32) {
	emuLog.Debugf("%s: write to read-only region at offset 0x%06X ignored", r.label, off)
}

// =============================================================================
// Sink region
// =============================================================================

// SinkRegion fills unbound segments. Reads return a fixed value
// (normally 0), writes vanish. Size 0 makes instruction fetches fail
// the CanFetch check so runaway code traps instead of executing zeros.
type SinkRegion struct {
	value     uint32
	logAccess bool
	accesses  atomic.Uint64
}

func (s *SinkRegion) Size() uint32 { return 0 }

// Accesses returns how many reads/writes hit unmapped space.
func (s *SinkRegion) Accesses() uint64 { return s.accesses.Load() }

func (s *SinkRegion) touch(kind string, off uint32) {
	s.accesses.Add(1)
	if s.logAccess {
		emuLog.Debugf("unmapped %s at offset 0x%06X", kind, off)
	}
}

func (s *SinkRegion) ReadU8(off uint32) uint8 {
	s.touch("read8", off)
	return uint8(s.value)
}

func (s *SinkRegion) ReadU16(off uint32) uint16 {
	s.touch("read16", off)
	return uint16(s.value)
}

func (s *SinkRegion) ReadU32(off uint32) uint32 {
	s.touch("read32", off)
	return s.value
}

func (s *SinkRegion) WriteU8(off uint32, value uint8)   { s.touch("write8", off) }
func (s *SinkRegion) WriteU16(off uint32, value uint16) { s.touch("write16", off) }
func (s *SinkRegion) WriteU32(off uint32, value uint32) { s.touch("write32", off) }

// =============================================================================
// MMIO register-file region
// =============================================================================

// MMIORegion adapts a pair of word-granular register callbacks to the
// full Region capability set. Byte and halfword accesses are decomposed
// into aligned 32-bit operations (read-modify-write for stores), which
// matches how the hardware register files latch narrow strobes.
type MMIORegion struct {
	size    uint32
	onRead  func(off uint32) uint32
	onWrite func(off uint32, value uint32)
}

func NewMMIORegion(size uint32, onRead func(uint32) uint32, onWrite func(uint32, uint32)) *MMIORegion {
	return &MMIORegion{size: size, onRead: onRead, onWrite: onWrite}
}

func (m *MMIORegion) Size() uint32 { return m.size }

func (m *MMIORegion) word(off uint32) uint32 {
	if m.onRead == nil {
		return 0
	}
	return m.onRead(off &^ 3)
}

func (m *MMIORegion) ReadU8(off uint32) uint8 {
	shift := (off & 3) * 8
	return uint8(m.word(off) >> shift)
}

func (m *MMIORegion) ReadU16(off uint32) uint16 {
	shift := (off & 2) * 8
	return uint16(m.word(off) >> shift)
}

func (m *MMIORegion) ReadU32(off uint32) uint32 {
	return m.word(off)
}

func (m *MMIORegion) WriteU8(off uint32, value uint8) {
	if m.onWrite == nil {
		return
	}
	shift := (off & 3) * 8
	word := m.word(off)
	word = (word &^ (0xFF << shift)) | (uint32(value) << shift)
	m.onWrite(off&^3, word)
}

func (m *MMIORegion) WriteU16(off uint32, value uint16) {
	if m.onWrite == nil {
		return
	}
	shift := (off & 2) * 8
	word := m.word(off)
	word = (word &^ (0xFFFF << shift)) | (uint32(value) << shift)
	m.onWrite(off&^3, word)
}

func (m *MMIORegion) WriteU32(off uint32, value uint32) {
	if m.onWrite == nil {
		return
	}
	m.onWrite(off&^3, value)
}

// =============================================================================
// MMIO router (segment 0x08)
// =============================================================================

type mmioWindow struct {
	base   uint32
	size   uint32
	label  string
	region Region
}

// MMIORouter dispatches segment-local offsets to peripheral windows
// inside one segment. Accesses that miss every window behave like sink
// accesses.
type MMIORouter struct {
	windows []mmioWindow
	size    uint32
}

func NewMMIORouter(size uint32) *MMIORouter {
	return &MMIORouter{size: size}
}

// AddWindow mounts a peripheral register file at a base offset.
func (rt *MMIORouter) AddWindow(base, size uint32, label string, region Region) {
	rt.windows = append(rt.windows, mmioWindow{base: base, size: size, label: label, region: region})
}

func (rt *MMIORouter) Size() uint32 { return rt.size }

func (rt *MMIORouter) find(off uint32) (Region, uint32) {
	for i := range rt.windows {
		w := &rt.windows[i]
		if off >= w.base && off < w.base+w.size {
			return w.region, off - w.base
		}
	}
	emuLog.Debugf("MMIO: access to unmapped window offset 0x%06X", off)
	return nil, 0
}

func (rt *MMIORouter) ReadU8(off uint32) uint8 {
	if r, local := rt.find(off); r != nil {
		return r.ReadU8(local)
	}
	return 0
}

func (rt *MMIORouter) ReadU16(off uint32) uint16 {
	if r, local := rt.find(off); r != nil {
		return r.ReadU16(local)
	}
	return 0
}

func (rt *MMIORouter) ReadU32(off uint32) uint32 {
	if r, local := rt.find(off); r != nil {
		return r.ReadU32(local)
	}
	return 0
}

func (rt *MMIORouter) WriteU8(off uint32, value uint8) {
	if r, local := rt.find(off); r != nil {
		r.WriteU8(local, value)
	}
}

func (rt *MMIORouter) WriteU16(off uint32, value uint16) {
	if r, local := rt.find(off); r != nil {
		r.WriteU16(local, value)
	}
}

func (rt *MMIORouter) WriteU32(off uint32, value uint32) {
	if r, local := rt.find(off); r != nil {
		r.WriteU32(local, value)
	}
}
