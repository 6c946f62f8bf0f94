// miu_test.go - Memory Interface Unit routing and region tests

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

// TestSegmentRouting verifies the top address byte selects the region
// and only the low 24 bits reach it.
func TestSegmentRouting(t *testing.T) {
	miu := NewMIU(false)
	a := NewRAMRegion(0x1000, "a")
	b := NewRAMRegion(0x1000, "b")
	miu.SetRegion(0x10, a, "a")
	miu.SetRegion(0x20, b, "b")

	miu.WriteU32(0x10000100, 0xAAAAAAAA)
	miu.WriteU32(0x20000100, 0xBBBBBBBB)

	if got := a.ReadU32(0x100); got != 0xAAAAAAAA {
		t.Errorf("segment 0x10 write landed at %08X in region a", got)
	}
	if got := b.ReadU32(0x100); got != 0xBBBBBBBB {
		t.Errorf("segment 0x20 write landed at %08X in region b", got)
	}
	if got := miu.ReadU32(0x10000100); got != 0xAAAAAAAA {
		t.Errorf("read through segment 0x10 = %08X, expected 0xAAAAAAAA", got)
	}
}

// TestUnboundSegmentReadsZero verifies sink behavior: deterministic 0
// on reads, writes vanish, accesses are counted.
func TestUnboundSegmentReadsZero(t *testing.T) {
	miu := NewMIU(false)

	miu.WriteU32(0x55000000, 0xDEADBEEF)
	if got := miu.ReadU32(0x55000000); got != 0 {
		t.Fatalf("unbound segment read %08X, expected 0", got)
	}
	if got := miu.ReadU8(0x56001234); got != 0 {
		t.Fatalf("unbound segment byte read %02X, expected 0", got)
	}
}

// TestCanFetchRejectsSinkAndEdges verifies fetches fail on unbound
// segments and on the last 3 bytes of a bound region.
func TestCanFetchRejectsSinkAndEdges(t *testing.T) {
	miu := NewMIU(false)
	miu.SetRegion(0x10, NewRAMRegion(0x1000, "ram"), "ram")

	if miu.CanFetch(0x55000000) {
		t.Errorf("CanFetch true on an unbound segment")
	}
	if !miu.CanFetch(0x10000FFC) {
		t.Errorf("CanFetch false on the last full word of the region")
	}
	if miu.CanFetch(0x10000FFD) {
		t.Errorf("CanFetch true for a word overlapping the region end")
	}
}

func TestSealPanicsOnRebind(t *testing.T) {
	miu := NewMIU(false)
	miu.SetRegion(0x10, NewRAMRegion(0x1000, "ram"), "ram")
	miu.Seal()

	defer func() {
		if recover() == nil {
			t.Fatalf("SetRegion after Seal did not panic")
		}
	}()
	miu.SetRegion(0x11, NewRAMRegion(0x1000, "late"), "late")
}

func TestRAMRegionOutOfRangeDropped(t *testing.T) {
	ram := NewRAMRegion(0x100, "ram")

	ram.WriteU32(0xFE, 0xDEADBEEF) // overlaps the end
	if got := ram.ReadU16(0xFE); got != 0 {
		t.Errorf("overlapping write partially landed: %04X", got)
	}
	if got := ram.ReadU32(0x200); got != 0 {
		t.Errorf("out-of-range read = %08X, expected 0", got)
	}
}

func TestRAMRegionLittleEndian(t *testing.T) {
	ram := NewRAMRegion(0x100, "ram")
	ram.WriteU32(0, 0x12345678)

	if got := ram.ReadU8(0); got != 0x78 {
		t.Errorf("byte 0 = %02X, expected 0x78", got)
	}
	if got := ram.ReadU16(2); got != 0x1234 {
		t.Errorf("halfword at 2 = %04X, expected 0x1234", got)
	}
}

// TestROMRegionIgnoresGuestWrites verifies firmware is only writable
// through LoadImage.
func TestROMRegionIgnoresGuestWrites(t *testing.T) {
	rom := NewROMRegion(0x100, "flash")
	if err := rom.LoadImage(0, []byte{0xDE, 0xAD, 0xBE, 0xEF}); err != nil {
		t.Fatalf("LoadImage: %v", err)
	}

	rom.WriteU32(0, 0)
	rom.WriteU8(1, 0)
	if got := rom.ReadU32(0); got != 0xEFBEADDE {
		t.Fatalf("ROM content after guest writes = %08X, expected 0xEFBEADDE", got)
	}

	if err := rom.LoadImage(0xFE, []byte{1, 2, 3}); err == nil {
		t.Fatalf("LoadImage overlapping the end did not fail")
	}
}

// TestMMIORegionNarrowAccessDecompose verifies byte and halfword
// accesses turn into aligned word read-modify-write callbacks.
func TestMMIORegionNarrowAccessDecompose(t *testing.T) {
	var store uint32 = 0x11223344
	reads := 0
	region := NewMMIORegion(0x10,
		func(off uint32) uint32 {
			reads++
			if off != 0 {
				t.Errorf("callback offset %X, expected aligned 0", off)
			}
			return store
		},
		func(off uint32, value uint32) {
			if off != 0 {
				t.Errorf("callback offset %X, expected aligned 0", off)
			}
			store = value
		})

	if got := region.ReadU8(1); got != 0x33 {
		t.Errorf("byte 1 = %02X, expected 0x33", got)
	}
	if got := region.ReadU16(2); got != 0x1122 {
		t.Errorf("halfword 2 = %04X, expected 0x1122", got)
	}

	region.WriteU8(0, 0xFF)
	if store != 0x112233FF {
		t.Errorf("byte RMW result %08X, expected 0x112233FF", store)
	}
	region.WriteU16(2, 0xAABB)
	if store != 0xAABB33FF {
		t.Errorf("halfword RMW result %08X, expected 0xAABB33FF", store)
	}
	if reads == 0 {
		t.Errorf("narrow writes never read the current word")
	}
}

// TestMMIORouterWindowDispatch verifies window-local offsets and the
// miss path inside the MMIO segment.
func TestMMIORouterWindowDispatch(t *testing.T) {
	var lastOff uint32 = 0xFFFFFFFF
	var lastVal uint32
	router := NewMMIORouter(0x100000)
	router.AddWindow(0x40000, 0x100, "dev",
		NewMMIORegion(0x100,
			func(off uint32) uint32 { return off + 1 },
			func(off uint32, value uint32) { lastOff, lastVal = off, value }))

	if got := router.ReadU32(0x40004); got != 5 {
		t.Errorf("window read = %d, expected window-local offset 4 + 1", got)
	}
	router.WriteU32(0x40008, 0x99)
	if lastOff != 8 || lastVal != 0x99 {
		t.Errorf("window write reached off=%X val=%X, expected off=8 val=0x99", lastOff, lastVal)
	}

	// A miss reads 0 and the write is dropped.
	lastOff = 0xFFFFFFFF
	if got := router.ReadU32(0x90000); got != 0 {
		t.Errorf("miss read = %08X, expected 0", got)
	}
	router.WriteU32(0x90000, 0x1234)
	if lastOff != 0xFFFFFFFF {
		t.Errorf("miss write reached a window")
	}
}

func TestMIURebindBeforeSealReplaces(t *testing.T) {
	miu := NewMIU(false)
	first := NewRAMRegion(0x100, "first")
	second := NewRAMRegion(0x100, "second")

	miu.SetRegion(0x10, first, "first")
	miu.SetRegion(0x10, second, "second")

	miu.WriteU32(0x10000000, 0x42)
	if first.ReadU32(0) != 0 || second.ReadU32(0) != 0x42 {
		t.Fatalf("rebind did not take effect: first=%X second=%X",
			first.ReadU32(0), second.ReadU32(0))
	}
	if got := miu.RegionLabel(0x10); got != "second" {
		t.Fatalf("RegionLabel = %q, expected %q", got, "second")
	}
}
