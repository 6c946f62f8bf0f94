// cdrom_test.go - CD-ROM controller tests

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
	"os"
	"path/filepath"
	"testing"
)

// writeTestImage builds a raw two-sector disc image with recognizable
// content in each sector.
func writeTestImage(t *testing.T) string {
	t.Helper()
	img := make([]byte, 2*CD_SECTOR_SIZE)
	copy(img, []byte("SECTOR-ZERO"))
	copy(img[CD_SECTOR_SIZE:], []byte("SECTOR-ONE"))
	for i := 16; i < CD_SECTOR_SIZE; i += 4 {
		img[i] = byte(i) // fill pattern in the rest of sector zero
	}

	path := filepath.Join(t.TempDir(), "test.iso")
	if err := os.WriteFile(path, img, 0644); err != nil {
		t.Fatalf("writing image: %v", err)
	}
	return path
}

func newTestCDROM(t *testing.T) (*CDROM, *MIU, Region) {
	t.Helper()
	mem := NewMIU(false)
	mem.SetRegion(SEG_DRAM, NewRAMRegion(0x100000, "testram"), "testram")
	cd := NewCDROM(mem, NewINTC())
	return cd, mem, cd.Region()
}

func TestCDROMStatusWithoutDisc(t *testing.T) {
	_, _, region := newTestCDROM(t)

	if got := region.ReadU32(CD_REG_STATUS); got&CD_STATUS_DISC_PRESENT != 0 {
		t.Fatalf("STATUS = %08X, disc present with no image loaded", got)
	}

	// A read command without a disc sets the error bit.
	region.WriteU32(CD_REG_COMMAND, CD_CMD_READ_PIO)
	if got := region.ReadU32(CD_REG_STATUS); got&CD_STATUS_ERROR == 0 {
		t.Fatalf("STATUS = %08X, expected error bit after discless read", got)
	}
}

// TestCDROMLoadDiscRawImage verifies a raw (non-ISO9660) image mounts
// for sector access with no volume metadata.
func TestCDROMLoadDiscRawImage(t *testing.T) {
	cd, _, region := newTestCDROM(t)

	if err := cd.LoadDisc(writeTestImage(t)); err != nil {
		t.Fatalf("LoadDisc: %v", err)
	}
	if got := cd.Sectors(); got != 2 {
		t.Fatalf("Sectors = %d, expected 2", got)
	}
	if got := cd.VolumeID(); got != "" {
		t.Fatalf("VolumeID = %q on a raw image, expected empty", got)
	}
	if got := region.ReadU32(CD_REG_STATUS); got&CD_STATUS_DISC_PRESENT == 0 {
		t.Fatalf("STATUS = %08X, disc present bit missing", got)
	}
	if _, err := cd.ListDirectory("/"); err == nil {
		t.Fatalf("ListDirectory succeeded on a raw image")
	}
}

// TestCDROMPIORead verifies a sector arrives through the DATA register
// as little-endian words.
func TestCDROMPIORead(t *testing.T) {
	cd, _, region := newTestCDROM(t)
	if err := cd.LoadDisc(writeTestImage(t)); err != nil {
		t.Fatalf("LoadDisc: %v", err)
	}

	region.WriteU32(CD_REG_LBA, 1)
	region.WriteU32(CD_REG_COUNT, 1)
	region.WriteU32(CD_REG_COMMAND, CD_CMD_READ_PIO)

	if got := region.ReadU32(CD_REG_STATUS); got&CD_STATUS_DATA_READY == 0 {
		t.Fatalf("STATUS = %08X, data ready missing after PIO read", got)
	}

	// "SECT" little-endian.
	if got := region.ReadU32(CD_REG_DATA); got != 0x54434553 {
		t.Fatalf("first DATA word = %08X, expected 0x54434553", got)
	}
	// "OR-O" continues sector one.
	if got := region.ReadU32(CD_REG_DATA); got != 0x4F2D524F {
		t.Fatalf("second DATA word = %08X, expected 0x4F2D524F", got)
	}
}

func TestCDROMPIOReadPastEndSetsError(t *testing.T) {
	cd, _, region := newTestCDROM(t)
	if err := cd.LoadDisc(writeTestImage(t)); err != nil {
		t.Fatalf("LoadDisc: %v", err)
	}

	region.WriteU32(CD_REG_LBA, 1)
	region.WriteU32(CD_REG_COUNT, 5)
	region.WriteU32(CD_REG_COMMAND, CD_CMD_READ_PIO)

	if got := region.ReadU32(CD_REG_STATUS); got&CD_STATUS_ERROR == 0 {
		t.Fatalf("STATUS = %08X, expected error for read past image end", got)
	}
}

// TestCDROMDMARead verifies sector data lands in physical memory
// through the MIU and the transfer count is reported.
func TestCDROMDMARead(t *testing.T) {
	cd, mem, region := newTestCDROM(t)
	if err := cd.LoadDisc(writeTestImage(t)); err != nil {
		t.Fatalf("LoadDisc: %v", err)
	}

	dest := testRAMBase + 0x8000
	region.WriteU32(CD_REG_LBA, 0)
	region.WriteU32(CD_REG_COUNT, 1)
	region.WriteU32(CD_REG_DMA_ADDR, dest)
	region.WriteU32(CD_REG_COMMAND, CD_CMD_READ_DMA)

	if got := mem.ReadU32(dest); got != 0x54434553 { // "SECT"
		t.Fatalf("DMA target word = %08X, expected 0x54434553", got)
	}
	if got := region.ReadU32(CD_REG_DMA_COUNT); got != CD_SECTOR_SIZE {
		t.Fatalf("DMA_COUNT = %d, expected a full sector", got)
	}
}

func TestCDROMDMALengthCap(t *testing.T) {
	cd, mem, region := newTestCDROM(t)
	if err := cd.LoadDisc(writeTestImage(t)); err != nil {
		t.Fatalf("LoadDisc: %v", err)
	}

	dest := testRAMBase + 0x8000
	mem.WriteU32(dest+4, 0xAAAAAAAA)
	region.WriteU32(CD_REG_LBA, 0)
	region.WriteU32(CD_REG_COUNT, 1)
	region.WriteU32(CD_REG_DMA_ADDR, dest)
	region.WriteU32(CD_REG_DMA_LEN, 4)
	region.WriteU32(CD_REG_COMMAND, CD_CMD_READ_DMA)

	if got := region.ReadU32(CD_REG_DMA_COUNT); got != 4 {
		t.Fatalf("DMA_COUNT = %d, expected the 4-byte cap", got)
	}
	if got := mem.ReadU32(dest + 4); got != 0xAAAAAAAA {
		t.Fatalf("DMA wrote past the cap: %08X", got)
	}
}

// TestCDROMCompletionInterrupt verifies IRQ 6 on command completion
// when enabled.
func TestCDROMCompletionInterrupt(t *testing.T) {
	cpu, mem := newTestCPU(t)
	cpu.CR[3] = testRAMBase + 0x1000
	ic := NewINTC()
	ic.ConnectCPU(cpu)
	cd := NewCDROM(mem, ic)
	region := cd.Region()
	if err := cd.LoadDisc(writeTestImage(t)); err != nil {
		t.Fatalf("LoadDisc: %v", err)
	}

	region.WriteU32(CD_REG_IRQ_CTRL, CD_IRQ_COMPLETE)
	region.WriteU32(CD_REG_COMMAND, CD_CMD_IDENTIFY)

	step(t, cpu)
	if cpu.PC != testRAMBase+0x1000+IRQ_CDROM*4 {
		t.Fatalf("PC = %08X, expected the cdrom vector", cpu.PC)
	}
}

// TestCDROMIdentify verifies the identify block carries the model
// string and the sector count.
func TestCDROMIdentify(t *testing.T) {
	cd, _, region := newTestCDROM(t)
	if err := cd.LoadDisc(writeTestImage(t)); err != nil {
		t.Fatalf("LoadDisc: %v", err)
	}

	region.WriteU32(CD_REG_COMMAND, CD_CMD_IDENTIFY)

	// "SCOR" little-endian.
	if got := region.ReadU32(CD_REG_DATA); got != 0x524F4353 {
		t.Fatalf("identify word 0 = %08X, expected 0x524F4353", got)
	}

	// Sector count at byte offset 128.
	for i := 4; i < 128; i += 4 {
		region.ReadU32(CD_REG_DATA)
	}
	if got := region.ReadU32(CD_REG_DATA); got != 2 {
		t.Fatalf("identify sector count = %d, expected 2", got)
	}
}

func TestCDROMStopDropsBuffer(t *testing.T) {
	cd, _, region := newTestCDROM(t)
	if err := cd.LoadDisc(writeTestImage(t)); err != nil {
		t.Fatalf("LoadDisc: %v", err)
	}

	region.WriteU32(CD_REG_COMMAND, CD_CMD_IDENTIFY)
	region.WriteU32(CD_REG_COMMAND, CD_CMD_STOP)

	if got := region.ReadU32(CD_REG_STATUS); got&CD_STATUS_DATA_READY != 0 {
		t.Fatalf("STATUS = %08X, data ready after STOP", got)
	}
	if got := region.ReadU32(CD_REG_DATA); got != 0 {
		t.Fatalf("DATA after STOP = %08X, expected 0", got)
	}
}

func TestCDROMEject(t *testing.T) {
	cd, _, region := newTestCDROM(t)
	if err := cd.LoadDisc(writeTestImage(t)); err != nil {
		t.Fatalf("LoadDisc: %v", err)
	}

	cd.Eject()

	if got := region.ReadU32(CD_REG_STATUS); got&CD_STATUS_DISC_PRESENT != 0 {
		t.Fatalf("STATUS = %08X, disc present after eject", got)
	}
	if cd.Sectors() != 0 {
		t.Fatalf("Sectors = %d after eject, expected 0", cd.Sectors())
	}
}
