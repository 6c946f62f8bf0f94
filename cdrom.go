// cdrom.go - CD-ROM controller (segment 0x09)

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
cdrom.go - CD-ROM controller occupying segment 0x09

Disc images are plain 2048-byte-sector ISO files read from the host
filesystem. Sector transfers come in two flavors: PIO through the DATA
register (the guest pops the sector buffer one word at a time) and DMA
straight into physical memory through the MIU. Command completion
raises IRQ 6 when enabled through IRQ_CTRL.

On top of the raw sector interface the controller mounts the image
with go-diskfs's ISO9660 driver, purely for host-side convenience:
volume identification and directory browsing from the monitor. A disc
that fails ISO9660 parsing is still fully sector-readable.
*/

package main

import (
	"fmt"
	"os"
	"strings"
	"sync"

	diskfs "github.com/diskfs/go-diskfs"
	"github.com/diskfs/go-diskfs/filesystem"
)

// Guest register offsets.
const (
	CD_REG_STATUS    = 0x00
	CD_REG_COMMAND   = 0x04
	CD_REG_ARG       = 0x08
	CD_REG_LBA       = 0x0C
	CD_REG_COUNT     = 0x10
	CD_REG_IRQ_CTRL  = 0x14
	CD_REG_DATA      = 0x18
	CD_REG_DMA_ADDR  = 0x28
	CD_REG_DMA_LEN   = 0x2C
	CD_REG_DMA_COUNT = 0x30
)

// STATUS bits.
const (
	CD_STATUS_DISC_PRESENT = 1 << 0
	CD_STATUS_BUSY         = 1 << 1
	CD_STATUS_DATA_READY   = 1 << 2
	CD_STATUS_ERROR        = 1 << 3
)

// Commands.
const (
	CD_CMD_IDENTIFY = 0x01
	CD_CMD_READ_TOC = 0x02
	CD_CMD_READ_PIO = 0x03
	CD_CMD_READ_DMA = 0x04
	CD_CMD_STOP     = 0x05
)

const (
	CD_SECTOR_SIZE  = 2048
	CD_WINDOW_SIZE  = 0x40
	CD_IRQ_COMPLETE = 1 << 0
)

type CDROM struct {
	mu sync.Mutex

	image     *os.File
	imagePath string
	sectors   uint32
	volumeID  string
	fs        filesystem.FileSystem

	lba      uint32
	count    uint32
	arg      uint32
	irqCtrl  uint32
	dmaAddr  uint32
	dmaLen   uint32
	dmaCount uint32
	errorBit bool

	// PIO sector buffer, drained through DATA.
	pioBuf []byte
	pioPos int

	mem  *MIU
	intc *INTC
}

func NewCDROM(mem *MIU, intc *INTC) *CDROM {
	return &CDROM{mem: mem, intc: intc}
}

func (cd *CDROM) Reset() {
	cd.mu.Lock()
	defer cd.mu.Unlock()
	cd.lba = 0
	cd.count = 0
	cd.arg = 0
	cd.irqCtrl = 0
	cd.dmaAddr = 0
	cd.dmaLen = 0
	cd.dmaCount = 0
	cd.errorBit = false
	cd.pioBuf = nil
	cd.pioPos = 0
}

// LoadDisc opens an ISO image and mounts it. The ISO9660 parse is best
// effort; a raw or damaged image stays sector-readable.
func (cd *CDROM) LoadDisc(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("cdrom: %w", err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return fmt.Errorf("cdrom: %w", err)
	}
	if info.Size()%CD_SECTOR_SIZE != 0 {
		emuLog.Warnf("cdrom: image %s is not sector-aligned (%d bytes)", path, info.Size())
	}

	cd.mu.Lock()
	if cd.image != nil {
		cd.image.Close()
	}
	cd.image = f
	cd.imagePath = path
	cd.sectors = uint32(info.Size() / CD_SECTOR_SIZE)
	cd.volumeID = ""
	cd.fs = nil
	cd.mu.Unlock()

	if disk, derr := diskfs.Open(path, diskfs.WithOpenMode(diskfs.ReadOnly)); derr == nil {
		if fs, ferr := disk.GetFilesystem(0); ferr == nil {
			cd.mu.Lock()
			cd.fs = fs
			cd.volumeID = strings.TrimSpace(fs.Label())
			cd.mu.Unlock()
		} else {
			emuLog.Debugf("cdrom: no ISO9660 filesystem in %s: %v", path, ferr)
		}
	}

	emuLog.Infof("cdrom: loaded %s (%d sectors, volume %q)", path, cd.sectors, cd.volumeID)
	return nil
}

// Eject closes the current image.
func (cd *CDROM) Eject() {
	cd.mu.Lock()
	defer cd.mu.Unlock()
	if cd.image != nil {
		cd.image.Close()
	}
	cd.image = nil
	cd.imagePath = ""
	cd.sectors = 0
	cd.volumeID = ""
	cd.fs = nil
	cd.pioBuf = nil
	cd.pioPos = 0
}

// VolumeID returns the ISO9660 volume identifier, empty when the disc
// did not parse as ISO9660.
func (cd *CDROM) VolumeID() string {
	cd.mu.Lock()
	defer cd.mu.Unlock()
	return cd.volumeID
}

// Sectors returns the disc size in 2048-byte sectors.
func (cd *CDROM) Sectors() uint32 {
	cd.mu.Lock()
	defer cd.mu.Unlock()
	return cd.sectors
}

// ListDirectory returns the names in a disc directory, for the monitor.
func (cd *CDROM) ListDirectory(path string) ([]string, error) {
	cd.mu.Lock()
	fs := cd.fs
	cd.mu.Unlock()
	if fs == nil {
		return nil, fmt.Errorf("cdrom: no ISO9660 filesystem mounted")
	}
	entries, err := fs.ReadDir(path)
	if err != nil {
		return nil, fmt.Errorf("cdrom: %w", err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() {
			name += "/"
		}
		names = append(names, name)
	}
	return names, nil
}

// readSectors pulls count sectors starting at lba out of the image.
func (cd *CDROM) readSectors(lba, count uint32) ([]byte, error) {
	if cd.image == nil {
		return nil, fmt.Errorf("cdrom: no disc")
	}
	if uint64(lba)+uint64(count) > uint64(cd.sectors) {
		return nil, fmt.Errorf("cdrom: read past end (lba %d count %d of %d)", lba, count, cd.sectors)
	}
	buf := make([]byte, int(count)*CD_SECTOR_SIZE)
	if _, err := cd.image.ReadAt(buf, int64(lba)*CD_SECTOR_SIZE); err != nil {
		return nil, fmt.Errorf("cdrom: %w", err)
	}
	return buf, nil
}

func (cd *CDROM) complete() {
	if cd.irqCtrl&CD_IRQ_COMPLETE != 0 {
		cd.intc.Trigger(IRQ_CDROM)
	}
}

// command dispatch, called with the lock held for state but releasing
// it around DMA stores and the interrupt trigger.
func (cd *CDROM) runCommand(cmd uint32) {
	cd.mu.Lock()
	cd.errorBit = false

	switch cmd {
	case CD_CMD_IDENTIFY:
		buf := make([]byte, CD_SECTOR_SIZE)
		copy(buf, []byte("SCOREENGINE CDROM 1.0\x00"))
		copy(buf[64:], []byte(cd.volumeID))
		buf[128] = byte(cd.sectors)
		buf[129] = byte(cd.sectors >> 8)
		buf[130] = byte(cd.sectors >> 16)
		buf[131] = byte(cd.sectors >> 24)
		cd.pioBuf = buf
		cd.pioPos = 0
		cd.mu.Unlock()
		cd.complete()
		return

	case CD_CMD_READ_TOC:
		// Single data track at LBA 0, lead-out at the image end.
		buf := make([]byte, CD_SECTOR_SIZE)
		buf[0] = 1 // first track
		buf[1] = 1 // last track
		buf[8] = byte(cd.sectors)
		buf[9] = byte(cd.sectors >> 8)
		buf[10] = byte(cd.sectors >> 16)
		buf[11] = byte(cd.sectors >> 24)
		cd.pioBuf = buf
		cd.pioPos = 0
		cd.mu.Unlock()
		cd.complete()
		return

	case CD_CMD_READ_PIO:
		buf, err := cd.readSectors(cd.lba, cd.count)
		if err != nil {
			emuLog.Warnf("%v", err)
			cd.errorBit = true
			cd.mu.Unlock()
			cd.complete()
			return
		}
		cd.pioBuf = buf
		cd.pioPos = 0
		cd.mu.Unlock()
		cd.complete()
		return

	case CD_CMD_READ_DMA:
		buf, err := cd.readSectors(cd.lba, cd.count)
		if err != nil {
			emuLog.Warnf("%v", err)
			cd.errorBit = true
			cd.mu.Unlock()
			cd.complete()
			return
		}
		addr := cd.dmaAddr
		limit := len(buf)
		if cd.dmaLen != 0 && int(cd.dmaLen) < limit {
			limit = int(cd.dmaLen)
		}
		cd.mu.Unlock()

		for i := 0; i < limit; i++ {
			cd.mem.WriteU8(addr+uint32(i), buf[i])
		}

		cd.mu.Lock()
		cd.dmaCount = uint32(limit)
		cd.mu.Unlock()
		emuLog.Debugf("cdrom: DMA %d bytes lba %d -> 0x%08X", limit, cd.lba, addr)
		cd.complete()
		return

	case CD_CMD_STOP:
		cd.pioBuf = nil
		cd.pioPos = 0
		cd.mu.Unlock()
		return
	}

	emuLog.Warnf("cdrom: unknown command 0x%02X", cmd)
	cd.errorBit = true
	cd.mu.Unlock()
}

func (cd *CDROM) readReg(off uint32) uint32 {
	cd.mu.Lock()
	defer cd.mu.Unlock()

	switch off {
	case CD_REG_STATUS:
		var s uint32
		if cd.image != nil {
			s |= CD_STATUS_DISC_PRESENT
		}
		if cd.pioPos < len(cd.pioBuf) {
			s |= CD_STATUS_DATA_READY
		}
		if cd.errorBit {
			s |= CD_STATUS_ERROR
		}
		return s
	case CD_REG_ARG:
		return cd.arg
	case CD_REG_LBA:
		return cd.lba
	case CD_REG_COUNT:
		return cd.count
	case CD_REG_IRQ_CTRL:
		return cd.irqCtrl
	case CD_REG_DATA:
		if cd.pioPos+4 > len(cd.pioBuf) {
			return 0
		}
		b := cd.pioBuf[cd.pioPos:]
		cd.pioPos += 4
		return uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24
	case CD_REG_DMA_ADDR:
		return cd.dmaAddr
	case CD_REG_DMA_LEN:
		return cd.dmaLen
	case CD_REG_DMA_COUNT:
		return cd.dmaCount
	}
	emuLog.Debugf("cdrom: read from unknown register 0x%X", off)
	return 0
}

func (cd *CDROM) writeReg(off uint32, value uint32) {
	switch off {
	case CD_REG_COMMAND:
		cd.runCommand(value)
		return
	}

	cd.mu.Lock()
	defer cd.mu.Unlock()

	switch off {
	case CD_REG_ARG:
		cd.arg = value
	case CD_REG_LBA:
		cd.lba = value
	case CD_REG_COUNT:
		cd.count = value
	case CD_REG_IRQ_CTRL:
		cd.irqCtrl = value
	case CD_REG_DMA_ADDR:
		cd.dmaAddr = value
	case CD_REG_DMA_LEN:
		cd.dmaLen = value
	case CD_REG_DMA_COUNT:
		cd.dmaCount = value
	case CD_REG_STATUS, CD_REG_DATA:
		// read-only, drop
	default:
		emuLog.Debugf("cdrom: write to unknown register 0x%X", off)
	}
}

// Region returns the guest-visible register file for segment 0x09.
func (cd *CDROM) Region() Region {
	return NewMMIORegion(CD_WINDOW_SIZE, cd.readReg, cd.writeReg)
}
