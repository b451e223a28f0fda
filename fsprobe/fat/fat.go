// Package fat detects FAT12/16/32 volumes from their BIOS parameter
// block and extracts free-cluster runs by walking the File Allocation
// Table, following the boot-sector parsing and version-from-cluster-
// count heuristic of the reference FAT driver, generalized to stop at
// reading the FAT instead of mounting the volume.
package fat

import (
	"encoding/binary"

	"github.com/arnesen/recoverd/block"
	"github.com/arnesen/recoverd/fsprobe/shared"
	"github.com/arnesen/recoverd/session"
)

type bootSector struct {
	bytesPerSector    uint16
	sectorsPerCluster uint8
	reservedSectors   uint16
	numFATs           uint8
	rootEntryCount    uint16
	totalSectors16    uint16
	sectorsPerFAT16   uint16
	totalSectors32    uint32
	sectorsPerFAT32   uint32
}

// determineVersion classifies a FAT volume by cluster count, the only
// correct way to tell FAT12 from FAT16 from FAT32.
func determineVersion(totalClusters uint) int {
	if totalClusters < 4085 {
		return 12
	}
	if totalClusters < 65525 {
		return 16
	}
	return 32
}

// Probe reads the BIOS parameter block, rejects non-FAT volumes, and
// walks the (first) FAT table to emit free-cluster runs.
func Probe(r *block.Reader) (session.FilesystemInfo, bool, error) {
	raw, err := r.ReadAt(0, 512)
	if err != nil || len(raw) < 512 {
		return session.FilesystemInfo{}, false, err
	}

	if string(raw[82:87]) == "FAT32" {
		// explicit label, fall through to generic parse below
	} else if string(raw[54:59]) != "FAT12" && string(raw[54:59]) != "FAT16" {
		bps := binary.LittleEndian.Uint16(raw[11:13])
		fatSz16 := binary.LittleEndian.Uint16(raw[22:24])
		fatSz32 := binary.LittleEndian.Uint32(raw[36:40])
		if bps == 0 || !(fatSz16 == 0 && fatSz32 > 0) {
			return session.FilesystemInfo{}, false, nil
		}
	}

	bs := bootSector{
		bytesPerSector:    binary.LittleEndian.Uint16(raw[11:13]),
		sectorsPerCluster: raw[13],
		reservedSectors:   binary.LittleEndian.Uint16(raw[14:16]),
		numFATs:           raw[16],
		rootEntryCount:    binary.LittleEndian.Uint16(raw[17:19]),
		totalSectors16:    binary.LittleEndian.Uint16(raw[19:21]),
		sectorsPerFAT16:   binary.LittleEndian.Uint16(raw[22:24]),
		totalSectors32:    binary.LittleEndian.Uint32(raw[32:36]),
		sectorsPerFAT32:   binary.LittleEndian.Uint32(raw[36:40]),
	}
	if bs.bytesPerSector == 0 || bs.sectorsPerCluster == 0 {
		return session.FilesystemInfo{}, false, nil
	}

	sectorsPerFAT := uint(bs.sectorsPerFAT16)
	if sectorsPerFAT == 0 {
		sectorsPerFAT = uint(bs.sectorsPerFAT32)
	}
	totalSectors := uint(bs.totalSectors16)
	if totalSectors == 0 {
		totalSectors = uint(bs.totalSectors32)
	}
	rootDirSectors := (uint(bs.rootEntryCount)*32 + uint(bs.bytesPerSector) - 1) / uint(bs.bytesPerSector)
	totalFATSectors := uint(bs.numFATs) * sectorsPerFAT
	dataSectors := totalSectors - uint(bs.reservedSectors) - totalFATSectors - rootDirSectors
	totalClusters := dataSectors / uint(bs.sectorsPerCluster)

	version := determineVersion(totalClusters)
	clusterSize := int64(bs.bytesPerSector) * int64(bs.sectorsPerCluster)
	fatOffset := int64(bs.reservedSectors) * int64(bs.bytesPerSector)
	firstDataSector := uint(bs.reservedSectors) + totalFATSectors + rootDirSectors
	firstDataOffset := int64(firstDataSector) * int64(bs.bytesPerSector)

	clusterToByte := func(cluster uint) int64 {
		return firstDataOffset + (int64(cluster)-2)*clusterSize
	}

	fatBytes, err := r.ReadAt(fatOffset, int(sectorsPerFAT)*int(bs.bytesPerSector))
	if err != nil {
		return session.FilesystemInfo{Family: familyName(version), ClusterSize: clusterSize, TotalClusters: int64(totalClusters)}, true, nil
	}

	freeFn := freeEntry12
	if version == 16 {
		freeFn = freeEntry16
	} else if version == 32 {
		freeFn = freeEntry32
	}

	// FAT cluster numbers start at 2; clusters 0 and 1 are reserved
	// (media descriptor and end-of-chain marker) and never usable.
	ranges := shared.FreeRunsFromPredicate(totalClusters, func(unit uint) bool {
		return freeFn(fatBytes, unit+2)
	}, func(unit uint) int64 {
		return clusterToByte(unit + 2)
	})

	var totalFree int64
	for _, rg := range ranges {
		totalFree += rg.End - rg.Start
	}

	return session.FilesystemInfo{
		Family:         familyName(version),
		ClusterSize:    clusterSize,
		TotalClusters:  int64(totalClusters),
		FreeClusters:   totalFree / clusterSize,
		FreeRanges:     ranges,
		TotalFreeBytes: totalFree,
	}, true, nil
}

func familyName(version int) string {
	switch version {
	case 12:
		return "fat12"
	case 16:
		return "fat16"
	default:
		return "fat32"
	}
}

func freeEntry16(fat []byte, cluster uint) bool {
	off := cluster * 2
	if int(off)+2 > len(fat) {
		return false
	}
	return binary.LittleEndian.Uint16(fat[off:off+2]) == 0
}

func freeEntry32(fat []byte, cluster uint) bool {
	off := cluster * 4
	if int(off)+4 > len(fat) {
		return false
	}
	return binary.LittleEndian.Uint32(fat[off:off+4])&0x0FFFFFFF == 0
}

// freeEntry12 reads a 12-bit packed FAT entry: two entries share three
// bytes, with the odd entry's bits spanning a byte boundary.
func freeEntry12(fat []byte, cluster uint) bool {
	off := cluster + cluster/2
	if int(off)+2 > len(fat) {
		return false
	}
	packed := uint16(fat[off]) | uint16(fat[off+1])<<8
	if cluster%2 == 0 {
		return packed&0x0FFF == 0
	}
	return (packed>>4)&0x0FFF == 0
}
