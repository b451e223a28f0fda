// Package exfat detects an exFAT volume from its boot sector and
// extracts its free-cluster ranges from the Allocation Bitmap directory
// entry, without walking the rest of the file tree.
package exfat

import (
	"encoding/binary"

	"github.com/go-restruct/restruct"

	"github.com/arnesen/recoverd/block"
	"github.com/arnesen/recoverd/fsprobe/shared"
	"github.com/arnesen/recoverd/session"
)

// restructEncoding matches the byte order of every multi-byte field in
// the exFAT on-disk structures, which are all little-endian.
var restructEncoding = binary.LittleEndian

// bootSectorHeader mirrors the fixed-layout prefix of the exFAT boot
// sector, decoded with the same restruct tag-driven approach the
// reference exFAT reader uses for its on-disk structures.
type bootSectorHeader struct {
	JumpBoot                    [3]byte
	FileSystemName               [8]byte
	MustBeZero                  [53]byte
	PartitionOffset              uint64
	VolumeLength                 uint64
	FatOffset                    uint32
	FatLength                    uint32
	ClusterHeapOffset            uint32
	ClusterCount                 uint32
	FirstClusterOfRootDirectory uint32
	VolumeSerialNumber           uint32
	FileSystemRevision           [2]uint8
	VolumeFlags                  uint16
	BytesPerSectorShift          uint8
	SectorsPerClusterShift       uint8
	NumberOfFats                 uint8
}

const bootSectorSize = 120

var fileSystemName = []byte("EXFAT   ")

// Probe reads the boot sector and, if it identifies an exFAT volume,
// walks the root directory for the Allocation Bitmap entry (type 0x81)
// to derive the free-cluster list.
func Probe(r *block.Reader) (session.FilesystemInfo, bool, error) {
	raw, err := r.ReadAt(0, bootSectorSize)
	if err != nil || len(raw) < bootSectorSize {
		return session.FilesystemInfo{}, false, err
	}
	if string(raw[3:11]) != string(fileSystemName) {
		return session.FilesystemInfo{}, false, nil
	}

	var hdr bootSectorHeader
	if err := restruct.Unpack(raw, restructEncoding, &hdr); err != nil {
		return session.FilesystemInfo{}, false, nil
	}

	bytesPerSector := uint64(1) << hdr.BytesPerSectorShift
	sectorsPerCluster := uint64(1) << hdr.SectorsPerClusterShift
	clusterSize := bytesPerSector * sectorsPerCluster
	heapOffset := uint64(hdr.ClusterHeapOffset) * bytesPerSector

	clusterToByte := func(cluster uint32) int64 {
		return int64(heapOffset + (uint64(cluster)-2)*clusterSize)
	}

	bitmapRaw, ok := findAllocationBitmap(r, hdr, bytesPerSector, clusterSize, clusterToByte)
	if !ok {
		// Boot sector parsed but the bitmap entry couldn't be located;
		// report the volume as detected with no free ranges rather than
		// falling back to brute-force (the family is known either way).
		return session.FilesystemInfo{
			Family:      "exfat",
			ClusterSize: int64(clusterSize),
			TotalClusters: int64(hdr.ClusterCount),
		}, true, nil
	}

	ranges := shared.FreeRunsFromBitmap(shared.BitmapFromBytes(bitmapRaw, uint(hdr.ClusterCount)), uint(hdr.ClusterCount), func(cluster uint) int64 {
		return clusterToByte(uint32(cluster) + 2)
	})

	var totalFree int64
	for _, rg := range ranges {
		totalFree += rg.End - rg.Start
	}

	return session.FilesystemInfo{
		Family:         "exfat",
		ClusterSize:    int64(clusterSize),
		TotalClusters:  int64(hdr.ClusterCount),
		FreeClusters:   totalFree / int64(clusterSize),
		FreeRanges:     ranges,
		TotalFreeBytes: totalFree,
	}, true, nil
}

const dirEntrySize = 32
const allocationBitmapEntryType = 0x81

// findAllocationBitmap walks the root directory's 32-byte entries
// looking for an Allocation Bitmap entry (type 0x81), returning the
// bitmap bytes it describes.
func findAllocationBitmap(r *block.Reader, hdr bootSectorHeader, bytesPerSector, clusterSize uint64, clusterToByte func(uint32) int64) ([]byte, bool) {
	rootOffset := clusterToByte(hdr.FirstClusterOfRootDirectory)
	// A root directory rarely exceeds a handful of clusters before the
	// bitmap entry appears; cap the walk generously without reading the
	// whole heap.
	maxScan := int64(clusterSize) * 32
	data, err := r.ReadAt(rootOffset, int(maxScan))
	if err != nil {
		return nil, false
	}

	for off := 0; off+dirEntrySize <= len(data); off += dirEntrySize {
		entry := data[off : off+dirEntrySize]
		if entry[0] != allocationBitmapEntryType {
			continue
		}
		firstCluster := le32(entry, 20)
		dataLength := le64(entry, 24)
		bitmapOffset := clusterToByte(firstCluster)
		bitmap, err := r.ReadAt(bitmapOffset, int(dataLength))
		if err != nil {
			return nil, false
		}
		return bitmap, true
	}
	return nil, false
}

func le32(b []byte, off int) uint32 {
	return uint32(b[off]) | uint32(b[off+1])<<8 | uint32(b[off+2])<<16 | uint32(b[off+3])<<24
}

func le64(b []byte, off int) uint64 {
	var v uint64
	for i := 0; i < 8; i++ {
		v |= uint64(b[off+i]) << (8 * i)
	}
	return v
}

