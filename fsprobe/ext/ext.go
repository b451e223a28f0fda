// Package ext detects ext2/ext3/ext4 volumes from the superblock magic
// at byte offset 1080 and derives free-block ranges by walking the
// group descriptor table and reading each group's block bitmap,
// honoring the 64-bit feature's wider group descriptor size.
package ext

import (
	"encoding/binary"

	"github.com/arnesen/recoverd/block"
	"github.com/arnesen/recoverd/fsprobe/shared"
	"github.com/arnesen/recoverd/session"
)

const (
	superblockOffset = 1024
	extMagicOffset   = 56
	extMagic         = 0xEF53

	incompat64Bit = 0x0080
	incompatExtents = 0x0040
)

type superblock struct {
	blocksCount       uint64
	blocksPerGroup    uint32
	firstDataBlock    uint32
	logBlockSize      uint32
	inodesCount       uint32
	featureIncompat   uint32
	descSize          uint16
}

// Probe reads the fixed superblock location, verifies the ext magic
// number, and walks the group descriptor table to accumulate free
// ranges from each group's block bitmap.
func Probe(r *block.Reader) (session.FilesystemInfo, bool, error) {
	raw, err := r.ReadAt(superblockOffset, 1024)
	if err != nil || len(raw) < 1024 {
		return session.FilesystemInfo{}, false, err
	}
	if binary.LittleEndian.Uint16(raw[extMagicOffset:extMagicOffset+2]) != extMagic {
		return session.FilesystemInfo{}, false, nil
	}

	sb := superblock{
		inodesCount:     binary.LittleEndian.Uint32(raw[0:4]),
		blocksCount:     uint64(binary.LittleEndian.Uint32(raw[4:8])),
		firstDataBlock:  binary.LittleEndian.Uint32(raw[20:24]),
		logBlockSize:    binary.LittleEndian.Uint32(raw[24:28]),
		blocksPerGroup:  binary.LittleEndian.Uint32(raw[32:36]),
		featureIncompat: binary.LittleEndian.Uint32(raw[96:100]),
		descSize:        binary.LittleEndian.Uint16(raw[254:256]),
	}
	if sb.featureIncompat&incompat64Bit != 0 {
		sb.blocksCount |= uint64(binary.LittleEndian.Uint32(raw[336:340])) << 32
	}

	blockSize := int64(1024) << sb.logBlockSize
	descSize := uint32(32)
	if sb.featureIncompat&incompat64Bit != 0 && sb.descSize > 32 {
		descSize = uint32(sb.descSize)
	}

	numGroups := (sb.blocksCount + uint64(sb.blocksPerGroup) - 1) / uint64(sb.blocksPerGroup)
	gdtOffset := int64(sb.firstDataBlock+1) * blockSize
	if blockSize == 1024 {
		gdtOffset = 2 * blockSize
	}

	gdtBytes, err := r.ReadAt(gdtOffset, int(numGroups)*int(descSize))
	if err != nil {
		return session.FilesystemInfo{
			Family:        extFamilyName(sb.featureIncompat),
			ClusterSize:   blockSize,
			TotalClusters: int64(sb.blocksCount),
		}, true, nil
	}

	var ranges []session.Range
	var totalFree int64

	for g := uint64(0); g < numGroups; g++ {
		descOff := g * uint64(descSize)
		if descOff+32 > uint64(len(gdtBytes)) {
			break
		}
		desc := gdtBytes[descOff:]
		bitmapBlock := uint64(binary.LittleEndian.Uint32(desc[0:4]))
		if descSize > 32 {
			bitmapBlock |= uint64(binary.LittleEndian.Uint32(desc[32:36])) << 32
		}

		groupFirstBlock := sb.firstDataBlock + uint32(g)*sb.blocksPerGroup
		blocksInGroup := sb.blocksPerGroup
		remaining := sb.blocksCount - uint64(groupFirstBlock)
		if remaining < uint64(blocksInGroup) {
			blocksInGroup = uint32(remaining)
		}

		bitmapData, err := r.ReadAt(int64(bitmapBlock)*blockSize, int(blockSize))
		if err != nil {
			continue
		}

		groupRanges, groupFree := freeRangesInGroup(bitmapData, groupFirstBlock, blocksInGroup, blockSize)
		ranges = append(ranges, groupRanges...)
		totalFree += groupFree
	}

	return session.FilesystemInfo{
		Family:         extFamilyName(sb.featureIncompat),
		ClusterSize:    blockSize,
		TotalClusters:  int64(sb.blocksCount),
		FreeClusters:   totalFree / blockSize,
		FreeRanges:     ranges,
		TotalFreeBytes: totalFree,
	}, true, nil
}

func extFamilyName(featureIncompat uint32) string {
	if featureIncompat&incompatExtents != 0 {
		return "ext4"
	}
	return "ext2-3"
}

// freeRangesInGroup walks one group's block bitmap (bit 0 = free,
// same polarity the other probers use) and returns contiguous
// free-block runs as absolute byte ranges, plus the total free bytes
// found in the group. Each group has its own bitmap read from its own
// descriptor-declared location, not one flat volume-wide bitmap, so
// this uses the predicate walk rather than the bitmap-backed one.
func freeRangesInGroup(bitmap []byte, groupFirstBlock, blocksInGroup uint32, blockSize int64) ([]session.Range, int64) {
	blockToByte := func(block uint) int64 {
		return int64(block) * blockSize
	}

	ranges := shared.FreeRunsFromPredicate(uint(blocksInGroup), func(i uint) bool {
		byteIdx := i / 8
		return int(byteIdx) >= len(bitmap) || bitmap[byteIdx]&(1<<(i%8)) == 0
	}, func(i uint) int64 {
		return blockToByte(uint(groupFirstBlock) + i)
	})

	var totalFree int64
	for _, rg := range ranges {
		totalFree += rg.End - rg.Start
	}

	return ranges, totalFree
}
