// Package ntfs detects an NTFS volume from its boot sector and derives
// free-cluster ranges from the $Bitmap metadata file (MFT record 6),
// decoding its non-resident data run list the way NTFS encodes run
// offsets: nibble-packed length/offset byte counts, with each run's
// starting LCN stored relative to the previous run's.
package ntfs

import (
	"encoding/binary"

	"github.com/arnesen/recoverd/block"
	"github.com/arnesen/recoverd/fsprobe/shared"
	"github.com/arnesen/recoverd/session"
)

const (
	oemIDOffset   = 3
	mftRecordSize = 1024
	bitmapRecord  = 6
)

var oemID = []byte("NTFS    ")

type biosParameterBlock struct {
	bytesPerSector     uint16
	sectorsPerCluster  uint8
	mftClusterNumber   uint64
	bytesPerFileRecord int64
}

// Probe reads the boot sector, confirms the NTFS OEM ID, locates the
// $MFT, reads the $Bitmap record (#6), decodes its non-resident data
// run list, and reports the volume's free ranges from that bitmap.
func Probe(r *block.Reader) (session.FilesystemInfo, bool, error) {
	raw, err := r.ReadAt(0, 512)
	if err != nil || len(raw) < 512 {
		return session.FilesystemInfo{}, false, err
	}
	if string(raw[oemIDOffset:oemIDOffset+8]) != string(oemID) {
		return session.FilesystemInfo{}, false, nil
	}

	bps := binary.LittleEndian.Uint16(raw[11:13])
	spc := raw[13]
	if bps == 0 || spc == 0 {
		return session.FilesystemInfo{}, false, nil
	}
	clusterSize := int64(bps) * int64(spc)

	mftCluster := int64(binary.LittleEndian.Uint64(raw[48:56]))
	clustersPerRecordRaw := int8(raw[64])
	recordSize := mftRecordSize
	if clustersPerRecordRaw > 0 {
		recordSize = int(clustersPerRecordRaw) * int(clusterSize)
	} else if clustersPerRecordRaw < 0 {
		recordSize = 1 << uint(-clustersPerRecordRaw)
	}

	totalSectors := int64(binary.LittleEndian.Uint64(raw[40:48]))
	totalClusters := totalSectors / int64(spc)

	bpb := biosParameterBlock{bytesPerSector: bps, sectorsPerCluster: spc, mftClusterNumber: uint64(mftCluster), bytesPerFileRecord: int64(recordSize)}

	bitmapData, ok := readBitmapFileData(r, bpb, clusterSize)
	if !ok {
		return session.FilesystemInfo{
			Family:        "ntfs",
			ClusterSize:   clusterSize,
			TotalClusters: totalClusters,
		}, true, nil
	}

	clusterToByte := func(cluster uint) int64 {
		return int64(cluster) * clusterSize
	}

	// NTFS uses bit value 1 = in use, 0 = free, same polarity as every
	// other prober in this package.
	ranges := shared.FreeRunsFromBitmap(shared.BitmapFromBytes(bitmapData, uint(totalClusters)), uint(totalClusters), clusterToByte)

	var totalFree int64
	for _, rg := range ranges {
		totalFree += rg.End - rg.Start
	}

	return session.FilesystemInfo{
		Family:         "ntfs",
		ClusterSize:    clusterSize,
		TotalClusters:  totalClusters,
		FreeClusters:   totalFree / clusterSize,
		FreeRanges:     ranges,
		TotalFreeBytes: totalFree,
	}, true, nil
}

// readBitmapFileData locates MFT record #6 ($Bitmap), finds its first
// non-resident $DATA attribute (the attribute name is not checked), and
// materializes the attribute's content
// from its non-resident data runs.
func readBitmapFileData(r *block.Reader, bpb biosParameterBlock, clusterSize int64) ([]byte, bool) {
	mftOffset := int64(bpb.mftClusterNumber) * clusterSize
	recordOffset := mftOffset + int64(bitmapRecord)*bpb.bytesPerFileRecord
	record, err := r.ReadAt(recordOffset, int(bpb.bytesPerFileRecord))
	if err != nil || len(record) < int(bpb.bytesPerFileRecord) {
		return nil, false
	}
	if string(record[0:4]) != "FILE" {
		return nil, false
	}
	applyFixup(record, int(bpb.bytesPerSector))

	firstAttrOff := binary.LittleEndian.Uint16(record[20:22])
	offset := int(firstAttrOff)
	const dataAttrType = 0x80
	for offset+16 <= len(record) {
		attrType := binary.LittleEndian.Uint32(record[offset : offset+4])
		if attrType == 0xFFFFFFFF {
			break
		}
		attrLen := binary.LittleEndian.Uint32(record[offset+4 : offset+8])
		if attrLen == 0 {
			break
		}
		if attrType == dataAttrType {
			nonResident := record[offset+8]
			if nonResident != 0 {
				runListOffset := binary.LittleEndian.Uint16(record[offset+32 : offset+34])
				runs := decodeDataRuns(record[offset+int(runListOffset):])
				return materializeRuns(r, runs, clusterSize)
			}
		}
		offset += int(attrLen)
	}
	return nil, false
}

// applyFixup reverses NTFS's update-sequence fixup: the last two bytes
// of each sector are replaced with a sequence number at write time, and
// the true bytes are stashed in the record's Update Sequence Array.
func applyFixup(record []byte, bytesPerSector int) {
	if len(record) < 8 {
		return
	}
	usaOffset := binary.LittleEndian.Uint16(record[4:6])
	usaCount := binary.LittleEndian.Uint16(record[6:8])
	if usaCount == 0 || int(usaOffset)+int(usaCount)*2 > len(record) {
		return
	}
	usa := record[usaOffset : usaOffset+usaCount*2]
	for i := 1; i < int(usaCount); i++ {
		sectorEnd := i*bytesPerSector - 2
		if sectorEnd+2 > len(record) {
			break
		}
		copy(record[sectorEnd:sectorEnd+2], usa[i*2:i*2+2])
	}
}

type dataRun struct {
	length int64
	lcn    int64 // absolute, resolved from the relative offset encoding
	sparse bool
}

// decodeDataRuns decodes an NTFS mapping-pairs run list. Each run
// starts with a header byte whose low nibble is the byte count of the
// run length and whose high nibble is the byte count of the (signed,
// relative-to-previous) LCN offset; a zero header byte ends the list.
func decodeDataRuns(buf []byte) []dataRun {
	var runs []dataRun
	var lastLCN int64
	pos := 0
	for pos < len(buf) {
		header := buf[pos]
		if header == 0 {
			break
		}
		lengthBytes := int(header & 0x0F)
		offsetBytes := int(header >> 4)
		pos++
		if pos+lengthBytes+offsetBytes > len(buf) {
			break
		}
		length := readLittleEndianUnsigned(buf[pos : pos+lengthBytes])
		pos += lengthBytes

		sparse := offsetBytes == 0
		var relOffset int64
		if !sparse {
			relOffset = readLittleEndianSigned(buf[pos : pos+offsetBytes])
			pos += offsetBytes
			lastLCN += relOffset
		}

		runs = append(runs, dataRun{length: length, lcn: lastLCN, sparse: sparse})
	}
	return runs
}

func readLittleEndianUnsigned(b []byte) int64 {
	var v int64
	for i, by := range b {
		v |= int64(by) << (8 * i)
	}
	return v
}

func readLittleEndianSigned(b []byte) int64 {
	v := readLittleEndianUnsigned(b)
	// sign-extend from the top bit of the highest byte present
	if len(b) > 0 && b[len(b)-1]&0x80 != 0 {
		v -= 1 << (8 * uint(len(b)))
	}
	return v
}

func materializeRuns(r *block.Reader, runs []dataRun, clusterSize int64) ([]byte, bool) {
	var out []byte
	for _, run := range runs {
		runBytes := run.length * clusterSize
		if run.sparse {
			out = append(out, make([]byte, runBytes)...)
			continue
		}
		chunk, err := r.ReadAt(run.lcn*clusterSize, int(runBytes))
		if err != nil {
			return nil, false
		}
		out = append(out, chunk...)
	}
	return out, len(out) > 0
}
