package repair

import (
	"bytes"
	"encoding/binary"
	"hash/crc32"
)

func trimLeadingGarbageJPEG(_ string, buf []byte) ([]byte, bool) {
	idx := bytes.Index(buf, []byte{0xFF, 0xD8, 0xFF})
	if idx <= 0 {
		return buf, idx == 0
	}
	return buf[idx:], true
}

func appendJPEGEOI(_ string, buf []byte) ([]byte, bool) {
	if bytes.HasSuffix(buf, []byte{0xFF, 0xD9}) {
		return buf, false
	}
	if idx := bytes.LastIndex(buf, []byte{0xFF, 0xD9}); idx >= 0 {
		return buf[:idx+2], true
	}
	return append(buf, 0xFF, 0xD9), true
}

var pngSignature = []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A}

func trimLeadingGarbagePNG(_ string, buf []byte) ([]byte, bool) {
	idx := bytes.Index(buf, pngSignature)
	if idx <= 0 {
		return buf, idx == 0
	}
	return buf[idx:], true
}

func fixPNGCRCs(_ string, buf []byte) ([]byte, bool) {
	if len(buf) < 8 {
		return buf, false
	}
	out := append([]byte(nil), buf[:8]...)
	i := 8
	fixedAny := false
	for i+8 <= len(buf) {
		length := int(binary.BigEndian.Uint32(buf[i : i+4]))
		if length < 0 || i+8+length+4 > len(buf) {
			break
		}
		typeAndData := buf[i+4 : i+8+length]
		crc := crc32.ChecksumIEEE(typeAndData)
		out = append(out, buf[i:i+8+length]...)
		crcBytes := make([]byte, 4)
		binary.BigEndian.PutUint32(crcBytes, crc)
		want := binary.BigEndian.Uint32(buf[i+8+length : i+12+length])
		if want != crc {
			fixedAny = true
		}
		out = append(out, crcBytes...)
		chunkType := string(buf[i+4 : i+8])
		i += 12 + length
		if chunkType == "IEND" {
			break
		}
	}
	return out, fixedAny
}

func appendPNGIEND(_ string, buf []byte) ([]byte, bool) {
	if bytes.Contains(buf, []byte("IEND")) {
		return buf, false
	}
	iend := chunkBytes("IEND", nil)
	return append(buf, iend...), true
}

func chunkBytes(typ string, data []byte) []byte {
	out := make([]byte, 4)
	binary.BigEndian.PutUint32(out, uint32(len(data)))
	out = append(out, []byte(typ)...)
	out = append(out, data...)
	crc := crc32.ChecksumIEEE(append([]byte(typ), data...))
	crcBytes := make([]byte, 4)
	binary.BigEndian.PutUint32(crcBytes, crc)
	return append(out, crcBytes...)
}

func fixBMPDeclaredSize(_ string, buf []byte) ([]byte, bool) {
	if len(buf) < 6 {
		return buf, false
	}
	putLE32(buf, 2, uint32(len(buf)))
	return buf, true
}

func fixBMPDataOffset(_ string, buf []byte) ([]byte, bool) {
	if len(buf) < 18 {
		return buf, false
	}
	dibSize := le32(buf, 14)
	want := 14 + dibSize
	if uint32(len(buf)) >= want && le32(buf, 10) <= uint32(len(buf)) {
		return buf, false
	}
	putLE32(buf, 10, want)
	return buf, true
}

func skipToFtypBox(_ string, buf []byte) ([]byte, bool) {
	idx := bytes.Index(buf, []byte("ftyp"))
	if idx < 4 {
		return buf, false
	}
	return buf[idx-4:], true
}

func repairMoovBox(_ string, buf []byte) ([]byte, bool) {
	// Reconstructing a torn moov box's internal atoms is out of scope for
	// byte-level repair; this action only confirms a moov box header is
	// present and well-formed enough to keep.
	if bytes.Contains(buf, []byte("moov")) {
		return buf, false
	}
	return buf, false
}

func truncateOversizedBox(_ string, buf []byte) ([]byte, bool) {
	off := 0
	fixedAny := false
	for off+8 <= len(buf) {
		size := int64(binary.BigEndian.Uint32(buf[off : off+4]))
		if size == 1 {
			if off+16 > len(buf) {
				break
			}
			size = int64(binary.BigEndian.Uint64(buf[off+8 : off+16]))
		} else if size == 0 {
			size = int64(len(buf) - off)
		}
		if size < 8 {
			break
		}
		if off+int(size) > len(buf) {
			remaining := uint32(len(buf) - off)
			binary.BigEndian.PutUint32(buf[off:off+4], remaining)
			fixedAny = true
			break
		}
		off += int(size)
	}
	if off < len(buf) && fixedAny {
		buf = buf[:off+int(binary.BigEndian.Uint32(buf[off:off+4]))]
	}
	return buf, fixedAny
}

func fixRIFFDeclaredSize(_ string, buf []byte) ([]byte, bool) {
	if len(buf) < 8 {
		return buf, false
	}
	want := uint32(len(buf) - 8)
	if le32(buf, 4) == want {
		return buf, false
	}
	putLE32(buf, 4, want)
	return buf, true
}

func fixGIFVersion(_ string, buf []byte) ([]byte, bool) {
	if len(buf) < 6 {
		return buf, false
	}
	if buf[3] == '8' && buf[4] == '9' && buf[5] == 'a' {
		return buf, false
	}
	buf[3], buf[4], buf[5] = '8', '9', 'a'
	return buf, true
}

func appendGIFTrailer(_ string, buf []byte) ([]byte, bool) {
	if len(buf) > 0 && buf[len(buf)-1] == 0x3B {
		return buf, false
	}
	return append(buf, 0x3B), true
}

var mpegPackHeader = []byte{0x00, 0x00, 0x01, 0xBA, 0x44, 0x00, 0x04, 0x00, 0x04, 0x01, 0x01, 0x89, 0xC3, 0xF8}

func reconstructMPEGHeader(_ string, buf []byte) ([]byte, bool) {
	if idx := firstMPEGStartCode(buf); idx == 0 {
		return buf, false
	} else if idx > 0 {
		return buf[idx:], true
	}
	return append(append([]byte(nil), mpegPackHeader...), buf...), true
}

func firstMPEGStartCode(buf []byte) int {
	for i := 0; i+4 <= len(buf); i++ {
		if buf[i] == 0 && buf[i+1] == 0 && buf[i+2] == 1 && (buf[i+3] == 0xBA || buf[i+3] == 0xB3) {
			return i
		}
	}
	return -1
}

func resyncMPEGStartCode(_ string, buf []byte) ([]byte, bool) {
	idx := firstMPEGStartCode(buf)
	if idx <= 0 {
		return buf, false
	}
	return buf[idx:], true
}

func removeMPEGGarbageGaps(_ string, buf []byte) ([]byte, bool) {
	const maxGap = 1 << 20
	var out []byte
	last := 0
	removed := false
	for i := 0; i+4 <= len(buf); i++ {
		if buf[i] == 0 && buf[i+1] == 0 && buf[i+2] == 1 && (buf[i+3] == 0xBA || buf[i+3] == 0xB3) {
			if i-last > maxGap {
				out = append(out, buf[last:last+4096]...)
				removed = true
			} else {
				out = append(out, buf[last:i]...)
			}
			last = i
		}
	}
	out = append(out, buf[last:]...)
	if !removed {
		return buf, false
	}
	return out, true
}

func appendMPEGEndCode(_ string, buf []byte) ([]byte, bool) {
	end := []byte{0x00, 0x00, 0x01, 0xB9}
	if bytes.HasSuffix(buf, end) {
		return buf, false
	}
	return append(buf, end...), true
}

// exciseNullRegions drops 2048-byte blocks that are >=92% zero, used for
// MPEG-PS streams where a TRIM'd cluster reads back as zeros mid-stream.
func exciseNullRegions(_ string, buf []byte) ([]byte, bool) {
	const blockSize = 2048
	var out []byte
	removedAny := false
	for off := 0; off < len(buf); off += blockSize {
		end := off + blockSize
		if end > len(buf) {
			end = len(buf)
		}
		block := buf[off:end]
		if percentZero(block) >= 0.92 {
			removedAny = true
			continue
		}
		out = append(out, block...)
	}
	if !removedAny {
		return buf, false
	}
	return out, true
}

func percentZero(data []byte) float64 {
	if len(data) == 0 {
		return 0
	}
	zeros := 0
	for _, b := range data {
		if b == 0 {
			zeros++
		}
	}
	return float64(zeros) / float64(len(data))
}

func alignSWFSignature(_ string, buf []byte) ([]byte, bool) {
	for _, tag := range [][]byte{[]byte("FWS"), []byte("CWS"), []byte("ZWS")} {
		if idx := bytes.Index(buf, tag); idx == 0 {
			return buf, false
		} else if idx > 0 {
			return buf[idx:], true
		}
	}
	return buf, false
}

func rewriteSWFSize(_ string, buf []byte) ([]byte, bool) {
	if len(buf) < 8 {
		return buf, false
	}
	want := uint32(len(buf))
	if le32(buf, 4) == want {
		return buf, false
	}
	putLE32(buf, 4, want)
	return buf, true
}

func trimSWFTrailingNulls(_ string, buf []byte) ([]byte, bool) {
	end := len(buf)
	for end > 0 && buf[end-1] == 0 {
		end--
	}
	if end == len(buf) {
		return buf, false
	}
	return buf[:end], true
}
