package damage

import (
	"encoding/binary"
	"hash/crc32"
)

var footerBearingFormats = map[string][]byte{
	"JPEG":        {0xFF, 0xD9},
	"GIF":         {0x00, 0x3B},
	"PNG":         {0x49, 0x45, 0x4E, 0x44, 0xAE, 0x42, 0x60, 0x82},
	"MPEG-PS":     {0x00, 0x00, 0x01, 0xB9},
	"MPEG-PS-SEQ": {0x00, 0x00, 0x01, 0xB9},
}

func checkHeader(formatName string, data []byte) bool {
	switch formatName {
	case "JPEG":
		return len(data) >= 3 && data[0] == 0xFF && data[1] == 0xD8 && data[2] == 0xFF
	case "PNG":
		sig := []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A}
		return len(data) >= 8 && bytesEqual(data[:8], sig)
	case "GIF":
		return len(data) >= 6 && (string(data[:6]) == "GIF87a" || string(data[:6]) == "GIF89a")
	case "BMP":
		return len(data) >= 2 && data[0] == 'B' && data[1] == 'M'
	case "ISOBMFFGeneric":
		return len(data) >= 8 && string(data[4:8]) == "ftyp" && binary.BigEndian.Uint32(data[0:4]) <= 4096
	case "WAV", "AVI":
		return len(data) >= 12 && string(data[0:4]) == "RIFF"
	case "SWF-UNCOMPRESSED", "SWF-COMPRESSED":
		return len(data) >= 3 && (string(data[0:3]) == "FWS" || string(data[0:3]) == "CWS")
	case "MPEG-PS", "MPEG-PS-SEQ":
		return hasMPEGStartCode(data, 32)
	default:
		return len(data) > 0
	}
}

func bytesEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func hasMPEGStartCode(data []byte, within int) bool {
	n := len(data)
	if n > within {
		n = within
	}
	for i := 0; i+4 <= n; i++ {
		if data[i] == 0 && data[i+1] == 0 && data[i+2] == 1 && (data[i+3] == 0xBA || data[i+3] == 0xB3) {
			return true
		}
	}
	return false
}

// checkFooter reports whether the format has a defined footer and, if so,
// whether it was found in the last 4 KiB of data.
func checkFooter(formatName string, data []byte) (hasFooter bool, found bool) {
	footer, ok := footerBearingFormats[formatName]
	if !ok {
		return false, false
	}
	tail := data
	if len(data) > 4096 {
		tail = data[len(data)-4096:]
	}
	return true, containsBytes(tail, footer)
}

func containsBytes(hay, needle []byte) bool {
	if len(needle) == 0 || len(needle) > len(hay) {
		return false
	}
	for i := 0; i+len(needle) <= len(hay); i++ {
		if bytesEqual(hay[i:i+len(needle)], needle) {
			return true
		}
	}
	return false
}

// checkStructure performs the per-format deep structural walk. It returns
// ok=true when nothing abnormal was found, plus a short note on failure.
func checkStructure(formatName string, data []byte) (bool, string) {
	switch formatName {
	case "JPEG":
		return checkJPEGStructure(data)
	case "PNG":
		return checkPNGStructure(data)
	case "ISOBMFFGeneric":
		return checkIsoBmffStructure(data)
	case "BMP":
		return checkBMPStructure(data)
	case "WAV", "AVI":
		return checkRIFFStructure(data)
	case "MPEG-PS", "MPEG-PS-SEQ":
		return checkMPEGPSStructure(data)
	case "SWF-UNCOMPRESSED", "SWF-COMPRESSED":
		return checkSWFStructure(data)
	default:
		return true, ""
	}
}

func checkJPEGStructure(data []byte) (bool, string) {
	if len(data) < 4 {
		return false, "too short"
	}
	i := 2
	sawSOF := false
	sawSOS := false
	for i+4 <= len(data) {
		if data[i] != 0xFF {
			i++
			continue
		}
		marker := data[i+1]
		if marker == 0xD8 || marker == 0x01 || (marker >= 0xD0 && marker <= 0xD7) {
			i += 2
			continue
		}
		if marker == 0xD9 {
			break
		}
		if i+4 > len(data) {
			return false, "segment header truncated"
		}
		length := int(data[i+2])<<8 | int(data[i+3])
		if length < 2 {
			return false, "segment length below minimum"
		}
		if i+2+length > len(data) {
			return false, "segment extends past candidate bytes"
		}
		if marker >= 0xC0 && marker <= 0xCF && marker != 0xC4 && marker != 0xC8 && marker != 0xCC {
			sawSOF = true
		}
		if marker == 0xDA {
			sawSOS = true
			break
		}
		i += 2 + length
	}
	if !sawSOF || !sawSOS {
		return false, "missing SOFn or SOS marker"
	}
	return true, ""
}

func checkPNGStructure(data []byte) (bool, string) {
	if len(data) < 8 {
		return false, "too short"
	}
	i := 8
	sawIDAT := false
	sawIENDBeforeData := true
	for i+8 <= len(data) {
		length := int(binary.BigEndian.Uint32(data[i : i+4]))
		if length < 0 || i+8+length+4 > len(data) {
			return false, "chunk length extends past candidate bytes"
		}
		chunkType := string(data[i+4 : i+8])
		chunkData := data[i+8 : i+8+length]
		crcStart := i + 8 + length
		want := binary.BigEndian.Uint32(data[crcStart : crcStart+4])
		got := crc32.ChecksumIEEE(data[i+4 : i+8+length])
		if want != got {
			return false, "chunk CRC32 mismatch in " + chunkType
		}
		if chunkType == "IDAT" {
			sawIDAT = true
			sawIENDBeforeData = false
		}
		if chunkType == "IEND" {
			break
		}
		i = crcStart + 4
	}
	if !sawIDAT || sawIENDBeforeData {
		return false, "no IDAT chunk before IEND"
	}
	return true, ""
}

func checkIsoBmffStructure(data []byte) (bool, string) {
	if len(data) < 8 {
		return false, "too short"
	}
	off := 0
	sawFtyp := false
	sawMoov := false
	for off+8 <= len(data) {
		size := int64(binary.BigEndian.Uint32(data[off : off+4]))
		boxType := data[off+4 : off+8]
		for _, c := range boxType {
			if c < 0x20 || c > 0x7E {
				return false, "box type not printable ASCII"
			}
		}
		if string(boxType) == "ftyp" {
			sawFtyp = true
		}
		if string(boxType) == "moov" {
			sawMoov = true
		}
		if size == 1 {
			if off+16 > len(data) {
				break
			}
			size = int64(binary.BigEndian.Uint64(data[off+8 : off+16]))
		} else if size == 0 {
			size = int64(len(data) - off)
		}
		if size < 8 {
			return false, "box size below minimum"
		}
		off += int(size)
	}
	if !sawFtyp || !sawMoov {
		return false, "missing ftyp or moov box"
	}
	return true, ""
}

func checkBMPStructure(data []byte) (bool, string) {
	if len(data) < 18 {
		return false, "too short"
	}
	declared := int64(binary.LittleEndian.Uint32(data[2:6]))
	actual := int64(len(data))
	diff := declared - actual
	if diff < 0 {
		diff = -diff
	}
	if diff > actual/10+4096 {
		return false, "declared size far from actual"
	}
	dataOff := int64(binary.LittleEndian.Uint32(data[10:14]))
	if dataOff > actual {
		return false, "data offset beyond actual length"
	}
	return true, ""
}

func checkRIFFStructure(data []byte) (bool, string) {
	if len(data) < 8 {
		return false, "too short"
	}
	declared := int64(binary.LittleEndian.Uint32(data[4:8])) + 8
	actual := int64(len(data))
	diff := declared - actual
	if diff < 0 {
		diff = -diff
	}
	if diff > 4096 {
		return false, "declared RIFF size not within 4 KiB of actual"
	}
	return true, ""
}

func checkMPEGPSStructure(data []byte) (bool, string) {
	sample := data
	if len(sample) > 10<<20 {
		sample = sample[:10<<20]
	}
	startCodes := 0
	sawPackOrSeq := false
	lastOffset := -1
	biggestGap := 0
	for i := 0; i+4 <= len(sample); i++ {
		if sample[i] == 0 && sample[i+1] == 0 && sample[i+2] == 1 {
			startCodes++
			if sample[i+3] == 0xBA || sample[i+3] == 0xB3 {
				sawPackOrSeq = true
			}
			if lastOffset >= 0 && i-lastOffset > biggestGap {
				biggestGap = i - lastOffset
			}
			lastOffset = i
		}
	}
	if !sawPackOrSeq {
		return false, "no pack or sequence header found"
	}
	if biggestGap > 1<<20 {
		return false, "gap between start codes exceeds 1 MiB"
	}
	return true, ""
}

func checkSWFStructure(data []byte) (bool, string) {
	if len(data) < 8 {
		return false, "too short"
	}
	declared := int64(binary.LittleEndian.Uint32(data[4:8]))
	actual := int64(len(data))
	diff := declared - actual
	if diff < 0 {
		diff = -diff
	}
	if diff > actual/10+4096 {
		return false, "declared SWF size far from actual"
	}
	return true, ""
}

// checkTruncation reports truncation for footer-bearing formats: the
// footer must appear within the last 2 or 32 bytes, depending on format.
func checkTruncation(formatName string, data []byte, footerFound bool) bool {
	footer, ok := footerBearingFormats[formatName]
	if !ok {
		return false
	}
	if !footerFound {
		return true
	}
	window := 32
	if formatName == "JPEG" || formatName == "GIF" {
		window = 2
	}
	if len(data) < window {
		window = len(data)
	}
	tail := data[len(data)-window:]
	return !containsBytes(tail, footer)
}
