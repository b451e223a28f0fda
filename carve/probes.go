package carve

import (
	"encoding/binary"

	"github.com/arnesen/recoverd/block"
)

// exactSizeProbe computes a candidate's exact size by walking its
// internal structure rather than trimming at the next boundary. It
// returns ok=false when the structure doesn't parse, falling back to
// the generic MaxRead trim path.
type exactSizeProbe func(r *block.Reader, offset, remaining int64) (int64, bool)

var exactSizeProbes = map[string]exactSizeProbe{
	"flv": probeFLV,
	"wmv": probeASF,
	"ogg": probeOGG,
	"rm":  probeRealMedia,
	"swf": probeSWF,
	"ts":   probeMPEGTS,
	"mkv":  probeEBML,
	"webm": probeEBML,
}

const probeReadChunk = 1 << 20

func probeFLV(r *block.Reader, offset, remaining int64) (int64, bool) {
	head, err := r.ReadAt(offset, 13)
	if err != nil || len(head) < 13 {
		return 0, false
	}
	if string(head[0:3]) != "FLV" {
		return 0, false
	}
	dataOffset := int64(binary.BigEndian.Uint32(head[5:9]))
	if dataOffset < 9 || dataOffset > remaining {
		return 0, false
	}

	pos := dataOffset
	for pos+4 <= remaining {
		tagHead, err := r.ReadAt(offset+pos, 11)
		if err != nil || len(tagHead) < 11 {
			break
		}
		tagType := tagHead[4]
		if tagType != 8 && tagType != 9 && tagType != 18 {
			break
		}
		bodyLen := int64(tagHead[5])<<16 | int64(tagHead[6])<<8 | int64(tagHead[7])
		pos += 11 + bodyLen + 4
		if pos > remaining {
			pos = remaining
			break
		}
	}
	if pos <= dataOffset {
		return 0, false
	}
	return pos, true
}

func probeASF(r *block.Reader, offset, remaining int64) (int64, bool) {
	head, err := r.ReadAt(offset, 24)
	if err != nil || len(head) < 24 {
		return 0, false
	}
	size := int64(binary.LittleEndian.Uint64(head[16:24]))
	if size <= 0 || size > remaining {
		return 0, false
	}
	return size, true
}

func probeOGG(r *block.Reader, offset, remaining int64) (int64, bool) {
	pos := int64(0)
	sawPage := false
	for pos+27 <= remaining {
		head, err := r.ReadAt(offset+pos, 27)
		if err != nil || len(head) < 27 || string(head[0:4]) != "OggS" {
			break
		}
		nSegments := int(head[26])
		segTable, err := r.ReadAt(offset+pos+27, nSegments)
		if err != nil || len(segTable) < nSegments {
			break
		}
		pageBodyLen := 0
		for _, s := range segTable {
			pageBodyLen += int(s)
		}
		sawPage = true
		pos += 27 + int64(nSegments) + int64(pageBodyLen)
	}
	if !sawPage || pos == 0 {
		return 0, false
	}
	return pos, true
}

func probeRealMedia(r *block.Reader, offset, remaining int64) (int64, bool) {
	head, err := r.ReadAt(offset, 18)
	if err != nil || len(head) < 18 {
		return 0, false
	}
	size := int64(binary.BigEndian.Uint32(head[14:18]))
	if size <= 0 || size > remaining {
		return 0, false
	}
	return size, true
}

func probeSWF(r *block.Reader, offset, remaining int64) (int64, bool) {
	head, err := r.ReadAt(offset, 8)
	if err != nil || len(head) < 8 {
		return 0, false
	}
	size := int64(binary.LittleEndian.Uint32(head[4:8]))
	if size <= 0 || size > remaining {
		return 0, false
	}
	return size, true
}

func probeMPEGTS(r *block.Reader, offset, remaining int64) (int64, bool) {
	const packetSize = 188
	pos := int64(0)
	for pos+packetSize <= remaining {
		b, err := r.ReadAt(offset+pos, 1)
		if err != nil || len(b) < 1 || b[0] != 0x47 {
			break
		}
		pos += packetSize
	}
	if pos < packetSize {
		return 0, false
	}
	return pos, true
}

// ebmlDocTypeID is the element ID of the EBML header's DocType child,
// whose string value ("matroska" or "webm") is the only thing that tells
// the two container families apart.
const ebmlDocTypeID = 0x4282

// ebmlDocType reads the EBML header element starting at offset and returns
// the DocType string from its body, used to resolve the true format before
// an exact size probe or a final carve decision commits to one.
func ebmlDocType(r *block.Reader, offset int64) (string, bool) {
	data, err := r.ReadAt(offset, headerProbeSize)
	if err != nil || len(data) < 4 {
		return "", false
	}
	pos := 4
	headerSize, n, ok := readVint(data[pos:])
	if !ok {
		return "", false
	}
	pos += n
	bodyEnd := pos + int(headerSize)
	if bodyEnd > len(data) {
		bodyEnd = len(data)
	}
	for pos+2 <= bodyEnd {
		id, idLen, ok := readEBMLElementID(data[pos:])
		if !ok {
			return "", false
		}
		pos += idLen
		size, n, ok := readVint(data[pos:])
		if !ok {
			return "", false
		}
		pos += n
		if pos+int(size) > len(data) {
			return "", false
		}
		if id == ebmlDocTypeID {
			return string(data[pos : pos+int(size)]), true
		}
		pos += int(size)
	}
	return "", false
}

// readEBMLElementID decodes an EBML element ID: unlike a vint's value
// encoding, the ID keeps its length-marker bits as part of the identifier.
func readEBMLElementID(data []byte) (id uint32, length int, ok bool) {
	if len(data) == 0 {
		return 0, 0, false
	}
	first := data[0]
	length = 1
	mask := byte(0x80)
	for mask != 0 && first&mask == 0 {
		length++
		mask >>= 1
	}
	if length > 4 || length > len(data) {
		return 0, 0, false
	}
	for i := 0; i < length; i++ {
		id = id<<8 | uint32(data[i])
	}
	return id, length, true
}

// probeEBML walks the EBML header element and the Segment element's
// declared size (a big-endian variable-length integer with leading
// zero-bits indicating its byte length) to compute the container's
// exact size.
func probeEBML(r *block.Reader, offset, remaining int64) (int64, bool) {
	data, err := r.ReadAt(offset, int(minInt64(probeReadChunk, remaining)))
	if err != nil || len(data) < 4 {
		return 0, false
	}
	pos := 0
	// EBML header element: ID 0x1A45DFA3 already matched by the catalog;
	// skip its size field and body.
	if pos+4 > len(data) {
		return 0, false
	}
	pos += 4
	headerSize, n, ok := readVint(data[pos:])
	if !ok {
		return 0, false
	}
	pos += n + int(headerSize)
	if pos+4 > len(data) {
		return 0, false
	}
	// Segment element ID is 0x18538067.
	if data[pos] != 0x18 || data[pos+1] != 0x53 || data[pos+2] != 0x80 || data[pos+3] != 0x67 {
		return 0, false
	}
	pos += 4
	segSize, n, ok := readVint(data[pos:])
	if !ok {
		return 0, false
	}
	pos += n
	total := int64(pos) + int64(segSize)
	if total <= 0 || total > remaining {
		return 0, false
	}
	return total, true
}

// readVint decodes an EBML variable-length integer: the number of
// leading zero bits in the first byte gives the element's total byte
// length, and those length-marker bits are masked out of the value.
func readVint(data []byte) (value uint64, length int, ok bool) {
	if len(data) == 0 {
		return 0, 0, false
	}
	first := data[0]
	length = 1
	mask := byte(0x80)
	for mask != 0 && first&mask == 0 {
		length++
		mask >>= 1
	}
	if length > 8 || length > len(data) {
		return 0, 0, false
	}
	value = uint64(first &^ mask)
	for i := 1; i < length; i++ {
		value = value<<8 | uint64(data[i])
	}
	return value, length, true
}

func minInt64(a, b int64) int64 {
	if a < b {
		return a
	}
	return b
}
