package carve

import (
	"archive/zip"
	"bytes"
	"strings"
)

// ChunkSearchMatch is one occurrence the chunk search found within a
// chunk, at an offset relative to the chunk's own start.
type ChunkSearchMatch struct {
	RelOffset int
	SigName   string
}

// SearchAuxiliaryPatterns looks for the discriminator-driven patterns
// that live outside the main Signature Catalog: RIFF sub-types,
// ISO-BMFF ftyp brands, MPEG-TS sync bytes at 188/512-byte aligned
// offsets, FORM AIFF, ZIP variants classified by their first filename,
// TAR, and ISO 9660. It complements the magic-pattern enumeration the
// orchestrator already runs against signature.Catalog.
func SearchAuxiliaryPatterns(chunk []byte) []ChunkSearchMatch {
	var matches []ChunkSearchMatch

	for i := 0; i+188 <= len(chunk); i++ {
		if chunk[i] == 0x47 && ((i%188 == 0) || (i%512 == 0)) {
			matches = append(matches, ChunkSearchMatch{RelOffset: i, SigName: "MPEG-TS"})
		}
	}

	for i := 0; i+12 <= len(chunk); i++ {
		if string(chunk[i:i+4]) == "RIFF" {
			matches = append(matches, ChunkSearchMatch{RelOffset: i, SigName: "RIFF"})
		}
		if string(chunk[i:i+4]) == "FORM" && string(chunk[i+8:i+12]) == "AIFF" {
			matches = append(matches, ChunkSearchMatch{RelOffset: i, SigName: "AIFF"})
		}
	}

	for i := 0; i+8 <= len(chunk); i++ {
		if string(chunk[i+4:i+8]) == "ftyp" {
			matches = append(matches, ChunkSearchMatch{RelOffset: i, SigName: "ISOBMFFGeneric"})
		}
	}

	for i := 0; i+4 <= len(chunk); i++ {
		if bytes.Equal(chunk[i:i+4], []byte{'P', 'K', 0x03, 0x04}) {
			matches = append(matches, ChunkSearchMatch{RelOffset: i, SigName: ClassifyZIPVariant(chunk[i:])})
		}
	}

	for base := 0; base+512 <= len(chunk); base += 512 {
		if base+257+5 <= len(chunk) && string(chunk[base+257:base+262]) == "ustar" {
			matches = append(matches, ChunkSearchMatch{RelOffset: base, SigName: "TAR"})
		}
	}

	for base := 0; base+2048 <= len(chunk); base += 2048 {
		if base+32769+5 <= len(chunk) && string(chunk[base+32769:base+32774]) == "CD001" {
			matches = append(matches, ChunkSearchMatch{RelOffset: base, SigName: "ISO9660"})
		}
	}

	return matches
}

// ClassifyZIPVariant inspects a ZIP candidate's first local-file-header
// filename to distinguish a plain ZIP from an office/e-book container
// built on the ZIP format.
func ClassifyZIPVariant(data []byte) string {
	size := len(data)
	if size > 4<<20 {
		size = 4 << 20
	}
	r, err := zip.NewReader(bytes.NewReader(data[:size]), int64(size))
	if err != nil || len(r.File) == 0 {
		return "ZIP"
	}
	name := r.File[0].Name
	switch {
	case strings.HasPrefix(name, "word/"):
		return "DOCX"
	case strings.HasPrefix(name, "xl/"):
		return "XLSX"
	case strings.HasPrefix(name, "ppt/"):
		return "PPTX"
	case name == "mimetype" && containsMimetype(r, "application/epub+zip"):
		return "EPUB"
	case strings.HasPrefix(name, "META-INF/") && hasEntry(r, "content.xml"):
		return classifyOpenDocument(r)
	default:
		return "ZIP"
	}
}

func hasEntry(r *zip.Reader, name string) bool {
	for _, f := range r.File {
		if f.Name == name {
			return true
		}
	}
	return false
}

func containsMimetype(r *zip.Reader, want string) bool {
	for _, f := range r.File {
		if f.Name != "mimetype" {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return false
		}
		defer rc.Close()
		buf := make([]byte, len(want))
		n, _ := rc.Read(buf)
		return string(buf[:n]) == want
	}
	return false
}

func classifyOpenDocument(r *zip.Reader) string {
	if hasEntry(r, "content.xml") {
		for _, f := range r.File {
			if f.Name == "mimetype" {
				if containsMimetype(r, "application/vnd.oasis.opendocument.spreadsheet") {
					return "ODS"
				}
				if containsMimetype(r, "application/vnd.oasis.opendocument.presentation") {
					return "ODP"
				}
			}
		}
		return "ODT"
	}
	return "ZIP"
}
