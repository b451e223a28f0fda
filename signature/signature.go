// Package signature holds the static, immutable catalog of file formats the
// carvers recognize: magic patterns, size bounds, and the carve strategy
// bound to each format. The table is built once in an init() block and
// never mutated afterwards.
package signature

// Magic is a fixed byte pattern that identifies the start of a file, along
// with the offset from the candidate's start where it must appear.
type Magic struct {
	Offset  int
	Pattern []byte
}

// Signature is one catalog entry describing a recognized file format.
type Signature struct {
	Name      string
	Category  Category
	Extension string
	MinSize   int64
	MaxSize   int64
	CarveMode CarveMode

	Magics []Magic
	Footer []byte

	// Ambiguous marks a short or common pattern that may initiate a carve
	// but must never be used as a boundary marker when trimming a
	// different candidate's MaxRead carve.
	Ambiguous bool
}

// Match reports whether data (read from the candidate's start) satisfies
// the signature's magic patterns: patterns that share an offset are
// alternatives, and every distinct offset must have one that matches.
func (s Signature) Match(data []byte) bool {
	if len(s.Magics) == 0 {
		return false
	}
	byOffset := map[int]bool{}
	for _, m := range s.Magics {
		if matchAt(data, m.Offset, m.Pattern) {
			byOffset[m.Offset] = true
		} else if _, seen := byOffset[m.Offset]; !seen {
			byOffset[m.Offset] = false
		}
	}
	for _, ok := range byOffset {
		if !ok {
			return false
		}
	}
	return true
}

func matchAt(data []byte, offset int, pattern []byte) bool {
	if offset < 0 || offset+len(pattern) > len(data) {
		return false
	}
	for i, want := range pattern {
		if data[offset+i] != want {
			return false
		}
	}
	return true
}

func sig(name string, cat Category, ext string, min, max int64, mode CarveMode, ambiguous bool, magics ...Magic) Signature {
	return Signature{
		Name:      name,
		Category:  cat,
		Extension: ext,
		MinSize:   min,
		MaxSize:   max,
		CarveMode: mode,
		Ambiguous: ambiguous,
		Magics:    magics,
	}
}

func header(offset int, pattern ...byte) Magic {
	return Magic{Offset: offset, Pattern: pattern}
}

const (
	kb = 1 << 10
	mb = 1 << 20
	gb = 1 << 30
)

// Catalog is the immutable, process-wide table of recognized formats.
var Catalog []Signature

func init() {
	Catalog = append(Catalog, imageSignatures()...)
	Catalog = append(Catalog, videoSignatures()...)
	Catalog = append(Catalog, audioSignatures()...)
	Catalog = append(Catalog, documentSignatures()...)
	Catalog = append(Catalog, archiveSignatures()...)
	Catalog = append(Catalog, executableSignatures()...)
	Catalog = append(Catalog, fontSignatures()...)
	Catalog = append(Catalog, databaseSignatures()...)
	Catalog = append(Catalog, systemSignatures()...)
}

// ByExtensionAndCategory looks up a Signature by its canonical extension and
// category. The orchestrator uses it to map auxiliary chunk-search matches
// onto catalog rows, and the RIFF, ISO-BMFF and EBML resolvers use it to
// find the row a discriminator names.
func ByExtensionAndCategory(ext string, cat Category) (Signature, bool) {
	for _, s := range Catalog {
		if s.Extension == ext && s.Category == cat {
			return s, true
		}
	}
	return Signature{}, false
}
