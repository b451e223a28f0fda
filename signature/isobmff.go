package signature

// isoBmffBrand maps a major brand, read from byte 8 of the first ftyp box,
// to the extension/category it should carve as. Kept as an auxiliary table
// separate from the main catalog since RIFF sub-type and ISO-BMFF brand
// discriminators need a second read past the fixed magic pattern to
// resolve, unlike every other entry in the catalog.
var isoBmffBrand = map[string]struct {
	Extension string
	Category  Category
}{
	"heic": {"heic", Image},
	"heix": {"heic", Image},
	"mif1": {"heic", Image},
	"msf1": {"heic", Image},
	"avif": {"avif", Image},
	"avis": {"avif", Image},
	"qt  ": {"mov", Video},
	"isom": {"mp4", Video},
	"iso2": {"mp4", Video},
	"mp41": {"mp4", Video},
	"mp42": {"mp4", Video},
	"M4A ": {"m4a", Audio},
	"M4V ": {"mp4", Video},
	"3gp4": {"3gp", Video},
	"3gp5": {"3gp", Video},
	"3gp6": {"3gp", Video},
	"3gp7": {"3gp", Video},
}

// ResolveIsoBmffBrand looks up the Signature that should own a candidate
// once its major brand has been read. A brand the table doesn't recognize
// reports ok=false; there is no fallback extension.
func ResolveIsoBmffBrand(brand string) (Signature, bool) {
	info, ok := isoBmffBrand[brand]
	if !ok {
		return Signature{}, false
	}
	s, ok := ByExtensionAndCategory(info.Extension, info.Category)
	if ok {
		return s, true
	}
	// Categories that don't carry their own catalog row (we only seed one
	// representative row per extension below) still resolve to a
	// synthesized signature using the generic ISO-BMFF bounds.
	return Signature{
		Name:      info.Extension,
		Category:  info.Category,
		Extension: info.Extension,
		MinSize:   64,
		MaxSize:   4 * gb,
		CarveMode: IsoBmff,
	}, true
}

// riffSubtype maps the 4-byte RIFF form type at offset 8 to the
// extension/category that owns it.
var riffSubtype = map[string]struct {
	Extension string
	Category  Category
}{
	"WEBP": {"webp", Image},
	"AVI ": {"avi", Video},
	"WAVE": {"wav", Audio},
}

// ResolveRiffSubtype looks up the Signature for a RIFF container given its
// 4-byte form type.
func ResolveRiffSubtype(subtype string) (Signature, bool) {
	info, ok := riffSubtype[subtype]
	if !ok {
		return Signature{}, false
	}
	return ByExtensionAndCategory(info.Extension, info.Category)
}

// ebmlDocType maps the EBML header's DocType string to the extension that
// owns it. Matroska and WebM share an identical EBML header magic; only the
// DocType element in the header body tells them apart.
var ebmlDocType = map[string]string{
	"matroska": "mkv",
	"webm":     "webm",
}

// ResolveEBMLDocType looks up the Signature for an EBML container given its
// DocType string, falling back to "mkv" for any DocType the table doesn't
// recognize (e.g. an obscure Matroska-derived format still worth carving
// under the generic container extension).
func ResolveEBMLDocType(docType string) (Signature, bool) {
	ext, ok := ebmlDocType[docType]
	if !ok {
		ext = "mkv"
	}
	return ByExtensionAndCategory(ext, Video)
}
