package signature

func documentSignatures() []Signature {
	return []Signature{
		func() Signature {
			s := sig("PDF", Document, "pdf", 4*kb, 500*mb, Footer, false, header(0, '%', 'P', 'D', 'F'))
			s.Footer = []byte("%%EOF")
			return s
		}(),
		func() Signature {
			s := sig("RTF", Document, "rtf", 1 * kb, 100*mb, Footer, false, header(0, '{', '\\', 'r', 't', 'f'))
			s.Footer = []byte("}")
			return s
		}(),
		sig("HTML", Document, "html", 256, 50*mb, MaxRead, true, header(0, '<', '!', 'D', 'O', 'C', 'T', 'Y', 'P', 'E')),
		sig("XML", Document, "xml", 256, 50*mb, MaxRead, true, header(0, '<', '?', 'x', 'm', 'l')),
		sig("OLE2-COMPOUND", Document, "doc", 4*kb, 200*mb, MaxRead, false,
			header(0, 0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1)),
		sig("PLIST", Document, "plist", 64, 50*mb, MaxRead, true, header(0, 'b', 'p', 'l', 'i', 's', 't')),
		// The Office Open XML and OpenDocument formats are all ZIP
		// containers distinguished only by their first member's name or
		// mimetype (see ClassifyZIPVariant). No Magics: these are never
		// matched directly during the chunk search, only resolved onto
		// from a ZIP candidate once its first entry has been inspected.
		sig("DOCX", Document, "docx", 1*kb, 200*mb, MaxRead, true),
		sig("XLSX", Document, "xlsx", 1*kb, 200*mb, MaxRead, true),
		sig("PPTX", Document, "pptx", 1*kb, 200*mb, MaxRead, true),
		sig("EPUB", Document, "epub", 1*kb, 200*mb, MaxRead, true),
		sig("ODT", Document, "odt", 1*kb, 200*mb, MaxRead, true),
		sig("ODS", Document, "ods", 1*kb, 200*mb, MaxRead, true),
		sig("ODP", Document, "odp", 1*kb, 200*mb, MaxRead, true),
	}
}
