package signature

func videoSignatures() []Signature {
	return []Signature{
		func() Signature {
			s := sig("MPEG-PS", Video, "mpg", 4*kb, 2*gb, Footer, true, header(0, 0x00, 0x00, 0x01, 0xBA))
			s.Footer = []byte{0x00, 0x00, 0x01, 0xB9}
			return s
		}(),
		func() Signature {
			s := sig("MPEG-PS-SEQ", Video, "mpg", 4*kb, 2*gb, Footer, true, header(0, 0x00, 0x00, 0x01, 0xB3))
			s.Footer = []byte{0x00, 0x00, 0x01, 0xB9}
			return s
		}(),
		sig("AVI", Video, "avi", 1 * kb, 4*gb, Header, false,
			header(0, 'R', 'I', 'F', 'F'), header(8, 'A', 'V', 'I', ' ')),
		sig("MKV-WEBM", Video, "mkv", 1 * kb, 4*gb, MaxRead, true, header(0, 0x1A, 0x45, 0xDF, 0xA3)),
		// WebM shares Matroska's EBML header magic byte-for-byte; it is
		// never matched directly during the chunk search (no Magics) and
		// exists only so ResolveEBMLDocType has a "webm" row to resolve
		// MKV-WEBM candidates into once the DocType element is read.
		sig("WEBM", Video, "webm", 1*kb, 4*gb, MaxRead, true),
		sig("ASF-WMV", Video, "wmv", 1 * kb, 4*gb, MaxRead, false,
			header(0, 0x30, 0x26, 0xB2, 0x75, 0x8E, 0x66, 0xCF, 0x11)),
		sig("FLV", Video, "flv", 64, 2*gb, MaxRead, false, header(0, 'F', 'L', 'V', 0x01)),
		sig("REALMEDIA", Video, "rm", 1 * kb, 2*gb, MaxRead, false, header(0, '.', 'R', 'M', 'F')),
		sig("MPEG-TS", Video, "ts", 4*kb, 2*gb, MaxRead, true, header(0, 0x47)),
		sig("SWF-UNCOMPRESSED", Video, "swf", 64, 200*mb, MaxRead, true, header(0, 'F', 'W', 'S')),
		sig("SWF-COMPRESSED", Video, "swf", 64, 200*mb, MaxRead, true, header(0, 'C', 'W', 'S')),
	}
}
