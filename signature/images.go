package signature

func imageSignatures() []Signature {
	return []Signature{
		func() Signature {
			s := sig("JPEG", Image, "jpg", 4*kb, 50*mb, Footer, false, header(0, 0xFF, 0xD8, 0xFF))
			s.Footer = []byte{0xFF, 0xD9}
			return s
		}(),
		func() Signature {
			s := sig("PNG", Image, "png", 4*kb, 50*mb, Footer, false,
				header(0, 0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A))
			s.Footer = []byte{0x49, 0x45, 0x4E, 0x44, 0xAE, 0x42, 0x60, 0x82}
			return s
		}(),
		func() Signature {
			s := sig("GIF", Image, "gif", 1 * kb, 20*mb, Footer, false,
				header(0, 'G', 'I', 'F', '8', '7', 'a'),
				header(0, 'G', 'I', 'F', '8', '9', 'a'))
			s.Footer = []byte{0x00, 0x3B}
			return s
		}(),
		sig("BMP", Image, "bmp", 54, 500*mb, Header, true, header(0, 'B', 'M')),
		sig("TIFF-LE", Image, "tiff", 8, 200*mb, MaxRead, true, header(0, 'I', 'I', 0x2A, 0x00)),
		sig("TIFF-BE", Image, "tiff", 8, 200*mb, MaxRead, true, header(0, 'M', 'M', 0x00, 0x2A)),
		sig("ICO", Image, "ico", 256, 10*mb, Header, false, header(0, 0x00, 0x00, 0x01, 0x00)),
		sig("WEBP", Image, "webp", 20, 50*mb, Header, false,
			header(0, 'R', 'I', 'F', 'F'), header(8, 'W', 'E', 'B', 'P')),
		// HEIC, AVIF, MP4, MOV and friends all start with the same generic
		// "ftyp" box; ISOBMFFGeneric exists only to trigger a carve at byte
		// offset 4. The actual extension/category come from the brand at
		// offset 8, resolved by ResolveIsoBmffBrand once the ftyp box has
		// been read (see isobmff.go).
		sig("ISOBMFFGeneric", Video, "mp4", 64, 4*gb, IsoBmff, true, header(4, 'f', 't', 'y', 'p')),
		sig("EPS", Image, "eps", 64, 200*mb, MaxRead, false, header(0, '%', '!', 'P', 'S')),
	}
}
