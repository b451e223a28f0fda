package signature

func fontSignatures() []Signature {
	return []Signature{
		sig("TRUETYPE", Font, "ttf", 1*kb, 20*mb, MaxRead, false,
			header(0, 0x00, 0x01, 0x00, 0x00)),
		sig("OPENTYPE", Font, "otf", 1*kb, 20*mb, MaxRead, false,
			header(0, 'O', 'T', 'T', 'O')),
		sig("TRUETYPE-COLLECTION", Font, "ttc", 1*kb, 40*mb, MaxRead, false,
			header(0, 't', 't', 'c', 'f')),
		sig("WOFF", Font, "woff", 1*kb, 20*mb, MaxRead, false,
			header(0, 'w', 'O', 'F', 'F')),
		sig("WOFF2", Font, "woff2", 1*kb, 20*mb, MaxRead, false,
			header(0, 'w', 'O', 'F', '2')),
	}
}
