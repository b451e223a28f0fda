package signature

func audioSignatures() []Signature {
	return []Signature{
		sig("MP3-ID3", Audio, "mp3", 4*kb, 100*mb, MaxRead, false, header(0, 'I', 'D', '3')),
		sig("MP3-SYNC", Audio, "mp3", 4*kb, 100*mb, MaxRead, true, header(0, 0xFF, 0xFB)),
		sig("WAV", Audio, "wav", 44, 500*mb, Header, false,
			header(0, 'R', 'I', 'F', 'F'), header(8, 'W', 'A', 'V', 'E')),
		sig("FLAC", Audio, "flac", 4*kb, 500*mb, MaxRead, false, header(0, 'f', 'L', 'a', 'C')),
		sig("OGG", Audio, "ogg", 4*kb, 200*mb, MaxRead, false, header(0, 'O', 'g', 'g', 'S')),
		sig("AIFF", Audio, "aiff", 44, 500*mb, Header, false,
			header(0, 'F', 'O', 'R', 'M'), header(8, 'A', 'I', 'F', 'F')),
		// M4A is an ISO-BMFF brand, not an independent magic match; see
		// ResolveIsoBmffBrand in isobmff.go. No Magics means this entry is
		// never matched directly during the chunk search.
		sig("M4A", Audio, "m4a", 64, 500*mb, IsoBmff, true),
	}
}
