package signature

func archiveSignatures() []Signature {
	return []Signature{
		// ZIP and the office/container formats built on it (DOCX, XLSX,
		// PPTX, EPUB, ODT, ODS, ODP) share this local-file-header magic; the
		// orchestrator's chunk search inspects the first filename in the
		// archive to tell them apart (see carve package).
		sig("ZIP", Archive, "zip", 22, 1*gb, MaxRead, false, header(0, 'P', 'K', 0x03, 0x04)),
		sig("ZIP-EMPTY", Archive, "zip", 22, 1*gb, MaxRead, false, header(0, 'P', 'K', 0x05, 0x06)),
		sig("RAR4", Archive, "rar", 32, 1*gb, MaxRead, false,
			header(0, 'R', 'a', 'r', '!', 0x1A, 0x07, 0x00)),
		sig("RAR5", Archive, "rar", 32, 1*gb, MaxRead, false,
			header(0, 'R', 'a', 'r', '!', 0x1A, 0x07, 0x01, 0x00)),
		sig("7Z", Archive, "7z", 32, 1*gb, MaxRead, false,
			header(0, 0x37, 0x7A, 0xBC, 0xAF, 0x27, 0x1C)),
		sig("GZIP", Archive, "gz", 18, 1*gb, MaxRead, false, header(0, 0x1F, 0x8B, 0x08)),
		sig("BZIP2", Archive, "bz2", 14, 1*gb, MaxRead, false, header(0, 'B', 'Z', 'h')),
		sig("XZ", Archive, "xz", 32, 1*gb, MaxRead, false,
			header(0, 0xFD, '7', 'z', 'X', 'Z', 0x00)),
		sig("ZSTD", Archive, "zst", 16, 1*gb, MaxRead, false,
			header(0, 0x28, 0xB5, 0x2F, 0xFD)),
		sig("LZ4", Archive, "lz4", 16, 1*gb, MaxRead, false,
			header(0, 0x04, 0x22, 0x4D, 0x18)),
		sig("TAR", Archive, "tar", 512, 1*gb, MaxRead, true, header(257, 'u', 's', 't', 'a', 'r')),
		sig("ISO9660", Archive, "iso", 2*kb, 8*gb, MaxRead, true, header(32769, 'C', 'D', '0', '0', '1')),
	}
}
