package signature

// systemSignatures covers small system-artifact formats: packet captures
// and Windows registry hives. LNK shortcuts are cataloged under
// executableSignatures (they resolve to running a target program) and
// property lists under documentSignatures; both stay there rather than
// duplicated here.
func systemSignatures() []Signature {
	return []Signature{
		sig("PCAP", System, "pcap", 24, 2*gb, MaxRead, false,
			header(0, 0xD4, 0xC3, 0xB2, 0xA1)),
		sig("PCAP-SWAPPED", System, "pcap", 24, 2*gb, MaxRead, false,
			header(0, 0xA1, 0xB2, 0xC3, 0xD4)),
		sig("PCAPNG", System, "pcapng", 28, 2*gb, MaxRead, false,
			header(0, 0x0A, 0x0D, 0x0D, 0x0A)),
		sig("REGISTRY", System, "dat", 4*kb, 500*mb, MaxRead, false,
			header(0, 'r', 'e', 'g', 'f')),
	}
}
