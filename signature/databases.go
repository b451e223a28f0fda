package signature

func databaseSignatures() []Signature {
	return []Signature{
		sig("SQLITE", Database, "sqlite", 512, 4*gb, MaxRead, false,
			header(0, 'S', 'Q', 'L', 'i', 't', 'e', ' ', 'f', 'o', 'r', 'm', 'a', 't', ' ', '3', 0x00)),
		func() Signature {
			s := sig("PARQUET", Database, "parquet", 4*kb, 4*gb, Footer, false, header(0, 'P', 'A', 'R', '1'))
			s.Footer = []byte("PAR1")
			return s
		}(),
		sig("HDF5", Database, "h5", 4*kb, 4*gb, MaxRead, false,
			header(0, 0x89, 'H', 'D', 'F', 0x0D, 0x0A, 0x1A, 0x0A)),
		sig("NPY", Database, "npy", 128, 1*gb, MaxRead, false,
			header(0, 0x93, 'N', 'U', 'M', 'P', 'Y')),
	}
}
