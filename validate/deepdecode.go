package validate

import (
	"archive/zip"
	"bytes"
	"compress/bzip2"
	"io"

	kzstd "github.com/klauspost/compress/zstd"
)

// DeepDecode performs the optional second-stage check described for
// formats with a decoding library available: a ZIP-family container is
// opened and its central directory walked, and compressed streams are run
// through a real decompressor far enough to confirm the frame header and
// first block decode cleanly. It never reads more than sampleCap bytes of
// decompressed output, since the goal is confirming decodability, not
// reconstructing the payload.
func DeepDecode(formatName string, data []byte) Result {
	switch formatName {
	case "ZIP":
		return deepDecodeZip(data)
	case "GZIP":
		return deepDecodeGzip(data)
	case "BZIP2":
		return deepDecodeBzip2(data)
	case "ZSTD":
		return deepDecodeZstd(data)
	default:
		return unverified("no deep-decode path registered for format")
	}
}

const sampleCap = 1 << 20

func deepDecodeZip(data []byte) Result {
	r, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return reject("zip central directory did not parse: " + err.Error())
	}
	if len(r.File) == 0 {
		return reject("zip archive has no entries")
	}
	first, err := r.File[0].Open()
	if err != nil {
		return reject("first zip entry would not open: " + err.Error())
	}
	defer first.Close()
	if _, err := io.CopyN(io.Discard, first, sampleCap); err != nil && err != io.EOF {
		return reject("first zip entry failed to decompress: " + err.Error())
	}
	return workable()
}

func deepDecodeGzip(data []byte) Result {
	r, err := newGzipReader(data)
	if err != nil {
		return reject("gzip header did not parse: " + err.Error())
	}
	defer r.Close()
	if _, err := io.CopyN(io.Discard, r, sampleCap); err != nil && err != io.EOF {
		return reject("gzip stream failed to decompress: " + err.Error())
	}
	return workable()
}

func deepDecodeBzip2(data []byte) Result {
	r := bzip2.NewReader(bytes.NewReader(data))
	if _, err := io.CopyN(io.Discard, r, sampleCap); err != nil && err != io.EOF {
		return reject("bzip2 stream failed to decompress: " + err.Error())
	}
	return workable()
}

func deepDecodeZstd(data []byte) Result {
	r, err := kzstd.NewReader(bytes.NewReader(data))
	if err != nil {
		return reject("zstd frame header did not parse: " + err.Error())
	}
	defer r.Close()
	if _, err := io.CopyN(io.Discard, r, sampleCap); err != nil && err != io.EOF {
		return reject("zstd stream failed to decompress: " + err.Error())
	}
	return workable()
}
