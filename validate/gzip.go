package validate

import (
	"bytes"
	"io"

	kgzip "github.com/klauspost/compress/gzip"
)

func newGzipReader(data []byte) (io.ReadCloser, error) {
	return kgzip.NewReader(bytes.NewReader(data))
}
