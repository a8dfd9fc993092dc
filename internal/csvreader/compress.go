package csvreader

import (
	"bytes"
	"io"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

type compression int

const (
	compressionNone compression = iota
	compressionGzip
	compressionZstd
	compressionLz4
)

var (
	gzipMagic = []byte{0x1f, 0x8b}
	zstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}
	lz4Magic  = []byte{0x04, 0x22, 0x4d, 0x18}
)

// magicLen is how many leading bytes detectCompression needs.
const magicLen = 4

func detectCompression(head []byte) compression {
	switch {
	case bytes.HasPrefix(head, gzipMagic):
		return compressionGzip
	case bytes.HasPrefix(head, zstdMagic):
		return compressionZstd
	case bytes.HasPrefix(head, lz4Magic):
		return compressionLz4
	}
	return compressionNone
}

func (c compression) String() string {
	switch c {
	case compressionGzip:
		return "gzip"
	case compressionZstd:
		return "zstd"
	case compressionLz4:
		return "lz4"
	}
	return "none"
}

func nopClose() error { return nil }

// newDecompressor wraps r in a streaming decompressor for c. The returned close
// function releases decoder state and never closes r.
func newDecompressor(c compression, r io.Reader) (io.Reader, func() error, error) {
	switch c {
	case compressionGzip:
		gz, err := gzip.NewReader(r)
		if err != nil {
			return nil, nil, err
		}
		return gz, gz.Close, nil
	case compressionZstd:
		dec, err := zstd.NewReader(r)
		if err != nil {
			return nil, nil, err
		}
		return dec, func() error { dec.Close(); return nil }, nil
	case compressionLz4:
		return lz4.NewReader(r), nopClose, nil
	}
	return r, nopClose, nil
}

// decompressAll inflates an in memory compressed file.
func decompressAll(c compression, data []byte) ([]byte, error) {
	dr, closeFn, err := newDecompressor(c, bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer closeFn()

	return io.ReadAll(dr)
}
