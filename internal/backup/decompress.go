package backup

import (
	"archive/zip"
	"bytes"
	"compress/gzip"
	"fmt"
	"io"
)

// maxDecompressedSize bounds inflated payloads so a hostile archive cannot
// exhaust memory.
const maxDecompressedSize = 64 << 20

var (
	gzipMagic = []byte{0x1f, 0x8b}
	zipMagic  = []byte{'P', 'K', 0x03, 0x04}
)

// Decompress normalizes an import payload to plain bytes. Gzip data is
// inflated, a zip archive must contain exactly one file which is extracted,
// anything else passes through untouched.
func Decompress(data []byte) ([]byte, error) {
	switch {
	case bytes.HasPrefix(data, gzipMagic):
		zr, err := gzip.NewReader(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("opening gzip data: %w", err)
		}
		defer zr.Close()
		return readBounded(zr)

	case bytes.HasPrefix(data, zipMagic):
		zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
		if err != nil {
			return nil, fmt.Errorf("opening zip archive: %w", err)
		}
		if n := len(zr.File); n != 1 {
			return nil, fmt.Errorf("zip archive must contain exactly one file, found %d", n)
		}
		f, err := zr.File[0].Open()
		if err != nil {
			return nil, fmt.Errorf("opening %s in zip archive: %w", zr.File[0].Name, err)
		}
		defer f.Close()
		return readBounded(f)

	default:
		return data, nil
	}
}

func readBounded(r io.Reader) ([]byte, error) {
	out, err := io.ReadAll(io.LimitReader(r, maxDecompressedSize+1))
	if err != nil {
		return nil, fmt.Errorf("reading decompressed data: %w", err)
	}
	if len(out) > maxDecompressedSize {
		return nil, fmt.Errorf("decompressed data exceeds %d bytes", maxDecompressedSize)
	}
	return out, nil
}
