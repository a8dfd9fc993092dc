//go:build !unix

package csvreader

import (
	"io"
	"os"
)

// mapFile reads f into memory on platforms without a unix mmap.
func mapFile(f *os.File) ([]byte, func() error, error) {
	fi, err := f.Stat()
	if err != nil {
		return nil, nil, err
	}

	data, err := io.ReadAll(io.NewSectionReader(f, 0, fi.Size()))
	if err != nil {
		return nil, nil, err
	}
	return data, nopClose, nil
}
