//go:build unix

package csvreader

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// mapFile maps f read only. The returned unmap must run before f is closed.
func mapFile(f *os.File) ([]byte, func() error, error) {
	fi, err := f.Stat()
	if err != nil {
		return nil, nil, err
	}

	size := fi.Size()
	if size == 0 {
		// mmap rejects empty mappings
		return nil, nopClose, nil
	}
	if int64(int(size)) != size {
		return nil, nil, fmt.Errorf("file of %d bytes is too large to map", size)
	}

	data, err := unix.Mmap(int(f.Fd()), 0, int(size), unix.PROT_READ, unix.MAP_SHARED)
	if err != nil {
		return nil, nil, err
	}
	_ = unix.Madvise(data, unix.MADV_SEQUENTIAL)

	return data, func() error { return unix.Munmap(data) }, nil
}
