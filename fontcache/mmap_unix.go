//go:build unix

package fontcache

import (
	"os"

	"golang.org/x/sys/unix"

	"github.com/glyphkit/o4e/errs"
)

// mmapFile memory-maps path read-only and returns its bytes. The returned
// closer must be called when the mapping is no longer needed (on eviction).
func mmapFile(path string) (data []byte, closeFn func() error, err error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, errs.New(errs.ResourceExhausted, "fontcache.mmapFile", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, nil, errs.New(errs.ResourceExhausted, "fontcache.mmapFile", err)
	}
	size := info.Size()
	if size == 0 {
		return nil, nil, errs.New(errs.CorruptFont, "fontcache.mmapFile", nil)
	}

	b, err := unix.Mmap(int(f.Fd()), 0, int(size), unix.PROT_READ, unix.MAP_SHARED)
	if err != nil {
		return mmapFallback(path)
	}
	return b, func() error { return unix.Munmap(b) }, nil
}
