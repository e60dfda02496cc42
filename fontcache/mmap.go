package fontcache

import (
	"os"

	"github.com/glyphkit/o4e/errs"
)

// mmapFallback reads path into a plain byte slice. Used on platforms
// without mmap support, and as the fallback when unix.Mmap itself fails
// (e.g. on filesystems that disallow it) so that a transient mmap failure
// degrades gracefully rather than surfacing ResourceExhausted.
func mmapFallback(path string) (data []byte, closeFn func() error, err error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, errs.New(errs.ResourceExhausted, "fontcache.mmapFallback", err)
	}
	return b, func() error { return nil }, nil
}
