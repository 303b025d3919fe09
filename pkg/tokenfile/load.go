package tokenfile

import (
	"fmt"
	"os"

	"github.com/edsrzf/mmap-go"
)

// Load reads a token file. It maps the file read-only and copies the bytes
// out, falling back to os.ReadFile when mapping fails (empty files, special
// filesystems).
func Load(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, err
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%s is a directory", path)
	}
	if info.Size() == 0 {
		return []byte{}, nil
	}

	m, err := mmap.Map(f, mmap.RDONLY, 0)
	if err != nil {
		return os.ReadFile(path)
	}
	data := make([]byte, len(m))
	copy(data, m)
	if err := m.Unmap(); err != nil {
		return nil, fmt.Errorf("unmap %s: %w", path, err)
	}
	return data, nil
}
