package cache

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// Disk stores one JSON file per key under a directory.
type Disk struct {
	dir string
}

// NewDisk creates a disk store rooted at dir. The directory is created on
// first write.
func NewDisk(dir string) (*Disk, error) {
	if dir == "" {
		return nil, ErrNoDirectory
	}
	return &Disk{dir: dir}, nil
}

// Path returns the file a key is stored in.
func (d *Disk) Path(key string) string {
	return filepath.Join(d.dir, fileName(key))
}

// Get reads the file for key.
func (d *Disk) Get(key string) ([]byte, bool, error) {
	data, err := os.ReadFile(d.Path(key)) //#nosec G304 -- path is derived from a sanitized key
	if errors.Is(err, fs.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("read cache file: %w", err)
	}
	return data, true, nil
}

// Put writes data to the file for key.
func (d *Disk) Put(key string, data []byte) error {
	if err := os.MkdirAll(d.dir, 0o755); err != nil {
		return fmt.Errorf("create cache dir: %w", err)
	}
	if err := os.WriteFile(d.Path(key), data, 0o644); err != nil { //#nosec G306 -- cache files are not secret
		return fmt.Errorf("write cache file: %w", err)
	}
	return nil
}

// Name returns "disk".
func (d *Disk) Name() string {
	return "disk"
}

// fileName maps a key to a file name. Cursors are base64 and may contain
// '/', which must not create subdirectories.
func fileName(key string) string {
	r := strings.NewReplacer("/", "-", `\`, "-", string(os.PathSeparator), "-")
	return r.Replace(key) + ".json"
}
