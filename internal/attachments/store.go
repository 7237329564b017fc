package attachments

import (
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
)

var ErrTooLarge = errors.New("attachment exceeds size limit")

// FileStore keeps attachment bytes keyed by a flat file name.
type FileStore interface {
	Save(name string, r io.Reader, maxBytes int64) error
	Remove(name string) error
}

// DiskStore writes files into one directory, the same one the router serves
// under /uploads.
type DiskStore struct {
	dir string
}

// NewDiskStore creates dir if needed and pins it to an absolute path.
func NewDiskStore(dir string) (*DiskStore, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, err
	}
	return &DiskStore{dir: abs}, nil
}

// Dir is the absolute directory files are written to. The router serves it
// under /uploads.
func (s *DiskStore) Dir() string {
	return s.dir
}

// Save streams r to disk. More than maxBytes (when positive) aborts the
// write and removes the partial file.
func (s *DiskStore) Save(name string, r io.Reader, maxBytes int64) (err error) {
	path := filepath.Join(s.dir, name)

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return err
	}

	defer func() {
		cerr := f.Close()
		if err == nil {
			err = cerr
		}
		if err != nil {
			_ = os.Remove(path)
		}
	}()

	src := r
	if maxBytes > 0 {
		src = io.LimitReader(r, maxBytes+1)
	}

	n, err := io.Copy(f, src)
	if err != nil {
		return err
	}
	if maxBytes > 0 && n > maxBytes {
		return ErrTooLarge
	}
	return nil
}

// Remove deletes name. A file that is already gone is not an error.
func (s *DiskStore) Remove(name string) error {
	err := os.Remove(filepath.Join(s.dir, name))
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}
