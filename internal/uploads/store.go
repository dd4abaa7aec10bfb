package uploads

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
)

// partSize is the size of each write while streaming an upload to disk.
const partSize = 1 << 20

// ErrTooLarge is returned when an upload exceeds the store's size limit.
var ErrTooLarge = errors.New("upload exceeds maximum size")

// Store keeps uploaded files under a root directory, one file per upload
// named <file_id>_<filename>.
type Store struct {
	fs       afero.Fs
	root     string
	maxBytes int64
}

// NewStore creates the root directory on the local disk if needed and
// returns a Store. maxBytes <= 0 disables the size limit.
func NewStore(root string, maxBytes int64) (*Store, error) {
	return NewStoreFs(afero.NewOsFs(), root, maxBytes)
}

// NewStoreFs is NewStore on an arbitrary filesystem.
func NewStoreFs(fs afero.Fs, root string, maxBytes int64) (*Store, error) {
	if err := fs.MkdirAll(root, 0755); err != nil {
		return nil, fmt.Errorf("failed to create upload directory %s: %w", root, err)
	}
	return &Store{fs: fs, root: root, maxBytes: maxBytes}, nil
}

// Root returns the directory uploads are stored in.
func (s *Store) Root() string {
	return s.root
}

// Fs returns the filesystem uploads are written to.
func (s *Store) Fs() afero.Fs {
	return s.fs
}

// Path returns the storage location for an upload.
func (s *Store) Path(fileID, filename string) string {
	return filepath.Join(s.root, fileID+"_"+safeName(filename))
}

// Save streams r to disk and returns the stored path.
// A partially written file is removed on error.
func (s *Store) Save(ctx context.Context, fileID, filename string, r io.Reader) (string, error) {
	path := s.Path(fileID, filename)

	f, err := s.fs.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create upload file: %w", err)
	}

	_, err = s.copy(ctx, f, r)
	if closeErr := f.Close(); err == nil && closeErr != nil {
		err = fmt.Errorf("failed to close upload file: %w", closeErr)
	}
	if err != nil {
		_ = s.fs.Remove(path)
		return "", err
	}

	return path, nil
}

func (s *Store) copy(ctx context.Context, w io.Writer, r io.Reader) (int64, error) {
	buf := make([]byte, partSize)
	var written int64
	for {
		if err := ctx.Err(); err != nil {
			return written, err
		}

		n, readErr := r.Read(buf)
		if n > 0 {
			written += int64(n)
			if s.maxBytes > 0 && written > s.maxBytes {
				return written, ErrTooLarge
			}
			if _, err := w.Write(buf[:n]); err != nil {
				return written, fmt.Errorf("failed to write upload: %w", err)
			}
		}
		if readErr == io.EOF {
			return written, nil
		}
		if readErr != nil {
			return written, fmt.Errorf("failed to read upload: %w", readErr)
		}
	}
}

// Remove deletes a stored upload. Missing files are not an error.
func (s *Store) Remove(path string) error {
	if err := s.fs.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove upload %s: %w", path, err)
	}
	return nil
}

// RemoveFile deletes every stored upload for fileID.
func (s *Store) RemoveFile(fileID string) error {
	matches, err := afero.Glob(s.fs, filepath.Join(s.root, fileID+"_*"))
	if err != nil {
		return fmt.Errorf("failed to find uploads for %s: %w", fileID, err)
	}
	for _, m := range matches {
		if err := s.Remove(m); err != nil {
			return err
		}
	}
	return nil
}

// safeName strips directory separators from a client-supplied filename.
func safeName(filename string) string {
	return strings.NewReplacer("/", "_", "\\", "_").Replace(filename)
}
