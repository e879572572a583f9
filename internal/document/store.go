package document

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Store manages documents below a configured root directory.
type Store struct {
	root   string
	tmpDir string
}

// NewStore constructs a store rooted at root. Temporary files go to tmpDir.
func NewStore(root, tmpDir string) *Store {
	if tmpDir == "" {
		tmpDir = os.TempDir()
	}
	return &Store{root: root, tmpDir: tmpDir}
}

// Root returns the storage root.
func (s *Store) Root() string {
	return s.root
}

// Path resolves a relative document path to an absolute location inside the root.
func (s *Store) Path(rel string) (string, error) {
	return resolve(s.root, rel)
}

// Save atomically writes the reader's content to rel, replacing any existing file.
func (s *Store) Save(rel string, r io.Reader) (string, error) {
	target, err := s.Path(rel)
	if err != nil {
		return "", err
	}

	if err := writeFileAtomic(target, func(w io.Writer) error {
		_, err := io.Copy(w, r)
		return err
	}); err != nil {
		return "", err
	}

	return rel, nil
}

// TempFile creates a scratch file in the configured temporary directory.
func (s *Store) TempFile(pattern string) (*os.File, error) {
	if err := os.MkdirAll(s.tmpDir, 0o755); err != nil {
		return nil, fmt.Errorf("create temp dir: %w", err)
	}
	return os.CreateTemp(s.tmpDir, pattern)
}

// MoveInto moves src to rel below the root, overwriting an existing file.
// Falls back to copy and delete when a rename is not possible, e.g. across devices.
func (s *Store) MoveInto(src, rel string) error {
	target, err := s.Path(rel)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return fmt.Errorf("create destination dir: %w", err)
	}

	if err := os.Rename(src, target); err == nil {
		return nil
	}

	source, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("open moved file: %w", err)
	}
	defer source.Close()

	if err := writeFileAtomic(target, func(w io.Writer) error {
		_, err := io.Copy(w, source)
		return err
	}); err != nil {
		return err
	}

	source.Close()
	if err := os.Remove(src); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove moved file: %w", err)
	}
	return nil
}

// Remove deletes rel. Missing files are not an error.
func (s *Store) Remove(rel string) error {
	target, err := s.Path(rel)
	if err != nil {
		return err
	}
	if err := os.Remove(target); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

func resolve(root, rel string) (string, error) {
	if strings.TrimSpace(rel) == "" {
		return "", fmt.Errorf("empty document path: %w", ErrUnsafePath)
	}
	cleaned := filepath.Clean(string(filepath.Separator) + filepath.FromSlash(rel))
	if cleaned == string(filepath.Separator) {
		return "", ErrUnsafePath
	}
	return filepath.Join(root, cleaned), nil
}

// writeFileAtomic writes into a temp file next to target and renames it into place,
// so target is either untouched or complete.
func writeFileAtomic(target string, write func(io.Writer) error) (err error) {
	dir := filepath.Dir(target)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create destination dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(target)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmp.Name())
		}
	}()

	if err = write(tmp); err != nil {
		return err
	}
	if err = tmp.Sync(); err != nil {
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err = os.Rename(tmp.Name(), target); err != nil {
		return fmt.Errorf("replace %s: %w", filepath.Base(target), err)
	}
	return nil
}
