package contract

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// WriteFileAtomic writes a file through a temp file in the same directory and
// renames it into place, so readers never observe a partially written file.
// Any failure is reported as ErrPersistenceFailure and the temp file is removed.
func WriteFileAtomic(path string, writeFunc func(io.Writer) error) (err error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("%w: create %s: %w", ErrPersistenceFailure, dir, err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("%w: create temp for %s: %w", ErrPersistenceFailure, path, err)
	}
	tmpName := tmp.Name()
	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmpName)
		}
	}()

	buf := bufio.NewWriter(tmp)
	if err = writeFunc(buf); err != nil {
		return fmt.Errorf("%w: write %s: %w", ErrPersistenceFailure, path, err)
	}
	if err = buf.Flush(); err != nil {
		return fmt.Errorf("%w: flush %s: %w", ErrPersistenceFailure, path, err)
	}
	if err = tmp.Sync(); err != nil {
		return fmt.Errorf("%w: sync %s: %w", ErrPersistenceFailure, path, err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("%w: close %s: %w", ErrPersistenceFailure, path, err)
	}
	if err = os.Chmod(tmpName, 0o644); err != nil {
		return fmt.Errorf("%w: chmod %s: %w", ErrPersistenceFailure, path, err)
	}
	if err = os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("%w: rename %s: %w", ErrPersistenceFailure, path, err)
	}
	return nil
}
