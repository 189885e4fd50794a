package contract

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteFileAtomic(t *testing.T) {
	t.Run("writes and replaces", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "nested", "doc.json")

		require.NoError(t, WriteFileAtomic(path, func(w io.Writer) error {
			_, err := io.WriteString(w, "first")
			return err
		}))
		require.NoError(t, WriteFileAtomic(path, func(w io.Writer) error {
			_, err := io.WriteString(w, "second")
			return err
		}))

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Equal(t, "second", string(data))
	})

	t.Run("failure keeps previous file and leaves no temp", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "doc.json")
		require.NoError(t, os.WriteFile(path, []byte("complete"), 0o644))

		err := WriteFileAtomic(path, func(w io.Writer) error {
			_, _ = io.WriteString(w, "{\"partial\":")
			return errors.New("boom")
		})
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrPersistenceFailure)

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Equal(t, "complete", string(data))

		entries, err := os.ReadDir(dir)
		require.NoError(t, err)
		assert.Len(t, entries, 1)
	})
}
