package document

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStoreMoveIntoOverwrites(t *testing.T) {
	root := t.TempDir()
	store := NewStore(root, t.TempDir())
	rel := CorrectedSolutionPath(5, 6)

	for _, content := range []string{"first", "second"} {
		tmp, err := store.TempFile("correction-*.pdf")
		require.NoError(t, err)
		_, err = tmp.WriteString(content)
		require.NoError(t, err)
		require.NoError(t, tmp.Close())

		require.NoError(t, store.MoveInto(tmp.Name(), rel))
		_, err = os.Stat(tmp.Name())
		require.True(t, os.IsNotExist(err))
	}

	data, err := os.ReadFile(filepath.Join(root, "solutions", "user-5", "problem-6", "corrected.pdf"))
	require.NoError(t, err)
	require.Equal(t, "second", string(data))
}

func TestStoreSaveAndRemove(t *testing.T) {
	store := NewStore(t.TempDir(), "")
	rel := OrgSolutionPath(3, "abc")

	saved, err := store.Save(rel, strings.NewReader("pdf"))
	require.NoError(t, err)
	require.Equal(t, "org-solutions/problem-3/abc.pdf", saved)

	require.NoError(t, store.Remove(rel))
	require.NoError(t, store.Remove(rel))
}

func TestStorePathStaysInsideRoot(t *testing.T) {
	root := t.TempDir()
	store := NewStore(root, "")

	resolved, err := store.Path("../../etc/passwd")
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(resolved, root))

	_, err = store.Path("  ")
	require.ErrorIs(t, err, ErrUnsafePath)
}
