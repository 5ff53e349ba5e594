package upload

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testPolicy(maxFiles int, maxSize int64) Policy {
	return Policy{
		MaxFiles:     maxFiles,
		MaxFileSize:  maxSize,
		AllowedMimes: DefaultAllowedMimes,
	}
}

func incoming(name, mime string, size int) Incoming {
	data := bytes.Repeat([]byte("x"), size)
	return Incoming{
		FileName: name,
		MimeType: mime,
		Size:     int64(size),
		Open: func() (io.ReadCloser, error) {
			return io.NopCloser(bytes.NewReader(data)), nil
		},
	}
}

func newTestManager(t *testing.T, p Policy) *Manager {
	t.Helper()
	m, err := NewManager(t.TempDir(), p)
	require.NoError(t, err)
	return m
}

func TestAdd_AcceptsValidImages(t *testing.T) {
	m := newTestManager(t, testPolicy(5, 10*1024*1024))

	accepted, rejected := m.Add([]Incoming{
		incoming("a.jpg", "image/jpeg", 100),
		incoming("b.png", "image/png", 200),
	})

	assert.Len(t, accepted, 2)
	assert.Empty(t, rejected)
	assert.Equal(t, 2, m.Count())

	for _, f := range accepted {
		_, err := os.Stat(f.Path)
		assert.NoError(t, err, "staged file must exist on disk")
	}
}

func TestAdd_RejectsDisallowedMime(t *testing.T) {
	m := newTestManager(t, testPolicy(5, 10*1024*1024))

	accepted, rejected := m.Add([]Incoming{
		incoming("doc.pdf", "application/pdf", 100),
		incoming("ok.jpg", "image/jpeg", 100),
	})

	// Partial acceptance: the invalid file never blocks the valid one
	assert.Len(t, accepted, 1)
	require.Len(t, rejected, 1)
	assert.Equal(t, "doc.pdf", rejected[0].FileName)
	assert.Contains(t, rejected[0].Reason, "not allowed")
}

func TestAdd_RejectsOversizedFile(t *testing.T) {
	m := newTestManager(t, testPolicy(5, 1024))

	_, rejected := m.Add([]Incoming{incoming("big.jpg", "image/jpeg", 2048)})

	require.Len(t, rejected, 1)
	assert.Contains(t, rejected[0].Reason, "size limit")
	assert.Equal(t, 0, m.Count())
}

func TestAdd_EnforcesCountCap(t *testing.T) {
	m := newTestManager(t, testPolicy(5, 10*1024*1024))

	batch := make([]Incoming, 6)
	for i := range batch {
		batch[i] = incoming("img.jpg", "image/jpeg", 10)
	}
	accepted, rejected := m.Add(batch)

	assert.Len(t, accepted, 5)
	require.Len(t, rejected, 1)
	assert.Contains(t, rejected[0].Reason, "maximum of 5")

	// Additions beyond the cap leave the accepted set unchanged
	_, rejected = m.Add([]Incoming{incoming("seventh.jpg", "image/jpeg", 10)})
	assert.Len(t, rejected, 1)
	assert.Equal(t, 5, m.Count())
}

func TestAllowsMime_StripsCharsetParameter(t *testing.T) {
	p := testPolicy(5, 1024)
	assert.True(t, p.AllowsMime("image/jpeg; charset=binary"))
	assert.True(t, p.AllowsMime("IMAGE/PNG"))
	assert.False(t, p.AllowsMime("text/html"))
}

func TestRemove_DeletesStagedFile(t *testing.T) {
	m := newTestManager(t, testPolicy(5, 1024))
	accepted, _ := m.Add([]Incoming{incoming("a.jpg", "image/jpeg", 10)})
	require.Len(t, accepted, 1)

	path := accepted[0].Path
	assert.True(t, m.Remove(accepted[0].ID))
	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err), "removed file must be deleted from disk")
	assert.False(t, m.Remove("no-such-id"))
}

func TestReleaseAll_NoDanglingFiles(t *testing.T) {
	dir := t.TempDir()
	m, err := NewManager(dir, testPolicy(5, 1024))
	require.NoError(t, err)

	m.Add([]Incoming{
		incoming("a.jpg", "image/jpeg", 10),
		incoming("b.png", "image/png", 10),
	})
	m.ReleaseAll()

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries, "release must leave no staged files behind")
	assert.True(t, m.Released())

	// Idempotent, and further additions are refused
	m.ReleaseAll()
	_, rejected := m.Add([]Incoming{incoming("late.jpg", "image/jpeg", 10)})
	assert.Len(t, rejected, 1)
}

func TestCommit_MovesFilesAndReleases(t *testing.T) {
	m := newTestManager(t, testPolicy(5, 1024))
	m.Add([]Incoming{incoming("a.jpg", "image/jpeg", 10)})

	dest := filepath.Join(t.TempDir(), "complaints", "42")
	committed, err := m.Commit(dest)
	require.NoError(t, err)
	require.Len(t, committed, 1)
	assert.True(t, strings.HasPrefix(committed[0].Path, dest))
	assert.True(t, m.Released())

	_, err = m.Commit(dest)
	assert.Error(t, err, "double commit must fail")
}

func TestCommit_CleansUpPartialCommitOnFailure(t *testing.T) {
	m := newTestManager(t, testPolicy(5, 1024))

	accepted, rejected := m.Add([]Incoming{
		incoming("before.jpg", "image/jpeg", 10),
		incoming("after.jpg", "image/jpeg", 10),
	})
	require.Len(t, accepted, 2)
	require.Empty(t, rejected)

	// Break the second staged file so the move fails mid-commit.
	require.NoError(t, os.Remove(accepted[1].Path))

	dest := filepath.Join(t.TempDir(), "complaints", "42")
	_, err := m.Commit(dest)
	require.Error(t, err)

	entries, readErr := os.ReadDir(dest)
	require.NoError(t, readErr)
	assert.Empty(t, entries, "a failed commit must leave no files behind")
}
