package storage

import (
	"errors"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var generatedName = regexp.MustCompile(`^depth_capture_\d{4}-\d{2}-\d{2}T\d{2}-\d{2}-\d{2}-\d{3}Z\.png$`)

func newTestStore(t *testing.T) *ArtifactStore {
	t.Helper()
	return NewArtifactStore(filepath.Join(t.TempDir(), "Data_image"))
}

func TestEnsureRoot_Idempotent(t *testing.T) {
	store := newTestStore(t)

	require.NoError(t, store.EnsureRoot())
	require.NoError(t, store.EnsureRoot())

	info, err := os.Stat(store.Root())
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestWrite_CreatesRootAndReturnsSize(t *testing.T) {
	store := newTestStore(t)
	data := []byte("\x89PNG fake payload")

	size, err := store.Write("first.png", data)
	require.NoError(t, err)
	assert.Equal(t, int64(len(data)), size)

	stored, err := os.ReadFile(filepath.Join(store.Root(), "first.png"))
	require.NoError(t, err)
	assert.Equal(t, data, stored)
}

func TestWrite_OverwritesSameName(t *testing.T) {
	store := newTestStore(t)

	_, err := store.Write("x.png", []byte("first payload, longer"))
	require.NoError(t, err)
	_, err = store.Write("x.png", []byte("second"))
	require.NoError(t, err)

	artifacts, err := store.List()
	require.NoError(t, err)
	require.Len(t, artifacts, 1)
	assert.Equal(t, "x.png", artifacts[0].Filename)
	assert.Equal(t, int64(len("second")), artifacts[0].Size)

	stored, err := os.ReadFile(store.Path("x.png"))
	require.NoError(t, err)
	assert.Equal(t, "second", string(stored))
}

func TestWrite_LeavesNoTempFiles(t *testing.T) {
	store := newTestStore(t)

	_, err := store.Write("a.png", []byte("a"))
	require.NoError(t, err)

	entries, err := os.ReadDir(store.Root())
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "a.png", entries[0].Name())
}

func TestWrite_RejectsEscapingNames(t *testing.T) {
	store := newTestStore(t)

	for _, name := range []string{"", "..", "../evil.png", "sub/dir.png", `..\evil.png`} {
		_, err := store.Write(name, []byte("data"))
		require.Error(t, err, name)

		var storageErr *StorageError
		require.True(t, errors.As(err, &storageErr), name)
		assert.True(t, errors.Is(err, ErrInvalidName), name)
	}
}

func TestWrite_ReadOnlyRootFails(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("root ignores directory permissions")
	}
	store := newTestStore(t)
	require.NoError(t, store.EnsureRoot())
	require.NoError(t, os.Chmod(store.Root(), 0555))
	defer os.Chmod(store.Root(), 0755)

	_, err := store.Write("a.png", []byte("a"))

	var storageErr *StorageError
	assert.True(t, errors.As(err, &storageErr))
}

func TestList_NewestFirstForAnyInsertionOrder(t *testing.T) {
	store := newTestStore(t)
	order := []string{"c.png", "a.png", "b.png", "e.png", "d.png"}

	for _, name := range order {
		_, err := store.Write(name, []byte(name))
		require.NoError(t, err)
		time.Sleep(15 * time.Millisecond)
	}

	artifacts, err := store.List()
	require.NoError(t, err)
	require.Len(t, artifacts, len(order))

	for i, a := range artifacts {
		assert.Equal(t, order[len(order)-1-i], a.Filename)
	}
	assert.True(t, sort.SliceIsSorted(artifacts, func(i, j int) bool {
		return artifacts[i].Created.After(artifacts[j].Created)
	}))
}

func TestList_ExcludesNonArtifacts(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, store.EnsureRoot())

	require.NoError(t, os.WriteFile(store.Path("notes.txt"), []byte("x"), 0644))
	require.NoError(t, os.WriteFile(store.Path(".tmp-123.png"), []byte("x"), 0644))
	require.NoError(t, os.Mkdir(store.Path("nested.png"), 0755))
	_, err := store.Write("keep.PNG", []byte("x"))
	require.NoError(t, err)

	artifacts, err := store.List()
	require.NoError(t, err)
	require.Len(t, artifacts, 1)
	assert.Equal(t, "keep.PNG", artifacts[0].Filename)

	_, err = os.Stat(store.Path("notes.txt"))
	assert.NoError(t, err, "non-matching files must not be deleted")
}

func TestList_EmptyWhenRootMissing(t *testing.T) {
	store := newTestStore(t)

	artifacts, err := store.List()
	require.NoError(t, err)
	assert.Empty(t, artifacts)
}

func TestStat_MissingArtifact(t *testing.T) {
	store := newTestStore(t)

	_, err := store.Stat("missing.png")
	require.Error(t, err)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestOpen_ReadsArtifact(t *testing.T) {
	store := newTestStore(t)
	_, err := store.Write("view.png", []byte("pixels"))
	require.NoError(t, err)

	f, err := store.Open("view.png")
	require.NoError(t, err)
	defer f.Close()

	buf := make([]byte, 6)
	_, err = f.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, "pixels", string(buf))
}

func TestGenerateFilename(t *testing.T) {
	ts := time.Date(2025, 6, 15, 14, 30, 5, 123_000_000, time.UTC)

	name := GenerateFilename(ts)

	assert.Equal(t, "depth_capture_2025-06-15T14-30-05-123Z.png", name)
	assert.Regexp(t, generatedName, name)
}

func TestGenerateFilename_ConvertsToUTC(t *testing.T) {
	warsaw := time.FixedZone("CEST", 2*60*60)
	ts := time.Date(2025, 6, 15, 16, 30, 5, 0, warsaw)

	assert.Equal(t, "depth_capture_2025-06-15T14-30-05-000Z.png", GenerateFilename(ts))
}

func TestGenerateFilename_LexicographicMatchesChronological(t *testing.T) {
	base := time.Date(2025, 12, 31, 23, 59, 59, 998_000_000, time.UTC)
	times := []time.Time{
		base,
		base.Add(time.Millisecond),
		base.Add(2 * time.Millisecond),
		base.Add(time.Hour),
		base.Add(24 * time.Hour),
	}

	for i := 1; i < len(times); i++ {
		assert.Less(t, GenerateFilename(times[i-1]), GenerateFilename(times[i]))
	}
}

func TestIsArtifactName(t *testing.T) {
	assert.True(t, IsArtifactName("depth_capture_2025-06-15T14-30-05-123Z.png"))
	assert.True(t, IsArtifactName("x.PNG"))
	assert.False(t, IsArtifactName("x.jpg"))
	assert.False(t, IsArtifactName(".hidden.png"))
	assert.False(t, IsArtifactName(""))
}
