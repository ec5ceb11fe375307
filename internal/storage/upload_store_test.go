package storage

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestUploadStoreSave(t *testing.T) {
	dir := t.TempDir()
	store := NewUploadStore(dir, "http://localhost:8080/", zap.NewNop())

	content := []byte("fake image bytes")
	storedPath, publicURL, err := store.Save("rent_statement.pdf", content)
	require.NoError(t, err)

	assert.True(t, strings.HasSuffix(storedPath, ".pdf"), "extension should be preserved: %s", storedPath)
	assert.Equal(t, "http://localhost:8080/uploads/"+storedPath, publicURL)

	saved, err := os.ReadFile(filepath.Join(dir, storedPath))
	require.NoError(t, err)
	assert.Equal(t, content, saved)
}

func TestUploadStoreSaveGeneratesUniqueNames(t *testing.T) {
	dir := t.TempDir()
	store := NewUploadStore(dir, "http://localhost:8080", zap.NewNop())

	first, _, err := store.Save("a.png", []byte("one"))
	require.NoError(t, err)
	second, _, err := store.Save("a.png", []byte("two"))
	require.NoError(t, err)

	assert.NotEqual(t, first, second, "two saves of the same filename must not collide")
}

func TestUploadStoreSaveWithoutExtension(t *testing.T) {
	dir := t.TempDir()
	store := NewUploadStore(dir, "http://localhost:8080", zap.NewNop())

	storedPath, _, err := store.Save("noext", []byte("x"))
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(storedPath, ".bin"))
}

func TestUploadStoreDeleteIdempotent(t *testing.T) {
	dir := t.TempDir()
	store := NewUploadStore(dir, "http://localhost:8080", zap.NewNop())

	storedPath, _, err := store.Save("a.jpg", []byte("img"))
	require.NoError(t, err)

	require.NoError(t, store.Delete(storedPath))
	require.NoError(t, store.Delete(storedPath), "second delete should be a no-op")
}

func TestUploadStoreRejectsEscapingPath(t *testing.T) {
	dir := t.TempDir()
	store := NewUploadStore(dir, "http://localhost:8080", zap.NewNop())

	err := store.Delete("../outside.txt")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "escapes base directory")
}
