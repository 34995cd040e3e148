package loader

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLoader() *Loader {
	return New("", slog.New(slog.NewJSONHandler(io.Discard, nil)))
}

func TestLoadDir_MissingFallsBackToSamples(t *testing.T) {
	docs, err := testLoader().LoadDir(filepath.Join(t.TempDir(), "nope"))
	require.NoError(t, err)
	require.Len(t, docs, 3)
	assert.Equal(t, "CS_Catalog_Fall_2025.pdf", docs[0].SourceName)
	assert.Equal(t, "Biology", docs[2].Department)
	assert.Contains(t, docs[0].Text, "CS 301 - Advanced Machine Learning")
}

func TestLoadDir_NoSupportedFilesFallsBackToSamples(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.docx"), []byte("x"), 0o600))

	docs, err := testLoader().LoadDir(dir)
	require.NoError(t, err)
	assert.Len(t, docs, 3)
}

func TestLoadDir_TextFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "BUS_Electives.md"), []byte("BUS 210 - Marketing"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "general.txt"), []byte("Office hours"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.pdf"), []byte("not a pdf"), 0o600))

	docs, err := testLoader().LoadDir(dir)
	require.NoError(t, err)
	require.Len(t, docs, 2, "unreadable pdf is skipped")
	assert.Equal(t, "BUS_Electives.md", docs[0].SourceName)
	assert.Equal(t, "Business", docs[0].Department)
	assert.Equal(t, "Unknown", docs[1].Department)
}

func TestLoadFile_Unsupported(t *testing.T) {
	_, err := testLoader().LoadFile("catalog.xlsx")
	assert.ErrorIs(t, err, ErrUnsupportedFile)
}

func TestSupported(t *testing.T) {
	assert.True(t, Supported("a.PDF"))
	assert.True(t, Supported("b.md"))
	assert.False(t, Supported("c.docx"))
}
