package attach

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x06\x00\x00\x00")

func writeFixture(t *testing.T, dir, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func TestReadDetectsImage(t *testing.T) {
	dir := t.TempDir()
	path := writeFixture(t, dir, "worksheet.png", pngHeader)

	f, err := Read(path, 0)
	require.NoError(t, err)
	assert.Equal(t, "worksheet.png", f.Name)
	assert.Equal(t, "image/png", f.MimeType)
	assert.True(t, f.IsImage())

	raw, err := f.Bytes()
	require.NoError(t, err)
	assert.Equal(t, pngHeader, raw)
}

func TestReadRejectsUnsupported(t *testing.T) {
	dir := t.TempDir()
	path := writeFixture(t, dir, "notes.txt", []byte("plain text notes"))

	_, err := Read(path, 0)
	assert.ErrorIs(t, err, ErrUnsupported)
}

func TestReadEnforcesSizeCap(t *testing.T) {
	dir := t.TempDir()
	path := writeFixture(t, dir, "big.png", append(append([]byte{}, pngHeader...), make([]byte, 64)...))

	_, err := Read(path, 16)
	assert.ErrorIs(t, err, ErrTooLarge)
}

func TestLoadKeepsArgumentOrder(t *testing.T) {
	dir := t.TempDir()
	first := writeFixture(t, dir, "a.png", pngHeader)
	second := writeFixture(t, dir, "b.pdf", []byte("%PDF-1.4\n%\xe2\xe3\xcf\xd3\n"))

	files, err := Load(context.Background(), []string{first, second}, 0)
	require.NoError(t, err)
	require.Len(t, files, 2)
	assert.Equal(t, "a.png", files[0].Name)
	assert.Equal(t, "b.pdf", files[1].Name)
	assert.True(t, files[1].IsPDF())
}

func TestLoadFailsWholeBatch(t *testing.T) {
	dir := t.TempDir()
	good := writeFixture(t, dir, "a.png", pngHeader)

	files, err := Load(context.Background(), []string{good, filepath.Join(dir, "missing.png")}, 0)
	assert.Error(t, err)
	assert.Nil(t, files)
}

func TestPDFTextRejectsImages(t *testing.T) {
	f, err := FromBytes("a.png", pngHeader)
	require.NoError(t, err)

	_, err = PDFText(f)
	assert.ErrorIs(t, err, ErrUnsupported)
}
