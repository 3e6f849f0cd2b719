package ocr

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubEngine struct {
	text     string
	err      error
	called   bool
	lastPath string
}

func (e *stubEngine) Recognize(path string) (string, error) {
	e.called = true
	e.lastPath = path
	return e.text, e.err
}

func enabledConfig() Config {
	cfg := DefaultConfig()
	cfg.Enabled = true
	return cfg
}

func TestTextEmptyInput(t *testing.T) {
	s := NewSource(&stubEngine{text: "never"}, DefaultConfig(), nil)
	assert.Equal(t, "", s.Text(nil, "a.pdf"))
	assert.Equal(t, "", s.Text([]byte{}, "a.png"))
}

func TestTextImageUsesEngine(t *testing.T) {
	eng := &stubEngine{text: "  ใบเสร็จรับเงิน 1,000.00  "}
	s := NewSource(eng, enabledConfig(), nil)

	got := s.Text([]byte{0x89, 'P', 'N', 'G'}, "receipt.png")

	assert.True(t, eng.called)
	assert.Equal(t, "ใบเสร็จรับเงิน 1,000.00", got)
	assert.Equal(t, ".png", filepath.Ext(eng.lastPath))
}

func TestTextNoEngineNoTextLayer(t *testing.T) {
	s := NewSource(nil, DefaultConfig(), nil)
	assert.Equal(t, "", s.Text([]byte("not a document"), "scan.jpg"))
}

func TestTextEngineErrorDegradesToEmpty(t *testing.T) {
	eng := &stubEngine{err: errors.New("tesseract not installed")}
	s := NewSource(eng, enabledConfig(), nil)
	assert.Equal(t, "", s.Text([]byte{0xFF, 0xD8}, "scan.jpeg"))
	assert.True(t, eng.called)
}

func TestTextDisabledSkipsEngine(t *testing.T) {
	eng := &stubEngine{text: "should not appear"}
	s := NewSource(eng, DefaultConfig(), nil)

	got := s.Text([]byte{0x89, 'P', 'N', 'G'}, "receipt.png")

	assert.Equal(t, "", got)
	assert.False(t, eng.called)
}

func TestWriteTempKeepsExtension(t *testing.T) {
	s := NewSource(nil, DefaultConfig(), nil)

	path, err := s.writeTemp([]byte("%PDF-1.7 stub"), "statement")
	require.NoError(t, err)
	defer os.Remove(path)
	assert.Equal(t, ".pdf", filepath.Ext(path))

	path2, err := s.writeTemp([]byte("junk"), "blob")
	require.NoError(t, err)
	defer os.Remove(path2)
	assert.Equal(t, ".bin", filepath.Ext(path2))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "%PDF-"))
}

func TestIsPDF(t *testing.T) {
	assert.True(t, isPDF([]byte("%PDF-1.4"), "x.bin"))
	assert.True(t, isPDF([]byte("anything"), "invoice.PDF"))
	assert.False(t, isPDF([]byte{0x89, 'P', 'N', 'G'}, "x.png"))
}
