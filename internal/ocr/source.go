// Package ocr acquires text from uploaded documents. The embedded PDF text
// layer is tried first; scanned PDFs and images fall through to an external
// OCR engine when one is configured. The pipeline never sees an error from
// this package: any failure degrades to an empty string.
package ocr

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"

	"github.com/gen2brain/go-fitz"
	"go.uber.org/zap"
)

// Engine is the external OCR collaborator. Implementations receive a path to
// a temporary copy of the uploaded file and return recognized text.
type Engine interface {
	Recognize(path string) (string, error)
}

// Config bounds text-layer probing. Enabled gates the external engine
// fallback only; the embedded PDF text layer is always read.
type Config struct {
	Enabled      bool
	MaxPages     int // pages read from the embedded text layer
	MinTextChars int // below this the text layer counts as absent
}

// DefaultConfig returns the probing limits used in production.
func DefaultConfig() Config {
	return Config{
		MaxPages:     20,
		MinTextChars: 80,
	}
}

// Source resolves document bytes to text.
type Source struct {
	engine Engine
	cfg    Config
	logger *zap.Logger
}

// NewSource creates a Source. engine may be nil, in which case scanned
// documents and images yield no text and flow to review downstream.
func NewSource(engine Engine, cfg Config, logger *zap.Logger) *Source {
	if cfg.MaxPages <= 0 {
		cfg.MaxPages = DefaultConfig().MaxPages
	}
	if cfg.MinTextChars <= 0 {
		cfg.MinTextChars = DefaultConfig().MinTextChars
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Source{engine: engine, cfg: cfg, logger: logger}
}

var pdfMagic = []byte("%PDF-")

func isPDF(data []byte, filename string) bool {
	if strings.EqualFold(filepath.Ext(filename), ".pdf") {
		return true
	}
	return bytes.HasPrefix(data, pdfMagic)
}

var imageExts = map[string]bool{
	".png": true, ".jpg": true, ".jpeg": true,
	".webp": true, ".bmp": true, ".tif": true, ".tiff": true,
}

// Text returns the document's text, or "" when none can be obtained.
func (s *Source) Text(data []byte, filename string) string {
	if len(data) == 0 {
		return ""
	}

	path, err := s.writeTemp(data, filename)
	if err != nil {
		s.logger.Warn("failed to stage upload for text extraction",
			zap.String("file", filename), zap.Error(err))
		return ""
	}
	defer os.Remove(path)

	if isPDF(data, filename) {
		if text := s.pdfTextLayer(path, filename); len(text) >= s.cfg.MinTextChars {
			return text
		}
	}

	return s.recognize(path, filename)
}

// pdfTextLayer reads the embedded text layer page by page.
func (s *Source) pdfTextLayer(path, filename string) string {
	doc, err := fitz.New(path)
	if err != nil {
		s.logger.Debug("cannot open PDF", zap.String("file", filename), zap.Error(err))
		return ""
	}
	defer doc.Close()

	pages := doc.NumPage()
	if pages > s.cfg.MaxPages {
		pages = s.cfg.MaxPages
	}

	var b strings.Builder
	for n := 0; n < pages; n++ {
		text, err := doc.Text(n)
		if err != nil {
			s.logger.Debug("failed to read PDF page text",
				zap.String("file", filename), zap.Int("page", n), zap.Error(err))
			continue
		}
		b.WriteString(text)
		b.WriteString("\n")
	}
	return strings.TrimSpace(b.String())
}

func (s *Source) recognize(path, filename string) string {
	if !s.cfg.Enabled || s.engine == nil {
		return ""
	}
	text, err := s.engine.Recognize(path)
	if err != nil {
		s.logger.Warn("OCR engine failed",
			zap.String("file", filename), zap.Error(err))
		return ""
	}
	return strings.TrimSpace(text)
}

// writeTemp stages upload bytes on disk, keeping a recognizable extension so
// OCR engines that dispatch on it keep working.
func (s *Source) writeTemp(data []byte, filename string) (string, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	if ext != ".pdf" && !imageExts[ext] {
		if bytes.HasPrefix(data, pdfMagic) {
			ext = ".pdf"
		} else if ext == "" {
			ext = ".bin"
		}
	}

	f, err := os.CreateTemp("", "peak_import_*"+ext)
	if err != nil {
		return "", err
	}
	path := f.Name()
	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(path)
		return "", err
	}
	if err := f.Close(); err != nil {
		os.Remove(path)
		return "", err
	}
	return path, nil
}
