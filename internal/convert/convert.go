// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package convert extracts plain text from course documents. Each file
// extension maps to a Converter; formats whose tooling is unavailable are
// simply absent from the Registry, so they yield empty text instead of
// failing the run.
package convert

import (
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/pdiddy/deadline-tracker/internal/container"
	"github.com/pdiddy/deadline-tracker/pkg/types"
)

// Converter extracts the text of one document.
type Converter interface {
	// Convert reads the file at path and returns its text.
	Convert(path string) (string, error)
}

// ConverterFunc adapts a function to Converter.
type ConverterFunc func(path string) (string, error)

// Convert calls f(path).
func (f ConverterFunc) Convert(path string) (string, error) { return f(path) }

// Registry maps lower-case file extensions (".pdf") to converters.
type Registry struct {
	converters map[string]Converter
	logger     *zap.Logger
}

// NewRegistry returns an empty registry.
func NewRegistry(logger *zap.Logger) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Registry{
		converters: make(map[string]Converter),
		logger:     logger,
	}
}

// Register binds ext (with or without the leading dot) to c.
func (r *Registry) Register(ext string, c Converter) {
	r.converters[normalizeExt(ext)] = c
}

// Supports reports whether a converter is registered for ext.
func (r *Registry) Supports(ext string) bool {
	_, ok := r.converters[normalizeExt(ext)]
	return ok
}

// Extensions lists the registered extensions in sorted order.
func (r *Registry) Extensions() []string {
	exts := make([]string, 0, len(r.converters))
	for ext := range r.converters {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}

// Text returns the text of the document at path. Unsupported formats and
// conversion failures are logged and yield "".
func (r *Registry) Text(path string) string {
	ext := normalizeExt(filepath.Ext(path))
	c, ok := r.converters[ext]
	if !ok {
		r.logger.Warn("unsupported file format", zap.String("ext", ext), zap.String("file", filepath.Base(path)))
		return ""
	}

	text, err := c.Convert(path)
	if err != nil {
		r.logger.Error("failed to parse document", zap.String("file", filepath.Base(path)), zap.Error(err))
		return ""
	}
	return text
}

func normalizeExt(ext string) string {
	ext = strings.ToLower(strings.TrimSpace(ext))
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return ext
}

// Detect builds the default registry, probing for the optional PDF
// tooling: the pdftotext binary first, then the markitdown image under
// docker or podman. Without either, PDFs are unsupported.
func Detect(cfg types.ConversionConfig, exec container.Executor, logger *zap.Logger) *Registry {
	if exec == nil {
		exec = container.OSExecutor{}
	}
	r := NewRegistry(logger)

	r.Register(".txt", ConverterFunc(PlainText))
	r.Register(".md", ConverterFunc(PlainText))
	r.Register(".docx", ConverterFunc(DocxText))
	r.Register(".doc", ConverterFunc(DocxText))
	r.Register(".pptx", ConverterFunc(PptxText))
	r.Register(".ppt", ConverterFunc(PptxText))
	r.Register(".xlsx", ConverterFunc(XlsxText))
	r.Register(".html", ConverterFunc(HTMLFile))
	r.Register(".htm", ConverterFunc(HTMLFile))

	pdf, err := NewPdftotextConverter(cfg.PdftotextBin, exec)
	if err == nil {
		r.Register(".pdf", pdf)
		r.logger.Debug("pdf converter", zap.String("backend", "pdftotext"))
		return r
	}
	r.logger.Debug("pdftotext unavailable", zap.Error(err))

	if cfg.MarkitdownImage != "" {
		rt, err := container.DetectRuntime(exec)
		if err == nil {
			md, err := NewMarkitdownConverter(rt, cfg.MarkitdownImage)
			if err == nil {
				r.Register(".pdf", md)
				r.logger.Debug("pdf converter", zap.String("backend", "markitdown"), zap.String("runtime", rt.Name()))
				return r
			}
			r.logger.Debug("markitdown unavailable", zap.Error(err))
		} else {
			r.logger.Debug("container runtime unavailable", zap.Error(err))
		}
	}

	r.logger.Warn("no PDF converter available - PDF parsing disabled")
	return r
}
