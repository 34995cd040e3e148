package loader

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"course-advisor/internal/domain"

	"github.com/unidoc/unipdf/v3/common/license"
	"github.com/unidoc/unipdf/v3/extractor"
	"github.com/unidoc/unipdf/v3/model"
)

// ErrUnsupportedFile is returned for files the loader cannot read.
var ErrUnsupportedFile = errors.New("unsupported file type")

var licenseOnce sync.Once

// Loader reads catalog files from disk into source documents.
type Loader struct {
	logger *slog.Logger
}

// New creates a loader. A non-empty UniDoc metered key is installed once per process.
func New(licenseKey string, logger *slog.Logger) *Loader {
	if licenseKey != "" {
		licenseOnce.Do(func() {
			if err := license.SetMeteredKey(licenseKey); err != nil {
				logger.Error("unidoc_license_failed", slog.String("error", err.Error()))
			}
		})
	}
	return &Loader{logger: logger}
}

// Supported reports whether path has an extension the loader reads.
func Supported(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf", ".txt", ".md":
		return true
	default:
		return false
	}
}

// LoadDir loads every supported file in dir. A missing directory or one without
// supported files yields the sample catalogs; unreadable files are logged and skipped.
func (l *Loader) LoadDir(dir string) ([]domain.SourceDocument, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			l.logger.Warn("corpus_dir_missing", slog.String("dir", dir), slog.String("fallback", "samples"))
			return SampleDocuments(), nil
		}
		return nil, fmt.Errorf("failed to read corpus dir: %w", err)
	}

	var names []string
	for _, e := range entries {
		if !e.IsDir() && Supported(e.Name()) {
			names = append(names, e.Name())
		}
	}
	if len(names) == 0 {
		l.logger.Warn("corpus_dir_empty", slog.String("dir", dir), slog.String("fallback", "samples"))
		return SampleDocuments(), nil
	}
	sort.Strings(names)

	var docs []domain.SourceDocument
	for _, name := range names {
		fileDocs, err := l.LoadFile(filepath.Join(dir, name))
		if err != nil {
			l.logger.Error("corpus_file_failed", slog.String("file", name), slog.String("error", err.Error()))
			continue
		}
		l.logger.Info("corpus_file_loaded", slog.String("file", name), slog.Int("pages", len(fileDocs)))
		docs = append(docs, fileDocs...)
	}
	return docs, nil
}

// LoadFile loads one file. PDFs yield one document per page.
func (l *Loader) LoadFile(path string) ([]domain.SourceDocument, error) {
	name := filepath.Base(path)
	department := domain.DepartmentFromFilename(name)

	switch strings.ToLower(filepath.Ext(path)) {
	case ".txt", ".md":
		content, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		return []domain.SourceDocument{{SourceName: name, Department: department, Page: 1, Text: string(content)}}, nil
	case ".pdf":
		pages, err := extractPDFPages(path)
		if err != nil {
			return nil, err
		}
		docs := make([]domain.SourceDocument, 0, len(pages))
		for i, text := range pages {
			docs = append(docs, domain.SourceDocument{SourceName: name, Department: department, Page: i + 1, Text: text})
		}
		return docs, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFile, filepath.Ext(path))
	}
}

func extractPDFPages(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	pdfReader, err := model.NewPdfReader(f)
	if err != nil {
		return nil, fmt.Errorf("failed to open pdf: %w", err)
	}

	numPages, err := pdfReader.GetNumPages()
	if err != nil {
		return nil, err
	}

	pages := make([]string, 0, numPages)
	for i := 1; i <= numPages; i++ {
		page, err := pdfReader.GetPage(i)
		if err != nil {
			return nil, err
		}
		ex, err := extractor.New(page)
		if err != nil {
			return nil, err
		}
		text, err := ex.ExtractText()
		if err != nil {
			return nil, fmt.Errorf("failed to extract page %d: %w", i, err)
		}
		pages = append(pages, text)
	}
	return pages, nil
}
