package record

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/zombor/invoice-extract/internal/extract"
	"github.com/zombor/invoice-extract/internal/inference"
)

// IDGenerator generates unique IDs for documents
type IDGenerator interface {
	Generate() string
}

// TimeSource provides the current time
type TimeSource interface {
	Now() time.Time
}

// defaultIDGenerator generates IDs using UnixNano timestamp
type defaultIDGenerator struct{}

func (g *defaultIDGenerator) Generate() string {
	return fmt.Sprintf("%d", time.Now().UnixNano())
}

// defaultTimeSource provides the current time
type defaultTimeSource struct{}

func (t *defaultTimeSource) Now() time.Time {
	return time.Now()
}

// Service runs the inference-and-extraction pipeline for documents and owns
// their persistence. The primary source must be set; the secondary source is
// optional and only consulted by the assembler's enrichment passes.
type Service struct {
	db          DB
	primary     inference.TextSource
	assembler   *extract.Assembler
	storage     Storage
	idGenerator IDGenerator
	timeSource  TimeSource
}

// NewService creates a new Service with default ID generator and time source
func NewService(db DB, primary inference.TextSource, secondary extract.TextSource, storage Storage) *Service {
	return &Service{
		db:          db,
		primary:     primary,
		assembler:   extract.NewAssembler(secondary),
		storage:     storage,
		idGenerator: &defaultIDGenerator{},
		timeSource:  &defaultTimeSource{},
	}
}

// NewServiceWithDeps creates a new Service with custom dependencies for testing
func NewServiceWithDeps(db DB, primary inference.TextSource, secondary extract.TextSource, storage Storage, idGen IDGenerator, timeSrc TimeSource) *Service {
	return &Service{
		db:          db,
		primary:     primary,
		assembler:   extract.NewAssembler(secondary),
		storage:     storage,
		idGenerator: idGen,
		timeSource:  timeSrc,
	}
}

// sanitizeFilename cleans up a filename by removing special characters and truncating length
func sanitizeFilename(filename string) string {
	ext := filepath.Ext(filename)
	base := strings.TrimSuffix(filename, ext)

	// Keep only alphanumeric, spaces, hyphens, and underscores
	reg := regexp.MustCompile(`[^a-zA-Z0-9\s\-_]`)
	base = reg.ReplaceAllString(base, "")

	reg = regexp.MustCompile(`\s+`)
	base = reg.ReplaceAllString(base, " ")
	base = strings.TrimSpace(base)

	maxLen := 50
	if len(base) > maxLen {
		base = base[:maxLen]
	}

	if base == "" {
		base = "document"
	}

	return base + ext
}

// ProcessDocument runs primary inference on one image, extracts its fields,
// and persists the result. A primary inference failure is returned to the
// caller; extraction itself cannot fail, only leave fields empty.
func (s *Service) ProcessDocument(filename string, data []byte, contentType string) (*Document, error) {
	id := s.idGenerator.Generate()
	now := s.timeSource.Now()

	raw, err := s.primary.InferText(data, contentType)
	if err != nil {
		slog.Error("Primary inference failed",
			"filename", filename,
			"content_type", contentType,
			"file_size", len(data),
			"error", err,
		)
		return nil, fmt.Errorf("inferring document text: %w", err)
	}

	// Keep the raw text around for debugging the heuristics. Best-effort.
	rawPath, err := s.storage.Save(fmt.Sprintf("%s_%s.txt", id, sanitizeFilename(filename)), []byte(raw))
	if err != nil {
		slog.Warn("Failed to save raw inference text", "filename", filename, "error", err)
		rawPath = ""
	}

	fields := s.assembler.Assemble(raw, filepath.Base(filename), data, contentType)

	doc := &Document{
		ID:          id,
		Fields:      fields,
		RawTextPath: rawPath,
		ContentType: contentType,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.db.SaveDocument(doc); err != nil {
		if rawPath != "" {
			s.storage.Delete(rawPath)
		}
		return nil, fmt.Errorf("saving document to database: %w", err)
	}

	return doc, nil
}

// supportedExts maps input file extensions to their MIME types
var supportedExts = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
	".pdf":  "application/pdf",
	".heic": "image/heic",
	".heif": "image/heif",
}

// contentTypeFor derives the MIME type from a filename extension
func contentTypeFor(filename string) string {
	if ct, ok := supportedExts[strings.ToLower(filepath.Ext(filename))]; ok {
		return ct
	}
	return "application/octet-stream"
}

// ProcessPath processes one image file, or every supported image in a
// directory in name order. Records come back in traversal order, one per
// processed image; documents that fail are logged and skipped so a bad file
// never aborts the batch.
func (s *Service) ProcessPath(path string) ([]extract.Record, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("reading input path: %w", err)
	}

	files := []string{path}
	if info.IsDir() {
		entries, err := os.ReadDir(path)
		if err != nil {
			return nil, fmt.Errorf("reading input directory: %w", err)
		}
		files = files[:0]
		for _, e := range entries {
			if e.IsDir() {
				continue
			}
			if _, ok := supportedExts[strings.ToLower(filepath.Ext(e.Name()))]; ok {
				files = append(files, filepath.Join(path, e.Name()))
			}
		}
		sort.Strings(files)
	}

	records := make([]extract.Record, 0, len(files))
	for _, file := range files {
		slog.Info("Processing document", "file", file)
		data, err := os.ReadFile(file)
		if err != nil {
			slog.Error("Failed to read image", "file", file, "error", err)
			continue
		}
		doc, err := s.ProcessDocument(filepath.Base(file), data, contentTypeFor(file))
		if err != nil {
			slog.Error("Skipping document", "file", file, "error", err)
			continue
		}
		records = append(records, doc.Fields)
	}
	return records, nil
}

// WriteResults writes records to path as an indented JSON array, preserving
// the given order.
func WriteResults(path string, records []extract.Record) error {
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling results: %w", err)
	}
	data = append(data, '\n')
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing results: %w", err)
	}
	return nil
}

// GetDocument retrieves a document by ID
func (s *Service) GetDocument(id string) (*Document, error) {
	doc, err := s.db.GetDocument(id)
	if err != nil {
		return nil, fmt.Errorf("getting document: %w", err)
	}
	return doc, nil
}

// ListDocuments returns all documents
func (s *Service) ListDocuments() ([]*Document, error) {
	docs, err := s.db.ListDocuments()
	if err != nil {
		return nil, fmt.Errorf("listing documents: %w", err)
	}
	return docs, nil
}

// DeleteDocument removes a document and its stored raw text
func (s *Service) DeleteDocument(id string) error {
	doc, err := s.db.GetDocument(id)
	if err != nil {
		return fmt.Errorf("getting document for deletion: %w", err)
	}

	if doc.RawTextPath != "" {
		if err := s.storage.Delete(doc.RawTextPath); err != nil {
			// Log error but continue with database deletion
			slog.Warn("Failed to delete raw text", "path", doc.RawTextPath, "error", err)
		}
	}

	if err := s.db.DeleteDocument(id); err != nil {
		return fmt.Errorf("deleting document from database: %w", err)
	}
	return nil
}

// GetRawText retrieves the stored primary inference text for a document
func (s *Service) GetRawText(id string) ([]byte, error) {
	doc, err := s.db.GetDocument(id)
	if err != nil {
		return nil, fmt.Errorf("getting document: %w", err)
	}
	if doc.RawTextPath == "" {
		return nil, fmt.Errorf("document %s has no stored raw text", id)
	}

	data, err := s.storage.Get(doc.RawTextPath)
	if err != nil {
		return nil, fmt.Errorf("getting raw text: %w", err)
	}
	return data, nil
}
