package artifact

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/tmc/langchaingo/documentloaders"
	"github.com/tmc/langchaingo/schema"
	"github.com/xuri/excelize/v2"

	"github.com/pkumv1/AgenticAI-1/src/log"
)

// Partitioner converts formats the local loaders cannot read (word
// processor files, slides, images needing OCR) into page texts.
type Partitioner interface {
	Partition(ctx context.Context, filename string, data []byte) ([]Page, error)
}

// Extractor turns one artifact into normalized Content. Extraction
// failures are reported to the caller; there are no retries here.
type Extractor struct {
	partitioner Partitioner
}

type ExtractorOption func(e *Extractor)

// WithPartitioner enables extraction of presentation, word processor
// and image artifacts through an external partition service.
func WithPartitioner(p Partitioner) ExtractorOption {
	return func(e *Extractor) {
		e.partitioner = p
	}
}

func NewExtractor(opts ...ExtractorOption) *Extractor {
	e := &Extractor{}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Extract dispatches on the artifact kind. Unknown kinds fail with
// ErrUnsupportedKind so the caller can skip the artifact and continue
// with the rest.
func (e *Extractor) Extract(ctx context.Context, a Artifact) (Content, error) {
	log.Debug("extracting artifact", "name", a.Name, "kind", a.Kind.String())

	switch a.Kind {
	case KindDocument:
		return e.extractDocument(ctx, a)
	case KindSpreadsheet:
		return e.extractSpreadsheet(a)
	case KindPresentation, KindImage:
		return e.partition(ctx, a)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedKind, a.Name)
	}
}

func (e *Extractor) extractDocument(ctx context.Context, a Artifact) (Content, error) {
	switch strings.ToLower(filepath.Ext(a.Name)) {
	case ".pdf":
		loader := documentloaders.NewPDF(bytes.NewReader(a.Data), int64(len(a.Data)))
		docs, err := loader.Load(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to load pdf %s: %w", a.Name, err)
		}
		return pagesFromDocs(docs), nil
	case ".html", ".htm":
		loader := documentloaders.NewHTML(bytes.NewReader(a.Data))
		docs, err := loader.Load(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to load html %s: %w", a.Name, err)
		}
		return pagesFromDocs(docs), nil
	case ".docx":
		return e.partition(ctx, a)
	default:
		loader := documentloaders.NewText(bytes.NewReader(a.Data))
		docs, err := loader.Load(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to load text %s: %w", a.Name, err)
		}
		return pagesFromDocs(docs), nil
	}
}

func (e *Extractor) extractSpreadsheet(a Artifact) (Content, error) {
	var records [][]string
	if strings.ToLower(filepath.Ext(a.Name)) == ".csv" {
		reader := csv.NewReader(bytes.NewReader(a.Data))
		var err error
		records, err = reader.ReadAll()
		if err != nil {
			return nil, fmt.Errorf("failed to parse csv %s: %w", a.Name, err)
		}
	} else {
		f, err := excelize.OpenReader(bytes.NewReader(a.Data))
		if err != nil {
			return nil, fmt.Errorf("failed to open workbook %s: %w", a.Name, err)
		}
		defer f.Close()

		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, fmt.Errorf("workbook %s has no sheets", a.Name)
		}
		records, err = f.GetRows(sheets[0])
		if err != nil {
			return nil, fmt.Errorf("failed to read sheet %s: %w", a.Name, err)
		}
	}

	if len(records) == 0 {
		return nil, fmt.Errorf("spreadsheet %s is empty", a.Name)
	}

	table := &Table{Columns: records[0]}
	for _, row := range records[1:] {
		table.Rows = append(table.Rows, normalizeRow(row, len(table.Columns)))
	}
	return table, nil
}

func (e *Extractor) partition(ctx context.Context, a Artifact) (Content, error) {
	if e.partitioner == nil {
		return nil, fmt.Errorf("no partition service configured for %s artifact %s", a.Kind, a.Name)
	}
	pages, err := e.partitioner.Partition(ctx, a.Name, a.Data)
	if err != nil {
		return nil, fmt.Errorf("failed to partition %s: %w", a.Name, err)
	}
	if len(pages) == 0 {
		// OCR on images is best effort and may legitimately find nothing.
		pages = []Page{{Number: 1, Text: ""}}
	}
	return &PlainText{Pages: pages}, nil
}

func pagesFromDocs(docs []schema.Document) *PlainText {
	text := &PlainText{}
	for i, doc := range docs {
		text.Pages = append(text.Pages, Page{Number: i + 1, Text: doc.PageContent})
	}
	return text
}

// Rows shorter than the header are padded; cells beyond it are dropped.
func normalizeRow(row []string, width int) []string {
	out := make([]string, width)
	for i := 0; i < width && i < len(row); i++ {
		out[i] = row[i]
	}
	return out
}
