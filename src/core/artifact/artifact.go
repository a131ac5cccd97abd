package artifact

import (
	"errors"
	"path/filepath"
	"strings"
)

var ErrUnsupportedKind = errors.New("unsupported artifact kind")

// Kind classifies an uploaded artifact. Extraction dispatches on it
// exhaustively; adding a kind means adding a variant and a handler.
type Kind int

const (
	KindUnknown Kind = iota
	KindDocument
	KindSpreadsheet
	KindPresentation
	KindImage
)

func (k Kind) String() string {
	switch k {
	case KindDocument:
		return "document"
	case KindSpreadsheet:
		return "spreadsheet"
	case KindPresentation:
		return "presentation"
	case KindImage:
		return "image"
	default:
		return "unknown"
	}
}

// KindFromName maps a filename extension to a Kind.
func KindFromName(name string) Kind {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".pdf", ".txt", ".md", ".html", ".htm", ".docx":
		return KindDocument
	case ".csv", ".xls", ".xlsx":
		return KindSpreadsheet
	case ".pptx", ".ppt":
		return KindPresentation
	case ".jpg", ".jpeg", ".png":
		return KindImage
	default:
		return KindUnknown
	}
}

// Artifact is one uploaded item. It is consumed exactly once by the
// extractor and not retained afterwards.
type Artifact struct {
	Name string
	Kind Kind
	Data []byte
}

// New builds an Artifact, deriving the kind from the name.
func New(name string, data []byte) Artifact {
	return Artifact{
		Name: name,
		Kind: KindFromName(name),
		Data: data,
	}
}

// Content is what extraction produces: either page texts or a table.
type Content interface {
	content()
}

// Page is one page-level text segment of an extracted document.
type Page struct {
	Number int
	Text   string
}

// PlainText is the textual content variant, ordered by page.
type PlainText struct {
	Pages []Page
}

func (*PlainText) content() {}

// Text joins all pages into a single string for chunking.
func (p *PlainText) Text() string {
	parts := make([]string, 0, len(p.Pages))
	for _, page := range p.Pages {
		parts = append(parts, page.Text)
	}
	return strings.Join(parts, "\n\n")
}

// Empty reports whether no page carries any non-whitespace text.
func (p *PlainText) Empty() bool {
	for _, page := range p.Pages {
		if strings.TrimSpace(page.Text) != "" {
			return false
		}
	}
	return true
}

// Table is the tabular content variant: a header row of column names
// plus data rows. Read-only after extraction.
type Table struct {
	Columns []string
	Rows    [][]string
}

func (*Table) content() {}

// ColumnIndex resolves a column name case-insensitively.
func (t *Table) ColumnIndex(name string) (int, bool) {
	for i, c := range t.Columns {
		if strings.EqualFold(strings.TrimSpace(c), strings.TrimSpace(name)) {
			return i, true
		}
	}
	return 0, false
}
