package chunk

import (
	"errors"
	"fmt"
	"unicode/utf8"

	"github.com/tmc/langchaingo/textsplitter"
)

var ErrInvalidConfig = errors.New("invalid chunk configuration")

const (
	DefaultSize    = 1000
	DefaultOverlap = 200
)

// Chunk is one bounded, overlapping slice of an artifact's text. It is
// the unit of retrieval and immutable once created.
type Chunk struct {
	Source string
	Seq    int
	Text   string
}

// Splitter produces the retrieval chunks for one source text.
type Splitter interface {
	Split(source, text string) ([]Chunk, error)
}

// WindowSplitter cuts fixed rune windows where each window starts
// exactly overlap runes before the previous one ends. Splitting is
// deterministic and pure, and de-overlapped concatenation of the
// chunks reconstructs the input.
type WindowSplitter struct {
	size    int
	overlap int
}

func NewWindowSplitter(size, overlap int) (*WindowSplitter, error) {
	if err := validate(size, overlap); err != nil {
		return nil, err
	}
	return &WindowSplitter{size: size, overlap: overlap}, nil
}

func (s *WindowSplitter) Split(source, text string) ([]Chunk, error) {
	runes := []rune(text)
	if len(runes) == 0 {
		return nil, nil
	}

	var chunks []Chunk
	step := s.size - s.overlap
	for start := 0; start < len(runes); start += step {
		end := start + s.size
		if end > len(runes) {
			end = len(runes)
		}
		chunks = append(chunks, Chunk{
			Source: source,
			Seq:    len(chunks),
			Text:   string(runes[start:end]),
		})
		if end == len(runes) {
			break
		}
	}
	return chunks, nil
}

// RecursiveSplitter delegates to the recursive character splitter,
// which prefers paragraph and sentence boundaries over exact window
// positions. Chunk sizes still respect the configured maximum but the
// exact-overlap guarantee of WindowSplitter does not hold.
type RecursiveSplitter struct {
	splitter textsplitter.RecursiveCharacter
}

func NewRecursiveSplitter(size, overlap int) (*RecursiveSplitter, error) {
	if err := validate(size, overlap); err != nil {
		return nil, err
	}
	return &RecursiveSplitter{
		splitter: textsplitter.NewRecursiveCharacter(
			textsplitter.WithChunkSize(size),
			textsplitter.WithChunkOverlap(overlap),
			textsplitter.WithLenFunc(utf8.RuneCountInString),
		),
	}, nil
}

func (s *RecursiveSplitter) Split(source, text string) ([]Chunk, error) {
	parts, err := s.splitter.SplitText(text)
	if err != nil {
		return nil, fmt.Errorf("failed to split text: %w", err)
	}

	var chunks []Chunk
	for _, part := range parts {
		if part == "" {
			continue
		}
		chunks = append(chunks, Chunk{
			Source: source,
			Seq:    len(chunks),
			Text:   part,
		})
	}
	return chunks, nil
}

func validate(size, overlap int) error {
	if size <= 0 {
		return fmt.Errorf("%w: size must be positive, got %d", ErrInvalidConfig, size)
	}
	if overlap < 0 || overlap >= size {
		return fmt.Errorf("%w: overlap %d must be non-negative and smaller than size %d", ErrInvalidConfig, overlap, size)
	}
	return nil
}
