package unstructured

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"sort"

	"github.com/pkumv1/AgenticAI-1/src/core/artifact"
	"github.com/pkumv1/AgenticAI-1/src/log"
)

// Element is one partitioned piece of a document as returned by the
// unstructured API.
type Element struct {
	Type     string   `json:"type"`
	Text     string   `json:"text"`
	Metadata Metadata `json:"metadata"`
}

type Metadata struct {
	Filename   string `json:"filename,omitempty"`
	Filetype   string `json:"filetype,omitempty"`
	PageNumber int    `json:"page_number,omitempty"`
}

// Service calls the unstructured partition API for formats the local
// loaders cannot read: word processor files, slides and images.
type Service struct {
	baseURL    string
	httpClient *http.Client
}

func NewService(baseURL string, httpClient *http.Client) (*Service, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("partition service url is required")
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	return &Service{
		baseURL:    baseURL,
		httpClient: httpClient,
	}, nil
}

// Partition sends the file to the partition API and groups the
// returned elements into pages. It satisfies artifact.Partitioner.
func (s *Service) Partition(ctx context.Context, filename string, data []byte) ([]artifact.Page, error) {
	elements, err := s.partition(ctx, filename, data)
	if err != nil {
		return nil, err
	}
	return groupByPage(elements), nil
}

func (s *Service) partition(ctx context.Context, filename string, data []byte) ([]Element, error) {
	var requestBody bytes.Buffer
	multipartWriter := multipart.NewWriter(&requestBody)

	fileWriter, err := multipartWriter.CreateFormFile("files", filename)
	if err != nil {
		return nil, fmt.Errorf("failed to create form file: %v", err)
	}
	if _, err = io.Copy(fileWriter, bytes.NewReader(data)); err != nil {
		return nil, fmt.Errorf("failed to write file content: %v", err)
	}

	if err := multipartWriter.WriteField("strategy", "auto"); err != nil {
		return nil, fmt.Errorf("failed to write strategy field: %v", err)
	}
	if err := multipartWriter.WriteField("output_format", "application/json"); err != nil {
		return nil, fmt.Errorf("failed to write output format: %v", err)
	}
	multipartWriter.Close()

	httpReq, err := http.NewRequestWithContext(ctx, "POST", s.baseURL+"/general/v0/general", &requestBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %v", err)
	}
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("Content-Type", multipartWriter.FormDataContentType())

	resp, err := s.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		log.Error(fmt.Errorf("partition service error"), "partition request failed",
			"status", resp.Status,
			"filename", filename,
			"body", string(body),
		)
		return nil, fmt.Errorf("partition service error: %s", resp.Status)
	}

	var elements []Element
	if err := json.NewDecoder(resp.Body).Decode(&elements); err != nil {
		return nil, fmt.Errorf("failed to parse response: %v", err)
	}
	return elements, nil
}

// groupByPage joins element texts per page number, ascending.
// Elements without a page number land on page one.
func groupByPage(elements []Element) []artifact.Page {
	texts := make(map[int][]string)
	for _, el := range elements {
		if el.Text == "" {
			continue
		}
		page := el.Metadata.PageNumber
		if page < 1 {
			page = 1
		}
		texts[page] = append(texts[page], el.Text)
	}

	numbers := make([]int, 0, len(texts))
	for number := range texts {
		numbers = append(numbers, number)
	}
	sort.Ints(numbers)

	pages := make([]artifact.Page, 0, len(numbers))
	for _, number := range numbers {
		pages = append(pages, artifact.Page{
			Number: number,
			Text:   joinTexts(texts[number]),
		})
	}
	return pages
}

func joinTexts(texts []string) string {
	out := texts[0]
	for _, t := range texts[1:] {
		out += "\n\n" + t
	}
	return out
}
