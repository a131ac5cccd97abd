/*
Copyright © 2024 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pkumv1/AgenticAI-1/src/core/chunk"
	"github.com/pkumv1/AgenticAI-1/src/core/vectorindex"
	"github.com/pkumv1/AgenticAI-1/src/fsutil"
	"github.com/pkumv1/AgenticAI-1/src/log"
)

// evaluateCmd represents the evaluate command
var evaluateCmd = &cobra.Command{
	Use:   "evaluate",
	Short: "Measure retrieval recall against a labeled dataset",
	Long: `The evaluate command indexes a corpus of pre-chunked documents with the
configured backend, runs every dataset query through top-k retrieval and
reports the average recall of the golden chunks.`,
	RunE: runEvaluate,
}

func init() {
	rootCmd.AddCommand(evaluateCmd)
	settingDefaultConfig()

	evaluateCmd.Flags().StringP("corpus", "c", "", "Corpus JSONL file path")
	evaluateCmd.MarkFlagRequired("corpus")
	evaluateCmd.Flags().StringP("dataset", "d", "", "Evaluation JSONL file path")
	evaluateCmd.MarkFlagRequired("dataset")
	evaluateCmd.Flags().IntP("top-k", "k", 5, "Chunks retrieved per query")
}

// CorpusDoc is one corpus line: a document with its pre-cut chunks.
type CorpusDoc struct {
	ID      string        `json:"doc_id"`
	Content string        `json:"content"`
	Chunks  []CorpusChunk `json:"chunks"`
}

type CorpusChunk struct {
	Index   int    `json:"index"`
	Content string `json:"content"`
}

// EvalQuery is one dataset line: a query with the chunks a perfect
// retriever would return.
type EvalQuery struct {
	Query        string     `json:"query"`
	GoldenChunks []ChunkRef `json:"golden_chunks"`
}

// ChunkRef addresses one corpus chunk as a ["doc_id", index] tuple.
type ChunkRef struct {
	DocID string
	Index int
}

func (r *ChunkRef) UnmarshalJSON(data []byte) error {
	var temp []interface{}

	if err := json.Unmarshal(data, &temp); err != nil {
		return err
	}

	if len(temp) != 2 {
		return fmt.Errorf("ChunkRef must have exactly 2 elements")
	}

	docID, ok := temp[0].(string)
	if !ok {
		return fmt.Errorf("first element must be a string")
	}

	index, ok := temp[1].(float64)
	if !ok {
		return fmt.Errorf("second element must be a number")
	}

	r.DocID = docID
	r.Index = int(index)

	return nil
}

func runEvaluate(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	corpusPath, _ := cmd.Flags().GetString("corpus")
	datasetPath, _ := cmd.Flags().GetString("dataset")
	topK, _ := cmd.Flags().GetInt("top-k")

	embedder, err := newEmbedder()
	if err != nil {
		return err
	}
	builder, _, err := newIndexBuilder(embedder)
	if err != nil {
		return err
	}

	fs := fsutil.NewLocalFileStore()

	// Flatten the corpus into one chunk set, addressed by doc_id and
	// chunk index
	chunks, err := loadCorpusChunks(fs, corpusPath)
	if err != nil {
		return err
	}
	if len(chunks) == 0 {
		return fmt.Errorf("corpus %s contains no chunks", corpusPath)
	}

	log.Info("Indexing corpus", "chunks", len(chunks), "backend", viper.GetString("index.backend"))
	index, err := builder.Build(ctx, chunks)
	if err != nil {
		return fmt.Errorf("failed to index corpus: %w", err)
	}
	defer func() {
		if destroyer, ok := index.(vectorindex.Destroyer); ok {
			if err := destroyer.Destroy(ctx); err != nil {
				log.Error(err, "Failed to clean up evaluation index")
			}
		}
	}()

	queries, err := loadEvalQueries(fs, datasetPath)
	if err != nil {
		return err
	}
	if len(queries) == 0 {
		return fmt.Errorf("dataset %s contains no queries", datasetPath)
	}

	bar := progressbar.NewOptions(len(queries),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionSetDescription("evaluating"),
		progressbar.OptionShowCount(),
		progressbar.OptionClearOnFinish(),
	)

	var totalRecall float64
	var evaluated int
	for _, q := range queries {
		_ = bar.Add(1)
		if len(q.GoldenChunks) == 0 {
			continue
		}

		hits, err := index.Query(ctx, q.Query, topK)
		if err != nil {
			log.Error(err, "Failed to retrieve chunks", "query", q.Query)
			continue
		}

		var matches int
		for _, golden := range q.GoldenChunks {
			for _, hit := range hits {
				if hit.Chunk.Source == golden.DocID && hit.Chunk.Seq == golden.Index {
					matches++
					break
				}
			}
		}

		totalRecall += float64(matches) / float64(len(q.GoldenChunks))
		evaluated++
	}
	_ = bar.Finish()

	if evaluated == 0 {
		return fmt.Errorf("no queries were evaluated")
	}

	fmt.Printf("Evaluation Results:\n")
	fmt.Printf("Queries evaluated: %d\n", evaluated)
	fmt.Printf("Recall@%d: %.2f%%\n", topK, totalRecall/float64(evaluated)*100)

	return nil
}

func loadCorpusChunks(fs fsutil.FileStore, path string) ([]chunk.Chunk, error) {
	stream, err := fs.ReadFileAsStream(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open corpus: %w", err)
	}
	defer stream.Close()

	var chunks []chunk.Chunk
	scanner := bufio.NewScanner(stream)
	scanner.Buffer(make([]byte, 4*1024*1024), 4*1024*1024)
	for scanner.Scan() {
		if len(scanner.Bytes()) == 0 {
			continue
		}
		var doc CorpusDoc
		if err := json.Unmarshal(scanner.Bytes(), &doc); err != nil {
			return nil, fmt.Errorf("failed to parse corpus line: %w", err)
		}
		for _, c := range doc.Chunks {
			chunks = append(chunks, chunk.Chunk{
				Source: doc.ID,
				Seq:    c.Index,
				Text:   c.Content,
			})
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read corpus: %w", err)
	}
	return chunks, nil
}

func loadEvalQueries(fs fsutil.FileStore, path string) ([]EvalQuery, error) {
	stream, err := fs.ReadFileAsStream(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open dataset: %w", err)
	}
	defer stream.Close()

	var queries []EvalQuery
	scanner := bufio.NewScanner(stream)
	scanner.Buffer(make([]byte, 4*1024*1024), 4*1024*1024)
	for scanner.Scan() {
		if len(scanner.Bytes()) == 0 {
			continue
		}
		var q EvalQuery
		if err := json.Unmarshal(scanner.Bytes(), &q); err != nil {
			return nil, fmt.Errorf("failed to parse dataset line: %w", err)
		}
		queries = append(queries, q)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read dataset: %w", err)
	}
	return queries, nil
}
