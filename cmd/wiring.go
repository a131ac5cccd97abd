package cmd

import (
	"context"
	"fmt"
	"net/http"
	"time"

	elasticsearch "github.com/elastic/go-elasticsearch/v8"
	"github.com/spf13/viper"
	weaviateclient "github.com/weaviate/weaviate-go-client/v4/weaviate"

	"github.com/pkumv1/AgenticAI-1/src/core/agentflow"
	"github.com/pkumv1/AgenticAI-1/src/core/artifact"
	"github.com/pkumv1/AgenticAI-1/src/core/chunk"
	"github.com/pkumv1/AgenticAI-1/src/core/refineflow"
	"github.com/pkumv1/AgenticAI-1/src/core/session"
	"github.com/pkumv1/AgenticAI-1/src/core/vectorindex"
	"github.com/pkumv1/AgenticAI-1/src/fsutil"
	"github.com/pkumv1/AgenticAI-1/src/infrastructure/integrations/groq"
	"github.com/pkumv1/AgenticAI-1/src/infrastructure/integrations/ollama"
	"github.com/pkumv1/AgenticAI-1/src/infrastructure/integrations/unstructured"
	"github.com/pkumv1/AgenticAI-1/src/storage/elastic"
	"github.com/pkumv1/AgenticAI-1/src/storage/minioctrl"
	"github.com/pkumv1/AgenticAI-1/src/storage/weaviate"
)

// llmHTTPClient bounds every provider call with llm.timeout.
func llmHTTPClient() *http.Client {
	timeout, err := time.ParseDuration(viper.GetString("llm.timeout"))
	if err != nil || timeout <= 0 {
		timeout = 120 * time.Second
	}
	return &http.Client{Timeout: timeout}
}

func newOllamaClient() (*ollama.Client, error) {
	return ollama.NewClient(viper.GetString("ollama.url"), llmHTTPClient())
}

// newLLMProvider builds the reasoning provider selected by llm.provider
// and a liveness check for it. Groq has no cheap liveness endpoint
// through the completion client, so it always reports up.
func newLLMProvider() (session.LLMProvider, func(context.Context) bool, error) {
	switch provider := viper.GetString("llm.provider"); provider {
	case "ollama":
		client, err := newOllamaClient()
		if err != nil {
			return nil, nil, err
		}
		probe := func(ctx context.Context) bool {
			_, err := client.Models(ctx)
			return err == nil
		}
		return ollama.NewProvider(client, viper.GetString("ollama.model")), probe, nil
	case "groq":
		p, err := groq.NewProvider(
			viper.GetString("groq.api_key"),
			viper.GetString("groq.model"),
			groq.WithBaseURL(viper.GetString("groq.base_url")),
		)
		if err != nil {
			return nil, nil, err
		}
		return p, func(context.Context) bool { return true }, nil
	default:
		return nil, nil, fmt.Errorf("unknown llm provider: %q", provider)
	}
}

// newEmbedder builds the embedding provider. Embeddings always run on
// Ollama, whichever reasoning provider is selected.
func newEmbedder() (vectorindex.Embedder, error) {
	client, err := newOllamaClient()
	if err != nil {
		return nil, err
	}
	return ollama.NewEmbedder(client, viper.GetString("ollama.embed_model")), nil
}

// newSplitter builds the splitter selected by chunk.strategy.
func newSplitter() (chunk.Splitter, error) {
	size := viper.GetInt("chunk.size")
	overlap := viper.GetInt("chunk.overlap")

	switch strategy := viper.GetString("chunk.strategy"); strategy {
	case "window":
		return chunk.NewWindowSplitter(size, overlap)
	case "recursive":
		return chunk.NewRecursiveSplitter(size, overlap)
	default:
		return nil, fmt.Errorf("unknown chunk strategy: %q", strategy)
	}
}

// newIndexBuilder builds the index backend selected by index.backend and
// a liveness check for it.
func newIndexBuilder(embedder vectorindex.Embedder) (vectorindex.Builder, func(context.Context) bool, error) {
	alwaysUp := func(context.Context) bool { return true }

	switch backend := viper.GetString("index.backend"); backend {
	case "memory":
		return vectorindex.NewMemoryBuilder(embedder), alwaysUp, nil
	case "weaviate":
		client := weaviateclient.New(weaviateclient.Config{
			Host:   viper.GetString("weaviate.url"),
			Scheme: "http",
		})
		sdk := weaviate.NewSDK(client)

		var opts []weaviate.BuilderOption
		if viper.GetBool("weaviate.hybrid") {
			opts = append(opts, weaviate.WithHybridQueries())
		}
		return weaviate.NewBuilder(sdk, embedder, opts...), sdk.Live, nil
	case "elastic":
		client, err := elasticsearch.NewClient(elasticsearch.Config{
			Addresses: []string{viper.GetString("elastic.url")},
		})
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create elasticsearch client: %w", err)
		}
		sdk := elastic.NewSDK(client)
		return elastic.NewBuilder(sdk, embedder), sdk.Live, nil
	default:
		return nil, nil, fmt.Errorf("unknown index backend: %q", backend)
	}
}

// newExtractor wires the partition service when unstructured.url is set.
func newExtractor() (*artifact.Extractor, error) {
	baseURL := viper.GetString("unstructured.url")
	if baseURL == "" {
		return artifact.NewExtractor(), nil
	}

	svc, err := unstructured.NewService(baseURL, &http.Client{Timeout: 60 * time.Second})
	if err != nil {
		return nil, err
	}
	return artifact.NewExtractor(artifact.WithPartitioner(svc)), nil
}

// newArchive picks the artifact archive: local directory when
// archive.data_root is set, MinIO when minio.endpoint is set, none
// otherwise.
func newArchive(ctx context.Context) (session.ArtifactArchive, func(context.Context) bool, error) {
	if root := viper.GetString("archive.data_root"); root != "" {
		archive, err := fsutil.NewLocalArchive(root, nil)
		if err != nil {
			return nil, nil, err
		}
		return archive, archive.Healthy, nil
	}

	if endpoint := viper.GetString("minio.endpoint"); endpoint != "" {
		svc, err := minioctrl.NewMinioService(
			endpoint,
			viper.GetString("minio.access_key"),
			viper.GetString("minio.secret_key"),
			viper.GetBool("minio.use_ssl"),
		)
		if err != nil {
			return nil, nil, err
		}
		archive, err := minioctrl.NewArtifactArchive(ctx, svc)
		if err != nil {
			return nil, nil, err
		}
		return archive, archive.Healthy, nil
	}

	return nil, nil, nil
}

func newAgentOptions(llm session.LLMProvider) []agentflow.Option {
	opts := []agentflow.Option{
		agentflow.WithMaxIterations(viper.GetInt("agent.max_iterations")),
		agentflow.WithMaxParseRetries(viper.GetInt("agent.max_parse_retries")),
	}
	if viper.GetBool("agent.refine") {
		opts = append(opts, agentflow.WithRefiner(refineflow.NewRefineFlow(llm)))
	}
	return opts
}

func postgresDSN() string {
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s",
		viper.GetString("postgres.host"),
		viper.GetString("postgres.user"),
		viper.GetString("postgres.password"),
		viper.GetString("postgres.dbname"),
		viper.GetString("postgres.port"),
		viper.GetString("postgres.sslmode"))
}
