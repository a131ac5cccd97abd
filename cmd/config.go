package cmd

import "github.com/spf13/viper"

func settingDefaultConfig() {
	// Enable automatic environment variable binding
	viper.AutomaticEnv()

	// Map environment variables to Viper keys for the LLM providers
	viper.BindEnv("llm.provider", "LLM_PROVIDER")
	viper.BindEnv("llm.timeout", "LLM_TIMEOUT")
	viper.BindEnv("ollama.url", "OLLAMA_URL")
	viper.BindEnv("ollama.model", "OLLAMA_MODEL")
	viper.BindEnv("ollama.embed_model", "OLLAMA_EMBED_MODEL")
	viper.BindEnv("groq.base_url", "GROQ_BASE_URL")
	viper.BindEnv("groq.api_key", "GROQ_API_KEY")
	viper.BindEnv("groq.model", "GROQ_MODEL")

	// Set default values for the LLM providers
	viper.SetDefault("llm.provider", "ollama")
	viper.SetDefault("llm.timeout", "120s")
	viper.SetDefault("ollama.url", "http://localhost:11434")
	viper.SetDefault("ollama.model", "phi4")
	viper.SetDefault("ollama.embed_model", "nomic-embed-text")
	viper.SetDefault("groq.base_url", "https://api.groq.com/openai/v1")
	viper.SetDefault("groq.model", "llama-3.3-70b-versatile")

	// Map environment variables to Viper keys for chunking and retrieval
	viper.BindEnv("chunk.size", "CHUNK_SIZE")
	viper.BindEnv("chunk.overlap", "CHUNK_OVERLAP")
	viper.BindEnv("chunk.strategy", "CHUNK_STRATEGY")
	viper.BindEnv("retrieve.top_k", "RETRIEVE_TOP_K")
	viper.BindEnv("ingest.workers", "INGEST_WORKERS")

	// Set default values for chunking and retrieval
	viper.SetDefault("chunk.size", 1000)
	viper.SetDefault("chunk.overlap", 200)
	viper.SetDefault("chunk.strategy", "window")
	viper.SetDefault("retrieve.top_k", 4)
	viper.SetDefault("ingest.workers", 4)

	// Map environment variables to Viper keys for the agent loop
	viper.BindEnv("agent.max_iterations", "AGENT_MAX_ITERATIONS")
	viper.BindEnv("agent.max_parse_retries", "AGENT_MAX_PARSE_RETRIES")
	viper.BindEnv("agent.refine", "AGENT_REFINE")

	// Set default values for the agent loop
	viper.SetDefault("agent.max_iterations", 8)
	viper.SetDefault("agent.max_parse_retries", 2)
	viper.SetDefault("agent.refine", false)

	// Index backend: memory, weaviate or elastic
	viper.BindEnv("index.backend", "INDEX_BACKEND")
	viper.SetDefault("index.backend", "memory")

	viper.BindEnv("weaviate.url", "WEAVIATE_URL")
	viper.BindEnv("weaviate.hybrid", "WEAVIATE_HYBRID")
	viper.SetDefault("weaviate.url", "localhost:8080")
	viper.SetDefault("weaviate.hybrid", false)

	viper.BindEnv("elastic.url", "ELASTIC_URL")
	viper.SetDefault("elastic.url", "http://localhost:9200")

	// Partition service for presentations, word documents and images
	viper.BindEnv("unstructured.url", "UNSTRUCTURED_API_URL")
	viper.SetDefault("unstructured.url", "")

	// Artifact archive: local directory when archive.data_root is set,
	// MinIO when minio.endpoint is set, disabled otherwise
	viper.BindEnv("archive.data_root", "ARCHIVE_DATA_ROOT")
	viper.SetDefault("archive.data_root", "")

	viper.BindEnv("minio.endpoint", "MINIO_ENDPOINT")
	viper.BindEnv("minio.access_key", "MINIO_ACCESS_KEY")
	viper.BindEnv("minio.secret_key", "MINIO_SECRET_KEY")
	viper.BindEnv("minio.use_ssl", "MINIO_USE_SSL")
	viper.SetDefault("minio.endpoint", "")
	viper.SetDefault("minio.access_key", "minioadmin")
	viper.SetDefault("minio.secret_key", "minioadmin")
	viper.SetDefault("minio.use_ssl", false)

	// Map environment variables to Viper keys for PostgreSQL
	viper.BindEnv("postgres.host", "POSTGRES_HOST")
	viper.BindEnv("postgres.port", "POSTGRES_PORT")
	viper.BindEnv("postgres.user", "POSTGRES_USER")
	viper.BindEnv("postgres.password", "POSTGRES_PASSWORD")
	viper.BindEnv("postgres.dbname", "POSTGRES_DB")
	viper.BindEnv("postgres.sslmode", "POSTGRES_SSLMODE")

	// Set default values for PostgreSQL
	viper.SetDefault("postgres.host", "localhost")
	viper.SetDefault("postgres.port", "5432")
	viper.SetDefault("postgres.user", "postgres")
	viper.SetDefault("postgres.password", "postgres")
	viper.SetDefault("postgres.dbname", "agentic")
	viper.SetDefault("postgres.sslmode", "disable")

	// Transcript archival is active only when amqp.url is set
	viper.BindEnv("amqp.url", "AMQP_URL")
	viper.SetDefault("amqp.url", "")

	// Map environment variables to Viper keys for the HTTP server
	viper.BindEnv("server.port", "SERVER_PORT")
	viper.BindEnv("server.shutdown_timeout", "SERVER_SHUTDOWN_TIMEOUT")

	// Set default values for the HTTP server
	viper.SetDefault("server.port", "8080")
	viper.SetDefault("server.shutdown_timeout", "5s")
}
