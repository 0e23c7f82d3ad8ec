package config

const (
	DefaultConfigPath = "./configs/config.yaml"

	defaultChunkSize    = 3000 // characters
	defaultChunkOverlap = 600  // characters
	defaultVectorSize   = 768
)

// DefaultConfig returns the settings the pipeline runs with when no file is present.
func DefaultConfig() *Config {
	return &Config{
		LLM: LLMConfig{
			Provider:  ProviderGemini,
			BaseURL:   "https://generativelanguage.googleapis.com/v1beta/openai/",
			Model:     "gemini-2.0-flash",
			APIKeyEnv: "API_KEY",
		},
		EmbedLLM: LLMConfig{
			Provider:  ProviderGemini,
			BaseURL:   "https://generativelanguage.googleapis.com/v1beta",
			Model:     "models/embedding-001",
			APIKeyEnv: "API_KEY",
		},
		Embedding: EmbeddingConfig{
			Dimensions:    defaultVectorSize,
			MaxAttempts:   3,
			BackoffSecs:   2,
			ThrottleSecs:  0.5,
			DocumentTitle: "RAG chunk",
		},
		RAG: RAGConfig{
			ChunkSize:         defaultChunkSize,
			ChunkOverlap:      defaultChunkOverlap,
			TopK:              5,
			DistanceThreshold: 0.6,
			Temperature:       0.2,
			DocumentPath:      "data/chattbot.pdf",
		},
		Store: StoreConfig{
			Type:       StoreChromem,
			Path:       "chroma_db",
			Collection: "my_texts",
		},
		Database: DatabaseConfig{
			Driver: "pgdriver",
		},
		Cache: CacheConfig{
			Addrs:   []string{"127.0.0.1:6379"},
			TTLSecs: 86400,
		},
		Server: ServerConfig{
			Addr:           ":8080",
			RequestTimeout: 60,
			CORSOrigins:    []string{"http://localhost:*", "http://127.0.0.1:*"},
		},
		Log: LogConfig{
			Level: "debug",
			File:  "docmate.log",
		},
	}
}
