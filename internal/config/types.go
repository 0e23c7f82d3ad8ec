package config

// ProviderType identifies a remote model backend.
type ProviderType string

const (
	ProviderGemini ProviderType = "gemini"
	ProviderOpenAI ProviderType = "openai"
	ProviderOllama ProviderType = "ollama"
)

// StoreType selects the vector store backend.
type StoreType string

const (
	StoreChromem  StoreType = "chromem"
	StorePgvector StoreType = "pgvector"
)

type Config struct {
	LLM       LLMConfig       `yaml:"llm" koanf:"llm"`
	EmbedLLM  LLMConfig       `yaml:"embed_llm" koanf:"embed_llm"`
	Embedding EmbeddingConfig `yaml:"embedding" koanf:"embedding"`
	RAG       RAGConfig       `yaml:"rag" koanf:"rag"`
	Store     StoreConfig     `yaml:"store" koanf:"store"`
	Database  DatabaseConfig  `yaml:"database" koanf:"database"`
	Cache     CacheConfig     `yaml:"cache" koanf:"cache"`
	Server    ServerConfig    `yaml:"server" koanf:"server"`
	Log       LogConfig       `yaml:"log" koanf:"log"`
}

// LLMConfig describes one remote model endpoint. Key is never written to disk;
// it is resolved from APIKeyEnv at load time.
type LLMConfig struct {
	Provider  ProviderType `yaml:"provider" koanf:"provider"`
	BaseURL   string       `yaml:"base_url" koanf:"base_url"`
	Model     string       `yaml:"model" koanf:"model"`
	APIKeyEnv string       `yaml:"api_key_env" koanf:"api_key_env"`
	Key       string       `yaml:"-" koanf:"key"`
}

type EmbeddingConfig struct {
	Dimensions    int     `yaml:"dimensions" koanf:"dimensions"`
	MaxAttempts   int     `yaml:"max_attempts" koanf:"max_attempts"`
	BackoffSecs   float64 `yaml:"backoff_secs" koanf:"backoff_secs"`
	ThrottleSecs  float64 `yaml:"throttle_secs" koanf:"throttle_secs"`
	DocumentTitle string  `yaml:"document_title" koanf:"document_title"`
}

type RAGConfig struct {
	ChunkSize         int     `yaml:"chunk_size" koanf:"chunk_size"`
	ChunkOverlap      int     `yaml:"chunk_overlap" koanf:"chunk_overlap"`
	TopK              int     `yaml:"top_k" koanf:"top_k"`
	DistanceThreshold float32 `yaml:"distance_threshold" koanf:"distance_threshold"`
	Temperature       float64 `yaml:"temperature" koanf:"temperature"`
	DocumentPath      string  `yaml:"document_path" koanf:"document_path"`
}

type StoreConfig struct {
	Type          StoreType `yaml:"type" koanf:"type"`
	Path          string    `yaml:"path" koanf:"path"`
	Collection    string    `yaml:"collection" koanf:"collection"`
	Compress      bool      `yaml:"compress" koanf:"compress"`
	EncryptionKey string    `yaml:"encryption_key" koanf:"encryption_key"`
}

type DatabaseConfig struct {
	Driver   string `yaml:"driver" koanf:"driver"`
	DSN      string `yaml:"dsn" koanf:"dsn"`
	Password string `yaml:"password" koanf:"password"`
	Debug    bool   `yaml:"debug" koanf:"debug"`
}

type CacheConfig struct {
	Enabled  bool     `yaml:"enabled" koanf:"enabled"`
	Addrs    []string `yaml:"addrs" koanf:"addrs"`
	Password string   `yaml:"password" koanf:"password"`
	TTLSecs  int      `yaml:"ttl_secs" koanf:"ttl_secs"`
}

type ServerConfig struct {
	Addr           string   `yaml:"addr" koanf:"addr"`
	RequestTimeout int      `yaml:"request_timeout_secs" koanf:"request_timeout_secs"`
	CORSOrigins    []string `yaml:"cors_origins" koanf:"cors_origins"`
}

type LogConfig struct {
	Level string `yaml:"level" koanf:"level"`
	File  string `yaml:"file" koanf:"file"`
}
