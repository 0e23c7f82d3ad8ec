package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/rs/zerolog/log"
	yamlv3 "gopkg.in/yaml.v3"

	"docmate/internal/models"
)

const envPrefix = "DOCMATE_"

// LoadConfig reads the YAML file at path over the defaults, then applies
// DOCMATE_* environment overrides (DOCMATE_RAG__TOP_K -> rag.top_k) and
// resolves API keys. A missing file is not an error.
func LoadConfig(path string) (*Config, error) {
	// .env is optional; the key may come from the real environment
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Warn().Err(err).Msg("Could not read .env file")
	}

	k := koanf.New(".")
	cfg := DefaultConfig()

	if _, err := os.Stat(path); err == nil {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("accessing config %s: %w", path, err)
	}

	if err := k.Load(env.Provider(envPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("loading env overrides: %w", err)
	}

	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}

	cfg.LLM.Key = resolveKey(cfg.LLM)
	cfg.EmbedLLM.Key = resolveKey(cfg.EmbedLLM)

	return cfg, nil
}

func envKey(s string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, envPrefix)), "__", ".")
}

func resolveKey(c LLMConfig) string {
	if c.Key != "" {
		return c.Key
	}
	if c.APIKeyEnv == "" {
		return ""
	}
	return os.Getenv(c.APIKeyEnv)
}

// Save writes the configuration as YAML, creating the parent directory.
func (c *Config) Save(path string) error {
	data, err := yamlv3.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshalling config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}
	return nil
}

var validProviders = map[ProviderType]bool{
	ProviderGemini: true,
	ProviderOpenAI: true,
	ProviderOllama: true,
}

// Validate rejects settings the pipeline cannot run with. Every failure wraps
// models.ErrConfiguration.
func (c *Config) Validate() error {
	if err := ValidateChunking(c.RAG.ChunkSize, c.RAG.ChunkOverlap); err != nil {
		return err
	}
	if !validProviders[c.LLM.Provider] {
		return fmt.Errorf("%w: invalid llm provider %q", models.ErrConfiguration, c.LLM.Provider)
	}
	if !validProviders[c.EmbedLLM.Provider] {
		return fmt.Errorf("%w: invalid embed_llm provider %q", models.ErrConfiguration, c.EmbedLLM.Provider)
	}
	if c.RAG.TopK <= 0 {
		return fmt.Errorf("%w: rag.top_k must be positive, got %d", models.ErrConfiguration, c.RAG.TopK)
	}
	if c.RAG.DistanceThreshold <= 0 {
		return fmt.Errorf("%w: rag.distance_threshold must be positive", models.ErrConfiguration)
	}
	if c.Embedding.Dimensions <= 0 {
		return fmt.Errorf("%w: embedding.dimensions must be positive", models.ErrConfiguration)
	}
	if c.Embedding.MaxAttempts <= 0 {
		return fmt.Errorf("%w: embedding.max_attempts must be positive", models.ErrConfiguration)
	}
	switch c.Store.Type {
	case StoreChromem:
		if c.Store.Path == "" || c.Store.Collection == "" {
			return fmt.Errorf("%w: store.path and store.collection are required", models.ErrConfiguration)
		}
	case StorePgvector:
		if c.Database.DSN == "" {
			return fmt.Errorf("%w: database.dsn is required for the pgvector store", models.ErrConfiguration)
		}
	default:
		return fmt.Errorf("%w: invalid store type %q", models.ErrConfiguration, c.Store.Type)
	}
	if c.Cache.Enabled && len(c.Cache.Addrs) == 0 {
		return fmt.Errorf("%w: cache.addrs is required when the cache is enabled", models.ErrConfiguration)
	}
	return nil
}

// ValidateChunking rejects window settings that would never advance.
func ValidateChunking(chunkSize, overlap int) error {
	if chunkSize <= 0 {
		return fmt.Errorf("%w: chunk size must be positive, got %d", models.ErrConfiguration, chunkSize)
	}
	if overlap < 0 {
		return fmt.Errorf("%w: chunk overlap must not be negative, got %d", models.ErrConfiguration, overlap)
	}
	if overlap >= chunkSize {
		return fmt.Errorf("%w: chunk overlap (%d) must be smaller than chunk size (%d)", models.ErrConfiguration, overlap, chunkSize)
	}
	return nil
}

// RequireKey fails when a remote provider that needs a key has none.
func (c LLMConfig) RequireKey() error {
	if c.Provider == ProviderOllama || c.Key != "" {
		return nil
	}
	return fmt.Errorf("%w: no API key for %s provider (set %s)", models.ErrConfiguration, c.Provider, c.APIKeyEnv)
}
