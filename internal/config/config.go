package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// AppInfo holds basic application metadata.
type AppInfo struct {
	Name        string `yaml:"name"`
	Version     string `yaml:"version"`
	Environment string `yaml:"environment"`
}

// LoggerConfig controls the log level.
type LoggerConfig struct {
	Level string `yaml:"level"`
}

// ServerConfig configures the HTTP surface.
type ServerConfig struct {
	Address string `yaml:"address"`
}

// MilvusConfig configures the Milvus-backed session index.
type MilvusConfig struct {
	Address string `yaml:"address"`
	// Dim is the embedding dimensionality every session collection is
	// created with. It must match the configured embedding model.
	Dim int `yaml:"dim"`
}

// RedisConfig configures the optional Redis history store.
type RedisConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Address  string `yaml:"address"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// EmbeddingConfig selects and configures the embedding provider.
type EmbeddingConfig struct {
	Provider string `yaml:"provider"` // "ollama" or "openai"
	Model    string `yaml:"model"`
	BaseURL  string `yaml:"baseURL"`
	APIKey   string `yaml:"apiKey"`
}

// RetryConfig bounds retries against the completion and embedding services.
type RetryConfig struct {
	MaxAttempts int    `yaml:"maxAttempts"`
	BaseBackoff string `yaml:"baseBackoff"` // e.g. "500ms"
	MaxBackoff  string `yaml:"maxBackoff"`  // e.g. "8s"
}

// BaseBackoffDuration parses BaseBackoff, defaulting to 500ms.
func (r RetryConfig) BaseBackoffDuration() time.Duration {
	d, err := time.ParseDuration(r.BaseBackoff)
	if err != nil || d <= 0 {
		return 500 * time.Millisecond
	}
	return d
}

// MaxBackoffDuration parses MaxBackoff, defaulting to 8s.
func (r RetryConfig) MaxBackoffDuration() time.Duration {
	d, err := time.ParseDuration(r.MaxBackoff)
	if err != nil || d <= 0 {
		return 8 * time.Second
	}
	return d
}

// LLMConfig selects and configures the completion provider.
type LLMConfig struct {
	Provider    string      `yaml:"provider"` // "ollama" or "openai"
	Model       string      `yaml:"model"`
	BaseURL     string      `yaml:"baseURL"`
	APIKey      string      `yaml:"apiKey"`
	Temperature float32     `yaml:"temperature"`
	Retry       RetryConfig `yaml:"retry"`
}

// ChunkingConfig controls how extracted text is split.
type ChunkingConfig struct {
	Size    int `yaml:"size"`    // target chunk size in runes
	Overlap int `yaml:"overlap"` // overlap between neighbours in runes
	MinLen  int `yaml:"minLen"`  // fragments shorter than this are dropped
}

// RetrievalConfig controls the query path.
type RetrievalConfig struct {
	// TopK is the over-fetch count requested from the index.
	TopK int `yaml:"topK"`
	// FinalN is the number of chunks kept after reranking for synthesis.
	FinalN int `yaml:"finalN"`
	// ContextBudget caps the total characters of context in the prompt.
	ContextBudget int `yaml:"contextBudget"`
}

// ThemesConfig controls theme analysis.
type ThemesConfig struct {
	// MinChunks is the minimum session size before clustering is attempted.
	MinChunks int `yaml:"minChunks"`
	// SimilarityThreshold is the cosine similarity above which two
	// clusters merge.
	SimilarityThreshold float32 `yaml:"similarityThreshold"`
	// Representatives bounds the chunks sent to the completion service
	// per cluster.
	Representatives int `yaml:"representatives"`
	// MinClusterSize folds smaller clusters into the miscellaneous theme.
	MinClusterSize int `yaml:"minClusterSize"`
}

// SessionsConfig controls session lifecycle.
type SessionsConfig struct {
	HistoryCap int    `yaml:"historyCap"`
	IdleTTL    string `yaml:"idleTTL"` // "0" disables reaping
	// IngestParallelism bounds concurrent per-document extraction+chunking.
	IngestParallelism int `yaml:"ingestParallelism"`
}

// IdleTTLDuration parses IdleTTL, defaulting to 30 minutes. Zero disables
// the reaper.
func (s SessionsConfig) IdleTTLDuration() time.Duration {
	if s.IdleTTL == "" {
		return 30 * time.Minute
	}
	d, err := time.ParseDuration(s.IdleTTL)
	if err != nil || d < 0 {
		return 30 * time.Minute
	}
	return d
}

// AppConfig is the root of the YAML configuration file.
type AppConfig struct {
	App       AppInfo         `yaml:"app"`
	Logger    LoggerConfig    `yaml:"logger"`
	Server    ServerConfig    `yaml:"server"`
	Milvus    MilvusConfig    `yaml:"milvus"`
	Redis     RedisConfig     `yaml:"redis"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	LLM       LLMConfig       `yaml:"llm"`
	Chunking  ChunkingConfig  `yaml:"chunking"`
	Retrieval RetrievalConfig `yaml:"retrieval"`
	Themes    ThemesConfig    `yaml:"themes"`
	Sessions  SessionsConfig  `yaml:"sessions"`
}

// Load reads and parses the YAML configuration file at path, then fills in
// defaults for anything left unset.
func Load(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var cfg AppConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	cfg.ApplyDefaults()
	return &cfg, nil
}

// ApplyDefaults fills zero values with working defaults so a minimal
// config file is enough to run.
func (c *AppConfig) ApplyDefaults() {
	if c.Server.Address == "" {
		c.Server.Address = ":8080"
	}
	if c.Logger.Level == "" {
		c.Logger.Level = "info"
	}
	if c.Chunking.Size <= 0 {
		c.Chunking.Size = 1000
	}
	if c.Chunking.Overlap <= 0 {
		c.Chunking.Overlap = c.Chunking.Size / 5
	}
	if c.Chunking.MinLen <= 0 {
		c.Chunking.MinLen = 50
	}
	if c.Retrieval.TopK <= 0 {
		c.Retrieval.TopK = 20
	}
	if c.Retrieval.FinalN <= 0 {
		c.Retrieval.FinalN = 5
	}
	if c.Retrieval.ContextBudget <= 0 {
		c.Retrieval.ContextBudget = 7000
	}
	if c.Themes.MinChunks <= 0 {
		c.Themes.MinChunks = 4
	}
	if c.Themes.SimilarityThreshold <= 0 {
		c.Themes.SimilarityThreshold = 0.55
	}
	if c.Themes.Representatives <= 0 {
		c.Themes.Representatives = 8
	}
	if c.Themes.MinClusterSize <= 0 {
		c.Themes.MinClusterSize = 2
	}
	if c.Sessions.HistoryCap <= 0 {
		c.Sessions.HistoryCap = 20
	}
	if c.Sessions.IngestParallelism <= 0 {
		c.Sessions.IngestParallelism = 4
	}
	if c.LLM.Retry.MaxAttempts <= 0 {
		c.LLM.Retry.MaxAttempts = 3
	}
}
