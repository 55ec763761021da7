package config

import (
	"errors"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// LLMConfig configures the embedding model endpoint.
type LLMConfig struct {
	BaseURL  string `yaml:"base_url"`
	Model    string `yaml:"model"`
	CacheDir string `yaml:"cache_dir"`
}

// RetrievalConfig configures the corpus, the persisted index and query defaults.
type RetrievalConfig struct {
	CorpusDir  string `yaml:"corpus_dir"`
	IndexPath  string `yaml:"index_path"`
	Collection string `yaml:"collection"`
	DefaultK   int    `yaml:"default_k"`
}

type Config struct {
	EmbedLLM   LLMConfig       `yaml:"embed_llm"`
	Retrieval  RetrievalConfig `yaml:"retrieval"`
	ListenAddr string          `yaml:"listen_addr"`
}

// LoadConfig reads a YAML config from path. A missing file is not an error;
// defaults are returned so the engine can run unconfigured.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			cfg := &Config{}
			applyDefaults(cfg)
			applyEnv(cfg)
			return cfg, nil
		}
		return nil, err
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	applyDefaults(&cfg)
	applyEnv(&cfg)
	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.EmbedLLM.BaseURL == "" {
		cfg.EmbedLLM.BaseURL = "http://localhost:11434"
	}
	if cfg.EmbedLLM.Model == "" {
		cfg.EmbedLLM.Model = "nomic-embed-text"
	}
	if cfg.EmbedLLM.CacheDir == "" {
		cfg.EmbedLLM.CacheDir = "./model_cache"
	}
	if cfg.Retrieval.CorpusDir == "" {
		cfg.Retrieval.CorpusDir = "./datasets"
	}
	if cfg.Retrieval.IndexPath == "" {
		cfg.Retrieval.IndexPath = "./vectorindex"
	}
	if cfg.Retrieval.Collection == "" {
		cfg.Retrieval.Collection = "knowledge"
	}
	if cfg.Retrieval.DefaultK <= 0 {
		cfg.Retrieval.DefaultK = 3
	}
	if cfg.ListenAddr == "" {
		cfg.ListenAddr = ":8090"
	}
}

// applyEnv lets the process environment override file values, mirroring how
// the surrounding deployment passes settings.
func applyEnv(cfg *Config) {
	if v := os.Getenv("EMBEDDING_BASE_URL"); v != "" {
		cfg.EmbedLLM.BaseURL = v
	}
	if v := os.Getenv("EMBEDDING_MODEL"); v != "" {
		cfg.EmbedLLM.Model = v
	}
	if v := os.Getenv("MODEL_CACHE_DIR"); v != "" {
		cfg.EmbedLLM.CacheDir = v
	}
	if v := os.Getenv("CORPUS_DIR"); v != "" {
		cfg.Retrieval.CorpusDir = v
	}
	if v := os.Getenv("INDEX_PATH"); v != "" {
		cfg.Retrieval.IndexPath = v
	}
	if v := os.Getenv("DEFAULT_K"); v != "" {
		if k, err := strconv.Atoi(v); err == nil && k > 0 {
			cfg.Retrieval.DefaultK = k
		}
	}
	if v := os.Getenv("LISTEN_ADDR"); v != "" {
		cfg.ListenAddr = v
	}
}
