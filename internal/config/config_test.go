package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadConfigMissingFileDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("Missing config file must yield defaults, got error: %v", err)
	}
	if cfg.EmbedLLM.Model != "nomic-embed-text" {
		t.Errorf("Unexpected default model: %s", cfg.EmbedLLM.Model)
	}
	if cfg.Retrieval.DefaultK != 3 {
		t.Errorf("Expected default k of 3, got %d", cfg.Retrieval.DefaultK)
	}
	if cfg.Retrieval.CorpusDir == "" || cfg.Retrieval.IndexPath == "" {
		t.Error("Expected non-empty corpus and index defaults")
	}
}

func TestLoadConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	yaml := `embed_llm:
  base_url: http://ollama:11434
  model: mxbai-embed-large
retrieval:
  corpus_dir: /data/corpus
  index_path: /data/index
  default_k: 5
listen_addr: ":9000"
`
	if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if cfg.EmbedLLM.Model != "mxbai-embed-large" {
		t.Errorf("Unexpected model: %s", cfg.EmbedLLM.Model)
	}
	if cfg.Retrieval.DefaultK != 5 {
		t.Errorf("Unexpected default k: %d", cfg.Retrieval.DefaultK)
	}
	if cfg.ListenAddr != ":9000" {
		t.Errorf("Unexpected listen addr: %s", cfg.ListenAddr)
	}
	// unset fields still get defaults
	if cfg.Retrieval.Collection != "knowledge" {
		t.Errorf("Expected default collection, got %s", cfg.Retrieval.Collection)
	}
}

func TestLoadConfigEnvOverride(t *testing.T) {
	t.Setenv("EMBEDDING_MODEL", "all-minilm")
	t.Setenv("DEFAULT_K", "7")
	t.Setenv("CORPUS_DIR", "/srv/datasets")

	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if cfg.EmbedLLM.Model != "all-minilm" {
		t.Errorf("Env override lost for model: %s", cfg.EmbedLLM.Model)
	}
	if cfg.Retrieval.DefaultK != 7 {
		t.Errorf("Env override lost for default k: %d", cfg.Retrieval.DefaultK)
	}
	if cfg.Retrieval.CorpusDir != "/srv/datasets" {
		t.Errorf("Env override lost for corpus dir: %s", cfg.Retrieval.CorpusDir)
	}
}

func TestLoadConfigInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("embed_llm: [not: a map"), 0o644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}
	if _, err := LoadConfig(path); err == nil {
		t.Error("Expected error for invalid YAML")
	}
}
