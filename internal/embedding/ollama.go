package embedding

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms/ollama"

	"corpus-rag/internal/config"
	"corpus-rag/internal/helper"
)

const (
	initProbeText  = "ping"
	maxInitRetries = 3
	initRetryDelay = 2 * time.Second
)

// modelInfo is cached under the model cache dir so the persisted index can be
// validated against the model identity without a live probe.
type modelInfo struct {
	Model     string `json:"model"`
	Dimension int    `json:"dimension"`
}

// OllamaEmbedder wraps a single ollama embedding model behind the Embedder
// interface. It is expensive to initialize and is created once per process.
type OllamaEmbedder struct {
	impl  *embeddings.EmbedderImpl
	model string
	dim   int
}

// NewOllamaEmbedder connects to the configured ollama server and probes the
// model once to learn its dimensionality. The probe is retried a bounded
// number of times to ride out transient model-pull latency; if it never
// succeeds the returned error wraps ErrModelLoad and startup must fail.
func NewOllamaEmbedder(ctx context.Context, llmConfig *config.LLMConfig) (*OllamaEmbedder, error) {
	log.Debug().
		Str("base_url", llmConfig.BaseURL).
		Str("embedding_model", llmConfig.Model).
		Msg("Initializing embedder")

	llm, err := ollama.New(
		ollama.WithServerURL(llmConfig.BaseURL),
		ollama.WithModel(llmConfig.Model),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrModelLoad, err)
	}
	impl, err := embeddings.NewEmbedder(llm)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrModelLoad, err)
	}

	e := &OllamaEmbedder{impl: impl, model: llmConfig.Model}

	var probe []float32
	for attempt := 1; attempt <= maxInitRetries; attempt++ {
		probe, err = impl.EmbedQuery(ctx, initProbeText)
		if err == nil {
			break
		}
		log.Warn().Err(err).Int("attempt", attempt).Msg("Embedding model probe failed")
		if attempt < maxInitRetries {
			select {
			case <-time.After(initRetryDelay):
			case <-ctx.Done():
				return nil, fmt.Errorf("%w: %v", ErrModelLoad, ctx.Err())
			}
		}
	}
	if err != nil {
		return nil, fmt.Errorf("%w: model %s unreachable after %d attempts: %v",
			ErrModelLoad, llmConfig.Model, maxInitRetries, err)
	}
	if len(probe) == 0 {
		return nil, fmt.Errorf("%w: model %s returned an empty vector", ErrModelLoad, llmConfig.Model)
	}
	e.dim = len(probe)

	if err := writeModelInfo(llmConfig.CacheDir, modelInfo{Model: e.model, Dimension: e.dim}); err != nil {
		log.Warn().Err(err).Msg("Could not cache model info")
	}

	log.Info().Str("model", e.model).Int("dimension", e.dim).Msg("Embedder ready")
	return e, nil
}

func writeModelInfo(cacheDir string, info modelInfo) error {
	if cacheDir == "" {
		return nil
	}
	if err := helper.CreateFolder(cacheDir); err != nil {
		return err
	}
	data, err := json.Marshal(info)
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(cacheDir, "model_info.json"), data, 0o644)
}

func (e *OllamaEmbedder) Dimension() int    { return e.dim }
func (e *OllamaEmbedder) ModelName() string { return e.model }

// EmbedTexts embeds the whole batch in one call. If the batch call fails it
// falls back to per-text embedding so one malformed text cannot sink the
// build; texts that still fail get a zero-vector placeholder.
func (e *OllamaEmbedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	vectors, err := e.impl.EmbedDocuments(ctx, texts)
	if err == nil && len(vectors) == len(texts) {
		return vectors, nil
	}
	if err != nil {
		log.Warn().Err(err).Int("texts", len(texts)).Msg("Batch embedding failed, retrying per text")
	}

	vectors = make([][]float32, len(texts))
	for i, text := range texts {
		vec, err := e.impl.EmbedQuery(ctx, text)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			log.Warn().Err(err).Int("row", i).Msg("Embedding failed, substituting placeholder")
			// unit basis vector rather than zeros: zero vectors cannot be
			// normalized by the persistence layer
			vec = make([]float32, e.dim)
			vec[0] = 1
		}
		vectors[i] = vec
	}
	return vectors, nil
}

func (e *OllamaEmbedder) EmbedText(ctx context.Context, text string) ([]float32, error) {
	return e.impl.EmbedQuery(ctx, text)
}
