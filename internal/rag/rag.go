package rag

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"corpus-rag/internal/config"
	"corpus-rag/internal/embedding"
	"corpus-rag/internal/index"
	"corpus-rag/internal/store"
)

// ErrEmptyQuery means the user-supplied query text was empty or whitespace
// only. It is a client-facing validation error, not a server fault, and is
// raised before any embedding call is made.
var ErrEmptyQuery = errors.New("query text is empty")

// RAG is the knowledge-retrieval engine. It is constructed once, initialized
// with Init, and injected into request handlers; the index it holds is
// written exactly once and treated as immutable, so Query is safe for
// concurrent use. Rebuild must not be called concurrently with Query.
type RAG struct {
	store    *store.Store
	embedder embedding.Embedder
	cfg      *config.Config
	index    *index.Index
}

// NewRAG wires the engine. Init must be called before Query.
func NewRAG(store *store.Store, embedder embedding.Embedder, cfg *config.Config) *RAG {
	return &RAG{store: store, embedder: embedder, cfg: cfg}
}

// Init loads the persisted index or builds it from the corpus. It blocks for
// as long as the build takes and is meant to run at process startup or on an
// explicit rebuild trigger, never inside a request handler.
func (r *RAG) Init(ctx context.Context) error {
	idx, err := r.store.LoadOrBuild(ctx, r.cfg.Retrieval.CorpusDir, r.embedder)
	if err != nil {
		return err
	}
	r.index = idx
	return nil
}

// Rebuild discards the persisted index and builds a fresh one from the
// current corpus, fully replacing the old contents.
func (r *RAG) Rebuild(ctx context.Context) error {
	if err := r.store.Delete(); err != nil {
		return err
	}
	return r.Init(ctx)
}

// Size returns the number of indexed documents.
func (r *RAG) Size() int {
	if r.index == nil {
		return 0
	}
	return r.index.Size()
}

// Query embeds the text and returns the texts of the k most similar stored
// documents, closest first, ties broken by ingestion order. k <= 0 selects
// the configured default. An index smaller than k yields all documents.
func (r *RAG) Query(ctx context.Context, query string, k int) ([]string, error) {
	if strings.TrimSpace(query) == "" {
		return nil, ErrEmptyQuery
	}
	if r.index == nil {
		return nil, fmt.Errorf("index not initialized")
	}
	if k <= 0 {
		k = r.cfg.Retrieval.DefaultK
	}
	if k > r.index.Size() {
		k = r.index.Size()
	}

	queryVec, err := r.embedder.EmbedText(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	results, err := r.index.Search(queryVec, k)
	if err != nil {
		return nil, fmt.Errorf("similarity search failed: %w", err)
	}

	texts := make([]string, len(results))
	for i, res := range results {
		texts[i] = res.Document.Text
	}
	log.Debug().Int("k", k).Int("results", len(texts)).Msg("Query served")
	return texts, nil
}
