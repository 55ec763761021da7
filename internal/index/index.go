package index

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/rs/zerolog/log"

	"corpus-rag/internal/embedding"
	"corpus-rag/internal/models"
)

// Index pairs each document with its embedding and answers top-k similarity
// queries by brute-force cosine scan. It owns its documents and embeddings
// exclusively and is immutable after construction, so queries need no locking.
type Index struct {
	docs []models.Document
	vecs [][]float32
	mags []float64
	dim  int
}

// New assembles an index from parallel document and embedding slices.
// Magnitudes are precomputed so each query costs one dot product per vector.
func New(docs []models.Document, vecs [][]float32) (*Index, error) {
	if len(docs) == 0 {
		return nil, fmt.Errorf("index requires at least one document")
	}
	if len(docs) != len(vecs) {
		return nil, fmt.Errorf("documents and embeddings length mismatch: %d != %d", len(docs), len(vecs))
	}
	dim := len(vecs[0])
	if dim == 0 {
		return nil, fmt.Errorf("embeddings must not be empty")
	}
	mags := make([]float64, len(vecs))
	for i, v := range vecs {
		if len(v) != dim {
			return nil, fmt.Errorf("inconsistent embedding dims %d vs %d at row %d", len(v), dim, i)
		}
		mags[i] = magnitude(v)
	}
	return &Index{docs: docs, vecs: vecs, mags: mags, dim: dim}, nil
}

// Build embeds all document texts in a single batch call and assembles the
// index. Per-item embedding calls are deliberately avoided; corpora run to
// thousands of rows and the model round-trip dominates build time.
func Build(ctx context.Context, docs []models.Document, embedder embedding.Embedder) (*Index, error) {
	texts := make([]string, len(docs))
	for i, d := range docs {
		texts[i] = d.Text
	}
	vecs, err := embedder.EmbedTexts(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("failed to embed corpus: %w", err)
	}
	idx, err := New(docs, vecs)
	if err != nil {
		return nil, err
	}
	log.Info().Int("documents", idx.Size()).Int("dimension", idx.dim).Msg("Index built")
	return idx, nil
}

// Size returns the number of indexed documents.
func (i *Index) Size() int { return len(i.docs) }

// Dimension returns the embedding dimensionality of the index.
func (i *Index) Dimension() int { return i.dim }

// Documents exposes the indexed documents in ingestion order. Read-only.
func (i *Index) Documents() []models.Document { return i.docs }

// Embeddings exposes the stored vectors in ingestion order. Read-only.
func (i *Index) Embeddings() [][]float32 { return i.vecs }

// Search returns up to k documents ranked by descending cosine similarity to
// the query vector. Ties keep ingestion order; fewer than k documents means
// all of them are returned.
func (i *Index) Search(query []float32, k int) ([]models.SearchResult, error) {
	if len(query) != i.dim {
		return nil, fmt.Errorf("query dim %d != index dim %d", len(query), i.dim)
	}
	if k <= 0 {
		return nil, fmt.Errorf("k must be >= 1, got %d", k)
	}

	qm := magnitude(query)
	results := make([]models.SearchResult, len(i.docs))
	for j := range i.vecs {
		score := 0.0
		if qm != 0 && i.mags[j] != 0 {
			score = dot(query, i.vecs[j]) / (qm * i.mags[j])
		}
		results[j] = models.SearchResult{Document: i.docs[j], Similarity: score}
	}

	sort.SliceStable(results, func(a, b int) bool {
		return results[a].Similarity > results[b].Similarity
	})

	if k > len(results) {
		k = len(results)
	}
	return results[:k], nil
}

func dot(a, b []float32) float64 {
	var sum float64
	for i := range a {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}

func magnitude(v []float32) float64 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	return math.Sqrt(sum)
}
