// Package embeddingtest provides a deterministic in-process embedder for
// tests, so similarity tracks token overlap without a model server.
package embeddingtest

import (
	"context"
	"errors"
	"hash/fnv"
	"math"
	"strings"
)

// TokenEmbedder hashes each token of the input into a fixed-size bag-of-words
// vector. Identical texts always produce identical vectors and texts sharing
// tokens are cosine-close, which is enough to exercise ranking behavior.
type TokenEmbedder struct {
	Dim        int
	BatchCalls int
	TextCalls  int
	FailText   bool // force EmbedText to fail, for degraded-query tests
}

func New(dim int) *TokenEmbedder {
	return &TokenEmbedder{Dim: dim}
}

func (e *TokenEmbedder) Vector(text string) []float32 {
	vec := make([]float32, e.Dim)
	for _, tok := range strings.Fields(strings.ToLower(text)) {
		tok = strings.Trim(tok, ".,:;!?\"'()")
		if tok == "" {
			continue
		}
		h := fnv.New32a()
		h.Write([]byte(tok))
		vec[h.Sum32()%uint32(e.Dim)]++
	}
	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	if norm == 0 {
		vec[0] = 1
		return vec
	}
	norm = math.Sqrt(norm)
	for i := range vec {
		vec[i] = float32(float64(vec[i]) / norm)
	}
	return vec
}

func (e *TokenEmbedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	e.BatchCalls++
	vecs := make([][]float32, len(texts))
	for i, t := range texts {
		vecs[i] = e.Vector(t)
	}
	return vecs, nil
}

func (e *TokenEmbedder) EmbedText(ctx context.Context, text string) ([]float32, error) {
	e.TextCalls++
	if e.FailText {
		return nil, errors.New("embedder unavailable")
	}
	return e.Vector(text), nil
}

func (e *TokenEmbedder) Dimension() int { return e.Dim }

func (e *TokenEmbedder) ModelName() string { return "token-test" }
