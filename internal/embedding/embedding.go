package embedding

import (
	"context"
	"errors"
)

// ErrModelLoad means the embedding model could not be initialized. The engine
// cannot operate without an embedder, so callers treat this as fatal rather
// than serving degraded results.
var ErrModelLoad = errors.New("embedding model load failed")

// Embedder turns text into fixed-length vectors. Implementations are created
// once per process and must be safe for concurrent use. Dimensionality is
// constant for the embedder's lifetime and output is deterministic for
// identical input text.
type Embedder interface {
	// EmbedTexts embeds a batch of texts. The result always has the same
	// length as the input; texts that individually fail to embed are
	// substituted with a zero-vector placeholder and logged.
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)

	// EmbedText embeds a single query-time text.
	EmbedText(ctx context.Context, text string) ([]float32, error)

	// Dimension returns the length of produced vectors.
	Dimension() int

	// ModelName identifies the wrapped model name/version.
	ModelName() string
}
