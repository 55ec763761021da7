package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"runtime"
	"strconv"

	"github.com/philippgille/chromem-go"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"

	"corpus-rag/internal/corpus"
	"corpus-rag/internal/embedding"
	"corpus-rag/internal/helper"
	"corpus-rag/internal/index"
	"corpus-rag/internal/models"
)

// ErrCorruptIndex means the persisted index failed to deserialize or is
// inconsistent with the configured embedding model. It is recovered by
// discarding the persisted artifact and rebuilding from the corpus, never by
// serving a partially-loaded index.
var ErrCorruptIndex = errors.New("corrupt persisted index")

const compress = false

// Store is the sole authority on persisted index validity. It serializes the
// built index (document texts plus embeddings) through a chromem-go
// persistent database so restarts skip the corpus scan and re-embedding.
type Store struct {
	path       string
	collection string
	group      singleflight.Group
}

// New creates a store rooted at path, distinct from the corpus directory.
func New(path, collection string) *Store {
	return &Store{path: path, collection: collection}
}

// docID encodes ingestion order so a loaded index preserves document order.
func docID(i int) string {
	return fmt.Sprintf("%08d", i)
}

// LoadOrBuild returns the persisted index if one is valid, otherwise loads
// the corpus, embeds it, assembles a fresh index and persists it before
// returning. Concurrent calls are coalesced; at most one build runs against
// the store at a time.
func (s *Store) LoadOrBuild(ctx context.Context, corpusDir string, embedder embedding.Embedder) (*index.Index, error) {
	v, err, _ := s.group.Do(s.path, func() (interface{}, error) {
		return s.loadOrBuild(ctx, corpusDir, embedder)
	})
	if err != nil {
		return nil, err
	}
	return v.(*index.Index), nil
}

func (s *Store) loadOrBuild(ctx context.Context, corpusDir string, embedder embedding.Embedder) (*index.Index, error) {
	idx, err := s.Load(ctx, embedder.Dimension())
	if err != nil {
		if !errors.Is(err, ErrCorruptIndex) {
			return nil, err
		}
		log.Warn().Err(err).Str("path", s.path).Msg("Discarding corrupt persisted index")
		if err := s.Delete(); err != nil {
			return nil, err
		}
	}
	if idx != nil {
		log.Info().Int("documents", idx.Size()).Str("path", s.path).Msg("Loaded persisted index")
		return idx, nil
	}

	buildID, _ := helper.GenerateUUID()
	log.Info().Str("build_id", buildID).Str("corpus_dir", corpusDir).Msg("Building index")

	docs, err := corpus.Load(corpusDir)
	if err != nil {
		return nil, err
	}
	idx, err = index.Build(ctx, docs, embedder)
	if err != nil {
		return nil, err
	}
	if err := s.Save(ctx, idx); err != nil {
		return nil, err
	}
	log.Info().Str("build_id", buildID).Int("documents", idx.Size()).Msg("Index built and persisted")
	return idx, nil
}

// Load deserializes the persisted index. It returns (nil, nil) when nothing
// is persisted yet. Any inconsistency, including an embedding dimensionality
// that does not match wantDim, is reported as ErrCorruptIndex.
func (s *Store) Load(ctx context.Context, wantDim int) (*index.Index, error) {
	if _, err := os.Stat(s.path); errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}

	db, err := chromem.NewPersistentDB(s.path, compress)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptIndex, err)
	}
	col := db.GetCollection(s.collection, nil)
	if col == nil || col.Count() == 0 {
		return nil, nil
	}

	n := col.Count()
	docs := make([]models.Document, n)
	vecs := make([][]float32, n)
	for i := 0; i < n; i++ {
		cdoc, err := col.GetByID(ctx, docID(i))
		if err != nil {
			return nil, fmt.Errorf("%w: document %d missing: %v", ErrCorruptIndex, i, err)
		}
		if cdoc.Content == "" {
			return nil, fmt.Errorf("%w: document %d has no text", ErrCorruptIndex, i)
		}
		if wantDim > 0 && len(cdoc.Embedding) != wantDim {
			return nil, fmt.Errorf("%w: embedding dimensionality %d does not match model dimensionality %d",
				ErrCorruptIndex, len(cdoc.Embedding), wantDim)
		}
		rowIndex, _ := strconv.Atoi(cdoc.Metadata["row_index"])
		docs[i] = models.Document{
			Text:       cdoc.Content,
			SourceFile: cdoc.Metadata["source_file"],
			RowIndex:   rowIndex,
		}
		vecs[i] = cdoc.Embedding
	}

	idx, err := index.New(docs, vecs)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptIndex, err)
	}
	return idx, nil
}

// Save persists the index, fully replacing any previous persisted form. A
// rebuild with a different corpus must never merge into a stale index.
func (s *Store) Save(ctx context.Context, idx *index.Index) error {
	if err := helper.CreateFolder(s.path); err != nil {
		return err
	}
	db, err := chromem.NewPersistentDB(s.path, compress)
	if err != nil {
		return fmt.Errorf("failed to open index database: %w", err)
	}
	if db.GetCollection(s.collection, nil) != nil {
		if err := db.DeleteCollection(s.collection); err != nil {
			return fmt.Errorf("failed to drop stale collection: %w", err)
		}
	}
	col, err := db.GetOrCreateCollection(s.collection, nil, nil)
	if err != nil {
		return fmt.Errorf("failed to create collection: %w", err)
	}

	docs := idx.Documents()
	vecs := idx.Embeddings()
	cdocs := make([]chromem.Document, len(docs))
	for i := range docs {
		cdocs[i] = chromem.Document{
			ID:      docID(i),
			Content: docs[i].Text,
			Metadata: map[string]string{
				"source_file": docs[i].SourceFile,
				"row_index":   strconv.Itoa(docs[i].RowIndex),
			},
			Embedding: vecs[i],
		}
	}
	if err := col.AddDocuments(ctx, cdocs, runtime.NumCPU()); err != nil {
		return fmt.Errorf("failed to persist documents: %w", err)
	}
	return nil
}

// Delete discards the persisted index. Staleness is resolved by deleting and
// letting a full rebuild occur; there are no partial updates.
func (s *Store) Delete() error {
	if err := os.RemoveAll(s.path); err != nil {
		return fmt.Errorf("failed to remove persisted index %s: %w", s.path, err)
	}
	return nil
}
