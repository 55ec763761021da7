package index

import (
	"context"
	"testing"

	"corpus-rag/internal/embedding/embeddingtest"
	"corpus-rag/internal/models"
)

func docsFromTexts(texts []string) []models.Document {
	docs := make([]models.Document, len(texts))
	for i, t := range texts {
		docs[i] = models.Document{Text: t, SourceFile: "test.csv", RowIndex: i}
	}
	return docs
}

func TestBuildBatchesEmbedding(t *testing.T) {
	embedder := embeddingtest.New(64)
	docs := docsFromTexts([]string{"one", "two", "three"})

	idx, err := Build(context.Background(), docs, embedder)
	if err != nil {
		t.Fatalf("Build returned error: %v", err)
	}
	if idx.Size() != 3 {
		t.Errorf("Expected size 3, got %d", idx.Size())
	}
	if embedder.BatchCalls != 1 {
		t.Errorf("Expected a single batch embedding call, got %d", embedder.BatchCalls)
	}
	if embedder.TextCalls != 0 {
		t.Errorf("Build must not embed per item, got %d single calls", embedder.TextCalls)
	}
}

func TestNewRejectsMismatchedLengths(t *testing.T) {
	docs := docsFromTexts([]string{"a", "b"})
	if _, err := New(docs, [][]float32{{1, 0}}); err == nil {
		t.Error("Expected error for mismatched documents and embeddings")
	}
}

func TestNewRejectsMixedDimensions(t *testing.T) {
	docs := docsFromTexts([]string{"a", "b"})
	if _, err := New(docs, [][]float32{{1, 0}, {1, 0, 0}}); err == nil {
		t.Error("Expected error for inconsistent embedding dimensions")
	}
}

func TestNewRejectsEmpty(t *testing.T) {
	if _, err := New(nil, nil); err == nil {
		t.Error("Expected error for empty index")
	}
}

func TestSearchKBound(t *testing.T) {
	embedder := embeddingtest.New(64)
	docs := docsFromTexts([]string{"alpha", "beta", "gamma"})
	idx, err := Build(context.Background(), docs, embedder)
	if err != nil {
		t.Fatalf("Build returned error: %v", err)
	}

	query := embedder.Vector("alpha")
	for _, k := range []int{1, 2, 3, 10} {
		results, err := idx.Search(query, k)
		if err != nil {
			t.Fatalf("Search(k=%d) returned error: %v", k, err)
		}
		want := k
		if want > idx.Size() {
			want = idx.Size()
		}
		if len(results) != want {
			t.Errorf("Search(k=%d) returned %d results, want %d", k, len(results), want)
		}
	}
}

func TestSearchOrdering(t *testing.T) {
	embedder := embeddingtest.New(64)
	docs := docsFromTexts([]string{
		"Leaf rust treatment is copper fungicide.",
		"Irrigate cassava with drip systems.",
		"Maize stalk rot caused by Fusarium.",
	})
	idx, err := Build(context.Background(), docs, embedder)
	if err != nil {
		t.Fatalf("Build returned error: %v", err)
	}

	results, err := idx.Search(embedder.Vector("stalk rot maize"), 3)
	if err != nil {
		t.Fatalf("Search returned error: %v", err)
	}
	for i := 1; i < len(results); i++ {
		if results[i-1].Similarity < results[i].Similarity {
			t.Errorf("Results not in descending similarity order at rank %d", i)
		}
	}
	if results[0].Document.Text != "Maize stalk rot caused by Fusarium." {
		t.Errorf("Expected the stalk-rot document first, got %q", results[0].Document.Text)
	}
}

func TestSearchTieBreakIngestionOrder(t *testing.T) {
	docs := docsFromTexts([]string{"first", "second", "third"})
	vecs := [][]float32{{1, 0}, {1, 0}, {1, 0}}
	idx, err := New(docs, vecs)
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	results, err := idx.Search([]float32{1, 0}, 3)
	if err != nil {
		t.Fatalf("Search returned error: %v", err)
	}
	want := []string{"first", "second", "third"}
	for i, w := range want {
		if results[i].Document.Text != w {
			t.Errorf("Rank %d: expected %q (ingestion order), got %q", i, w, results[i].Document.Text)
		}
	}
}

func TestSearchRejectsDimMismatch(t *testing.T) {
	idx, err := New(docsFromTexts([]string{"a"}), [][]float32{{1, 0, 0}})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	if _, err := idx.Search([]float32{1, 0}, 1); err == nil {
		t.Error("Expected error for query dimension mismatch")
	}
}

func TestSearchRejectsNonPositiveK(t *testing.T) {
	idx, err := New(docsFromTexts([]string{"a"}), [][]float32{{1}})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	if _, err := idx.Search([]float32{1}, 0); err == nil {
		t.Error("Expected error for k = 0")
	}
}
