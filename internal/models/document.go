package models

// Document is a unit of stored knowledge produced by the corpus loader.
// Documents are immutable after creation; duplicate texts across source
// files are allowed and retained.
type Document struct {
	Text       string
	SourceFile string
	RowIndex   int
}

// SearchResult pairs a document with its similarity to a query embedding.
type SearchResult struct {
	Document   Document
	Similarity float64
}
