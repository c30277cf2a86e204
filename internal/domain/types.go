package domain

import "time"

// Document is a single uploaded document after text extraction.
// It is immutable once created.
type Document struct {
	ID        string
	UserID    string
	Filename  string
	Content   string
	CreatedAt time.Time
}

// Chunk is a contiguous window of a document's text, the unit of retrieval.
// Index is the zero-based position of the chunk within its document.
type Chunk struct {
	ID         string
	DocumentID string
	Content    string
	Index      int
}

// Vector is the embedding of exactly one chunk, owned by the same user as
// the chunk's document. All vectors of one user share the same length.
type Vector struct {
	ID        string
	UserID    string
	ChunkID   string
	Values    []float64
	CreatedAt time.Time
}

// Answer is the result of a query: the generated text plus the session
// identifier it correlates to.
type Answer struct {
	Answer    string
	SessionID string
}
