package store

import (
	"context"

	"docquery/internal/domain"
)

// Repository is the narrow persistence surface the engine depends on. Any
// storage engine satisfying it is substitutable.
type Repository interface {
	// SaveDocument persists a document with its chunks and their vectors as
	// one atomic unit. Either everything becomes visible or nothing does; a
	// failed ingestion must not leave chunks indexable.
	SaveDocument(ctx context.Context, doc domain.Document, chunks []domain.Chunk, vectors []domain.Vector) error

	// VectorsForUser returns every vector owned by the user, in insertion
	// order. A user with no vectors gets an empty slice, not an error.
	VectorsForUser(ctx context.Context, userID string) ([]domain.Vector, error)

	// ChunkByID returns the chunk with the given id, or ErrChunkNotFound.
	ChunkByID(ctx context.Context, chunkID string) (domain.Chunk, error)

	// ChunksForDocument returns the document's chunks ordered by their
	// position within the document.
	ChunksForDocument(ctx context.Context, documentID string) ([]domain.Chunk, error)

	// DocumentsForUser returns the user's documents in creation order.
	DocumentsForUser(ctx context.Context, userID string) ([]domain.Document, error)

	// ReplaceVectors atomically swaps out all of the user's vectors for the
	// provided set. Used when re-embedding after a model change.
	ReplaceVectors(ctx context.Context, userID string, vectors []domain.Vector) error
}
