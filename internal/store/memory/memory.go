package memory

import (
	"context"
	"sort"
	"sync"

	"docquery/internal/domain"
)

// Repository is an in-process store guarded by a RWMutex. Queries read a
// snapshot of whatever is committed at read time, so an ingestion running
// concurrently is simply invisible until it finishes.
type Repository struct {
	mu        sync.RWMutex
	documents []domain.Document
	chunks    map[string]domain.Chunk
	vectors   []domain.Vector
}

// NewRepository creates an empty in-memory repository.
func NewRepository() *Repository {
	return &Repository{chunks: make(map[string]domain.Chunk)}
}

// SaveDocument stores the document, chunks, and vectors under one lock
// acquisition, so readers see all of it or none of it.
func (r *Repository) SaveDocument(_ context.Context, doc domain.Document, chunks []domain.Chunk, vectors []domain.Vector) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.documents = append(r.documents, doc)
	for _, c := range chunks {
		r.chunks[c.ID] = c
	}
	r.vectors = append(r.vectors, vectors...)
	return nil
}

// VectorsForUser returns the user's vectors in insertion order.
func (r *Repository) VectorsForUser(_ context.Context, userID string) ([]domain.Vector, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []domain.Vector
	for _, v := range r.vectors {
		if v.UserID == userID {
			out = append(out, v)
		}
	}
	return out, nil
}

// ChunkByID returns the chunk with the given id.
func (r *Repository) ChunkByID(_ context.Context, chunkID string) (domain.Chunk, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.chunks[chunkID]
	if !ok {
		return domain.Chunk{}, domain.ErrChunkNotFound
	}
	return c, nil
}

// ChunksForDocument returns the document's chunks ordered by position.
func (r *Repository) ChunksForDocument(_ context.Context, documentID string) ([]domain.Chunk, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []domain.Chunk
	for _, c := range r.chunks {
		if c.DocumentID == documentID {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Index < out[j].Index })
	return out, nil
}

// DocumentsForUser returns the user's documents in creation order.
func (r *Repository) DocumentsForUser(_ context.Context, userID string) ([]domain.Document, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []domain.Document
	for _, d := range r.documents {
		if d.UserID == userID {
			out = append(out, d)
		}
	}
	return out, nil
}

// ReplaceVectors swaps all of the user's vectors for the provided set.
func (r *Repository) ReplaceVectors(_ context.Context, userID string, vectors []domain.Vector) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	kept := r.vectors[:0]
	for _, v := range r.vectors {
		if v.UserID != userID {
			kept = append(kept, v)
		}
	}
	r.vectors = append(kept, vectors...)
	return nil
}

// DeleteChunk removes a chunk row, leaving any vector that references it
// dangling. Only used by tests to simulate corruption.
func (r *Repository) DeleteChunk(chunkID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.chunks, chunkID)
}
