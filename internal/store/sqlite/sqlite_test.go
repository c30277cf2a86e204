package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docquery/internal/domain"
)

func openTestRepo(t *testing.T) *Repository {
	t.Helper()
	repo, err := Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })
	return repo
}

func sampleDocument(userID string) (domain.Document, []domain.Chunk, []domain.Vector) {
	now := time.Now().UTC()
	doc := domain.Document{
		ID: "doc-" + userID, UserID: userID, Filename: "report.txt",
		Content: "first second third", CreatedAt: now,
	}
	chunks := []domain.Chunk{
		{ID: "chunk-" + userID + "-0", DocumentID: doc.ID, Content: "first", Index: 0},
		{ID: "chunk-" + userID + "-1", DocumentID: doc.ID, Content: "second", Index: 1},
	}
	vectors := []domain.Vector{
		{ID: "vec-" + userID + "-0", UserID: userID, ChunkID: chunks[0].ID, Values: []float64{0.1, 0.2, 0.3}, CreatedAt: now},
		{ID: "vec-" + userID + "-1", UserID: userID, ChunkID: chunks[1].ID, Values: []float64{0.4, 0.5, 0.6}, CreatedAt: now},
	}
	return doc, chunks, vectors
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	repo := openTestRepo(t)
	ctx := context.Background()

	doc, chunks, vectors := sampleDocument("u1")
	require.NoError(t, repo.SaveDocument(ctx, doc, chunks, vectors))

	got, err := repo.VectorsForUser(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, []float64{0.1, 0.2, 0.3}, got[0].Values)
	assert.Equal(t, chunks[0].ID, got[0].ChunkID)
	assert.Equal(t, chunks[1].ID, got[1].ChunkID)

	c, err := repo.ChunkByID(ctx, chunks[1].ID)
	require.NoError(t, err)
	assert.Equal(t, "second", c.Content)
	assert.Equal(t, 1, c.Index)

	docs, err := repo.DocumentsForUser(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "report.txt", docs[0].Filename)

	ordered, err := repo.ChunksForDocument(ctx, doc.ID)
	require.NoError(t, err)
	require.Len(t, ordered, 2)
	assert.Equal(t, 0, ordered[0].Index)
	assert.Equal(t, 1, ordered[1].Index)
}

func TestChunkByIDNotFound(t *testing.T) {
	repo := openTestRepo(t)
	_, err := repo.ChunkByID(context.Background(), "missing")
	require.ErrorIs(t, err, domain.ErrChunkNotFound)
}

func TestVectorsAreScopedByUser(t *testing.T) {
	repo := openTestRepo(t)
	ctx := context.Background()

	docA, chunksA, vectorsA := sampleDocument("alice")
	docB, chunksB, vectorsB := sampleDocument("bob")
	require.NoError(t, repo.SaveDocument(ctx, docA, chunksA, vectorsA))
	require.NoError(t, repo.SaveDocument(ctx, docB, chunksB, vectorsB))

	got, err := repo.VectorsForUser(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, got, 2)
	for _, v := range got {
		assert.Equal(t, "alice", v.UserID)
	}

	none, err := repo.VectorsForUser(ctx, "carol")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestSaveDocumentIsAtomic(t *testing.T) {
	repo := openTestRepo(t)
	ctx := context.Background()

	doc, chunks, vectors := sampleDocument("u1")
	// duplicate vector id forces the transaction to fail after the
	// document and chunks were already written inside it
	vectors[1].ID = vectors[0].ID
	err := repo.SaveDocument(ctx, doc, chunks, vectors)
	require.Error(t, err)

	docs, err := repo.DocumentsForUser(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, docs)

	got, err := repo.VectorsForUser(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, got)

	_, err = repo.ChunkByID(ctx, chunks[0].ID)
	require.ErrorIs(t, err, domain.ErrChunkNotFound)
}

func TestReplaceVectors(t *testing.T) {
	repo := openTestRepo(t)
	ctx := context.Background()

	doc, chunks, vectors := sampleDocument("u1")
	require.NoError(t, repo.SaveDocument(ctx, doc, chunks, vectors))

	replacement := []domain.Vector{
		{ID: "vec-new-0", UserID: "u1", ChunkID: chunks[0].ID, Values: []float64{9, 9, 9}, CreatedAt: time.Now().UTC()},
		{ID: "vec-new-1", UserID: "u1", ChunkID: chunks[1].ID, Values: []float64{8, 8, 8}, CreatedAt: time.Now().UTC()},
	}
	require.NoError(t, repo.ReplaceVectors(ctx, "u1", replacement))

	got, err := repo.VectorsForUser(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "vec-new-0", got[0].ID)
	assert.Equal(t, []float64{9, 9, 9}, got[0].Values)
}
