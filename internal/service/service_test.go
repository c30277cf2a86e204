package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docquery/internal/chunker"
	"docquery/internal/domain"
	"docquery/internal/embedding/local"
	"docquery/internal/store/memory"
)

type fakeGenerator struct {
	answer  string
	prompts []string
}

func (g *fakeGenerator) Generate(_ context.Context, prompt string) (string, error) {
	g.prompts = append(g.prompts, prompt)
	return g.answer, nil
}

func newTestService(t *testing.T, repo *memory.Repository, gen *fakeGenerator) *Service {
	t.Helper()
	ch, err := chunker.New(1000, 100)
	require.NoError(t, err)
	emb, err := local.NewEmbedder(384)
	require.NoError(t, err)
	return New(ch, emb, repo, gen, 0, nil)
}

func TestIngestChunkAndVectorCounts(t *testing.T) {
	repo := memory.NewRepository()
	svc := newTestService(t, repo, &fakeGenerator{})
	ctx := context.Background()

	text := strings.Repeat("a", 2500)
	n, err := svc.Ingest(ctx, "tenant-1", "doc.txt", text)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	vectors, err := repo.VectorsForUser(ctx, "tenant-1")
	require.NoError(t, err)
	require.Len(t, vectors, 3)

	docs, err := repo.DocumentsForUser(ctx, "tenant-1")
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "doc.txt", docs[0].Filename)

	chunks, err := repo.ChunksForDocument(ctx, docs[0].ID)
	require.NoError(t, err)
	require.Len(t, chunks, 3)
	for i, c := range chunks {
		assert.Equal(t, i, c.Index)
		// vector[i] belongs to chunk[i]
		assert.Equal(t, c.ID, vectors[i].ChunkID)
		assert.Len(t, vectors[i].Values, 384)
	}
}

func TestIngestEmptyText(t *testing.T) {
	repo := memory.NewRepository()
	svc := newTestService(t, repo, &fakeGenerator{})

	n, err := svc.Ingest(context.Background(), "tenant-1", "empty.txt", "")
	require.NoError(t, err)
	assert.Zero(t, n)

	vectors, err := repo.VectorsForUser(context.Background(), "tenant-1")
	require.NoError(t, err)
	assert.Empty(t, vectors)
}

func TestQueryNoDocumentsNeverCallsModel(t *testing.T) {
	gen := &fakeGenerator{answer: "should not happen"}
	svc := newTestService(t, memory.NewRepository(), gen)

	_, err := svc.Query(context.Background(), "tenant-1", "tenant-1", "anything?", "")
	require.ErrorIs(t, err, domain.ErrNoDocuments)
	assert.Empty(t, gen.prompts)
}

func TestQueryUnauthorizedRequester(t *testing.T) {
	repo := memory.NewRepository()
	gen := &fakeGenerator{answer: "should not happen"}
	svc := newTestService(t, repo, gen)
	ctx := context.Background()

	_, err := svc.Ingest(ctx, "tenant-1", "doc.txt", strings.Repeat("x", 500))
	require.NoError(t, err)

	_, err = svc.Query(ctx, "tenant-2", "tenant-1", "anything?", "")
	require.ErrorIs(t, err, domain.ErrUnauthorizedTenant)
	assert.Empty(t, gen.prompts)
}

func TestRetrieveNeverLeaksAcrossTenants(t *testing.T) {
	repo := memory.NewRepository()
	svc := newTestService(t, repo, &fakeGenerator{})
	ctx := context.Background()

	_, err := svc.Ingest(ctx, "tenant-a", "a.txt", "apples and oranges ALPHA-SECRET")
	require.NoError(t, err)
	_, err = svc.Ingest(ctx, "tenant-b", "b.txt", "apples and oranges BRAVO-SECRET")
	require.NoError(t, err)

	texts, err := svc.Retrieve(ctx, "tenant-a", "tenant-a", "apples and oranges", 10)
	require.NoError(t, err)
	require.NotEmpty(t, texts)
	for _, txt := range texts {
		assert.NotContains(t, txt, "BRAVO-SECRET")
	}
}

func TestRetrieveSkipsMissingChunk(t *testing.T) {
	repo := memory.NewRepository()
	svc := newTestService(t, repo, &fakeGenerator{})
	ctx := context.Background()

	n, err := svc.Ingest(ctx, "tenant-1", "doc.txt", strings.Repeat("words here ", 227))
	require.NoError(t, err)
	require.Equal(t, 3, n)

	vectors, err := repo.VectorsForUser(ctx, "tenant-1")
	require.NoError(t, err)
	repo.DeleteChunk(vectors[0].ChunkID)

	texts, err := svc.Retrieve(ctx, "tenant-1", "tenant-1", "words", 3)
	require.NoError(t, err)
	assert.Len(t, texts, 2)
}

func TestQueryAnswerAndSession(t *testing.T) {
	repo := memory.NewRepository()
	gen := &fakeGenerator{answer: "Hello"}
	svc := newTestService(t, repo, gen)
	ctx := context.Background()

	_, err := svc.Ingest(ctx, "tenant-1", "doc.txt", "the refund policy lasts thirty days")
	require.NoError(t, err)

	ans, err := svc.Query(ctx, "tenant-1", "tenant-1", "how long is the refund policy?", "")
	require.NoError(t, err)
	assert.Equal(t, "Hello", ans.Answer)
	assert.NotEmpty(t, ans.SessionID)

	// prompt carries the retrieved context and the literal question
	require.Len(t, gen.prompts, 1)
	assert.Contains(t, gen.prompts[0], "the refund policy lasts thirty days")
	assert.Contains(t, gen.prompts[0], "Current question: how long is the refund policy?")

	// an explicit session id is carried through unchanged
	ans2, err := svc.Query(ctx, "tenant-1", "tenant-1", "again?", "session-42")
	require.NoError(t, err)
	assert.Equal(t, "session-42", ans2.SessionID)
}

func TestRetrieveTopKLimit(t *testing.T) {
	repo := memory.NewRepository()
	svc := newTestService(t, repo, &fakeGenerator{})
	ctx := context.Background()

	// five chunks across two documents, all vectors dimension 384
	_, err := svc.Ingest(ctx, "tenant-1", "a.txt", strings.Repeat("alpha beta gamma ", 147))
	require.NoError(t, err)
	_, err = svc.Ingest(ctx, "tenant-1", "b.txt", strings.Repeat("delta epsilon ", 120))
	require.NoError(t, err)

	vectors, err := repo.VectorsForUser(ctx, "tenant-1")
	require.NoError(t, err)
	require.Equal(t, 5, len(vectors))

	texts, err := svc.Retrieve(ctx, "tenant-1", "tenant-1", "alpha beta", 3)
	require.NoError(t, err)
	assert.Len(t, texts, 3)
}

func TestRetrieveDuringConcurrentIngest(t *testing.T) {
	repo := memory.NewRepository()
	svc := newTestService(t, repo, &fakeGenerator{})
	ctx := context.Background()

	// seed one document so retrieval always has something to match
	_, err := svc.Ingest(ctx, "tenant-1", "seed.txt", "seed content about fruit")
	require.NoError(t, err)

	const writers = 4
	var wg sync.WaitGroup
	wg.Add(writers + 1)
	for w := 0; w < writers; w++ {
		go func(w int) {
			defer wg.Done()
			for i := 0; i < 10; i++ {
				name := fmt.Sprintf("doc-%d-%d.txt", w, i)
				_, err := svc.Ingest(ctx, "tenant-1", name, strings.Repeat("fruit basket ", 80))
				assert.NoError(t, err)
			}
		}(w)
	}
	go func() {
		defer wg.Done()
		// each call sees a snapshot of the vectors committed so far
		for i := 0; i < 50; i++ {
			texts, err := svc.Retrieve(ctx, "tenant-1", "tenant-1", "fruit", 3)
			assert.NoError(t, err)
			assert.NotEmpty(t, texts)
			assert.LessOrEqual(t, len(texts), 3)
		}
	}()
	wg.Wait()

	docs, err := repo.DocumentsForUser(ctx, "tenant-1")
	require.NoError(t, err)
	assert.Len(t, docs, writers*10+1)
}

func TestReembedReplacesAllVectors(t *testing.T) {
	repo := memory.NewRepository()
	svc := newTestService(t, repo, &fakeGenerator{})
	ctx := context.Background()

	_, err := svc.Ingest(ctx, "tenant-1", "doc.txt", strings.Repeat("a", 2500))
	require.NoError(t, err)

	before, err := repo.VectorsForUser(ctx, "tenant-1")
	require.NoError(t, err)
	require.Len(t, before, 3)

	var lastDone, lastTotal int
	n, err := svc.Reembed(ctx, "tenant-1", func(done, total int) {
		lastDone, lastTotal = done, total
	})
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Equal(t, 3, lastDone)
	assert.Equal(t, 3, lastTotal)

	after, err := repo.VectorsForUser(ctx, "tenant-1")
	require.NoError(t, err)
	require.Len(t, after, 3)
	for i := range after {
		assert.Equal(t, before[i].ChunkID, after[i].ChunkID)
		assert.NotEqual(t, before[i].ID, after[i].ID)
	}
}
