// Package service orchestrates the document query engine: ingestion turns
// extracted text into chunks and vectors, queries turn a question into a
// ranked context and a generated answer. All operations are scoped to
// exactly one user.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"docquery/internal/chunker"
	"docquery/internal/domain"
	"docquery/internal/embedding"
	"docquery/internal/index"
	"docquery/internal/llm"
	"docquery/internal/prompt"
	"docquery/internal/store"
)

// DefaultTopK is the number of chunks retrieved per query when the caller
// does not override it.
const DefaultTopK = 3

// Service wires the chunker, embedder, repository, and generator together.
// The embedder is constructed once at startup and shared across requests;
// the nearest-neighbor index is rebuilt per query from the user's committed
// vectors, never shared between users.
type Service struct {
	chunker   *chunker.WindowChunker
	embedder  embedding.Embedder
	repo      store.Repository
	generator llm.Generator
	topK      int
	logger    *slog.Logger
}

// New creates a service. topK <= 0 selects DefaultTopK; a nil logger
// selects slog.Default().
func New(ch *chunker.WindowChunker, emb embedding.Embedder, repo store.Repository, gen llm.Generator, topK int, logger *slog.Logger) *Service {
	if topK <= 0 {
		topK = DefaultTopK
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		chunker:   ch,
		embedder:  emb,
		repo:      repo,
		generator: gen,
		topK:      topK,
		logger:    logger,
	}
}

// Ingest chunks the extracted text, embeds every chunk in one batch, and
// persists document, chunks, and vectors atomically. It returns the number
// of chunks processed. If embedding fails partway, nothing is persisted and
// nothing becomes indexable.
func (s *Service) Ingest(ctx context.Context, userID, filename, text string) (int, error) {
	now := time.Now().UTC()
	doc := domain.Document{
		ID:        uuid.NewString(),
		UserID:    userID,
		Filename:  filename,
		Content:   text,
		CreatedAt: now,
	}

	pieces := s.chunker.Split(text)
	chunks := make([]domain.Chunk, len(pieces))
	texts := make([]string, len(pieces))
	for i, p := range pieces {
		chunks[i] = domain.Chunk{
			ID:         uuid.NewString(),
			DocumentID: doc.ID,
			Content:    p,
			Index:      i,
		}
		texts[i] = p
	}

	vectors, err := s.embedVectors(ctx, userID, chunks, texts, now)
	if err != nil {
		return 0, err
	}
	if err := s.repo.SaveDocument(ctx, doc, chunks, vectors); err != nil {
		return 0, fmt.Errorf("persist document %s: %w", doc.Filename, err)
	}
	return len(chunks), nil
}

// Retrieve embeds the query, builds a flat index over the user's committed
// vectors, and returns the texts of the k nearest chunks in ascending
// distance order. The requester must be the owner of the document set;
// that check lives here, not at the transport layer, so internal callers
// cannot bypass it either.
//
// A hit whose chunk row has since disappeared is skipped rather than
// failing the query. A query running concurrently with an ingestion sees
// only vectors committed at read time; the in-flight document's vectors are
// simply absent.
func (s *Service) Retrieve(ctx context.Context, requesterID, userID, query string, k int) ([]string, error) {
	if requesterID != userID {
		s.logger.Warn("unauthorized query attempt",
			slog.String("requester", requesterID),
			slog.String("user_id", userID))
		return nil, domain.ErrUnauthorizedTenant
	}
	vectors, err := s.repo.VectorsForUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load vectors: %w", err)
	}
	if len(vectors) == 0 {
		return nil, domain.ErrNoDocuments
	}

	queryVec, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	entries := make([]index.Entry, len(vectors))
	for i, v := range vectors {
		entries[i] = index.Entry{ChunkID: v.ChunkID, Values: v.Values}
	}
	idx, err := index.Build(entries)
	if err != nil {
		return nil, err
	}
	if k <= 0 {
		k = s.topK
	}
	hits, err := idx.Search(queryVec, k)
	if err != nil {
		return nil, err
	}

	texts := make([]string, 0, len(hits))
	for _, h := range hits {
		c, err := s.repo.ChunkByID(ctx, h.ChunkID)
		if errors.Is(err, domain.ErrChunkNotFound) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("load chunk %s: %w", h.ChunkID, err)
		}
		texts = append(texts, c.Content)
	}
	return texts, nil
}

// Query answers a question from the user's documents: retrieve the top
// chunks, assemble the prompt, and stream the model's answer. The returned
// session id is the caller's, or a freshly minted one if absent. Session
// ids are opaque correlation tokens; no cross-session state is read or
// written here.
func (s *Service) Query(ctx context.Context, requesterID, userID, query, sessionID string) (domain.Answer, error) {
	contexts, err := s.Retrieve(ctx, requesterID, userID, query, s.topK)
	if err != nil {
		return domain.Answer{}, err
	}

	// Conversation history is a reserved extension point; nothing populates
	// it yet.
	var history []string
	p := prompt.Assemble(contexts, history, query)

	answer, err := s.generator.Generate(ctx, p)
	if err != nil {
		return domain.Answer{}, err
	}
	if sessionID == "" {
		sessionID = uuid.NewString()
	}
	return domain.Answer{Answer: answer, SessionID: sessionID}, nil
}

// Reembed regenerates every vector for the user from the stored chunk
// texts and swaps them in atomically. This is the operational path after an
// embedding model change, which invalidates all existing vectors at once.
// progress, if non-nil, is called after each document with the number of
// chunks re-embedded so far and the total. It returns the number of
// vectors written.
func (s *Service) Reembed(ctx context.Context, userID string, progress func(done, total int)) (int, error) {
	docs, err := s.repo.DocumentsForUser(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("load documents: %w", err)
	}
	perDoc := make([][]domain.Chunk, len(docs))
	total := 0
	for i, d := range docs {
		cs, err := s.repo.ChunksForDocument(ctx, d.ID)
		if err != nil {
			return 0, fmt.Errorf("load chunks for %s: %w", d.Filename, err)
		}
		perDoc[i] = cs
		total += len(cs)
	}

	now := time.Now().UTC()
	var vectors []domain.Vector
	done := 0
	for _, chunks := range perDoc {
		texts := make([]string, len(chunks))
		for i, c := range chunks {
			texts[i] = c.Content
		}
		vecs, err := s.embedVectors(ctx, userID, chunks, texts, now)
		if err != nil {
			return 0, err
		}
		vectors = append(vectors, vecs...)
		done += len(chunks)
		if progress != nil {
			progress(done, total)
		}
	}

	if err := s.repo.ReplaceVectors(ctx, userID, vectors); err != nil {
		return 0, fmt.Errorf("replace vectors: %w", err)
	}
	return len(vectors), nil
}

// embedVectors batch-embeds the chunk texts and pairs vector[i] with
// chunk[i], enforcing the deployment's fixed dimension.
func (s *Service) embedVectors(ctx context.Context, userID string, chunks []domain.Chunk, texts []string, now time.Time) ([]domain.Vector, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	values, err := s.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return nil, err
	}
	if len(values) != len(chunks) {
		return nil, fmt.Errorf("%w: embedded %d of %d chunks", domain.ErrEmbeddingUnavailable, len(values), len(chunks))
	}
	dim := s.embedder.Dimension()
	vectors := make([]domain.Vector, len(chunks))
	for i := range chunks {
		if len(values[i]) != dim {
			return nil, fmt.Errorf("%w: chunk %d embedded to %d dimensions, deployment expects %d",
				domain.ErrInvalidConfig, i, len(values[i]), dim)
		}
		vectors[i] = domain.Vector{
			ID:        uuid.NewString(),
			UserID:    userID,
			ChunkID:   chunks[i].ID,
			Values:    values[i],
			CreatedAt: now,
		}
	}
	return vectors, nil
}
