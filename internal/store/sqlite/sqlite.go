package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	_ "modernc.org/sqlite"

	"docquery/internal/domain"
)

const schema = `
CREATE TABLE IF NOT EXISTS documents (
	id         TEXT PRIMARY KEY,
	user_id    TEXT NOT NULL,
	filename   TEXT NOT NULL,
	content    TEXT NOT NULL,
	created_at TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_documents_user ON documents(user_id);

CREATE TABLE IF NOT EXISTS document_chunks (
	id          TEXT PRIMARY KEY,
	document_id TEXT NOT NULL REFERENCES documents(id),
	content     TEXT NOT NULL,
	chunk_index INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_chunks_document ON document_chunks(document_id);

CREATE TABLE IF NOT EXISTS embeddings (
	id         TEXT PRIMARY KEY,
	user_id    TEXT NOT NULL,
	chunk_id   TEXT NOT NULL UNIQUE REFERENCES document_chunks(id),
	vector     TEXT NOT NULL,
	created_at TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_embeddings_user ON embeddings(user_id);
`

// Repository is a durable store backed by SQLite. Vectors are kept as JSON
// arrays alongside their owning chunk, keyed by user so one tenant's query
// never reads another's rows.
type Repository struct {
	db *sql.DB
}

// Open opens (or creates) the database at path and ensures the schema.
func Open(path string) (*Repository, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite at %s: %w", path, err)
	}
	// The driver serializes access itself; a single connection avoids
	// SQLITE_BUSY on concurrent writes.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &Repository{db: db}, nil
}

// Close closes the underlying database handle.
func (r *Repository) Close() error { return r.db.Close() }

// SaveDocument writes the document, its chunks, and their vectors in one
// transaction, so a failure mid-ingestion leaves nothing indexable.
func (r *Repository) SaveDocument(ctx context.Context, doc domain.Document, chunks []domain.Chunk, vectors []domain.Vector) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO documents (id, user_id, filename, content, created_at) VALUES (?, ?, ?, ?, ?)`,
		doc.ID, doc.UserID, doc.Filename, doc.Content, doc.CreatedAt,
	); err != nil {
		return fmt.Errorf("insert document: %w", err)
	}
	for _, c := range chunks {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO document_chunks (id, document_id, content, chunk_index) VALUES (?, ?, ?, ?)`,
			c.ID, c.DocumentID, c.Content, c.Index,
		); err != nil {
			return fmt.Errorf("insert chunk %d: %w", c.Index, err)
		}
	}
	for _, v := range vectors {
		enc, err := json.Marshal(v.Values)
		if err != nil {
			return fmt.Errorf("encode vector: %w", err)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO embeddings (id, user_id, chunk_id, vector, created_at) VALUES (?, ?, ?, ?, ?)`,
			v.ID, v.UserID, v.ChunkID, string(enc), v.CreatedAt,
		); err != nil {
			return fmt.Errorf("insert embedding: %w", err)
		}
	}
	return tx.Commit()
}

// VectorsForUser returns the user's vectors in insertion order.
func (r *Repository) VectorsForUser(ctx context.Context, userID string) ([]domain.Vector, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, chunk_id, vector, created_at FROM embeddings WHERE user_id = ? ORDER BY rowid`,
		userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Vector
	for rows.Next() {
		var v domain.Vector
		var enc string
		if err := rows.Scan(&v.ID, &v.UserID, &v.ChunkID, &enc, &v.CreatedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(enc), &v.Values); err != nil {
			return nil, fmt.Errorf("decode vector %s: %w", v.ID, err)
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

// ChunkByID returns the chunk with the given id, or ErrChunkNotFound.
func (r *Repository) ChunkByID(ctx context.Context, chunkID string) (domain.Chunk, error) {
	var c domain.Chunk
	err := r.db.QueryRowContext(ctx,
		`SELECT id, document_id, content, chunk_index FROM document_chunks WHERE id = ?`,
		chunkID,
	).Scan(&c.ID, &c.DocumentID, &c.Content, &c.Index)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Chunk{}, domain.ErrChunkNotFound
	}
	if err != nil {
		return domain.Chunk{}, err
	}
	return c, nil
}

// ChunksForDocument returns the document's chunks ordered by position.
func (r *Repository) ChunksForDocument(ctx context.Context, documentID string) ([]domain.Chunk, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, document_id, content, chunk_index FROM document_chunks WHERE document_id = ? ORDER BY chunk_index`,
		documentID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Chunk
	for rows.Next() {
		var c domain.Chunk
		if err := rows.Scan(&c.ID, &c.DocumentID, &c.Content, &c.Index); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// DocumentsForUser returns the user's documents in creation order.
func (r *Repository) DocumentsForUser(ctx context.Context, userID string) ([]domain.Document, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, filename, content, created_at FROM documents WHERE user_id = ? ORDER BY rowid`,
		userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Document
	for rows.Next() {
		var d domain.Document
		if err := rows.Scan(&d.ID, &d.UserID, &d.Filename, &d.Content, &d.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// ReplaceVectors swaps all of the user's vectors for the provided set in one
// transaction.
func (r *Repository) ReplaceVectors(ctx context.Context, userID string, vectors []domain.Vector) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM embeddings WHERE user_id = ?`, userID); err != nil {
		return fmt.Errorf("delete embeddings: %w", err)
	}
	for _, v := range vectors {
		enc, err := json.Marshal(v.Values)
		if err != nil {
			return fmt.Errorf("encode vector: %w", err)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO embeddings (id, user_id, chunk_id, vector, created_at) VALUES (?, ?, ?, ?, ?)`,
			v.ID, v.UserID, v.ChunkID, string(enc), v.CreatedAt,
		); err != nil {
			return fmt.Errorf("insert embedding: %w", err)
		}
	}
	return tx.Commit()
}
