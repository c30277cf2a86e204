package domain

import "errors"

var (
	// ErrInvalidConfig covers misconfiguration that must fail fast: a chunk
	// overlap not smaller than the chunk size, or vectors whose length does
	// not match the deployment's embedding dimension.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrEmbeddingUnavailable means the embedding model could not produce a
	// vector. The enclosing ingestion or query fails; nothing is skipped.
	ErrEmbeddingUnavailable = errors.New("embedding model unavailable")

	// ErrNoDocuments means the user has no indexed vectors yet. The caller
	// should ask the user to upload a document rather than query the model
	// with empty context.
	ErrNoDocuments = errors.New("no documents uploaded for this user")

	// ErrUnauthorizedTenant means the requesting identity does not own the
	// queried document set.
	ErrUnauthorizedTenant = errors.New("not authorized to query this user's documents")

	// ErrGenerationUnavailable means the language model call failed or
	// returned a non-success status. Queries are not retried automatically.
	ErrGenerationUnavailable = errors.New("language model failed to generate response")

	// ErrChunkNotFound is returned by repositories when a chunk id has no
	// backing row.
	ErrChunkNotFound = errors.New("chunk not found")
)
