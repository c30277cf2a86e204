package embedding

import "context"

// Embedder converts free text into a fixed-length numeric vector. The
// dimension is a deployment constant: every vector an implementation
// produces has exactly Dimension() values, and changing the model requires
// re-embedding everything already stored.
//
// Implementations must be safe for concurrent use, and embedding the same
// text via Embed or EmbedBatch must yield equivalent vectors.
type Embedder interface {
	Name() string
	Dimension() int
	Embed(ctx context.Context, text string) ([]float64, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float64, error)
}
