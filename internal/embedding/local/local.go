package local

import (
	"context"
	"fmt"
	"hash/fnv"
	"math"
	"regexp"
	"strings"

	"docquery/internal/domain"
)

// Embedder is a deterministic offline embedder: token counts are hashed
// into a fixed number of buckets and the result is L2-normalized. It needs
// no model server, which makes it suitable for development and tests, but
// it captures no semantics beyond token overlap.
type Embedder struct {
	dimension    int
	tokenPattern *regexp.Regexp
}

// NewEmbedder creates a token-hash embedder with the given dimension.
func NewEmbedder(dimension int) (*Embedder, error) {
	if dimension <= 0 {
		return nil, fmt.Errorf("%w: embedding dimension %d must be positive", domain.ErrInvalidConfig, dimension)
	}
	return &Embedder{
		dimension:    dimension,
		tokenPattern: regexp.MustCompile(`\p{L}+(?:['’]\p{L}+)*`),
	}, nil
}

// Name returns the identifier of this embedder implementation.
func (e *Embedder) Name() string { return "local" }

// Dimension returns the dimensionality of the produced embedding vectors.
func (e *Embedder) Dimension() int { return e.dimension }

// Embed computes the token-hash embedding for the given text.
func (e *Embedder) Embed(_ context.Context, text string) ([]float64, error) {
	vec := make([]float64, e.dimension)
	tokens := e.tokenPattern.FindAllString(strings.ToLower(text), -1)
	for _, tok := range tokens {
		h := fnv.New32a()
		_, _ = h.Write([]byte(tok))
		vec[int(h.Sum32())%e.dimension]++
	}
	// L2 normalize
	norm := 0.0
	for _, v := range vec {
		norm += v * v
	}
	norm = math.Sqrt(norm)
	if norm > 0 {
		for i := range vec {
			vec[i] /= norm
		}
	}
	return vec, nil
}

// EmbedBatch embeds the texts in order. Each text is embedded exactly as
// Embed would, so batch and single calls agree bit for bit.
func (e *Embedder) EmbedBatch(ctx context.Context, texts []string) ([][]float64, error) {
	out := make([][]float64, len(texts))
	for i, t := range texts {
		v, err := e.Embed(ctx, t)
		if err != nil {
			return nil, fmt.Errorf("embedding text %d: %w", i, err)
		}
		out[i] = v
	}
	return out, nil
}
