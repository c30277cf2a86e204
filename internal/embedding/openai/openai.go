package openai

import (
	"context"
	"fmt"
	"os"

	openai "github.com/sashabaranov/go-openai"

	"docquery/internal/domain"
)

// Embedder computes embeddings through the OpenAI API.
type Embedder struct {
	client    *openai.Client
	model     string
	dimension int
	batchSize int
}

// Config configures the OpenAI embedder. APIKeyEnv names the environment
// variable holding the key. Dimension must match the chosen model's output
// size for the deployment.
type Config struct {
	APIKeyEnv string
	Model     string
	Dimension int
	BatchSize int
}

// NewEmbedder creates an OpenAI embedder from the provided configuration.
func NewEmbedder(cfg Config) (*Embedder, error) {
	if cfg.APIKeyEnv == "" {
		cfg.APIKeyEnv = "OPENAI_API_KEY"
	}
	key := os.Getenv(cfg.APIKeyEnv)
	if key == "" {
		return nil, fmt.Errorf("%w: missing API key in env %s", domain.ErrInvalidConfig, cfg.APIKeyEnv)
	}
	if cfg.Model == "" {
		cfg.Model = "text-embedding-3-small"
	}
	if cfg.Dimension <= 0 {
		return nil, fmt.Errorf("%w: embedding dimension %d must be positive", domain.ErrInvalidConfig, cfg.Dimension)
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 32
	}
	return &Embedder{
		client:    openai.NewClient(key),
		model:     cfg.Model,
		dimension: cfg.Dimension,
		batchSize: cfg.BatchSize,
	}, nil
}

// Name returns the identifier of this embedder implementation.
func (e *Embedder) Name() string { return "openai" }

// Dimension returns the dimensionality of the produced embedding vectors.
func (e *Embedder) Dimension() int { return e.dimension }

// Embed returns an embedding vector for a single text.
func (e *Embedder) Embed(ctx context.Context, text string) ([]float64, error) {
	vecs, err := e.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

// EmbedBatch embeds the texts in order, requesting at most the configured
// batch size per API call.
func (e *Embedder) EmbedBatch(ctx context.Context, texts []string) ([][]float64, error) {
	out := make([][]float64, 0, len(texts))
	for start := 0; start < len(texts); start += e.batchSize {
		end := start + e.batchSize
		if end > len(texts) {
			end = len(texts)
		}
		resp, err := e.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
			Model: openai.EmbeddingModel(e.model),
			Input: texts[start:end],
		})
		if err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrEmbeddingUnavailable, err)
		}
		if len(resp.Data) != end-start {
			return nil, fmt.Errorf("%w: requested %d embeddings, got %d",
				domain.ErrEmbeddingUnavailable, end-start, len(resp.Data))
		}
		for _, d := range resp.Data {
			v := make([]float64, len(d.Embedding))
			for i, x := range d.Embedding {
				v[i] = float64(x)
			}
			if len(v) != e.dimension {
				return nil, fmt.Errorf("%w: model returned %d-dimensional vector, deployment expects %d",
					domain.ErrInvalidConfig, len(v), e.dimension)
			}
			out = append(out, v)
		}
	}
	return out, nil
}
