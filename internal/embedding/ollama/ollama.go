package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"docquery/internal/domain"
)

// Client computes embeddings against an Ollama server. It also understands
// OpenAI-compatible response bodies so it can point at any server exposing
// the same route.
type Client struct {
	baseURL    string
	model      string
	dimension  int
	client     *http.Client
	maxRetries int
}

// Config configures the embeddings client. Dimension is the deployment's
// fixed vector length; responses of any other length are rejected.
type Config struct {
	BaseURL   string
	Model     string
	Dimension int
	Timeout   time.Duration
}

// NewClient creates an embeddings client using the provided configuration.
func NewClient(cfg Config) (*Client, error) {
	if cfg.Dimension <= 0 {
		return nil, fmt.Errorf("%w: embedding dimension %d must be positive", domain.ErrInvalidConfig, cfg.Dimension)
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "http://localhost:11434"
	}
	if cfg.Model == "" {
		cfg.Model = "all-minilm"
	}
	t := cfg.Timeout
	if t == 0 {
		t = 30 * time.Second
	}
	return &Client{
		baseURL:    cfg.BaseURL,
		model:      cfg.Model,
		dimension:  cfg.Dimension,
		client:     &http.Client{Timeout: t},
		maxRetries: 5,
	}, nil
}

// Name returns the identifier of this embedder implementation.
func (c *Client) Name() string { return "ollama" }

// Dimension returns the dimensionality of the produced embedding vectors.
func (c *Client) Dimension() int { return c.dimension }

// Embed returns an embedding vector for the given text.
func (c *Client) Embed(ctx context.Context, text string) ([]float64, error) {
	type reqBody struct {
		Model  string `json:"model"`
		Prompt string `json:"prompt"`
	}
	url := fmt.Sprintf("%s/api/embeddings", c.baseURL)
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		data, _ := json.Marshal(reqBody{Model: c.model, Prompt: text})
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrEmbeddingUnavailable, err)
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.client.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			if attempt < c.maxRetries {
				time.Sleep(retryDelay(attempt))
				continue
			}
			return nil, fmt.Errorf("%w: %v", domain.ErrEmbeddingUnavailable, err)
		}

		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			// Respect Retry-After if provided
			if ra := resp.Header.Get("Retry-After"); ra != "" {
				if secs, err := strconv.Atoi(ra); err == nil {
					_ = resp.Body.Close()
					time.Sleep(time.Duration(secs) * time.Second)
				} else {
					_ = resp.Body.Close()
					time.Sleep(retryDelay(attempt))
				}
			} else {
				_ = resp.Body.Close()
				time.Sleep(retryDelay(attempt))
			}
			if attempt < c.maxRetries {
				continue
			}
			return nil, fmt.Errorf("%w: %s", domain.ErrEmbeddingUnavailable, resp.Status)
		}

		if resp.StatusCode >= 300 {
			_ = resp.Body.Close()
			return nil, fmt.Errorf("%w: %s", domain.ErrEmbeddingUnavailable, resp.Status)
		}

		payload, err := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		if err != nil {
			if attempt < c.maxRetries {
				time.Sleep(retryDelay(attempt))
				continue
			}
			return nil, fmt.Errorf("%w: %v", domain.ErrEmbeddingUnavailable, err)
		}
		if v, ok := parseEmbedding(payload); ok {
			if len(v) != c.dimension {
				return nil, fmt.Errorf("%w: model returned %d-dimensional vector, deployment expects %d",
					domain.ErrInvalidConfig, len(v), c.dimension)
			}
			return v, nil
		}
		if attempt < c.maxRetries {
			time.Sleep(retryDelay(attempt))
			continue
		}
	}
	return nil, fmt.Errorf("%w: no embedding returned", domain.ErrEmbeddingUnavailable)
}

// EmbedBatch embeds the texts in order. A failure on any text fails the
// whole batch.
func (c *Client) EmbedBatch(ctx context.Context, texts []string) ([][]float64, error) {
	out := make([][]float64, len(texts))
	for i, t := range texts {
		v, err := c.Embed(ctx, t)
		if err != nil {
			return nil, fmt.Errorf("embedding text %d: %w", i, err)
		}
		out[i] = v
	}
	return out, nil
}

func parseEmbedding(payload []byte) ([]float64, bool) {
	// Ollama-native shape: { "embedding": [...] }
	var native struct {
		Embedding []float64 `json:"embedding"`
	}
	if err := json.Unmarshal(payload, &native); err == nil && len(native.Embedding) > 0 {
		return native.Embedding, true
	}
	// OpenAI-compatible shape: { "data": [ { "embedding": [...] } ] }
	var compat struct {
		Data []struct {
			Embedding []float64 `json:"embedding"`
		} `json:"data"`
	}
	if err := json.Unmarshal(payload, &compat); err == nil && len(compat.Data) > 0 && len(compat.Data[0].Embedding) > 0 {
		return compat.Data[0].Embedding, true
	}
	return nil, false
}

func retryDelay(attempt int) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	base := 200 * time.Millisecond
	// exponential backoff capped at 5s
	d := base << attempt
	if d > 5*time.Second {
		d = 5 * time.Second
	}
	return d
}
