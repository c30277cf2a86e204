package llm

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"docquery/internal/domain"
)

// Client generates text against an Ollama server. The wire contract is
// newline-delimited JSON objects, each optionally carrying a "response"
// fragment, terminated by the connection closing.
type Client struct {
	baseURL string
	model   string
	client  *http.Client
}

// Config configures the generation client.
type Config struct {
	BaseURL string
	Model   string
	Timeout time.Duration
}

// NewClient creates a generation client using the provided configuration.
func NewClient(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "http://localhost:11434"
	}
	if cfg.Model == "" {
		cfg.Model = "mistral"
	}
	t := cfg.Timeout
	if t == 0 {
		t = 2 * time.Minute
	}
	return &Client{
		baseURL: cfg.BaseURL,
		model:   cfg.Model,
		client:  &http.Client{Timeout: t},
	}
}

// Generate sends the prompt and accumulates the streamed fragments in
// arrival order. Malformed lines are skipped; a non-success status fails the
// whole call and is never retried here, to avoid duplicate-cost model calls.
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	body, _ := json.Marshal(map[string]string{
		"model":  c.model,
		"prompt": prompt,
	})
	url := fmt.Sprintf("%s/api/generate", c.baseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrGenerationUnavailable, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", fmt.Errorf("%w: %v", domain.ErrGenerationUnavailable, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: %s", domain.ErrGenerationUnavailable, resp.Status)
	}

	var answer strings.Builder
	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(bytes.TrimSpace(line)) == 0 {
			continue
		}
		var fragment struct {
			Response string `json:"response"`
		}
		if err := json.Unmarshal(line, &fragment); err != nil {
			// Partial answers remain useful; drop the bad line.
			continue
		}
		answer.WriteString(fragment.Response)
	}
	if err := scanner.Err(); err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", fmt.Errorf("%w: reading stream: %v", domain.ErrGenerationUnavailable, err)
	}
	return strings.TrimSpace(answer.String()), nil
}
