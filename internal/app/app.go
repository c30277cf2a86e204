// Package app builds the query service from configuration. Both binaries
// assemble the same way: one embedder for the process lifetime, one
// repository handle, one generation client.
package app

import (
	"fmt"
	"time"

	"docquery/internal/chunker"
	"docquery/internal/config"
	"docquery/internal/embedding"
	"docquery/internal/embedding/local"
	"docquery/internal/embedding/ollama"
	"docquery/internal/embedding/openai"
	"docquery/internal/llm"
	"docquery/internal/service"
	"docquery/internal/store"
	"docquery/internal/store/memory"
	"docquery/internal/store/sqlite"
)

// Assemble builds the service from config. The returned cleanup closes any
// resources the assembly opened (the sqlite handle) and is safe to call
// even on the no-op path.
func Assemble(cfg *config.AppConfig) (*service.Service, func(), error) {
	var emb embedding.Embedder
	var err error
	switch cfg.Embedder.Type {
	case "ollama", "":
		oc := cfg.Embedder.Ollama
		if oc == nil {
			oc = &config.OllamaEmbedderConfig{}
		}
		emb, err = ollama.NewClient(ollama.Config{
			BaseURL:   oc.BaseURL,
			Model:     oc.Model,
			Dimension: cfg.Embedder.Dimension,
			Timeout:   time.Duration(oc.TimeoutSecs) * time.Second,
		})
	case "openai":
		if cfg.Embedder.OpenAI == nil {
			return nil, nil, fmt.Errorf("openai embedder config missing")
		}
		emb, err = openai.NewEmbedder(openai.Config{
			APIKeyEnv: cfg.Embedder.OpenAI.APIKeyEnv,
			Model:     cfg.Embedder.OpenAI.Model,
			Dimension: cfg.Embedder.Dimension,
			BatchSize: cfg.Embedder.OpenAI.BatchSize,
		})
	case "local":
		emb, err = local.NewEmbedder(cfg.Embedder.Dimension)
	default:
		return nil, nil, fmt.Errorf("unknown embedder: %s", cfg.Embedder.Type)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("embedder init failed: %w", err)
	}

	cleanup := func() {}
	var repo store.Repository
	switch cfg.Store.Type {
	case "sqlite", "":
		path := "docquery.db"
		if cfg.Store.SQLite != nil && cfg.Store.SQLite.Path != "" {
			path = cfg.Store.SQLite.Path
		}
		db, err := sqlite.Open(path)
		if err != nil {
			return nil, nil, fmt.Errorf("sqlite init failed: %w", err)
		}
		repo = db
		cleanup = func() { _ = db.Close() }
	case "memory":
		repo = memory.NewRepository()
	default:
		return nil, nil, fmt.Errorf("unknown store: %s", cfg.Store.Type)
	}

	gen := llm.NewClient(llm.Config{
		BaseURL: cfg.LLM.BaseURL,
		Model:   cfg.LLM.Model,
		Timeout: time.Duration(cfg.LLM.TimeoutSecs) * time.Second,
	})

	ch, err := chunker.New(cfg.Chunker.Size, cfg.Chunker.Overlap)
	if err != nil {
		cleanup()
		return nil, nil, err
	}

	return service.New(ch, emb, repo, gen, cfg.Retrieval.TopK, nil), cleanup, nil
}
