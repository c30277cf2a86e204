package config

import (
	"errors"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// OllamaEmbedderConfig holds connection details for the Ollama embeddings
// endpoint.
type OllamaEmbedderConfig struct {
	BaseURL     string `yaml:"base_url"`
	Model       string `yaml:"model"`
	TimeoutSecs int    `yaml:"timeout_secs"`
}

// OpenAIEmbedderConfig holds configuration for the OpenAI embedder.
type OpenAIEmbedderConfig struct {
	APIKeyEnv string `yaml:"api_key_env"`
	Model     string `yaml:"model"`
	BatchSize int    `yaml:"batch_size"`
}

// EmbedderConfig selects and configures the embedder implementation.
// Dimension is fixed for the deployment's lifetime; changing the model
// requires re-embedding every stored chunk.
type EmbedderConfig struct {
	Type      string                `yaml:"type"`
	Dimension int                   `yaml:"dimension"`
	Ollama    *OllamaEmbedderConfig `yaml:"ollama,omitempty"`
	OpenAI    *OpenAIEmbedderConfig `yaml:"openai,omitempty"`
}

// ChunkerConfig configures the document window chunker. Overlap must be
// strictly smaller than Size.
type ChunkerConfig struct {
	Size    int `yaml:"size"`
	Overlap int `yaml:"overlap"`
}

// SQLiteConfig contains the path of the SQLite database file.
type SQLiteConfig struct {
	Path string `yaml:"path"`
}

// StoreConfig selects and configures the repository implementation.
type StoreConfig struct {
	Type   string        `yaml:"type"`
	SQLite *SQLiteConfig `yaml:"sqlite,omitempty"`
}

// LLMConfig configures the generation model endpoint.
type LLMConfig struct {
	BaseURL     string `yaml:"base_url"`
	Model       string `yaml:"model"`
	TimeoutSecs int    `yaml:"timeout_secs"`
}

// RetrievalConfig configures how many chunks are retrieved per query.
type RetrievalConfig struct {
	TopK int `yaml:"top_k"`
}

// AppConfig is the root application configuration structure.
type AppConfig struct {
	Embedder  EmbedderConfig  `yaml:"embedder"`
	Chunker   ChunkerConfig   `yaml:"chunker"`
	Store     StoreConfig     `yaml:"store"`
	LLM       LLMConfig       `yaml:"llm"`
	Retrieval RetrievalConfig `yaml:"retrieval"`
}

// Load reads a config from a specified path. If the file does not exist, returns defaults.
func Load(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			cfg := defaultConfig()
			return cfg, nil
		}
		return nil, err
	}
	var cfg AppConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	applyConfigDefaults(&cfg)
	return &cfg, nil
}

// LoadDefault tries ./config.yaml first, then ~/.config/docquery/config.yaml.
// If neither exists, it writes defaults to ~/.config/docquery/config.yaml and
// returns them.
func LoadDefault() (*AppConfig, string, error) {
	cwdPath := "config.yaml"
	if _, err := os.Stat(cwdPath); err == nil {
		cfg, err := Load(cwdPath)
		return cfg, cwdPath, err
	}
	userPath, err := defaultUserConfigPath()
	if err != nil {
		return nil, "", err
	}
	if _, err := os.Stat(userPath); err == nil {
		cfg, err := Load(userPath)
		return cfg, userPath, err
	}
	cfg := defaultConfig()
	if err := Save(userPath, cfg); err != nil {
		return nil, "", err
	}
	return cfg, userPath, nil
}

// Save writes the config to the given path, creating directories as needed.
func Save(path string, cfg *AppConfig) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func defaultUserConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "docquery", "config.yaml"), nil
}

func defaultConfig() *AppConfig {
	cfg := &AppConfig{
		Embedder: EmbedderConfig{
			Type:      "ollama",
			Dimension: 384,
			Ollama:    &OllamaEmbedderConfig{BaseURL: "http://localhost:11434", Model: "all-minilm", TimeoutSecs: 30},
		},
		Chunker: ChunkerConfig{Size: 1000, Overlap: 100},
		Store:   StoreConfig{Type: "sqlite", SQLite: &SQLiteConfig{Path: "docquery.db"}},
		LLM:     LLMConfig{BaseURL: "http://localhost:11434", Model: "mistral", TimeoutSecs: 120},
		Retrieval: RetrievalConfig{
			TopK: 3,
		},
	}
	return cfg
}

func applyConfigDefaults(cfg *AppConfig) {
	if cfg.Embedder.Dimension == 0 {
		cfg.Embedder.Dimension = 384
	}
	if cfg.Embedder.Type == "ollama" && cfg.Embedder.Ollama != nil {
		if cfg.Embedder.Ollama.BaseURL == "" {
			cfg.Embedder.Ollama.BaseURL = "http://localhost:11434"
		}
		if cfg.Embedder.Ollama.Model == "" {
			cfg.Embedder.Ollama.Model = "all-minilm"
		}
		if cfg.Embedder.Ollama.TimeoutSecs == 0 {
			cfg.Embedder.Ollama.TimeoutSecs = 30
		}
	}
	if cfg.Embedder.Type == "openai" && cfg.Embedder.OpenAI != nil {
		if cfg.Embedder.OpenAI.APIKeyEnv == "" {
			cfg.Embedder.OpenAI.APIKeyEnv = "OPENAI_API_KEY"
		}
		if cfg.Embedder.OpenAI.Model == "" {
			cfg.Embedder.OpenAI.Model = "text-embedding-3-small"
		}
		if cfg.Embedder.OpenAI.BatchSize == 0 {
			cfg.Embedder.OpenAI.BatchSize = 32
		}
	}
	if cfg.Chunker.Size == 0 {
		cfg.Chunker.Size = 1000
		if cfg.Chunker.Overlap == 0 {
			cfg.Chunker.Overlap = 100
		}
	}
	if cfg.Store.Type == "sqlite" && cfg.Store.SQLite == nil {
		cfg.Store.SQLite = &SQLiteConfig{Path: "docquery.db"}
	}
	if cfg.LLM.BaseURL == "" {
		cfg.LLM.BaseURL = "http://localhost:11434"
	}
	if cfg.LLM.Model == "" {
		cfg.LLM.Model = "mistral"
	}
	if cfg.LLM.TimeoutSecs == 0 {
		cfg.LLM.TimeoutSecs = 120
	}
	if cfg.Retrieval.TopK == 0 {
		cfg.Retrieval.TopK = 3
	}
}
