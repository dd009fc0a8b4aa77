package medgraph

import (
	"os"
	"path/filepath"
)

// Config holds all configuration for the MedGraph engine.
type Config struct {
	// SnapshotPath is the full path to the graph snapshot file.
	// If empty, defaults to ~/.medgraph/<SnapshotName>.db
	SnapshotPath string `json:"snapshot_path"`

	// SnapshotName is the name for the snapshot (used when SnapshotPath is
	// empty). Defaults to "medgraph". The file will be <SnapshotName>.db
	// inside the storage directory.
	SnapshotName string `json:"snapshot_name"`

	// ResolverPath is the full path to the entity-name index database.
	// If empty, defaults to <SnapshotName>_names.db next to the snapshot.
	ResolverPath string `json:"resolver_path"`

	// StorageDir controls where files are created when paths are not set.
	// Options: "home" (default) uses ~/.medgraph/, "local" uses the current
	// working directory.
	StorageDir string `json:"storage_dir"`

	// LLM providers
	Chat      LLMConfig `json:"chat"`
	Embedding LLMConfig `json:"embedding"`

	// EmbeddingDim must match the embedding model's output dimension.
	EmbeddingDim int `json:"embedding_dim"`

	// ExtractConcurrency caps parallel LLM calls during text ingestion
	// (default 8).
	ExtractConcurrency int `json:"extract_concurrency"`

	// SeedBaseline loads the curated starter relations on engine creation
	// when the graph starts empty.
	SeedBaseline bool `json:"seed_baseline"`

	// MaxVizNodes caps the visualization export size (default 100).
	MaxVizNodes int `json:"max_viz_nodes"`
}

// LLMConfig configures a single LLM provider endpoint.
type LLMConfig struct {
	Provider string `json:"provider"` // ollama, openai, openrouter, custom
	Model    string `json:"model"`
	BaseURL  string `json:"base_url"`
	APIKey   string `json:"api_key"`
}

// DefaultConfig returns a Config with sensible defaults for local inference.
// The snapshot is stored in ~/.medgraph/medgraph.db by default.
func DefaultConfig() Config {
	return Config{
		SnapshotName: "medgraph",
		StorageDir:   "home",
		Chat: LLMConfig{
			Provider: "ollama",
			Model:    "llama3.1:8b",
			BaseURL:  "http://localhost:11434",
		},
		Embedding: LLMConfig{
			Provider: "ollama",
			Model:    "nomic-embed-text",
			BaseURL:  "http://localhost:11434",
		},
		EmbeddingDim:       768,
		ExtractConcurrency: 8,
		SeedBaseline:       true,
		MaxVizNodes:        100,
	}
}

// resolveSnapshotPath computes the final snapshot path from config fields.
func (c *Config) resolveSnapshotPath() string {
	if c.SnapshotPath != "" {
		return c.SnapshotPath
	}

	name := c.SnapshotName
	if name == "" {
		name = "medgraph"
	}

	switch c.StorageDir {
	case "local", "cwd":
		return name + ".db"
	default: // "home" or empty
		home, err := os.UserHomeDir()
		if err != nil {
			return name + ".db" // fallback to cwd
		}
		return filepath.Join(home, ".medgraph", name+".db")
	}
}

// resolveResolverPath computes the entity-name index path, defaulting to a
// sibling of the snapshot.
func (c *Config) resolveResolverPath() string {
	if c.ResolverPath != "" {
		return c.ResolverPath
	}
	snapshot := c.resolveSnapshotPath()
	base := snapshot[:len(snapshot)-len(filepath.Ext(snapshot))]
	return base + "_names.db"
}
