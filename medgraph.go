// Package medgraph is a medical knowledge-graph engine: a typed, directed
// entity-relation store with schema validation, bounded traversal, symptom
// based retrieval, LLM-backed ingestion, SQLite snapshots, and a
// visualization export.
package medgraph

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/wangyu-dev/medgraph/graph"
	"github.com/wangyu-dev/medgraph/ingest"
	"github.com/wangyu-dev/medgraph/llm"
	"github.com/wangyu-dev/medgraph/retrieval"
	"github.com/wangyu-dev/medgraph/schema"
)

// Engine is the main entry point for the medical knowledge-graph engine.
type Engine interface {
	// AddRelation inserts one validated relation directly.
	AddRelation(source string, sourceType schema.EntityType, target string, targetType schema.EntityType, relation schema.RelationType) bool

	// Retrieve builds the knowledge bundle for a list of canonical symptom
	// names.
	Retrieve(symptoms []string) *retrieval.Bundle

	// RetrieveFromText extracts symptoms from a patient description,
	// resolves them against the graph, and retrieves.
	RetrieveFromText(ctx context.Context, text string) (*retrieval.Bundle, error)

	// ExtractSymptoms extracts symptom mentions from a patient description
	// without retrieving.
	ExtractSymptoms(ctx context.Context, text string) ([]string, error)

	// IngestTexts extracts relations from free texts and inserts them.
	IngestTexts(ctx context.Context, texts []string) (IngestResult, error)

	// IngestFile loads relations from a file. Supported formats: .xlsx
	// (relation rows), .pdf and .json (free text routed through LLM
	// extraction).
	IngestFile(ctx context.Context, path string) (IngestResult, error)

	// Seed loads the curated baseline relations.
	Seed() int

	// Entities lists entity names, optionally filtered by type.
	Entities(typeFilter schema.EntityType) []string

	// SaveSnapshot persists the graph to the configured snapshot path.
	SaveSnapshot() error

	// LoadSnapshot replaces the graph with the configured snapshot's
	// contents. The running graph is untouched on failure.
	LoadSnapshot() error

	// Visualization exports the renderable graph with the given entities
	// highlighted.
	Visualization(highlights []string) *graph.VizGraph

	// RebuildResolverIndex re-embeds all entity names into the resolver
	// index. Call after ingestion so new entities become resolvable.
	RebuildResolverIndex(ctx context.Context) error

	// Graph returns the underlying graph for diagnostic access.
	Graph() *graph.Graph

	// Close cleanly shuts down the engine.
	Close() error
}

// IngestResult reports the outcome of an ingestion run.
type IngestResult struct {
	Added   int `json:"added"`
	Skipped int `json:"skipped"`
}

// engine is the concrete implementation of Engine.
type engine struct {
	cfg          Config
	graph        *graph.Graph
	aggregator   *retrieval.Aggregator
	extractor    *ingest.Extractor
	resolver     *retrieval.Resolver
	chatLLM      llm.Provider
	embedLLM     llm.Provider
	snapshotPath string
}

// New creates a MedGraph engine with the given configuration. An existing
// snapshot at the configured path is loaded; otherwise the graph starts
// empty (seeded with the baseline when configured).
func New(cfg Config) (Engine, error) {
	if cfg.EmbeddingDim == 0 {
		cfg.EmbeddingDim = 768
	}
	if cfg.MaxVizNodes == 0 {
		cfg.MaxVizNodes = 100
	}

	chatLLM, err := llm.NewProvider(llm.Config{
		Provider: cfg.Chat.Provider,
		Model:    cfg.Chat.Model,
		BaseURL:  cfg.Chat.BaseURL,
		APIKey:   cfg.Chat.APIKey,
	})
	if err != nil {
		return nil, fmt.Errorf("creating chat provider: %w", err)
	}

	embedLLM, err := llm.NewProvider(llm.Config{
		Provider: cfg.Embedding.Provider,
		Model:    cfg.Embedding.Model,
		BaseURL:  cfg.Embedding.BaseURL,
		APIKey:   cfg.Embedding.APIKey,
	})
	if err != nil {
		return nil, fmt.Errorf("creating embedding provider: %w", err)
	}

	g := graph.New()
	snapshotPath := cfg.resolveSnapshotPath()
	if err := g.LoadSnapshot(snapshotPath); err != nil {
		slog.Info("medgraph: starting with empty graph", "snapshot", snapshotPath, "reason", err)
		if cfg.SeedBaseline {
			ingest.SeedBaseline(g)
		}
	} else {
		slog.Info("medgraph: snapshot loaded", "snapshot", snapshotPath, "entities", g.NodeCount(), "relations", g.EdgeCount())
	}

	resolver, err := retrieval.NewResolver(cfg.resolveResolverPath(), embedLLM, cfg.EmbeddingDim)
	if err != nil {
		return nil, fmt.Errorf("creating resolver: %w", err)
	}

	return &engine{
		cfg:          cfg,
		graph:        g,
		aggregator:   retrieval.NewAggregator(g),
		extractor:    ingest.NewExtractor(g, chatLLM, cfg.ExtractConcurrency),
		resolver:     resolver,
		chatLLM:      chatLLM,
		embedLLM:     embedLLM,
		snapshotPath: snapshotPath,
	}, nil
}

func (e *engine) AddRelation(source string, sourceType schema.EntityType, target string, targetType schema.EntityType, relation schema.RelationType) bool {
	return e.graph.AddRelation(source, sourceType, target, targetType, relation)
}

func (e *engine) Retrieve(symptoms []string) *retrieval.Bundle {
	return e.aggregator.Retrieve(symptoms)
}

func (e *engine) RetrieveFromText(ctx context.Context, text string) (*retrieval.Bundle, error) {
	mentions, err := e.extractor.ExtractSymptoms(ctx, text)
	if err != nil {
		return nil, err
	}
	if len(mentions) == 0 {
		return e.aggregator.Retrieve(nil), nil
	}

	symptoms, err := e.resolver.ResolveAll(ctx, mentions)
	if err != nil {
		return nil, err
	}

	// Mentions the resolver could not place still participate: an exact
	// graph hit needs no embedding, and a true miss just contributes an
	// empty neighborhood.
	resolved := make(map[string]bool, len(symptoms))
	for _, s := range symptoms {
		resolved[s] = true
	}
	for _, m := range mentions {
		if !resolved[m] && e.graph.HasEntity(m) {
			symptoms = append(symptoms, m)
		}
	}

	slog.Info("medgraph: symptoms resolved", "mentions", len(mentions), "resolved", len(symptoms))
	return e.aggregator.Retrieve(symptoms), nil
}

func (e *engine) ExtractSymptoms(ctx context.Context, text string) ([]string, error) {
	return e.extractor.ExtractSymptoms(ctx, text)
}

func (e *engine) IngestTexts(ctx context.Context, texts []string) (IngestResult, error) {
	added, skipped, err := e.extractor.IngestTexts(ctx, texts)
	return IngestResult{Added: added, Skipped: skipped}, err
}

func (e *engine) IngestFile(ctx context.Context, path string) (IngestResult, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx":
		added, skipped, err := ingest.LoadXLSX(e.graph, path)
		return IngestResult{Added: added, Skipped: skipped}, err
	case ".pdf":
		texts, err := ingest.ExtractPDFText(path)
		if err != nil {
			return IngestResult{}, err
		}
		return e.IngestTexts(ctx, texts)
	case ".json":
		texts, err := ingest.LoadJSONTexts(path)
		if err != nil {
			return IngestResult{}, err
		}
		return e.IngestTexts(ctx, texts)
	default:
		return IngestResult{}, fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Ext(path))
	}
}

func (e *engine) Seed() int {
	return ingest.SeedBaseline(e.graph)
}

func (e *engine) Entities(typeFilter schema.EntityType) []string {
	return e.graph.Entities(typeFilter)
}

func (e *engine) SaveSnapshot() error {
	return e.graph.SaveSnapshot(e.snapshotPath)
}

func (e *engine) LoadSnapshot() error {
	return e.graph.LoadSnapshot(e.snapshotPath)
}

func (e *engine) Visualization(highlights []string) *graph.VizGraph {
	return e.graph.Export(e.cfg.MaxVizNodes, highlights)
}

func (e *engine) RebuildResolverIndex(ctx context.Context) error {
	return e.resolver.Index(ctx, e.graph)
}

func (e *engine) Graph() *graph.Graph {
	return e.graph
}

func (e *engine) Close() error {
	return e.resolver.Close()
}
