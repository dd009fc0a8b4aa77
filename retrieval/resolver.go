package retrieval

import (
	"context"
	"database/sql"
	"encoding/binary"
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"

	sqlite_vec "github.com/asg017/sqlite-vec-go-bindings/cgo"
	_ "github.com/mattn/go-sqlite3"

	"github.com/wangyu-dev/medgraph/graph"
	"github.com/wangyu-dev/medgraph/llm"
)

func init() {
	sqlite_vec.Auto()
}

const (
	// embedBatchSize limits how many entity names go into one embedding call.
	embedBatchSize = 32

	// defaultMaxDistance is the cosine-distance cutoff above which a nearest
	// neighbor is considered unrelated and the query term is left unresolved.
	defaultMaxDistance = 0.85
)

// resolverSchema holds the entity-name index: a rowid-keyed name table plus
// the sqlite-vec virtual table carrying the embeddings.
func resolverSchema(dim int) string {
	return fmt.Sprintf(`
CREATE TABLE IF NOT EXISTS entity_names (
    id INTEGER PRIMARY KEY,
    name TEXT NOT NULL UNIQUE,
    entity_type TEXT NOT NULL
);

CREATE VIRTUAL TABLE IF NOT EXISTS vec_entity_names USING vec0(
    entity_id INTEGER PRIMARY KEY,
    embedding float[%d]
);
`, dim)
}

// Resolver maps free-text symptom mentions to canonical graph entity names
// by nearest-neighbor search over name embeddings. Extracted symptoms rarely
// match graph entities verbatim ("feverish" vs "High fever"); the resolver
// bridges that gap before aggregation.
type Resolver struct {
	db          *sql.DB
	embed       llm.Provider
	dim         int
	maxDistance float64
}

// NewResolver opens (or creates) the index database at path.
func NewResolver(path string, embed llm.Provider, dim int) (*Resolver, error) {
	if dim <= 0 {
		return nil, fmt.Errorf("embedding dimension must be positive, got %d", dim)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating resolver directory: %w", err)
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("opening resolver database: %w", err)
	}
	if _, err := db.Exec(resolverSchema(dim)); err != nil {
		db.Close()
		return nil, fmt.Errorf("initializing resolver schema: %w", err)
	}

	return &Resolver{db: db, embed: embed, dim: dim, maxDistance: defaultMaxDistance}, nil
}

// Close releases the underlying database.
func (r *Resolver) Close() error {
	return r.db.Close()
}

// Index rebuilds the name index from the graph's current entities. Existing
// rows are dropped first, so Index is safe to call after any ingestion run.
func (r *Resolver) Index(ctx context.Context, g *graph.Graph) error {
	names := g.Entities("")
	if len(names) == 0 {
		return nil
	}

	if _, err := r.db.ExecContext(ctx, "DELETE FROM entity_names"); err != nil {
		return fmt.Errorf("clearing name index: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, "DELETE FROM vec_entity_names"); err != nil {
		return fmt.Errorf("clearing vector index: %w", err)
	}

	for start := 0; start < len(names); start += embedBatchSize {
		end := start + embedBatchSize
		if end > len(names) {
			end = len(names)
		}
		batch := names[start:end]

		embeddings, err := r.embed.Embed(ctx, batch)
		if err != nil {
			return fmt.Errorf("embedding entity names: %w", err)
		}
		if len(embeddings) != len(batch) {
			return fmt.Errorf("embedding count mismatch: got %d, want %d", len(embeddings), len(batch))
		}

		tx, err := r.db.BeginTx(ctx, nil)
		if err != nil {
			return err
		}
		for i, name := range batch {
			if len(embeddings[i]) != r.dim {
				tx.Rollback()
				return fmt.Errorf("embedding for %q has dimension %d, want %d", name, len(embeddings[i]), r.dim)
			}
			entityType, _ := g.EntityType(name)
			res, err := tx.ExecContext(ctx,
				"INSERT INTO entity_names (name, entity_type) VALUES (?, ?)", name, string(entityType))
			if err != nil {
				tx.Rollback()
				return fmt.Errorf("inserting entity name %q: %w", name, err)
			}
			id, err := res.LastInsertId()
			if err != nil {
				tx.Rollback()
				return err
			}
			if _, err := tx.ExecContext(ctx,
				"INSERT INTO vec_entity_names (entity_id, embedding) VALUES (?, ?)",
				id, serializeFloat32(embeddings[i])); err != nil {
				tx.Rollback()
				return fmt.Errorf("inserting embedding for %q: %w", name, err)
			}
		}
		if err := tx.Commit(); err != nil {
			return err
		}
	}

	slog.Info("retrieval: entity name index rebuilt", "entities", len(names))
	return nil
}

// Resolve maps one mention to the nearest indexed entity name. The second
// return value is false when the index is empty or the nearest neighbor is
// farther than the distance cutoff.
func (r *Resolver) Resolve(ctx context.Context, mention string) (string, bool, error) {
	embeddings, err := r.embed.Embed(ctx, []string{mention})
	if err != nil {
		return "", false, fmt.Errorf("embedding mention %q: %w", mention, err)
	}
	if len(embeddings) != 1 {
		return "", false, fmt.Errorf("embedding count mismatch: got %d, want 1", len(embeddings))
	}

	var (
		name     string
		distance float64
	)
	err = r.db.QueryRowContext(ctx, `
		SELECT n.name, v.distance
		FROM vec_entity_names v
		JOIN entity_names n ON n.id = v.entity_id
		WHERE v.embedding MATCH ? AND k = ?
		ORDER BY v.distance
	`, serializeFloat32(embeddings[0]), 1).Scan(&name, &distance)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("querying name index: %w", err)
	}

	if distance > r.maxDistance {
		slog.Debug("retrieval: mention unresolved", "mention", mention, "nearest", name, "distance", distance)
		return "", false, nil
	}
	return name, true, nil
}

// ResolveAll resolves a batch of mentions, dropping the ones that do not
// resolve and deduplicating the canonical names.
func (r *Resolver) ResolveAll(ctx context.Context, mentions []string) ([]string, error) {
	seen := make(map[string]bool, len(mentions))
	var resolved []string
	for _, m := range mentions {
		name, ok, err := r.Resolve(ctx, m)
		if err != nil {
			return nil, err
		}
		if !ok || seen[name] {
			continue
		}
		seen[name] = true
		resolved = append(resolved, name)
	}
	return resolved, nil
}

// serializeFloat32 converts a float32 slice to little-endian bytes for sqlite-vec.
func serializeFloat32(v []float32) []byte {
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}
