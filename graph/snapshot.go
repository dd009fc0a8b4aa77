package graph

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"

	"github.com/wangyu-dev/medgraph/schema"
)

// snapshotSchema holds the whole graph in two tables. Node and edge
// positions preserve insertion order so a loaded graph visualizes the same
// way the saved one did.
const snapshotSchema = `
CREATE TABLE entities (
    name TEXT PRIMARY KEY,
    entity_type TEXT NOT NULL,
    position INTEGER NOT NULL
);

CREATE TABLE relations (
    source TEXT NOT NULL,
    target TEXT NOT NULL,
    relation_type TEXT NOT NULL,
    position INTEGER NOT NULL,
    PRIMARY KEY (source, target)
);
`

// SaveSnapshot serializes the whole graph to a SQLite file at path,
// replacing any snapshot already there. The write happens into a temporary
// sibling file that is renamed over the target only once fully written, so
// an interrupted save never leaves a truncated snapshot behind.
func (g *Graph) SaveSnapshot(path string) error {
	dir := filepath.Dir(path)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("creating snapshot directory: %w", err)
		}
	}

	tmp := path + ".tmp"
	os.Remove(tmp)

	db, err := sql.Open("sqlite3", tmp)
	if err != nil {
		return fmt.Errorf("opening snapshot file: %w", err)
	}

	if err := g.writeSnapshot(db); err != nil {
		db.Close()
		os.Remove(tmp)
		return err
	}
	if err := db.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("closing snapshot file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("replacing snapshot: %w", err)
	}
	return nil
}

func (g *Graph) writeSnapshot(db *sql.DB) error {
	g.mu.RLock()
	defer g.mu.RUnlock()

	if _, err := db.Exec(snapshotSchema); err != nil {
		return fmt.Errorf("creating snapshot schema: %w", err)
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("beginning snapshot transaction: %w", err)
	}
	defer tx.Rollback()

	insEntity, err := tx.Prepare("INSERT INTO entities (name, entity_type, position) VALUES (?, ?, ?)")
	if err != nil {
		return err
	}
	defer insEntity.Close()
	for i, name := range g.order {
		if _, err := insEntity.Exec(name, string(g.nodes[name].Type), i); err != nil {
			return fmt.Errorf("writing entity %q: %w", name, err)
		}
	}

	insRel, err := tx.Prepare("INSERT INTO relations (source, target, relation_type, position) VALUES (?, ?, ?, ?)")
	if err != nil {
		return err
	}
	defer insRel.Close()
	for _, source := range g.order {
		for i, e := range g.out[source] {
			if _, err := insRel.Exec(source, e.target, string(e.typ), i); err != nil {
				return fmt.Errorf("writing relation %q -> %q: %w", source, e.target, err)
			}
		}
	}

	return tx.Commit()
}

// LoadSnapshot replaces the in-memory graph with the contents of the
// snapshot at path. Either the full graph loads, or the call fails and the
// store is left exactly as it was: the snapshot is decoded and validated
// into a fresh graph first and swapped in only on success.
func (g *Graph) LoadSnapshot(path string) error {
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("snapshot not readable: %w", err)
	}

	db, err := sql.Open("sqlite3", path+"?mode=ro")
	if err != nil {
		return fmt.Errorf("opening snapshot: %w", err)
	}
	defer db.Close()

	loaded, err := readSnapshot(db)
	if err != nil {
		return err
	}

	g.mu.Lock()
	g.nodes = loaded.nodes
	g.order = loaded.order
	g.out = loaded.out
	g.outIndex = loaded.outIndex
	g.in = loaded.in
	g.inIndex = loaded.inIndex
	g.mu.Unlock()
	return nil
}

func readSnapshot(db *sql.DB) (*Graph, error) {
	loaded := New()

	rows, err := db.Query("SELECT name, entity_type FROM entities ORDER BY position")
	if err != nil {
		return nil, fmt.Errorf("reading snapshot entities: %w", err)
	}
	for rows.Next() {
		var name, typ string
		if err := rows.Scan(&name, &typ); err != nil {
			rows.Close()
			return nil, err
		}
		entityType, ok := schema.ParseEntityType(typ)
		if !ok {
			rows.Close()
			return nil, fmt.Errorf("snapshot entity %q has unknown type %q", name, typ)
		}
		loaded.ensureNode(name, entityType)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	rows, err = db.Query("SELECT source, target, relation_type FROM relations ORDER BY source, position")
	if err != nil {
		return nil, fmt.Errorf("reading snapshot relations: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var source, target, typ string
		if err := rows.Scan(&source, &target, &typ); err != nil {
			return nil, err
		}
		relType, ok := schema.ParseRelationType(typ)
		if !ok {
			return nil, fmt.Errorf("snapshot relation %q -> %q has unknown type %q", source, target, typ)
		}
		if _, ok := loaded.nodes[source]; !ok {
			return nil, fmt.Errorf("snapshot relation references unknown entity %q", source)
		}
		if _, ok := loaded.nodes[target]; !ok {
			return nil, fmt.Errorf("snapshot relation references unknown entity %q", target)
		}
		loaded.setEdge(source, target, relType)
	}
	return loaded, rows.Err()
}
