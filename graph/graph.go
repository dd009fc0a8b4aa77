// Package graph implements the in-memory medical knowledge graph: a
// directed, typed entity-relation store with bounded traversal, simple-path
// enumeration, SQLite snapshots, and a visualization export.
//
// The graph follows a build-then-serve lifecycle: an ingestion phase performs
// all AddRelation calls, after which the graph is read-mostly. A read-write
// lock guards the node and edge maps so concurrent readers during ingestion
// stay safe; there is no entity or relation deletion.
package graph

import (
	"sync"

	"github.com/wangyu-dev/medgraph/schema"
)

// Entity is a uniquely named node. The name is the identity key; the type is
// fixed at first creation and the label is derived from the type's display
// label at that moment.
type Entity struct {
	Name  string
	Type  schema.EntityType
	Label string
}

// edge is a single directed, typed link. A given ordered (source, target)
// pair stores at most one edge; inserting a second relation for the same
// pair overwrites the first, so multiple distinct relation types between the
// same ordered pair cannot coexist. This is a structural limitation inherited
// from the storage layout, preserved deliberately.
type edge struct {
	target string
	typ    schema.RelationType
}

// Graph owns all entities and relations exclusively. Construct with New,
// populate with AddRelation, then query read-only or snapshot.
type Graph struct {
	mu    sync.RWMutex
	nodes map[string]Entity
	order []string // node names in insertion order, for the viz export

	// out holds outgoing adjacency per source in edge insertion order;
	// outIndex maps source -> target -> position in out for O(1) overwrite.
	out      map[string][]edge
	outIndex map[string]map[string]int

	// in mirrors out for incoming edges, used by the retrieval aggregator's
	// predecessor scan.
	in      map[string][]edge // edge.target here is the edge's source node
	inIndex map[string]map[string]int
}

// New returns an empty graph.
func New() *Graph {
	return &Graph{
		nodes:    make(map[string]Entity),
		out:      make(map[string][]edge),
		outIndex: make(map[string]map[string]int),
		in:       make(map[string][]edge),
		inIndex:  make(map[string]map[string]int),
	}
}

// AddRelation validates the supplied types against the schema registry and,
// on success, creates the source and target entities if unseen and writes
// (or overwrites) the single relation record for the ordered pair. A failed
// validation performs no mutation at all. If either entity name already
// exists, its stored type is left unchanged even when the supplied type
// differs.
func (g *Graph) AddRelation(source string, sourceType schema.EntityType, target string, targetType schema.EntityType, relation schema.RelationType) bool {
	if source == "" || target == "" {
		return false
	}
	if !schema.ValidEntityType(sourceType) || !schema.ValidEntityType(targetType) {
		return false
	}
	if !schema.ValidRelationType(relation) {
		return false
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	g.ensureNode(source, sourceType)
	g.ensureNode(target, targetType)
	g.setEdge(source, target, relation)
	return true
}

// ensureNode creates the entity if its name is unseen. Callers hold the
// write lock.
func (g *Graph) ensureNode(name string, typ schema.EntityType) {
	if _, ok := g.nodes[name]; ok {
		return
	}
	g.nodes[name] = Entity{Name: name, Type: typ, Label: schema.EntityLabel(typ)}
	g.order = append(g.order, name)
}

// setEdge writes or overwrites the relation for the ordered pair. An
// overwrite keeps the edge's original position in the adjacency order, the
// same way the original insertion did. Callers hold the write lock.
func (g *Graph) setEdge(source, target string, relation schema.RelationType) {
	if idx, ok := g.outIndex[source]; ok {
		if i, dup := idx[target]; dup {
			g.out[source][i].typ = relation
			g.in[target][g.inIndex[target][source]].typ = relation
			return
		}
	} else {
		g.outIndex[source] = make(map[string]int)
	}
	if _, ok := g.inIndex[target]; !ok {
		g.inIndex[target] = make(map[string]int)
	}

	g.outIndex[source][target] = len(g.out[source])
	g.out[source] = append(g.out[source], edge{target: target, typ: relation})
	g.inIndex[target][source] = len(g.in[target])
	g.in[target] = append(g.in[target], edge{target: source, typ: relation})
}

// EntityType returns the stored type for a name.
func (g *Graph) EntityType(name string) (schema.EntityType, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	e, ok := g.nodes[name]
	return e.Type, ok
}

// HasEntity reports whether the name exists in the graph.
func (g *Graph) HasEntity(name string) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	_, ok := g.nodes[name]
	return ok
}

// Entities returns all entity names, optionally filtered by type. Pass the
// zero value to list every entity. Names come back in insertion order.
func (g *Graph) Entities(typeFilter schema.EntityType) []string {
	g.mu.RLock()
	defer g.mu.RUnlock()

	names := make([]string, 0, len(g.order))
	for _, name := range g.order {
		if typeFilter != "" && g.nodes[name].Type != typeFilter {
			continue
		}
		names = append(names, name)
	}
	return names
}

// Successors returns the outgoing neighbors of an entity mapped to the
// relation type of each edge. The map is empty when the name is absent.
func (g *Graph) Successors(name string) map[string]schema.RelationType {
	g.mu.RLock()
	defer g.mu.RUnlock()

	succ := make(map[string]schema.RelationType, len(g.out[name]))
	for _, e := range g.out[name] {
		succ[e.target] = e.typ
	}
	return succ
}

// Incoming returns the edges pointing at an entity, in edge insertion order.
// The slice is empty when the name is absent or has no incoming edges.
func (g *Graph) Incoming(name string) []Relation {
	g.mu.RLock()
	defer g.mu.RUnlock()

	targetType := g.nodes[name].Type
	rels := make([]Relation, 0, len(g.in[name]))
	for _, e := range g.in[name] {
		rels = append(rels, Relation{
			Source:     e.target,
			Type:       e.typ,
			Target:     name,
			TargetType: targetType,
		})
	}
	return rels
}

// NodeCount returns the number of entities.
func (g *Graph) NodeCount() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.nodes)
}

// EdgeCount returns the number of relations.
func (g *Graph) EdgeCount() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	n := 0
	for _, edges := range g.out {
		n += len(edges)
	}
	return n
}
