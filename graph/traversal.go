package graph

import "github.com/wangyu-dev/medgraph/schema"

// Relation is one reported edge from a traversal: Source reached Target via
// an edge of the given relation type, and TargetType is the stored type of
// the target entity.
type Relation struct {
	Source     string              `json:"source"`
	Type       schema.RelationType `json:"type"`
	Target     string              `json:"target"`
	TargetType schema.EntityType   `json:"target_type"`
}

// PathStep is one edge within an enumerated path.
type PathStep struct {
	Source string              `json:"source"`
	Type   schema.RelationType `json:"type"`
	Target string              `json:"target"`
}

// visit pairs an entity with the hop count at which it was discovered.
type visit struct {
	name string
	hop  int
}

// QueryRelated performs a breadth-first traversal over outgoing edges
// starting from entity, reporting every edge whose source lies within
// maxHops - 1 hops of the origin. Edges are reported in BFS discovery order.
//
// When relationFilter is non-zero, edges of any other type are skipped
// entirely: they are not reported and their targets are not expanded, so the
// filter prunes the search tree rather than just the output. An absent
// entity, or maxHops <= 0, yields an empty result.
func QueryRelated(g *Graph, entity string, relationFilter schema.RelationType, maxHops int) []Relation {
	g.mu.RLock()
	defer g.mu.RUnlock()

	if _, ok := g.nodes[entity]; !ok {
		return nil
	}

	var result []Relation
	visited := make(map[string]bool)

	// Slice-backed FIFO with a head index: O(1) dequeue without reslicing
	// the front off a list.
	queue := []visit{{entity, 0}}
	for head := 0; head < len(queue); head++ {
		cur := queue[head]

		// An entity may be enqueued multiple times via different paths but
		// is processed at most once; the check happens after dequeue.
		if visited[cur.name] || cur.hop >= maxHops {
			continue
		}
		visited[cur.name] = true

		for _, e := range g.out[cur.name] {
			if relationFilter != "" && e.typ != relationFilter {
				continue
			}
			result = append(result, Relation{
				Source:     cur.name,
				Type:       e.typ,
				Target:     e.target,
				TargetType: g.nodes[e.target].Type,
			})
			queue = append(queue, visit{e.target, cur.hop + 1})
		}
	}
	return result
}

// FindPaths enumerates every directed simple path from source to target with
// at least one and at most maxLength edges, following edge direction
// strictly. Each path is an ordered list of steps. An absent source or
// target yields no paths; so does source == target, since a path must not
// repeat a node.
func FindPaths(g *Graph, source, target string, maxLength int) [][]PathStep {
	g.mu.RLock()
	defer g.mu.RUnlock()

	if maxLength < 1 {
		return nil
	}
	if _, ok := g.nodes[source]; !ok {
		return nil
	}
	if _, ok := g.nodes[target]; !ok {
		return nil
	}

	var paths [][]PathStep
	onPath := map[string]bool{source: true}
	var path []PathStep

	var walk func(current string)
	walk = func(current string) {
		for _, e := range g.out[current] {
			if onPath[e.target] {
				continue
			}
			path = append(path, PathStep{Source: current, Type: e.typ, Target: e.target})

			if e.target == target {
				found := make([]PathStep, len(path))
				copy(found, path)
				paths = append(paths, found)
			} else if len(path) < maxLength {
				onPath[e.target] = true
				walk(e.target)
				delete(onPath, e.target)
			}

			path = path[:len(path)-1]
		}
	}
	walk(source)
	return paths
}
