package graph

import "github.com/wangyu-dev/medgraph/schema"

// VizNode is one renderable entity: name, type, display label, the
// type-derived color, and whether the caller asked for it to be highlighted.
type VizNode struct {
	Name      string            `json:"name"`
	Type      schema.EntityType `json:"type"`
	Label     string            `json:"label"`
	Color     string            `json:"color"`
	Highlight bool              `json:"highlight"`
}

// VizEdge is one renderable relation between two included nodes.
type VizEdge struct {
	Source string              `json:"source"`
	Target string              `json:"target"`
	Type   schema.RelationType `json:"type"`
	Label  string              `json:"label"`
}

// VizGraph is the snapshot handed to an external renderer.
type VizGraph struct {
	Nodes []VizNode `json:"nodes"`
	Edges []VizEdge `json:"edges"`
}

// Export produces the visualization contract: at most maxNodes entities in
// insertion order (not relevance-ranked), with type-derived colors and the
// highlight flag set for names in highlights, plus every edge whose both
// endpoints made the cap. Rendering itself is the consumer's concern.
func (g *Graph) Export(maxNodes int, highlights []string) *VizGraph {
	g.mu.RLock()
	defer g.mu.RUnlock()

	highlighted := make(map[string]bool, len(highlights))
	for _, h := range highlights {
		highlighted[h] = true
	}

	included := make(map[string]bool)
	viz := &VizGraph{}
	for _, name := range g.order {
		if maxNodes >= 0 && len(viz.Nodes) >= maxNodes {
			break
		}
		node := g.nodes[name]
		viz.Nodes = append(viz.Nodes, VizNode{
			Name:      name,
			Type:      node.Type,
			Label:     node.Label,
			Color:     schema.EntityColor(node.Type),
			Highlight: highlighted[name],
		})
		included[name] = true
	}

	for _, node := range viz.Nodes {
		for _, e := range g.out[node.Name] {
			if !included[e.target] {
				continue
			}
			viz.Edges = append(viz.Edges, VizEdge{
				Source: node.Name,
				Target: e.target,
				Type:   e.typ,
				Label:  schema.RelationLabel(e.typ),
			})
		}
	}
	return viz
}
