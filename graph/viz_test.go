package graph

import (
	"testing"

	"github.com/wangyu-dev/medgraph/schema"
)

func TestExport(t *testing.T) {
	g := fluGraph(t)

	viz := g.Export(100, []string{"Fever"})
	if len(viz.Nodes) != 5 {
		t.Fatalf("exported %d nodes, want 5", len(viz.Nodes))
	}
	if len(viz.Edges) != 5 {
		t.Fatalf("exported %d edges, want 5", len(viz.Edges))
	}

	// Nodes come out in insertion order with type-derived colors.
	if viz.Nodes[0].Name != "Flu" || viz.Nodes[1].Name != "Fever" {
		t.Errorf("node order starts [%s, %s], want [Flu, Fever]", viz.Nodes[0].Name, viz.Nodes[1].Name)
	}
	for _, n := range viz.Nodes {
		if n.Color != schema.EntityColor(n.Type) {
			t.Errorf("node %s color = %q, want %q", n.Name, n.Color, schema.EntityColor(n.Type))
		}
		if n.Highlight != (n.Name == "Fever") {
			t.Errorf("node %s highlight = %v", n.Name, n.Highlight)
		}
	}

	for _, e := range viz.Edges {
		if e.Label != schema.RelationLabel(e.Type) {
			t.Errorf("edge %s -> %s label = %q, want %q", e.Source, e.Target, e.Label, schema.RelationLabel(e.Type))
		}
	}
}

func TestExportNodeCap(t *testing.T) {
	g := fluGraph(t)

	// Cap keeps the first two inserted nodes: Flu and Fever. Only the edge
	// between them survives.
	viz := g.Export(2, nil)
	if len(viz.Nodes) != 2 {
		t.Fatalf("exported %d nodes, want 2", len(viz.Nodes))
	}
	if len(viz.Edges) != 1 {
		t.Fatalf("exported %d edges, want 1 (both endpoints must be included)", len(viz.Edges))
	}
	e := viz.Edges[0]
	if e.Source != "Flu" || e.Target != "Fever" {
		t.Errorf("surviving edge = %s -> %s, want Flu -> Fever", e.Source, e.Target)
	}
}

func TestExportEmptyGraph(t *testing.T) {
	viz := New().Export(100, nil)
	if len(viz.Nodes) != 0 || len(viz.Edges) != 0 {
		t.Errorf("empty graph exported %d nodes, %d edges", len(viz.Nodes), len(viz.Edges))
	}
}
