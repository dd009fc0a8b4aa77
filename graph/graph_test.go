package graph

import (
	"testing"

	"github.com/wangyu-dev/medgraph/schema"
)

func TestAddRelationValidation(t *testing.T) {
	tests := []struct {
		name       string
		source     string
		sourceType schema.EntityType
		target     string
		targetType schema.EntityType
		relation   schema.RelationType
		want       bool
	}{
		{"valid", "Influenza", schema.Disease, "High fever", schema.Symptom, schema.HasSymptom, true},
		{"empty source", "", schema.Disease, "High fever", schema.Symptom, schema.HasSymptom, false},
		{"empty target", "Influenza", schema.Disease, "", schema.Symptom, schema.HasSymptom, false},
		{"unknown source type", "Influenza", schema.EntityType("Virus"), "High fever", schema.Symptom, schema.HasSymptom, false},
		{"unknown target type", "Influenza", schema.Disease, "High fever", schema.EntityType("Sign"), schema.HasSymptom, false},
		{"unknown relation", "Influenza", schema.Disease, "High fever", schema.Symptom, schema.RelationType("SHOWS"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := New()
			got := g.AddRelation(tt.source, tt.sourceType, tt.target, tt.targetType, tt.relation)
			if got != tt.want {
				t.Errorf("AddRelation() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestAddRelationNoPartialMutation(t *testing.T) {
	g := New()

	// A new source paired with an invalid relation type must not create the
	// source entity either.
	if g.AddRelation("Influenza", schema.Disease, "High fever", schema.Symptom, schema.RelationType("SHOWS")) {
		t.Fatal("AddRelation accepted an unknown relation type")
	}
	if g.NodeCount() != 0 {
		t.Errorf("rejected insert left %d entities behind", g.NodeCount())
	}
	if g.EdgeCount() != 0 {
		t.Errorf("rejected insert left %d relations behind", g.EdgeCount())
	}
}

func TestEntityTypeImmutable(t *testing.T) {
	g := New()
	g.AddRelation("Influenza", schema.Disease, "High fever", schema.Symptom, schema.HasSymptom)

	// Re-adding High fever with a conflicting type succeeds but must not
	// change the stored type.
	if !g.AddRelation("High fever", schema.Disease, "Fatigue", schema.Symptom, schema.Accompanies) {
		t.Fatal("second AddRelation failed")
	}

	typ, ok := g.EntityType("High fever")
	if !ok {
		t.Fatal("High fever missing from graph")
	}
	if typ != schema.Symptom {
		t.Errorf("High fever type = %q, want %q (first write wins)", typ, schema.Symptom)
	}
}

func TestRelationOverwrite(t *testing.T) {
	g := New()
	g.AddRelation("Influenza", schema.Disease, "High fever", schema.Symptom, schema.HasSymptom)
	g.AddRelation("Influenza", schema.Disease, "Fatigue", schema.Symptom, schema.HasSymptom)

	// Same ordered pair, different relation type: the edge record is
	// replaced, not duplicated.
	g.AddRelation("Influenza", schema.Disease, "High fever", schema.Symptom, schema.Causes)

	if g.EdgeCount() != 2 {
		t.Fatalf("EdgeCount() = %d, want 2 after overwrite", g.EdgeCount())
	}

	succ := g.Successors("Influenza")
	if succ["High fever"] != schema.Causes {
		t.Errorf("overwritten relation = %q, want %q", succ["High fever"], schema.Causes)
	}

	// The overwritten edge keeps its original position in traversal order.
	rels := QueryRelated(g, "Influenza", "", 1)
	if len(rels) != 2 {
		t.Fatalf("QueryRelated returned %d relations, want 2", len(rels))
	}
	if rels[0].Target != "High fever" || rels[1].Target != "Fatigue" {
		t.Errorf("edge order after overwrite = [%s, %s], want [High fever, Fatigue]", rels[0].Target, rels[1].Target)
	}
}

func TestReverseEdgeIsDistinct(t *testing.T) {
	g := New()
	g.AddRelation("High fever", schema.Symptom, "Fatigue", schema.Symptom, schema.Accompanies)
	g.AddRelation("Fatigue", schema.Symptom, "High fever", schema.Symptom, schema.Accompanies)

	if g.EdgeCount() != 2 {
		t.Errorf("EdgeCount() = %d, want 2: opposite directions are distinct edges", g.EdgeCount())
	}
}

func TestEntitiesFilter(t *testing.T) {
	g := New()
	g.AddRelation("Influenza", schema.Disease, "High fever", schema.Symptom, schema.HasSymptom)
	g.AddRelation("Pneumonia", schema.Disease, "High fever", schema.Symptom, schema.HasSymptom)
	g.AddRelation("Oseltamivir", schema.Medication, "Influenza", schema.Disease, schema.Treats)

	all := g.Entities("")
	if len(all) != 4 {
		t.Fatalf("Entities(\"\") returned %d names, want 4", len(all))
	}
	// Insertion order.
	want := []string{"Influenza", "High fever", "Pneumonia", "Oseltamivir"}
	for i, name := range want {
		if all[i] != name {
			t.Errorf("Entities(\"\")[%d] = %q, want %q", i, all[i], name)
		}
	}

	diseases := g.Entities(schema.Disease)
	if len(diseases) != 2 || diseases[0] != "Influenza" || diseases[1] != "Pneumonia" {
		t.Errorf("Entities(Disease) = %v, want [Influenza Pneumonia]", diseases)
	}

	if got := g.Entities(schema.BodyPart); len(got) != 0 {
		t.Errorf("Entities(BodyPart) = %v, want empty", got)
	}
}

func TestIncoming(t *testing.T) {
	g := New()
	g.AddRelation("Influenza", schema.Disease, "High fever", schema.Symptom, schema.HasSymptom)
	g.AddRelation("Pneumonia", schema.Disease, "High fever", schema.Symptom, schema.HasSymptom)

	in := g.Incoming("High fever")
	if len(in) != 2 {
		t.Fatalf("Incoming returned %d relations, want 2", len(in))
	}
	if in[0].Source != "Influenza" || in[1].Source != "Pneumonia" {
		t.Errorf("Incoming order = [%s, %s], want [Influenza, Pneumonia]", in[0].Source, in[1].Source)
	}
	for _, rel := range in {
		if rel.Target != "High fever" || rel.Type != schema.HasSymptom || rel.TargetType != schema.Symptom {
			t.Errorf("unexpected incoming relation: %+v", rel)
		}
	}

	if got := g.Incoming("absent"); len(got) != 0 {
		t.Errorf("Incoming(absent) = %v, want empty", got)
	}
}

func TestHasEntity(t *testing.T) {
	g := New()
	g.AddRelation("Influenza", schema.Disease, "High fever", schema.Symptom, schema.HasSymptom)

	if !g.HasEntity("High fever") {
		t.Error("HasEntity(High fever) = false, want true")
	}
	if g.HasEntity("Fatigue") {
		t.Error("HasEntity(Fatigue) = true, want false")
	}
}
