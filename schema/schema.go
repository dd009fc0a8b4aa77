// Package schema defines the closed sets of entity and relation types used
// across the medical knowledge graph. It is the single source of truth for
// type validation: the graph store, the ingestion pipeline, and the
// visualization export all consult this registry.
package schema

// EntityType classifies a node in the knowledge graph.
type EntityType string

const (
	Symptom     EntityType = "Symptom"
	Disease     EntityType = "Disease"
	Treatment   EntityType = "Treatment"
	Examination EntityType = "Examination"
	BodyPart    EntityType = "BodyPart"
	Medication  EntityType = "Medication"
	RiskFactor  EntityType = "RiskFactor"
)

// RelationType classifies a directed edge between two entities.
type RelationType string

const (
	Causes      RelationType = "CAUSES"       // disease -> symptom, risk factor -> disease
	Treats      RelationType = "TREATS"       // treatment/medication -> disease or symptom
	Requires    RelationType = "REQUIRES"     // disease -> examination
	Affects     RelationType = "AFFECTS"      // disease -> body part
	Accompanies RelationType = "ACCOMPANIES"  // symptom -> symptom
	Diagnoses   RelationType = "DIAGNOSES"    // examination -> disease
	Prevents    RelationType = "PREVENTS"     // measure -> disease
	HasSymptom  RelationType = "HAS_SYMPTOM"  // disease -> symptom
)

// entityTypes lists all valid entity types in a stable order with their
// short display labels.
var entityTypes = []struct {
	Type  EntityType
	Label string
}{
	{Symptom, "symptom"},
	{Disease, "disease"},
	{Treatment, "treatment"},
	{Examination, "examination"},
	{BodyPart, "body part"},
	{Medication, "medication"},
	{RiskFactor, "risk factor"},
}

// relationTypes lists all valid relation types in a stable order with their
// short display labels.
var relationTypes = []struct {
	Type  RelationType
	Label string
}{
	{Causes, "causes"},
	{Treats, "treats"},
	{Requires, "requires"},
	{Affects, "affects"},
	{Accompanies, "accompanies"},
	{Diagnoses, "diagnoses"},
	{Prevents, "prevents"},
	{HasSymptom, "has symptom"},
}

// entityColors maps entity types to the colors used by the visualization
// export. Unknown types fall back to DefaultColor.
var entityColors = map[EntityType]string{
	Symptom:     "#FF9999",
	Disease:     "#66B2FF",
	Treatment:   "#99FF99",
	Examination: "#FFCC99",
	BodyPart:    "#FF99CC",
	Medication:  "#CC99FF",
	RiskFactor:  "#FFFF99",
}

// DefaultColor is the visualization color for entities of unknown type.
const DefaultColor = "#CCCCCC"

var (
	entityLabels   = make(map[EntityType]string, len(entityTypes))
	relationLabels = make(map[RelationType]string, len(relationTypes))
)

func init() {
	for _, e := range entityTypes {
		entityLabels[e.Type] = e.Label
	}
	for _, r := range relationTypes {
		relationLabels[r.Type] = r.Label
	}
}

// ValidEntityType reports whether t is a member of the entity type registry.
func ValidEntityType(t EntityType) bool {
	_, ok := entityLabels[t]
	return ok
}

// ValidRelationType reports whether r is a member of the relation type
// registry.
func ValidRelationType(r RelationType) bool {
	_, ok := relationLabels[r]
	return ok
}

// EntityLabel returns the display label for an entity type, or the type
// itself when unknown.
func EntityLabel(t EntityType) string {
	if l, ok := entityLabels[t]; ok {
		return l
	}
	return string(t)
}

// RelationLabel returns the display label for a relation type, or the type
// itself when unknown.
func RelationLabel(r RelationType) string {
	if l, ok := relationLabels[r]; ok {
		return l
	}
	return string(r)
}

// EntityColor returns the visualization color for an entity type.
func EntityColor(t EntityType) string {
	if c, ok := entityColors[t]; ok {
		return c
	}
	return DefaultColor
}

// EntityTypes returns all valid entity types in registry order.
func EntityTypes() []EntityType {
	out := make([]EntityType, len(entityTypes))
	for i, e := range entityTypes {
		out[i] = e.Type
	}
	return out
}

// RelationTypes returns all valid relation types in registry order.
func RelationTypes() []RelationType {
	out := make([]RelationType, len(relationTypes))
	for i, r := range relationTypes {
		out[i] = r.Type
	}
	return out
}

// ParseEntityType validates a plain-text entity type arriving at the
// ingestion boundary.
func ParseEntityType(s string) (EntityType, bool) {
	t := EntityType(s)
	return t, ValidEntityType(t)
}

// ParseRelationType validates a plain-text relation type arriving at the
// ingestion boundary.
func ParseRelationType(s string) (RelationType, bool) {
	r := RelationType(s)
	return r, ValidRelationType(r)
}
