package schema

import "testing"

func TestValidEntityType(t *testing.T) {
	tests := []struct {
		name string
		typ  EntityType
		want bool
	}{
		{"symptom", Symptom, true},
		{"disease", Disease, true},
		{"risk factor", RiskFactor, true},
		{"unknown", EntityType("Organ"), false},
		{"empty", EntityType(""), false},
		{"wrong case", EntityType("disease"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ValidEntityType(tt.typ); got != tt.want {
				t.Errorf("ValidEntityType(%q) = %v, want %v", tt.typ, got, tt.want)
			}
		})
	}
}

func TestValidRelationType(t *testing.T) {
	tests := []struct {
		name string
		typ  RelationType
		want bool
	}{
		{"has symptom", HasSymptom, true},
		{"prevents", Prevents, true},
		{"unknown", RelationType("CURES"), false},
		{"empty", RelationType(""), false},
		{"wrong case", RelationType("treats"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ValidRelationType(tt.typ); got != tt.want {
				t.Errorf("ValidRelationType(%q) = %v, want %v", tt.typ, got, tt.want)
			}
		})
	}
}

func TestRegistryCompleteness(t *testing.T) {
	if got := len(EntityTypes()); got != 7 {
		t.Errorf("EntityTypes() has %d entries, want 7", got)
	}
	if got := len(RelationTypes()); got != 8 {
		t.Errorf("RelationTypes() has %d entries, want 8", got)
	}

	for _, et := range EntityTypes() {
		if EntityLabel(et) == string(et) {
			t.Errorf("EntityLabel(%q) has no display label", et)
		}
		if EntityColor(et) == DefaultColor {
			t.Errorf("EntityColor(%q) fell back to the default color", et)
		}
	}
	for _, rt := range RelationTypes() {
		if RelationLabel(rt) == string(rt) {
			t.Errorf("RelationLabel(%q) has no display label", rt)
		}
	}
}

func TestEntityColorUnknown(t *testing.T) {
	if got := EntityColor(EntityType("Organ")); got != DefaultColor {
		t.Errorf("EntityColor(unknown) = %q, want %q", got, DefaultColor)
	}
}

func TestParseEntityType(t *testing.T) {
	if typ, ok := ParseEntityType("Medication"); !ok || typ != Medication {
		t.Errorf("ParseEntityType(Medication) = (%q, %v), want (Medication, true)", typ, ok)
	}
	if _, ok := ParseEntityType("medication"); ok {
		t.Error("ParseEntityType should be case sensitive")
	}
}

func TestParseRelationType(t *testing.T) {
	if typ, ok := ParseRelationType("ACCOMPANIES"); !ok || typ != Accompanies {
		t.Errorf("ParseRelationType(ACCOMPANIES) = (%q, %v), want (ACCOMPANIES, true)", typ, ok)
	}
	if _, ok := ParseRelationType("RELATED_TO"); ok {
		t.Error("ParseRelationType accepted an unknown relation")
	}
}
