package ingest

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/wangyu-dev/medgraph/graph"
	"github.com/wangyu-dev/medgraph/schema"
)

// seedRelation is one curated baseline relation with types already
// validated at compile time by the schema constants.
type seedRelation struct {
	source     string
	sourceType schema.EntityType
	target     string
	targetType schema.EntityType
	relation   schema.RelationType
}

// baselineRelations is the curated starter knowledge: common respiratory
// and cardiovascular diseases plus the rash differential, enough for the
// retrieval path to produce useful answers before any ingestion ran.
var baselineRelations = []seedRelation{
	// Common cold
	{"Common cold", schema.Disease, "Runny nose", schema.Symptom, schema.HasSymptom},
	{"Common cold", schema.Disease, "Sneezing", schema.Symptom, schema.HasSymptom},
	{"Common cold", schema.Disease, "Sore throat", schema.Symptom, schema.HasSymptom},
	{"Common cold", schema.Disease, "Mild fever", schema.Symptom, schema.HasSymptom},
	{"Rest", schema.Treatment, "Common cold", schema.Disease, schema.Treats},
	{"Antihistamines", schema.Medication, "Common cold", schema.Disease, schema.Treats},
	{"Common cold", schema.Disease, "Nose", schema.BodyPart, schema.Affects},
	{"Common cold", schema.Disease, "Throat", schema.BodyPart, schema.Affects},

	// Influenza
	{"Influenza", schema.Disease, "High fever", schema.Symptom, schema.HasSymptom},
	{"Influenza", schema.Disease, "Headache", schema.Symptom, schema.HasSymptom},
	{"Influenza", schema.Disease, "Muscle aches", schema.Symptom, schema.HasSymptom},
	{"Influenza", schema.Disease, "Fatigue", schema.Symptom, schema.HasSymptom},
	{"Oseltamivir", schema.Medication, "Influenza", schema.Disease, schema.Treats},
	{"Influenza", schema.Disease, "Influenza antigen test", schema.Examination, schema.Requires},
	{"Influenza vaccine", schema.Treatment, "Influenza", schema.Disease, schema.Prevents},
	{"Influenza", schema.Disease, "Respiratory tract", schema.BodyPart, schema.Affects},

	// Pneumonia
	{"Pneumonia", schema.Disease, "Cough", schema.Symptom, schema.HasSymptom},
	{"Pneumonia", schema.Disease, "Chest pain", schema.Symptom, schema.HasSymptom},
	{"Pneumonia", schema.Disease, "High fever", schema.Symptom, schema.HasSymptom},
	{"Pneumonia", schema.Disease, "Shortness of breath", schema.Symptom, schema.HasSymptom},
	{"Antibiotics", schema.Medication, "Pneumonia", schema.Disease, schema.Treats},
	{"Pneumonia", schema.Disease, "Chest X-ray", schema.Examination, schema.Requires},
	{"Chest X-ray", schema.Examination, "Pneumonia", schema.Disease, schema.Diagnoses},
	{"Pneumonia", schema.Disease, "Lungs", schema.BodyPart, schema.Affects},
	{"Smoking", schema.RiskFactor, "Pneumonia", schema.Disease, schema.Causes},

	// Hypertension
	{"Hypertension", schema.Disease, "Dizziness", schema.Symptom, schema.HasSymptom},
	{"Hypertension", schema.Disease, "Headache", schema.Symptom, schema.HasSymptom},
	{"Antihypertensives", schema.Medication, "Hypertension", schema.Disease, schema.Treats},
	{"Hypertension", schema.Disease, "Blood pressure measurement", schema.Examination, schema.Requires},
	{"Hypertension", schema.Disease, "Heart", schema.BodyPart, schema.Affects},
	{"Hypertension", schema.Disease, "Blood vessels", schema.BodyPart, schema.Affects},
	{"High salt intake", schema.RiskFactor, "Hypertension", schema.Disease, schema.Causes},
	{"Obesity", schema.RiskFactor, "Hypertension", schema.Disease, schema.Causes},
	{"Regular exercise", schema.Treatment, "Hypertension", schema.Disease, schema.Prevents},

	// Rash differential
	{"Measles", schema.Disease, "Rash", schema.Symptom, schema.HasSymptom},
	{"Measles", schema.Disease, "High fever", schema.Symptom, schema.HasSymptom},
	{"Measles", schema.Disease, "Skin", schema.BodyPart, schema.Affects},
	{"Measles vaccine", schema.Treatment, "Measles", schema.Disease, schema.Prevents},
	{"Chickenpox", schema.Disease, "Rash", schema.Symptom, schema.HasSymptom},
	{"Chickenpox", schema.Disease, "Itching", schema.Symptom, schema.HasSymptom},
	{"Chickenpox", schema.Disease, "Skin", schema.BodyPart, schema.Affects},
	{"Allergic dermatitis", schema.Disease, "Rash", schema.Symptom, schema.HasSymptom},
	{"Allergic dermatitis", schema.Disease, "Itching", schema.Symptom, schema.HasSymptom},
	{"Antihistamines", schema.Medication, "Allergic dermatitis", schema.Disease, schema.Treats},
	{"Allergy test", schema.Examination, "Allergic dermatitis", schema.Disease, schema.Diagnoses},

	// Symptom co-occurrence
	{"High fever", schema.Symptom, "Fatigue", schema.Symptom, schema.Accompanies},
	{"Cough", schema.Symptom, "Sore throat", schema.Symptom, schema.Accompanies},
}

// SeedBaseline loads the curated baseline relations into the graph. The
// relations are compile-time validated, so every insert is expected to
// succeed; a rejection indicates a programming error and is logged.
func SeedBaseline(g *graph.Graph) int {
	added := 0
	for _, r := range baselineRelations {
		if !g.AddRelation(r.source, r.sourceType, r.target, r.targetType, r.relation) {
			slog.Error("ingest: baseline relation rejected", "source", r.source, "target", r.target, "relation", r.relation)
			continue
		}
		added++
	}
	slog.Info("ingest: baseline seeded", "relations", added)
	return added
}

// xlsxColumns is the expected column count of a relation spreadsheet:
// source, source type, target, target type, relation.
const xlsxColumns = 5

// LoadXLSX reads relation tuples from the first sheet of an Excel workbook.
// Row layout is source / source type / target / target type / relation; a
// first row that fails type validation is treated as a header and skipped.
// Returns how many rows were inserted and how many were skipped.
func LoadXLSX(g *graph.Graph, path string) (added, skipped int, err error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return 0, 0, fmt.Errorf("opening workbook %s: %w", path, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return 0, 0, fmt.Errorf("workbook %s has no sheets", path)
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return 0, 0, fmt.Errorf("reading sheet %s: %w", sheets[0], err)
	}

	for i, row := range rows {
		if len(row) < xlsxColumns {
			if !rowEmpty(row) {
				slog.Warn("ingest: skipping short row", "file", path, "row", i+1, "columns", len(row))
				skipped++
			}
			continue
		}

		t := Tuple{
			Source:     strings.TrimSpace(row[0]),
			SourceType: strings.TrimSpace(row[1]),
			Target:     strings.TrimSpace(row[2]),
			TargetType: strings.TrimSpace(row[3]),
			Relation:   strings.TrimSpace(row[4]),
		}

		sourceType, okS := schema.ParseEntityType(t.SourceType)
		targetType, okT := schema.ParseEntityType(t.TargetType)
		relation, okR := schema.ParseRelationType(t.Relation)
		if !okS || !okT || !okR {
			// Header row or malformed data.
			if i == 0 {
				continue
			}
			slog.Warn("ingest: skipping invalid row", "file", path, "row", i+1, "source", t.Source, "target", t.Target)
			skipped++
			continue
		}

		if !g.AddRelation(t.Source, sourceType, t.Target, targetType, relation) {
			slog.Warn("ingest: graph rejected row", "file", path, "row", i+1, "source", t.Source, "target", t.Target)
			skipped++
			continue
		}
		added++
	}

	slog.Info("ingest: workbook loaded", "file", path, "added", added, "skipped", skipped)
	return added, skipped, nil
}

func rowEmpty(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// LoadJSONTexts reads a JSON file holding free texts for LLM extraction.
// Two layouts are accepted: a plain array of strings, or an array of
// objects with a "text" field.
func LoadJSONTexts(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	var texts []string
	if err := json.Unmarshal(data, &texts); err == nil {
		return nonEmptyTexts(texts), nil
	}

	var objs []struct {
		Text string `json:"text"`
	}
	if err := json.Unmarshal(data, &objs); err != nil {
		return nil, fmt.Errorf("parsing %s: expected an array of strings or objects with a text field: %w", path, err)
	}
	for _, o := range objs {
		texts = append(texts, o.Text)
	}
	return nonEmptyTexts(texts), nil
}

func nonEmptyTexts(texts []string) []string {
	out := texts[:0]
	for _, t := range texts {
		if strings.TrimSpace(t) != "" {
			out = append(out, t)
		}
	}
	return out
}
