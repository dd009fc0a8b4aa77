// Package retrieval turns a symptom list into a structured knowledge bundle:
// candidate diseases, per-disease detail, the raw relation neighborhood of
// each symptom, inter-symptom connection paths, and disease-to-symptom risk
// chains. The bundle is the graph-derived context handed to a downstream
// diagnosis step.
package retrieval

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/wangyu-dev/medgraph/graph"
	"github.com/wangyu-dev/medgraph/schema"
)

const (
	// symptomHops bounds the relation neighborhood collected per symptom.
	symptomHops = 2
	// connectionMaxLength bounds inter-symptom and risk-chain paths.
	connectionMaxLength = 2
)

// DiseaseInfo is the per-disease detail block.
type DiseaseInfo struct {
	Symptoms          []string `json:"symptoms"`
	Treatments        []string `json:"treatments"`
	Examinations      []string `json:"examinations"`
	AffectedBodyParts []string `json:"affected_body_parts"`
}

// Connection reports the directed paths found between two queried symptoms.
type Connection struct {
	Symptom1 string             `json:"symptom1"`
	Symptom2 string             `json:"symptom2"`
	Paths    [][]graph.PathStep `json:"paths"`
}

// Bundle is the full retrieval result for one symptom list.
type Bundle struct {
	Symptoms           []string                    `json:"symptoms"`
	PossibleDiseases   []string                    `json:"possible_diseases"`
	DiseaseInfo        map[string]DiseaseInfo      `json:"disease_info"`
	SymptomRelations   map[string][]graph.Relation `json:"symptom_relations"`
	SymptomConnections []Connection                `json:"symptom_connections"`
	RiskChains         []string                    `json:"risk_chains"`
}

// Aggregator runs retrieval queries against a graph.
type Aggregator struct {
	graph *graph.Graph
}

// NewAggregator creates an aggregator reading from g.
func NewAggregator(g *graph.Graph) *Aggregator {
	return &Aggregator{graph: g}
}

// Retrieve builds the knowledge bundle for a symptom list. Symptoms absent
// from the graph contribute an empty relation list and no candidates; an
// empty input yields an empty bundle. Candidate diseases come back in
// discovery order, deduplicated.
func (a *Aggregator) Retrieve(symptoms []string) *Bundle {
	start := time.Now()

	bundle := &Bundle{
		Symptoms:         symptoms,
		DiseaseInfo:      make(map[string]DiseaseInfo),
		SymptomRelations: make(map[string][]graph.Relation),
	}

	seen := make(map[string]bool)
	for _, symptom := range symptoms {
		relations := graph.QueryRelated(a.graph, symptom, "", symptomHops)
		bundle.SymptomRelations[symptom] = relations

		for _, d := range a.candidateDiseases(symptom, relations) {
			if seen[d] {
				continue
			}
			seen[d] = true
			bundle.PossibleDiseases = append(bundle.PossibleDiseases, d)
		}
	}

	for _, disease := range bundle.PossibleDiseases {
		bundle.DiseaseInfo[disease] = a.diseaseInfo(disease)
	}

	bundle.SymptomConnections = a.symptomConnections(symptoms)
	bundle.RiskChains = a.riskChains(bundle.PossibleDiseases, symptoms)

	slog.Debug("retrieval: bundle built",
		"symptoms", len(symptoms),
		"diseases", len(bundle.PossibleDiseases),
		"connections", len(bundle.SymptomConnections),
		"elapsed", time.Since(start))
	return bundle
}

// candidateDiseases resolves one symptom to disease candidates. Three rules
// contribute, in order:
//
//  1. Any traversed edge whose target is a Disease reached via HAS_SYMPTOM or
//     CAUSES nominates the edge's source.
//  2. An edge from the symptom itself into a Disease via CAUSES nominates the
//     target.
//  3. A Disease with a HAS_SYMPTOM or CAUSES edge pointing at the symptom is
//     nominated directly. This covers the dominant disease-to-symptom edge
//     direction, which an outgoing-only scan never sees.
func (a *Aggregator) candidateDiseases(symptom string, relations []graph.Relation) []string {
	var candidates []string
	add := func(name string) { candidates = append(candidates, name) }

	for _, rel := range relations {
		if rel.TargetType == schema.Disease && (rel.Type == schema.HasSymptom || rel.Type == schema.Causes) {
			add(rel.Source)
		} else if rel.Source == symptom && rel.TargetType == schema.Disease && rel.Type == schema.Causes {
			add(rel.Target)
		}
	}

	for _, rel := range a.graph.Incoming(symptom) {
		if rel.Type != schema.HasSymptom && rel.Type != schema.Causes {
			continue
		}
		if t, ok := a.graph.EntityType(rel.Source); ok && t == schema.Disease {
			add(rel.Source)
		}
	}
	return candidates
}

// diseaseInfo collects the one-hop detail for a disease. Symptoms,
// examinations, and body parts follow the disease's outgoing edges;
// treatments follow incoming TREATS edges, since treatment and medication
// entities point at the disease.
func (a *Aggregator) diseaseInfo(disease string) DiseaseInfo {
	info := DiseaseInfo{}

	for _, rel := range graph.QueryRelated(a.graph, disease, schema.HasSymptom, 1) {
		if rel.TargetType == schema.Symptom {
			info.Symptoms = append(info.Symptoms, rel.Target)
		}
	}

	for _, rel := range a.graph.Incoming(disease) {
		if rel.Type != schema.Treats {
			continue
		}
		if t, ok := a.graph.EntityType(rel.Source); ok && (t == schema.Treatment || t == schema.Medication) {
			info.Treatments = append(info.Treatments, rel.Source)
		}
	}

	for _, rel := range graph.QueryRelated(a.graph, disease, schema.Requires, 1) {
		if rel.TargetType == schema.Examination {
			info.Examinations = append(info.Examinations, rel.Target)
		}
	}

	for _, rel := range graph.QueryRelated(a.graph, disease, schema.Affects, 1) {
		if rel.TargetType == schema.BodyPart {
			info.AffectedBodyParts = append(info.AffectedBodyParts, rel.Target)
		}
	}
	return info
}

// symptomConnections finds directed paths between each unordered pair of
// queried symptoms, in input order. Pairs with no path are omitted.
func (a *Aggregator) symptomConnections(symptoms []string) []Connection {
	var connections []Connection
	for i, s1 := range symptoms {
		for _, s2 := range symptoms[i+1:] {
			paths := graph.FindPaths(a.graph, s1, s2, connectionMaxLength)
			if len(paths) == 0 {
				continue
			}
			connections = append(connections, Connection{Symptom1: s1, Symptom2: s2, Paths: paths})
		}
	}
	return connections
}

// riskChains renders every short disease-to-symptom path as a display
// string, e.g. "Pneumonia[HAS_SYMPTOM] → High fever".
func (a *Aggregator) riskChains(diseases, symptoms []string) []string {
	var chains []string
	for _, disease := range diseases {
		for _, symptom := range symptoms {
			for _, path := range graph.FindPaths(a.graph, disease, symptom, connectionMaxLength) {
				steps := make([]string, len(path))
				for i, step := range path {
					steps[i] = fmt.Sprintf("%s[%s]", step.Source, step.Type)
				}
				chains = append(chains, strings.Join(steps, " → ")+" → "+symptom)
			}
		}
	}
	return chains
}
