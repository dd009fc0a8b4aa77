// Package ingest populates the knowledge graph: LLM relation extraction
// from free text, baseline and spreadsheet seed loading, and PDF text
// extraction. Every tuple is validated independently at this boundary;
// invalid tuples are skipped and logged while valid ones are still inserted.
package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/wangyu-dev/medgraph/graph"
	"github.com/wangyu-dev/medgraph/llm"
	"github.com/wangyu-dev/medgraph/schema"
)

// relationExtractionPrompt asks the LLM for entity-relation tuples
// constrained to the schema registry's type sets. The type lists are
// injected from the registry so the prompt can never drift from the
// validation rules.
const relationExtractionPrompt = `You are a medical knowledge engineer. Extract entity-relation pairs from the text below.

ENTITY TYPES (use exactly these values, no others):
%s

RELATION TYPES (use exactly these values, no others):
%s

Return a JSON array. Each element is an object with the keys:
  "source" (entity name), "source_type" (entity type),
  "target" (entity name), "target_type" (entity type),
  "relation" (relation type)

Rules:
- Only include relations clearly supported by the text.
- Use standard medical terms for entity names.
- If there are none, return an empty array.
- Do NOT include any text outside the JSON array.

EXAMPLE:

Input: "Influenza is an acute respiratory infection whose symptoms include high fever and fatigue. It is treated with oseltamivir and diagnosis requires a viral test."
Output:
[{"source": "Influenza", "source_type": "Disease", "target": "High fever", "target_type": "Symptom", "relation": "HAS_SYMPTOM"}, {"source": "Influenza", "source_type": "Disease", "target": "Fatigue", "target_type": "Symptom", "relation": "HAS_SYMPTOM"}, {"source": "Oseltamivir", "source_type": "Medication", "target": "Influenza", "target_type": "Disease", "relation": "TREATS"}, {"source": "Influenza", "source_type": "Disease", "target": "Viral test", "target_type": "Examination", "relation": "REQUIRES"}]

TEXT:
%s`

// symptomExtractionPrompt extracts only symptoms explicitly mentioned in a
// patient description.
const symptomExtractionPrompt = `Extract the key symptoms from the following patient description. Rules:
- Only extract symptoms explicitly mentioned in the text; never add symptoms that are not there.
- Use standard medical terms (e.g. "fever" rather than "feeling hot").
- Exclude disease names ("influenza" is a disease, "high fever" is a symptom).
- Extract at most 8 of the most relevant symptoms.
- Return a JSON array of strings and nothing else. If no symptoms are mentioned, return [].

Patient description: %s`

// Tuple is one extracted relation as emitted by the text-extraction
// collaborator, with types still in plain text. Validation happens at
// insertion.
type Tuple struct {
	Source     string `json:"source"`
	SourceType string `json:"source_type"`
	Target     string `json:"target"`
	TargetType string `json:"target_type"`
	Relation   string `json:"relation"`
}

// defaultConcurrency is the default semaphore size for parallel text
// extraction.
const defaultConcurrency = 8

// perTextTimeout caps how long a single text extraction can take.
const perTextTimeout = 90 * time.Second

// Extractor feeds LLM-extracted relations into the graph.
type Extractor struct {
	graph       *graph.Graph
	chat        llm.Provider
	concurrency int
}

// NewExtractor creates an extractor writing into g.
func NewExtractor(g *graph.Graph, chat llm.Provider, concurrency int) *Extractor {
	if concurrency <= 0 {
		concurrency = defaultConcurrency
	}
	return &Extractor{graph: g, chat: chat, concurrency: concurrency}
}

// entityTypeList renders the registry's entity types for the prompt.
func entityTypeList() string {
	var b strings.Builder
	for _, t := range schema.EntityTypes() {
		fmt.Fprintf(&b, "- %s: %s\n", t, schema.EntityLabel(t))
	}
	return b.String()
}

// relationTypeList renders the registry's relation types for the prompt.
func relationTypeList() string {
	var b strings.Builder
	for _, r := range schema.RelationTypes() {
		fmt.Fprintf(&b, "- %s: %s\n", r, schema.RelationLabel(r))
	}
	return b.String()
}

// ExtractRelations calls the LLM and parses its output into raw tuples.
// Tuples are not validated here; InsertTuples does that per tuple.
func (x *Extractor) ExtractRelations(ctx context.Context, text string) ([]Tuple, error) {
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}

	prompt := fmt.Sprintf(relationExtractionPrompt, entityTypeList(), relationTypeList(), text)
	resp, err := x.chat.Chat(ctx, llm.ChatRequest{
		Messages:    []llm.Message{{Role: "user", Content: prompt}},
		Temperature: 0.0,
	})
	if err != nil {
		return nil, fmt.Errorf("relation extraction llm chat: %w", err)
	}

	jsonStr, err := extractJSONArray(resp.Content)
	if err != nil {
		return nil, fmt.Errorf("parsing relation extraction result: %w", err)
	}

	var tuples []Tuple
	if err := json.Unmarshal([]byte(jsonStr), &tuples); err != nil {
		return nil, fmt.Errorf("unmarshalling relation extraction result: %w", err)
	}
	return tuples, nil
}

// InsertTuples validates each tuple independently and inserts the valid
// ones. Invalid tuples are skipped and logged; they never block the rest of
// the batch.
func (x *Extractor) InsertTuples(tuples []Tuple) (added, skipped int) {
	for _, t := range tuples {
		sourceType, ok := schema.ParseEntityType(t.SourceType)
		if !ok {
			slog.Warn("ingest: skipping tuple with unknown source type", "source", t.Source, "source_type", t.SourceType)
			skipped++
			continue
		}
		targetType, ok := schema.ParseEntityType(t.TargetType)
		if !ok {
			slog.Warn("ingest: skipping tuple with unknown target type", "target", t.Target, "target_type", t.TargetType)
			skipped++
			continue
		}
		relation, ok := schema.ParseRelationType(t.Relation)
		if !ok {
			slog.Warn("ingest: skipping tuple with unknown relation type", "source", t.Source, "target", t.Target, "relation", t.Relation)
			skipped++
			continue
		}
		if !x.graph.AddRelation(t.Source, sourceType, t.Target, targetType, relation) {
			slog.Warn("ingest: graph rejected tuple", "source", t.Source, "target", t.Target, "relation", t.Relation)
			skipped++
			continue
		}
		added++
	}
	return added, skipped
}

// IngestTexts extracts relations from each text with bounded concurrency
// and inserts them. Individual text failures are logged and skipped; the
// call fails only when every text fails.
func (x *Extractor) IngestTexts(ctx context.Context, texts []string) (added, skipped int, err error) {
	if len(texts) == 0 {
		return 0, 0, nil
	}

	var (
		mu     sync.Mutex
		wg     sync.WaitGroup
		sem    = make(chan struct{}, x.concurrency)
		failed int
	)

	for i, text := range texts {
		wg.Add(1)
		go func(idx int, text string) {
			defer wg.Done()

			select {
			case sem <- struct{}{}:
				defer func() { <-sem }()
			case <-ctx.Done():
				mu.Lock()
				failed++
				mu.Unlock()
				return
			}

			textCtx, cancel := context.WithTimeout(ctx, perTextTimeout)
			defer cancel()

			tuples, err := x.ExtractRelations(textCtx, text)
			if err != nil {
				slog.Warn("ingest: text extraction failed", "text", idx, "error", err)
				mu.Lock()
				failed++
				mu.Unlock()
				return
			}

			mu.Lock()
			a, s := x.InsertTuples(tuples)
			added += a
			skipped += s
			mu.Unlock()
		}(i, text)
	}
	wg.Wait()

	if failed == len(texts) {
		return added, skipped, fmt.Errorf("all %d texts failed extraction", len(texts))
	}
	slog.Info("ingest: texts processed", "texts", len(texts), "failed", failed, "added", added, "skipped", skipped)
	return added, skipped, nil
}

// ExtractSymptoms pulls symptom names out of a free-text patient
// description. Results are deduplicated preserving first occurrence.
func (x *Extractor) ExtractSymptoms(ctx context.Context, text string) ([]string, error) {
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}

	resp, err := x.chat.Chat(ctx, llm.ChatRequest{
		Messages:    []llm.Message{{Role: "user", Content: fmt.Sprintf(symptomExtractionPrompt, text)}},
		Temperature: 0.0,
	})
	if err != nil {
		return nil, fmt.Errorf("symptom extraction llm chat: %w", err)
	}

	jsonStr, err := extractJSONArray(resp.Content)
	if err != nil {
		return nil, fmt.Errorf("parsing symptom extraction result: %w", err)
	}

	var symptoms []string
	if err := json.Unmarshal([]byte(jsonStr), &symptoms); err != nil {
		return nil, fmt.Errorf("unmarshalling symptom extraction result: %w", err)
	}

	seen := make(map[string]bool, len(symptoms))
	var out []string
	for _, s := range symptoms {
		s = strings.TrimSpace(s)
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out, nil
}

// codeBlockRe strips markdown code fences from LLM output.
var codeBlockRe = regexp.MustCompile("(?s)```(?:json)?\\s*\\n?(.*?)\\n?```")

// extractJSONArray finds a JSON array in the LLM response text, handling
// common quirks: markdown code blocks, prose before or after the JSON.
func extractJSONArray(raw string) (string, error) {
	if m := codeBlockRe.FindStringSubmatch(raw); len(m) > 1 {
		raw = m[1]
	}

	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "[") && strings.HasSuffix(raw, "]") {
		return raw, nil
	}

	start := strings.Index(raw, "[")
	end := strings.LastIndex(raw, "]")
	if start >= 0 && end > start {
		return raw[start : end+1], nil
	}
	return "", fmt.Errorf("no JSON array found in response")
}
