package ingest

import (
	"context"
	"errors"
	"testing"

	"github.com/wangyu-dev/medgraph/graph"
	"github.com/wangyu-dev/medgraph/llm"
)

// fakeProvider returns canned chat responses for extraction tests.
type fakeProvider struct {
	content string
	err     error
	calls   int
}

func (f *fakeProvider) Chat(ctx context.Context, req llm.ChatRequest) (*llm.ChatResponse, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return &llm.ChatResponse{Content: f.content}, nil
}

func (f *fakeProvider) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	return nil, errors.New("not implemented")
}

func TestExtractJSONArray(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    string
		wantErr bool
	}{
		{"bare array", `[{"a":1}]`, `[{"a":1}]`, false},
		{"code fence", "```json\n[{\"a\":1}]\n```", `[{"a":1}]`, false},
		{"unlabelled fence", "```\n[]\n```", `[]`, false},
		{"prose around array", `Here are the tuples: [{"a":1}] as requested.`, `[{"a":1}]`, false},
		{"whitespace", "  \n[]\n  ", `[]`, false},
		{"no array", "I could not find any relations.", "", true},
		{"empty", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := extractJSONArray(tt.raw)
			if (err != nil) != tt.wantErr {
				t.Fatalf("extractJSONArray(%q) error = %v, wantErr %v", tt.raw, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("extractJSONArray(%q) = %q, want %q", tt.raw, got, tt.want)
			}
		})
	}
}

func TestExtractRelations(t *testing.T) {
	chat := &fakeProvider{content: "```json\n" +
		`[{"source": "Influenza", "source_type": "Disease", "target": "High fever", "target_type": "Symptom", "relation": "HAS_SYMPTOM"},
		  {"source": "Oseltamivir", "source_type": "Medication", "target": "Influenza", "target_type": "Disease", "relation": "TREATS"}]` +
		"\n```"}
	x := NewExtractor(graph.New(), chat, 1)

	tuples, err := x.ExtractRelations(context.Background(), "Influenza causes high fever and is treated with oseltamivir.")
	if err != nil {
		t.Fatalf("ExtractRelations: %v", err)
	}
	if len(tuples) != 2 {
		t.Fatalf("got %d tuples, want 2", len(tuples))
	}
	if tuples[0].Source != "Influenza" || tuples[0].Relation != "HAS_SYMPTOM" {
		t.Errorf("first tuple = %+v", tuples[0])
	}
}

func TestExtractRelationsEmptyText(t *testing.T) {
	chat := &fakeProvider{content: "[]"}
	x := NewExtractor(graph.New(), chat, 1)

	tuples, err := x.ExtractRelations(context.Background(), "   ")
	if err != nil {
		t.Fatalf("ExtractRelations: %v", err)
	}
	if tuples != nil {
		t.Errorf("blank text produced tuples: %v", tuples)
	}
	if chat.calls != 0 {
		t.Errorf("blank text reached the LLM (%d calls)", chat.calls)
	}
}

func TestInsertTuplesValidation(t *testing.T) {
	g := graph.New()
	x := NewExtractor(g, &fakeProvider{}, 1)

	tuples := []Tuple{
		{"Influenza", "Disease", "High fever", "Symptom", "HAS_SYMPTOM"},
		{"Influenza", "Virus", "High fever", "Symptom", "HAS_SYMPTOM"},   // unknown source type
		{"Influenza", "Disease", "High fever", "Symptom", "SHOWS"},      // unknown relation
		{"", "Disease", "High fever", "Symptom", "HAS_SYMPTOM"},         // empty name
		{"Oseltamivir", "Medication", "Influenza", "Disease", "TREATS"}, // valid
	}

	added, skipped := x.InsertTuples(tuples)
	if added != 2 || skipped != 3 {
		t.Errorf("InsertTuples = (%d added, %d skipped), want (2, 3)", added, skipped)
	}
	if g.EdgeCount() != 2 {
		t.Errorf("graph holds %d relations, want 2", g.EdgeCount())
	}
	if g.NodeCount() != 3 {
		t.Errorf("graph holds %d entities, want 3 (Influenza, High fever, Oseltamivir)", g.NodeCount())
	}
}

func TestIngestTexts(t *testing.T) {
	chat := &fakeProvider{content: `[{"source": "Influenza", "source_type": "Disease", "target": "High fever", "target_type": "Symptom", "relation": "HAS_SYMPTOM"}]`}
	g := graph.New()
	x := NewExtractor(g, chat, 2)

	added, skipped, err := x.IngestTexts(context.Background(), []string{"text one", "text two", "text three"})
	if err != nil {
		t.Fatalf("IngestTexts: %v", err)
	}
	// Three texts produce the same tuple; the edge overwrites silently, so
	// all three inserts count as added.
	if added != 3 || skipped != 0 {
		t.Errorf("IngestTexts = (%d added, %d skipped), want (3, 0)", added, skipped)
	}
	if g.EdgeCount() != 1 {
		t.Errorf("graph holds %d relations, want 1", g.EdgeCount())
	}
	if chat.calls != 3 {
		t.Errorf("LLM called %d times, want 3", chat.calls)
	}
}

func TestIngestTextsAllFail(t *testing.T) {
	chat := &fakeProvider{err: errors.New("provider down")}
	x := NewExtractor(graph.New(), chat, 2)

	_, _, err := x.IngestTexts(context.Background(), []string{"a", "b"})
	if err == nil {
		t.Fatal("IngestTexts succeeded although every text failed")
	}
}

func TestIngestTextsEmpty(t *testing.T) {
	chat := &fakeProvider{}
	x := NewExtractor(graph.New(), chat, 2)

	added, skipped, err := x.IngestTexts(context.Background(), nil)
	if err != nil || added != 0 || skipped != 0 {
		t.Errorf("IngestTexts(nil) = (%d, %d, %v), want (0, 0, nil)", added, skipped, err)
	}
}

func TestExtractSymptoms(t *testing.T) {
	chat := &fakeProvider{content: `["fever", "cough", "fever", "  ", "headache"]`}
	x := NewExtractor(graph.New(), chat, 1)

	symptoms, err := x.ExtractSymptoms(context.Background(), "I have a fever, a cough, and a headache.")
	if err != nil {
		t.Fatalf("ExtractSymptoms: %v", err)
	}
	want := []string{"fever", "cough", "headache"}
	if len(symptoms) != len(want) {
		t.Fatalf("symptoms = %v, want %v", symptoms, want)
	}
	for i := range want {
		if symptoms[i] != want[i] {
			t.Errorf("symptoms[%d] = %q, want %q", i, symptoms[i], want[i])
		}
	}
}

func TestExtractSymptomsMalformedResponse(t *testing.T) {
	chat := &fakeProvider{content: "no symptoms to report"}
	x := NewExtractor(graph.New(), chat, 1)

	if _, err := x.ExtractSymptoms(context.Background(), "patient text"); err == nil {
		t.Fatal("ExtractSymptoms accepted a response without a JSON array")
	}
}
