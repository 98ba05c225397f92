package ollama

import (
	"fmt"
	"strings"
	"testing"

	"github.com/vendorlens/vendorlens/internal/core/domain"
	"github.com/vendorlens/vendorlens/internal/profile"
)

func TestParseCandidatesBareEnvelope(t *testing.T) {
	raw := `{"fields":[{"label":"sla_uptime","value":99.95,"unit":"%","confidence":0.85,"context":"SLA: 99.95% uptime","page":2}]}`

	candidates, err := parseCandidates(raw)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(candidates) != 1 {
		t.Fatalf("expected 1 candidate, got %d", len(candidates))
	}
	c := candidates[0]
	if c.Label != "sla_uptime" || c.Unit != "%" || c.PageRef != 2 {
		t.Fatalf("unexpected candidate %+v", c)
	}
	if v, _ := c.Value.AsNumber(); v != 99.95 {
		t.Fatalf("expected 99.95, got %v", c.Value)
	}
	if c.Confidence != 0.85 {
		t.Fatalf("expected confidence 0.85, got %v", c.Confidence)
	}
	if c.Method != domain.MethodLLM {
		t.Fatalf("expected llm method, got %q", c.Method)
	}
}

func TestParseCandidatesStripsCodeFences(t *testing.T) {
	raw := "```json\n{\"fields\":[{\"label\":\"port_count\",\"value\":48,\"confidence\":0.9}]}\n```"

	candidates, err := parseCandidates(raw)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(candidates) != 1 || candidates[0].Label != "port_count" {
		t.Fatalf("unexpected candidates %v", candidates)
	}
}

func TestParseCandidatesIgnoresSurroundingProse(t *testing.T) {
	raw := `Here is the extraction you asked for:
{"fields":[{"label":"latency_p99","value":"12","unit":"ms","confidence":0.8}]}
Let me know if you need anything else.`

	candidates, err := parseCandidates(raw)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if v, ok := candidates[0].Value.AsNumber(); !ok || v != 12 {
		t.Fatalf("expected numeric 12 from text value, got %+v", candidates[0].Value)
	}
}

func TestParseCandidatesDefaultsBadConfidence(t *testing.T) {
	raw := `{"fields":[
		{"label":"a","value":1,"confidence":0},
		{"label":"b","value":2,"confidence":1.7},
		{"label":"c","value":3,"confidence":-0.2}
	]}`

	candidates, err := parseCandidates(raw)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	for _, c := range candidates {
		if c.Confidence != 0.7 {
			t.Fatalf("out-of-range confidence must default to 0.7, got %v for %q", c.Confidence, c.Label)
		}
	}
}

func TestParseCandidatesSkipsInvalidEntries(t *testing.T) {
	raw := `{"fields":[
		{"label":"","value":1},
		{"label":"no_value"},
		{"label":"object_value","value":{"nested":true}},
		{"label":"keeper","value":true,"confidence":0.9}
	]}`

	candidates, err := parseCandidates(raw)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(candidates) != 1 || candidates[0].Label != "keeper" {
		t.Fatalf("expected only the valid entry, got %v", candidates)
	}
	if candidates[0].Value.Kind != domain.ValueBool || !candidates[0].Value.Bool {
		t.Fatalf("expected bool value, got %+v", candidates[0].Value)
	}
}

func TestParseCandidatesErrors(t *testing.T) {
	cases := map[string]string{
		"empty":          "",
		"not json":       "the document describes a microcontroller",
		"empty fields":   `{"fields":[]}`,
		"all invalid":    `{"fields":[{"label":"","value":1}]}`,
		"wrong envelope": `{"results":[{"label":"x","value":1}]}`,
	}
	for name, raw := range cases {
		if _, err := parseCandidates(raw); err == nil {
			t.Errorf("%s: expected error", name)
		}
	}
}

func TestParseCandidatesCapsEntryCount(t *testing.T) {
	var entries []string
	for i := 0; i < maxCandidates+10; i++ {
		entries = append(entries, fmt.Sprintf(`{"label":"metric_%d","value":%d,"confidence":0.8}`, i, i))
	}
	raw := `{"fields":[` + strings.Join(entries, ",") + `]}`

	candidates, err := parseCandidates(raw)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(candidates) != maxCandidates {
		t.Fatalf("expected cap at %d, got %d", maxCandidates, len(candidates))
	}
}

func TestApplyProfileKnowledgeBoostsAndCanonicalizes(t *testing.T) {
	prof := &profile.Profile{
		Domain: "semiconductor",
		ActiveFields: []profile.Field{
			{Field: "supply_voltage_typ", Required: true},
			{Field: "package_type"},
		},
		Canonicalizations: map[string]map[string]string{
			"package_type": {"lqfp-64": "LQFP64"},
		},
	}
	candidates := []domain.ExtractionCandidate{
		{Label: "supply_voltage_typ", Value: domain.NumberValue(3.3), Confidence: 0.8},
		{Label: "Package_Type", Value: domain.TextValue("LQFP-64"), Confidence: 0.8},
		{Label: "gpio_count", Value: domain.NumberValue(80), Confidence: 0.7},
	}

	out := applyProfileKnowledge(prof, candidates)

	if out[0].Confidence != 0.9 {
		t.Fatalf("required field must gain 0.1 confidence, got %v", out[0].Confidence)
	}
	if out[1].Value.Text != "LQFP64" {
		t.Fatalf("expected canonical spelling LQFP64, got %q", out[1].Value.Text)
	}
	if out[1].Confidence != 0.85 {
		t.Fatalf("canonicalized value must gain 0.05 confidence, got %v", out[1].Confidence)
	}
	if out[2].Confidence != 0.7 {
		t.Fatalf("unrelated candidate must stay untouched, got %v", out[2].Confidence)
	}
}

func TestApplyProfileKnowledgeCapsAtOne(t *testing.T) {
	prof := &profile.Profile{
		ActiveFields: []profile.Field{{Field: "sla_uptime", Required: true}},
	}
	out := applyProfileKnowledge(prof, []domain.ExtractionCandidate{
		{Label: "sla_uptime", Value: domain.NumberValue(99.95), Confidence: 0.95},
	})
	if out[0].Confidence != 1.0 {
		t.Fatalf("confidence must cap at 1.0, got %v", out[0].Confidence)
	}
}

func TestFewShotOutputsParse(t *testing.T) {
	registry, err := profile.Load()
	if err != nil {
		t.Fatalf("load profiles: %v", err)
	}
	for _, dom := range registry.Domains() {
		prof, err := registry.Active(dom)
		if err != nil {
			t.Fatalf("active profile %s: %v", dom, err)
		}
		for i, example := range prof.FewShot {
			candidates, err := parseCandidates(example.Output)
			if err != nil {
				t.Errorf("%s few-shot %d: output must parse like a real response: %v", dom, i, err)
				continue
			}
			if len(candidates) == 0 {
				t.Errorf("%s few-shot %d: output yields no candidates", dom, i)
			}
		}
	}
}
