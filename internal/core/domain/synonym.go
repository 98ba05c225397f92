package domain

import "time"

type Optimality string

const (
	OptimalityMax  Optimality = "max"
	OptimalityMin  Optimality = "min"
	OptimalityNone Optimality = ""
)

type SynonymEntry struct {
	CanonicalMetricID string     `json:"canonical_metric_id"`
	MetricLabel       string     `json:"metric_label"`
	Synonyms          []string   `json:"synonyms"`
	UnitRules         string     `json:"unit_rules,omitempty"`
	Priority          int        `json:"priority"`
	Optimality        Optimality `json:"optimality,omitempty"`
}

// SynonymMap is one immutable version of the label canonicalization table.
// Exactly one version is active at a time; approving a proposal creates the
// next version and deactivates this one, never mutating it.
type SynonymMap struct {
	Version   int            `json:"version"`
	Active    bool           `json:"active"`
	Entries   []SynonymEntry `json:"entries"`
	CreatedAt time.Time      `json:"created_at"`
}

type ProposalStatus string

const (
	ProposalProposed ProposalStatus = "proposed"
	ProposalApproved ProposalStatus = "approved"
)

type ProposedSynonym struct {
	ID                string         `json:"id"`
	LabelRaw          string         `json:"label_raw"`
	Context           string         `json:"context,omitempty"`
	SuggestedMetricID string         `json:"suggested_metric_id,omitempty"`
	Confidence        float64        `json:"confidence"`
	Status            ProposalStatus `json:"status"`
	CreatedAt         time.Time      `json:"created_at"`
}
