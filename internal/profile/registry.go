// Package profile holds the versioned per-domain configuration driving
// classification, extraction and validation. Profiles are loaded once from
// embedded YAML and never mutated; a new profile version is a new entry.
package profile

import (
	_ "embed"
	"fmt"
	"sort"

	"gopkg.in/yaml.v3"
)

//go:embed profiles.yaml
var profilesYAML []byte

type Field struct {
	Section      string `yaml:"section" json:"section"`
	Field        string `yaml:"field" json:"field"`
	Priority     int    `yaml:"priority" json:"priority"`
	DisplayLabel string `yaml:"display_label" json:"display_label"`
	Required     bool   `yaml:"required" json:"required"`
}

type ValidationThreshold struct {
	Min           *float64 `yaml:"min" json:"min,omitempty"`
	Max           *float64 `yaml:"max" json:"max,omitempty"`
	ExpectedUnits []string `yaml:"expected_units" json:"expected_units,omitempty"`
}

type FewShotExample struct {
	Input  string `yaml:"input" json:"input"`
	Output string `yaml:"output" json:"output"`
}

type Profile struct {
	Domain               string                         `yaml:"domain" json:"domain"`
	Version              int                            `yaml:"version" json:"version"`
	PrimaryKeywords      []string                       `yaml:"primary_keywords" json:"primary_keywords"`
	SecondaryKeywords    []string                       `yaml:"secondary_keywords" json:"secondary_keywords"`
	NegativeKeywords     []string                       `yaml:"negative_keywords" json:"negative_keywords"`
	PrioritySections     []string                       `yaml:"priority_sections" json:"priority_sections"`
	FilenamePatterns     []string                       `yaml:"filename_patterns" json:"filename_patterns"`
	ActiveFields         []Field                        `yaml:"active_fields" json:"active_fields"`
	FieldSynonyms        map[string][]string            `yaml:"field_synonyms" json:"field_synonyms"`
	RangeRules           map[string]string              `yaml:"range_rules" json:"range_rules"`
	UnitTargets          map[string]string              `yaml:"unit_targets" json:"unit_targets"`
	Canonicalizations    map[string]map[string]string   `yaml:"canonicalizations" json:"canonicalizations"`
	ValidationThresholds map[string]ValidationThreshold `yaml:"validation_thresholds" json:"validation_thresholds"`
	FewShot              []FewShotExample               `yaml:"few_shot" json:"few_shot"`
}

// FieldByID returns the active-field definition for a profile key.
func (p *Profile) FieldByID(fieldID string) (Field, bool) {
	for _, f := range p.ActiveFields {
		if f.Field == fieldID {
			return f, true
		}
	}
	return Field{}, false
}

func (p *Profile) IsRequired(fieldID string) bool {
	f, ok := p.FieldByID(fieldID)
	return ok && f.Required
}

// MaxScore is the highest classification score this profile can produce:
// every primary, secondary and section keyword hitting once.
func (p *Profile) MaxScore() int {
	return 3*len(p.PrimaryKeywords) + len(p.SecondaryKeywords) + 2*len(p.PrioritySections)
}

type Registry struct {
	byDomain map[string][]*Profile
	domains  []string
	fallback string
}

type registryFile struct {
	FallbackDomain string     `yaml:"fallback_domain"`
	Profiles       []*Profile `yaml:"profiles"`
}

// Load parses the embedded profile set.
func Load() (*Registry, error) {
	return Parse(profilesYAML)
}

// Parse builds a registry from raw YAML. Versions of the same domain are
// kept sorted ascending; the highest version is the active one.
func Parse(raw []byte) (*Registry, error) {
	var file registryFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("parse profiles yaml: %w", err)
	}
	if len(file.Profiles) == 0 {
		return nil, fmt.Errorf("profiles yaml contains no profiles")
	}

	reg := &Registry{
		byDomain: make(map[string][]*Profile),
		fallback: file.FallbackDomain,
	}
	for _, p := range file.Profiles {
		if p.Domain == "" {
			return nil, fmt.Errorf("profile without domain name")
		}
		if p.Version <= 0 {
			return nil, fmt.Errorf("profile %s: version must be positive", p.Domain)
		}
		reg.byDomain[p.Domain] = append(reg.byDomain[p.Domain], p)
	}
	for dom, versions := range reg.byDomain {
		sort.Slice(versions, func(i, j int) bool { return versions[i].Version < versions[j].Version })
		reg.domains = append(reg.domains, dom)
	}
	sort.Strings(reg.domains)

	if reg.fallback == "" {
		reg.fallback = reg.domains[0]
	}
	if _, ok := reg.byDomain[reg.fallback]; !ok {
		return nil, fmt.Errorf("fallback domain %q has no profile", reg.fallback)
	}
	return reg, nil
}

// Domains lists known domain names in stable order.
func (r *Registry) Domains() []string {
	return r.domains
}

// FallbackDomain is used when no domain scores above zero.
func (r *Registry) FallbackDomain() string {
	return r.fallback
}

// Active returns the highest version of a domain's profile.
func (r *Registry) Active(domain string) (*Profile, error) {
	versions, ok := r.byDomain[domain]
	if !ok {
		return nil, fmt.Errorf("unknown domain %q", domain)
	}
	return versions[len(versions)-1], nil
}

// Get returns one specific profile version, for reproducing past jobs.
func (r *Registry) Get(domain string, version int) (*Profile, error) {
	versions, ok := r.byDomain[domain]
	if !ok {
		return nil, fmt.Errorf("unknown domain %q", domain)
	}
	for _, p := range versions {
		if p.Version == version {
			return p, nil
		}
	}
	return nil, fmt.Errorf("domain %q has no profile version %d", domain, version)
}

// MaxPossibleScore is the maximum classification score across all domains,
// used as the confidence denominator.
func (r *Registry) MaxPossibleScore() int {
	maxScore := 0
	for _, dom := range r.domains {
		active := r.byDomain[dom][len(r.byDomain[dom])-1]
		if s := active.MaxScore(); s > maxScore {
			maxScore = s
		}
	}
	return maxScore
}
