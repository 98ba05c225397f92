// Package canonical resolves raw extraction labels to canonical metric IDs
// through the versioned synonym map.
package canonical

import (
	"strings"
	"time"

	"github.com/vendorlens/vendorlens/internal/core/domain"
)

// ProposalThreshold is the minimum candidate confidence for recording an
// unmapped label as a proposed synonym.
const ProposalThreshold = 0.75

// Resolve maps a raw label to a synonym map entry. Exact matches on the
// metric label or any synonym win; substring matches (either direction)
// are the fallback.
func Resolve(m *domain.SynonymMap, label string) (domain.SynonymEntry, bool) {
	needle := strings.ToLower(strings.TrimSpace(label))
	if m == nil || needle == "" {
		return domain.SynonymEntry{}, false
	}

	for _, entry := range m.Entries {
		if strings.ToLower(entry.MetricLabel) == needle {
			return entry, true
		}
		for _, syn := range entry.Synonyms {
			if strings.ToLower(syn) == needle {
				return entry, true
			}
		}
	}

	for _, entry := range m.Entries {
		for _, syn := range append([]string{entry.MetricLabel}, entry.Synonyms...) {
			lowered := strings.ToLower(syn)
			if lowered == "" {
				continue
			}
			if strings.Contains(needle, lowered) || strings.Contains(lowered, needle) {
				return entry, true
			}
		}
	}
	return domain.SynonymEntry{}, false
}

// ShouldPropose reports whether an unmapped label is confident enough to
// record as a proposed synonym.
func ShouldPropose(confidence float64) bool {
	return confidence >= ProposalThreshold
}

// NextVersion builds the successor synonym map: all existing entries plus
// the approved one, version incremented, active. The input map is copied,
// never mutated, so prior versions stay reproducible.
func NextVersion(current *domain.SynonymMap, approved domain.SynonymEntry) *domain.SynonymMap {
	next := &domain.SynonymMap{
		Version:   1,
		Active:    true,
		CreatedAt: time.Now().UTC(),
	}
	if current != nil {
		next.Version = current.Version + 1
		next.Entries = make([]domain.SynonymEntry, 0, len(current.Entries)+1)
		for _, entry := range current.Entries {
			copied := entry
			copied.Synonyms = append([]string(nil), entry.Synonyms...)
			next.Entries = append(next.Entries, copied)
		}
	}
	approved.Synonyms = append([]string(nil), approved.Synonyms...)
	next.Entries = append(next.Entries, approved)
	return next
}

// Seed is the initial synonym map shipped with the system.
func Seed() *domain.SynonymMap {
	return &domain.SynonymMap{
		Version:   1,
		Active:    true,
		CreatedAt: time.Now().UTC(),
		Entries: []domain.SynonymEntry{
			{CanonicalMetricID: "SLA_UPTIME", MetricLabel: "sla_uptime", Synonyms: []string{"uptime", "availability", "uptime_sla"}, Priority: 1, Optimality: domain.OptimalityMax},
			{CanonicalMetricID: "API_RATE_LIMIT", MetricLabel: "api_rate_limit", Synonyms: []string{"rate_limit", "rate limit", "api quota"}, Priority: 1, Optimality: domain.OptimalityMax},
			{CanonicalMetricID: "PRICE_PER_USER", MetricLabel: "price_per_user_month", Synonyms: []string{"price", "cost per user"}, Priority: 1, Optimality: domain.OptimalityMin},
			{CanonicalMetricID: "STORAGE_INCLUDED", MetricLabel: "storage_included", Synonyms: []string{"storage"}, Priority: 2, Optimality: domain.OptimalityMax},
			{CanonicalMetricID: "DATA_RETENTION", MetricLabel: "data_retention_days", Synonyms: []string{"retention"}, Priority: 2, Optimality: domain.OptimalityMax},
			{CanonicalMetricID: "SUPPORT_RESPONSE", MetricLabel: "support_response_time", Synonyms: []string{"response time"}, Priority: 3, Optimality: domain.OptimalityMin},
			{CanonicalMetricID: "LATENCY_P99", MetricLabel: "latency_p99", Synonyms: []string{"latency", "p99 latency"}, Priority: 1, Optimality: domain.OptimalityMin},
			{CanonicalMetricID: "THROUGHPUT", MetricLabel: "throughput", Synonyms: []string{"forwarding_rate", "rps"}, Priority: 2, Optimality: domain.OptimalityMax},
			{CanonicalMetricID: "SUPPLY_VOLTAGE", MetricLabel: "supply_voltage_typ", Synonyms: []string{"supply voltage", "vdd"}, Priority: 1},
			{CanonicalMetricID: "SUPPLY_CURRENT", MetricLabel: "power_typical", Synonyms: []string{"supply current", "idd"}, Priority: 1, Optimality: domain.OptimalityMin},
			{CanonicalMetricID: "CLOCK_FREQUENCY", MetricLabel: "clock_frequency_max", Synonyms: []string{"max frequency", "core clock"}, Priority: 1, Optimality: domain.OptimalityMax},
			{CanonicalMetricID: "FLASH_MEMORY", MetricLabel: "flash_memory", Synonyms: []string{"flash"}, Priority: 2, Optimality: domain.OptimalityMax},
			{CanonicalMetricID: "RAM_MEMORY", MetricLabel: "ram_memory", Synonyms: []string{"sram"}, Priority: 2, Optimality: domain.OptimalityMax},
			{CanonicalMetricID: "SWITCHING_CAPACITY", MetricLabel: "switching_capacity", Synonyms: []string{"switch fabric"}, Priority: 1, Optimality: domain.OptimalityMax},
			{CanonicalMetricID: "PORT_COUNT", MetricLabel: "port_count", Synonyms: []string{"ports"}, Priority: 1, Optimality: domain.OptimalityMax},
			{CanonicalMetricID: "POWER_CONSUMPTION", MetricLabel: "power_consumption", Synonyms: []string{"power draw"}, Priority: 2, Optimality: domain.OptimalityMin},
			{CanonicalMetricID: "POE_BUDGET", MetricLabel: "poe_budget", Synonyms: []string{"poe power"}, Priority: 3, Optimality: domain.OptimalityMax},
			{CanonicalMetricID: "MTBF", MetricLabel: "mtbf_hours", Synonyms: []string{"mtbf"}, Priority: 3, Optimality: domain.OptimalityMax},
			{CanonicalMetricID: "MAX_USERS", MetricLabel: "max_users", Synonyms: []string{"seats", "user limit"}, Priority: 2, Optimality: domain.OptimalityMax},
			{CanonicalMetricID: "PAYLOAD_MAX_SIZE", MetricLabel: "payload_max_size", Synonyms: []string{"max request size"}, Priority: 3, Optimality: domain.OptimalityMax},
		},
	}
}
