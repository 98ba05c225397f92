package rules

import "regexp"

const (
	numberGroup = `([-+]?\d[\d,]*\.?\d*)`
)

// domainRules is the static rule set per domain. Confidence reflects how
// specific the pattern is; generic phrasings score lower than labelled
// spec lines.
func domainRules() map[string][]Rule {
	return map[string][]Rule{
		"semiconductor": {
			{
				Field:          "supply_voltage_typ",
				Pattern:        regexp.MustCompile(`(?i)(?:supply voltage|operating voltage|vdd|vcc)[^\d-]{0,20}` + numberGroup + `\s*(m?V)\b`),
				BaseConfidence: 0.9,
				Unit:           "V",
			},
			{
				Field:          "power_typical",
				Pattern:        regexp.MustCompile(`(?i)(?:supply current|current consumption|idd)[^\d]{0,20}` + numberGroup + `\s*([uµm]?A)\b`),
				BaseConfidence: 0.9,
				Unit:           "mA",
			},
			{
				Field:          "clock_frequency_max",
				Pattern:        regexp.MustCompile(`(?i)(?:max(?:imum)? (?:cpu |core |system )?(?:clock|frequency)|up to)\D{0,10}` + numberGroup + `\s*([kMG]Hz)\b`),
				BaseConfidence: 0.88,
				Unit:           "MHz",
			},
			{
				Field:          "flash_memory",
				Pattern:        regexp.MustCompile(`(?i)` + numberGroup + `\s*([KMG]B)\s+(?:of\s+)?flash`),
				BaseConfidence: 0.85,
				Unit:           "KB",
			},
			{
				Field:          "ram_memory",
				Pattern:        regexp.MustCompile(`(?i)` + numberGroup + `\s*([KMG]B)\s+(?:of\s+)?(?:s?ram)`),
				BaseConfidence: 0.85,
				Unit:           "KB",
			},
			{
				Field:          "operating_temp_max",
				Pattern:        regexp.MustCompile(`(?i)operating temperature[^\d-]{0,30}(?:to|\+)\s*` + numberGroup + `\s*°?C`),
				BaseConfidence: 0.8,
				Unit:           "C",
			},
			{
				Field:          "gpio_count",
				Pattern:        regexp.MustCompile(`(?i)` + numberGroup + `\s*(?:gpio|i/o)\s*(?:pins?|lines?)`),
				BaseConfidence: 0.8,
			},
		},
		"software_b2b": {
			{
				Field:          "sla_uptime",
				Pattern:        regexp.MustCompile(`(?i)` + numberGroup + `\s*(%)\s*(?:uptime|availability|sla)`),
				BaseConfidence: 0.92,
				Unit:           "%",
			},
			{
				Field:          "api_rate_limit",
				Pattern:        regexp.MustCompile(`(?i)` + numberGroup + `\s*(?:api\s+)?requests?\s*(?:per|/)\s*(minute|min|second|sec|hour|hr)`),
				BaseConfidence: 0.88,
				Unit:           "req/min",
			},
			{
				Field:          "price_per_user_month",
				Pattern:        regexp.MustCompile(`(?i)[$€]\s*` + numberGroup + `\s*(?:per|/)\s*(?:user|seat)`),
				BaseConfidence: 0.85,
				Unit:           "USD",
			},
			{
				Field:          "storage_included",
				Pattern:        regexp.MustCompile(`(?i)` + numberGroup + `\s*([GT]B)\s+(?:of\s+)?storage`),
				BaseConfidence: 0.85,
				Unit:           "GB",
			},
			{
				Field:          "data_retention_days",
				Pattern:        regexp.MustCompile(`(?i)(?:data\s+)?retention[^\d]{0,20}` + numberGroup + `\s*(days?|months?|years?)`),
				BaseConfidence: 0.8,
				Unit:           "days",
			},
			{
				Field:          "support_response_time",
				Pattern:        regexp.MustCompile(`(?i)(?:response time|first response)[^\d]{0,20}` + numberGroup + `\s*(hours?|hrs?|minutes?|mins?)`),
				BaseConfidence: 0.8,
				Unit:           "hr",
			},
		},
		"api_service": {
			{
				Field:          "rate_limit",
				Pattern:        regexp.MustCompile(`(?i)` + numberGroup + `\s*requests?\s*(?:per|/)\s*(minute|min|second|sec|hour|hr)`),
				BaseConfidence: 0.9,
				Unit:           "req/min",
			},
			{
				Field:          "latency_p99",
				Pattern:        regexp.MustCompile(`(?i)p99(?:\s+latency)?[^\d]{0,20}` + numberGroup + `\s*(m?s)\b`),
				BaseConfidence: 0.88,
				Unit:           "ms",
			},
			{
				Field:          "payload_max_size",
				Pattern:        regexp.MustCompile(`(?i)(?:max(?:imum)?\s+(?:payload|request|body)\s+size)[^\d]{0,20}` + numberGroup + `\s*([KMG]B)\b`),
				BaseConfidence: 0.85,
				Unit:           "MB",
			},
			{
				Field:          "uptime_sla",
				Pattern:        regexp.MustCompile(`(?i)` + numberGroup + `\s*(%)\s*(?:uptime|availability|sla)`),
				BaseConfidence: 0.88,
				Unit:           "%",
			},
		},
		"networking": {
			{
				Field:          "switching_capacity",
				Pattern:        regexp.MustCompile(`(?i)switching (?:capacity|bandwidth)[^\d]{0,20}` + numberGroup + `\s*([MGT]bps)\b`),
				BaseConfidence: 0.92,
				Unit:           "Gbps",
			},
			{
				Field:          "forwarding_rate",
				Pattern:        regexp.MustCompile(`(?i)forwarding (?:rate|performance)[^\d]{0,20}` + numberGroup + `\s*([MG]pps|[MG]bps)\b`),
				BaseConfidence: 0.85,
				Unit:           "Mbps",
			},
			{
				Field:          "port_count",
				Pattern:        regexp.MustCompile(`(?i)` + numberGroup + `\s*(?:x\s*)?(?:\d+\s*)?(?:gbe|gigabit|ethernet)?\s*ports\b`),
				BaseConfidence: 0.8,
			},
			{
				Field:          "power_consumption",
				Pattern:        regexp.MustCompile(`(?i)power (?:consumption|draw)[^\d]{0,20}` + numberGroup + `\s*([km]?W)\b`),
				BaseConfidence: 0.88,
				Unit:           "W",
			},
			{
				Field:          "poe_budget",
				Pattern:        regexp.MustCompile(`(?i)poe\+?\s*(?:power\s*)?budget[^\d]{0,20}` + numberGroup + `\s*([km]?W)\b`),
				BaseConfidence: 0.88,
				Unit:           "W",
			},
			{
				Field:          "mtbf_hours",
				Pattern:        regexp.MustCompile(`(?i)mtbf[^\d]{0,20}` + numberGroup + `\s*(?:hours|hrs)`),
				BaseConfidence: 0.85,
				Unit:           "hr",
			},
		},
	}
}
