// Package ollama adapts a local Ollama server as the semantic extraction
// source. Responses are requested in JSON mode at temperature zero; a
// malformed or failed response degrades to an empty candidate set so the
// deterministic extraction sources still carry the document.
package ollama

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/vendorlens/vendorlens/internal/core/domain"
	"github.com/vendorlens/vendorlens/internal/infrastructure/resilience"
	"github.com/vendorlens/vendorlens/internal/profile"
)

type Client struct {
	baseURL    string
	model      string
	httpClient *http.Client
	limiter    *rate.Limiter
	executor   *resilience.Executor
	logger     *slog.Logger
}

type Options struct {
	Timeout            time.Duration
	RequestsPerSecond  float64
	ResilienceExecutor *resilience.Executor
}

func New(baseURL, model string, logger *slog.Logger, options Options) *Client {
	timeout := options.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	rps := options.RequestsPerSecond
	if rps <= 0 {
		rps = 2
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		model:      model,
		httpClient: &http.Client{Timeout: timeout},
		limiter:    rate.NewLimiter(rate.Limit(rps), 1),
		executor:   options.ResilienceExecutor,
		logger:     logger,
	}
}

// Extractor proposes extraction candidates from parsed document text.
type Extractor struct {
	client *Client
}

func NewExtractor(client *Client) *Extractor {
	return &Extractor{client: client}
}

func (e *Extractor) Extract(ctx context.Context, prof *profile.Profile, parse *domain.ParseResult) []domain.ExtractionCandidate {
	raw, err := e.client.generateJSON(ctx, buildExtractionPrompt(prof, parse))
	if err != nil {
		e.client.logger.Warn("llm_extraction_failed", "domain", prof.Domain, "error", err)
		return nil
	}

	candidates, err := parseCandidates(raw)
	if err != nil {
		e.client.logger.Warn("llm_response_rejected", "domain", prof.Domain, "error", err)
		return nil
	}
	return applyProfileKnowledge(prof, candidates)
}

// applyProfileKnowledge folds the active profile back into the model's
// candidates: required fields gain confidence, and known raw spellings
// of text values are replaced by their canonical form. Boosts cap at 1.
func applyProfileKnowledge(prof *profile.Profile, candidates []domain.ExtractionCandidate) []domain.ExtractionCandidate {
	for i := range candidates {
		c := &candidates[i]
		field := strings.ToLower(c.Label)

		if prof.IsRequired(field) {
			c.Confidence = capConfidence(c.Confidence + 0.1)
		}
		if c.Value.Kind != domain.ValueText {
			continue
		}
		mappings, ok := prof.Canonicalizations[field]
		if !ok {
			continue
		}
		raw := strings.ToLower(strings.TrimSpace(c.Value.Text))
		if canonical, ok := mappings[raw]; ok {
			c.Value = domain.TextValue(canonical)
			c.Confidence = capConfidence(c.Confidence + 0.05)
		}
	}
	return candidates
}

func capConfidence(v float64) float64 {
	if v > 1 {
		return 1
	}
	return v
}

func (c *Client) generateJSON(ctx context.Context, prompt string) (string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return "", err
	}

	reqBody := map[string]any{
		"model":  c.model,
		"prompt": prompt,
		"stream": false,
		"format": "json",
		"options": map[string]any{
			"temperature": 0,
		},
	}

	var response struct {
		Response string `json:"response"`
	}
	call := func(callCtx context.Context) error {
		return c.postJSON(callCtx, "/api/generate", reqBody, &response, "generate")
	}

	var err error
	if c.executor != nil {
		err = c.executor.Execute(ctx, "ollama.generate", call, classifyOllamaError)
	} else {
		err = call(ctx)
	}
	if err != nil {
		return "", wrapTemporaryIfNeeded("ollama generate", err)
	}
	return strings.TrimSpace(response.Response), nil
}
