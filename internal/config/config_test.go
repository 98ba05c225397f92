package config

import "testing"

func TestLoadPipelineDefaults(t *testing.T) {
	t.Setenv("OCR_WORKER_URL", "")
	t.Setenv("OCR_TIMEOUT_SECONDS", "")
	t.Setenv("OLLAMA_MODEL", "")
	t.Setenv("OLLAMA_RPS", "")
	t.Setenv("LLM_TIMEOUT_SECONDS", "")
	t.Setenv("NATS_SUBJECT", "")

	cfg := Load()
	if cfg.OCRWorkerURL != "http://localhost:8088" {
		t.Fatalf("expected default ocr worker url, got %q", cfg.OCRWorkerURL)
	}
	if cfg.OCRTimeoutSecs != 90 {
		t.Fatalf("expected default ocr timeout 90, got %d", cfg.OCRTimeoutSecs)
	}
	if cfg.OllamaModel != "llama3.1:8b" {
		t.Fatalf("expected default ollama model, got %q", cfg.OllamaModel)
	}
	if cfg.OllamaRPS != 2 {
		t.Fatalf("expected default ollama rps 2, got %v", cfg.OllamaRPS)
	}
	if cfg.LLMTimeoutSecs != 60 {
		t.Fatalf("expected default llm timeout 60, got %d", cfg.LLMTimeoutSecs)
	}
	if cfg.NATSSubject != "jobs.process" {
		t.Fatalf("expected default nats subject jobs.process, got %q", cfg.NATSSubject)
	}
}

func TestLoadParsesOverrides(t *testing.T) {
	t.Setenv("OCR_TIMEOUT_SECONDS", "30")
	t.Setenv("OLLAMA_RPS", "0.5")
	t.Setenv("RESILIENCE_ENABLED", "false")
	t.Setenv("OCR_WORKER_URL", "http://ocr:9000")

	cfg := Load()
	if cfg.OCRTimeoutSecs != 30 {
		t.Fatalf("expected ocr timeout 30, got %d", cfg.OCRTimeoutSecs)
	}
	if cfg.OllamaRPS != 0.5 {
		t.Fatalf("expected ollama rps 0.5, got %v", cfg.OllamaRPS)
	}
	if cfg.ResilienceEnabled {
		t.Fatal("expected resilience disabled")
	}
	if cfg.OCRWorkerURL != "http://ocr:9000" {
		t.Fatalf("expected ocr worker url override, got %q", cfg.OCRWorkerURL)
	}
}

func TestLoadIgnoresMalformedNumbers(t *testing.T) {
	t.Setenv("OCR_TIMEOUT_SECONDS", "ninety")
	t.Setenv("OLLAMA_RPS", "fast")

	cfg := Load()
	if cfg.OCRTimeoutSecs != 90 {
		t.Fatalf("expected fallback ocr timeout 90, got %d", cfg.OCRTimeoutSecs)
	}
	if cfg.OllamaRPS != 2 {
		t.Fatalf("expected fallback ollama rps 2, got %v", cfg.OllamaRPS)
	}
}
