package domain

import "time"

type ExtractionStatus string

const (
	ExtractionPending ExtractionStatus = "pending"
	ExtractionOK      ExtractionStatus = "ok"
	ExtractionFailed  ExtractionStatus = "failed"
)

type Document struct {
	ID               string           `json:"id"`
	JobID            string           `json:"job_id"`
	Filename         string           `json:"filename"`
	ContentHash      string           `json:"content_hash"`
	StoragePath      string           `json:"storage_path"`
	PageCount        int              `json:"page_count"`
	QualityScore     float64          `json:"quality_score"`
	ExtractionStatus ExtractionStatus `json:"extraction_status"`
	ExtractionError  string           `json:"extraction_error,omitempty"`
	CreatedAt        time.Time        `json:"created_at"`
	UpdatedAt        time.Time        `json:"updated_at"`
}

// ClassificationEvidence records the keyword hits behind a domain score.
type ClassificationEvidence struct {
	PrimaryMatches   []string `json:"primary_matches"`
	SecondaryMatches []string `json:"secondary_matches"`
	SectionMatches   []string `json:"section_matches"`
	NegativeMatches  []string `json:"negative_matches"`
}

type DomainClassification struct {
	DocumentID           string                 `json:"document_id"`
	Domain               string                 `json:"domain"`
	Confidence           float64                `json:"confidence"`
	Method               string                 `json:"method"`
	AlternativeDomains   []string               `json:"alternative_domains"`
	RequiresConfirmation bool                   `json:"requires_confirmation"`
	Evidence             ClassificationEvidence `json:"evidence"`
}

// ParseResult is the cached OCR-worker output for one document.
type ParseResult struct {
	Pages      int         `json:"pages"`
	OCRUsed    bool        `json:"ocr_used"`
	Quality    float64     `json:"extraction_quality"`
	TextBlocks []TextBlock `json:"text_blocks"`
	Tables     []Table     `json:"tables"`
}

type TextBlock struct {
	Text string `json:"text"`
	Page int    `json:"page"`
}

type Table struct {
	Page int        `json:"page"`
	Rows []TableRow `json:"rows"`
}

type TableRow struct {
	Cells []TableCell `json:"cells"`
}

type TableCell struct {
	Text string `json:"text"`
}
