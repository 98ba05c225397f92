// Package ocr parses stored PDF documents through the OCR worker service,
// falling back to native in-process text extraction when the worker is
// unreachable. Unreadable input degrades to a single failure text block
// instead of an error, so the pipeline records the document as
// signal-free rather than aborting the job.
package ocr

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/vendorlens/vendorlens/internal/core/domain"
	"github.com/vendorlens/vendorlens/internal/core/ports"
	"github.com/vendorlens/vendorlens/internal/infrastructure/resilience"
)

type Parser struct {
	workerURL  string
	httpClient *http.Client
	storage    ports.ObjectStorage
	executor   *resilience.Executor
	logger     *slog.Logger
}

type Options struct {
	Timeout            time.Duration
	ResilienceExecutor *resilience.Executor
}

func NewParser(workerURL string, storage ports.ObjectStorage, logger *slog.Logger, options Options) *Parser {
	timeout := options.Timeout
	if timeout <= 0 {
		timeout = 90 * time.Second
	}
	return &Parser{
		workerURL:  strings.TrimRight(workerURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		storage:    storage,
		executor:   options.ResilienceExecutor,
		logger:     logger,
	}
}

func (p *Parser) Parse(ctx context.Context, doc *domain.Document) (*domain.ParseResult, error) {
	rc, err := p.storage.Open(ctx, doc.StoragePath)
	if err != nil {
		return nil, fmt.Errorf("open stored document %s: %w", doc.StoragePath, err)
	}
	raw, err := io.ReadAll(rc)
	rc.Close()
	if err != nil {
		return nil, fmt.Errorf("read stored document %s: %w", doc.StoragePath, err)
	}

	result, remoteErr := p.processRemote(ctx, doc.Filename, raw)
	if remoteErr == nil {
		return result, nil
	}
	p.logger.Warn("ocr_worker_failed", "document_id", doc.ID, "error", remoteErr)

	result, nativeErr := nativeParse(raw)
	if nativeErr == nil {
		p.logger.Info("native_pdf_fallback", "document_id", doc.ID, "pages", result.Pages)
		return result, nil
	}

	return degradedResult(remoteErr), nil
}

// workerResponse mirrors the OCR worker's /process-pdf payload.
type workerResponse struct {
	Pages             int     `json:"pages"`
	ExtractionMethod  string  `json:"extraction_method"`
	ExtractionQuality float64 `json:"extraction_quality"`
	TextBlocks        []struct {
		Text string `json:"text"`
		Page int    `json:"page"`
	} `json:"text_blocks"`
	Tables []struct {
		Page int `json:"page"`
		Rows []struct {
			Cells []struct {
				Text string `json:"text"`
			} `json:"cells"`
		} `json:"rows"`
	} `json:"tables"`
	Logs []string `json:"logs"`
}

func (p *Parser) processRemote(ctx context.Context, filename string, raw []byte) (*domain.ParseResult, error) {
	var response workerResponse
	call := func(callCtx context.Context) error {
		return p.postPDF(callCtx, filename, raw, &response)
	}

	var err error
	if p.executor != nil {
		err = p.executor.Execute(ctx, "ocr.process_pdf", call, classifyWorkerError)
	} else {
		err = call(ctx)
	}
	if err != nil {
		return nil, err
	}
	return mapWorkerResponse(&response), nil
}

func (p *Parser) postPDF(ctx context.Context, filename string, raw []byte, out *workerResponse) error {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("pdf_data", filename)
	if err != nil {
		return fmt.Errorf("create multipart part: %w", err)
	}
	if _, err := part.Write(raw); err != nil {
		return fmt.Errorf("write multipart payload: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("finalize multipart payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.workerURL+"/process-pdf", &body)
	if err != nil {
		return fmt.Errorf("create process-pdf request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("ocr worker request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return &workerStatusError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(msg))}
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode ocr worker response: %w", err)
	}
	return nil
}

func mapWorkerResponse(response *workerResponse) *domain.ParseResult {
	// The worker reports composite methods like "ocr+tabula".
	result := &domain.ParseResult{
		Pages:   response.Pages,
		OCRUsed: strings.Contains(response.ExtractionMethod, "ocr"),
		Quality: response.ExtractionQuality,
	}
	for _, block := range response.TextBlocks {
		result.TextBlocks = append(result.TextBlocks, domain.TextBlock{Text: block.Text, Page: block.Page})
	}
	for _, table := range response.Tables {
		mapped := domain.Table{Page: table.Page}
		for _, row := range table.Rows {
			var cells []domain.TableCell
			for _, cell := range row.Cells {
				cells = append(cells, domain.TableCell{Text: cell.Text})
			}
			mapped.Rows = append(mapped.Rows, domain.TableRow{Cells: cells})
		}
		result.Tables = append(result.Tables, mapped)
	}
	return result
}

// degradedResult is the signal-free shape: zero quality, one synthetic
// block naming the failure.
func degradedResult(cause error) *domain.ParseResult {
	return &domain.ParseResult{
		Pages:   1,
		Quality: 0,
		TextBlocks: []domain.TextBlock{
			{Text: "Processing failed: " + cause.Error(), Page: 1},
		},
	}
}
