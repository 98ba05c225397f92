package ocr

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"

	"github.com/vendorlens/vendorlens/internal/infrastructure/resilience"
)

type workerStatusError struct {
	StatusCode int
	Body       string
}

func (e *workerStatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("ocr worker status %d", e.StatusCode)
	}
	return fmt.Sprintf("ocr worker status %d: %s", e.StatusCode, e.Body)
}

func classifyWorkerError(err error) resilience.ErrorClassification {
	if err == nil {
		return resilience.ErrorClassification{}
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return resilience.ErrorClassification{Retryable: false, RecordFailure: false}
	}
	if resilience.IsCircuitOpen(err) {
		return resilience.ErrorClassification{Retryable: true, RecordFailure: true}
	}

	var statusErr *workerStatusError
	if errors.As(err, &statusErr) {
		switch statusErr.StatusCode {
		case http.StatusRequestTimeout, http.StatusTooManyRequests,
			http.StatusInternalServerError, http.StatusBadGateway,
			http.StatusServiceUnavailable, http.StatusGatewayTimeout:
			return resilience.ErrorClassification{Retryable: true, RecordFailure: true}
		default:
			return resilience.ErrorClassification{Retryable: false, RecordFailure: false}
		}
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return resilience.ErrorClassification{Retryable: true, RecordFailure: true}
	}
	return resilience.ErrorClassification{Retryable: false, RecordFailure: true}
}
