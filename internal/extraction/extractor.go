package extraction

import (
	"context"
	"errors"

	"github.com/zombor/invoice-tracker/internal/document"
)

// ErrExtractionCall is returned when the document-understanding service
// cannot be reached or rejects the request
var ErrExtractionCall = errors.New("extraction call failed")

// ProgressFunc receives the number of response bytes received so far
type ProgressFunc func(receivedBytes int)

func (p ProgressFunc) report(n int) {
	if p != nil {
		p(n)
	}
}

// Extractor defines the interface for invoice extraction backends
type Extractor interface {
	// Extract sends the document with InvoicePrompt and returns the raw reply text
	Extract(ctx context.Context, doc document.File, progress ProgressFunc) (string, error)
	// Close releases any client resources
	Close() error
}
