package extraction

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"

	"github.com/zombor/invoice-tracker/internal/document"
)

// DefaultGeminiModel is used when no model name is configured
const DefaultGeminiModel = "gemini-1.5-flash"

// Gemini implements the Extractor interface using Google Gemini
type Gemini struct {
	client *genai.Client
	model  *genai.GenerativeModel
}

// NewGemini creates a new Gemini Extractor instance
func NewGemini(apiKey string, modelName string) (*Gemini, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini api key is required")
	}
	if modelName == "" {
		modelName = DefaultGeminiModel
	}

	client, err := genai.NewClient(context.Background(), option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("creating gemini client: %w", err)
	}

	return &Gemini{
		client: client,
		model:  client.GenerativeModel(modelName),
	}, nil
}

// Extract streams the model reply so callers see real progress while the
// document is being read
func (g *Gemini) Extract(ctx context.Context, doc document.File, progress ProgressFunc) (string, error) {
	// the SDK base64-encodes inline blobs on the wire
	parts := []genai.Part{
		genai.Blob{MIMEType: doc.MIMEType, Data: doc.Data},
		genai.Text(InvoicePrompt),
	}

	return collectStream(g.model.GenerateContentStream(ctx, parts...), progress)
}

// responseStream is the part of the SDK's response iterator that Extract uses
type responseStream interface {
	Next() (*genai.GenerateContentResponse, error)
}

// collectStream concatenates the text parts of every streamed chunk, reporting
// the running reply length after each one
func collectStream(stream responseStream, progress ProgressFunc) (string, error) {
	var reply strings.Builder
	for {
		resp, err := stream.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return "", fmt.Errorf("%w: generating content: %w", ErrExtractionCall, err)
		}
		if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
			continue
		}
		for _, part := range resp.Candidates[0].Content.Parts {
			if text, ok := part.(genai.Text); ok {
				reply.WriteString(string(text))
			}
		}
		progress.report(reply.Len())
	}

	if reply.Len() == 0 {
		return "", fmt.Errorf("%w: no response from gemini", ErrExtractionCall)
	}
	return reply.String(), nil
}

// Close closes the Gemini client
func (g *Gemini) Close() error {
	return g.client.Close()
}
