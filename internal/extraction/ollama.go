package extraction

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/zombor/invoice-tracker/internal/document"
)

// Ollama implements the Extractor interface using a local Ollama server
type Ollama struct {
	baseURL string
	model   string
	client  *http.Client
}

// NewOllama creates a new Ollama Extractor instance. The model must accept
// images (llava, qwen2-vl, ...) unless only CSV documents are sent.
func NewOllama(baseURL string, modelName string) (*Ollama, error) {
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}
	if modelName == "" {
		modelName = "llava"
	}

	return &Ollama{
		baseURL: strings.TrimRight(baseURL, "/"),
		model:   modelName,
		client:  &http.Client{},
	}, nil
}

type ollamaChatRequest struct {
	Model    string          `json:"model"`
	Messages []ollamaMessage `json:"messages"`
	Stream   bool            `json:"stream"`
}

type ollamaMessage struct {
	Role    string   `json:"role"`
	Content string   `json:"content"`
	Images  []string `json:"images,omitempty"`
}

type ollamaChatResponse struct {
	Message ollamaMessage `json:"message"`
	Done    bool          `json:"done"`
}

// userMessage inlines text documents into the prompt and attaches everything
// else as a base64 PNG
func userMessage(doc document.File) (ollamaMessage, error) {
	if strings.HasPrefix(strings.ToLower(doc.MIMEType), "text/") {
		return ollamaMessage{
			Role:    "user",
			Content: fmt.Sprintf("%s\n\nDocument (%s):\n%s", InvoicePrompt, doc.MIMEType, doc.Data),
		}, nil
	}

	img, err := rasterize(doc)
	if err != nil {
		return ollamaMessage{}, fmt.Errorf("%w: preparing image: %w", ErrExtractionCall, err)
	}
	return ollamaMessage{
		Role:    "user",
		Content: InvoicePrompt,
		Images:  []string{base64.StdEncoding.EncodeToString(img)},
	}, nil
}

// Extract sends the document to the chat endpoint and returns the reply text
func (o *Ollama) Extract(ctx context.Context, doc document.File, progress ProgressFunc) (string, error) {
	msg, err := userMessage(doc)
	if err != nil {
		return "", err
	}

	reqBody := ollamaChatRequest{
		Model:  o.model,
		Stream: false,
		Messages: []ollamaMessage{
			{
				Role:    "system",
				Content: "You are an expert at reading invoices and extracting structured data from them.",
			},
			msg,
		},
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.baseURL+"/api/chat", bytes.NewReader(jsonData))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := o.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: calling ollama API: %w", ErrExtractionCall, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("%w: ollama API error (status %d): %s", ErrExtractionCall, resp.StatusCode, string(body))
	}

	var chatResp ollamaChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&chatResp); err != nil {
		return "", fmt.Errorf("%w: decoding response: %w", ErrExtractionCall, err)
	}

	if chatResp.Message.Content == "" {
		return "", fmt.Errorf("%w: no response from ollama", ErrExtractionCall)
	}

	progress.report(len(chatResp.Message.Content))
	return chatResp.Message.Content, nil
}

// Close closes the Ollama client (no-op for HTTP client)
func (o *Ollama) Close() error {
	return nil
}
