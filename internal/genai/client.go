package genai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"tracer-store/internal/util"

	"go.uber.org/zap"
)

const (
	// DefaultBaseURL is the public Gemini API endpoint
	DefaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"
	// DefaultModel is used when no model is configured
	DefaultModel = "gemini-3-flash-preview"
)

var (
	ErrAPIKeyMissing = errors.New("gemini API key not configured")
	ErrNoCandidates  = errors.New("no candidates in gemini response")
	ErrEmptyText     = errors.New("no text content in gemini response")
)

// APIError is a non-200 answer from the service
type APIError struct {
	StatusCode int
	Status     string
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("gemini API error: status %d", e.StatusCode)
	}
	return fmt.Sprintf("gemini API error: status %d (%s): %s", e.StatusCode, e.Status, e.Message)
}

// Request is a single structured-output prompt
type Request struct {
	Prompt           string
	SystemPrompt     string
	ResponseMimeType string
	ResponseSchema   *Schema
	Temperature      float32
	MaxOutputTokens  int
}

// Client calls the Gemini generateContent API. It makes exactly one attempt per call.
type Client struct {
	httpClient *http.Client
	apiKey     string
	baseURL    string
	model      string
	logger     *zap.Logger
}

// NewClient creates a Gemini client. A zero timeout leaves the HTTP client unbounded;
// callers are then expected to bound the context.
func NewClient(apiKey, baseURL, model string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if model == "" {
		model = DefaultModel
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		apiKey:     apiKey,
		baseURL:    strings.TrimRight(baseURL, "/"),
		model:      model,
		logger:     util.GetLogger(),
	}
}

// Model returns the configured model id
func (c *Client) Model() string {
	return c.model
}

// GenerateText sends the request and returns the concatenated text of the first candidate
func (c *Client) GenerateText(ctx context.Context, req *Request) (string, error) {
	ctx, span := util.StartSpan(ctx, "genai.GenerateText")
	defer span.End()

	if c.apiKey == "" {
		span.RecordError(ErrAPIKeyMissing)
		return "", ErrAPIKeyMissing
	}

	body := GenerateContentRequest{
		Contents: []Content{
			{Role: "user", Parts: []Part{{Text: req.Prompt}}},
		},
		GenerationConfig: &GenerationConfig{
			Temperature:      req.Temperature,
			MaxOutputTokens:  req.MaxOutputTokens,
			ResponseMimeType: req.ResponseMimeType,
			ResponseSchema:   req.ResponseSchema,
		},
	}
	if req.SystemPrompt != "" {
		body.SystemInstruction = &SystemInstruction{Parts: []Part{{Text: req.SystemPrompt}}}
	}

	payload, err := json.Marshal(body)
	if err != nil {
		span.RecordError(err)
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/models/%s:generateContent?key=%s",
		c.baseURL, url.PathEscape(c.model), url.QueryEscape(c.apiKey))
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		span.RecordError(err)
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	c.logger.Debug("Gemini request",
		zap.String("model", c.model),
		zap.Int("prompt_length", len(req.Prompt)))

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		span.RecordError(err)
		return "", fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		span.RecordError(err)
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		var envelope ErrorResponse
		if json.Unmarshal(raw, &envelope) == nil {
			apiErr.Status = envelope.Error.Status
			apiErr.Message = envelope.Error.Message
		}
		span.RecordError(apiErr)
		return "", apiErr
	}

	var parsed GenerateContentResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		span.RecordError(err)
		return "", fmt.Errorf("failed to parse response: %w", err)
	}

	if len(parsed.Candidates) == 0 {
		span.RecordError(ErrNoCandidates)
		return "", ErrNoCandidates
	}

	var text strings.Builder
	for _, part := range parsed.Candidates[0].Content.Parts {
		text.WriteString(part.Text)
	}
	if strings.TrimSpace(text.String()) == "" {
		span.RecordError(ErrEmptyText)
		return "", ErrEmptyText
	}

	c.logger.Debug("Gemini response",
		zap.String("model", c.model),
		zap.Int("total_tokens", parsed.UsageMetadata.TotalTokenCount))

	return text.String(), nil
}
