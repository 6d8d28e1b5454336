package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"tracer-store/internal/genai"
	"tracer-store/internal/models"
	"tracer-store/internal/util"

	"go.uber.org/zap"
)

// Fallback copy used whenever generation fails
const (
	FallbackSlogan      = "Physics in Motion"
	FallbackDescription = "Experience the beauty of particle physics with this exclusive item from Tracer."
)

// FallbackContent returns the fixed substitute copy
func FallbackContent() models.AIGeneratedContent {
	return models.AIGeneratedContent{
		Slogan:              FallbackSlogan,
		ExtendedDescription: FallbackDescription,
	}
}

// TextGenerator is the generative-text service the copy generator depends on
type TextGenerator interface {
	GenerateText(ctx context.Context, req *genai.Request) (string, error)
}

// CopyWriter produces marketing copy for a product. Implementations never fail.
type CopyWriter interface {
	Generate(ctx context.Context, name, promptContext string) models.AIGeneratedContent
}

var (
	errMalformedCopy = errors.New("malformed copy JSON")
	errMissingField  = errors.New("copy JSON missing field")
)

var copySchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"slogan": {
			Type:        genai.TypeString,
			Description: "A witty, short physics pun or slogan.",
		},
		"extendedDescription": {
			Type:        genai.TypeString,
			Description: "A 2-sentence exciting marketing description.",
		},
	},
	Required: []string{"slogan", "extendedDescription"},
}

// CopyGenerator asks the text service for a slogan and description.
// Every failure collapses into FallbackContent.
type CopyGenerator struct {
	client  TextGenerator
	timeout time.Duration
	logger  *zap.Logger
}

// NewCopyGenerator creates a copy generator. A zero timeout relies on the
// caller's context and the client's own timeout.
func NewCopyGenerator(client TextGenerator, timeout time.Duration) *CopyGenerator {
	return &CopyGenerator{
		client:  client,
		timeout: timeout,
		logger:  util.GetLogger(),
	}
}

// Generate returns generated copy, or the fallback on any failure. One attempt, no retry.
func (g *CopyGenerator) Generate(ctx context.Context, name, promptContext string) models.AIGeneratedContent {
	ctx, span := util.StartSpan(ctx, "CopyGenerator.Generate")
	defer span.End()

	start := time.Now()
	defer func() {
		util.CopyGenerationLatency.Observe(time.Since(start).Seconds())
	}()

	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	content, err := g.generate(ctx, name, promptContext)
	if err != nil {
		outcome := failureOutcome(ctx, err)
		util.CopyGenerationTotal.WithLabelValues(outcome).Inc()
		span.RecordError(err)
		g.logger.Warn("Copy generation failed, using fallback",
			zap.String("product", name),
			zap.String("outcome", outcome),
			zap.Error(err))
		return FallbackContent()
	}

	util.CopyGenerationTotal.WithLabelValues("success").Inc()
	return content
}

func (g *CopyGenerator) generate(ctx context.Context, name, promptContext string) (models.AIGeneratedContent, error) {
	if g.client == nil {
		return models.AIGeneratedContent{}, genai.ErrAPIKeyMissing
	}

	text, err := g.client.GenerateText(ctx, &genai.Request{
		SystemPrompt:     copySystemPrompt,
		Prompt:           buildCopyPrompt(name, promptContext),
		ResponseMimeType: "application/json",
		ResponseSchema:   copySchema,
	})
	if err != nil {
		return models.AIGeneratedContent{}, err
	}
	return parseCopy(text)
}

const copySystemPrompt = "You are a creative marketing assistant for a Science/Physics merchandise store called \"Tracer\"."

func buildCopyPrompt(name, promptContext string) string {
	var b strings.Builder
	b.WriteString("Create a catchy, witty, physics-themed slogan and a short, exciting description for a product.\n\n")
	fmt.Fprintf(&b, "Product Name: %s\n", name)
	fmt.Fprintf(&b, "Context: %s\n\n", promptContext)
	b.WriteString("Return JSON only.")
	return b.String()
}

func parseCopy(text string) (models.AIGeneratedContent, error) {
	if strings.TrimSpace(text) == "" {
		return models.AIGeneratedContent{}, genai.ErrEmptyText
	}

	raw := genai.ExtractJSON(text)
	if raw == "" {
		return models.AIGeneratedContent{}, errMalformedCopy
	}

	var content models.AIGeneratedContent
	if err := json.Unmarshal([]byte(raw), &content); err != nil {
		return models.AIGeneratedContent{}, fmt.Errorf("%w: %v", errMalformedCopy, err)
	}
	if strings.TrimSpace(content.Slogan) == "" || strings.TrimSpace(content.ExtendedDescription) == "" {
		return models.AIGeneratedContent{}, errMissingField
	}
	return content, nil
}

func failureOutcome(ctx context.Context, err error) string {
	var apiErr *genai.APIError
	switch {
	case errors.Is(err, context.DeadlineExceeded), ctx.Err() != nil:
		return "timeout"
	case errors.Is(err, genai.ErrAPIKeyMissing):
		return "not_configured"
	case errors.As(err, &apiErr):
		return "api_error"
	case errors.Is(err, genai.ErrEmptyText), errors.Is(err, genai.ErrNoCandidates):
		return "empty_text"
	case errors.Is(err, errMalformedCopy):
		return "malformed"
	case errors.Is(err, errMissingField):
		return "missing_field"
	default:
		return "transport_error"
	}
}
