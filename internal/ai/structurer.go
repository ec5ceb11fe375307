// Package ai turns raw OCR text into the structured rent-statement schema via
// the LLM structuring provider.
package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/ryoma-android/takahashi01-sub000/internal/domain/entity"
	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

// TextStructurer converts OCR text into a validated StructuredExtraction.
type TextStructurer interface {
	Structure(ctx context.Context, ocrText string) (*entity.StructuredExtraction, string, error)
}

// Config holds structuring provider configuration
type Config struct {
	APIKey      string
	BaseURL     string // optional override, used by tests
	Model       string
	Temperature float32
	MaxTokens   int
	Timeout     time.Duration
}

// Structurer extracts rent-statement data using the OpenAI chat API.
type Structurer struct {
	client  *openai.Client
	model   string
	temp    float32
	maxTok  int
	timeout time.Duration
	logger  *zap.Logger
}

// NewStructurer creates a new Structurer.
func NewStructurer(cfg Config, logger *zap.Logger) *Structurer {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}

	return &Structurer{
		client:  openai.NewClientWithConfig(clientCfg),
		model:   cfg.Model,
		temp:    cfg.Temperature,
		maxTok:  cfg.MaxTokens,
		timeout: cfg.Timeout,
		logger:  logger,
	}
}

// Structure sends the OCR text through the extraction prompt and parses the
// strict-JSON response. It returns the parsed extraction and the raw JSON
// exactly as the provider produced it (after fence stripping), which the
// pipeline stores verbatim on the Document.
func (s *Structurer) Structure(ctx context.Context, ocrText string) (*entity.StructuredExtraction, string, error) {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	resp, err := s.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       s.model,
		Temperature: s.temp,
		MaxTokens:   s.maxTok,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: systemPrompt,
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: buildExtractionPrompt(ocrText),
			},
		},
	})
	if err != nil {
		s.logger.Error("Structuring API call failed", zap.Error(err))
		return nil, "", fmt.Errorf("structuring API call failed: %w", err)
	}

	if len(resp.Choices) == 0 {
		return nil, "", fmt.Errorf("no response from structuring provider")
	}

	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	if content == "" {
		return nil, "", fmt.Errorf("empty response from structuring provider")
	}

	raw := StripCodeFence(content)

	var extraction entity.StructuredExtraction
	if err := json.Unmarshal([]byte(raw), &extraction); err != nil {
		s.logger.Error("Failed to parse structuring response",
			zap.Error(err),
			zap.String("content", truncate(raw, 500)))
		return nil, "", fmt.Errorf("failed to parse structuring response: %w", err)
	}

	s.logger.Info("Text structured successfully",
		zap.String("property_name", extraction.PropertyName),
		zap.Int("contract_count", len(extraction.Contracts)))

	return &extraction, raw, nil
}

// StripCodeFence removes a surrounding markdown code fence, which some models
// add despite being told not to.
func StripCodeFence(content string) string {
	trimmed := strings.TrimSpace(content)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}

	trimmed = strings.TrimPrefix(trimmed, "```json")
	trimmed = strings.TrimPrefix(trimmed, "```")
	trimmed = strings.TrimSuffix(strings.TrimSpace(trimmed), "```")
	return strings.TrimSpace(trimmed)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
