package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"NewsDigest/internal/config"
	"NewsDigest/internal/ports"
)

// DefaultAnthropicModel is used when the configuration names no model.
const DefaultAnthropicModel = "claude-3-5-haiku-latest"

// AnthropicModel summarizes through the Messages API.
type AnthropicModel struct {
	client    anthropic.Client
	model     string
	maxTokens int64
}

var _ ports.SummaryModel = (*AnthropicModel)(nil)

// NewAnthropicModel builds a client from configuration.
func NewAnthropicModel(cfg config.SummarizerConfig, httpClient *http.Client) (*AnthropicModel, error) {
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, errors.New("anthropic api key is empty")
	}

	opts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
	}
	if base := baseURL(cfg.Endpoint); base != "" {
		opts = append(opts, option.WithBaseURL(base))
	}
	if httpClient != nil {
		opts = append(opts, option.WithHTTPClient(httpClient))
	}

	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = DefaultAnthropicModel
	}

	return &AnthropicModel{
		client:    anthropic.NewClient(opts...),
		model:     model,
		maxTokens: maxTokens(cfg.MaxSummaryTokens),
	}, nil
}

// NewAnthropicLoader defers client construction to the summarizer's single load.
func NewAnthropicLoader(cfg config.SummarizerConfig, httpClient *http.Client) ports.ModelLoader {
	return func(context.Context) (ports.SummaryModel, error) {
		return NewAnthropicModel(cfg, httpClient)
	}
}

// Summarize implements ports.SummaryModel.
func (m *AnthropicModel) Summarize(ctx context.Context, text string) (string, error) {
	msg, err := m.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(m.model),
		MaxTokens: m.maxTokens,
		System:    []anthropic.TextBlockParam{{Text: summaryPrompt}},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(text)),
		},
	})
	if err != nil {
		return "", fmt.Errorf("anthropic request failed: %w", err)
	}

	var sb strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}

	summary := strings.TrimSpace(sb.String())
	if summary == "" {
		return "", errEmptyCompletion
	}
	return summary, nil
}
