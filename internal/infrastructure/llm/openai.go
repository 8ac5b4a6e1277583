package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"

	"NewsDigest/internal/config"
	"NewsDigest/internal/ports"
)

// DefaultOpenAIModel is used when the configuration names no model.
const DefaultOpenAIModel = "gpt-4o-mini"

// OpenAIModel summarizes through the chat completions API of OpenAI or any
// compatible endpoint.
type OpenAIModel struct {
	client    openai.Client
	model     string
	maxTokens int64
}

var _ ports.SummaryModel = (*OpenAIModel)(nil)

// NewOpenAIModel builds a client from configuration.
func NewOpenAIModel(cfg config.SummarizerConfig, httpClient *http.Client) (*OpenAIModel, error) {
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, errors.New("openai api key is empty")
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
		model = DefaultOpenAIModel
	}

	return &OpenAIModel{
		client:    openai.NewClient(opts...),
		model:     model,
		maxTokens: maxTokens(cfg.MaxSummaryTokens),
	}, nil
}

// NewOpenAILoader defers client construction to the summarizer's single load.
func NewOpenAILoader(cfg config.SummarizerConfig, httpClient *http.Client) ports.ModelLoader {
	return func(context.Context) (ports.SummaryModel, error) {
		return NewOpenAIModel(cfg, httpClient)
	}
}

// Summarize implements ports.SummaryModel.
func (m *OpenAIModel) Summarize(ctx context.Context, text string) (string, error) {
	resp, err := m.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(m.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(summaryPrompt),
			openai.UserMessage(text),
		},
		Temperature: openai.Float(0.2),
		MaxTokens:   openai.Int(m.maxTokens),
	})
	if err != nil {
		return "", fmt.Errorf("openai request failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errEmptyCompletion
	}

	summary := strings.TrimSpace(resp.Choices[0].Message.Content)
	if summary == "" {
		return "", errEmptyCompletion
	}
	return summary, nil
}
