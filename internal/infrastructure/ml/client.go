package ml

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

	"NewsDigest/internal/config"
	"NewsDigest/internal/ports"
)

const (
	// DefaultEndpoint is the hosted inference API; the model id is appended to it.
	DefaultEndpoint = "https://api-inference.huggingface.co/models"
	// DefaultModel is a distilled BART checkpoint fine-tuned for news summarization.
	DefaultModel = "sshleifer/distilbart-cnn-12-6"

	minSummaryTokens = 30
)

// Client talks to a hosted summarization model over HTTP.
type Client struct {
	url       string
	apiKey    string
	maxTokens int
	http      *http.Client
}

var _ ports.SummaryModel = (*Client)(nil)

type inferenceRequest struct {
	Inputs     string              `json:"inputs"`
	Parameters inferenceParameters `json:"parameters"`
	Options    inferenceOptions    `json:"options"`
}

type inferenceParameters struct {
	MaxLength int  `json:"max_length"`
	MinLength int  `json:"min_length"`
	DoSample  bool `json:"do_sample"`
}

type inferenceOptions struct {
	WaitForModel bool `json:"wait_for_model"`
}

type inferenceSummary struct {
	SummaryText string `json:"summary_text"`
}

// NewClient creates a client for the model served at endpoint/model.
func NewClient(endpoint, model, apiKey string, maxTokens int, httpClient *http.Client) (*Client, error) {
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	if model == "" {
		model = DefaultModel
	}
	base, err := url.Parse(strings.TrimRight(endpoint, "/"))
	if err != nil || (base.Scheme != "http" && base.Scheme != "https") || base.Host == "" {
		return nil, fmt.Errorf("invalid inference endpoint %q", endpoint)
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if maxTokens < minSummaryTokens {
		maxTokens = minSummaryTokens
	}

	return &Client{
		url:       base.String() + "/" + strings.Trim(model, "/"),
		apiKey:    apiKey,
		maxTokens: maxTokens,
		http:      httpClient,
	}, nil
}

// NewLoader returns a ports.ModelLoader that builds the client from config.
func NewLoader(cfg config.SummarizerConfig, httpClient *http.Client) ports.ModelLoader {
	return func(context.Context) (ports.SummaryModel, error) {
		return NewClient(cfg.Endpoint, cfg.Model, cfg.APIKey, cfg.MaxSummaryTokens, httpClient)
	}
}

// Summarize sends text to the model and returns the generated summary.
func (c *Client) Summarize(ctx context.Context, text string) (string, error) {
	payload := inferenceRequest{
		Inputs:     text,
		Parameters: inferenceParameters{MaxLength: c.maxTokens, MinLength: minSummaryTokens},
		Options:    inferenceOptions{WaitForModel: true},
	}

	var resp []inferenceSummary
	if err := c.post(ctx, payload, &resp); err != nil {
		return "", err
	}
	if len(resp) == 0 {
		return "", errors.New("inference returned no summaries")
	}

	return strings.TrimSpace(resp[0].SummaryText), nil
}

func (c *Client) post(ctx context.Context, payload any, v any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var apiErr struct {
			Error string `json:"error"`
		}
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		if json.Unmarshal(raw, &apiErr) == nil && apiErr.Error != "" {
			return fmt.Errorf("unexpected status %s: %s", resp.Status, apiErr.Error)
		}
		return fmt.Errorf("unexpected status %s", resp.Status)
	}

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}

	return nil
}
