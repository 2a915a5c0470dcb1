// Package provider implements the client for the external text-completion API.
package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"
)

const (
	// ClientTimeout is the total request timeout. Completions are slow.
	ClientTimeout = 60 * time.Second
	// DialTimeout is the connection timeout.
	DialTimeout = 10 * time.Second
	// TLSHandshakeTimeout is the TLS negotiation timeout.
	TLSHandshakeTimeout = 10 * time.Second
	// ResponseHeaderTimeout is time to wait for response headers.
	ResponseHeaderTimeout = 30 * time.Second

	// completionsPath is the provider's completion endpoint.
	completionsPath = "/v1/completions"

	// maxErrorBodyBytes caps how much of an error response body is read.
	maxErrorBodyBytes = 4096
)

// Provider faults. All are request-level: no retries happen at this layer.
var (
	// ErrEmptyChoices indicates the provider answered 200 but returned no
	// choices. Treated as a fault rather than indexed into blindly.
	ErrEmptyChoices = errors.New("provider returned no choices")
	// ErrProviderStatus indicates a non-2xx provider response.
	ErrProviderStatus = errors.New("provider returned error status")
)

// Client issues completion requests to an OpenAI-compatible endpoint.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	model      string
}

// NewClient creates a provider client with a fixed model and credential.
func NewClient(baseURL, apiKey, model string) *Client {
	return &Client{
		httpClient: newHTTPClient(),
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		apiKey:     apiKey,
		model:      model,
	}
}

// newHTTPClient creates an HTTP client configured for provider calls.
// It has explicit timeouts so a hung provider cannot hang a request forever.
func newHTTPClient() *http.Client {
	return &http.Client{
		Timeout: ClientTimeout,
		Transport: &http.Transport{
			DialContext: (&net.Dialer{
				Timeout:   DialTimeout,
				KeepAlive: 30 * time.Second,
			}).DialContext,
			TLSHandshakeTimeout:   TLSHandshakeTimeout,
			ResponseHeaderTimeout: ResponseHeaderTimeout,
			MaxIdleConns:          100,
			MaxIdleConnsPerHost:   10,
			IdleConnTimeout:       90 * time.Second,
		},
	}
}

// completionRequest is the JSON body sent to the provider.
type completionRequest struct {
	Model       string  `json:"model"`
	Prompt      string  `json:"prompt"`
	MaxTokens   int64   `json:"max_tokens"`
	Temperature float64 `json:"temperature"`
}

// Choice is a single generated continuation.
type Choice struct {
	Text         string `json:"text"`
	Index        int    `json:"index"`
	FinishReason string `json:"finish_reason"`
}

// CompletionResponse is the parsed provider response body.
type CompletionResponse struct {
	ID      string   `json:"id"`
	Model   string   `json:"model"`
	Choices []Choice `json:"choices"`
	Usage   Usage    `json:"usage"`
}

// Usage reports token consumption as accounted by the provider.
type Usage struct {
	PromptTokens     int64 `json:"prompt_tokens"`
	CompletionTokens int64 `json:"completion_tokens"`
	TotalTokens      int64 `json:"total_tokens"`
}

// FirstChoiceText returns the text of the first choice.
// Callers must only use this on responses returned by Complete, which
// guarantees at least one choice.
func (r *CompletionResponse) FirstChoiceText() string {
	if len(r.Choices) == 0 {
		return ""
	}
	return r.Choices[0].Text
}

// Complete sends one prompt to the provider and returns the parsed response.
// Sampling is deterministic (temperature 0) and the model is fixed at client
// construction. The response shape is validated before it is returned: a
// malformed or empty choices list comes back as ErrEmptyChoices, never as a
// panic further up the stack.
func (c *Client) Complete(ctx context.Context, prompt string, maxTokens int64) (*CompletionResponse, error) {
	body, err := json.Marshal(completionRequest{
		Model:       c.model,
		Prompt:      prompt,
		MaxTokens:   maxTokens,
		Temperature: 0,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal completion request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+completionsPath, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build completion request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("completion request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		detail := readErrorDetail(resp.Body)
		if detail != "" {
			return nil, fmt.Errorf("%w: %d: %s", ErrProviderStatus, resp.StatusCode, detail)
		}
		return nil, fmt.Errorf("%w: %d", ErrProviderStatus, resp.StatusCode)
	}

	var parsed CompletionResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode completion response: %w", err)
	}

	if len(parsed.Choices) == 0 {
		return nil, ErrEmptyChoices
	}

	return &parsed, nil
}

// Model returns the fixed model identifier the client sends.
func (c *Client) Model() string {
	return c.model
}

// errorBody matches the provider's error envelope.
type errorBody struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

// readErrorDetail extracts a human-readable message from an error response.
// Best effort: an unparseable body yields an empty string.
func readErrorDetail(r io.Reader) string {
	data, err := io.ReadAll(io.LimitReader(r, maxErrorBodyBytes))
	if err != nil {
		return ""
	}

	var parsed errorBody
	if err := json.Unmarshal(data, &parsed); err == nil && parsed.Error.Message != "" {
		return parsed.Error.Message
	}

	return strings.TrimSpace(string(data))
}
