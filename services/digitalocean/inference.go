package digitalocean

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

const (
	// InferenceBaseURL is the OpenAI-compatible endpoint of DigitalOcean's serverless inference
	InferenceBaseURL = "https://inference.do-ai.run"
	// DefaultInferenceTimeout bounds one completion round trip
	DefaultInferenceTimeout = 60 * time.Second
	// DefaultInferenceModel reconciles schedules and curates resources unless INFERENCE_MODEL overrides it
	DefaultInferenceModel = "openai-gpt-oss-120b"

	defaultTemperature = 0.2
	defaultMaxTokens   = 2048
	maxErrorBody       = 512
)

// ErrNoChoices means the model answered 2xx but produced nothing to read
var ErrNoChoices = errors.New("no choices returned from inference API")

// InferenceClient talks to the chat completions endpoint. Any non-2xx answer
// surfaces as *APIError so callers can tell a rejected prompt from a dead network.
type InferenceClient struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	model      string
}

// InferenceConfig zero values fall back to the package defaults
type InferenceConfig struct {
	APIKey  string
	BaseURL string
	Timeout time.Duration
	Model   string
}

func NewInferenceClient(config InferenceConfig) *InferenceClient {
	if config.BaseURL == "" {
		config.BaseURL = InferenceBaseURL
	}
	if config.Timeout == 0 {
		config.Timeout = DefaultInferenceTimeout
	}
	if config.Model == "" {
		config.Model = DefaultInferenceModel
	}
	return &InferenceClient{
		apiKey:     config.APIKey,
		baseURL:    config.BaseURL,
		httpClient: &http.Client{Timeout: config.Timeout},
		model:      config.Model,
	}
}

// Model is recorded on every generated schedule and recommendation
func (c *InferenceClient) Model() string {
	return c.model
}

type InferenceMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ResponseFormatType string

const (
	ResponseFormatJSON       ResponseFormatType = "json_object"
	ResponseFormatJSONSchema ResponseFormatType = "json_schema"
)

// JSONSchema names the shape a week schedule or resource list must take.
// Strict is left off: the planner re-validates every answer anyway.
type JSONSchema struct {
	Name   string                 `json:"name"`
	Schema map[string]interface{} `json:"schema"`
	Strict bool                   `json:"strict,omitempty"`
}

type ResponseFormat struct {
	Type       ResponseFormatType `json:"type"`
	JSONSchema *JSONSchema        `json:"json_schema,omitempty"`
}

// InferenceRequest is the wire body of POST /v1/chat/completions
type InferenceRequest struct {
	Model          string             `json:"model"`
	Messages       []InferenceMessage `json:"messages"`
	Temperature    float64            `json:"temperature,omitempty"`
	MaxTokens      int                `json:"max_tokens,omitempty"`
	ResponseFormat *ResponseFormat    `json:"response_format,omitempty"`
}

type InferenceChoice struct {
	Message      InferenceMessage `json:"message"`
	FinishReason string           `json:"finish_reason"`
}

type InferenceUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// InferenceResponse keeps only what the planner reads back: the answer and its token cost
type InferenceResponse struct {
	Model   string            `json:"model"`
	Choices []InferenceChoice `json:"choices"`
	Usage   InferenceUsage    `json:"usage"`
}

// APIError carries the status and a truncated body of a rejected completion
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("inference API error (status %d): %s", e.StatusCode, e.Body)
}

// InferenceOption adjusts one request before it is sent
type InferenceOption func(*InferenceRequest)

// WithTemperature overrides the 0.2 default; the curator runs colder than the reconciler
func WithTemperature(temp float64) InferenceOption {
	return func(req *InferenceRequest) {
		req.Temperature = temp
	}
}

func WithMaxTokens(tokens int) InferenceOption {
	return func(req *InferenceRequest) {
		req.MaxTokens = tokens
	}
}

// WithJSONObject asks for a bare JSON object without a schema
func WithJSONObject() InferenceOption {
	return func(req *InferenceRequest) {
		req.ResponseFormat = &ResponseFormat{Type: ResponseFormatJSON}
	}
}

// WithJSONSchema asks for structured output under the named schema
func WithJSONSchema(name string, schema map[string]interface{}) InferenceOption {
	return func(req *InferenceRequest) {
		req.ResponseFormat = &ResponseFormat{
			Type:       ResponseFormatJSONSchema,
			JSONSchema: &JSONSchema{Name: name, Schema: schema},
		}
	}
}

// ChatCompletion sends messages and returns the decoded answer. A non-2xx status
// yields *APIError, an answer without choices yields ErrNoChoices.
func (c *InferenceClient) ChatCompletion(ctx context.Context, messages []InferenceMessage, options ...InferenceOption) (*InferenceResponse, error) {
	req := InferenceRequest{
		Model:       c.model,
		Messages:    messages,
		Temperature: defaultTemperature,
		MaxTokens:   defaultMaxTokens,
	}
	for _, opt := range options {
		opt(&req)
	}

	resp, err := c.send(ctx, req)
	if err != nil {
		return nil, err
	}
	if len(resp.Choices) == 0 {
		return nil, ErrNoChoices
	}
	return resp, nil
}

// Ask is a single system plus user turn
func (c *InferenceClient) Ask(ctx context.Context, system, user string, options ...InferenceOption) (*InferenceResponse, error) {
	return c.ChatCompletion(ctx, []InferenceMessage{
		{Role: "system", Content: system},
		{Role: "user", Content: user},
	}, options...)
}

func (c *InferenceClient) send(ctx context.Context, req InferenceRequest) (*InferenceResponse, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		if len(raw) > maxErrorBody {
			raw = raw[:maxErrorBody]
		}
		return nil, &APIError{StatusCode: resp.StatusCode, Body: string(raw)}
	}

	var out InferenceResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return &out, nil
}

// ExtractContent returns the first choice's text, empty when there is none
func (r *InferenceResponse) ExtractContent() string {
	if len(r.Choices) == 0 {
		return ""
	}
	return r.Choices[0].Message.Content
}

func (r *InferenceResponse) GetUsage() (prompt, completion, total int) {
	return r.Usage.PromptTokens, r.Usage.CompletionTokens, r.Usage.TotalTokens
}
