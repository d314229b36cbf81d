package services

import (
	"context"
	"errors"

	"github.com/sahilchouksey/course-week-planner/services/digitalocean"
	"github.com/sahilchouksey/course-week-planner/utils"
)

// ErrModelUnavailable is returned when no generative model is configured
var ErrModelUnavailable = errors.New("generative model unavailable")

// Prompt is a single completion request: instructions, task input and the JSON schema
// the answer is asked to follow. The answer is never trusted to follow it.
type Prompt struct {
	System     string
	User       string
	SchemaName string
	Schema     map[string]interface{}

	// Temperature and MaxTokens override the client defaults when positive
	Temperature float64
	MaxTokens   int
}

// Completer sends a prompt to a generative model and returns its raw answer
type Completer interface {
	Complete(ctx context.Context, prompt Prompt) (string, error)
	// Model names the model recorded on generated rows
	Model() string
}

// InferenceCompleter adapts the DigitalOcean inference client to Completer
type InferenceCompleter struct {
	client *digitalocean.InferenceClient
	log    *utils.Logger
}

// NewInferenceCompleter wraps client
func NewInferenceCompleter(client *digitalocean.InferenceClient, log *utils.Logger) *InferenceCompleter {
	if log == nil {
		log = utils.NewNopLogger()
	}
	return &InferenceCompleter{client: client, log: log.With("component", "inference")}
}

const jsonOnlyInstruction = "\n\nYou MUST respond with valid JSON only. Do not include any markdown formatting, code blocks, or explanatory text."

// Complete uses structured output when the prompt carries a schema, JSON mode otherwise
func (c *InferenceCompleter) Complete(ctx context.Context, prompt Prompt) (string, error) {
	resp, err := c.client.Ask(ctx, systemFor(prompt), prompt.User, requestOptions(prompt)...)
	if err != nil {
		c.log.Debug("completion failed", "schema", prompt.SchemaName, "error", err)
		return "", err
	}
	out := resp.ExtractContent()
	promptTokens, completionTokens, totalTokens := resp.GetUsage()
	c.log.Debug("completion received",
		"schema", prompt.SchemaName,
		"chars", len(out),
		"usage_prompt", promptTokens,
		"usage_completion", completionTokens,
		"usage_total", totalTokens,
	)
	return out, nil
}

func systemFor(prompt Prompt) string {
	if prompt.Schema != nil {
		return prompt.System
	}
	return prompt.System + jsonOnlyInstruction
}

func requestOptions(prompt Prompt) []digitalocean.InferenceOption {
	var opts []digitalocean.InferenceOption
	if prompt.Schema != nil {
		opts = append(opts, digitalocean.WithJSONSchema(prompt.SchemaName, prompt.Schema))
	} else {
		opts = append(opts, digitalocean.WithJSONObject())
	}
	if prompt.Temperature > 0 {
		opts = append(opts, digitalocean.WithTemperature(prompt.Temperature))
	}
	if prompt.MaxTokens > 0 {
		opts = append(opts, digitalocean.WithMaxTokens(prompt.MaxTokens))
	}
	return opts
}

// Model returns the configured model name
func (c *InferenceCompleter) Model() string {
	return c.client.Model()
}
