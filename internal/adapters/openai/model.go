// Package openai implements the model ports on any OpenAI-compatible
// chat completions endpoint.
package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"phishdetect/internal/errs"
	"phishdetect/internal/ports"
)

const (
	DefaultBaseURL = "https://api.openai.com/v1"
	DefaultModel   = "gpt-4o-mini"
)

type chatRequest struct {
	Model           string          `json:"model"`
	Messages        []message       `json:"messages"`
	ResponseFormat  *responseFormat `json:"response_format,omitempty"`
	ReasoningEffort string          `json:"reasoning_effort,omitempty"`
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type responseFormat struct {
	Type       string      `json:"type"`
	JSONSchema *jsonSchema `json:"json_schema,omitempty"`
}

type jsonSchema struct {
	Name   string         `json:"name"`
	Strict bool           `json:"strict"`
	Schema map[string]any `json:"schema"`
}

type chatResponse struct {
	Choices []struct {
		Message message `json:"message"`
	} `json:"choices"`
}

type apiError struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Code    any    `json:"code"`
	} `json:"error"`
}

// Factory builds a Model per call. A nil HTTPClient uses http.DefaultClient;
// the caller's context bounds every request.
type Factory struct {
	BaseURL    string
	Model      string
	HTTPClient *http.Client
}

var _ ports.ModelFactory = Factory{}

func (f Factory) NewModel(_ context.Context, apiKey string) (ports.Model, error) {
	m := &Model{
		baseURL: strings.TrimRight(f.BaseURL, "/"),
		model:   f.Model,
		apiKey:  apiKey,
		client:  f.HTTPClient,
	}
	if m.baseURL == "" {
		m.baseURL = DefaultBaseURL
	}
	if m.model == "" {
		m.model = DefaultModel
	}
	if m.client == nil {
		m.client = http.DefaultClient
	}
	return m, nil
}

type Model struct {
	baseURL string
	model   string
	apiKey  string
	client  *http.Client
}

func (m *Model) Generate(ctx context.Context, req ports.GenerateRequest) (string, error) {
	body := chatRequest{
		Model:    m.model,
		Messages: []message{{Role: "user", Content: req.Prompt}},
	}
	if req.ResponseSchema != nil {
		body.ResponseFormat = &responseFormat{
			Type: "json_schema",
			JSONSchema: &jsonSchema{
				Name:   "analysis",
				Strict: true,
				Schema: toJSONSchema(req.ResponseSchema),
			},
		}
	} else if req.ResponseMIMEType == "application/json" {
		body.ResponseFormat = &responseFormat{Type: "json_object"}
	}
	if req.ThinkingBudget > 0 {
		body.ReasoningEffort = reasoningEffort(req.ThinkingBudget)
	}

	data, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("openai: marshal request: %w", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, m.baseURL+"/chat/completions", bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("openai: create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+m.apiKey)

	resp, err := m.client.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("openai: request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("openai: read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		se := &errs.StatusError{Code: resp.StatusCode, Message: strings.TrimSpace(string(raw))}
		var apiErr apiError
		if json.Unmarshal(raw, &apiErr) == nil && apiErr.Error.Message != "" {
			se.Message = apiErr.Error.Message
			se.Status = strings.ToUpper(apiErr.Error.Type)
		}
		return "", se
	}

	var out chatResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return "", fmt.Errorf("openai: decode response: %w", err)
	}
	if len(out.Choices) == 0 {
		return "", nil
	}
	return out.Choices[0].Message.Content, nil
}

// reasoningEffort buckets a token budget into the effort levels the chat
// completions API accepts.
func reasoningEffort(budget int32) string {
	switch {
	case budget < 2048:
		return "low"
	case budget < 8192:
		return "medium"
	default:
		return "high"
	}
}

// toJSONSchema renders a schema in the strict JSON Schema subset, which
// requires additionalProperties false on every object.
func toJSONSchema(s *ports.Schema) map[string]any {
	out := map[string]any{"type": string(s.Type)}
	if s.Description != "" {
		out["description"] = s.Description
	}
	if s.Items != nil {
		out["items"] = toJSONSchema(s.Items)
	}
	if s.Type == ports.SchemaObject {
		props := make(map[string]any, len(s.Properties))
		for name, p := range s.Properties {
			props[name] = toJSONSchema(p)
		}
		out["properties"] = props
		out["additionalProperties"] = false
		required := s.Required
		if required == nil {
			required = []string{}
		}
		out["required"] = required
	}
	return out
}
