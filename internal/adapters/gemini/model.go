// Package gemini implements the model ports on the Gemini API.
package gemini

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/genai"

	"phishdetect/internal/errs"
	"phishdetect/internal/ports"
)

const DefaultModel = "gemini-3-pro-preview"

// Factory builds one genai client per call so that the selected key is read
// fresh every time.
type Factory struct {
	Model string
	// BaseURL overrides the API endpoint. Empty uses the SDK default.
	BaseURL string
}

var _ ports.ModelFactory = Factory{}

func (f Factory) NewModel(ctx context.Context, apiKey string) (ports.Model, error) {
	cfg := &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	}
	if f.BaseURL != "" {
		cfg.HTTPOptions = genai.HTTPOptions{BaseURL: f.BaseURL}
	}
	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("gemini: new client: %w", statusError(err))
	}
	model := f.Model
	if model == "" {
		model = DefaultModel
	}
	return &Model{client: client, model: model}, nil
}

type Model struct {
	client *genai.Client
	model  string
}

func (m *Model) Generate(ctx context.Context, req ports.GenerateRequest) (string, error) {
	cfg := &genai.GenerateContentConfig{
		ResponseMIMEType: req.ResponseMIMEType,
		ResponseSchema:   toSchema(req.ResponseSchema),
	}
	if req.ThinkingBudget > 0 {
		cfg.ThinkingConfig = &genai.ThinkingConfig{ThinkingBudget: genai.Ptr(req.ThinkingBudget)}
	}
	resp, err := m.client.Models.GenerateContent(ctx, m.model, genai.Text(req.Prompt), cfg)
	if err != nil {
		return "", fmt.Errorf("gemini: generate content: %w", statusError(err))
	}
	return resp.Text(), nil
}

func toSchema(s *ports.Schema) *genai.Schema {
	if s == nil {
		return nil
	}
	out := &genai.Schema{
		Type:        schemaTypes[s.Type],
		Description: s.Description,
		Items:       toSchema(s.Items),
		Required:    s.Required,
	}
	if len(s.Properties) > 0 {
		out.Properties = make(map[string]*genai.Schema, len(s.Properties))
		for name, p := range s.Properties {
			out.Properties[name] = toSchema(p)
		}
	}
	return out
}

var schemaTypes = map[ports.SchemaType]genai.Type{
	ports.SchemaObject: genai.TypeObject,
	ports.SchemaString: genai.TypeString,
	ports.SchemaNumber: genai.TypeNumber,
	ports.SchemaArray:  genai.TypeArray,
}

// statusError lifts the SDK's API error into an *errs.StatusError so the
// gateway can recognize rejected credentials.
func statusError(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return &errs.StatusError{Code: apiErr.Code, Status: apiErr.Status, Message: apiErr.Message}
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) && apiErrPtr != nil {
		return &errs.StatusError{Code: apiErrPtr.Code, Status: apiErrPtr.Status, Message: apiErrPtr.Message}
	}
	return err
}
