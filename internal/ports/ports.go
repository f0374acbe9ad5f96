package ports

import (
	"context"

	"phishdetect/internal/domain"
)

// Analyzer is the analysis gateway: one operation per artifact category.
type Analyzer interface {
	AnalyzeEmail(ctx context.Context, body string) (domain.Analysis, error)
	AnalyzeURL(ctx context.Context, url string) (domain.Analysis, error)
	AnalyzeSandboxArtifact(ctx context.Context, fileName, syscallLog string) (domain.Analysis, error)
	AnalyzeAPIPayload(ctx context.Context, payload string) (domain.Analysis, error)
}

// Model is a single-use client for the hosted generative model.
type Model interface {
	// Generate returns the raw text payload of the model's answer.
	Generate(ctx context.Context, req GenerateRequest) (string, error)
}

// ModelFactory builds a Model bound to one API key. The gateway asks for a
// new Model on every call so that a freshly selected key is always used.
type ModelFactory interface {
	NewModel(ctx context.Context, apiKey string) (Model, error)
}

// KeySource returns the currently selected model API key.
type KeySource interface {
	APIKey() string
}

type GenerateRequest struct {
	Prompt           string
	ResponseMIMEType string
	ResponseSchema   *Schema
	// ThinkingBudget is the token allowance for deliberation before the
	// structured answer. Zero leaves the provider default.
	ThinkingBudget int32
}

type SchemaType string

const (
	SchemaObject SchemaType = "object"
	SchemaString SchemaType = "string"
	SchemaNumber SchemaType = "number"
	SchemaArray  SchemaType = "array"
)

// Schema is a provider-neutral description of the requested response shape.
type Schema struct {
	Type        SchemaType
	Description string
	Properties  map[string]*Schema
	Items       *Schema
	Required    []string
}
