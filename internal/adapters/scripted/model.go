// Package scripted is a model adapter that answers from a script instead of a
// hosted service. It backs the offline demo provider and the tests.
package scripted

import (
	"context"
	"sync"

	"phishdetect/internal/ports"
)

// OfflineAnswer is returned by the offline demo provider for every artifact.
const OfflineAnswer = `{"riskScore":50,"verdict":"SUSPICIOUS","redFlags":["OFFLINE_MODE"],"explanation":"The analysis gateway is running in offline demo mode; no model was consulted.","heuristics":{"linguisticManipulation":5,"linkEntropy":5,"domainMasking":5}}`

// Responder produces the model answer for one request.
type Responder func(ctx context.Context, apiKey string, req ports.GenerateRequest) (string, error)

// Factory hands out models that share one Responder. With Record set it keeps
// every client built and every request made.
type Factory struct {
	Respond Responder
	// NewErr, when set, fails client construction.
	NewErr error
	Record bool

	mu       sync.Mutex
	keys     []string
	requests []ports.GenerateRequest
}

var _ ports.ModelFactory = (*Factory)(nil)

func answer(text string) Responder {
	return func(context.Context, string, ports.GenerateRequest) (string, error) {
		return text, nil
	}
}

// Offline returns the non-recording factory behind the offline demo provider.
func Offline() *Factory {
	return &Factory{Respond: answer(OfflineAnswer)}
}

// Fixed returns a recording factory that answers every request with text.
func Fixed(text string) *Factory {
	return &Factory{Respond: answer(text), Record: true}
}

// Failing returns a recording factory whose models always fail with err.
func Failing(err error) *Factory {
	return &Factory{Respond: func(context.Context, string, ports.GenerateRequest) (string, error) {
		return "", err
	}, Record: true}
}

func (f *Factory) NewModel(_ context.Context, apiKey string) (ports.Model, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Record {
		f.keys = append(f.keys, apiKey)
	}
	if f.NewErr != nil {
		return nil, f.NewErr
	}
	return &model{factory: f, apiKey: apiKey}, nil
}

// Clients returns the API keys of every client built so far.
func (f *Factory) Clients() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.keys...)
}

// Requests returns every request made so far.
func (f *Factory) Requests() []ports.GenerateRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]ports.GenerateRequest(nil), f.requests...)
}

type model struct {
	factory *Factory
	apiKey  string
}

func (m *model) Generate(ctx context.Context, req ports.GenerateRequest) (string, error) {
	m.factory.mu.Lock()
	if m.factory.Record {
		m.factory.requests = append(m.factory.requests, req)
	}
	respond := m.factory.Respond
	m.factory.mu.Unlock()
	if respond == nil {
		return "", nil
	}
	return respond(ctx, m.apiKey, req)
}
