package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"

	"phishdetect/internal/credentials"
	"phishdetect/internal/domain"
	"phishdetect/internal/errs"
	"phishdetect/internal/services/gateway"
)

type capturedCall struct {
	path   string
	apiKey string
	body   map[string]any
}

// fakeGemini serves generateContent with a fixed status and body and records
// each request.
func fakeGemini(t *testing.T, status int, reply string) (*httptest.Server, func() []capturedCall) {
	t.Helper()
	var (
		mu    sync.Mutex
		calls []capturedCall
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		var body map[string]any
		_ = json.Unmarshal(raw, &body)
		mu.Lock()
		calls = append(calls, capturedCall{path: r.URL.Path, apiKey: r.Header.Get("x-goog-api-key"), body: body})
		mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, reply)
	}))
	t.Cleanup(srv.Close)
	return srv, func() []capturedCall {
		mu.Lock()
		defer mu.Unlock()
		return append([]capturedCall(nil), calls...)
	}
}

func newGateway(baseURL, key string) *gateway.Service {
	return gateway.New(Factory{BaseURL: baseURL}, credentials.NewSelector(key), gateway.Options{
		ThinkingBudget: 4096,
		Logger:         slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
}

func TestGenerateSendsStructuredRequest(t *testing.T) {
	answer := `{"riskScore":88,"verdict":"DANGEROUS","redFlags":["LOOKALIKE_DOMAIN"],"explanation":"Typosquat.","heuristics":{"linguisticManipulation":2,"linkEntropy":6,"domainMasking":9}}`
	reply, err := json.Marshal(map[string]any{
		"candidates": []any{map[string]any{
			"content": map[string]any{"role": "model", "parts": []any{map[string]any{"text": answer}}},
		}},
	})
	require.NoError(t, err)
	srv, calls := fakeGemini(t, http.StatusOK, string(reply))

	a, err := newGateway(srv.URL, "key-gemini").AnalyzeURL(context.Background(), "paypa1.com")
	require.NoError(t, err)
	assert.Equal(t, domain.VerdictDangerous, a.Verdict)
	assert.Equal(t, 88.0, a.RiskScore)
	assert.Equal(t, []string{"LOOKALIKE_DOMAIN"}, a.RedFlags)

	got := calls()
	require.Len(t, got, 1)
	assert.True(t, strings.HasSuffix(got[0].path, "models/"+DefaultModel+":generateContent"), got[0].path)
	assert.Equal(t, "key-gemini", got[0].apiKey)

	gen, ok := got[0].body["generationConfig"].(map[string]any)
	require.True(t, ok, "generationConfig missing: %v", got[0].body)
	assert.Equal(t, "application/json", gen["responseMimeType"])
	thinking, ok := gen["thinkingConfig"].(map[string]any)
	require.True(t, ok)
	assert.EqualValues(t, 4096, thinking["thinkingBudget"])
	schema, ok := gen["responseSchema"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "OBJECT", schema["type"])
	assert.Contains(t, schema["properties"], "heuristics")
}

func TestGenerateNotFoundRequiresCredential(t *testing.T) {
	srv, calls := fakeGemini(t, http.StatusNotFound,
		`{"error":{"code":404,"message":"Requested entity was not found.","status":"NOT_FOUND"}}`)

	_, err := newGateway(srv.URL, "key-stale").AnalyzeEmail(context.Background(), "Your parcel is waiting, pay the fee")
	assert.ErrorIs(t, err, errs.ErrAuthenticationRequired)
	assert.NotEmpty(t, calls())
}

func TestGenerateServerErrorIsTransport(t *testing.T) {
	srv, _ := fakeGemini(t, http.StatusInternalServerError,
		`{"error":{"code":500,"message":"backend error","status":"INTERNAL"}}`)

	_, err := newGateway(srv.URL, "key-1").AnalyzeAPIPayload(context.Background(), "{}")
	assert.ErrorIs(t, err, errs.ErrTransport)
}

func TestToSchema(t *testing.T) {
	s := toSchema(gateway.ResponseSchema)
	require.NotNil(t, s)

	assert.Equal(t, genai.TypeObject, s.Type)
	assert.ElementsMatch(t, []string{"riskScore", "verdict", "redFlags", "explanation", "heuristics"}, s.Required)
	assert.Equal(t, genai.TypeNumber, s.Properties["riskScore"].Type)
	assert.Equal(t, genai.TypeArray, s.Properties["redFlags"].Type)
	assert.Equal(t, genai.TypeString, s.Properties["redFlags"].Items.Type)
	assert.Contains(t, s.Properties["verdict"].Description, "SAFE, SUSPICIOUS, DANGEROUS")

	h := s.Properties["heuristics"]
	assert.Equal(t, genai.TypeObject, h.Type)
	assert.Len(t, h.Properties, 3)
	assert.Equal(t, genai.TypeNumber, h.Properties["domainMasking"].Type)

	assert.Nil(t, toSchema(nil))
}

func TestStatusError(t *testing.T) {
	wrapped := fmt.Errorf("call: %w", genai.APIError{Code: 404, Status: "NOT_FOUND", Message: "Requested entity was not found."})

	var se *errs.StatusError
	require.True(t, errors.As(statusError(wrapped), &se))
	assert.Equal(t, 404, se.Code)
	assert.Equal(t, "NOT_FOUND", se.Status)
	assert.True(t, se.CredentialRejected())

	plain := errors.New("connection reset")
	assert.Same(t, plain, statusError(plain))
}
