package httpadapter

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"phishdetect/internal/adapters/memory"
	"phishdetect/internal/adapters/scripted"
	"phishdetect/internal/credentials"
	"phishdetect/internal/domain"
	"phishdetect/internal/errs"
	"phishdetect/internal/metrics"
	"phishdetect/internal/ports"
	"phishdetect/internal/services/console"
	"phishdetect/internal/services/gateway"
	"phishdetect/internal/services/store"
	"phishdetect/internal/workers/analysisrunner"
)

const dangerousAnswer = `{"riskScore":92,"verdict":"DANGEROUS","redFlags":["CREDENTIAL_HARVEST"],"explanation":"Fake login page.","heuristics":{"linguisticManipulation":8,"linkEntropy":7,"domainMasking":9}}`

type testServer struct {
	*httptest.Server
	store   *store.Store
	creds   *credentials.Selector
	factory *scripted.Factory
	runner  *analysisrunner.Runner
}

func newTestServer(t *testing.T, f *scripted.Factory, opts Options) *testServer {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	m := metrics.New()
	st, err := store.Open(context.Background(), memory.NewSlots(), memory.NewSlots(), store.Options{Logger: logger, Metrics: m})
	require.NoError(t, err)
	creds := credentials.NewSelector("sk-test-1234")
	gw := gateway.New(f, creds, gateway.Options{Logger: logger, Metrics: m})
	c := console.New(gw, st, logger)
	runner := &analysisrunner.Runner{Repo: memory.NewJobs(), Processor: c, Logger: logger, Metrics: m}

	opts.Logger = logger
	opts.Metrics = m
	srv := httptest.NewServer(New(c, st, runner, creds, opts).Routes())
	t.Cleanup(srv.Close)
	return &testServer{Server: srv, store: st, creds: creds, factory: f, runner: runner}
}

func (ts *testServer) do(t *testing.T, method, path, body string) (*http.Response, []byte) {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, ts.URL+path, r)
	require.NoError(t, err)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := ts.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, data
}

func (ts *testServer) login(t *testing.T) {
	t.Helper()
	resp, body := ts.do(t, http.MethodPost, "/v1/session/login", `{"email":"analyst@corp.io","passphrase":"admin123"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
}

func decode[T any](t *testing.T, data []byte) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(data, &v), string(data))
	return v
}

func TestHealthzAndMetrics(t *testing.T) {
	ts := newTestServer(t, scripted.Fixed(dangerousAnswer), Options{})

	resp, body := ts.do(t, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"status":"ok"}`, string(body))

	ts.do(t, http.MethodPost, "/v1/analyze/url", `{"content":"login.examp1e.com"}`)
	resp, body = ts.do(t, http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "phishdetect_gateway_requests_total")
}

func TestAnalyzeRecordsScan(t *testing.T) {
	ts := newTestServer(t, scripted.Fixed(dangerousAnswer), Options{})

	_, body := ts.do(t, http.MethodGet, "/v1/scans", "")
	assert.JSONEq(t, `[]`, string(body))

	resp, body := ts.do(t, http.MethodPost, "/v1/analyze/email", `{"content":"Your mailbox is full, click here to verify"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))

	scan := decode[domain.ScanResult](t, body)
	assert.NotEmpty(t, scan.ID)
	assert.Equal(t, domain.ScanEmail, scan.Type)
	assert.Equal(t, domain.VerdictDangerous, scan.Verdict)
	assert.Equal(t, []string{"CREDENTIAL_HARVEST"}, scan.RedFlags)

	resp, body = ts.do(t, http.MethodGet, "/v1/scans", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	scans := decode[[]domain.ScanResult](t, body)
	require.Len(t, scans, 1)
	assert.Equal(t, scan.ID, scans[0].ID)

	resp, _ = ts.do(t, http.MethodGet, "/v1/scans/"+scan.ID, "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestAnalyzeErrors(t *testing.T) {
	tests := []struct {
		name    string
		factory *scripted.Factory
		path    string
		body    string
		status  int
		code    string
	}{
		{"short email", scripted.Fixed(dangerousAnswer), "/v1/analyze/email", `{"content":"hi"}`, http.StatusBadRequest, "invalid_input"},
		{"unknown kind", scripted.Fixed(dangerousAnswer), "/v1/analyze/sms", `{}`, http.StatusNotFound, "not_found"},
		{"bad json", scripted.Fixed(dangerousAnswer), "/v1/analyze/api", `{`, http.StatusBadRequest, "invalid_input"},
		{"bad wait", scripted.Fixed(dangerousAnswer), "/v1/analyze/api?wait=maybe", `{}`, http.StatusBadRequest, "invalid_input"},
		{"rejected key", scripted.Failing(&errs.StatusError{Code: 403, Status: "PERMISSION_DENIED"}), "/v1/analyze/api", `{}`, http.StatusUnauthorized, "credential_required"},
		{"empty payload", scripted.Fixed(""), "/v1/analyze/file", `{}`, http.StatusBadGateway, "empty_response"},
		{"malformed payload", scripted.Fixed("not json"), "/v1/analyze/url", `{"content":"a.io"}`, http.StatusBadGateway, "malformed_response"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := newTestServer(t, tt.factory, Options{})
			resp, body := ts.do(t, http.MethodPost, tt.path, tt.body)
			assert.Equal(t, tt.status, resp.StatusCode, string(body))
			assert.Equal(t, tt.code, decode[problem](t, body).Code)
			assert.Empty(t, ts.store.Scans())
		})
	}
}

func TestAnalyzeWithoutKeyAsksForCredential(t *testing.T) {
	ts := newTestServer(t, scripted.Fixed(dangerousAnswer), Options{})
	ts.creds.Select("")

	resp, body := ts.do(t, http.MethodPost, "/v1/analyze/api", `{}`)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "credential_required", decode[problem](t, body).Code)
	assert.Empty(t, ts.factory.Clients())

	ts.login(t)
	resp, body = ts.do(t, http.MethodPut, "/v1/credentials", `{"apiKey":"sk-new-key-9876"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"configured":true,"masked":"••••••••9876"}`, string(body))

	resp, _ = ts.do(t, http.MethodPost, "/v1/analyze/api", `{}`)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, []string{"sk-new-key-9876"}, ts.factory.Clients())
}

func TestAnalyzeAsync(t *testing.T) {
	ts := newTestServer(t, scripted.Fixed(dangerousAnswer), Options{})

	resp, body := ts.do(t, http.MethodPost, "/v1/analyze/url?wait=false", `{"content":"paypa1.com"}`)
	require.Equal(t, http.StatusAccepted, resp.StatusCode)
	accepted := decode[jobAccepted](t, body)
	assert.Equal(t, "/v1/jobs/"+accepted.JobID, resp.Header.Get("Location"))

	resp, body = ts.do(t, http.MethodGet, "/v1/jobs/"+accepted.JobID, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	job := decode[ports.AnalysisJob](t, body)
	assert.Equal(t, ports.JobQueued, job.Status)
	assert.Equal(t, domain.ScanURL, job.Type)

	resp, _ = ts.do(t, http.MethodGet, "/v1/jobs/nope", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestAnalyzeInlineWithWorkersRunning(t *testing.T) {
	ts := newTestServer(t, scripted.Fixed(dangerousAnswer), Options{})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	ts.runner.Run(ctx, 2, time.Millisecond)

	const n = 30
	statuses := make(chan int, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			resp, err := ts.Client().Post(ts.URL+"/v1/analyze/url", "application/json", strings.NewReader(`{"content":"paypa1-login.com"}`))
			if err != nil {
				statuses <- 0
				return
			}
			resp.Body.Close()
			statuses <- resp.StatusCode
		}()
	}
	wg.Wait()
	close(statuses)
	for code := range statuses {
		assert.Equal(t, http.StatusOK, code)
	}
	assert.Len(t, ts.store.Scans(), n)
}

func TestAnalyzeRateLimit(t *testing.T) {
	ts := newTestServer(t, scripted.Fixed(dangerousAnswer), Options{AnalyzeRPS: 0.001, AnalyzeBurst: 1})

	resp, _ := ts.do(t, http.MethodPost, "/v1/analyze/api", `{}`)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp, body := ts.do(t, http.MethodPost, "/v1/analyze/api", `{}`)
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	assert.Equal(t, "rate_limited", decode[problem](t, body).Code)

	resp, _ = ts.do(t, http.MethodGet, "/v1/scans", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestSessionAndProfile(t *testing.T) {
	ts := newTestServer(t, scripted.Fixed(dangerousAnswer), Options{})

	resp, body := ts.do(t, http.MethodGet, "/v1/profile", "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "session_required", decode[problem](t, body).Code)

	resp, _ = ts.do(t, http.MethodPost, "/v1/session/login", `{"email":"analyst@corp.io","passphrase":"wrong"}`)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, body = ts.do(t, http.MethodPost, "/v1/session/login", `{"email":"analyst@corp.io","passphrase":"admin123"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	sess := decode[domain.Session](t, body)
	assert.True(t, sess.Authenticated)
	assert.Equal(t, "analyst@corp.io", sess.User.Email)

	ts.do(t, http.MethodPost, "/v1/analyze/api", `{}`)

	resp, body = ts.do(t, http.MethodGet, "/v1/profile", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	p := decode[console.Profile](t, body)
	assert.Len(t, p.Scans, 1)
	assert.Equal(t, 85, p.SafetyRating)

	resp, body = ts.do(t, http.MethodGet, "/v1/dashboard", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 90, decode[console.Dashboard](t, body).SecurityScore)

	resp, _ = ts.do(t, http.MethodPost, "/v1/session/logout", "")
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	_, body = ts.do(t, http.MethodGet, "/v1/session", "")
	assert.False(t, decode[domain.Session](t, body).Authenticated)
}

func TestAdminRoutesRequireSession(t *testing.T) {
	ts := newTestServer(t, scripted.Fixed(dangerousAnswer), Options{})

	admin := []struct{ method, path, body string }{
		{http.MethodGet, "/v1/dashboard", ""},
		{http.MethodGet, "/v1/profile", ""},
		{http.MethodPost, "/v1/posts", `{"title":"x"}`},
		{http.MethodDelete, "/v1/posts/1", ""},
		{http.MethodGet, "/v1/messages", ""},
		{http.MethodDelete, "/v1/messages/1", ""},
		{http.MethodPost, "/v1/messages/1/read", ""},
		{http.MethodPatch, "/v1/settings", `{"theme":"dark"}`},
		{http.MethodGet, "/v1/credentials", ""},
		{http.MethodPut, "/v1/credentials", `{"apiKey":"sk-stolen"}`},
	}
	for _, rt := range admin {
		resp, body := ts.do(t, rt.method, rt.path, rt.body)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode, rt.method+" "+rt.path)
		assert.Equal(t, "session_required", decode[problem](t, body).Code)
	}
	assert.Len(t, ts.store.Posts(), 2)
	assert.Equal(t, domain.ThemeLight, ts.store.Settings().Theme)
	assert.Equal(t, "••••••••1234", ts.creds.Masked())

	public := []struct{ method, path, body string }{
		{http.MethodGet, "/v1/posts", ""},
		{http.MethodGet, "/v1/settings", ""},
		{http.MethodGet, "/v1/scans", ""},
		{http.MethodGet, "/v1/session", ""},
	}
	for _, rt := range public {
		resp, _ := ts.do(t, rt.method, rt.path, rt.body)
		assert.Equal(t, http.StatusOK, resp.StatusCode, rt.method+" "+rt.path)
	}
	resp, _ := ts.do(t, http.MethodPost, "/v1/messages", `{"name":"Ada","email":"ada@corp.io","subject":"Hi","message":"Call me."}`)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	ts.login(t)
	resp, _ = ts.do(t, http.MethodGet, "/v1/dashboard", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestPostsAndMessages(t *testing.T) {
	ts := newTestServer(t, scripted.Fixed(dangerousAnswer), Options{})
	ts.login(t)

	resp, body := ts.do(t, http.MethodPost, "/v1/posts", `{"title":"QR code phishing","excerpt":"Quishing is back."}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	post := decode[domain.BlogPost](t, body)
	assert.NotEmpty(t, post.ID)

	_, body = ts.do(t, http.MethodGet, "/v1/posts", "")
	assert.Len(t, decode[[]domain.BlogPost](t, body), 3)

	resp, _ = ts.do(t, http.MethodDelete, "/v1/posts/"+post.ID, "")
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	resp, _ = ts.do(t, http.MethodGet, "/v1/posts/"+post.ID, "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, body = ts.do(t, http.MethodPost, "/v1/messages", `{"name":"Ada","email":"ada@corp.io","subject":"Demo","message":"Please call me."}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	msg := decode[domain.ContactMessage](t, body)
	assert.False(t, msg.IsRead)

	resp, _ = ts.do(t, http.MethodPost, "/v1/messages/"+msg.ID+"/read", "")
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	_, body = ts.do(t, http.MethodGet, "/v1/messages", "")
	msgs := decode[[]domain.ContactMessage](t, body)
	require.Len(t, msgs, 1)
	assert.True(t, msgs[0].IsRead)

	resp, _ = ts.do(t, http.MethodDelete, "/v1/messages/"+msg.ID, "")
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	resp, _ = ts.do(t, http.MethodDelete, "/v1/messages/"+msg.ID, "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestSettingsPatch(t *testing.T) {
	ts := newTestServer(t, scripted.Fixed(dangerousAnswer), Options{})
	ts.login(t)

	resp, body := ts.do(t, http.MethodPatch, "/v1/settings", `{"theme":"dark"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	s := decode[domain.SiteSettings](t, body)
	assert.Equal(t, domain.ThemeDark, s.Theme)
	assert.Equal(t, "PhishDetect AI", s.SiteName)

	resp, _ = ts.do(t, http.MethodPatch, "/v1/settings", `{"theme":"sepia"}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestTestVector(t *testing.T) {
	ts := newTestServer(t, scripted.Fixed(dangerousAnswer), Options{})

	resp, body := ts.do(t, http.MethodPost, "/v1/scans/test-vector", "")
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	scan := decode[domain.ScanResult](t, body)
	assert.True(t, scan.Verdict.Valid())
	assert.Empty(t, ts.factory.Requests())
}
