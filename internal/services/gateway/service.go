// Package gateway is the single integration point with the hosted model that
// produces phishing verdicts. Each operation builds a category-specific
// instruction, sends it with a response schema, and normalizes the answer.
//
// Calls are independent round trips: no retry, no caching, no deduplication
// and no timeout beyond the caller's context. A new model client is built on
// every call from the currently selected API key.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"golang.org/x/net/publicsuffix"

	"phishdetect/internal/domain"
	"phishdetect/internal/errs"
	"phishdetect/internal/metrics"
	"phishdetect/internal/ports"
	"phishdetect/internal/services/normalize"
)

// DefaultThinkingBudget lets the model reason before emitting the JSON answer.
const DefaultThinkingBudget int32 = 4096

// legacyNotFound is the message the hosted service returns when the selected
// key's project cannot see the model.
const legacyNotFound = "Requested entity was not found"

type Options struct {
	ThinkingBudget int32
	Logger         *slog.Logger
	Metrics        *metrics.Metrics
}

type Service struct {
	factory        ports.ModelFactory
	keys           ports.KeySource
	thinkingBudget int32
	logger         *slog.Logger
	metrics        *metrics.Metrics
}

var _ ports.Analyzer = (*Service)(nil)

func New(factory ports.ModelFactory, keys ports.KeySource, opts Options) *Service {
	if opts.ThinkingBudget == 0 {
		opts.ThinkingBudget = DefaultThinkingBudget
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Service{
		factory:        factory,
		keys:           keys,
		thinkingBudget: opts.ThinkingBudget,
		logger:         opts.Logger,
		metrics:        opts.Metrics,
	}
}

func (s *Service) AnalyzeEmail(ctx context.Context, body string) (domain.Analysis, error) {
	prompt := fmt.Sprintf(`PERFORM DEEP LINGUISTIC FORENSICS: Analyze this email for social engineering patterns, BEC intent, and credential harvesting lures. Email Body: "%s"`, body)
	return s.generate(ctx, domain.ScanEmail, prompt)
}

func (s *Service) AnalyzeURL(ctx context.Context, rawurl string) (domain.Analysis, error) {
	prompt := fmt.Sprintf(`PERFORM DOMAIN REPUTATION SCAN: Analyze this URL for punycode spoofing, high-entropy random strings, and suspicious TLD patterns. URL: "%s"`, rawurl)
	if reg := registrableDomain(rawurl); reg != "" {
		prompt += fmt.Sprintf(` Registrable domain: "%s"`, reg)
	}
	return s.generate(ctx, domain.ScanURL, prompt)
}

func (s *Service) AnalyzeSandboxArtifact(ctx context.Context, fileName, syscallLog string) (domain.Analysis, error) {
	prompt := fmt.Sprintf(`PERFORM VIRTUAL SANDBOX ANALYSIS: Analyze file metadata and simulated system call logs for indicators of malicious intent. File: %s, Logs: %s`, fileName, syscallLog)
	return s.generate(ctx, domain.ScanFile, prompt)
}

func (s *Service) AnalyzeAPIPayload(ctx context.Context, payload string) (domain.Analysis, error) {
	prompt := fmt.Sprintf(`PERFORM API SECURITY INSPECTION: Inspect this JSON payload for script injection or unauthorized data extraction markers. Payload: "%s"`, payload)
	return s.generate(ctx, domain.ScanAPI, prompt)
}

func (s *Service) generate(ctx context.Context, t domain.ScanType, prompt string) (domain.Analysis, error) {
	op := "gateway.Analyze" + string(t)
	start := time.Now()
	a, err := s.call(ctx, op, prompt)
	outcome := "ok"
	if err != nil {
		outcome = errs.GetKind(err).String()
		s.logger.Error("analysis request failed", "type", t, "kind", outcome, "error", err)
	} else {
		s.logger.Info("analysis completed", "type", t, "verdict", a.Verdict, "risk_score", a.RiskScore, "took", time.Since(start))
	}
	s.metrics.ObserveGateway(string(t), outcome, time.Since(start))
	return a, err
}

func (s *Service) call(ctx context.Context, op, prompt string) (domain.Analysis, error) {
	key := s.keys.APIKey()
	if key == "" {
		return domain.Analysis{}, errs.E(errs.KindAuthentication, op, "no model API key selected")
	}
	model, err := s.factory.NewModel(ctx, key)
	if err != nil {
		return domain.Analysis{}, classify(op, err)
	}
	text, err := model.Generate(ctx, ports.GenerateRequest{
		Prompt:           prompt,
		ResponseMIMEType: "application/json",
		ResponseSchema:   ResponseSchema,
		ThinkingBudget:   s.thinkingBudget,
	})
	if err != nil {
		return domain.Analysis{}, classify(op, err)
	}
	if strings.TrimSpace(text) == "" {
		return domain.Analysis{}, errs.E(errs.KindEmptyResponse, op, "model returned an empty payload")
	}
	a, err := normalize.Decode(text)
	if err != nil {
		return domain.Analysis{}, errs.E(errs.KindMalformedResponse, op, "could not decode model payload", err)
	}
	return a, nil
}

// classify maps an adapter error onto the gateway taxonomy. A structured
// status is preferred; the message match covers providers that only report
// the rejection as text.
func classify(op string, err error) error {
	if k := errs.GetKind(err); k != errs.KindUnknown {
		return err
	}
	var se *errs.StatusError
	if errors.As(err, &se) && se.CredentialRejected() {
		return errs.E(errs.KindAuthentication, op, "model service rejected the selected API key", err)
	}
	if strings.Contains(err.Error(), legacyNotFound) {
		return errs.E(errs.KindAuthentication, op, "model service rejected the selected API key", err)
	}
	return errs.E(errs.KindTransport, op, "model call failed", err)
}

func registrableDomain(rawurl string) string {
	raw := strings.TrimSpace(rawurl)
	if !strings.Contains(raw, "://") {
		raw = "http://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil || u.Hostname() == "" {
		return ""
	}
	reg, err := publicsuffix.EffectiveTLDPlusOne(strings.ToLower(u.Hostname()))
	if err != nil {
		return ""
	}
	return reg
}
