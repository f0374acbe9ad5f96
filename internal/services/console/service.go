// Package console implements the demo console: it validates an artifact,
// asks the gateway for a verdict and records successful analyses in the
// store. A failed analysis records nothing.
package console

import (
	"context"
	"log/slog"
	"math/rand/v2"
	"strings"

	"phishdetect/internal/domain"
	"phishdetect/internal/errs"
	"phishdetect/internal/ports"
	"phishdetect/internal/services/store"
)

const (
	MinEmailLength = 10

	DefaultSandboxFile = "suspicious_binary.exe"
	DefaultSandboxLog  = "Syscalls: SocketOpen, RegWrite, NetworkScan"
	DefaultAPIPayload  = `{"action": "remote_handshake", "target": "internal_relay"}`
)

type Service struct {
	analyzer ports.Analyzer
	store    *store.Store
	logger   *slog.Logger
}

func New(analyzer ports.Analyzer, st *store.Store, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{analyzer: analyzer, store: st, logger: logger}
}

func (s *Service) AnalyzeEmail(ctx context.Context, body string) (domain.ScanResult, error) {
	if len(strings.TrimSpace(body)) < MinEmailLength {
		return domain.ScanResult{}, errs.E(errs.KindInvalidInput, "console.AnalyzeEmail", "artifact too small for forensic profiling, min 10 characters")
	}
	a, err := s.analyzer.AnalyzeEmail(ctx, body)
	return s.record(ctx, domain.ScanEmail, a, err)
}

func (s *Service) AnalyzeURL(ctx context.Context, url string) (domain.ScanResult, error) {
	url = strings.TrimSpace(url)
	if !strings.Contains(url, ".") {
		return domain.ScanResult{}, errs.E(errs.KindInvalidInput, "console.AnalyzeURL", "please provide a valid URL")
	}
	a, err := s.analyzer.AnalyzeURL(ctx, url)
	return s.record(ctx, domain.ScanURL, a, err)
}

func (s *Service) AnalyzeSandbox(ctx context.Context, fileName, syscallLog string) (domain.ScanResult, error) {
	if strings.TrimSpace(fileName) == "" {
		fileName = DefaultSandboxFile
	}
	if strings.TrimSpace(syscallLog) == "" {
		syscallLog = DefaultSandboxLog
	}
	a, err := s.analyzer.AnalyzeSandboxArtifact(ctx, fileName, syscallLog)
	return s.record(ctx, domain.ScanFile, a, err)
}

func (s *Service) AnalyzeAPI(ctx context.Context, payload string) (domain.ScanResult, error) {
	if strings.TrimSpace(payload) == "" {
		payload = DefaultAPIPayload
	}
	a, err := s.analyzer.AnalyzeAPIPayload(ctx, payload)
	return s.record(ctx, domain.ScanAPI, a, err)
}

// Analyze dispatches on the artifact type. It is the entry point of the
// asynchronous job runner.
func (s *Service) Analyze(ctx context.Context, t domain.ScanType, in ports.JobInput) (domain.ScanResult, error) {
	switch t {
	case domain.ScanEmail:
		return s.AnalyzeEmail(ctx, in.Content)
	case domain.ScanURL:
		return s.AnalyzeURL(ctx, in.Content)
	case domain.ScanFile:
		return s.AnalyzeSandbox(ctx, in.FileName, in.SyscallLog)
	case domain.ScanAPI:
		return s.AnalyzeAPI(ctx, in.Content)
	}
	return domain.ScanResult{}, errs.E(errs.KindInvalidInput, "console.Analyze", "unknown artifact type "+string(t))
}

func (s *Service) record(ctx context.Context, t domain.ScanType, a domain.Analysis, err error) (domain.ScanResult, error) {
	if err != nil {
		return domain.ScanResult{}, err
	}
	return s.store.AddScan(ctx, domain.NewScan(t, a))
}

// InjectTestVector records a synthetic scan with a random type and verdict,
// for exercising the dashboard without calling the model.
func (s *Service) InjectTestVector(ctx context.Context, rng *rand.Rand) (domain.ScanResult, error) {
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	t := domain.ScanTypes[rng.IntN(len(domain.ScanTypes))]
	v := domain.Verdicts[rng.IntN(len(domain.Verdicts))]

	var score int
	var flags []string
	switch v {
	case domain.VerdictSafe:
		score = rng.IntN(20)
	case domain.VerdictSuspicious:
		score = 30 + rng.IntN(40)
	default:
		score = 75 + rng.IntN(25)
		flags = []string{"SIGNATURE_MATCH", "ANOMALOUS_SOURCE"}
	}
	h := domain.Heuristics{
		LinguisticManipulation: float64(rng.IntN(10)),
		LinkEntropy:            float64(rng.IntN(10)),
		DomainMasking:          float64(rng.IntN(10)),
	}
	scan, err := s.store.AddScan(ctx, domain.ScanResult{
		Type:        t,
		Verdict:     v,
		RiskScore:   float64(score),
		Explanation: "Simulated " + string(t) + " security event triggered for diagnostic verification.",
		RedFlags:    flags,
		Heuristics:  &h,
	})
	if err != nil {
		return domain.ScanResult{}, err
	}
	s.logger.Info("test vector injected", "id", scan.ID, "type", t, "verdict", v)
	return scan, nil
}
