// Package normalize turns an untrusted model answer into a well-formed
// domain.Analysis. The model is asked for a schema but nothing it returns is
// trusted: the verdict is forced into the closed enumeration and missing
// heuristics are defaulted. Numeric ranges are passed through as given.
package normalize

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"phishdetect/internal/domain"
	"phishdetect/internal/errs"
)

// Decode parses the JSON text of a model answer and normalizes it.
func Decode(text string) (domain.Analysis, error) {
	var raw any
	if err := json.Unmarshal([]byte(text), &raw); err != nil {
		return domain.Analysis{}, errs.E(errs.KindMalformedResponse, "normalize.Decode", "model payload is not valid JSON", err)
	}
	obj, ok := raw.(map[string]any)
	if !ok {
		return domain.Analysis{}, errs.E(errs.KindMalformedResponse, "normalize.Decode", "model payload is not a JSON object")
	}
	return Normalize(obj), nil
}

// Normalize coerces a decoded JSON object into an Analysis.
func Normalize(raw map[string]any) domain.Analysis {
	a := domain.Analysis{
		Verdict:     Verdict(raw["verdict"]),
		RiskScore:   number(raw["riskScore"], 0),
		Explanation: str(raw["explanation"]),
		RedFlags:    redFlags(raw["redFlags"]),
	}
	h := heuristics(raw["heuristics"])
	a.Heuristics = &h
	return a
}

// Verdict maps any value onto the closed verdict set. Comparison is
// case-insensitive; anything unrecognized is SUSPICIOUS.
func Verdict(v any) domain.Verdict {
	s, ok := v.(string)
	if !ok {
		return domain.VerdictSuspicious
	}
	out := domain.Verdict(strings.ToUpper(strings.TrimSpace(s)))
	if !out.Valid() {
		return domain.VerdictSuspicious
	}
	return out
}

func heuristics(v any) domain.Heuristics {
	h := domain.DefaultHeuristics()
	obj, ok := v.(map[string]any)
	if !ok {
		return h
	}
	h.LinguisticManipulation = number(obj["linguisticManipulation"], domain.DefaultHeuristicScore)
	h.LinkEntropy = number(obj["linkEntropy"], domain.DefaultHeuristicScore)
	h.DomainMasking = number(obj["domainMasking"], domain.DefaultHeuristicScore)
	return h
}

func redFlags(v any) []string {
	out := []string{}
	items, ok := v.([]any)
	if !ok {
		return out
	}
	for _, it := range items {
		if s, ok := it.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

func number(v any, def float64) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return def
		}
		return f
	}
	return def
}

func str(v any) string {
	s, _ := v.(string)
	return s
}
