package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"phishdetect/internal/domain"
	"phishdetect/internal/errs"
)

func TestVerdictClosure(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want domain.Verdict
	}{
		{"missing", nil, domain.VerdictSuspicious},
		{"arbitrary", "maybe", domain.VerdictSuspicious},
		{"lowercase safe", "safe", domain.VerdictSafe},
		{"mixed case dangerous", "Dangerous", domain.VerdictDangerous},
		{"padded", "  SUSPICIOUS ", domain.VerdictSuspicious},
		{"number", 3.0, domain.VerdictSuspicious},
		{"empty", "", domain.VerdictSuspicious},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Verdict(tt.in)
			assert.Equal(t, tt.want, got)
			assert.True(t, got.Valid())
		})
	}
}

func TestDecodeMaybeVerdict(t *testing.T) {
	a, err := Decode(`{"verdict":"maybe"}`)
	require.NoError(t, err)
	assert.Equal(t, domain.VerdictSuspicious, a.Verdict)
}

func TestDecodeDefaultsHeuristics(t *testing.T) {
	a, err := Decode(`{"verdict":"SAFE","riskScore":2,"redFlags":[],"explanation":"ok"}`)
	require.NoError(t, err)

	assert.Equal(t, domain.VerdictSafe, a.Verdict)
	assert.Equal(t, 2.0, a.RiskScore)
	assert.Equal(t, "ok", a.Explanation)
	assert.Empty(t, a.RedFlags)
	require.NotNil(t, a.Heuristics)
	assert.Equal(t, domain.DefaultHeuristics(), *a.Heuristics)
}

func TestDecodeFillsPartialHeuristics(t *testing.T) {
	a, err := Decode(`{"verdict":"DANGEROUS","heuristics":{"linkEntropy":9.5,"domainMasking":"bad"}}`)
	require.NoError(t, err)

	require.NotNil(t, a.Heuristics)
	assert.Equal(t, 5.0, a.Heuristics.LinguisticManipulation)
	assert.Equal(t, 9.5, a.Heuristics.LinkEntropy)
	assert.Equal(t, 5.0, a.Heuristics.DomainMasking)
}

func TestDecodeDoesNotClamp(t *testing.T) {
	a, err := Decode(`{"verdict":"DANGEROUS","riskScore":140,"heuristics":{"linguisticManipulation":-3,"linkEntropy":11,"domainMasking":12}}`)
	require.NoError(t, err)

	assert.Equal(t, 140.0, a.RiskScore)
	assert.Equal(t, -3.0, a.Heuristics.LinguisticManipulation)
	assert.Equal(t, 11.0, a.Heuristics.LinkEntropy)
}

func TestDecodeCoercesLooseFields(t *testing.T) {
	a, err := Decode(`{"verdict":"safe","riskScore":"17","redFlags":["A",3,"B",null],"explanation":42}`)
	require.NoError(t, err)

	assert.Equal(t, 17.0, a.RiskScore)
	assert.Equal(t, []string{"A", "B"}, a.RedFlags)
	assert.Equal(t, "", a.Explanation)
}

func TestDecodeMalformed(t *testing.T) {
	for _, text := range []string{"not json", `["SAFE"]`, `"SAFE"`, `{"verdict":`} {
		_, err := Decode(text)
		assert.ErrorIs(t, err, errs.ErrMalformedResponse, text)
	}
}
