package errs

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestE(t *testing.T) {
	cause := errors.New("boom")
	err := E(KindTransport, "gateway.AnalyzeURL", "model call failed", cause)

	var e *Error
	assert.True(t, errors.As(err, &e))
	assert.Equal(t, KindTransport, e.Kind)
	assert.Equal(t, "gateway.AnalyzeURL", e.Op)
	assert.Equal(t, "model call failed", e.Message)
	assert.Equal(t, "gateway.AnalyzeURL: model call failed: boom", err.Error())
	assert.ErrorIs(t, err, cause)
}

func TestIsMatchesByKind(t *testing.T) {
	err := fmt.Errorf("wrapped: %w", E(KindEmptyResponse, "gateway.generate"))

	assert.ErrorIs(t, err, ErrEmptyResponse)
	assert.NotErrorIs(t, err, ErrTransport)
	assert.True(t, IsEmptyResponse(err))
	assert.False(t, IsAuthenticationRequired(err))
}

func TestGetKind(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{"nil", nil, KindUnknown},
		{"plain", errors.New("x"), KindUnknown},
		{"auth", E(KindAuthentication), KindAuthentication},
		{"wrapped", fmt.Errorf("a: %w", E(KindNotFound, "store.DeletePost")), KindNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, GetKind(tt.err))
		})
	}
}

func TestErrorWithoutMessageUsesKind(t *testing.T) {
	assert.Equal(t, "store.Login: invalid_input", E(KindInvalidInput, "store.Login").Error())
	assert.Equal(t, "empty_response", ErrEmptyResponse.Error())
}

func TestStatusErrorCredentialRejected(t *testing.T) {
	tests := []struct {
		err  *StatusError
		want bool
	}{
		{&StatusError{Code: 404, Status: "NOT_FOUND", Message: "Requested entity was not found."}, true},
		{&StatusError{Code: 401}, true},
		{&StatusError{Code: 400, Status: "PERMISSION_DENIED"}, true},
		{&StatusError{Code: 429, Status: "RESOURCE_EXHAUSTED"}, false},
		{&StatusError{Code: 500}, false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.err.CredentialRejected(), tt.err.Error())
	}
}
