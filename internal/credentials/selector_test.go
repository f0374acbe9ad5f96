package credentials

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSelector(t *testing.T) {
	s := NewSelector("  ")
	assert.False(t, s.Configured())
	assert.Equal(t, "NOT CONFIGURED", s.Masked())

	s.Select("AIzaSyExample1234")
	assert.True(t, s.Configured())
	assert.Equal(t, "AIzaSyExample1234", s.APIKey())
	assert.Equal(t, "••••••••1234", s.Masked())

	s.Select("")
	assert.Equal(t, "", s.APIKey())
}

func TestMaskedShortKey(t *testing.T) {
	assert.Equal(t, "••••••••abc", NewSelector("abc").Masked())
}
