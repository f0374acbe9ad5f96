package providers

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"phishdetect/internal/adapters/gemini"
	"phishdetect/internal/adapters/openai"
	"phishdetect/internal/adapters/scripted"
	"phishdetect/internal/config"
	"phishdetect/internal/ports"
)

func TestNew(t *testing.T) {
	cfg := config.Defaults()

	f, err := New(cfg)
	require.NoError(t, err)
	assert.IsType(t, gemini.Factory{}, f)

	cfg.ModelProvider = config.ProviderOpenAI
	cfg.ModelName = "llama3"
	f, err = New(cfg)
	require.NoError(t, err)
	assert.Equal(t, openai.Factory{Model: "llama3"}, f)

	cfg.ModelProvider = "unknown"
	_, err = New(cfg)
	assert.Error(t, err)
}

func TestOfflineProviderAnswers(t *testing.T) {
	cfg := config.Defaults()
	cfg.ModelProvider = config.ProviderOffline

	f, err := New(cfg)
	require.NoError(t, err)
	m, err := f.NewModel(context.Background(), "offline")
	require.NoError(t, err)
	text, err := m.Generate(context.Background(), ports.GenerateRequest{Prompt: "x"})
	require.NoError(t, err)
	assert.Contains(t, text, "OFFLINE_MODE")

	offline, ok := f.(*scripted.Factory)
	require.True(t, ok)
	assert.False(t, offline.Record)
	assert.Empty(t, offline.Requests())
}
