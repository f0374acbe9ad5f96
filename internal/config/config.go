package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	StoreMemory   = "memory"
	StoreSQLite   = "sqlite"
	StorePostgres = "postgres"

	ProviderGemini  = "gemini"
	ProviderOpenAI  = "openai"
	ProviderOffline = "offline"
)

type Config struct {
	Env        string `yaml:"env"`
	ListenAddr string `yaml:"listen_addr"`
	LogLevel   string `yaml:"log_level"`

	StoreDriver string `yaml:"store_driver"`
	SQLitePath  string `yaml:"sqlite_path"`
	DatabaseURL string `yaml:"database_url"`

	ModelProvider  string `yaml:"model_provider"`
	ModelName      string `yaml:"model_name"`
	ModelBaseURL   string `yaml:"model_base_url"`
	APIKey         string `yaml:"api_key"`
	ThinkingBudget int    `yaml:"thinking_budget"`

	DemoPassphrase string `yaml:"demo_passphrase"`

	AnalysisWorkers int     `yaml:"analysis_workers"`
	AnalyzeRPS      float64 `yaml:"analyze_rps"`
	AnalyzeBurst    int     `yaml:"analyze_burst"`

	NATSURL     string `yaml:"nats_url"`
	NATSSubject string `yaml:"nats_subject"`
}

func Defaults() Config {
	return Config{
		Env:             "development",
		ListenAddr:      ":8080",
		LogLevel:        "info",
		StoreDriver:     StoreMemory,
		SQLitePath:      "data/phishdetect.db",
		ModelProvider:   ProviderGemini,
		ThinkingBudget:  4096,
		DemoPassphrase:  "admin123",
		AnalysisWorkers: 2,
		AnalyzeRPS:      1,
		AnalyzeBurst:    5,
		NATSSubject:     "phishdetect.scans.created",
	}
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// Load reads .env when present, then the YAML file named by
// PHISHDETECT_CONFIG, then the environment. Later sources win.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("config: .env: %w", err)
	}
	cfg := Defaults()
	if path := os.Getenv("PHISHDETECT_CONFIG"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}
	cfg = cfg.withEnv()
	return cfg, cfg.Validate()
}

func (c Config) withEnv() Config {
	c.Env = getenv("APP_ENV", c.Env)
	c.ListenAddr = getenv("LISTEN_ADDR", c.ListenAddr)
	c.LogLevel = getenv("LOG_LEVEL", c.LogLevel)
	c.StoreDriver = strings.ToLower(getenv("STORE_DRIVER", c.StoreDriver))
	c.SQLitePath = getenv("SQLITE_PATH", c.SQLitePath)
	c.DatabaseURL = getenv("DATABASE_URL", c.DatabaseURL)
	c.ModelProvider = strings.ToLower(getenv("MODEL_PROVIDER", c.ModelProvider))
	c.ModelName = getenv("MODEL_NAME", c.ModelName)
	c.ModelBaseURL = getenv("MODEL_BASE_URL", c.ModelBaseURL)
	c.APIKey = getenv("API_KEY", c.APIKey)
	c.ThinkingBudget = getenvInt("THINKING_BUDGET", c.ThinkingBudget)
	c.DemoPassphrase = getenv("DEMO_PASSPHRASE", c.DemoPassphrase)
	c.AnalysisWorkers = getenvInt("ANALYSIS_WORKERS", c.AnalysisWorkers)
	c.AnalyzeRPS = getenvFloat("ANALYZE_RPS", c.AnalyzeRPS)
	c.AnalyzeBurst = getenvInt("ANALYZE_BURST", c.AnalyzeBurst)
	c.NATSURL = getenv("NATS_URL", c.NATSURL)
	c.NATSSubject = getenv("NATS_SUBJECT", c.NATSSubject)
	return c
}

func (c Config) Validate() error {
	switch c.StoreDriver {
	case StoreMemory:
	case StoreSQLite:
		if c.SQLitePath == "" {
			return fmt.Errorf("config: SQLITE_PATH not set")
		}
	case StorePostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("config: DATABASE_URL not set")
		}
	default:
		return fmt.Errorf("config: unknown STORE_DRIVER %q", c.StoreDriver)
	}
	switch c.ModelProvider {
	case ProviderGemini, ProviderOpenAI, ProviderOffline:
	default:
		return fmt.Errorf("config: unknown MODEL_PROVIDER %q", c.ModelProvider)
	}
	return nil
}

// Level maps LOG_LEVEL onto a slog level. Unknown values mean info.
func (c Config) Level() slog.Level {
	var l slog.Level
	if err := l.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return l
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		var out int
		_, err := fmt.Sscanf(v, "%d", &out)
		if err == nil {
			return out
		}
	}
	return def
}

func getenvFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		var out float64
		_, err := fmt.Sscanf(v, "%g", &out)
		if err == nil {
			return out
		}
	}
	return def
}
