package config

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		Provider:         ProviderGemini,
		ModelName:        "gemini-2.5-flash",
		Temperature:      0.2,
		MaxTurns:         5,
		EmbedderModel:    DefaultEmbedderModel,
		RetrievalTopK:    7,
		GroupThreshold:   0.85,
		GroupBatchSize:   500,
		UploadBatch:      50,
		PostgresHost:     "localhost",
		PostgresPort:     5432,
		PostgresUser:     "healthnav",
		PostgresPassword: "secret-password-123",
		PostgresDBName:   "healthnav",
		PostgresSSLMode:  "disable",
	}
}

func TestValidate(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "test-key")

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr error
	}{
		{"valid", func(c *Config) {}, nil},
		{"bad provider", func(c *Config) { c.Provider = "anthropic" }, ErrInvalidProvider},
		{"empty model", func(c *Config) { c.ModelName = "" }, ErrInvalidModelName},
		{"temperature too high", func(c *Config) { c.Temperature = 3 }, ErrInvalidTemperature},
		{"empty embedder", func(c *Config) { c.EmbedderModel = "" }, ErrInvalidEmbedderModel},
		{"threshold out of range", func(c *Config) { c.GroupThreshold = 1.5 }, ErrInvalidThreshold},
		{"zero batch size", func(c *Config) { c.GroupBatchSize = 0 }, ErrInvalidBatchSize},
		{"negative upload batch", func(c *Config) { c.UploadBatch = -1 }, ErrInvalidBatchSize},
		{"empty host", func(c *Config) { c.PostgresHost = "" }, ErrInvalidPostgresHost},
		{"port out of range", func(c *Config) { c.PostgresPort = 70000 }, ErrInvalidPostgresPort},
		{"empty db name", func(c *Config) { c.PostgresDBName = "" }, ErrInvalidPostgresDBName},
		{"bad ssl mode", func(c *Config) { c.PostgresSSLMode = "yes" }, ErrInvalidPostgresSSLMode},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("Validate() = %v, want nil", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Validate() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateMissingAPIKey(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")
	cfg := validConfig()
	if err := cfg.Validate(); !errors.Is(err, ErrMissingAPIKey) {
		t.Fatalf("Validate() = %v, want ErrMissingAPIKey", err)
	}
}

func TestMarshalJSONMasksPassword(t *testing.T) {
	cfg := validConfig()

	data, err := json.Marshal(cfg)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if strings.Contains(string(data), "secret-password-123") {
		t.Error("password leaked in JSON output")
	}
	if !strings.Contains(string(data), maskedValue) {
		t.Error("expected masked value in JSON output")
	}
}

func TestMaskSecretShortFullyMasked(t *testing.T) {
	if got := maskSecret("12345678"); got != maskedValue {
		t.Errorf("maskSecret(short) = %q, want full mask", got)
	}
	if got := maskSecret(""); got != "" {
		t.Errorf("maskSecret(empty) = %q, want empty", got)
	}
	long := maskSecret("abcdefghijkl")
	if !strings.HasPrefix(long, "ab") || !strings.HasSuffix(long, "kl") {
		t.Errorf("maskSecret(long) = %q, want ab<mask>kl shape", long)
	}
}

func TestPostgresConnectionString(t *testing.T) {
	cfg := validConfig()
	dsn := cfg.PostgresConnectionString()
	for _, want := range []string{"host=localhost", "port=5432", "dbname=healthnav", "sslmode=disable"} {
		if !strings.Contains(dsn, want) {
			t.Errorf("DSN missing %q: %s", want, dsn)
		}
	}
}

func TestParseDatabaseURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://alice:pw@db.example.com:5433/policies?sslmode=require")

	cfg := validConfig()
	require.NoError(t, cfg.parseDatabaseURL())

	assert.Equal(t, "db.example.com", cfg.PostgresHost)
	assert.Equal(t, 5433, cfg.PostgresPort)
	assert.Equal(t, "alice", cfg.PostgresUser)
	assert.Equal(t, "pw", cfg.PostgresPassword)
	assert.Equal(t, "policies", cfg.PostgresDBName)
	assert.Equal(t, "require", cfg.PostgresSSLMode)
}

func TestParseDatabaseURLBadScheme(t *testing.T) {
	t.Setenv("DATABASE_URL", "mysql://u:p@h:3306/d")

	cfg := validConfig()
	if err := cfg.parseDatabaseURL(); err == nil {
		t.Fatal("expected error for non-postgres scheme")
	}
}

func TestFullModelName(t *testing.T) {
	cfg := validConfig()
	if got := cfg.FullModelName(); got != "googleai/gemini-2.5-flash" {
		t.Errorf("FullModelName() = %q", got)
	}

	cfg.Provider = ProviderOpenAI
	cfg.ModelName = "gpt-4o-mini"
	if got := cfg.FullModelName(); got != "openai/gpt-4o-mini" {
		t.Errorf("FullModelName() = %q", got)
	}

	cfg.ModelName = "openai/gpt-4o"
	if got := cfg.FullModelName(); got != "openai/gpt-4o" {
		t.Errorf("qualified name should pass through, got %q", got)
	}
}
