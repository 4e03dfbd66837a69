package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"invoicer/pkg/models"
)

var configEnv = []string{
	"SESSION_BACKEND", "SESSION_DB_PATH", "SESSION_TTL", "REDIS_ADDR", "REDIS_PASSWORD", "REDIS_DB",
	"TEXT_EXTRACTOR", "GOOGLE_CLOUD_PROJECT", "GOOGLE_CLOUD_LOCATION", "DOCUMENT_AI_PROCESSOR_ID",
	"GOOGLE_CREDENTIALS", "GOOGLE_APPLICATION_CREDENTIALS", "GOOGLE_SHEET_URL", "GOOGLE_SHEET_WORKSHEET",
	"DUE_DATE_RULE", "LOG_LEVEL", "LOG_FORMAT", "LOG_TIME_FORMAT", "LOG_OUTPUT",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range configEnv {
		t.Setenv(key, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "sqlite", cfg.SessionBackend)
	assert.NotEmpty(t, cfg.SessionDBPath)
	assert.Equal(t, 720*time.Hour, cfg.SessionTTL)
	assert.Equal(t, "pdf", cfg.TextExtractor)
	assert.Equal(t, models.DueDateNet, cfg.DueDateRule)
	assert.Equal(t, "Invoices", cfg.GoogleSheetWorksheet)
	assert.Equal(t, "stderr", cfg.GetLoggerConfig().Output)
}

func TestLoadOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("SESSION_BACKEND", "Redis")
	t.Setenv("REDIS_ADDR", "cache:6380")
	t.Setenv("REDIS_DB", "3")
	t.Setenv("SESSION_TTL", "2h")
	t.Setenv("DUE_DATE_RULE", "inclusive")
	t.Setenv("GOOGLE_CREDENTIALS", `{"type":"service_account"}`)
	t.Setenv("GOOGLE_SHEET_URL", "https://docs.google.com/spreadsheets/d/abc/edit")

	cfg, err := Load()
	require.NoError(t, err)

	sc := cfg.GetSessionConfig()
	assert.Equal(t, "redis", sc.Backend)
	assert.Equal(t, "cache:6380", sc.RedisAddr)
	assert.Equal(t, 3, sc.RedisDB)
	assert.Equal(t, 2*time.Hour, sc.TTL)
	assert.Equal(t, models.DueDateInclusive, cfg.DueDateRule)

	lc := cfg.GetLedgerConfig()
	assert.Equal(t, `{"type":"service_account"}`, lc.CredentialsJSON)
	assert.Equal(t, "https://docs.google.com/spreadsheets/d/abc/edit", lc.SheetURL)
	assert.Equal(t, `{"type":"service_account"}`, cfg.GetExtractorConfig().CredentialsJSON)
}

func TestLoadValidation(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		want string
	}{
		{"unknown backend", map[string]string{"SESSION_BACKEND": "etcd"}, "SESSION_BACKEND"},
		{"bad ttl", map[string]string{"SESSION_TTL": "soon"}, "SESSION_TTL"},
		{"bad redis db", map[string]string{"REDIS_DB": "one"}, "REDIS_DB"},
		{"unknown extractor", map[string]string{"TEXT_EXTRACTOR": "tesseract"}, "TEXT_EXTRACTOR"},
		{"documentai without project", map[string]string{"TEXT_EXTRACTOR": "documentai"}, "GOOGLE_CLOUD_PROJECT"},
		{"documentai without processor", map[string]string{"TEXT_EXTRACTOR": "documentai", "GOOGLE_CLOUD_PROJECT": "p"}, "DOCUMENT_AI_PROCESSOR_ID"},
		{"unknown due date rule", map[string]string{"DUE_DATE_RULE": "eom"}, "DUE_DATE_RULE"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}
