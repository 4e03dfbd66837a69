package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"invoicer/internal/ledger"
	"invoicer/internal/logger"
	"invoicer/internal/pdftext"
	"invoicer/internal/session"
	"invoicer/pkg/models"
)

type Config struct {
	// Wizard session storage
	SessionBackend string
	SessionDBPath  string
	SessionTTL     time.Duration
	RedisAddr      string
	RedisPassword  string
	RedisDB        int

	// Text extraction for prefill
	TextExtractor         string
	GoogleCloudProject    string
	GoogleCloudLocation   string
	DocumentAIProcessorID string

	// Google credentials, shared by Vision, Document AI and Sheets
	GoogleCredentialsJSON string
	GoogleCredentialsFile string

	// Google Sheets ledger
	GoogleSheetURL       string
	GoogleSheetWorksheet string

	// Invoice rules
	DueDateRule models.DueDateRule

	// Logging Configuration
	LogLevel      string
	LogFormat     string
	LogTimeFormat string
	LogOutput     string
}

func Load() (*Config, error) {
	config := &Config{
		SessionBackend:        strings.ToLower(getEnv("SESSION_BACKEND", session.BackendSQLite)),
		SessionDBPath:         getEnv("SESSION_DB_PATH", defaultSessionDBPath()),
		RedisAddr:             getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:         getEnv("REDIS_PASSWORD", ""),
		TextExtractor:         strings.ToLower(getEnv("TEXT_EXTRACTOR", pdftext.BackendLayer)),
		GoogleCloudProject:    getEnv("GOOGLE_CLOUD_PROJECT", ""),
		GoogleCloudLocation:   getEnv("GOOGLE_CLOUD_LOCATION", "us"),
		DocumentAIProcessorID: getEnv("DOCUMENT_AI_PROCESSOR_ID", ""),
		GoogleCredentialsJSON: getEnv("GOOGLE_CREDENTIALS", ""),
		GoogleCredentialsFile: getEnv("GOOGLE_APPLICATION_CREDENTIALS", ""),
		GoogleSheetURL:        getEnv("GOOGLE_SHEET_URL", ""),
		GoogleSheetWorksheet:  getEnv("GOOGLE_SHEET_WORKSHEET", "Invoices"),
		LogLevel:              getEnv("LOG_LEVEL", "info"),
		LogFormat:             getEnv("LOG_FORMAT", "console"),
		LogTimeFormat:         getEnv("LOG_TIME_FORMAT", "2006-01-02T15:04:05Z07:00"),
		LogOutput:             getEnv("LOG_OUTPUT", "stderr"),
	}

	var err error
	if config.RedisDB, err = strconv.Atoi(getEnv("REDIS_DB", "0")); err != nil {
		return nil, fmt.Errorf("config validation failed: REDIS_DB must be an integer: %w", err)
	}
	if config.SessionTTL, err = time.ParseDuration(getEnv("SESSION_TTL", "720h")); err != nil {
		return nil, fmt.Errorf("config validation failed: SESSION_TTL must be a duration: %w", err)
	}

	rule, ok := models.ParseDueDateRule(getEnv("DUE_DATE_RULE", string(models.DueDateNet)))
	if !ok {
		return nil, fmt.Errorf("config validation failed: DUE_DATE_RULE must be %q or %q", models.DueDateNet, models.DueDateInclusive)
	}
	config.DueDateRule = rule

	if err := config.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return config, nil
}

func (c *Config) validate() error {
	switch c.SessionBackend {
	case session.BackendMemory, session.BackendRedis:
	case session.BackendSQLite:
		if c.SessionDBPath == "" {
			return fmt.Errorf("SESSION_DB_PATH is required for the sqlite session backend")
		}
	default:
		return fmt.Errorf("SESSION_BACKEND must be one of memory, sqlite, redis (got %q)", c.SessionBackend)
	}
	if c.SessionTTL < 0 {
		return fmt.Errorf("SESSION_TTL must not be negative")
	}

	switch c.TextExtractor {
	case pdftext.BackendLayer, pdftext.BackendVision:
	case pdftext.BackendDocumentAI:
		if c.GoogleCloudProject == "" {
			return fmt.Errorf("GOOGLE_CLOUD_PROJECT is required for the documentai text extractor")
		}
		if c.DocumentAIProcessorID == "" {
			return fmt.Errorf("DOCUMENT_AI_PROCESSOR_ID is required for the documentai text extractor")
		}
	default:
		return fmt.Errorf("TEXT_EXTRACTOR must be one of pdf, vision, documentai (got %q)", c.TextExtractor)
	}
	return nil
}

// GetLoggerConfig returns a logger configuration from the main config
func (c *Config) GetLoggerConfig() logger.LogConfig {
	return logger.LogConfig{
		Level:      c.LogLevel,
		Format:     c.LogFormat,
		TimeFormat: c.LogTimeFormat,
		Output:     c.LogOutput,
	}
}

// GetSessionConfig returns the session store configuration
func (c *Config) GetSessionConfig() session.Config {
	return session.Config{
		Backend:       c.SessionBackend,
		DBPath:        c.SessionDBPath,
		RedisAddr:     c.RedisAddr,
		RedisPassword: c.RedisPassword,
		RedisDB:       c.RedisDB,
		TTL:           c.SessionTTL,
	}
}

// GetExtractorConfig returns the text extractor configuration
func (c *Config) GetExtractorConfig() pdftext.Config {
	return pdftext.Config{
		Backend:         c.TextExtractor,
		ProjectID:       c.GoogleCloudProject,
		Location:        c.GoogleCloudLocation,
		ProcessorID:     c.DocumentAIProcessorID,
		CredentialsJSON: c.GoogleCredentialsJSON,
		CredentialsFile: c.GoogleCredentialsFile,
	}
}

// GetLedgerConfig returns the Google Sheets ledger configuration
func (c *Config) GetLedgerConfig() ledger.Config {
	return ledger.Config{
		SheetURL:        c.GoogleSheetURL,
		Worksheet:       c.GoogleSheetWorksheet,
		CredentialsJSON: c.GoogleCredentialsJSON,
		CredentialsFile: c.GoogleCredentialsFile,
	}
}

func defaultSessionDBPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "invoicer.db"
	}
	return filepath.Join(dir, "invoicer", "sessions.db")
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
