package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
)

// Config represents the full application configuration surface.
type Config struct {
	Server    ServerConfig
	Data      DataConfig
	Reporting ReportingConfig
	WhatsApp  WhatsAppConfig
	Sheets    SheetsConfig
	MongoDB   MongoDBConfig
	LogLevel  string
}

// ServerConfig holds HTTP server related options.
type ServerConfig struct {
	Port string
}

// DataConfig locates the extracted movement files.
type DataConfig struct {
	Dir         string
	EntriesFile string
	ExitsFile   string
	PendingFile string
	Encoding    string
}

// EntriesPath is the full path of the entry movements file.
func (d DataConfig) EntriesPath() string { return d.resolve(d.EntriesFile) }

// ExitsPath is the full path of the exit movements file.
func (d DataConfig) ExitsPath() string { return d.resolve(d.ExitsFile) }

// PendingPath is the full path of the pending write-offs file.
func (d DataConfig) PendingPath() string { return d.resolve(d.PendingFile) }

func (d DataConfig) resolve(name string) string {
	if filepath.IsAbs(name) || d.Dir == "" {
		return name
	}
	return filepath.Join(d.Dir, name)
}

// ReportingConfig holds dashboard and scheduler settings.
type ReportingConfig struct {
	TopN           int
	RefreshCron    string
	SnapshotCron   string
	SnapshotBranch string
	Timezone       string
}

// WhatsAppConfig contains credentials for the Meta WhatsApp Cloud API. The
// digest is only sent when AccessToken is set.
type WhatsAppConfig struct {
	AccessToken   string
	PhoneNumberID string
	BaseURL       string
	APIVersion    string
	Recipient     string
}

// Enabled reports whether digests should be sent.
func (c WhatsAppConfig) Enabled() bool { return c.AccessToken != "" }

// SheetsConfig contains configuration required to publish snapshots to
// Google Sheets. Publishing is skipped when SpreadsheetID is empty.
type SheetsConfig struct {
	CredentialsPath string
	SpreadsheetID   string
	SnapshotRange   string
}

// Enabled reports whether snapshots should be appended to a spreadsheet.
func (c SheetsConfig) Enabled() bool { return c.SpreadsheetID != "" }

// MongoDBConfig holds settings for the snapshot store. The store is
// disabled when URI is empty.
type MongoDBConfig struct {
	URI    string
	DBName string
}

// Enabled reports whether snapshots should be persisted.
func (c MongoDBConfig) Enabled() bool { return c.URI != "" }

// Load reads environment variables (optionally from the provided file) and
// materializes a Config instance.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("failed loading env file %s: %w", envFile, err)
			}
		}
	} else {
		// A missing .env is fine when the environment is set directly.
		_ = godotenv.Load()
	}

	topN, err := getenvInt("DASHBOARD_TOP_N", 10)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Server: ServerConfig{
			Port: getenvWithDefault("APP_PORT", "8080"),
		},
		Data: DataConfig{
			Dir:         getenvWithDefault("DATA_DIR", "."),
			EntriesFile: getenvWithDefault("ENTRIES_FILE", "inventario_entrada.csv"),
			ExitsFile:   getenvWithDefault("EXITS_FILE", "inventario_saida.csv"),
			PendingFile: getenvWithDefault("PENDING_FILE", "acompanhamento_inventario_pendente_baixa.csv"),
			Encoding:    getenvWithDefault("INPUT_ENCODING", "utf-8"),
		},
		Reporting: ReportingConfig{
			TopN:           topN,
			RefreshCron:    getenvWithDefault("REFRESH_CRON", "*/15 * * * *"),
			SnapshotCron:   getenvWithDefault("SNAPSHOT_CRON", "0 20 * * *"),
			SnapshotBranch: getenvWithDefault("SNAPSHOT_BRANCH", "all"),
			Timezone:       getenvWithDefault("TIMEZONE", "America/Sao_Paulo"),
		},
		WhatsApp: WhatsAppConfig{
			AccessToken:   os.Getenv("WHATSAPP_TOKEN"),
			PhoneNumberID: os.Getenv("WHATSAPP_PHONE_NUMBER_ID"),
			BaseURL:       getenvWithDefault("WHATSAPP_BASE_URL", "https://graph.facebook.com"),
			APIVersion:    getenvWithDefault("WHATSAPP_API_VERSION", "v20.0"),
			Recipient:     os.Getenv("WHATSAPP_DIGEST_TO"),
		},
		Sheets: SheetsConfig{
			CredentialsPath: os.Getenv("GOOGLE_SHEETS_CREDENTIALS_PATH"),
			SpreadsheetID:   os.Getenv("GOOGLE_SHEET_ID"),
			SnapshotRange:   getenvWithDefault("GOOGLE_SHEET_SNAPSHOT_RANGE", "Snapshots!A:H"),
		},
		MongoDB: MongoDBConfig{
			URI:    os.Getenv("MONGODB_URI"),
			DBName: getenvWithDefault("MONGODB_DB_NAME", "inventario"),
		},
		LogLevel: getenvWithDefault("LOG_LEVEL", "info"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate ensures that required configuration fields are populated and that
// every enabled integration is fully configured.
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}

	if c.Server.Port == "" {
		return errors.New("APP_PORT must be provided")
	}

	switch {
	case c.Data.EntriesFile == "":
		return errors.New("ENTRIES_FILE must not be empty")
	case c.Data.ExitsFile == "":
		return errors.New("EXITS_FILE must not be empty")
	case c.Data.PendingFile == "":
		return errors.New("PENDING_FILE must not be empty")
	}

	if c.Reporting.TopN <= 0 {
		return errors.New("DASHBOARD_TOP_N must be positive")
	}

	if c.Reporting.Timezone == "" {
		return errors.New("TIMEZONE must be provided")
	}

	if c.WhatsApp.Enabled() {
		switch {
		case c.WhatsApp.PhoneNumberID == "":
			return errors.New("WHATSAPP_PHONE_NUMBER_ID must be provided when WHATSAPP_TOKEN is set")
		case c.WhatsApp.Recipient == "":
			return errors.New("WHATSAPP_DIGEST_TO must be provided when WHATSAPP_TOKEN is set")
		case c.WhatsApp.BaseURL == "":
			return errors.New("WHATSAPP_BASE_URL must not be empty")
		case c.WhatsApp.APIVersion == "":
			return errors.New("WHATSAPP_API_VERSION must not be empty")
		}
	}

	if c.Sheets.Enabled() && c.Sheets.CredentialsPath == "" {
		return errors.New("GOOGLE_SHEETS_CREDENTIALS_PATH must be provided when GOOGLE_SHEET_ID is set")
	}

	if c.MongoDB.Enabled() && c.MongoDB.DBName == "" {
		return errors.New("MONGODB_DB_NAME must be provided when MONGODB_URI is set")
	}

	return nil
}

func getenvWithDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getenvInt(key string, fallback int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer: %w", key, err)
	}
	return n, nil
}
