package common

import (
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration
type Config struct {
	FileStore FileStoreConfig
	Records   RecordStoreConfig
	OCR       OCRConfig
	Sync      SyncConfig
}

// FileStoreConfig holds credentials and layout for the remote file store.
type FileStoreConfig struct {
	AccessToken  string
	AppKey       string
	AppSecret    string
	RefreshToken string
	Timeout      time.Duration
}

// RecordStoreConfig holds credentials for the structured store.
type RecordStoreConfig struct {
	APIKey     string
	DatabaseID string
	// SchemaPath points at the JSON schema-map file. Empty means the
	// built-in default property names.
	SchemaPath string
	Timeout    time.Duration
}

// OCRConfig holds the external extraction toolchain.
type OCRConfig struct {
	Pdftotext     string
	Pdftoppm      string
	Tesseract     string
	TesseractLang string
	DPI           int
	MaxPages      int
}

// SyncConfig holds the reconciliation run parameters.
type SyncConfig struct {
	FolderPath       string
	LegacyFolderPath string
	DeepRepair       bool
}

// LoadConfig loads configuration from environment variables
func LoadConfig() *Config {
	return &Config{
		FileStore: FileStoreConfig{
			AccessToken:  getEnv("DROPBOX_ACCESS_TOKEN", ""),
			AppKey:       getEnv("DROPBOX_APP_KEY", ""),
			AppSecret:    getEnv("DROPBOX_APP_SECRET", ""),
			RefreshToken: getEnv("DROPBOX_REFRESH_TOKEN", ""),
			Timeout:      getEnvAsDuration("DROPBOX_TIMEOUT", 60*time.Second),
		},
		Records: RecordStoreConfig{
			APIKey:     getEnv("NOTION_API_KEY", ""),
			DatabaseID: getEnv("NOTION_DATABASE_ID", ""),
			SchemaPath: getEnv("NOTION_SCHEMA_PATH", ""),
			Timeout:    getEnvAsDuration("NOTION_TIMEOUT", 30*time.Second),
		},
		OCR: OCRConfig{
			Pdftotext:     getEnv("PDFTOTEXT_BIN", "pdftotext"),
			Pdftoppm:      getEnv("PDFTOPPM_BIN", "pdftoppm"),
			Tesseract:     getEnv("TESSERACT_BIN", "tesseract"),
			TesseractLang: getEnv("TESSERACT_LANG", "spa"),
			DPI:           getEnvAsInt("OCR_DPI", 300),
			MaxPages:      getEnvAsInt("OCR_MAX_PAGES", 0),
		},
		Sync: SyncConfig{
			FolderPath:       getEnv("INVOICES_FOLDER", "/Aplicaciones/FacturasIBS"),
			LegacyFolderPath: getEnv("INVOICES_LEGACY_FOLDER", "/FacturasIBS"),
			DeepRepair:       getEnvAsBool("SYNC_DEEP_REPAIR", true),
		},
	}
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// Validate validates the loaded configuration
func (c *Config) Validate() error {
	if c.FileStore.AccessToken == "" && c.FileStore.RefreshToken == "" {
		return NewAppError("CONFIG_ERROR", "DROPBOX_ACCESS_TOKEN or DROPBOX_REFRESH_TOKEN is required", ErrInvalidInput)
	}
	if c.FileStore.RefreshToken != "" && (c.FileStore.AppKey == "" || c.FileStore.AppSecret == "") {
		return NewAppError("CONFIG_ERROR", "DROPBOX_APP_KEY and DROPBOX_APP_SECRET are required for token refresh", ErrInvalidInput)
	}
	if c.Records.APIKey == "" {
		return NewAppError("CONFIG_ERROR", "NOTION_API_KEY is required", ErrInvalidInput)
	}
	if c.Records.DatabaseID == "" {
		return NewAppError("CONFIG_ERROR", "NOTION_DATABASE_ID is required", ErrInvalidInput)
	}
	return nil
}
