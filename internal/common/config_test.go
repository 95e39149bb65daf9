package common

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg := LoadConfig()

	assert.Equal(t, "/Aplicaciones/FacturasIBS", cfg.Sync.FolderPath)
	assert.Equal(t, "/FacturasIBS", cfg.Sync.LegacyFolderPath)
	assert.True(t, cfg.Sync.DeepRepair)
	assert.Equal(t, 60*time.Second, cfg.FileStore.Timeout)
	assert.Equal(t, "pdftotext", cfg.OCR.Pdftotext)
	assert.Equal(t, "spa", cfg.OCR.TesseractLang)
	assert.Equal(t, 300, cfg.OCR.DPI)
}

func TestLoadConfigFromEnv(t *testing.T) {
	t.Setenv("INVOICES_FOLDER", "/Otro/Folder")
	t.Setenv("SYNC_DEEP_REPAIR", "false")
	t.Setenv("OCR_DPI", "150")
	t.Setenv("DROPBOX_TIMEOUT", "90s")
	t.Setenv("OCR_MAX_PAGES", "no-es-numero")

	cfg := LoadConfig()

	assert.Equal(t, "/Otro/Folder", cfg.Sync.FolderPath)
	assert.False(t, cfg.Sync.DeepRepair)
	assert.Equal(t, 150, cfg.OCR.DPI)
	assert.Equal(t, 90*time.Second, cfg.FileStore.Timeout)
	assert.Zero(t, cfg.OCR.MaxPages)
}

func validConfig() *Config {
	return &Config{
		FileStore: FileStoreConfig{
			RefreshToken: "r",
			AppKey:       "k",
			AppSecret:    "s",
		},
		Records: RecordStoreConfig{APIKey: "key", DatabaseID: "db"},
	}
}

func TestValidate(t *testing.T) {
	require.NoError(t, validConfig().Validate())

	t.Run("needs some dropbox credential", func(t *testing.T) {
		cfg := validConfig()
		cfg.FileStore.RefreshToken = ""
		assert.Error(t, cfg.Validate())

		cfg.FileStore.AccessToken = "tok"
		cfg.FileStore.AppKey = ""
		cfg.FileStore.AppSecret = ""
		assert.NoError(t, cfg.Validate())
	})

	t.Run("refresh token needs app credentials", func(t *testing.T) {
		cfg := validConfig()
		cfg.FileStore.AppSecret = ""
		err := cfg.Validate()
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrInvalidInput)
	})

	t.Run("needs notion credentials", func(t *testing.T) {
		cfg := validConfig()
		cfg.Records.APIKey = ""
		assert.Error(t, cfg.Validate())

		cfg = validConfig()
		cfg.Records.DatabaseID = ""
		assert.Error(t, cfg.Validate())
	})
}
