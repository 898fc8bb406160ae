package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("ICE_CONFIG_FILE", filepath.Join(t.TempDir(), "missing.yaml"))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 15*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, MediumCSV, cfg.Store.Medium)
	assert.Equal(t, "data/indicadores.csv", cfg.Store.FilePath)
	assert.Equal(t, 60*time.Second, cfg.Store.CacheTTL)
	assert.Equal(t, "Indicadores", cfg.Store.Worksheet)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("ICE_CONFIG_FILE", filepath.Join(t.TempDir(), "missing.yaml"))
	t.Setenv("ICE_SERVER_PORT", "9090")
	t.Setenv("ICE_STORE_MEDIUM", "sheets")
	t.Setenv("ICE_SHEETS_SPREADSHEET_ID", "abc123")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, MediumSheets, cfg.Store.Medium)
	assert.Equal(t, "abc123", cfg.Sheets.SpreadsheetID)
}

func TestLoad_FromFile(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.yaml")
	yaml := `
server:
  port: 3000
store:
  medium: xlsx
  file_path: data/indicadores.xlsx
`
	require.NoError(t, os.WriteFile(configPath, []byte(yaml), 0644))
	t.Setenv("ICE_CONFIG_FILE", configPath)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, MediumXLSX, cfg.Store.Medium)
	assert.Equal(t, "data/indicadores.xlsx", cfg.Store.FilePath)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:    "invalid port",
			mutate:  func(c *Config) { c.Server.Port = -1 },
			wantErr: "invalid server port",
		},
		{
			name:    "unknown medium",
			mutate:  func(c *Config) { c.Store.Medium = "postgres" },
			wantErr: "unknown store medium",
		},
		{
			name:    "sheets without spreadsheet id",
			mutate:  func(c *Config) { c.Store.Medium = MediumSheets; c.Sheets.SpreadsheetID = "" },
			wantErr: "spreadsheet ID is required",
		},
		{
			name:    "csv without file path",
			mutate:  func(c *Config) { c.Store.FilePath = "" },
			wantErr: "file path is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Config{
				Server: ServerConfig{
					Port:         8080,
					ReadTimeout:  15 * time.Second,
					WriteTimeout: 15 * time.Second,
				},
				Store: StoreConfig{
					Medium:   MediumCSV,
					FilePath: "data/indicadores.csv",
				},
			}
			tt.mutate(&cfg)

			err := cfg.validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
