package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadFileDefaults(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("PORT", "")

	cfg, err := LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "gemini-1.5-flash", cfg.AI.Model)
	assert.Equal(t, 100, cfg.Upload.MaxFileSizeMB)
	assert.Equal(t, int64(100*1024*1024), cfg.Upload.MaxFileSizeBytes())
	assert.Equal(t, 3, cfg.Upload.MaxAttempts)
	assert.Equal(t, time.Second, cfg.Upload.BackoffUnit)
	assert.Equal(t, 8000, cfg.Server.Port)
	assert.Equal(t, []string{"*"}, cfg.Server.CORS.AllowedOrigins)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "text", cfg.Logging.Format)
}

func TestLoadFileYAMLAndEnv(t *testing.T) {
	path := writeConfig(t, `
ai:
  model: gemini-2.5-flash
upload:
  max_attempts: 5
  backoff_unit: 250ms
server:
  port: 9000
  cors:
    allowed_origins: ["https://verifylens.example"]
logging:
  format: json
`)
	t.Setenv("GEMINI_API_KEY", "env-key")
	t.Setenv("PORT", "9100")

	cfg, err := LoadFile(path)
	require.NoError(t, err)

	assert.Equal(t, "env-key", cfg.AI.GeminiAPIKey)
	assert.Equal(t, "gemini-2.5-flash", cfg.AI.Model)
	assert.Equal(t, 5, cfg.Upload.MaxAttempts)
	assert.Equal(t, 250*time.Millisecond, cfg.Upload.BackoffUnit)
	assert.Equal(t, 9100, cfg.Server.Port, "PORT overrides the file")
	assert.Equal(t, []string{"https://verifylens.example"}, cfg.Server.CORS.AllowedOrigins)
	assert.Equal(t, "json", cfg.Logging.Format)
}

func TestLoadFileRejectsBadInput(t *testing.T) {
	t.Run("malformed yaml", func(t *testing.T) {
		_, err := LoadFile(writeConfig(t, "ai: [unclosed"))
		assert.Error(t, err)
	})

	t.Run("non-numeric port", func(t *testing.T) {
		t.Setenv("PORT", "http")
		_, err := LoadFile(writeConfig(t, ""))
		assert.Error(t, err)
	})
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		cfg := &Config{AI: AIConfig{GeminiAPIKey: "key"}}
		cfg.applyDefaults()
		return cfg
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{name: "valid", mutate: func(*Config) {}},
		{name: "missing api key", mutate: func(c *Config) { c.AI.GeminiAPIKey = "" }, wantErr: true},
		{name: "negative attempts", mutate: func(c *Config) { c.Upload.MaxAttempts = -1 }, wantErr: true},
		{name: "port out of range", mutate: func(c *Config) { c.Server.Port = 70000 }, wantErr: true},
		{name: "unknown log format", mutate: func(c *Config) { c.Logging.Format = "xml" }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(cfg)
			err := cfg.validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestLoadUsesConfigFileEnv(t *testing.T) {
	path := writeConfig(t, "ai:\n  gemini_api_key: file-key\n")
	t.Setenv("CONFIG_FILE", path)
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("PORT", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "file-key", cfg.AI.GeminiAPIKey)
}

func TestEmailSection(t *testing.T) {
	t.Setenv("SMTP_PASSWORD", "from-env")

	cfg, err := LoadFile(writeConfig(t, `
email:
  smtp_server: smtp.example.com
  username: bot@example.com
  to_email: ops@example.com
monitoring:
  disabled: true
`))
	require.NoError(t, err)

	assert.True(t, cfg.Email.Enabled())
	assert.Equal(t, 587, cfg.Email.SMTPPort)
	assert.Equal(t, "bot@example.com", cfg.Email.FromEmail)
	assert.Equal(t, "from-env", cfg.Email.Password)
	assert.True(t, cfg.Monitoring.Disabled)

	assert.False(t, EmailConfig{SMTPServer: "smtp.example.com"}.Enabled())
}
