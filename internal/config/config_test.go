package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaultsWithoutFile(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.False(t, cfg.OpenAI.Enabled)
	assert.Equal(t, "gpt-4o-mini", cfg.OpenAI.Model)
	assert.Equal(t, 20, cfg.OCR.MaxPages)
	assert.Equal(t, 80, cfg.OCR.MinTextChars)
	assert.Equal(t, 500, cfg.Upload.MaxFiles)
	assert.Equal(t, 25, cfg.Upload.MaxFileMB)
	assert.Equal(t, int64(25<<20), cfg.Upload.MaxFileBytes())
	assert.Equal(t, 2*time.Hour, cfg.Jobs.TTL)
	assert.Equal(t, "info", cfg.Logger.Level)
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yaml := `
server:
  port: 9090
openai:
  enabled: true
  api_key: sk-test
  model: gpt-4o
upload:
  max_files: 10
  max_file_mb: 5
logger:
  level: debug
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.True(t, cfg.OpenAI.Enabled)
	assert.Equal(t, "gpt-4o", cfg.OpenAI.Model)
	assert.Equal(t, 10, cfg.Upload.MaxFiles)
	assert.Equal(t, int64(5<<20), cfg.Upload.MaxFileBytes())
	assert.Equal(t, "debug", cfg.Logger.Level)
}

func TestLoadRejectsBrokenConfig(t *testing.T) {
	dir := t.TempDir()

	llm := filepath.Join(dir, "llm.yaml")
	require.NoError(t, os.WriteFile(llm, []byte("openai:\n  enabled: true\n"), 0644))
	_, err := Load(llm)
	assert.ErrorContains(t, err, "openai.api_key")

	port := filepath.Join(dir, "port.yaml")
	require.NoError(t, os.WriteFile(port, []byte("server:\n  port: -1\n"), 0644))
	_, err = Load(port)
	assert.ErrorContains(t, err, "server.port")

	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("server: [broken"), 0644))
	_, err = Load(bad)
	assert.Error(t, err)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-env")
	t.Setenv("ENABLE_LLM", "true")
	t.Setenv("MAX_UPLOAD_FILES", "42")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.True(t, cfg.OpenAI.Enabled)
	assert.Equal(t, "sk-env", cfg.OpenAI.APIKey)
	assert.Equal(t, 42, cfg.Upload.MaxFiles)
}
