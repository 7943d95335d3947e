package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, 5000, cfg.Server.Port)
	assert.Equal(t, "http://localhost:8081", cfg.Images.BaseURL)
	assert.Equal(t, 30*time.Second, cfg.Images.Timeout)
	assert.False(t, cfg.Images.RejectTraversal)
	assert.Equal(t, "openai/clip-vit-base-patch32", cfg.Model.ID)
	assert.Equal(t, 512, cfg.Model.Dimensions)
	assert.Equal(t, 224, cfg.Model.ImageSize)
	assert.Equal(t, ":5000", cfg.Addr())
	require.NoError(t, cfg.Validate())
}

func TestLoadFromFile_KeepsDefaultsForMissingKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "imgvec.yaml")
	content := `
images:
  base_url: http://files.internal:9000
  reject_traversal: true
model:
  endpoint: http://triton:8000
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)

	assert.Equal(t, "http://files.internal:9000", cfg.Images.BaseURL)
	assert.True(t, cfg.Images.RejectTraversal)
	assert.Equal(t, "http://triton:8000", cfg.Model.Endpoint)
	assert.Equal(t, DefaultImageTimeout, cfg.Images.Timeout)
	assert.Equal(t, DefaultPort, cfg.Server.Port)
	assert.Equal(t, DefaultModelName, cfg.Model.Name)
}

func TestLoadFromFile_NotFound(t *testing.T) {
	_, err := LoadFromFile(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrConfigNotFound)
}

func TestLoadFromFile_Malformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server: [port"), 0o644))

	_, err := LoadFromFile(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse config file")
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("IMAGE_BASE_URL", "http://cdn.example:8081")
	t.Setenv("MODEL_ENDPOINT", "http://gpu-box:8000")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "http://cdn.example:8081", cfg.Images.BaseURL)
	assert.Equal(t, "http://gpu-box:8000", cfg.Model.Endpoint)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		errMsg string
	}{
		{"port", func(c *Config) { c.Server.Port = 0 }, "server.port"},
		{"base url", func(c *Config) { c.Images.BaseURL = "not a url" }, "images.base_url"},
		{"timeout", func(c *Config) { c.Images.Timeout = 0 }, "images.timeout"},
		{"model id", func(c *Config) { c.Model.ID = "" }, "model.id"},
		{"model name", func(c *Config) { c.Model.Name = "" }, "model.name"},
		{"endpoint", func(c *Config) { c.Model.Endpoint = "" }, "model.endpoint"},
		{"dimensions", func(c *Config) { c.Model.Dimensions = -1 }, "model.dimensions"},
		{"image size", func(c *Config) { c.Model.ImageSize = 0 }, "model.image_size"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}
