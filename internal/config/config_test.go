package config

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	c, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "info", c.LogLevel)
	assert.Equal(t, 12*time.Second, c.LoadTimeout)
	assert.Equal(t, 700, c.PreviewMaxWidth)
	assert.Equal(t, 450, c.PreviewMaxHeight)
	assert.NotEmpty(t, c.StorageDir)
	assert.NotEmpty(t, c.DatabasePath)
	assert.Equal(t, 60*time.Second, c.HTTPTimeout)
	assert.Empty(t, c.InpaintEndpoint)
}

func TestLoad_FileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "image-studio.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
log_level: debug
load_timeout: 3s
preview_max_width: 320
public_base_url: https://cdn.example.com
`), 0o644))

	t.Setenv("IMAGE_STUDIO_PREVIEW_MAX_HEIGHT", "200")
	t.Setenv("IMAGE_STUDIO_AUTH_TOKEN", "secret")
	t.Setenv("IMAGE_STUDIO_HTTP_TOKEN", "let-me-in")

	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "debug", c.LogLevel)
	assert.Equal(t, 3*time.Second, c.LoadTimeout)
	assert.Equal(t, 320, c.PreviewMaxWidth)
	assert.Equal(t, 200, c.PreviewMaxHeight)
	assert.Equal(t, "https://cdn.example.com", c.PublicBaseURL)
	assert.Equal(t, "secret", c.AuthToken)
	assert.Equal(t, "let-me-in", c.HTTPToken)
}

func TestLoad_Invalid(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	t.Setenv("IMAGE_STUDIO_LOG_FORMAT", "xml")
	t.Setenv("IMAGE_STUDIO_PREVIEW_MAX_WIDTH", "0")
	_, err = Load("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "log_format")
	assert.Contains(t, err.Error(), "preview cap")
}

func TestNewLogger(t *testing.T) {
	c := &Config{LogLevel: "warn", LogFormat: "json"}
	var buf bytes.Buffer
	log := c.NewLogger(&buf)

	assert.Equal(t, logrus.WarnLevel, log.GetLevel())
	log.Info("hidden")
	log.WithField("session", "s1").Warn("shown")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), `"session":"s1"`)
}
