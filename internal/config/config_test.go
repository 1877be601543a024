package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("SESSION_TTL", "")
	t.Setenv("STORAGE_BACKEND", "")
	t.Setenv("ALLOWED_ORIGINS", "")
	t.Setenv("MAX_IMAGE_PIXELS", "")

	cfg := Load()

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, 24*time.Hour, cfg.SessionTTL)
	assert.Equal(t, "disk", cfg.StorageBackend)
	assert.Equal(t, "https://api.remove.bg/v1.0/removebg", cfg.RemoveBGURL)
	assert.Equal(t, []string{"http://localhost:5173", "http://localhost:3000"}, cfg.AllowedOrigins)
	assert.Equal(t, 40_000_000, cfg.MaxImagePixels)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("SESSION_TTL", "30m")
	t.Setenv("SMTP_PORT", "2525")
	t.Setenv("MINIO_USE_SSL", "true")
	t.Setenv("ALLOWED_ORIGINS", "https://a.example, https://b.example ,")
	t.Setenv("MAX_IMAGE_PIXELS", "1000000")

	cfg := Load()

	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, 30*time.Minute, cfg.SessionTTL)
	assert.Equal(t, 2525, cfg.SMTPPort)
	assert.True(t, cfg.MinioUseSSL)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.AllowedOrigins)
	assert.Equal(t, 1000000, cfg.MaxImagePixels)
}

func TestLoad_BadValuesFallBack(t *testing.T) {
	t.Setenv("SMTP_PORT", "abc")
	t.Setenv("SESSION_TTL", "forever")
	t.Setenv("MINIO_USE_SSL", "maybe")

	cfg := Load()

	assert.Equal(t, 587, cfg.SMTPPort)
	assert.Equal(t, 24*time.Hour, cfg.SessionTTL)
	assert.False(t, cfg.MinioUseSSL)
}

func TestMailEnabled(t *testing.T) {
	assert.False(t, (&Config{}).MailEnabled())
	assert.False(t, (&Config{SMTPHost: "smtp.example"}).MailEnabled())
	assert.True(t, (&Config{SMTPHost: "smtp.example", MailFrom: "noreply@example"}).MailEnabled())
}
