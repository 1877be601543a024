package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all service configuration loaded from environment variables.
type Config struct {
	Port      string
	RelayPort string
	LogLevel  string

	PostgresDSN   string
	MongoURI      string
	MongoDB       string
	RedisAddr     string
	RedisPassword string

	StorageBackend string
	StorageDir     string
	MinioEndpoint  string
	MinioAccessKey string
	MinioSecretKey string
	MinioBucket    string
	MinioUseSSL    bool
	MaxUploadBytes int64
	MaxImagePixels int

	SessionSecret string
	SessionTTL    time.Duration

	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	MailFrom     string
	LoginURL     string

	RemoveBGURL     string
	RemoveBGAPIKey  string
	RemoveBGTimeout time.Duration

	AllowedOrigins []string
}

// Load reads an optional .env file and then the process environment.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		Port:      getenv("PORT", "8080"),
		RelayPort: getenv("RELAY_PORT", "5001"),
		LogLevel:  getenv("LOG_LEVEL", "info"),

		PostgresDSN:   getenv("POSTGRES_DSN", ""),
		MongoURI:      getenv("MONGO_URI", ""),
		MongoDB:       getenv("MONGO_DB", "image_editor"),
		RedisAddr:     getenv("REDIS_ADDR", "redis:6379"),
		RedisPassword: getenv("REDIS_PASSWORD", ""),

		StorageBackend: getenv("STORAGE_BACKEND", "disk"),
		StorageDir:     getenv("STORAGE_DIR", "static"),
		MinioEndpoint:  getenv("MINIO_ENDPOINT", "minio:9000"),
		MinioAccessKey: getenv("MINIO_ACCESS_KEY", ""),
		MinioSecretKey: getenv("MINIO_SECRET_KEY", ""),
		MinioBucket:    getenv("MINIO_BUCKET", "images"),
		MinioUseSSL:    getenvBool("MINIO_USE_SSL", false),
		MaxUploadBytes: int64(getenvInt("MAX_UPLOAD_BYTES", 16<<20)),
		MaxImagePixels: getenvInt("MAX_IMAGE_PIXELS", 40_000_000),

		SessionSecret: getenv("SESSION_SECRET", ""),
		SessionTTL:    getenvDuration("SESSION_TTL", 24*time.Hour),

		SMTPHost:     getenv("SMTP_HOST", ""),
		SMTPPort:     getenvInt("SMTP_PORT", 587),
		SMTPUsername: getenv("SMTP_USERNAME", ""),
		SMTPPassword: getenv("SMTP_PASSWORD", ""),
		MailFrom:     getenv("MAIL_FROM", ""),
		LoginURL:     getenv("LOGIN_URL", "http://127.0.0.1:8080/login"),

		RemoveBGURL:     getenv("REMOVEBG_URL", "https://api.remove.bg/v1.0/removebg"),
		RemoveBGAPIKey:  getenv("REMOVEBG_API_KEY", ""),
		RemoveBGTimeout: getenvDuration("REMOVEBG_TIMEOUT", time.Minute),

		AllowedOrigins: getenvList("ALLOWED_ORIGINS", []string{"http://localhost:5173", "http://localhost:3000"}),
	}
}

// MailEnabled reports whether enough SMTP settings are present to send mail.
func (c *Config) MailEnabled() bool {
	return c.SMTPHost != "" && c.MailFrom != ""
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getenvInt(key string, fallback int) int {
	v, err := strconv.Atoi(getenv(key, ""))
	if err != nil {
		return fallback
	}
	return v
}

func getenvBool(key string, fallback bool) bool {
	v, err := strconv.ParseBool(getenv(key, ""))
	if err != nil {
		return fallback
	}
	return v
}

func getenvDuration(key string, fallback time.Duration) time.Duration {
	v, err := time.ParseDuration(getenv(key, ""))
	if err != nil {
		return fallback
	}
	return v
}

func getenvList(key string, fallback []string) []string {
	raw := getenv(key, "")
	if raw == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
