package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// Server
	Port string
	Env  string

	// Database
	DatabaseURL string

	// Redis
	RedisURL string

	// JWT
	JWTSecret string

	// Shared secret presented by capture agents
	AgentToken string

	// Gemini AI (evaluation summaries)
	GeminiAPIKey         string
	GeminiConcurrentReqs int

	// Object storage (Cloudinary-compatible upload API)
	StorageCloudName string
	StorageAPIKey    string
	StorageAPISecret string
	StorageFolder    string

	// SMTP
	SMTPHost string
	SMTPPort string
	SMTPUser string
	SMTPPass string
	SMTPFrom string

	// Memo escalation
	EscalationPollInterval time.Duration

	// Frontend
	FrontendURL string
}

// AgentConfig configures the desktop capture agent.
type AgentConfig struct {
	PortalURL  string
	AgentToken string

	StorageCloudName string
	StorageAPIKey    string
	StorageAPISecret string
	StorageFolder    string

	CaptureInterval time.Duration
}

func Load() *Config {
	// Load .env file if it exists
	godotenv.Load()

	cfg := &Config{
		Port:                   getEnvOrDefault("PORT", "8080"),
		Env:                    getEnvOrDefault("ENV", "development"),
		DatabaseURL:            mustGetEnv("DATABASE_URL"),
		RedisURL:               mustGetEnv("REDIS_URL"),
		JWTSecret:              mustGetEnv("JWT_SECRET"),
		AgentToken:             mustGetEnv("AGENT_TOKEN"),
		GeminiAPIKey:           mustGetEnv("GEMINI_API_KEY"),
		GeminiConcurrentReqs:   getEnvAsIntOrDefault("GEMINI_CONCURRENT_REQUESTS", 5),
		StorageCloudName:       getEnvOrDefault("STORAGE_CLOUD_NAME", ""),
		StorageAPIKey:          getEnvOrDefault("STORAGE_API_KEY", ""),
		StorageAPISecret:       getEnvOrDefault("STORAGE_API_SECRET", ""),
		StorageFolder:          getEnvOrDefault("STORAGE_FOLDER", "pulsehr"),
		SMTPHost:               getEnvOrDefault("SMTP_HOST", ""),
		SMTPPort:               getEnvOrDefault("SMTP_PORT", "587"),
		SMTPUser:               getEnvOrDefault("SMTP_USER", ""),
		SMTPPass:               getEnvOrDefault("SMTP_PASS", ""),
		SMTPFrom:               getEnvOrDefault("SMTP_FROM", "noreply@pulsehr.app"),
		EscalationPollInterval: getEnvAsDurationOrDefault("ESCALATION_POLL_INTERVAL", time.Hour),
		FrontendURL:            getEnvOrDefault("FRONTEND_URL", "http://localhost:5173"),
	}

	return cfg
}

// LoadAgent reads the capture agent configuration.
func LoadAgent() *AgentConfig {
	godotenv.Load()

	return &AgentConfig{
		PortalURL:        getEnvOrDefault("PORTAL_URL", "http://localhost:8080"),
		AgentToken:       mustGetEnv("AGENT_TOKEN"),
		StorageCloudName: mustGetEnv("STORAGE_CLOUD_NAME"),
		StorageAPIKey:    mustGetEnv("STORAGE_API_KEY"),
		StorageAPISecret: mustGetEnv("STORAGE_API_SECRET"),
		StorageFolder:    getEnvOrDefault("STORAGE_FOLDER", "pulsehr"),
		CaptureInterval:  getEnvAsDurationOrDefault("CAPTURE_INTERVAL", 3*time.Minute),
	}
}

func mustGetEnv(key string) string {
	val := os.Getenv(key)
	if val == "" {
		panic(fmt.Sprintf("required environment variable %s is not set", key))
	}
	return val
}

func getEnvOrDefault(key, defaultVal string) string {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func getEnvAsIntOrDefault(key string, defaultVal int) int {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}
	return n
}

func getEnvAsDurationOrDefault(key string, defaultVal time.Duration) time.Duration {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return defaultVal
	}
	return d
}
