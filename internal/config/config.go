package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	Addr        string
	DataDir     string
	DatabaseURL string
	RedisURL    string
	CORSOrigin  string
	PlatformURL string
	TokenSecret string
	SessionTTL  time.Duration
	// Password hashing: "legacy" keeps compatibility with records migrated
	// from the browser build, "bcrypt" is for fresh deployments.
	PasswordScheme string
	MeiliURL       string
	MeiliMasterKey string
}

func Load() Config {
	return Config{
		Addr:           getenv("API_ADDR", ":8787"),
		DataDir:        getenv("REFORM_DATA_DIR", "./data"),
		DatabaseURL:    getenv("DATABASE_URL", ""),
		RedisURL:       getenv("REDIS_URL", ""),
		CORSOrigin:     getenv("REFORM_CORS_ORIGIN", "*"),
		PlatformURL:    getenv("REFORM_PLATFORM_URL", "http://localhost:8787"),
		TokenSecret:    getenv("REFORM_TOKEN_SECRET", "reform-dev-secret"),
		SessionTTL:     time.Duration(getenvInt("REFORM_SESSION_TTL_SECONDS", 86400)) * time.Second,
		PasswordScheme: getenv("REFORM_PASSWORD_SCHEME", "legacy"),
		MeiliURL:       getenv("MEILI_URL", ""),
		MeiliMasterKey: getenv("MEILI_MASTER_KEY", ""),
	}
}

func getenv(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}

func getenvInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}
