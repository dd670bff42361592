package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	ServerPort      string
	FirebaseProject string
	Environment     string
	StorageBucket   string

	ServiceAccountJSON string
	ServiceAccountPath string

	// Registration is limited to addresses under this domain, e.g. "campus.edu".
	AllowedEmailDomain string

	SendRatePerMinute int
	APIRatePerMinute  int
	WSPingInterval    time.Duration
	WSAllowAnyOrigin  bool
}

func Load() (*Config, error) {
	godotenv.Load()

	config := &Config{
		ServerPort:         getEnv("SERVER_PORT", "8080"),
		FirebaseProject:    getEnv("FIREBASE_PROJECT_ID", ""),
		Environment:        getEnv("ENVIRONMENT", "development"),
		StorageBucket:      getEnv("STORAGE_BUCKET", ""),
		ServiceAccountJSON: getEnv("FIREBASE_SERVICE_ACCOUNT_JSON", ""),
		ServiceAccountPath: getEnv("FIREBASE_SERVICE_ACCOUNT_PATH", "./firebase-service-account.json"),
		AllowedEmailDomain: strings.ToLower(strings.TrimPrefix(getEnv("ALLOWED_EMAIL_DOMAIN", ""), "@")),
		SendRatePerMinute:  int(getEnvAsInt64("SEND_RATE_PER_MINUTE", 20)),
		APIRatePerMinute:   int(getEnvAsInt64("API_RATE_PER_MINUTE", 120)),
		WSPingInterval:     getEnvAsDuration("WS_PING_INTERVAL", 30*time.Second),
		WSAllowAnyOrigin:   getEnvAsBool("WS_ALLOW_ANY_ORIGIN", true),
	}

	return config, nil
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvAsInt64(key string, defaultValue int64) int64 {
	if value, exists := os.LookupEnv(key); exists {
		intValue, err := strconv.ParseInt(value, 10, 64)
		if err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		boolValue, err := strconv.ParseBool(value)
		if err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		d, err := time.ParseDuration(value)
		if err == nil && d > 0 {
			return d
		}
	}
	return defaultValue
}
