package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	Port string

	StoreBackend  string
	DataDir       string
	DatabaseURL   string
	MongoURI      string
	MongoDatabase string

	AdminPassword      string
	JWTSecret          string
	CorsAllowedOrigins []string
	SecureCookies      bool

	OpenAIAPIKey string
	OpenAIModel  string

	GCSBucket          string
	GCSCredentialsFile string

	LogLevel string
	LogJSON  bool
}

// Load reads the environment, with an optional .env file underneath it.
func Load() Config {
	_ = godotenv.Load()

	return Config{
		Port:               getEnv("PORT", "8080"),
		StoreBackend:       strings.ToLower(getEnv("STORE_BACKEND", "badger")),
		DataDir:            getEnv("DATA_DIR", "./data"),
		DatabaseURL:        getEnv("DATABASE_URL", ""),
		MongoURI:           getEnv("MONGO_URI", ""),
		MongoDatabase:      getEnv("MONGO_DATABASE", "oceanjournal"),
		AdminPassword:      getEnv("ADMIN_PASSWORD", ""),
		JWTSecret:          getEnv("JWT_SECRET", ""),
		CorsAllowedOrigins: splitCSV(getEnv("CORS_ALLOWED_ORIGINS", "*")),
		SecureCookies:      getBool("SECURE_COOKIES", false),
		OpenAIAPIKey:       getEnv("OPENAI_API_KEY", ""),
		OpenAIModel:        getEnv("OPENAI_MODEL", "gpt-4o-mini"),
		GCSBucket:          getEnv("GCS_BUCKET", ""),
		GCSCredentialsFile: getEnv("GCS_CREDENTIALS_FILE", ""),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		LogJSON:            getBool("LOG_JSON", false),
	}
}

// Validate reports every missing value the server needs.
func (c Config) Validate() error {
	errs := []error{c.ValidateStore()}
	if c.AdminPassword == "" {
		errs = append(errs, errors.New("ADMIN_PASSWORD is required"))
	}
	if c.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET is required"))
	}
	return errors.Join(errs...)
}

// ValidateStore checks only what the selected store backend needs.
func (c Config) ValidateStore() error {
	switch c.StoreBackend {
	case "badger", "sqlite":
		if c.DataDir == "" {
			return errors.New("DATA_DIR is required")
		}
	case "postgres":
		if c.DatabaseURL == "" {
			return errors.New("DATABASE_URL is required for the postgres backend")
		}
	case "mongo":
		if c.MongoURI == "" {
			return errors.New("MONGO_URI is required for the mongo backend")
		}
	default:
		return fmt.Errorf("STORE_BACKEND %q is not one of badger, sqlite, postgres, mongo", c.StoreBackend)
	}
	return nil
}

func getEnv(key, fallback string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	return value
}

func getBool(key string, fallback bool) bool {
	v, err := strconv.ParseBool(getEnv(key, ""))
	if err != nil {
		return fallback
	}
	return v
}

func splitCSV(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		item := strings.TrimSpace(part)
		if item != "" {
			out = append(out, item)
		}
	}
	if len(out) == 0 {
		return []string{"*"}
	}
	return out
}
