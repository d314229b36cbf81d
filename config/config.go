package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// This function will Load the ENVIORNMENT VARIABLES from .env if GO_ENV variable is not set
func LoadENV() error {
	goEnv := os.Getenv("GO_ENV")

	if goEnv == "" || goEnv == "development" {
		err := godotenv.Load()
		if err != nil {
			return err
		}
	}

	return nil
}

type EnviornmentVariable struct {
	// All variables
	GO_ENV       string
	DB_USER_NAME string
	DB_PASSWORD  string
	DB_NAME      string
	DB_HOST      string
	DB_PORT      string
	DB_SSL_MODE  string
	PORT         int
	// Store selection: gorm | sql | memory
	STORE_DRIVER string
	// Logging
	LOG_MODE  string
	LOG_LEVEL string
	// JWT Configuration
	JWT_SECRET string
	JWT_ISSUER string
	// HTTP
	ALLOWED_ORIGINS     string
	RATE_LIMIT_REQUESTS int
	// Redis Configuration
	REDIS_URL       string
	REDIS_TTL_HOURS int
	// Inference Configuration
	DO_INFERENCE_API_KEY      string
	INFERENCE_MODEL           string
	INFERENCE_BASE_URL        string
	INFERENCE_TIMEOUT_SECONDS int
	// Resource curation
	TRUSTED_HOSTS_FILE string
	// DigitalOcean Spaces Configuration
	DO_SPACES_KEY      string
	DO_SPACES_SECRET   string
	DO_SPACES_BUCKET   string
	DO_SPACES_REGION   string
	DO_SPACES_ENDPOINT string
}

func Get() (*EnviornmentVariable, error) {

	port, err := strconv.Atoi(os.Getenv("PORT"))
	if err != nil {
		port = 8080
	}

	// Database defaults
	dbHost := os.Getenv("DB_HOST")
	if dbHost == "" {
		dbHost = "localhost"
	}

	dbPort := os.Getenv("DB_PORT")
	if dbPort == "" {
		dbPort = "5432"
	}

	sslMode := os.Getenv("DB_SSL_MODE")
	if sslMode == "" {
		sslMode = "disable"
	}

	envVariables := &EnviornmentVariable{
		GO_ENV:       os.Getenv("GO_ENV"),
		DB_USER_NAME: os.Getenv("DB_USER_NAME"),
		DB_PASSWORD:  os.Getenv("DB_PASSWORD"),
		DB_NAME:      os.Getenv("DB_NAME"),
		DB_HOST:      dbHost,
		DB_PORT:      dbPort,
		DB_SSL_MODE:  sslMode,
		PORT:         port,
		STORE_DRIVER: getEnvDefault("STORE_DRIVER", "gorm"),
		// Logging
		LOG_MODE:  getEnvDefault("LOG_MODE", "development"),
		LOG_LEVEL: getEnvDefault("LOG_LEVEL", "info"),
		// JWT
		JWT_SECRET: os.Getenv("JWT_SECRET"),
		JWT_ISSUER: getEnvDefault("JWT_ISSUER", "course-week-planner"),
		// HTTP
		ALLOWED_ORIGINS:     getEnvDefault("ALLOWED_ORIGINS", "http://localhost:3000,http://localhost:3001"),
		RATE_LIMIT_REQUESTS: getEnvInt("RATE_LIMIT_REQUESTS", 100),
		// Redis
		REDIS_URL:       os.Getenv("REDIS_URL"),
		REDIS_TTL_HOURS: getEnvInt("REDIS_TTL_HOURS", 24),
		// Inference
		DO_INFERENCE_API_KEY:      os.Getenv("DO_INFERENCE_API_KEY"),
		INFERENCE_MODEL:           os.Getenv("INFERENCE_MODEL"),
		INFERENCE_BASE_URL:        os.Getenv("INFERENCE_BASE_URL"),
		INFERENCE_TIMEOUT_SECONDS: getEnvInt("INFERENCE_TIMEOUT_SECONDS", 60),
		TRUSTED_HOSTS_FILE:        os.Getenv("TRUSTED_HOSTS_FILE"),
		// DigitalOcean
		DO_SPACES_KEY:      os.Getenv("DO_SPACES_KEY"),
		DO_SPACES_SECRET:   os.Getenv("DO_SPACES_SECRET"),
		DO_SPACES_BUCKET:   os.Getenv("DO_SPACES_BUCKET"),
		DO_SPACES_REGION:   getEnvDefault("DO_SPACES_REGION", "blr1"),
		DO_SPACES_ENDPOINT: os.Getenv("DO_SPACES_ENDPOINT"),
	}

	return envVariables, nil
}

func getEnvDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v, err := strconv.Atoi(os.Getenv(key))
	if err != nil || v <= 0 {
		return fallback
	}
	return v
}
