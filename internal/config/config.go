package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	Environment    string
	Port           string
	DatabaseURL    string
	MigrationsPath string
	RedisURL       string
	CatalogPath    string
	DoctorsPath    string

	InfermedicaAppID  string
	InfermedicaAppKey string
	InfermedicaURL    string
	OpenFDAURL        string
	EpidemiologyURL   string
	FHIRURL           string

	TelegramBotToken string
	DoctorChatID     int64

	MinioEndpoint  string
	MinioAccessKey string
	MinioSecretKey string
	MinioBucket    string
	MinioUseSSL    bool
}

// getEnvWithDefault gets an environment variable with a default value
func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// Load reads configuration from the environment, after loading a .env file
// when one is present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	env := strings.ToLower(getEnvWithDefault("ENVIRONMENT", "development"))
	validEnvs := map[string]bool{
		"development": true,
		"staging":     true,
		"production":  true,
	}
	if !validEnvs[env] {
		return nil, fmt.Errorf("invalid environment value: %s", env)
	}

	var chatID int64
	if raw := os.Getenv("DOCTOR_CHAT_ID"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid DOCTOR_CHAT_ID %q: %w", raw, err)
		}
		chatID = id
	}

	useSSL := true
	if raw := os.Getenv("MINIO_USE_SSL"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid MINIO_USE_SSL %q: %w", raw, err)
		}
		useSSL = v
	}

	return &Config{
		Environment:    env,
		Port:           getEnvWithDefault("PORT", "8080"),
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		MigrationsPath: getEnvWithDefault("MIGRATIONS_PATH", "file://migrations"),
		RedisURL:       os.Getenv("REDIS_URL"),
		CatalogPath:    os.Getenv("CATALOG_PATH"),
		DoctorsPath:    os.Getenv("DOCTORS_PATH"),

		InfermedicaAppID:  os.Getenv("INFERMEDICA_APP_ID"),
		InfermedicaAppKey: os.Getenv("INFERMEDICA_APP_KEY"),
		InfermedicaURL:    getEnvWithDefault("INFERMEDICA_URL", "https://api.infermedica.com/v3"),
		OpenFDAURL:        getEnvWithDefault("OPENFDA_URL", "https://api.fda.gov"),
		EpidemiologyURL:   os.Getenv("EPIDEMIOLOGY_URL"),
		FHIRURL:           os.Getenv("FHIR_URL"),

		TelegramBotToken: os.Getenv("TELEGRAM_BOT_TOKEN"),
		DoctorChatID:     chatID,

		MinioEndpoint:  os.Getenv("MINIO_ENDPOINT"),
		MinioAccessKey: os.Getenv("MINIO_ACCESS_KEY"),
		MinioSecretKey: os.Getenv("MINIO_SECRET_KEY"),
		MinioBucket:    getEnvWithDefault("MINIO_BUCKET", "diagnosis-reports"),
		MinioUseSSL:    useSSL,
	}, nil
}

func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// InfermedicaEnabled reports whether live diagnosis credentials are set.
func (c *Config) InfermedicaEnabled() bool {
	return c.InfermedicaAppID != "" && c.InfermedicaAppKey != ""
}
