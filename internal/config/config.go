package config

import (
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds application configuration
type Config struct {
	// Runtime
	Env      string
	LogLevel string
	Port     string

	// Database
	DBHost         string
	DBPort         string
	DBUser         string
	DBPassword     string
	DBName         string
	DBSSLMode      string
	DBMaxOpenConns int
	DBMaxIdleConns int
	MigrationsPath string

	// JWT
	JWTSecret        string
	JWTIssuer        string
	JWTExpirationDur time.Duration

	// Maintenance endpoints; empty disables them
	ServiceAPIKey string

	// Location used to interpret date-only inputs
	Timezone *time.Location

	CORSAllowedOrigins []string
}

var appConfig *Config

var defaults = map[string]any{
	"ENV":                  "development",
	"LOG_LEVEL":            "info",
	"PORT":                 "8080",
	"DB_HOST":              "localhost",
	"DB_PORT":              "5432",
	"DB_USER":              "cashbook",
	"DB_PASSWORD":          "cashbook",
	"DB_NAME":              "cashbook",
	"DB_SSLMODE":           "disable",
	"DB_MAX_OPEN_CONNS":    50,
	"DB_MAX_IDLE_CONNS":    10,
	"MIGRATIONS_PATH":      "file://migrations",
	"JWT_SECRET":           "fallback-secret-key-for-dev-only",
	"JWT_ISSUER":           "cashbook-api",
	"JWT_EXPIRES_IN":       "24h",
	"SERVICE_API_KEY":      "",
	"TIMEZONE":             "America/Lima",
	"CORS_ALLOWED_ORIGINS": "*",
}

// NewViper returns a viper instance with every configuration key defaulted
// and bound to the process environment.
func NewViper() *viper.Viper {
	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.AutomaticEnv()
	return v
}

// Load loads configuration from the environment, reading .env first when present.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found")
	}

	config := FromViper(NewViper())
	appConfig = config
	return config, nil
}

// FromViper builds a Config from an already populated viper instance.
// Invalid durations and time zones fall back to their defaults.
func FromViper(v *viper.Viper) *Config {
	config := &Config{
		Env:      v.GetString("ENV"),
		LogLevel: v.GetString("LOG_LEVEL"),
		Port:     v.GetString("PORT"),

		DBHost:         v.GetString("DB_HOST"),
		DBPort:         v.GetString("DB_PORT"),
		DBUser:         v.GetString("DB_USER"),
		DBPassword:     v.GetString("DB_PASSWORD"),
		DBName:         v.GetString("DB_NAME"),
		DBSSLMode:      v.GetString("DB_SSLMODE"),
		DBMaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
		DBMaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
		MigrationsPath: v.GetString("MIGRATIONS_PATH"),

		JWTSecret: v.GetString("JWT_SECRET"),
		JWTIssuer: v.GetString("JWT_ISSUER"),

		ServiceAPIKey: v.GetString("SERVICE_API_KEY"),
	}

	expStr := v.GetString("JWT_EXPIRES_IN")
	expDur, err := time.ParseDuration(expStr)
	if err != nil {
		log.Printf("Warning: invalid JWT_EXPIRES_IN value '%s', falling back to 24h\n", expStr)
		expDur = 24 * time.Hour
	}
	config.JWTExpirationDur = expDur

	tzName := v.GetString("TIMEZONE")
	loc, err := time.LoadLocation(tzName)
	if err != nil {
		log.Printf("Warning: invalid TIMEZONE value '%s', falling back to UTC\n", tzName)
		loc = time.UTC
	}
	config.Timezone = loc

	for _, origin := range strings.Split(v.GetString("CORS_ALLOWED_ORIGINS"), ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			config.CORSAllowedOrigins = append(config.CORSAllowedOrigins, origin)
		}
	}

	return config
}

// Get returns the application configuration
func Get() *Config {
	if appConfig == nil {
		var err error
		appConfig, err = Load()
		if err != nil {
			log.Fatalf("Failed to load configuration: %v", err)
		}
	}
	return appConfig
}

// Set replaces the process-wide configuration. Intended for tests and the CLI.
func Set(c *Config) {
	appConfig = c
}
