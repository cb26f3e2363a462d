// Package config loads application configuration from environment variables.
package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const defaultJWTSecret = "change_me_in_production"

// Photo cap enforcement modes.
const (
	CapModeLenient = "lenient"
	CapModeStrict  = "strict"
)

// Config holds all runtime configuration for the service.
type Config struct {
	DatabaseURL string
	// ServiceURL is the public base address of the backend service. Photo URLs
	// are canonicalized to "<ServiceURL>/storage/v1/object/public/<bucket>/<path>".
	ServiceURL string
	JWTSecret  string
	Port       string
	AppEnv     string

	AdminUsername     string
	AdminPasswordHash string // bcrypt hash

	// Object storage (S3-compatible)
	StorageEndpoint   string
	StorageAccessKey  string
	StorageSecretKey  string
	StorageBucket     string
	StorageUseSSL     bool
	StoragePublicBase string // browser-accessible base URL for objects in the bucket

	PhotoCapMode  string
	SweepSchedule string
	SweepGrace    time.Duration
}

// Load reads configuration from a .env file (if present) and environment variables.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file found, reading from environment")
	}

	serviceURL := strings.TrimRight(os.Getenv("SERVICE_URL"), "/")
	bucket := getEnv("STORAGE_BUCKET", "room-photos")

	return &Config{
		DatabaseURL: os.Getenv("DATABASE_URL"),
		ServiceURL:  serviceURL,
		JWTSecret:   getEnv("JWT_SECRET", defaultJWTSecret),
		Port:        getEnv("PORT", "8080"),
		AppEnv:      getEnv("APP_ENV", "development"),

		AdminUsername:     getEnv("ADMIN_USERNAME", "admin"),
		AdminPasswordHash: os.Getenv("ADMIN_PASSWORD_HASH"),

		StorageEndpoint:   getEnv("STORAGE_ENDPOINT", "localhost:9000"),
		StorageAccessKey:  getEnv("STORAGE_ACCESS_KEY", "minioadmin"),
		StorageSecretKey:  getEnv("STORAGE_SECRET_KEY", "minioadmin"),
		StorageBucket:     bucket,
		StorageUseSSL:     getEnv("STORAGE_USE_SSL", "false") == "true",
		StoragePublicBase: getEnv("STORAGE_PUBLIC_BASE", serviceURL+"/storage/v1/object/public/"+bucket),

		PhotoCapMode:  strings.ToLower(getEnv("PHOTO_CAP_MODE", CapModeLenient)),
		SweepSchedule: getEnv("SWEEP_SCHEDULE", "@every 15m"),
		SweepGrace:    getDuration("SWEEP_GRACE", 30*time.Minute),
	}
}

// Validate reports missing or malformed settings. The database and the service
// base address have no usable defaults.
func (c *Config) Validate() error {
	var errs []error
	if c.DatabaseURL == "" {
		errs = append(errs, errors.New("DATABASE_URL is required"))
	}
	if c.ServiceURL == "" {
		errs = append(errs, errors.New("SERVICE_URL is required"))
	}
	if c.PhotoCapMode != CapModeLenient && c.PhotoCapMode != CapModeStrict {
		errs = append(errs, fmt.Errorf("PHOTO_CAP_MODE must be %q or %q, got %q", CapModeLenient, CapModeStrict, c.PhotoCapMode))
	}
	if c.IsProduction() && c.JWTSecret == defaultJWTSecret {
		errs = append(errs, errors.New("JWT_SECRET must be set in production"))
	}
	return errors.Join(errs...)
}

// IsProduction returns true when the app is running in production mode.
func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// StrictPhotoCap reports whether the per-room photo cap is enforced atomically.
func (c *Config) StrictPhotoCap() bool {
	return c.PhotoCapMode == CapModeStrict
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		log.Printf("config: invalid %s=%q, using %s", key, v, fallback)
		return fallback
	}
	return d
}
