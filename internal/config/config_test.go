package config

import (
	"strings"
	"testing"
	"time"
)

func TestLoad_DefaultsAndRequired(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("SERVICE_URL", "")
	t.Setenv("PHOTO_CAP_MODE", "")
	t.Setenv("STORAGE_BUCKET", "")
	t.Setenv("STORAGE_PUBLIC_BASE", "")

	cfg := Load()
	err := cfg.Validate()
	if err == nil {
		t.Fatalf("expected validation error with missing DATABASE_URL and SERVICE_URL")
	}
	for _, want := range []string{"DATABASE_URL", "SERVICE_URL"} {
		if !strings.Contains(err.Error(), want) {
			t.Fatalf("error %q does not mention %s", err, want)
		}
	}
	if cfg.PhotoCapMode != CapModeLenient {
		t.Fatalf("expected lenient default, got %q", cfg.PhotoCapMode)
	}
	if cfg.StorageBucket != "room-photos" {
		t.Fatalf("unexpected default bucket %q", cfg.StorageBucket)
	}
}

func TestLoad_PublicBaseDerivedFromServiceURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://x")
	t.Setenv("SERVICE_URL", "http://localhost:8000/")
	t.Setenv("STORAGE_BUCKET", "")
	t.Setenv("STORAGE_PUBLIC_BASE", "")
	t.Setenv("PHOTO_CAP_MODE", "STRICT")
	t.Setenv("SWEEP_GRACE", "5m")
	t.Setenv("APP_ENV", "")

	cfg := Load()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if cfg.ServiceURL != "http://localhost:8000" {
		t.Fatalf("trailing slash not trimmed: %q", cfg.ServiceURL)
	}
	if want := "http://localhost:8000/storage/v1/object/public/room-photos"; cfg.StoragePublicBase != want {
		t.Fatalf("public base = %q, want %q", cfg.StoragePublicBase, want)
	}
	if !cfg.StrictPhotoCap() {
		t.Fatalf("expected strict mode")
	}
	if cfg.SweepGrace != 5*time.Minute {
		t.Fatalf("sweep grace = %s", cfg.SweepGrace)
	}
}

func TestValidate_RejectsUnknownCapMode(t *testing.T) {
	cfg := &Config{DatabaseURL: "postgres://x", ServiceURL: "http://x", PhotoCapMode: "sometimes"}
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected error for unknown cap mode")
	}
}

func TestValidate_ProductionNeedsSecret(t *testing.T) {
	cfg := &Config{DatabaseURL: "postgres://x", ServiceURL: "http://x", PhotoCapMode: CapModeLenient,
		AppEnv: "production", JWTSecret: defaultJWTSecret}
	if err := cfg.Validate(); err == nil || !strings.Contains(err.Error(), "JWT_SECRET") {
		t.Fatalf("expected JWT_SECRET error, got %v", err)
	}
	cfg.JWTSecret = "s3cret"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}
