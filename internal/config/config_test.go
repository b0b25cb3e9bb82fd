package config

import (
	"testing"
	"time"
)

func TestLoad_RequiresDatabaseURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	if _, err := Load(); err == nil {
		t.Fatal("expected error when DATABASE_URL is unset")
	}
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/telehealth")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != "8000" {
		t.Errorf("Port = %q", cfg.Port)
	}
	if !cfg.IsDev() {
		t.Error("expected development default")
	}
	if cfg.BandwidthProbeTimeout != 5*time.Second {
		t.Errorf("BandwidthProbeTimeout = %v", cfg.BandwidthProbeTimeout)
	}
	if cfg.SessionSweepInterval != time.Minute {
		t.Errorf("SessionSweepInterval = %v", cfg.SessionSweepInterval)
	}
	if len(cfg.STUNServers) == 0 {
		t.Error("expected default STUN server")
	}
	if cfg.ZoomConfigured() {
		t.Error("zoom should not be configured by default")
	}
}

func TestLoad_SplitsOrigins(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/telehealth")
	t.Setenv("CORS_ORIGINS", "https://a.example.com,https://b.example.com")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(cfg.CORSOrigins) != 2 {
		t.Fatalf("CORSOrigins = %v", cfg.CORSOrigins)
	}
}

func TestValidate_ProductionNeedsSigningKey(t *testing.T) {
	cfg := &Config{
		Env:                   "production",
		BandwidthProbeTimeout: time.Second,
		SessionSweepInterval:  time.Minute,
	}
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for missing AUTH_SIGNING_KEY in production")
	}

	cfg.AuthSigningKey = "secret"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidate_ZoomSecretPairing(t *testing.T) {
	cfg := &Config{
		Env:                   "development",
		ZoomAPIKey:            "key",
		BandwidthProbeTimeout: time.Second,
		SessionSweepInterval:  time.Minute,
	}
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error when ZOOM_API_KEY set without secret")
	}
	cfg.ZoomAPISecret = "secret"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
