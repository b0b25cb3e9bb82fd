package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Port        string   `mapstructure:"PORT"`
	Env         string   `mapstructure:"ENV"`
	DatabaseURL string   `mapstructure:"DATABASE_URL"`
	DBMaxConns  int32    `mapstructure:"DB_MAX_CONNS"`
	DBMinConns  int32    `mapstructure:"DB_MIN_CONNS"`
	CORSOrigins []string `mapstructure:"CORS_ORIGINS"`

	AuthIssuer     string `mapstructure:"AUTH_ISSUER"`
	AuthAudience   string `mapstructure:"AUTH_AUDIENCE"`
	AuthSigningKey string `mapstructure:"AUTH_SIGNING_KEY"`

	RateLimitRPS   float64 `mapstructure:"RATE_LIMIT_RPS"`
	RateLimitBurst int     `mapstructure:"RATE_LIMIT_BURST"`

	// Managed video platform (Zoom) credentials. Optional; when unset the
	// server can still run webrtc-only clinics.
	ZoomAPIKey    string `mapstructure:"ZOOM_API_KEY"`
	ZoomAPISecret string `mapstructure:"ZOOM_API_SECRET"`
	ZoomBaseURL   string `mapstructure:"ZOOM_BASE_URL"`

	JitsiServerURL string `mapstructure:"JITSI_SERVER_URL"`

	// Comma-separated STUN server URLs handed to WebRTC clients.
	STUNServers []string `mapstructure:"STUN_SERVERS"`
	TURNServer  string   `mapstructure:"TURN_SERVER"`
	TURNUser    string   `mapstructure:"TURN_USER"`
	TURNSecret  string   `mapstructure:"TURN_SECRET"`

	// Bandwidth probe target. Empty disables server-side probing; clients
	// may still submit their own measurements.
	BandwidthProbeURL     string        `mapstructure:"BANDWIDTH_PROBE_URL"`
	BandwidthProbeTimeout time.Duration `mapstructure:"BANDWIDTH_PROBE_TIMEOUT"`

	// Interval for the missed-session sweeper.
	SessionSweepInterval time.Duration `mapstructure:"SESSION_SWEEP_INTERVAL"`
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("PORT", "8000")
	v.SetDefault("ENV", "development")
	v.SetDefault("DB_MAX_CONNS", 20)
	v.SetDefault("DB_MIN_CONNS", 5)
	v.SetDefault("CORS_ORIGINS", "http://localhost:3000")
	v.SetDefault("RATE_LIMIT_RPS", 100)
	v.SetDefault("RATE_LIMIT_BURST", 200)
	v.SetDefault("ZOOM_BASE_URL", "https://api.zoom.us/v2")
	v.SetDefault("JITSI_SERVER_URL", "https://meet.jit.si")
	v.SetDefault("STUN_SERVERS", "stun:stun.l.google.com:19302")
	v.SetDefault("BANDWIDTH_PROBE_TIMEOUT", "5s")
	v.SetDefault("SESSION_SWEEP_INTERVAL", "1m")

	// Bind env vars explicitly so Unmarshal picks them up
	for _, key := range []string{
		"PORT", "ENV", "DATABASE_URL", "DB_MAX_CONNS", "DB_MIN_CONNS",
		"CORS_ORIGINS", "AUTH_ISSUER", "AUTH_AUDIENCE", "AUTH_SIGNING_KEY",
		"RATE_LIMIT_RPS", "RATE_LIMIT_BURST",
		"ZOOM_API_KEY", "ZOOM_API_SECRET", "ZOOM_BASE_URL",
		"JITSI_SERVER_URL", "STUN_SERVERS", "TURN_SERVER", "TURN_USER", "TURN_SECRET",
		"BANDWIDTH_PROBE_URL", "BANDWIDTH_PROBE_TIMEOUT", "SESSION_SWEEP_INTERVAL",
	} {
		v.BindEnv(key)
	}

	// Try reading .env, but don't fail if missing
	_ = v.ReadInConfig()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if cfg.CORSOrigins == nil {
		if origins := v.GetString("CORS_ORIGINS"); origins != "" {
			cfg.CORSOrigins = strings.Split(origins, ",")
		}
	}
	if cfg.STUNServers == nil {
		if servers := v.GetString("STUN_SERVERS"); servers != "" {
			cfg.STUNServers = strings.Split(servers, ",")
		}
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	return cfg, nil
}

func (c *Config) IsDev() bool {
	return c.Env == "development"
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// ZoomConfigured reports whether managed-platform credentials are present.
func (c *Config) ZoomConfigured() bool {
	return c.ZoomAPIKey != "" && c.ZoomAPISecret != ""
}

// Validate checks that the configuration is safe to run. Outside development
// a signing key is mandatory; requests must not be accepted unauthenticated.
func (c *Config) Validate() error {
	if !c.IsDev() && c.AuthSigningKey == "" {
		return fmt.Errorf(
			"AUTH_SIGNING_KEY must be set when ENV=%q; refusing to start without authentication", c.Env)
	}
	if c.BandwidthProbeTimeout <= 0 {
		return fmt.Errorf("BANDWIDTH_PROBE_TIMEOUT must be positive")
	}
	if c.SessionSweepInterval <= 0 {
		return fmt.Errorf("SESSION_SWEEP_INTERVAL must be positive")
	}
	if c.ZoomAPIKey != "" && c.ZoomAPISecret == "" {
		return fmt.Errorf("ZOOM_API_SECRET is required when ZOOM_API_KEY is set")
	}
	return nil
}
