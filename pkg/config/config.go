// Package config holds the environment-driven settings for the Palisade
// gateway and analysis core. Every setting has a PALISADE_* environment
// variable and a sensible default; profile constructors shift the whole
// posture for stricter or laxer deployments.
package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/kotodama/palisade/pkg/identity"
)

// StoreBackend selects where identity records persist.
type StoreBackend string

const (
	StoreMemory   StoreBackend = "memory"   // Single-process, default
	StoreRedis    StoreBackend = "redis"    // Shared cache, WATCH/MULTI CAS
	StorePostgres StoreBackend = "postgres" // Durable, guarded UPDATE CAS
)

// Config holds global settings for the Palisade gateway.
// All settings can be configured via environment variables or programmatically.
type Config struct {
	// === Identity Store ===
	StoreBackend StoreBackend  // "memory", "redis", or "postgres"
	RedisAddr    string        // host:port (env: PALISADE_REDIS_ADDR)
	RedisDB      int           // Redis logical database
	PostgresDSN  string        // pgx connection string (env: PALISADE_POSTGRES_DSN)
	StoreTimeout time.Duration // Per-call store timeout; on expiry the fail-cautious default applies

	// === Analysis Limits ===
	MaxTextLen     int // Inputs longer than this are rejected, never truncated (default: 50000)
	SequenceWindow int // Prior turns considered by the sequence detector (default: 10)

	// === Decision Thresholds (ascending, 0.0 - 1.0) ===
	// Fused score at or above each threshold selects the action level.
	MonitorThreshold  float64
	RestrictThreshold float64
	ShieldThreshold   float64
	BlockThreshold    float64

	// === Escalation & Recovery ===
	RecoveryThreshold int           // Consecutive clean analyses per one-tier recovery (default: 5)
	VigilanceWindow   time.Duration // Session window for marker-triggered vigilance (default: 30m)
	TrustRecoveryStep float64       // Trust regained per clean analysis (default: 0.02)
	MaxSaveRetries    int           // Compare-and-set retries before surfacing a conflict (default: 4)

	// === Signature Packs ===
	SignaturePacks []string // YAML pack paths loaded at startup

	// === Gateway ===
	ListenAddr     string        // HTTP listen address (default: ":8480")
	MaxConcurrent  int           // Concurrent analyze requests admitted (default: 256)
	RequestTimeout time.Duration // Per-request deadline (default: 10s)
}

// NewDefaultConfig creates a Config with sensible defaults.
// All settings can be overridden via environment variables.
func NewDefaultConfig() *Config {
	return &Config{
		StoreBackend: StoreBackend(GetEnv("PALISADE_STORE", string(StoreMemory))),
		RedisAddr:    GetEnv("PALISADE_REDIS_ADDR", "localhost:6379"),
		RedisDB:      GetEnvInt("PALISADE_REDIS_DB", 0),
		PostgresDSN:  GetEnv("PALISADE_POSTGRES_DSN", ""),
		StoreTimeout: time.Duration(GetEnvInt("PALISADE_STORE_TIMEOUT_MS", 2000)) * time.Millisecond,

		MaxTextLen:     GetEnvInt("PALISADE_MAX_TEXT_LEN", 50000),
		SequenceWindow: clampInt(GetEnvInt("PALISADE_SEQUENCE_WINDOW", 10), 1, identity.HistorySize),

		MonitorThreshold:  GetEnvFloat("PALISADE_MONITOR_THRESHOLD", 0.15),
		RestrictThreshold: GetEnvFloat("PALISADE_RESTRICT_THRESHOLD", 0.35),
		ShieldThreshold:   GetEnvFloat("PALISADE_SHIELD_THRESHOLD", 0.60),
		BlockThreshold:    GetEnvFloat("PALISADE_BLOCK_THRESHOLD", 0.85),

		RecoveryThreshold: GetEnvInt("PALISADE_RECOVERY_THRESHOLD", 5),
		VigilanceWindow:   time.Duration(GetEnvInt("PALISADE_VIGILANCE_WINDOW_SECONDS", 1800)) * time.Second,
		TrustRecoveryStep: GetEnvFloat("PALISADE_TRUST_RECOVERY_STEP", 0.02),
		MaxSaveRetries:    GetEnvInt("PALISADE_MAX_SAVE_RETRIES", 4),

		SignaturePacks: GetEnvSlice("PALISADE_SIGNATURE_PACKS", nil),

		ListenAddr:     GetEnv("PALISADE_LISTEN_ADDR", ":8480"),
		MaxConcurrent:  clampInt(GetEnvInt("PALISADE_MAX_CONCURRENT", 256), 1, 65536),
		RequestTimeout: time.Duration(GetEnvInt("PALISADE_REQUEST_TIMEOUT_MS", 10000)) * time.Millisecond,
	}
}

// NewHighSecurityConfig creates a Config for maximum strictness (may have
// more false positives).
func NewHighSecurityConfig() *Config {
	cfg := NewDefaultConfig()
	cfg.MonitorThreshold = 0.10
	cfg.RestrictThreshold = 0.25
	cfg.ShieldThreshold = 0.45
	cfg.BlockThreshold = 0.70
	cfg.RecoveryThreshold = 10
	cfg.VigilanceWindow = 2 * time.Hour
	return cfg
}

// NewHighUsabilityConfig creates a Config that minimizes false positives.
func NewHighUsabilityConfig() *Config {
	cfg := NewDefaultConfig()
	cfg.MonitorThreshold = 0.25
	cfg.RestrictThreshold = 0.45
	cfg.ShieldThreshold = 0.70
	cfg.BlockThreshold = 0.90
	cfg.RecoveryThreshold = 3
	cfg.VigilanceWindow = 15 * time.Minute
	return cfg
}

// IdentityParams maps the escalation settings onto the identity manager.
func (c *Config) IdentityParams() identity.Params {
	p := identity.DefaultParams()
	p.RecoveryThreshold = c.RecoveryThreshold
	p.VigilanceWindow = c.VigilanceWindow
	p.TrustRecoveryStep = c.TrustRecoveryStep
	p.MaxSaveRetries = uint64(c.MaxSaveRetries)
	return p
}

// Validate checks configuration consistency. Call at startup before
// serving traffic.
func (c *Config) Validate() error {
	switch c.StoreBackend {
	case StoreMemory:
	case StoreRedis:
		if c.RedisAddr == "" {
			return fmt.Errorf("PALISADE_REDIS_ADDR required for the redis store")
		}
	case StorePostgres:
		if c.PostgresDSN == "" {
			return fmt.Errorf("PALISADE_POSTGRES_DSN required for the postgres store")
		}
	default:
		return fmt.Errorf("unknown store backend %q", c.StoreBackend)
	}

	if c.MaxTextLen <= 0 {
		return fmt.Errorf("max text length must be positive, got %d", c.MaxTextLen)
	}
	if c.RecoveryThreshold <= 0 {
		return fmt.Errorf("recovery threshold must be positive, got %d", c.RecoveryThreshold)
	}
	if c.MaxSaveRetries < 0 {
		return fmt.Errorf("max save retries must not be negative, got %d", c.MaxSaveRetries)
	}

	thresholds := []struct {
		name  string
		value float64
	}{
		{"monitor", c.MonitorThreshold},
		{"restrict", c.RestrictThreshold},
		{"shield", c.ShieldThreshold},
		{"block", c.BlockThreshold},
	}
	prev := 0.0
	for _, t := range thresholds {
		if t.value <= 0 || t.value > 1 {
			return fmt.Errorf("%s threshold %v outside (0,1]", t.name, t.value)
		}
		if t.value <= prev {
			return fmt.Errorf("decision thresholds must be strictly ascending, %s threshold %v breaks the order", t.name, t.value)
		}
		prev = t.value
	}

	for _, pack := range c.SignaturePacks {
		if _, err := os.Stat(pack); err != nil {
			return fmt.Errorf("signature pack %s: %w", pack, err)
		}
	}
	return nil
}

// MustValidate calls Validate and fatally exits if validation fails.
func (c *Config) MustValidate() {
	if err := c.Validate(); err != nil {
		log.Fatalf("[STARTUP] FATAL: configuration validation failed: %v", err)
	}
	log.Println("[STARTUP] Configuration validated successfully")
}

// Helper functions for environment variable parsing.

// GetEnv returns the value of an environment variable or a default value.
func GetEnv(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

// GetEnvBool returns the boolean value of an environment variable or a default value.
func GetEnvBool(key string, defaultValue bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return defaultValue
}

// GetEnvFloat returns the float64 value of an environment variable or a default value.
func GetEnvFloat(key string, defaultValue float64) float64 {
	if v := os.Getenv(key); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err == nil {
			return f
		}
	}
	return defaultValue
}

// GetEnvInt returns the integer value of an environment variable or a default value.
func GetEnvInt(key string, defaultValue int) int {
	if v := os.Getenv(key); v != "" {
		i, err := strconv.Atoi(v)
		if err == nil {
			return i
		}
	}
	return defaultValue
}

// GetEnvSlice returns a comma-separated list from an environment variable or a default value.
func GetEnvSlice(key string, defaultValue []string) []string {
	if v := os.Getenv(key); v != "" {
		var parts []string
		for _, p := range strings.Split(v, ",") {
			trimmed := strings.TrimSpace(p)
			if trimmed != "" {
				parts = append(parts, trimmed)
			}
		}
		if len(parts) > 0 {
			return parts
		}
	}
	return defaultValue
}

func clampInt(val, min, max int) int {
	if val < min {
		return min
	}
	if val > max {
		return max
	}
	return val
}
