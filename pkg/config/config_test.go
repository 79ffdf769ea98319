package config

import (
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := NewDefaultConfig()

	if cfg.StoreBackend != StoreMemory {
		t.Errorf("default store = %s, want memory", cfg.StoreBackend)
	}
	if cfg.MaxTextLen != 50000 {
		t.Errorf("default max text len = %d, want 50000", cfg.MaxTextLen)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate, got %v", err)
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("PALISADE_MAX_TEXT_LEN", "1234")
	t.Setenv("PALISADE_BLOCK_THRESHOLD", "0.9")
	t.Setenv("PALISADE_VIGILANCE_WINDOW_SECONDS", "60")
	t.Setenv("PALISADE_SIGNATURE_PACKS", "a.yaml, b.yaml")

	cfg := NewDefaultConfig()
	if cfg.MaxTextLen != 1234 {
		t.Errorf("MaxTextLen = %d, want 1234", cfg.MaxTextLen)
	}
	if cfg.BlockThreshold != 0.9 {
		t.Errorf("BlockThreshold = %v, want 0.9", cfg.BlockThreshold)
	}
	if cfg.VigilanceWindow != time.Minute {
		t.Errorf("VigilanceWindow = %v, want 1m", cfg.VigilanceWindow)
	}
	if len(cfg.SignaturePacks) != 2 || cfg.SignaturePacks[1] != "b.yaml" {
		t.Errorf("SignaturePacks = %v", cfg.SignaturePacks)
	}
}

func TestValidateRejectsBadConfig(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"unknown backend", func(c *Config) { c.StoreBackend = "etcd" }},
		{"redis without addr", func(c *Config) { c.StoreBackend = StoreRedis; c.RedisAddr = "" }},
		{"postgres without dsn", func(c *Config) { c.StoreBackend = StorePostgres }},
		{"zero text limit", func(c *Config) { c.MaxTextLen = 0 }},
		{"zero recovery threshold", func(c *Config) { c.RecoveryThreshold = 0 }},
		{"threshold out of range", func(c *Config) { c.BlockThreshold = 1.5 }},
		{"thresholds out of order", func(c *Config) { c.RestrictThreshold = c.ShieldThreshold + 0.1 }},
		{"missing pack file", func(c *Config) { c.SignaturePacks = []string{"/no/such/pack.yaml"} }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewDefaultConfig()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("Validate accepted an invalid config")
			}
		})
	}
}

func TestProfiles(t *testing.T) {
	strict := NewHighSecurityConfig()
	lax := NewHighUsabilityConfig()

	if err := strict.Validate(); err != nil {
		t.Fatalf("high-security profile invalid: %v", err)
	}
	if err := lax.Validate(); err != nil {
		t.Fatalf("high-usability profile invalid: %v", err)
	}
	if strict.BlockThreshold >= lax.BlockThreshold {
		t.Error("high-security profile should block at a lower score")
	}
	if strict.RecoveryThreshold <= lax.RecoveryThreshold {
		t.Error("high-security profile should demand a longer clean streak")
	}
}

func TestIdentityParamsBridge(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.RecoveryThreshold = 7
	cfg.VigilanceWindow = 5 * time.Minute

	p := cfg.IdentityParams()
	if p.RecoveryThreshold != 7 {
		t.Errorf("RecoveryThreshold = %d, want 7", p.RecoveryThreshold)
	}
	if p.VigilanceWindow != 5*time.Minute {
		t.Errorf("VigilanceWindow = %v, want 5m", p.VigilanceWindow)
	}
}
