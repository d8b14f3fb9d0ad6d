package server

import (
	"net/http/httptest"
	"testing"
	"time"
)

// TestNewConfigDefaults verifies that NewConfig returns sensible defaults
// for every setting.
func TestNewConfigDefaults(t *testing.T) {
	cfg := NewConfig()

	if cfg.Port != ":8080" {
		t.Errorf("Port = %q, want :8080", cfg.Port)
	}
	if cfg.MaxMessageSize != 4096 {
		t.Errorf("MaxMessageSize = %d, want 4096", cfg.MaxMessageSize)
	}
	if cfg.RateLimit.Burst != 5 || cfg.RateLimit.RefillInterval != time.Second {
		t.Errorf("RateLimit = %+v", cfg.RateLimit)
	}
	if cfg.TokenTTL != 15*time.Minute {
		t.Errorf("TokenTTL = %v, want 15m", cfg.TokenTTL)
	}
	if cfg.GracePeriod != 5*time.Second {
		t.Errorf("GracePeriod = %v, want 5s", cfg.GracePeriod)
	}
}

// TestNewConfigFromEnv verifies that environment variables override the
// defaults and that durations are parsed in Go duration syntax.
func TestNewConfigFromEnv(t *testing.T) {
	t.Setenv("SERVER_PORT", ":9999")
	t.Setenv("ALLOWED_ORIGINS", "https://example.com, https://other.example.com")
	t.Setenv("MAX_MESSAGE_SIZE", "2048")
	t.Setenv("RATE_LIMIT_BURST", "10")
	t.Setenv("RATE_LIMIT_REFILL_INTERVAL", "2")
	t.Setenv("JWT_SECRET_KEY", "env-secret")
	t.Setenv("JWT_TOKEN_TTL", "30m")
	t.Setenv("RECONNECT_GRACE_PERIOD", "10s")
	t.Setenv("TLS_CERT_FILE", "/etc/certs/server.crt")
	t.Setenv("TLS_KEY_FILE", "/etc/certs/server.key")
	t.Setenv("CIPHER_KEY", "0123456789abcdef0123456789abcdef")
	t.Setenv("CIPHER_IV", "fedcba9876543210")
	t.Setenv("MAILJET_KEY_API", "api-key")
	t.Setenv("MAILJET_KEY_SECRET", "api-secret")
	t.Setenv("MAILJET_USER_NAME", "Owner")
	t.Setenv("MAILJET_USER_EMAIL", "owner@example.com")

	cfg := NewConfigFromEnv()

	if cfg.Port != ":9999" {
		t.Errorf("Port = %q", cfg.Port)
	}
	if len(cfg.AllowedOrigins) != 2 || cfg.AllowedOrigins[1] != "https://other.example.com" {
		t.Errorf("AllowedOrigins = %v", cfg.AllowedOrigins)
	}
	if cfg.MaxMessageSize != 2048 {
		t.Errorf("MaxMessageSize = %d", cfg.MaxMessageSize)
	}
	if cfg.RateLimit.Burst != 10 || cfg.RateLimit.RefillInterval != 2*time.Second {
		t.Errorf("RateLimit = %+v", cfg.RateLimit)
	}
	if cfg.JWTSecret != "env-secret" {
		t.Errorf("JWTSecret = %q", cfg.JWTSecret)
	}
	if cfg.TokenTTL != 30*time.Minute {
		t.Errorf("TokenTTL = %v", cfg.TokenTTL)
	}
	if cfg.GracePeriod != 10*time.Second {
		t.Errorf("GracePeriod = %v", cfg.GracePeriod)
	}
	if cfg.TLS.CertFile != "/etc/certs/server.crt" || cfg.TLS.KeyFile != "/etc/certs/server.key" {
		t.Errorf("TLS = %+v", cfg.TLS)
	}
	if cfg.Mailjet.APIKey != "api-key" || cfg.Mailjet.OwnerEmail != "owner@example.com" {
		t.Errorf("Mailjet = %+v", cfg.Mailjet)
	}
}

// TestNewConfigFromEnvInvalidValues verifies that malformed environment
// values fall back to the defaults instead of failing.
func TestNewConfigFromEnvInvalidValues(t *testing.T) {
	t.Setenv("MAX_MESSAGE_SIZE", "not-a-number")
	t.Setenv("RATE_LIMIT_BURST", "-3")
	t.Setenv("JWT_TOKEN_TTL", "soon")
	t.Setenv("RECONNECT_GRACE_PERIOD", "-5s")

	cfg := NewConfigFromEnv()

	if cfg.MaxMessageSize != 4096 {
		t.Errorf("MaxMessageSize = %d, want default 4096", cfg.MaxMessageSize)
	}
	if cfg.RateLimit.Burst != 5 {
		t.Errorf("RateLimit.Burst = %d, want default 5", cfg.RateLimit.Burst)
	}
	if cfg.TokenTTL != 15*time.Minute {
		t.Errorf("TokenTTL = %v, want default 15m", cfg.TokenTTL)
	}
	if cfg.GracePeriod != 5*time.Second {
		t.Errorf("GracePeriod = %v, want default 5s", cfg.GracePeriod)
	}
}

// TestSetConfigSanitizes verifies that zero or negative values are replaced
// with defaults when a config is applied.
func TestSetConfigSanitizes(t *testing.T) {
	defer SetConfig(nil)

	SetConfig(&Config{Port: "", MaxMessageSize: -1, GracePeriod: -time.Second})

	cfg := currentConfig()
	if cfg.Port != ":8080" {
		t.Errorf("Port = %q, want :8080", cfg.Port)
	}
	if cfg.MaxMessageSize != 4096 {
		t.Errorf("MaxMessageSize = %d, want 4096", cfg.MaxMessageSize)
	}
	if cfg.GracePeriod != 5*time.Second {
		t.Errorf("GracePeriod = %v, want 5s", cfg.GracePeriod)
	}
}

// TestOriginFiltering verifies origin normalization and the allow-list
// check applied during the WebSocket upgrade.
func TestOriginFiltering(t *testing.T) {
	defer SetConfig(nil)

	SetConfig(&Config{AllowedOrigins: []string{"https://Example.com", "  ", "not a url"}})

	tests := []struct {
		origin string
		want   bool
	}{
		{"https://example.com", true},
		{"HTTPS://EXAMPLE.COM", true},
		{"https://evil.example.org", false},
		{"", false},
	}

	for _, tt := range tests {
		r := httptest.NewRequest("GET", "/ws/the-lounge", nil)
		if tt.origin != "" {
			r.Header.Set("Origin", tt.origin)
		}
		if got := isOriginAllowed(r); got != tt.want {
			t.Errorf("isOriginAllowed(%q) = %v, want %v", tt.origin, got, tt.want)
		}
	}
}

// TestOriginWildcard verifies that a "*" entry allows any well-formed
// origin.
func TestOriginWildcard(t *testing.T) {
	defer SetConfig(nil)

	SetConfig(&Config{AllowedOrigins: []string{"*"}})

	r := httptest.NewRequest("GET", "/ws/the-lounge", nil)
	r.Header.Set("Origin", "https://anywhere.example.com")
	if !isOriginAllowed(r) {
		t.Error("wildcard config rejected a valid origin")
	}
}
