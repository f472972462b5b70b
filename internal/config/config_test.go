package config

import (
	"os"
	"testing"
	"time"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	os.Setenv("JWT_SECRET", "test-secret-32-characters-long!")
	os.Setenv("DB_PASSWORD", "test")
	os.Setenv("EMAIL_FROM_ADDRESS", "noreply@example.com")
	t.Cleanup(os.Clearenv)
}

func TestVerificationConfig_Defaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() = %v, want nil", err)
	}

	tests := []struct {
		name     string
		actual   time.Duration
		expected time.Duration
	}{
		{"TokenTTL", cfg.Verification.TokenTTL, 48 * time.Hour},
		{"ResendWindow", cfg.Verification.ResendWindow, 1 * time.Hour},
		{"CleanupInterval", cfg.Verification.CleanupInterval, 1 * time.Hour},
	}

	for _, tt := range tests {
		if tt.actual != tt.expected {
			t.Errorf("%s: got %v, want %v", tt.name, tt.actual, tt.expected)
		}
	}

	if cfg.Verification.MaxResendAttempts != 3 {
		t.Errorf("MaxResendAttempts: got %d, want 3", cfg.Verification.MaxResendAttempts)
	}
}

func TestVerificationConfig_Overrides(t *testing.T) {
	setRequiredEnv(t)
	os.Setenv("TOKEN_TTL", "24h")
	os.Setenv("MAX_RESEND_ATTEMPTS", "5")
	os.Setenv("RESEND_WINDOW", "30m")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() = %v, want nil", err)
	}

	if cfg.Verification.TokenTTL != 24*time.Hour {
		t.Errorf("TokenTTL: got %v, want 24h", cfg.Verification.TokenTTL)
	}
	if cfg.Verification.MaxResendAttempts != 5 {
		t.Errorf("MaxResendAttempts: got %d, want 5", cfg.Verification.MaxResendAttempts)
	}
	if cfg.Verification.ResendWindow != 30*time.Minute {
		t.Errorf("ResendWindow: got %v, want 30m", cfg.Verification.ResendWindow)
	}
}

func TestLoad_MissingRequiredVars(t *testing.T) {
	tests := []struct {
		name  string
		setup func()
	}{
		{"missing JWT_SECRET", func() {
			os.Setenv("DB_PASSWORD", "test")
			os.Setenv("EMAIL_FROM_ADDRESS", "noreply@example.com")
		}},
		{"missing DB_PASSWORD", func() {
			os.Setenv("JWT_SECRET", "test-secret-32-characters-long!")
			os.Setenv("EMAIL_FROM_ADDRESS", "noreply@example.com")
		}},
		{"missing EMAIL_FROM_ADDRESS", func() {
			os.Setenv("JWT_SECRET", "test-secret-32-characters-long!")
			os.Setenv("DB_PASSWORD", "test")
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			os.Clearenv()
			tt.setup()
			defer os.Clearenv()

			if _, err := Load(); err == nil {
				t.Error("Load() = nil, want error")
			}
		})
	}
}

func TestValidateJWTSecret_WeakValues(t *testing.T) {
	if err := validateJWTSecret("secret", "development"); err == nil {
		t.Error("expected error for short secret")
	}
	if err := validateJWTSecret("test-secret-16ch", "production"); err == nil {
		t.Error("expected error for short production secret")
	}
	if err := validateJWTSecret("test-secret-32-characters-long!", "production"); err != nil {
		t.Errorf("unexpected error for strong secret: %v", err)
	}
}
