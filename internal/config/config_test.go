package config

import (
	"testing"
	"time"
)

func TestNewDefaults(t *testing.T) {
	t.Setenv("VERIFICATIONTTL", "")
	t.Setenv("RESENDWINDOW", "")
	t.Setenv("PORT", "")

	cfg := New()
	if cfg.VerificationTTL != 10*time.Minute {
		t.Fatalf("expected 10m ttl, got %s", cfg.VerificationTTL)
	}
	if cfg.ResendWindow != 30*time.Second {
		t.Fatalf("expected 30s resend window, got %s", cfg.ResendWindow)
	}
	if cfg.Port != "8080" {
		t.Fatalf("expected default port, got %q", cfg.Port)
	}
}

func TestNewOverrides(t *testing.T) {
	t.Setenv("VERIFICATIONTTL", "5m")
	t.Setenv("RESENDWINDOW", "nonsense")
	t.Setenv("UPLOADBUCKET", "dispatch-uploads")

	cfg := New()
	if cfg.VerificationTTL != 5*time.Minute {
		t.Fatalf("expected 5m ttl, got %s", cfg.VerificationTTL)
	}
	if cfg.ResendWindow != 30*time.Second {
		t.Fatalf("invalid duration should fall back, got %s", cfg.ResendWindow)
	}
	if cfg.UploadBucket != "dispatch-uploads" {
		t.Fatalf("unexpected bucket %q", cfg.UploadBucket)
	}
}
