package config

import (
	"os"
	"time"
)

type Config struct {
	ProjectID          string
	LogLevel           string
	Port               string
	KMSKeyName         string
	UploadBucket       string
	IntakeURL          string
	IntakeAPIKeySecret string
	VerificationTTL    time.Duration
	ResendWindow       time.Duration
}

func New() *Config {
	return &Config{
		ProjectID:          os.Getenv("PROJECTID"),
		LogLevel:           os.Getenv("LOGLEVEL"),
		Port:               getOr("PORT", "8080"),
		KMSKeyName:         os.Getenv("KMSKEYNAME"),
		UploadBucket:       os.Getenv("UPLOADBUCKET"),
		IntakeURL:          os.Getenv("INTAKEURL"),
		IntakeAPIKeySecret: os.Getenv("INTAKEAPIKEYSECRET"),
		VerificationTTL:    getDuration("VERIFICATIONTTL", 10*time.Minute),
		ResendWindow:       getDuration("RESENDWINDOW", 30*time.Second),
	}
}

func getOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// getDuration accepts Go duration strings ("10m", "90s"); anything else falls back.
func getDuration(key string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(os.Getenv(key))
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}
