package config

import "testing"

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.App.Addr() != "0.0.0.0:8080" {
		t.Fatalf("addr = %s", cfg.App.Addr())
	}
	if cfg.ML.ConfidenceThreshold != 60.0 {
		t.Fatalf("threshold = %v", cfg.ML.ConfidenceThreshold)
	}
	if cfg.ML.MinAccuracy != 0.60 {
		t.Fatalf("min accuracy = %v", cfg.ML.MinAccuracy)
	}
	if cfg.Notification.EventChannel != "helpdesk.events" {
		t.Fatalf("event channel = %s", cfg.Notification.EventChannel)
	}
	if !cfg.Postgres.RunMigrations {
		t.Fatal("migrations default on")
	}
}

func TestLoadOverridesAndValidation(t *testing.T) {
	t.Setenv("ML_CONFIDENCE_THRESHOLD", "75.5")
	t.Setenv("APP_PORT", "9090")
	t.Setenv("HTTP_REQUEST_TIMEOUT_SECONDS", "5")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.ML.ConfidenceThreshold != 75.5 {
		t.Fatalf("threshold = %v", cfg.ML.ConfidenceThreshold)
	}
	if cfg.App.Port != "9090" {
		t.Fatalf("port = %s", cfg.App.Port)
	}
	if cfg.App.RequestTimeout().Seconds() != 5 {
		t.Fatalf("timeout = %v", cfg.App.RequestTimeout())
	}

	t.Setenv("ML_CONFIDENCE_THRESHOLD", "150")
	if _, err := Load(); err == nil {
		t.Fatal("threshold above 100 must fail")
	}
}
