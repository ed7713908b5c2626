package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("", nil)
	if err != nil {
		t.Fatalf("Load with defaults failed: %v", err)
	}

	if cfg.Server.Addr != ":8080" {
		t.Errorf("expected default addr :8080, got %s", cfg.Server.Addr)
	}
	if cfg.Session.MaxSize != 20 {
		t.Errorf("expected default session size 20, got %d", cfg.Session.MaxSize)
	}
	if len(cfg.Retention.BucketsDays) != 7 {
		t.Errorf("expected 7 default buckets, got %v", cfg.Retention.BucketsDays)
	}
}

func TestLoadFromFile(t *testing.T) {
	path := writeConfigFile(t, `
server:
  addr: ":9090"
session:
  max_new: 5
scheduler:
  learning_steps_minutes: [2, 15, 60]
`)

	cfg, err := Load(path, nil)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Server.Addr != ":9090" {
		t.Errorf("expected addr :9090, got %s", cfg.Server.Addr)
	}
	if cfg.Session.MaxNew != 5 {
		t.Errorf("expected max_new 5, got %d", cfg.Session.MaxNew)
	}
	// Untouched keys keep their defaults.
	if cfg.Session.MaxSize != 20 {
		t.Errorf("expected default max_size 20, got %d", cfg.Session.MaxSize)
	}

	params := cfg.SchedulerParams()
	want := []time.Duration{2 * time.Minute, 15 * time.Minute, time.Hour}
	if len(params.LearningSteps) != len(want) {
		t.Fatalf("expected %d learning steps, got %d", len(want), len(params.LearningSteps))
	}
	for i, step := range want {
		if params.LearningSteps[i] != step {
			t.Errorf("step %d: expected %v, got %v", i, step, params.LearningSteps[i])
		}
	}
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("ANKISRV_SERVER__ADDR", ":7070")

	cfg, err := Load("", nil)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Server.Addr != ":7070" {
		t.Errorf("expected env override :7070, got %s", cfg.Server.Addr)
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	path := writeConfigFile(t, `
scheduler:
  desired_retention: 1.5
`)

	if _, err := Load(path, nil); err == nil {
		t.Fatal("expected validation error for desired_retention > 1")
	}
}

func TestSessionCaps(t *testing.T) {
	cfg, err := Load("", nil)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	caps := cfg.SessionCaps()
	if caps.MaxSession != cfg.Session.MaxSize || caps.MaxNew != cfg.Session.MaxNew || caps.MaxReview != cfg.Session.MaxReview {
		t.Errorf("caps do not mirror config: %+v vs %+v", caps, cfg.Session)
	}
}
