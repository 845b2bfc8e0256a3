package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("BOT_TOKEN", "123:abc")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Bot.Token != "123:abc" {
		t.Errorf("token = %q", cfg.Bot.Token)
	}
	if cfg.Bot.ConflictDelay != 10*time.Second {
		t.Errorf("conflict delay = %v, want 10s", cfg.Bot.ConflictDelay)
	}
	if cfg.Bot.NetworkDelay != 5*time.Second {
		t.Errorf("network delay = %v, want 5s", cfg.Bot.NetworkDelay)
	}
	if cfg.Download.MaxRetries != 3 {
		t.Errorf("max retries = %d, want 3", cfg.Download.MaxRetries)
	}
	if cfg.Download.RotationPause != 2*time.Second {
		t.Errorf("rotation pause = %v, want 2s", cfg.Download.RotationPause)
	}
	if cfg.Download.BackoffStep != 5*time.Second {
		t.Errorf("backoff step = %v, want 5s", cfg.Download.BackoffStep)
	}
	if cfg.Storage.BasePath != "." {
		t.Errorf("base path = %q, want .", cfg.Storage.BasePath)
	}
}

func TestLoad_MissingToken(t *testing.T) {
	t.Setenv("BOT_TOKEN", "")

	if _, err := Load(""); err == nil {
		t.Fatal("Load should fail without BOT_TOKEN")
	}
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	t.Setenv("BOT_TOKEN", "env-token")
	t.Setenv("DOWNLOAD_MAX_RETRIES", "5")

	path := filepath.Join(t.TempDir(), "config.yaml")
	data := []byte("bot:\n  token: file-token\ndownload:\n  max_retries: 2\n")
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Bot.Token != "env-token" {
		t.Errorf("token = %q, want env-token", cfg.Bot.Token)
	}
	if cfg.Download.MaxRetries != 5 {
		t.Errorf("max retries = %d, want 5", cfg.Download.MaxRetries)
	}
}

func TestLoad_FileOnly(t *testing.T) {
	// t.Setenv registers the restore; the variable must be absent so
	// the file value is not clobbered by an empty override.
	t.Setenv("BOT_TOKEN", "placeholder")
	os.Unsetenv("BOT_TOKEN")

	path := filepath.Join(t.TempDir(), "config.yaml")
	data := []byte("bot:\n  token: file-token\nstorage:\n  base_path: /tmp/stage\n")
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Bot.Token != "file-token" {
		t.Errorf("token = %q, want file-token", cfg.Bot.Token)
	}
	if cfg.Storage.BasePath != "/tmp/stage" {
		t.Errorf("base path = %q, want /tmp/stage", cfg.Storage.BasePath)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatal("Load should fail for a missing config file")
	}
}

func TestValidate_MaxRetries(t *testing.T) {
	cfg := &Config{}
	cfg.Bot.Token = "x"
	cfg.Download.MaxRetries = 0

	if err := cfg.Validate(); err == nil {
		t.Fatal("Validate should reject zero max retries")
	}
}
