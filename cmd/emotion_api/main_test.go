package main

import (
	"flag"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/tetraminz/emotion_insights/internal/config"
)

func TestParseFlagsOverridesDefaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("PORT", "")

	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	cfg, err := parseFlags(fs, []string{"--db", "custom.db", "--port", "9090", "--insights", "none", "--write_timeout", "30s"})
	if err != nil {
		t.Fatalf("parseFlags error: %v", err)
	}
	if cfg.DatabaseURL != "custom.db" || cfg.Port != 9090 || cfg.Insights != "none" {
		t.Fatalf("config mismatch: %+v", cfg)
	}
	if cfg.WriteTimeout != 30*time.Second {
		t.Fatalf("write timeout got %s", cfg.WriteTimeout)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate error: %v", err)
	}
}

func TestValidateRejectsZeroTimeout(t *testing.T) {
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	cfg, err := parseFlags(fs, []string{"--read_timeout", "0s"})
	if err != nil {
		t.Fatalf("parseFlags error: %v", err)
	}
	if err := cfg.Validate(); err == nil || !strings.Contains(err.Error(), "timeouts") {
		t.Fatalf("error got %v", err)
	}
}

func TestDotEnvFeedsFlagDefaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	os.Unsetenv("DATABASE_URL")

	envPath := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(envPath, []byte("DATABASE_URL=from_env_file.db\n"), 0o644); err != nil {
		t.Fatalf("write .env: %v", err)
	}
	if err := config.LoadDotEnv(envPath); err != nil {
		t.Fatalf("LoadDotEnv error: %v", err)
	}

	cfg, err := parseFlags(flag.NewFlagSet("test", flag.ContinueOnError), nil)
	if err != nil {
		t.Fatalf("parseFlags error: %v", err)
	}
	if cfg.DatabaseURL != "from_env_file.db" {
		t.Fatalf("DatabaseURL got %q want %q", cfg.DatabaseURL, "from_env_file.db")
	}
}
