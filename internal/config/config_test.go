package config

import (
	"flag"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/tetraminz/emotion_insights/internal/classifier"
	"github.com/tetraminz/emotion_insights/internal/insight"
)

func TestFromEnvAndFlagsOverride(t *testing.T) {
	t.Setenv("DATABASE_URL", "env.db")
	t.Setenv("PORT", "9001")
	t.Setenv("ALLOWED_ORIGINS", "http://a.test, http://b.test")
	t.Setenv("EMOTION_INSIGHTS", "none")

	cfg := FromEnv()
	if cfg.DatabaseURL != "env.db" || cfg.Port != 9001 || cfg.Insights != InsightsNone {
		t.Fatalf("env config mismatch: %+v", cfg)
	}
	if got := strings.Join(cfg.Origins(), "|"); got != "http://a.test|http://b.test" {
		t.Fatalf("origins got %q", got)
	}

	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	cfg.RegisterStorageFlags(fs)
	cfg.RegisterAnalysisFlags(fs)
	cfg.RegisterServerFlags(fs)
	if err := fs.Parse([]string{"--db", "flag.db", "--port", "8080", "--insights", "openai", "--openai_api_key", "sk-x"}); err != nil {
		t.Fatalf("parse flags: %v", err)
	}
	if cfg.DatabaseURL != "flag.db" || cfg.Port != 8080 || cfg.Insights != InsightsOpenAI {
		t.Fatalf("flag override mismatch: %+v", cfg)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate error: %v", err)
	}
}

func TestValidateRejectsBadSettings(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")

	cases := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{name: "db", mutate: func(c *Config) { c.DatabaseURL = " " }, want: "--db"},
		{name: "classifier", mutate: func(c *Config) { c.Classifier = "onnx" }, want: "unknown classifier"},
		{name: "worker_cmd", mutate: func(c *Config) { c.Classifier = ClassifierWorker }, want: "--worker_cmd"},
		{name: "tokenizer", mutate: func(c *Config) { c.Classifier = ClassifierWorker; c.WorkerCommand = "python3" }, want: "--tokenizer"},
		{name: "insights", mutate: func(c *Config) { c.Insights = "gemini" }, want: "unknown insights"},
		{name: "openai_key", mutate: func(c *Config) { c.Insights = InsightsOpenAI; c.OpenAIAPIKey = "" }, want: "OPENAI_API_KEY"},
		{name: "port", mutate: func(c *Config) { c.Port = 70000 }, want: "out of range"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := FromEnv()
			tc.mutate(&cfg)
			err := cfg.Validate()
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("error got %v want containing %q", err, tc.want)
			}
		})
	}
}

func TestLoadDotEnvKeepsExistingVariables(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	if err := os.WriteFile(path, []byte("EMOTION_TEST_DOTENV_A=from-file\nEMOTION_TEST_DOTENV_B=from-file\n"), 0o644); err != nil {
		t.Fatalf("write .env: %v", err)
	}
	t.Setenv("EMOTION_TEST_DOTENV_A", "from-env")
	t.Setenv("EMOTION_TEST_DOTENV_B", "")
	os.Unsetenv("EMOTION_TEST_DOTENV_B")

	if err := LoadDotEnv(path, filepath.Join(dir, "missing.env")); err != nil {
		t.Fatalf("LoadDotEnv error: %v", err)
	}
	if got := os.Getenv("EMOTION_TEST_DOTENV_A"); got != "from-env" {
		t.Fatalf("A got %q want from-env", got)
	}
	if got := os.Getenv("EMOTION_TEST_DOTENV_B"); got != "from-file" {
		t.Fatalf("B got %q want from-file", got)
	}
}

func TestBuildersFollowSettings(t *testing.T) {
	cfg := Config{DatabaseURL: "x.db", Classifier: ClassifierHTTP, Insights: InsightsNone}

	cls, closer, err := cfg.NewClassifier()
	if err != nil {
		t.Fatalf("NewClassifier error: %v", err)
	}
	defer closer.Close()
	if _, ok := cls.(*classifier.HTTPClassifier); !ok {
		t.Fatalf("classifier type got %T", cls)
	}

	gen, err := cfg.NewGenerator()
	if err != nil || gen != nil {
		t.Fatalf("none generator got %v, %v", gen, err)
	}

	cfg.Insights = InsightsHF
	gen, _ = cfg.NewGenerator()
	if _, ok := gen.(*insight.HFGenerator); !ok {
		t.Fatalf("hf generator type got %T", gen)
	}

	cfg.Insights = InsightsOpenAI
	cfg.OpenAIAPIKey = "sk-test"
	gen, _ = cfg.NewGenerator()
	if _, ok := gen.(*insight.OpenAIGenerator); !ok {
		t.Fatalf("openai generator type got %T", gen)
	}

	cfg.Classifier = ClassifierWorker
	cfg.WorkerCommand = "worker"
	cfg.TokenizerPath = filepath.Join(t.TempDir(), "missing-tokenizer.json")
	if _, _, err := cfg.NewClassifier(); err == nil {
		t.Fatalf("expected error for missing tokenizer file")
	}
}
