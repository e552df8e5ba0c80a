package config

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Classifier backends.
const (
	ClassifierHTTP   = "http"
	ClassifierWorker = "worker"
)

// Insight backends.
const (
	InsightsNone   = "none"
	InsightsHF     = "hf"
	InsightsOpenAI = "openai"
)

const (
	DefaultDatabaseURL   = "data/emotion.db"
	DefaultPort          = 8000
	DefaultAllowedOrigin = "http://localhost:5173"
)

// Config is shared by every entrypoint. Environment values are defaults,
// flags override them.
type Config struct {
	DatabaseURL string
	Port        int

	HFAPIKey  string
	HFBaseURL string

	Classifier      string
	ClassifierModel string
	WorkerCommand   string
	WorkerArgs      string
	TokenizerPath   string
	TopTokens       int

	Insights     string
	TextModel    string
	OpenAIAPIKey string
	OpenAIModel  string

	JWTSecret      string
	AllowedOrigins string
}

// LoadDotEnv reads .env files into the process environment. Missing files
// are ignored, existing variables win.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if _, err := os.Stat(p); err != nil {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			return fmt.Errorf("load %s: %w", p, err)
		}
	}
	return nil
}

// FromEnv builds the defaults from the environment.
func FromEnv() Config {
	cfg := Config{
		DatabaseURL:    envOr("DATABASE_URL", DefaultDatabaseURL),
		Port:           DefaultPort,
		HFAPIKey:       os.Getenv("HUGGINGFACE_API_KEY"),
		HFBaseURL:      os.Getenv("HUGGINGFACE_BASE_URL"),
		Classifier:     envOr("EMOTION_CLASSIFIER", ClassifierHTTP),
		WorkerCommand:  os.Getenv("EMOTION_WORKER_CMD"),
		WorkerArgs:     os.Getenv("EMOTION_WORKER_ARGS"),
		TokenizerPath:  os.Getenv("EMOTION_TOKENIZER"),
		Insights:       envOr("EMOTION_INSIGHTS", InsightsHF),
		OpenAIAPIKey:   os.Getenv("OPENAI_API_KEY"),
		JWTSecret:      os.Getenv("JWT_SECRET"),
		AllowedOrigins: envOr("ALLOWED_ORIGINS", DefaultAllowedOrigin),
	}
	if raw := strings.TrimSpace(os.Getenv("PORT")); raw != "" {
		if port, err := strconv.Atoi(raw); err == nil {
			cfg.Port = port
		}
	}
	return cfg
}

// RegisterStorageFlags adds --db.
func (c *Config) RegisterStorageFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.DatabaseURL, "db", c.DatabaseURL, "SQLite path or postgres:// URL (env DATABASE_URL)")
}

// RegisterAnalysisFlags adds classifier and insight flags.
func (c *Config) RegisterAnalysisFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.Classifier, "classifier", c.Classifier, "Classifier backend: http or worker")
	fs.StringVar(&c.ClassifierModel, "classifier_model", c.ClassifierModel, "Hosted classification model (default bhadresh-savani/distilroberta-base-emotion)")
	fs.StringVar(&c.HFAPIKey, "hf_api_key", c.HFAPIKey, "Hugging Face API key (overrides HUGGINGFACE_API_KEY)")
	fs.StringVar(&c.HFBaseURL, "hf_base_url", c.HFBaseURL, "Inference API base URL")
	fs.StringVar(&c.WorkerCommand, "worker_cmd", c.WorkerCommand, "Model worker executable for --classifier worker")
	fs.StringVar(&c.WorkerArgs, "worker_args", c.WorkerArgs, "Space-separated worker arguments")
	fs.StringVar(&c.TokenizerPath, "tokenizer", c.TokenizerPath, "tokenizer.json for --classifier worker")
	fs.IntVar(&c.TopTokens, "top_tokens", c.TopTokens, "Influential tokens to report (0 uses the default)")
	fs.StringVar(&c.Insights, "insights", c.Insights, "Insight backend: none, hf or openai")
	fs.StringVar(&c.TextModel, "text_model", c.TextModel, "Hosted text-generation model for --insights hf")
	fs.StringVar(&c.OpenAIAPIKey, "openai_api_key", c.OpenAIAPIKey, "OpenAI API key (overrides OPENAI_API_KEY)")
	fs.StringVar(&c.OpenAIModel, "openai_model", c.OpenAIModel, "OpenAI model for --insights openai")
}

// RegisterServerFlags adds listener and HTTP policy flags.
func (c *Config) RegisterServerFlags(fs *flag.FlagSet) {
	fs.IntVar(&c.Port, "port", c.Port, "HTTP port (env PORT)")
	fs.StringVar(&c.JWTSecret, "jwt_secret", c.JWTSecret, "HS256 secret; when set POST /save requires a bearer token")
	fs.StringVar(&c.AllowedOrigins, "allowed_origins", c.AllowedOrigins, "Comma-separated CORS origins (env ALLOWED_ORIGINS)")
}

// Validate checks the analysis settings. Storage and server settings are
// checked by the entrypoints that use them.
func (c Config) Validate() error {
	if strings.TrimSpace(c.DatabaseURL) == "" {
		return errors.New("missing --db")
	}
	switch c.Classifier {
	case ClassifierHTTP:
	case ClassifierWorker:
		if strings.TrimSpace(c.WorkerCommand) == "" {
			return errors.New("--classifier worker requires --worker_cmd")
		}
		if strings.TrimSpace(c.TokenizerPath) == "" {
			return errors.New("--classifier worker requires --tokenizer")
		}
	default:
		return fmt.Errorf("unknown classifier %q: want http or worker", c.Classifier)
	}
	switch c.Insights {
	case InsightsNone, InsightsHF:
	case InsightsOpenAI:
		if strings.TrimSpace(c.OpenAIAPIKey) == "" {
			return errors.New("--insights openai requires OPENAI_API_KEY")
		}
	default:
		return fmt.Errorf("unknown insights backend %q: want none, hf or openai", c.Insights)
	}
	if c.TopTokens < 0 {
		return errors.New("top_tokens must be >= 0")
	}
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("port %d out of range", c.Port)
	}
	return nil
}

// Origins splits AllowedOrigins on commas.
func (c Config) Origins() []string {
	var out []string
	for _, o := range strings.Split(c.AllowedOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	if len(out) == 0 {
		out = []string{DefaultAllowedOrigin}
	}
	return out
}

func envOr(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}
