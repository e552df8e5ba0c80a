package main

import (
	"errors"
	"flag"
	"os"
	"time"

	"github.com/tetraminz/emotion_insights/internal/config"
)

type Config struct {
	config.Config
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

func (c Config) Validate() error {
	if err := c.Config.Validate(); err != nil {
		return err
	}
	if c.Port == 0 {
		return errors.New("missing --port")
	}
	if c.ReadTimeout <= 0 || c.WriteTimeout <= 0 || c.ShutdownTimeout <= 0 {
		return errors.New("timeouts must be > 0")
	}
	return nil
}

func defaultConfig() Config {
	return Config{
		Config:          config.FromEnv(),
		ReadTimeout:     15 * time.Second,
		WriteTimeout:    120 * time.Second,
		ShutdownTimeout: 10 * time.Second,
	}
}

func parseFlags(fs *flag.FlagSet, args []string) (Config, error) {
	cfg := defaultConfig()
	fs.SetOutput(os.Stderr)
	cfg.RegisterStorageFlags(fs)
	cfg.RegisterAnalysisFlags(fs)
	cfg.RegisterServerFlags(fs)
	fs.DurationVar(&cfg.ReadTimeout, "read_timeout", cfg.ReadTimeout, "HTTP read timeout")
	fs.DurationVar(&cfg.WriteTimeout, "write_timeout", cfg.WriteTimeout, "HTTP write timeout (covers model calls)")
	fs.DurationVar(&cfg.ShutdownTimeout, "shutdown_timeout", cfg.ShutdownTimeout, "Graceful shutdown timeout")

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
