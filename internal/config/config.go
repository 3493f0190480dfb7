package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// DSNOptions are the SQLite connection options a file database runs with. Writers take the
// lock when their transaction begins and wait up to the busy timeout for it.
const DSNOptions = "_journal_mode=WAL&_foreign_keys=on&_busy_timeout=5000&_txlock=immediate"

const (
	defaultDatabaseDSN = "bracketd.db?" + DSNOptions
	defaultListenAddr  = ":8080"
)

type Config struct {
	DatabaseDSN string
	ListenAddr  string
	// Settle byes as soon as a bracket is generated
	AutoAdvanceByes bool
	// Largest id list sent in a single IN lookup
	LookupChunkSize int
	LogLevel        slog.Level
}

// Load reads the configuration from the environment, loading a .env file first when one exists.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Debug("no .env file found, using environment variables")
	}

	cfg := &Config{
		DatabaseDSN:     getenv("DATABASE_DSN", defaultDatabaseDSN),
		ListenAddr:      getenv("LISTEN_ADDR", defaultListenAddr),
		AutoAdvanceByes: true,
		LookupChunkSize: 30,
		LogLevel:        slog.LevelInfo,
	}

	if v := os.Getenv("AUTO_ADVANCE_BYES"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return nil, fmt.Errorf("invalid AUTO_ADVANCE_BYES: %w", err)
		}
		cfg.AutoAdvanceByes = b
	}

	if v := os.Getenv("LOOKUP_CHUNK_SIZE"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("invalid LOOKUP_CHUNK_SIZE: %w", err)
		}
		if n <= 0 {
			return nil, fmt.Errorf("LOOKUP_CHUNK_SIZE must be positive, got %d", n)
		}
		cfg.LookupChunkSize = n
	}

	if v := os.Getenv("LOG_LEVEL"); v != "" {
		if err := cfg.LogLevel.UnmarshalText([]byte(strings.ToUpper(v))); err != nil {
			return nil, fmt.Errorf("invalid LOG_LEVEL: %w", err)
		}
	}

	return cfg, nil
}

func (c *Config) Logger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: c.LogLevel}))
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
