package common

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

const (
	// MaxSizeKB is the largest accepted target size (1 GiB).
	MaxSizeKB = 1024 * 1024
	// StreamThresholdKB is the size above which streamable shapes are streamed.
	StreamThresholdKB = 100 * 1024
)

// Config holds the service settings read from the environment.
type Config struct {
	Port              string
	GinMode           string
	MaxProcs          int
	MemoryLimitMB     int64
	StreamBatchKB     float64
	StreamChunkBytes  int
	StreamPause       time.Duration
	GenerationTimeout time.Duration
	JournalDriver     string
	JournalDSN        string
	MonitorInterval   time.Duration
}

// DefaultConfig returns the settings used when no environment overrides exist.
func DefaultConfig() Config {
	return Config{
		Port:             "8080",
		GinMode:          "release",
		MaxProcs:         1,
		StreamBatchKB:    1024,
		StreamChunkBytes: 32 * 1024,
		JournalDriver:    "sqlite",
		JournalDSN:       ":memory:",
		MonitorInterval:  30 * time.Second,
	}
}

// LoadConfig loads an optional .env file and applies environment overrides on
// top of DefaultConfig. A missing .env file is not an error.
func LoadConfig(files ...string) (Config, bool, error) {
	loaded := godotenv.Load(files...) == nil

	cfg := DefaultConfig()
	var err error

	cfg.Port = getString("PORT", cfg.Port)
	cfg.GinMode = getString("GIN_MODE", cfg.GinMode)
	cfg.JournalDriver = getString("JOURNAL_DRIVER", cfg.JournalDriver)
	cfg.JournalDSN = getString("JOURNAL_DSN", cfg.JournalDSN)

	if cfg.MaxProcs, err = getInt("MAX_PROCS", cfg.MaxProcs); err != nil {
		return cfg, loaded, err
	}
	if cfg.StreamChunkBytes, err = getInt("STREAM_CHUNK_BYTES", cfg.StreamChunkBytes); err != nil {
		return cfg, loaded, err
	}
	limit, err := getInt("MEMORY_LIMIT_MB", int(cfg.MemoryLimitMB))
	if err != nil {
		return cfg, loaded, err
	}
	cfg.MemoryLimitMB = int64(limit)

	if v := os.Getenv("STREAM_BATCH_KB"); v != "" {
		kb, err := strconv.ParseFloat(v, 64)
		if err != nil || kb < 1 || kb > MaxSizeKB {
			return cfg, loaded, fmt.Errorf("invalid STREAM_BATCH_KB %q", v)
		}
		cfg.StreamBatchKB = kb
	}

	if cfg.StreamPause, err = getDuration("STREAM_PAUSE", cfg.StreamPause); err != nil {
		return cfg, loaded, err
	}
	if cfg.GenerationTimeout, err = getDuration("GENERATION_TIMEOUT", cfg.GenerationTimeout); err != nil {
		return cfg, loaded, err
	}
	if cfg.MonitorInterval, err = getDuration("MONITOR_INTERVAL", cfg.MonitorInterval); err != nil {
		return cfg, loaded, err
	}

	return cfg, loaded, nil
}

func getString(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getInt(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return def, fmt.Errorf("invalid %s %q", key, v)
	}
	return n, nil
}

func getDuration(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil || d < 0 {
		return def, fmt.Errorf("invalid %s %q", key, v)
	}
	return d, nil
}
