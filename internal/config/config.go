package config

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// Server
	Host   string
	Port   string
	APIKey string // API key for authenticating /tts requests (empty = no auth, dev mode)

	// CORS
	CorsAllowedOrigins string // Comma-separated allowed origins (empty = *, dev mode)

	// Engine
	ModelDir      string // Directory holding the model checkpoints and config.yaml
	DeviceID      int    // GPU device index used when CUDA is available
	EngineBin     string // Name or path of the indextts inference binary
	DefaultPrompt string // Fallback reference audio used when no prompt is uploaded

	// Output
	OutputDir string // Directory where generated audio files are written

	// Idempotency cache
	CacheBackend    string        // "memory" or "redis"
	CacheMaxEntries int           // Memory backend: max entries before oldest eviction
	CacheTTL        time.Duration // Entry lifetime (0 = no expiry for memory backend)
	RedisURL        string

	// Synthesis pool
	MaxConcurrentSynth int           // Max engine invocations running at once
	SynthTimeout       time.Duration // Per-request synthesis timeout (0 = no timeout)
}

// Load parses configuration from command-line flags with environment-variable
// defaults. A .env file is honored when present so the env fallbacks behave
// the same in development and in containers.
func Load(args []string) (*Config, error) {
	// Load .env file if it exists (ignore error in production)
	_ = godotenv.Load()

	cfg := &Config{}

	fs := flag.NewFlagSet("ttsgate", flag.ContinueOnError)
	fs.StringVar(&cfg.Host, "host", getEnv("TTS_HOST", "0.0.0.0"), "Host for the API server")
	fs.StringVar(&cfg.Port, "port", getEnv("TTS_PORT", "8080"), "Port for the API server")
	fs.StringVar(&cfg.ModelDir, "model-dir", getEnv("TTS_MODEL_DIR", "checkpoints"), "Path to the model directory")
	fs.IntVar(&cfg.DeviceID, "device", getEnvInt("TTS_DEVICE_ID", 0), "GPU device index to use when CUDA is available")
	fs.StringVar(&cfg.EngineBin, "engine-bin", getEnv("TTS_ENGINE_BIN", "indextts"), "Name or path of the inference binary")
	fs.StringVar(&cfg.DefaultPrompt, "default-prompt", getEnv("TTS_DEFAULT_PROMPT", "assets/sample_prompt.wav"), "Fallback reference audio for /tts/create")
	fs.StringVar(&cfg.OutputDir, "output-dir", getEnv("TTS_OUTPUT_DIR", "outputs/api"), "Directory to save generated audio files")
	fs.StringVar(&cfg.CacheBackend, "cache-backend", getEnv("TTS_CACHE_BACKEND", "memory"), "Idempotency cache backend: memory or redis")
	fs.IntVar(&cfg.CacheMaxEntries, "cache-max-entries", getEnvInt("TTS_CACHE_MAX_ENTRIES", 1024), "Max entries held by the memory cache")
	fs.DurationVar(&cfg.CacheTTL, "cache-ttl", getEnvDuration("TTS_CACHE_TTL", 24*time.Hour), "Idempotency entry lifetime (0 = never expire)")
	fs.StringVar(&cfg.RedisURL, "redis-url", getEnv("REDIS_URL", "redis://localhost:6379"), "Redis URL for the redis cache backend")
	fs.IntVar(&cfg.MaxConcurrentSynth, "max-concurrent", getEnvInt("TTS_MAX_CONCURRENT", 2), "Max concurrent synthesis jobs")
	fs.DurationVar(&cfg.SynthTimeout, "synth-timeout", getEnvDuration("TTS_SYNTH_TIMEOUT", 5*time.Minute), "Per-request synthesis timeout (0 = none)")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	// Secrets stay env-only so they never show up in process listings.
	cfg.APIKey = getEnv("TTS_API_KEY", "")
	cfg.CorsAllowedOrigins = getEnv("CORS_ALLOWED_ORIGINS", "")

	// Validate
	if cfg.ModelDir == "" {
		return nil, fmt.Errorf("model-dir is required")
	}
	if cfg.OutputDir == "" {
		return nil, fmt.Errorf("output-dir is required")
	}
	switch cfg.CacheBackend {
	case "memory", "redis":
	default:
		return nil, fmt.Errorf("invalid cache-backend %q: must be memory or redis", cfg.CacheBackend)
	}
	if cfg.MaxConcurrentSynth < 1 {
		return nil, fmt.Errorf("max-concurrent must be at least 1")
	}

	return cfg, nil
}

// Addr returns the host:port the HTTP server binds to.
func (c *Config) Addr() string {
	return c.Host + ":" + c.Port
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		i, err := strconv.Atoi(value)
		if err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		d, err := time.ParseDuration(value)
		if err == nil {
			return d
		}
	}
	return defaultValue
}
