package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

// Config holds every environment setting the server reads.
type Config struct {
	// Server
	Port        string
	HTTPTimeout time.Duration

	// Gemini API
	GeminiAPIKeys []string
	GeminiModel   string

	// fal.ai
	FalAPIKey     string
	FalModel      string
	FalQueueURL   string
	FalRunURL     string
	VideoTimeout  time.Duration
	PollInterval  time.Duration
	DefaultRatio  string
	DefaultLength string

	// Scraping
	ScrapeDoToken    string
	ScrapeDoURL      string
	ExtractMaxImages int
	ExtractProbe     bool

	// Redis
	RedisEnabled  bool
	RedisHost     string
	RedisPort     string
	RedisUsername string
	RedisPassword string
	RedisUseTLS   bool

	// Supabase
	SupabaseURL        string
	SupabaseServiceKey string

	// Worker
	WorkerConcurrency int

	// Logging
	LogLevel  string
	LogFormat string
}

var globalConfig *Config

// LoadConfig reads .env (when present) and the process environment.
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		zap.L().Warn(".env file not found, using environment variables")
	}

	cfg := &Config{
		Port:        getEnv("PORT", "8080"),
		HTTPTimeout: time.Duration(getEnvInt("HTTP_TIMEOUT_SECONDS", 30)) * time.Second,

		GeminiAPIKeys: splitKeys(os.Getenv("GEMINI_API_KEY")),
		GeminiModel:   getEnv("GEMINI_MODEL", "gemini-2.0-flash"),

		FalAPIKey:     getEnv("FAL_API_KEY", getEnv("FAL_KEY", "")),
		FalModel:      getEnv("FAL_MODEL", "fal-ai/veo2"),
		FalQueueURL:   strings.TrimRight(getEnv("FAL_QUEUE_URL", "https://queue.fal.run"), "/"),
		FalRunURL:     strings.TrimRight(getEnv("FAL_RUN_URL", "https://fal.run"), "/"),
		VideoTimeout:  time.Duration(getEnvInt("VIDEO_TIMEOUT_SECONDS", 600)) * time.Second,
		PollInterval:  time.Duration(getEnvInt("POLL_INTERVAL_MS", 2000)) * time.Millisecond,
		DefaultRatio:  getEnv("DEFAULT_ASPECT_RATIO", "9:16"),
		DefaultLength: getEnv("DEFAULT_DURATION", "8s"),

		ScrapeDoToken:    getEnv("SCRAPE_DO_TOKEN", ""),
		ScrapeDoURL:      getEnv("SCRAPE_DO_URL", "https://api.scrape.do/"),
		ExtractMaxImages: getEnvInt("EXTRACT_MAX_IMAGES", 12),
		ExtractProbe:     getEnvBool("EXTRACT_PROBE_IMAGES", true),

		RedisEnabled:  getEnvBool("REDIS_ENABLED", true),
		RedisHost:     getEnv("REDIS_HOST", "localhost"),
		RedisPort:     getEnv("REDIS_PORT", "6379"),
		RedisUsername: getEnv("REDIS_USERNAME", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisUseTLS:   getEnvBool("REDIS_USE_TLS", false),

		SupabaseURL:        getEnv("SUPABASE_URL", ""),
		SupabaseServiceKey: getEnv("SUPABASE_SERVICE_KEY", getEnv("SUPABASE_KEY", "")),

		WorkerConcurrency: getEnvInt("WORKER_CONCURRENCY", 2),

		LogLevel:  strings.ToLower(getEnv("LOG_LEVEL", "info")),
		LogFormat: strings.ToLower(getEnv("LOG_FORMAT", "console")),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	cfg.normalize()
	globalConfig = cfg

	zap.L().Info("configuration loaded",
		zap.String("port", cfg.Port),
		zap.String("gemini_model", cfg.GeminiModel),
		zap.Int("gemini_keys", len(cfg.GeminiAPIKeys)),
		zap.String("fal_model", cfg.FalModel),
		zap.Bool("redis", cfg.RedisEnabled),
		zap.Bool("supabase", cfg.SupabaseEnabled()),
		zap.Bool("scrape_do", cfg.ScrapeDoToken != ""),
	)

	return cfg, nil
}

// GetConfig returns the loaded configuration. LoadConfig must run first.
func GetConfig() *Config {
	if globalConfig == nil {
		zap.L().Fatal("config not loaded, call LoadConfig() first")
	}
	return globalConfig
}

// SetConfig installs cfg as the global configuration. Used by tests and tools
// that build a Config by hand.
func SetConfig(cfg *Config) {
	globalConfig = cfg
}

func (c *Config) validate() error {
	if len(c.GeminiAPIKeys) == 0 {
		return fmt.Errorf("GEMINI_API_KEY is required")
	}
	if c.FalAPIKey == "" {
		return fmt.Errorf("FAL_API_KEY is required")
	}
	if c.SupabaseURL != "" && c.SupabaseServiceKey == "" {
		return fmt.Errorf("SUPABASE_SERVICE_KEY is required when SUPABASE_URL is set")
	}
	return nil
}

func (c *Config) normalize() {
	if c.HTTPTimeout <= 0 {
		c.HTTPTimeout = 30 * time.Second
	}
	if c.VideoTimeout <= 0 {
		c.VideoTimeout = 600 * time.Second
	}
	if c.PollInterval <= 0 {
		c.PollInterval = 2 * time.Second
	}
	if c.ExtractMaxImages < 1 {
		c.ExtractMaxImages = 12
	}
	if c.WorkerConcurrency < 1 {
		c.WorkerConcurrency = 1
	}
}

// SupabaseEnabled reports whether job persistence is configured.
func (c *Config) SupabaseEnabled() bool {
	return c.SupabaseURL != "" && c.SupabaseServiceKey != ""
}

// GetRedisAddr returns host:port for the Redis client.
func (c *Config) GetRedisAddr() string {
	return fmt.Sprintf("%s:%s", c.RedisHost, c.RedisPort)
}

func getEnv(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, fallback int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvBool(key string, fallback bool) bool {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}

// splitKeys accepts a single key or a comma separated list for rotation.
func splitKeys(raw string) []string {
	var keys []string
	for _, k := range strings.Split(raw, ",") {
		if k = strings.TrimSpace(k); k != "" {
			keys = append(keys, k)
		}
	}
	return keys
}
