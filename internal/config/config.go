package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Port             string        `yaml:"port"`
	DBPath           string        `yaml:"db_path"`
	ExportPath       string        `yaml:"export_path"`
	LLMURL           string        `yaml:"llm_url"`
	LLMAPIKey        string        `yaml:"llm_api_key"`
	LLMModel         string        `yaml:"llm_model"`
	LLMTimeout       time.Duration `yaml:"llm_timeout"`
	JWTSecret        string        `yaml:"jwt_secret"`
	TokenTTL         time.Duration `yaml:"token_ttl"`
	Timezone         string        `yaml:"timezone"`
	LogLevel         string        `yaml:"log_level"`
	BackfillInterval time.Duration `yaml:"backfill_interval"`
	RateLimit        int           `yaml:"rate_limit"`
	AllowedOrigins   []string      `yaml:"allowed_origins"`
}

func defaults() *Config {
	return &Config{
		Port:             "8080",
		ExportPath:       "exports",
		LLMURL:           "https://api.deepseek.com/v1",
		LLMModel:         "deepseek-chat",
		LLMTimeout:       30 * time.Second,
		TokenTTL:         24 * time.Hour,
		Timezone:         "UTC",
		LogLevel:         "info",
		BackfillInterval: time.Hour,
		RateLimit:        60,
	}
}

// Load reads defaults, then the YAML file at path (or VIBE_CONFIG_FILE), then
// the environment. A .env file in the working directory is loaded first and
// never overrides variables that are already set.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("loading .env: %w", err)
	}

	cfg := defaults()
	if path == "" {
		path = os.Getenv("VIBE_CONFIG_FILE")
	}
	if path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}
	if err := cfg.loadEnv(); err != nil {
		return nil, err
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parsing config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) loadEnv() error {
	c.Port = getEnv("VIBE_PORT", c.Port)
	c.DBPath = getEnv("VIBE_DB_PATH", c.DBPath)
	c.ExportPath = getEnv("VIBE_EXPORT_PATH", c.ExportPath)
	c.LLMURL = getEnv("VIBE_LLM_URL", c.LLMURL)
	c.LLMAPIKey = getEnv("VIBE_LLM_API_KEY", c.LLMAPIKey)
	c.LLMModel = getEnv("VIBE_LLM_MODEL", c.LLMModel)
	c.JWTSecret = getEnv("VIBE_JWT_SECRET", c.JWTSecret)
	c.Timezone = getEnv("VIBE_TIMEZONE", c.Timezone)
	c.LogLevel = getEnv("VIBE_LOG_LEVEL", c.LogLevel)
	c.AllowedOrigins = getList("VIBE_ALLOWED_ORIGINS", c.AllowedOrigins)

	var err error
	if c.LLMTimeout, err = getDuration("VIBE_LLM_TIMEOUT", c.LLMTimeout); err != nil {
		return err
	}
	if c.TokenTTL, err = getDuration("VIBE_TOKEN_TTL", c.TokenTTL); err != nil {
		return err
	}
	if c.BackfillInterval, err = getDuration("VIBE_BACKFILL_INTERVAL", c.BackfillInterval); err != nil {
		return err
	}
	if c.RateLimit, err = getInt("VIBE_RATE_LIMIT", c.RateLimit); err != nil {
		return err
	}
	return nil
}

func (c *Config) validate() error {
	if c.DBPath == "" {
		return fmt.Errorf("VIBE_DB_PATH is required")
	}
	if c.JWTSecret == "" {
		return fmt.Errorf("VIBE_JWT_SECRET is required")
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return fmt.Errorf("unknown timezone %q: %w", c.Timezone, err)
	}
	if _, err := ParseLevel(c.LogLevel); err != nil {
		return err
	}
	if c.LLMTimeout <= 0 || c.TokenTTL <= 0 || c.BackfillInterval <= 0 {
		return fmt.Errorf("durations must be positive")
	}
	if c.RateLimit <= 0 {
		return fmt.Errorf("rate limit must be positive")
	}
	return nil
}

// Location returns the zone calendar days are counted in
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// LLMEnabled reports whether a completion API key is configured
func (c *Config) LLMEnabled() bool {
	return c.LLMAPIKey != ""
}

// ParseLevel maps a level name to a slog level
func ParseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return 0, fmt.Errorf("unknown log level %q", s)
	}
	return level, nil
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getDuration(key string, defaultVal time.Duration) (time.Duration, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}

func getInt(key string, defaultVal int) (int, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}

// getList splits a comma-separated variable, dropping blank items
func getList(key string, defaultVal []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultVal
	}
	var out []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
