package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Levels accepted by the story backend, in selector order.
var Levels = []string{"Beginner", "Intermediate", "Advanced"}

type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Log        LogConfig        `yaml:"log"`
	Backend    BackendConfig    `yaml:"backend"`
	HTTPClient HTTPClientConfig `yaml:"http_client"`
	Limiter    LimiterConfig    `yaml:"limiter"`
	Poll       PollConfig       `yaml:"poll"`
	Generation GenerationConfig `yaml:"generation"`
	Storage    StorageConfig    `yaml:"storage"`
}

type ServerConfig struct {
	Addr                string `yaml:"addr"`
	ReadTimeoutSeconds  int    `yaml:"read_timeout_seconds"`
	WriteTimeoutSeconds int    `yaml:"write_timeout_seconds"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type BackendConfig struct {
	BaseURL          string `yaml:"base_url"`
	StartPath        string `yaml:"start_path"`
	StatusPath       string `yaml:"status_path"`
	StoryPath        string `yaml:"story_path"`
	CardPathTemplate string `yaml:"card_path_template"`
	DocumentPath     string `yaml:"document_path"`
}

type HTTPClientConfig struct {
	TimeoutSeconds int `yaml:"timeout_seconds"`
	MaxRetries     int `yaml:"max_retries"`
	RetryDelayMS   int `yaml:"retry_delay_ms"`
}

type LimiterConfig struct {
	MaxConcurrent int `yaml:"max_concurrent"`
	RatePerSecond int `yaml:"rate_per_second"`
}

type PollConfig struct {
	IntervalMS int `yaml:"interval_ms"`
}

type GenerationConfig struct {
	DefaultLevel string `yaml:"default_level"`
}

type StorageConfig struct {
	Type     string `yaml:"type"`
	BasePath string `yaml:"base_path"`
	BaseURL  string `yaml:"base_url"`
}

func (c HTTPClientConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

func (c HTTPClientConfig) RetryDelay() time.Duration {
	return time.Duration(c.RetryDelayMS) * time.Millisecond
}

func (c PollConfig) Interval() time.Duration {
	return time.Duration(c.IntervalMS) * time.Millisecond
}

// Load reads the config file named by CONFIG_PATH (default config.yaml).
// A missing file is not an error; defaults apply.
func Load() (*Config, error) {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config.yaml"
	}
	return LoadFile(configPath)
}

func LoadFile(configPath string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return finish(cfg)
		}
		return nil, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", configPath, err)
	}

	return finish(cfg)
}

func finish(cfg *Config) (*Config, error) {
	cfg = applyEnvOverrides(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:                ":8090",
			ReadTimeoutSeconds:  30,
			WriteTimeoutSeconds: 0, // SSE streams stay open
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
		Backend: BackendConfig{
			BaseURL:          "http://localhost:5000",
			StartPath:        "/api/generate",
			StatusPath:       "/api/status",
			StoryPath:        "/api/story",
			CardPathTemplate: "/output/cards/story_card_%d.png",
			DocumentPath:     "/output/story.pdf",
		},
		HTTPClient: HTTPClientConfig{
			TimeoutSeconds: 15,
			MaxRetries:     2,
			RetryDelayMS:   500,
		},
		Limiter: LimiterConfig{
			MaxConcurrent: 4,
			RatePerSecond: 10,
		},
		Poll: PollConfig{
			IntervalMS: 1000,
		},
		Generation: GenerationConfig{
			DefaultLevel: "Beginner",
		},
		Storage: StorageConfig{
			Type:     "local",
			BasePath: "./output",
			BaseURL:  "/files",
		},
	}
}

// Validate rejects settings the client cannot run with.
func (c *Config) Validate() error {
	if c.Backend.BaseURL == "" {
		return fmt.Errorf("backend.base_url is required")
	}
	// One page number is substituted into each card path.
	if t := c.Backend.CardPathTemplate; strings.Count(t, "%") != 1 || !strings.Contains(t, "%d") {
		return fmt.Errorf("backend.card_path_template must contain exactly one %%d verb, got %q", t)
	}
	if c.Poll.IntervalMS <= 0 {
		return fmt.Errorf("poll.interval_ms must be positive, got %d", c.Poll.IntervalMS)
	}
	if c.HTTPClient.TimeoutSeconds <= 0 {
		return fmt.Errorf("http_client.timeout_seconds must be positive, got %d", c.HTTPClient.TimeoutSeconds)
	}
	if c.HTTPClient.MaxRetries < 0 {
		return fmt.Errorf("http_client.max_retries must not be negative")
	}
	if c.Limiter.MaxConcurrent <= 0 || c.Limiter.RatePerSecond <= 0 {
		return fmt.Errorf("limiter.max_concurrent and limiter.rate_per_second must be positive")
	}
	if !ValidLevel(c.Generation.DefaultLevel) {
		return fmt.Errorf("generation.default_level %q is not one of %s",
			c.Generation.DefaultLevel, strings.Join(Levels, ", "))
	}
	return nil
}

func ValidLevel(level string) bool {
	for _, l := range Levels {
		if l == level {
			return true
		}
	}
	return false
}

func applyEnvOverrides(cfg *Config) *Config {
	if v := os.Getenv("SERVER_ADDR"); v != "" {
		cfg.Server.Addr = v
	}
	if v := os.Getenv("BACKEND_URL"); v != "" {
		cfg.Backend.BaseURL = strings.TrimSuffix(v, "/")
	}
	if v := os.Getenv("STORY_LEVEL"); v != "" {
		cfg.Generation.DefaultLevel = v
	}
	if v := os.Getenv("POLL_INTERVAL_MS"); v != "" {
		if ms, err := strconv.Atoi(v); err == nil {
			cfg.Poll.IntervalMS = ms
		}
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("STORAGE_BASE_PATH"); v != "" {
		cfg.Storage.BasePath = v
	}
	return cfg
}
