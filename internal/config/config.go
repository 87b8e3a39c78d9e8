package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all constituencies configuration.
type Config struct {
	// API client used by the browser and the one-shot commands
	Client ClientConfig `yaml:"client"`

	// Embedded API server
	Server ServerConfig `yaml:"server"`

	// Snapshot cache behind the server
	Store StoreConfig `yaml:"store"`

	// Terminal UI
	UI UIConfig `yaml:"ui"`

	// Logging
	Logging LoggingConfig `yaml:"logging"`
}

// ClientConfig configures the HTTP client of the constituencies API.
type ClientConfig struct {
	BaseURL   string `yaml:"base_url"`
	Timeout   string `yaml:"timeout"`
	UserAgent string `yaml:"user_agent"`
}

// ServerConfig configures the embedded API server.
type ServerConfig struct {
	Listen        string `yaml:"listen"`
	SourceURL     string `yaml:"source_url"` // National Assembly constituency page
	ScrapeTimeout string `yaml:"scrape_timeout"`
	CacheTTL      string `yaml:"cache_ttl"`
}

// StoreConfig selects and configures the snapshot cache backend.
type StoreConfig struct {
	Backend       string `yaml:"backend"` // memory, sqlite, redis
	SQLitePath    string `yaml:"sqlite_path"`
	RedisAddr     string `yaml:"redis_addr"`
	RedisPassword string `yaml:"redis_password"`
	RedisDB       int    `yaml:"redis_db"`
	RedisKey      string `yaml:"redis_key"`
}

// UIConfig configures the terminal browser.
type UIConfig struct {
	Theme string `yaml:"theme"` // auto, light, dark
}

// DefaultLogFile is where category logs go unless logging.file says otherwise.
const DefaultLogFile = "logs/constituencies.log"

// Store backends.
const (
	BackendMemory = "memory"
	BackendSQLite = "sqlite"
	BackendRedis  = "redis"
)

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Client: ClientConfig{
			BaseURL:   "https://recruitment-2026-fullstack.onrender.com/api",
			Timeout:   "15s",
			UserAgent: "constituencies/1.0",
		},

		Server: ServerConfig{
			Listen:        ":8000",
			SourceURL:     "https://www.parliament.gov.zm/members/constituencies",
			ScrapeTimeout: "30s",
			CacheTTL:      "24h",
		},

		Store: StoreConfig{
			Backend:    BackendMemory,
			SQLitePath: "data/constituencies.db",
			RedisAddr:  "127.0.0.1:6379",
			RedisKey:   "constituencies:snapshot",
		},

		UI: UIConfig{
			Theme: "auto",
		},

		Logging: LoggingConfig{
			Level: "info",
			File:  DefaultLogFile,
		},
	}
}

// LoadDotEnv loads KEY=VALUE pairs from an env file into the process
// environment without overriding variables that are already set.
// A missing file is not an error.
func LoadDotEnv(path string) error {
	if path == "" {
		return nil
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("failed to load env file: %w", err)
	}
	return nil
}

// Load loads configuration from a YAML file.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	if err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	cfg.applyEnvOverrides()

	return cfg, nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// applyEnvOverrides applies environment variable overrides.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("CONSTITUENCIES_API_URL"); v != "" {
		c.Client.BaseURL = v
	}
	if v := os.Getenv("CONSTITUENCIES_LISTEN"); v != "" {
		c.Server.Listen = v
	}
	if v := os.Getenv("CONSTITUENCIES_SOURCE_URL"); v != "" {
		c.Server.SourceURL = v
	}
	if v := os.Getenv("CONSTITUENCIES_STORE"); v != "" {
		c.Store.Backend = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		c.Store.SQLitePath = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		c.Store.RedisAddr = v
	}
	if v := os.Getenv("REDIS_PASS"); v != "" {
		c.Store.RedisPassword = v
	}
	if v := os.Getenv("REDIS_DB"); v != "" {
		// ignore parse errors, keep the configured db
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			c.Store.RedisDB = n
		}
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
}

// GetClientTimeout returns the per-request API timeout as a duration.
func (c *Config) GetClientTimeout() time.Duration {
	d, err := time.ParseDuration(c.Client.Timeout)
	if err != nil || d <= 0 {
		return 15 * time.Second
	}
	return d
}

// GetScrapeTimeout returns the scrape timeout as a duration.
func (c *Config) GetScrapeTimeout() time.Duration {
	d, err := time.ParseDuration(c.Server.ScrapeTimeout)
	if err != nil || d <= 0 {
		return 30 * time.Second
	}
	return d
}

// GetCacheTTL returns how long a scraped snapshot is considered fresh.
func (c *Config) GetCacheTTL() time.Duration {
	d, err := time.ParseDuration(c.Server.CacheTTL)
	if err != nil || d <= 0 {
		return 24 * time.Hour
	}
	return d
}

// ValidBackends lists all supported snapshot store backends.
var ValidBackends = []string{BackendMemory, BackendSQLite, BackendRedis}

// Validate validates the configuration.
func (c *Config) Validate() error {
	u, err := url.Parse(c.Client.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("invalid client base_url %q: must be an absolute http(s) URL", c.Client.BaseURL)
	}

	validBackend := false
	for _, b := range ValidBackends {
		if c.Store.Backend == b {
			validBackend = true
			break
		}
	}
	if !validBackend {
		return fmt.Errorf("invalid store backend: %s (valid: %v)", c.Store.Backend, ValidBackends)
	}

	if err := c.Logging.validateLevel(); err != nil {
		return err
	}

	switch c.UI.Theme {
	case "", "auto", "light", "dark":
	default:
		return fmt.Errorf("invalid ui theme: %s (valid: auto, light, dark)", c.UI.Theme)
	}

	return nil
}
