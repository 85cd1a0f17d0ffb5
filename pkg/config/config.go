package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the analyzer configuration
type Config struct {
	// Path is the file the configuration was loaded from, if any
	Path string `yaml:"-"`

	// ResourcePath is the base directory for relative resource files
	ResourcePath string `yaml:"resourcePath"`

	// PluginDirs are searched for dynamically loaded plugins
	PluginDirs []string `yaml:"pluginDirs"`

	GrammarFile             string `yaml:"grammarFile"`
	CharacterDefinitionFile string `yaml:"characterDefinitionFile"`

	// OOVProviderPlugins is ordered: the order is the activation and priority order
	OOVProviderPlugins []PluginSettings `yaml:"oovProviderPlugin"`

	Server        ServerConfig        `yaml:"server"`
	Observability ObservabilityConfig `yaml:"observability"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host            string        `yaml:"host"`
	Port            string        `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"readTimeout"`
	WriteTimeout    time.Duration `yaml:"writeTimeout"`
	ShutdownTimeout time.Duration `yaml:"shutdownTimeout"`
	MaxTextBytes    int64         `yaml:"maxTextBytes"`
	CacheEntries    int           `yaml:"cacheEntries"`
	CacheTTL        time.Duration `yaml:"cacheTTL"`

	// CacheBackend is "memory" or "redis"
	CacheBackend string `yaml:"cacheBackend"`
	RedisURL     string `yaml:"redisURL"`

	// RateLimit is the number of /v1 requests a client may make per
	// RateLimitWindow. Zero disables limiting.
	RateLimit       int           `yaml:"rateLimit"`
	RateLimitBurst  int           `yaml:"rateLimitBurst"`
	RateLimitWindow time.Duration `yaml:"rateLimitWindow"`
}

// ObservabilityConfig holds observability settings
type ObservabilityConfig struct {
	LogLevel string `yaml:"logLevel"`

	OTelEnabled     bool   `yaml:"otelEnabled"`
	OTelEndpoint    string `yaml:"otelEndpoint"`
	OTelServiceName string `yaml:"otelServiceName"`
	OTelInsecure    bool   `yaml:"otelInsecure"`
}

const (
	CacheBackendMemory = "memory"
	CacheBackendRedis  = "redis"
)

const (
	defaultGrammarFile = "grammar.yaml"
	defaultCharDefFile = "char.def"
)

// Default returns a configuration with defaults and no plugins
func Default() *Config {
	return &Config{
		GrammarFile:             defaultGrammarFile,
		CharacterDefinitionFile: defaultCharDefFile,
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            "8080",
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    15 * time.Second,
			ShutdownTimeout: 30 * time.Second,
			MaxTextBytes:    1 << 20,
			CacheEntries:    1024,
			CacheTTL:        5 * time.Minute,
			CacheBackend:    CacheBackendMemory,
			RateLimitWindow: time.Minute,
		},
		Observability: ObservabilityConfig{
			LogLevel:        "info",
			OTelEndpoint:    "localhost:4317",
			OTelServiceName: "morph-oov",
			OTelInsecure:    true,
		},
	}
}

// LoadConfig loads a YAML (or JSON) configuration file, applies environment
// overrides and validates the result. An empty path yields the defaults
// with overrides applied.
func LoadConfig(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
		cfg.Path = path
	}

	cfg.applyEnv()
	cfg.resolveResourcePath()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// applyEnv applies MORPH_* environment overrides
func (c *Config) applyEnv() {
	c.ResourcePath = getEnv("MORPH_RESOURCE_PATH", c.ResourcePath)
	if dirs := getEnv("MORPH_PLUGIN_DIRS", ""); dirs != "" {
		c.PluginDirs = filepath.SplitList(dirs)
	}
	c.Observability.LogLevel = getEnv("MORPH_LOG_LEVEL", c.Observability.LogLevel)
	c.Observability.OTelEnabled = getEnvBool("MORPH_OTEL_ENABLED", c.Observability.OTelEnabled)
	c.Observability.OTelEndpoint = getEnv("MORPH_OTEL_ENDPOINT", c.Observability.OTelEndpoint)
	c.Server.Host = getEnv("MORPH_HOST", c.Server.Host)
	c.Server.Port = getEnv("MORPH_PORT", c.Server.Port)
	c.Server.CacheEntries = getEnvInt("MORPH_CACHE_ENTRIES", c.Server.CacheEntries)
	c.Server.CacheBackend = getEnv("MORPH_CACHE_BACKEND", c.Server.CacheBackend)
	c.Server.RedisURL = getEnv("MORPH_REDIS_URL", c.Server.RedisURL)
	c.Server.RateLimit = getEnvInt("MORPH_RATE_LIMIT", c.Server.RateLimit)
	c.Server.ShutdownTimeout = getEnvDuration("MORPH_SHUTDOWN_TIMEOUT", c.Server.ShutdownTimeout)
}

// resolveResourcePath makes the resource path relative to the config file directory
func (c *Config) resolveResourcePath() {
	base := "."
	if c.Path != "" {
		base = filepath.Dir(c.Path)
	}
	if c.ResourcePath == "" {
		c.ResourcePath = base
	} else if !filepath.IsAbs(c.ResourcePath) {
		c.ResourcePath = filepath.Join(base, c.ResourcePath)
	}
}

// ResolvePath resolves a resource file name against the resource path
func (c *Config) ResolvePath(name string) string {
	if name == "" || filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(c.ResourcePath, name)
}

// SearchDirs returns the directories searched for dynamically loaded plugins
func (c *Config) SearchDirs() []string {
	dirs := make([]string, 0, len(c.PluginDirs)+1)
	for _, dir := range c.PluginDirs {
		dirs = append(dirs, c.ResolvePath(dir))
	}
	return append(dirs, c.ResourcePath)
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	for i, p := range c.OOVProviderPlugins {
		if p.Class() == "" {
			return fmt.Errorf("oovProviderPlugin[%d]: %s is required", i, ClassKey)
		}
	}

	if c.Server.Port == "" {
		return fmt.Errorf("server port is required")
	}
	if c.Server.MaxTextBytes <= 0 {
		return fmt.Errorf("server maxTextBytes must be positive")
	}
	switch c.Server.CacheBackend {
	case CacheBackendMemory:
	case CacheBackendRedis:
		if c.Server.RedisURL == "" {
			return fmt.Errorf("server redisURL is required for the redis cache backend")
		}
	default:
		return fmt.Errorf("unknown server cacheBackend: %q", c.Server.CacheBackend)
	}
	if c.Server.RateLimit < 0 || c.Server.RateLimitBurst < 0 {
		return fmt.Errorf("server rateLimit and rateLimitBurst must not be negative")
	}
	if c.Server.RateLimit > 0 && c.Server.RateLimitWindow <= 0 {
		return fmt.Errorf("server rateLimitWindow must be positive when rateLimit is set")
	}

	if c.Observability.OTelEnabled {
		if c.Observability.OTelEndpoint == "" {
			return fmt.Errorf("OpenTelemetry endpoint is required when OTel is enabled")
		}
		if c.Observability.OTelServiceName == "" {
			return fmt.Errorf("OpenTelemetry service name is required when OTel is enabled")
		}
	}

	return nil
}

// getEnv returns an environment variable value or a default
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvBool returns a boolean environment variable or a default
func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return strings.ToLower(value) == "true" || value == "1"
	}
	return defaultValue
}

// getEnvInt returns an integer environment variable or a default
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// getEnvDuration returns a duration environment variable or a default
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
