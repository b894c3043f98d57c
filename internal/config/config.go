// Package config loads server configuration from a YAML file with
// WAYFARER_* environment overrides.
package config

import (
	"encoding/hex"
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Store kinds accepted by the factory.
const (
	StoreMemory = "memory"
	StoreFile   = "file"
	StoreRedis  = "redis"
	StoreSQLite = "sqlite"
)

// Config is the full server configuration.
type Config struct {
	// StoryDir is the root of the story repository.
	StoryDir string `yaml:"story_dir"`

	// Addr is the HTTP listen address.
	Addr string `yaml:"addr"`

	Log   LogConfig   `yaml:"log"`
	Store StoreConfig `yaml:"store"`
}

// LogConfig controls the structured logger.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // text or json
}

// StoreConfig selects and configures the history store backend.
type StoreConfig struct {
	// Kind is one of memory, file, redis, sqlite.
	Kind string `yaml:"kind"`

	// Path is the data directory (file) or database file (sqlite).
	Path string `yaml:"path"`

	// EncryptionKey, when set, wraps the store in at-rest encryption.
	// Hex-encoded, 32 bytes.
	EncryptionKey string `yaml:"encryption_key"`

	Redis RedisConfig `yaml:"redis"`
}

// RedisConfig holds the connection settings for the redis backend.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`

	// Lock enables the distributed per-reader lock. Single-instance
	// deployments can leave it off; the in-process lock suffices.
	Lock bool `yaml:"lock"`
}

// Default returns the configuration used when no file or overrides exist.
func Default() *Config {
	return &Config{
		StoryDir: "stories",
		Addr:     ":8080",
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Store: StoreConfig{
			Kind: StoreMemory,
			Redis: RedisConfig{
				Addr: "localhost:6379",
			},
		},
	}
}

// Load reads the configuration file at path, falling back to defaults when
// path is empty or missing, then applies environment overrides.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
		} else if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file '%s': %w", path, err)
		}
	}

	cfg.applyEnv()

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	setString(&c.StoryDir, "WAYFARER_STORY_DIR")
	setString(&c.Addr, "WAYFARER_ADDR")
	setString(&c.Log.Level, "WAYFARER_LOG_LEVEL")
	setString(&c.Log.Format, "WAYFARER_LOG_FORMAT")
	setString(&c.Store.Kind, "WAYFARER_STORE")
	setString(&c.Store.Path, "WAYFARER_STORE_PATH")
	setString(&c.Store.EncryptionKey, "WAYFARER_ENCRYPTION_KEY")
	setString(&c.Store.Redis.Addr, "WAYFARER_REDIS_ADDR")
	setString(&c.Store.Redis.Password, "WAYFARER_REDIS_PASSWORD")
	if raw, ok := os.LookupEnv("WAYFARER_REDIS_DB"); ok {
		if db, err := strconv.Atoi(raw); err == nil {
			c.Store.Redis.DB = db
		}
	}
	if raw, ok := os.LookupEnv("WAYFARER_REDIS_LOCK"); ok {
		c.Store.Redis.Lock = raw == "1" || raw == "true"
	}
}

func setString(dst *string, key string) {
	if v, ok := os.LookupEnv(key); ok {
		*dst = v
	}
}

func (c *Config) validate() error {
	switch c.Store.Kind {
	case StoreMemory, StoreRedis:
	case StoreFile, StoreSQLite:
		if c.Store.Path == "" {
			return fmt.Errorf("store kind '%s' requires a path", c.Store.Kind)
		}
	default:
		return fmt.Errorf("unknown store kind '%s' (want memory, file, redis or sqlite)", c.Store.Kind)
	}

	if c.Store.EncryptionKey != "" {
		if _, err := c.Store.DecodeKey(); err != nil {
			return err
		}
	}
	return nil
}

// DecodeKey decodes the hex-encoded encryption key.
func (s StoreConfig) DecodeKey() ([]byte, error) {
	key, err := hex.DecodeString(s.EncryptionKey)
	if err != nil {
		return nil, fmt.Errorf("encryption key is not valid hex: %w", err)
	}
	if len(key) != 32 {
		return nil, fmt.Errorf("encryption key must be 32 bytes, got %d", len(key))
	}
	return key, nil
}
