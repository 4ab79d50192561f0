// Package config wraps viper with a nil-safe accessor type and the editor's
// defaults, config file lookup, .env loading, and environment bindings.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config is a read-mostly view over a viper instance. A nil Config or a
// Config over a nil viper returns zero values.
type Config struct {
	v *viper.Viper
}

// New wraps v.
func New(v *viper.Viper) *Config {
	return &Config{v: v}
}

func (c *Config) ok() bool { return c != nil && c.v != nil }

// GetString returns the string value for key.
func (c *Config) GetString(key string) string {
	if !c.ok() {
		return ""
	}
	return c.v.GetString(key)
}

// GetInt returns the int value for key.
func (c *Config) GetInt(key string) int {
	if !c.ok() {
		return 0
	}
	return c.v.GetInt(key)
}

// GetFloat64 returns the float value for key.
func (c *Config) GetFloat64(key string) float64 {
	if !c.ok() {
		return 0
	}
	return c.v.GetFloat64(key)
}

// GetBool returns the bool value for key.
func (c *Config) GetBool(key string) bool {
	if !c.ok() {
		return false
	}
	return c.v.GetBool(key)
}

// GetDuration returns the duration value for key.
func (c *Config) GetDuration(key string) time.Duration {
	if !c.ok() {
		return 0
	}
	return c.v.GetDuration(key)
}

// GetStringSlice returns the string slice value for key.
func (c *Config) GetStringSlice(key string) []string {
	if !c.ok() {
		return nil
	}
	return c.v.GetStringSlice(key)
}

// IsSet reports whether key has a value from any source.
func (c *Config) IsSet(key string) bool {
	if !c.ok() {
		return false
	}
	return c.v.IsSet(key)
}

// Set overrides key.
func (c *Config) Set(key string, value any) {
	if !c.ok() {
		return
	}
	c.v.Set(key, value)
}

// Sub returns the subtree under key as its own Config. Every leaf is
// resolved through the parent, so defaults, file values and environment
// bindings all carry over. A missing key yields an empty Config, never nil.
func (c *Config) Sub(key string) *Config {
	sub := viper.New()
	if !c.ok() {
		return New(sub)
	}
	prefix := strings.ToLower(key) + "."
	for _, k := range c.v.AllKeys() {
		if strings.HasPrefix(k, prefix) {
			sub.Set(strings.TrimPrefix(k, prefix), c.v.Get(k))
		}
	}
	return New(sub)
}

// Unmarshal decodes the whole config into target using mapstructure tags.
func (c *Config) Unmarshal(target any) error {
	if !c.ok() {
		return nil
	}
	return c.v.Unmarshal(target)
}

// Viper returns the underlying viper instance, creating an empty one for a
// nil Config.
func (c *Config) Viper() *viper.Viper {
	if !c.ok() {
		return viper.New()
	}
	return c.v
}

// envAliases maps deployment environment variables onto config keys. They
// are honored in addition to the BL4_ prefixed automatic bindings.
var envAliases = map[string]string{
	"server.port":                "PORT",
	"server.host":                "HOST",
	"plugins.parts.admin_secret": "ADMIN_SECRET",
	"plugins.parts.source_url":   "PARTS_SOURCE_URL",
	"plugins.news.content":       "NEWS_CONTENT",
	"app.version":                "APP_VERSION",
	"plugins.save.upstream_url":  "SAVE_API_URL",
	"database.path":              "BL4_DB_PATH",
	"data.dir":                   "BL4_DATA_DIR",
}

// SetDefaults installs the built-in defaults on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 3001)
	v.SetDefault("server.cors_origins", []string{"*"})
	v.SetDefault("server.read_timeout", 15*time.Second)
	v.SetDefault("server.write_timeout", 60*time.Second)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	v.SetDefault("data.dir", "data")
	v.SetDefault("database.path", "bl4editor.db")

	v.SetDefault("app.version", "3.69.0")
	v.SetDefault("app.changelog", "Web port v1. See README.")
	v.SetDefault("app.download_url", "https://github.com/skeletor601/BL4-SaveEditor/releases")

	v.SetDefault("plugins.parts.enabled", true)
	v.SetDefault("plugins.parts.admin_secret", "")
	v.SetDefault("plugins.parts.source_url", "")
	v.SetDefault("plugins.parts.file", "")
	v.SetDefault("plugins.parts.fetch_timeout", 15*time.Second)
	v.SetDefault("plugins.parts.strict_rarity_priority", false)
	v.SetDefault("plugins.parts.updates_per_minute", 6)

	v.SetDefault("plugins.favorites.enabled", true)

	v.SetDefault("plugins.news.enabled", true)
	v.SetDefault("plugins.news.content", "")

	v.SetDefault("plugins.save.enabled", true)
	v.SetDefault("plugins.save.upstream_url", "")
	v.SetDefault("plugins.save.timeout", 60*time.Second)
	v.SetDefault("plugins.save.requests_per_second", 5.0)
	v.SetDefault("plugins.save.burst", 10)
}

// Load builds the runtime configuration. A .env file in the working
// directory is loaded first if present; path names an optional YAML config
// file, and when empty bl4editor.yaml is looked up in the working directory.
func Load(path string) (*Config, error) {
	// Missing .env is normal outside development.
	_ = godotenv.Load()

	v := viper.New()
	SetDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	} else {
		v.SetConfigName("bl4editor")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}

	v.SetEnvPrefix("BL4")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, env := range envAliases {
		if err := v.BindEnv(key, "BL4_"+strings.ToUpper(strings.ReplaceAll(key, ".", "_")), env); err != nil {
			return nil, fmt.Errorf("bind env %s: %w", env, err)
		}
	}

	return New(v), nil
}
