// Package config loads the runtime configuration for the cache tooling
// from a YAML file and SQLCACHE_* environment variables.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	mapstructure "github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"

	"github.com/charlesng35/sqlcache"
	"github.com/charlesng35/sqlcache/database"
)

// Config represents the runtime configuration.
type Config struct {
	LogLevel string         `mapstructure:"log_level"`
	Database DatabaseConfig `mapstructure:"database"`
	Cache    CacheConfig    `mapstructure:"cache"`
}

// DatabaseConfig describes connection options for the supported databases.
type DatabaseConfig struct {
	Driver   string            `mapstructure:"driver"`
	Path     string            `mapstructure:"path"`
	DSN      string            `mapstructure:"dsn"`
	Host     string            `mapstructure:"host"`
	Port     int               `mapstructure:"port"`
	User     string            `mapstructure:"user"`
	Password string            `mapstructure:"password"`
	Name     string            `mapstructure:"name"`
	Options  map[string]string `mapstructure:"options"`
}

// CacheConfig holds the expiration model settings.
type CacheConfig struct {
	SweepInterval            time.Duration `mapstructure:"sweep_interval"`
	DefaultSlidingExpiration time.Duration `mapstructure:"default_sliding_expiration"`

	// Schedule is the cron specification used by the sweeper CLI.
	Schedule string `mapstructure:"schedule"`
}

// Load reads configuration from the given directories (plus ./config),
// layering SQLCACHE_* environment variables on top. A missing file is not
// an error; defaults apply.
func Load(paths ...string) (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	v.AddConfigPath("./config")
	for _, path := range paths {
		v.AddConfigPath(path)
	}

	setDefaults(v)

	v.SetEnvPrefix("SQLCACHE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var cfgErr viper.ConfigFileNotFoundError
		if !errors.As(err, &cfgErr) {
			return nil, fmt.Errorf("config: read file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config, decodeHook()); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

// Validate enforces the same floors the cache engine applies at
// construction, so misconfiguration surfaces at startup.
func (c *Config) Validate() error {
	if c.Cache.SweepInterval < sqlcache.MinimumSweepInterval {
		return fmt.Errorf("%w: cache.sweep_interval %s is below the %s floor",
			sqlcache.ErrInvalidConfiguration, c.Cache.SweepInterval, sqlcache.MinimumSweepInterval)
	}
	if c.Cache.DefaultSlidingExpiration <= 0 {
		return fmt.Errorf("%w: cache.default_sliding_expiration must be positive, got %s",
			sqlcache.ErrInvalidConfiguration, c.Cache.DefaultSlidingExpiration)
	}
	return nil
}

// Connection converts the database section into the database package form.
func (c DatabaseConfig) Connection() database.Config {
	return database.Config{
		Driver:   strings.TrimSpace(c.Driver),
		Path:     strings.TrimSpace(c.Path),
		DSN:      strings.TrimSpace(c.DSN),
		Host:     strings.TrimSpace(c.Host),
		Port:     c.Port,
		User:     c.User,
		Password: c.Password,
		Name:     c.Name,
		Options:  c.Options,
	}
}

// Options converts the cache section into engine options.
func (c CacheConfig) Options() []sqlcache.Option {
	return []sqlcache.Option{
		sqlcache.WithSweepInterval(c.SweepInterval),
		sqlcache.WithDefaultSlidingExpiration(c.DefaultSlidingExpiration),
	}
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log_level", "info")

	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.path", "./data/sqlcache.sqlite")

	v.SetDefault("cache.sweep_interval", "30m")
	v.SetDefault("cache.default_sliding_expiration", "20m")
	v.SetDefault("cache.schedule", "@every 30m")
}

func decodeHook() viper.DecoderConfigOption {
	return func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "mapstructure"
		dc.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		)
	}
}
