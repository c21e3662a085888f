// Package config loads host settings from vignette.yaml, VIGNETTE_ environment
// variables and defaults, in increasing order of precedence for the latter two
// over the file.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Flag store backends.
const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
	BackendSQLite = "sqlite"
)

// Config is the resolved host configuration.
type Config struct {
	Content ContentConfig `mapstructure:"content"`
	Flags   FlagsConfig   `mapstructure:"flags"`
	Engine  EngineConfig  `mapstructure:"engine"`
	Server  ServerConfig  `mapstructure:"server"`
	Log     LogConfig     `mapstructure:"log"`
	Tracing TracingConfig `mapstructure:"tracing"`
}

// ContentConfig locates authored entities. Scene, when set, names a single YAML scene file
// used instead of the Dir document repository.
type ContentConfig struct {
	Dir   string `mapstructure:"dir"`
	Scene string `mapstructure:"scene"`
}

type FlagsConfig struct {
	Backend string       `mapstructure:"backend"`
	Redis   RedisConfig  `mapstructure:"redis"`
	SQLite  SQLiteConfig `mapstructure:"sqlite"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	Prefix   string `mapstructure:"prefix"`
}

type SQLiteConfig struct {
	Path string `mapstructure:"path"`
}

// EngineConfig tunes the host tick loop.
type EngineConfig struct {
	TickInterval time.Duration `mapstructure:"tick_interval"`
	AutoDrain    bool          `mapstructure:"auto_drain"`
	MaxTicks     int           `mapstructure:"max_ticks"`
}

type ServerConfig struct {
	Addr        string `mapstructure:"addr"`
	MetricsPath string `mapstructure:"metrics_path"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// TracingConfig enables OTLP export when Endpoint is set.
type TracingConfig struct {
	Endpoint    string `mapstructure:"endpoint"`
	ServiceName string `mapstructure:"service_name"`
}

// SetDefaults registers every key so environment overrides apply even without a file.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("content.dir", ".")
	v.SetDefault("content.scene", "")
	v.SetDefault("flags.backend", BackendMemory)
	v.SetDefault("flags.redis.addr", "localhost:6379")
	v.SetDefault("flags.redis.password", "")
	v.SetDefault("flags.redis.db", 0)
	v.SetDefault("flags.redis.prefix", "vignette:")
	v.SetDefault("flags.sqlite.path", "vignette.db")
	v.SetDefault("engine.tick_interval", 50*time.Millisecond)
	v.SetDefault("engine.auto_drain", false)
	v.SetDefault("engine.max_ticks", 10000)
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.metrics_path", "/metrics")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("tracing.endpoint", "")
	v.SetDefault("tracing.service_name", "vignette")
}

// New returns a viper instance with defaults and environment binding. A non-empty path
// is read explicitly; otherwise vignette.yaml is looked up in the working directory.
func New(path string) (*viper.Viper, error) {
	v := viper.New()
	SetDefaults(v)
	v.SetEnvPrefix("VIGNETTE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		return v, nil
	}

	v.SetConfigName("vignette")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}
	return v, nil
}

// Decode resolves v into a validated Config.
func Decode(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Load is New followed by Decode.
func Load(path string) (*Config, error) {
	v, err := New(path)
	if err != nil {
		return nil, err
	}
	return Decode(v)
}

// Validate rejects values the host cannot act on.
func (c *Config) Validate() error {
	switch c.Flags.Backend {
	case BackendMemory, BackendRedis, BackendSQLite:
	default:
		return fmt.Errorf("flags.backend: unknown backend %q", c.Flags.Backend)
	}
	if c.Engine.TickInterval <= 0 {
		return fmt.Errorf("engine.tick_interval must be positive, got %s", c.Engine.TickInterval)
	}
	if c.Engine.MaxTicks <= 0 {
		return fmt.Errorf("engine.max_ticks must be positive, got %d", c.Engine.MaxTicks)
	}
	if c.Flags.Backend == BackendSQLite && c.Flags.SQLite.Path == "" {
		return errors.New("flags.sqlite.path is required for the sqlite backend")
	}
	return nil
}
