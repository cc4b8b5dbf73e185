// Package config loads the server configuration from defaults, an optional
// YAML file, .env files and HR_* environment variables.
package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/evcraddock/havenrise/internal/logging"
)

// EnvPrefix prefixes every environment override, e.g. HR_SERVER_PORT.
const EnvPrefix = "HR"

// Storage drivers.
const (
	DriverSQLite   = "sqlite"
	DriverMemory   = "memory"
	DriverPostgres = "postgres"
)

// Config is the full server configuration.
type Config struct {
	Server  ServerConfig  `mapstructure:"server"  yaml:"server"`
	Catalog CatalogConfig `mapstructure:"catalog" yaml:"catalog"`
	Storage StorageConfig `mapstructure:"storage" yaml:"storage"`
	Log     LogConfig     `mapstructure:"log"     yaml:"log"`
}

// ServerConfig controls the HTTP listener.
type ServerConfig struct {
	Port            int           `mapstructure:"port"             yaml:"port"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`
	CORSOrigins     []string      `mapstructure:"cors_origins"     yaml:"cors_origins"`
}

// CatalogConfig locates the property catalog. Source is a file path,
// an http(s) URL or an s3://bucket/key URL.
type CatalogConfig struct {
	Source  string        `mapstructure:"source"  yaml:"source"`
	Timeout time.Duration `mapstructure:"timeout" yaml:"timeout"`
	S3      S3Config      `mapstructure:"s3"      yaml:"s3"`
}

// S3Config configures the S3 client used for s3:// catalog sources.
// Without an access key the default AWS credentials chain applies.
type S3Config struct {
	Region          string `mapstructure:"region"            yaml:"region"`
	Endpoint        string `mapstructure:"endpoint"          yaml:"endpoint"`
	PathStyle       bool   `mapstructure:"path_style"        yaml:"path_style"`
	AccessKeyID     string `mapstructure:"access_key_id"     yaml:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key" yaml:"secret_access_key"`
}

// StorageConfig selects where the favourites list is persisted.
type StorageConfig struct {
	Driver      string `mapstructure:"driver"       yaml:"driver"`
	SQLitePath  string `mapstructure:"sqlite_path"  yaml:"sqlite_path"`
	PostgresURL string `mapstructure:"postgres_url" yaml:"postgres_url"`
	Key         string `mapstructure:"key"          yaml:"key"`
}

// LogConfig mirrors logging.Config.
type LogConfig struct {
	Level    string         `mapstructure:"level"    yaml:"level"`
	JSON     bool           `mapstructure:"json"     yaml:"json"`
	NoColor  bool           `mapstructure:"no_color" yaml:"no_color"`
	File     string         `mapstructure:"file"     yaml:"file"`
	Rotation RotationConfig `mapstructure:"rotation" yaml:"rotation"`
	Fluent   FluentConfig   `mapstructure:"fluent"   yaml:"fluent"`
}

// RotationConfig sets lumberjack rotation for the log file.
type RotationConfig struct {
	MaxSize    int  `mapstructure:"max_size"    yaml:"max_size"`
	MaxBackups int  `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAge     int  `mapstructure:"max_age"     yaml:"max_age"`
	Compress   bool `mapstructure:"compress"    yaml:"compress"`
}

// FluentConfig configures the optional fluentd sink.
type FluentConfig struct {
	Enabled   bool   `mapstructure:"enabled"    yaml:"enabled"`
	Host      string `mapstructure:"host"       yaml:"host"`
	Port      int    `mapstructure:"port"       yaml:"port"`
	TagPrefix string `mapstructure:"tag_prefix" yaml:"tag_prefix"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Port:            8080,
			ShutdownTimeout: 10 * time.Second,
			CORSOrigins:     []string{"*"},
		},
		Catalog: CatalogConfig{
			Source:  "data/properties.json",
			Timeout: 30 * time.Second,
			S3:      S3Config{Region: "us-east-1"},
		},
		Storage: StorageConfig{
			Driver: DriverSQLite,
			Key:    "favourites",
		},
		Log: LogConfig{
			Level: "info",
			Rotation: RotationConfig{
				MaxSize:    128,
				MaxBackups: 5,
				MaxAge:     16,
			},
			Fluent: FluentConfig{
				Host:      "127.0.0.1",
				Port:      24224,
				TagPrefix: "havenrise",
			},
		},
	}
}

func setDefaults(v *viper.Viper) {
	d := Default()

	v.SetDefault("server.port", d.Server.Port)
	v.SetDefault("server.shutdown_timeout", d.Server.ShutdownTimeout)
	v.SetDefault("server.cors_origins", d.Server.CORSOrigins)

	v.SetDefault("catalog.source", d.Catalog.Source)
	v.SetDefault("catalog.timeout", d.Catalog.Timeout)
	v.SetDefault("catalog.s3.region", d.Catalog.S3.Region)
	v.SetDefault("catalog.s3.endpoint", d.Catalog.S3.Endpoint)
	v.SetDefault("catalog.s3.path_style", d.Catalog.S3.PathStyle)
	v.SetDefault("catalog.s3.access_key_id", d.Catalog.S3.AccessKeyID)
	v.SetDefault("catalog.s3.secret_access_key", d.Catalog.S3.SecretAccessKey)

	v.SetDefault("storage.driver", d.Storage.Driver)
	v.SetDefault("storage.sqlite_path", d.Storage.SQLitePath)
	v.SetDefault("storage.postgres_url", d.Storage.PostgresURL)
	v.SetDefault("storage.key", d.Storage.Key)

	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.json", d.Log.JSON)
	v.SetDefault("log.no_color", d.Log.NoColor)
	v.SetDefault("log.file", d.Log.File)
	v.SetDefault("log.rotation.max_size", d.Log.Rotation.MaxSize)
	v.SetDefault("log.rotation.max_backups", d.Log.Rotation.MaxBackups)
	v.SetDefault("log.rotation.max_age", d.Log.Rotation.MaxAge)
	v.SetDefault("log.rotation.compress", d.Log.Rotation.Compress)
	v.SetDefault("log.fluent.enabled", d.Log.Fluent.Enabled)
	v.SetDefault("log.fluent.host", d.Log.Fluent.Host)
	v.SetDefault("log.fluent.port", d.Log.Fluent.Port)
	v.SetDefault("log.fluent.tag_prefix", d.Log.Fluent.TagPrefix)
}

var envFiles = []string{".env", ".env.local"}

// Load reads the configuration. With an empty path it looks for config.yaml
// in ., ./config and $HOME/.havenrise; a missing file is not an error.
func Load(path string) (*Config, error) {
	loadEnvFiles(".")

	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		loadEnvFiles(filepath.Dir(path))
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath("$HOME/.havenrise")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// loadEnvFiles loads .env files from dir. Variables already set win, and
// missing files are skipped.
func loadEnvFiles(dir string) {
	for _, name := range envFiles {
		_ = godotenv.Load(filepath.Join(dir, name))
	}
}

// Validate checks the values Load cannot default.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535, got %d", c.Server.Port)
	}
	if strings.TrimSpace(c.Catalog.Source) == "" {
		return fmt.Errorf("catalog.source is required")
	}
	if (c.Catalog.S3.AccessKeyID == "") != (c.Catalog.S3.SecretAccessKey == "") {
		return fmt.Errorf("catalog.s3.access_key_id and catalog.s3.secret_access_key must be set together")
	}
	switch c.Storage.Driver {
	case DriverSQLite, DriverMemory:
	case DriverPostgres:
		if c.Storage.PostgresURL == "" {
			return fmt.Errorf("storage.postgres_url is required for the postgres driver")
		}
	default:
		return fmt.Errorf("unknown storage.driver %q (must be sqlite, memory or postgres)", c.Storage.Driver)
	}
	return nil
}

// Logging converts the log section to logging.Config.
func (c *Config) Logging() logging.Config {
	return logging.Config{
		Level:   c.Log.Level,
		JSON:    c.Log.JSON,
		NoColor: c.Log.NoColor,
		File:    c.Log.File,
		Rotation: logging.RotationConfig{
			MaxSize:    c.Log.Rotation.MaxSize,
			MaxBackups: c.Log.Rotation.MaxBackups,
			MaxAge:     c.Log.Rotation.MaxAge,
			Compress:   c.Log.Rotation.Compress,
		},
		Fluent: logging.FluentConfig{
			Enabled:   c.Log.Fluent.Enabled,
			Host:      c.Log.Fluent.Host,
			Port:      c.Log.Fluent.Port,
			TagPrefix: c.Log.Fluent.TagPrefix,
		},
	}
}
