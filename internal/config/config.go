// Package config loads application configuration. Environment variables
// always win; a YAML file can provide the base layer when --config is
// passed. The loaded struct is validated before use.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Config holds all application configuration.
type Config struct {
	SMTP     SMTPConfig     `yaml:"smtp"`
	HTTP     HTTPConfig     `yaml:"http"`
	Store    StoreConfig    `yaml:"store"`
	Database DatabaseConfig `yaml:"database"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// SMTPConfig holds the SMTP transport settings.
type SMTPConfig struct {
	Addr              string        `yaml:"addr" validate:"required"`
	Hostname          string        `yaml:"hostname" validate:"required,hostname"`
	MaxConnections    int           `yaml:"max_connections" validate:"gt=0"`
	ConnectionTimeout time.Duration `yaml:"connection_timeout" validate:"gt=0"`
	MaxMessageSize    int64         `yaml:"max_message_size" validate:"gt=0"`
}

// HTTPConfig holds the query API settings.
type HTTPConfig struct {
	Addr string `yaml:"addr" validate:"required"`
}

// StoreConfig selects the persistence backend.
type StoreConfig struct {
	Driver string `yaml:"driver" validate:"oneof=memory postgres"`
}

// DatabaseConfig holds the PostgreSQL connection settings, used when
// the postgres store driver is selected.
type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     string `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	DBName   string `yaml:"dbname"`
	SSLMode  string `yaml:"sslmode"`
}

// LoggingConfig holds the structured logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level" validate:"oneof=debug info warn error"`
	Format string `yaml:"format" validate:"oneof=json text"`
	Output string `yaml:"output"`
}

// Load reads configuration from environment variables over defaults.
func Load() (*Config, error) {
	cfg := defaults()
	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFromFile layers a YAML file between defaults and environment.
func LoadFromFile(path string) (*Config, error) {
	cfg := defaults()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}

	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the loaded configuration.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// DSN returns the PostgreSQL connection string.
func (d *DatabaseConfig) DSN() string {
	return "host=" + d.Host +
		" port=" + d.Port +
		" user=" + d.User +
		" password=" + d.Password +
		" dbname=" + d.DBName +
		" sslmode=" + d.SSLMode
}

// URL returns the connection string in URL form, for golang-migrate.
func (d *DatabaseConfig) URL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.DBName, d.SSLMode)
}

func defaults() *Config {
	return &Config{
		SMTP: SMTPConfig{
			Addr:              ":1025",
			Hostname:          "localhost",
			MaxConnections:    100,
			ConnectionTimeout: 5 * time.Minute,
			MaxMessageSize:    25 * 1024 * 1024,
		},
		HTTP: HTTPConfig{
			Addr: ":8025",
		},
		Store: StoreConfig{
			Driver: "memory",
		},
		Database: DatabaseConfig{
			Host:    "localhost",
			Port:    "5432",
			User:    "postgres",
			DBName:  "devsmtp",
			SSLMode: "disable",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
	}
}

func (c *Config) applyEnv() {
	setString(&c.SMTP.Addr, "SMTP_ADDR")
	setString(&c.SMTP.Hostname, "SMTP_HOSTNAME")
	setInt(&c.SMTP.MaxConnections, "SMTP_MAX_CONNECTIONS")
	setDuration(&c.SMTP.ConnectionTimeout, "SMTP_CONNECTION_TIMEOUT")
	setInt64(&c.SMTP.MaxMessageSize, "SMTP_MAX_MESSAGE_SIZE")

	setString(&c.HTTP.Addr, "HTTP_ADDR")

	setString(&c.Store.Driver, "STORE_DRIVER")

	setString(&c.Database.Host, "DB_HOST")
	setString(&c.Database.Port, "DB_PORT")
	setString(&c.Database.User, "DB_USER")
	setString(&c.Database.Password, "DB_PASSWORD")
	setString(&c.Database.DBName, "DB_NAME")
	setString(&c.Database.SSLMode, "DB_SSLMODE")

	setString(&c.Logging.Level, "LOG_LEVEL")
	setString(&c.Logging.Format, "LOG_FORMAT")
	setString(&c.Logging.Output, "LOG_OUTPUT")
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setInt64(dst *int64, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			*dst = n
		}
	}
}

func setDuration(dst *time.Duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			*dst = d
		}
	}
}
