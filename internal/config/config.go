package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds every setting of the service.
type Config struct {
	Service     ServiceConfig     `mapstructure:"service"`
	HTTP        HTTPConfig        `mapstructure:"http"`
	Log         LogConfig         `mapstructure:"log"`
	Demo        DemoConfig        `mapstructure:"demo"`
	Transitions TransitionsConfig `mapstructure:"transitions"`
	Remote      RemoteConfig      `mapstructure:"remote"`
	Database    DatabaseConfig    `mapstructure:"database"`
	RabbitMQ    RabbitMQConfig    `mapstructure:"rabbitmq"`
	Auth        AuthConfig        `mapstructure:"auth"`
	Vault       VaultConfig       `mapstructure:"vault"`
}

type ServiceConfig struct {
	Name string `mapstructure:"name"`
}

type HTTPConfig struct {
	Addr            string        `mapstructure:"addr"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

// DemoConfig controls local (unconfigured) mode.
type DemoConfig struct {
	Seed    bool          `mapstructure:"seed"`
	Latency time.Duration `mapstructure:"latency"`
}

type TransitionsConfig struct {
	Strict bool `mapstructure:"strict"`
}

// Remote feed kinds.
const (
	FeedPostgres = "postgres"
	FeedRabbitMQ = "rabbitmq"
)

type RemoteConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Feed    string `mapstructure:"feed"`
}

type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Database string `mapstructure:"database"`
	SSLMode  string `mapstructure:"sslmode"`
}

func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Database, d.SSLMode)
}

type RabbitMQConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	VHost    string `mapstructure:"vhost"`
	UseTLS   bool   `mapstructure:"tls"`
}

type AuthConfig struct {
	// Email of the pre-provisioned operator; empty keeps the demo session.
	Email string `mapstructure:"email"`
}

type VaultConfig struct {
	Bucket    string `mapstructure:"bucket"`
	Prefix    string `mapstructure:"prefix"`
	Region    string `mapstructure:"region"`
	Endpoint  string `mapstructure:"endpoint"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	PathStyle bool   `mapstructure:"path_style"`
}

func (v VaultConfig) Enabled() bool { return v.Bucket != "" }

// EnvPrefix is prepended to every environment override, e.g. RESTO_DATABASE_HOST.
const EnvPrefix = "RESTO"

func setDefaults(v *viper.Viper) {
	v.SetDefault("service.name", "restaurant-ops")
	v.SetDefault("http.addr", ":8080")
	v.SetDefault("http.shutdown_timeout", 5*time.Second)
	v.SetDefault("log.level", "info")
	v.SetDefault("demo.seed", true)
	v.SetDefault("demo.latency", time.Duration(0))
	v.SetDefault("transitions.strict", true)
	v.SetDefault("remote.enabled", false)
	v.SetDefault("remote.feed", FeedPostgres)

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "restaurant")
	v.SetDefault("database.password", "restaurant")
	v.SetDefault("database.database", "restaurant")
	v.SetDefault("database.sslmode", "disable")

	v.SetDefault("rabbitmq.host", "localhost")
	v.SetDefault("rabbitmq.port", 5672)
	v.SetDefault("rabbitmq.user", "guest")
	v.SetDefault("rabbitmq.password", "guest")
	v.SetDefault("rabbitmq.vhost", "/")
	v.SetDefault("rabbitmq.tls", false)

	v.SetDefault("auth.email", "")

	v.SetDefault("vault.bucket", "")
	v.SetDefault("vault.prefix", "knowledge/")
	v.SetDefault("vault.region", "us-east-1")
	v.SetDefault("vault.endpoint", "")
	v.SetDefault("vault.access_key", "")
	v.SetDefault("vault.secret_key", "")
	v.SetDefault("vault.path_style", false)
}

// Load reads the YAML file at path (optional) and applies RESTO_* overrides
// on top of the defaults.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// RemoteConfigured reports whether the service should run against the
// remote backend. It is evaluated once at start-up.
func (c *Config) RemoteConfigured() bool {
	return c.Remote.Enabled && c.Database.Host != ""
}

func (c *Config) validate() error {
	if !c.Remote.Enabled {
		return nil
	}
	switch c.Remote.Feed {
	case FeedPostgres, FeedRabbitMQ:
	default:
		return fmt.Errorf("invalid config: remote.feed %q (want %s or %s)", c.Remote.Feed, FeedPostgres, FeedRabbitMQ)
	}
	if c.Database.Host == "" {
		return errors.New("invalid config: remote enabled without database.host")
	}
	if c.Remote.Feed == FeedRabbitMQ && c.RabbitMQ.Host == "" {
		return errors.New("invalid config: rabbitmq feed without rabbitmq.host")
	}
	return nil
}
