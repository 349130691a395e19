package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds the runtime settings of the rental API.
type Config struct {
	Env  string `yaml:"env"`
	Port string `yaml:"port"`

	Mongo  MongoConfig  `yaml:"mongo"`
	Auth   AuthConfig   `yaml:"auth"`
	Redis  RedisConfig  `yaml:"redis"`
	Events EventsConfig `yaml:"events"`

	CORSOrigins []string `yaml:"cors_origins"`
	LogLevel    string   `yaml:"log_level"`
}

type MongoConfig struct {
	URI      string        `yaml:"uri"`
	Database string        `yaml:"database"`
	Timeout  time.Duration `yaml:"timeout"`
}

type AuthConfig struct {
	JWTSecret        string        `yaml:"jwt_secret"`
	TokenTTL         time.Duration `yaml:"token_ttl"`
	BcryptCost       int           `yaml:"bcrypt_cost"`
	LoginRateLimit   int           `yaml:"login_rate_limit"` // attempts per minute per client IP
	AllowAdminSignup bool          `yaml:"allow_admin_signup"`
}

type RedisConfig struct {
	URL      string        `yaml:"url"`
	CacheTTL time.Duration `yaml:"cache_ttl"`
}

// EventsConfig selects the broker used for booking and user events.
type EventsConfig struct {
	Driver       string   `yaml:"driver"` // none, kafka, nats
	KafkaBrokers []string `yaml:"kafka_brokers"`
	NATSURL      string   `yaml:"nats_url"`
}

// Default returns the configuration used when nothing is set.
func Default() *Config {
	return &Config{
		Env:  "production",
		Port: "5000",
		Mongo: MongoConfig{
			URI:      "mongodb://localhost:27017",
			Database: "car-rental",
			Timeout:  10 * time.Second,
		},
		Auth: AuthConfig{
			TokenTTL:       7 * 24 * time.Hour,
			BcryptCost:     10,
			LoginRateLimit: 10,
		},
		Redis: RedisConfig{
			CacheTTL: time.Minute,
		},
		Events: EventsConfig{
			Driver: "none",
		},
		CORSOrigins: []string{"*"},
		LogLevel:    "info",
	}
}

// Load reads .env (if present), an optional YAML file named by CONFIG_FILE,
// then applies environment overrides.
func Load() (*Config, error) {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	cfg := Default()
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}
	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnvOverrides() {
	c.Env = envString("APP_ENV", c.Env)
	c.Port = envString("API_PORT", envString("PORT", c.Port))
	c.LogLevel = envString("LOG_LEVEL", c.LogLevel)

	c.Mongo.URI = envString("MONGO_URI", c.Mongo.URI)
	c.Mongo.Database = envString("MONGO_DATABASE", c.Mongo.Database)
	c.Mongo.Timeout = envDuration("MONGO_TIMEOUT", c.Mongo.Timeout)

	c.Auth.JWTSecret = envString("JWT_SECRET", c.Auth.JWTSecret)
	c.Auth.TokenTTL = envDuration("JWT_TTL", c.Auth.TokenTTL)
	c.Auth.BcryptCost = envInt("BCRYPT_COST", c.Auth.BcryptCost)
	c.Auth.LoginRateLimit = envInt("LOGIN_RATE_LIMIT", c.Auth.LoginRateLimit)
	c.Auth.AllowAdminSignup = envBool("ALLOW_ADMIN_SIGNUP", c.Auth.AllowAdminSignup)

	c.Redis.URL = envString("REDIS_URL", c.Redis.URL)
	c.Redis.CacheTTL = envDuration("CACHE_TTL", c.Redis.CacheTTL)

	c.Events.Driver = strings.ToLower(envString("EVENTS_DRIVER", c.Events.Driver))
	c.Events.KafkaBrokers = envList("KAFKA_BROKERS", c.Events.KafkaBrokers)
	c.Events.NATSURL = envString("NATS_URL", c.Events.NATSURL)

	c.CORSOrigins = envList("CORS_ORIGINS", c.CORSOrigins)
}

// Validate reports settings that would make the server unusable.
func (c *Config) Validate() error {
	if c.Mongo.URI == "" {
		return fmt.Errorf("MONGO_URI is required")
	}
	if c.Mongo.Database == "" {
		return fmt.Errorf("MONGO_DATABASE is required")
	}
	if c.Auth.TokenTTL <= 0 {
		return fmt.Errorf("JWT_TTL must be positive")
	}
	switch c.Events.Driver {
	case "", "none":
	case "kafka":
		if len(c.Events.KafkaBrokers) == 0 {
			return fmt.Errorf("KAFKA_BROKERS is required when EVENTS_DRIVER=kafka")
		}
	case "nats":
		if c.Events.NATSURL == "" {
			return fmt.Errorf("NATS_URL is required when EVENTS_DRIVER=nats")
		}
	default:
		return fmt.Errorf("unknown EVENTS_DRIVER %q", c.Events.Driver)
	}
	return nil
}

// IsDevelopment reports whether internal error details may be exposed.
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

func envString(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func envBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return def
}

func envDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func envList(key string, def []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
