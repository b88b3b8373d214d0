// Package config loads service settings from defaults, an optional YAML file
// and the environment, in that order of precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// ConfigPathEnvVar names an optional YAML config file
const ConfigPathEnvVar = "CONFIG_PATH"

// Email providers
const (
	EmailNone     = "none"
	EmailPostmark = "postmark"
	EmailSendgrid = "sendgrid"
)

// Config holds every setting the API reads at startup
type Config struct {
	Port      string `koanf:"port"`
	APIPrefix string `koanf:"api_prefix"`

	MongoURI      string        `koanf:"mongodb_uri"`
	MongoDatabase string        `koanf:"mongodb_database"`
	DBTimeout     time.Duration `koanf:"db_timeout"`

	JWTSecret string        `koanf:"jwt_secret"`
	TokenTTL  time.Duration `koanf:"token_ttl"`

	LogLevel  string `koanf:"log_level"`
	LogFormat string `koanf:"log_format"`

	CORSAllowedOrigins string        `koanf:"cors_allowed_origins"`
	RateLimitRequests  int           `koanf:"rate_limit_requests"`
	RateLimitWindow    time.Duration `koanf:"rate_limit_window"`

	CatalogFallback bool `koanf:"catalog_fallback"`
	SeedDemoData    bool `koanf:"seed_demo_data"`

	EmailProvider    string `koanf:"email_provider"`
	PostmarkAPIToken string `koanf:"postmark_api_token"`
	SendgridAPIKey   string `koanf:"sendgrid_api_key"`
	EmailSender      string `koanf:"email_sender"`
}

// Defaults returns the built-in settings
func Defaults() *Config {
	return &Config{
		Port:               "8000",
		MongoURI:           "mongodb://localhost:27017",
		MongoDatabase:      "ecofinds",
		DBTimeout:          5 * time.Second,
		TokenTTL:           24 * time.Hour,
		LogLevel:           "info",
		LogFormat:          "json",
		CORSAllowedOrigins: "*",
		RateLimitRequests:  20,
		RateLimitWindow:    time.Minute,
		CatalogFallback:    true,
		EmailProvider:      EmailNone,
	}
}

// knownKeys is the set of koanf keys that may come from the environment
var knownKeys = map[string]bool{}

func init() {
	k := koanf.New(".")
	if err := k.Load(structs.Provider(Defaults(), "koanf"), nil); err == nil {
		for _, key := range k.Keys() {
			knownKeys[key] = true
		}
	}
}

// envKey maps PORT -> port and drops variables the config does not know about
func envKey(s string) string {
	key := strings.ToLower(s)
	if !knownKeys[key] {
		return ""
	}
	return key
}

// Load reads .env (if present), then defaults, CONFIG_PATH and the environment
func Load() (*Config, error) {
	// A missing .env is normal outside development
	_ = godotenv.Load()

	k := koanf.New(".")
	if err := k.Load(structs.Provider(Defaults(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if path := os.Getenv(ConfigPathEnvVar); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider("", ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

// Validate checks settings that have no usable default
func (c *Config) Validate() error {
	var errs []error
	if c.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET is required"))
	}
	if c.MongoURI == "" {
		errs = append(errs, errors.New("MONGODB_URI is required"))
	}
	if c.DBTimeout <= 0 {
		errs = append(errs, errors.New("DB_TIMEOUT must be positive"))
	}
	if c.TokenTTL <= 0 {
		errs = append(errs, errors.New("TOKEN_TTL must be positive"))
	}
	if c.APIPrefix != "" && (!strings.HasPrefix(c.APIPrefix, "/") || strings.HasSuffix(c.APIPrefix, "/")) {
		errs = append(errs, fmt.Errorf("API_PREFIX %q must start with / and not end with /", c.APIPrefix))
	}
	switch c.EmailProvider {
	case EmailNone, "":
	case EmailPostmark:
		if c.PostmarkAPIToken == "" {
			errs = append(errs, errors.New("POSTMARK_API_TOKEN is required for the postmark provider"))
		}
	case EmailSendgrid:
		if c.SendgridAPIKey == "" {
			errs = append(errs, errors.New("SENDGRID_API_KEY is required for the sendgrid provider"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown EMAIL_PROVIDER %q", c.EmailProvider))
	}
	return errors.Join(errs...)
}

// AllowedOrigins splits CORS_ALLOWED_ORIGINS on commas
func (c *Config) AllowedOrigins() []string {
	var origins []string
	for _, o := range strings.Split(c.CORSAllowedOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	return origins
}
