// Package config loads stockmaster settings from built-in defaults, an optional
// YAML file and STOCKMASTER_* environment variables, in that order.
package config

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"stockmaster/internal/logging"
	"stockmaster/internal/shell"
	"stockmaster/internal/validation"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "STOCKMASTER_"

type Config struct {
	Server     Server         `yaml:"server"`
	Database   Database       `yaml:"database"`
	Auth       Auth           `yaml:"auth"`
	Log        logging.Config `yaml:"log"`
	Notify     Notify         `yaml:"notify"`
	Pagination Pagination     `yaml:"pagination"`
	Shell      shell.Config   `yaml:"shell"`
}

type Server struct {
	Addr           string   `yaml:"addr"`
	AllowedOrigins []string `yaml:"allowed_origins"`
	// ViewTTL is how long an untouched list view survives.
	ViewTTL time.Duration `yaml:"view_ttl"`
	// Mode is the gin mode: debug, release or test.
	Mode string `yaml:"mode"`
}

type Database struct {
	Path      string `yaml:"path"`
	BackupDir string `yaml:"backup_dir"`

	// AuditRetentionDays bounds the age of audit entries; 0 keeps them forever.
	AuditRetentionDays int `yaml:"audit_retention_days"`
}

type Auth struct {
	JWTSecret      string        `yaml:"jwt_secret"`
	TokenTTL       time.Duration `yaml:"token_ttl"`
	LoginPerMinute int           `yaml:"login_per_minute"`
	LoginBurst     int           `yaml:"login_burst"`
	// EphemeralSecret is set when JWTSecret was generated at start-up.
	EphemeralSecret bool `yaml:"-"`
}

type Notify struct {
	NATSURL         string `yaml:"nats_url"`
	NATSSubject     string `yaml:"nats_subject"`
	TelegramChannel string `yaml:"telegram_channel"`
}

type Pagination struct {
	Customers int   `yaml:"customers"`
	Products  int   `yaml:"products"`
	Options   []int `yaml:"options"`
}

// Defaults returns the configuration used when nothing is set.
func Defaults() Config {
	return Config{
		Server: Server{
			Addr:           "127.0.0.1:8000",
			AllowedOrigins: []string{"http://localhost:8000", "http://127.0.0.1:8000"},
			ViewTTL:        30 * time.Minute,
			Mode:           "release",
		},
		Database: Database{Path: "data/stockmaster.sqlite", BackupDir: "data/backups", AuditRetentionDays: 365},
		Auth: Auth{
			TokenTTL:       12 * time.Hour,
			LoginPerMinute: 10,
			LoginBurst:     5,
		},
		Log: logging.Config{Level: "info", Format: "console"},
		Notify: Notify{
			NATSSubject:     "stockmaster.notifications",
			TelegramChannel: "products",
		},
		Pagination: Pagination{
			Customers: 100,
			Products:  25,
			Options:   []int{10, 25, 50, 100},
		},
		Shell: shell.Defaults(),
	}
}

// Load reads path over the defaults and applies environment overrides. An empty
// path skips the file. A missing JWT secret is replaced by a random one.
func Load(path string) (Config, error) {
	cfg := Defaults()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	if err := applyEnv(&cfg, os.LookupEnv); err != nil {
		return Config{}, err
	}
	if cfg.Auth.JWTSecret == "" {
		secret, err := randomSecret()
		if err != nil {
			return Config{}, err
		}
		cfg.Auth.JWTSecret = secret
		cfg.Auth.EphemeralSecret = true
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func randomSecret() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate jwt secret: %w", err)
	}
	return hex.EncodeToString(b), nil
}

type lookupFunc func(string) (string, bool)

func applyEnv(cfg *Config, lookup lookupFunc) error {
	str := func(name string, dst *string) {
		if v, ok := lookup(EnvPrefix + name); ok && strings.TrimSpace(v) != "" {
			*dst = strings.TrimSpace(v)
		}
	}
	str("ADDR", &cfg.Server.Addr)
	str("GIN_MODE", &cfg.Server.Mode)
	str("DB", &cfg.Database.Path)
	str("BACKUP_DIR", &cfg.Database.BackupDir)
	str("JWT_SECRET", &cfg.Auth.JWTSecret)
	str("LOG_LEVEL", &cfg.Log.Level)
	str("LOG_FORMAT", &cfg.Log.Format)
	str("LOG_FILE", &cfg.Log.File)
	str("NATS_URL", &cfg.Notify.NATSURL)
	str("NATS_SUBJECT", &cfg.Notify.NATSSubject)
	str("TELEGRAM_CHANNEL", &cfg.Notify.TelegramChannel)
	str("PROBE_URL", &cfg.Shell.ProbeURL)
	str("TIMEZONE", &cfg.Shell.Runtime.Timezone)

	if v, ok := lookup(EnvPrefix + "ALLOWED_ORIGINS"); ok && strings.TrimSpace(v) != "" {
		cfg.Server.AllowedOrigins = nil
		for o := range strings.SplitSeq(v, ",") {
			if o = strings.TrimSpace(o); o != "" {
				cfg.Server.AllowedOrigins = append(cfg.Server.AllowedOrigins, o)
			}
		}
	}
	for name, dst := range map[string]*time.Duration{
		"TOKEN_TTL":     &cfg.Auth.TokenTTL,
		"VIEW_TTL":      &cfg.Server.ViewTTL,
		"PROBE_TIMEOUT": &cfg.Shell.ProbeTimeout,
	} {
		if v, ok := lookup(EnvPrefix + name); ok && v != "" {
			d, err := time.ParseDuration(v)
			if err != nil {
				return fmt.Errorf("%s%s: %w", EnvPrefix, name, err)
			}
			*dst = d
		}
	}
	for name, dst := range map[string]*int{
		"LOGIN_PER_MINUTE":     &cfg.Auth.LoginPerMinute,
		"AUDIT_RETENTION_DAYS": &cfg.Database.AuditRetentionDays,
	} {
		if v, ok := lookup(EnvPrefix + name); ok && v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("%s%s: %w", EnvPrefix, name, err)
			}
			*dst = n
		}
	}
	return nil
}

// Validate reports every invalid setting.
func (c Config) Validate() error {
	ve := &validation.ValidationErrors{}
	validation.RequireField(ve, "server.addr", c.Server.Addr)
	validation.RequireField(ve, "database.path", c.Database.Path)
	if c.Database.AuditRetentionDays < 0 {
		ve.Add("database.audit_retention_days", "must not be negative")
	}
	if c.Server.ViewTTL <= 0 {
		ve.Add("server.view_ttl", "must be positive")
	}
	if !slices.Contains([]string{"debug", "release", "test"}, c.Server.Mode) {
		ve.Add("server.mode", "must be one of: debug, release, test")
	}
	if len(c.Auth.JWTSecret) < 32 {
		ve.Add("auth.jwt_secret", "must be at least 32 characters")
	}
	if c.Auth.TokenTTL <= 0 {
		ve.Add("auth.token_ttl", "must be positive")
	}
	if c.Auth.LoginPerMinute < 1 {
		ve.Add("auth.login_per_minute", "must be at least 1")
	}
	if c.Auth.LoginBurst < 1 {
		ve.Add("auth.login_burst", "must be at least 1")
	}
	if c.Log.Format != "" && c.Log.Format != "console" && c.Log.Format != "json" {
		ve.Add("log.format", "must be console or json")
	}
	if len(c.Pagination.Options) == 0 {
		ve.Add("pagination.options", "is required")
	}
	for _, n := range c.Pagination.Options {
		if n < 1 {
			ve.Add("pagination.options", "sizes must be at least 1")
			break
		}
	}
	for field, n := range map[string]int{"pagination.customers": c.Pagination.Customers, "pagination.products": c.Pagination.Products} {
		if !slices.Contains(c.Pagination.Options, n) {
			ve.Add(field, "must be one of pagination.options")
		}
	}
	if _, err := c.Shell.Runtime.Limits(); err != nil {
		ve.Add("shell.runtime", err.Error())
	}
	if c.Shell.ProbeTimeout <= 0 {
		ve.Add("shell.probe_timeout", "must be positive")
	}
	return ve.Err()
}
