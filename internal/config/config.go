package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

type Config struct {
	Server   ServerConfig   `koanf:"server"`
	Database DatabaseConfig `koanf:"database"`
	Session  SessionConfig  `koanf:"session"`
	Upload   UploadConfig   `koanf:"upload"`
	Logging  LoggingConfig  `koanf:"logging"`
	Admin    AdminConfig    `koanf:"admin"`
}

type ServerConfig struct {
	Port           string        `koanf:"port"`
	TemplatesDir   string        `koanf:"templates_dir"`
	StaticDir      string        `koanf:"static_dir"`
	ReadTimeout    time.Duration `koanf:"read_timeout"`
	WriteTimeout   time.Duration `koanf:"write_timeout"`
	// AuthRateLimit is the sign-in/sign-up posts allowed per IP per minute.
	AuthRateLimit  int           `koanf:"auth_rate_limit"`
	// TrustedProxies are the peers allowed to set X-Forwarded-For.
	// Empty trusts none.
	TrustedProxies []string      `koanf:"trusted_proxies"`
}

type DatabaseConfig struct {
	// URL is a postgres:// DSN or a sqlite file path.
	URL  string `koanf:"url"`
	Seed bool   `koanf:"seed"`
}

type SessionConfig struct {
	Name   string `koanf:"name"`
	Secret string `koanf:"secret"`
	MaxAge int    `koanf:"max_age"`
}

type UploadConfig struct {
	ImgurClientID string `koanf:"imgur_client_id"`
	LocalDir      string `koanf:"local_dir"`
	MaxBytes      int64  `koanf:"max_bytes"`
}

type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

// AdminConfig describes the account seeded on an empty database. No admin
// is seeded until Password is set.
type AdminConfig struct {
	Name     string `koanf:"name"`
	Email    string `koanf:"email"`
	Password string `koanf:"password"`
}

// DefaultSessionSecret is only fit for local development.
const DefaultSessionSecret = "secret_key_change_me"

func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:          "3000",
			TemplatesDir:  "./web/templates",
			StaticDir:     "./web/static",
			ReadTimeout:   15 * time.Second,
			WriteTimeout:  30 * time.Second,
			AuthRateLimit: 10,
		},
		Database: DatabaseConfig{
			URL:  "forkhub.db",
			Seed: true,
		},
		Session: SessionConfig{
			Name:   "forkhub_session",
			Secret: DefaultSessionSecret,
			MaxAge: 7 * 24 * 3600,
		},
		Upload: UploadConfig{
			LocalDir: "./upload",
			MaxBytes: 10 << 20,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
		Admin: AdminConfig{
			Name:  "root",
			Email: "root@example.com",
		},
	}
}

// envKeys maps flat environment variable names to koanf paths.
var envKeys = map[string]string{
	"port":            "server.port",
	"templates_dir":   "server.templates_dir",
	"static_dir":      "server.static_dir",
	"auth_rate_limit": "server.auth_rate_limit",
	"trusted_proxies": "server.trusted_proxies",
	"database_url":    "database.url",
	"database_seed":   "database.seed",
	"session_name":    "session.name",
	"session_secret":  "session.secret",
	"session_max_age": "session.max_age",
	"imgur_client_id": "upload.imgur_client_id",
	"upload_dir":      "upload.local_dir",
	"upload_max_size": "upload.max_bytes",
	"log_level":       "logging.level",
	"log_format":      "logging.format",
	"admin_name":      "admin.name",
	"admin_email":     "admin.email",
	"admin_password":  "admin.password",
}

func envTransform(key string) string {
	return envKeys[strings.ToLower(key)]
}

// listFields arrive from the environment as comma-separated strings.
var listFields = []string{"server.trusted_proxies"}

func splitListFields(k *koanf.Koanf) error {
	for _, path := range listFields {
		raw, ok := k.Get(path).(string)
		if !ok {
			continue
		}
		items := []string{}
		for _, item := range strings.Split(raw, ",") {
			if item = strings.TrimSpace(item); item != "" {
				items = append(items, item)
			}
		}
		if err := k.Set(path, items); err != nil {
			return fmt.Errorf("failed to set %s: %w", path, err)
		}
	}
	return nil
}

// Load layers defaults, an optional .env file and the process environment.
func Load() (*Config, error) {
	// .env is optional; the process environment always wins.
	_ = godotenv.Load()

	k := koanf.New(".")
	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}
	if err := k.Load(env.Provider("", ".", envTransform), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := splitListFields(k); err != nil {
		return nil, err
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if cfg.Server.AuthRateLimit <= 0 {
		return nil, fmt.Errorf("auth rate limit must be positive")
	}
	if cfg.Session.Secret == "" {
		return nil, fmt.Errorf("session secret must not be empty")
	}
	return cfg, nil
}

// Warnings lists settings that are unsafe outside local development.
func (c *Config) Warnings() []string {
	var warnings []string
	if c.Session.Secret == DefaultSessionSecret {
		warnings = append(warnings, "SESSION_SECRET is the built-in default; session cookies can be forged")
	}
	if c.Database.Seed && c.Admin.Password == "" {
		warnings = append(warnings, "ADMIN_PASSWORD is not set; no admin account will be seeded")
	}
	return warnings
}
