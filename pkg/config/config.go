// Package config loads service configuration: embedded defaults, then an
// optional YAML file, then FORMFLOW_* environment variables (optionally read
// from a .env file).
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

//go:embed default.yaml
var defaultYAML []byte

// EnvPrefix prefixes every environment override.
const EnvPrefix = "FORMFLOW_"

// Store drivers.
const (
	DriverMemory = "memory"
	DriverSQLite = "sqlite"
)

type Server struct {
	Address string `yaml:"address"`
}

type Forms struct {
	Dir     string   `yaml:"dir"`
	Pattern string   `yaml:"pattern"`
	OpenAPI []string `yaml:"openapi"`
}

type Store struct {
	Driver string `yaml:"driver"`
	DSN    string `yaml:"dsn"`
}

type Security struct {
	Secret        string        `yaml:"secret"`
	NonceLifetime time.Duration `yaml:"nonce_lifetime"`
	OwnerCookie   string        `yaml:"owner_cookie"`
}

type Logging struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type Theme struct {
	// Manifest is a YAML theme manifest. Empty disables theming.
	Manifest string `yaml:"manifest"`
	Name     string `yaml:"name"`
	Variant  string `yaml:"variant"`
}

type I18n struct {
	// Translations is a YAML catalog of locale -> key -> message.
	Translations string `yaml:"translations"`
}

type Charts struct {
	DefaultCreator string `yaml:"default_creator"`
	AssetBase      string `yaml:"asset_base"`
}

// Config is the service configuration.
type Config struct {
	Server   Server   `yaml:"server"`
	Forms    Forms    `yaml:"forms"`
	Store    Store    `yaml:"store"`
	Security Security `yaml:"security"`
	Logging  Logging  `yaml:"logging"`
	Theme    Theme    `yaml:"theme"`
	I18n     I18n     `yaml:"i18n"`
	Charts   Charts   `yaml:"charts"`
}

// Options controls where Load reads from.
type Options struct {
	// Path is a YAML file merged over the defaults. Empty skips it.
	Path string
	// EnvFile is a dotenv file loaded before reading overrides. A missing
	// ".env" is ignored; any other missing file is an error.
	EnvFile string
	// LookupEnv defaults to os.LookupEnv.
	LookupEnv func(string) (string, bool)
}

// Default returns the embedded defaults.
func Default() (Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(defaultYAML, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: decode defaults: %w", err)
	}
	return cfg, nil
}

// Load builds the configuration.
func Load(opts Options) (Config, error) {
	cfg, err := Default()
	if err != nil {
		return Config{}, err
	}

	if path := strings.TrimSpace(opts.Path); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("config: read %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("config: decode %s: %w", path, err)
		}
	}

	if envFile := strings.TrimSpace(opts.EnvFile); envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			if !(errors.Is(err, os.ErrNotExist) && envFile == ".env") {
				return Config{}, fmt.Errorf("config: load %s: %w", envFile, err)
			}
		}
	}

	lookup := opts.LookupEnv
	if lookup == nil {
		lookup = os.LookupEnv
	}
	if err := applyEnv(&cfg, lookup); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config, lookup func(string) (string, bool)) error {
	overrides := map[string]*string{
		"SERVER_ADDRESS":         &cfg.Server.Address,
		"FORMS_DIR":              &cfg.Forms.Dir,
		"FORMS_PATTERN":          &cfg.Forms.Pattern,
		"STORE_DRIVER":           &cfg.Store.Driver,
		"STORE_DSN":              &cfg.Store.DSN,
		"SECURITY_SECRET":        &cfg.Security.Secret,
		"SECURITY_OWNER_COOKIE":  &cfg.Security.OwnerCookie,
		"LOGGING_LEVEL":          &cfg.Logging.Level,
		"LOGGING_FORMAT":         &cfg.Logging.Format,
		"THEME_MANIFEST":         &cfg.Theme.Manifest,
		"THEME_NAME":             &cfg.Theme.Name,
		"THEME_VARIANT":          &cfg.Theme.Variant,
		"I18N_TRANSLATIONS":      &cfg.I18n.Translations,
		"CHARTS_DEFAULT_CREATOR": &cfg.Charts.DefaultCreator,
		"CHARTS_ASSET_BASE":      &cfg.Charts.AssetBase,
	}
	for key, target := range overrides {
		if value, ok := lookup(EnvPrefix + key); ok {
			*target = value
		}
	}
	if value, ok := lookup(EnvPrefix + "SECURITY_NONCE_LIFETIME"); ok {
		lifetime, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("config: %sSECURITY_NONCE_LIFETIME: %w", EnvPrefix, err)
		}
		cfg.Security.NonceLifetime = lifetime
	}
	if value, ok := lookup(EnvPrefix + "FORMS_OPENAPI"); ok {
		cfg.Forms.OpenAPI = splitList(value)
	}
	return nil
}

// Validate checks the values the service cannot start without.
func (c Config) Validate() error {
	switch c.Store.Driver {
	case DriverMemory:
	case DriverSQLite:
		if strings.TrimSpace(c.Store.DSN) == "" {
			return errors.New("config: store.dsn is required for the sqlite driver")
		}
	default:
		return fmt.Errorf("config: unknown store.driver %q", c.Store.Driver)
	}
	if c.Security.NonceLifetime <= 0 {
		return errors.New("config: security.nonce_lifetime must be positive")
	}
	if strings.TrimSpace(c.Security.OwnerCookie) == "" {
		return errors.New("config: security.owner_cookie is required")
	}
	return nil
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
