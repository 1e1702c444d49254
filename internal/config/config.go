// Package config assembles the server configuration from defaults, an
// optional .env file, an optional YAML file, SUPERGE_* environment
// variables, and command-line flags, in that order of precedence.
package config

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Store kinds.
const (
	StoreSQLite = "sqlite"
	StoreMemory = "memory"
)

// Config is the server configuration.
type Config struct {
	DB             string   `yaml:"db"`
	Addr           string   `yaml:"addr"`
	AdminUser      string   `yaml:"adminUser"`
	Log            string   `yaml:"log"`
	LogLevel       string   `yaml:"logLevel"`
	Store          string   `yaml:"store"`
	AllowedOrigins []string `yaml:"allowedOrigins"`
	MaxUploadBytes int64    `yaml:"maxUploadBytes"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		DB:             "superge.sqlite3",
		Addr:           ":8080",
		AdminUser:      "Admin",
		LogLevel:       "info",
		Store:          StoreSQLite,
		MaxUploadBytes: 10 << 20,
	}
}

const usage = `Usage: superge [flags]

Flags:
  -c, -config <path>      YAML config file (default: none)
  -e, -env <path>         dotenv file (default: .env, ignored when missing)
  -d, -db <path>          SQLite database path (default: superge.sqlite3)
  -a, -addr <host:port>   listen address (default: :8080)
  -u, -user <name>        admin username on first run (default: Admin)
  -l, -log <path>         log file path (default: no file, stdout/stderr only)
  -log-level <level>      debug, info, warn, or error (default: info)
  -store <kind>           sqlite or memory (default: sqlite)
  -h, -help               show this help and exit
`

// Load builds the configuration for the command-line arguments args
// (without the program name). Usage is written to out on -h.
func Load(args []string, out io.Writer) (Config, error) {
	fs := flag.NewFlagSet("superge", flag.ContinueOnError)
	fs.SetOutput(out)
	fs.Usage = func() { fmt.Fprint(out, usage) }

	var configPath, envPath string
	fs.StringVar(&configPath, "config", "", "")
	fs.StringVar(&configPath, "c", "", "")
	fs.StringVar(&envPath, "env", ".env", "")
	fs.StringVar(&envPath, "e", ".env", "")

	var flagged Config
	fs.StringVar(&flagged.DB, "db", "", "")
	fs.StringVar(&flagged.DB, "d", "", "")
	fs.StringVar(&flagged.Addr, "addr", "", "")
	fs.StringVar(&flagged.Addr, "a", "", "")
	fs.StringVar(&flagged.AdminUser, "user", "", "")
	fs.StringVar(&flagged.AdminUser, "u", "", "")
	fs.StringVar(&flagged.Log, "log", "", "")
	fs.StringVar(&flagged.Log, "l", "", "")
	fs.StringVar(&flagged.LogLevel, "log-level", "", "")
	fs.StringVar(&flagged.Store, "store", "", "")

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}
	if fs.NArg() > 0 {
		return Config{}, fmt.Errorf("unexpected argument: %s", fs.Arg(0))
	}

	if err := loadDotenv(envPath); err != nil {
		return Config{}, err
	}

	if configPath == "" {
		configPath = os.Getenv("SUPERGE_CONFIG")
	}

	cfg := Default()
	if configPath != "" {
		if err := cfg.mergeFile(configPath); err != nil {
			return Config{}, err
		}
	}
	if err := cfg.mergeEnv(); err != nil {
		return Config{}, err
	}
	cfg.mergeFlags(flagged)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// loadDotenv exports the variables of a dotenv file without overriding the
// real environment. A missing file is not an error.
func loadDotenv(path string) error {
	if path == "" {
		return nil
	}
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("load env file %s: %w", path, err)
	}
	return nil
}

func (c *Config) mergeFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config: %w", err)
	}
	return nil
}

func (c *Config) mergeEnv() error {
	if v := os.Getenv("SUPERGE_DB"); v != "" {
		c.DB = v
	}
	if v := os.Getenv("SUPERGE_ADDR"); v != "" {
		c.Addr = v
	}
	if v := os.Getenv("SUPERGE_ADMIN_USER"); v != "" {
		c.AdminUser = v
	}
	if v := os.Getenv("SUPERGE_LOG"); v != "" {
		c.Log = v
	}
	if v := os.Getenv("SUPERGE_LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
	if v := os.Getenv("SUPERGE_STORE"); v != "" {
		c.Store = v
	}
	if v := os.Getenv("SUPERGE_ALLOWED_ORIGINS"); v != "" {
		c.AllowedOrigins = splitList(v)
	}
	if v := os.Getenv("SUPERGE_MAX_UPLOAD_BYTES"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("config: SUPERGE_MAX_UPLOAD_BYTES: %w", err)
		}
		c.MaxUploadBytes = n
	}
	return nil
}

func (c *Config) mergeFlags(f Config) {
	for dst, src := range map[*string]string{
		&c.DB:        f.DB,
		&c.Addr:      f.Addr,
		&c.AdminUser: f.AdminUser,
		&c.Log:       f.Log,
		&c.LogLevel:  f.LogLevel,
		&c.Store:     f.Store,
	} {
		if src != "" {
			*dst = src
		}
	}
}

// Validate reports the first invalid setting.
func (c Config) Validate() error {
	if strings.TrimSpace(c.Addr) == "" {
		return errors.New("config: addr is required")
	}
	if strings.TrimSpace(c.DB) == "" {
		return errors.New("config: db is required")
	}
	if c.Store != StoreSQLite && c.Store != StoreMemory {
		return fmt.Errorf("config: store must be %q or %q, got %q", StoreSQLite, StoreMemory, c.Store)
	}
	if c.MaxUploadBytes <= 0 {
		return errors.New("config: maxUploadBytes must be > 0")
	}
	if _, err := c.SlogLevel(); err != nil {
		return err
	}
	return nil
}

// SlogLevel converts LogLevel into a slog.Level.
func (c Config) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, fmt.Errorf("config: logLevel: %w", err)
	}
	return level, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
