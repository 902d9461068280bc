// Package config resolves the console's settings from defaults, an optional
// .env file, an optional YAML file and the environment, in that order.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Environment variable names.
const (
	EnvAPIURL       = "W7ADMIN_API_URL"
	EnvStateDir     = "W7ADMIN_STATE_DIR"
	EnvTimeout      = "W7ADMIN_TIMEOUT"
	EnvPageSize     = "W7ADMIN_PAGE_SIZE"
	EnvDebug        = "W7ADMIN_DEBUG"
	EnvConfigFile   = "W7ADMIN_CONFIG"
	EnvOTLPEndpoint = "OTEL_EXPORTER_OTLP_ENDPOINT"
	EnvOTLPInsecure = "OTEL_EXPORTER_OTLP_INSECURE"
)

const (
	DefaultAPIURL   = "http://localhost:8080"
	DefaultTimeout  = 30 * time.Second
	DefaultPageSize = 20
)

// Config holds every setting the console reads at startup.
type Config struct {
	APIURL   string        `yaml:"api_url"`
	StateDir string        `yaml:"state_dir"`
	Timeout  time.Duration `yaml:"timeout"`
	PageSize int           `yaml:"page_size"`
	Debug    bool          `yaml:"debug"`

	OTLPEndpoint string `yaml:"otlp_endpoint"`
	OTLPInsecure bool   `yaml:"otlp_insecure"`

	// File is the YAML file that was read, if any.
	File string `yaml:"-"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		APIURL:   DefaultAPIURL,
		StateDir: defaultStateDir(),
		Timeout:  DefaultTimeout,
		PageSize: DefaultPageSize,
	}
}

func defaultStateDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".w7admin"
	}
	return filepath.Join(home, ".w7admin")
}

// Load builds the configuration. envFile may be empty to skip .env loading;
// a missing .env file is not an error.
func Load(envFile string) (Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return Config{}, fmt.Errorf("config.Load: %s: %w", envFile, err)
		}
	}

	cfg := Default()
	// The state dir decides where config.yaml lives, so it is resolved first.
	if dir := os.Getenv(EnvStateDir); dir != "" {
		cfg.StateDir = dir
	}

	path, explicit := os.Getenv(EnvConfigFile), true
	if path == "" {
		path, explicit = filepath.Join(cfg.StateDir, "config.yaml"), false
	}
	if err := cfg.readFile(path); err != nil {
		if explicit || !errors.Is(err, os.ErrNotExist) {
			return Config{}, fmt.Errorf("config.Load: %w", err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return Config{}, fmt.Errorf("config.Load: %w", err)
	}
	cfg.APIURL = strings.TrimRight(cfg.APIURL, "/")
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("config.Load: %w", err)
	}
	return cfg, nil
}

func (c *Config) readFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	c.File = path
	return nil
}

func (c *Config) applyEnv() error {
	if v := os.Getenv(EnvAPIURL); v != "" {
		c.APIURL = v
	}
	if v := os.Getenv(EnvStateDir); v != "" {
		c.StateDir = v
	}
	if v := os.Getenv(EnvTimeout); v != "" {
		d, err := parseTimeout(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvTimeout, err)
		}
		c.Timeout = d
	}
	if v := os.Getenv(EnvPageSize); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvPageSize, err)
		}
		c.PageSize = n
	}
	if v := os.Getenv(EnvDebug); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvDebug, err)
		}
		c.Debug = b
	}
	if v := os.Getenv(EnvOTLPEndpoint); v != "" {
		c.OTLPEndpoint = v
	}
	if v := os.Getenv(EnvOTLPInsecure); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvOTLPInsecure, err)
		}
		c.OTLPInsecure = b
	}
	return nil
}

// parseTimeout accepts a Go duration ("15s") or a bare number of seconds.
func parseTimeout(v string) (time.Duration, error) {
	if secs, err := strconv.Atoi(v); err == nil {
		return time.Duration(secs) * time.Second, nil
	}
	return time.ParseDuration(v)
}

// Validate rejects settings the console cannot run with.
func (c Config) Validate() error {
	u, err := url.Parse(c.APIURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("api url %q must be an absolute http(s) URL", c.APIURL)
	}
	if c.PageSize <= 0 {
		return fmt.Errorf("page size must be positive, got %d", c.PageSize)
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive, got %s", c.Timeout)
	}
	if c.StateDir == "" {
		return errors.New("state dir is empty")
	}
	return nil
}

// LogFile is where the console writes its log.
func (c Config) LogFile() string {
	return filepath.Join(c.StateDir, "w7admin.log")
}
