package config

import (
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-yaml/yaml"
	"github.com/pkg/errors"

	"github.com/idilsaglam/comments/internal/api"
)

// Config holds everything the CLI, the TUI and the dev server read.
type Config struct {
	BaseURL  string `yaml:"baseURL"`
	Timeout  string `yaml:"timeout"`
	Theme    string `yaml:"theme"`
	DebugLog string `yaml:"debugLog"`
	Server   Server `yaml:"server"`

	// parsed from Timeout
	RequestTimeout time.Duration `yaml:"-"`
}

// Server configures `comments serve`.
type Server struct {
	Addr     string   `yaml:"addr"`
	DataFile string   `yaml:"dataFile"`
	Latency  string   `yaml:"latency"`
	Fail     []string `yaml:"fail"`

	// parsed from Latency
	LatencyDuration time.Duration `yaml:"-"`
}

// homeDir is swapped in tests.
var homeDir = os.UserHomeDir

func defaults() Config {
	return Config{
		BaseURL: api.DefaultBaseURL,
		Timeout: "10s",
		Theme:   "classic",
		Server: Server{
			Addr: "127.0.0.1:3000",
		},
	}
}

// DefaultPath is ~/.comments/config.yaml.
func DefaultPath() (string, error) {
	home, err := homeDir()
	if err != nil {
		return "", errors.Wrap(err, "home")
	}
	return filepath.Join(home, ".comments", "config.yaml"), nil
}

// Load builds the configuration from defaults, then the YAML file, then the
// environment. An explicit path must exist; the default path is optional.
func Load(path string) (*Config, error) {
	cfg := defaults()

	explicit := path != ""
	if !explicit {
		p, err := DefaultPath()
		if err == nil {
			path = p
		}
	}
	if path != "" {
		if err := cfg.readFile(path, explicit); err != nil {
			return nil, err
		}
	}

	cfg.applyEnv()

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Override applies command-line values on top of the loaded configuration and
// validates the result. Empty values leave the field unchanged.
func (c *Config) Override(baseURL, theme string) error {
	if baseURL != "" {
		c.BaseURL = baseURL
	}
	if theme != "" {
		c.Theme = theme
	}
	return c.validate()
}

func (c *Config) readFile(path string, required bool) error {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) && !required {
			return nil
		}
		return errors.Wrap(err, "open config")
	}
	defer file.Close()

	if err := yaml.NewDecoder(file).Decode(c); err != nil && err != io.EOF {
		return errors.Wrapf(err, "parse config %s", path)
	}
	return nil
}

func (c *Config) applyEnv() {
	c.BaseURL = getEnv("COMMENTS_BASE_URL", c.BaseURL)
	c.Timeout = getEnv("COMMENTS_TIMEOUT", c.Timeout)
	c.Theme = getEnv("COMMENTS_THEME", c.Theme)
	c.DebugLog = getEnv("COMMENTS_DEBUG_LOG", c.DebugLog)
	c.Server.Addr = getEnv("COMMENTS_ADDR", c.Server.Addr)
	c.Server.DataFile = getEnv("COMMENTS_DATA", c.Server.DataFile)
	c.Server.Latency = getEnv("COMMENTS_LATENCY", c.Server.Latency)
	if v := getEnv("COMMENTS_FAIL", ""); v != "" {
		c.Server.Fail = splitList(v)
	}
}

// splitList parses a comma separated env value, dropping empty entries.
func splitList(v string) []string {
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func (c *Config) validate() error {
	u, err := url.Parse(c.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return errors.Errorf("invalid base URL: %q", c.BaseURL)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return errors.Errorf("invalid base URL scheme: %s (must be http or https)", u.Scheme)
	}

	d, err := time.ParseDuration(c.Timeout)
	if err != nil {
		return errors.Wrapf(err, "invalid timeout %q", c.Timeout)
	}
	if d < 0 {
		return errors.Errorf("timeout must not be negative: %s", c.Timeout)
	}
	c.RequestTimeout = d

	switch strings.ToLower(c.Theme) {
	case "classic", "neon", "mono":
	default:
		return errors.Errorf("invalid theme: %s (must be 'classic', 'neon' or 'mono')", c.Theme)
	}

	if c.Server.Latency != "" {
		d, err := time.ParseDuration(c.Server.Latency)
		if err != nil {
			return errors.Wrapf(err, "invalid server latency %q", c.Server.Latency)
		}
		c.Server.LatencyDuration = d
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}
