package config

import (
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/pkg/errors"
	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"
)

const (
	EnvConfigPath  = "CHARACTL_CONFIG"
	EnvServer      = "CHARACTL_SERVER"
	EnvLogLevel    = "CHARACTL_LOG_LEVEL"
	EnvLogFile     = "CHARACTL_LOG_FILE"
	defaultServer  = "http://127.0.0.1:8080"
	defaultMonitor = "/api/monitor"
)

// Duration accepts "3s"-style strings in config files.
type Duration time.Duration

func (d *Duration) UnmarshalText(b []byte) error {
	v, err := time.ParseDuration(strings.TrimSpace(string(b)))
	if err != nil {
		return errors.Wrapf(err, "parse duration %q", string(b))
	}
	*d = Duration(v)
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

func (d Duration) Duration() time.Duration { return time.Duration(d) }

type Config struct {
	Server         string   `yaml:"server" toml:"server"`
	MonitorPath    string   `yaml:"monitor_path" toml:"monitor_path"`
	ReconnectDelay Duration `yaml:"reconnect_delay" toml:"reconnect_delay"`
	ActionTimeout  Duration `yaml:"action_timeout" toml:"action_timeout"`
	ChartWindow    Duration `yaml:"chart_window" toml:"chart_window"`
	ChartPoints    int      `yaml:"chart_points" toml:"chart_points"`
	LogLevel       string   `yaml:"log_level" toml:"log_level"`
	LogFile        string   `yaml:"log_file" toml:"log_file"`
}

func Default() Config {
	return Config{
		Server:         defaultServer,
		MonitorPath:    defaultMonitor,
		ReconnectDelay: Duration(3 * time.Second),
		ActionTimeout:  Duration(10 * time.Second),
		ChartWindow:    Duration(60 * time.Second),
		ChartPoints:    600,
		LogLevel:       "info",
	}
}

// ResolvePath picks the config file: explicit flag, then $CHARACTL_CONFIG,
// then charactl.yaml in the user config dir. The result may not exist.
func ResolvePath(explicit string) string {
	if explicit != "" {
		return explicit
	}
	if fromEnv := os.Getenv(EnvConfigPath); fromEnv != "" {
		return fromEnv
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "charactl", "charactl.yaml")
}

// Load reads path on top of the defaults. A missing file is not an error.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, errors.Wrap(err, "read config")
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		if err := toml.Unmarshal(b, &cfg); err != nil {
			return Default(), errors.Wrap(err, "parse toml config")
		}
	default:
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return Default(), errors.Wrap(err, "parse yaml config")
		}
	}
	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) ApplyEnv() {
	if v := os.Getenv(EnvServer); v != "" {
		c.Server = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.LogLevel = v
	}
	if v := os.Getenv(EnvLogFile); v != "" {
		c.LogFile = v
	}
}

func (c *Config) applyDefaults() {
	d := Default()
	if c.Server == "" {
		c.Server = d.Server
	}
	if c.MonitorPath == "" {
		c.MonitorPath = d.MonitorPath
	}
	if c.ReconnectDelay == 0 {
		c.ReconnectDelay = d.ReconnectDelay
	}
	if c.ActionTimeout == 0 {
		c.ActionTimeout = d.ActionTimeout
	}
	if c.ChartWindow == 0 {
		c.ChartWindow = d.ChartWindow
	}
	if c.ChartPoints == 0 {
		c.ChartPoints = d.ChartPoints
	}
	if c.LogLevel == "" {
		c.LogLevel = d.LogLevel
	}
}

func (c Config) Validate() error {
	u, err := url.Parse(c.Server)
	if err != nil {
		return errors.Wrap(err, "invalid server url")
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return errors.Errorf("server url must be http or https, got %q", c.Server)
	}
	if u.Host == "" {
		return errors.Errorf("server url has no host: %q", c.Server)
	}
	if !strings.HasPrefix(c.MonitorPath, "/") {
		return errors.Errorf("monitor_path must start with '/': %q", c.MonitorPath)
	}
	if c.ReconnectDelay <= 0 {
		return errors.New("reconnect_delay must be > 0")
	}
	if c.ActionTimeout <= 0 {
		return errors.New("action_timeout must be > 0")
	}
	if c.ChartWindow <= 0 {
		return errors.New("chart_window must be > 0")
	}
	if c.ChartPoints <= 0 {
		return errors.New("chart_points must be > 0")
	}
	return nil
}

// Flags holds the command-line overrides bound by AddFlags.
type Flags struct {
	ConfigPath     string
	Server         string
	ReconnectDelay time.Duration
	ActionTimeout  time.Duration
	LogLevel       string
	LogFile        string
}

func AddFlags(fs *pflag.FlagSet, f *Flags) {
	fs.StringVar(&f.ConfigPath, "config", "", "config file (.yaml or .toml)")
	fs.StringVar(&f.Server, "server", "", "chara web API base URL (default "+defaultServer+")")
	fs.DurationVar(&f.ReconnectDelay, "reconnect-delay", 0, "delay before redialing the monitor channel")
	fs.DurationVar(&f.ActionTimeout, "action-timeout", 0, "timeout for API requests")
	fs.StringVar(&f.LogLevel, "log-level", "", "log level (trace, debug, info, warn, error)")
	fs.StringVar(&f.LogFile, "log-file", "", "write logs to this file")
}

// Resolve layers defaults, config file, environment and flags, in that order.
func Resolve(f Flags) (Config, error) {
	cfg, err := Load(ResolvePath(f.ConfigPath))
	if err != nil {
		return cfg, err
	}
	cfg.ApplyEnv()
	if f.Server != "" {
		cfg.Server = f.Server
	}
	if f.ReconnectDelay > 0 {
		cfg.ReconnectDelay = Duration(f.ReconnectDelay)
	}
	if f.ActionTimeout > 0 {
		cfg.ActionTimeout = Duration(f.ActionTimeout)
	}
	if f.LogLevel != "" {
		cfg.LogLevel = f.LogLevel
	}
	if f.LogFile != "" {
		cfg.LogFile = f.LogFile
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}
