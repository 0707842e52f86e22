// Package config loads zutil settings.
//
// Settings live at $XDG_CONFIG_HOME/zutil/config.yaml (defaults to
// ~/.config/zutil/config.yaml). A missing file yields the defaults.
// ZUTIL_* environment variables override the file.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/dnlvgl/zutil/internal/command"
	"github.com/dnlvgl/zutil/internal/logging"
	"github.com/dnlvgl/zutil/internal/smf"
	"github.com/dnlvgl/zutil/internal/zone"
	"github.com/dnlvgl/zutil/internal/zonecfg"
)

// DefaultExporterAddr is where `zutil export` listens unless configured.
const DefaultExporterAddr = "127.0.0.1:9155"

// Log configures the logger.
type Log struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Commands holds host tool paths.
type Commands struct {
	Zoneadm  string `yaml:"zoneadm"`
	Zonename string `yaml:"zonename"`
	Zonecfg  string `yaml:"zonecfg"`
	Svcprop  string `yaml:"svcprop"`
	Svcs     string `yaml:"svcs"`
}

// Exporter configures the HTTP exporter.
type Exporter struct {
	Addr string `yaml:"addr"`
}

// Config is the full set of settings.
type Config struct {
	Log      Log           `yaml:"log"`
	Timeout  time.Duration `yaml:"timeout"`
	Commands Commands      `yaml:"commands"`
	Exporter Exporter      `yaml:"exporter"`
	// Services are the FMRIs the browser and exporter watch in every zone.
	Services []string `yaml:"services"`
}

// Default returns the built-in settings.
func Default() *Config {
	return &Config{
		Log:     Log{Level: logging.LevelInfo, Format: logging.FormatConsole},
		Timeout: command.DefaultTimeout,
		Commands: Commands{
			Zoneadm:  zone.DefaultCommands.Zoneadm,
			Zonename: zone.DefaultCommands.Zonename,
			Zonecfg:  zonecfg.DefaultCommand,
			Svcprop:  smf.DefaultCommands.Svcprop,
			Svcs:     smf.DefaultCommands.Svcs,
		},
		Exporter: Exporter{Addr: DefaultExporterAddr},
		Services: []string{"svc:/milestone/multi-user:default"},
	}
}

// Path returns the config file location. It respects XDG_CONFIG_HOME,
// falling back to ~/.config/zutil/config.yaml.
func Path() string {
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return filepath.Join(".config", "zutil", "config.yaml")
		}
		dir = filepath.Join(home, ".config")
	}
	return filepath.Join(dir, "zutil", "config.yaml")
}

// Load reads path (Path() when empty) over the defaults, applies the
// environment and validates the result. If the file does not exist the
// defaults are used.
func Load(path string) (*Config, error) {
	if path == "" {
		path = Path()
	}
	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("read config: %w", err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if err := LoadFromEnv(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFromEnv applies ZUTIL_* overrides.
func LoadFromEnv(cfg *Config) error {
	if v := os.Getenv("ZUTIL_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("ZUTIL_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("ZUTIL_TIMEOUT: %w", err)
		}
		cfg.Timeout = d
	}
	if v := os.Getenv("ZUTIL_EXPORTER_ADDR"); v != "" {
		cfg.Exporter.Addr = v
	}
	return nil
}

// Validate checks the settings.
func (c *Config) Validate() error {
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	switch c.Log.Format {
	case logging.FormatConsole, logging.FormatJSON:
	default:
		return fmt.Errorf("config: invalid log format %q", c.Log.Format)
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("config: timeout must be positive, got %s", c.Timeout)
	}
	for name, p := range map[string]string{
		"zoneadm":  c.Commands.Zoneadm,
		"zonename": c.Commands.Zonename,
		"zonecfg":  c.Commands.Zonecfg,
		"svcprop":  c.Commands.Svcprop,
		"svcs":     c.Commands.Svcs,
	} {
		if p == "" {
			return fmt.Errorf("config: commands.%s is empty", name)
		}
	}
	if c.Exporter.Addr == "" {
		return errors.New("config: exporter.addr is empty")
	}
	for _, s := range c.Services {
		if _, err := smf.ParseFMRI(s); err != nil {
			return fmt.Errorf("config: services: %w", err)
		}
	}
	return nil
}

// ZoneCommands returns the registry's tool paths.
func (c *Config) ZoneCommands() zone.Commands {
	return zone.Commands{Zoneadm: c.Commands.Zoneadm, Zonename: c.Commands.Zonename}
}

// SMFCommands returns the service querier's tool paths.
func (c *Config) SMFCommands() smf.Commands {
	return smf.Commands{Svcprop: c.Commands.Svcprop, Svcs: c.Commands.Svcs}
}
