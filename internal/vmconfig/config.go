// Package vmconfig loads the interpreter's TOML-backed configuration:
// execution limits, channel semantics, and trace output.
package vmconfig

import (
	"os"
	"path/filepath"
	"runtime"

	"github.com/BurntSushi/toml"
	"github.com/pkg/errors"
)

// Config is the full on-disk configuration shape.
type Config struct {
	Execution struct {
		MaxSteps         int    `toml:"max_steps"`
		ChannelSemantics string `toml:"channel_semantics"` // "latched" or "rendezvous"
		TraceEnabled     bool   `toml:"trace_enabled"`
	} `toml:"execution"`

	Trace struct {
		OutputFile   string `toml:"output_file"`
		IncludeStack bool   `toml:"include_stack"`
	} `toml:"trace"`
}

// DefaultConfig returns the interpreter's out-of-the-box settings: a
// 1000-step budget (a development safety valve, not a language
// guarantee), latched channels (the behavior a plain undeclared map of
// channel slots gives you for free), and tracing off.
func DefaultConfig() *Config {
	cfg := &Config{}

	cfg.Execution.MaxSteps = 1000
	cfg.Execution.ChannelSemantics = "latched"
	cfg.Execution.TraceEnabled = false

	cfg.Trace.OutputFile = ""
	cfg.Trace.IncludeStack = true

	return cfg
}

// Rendezvous reports whether Execution.ChannelSemantics selects
// single-shot rendezvous (clear-on-receive) instead of the default
// latched (read-without-clearing) behavior.
func (c *Config) Rendezvous() bool {
	return c.Execution.ChannelSemantics == "rendezvous"
}

// GetConfigPath returns the platform-specific config file path.
func GetConfigPath() string {
	var configDir string

	switch runtime.GOOS {
	case "windows":
		configDir = os.Getenv("APPDATA")
		if configDir == "" {
			configDir = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
		configDir = filepath.Join(configDir, "threadasm")

	case "darwin", "linux":
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "config.toml"
		}
		configDir = filepath.Join(homeDir, ".config", "threadasm")

	default:
		return "config.toml"
	}

	if err := os.MkdirAll(configDir, 0750); err != nil {
		return "config.toml"
	}

	return filepath.Join(configDir, "config.toml")
}

// Load loads configuration from the default config file.
func Load() (*Config, error) {
	return LoadFrom(GetConfigPath())
}

// LoadFrom loads configuration from path, falling back to defaults when
// the file does not exist.
func LoadFrom(path string) (*Config, error) {
	cfg := DefaultConfig()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}

	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, errors.Wrap(err, "failed to parse config file")
	}

	return cfg, nil
}

// Save saves configuration to the default config file.
func (c *Config) Save() error {
	return c.SaveTo(GetConfigPath())
}

// SaveTo saves configuration to path.
func (c *Config) SaveTo(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return errors.Wrap(err, "failed to create config directory")
	}

	f, err := os.Create(path) // #nosec G304 -- user-provided config path
	if err != nil {
		return errors.Wrap(err, "failed to create config file")
	}
	defer f.Close()

	encoder := toml.NewEncoder(f)
	if err := encoder.Encode(c); err != nil {
		return errors.Wrap(err, "failed to encode config")
	}

	return nil
}
