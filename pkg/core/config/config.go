package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	mdwerror "github.com/msto63/calcparse/foundation/core/error"
)

// Config holds the complete application configuration
type Config struct {
	General GeneralConfig `toml:"general" yaml:"general"`
	Parser  ParserConfig  `toml:"parser" yaml:"parser"`
	Output  OutputConfig  `toml:"output" yaml:"output"`
	Server  ServerConfig  `toml:"server" yaml:"server"`
	Store   StoreConfig   `toml:"store" yaml:"store"`
}

// GeneralConfig holds general application settings
type GeneralConfig struct {
	LogLevel  string `toml:"log_level" yaml:"log_level"`
	LogFormat string `toml:"log_format" yaml:"log_format"`
}

// ParserConfig holds front end settings
type ParserConfig struct {
	Trace          bool `toml:"trace" yaml:"trace"`
	MaxTokenLength int  `toml:"max_token_length" yaml:"max_token_length"`
}

// OutputConfig controls how trees and diagnostics are printed
type OutputConfig struct {
	Format string `toml:"format" yaml:"format"` // tree, compact, json, yaml
	Color  string `toml:"color" yaml:"color"`   // auto, always, never
}

// ServerConfig holds gRPC server settings
type ServerConfig struct {
	Host       string   `toml:"host" yaml:"host"`
	Port       int      `toml:"port" yaml:"port"`
	Timeout    Duration `toml:"timeout" yaml:"timeout"`
	Reflection bool     `toml:"reflection" yaml:"reflection"`
}

// StoreConfig holds run history settings
type StoreConfig struct {
	Enabled bool   `toml:"enabled" yaml:"enabled"`
	Path    string `toml:"path" yaml:"path"`
}

// Output formats
const (
	FormatTree    = "tree"
	FormatCompact = "compact"
	FormatJSON    = "json"
	FormatYAML    = "yaml"
)

// Duration wraps time.Duration for TOML and YAML parsing
type Duration struct {
	time.Duration
}

// UnmarshalText parses a duration string
func (d *Duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

// MarshalText formats the duration as a string
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// UnmarshalYAML parses a duration scalar
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	return d.UnmarshalText([]byte(node.Value))
}

// MarshalYAML formats the duration as a string
func (d Duration) MarshalYAML() (interface{}, error) {
	return d.Duration.String(), nil
}

// Default returns a configuration with all defaults applied
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// Load loads configuration from a TOML or YAML file, chosen by extension
func Load(path string) (*Config, error) {
	// Expand environment variables in path
	path = os.ExpandEnv(path)

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, configError(err, "config file not found: "+path)
		}
		return nil, configError(err, "failed to read config")
	}

	var cfg Config
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &cfg)
	case ".toml", "":
		_, err = toml.Decode(string(data), &cfg)
	default:
		return nil, mdwerror.Newf("unsupported config format: %s", filepath.Ext(path)).
			WithCode(mdwerror.CodeConfigError)
	}
	if err != nil {
		return nil, configError(err, "failed to parse config")
	}

	cfg.applyDefaults()
	cfg.expandEnvVars()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadFromEnv loads configuration from the CALC_CONFIG environment variable
// or the first default location that exists. Without any file the defaults
// are returned.
func LoadFromEnv() (*Config, error) {
	path := os.Getenv("CALC_CONFIG")
	if path == "" {
		for _, p := range DefaultPaths() {
			if _, err := os.Stat(p); err == nil {
				path = p
				break
			}
		}
	}

	if path == "" {
		return Default(), nil
	}
	return Load(path)
}

// DefaultPaths lists the locations searched for a config file
func DefaultPaths() []string {
	return []string{
		"./calc.toml",
		"./calc.yaml",
		filepath.Join(os.Getenv("HOME"), ".config/calc/config.toml"),
	}
}

// Validate checks value ranges and enumerations
func (c *Config) Validate() error {
	switch c.Output.Format {
	case FormatTree, FormatCompact, FormatJSON, FormatYAML:
	default:
		return invalid("output.format", c.Output.Format, "tree, compact, json or yaml")
	}
	switch c.Output.Color {
	case "auto", "always", "never":
	default:
		return invalid("output.color", c.Output.Color, "auto, always or never")
	}
	switch c.General.LogFormat {
	case "text", "json", "logfmt":
	default:
		return invalid("general.log_format", c.General.LogFormat, "text, json or logfmt")
	}
	if c.Parser.MaxTokenLength < 1 {
		return invalid("parser.max_token_length", c.Parser.MaxTokenLength, "a positive number")
	}
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return invalid("server.port", c.Server.Port, "a port number")
	}
	if c.Store.Enabled && c.Store.Path == "" {
		return invalid("store.path", c.Store.Path, "a file path when the store is enabled")
	}
	return nil
}

// applyDefaults sets default values for missing configuration
func (c *Config) applyDefaults() {
	// General
	if c.General.LogLevel == "" {
		c.General.LogLevel = "warn"
	}
	if c.General.LogFormat == "" {
		c.General.LogFormat = "text"
	}

	// Parser
	if c.Parser.MaxTokenLength == 0 {
		c.Parser.MaxTokenLength = 128
	}

	// Output
	if c.Output.Format == "" {
		c.Output.Format = FormatTree
	}
	if c.Output.Color == "" {
		c.Output.Color = "auto"
	}

	// Server
	if c.Server.Host == "" {
		c.Server.Host = "127.0.0.1"
	}
	if c.Server.Port == 0 {
		c.Server.Port = 9310
	}
	if c.Server.Timeout.Duration == 0 {
		c.Server.Timeout.Duration = 10 * time.Second
	}

	// Store
	if c.Store.Path == "" {
		c.Store.Path = filepath.Join(os.Getenv("HOME"), ".local/share/calc/history.db")
	}
}

// expandEnvVars expands environment variables in configuration values
func (c *Config) expandEnvVars() {
	c.Store.Path = os.ExpandEnv(c.Store.Path)
}

// ServerAddress returns the host:port the gRPC server listens on
func (c *Config) ServerAddress() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

func configError(err error, message string) error {
	return mdwerror.Wrap(err, message).WithCode(mdwerror.CodeConfigError)
}

func invalid(key string, value interface{}, want string) error {
	return mdwerror.Newf("invalid %s %v: want %s", key, value, want).
		WithCode(mdwerror.CodeConfigError).
		WithDetail("key", key)
}
