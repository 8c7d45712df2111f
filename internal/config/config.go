// Package config loads project defaults for the CLI commands.
//
// A project config file is discovered by walking from a start directory up to
// the file system root. Environment variables prefixed with GIDEVO_ override
// file values, and explicit command flags override both.
package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/kelseyhightower/envconfig"
	"github.com/rs/zerolog"
	"go.yaml.in/yaml/v4"
)

// FileNames lists the config file names in priority order
var FileNames = []string{
	".gidevorc.json",
	".gidevorc",
	".gidevorc.yaml",
	".gidevorc.yml",
	"gidevo.config.json",
}

// EnvPrefix is the prefix of every environment override
const EnvPrefix = "gidevo"

// Config holds the project defaults for each command
type Config struct {
	Generate  GenerateConfig  `json:"generate" yaml:"generate"`
	Init      InitConfig      `json:"init" yaml:"init"`
	Validate  ValidateConfig  `json:"validate" yaml:"validate"`
	Plugins   PluginsConfig   `json:"plugins" yaml:"plugins"`
	Telemetry TelemetryConfig `json:"telemetry" yaml:"telemetry"`
}

// GenerateConfig contains defaults for the generate and watch commands
type GenerateConfig struct {
	Language  string `json:"language,omitempty" yaml:"language,omitempty"`
	Output    string `json:"output,omitempty" yaml:"output,omitempty"`
	Spec      string `json:"spec,omitempty" yaml:"spec,omitempty"`
	Templates string `json:"templates,omitempty" yaml:"templates,omitempty"`
}

// InitConfig contains defaults for project scaffolding
type InitConfig struct {
	Template string `json:"template,omitempty" yaml:"template,omitempty"`
	Output   string `json:"output,omitempty" yaml:"output,omitempty"`
}

// ValidateConfig contains defaults for the validate command
type ValidateConfig struct {
	Strict bool `json:"strict" yaml:"strict"`
}

// PluginsConfig controls plugin discovery
type PluginsConfig struct {
	Enabled   bool           `json:"enabled" yaml:"enabled"`
	Directory string         `json:"directory,omitempty" yaml:"directory,omitempty"`
	Config    map[string]any `json:"config,omitempty" yaml:"config,omitempty"`
}

// TelemetryConfig controls span export
type TelemetryConfig struct {
	Enabled  bool   `json:"enabled" yaml:"enabled"`
	Endpoint string `json:"endpoint,omitempty" yaml:"endpoint,omitempty"`
	Insecure bool   `json:"insecure,omitempty" yaml:"insecure,omitempty"`
}

// Default returns the built-in defaults
func Default() Config {
	return Config{
		Generate: GenerateConfig{
			Language: "typescript",
			Output:   "./generated",
		},
		Init: InitConfig{
			Template: "openapi",
			Output:   ".",
		},
		Plugins: PluginsConfig{
			Enabled:   true,
			Directory: "./plugins",
		},
	}
}

// Sample returns the config written by WriteSample
func Sample() Config {
	cfg := Default()
	cfg.Telemetry.Enabled = true
	return cfg
}

// Env holds the environment overrides. Unset variables leave the file value
// in place.
type Env struct {
	Language  string
	Output    string
	Spec      string
	Templates string
	Strict    *bool
	PluginDir string `split_words:"true"`
	Telemetry *bool
	APIToken  string `split_words:"true"`

	// The OTLP settings also accept the unprefixed standard variable names
	OtlpEndpoint string `envconfig:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	OtlpInsecure *bool  `envconfig:"OTEL_EXPORTER_OTLP_INSECURE"`
}

// LoadEnv reads the GIDEVO_ environment variables
func LoadEnv() (Env, error) {
	var env Env
	if err := envconfig.Process(EnvPrefix, &env); err != nil {
		return Env{}, fmt.Errorf("failed to process environment variables: %w", err)
	}
	return env, nil
}

// Apply overlays the set environment values onto c
func (e Env) Apply(c *Config) {
	if e.Language != "" {
		c.Generate.Language = e.Language
	}
	if e.Output != "" {
		c.Generate.Output = e.Output
	}
	if e.Spec != "" {
		c.Generate.Spec = e.Spec
	}
	if e.Templates != "" {
		c.Generate.Templates = e.Templates
	}
	if e.Strict != nil {
		c.Validate.Strict = *e.Strict
	}
	if e.PluginDir != "" {
		c.Plugins.Directory = e.PluginDir
	}
	if e.Telemetry != nil {
		c.Telemetry.Enabled = *e.Telemetry
	}
	if e.OtlpEndpoint != "" {
		c.Telemetry.Endpoint = e.OtlpEndpoint
	}
	if e.OtlpInsecure != nil {
		c.Telemetry.Insecure = *e.OtlpInsecure
	}
}

// LoadConfigFromPath parses one config file on top of the defaults. Files
// ending in .yaml or .yml are YAML; anything else is read as JSON, with YAML
// as a fallback for extensionless files.
func LoadConfigFromPath(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Default()
	if len(bytes.TrimSpace(data)) == 0 {
		return &cfg, nil
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	case ".json":
		if err := json.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	default:
		if jsonErr := json.Unmarshal(data, &cfg); jsonErr != nil {
			cfg = Default()
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config file %s: %w", path, jsonErr)
			}
		}
	}
	return &cfg, nil
}

// FindConfigFile searches startDir and its parents for the first config file
// in FileNames order. It returns "" when none exists.
func FindConfigFile(startDir string) string {
	dir := startDir
	for {
		for _, name := range FileNames {
			candidate := filepath.Join(dir, name)
			if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
				return candidate
			}
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			// Reached root directory
			return ""
		}
		dir = parent
	}
}

// Store caches the resolved config for a start directory. The cache is only
// refreshed by Reload or after Invalidate.
type Store struct {
	startDir string
	logger   zerolog.Logger

	mu     sync.Mutex
	loaded bool
	cfg    *Config
	path   string
}

// NewStore creates a store that discovers config files from startDir
func NewStore(startDir string, logger zerolog.Logger) *Store {
	return &Store{
		startDir: startDir,
		logger:   logger.With().Str("component", "config").Logger(),
	}
}

// Load returns the cached config, reading it on first use
func (s *Store) Load() (*Config, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.loaded {
		return s.cfg, nil
	}
	return s.reload()
}

// Reload discards the cache and reads the config again
func (s *Store) Reload() (*Config, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reload()
}

// Invalidate drops the cache; the next Load reads from disk
func (s *Store) Invalidate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loaded = false
	s.cfg = nil
	s.path = ""
}

// Path returns the config file in use, or "" when running on defaults
func (s *Store) Path() (string, error) {
	if _, err := s.Load(); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.path, nil
}

func (s *Store) reload() (*Config, error) {
	s.loaded = false

	path := FindConfigFile(s.startDir)
	cfg := Default()
	if path != "" {
		fileCfg, err := LoadConfigFromPath(path)
		if err != nil {
			return nil, err
		}
		cfg = *fileCfg
		s.logger.Debug().Str("path", path).Msg("loaded configuration")
	} else {
		s.logger.Debug().Str("dir", s.startDir).Msg("no config file found, using defaults")
	}

	env, err := LoadEnv()
	if err != nil {
		return nil, err
	}
	env.Apply(&cfg)

	s.cfg = &cfg
	s.path = path
	s.loaded = true
	return s.cfg, nil
}

// WriteSample writes the sample config to path as indented JSON. It refuses
// to overwrite an existing file.
func WriteSample(path string) error {
	data, err := json.MarshalIndent(Sample(), "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode sample config: %w", err)
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer f.Close()

	if _, err := f.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}
