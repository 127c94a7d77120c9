package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/jay2u/expert-ruby-cartridge/internal/environ"
	"github.com/jay2u/expert-ruby-cartridge/internal/render"
	"github.com/jay2u/expert-ruby-cartridge/internal/settings"
)

const (
	defaultOutput    = "-"
	defaultLogLevel  = "info"
	defaultLogFormat = "json"
)

// Config aggregates the options of the pumaconf tool.
// Precedence: CLI flags > YAML config > Environment variables > Defaults
type Config struct {
	Format      render.Format
	Output      string
	Strict      bool
	EnvFile     string
	Environment settings.Environment
	MinThreads  int
	MaxThreads  int
	Workers     int
	LogLevel    string
	LogFormat   string
}

// yamlConfig represents the YAML configuration file structure.
type yamlConfig struct {
	Format      string      `yaml:"format"`
	Output      string      `yaml:"output"`
	Strict      *bool       `yaml:"strict"`
	EnvFile     string      `yaml:"env_file"`
	Environment string      `yaml:"environment"`
	Threads     yamlThreads `yaml:"threads"`
	Workers     *int        `yaml:"workers"`
	Log         yamlLog     `yaml:"log"`
}

// yamlThreads represents the threads section in YAML.
type yamlThreads struct {
	Min *int `yaml:"min"`
	Max *int `yaml:"max"`
}

// yamlLog represents the log section in YAML.
type yamlLog struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// CLIOverrides holds command-line flag overrides. Nil fields were not set.
type CLIOverrides struct {
	ConfigFile  string
	Format      *string
	Output      *string
	Strict      *bool
	EnvFile     *string
	Environment *string
	MinThreads  *int
	MaxThreads  *int
	Workers     *int
	LogLevel    *string
}

// Load extracts configuration from multiple sources with precedence:
// CLI flags > YAML config > Environment variables > Defaults
func Load(overrides *CLIOverrides) (Config, error) {
	return load(overrides, environ.OS())
}

func load(overrides *CLIOverrides, env environ.Source) (Config, error) {
	cfg := defaultConfig()

	if overrides != nil && overrides.ConfigFile != "" {
		yamlCfg, err := loadFromFile(overrides.ConfigFile)
		if err != nil {
			return Config{}, fmt.Errorf("load YAML config: %w", err)
		}
		if err := applyYAMLConfig(&cfg, yamlCfg); err != nil {
			return Config{}, fmt.Errorf("apply YAML config: %w", err)
		}
	}

	if err := applyEnvConfig(&cfg, env); err != nil {
		return Config{}, err
	}

	if overrides != nil {
		if err := applyCLIOverrides(&cfg, overrides); err != nil {
			return Config{}, err
		}
	}

	if err := validateConfig(cfg); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// Policy maps the strict flag to the settings policy.
func (c Config) Policy() settings.Policy {
	if c.Strict {
		return settings.PolicyStrict
	}
	return settings.PolicyLenient
}

// defaultConfig returns a Config with default values.
func defaultConfig() Config {
	d := settings.Defaults()
	return Config{
		Format:      render.FormatPuma,
		Output:      defaultOutput,
		Environment: d.Environment,
		MinThreads:  d.MinThreads,
		MaxThreads:  d.MaxThreads,
		LogLevel:    defaultLogLevel,
		LogFormat:   defaultLogFormat,
	}
}

// loadFromFile loads configuration from a YAML file.
func loadFromFile(path string) (*yamlConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}

	var yamlCfg yamlConfig
	if err := yaml.Unmarshal(data, &yamlCfg); err != nil {
		return nil, fmt.Errorf("parse YAML: %w", err)
	}

	return &yamlCfg, nil
}

// applyYAMLConfig applies YAML configuration to the Config struct.
func applyYAMLConfig(cfg *Config, yamlCfg *yamlConfig) error {
	if yamlCfg.Format != "" {
		f, err := render.ParseFormat(yamlCfg.Format)
		if err != nil {
			return err
		}
		cfg.Format = f
	}

	if yamlCfg.Output != "" {
		cfg.Output = yamlCfg.Output
	}

	if yamlCfg.Strict != nil {
		cfg.Strict = *yamlCfg.Strict
	}

	if yamlCfg.EnvFile != "" {
		cfg.EnvFile = yamlCfg.EnvFile
	}

	if yamlCfg.Environment != "" {
		env, err := settings.ParseEnvironment(yamlCfg.Environment)
		if err != nil {
			return err
		}
		cfg.Environment = env
	}

	if yamlCfg.Threads.Min != nil {
		cfg.MinThreads = *yamlCfg.Threads.Min
	}
	if yamlCfg.Threads.Max != nil {
		cfg.MaxThreads = *yamlCfg.Threads.Max
	}

	if yamlCfg.Workers != nil {
		cfg.Workers = *yamlCfg.Workers
	}

	if yamlCfg.Log.Level != "" {
		cfg.LogLevel = yamlCfg.Log.Level
	}
	if yamlCfg.Log.Format != "" {
		cfg.LogFormat = yamlCfg.Log.Format
	}

	return nil
}

// applyEnvConfig applies environment variable configuration.
func applyEnvConfig(cfg *Config, env environ.Source) error {
	get := func(name string) string {
		value, _ := env.Lookup(name)
		return strings.TrimSpace(value)
	}

	if raw := get("PUMACONF_FORMAT"); raw != "" {
		f, err := render.ParseFormat(raw)
		if err != nil {
			return fmt.Errorf("PUMACONF_FORMAT: %w", err)
		}
		cfg.Format = f
	}

	if output := get("PUMACONF_OUTPUT"); output != "" {
		cfg.Output = output
	}

	if raw := get("PUMACONF_STRICT"); raw != "" {
		strict, err := strconv.ParseBool(raw)
		if err != nil {
			return fmt.Errorf("PUMACONF_STRICT: invalid boolean %q", raw)
		}
		cfg.Strict = strict
	}

	if envFile := get("PUMACONF_ENV_FILE"); envFile != "" {
		cfg.EnvFile = envFile
	}

	if level := get("PUMACONF_LOG_LEVEL"); level != "" {
		cfg.LogLevel = level
	}

	return nil
}

// applyCLIOverrides applies command-line flag overrides.
func applyCLIOverrides(cfg *Config, overrides *CLIOverrides) error {
	if overrides.Format != nil && *overrides.Format != "" {
		f, err := render.ParseFormat(*overrides.Format)
		if err != nil {
			return fmt.Errorf("parse format: %w", err)
		}
		cfg.Format = f
	}

	if overrides.Output != nil && *overrides.Output != "" {
		cfg.Output = *overrides.Output
	}

	if overrides.Strict != nil {
		cfg.Strict = *overrides.Strict
	}

	if overrides.EnvFile != nil && *overrides.EnvFile != "" {
		cfg.EnvFile = *overrides.EnvFile
	}

	if overrides.Environment != nil && *overrides.Environment != "" {
		env, err := settings.ParseEnvironment(*overrides.Environment)
		if err != nil {
			return fmt.Errorf("parse environment: %w", err)
		}
		cfg.Environment = env
	}

	if overrides.MinThreads != nil {
		cfg.MinThreads = *overrides.MinThreads
	}
	if overrides.MaxThreads != nil {
		cfg.MaxThreads = *overrides.MaxThreads
	}

	if overrides.Workers != nil {
		cfg.Workers = *overrides.Workers
	}

	if overrides.LogLevel != nil && *overrides.LogLevel != "" {
		cfg.LogLevel = *overrides.LogLevel
	}

	return nil
}

// validateConfig validates the final configuration.
func validateConfig(cfg Config) error {
	if cfg.MinThreads < 0 || cfg.MaxThreads <= 0 || cfg.MinThreads > cfg.MaxThreads {
		return fmt.Errorf("%w, got %d..%d", settings.ErrInvalidThreads, cfg.MinThreads, cfg.MaxThreads)
	}
	if cfg.Workers < 0 {
		return fmt.Errorf("%w, got %d", settings.ErrInvalidWorkers, cfg.Workers)
	}
	if cfg.Output == "" {
		return fmt.Errorf("output cannot be empty")
	}
	switch cfg.LogFormat {
	case "json", "console":
	default:
		return fmt.Errorf("log format must be json or console, got %q", cfg.LogFormat)
	}
	return nil
}
