package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultPath is the project file looked up when no --config flag is given.
const DefaultPath = "icetype.yaml"

type TargetConfig struct {
	Dialect string `yaml:"dialect"`
	Output  string `yaml:"output"`
}

type WatchConfig struct {
	DebounceMS int `yaml:"debounce_ms"`
}

type Config struct {
	Schemas       []string       `yaml:"schemas"`
	MigrationsDir string         `yaml:"migrations_dir"`
	Targets       []TargetConfig `yaml:"targets"`
	Watch         WatchConfig    `yaml:"watch"`
	Workers       int            `yaml:"workers"`
}

func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

func LoadConfig(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	applyDefaults(&config)
	return &config, nil
}

// LoadOrDefault falls back to built-in defaults when the default project
// file is absent. An explicit path that does not exist is still an error.
func LoadOrDefault(configPath string) (*Config, error) {
	if configPath == "" {
		if _, err := os.Stat(DefaultPath); os.IsNotExist(err) {
			return Default(), nil
		}
		configPath = DefaultPath
	}
	return LoadConfig(configPath)
}

func applyDefaults(config *Config) {
	if len(config.Schemas) == 0 {
		config.Schemas = []string{"schemas/*.yaml", "schemas/*.yml"}
	}
	if config.MigrationsDir == "" {
		config.MigrationsDir = "migrations"
	}
	if config.Workers <= 0 {
		config.Workers = 4
	}
	if config.Watch.DebounceMS <= 0 {
		config.Watch.DebounceMS = 500
	}
	for i := range config.Targets {
		config.Targets[i].Dialect = normalizeDialect(config.Targets[i].Dialect)
		if config.Targets[i].Output == "" {
			config.Targets[i].Output = "generated/" + config.Targets[i].Dialect
		}
	}
}

func normalizeDialect(dialect string) string {
	dialect = strings.ToLower(strings.TrimSpace(dialect))

	switch dialect {
	case "postgres", "postgresql", "pg":
		return "postgres"
	case "mysql", "mariadb":
		return "mysql"
	case "ts", "typescript":
		return "typescript"
	case "click", "clickhouse":
		return "clickhouse"
	default:
		return dialect
	}
}
