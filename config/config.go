package config

import (
	"fmt"
	"net"
	"os"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the collector
type Config struct {
	Modem      ModemConfig      `yaml:"modem"`
	Outputs    OutputsConfig    `yaml:"outputs"`
	Prometheus PrometheusConfig `yaml:"prometheus"`
	Loki       LokiConfig       `yaml:"loki"`
	Logging    LoggingConfig    `yaml:"logging"`
}

type ModemConfig struct {
	Address  string  `yaml:"address"`
	Scheme   string  `yaml:"scheme"`
	Interval float64 `yaml:"interval"`
}

type OutputsConfig struct {
	Path  string `yaml:"path"`
	CSV   bool   `yaml:"csv"`
	JSONL bool   `yaml:"jsonl"`
}

type PrometheusConfig struct {
	Enabled bool `yaml:"enabled"`
	Port    int  `yaml:"port"`
}

type LokiConfig struct {
	Enabled  bool              `yaml:"enabled"`
	Endpoint string            `yaml:"endpoint"`
	Labels   map[string]string `yaml:"labels"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Load reads configuration from a YAML file, expanding environment
// variables in the file body first.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	expandedData := os.ExpandEnv(string(data))

	config := defaults()
	if err := yaml.Unmarshal([]byte(expandedData), config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := config.validate(); err != nil {
		return nil, err
	}
	return config, nil
}

func defaults() *Config {
	return &Config{
		Modem: ModemConfig{
			Scheme:   "http",
			Interval: 60.0,
		},
		Outputs: OutputsConfig{
			Path: "data",
		},
		Prometheus: PrometheusConfig{
			Port: 9100,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

func (c *Config) validate() error {
	if c.Modem.Address != "" && net.ParseIP(c.Modem.Address) == nil {
		return fmt.Errorf("%q is not a valid IP address", c.Modem.Address)
	}
	if c.Modem.Scheme != "http" && c.Modem.Scheme != "https" {
		return fmt.Errorf("%q is not a valid scheme", c.Modem.Scheme)
	}
	// Polling faster than this hammers the modem's web server enough to
	// disturb the readings themselves.
	if c.Modem.Interval < 5.0 {
		return fmt.Errorf("interval must be at least 5 seconds, got %g", c.Modem.Interval)
	}
	if c.Loki.Enabled && c.Loki.Endpoint == "" {
		return fmt.Errorf("loki output enabled without an endpoint")
	}
	return nil
}
