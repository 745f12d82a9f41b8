package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Hub       HubConfig       `yaml:"hub"`
	Transport TransportConfig `yaml:"transport"`
	Log       LogConfig       `yaml:"log"`
	Devices   []DeviceConfig  `yaml:"devices"`
}

type HubConfig struct {
	ListenAddr string `yaml:"listen_addr"`

	// RateLimit is requests per minute per client IP; 0 disables.
	RateLimit int `yaml:"rate_limit"`
}

type TransportConfig struct {
	Timeout string `yaml:"timeout"`

	// StatusRetries is the total number of attempts for status reads.
	// Actions are never retried.
	StatusRetries int    `yaml:"status_retries"`
	RetryDelay    string `yaml:"retry_delay"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// DeviceConfig describes one device microservice the hub should proxy.
type DeviceConfig struct {
	ID         string `yaml:"id"`
	Type       string `yaml:"type"`
	Host       string `yaml:"host"`
	Port       int    `yaml:"port"`
	LogActions bool   `yaml:"log_actions"`
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	cfg.setDefaults()

	return &cfg, nil
}

func (c *Config) setDefaults() {
	if c.Hub.ListenAddr == "" {
		c.Hub.ListenAddr = ":8080"
	}
	if c.Hub.RateLimit == 0 {
		c.Hub.RateLimit = 120
	}
	if c.Transport.Timeout == "" {
		c.Transport.Timeout = "5s"
	}
	if c.Transport.StatusRetries == 0 {
		c.Transport.StatusRetries = 2
	}
	if c.Transport.RetryDelay == "" {
		c.Transport.RetryDelay = "100ms"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
}
