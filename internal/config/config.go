package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Source SourceConfig `yaml:"source"`
	Output OutputConfig `yaml:"output"`
	HTTP   HTTPConfig   `yaml:"http"`
	MQTT   MQTTConfig   `yaml:"mqtt"`
	UDP    UDPConfig    `yaml:"udp"`
}

type SourceConfig struct {
	// Device is the serial device path. Empty auto-detects.
	Device string `yaml:"device"`
	Baud   int    `yaml:"baud"`

	// TCP reads NMEA from a network receiver at host:port instead of a
	// serial port.
	TCP string `yaml:"tcp"`

	// File replays NMEA lines from a file; "-" reads stdin. File wins
	// over TCP, which wins over Device.
	File string `yaml:"file"`
}

type OutputConfig struct {
	// Mode is one of "human", "json", "format".
	Mode   string `yaml:"mode"`
	Format string `yaml:"format"`

	// Interval is the minimum spacing between status emissions.
	Interval time.Duration `yaml:"interval"`

	// Partial emits whatever fields are present, without waiting for a
	// complete lat/lon/time triple.
	Partial bool `yaml:"partial"`

	// Once exits after printing a single consolidated fix summary.
	Once bool `yaml:"once"`

	// RawEcho prints every checksum-valid sentence to stdout.
	RawEcho bool `yaml:"raw_echo"`

	// LogPath appends every checksum-valid sentence to a file.
	LogPath string `yaml:"log_path"`
}

type HTTPConfig struct {
	// Addr enables the status endpoint when non-empty, e.g. ":8080".
	Addr string `yaml:"addr"`
}

type MQTTConfig struct {
	// Broker enables MQTT publishing when non-empty.
	Broker   string `yaml:"broker"`
	Topic    string `yaml:"topic"`
	ClientID string `yaml:"client_id"`
}

type UDPConfig struct {
	// Dest enables the UDP fix broadcaster when non-empty.
	Dest     string        `yaml:"dest"`
	Interval time.Duration `yaml:"interval"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	var cfg Config
	applyDefaults(&cfg)
	return cfg
}

func Load(path string) (Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}

	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return Config{}, err
	}
	applyDefaults(&cfg)
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Source.Baud == 0 {
		cfg.Source.Baud = 115200
	}
	if cfg.Output.Mode == "" {
		cfg.Output.Mode = "human"
	}
	if cfg.Output.Interval <= 0 {
		cfg.Output.Interval = time.Second
	}
	if cfg.MQTT.Topic == "" {
		cfg.MQTT.Topic = "gnsswatch/fix"
	}
	if cfg.MQTT.ClientID == "" {
		cfg.MQTT.ClientID = "gnsswatch"
	}
	if cfg.UDP.Interval <= 0 {
		cfg.UDP.Interval = time.Second
	}
}

func (cfg Config) Validate() error {
	switch cfg.Output.Mode {
	case "human", "json", "format":
	default:
		return fmt.Errorf("output.mode must be human, json or format, got %q", cfg.Output.Mode)
	}
	if cfg.Output.Mode == "format" && cfg.Output.Format == "" {
		return fmt.Errorf("output.format is required when output.mode is format")
	}
	if cfg.Source.Baud < 0 {
		return fmt.Errorf("source.baud must be positive, got %d", cfg.Source.Baud)
	}
	return nil
}
