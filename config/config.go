// Package config loads the per-service YAML configuration: broker adapter,
// database DSN, client-directory transport and the optional Redis cache and
// Kafka audit stream.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration is a time.Duration that unmarshals from a YAML string like "5s".
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return err
	}

	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("duration %q: %w", raw, err)
	}

	*d = Duration(parsed)

	return nil
}

func (d Duration) Std() time.Duration { return time.Duration(d) }

// Broker selects and parameterizes the transport adapter.
type Broker struct {
	// Kind is one of "rabbitmq", "nats", "inmemory".
	Kind        string   `yaml:"kind"`
	URL         string   `yaml:"url"`
	ConnTimeout Duration `yaml:"connTimeout"`
	// ReplyQueue is this process's private, non-durable RPC reply queue.
	ReplyQueue string `yaml:"replyQueue"`
}

// Directory selects how this service reads remote client profiles.
type Directory struct {
	// Transport is "broker" or "http".
	Transport string   `yaml:"transport"`
	HTTPBase  string   `yaml:"httpBase"`
	Timeout   Duration `yaml:"timeout"`
	Cache     Cache    `yaml:"cache"`
}

// Cache enables the Redis read-through profile cache when Addr is set.
type Cache struct {
	Addr string   `yaml:"addr"`
	TTL  Duration `yaml:"ttl"`
}

// Audit enables the Kafka audit tee when brokers are configured.
type Audit struct {
	Brokers []string `yaml:"brokers"`
	Topic   string   `yaml:"topic"`
}

type HTTP struct {
	Addr string `yaml:"addr"`
}

type Database struct {
	DSN string `yaml:"dsn"`
}

type Config struct {
	Service   string    `yaml:"service"`
	HTTP      HTTP      `yaml:"http"`
	Broker    Broker    `yaml:"broker"`
	Database  Database  `yaml:"database"`
	Directory Directory `yaml:"directory"`
	Audit     Audit     `yaml:"audit"`
}

// Load reads and validates the YAML file at path. The database DSN may be
// overridden with DATABASE_DSN so secrets stay out of the file.
func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %q: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("parse config %q: %w", path, err)
	}

	if dsn := os.Getenv("DATABASE_DSN"); dsn != "" {
		cfg.Database.DSN = dsn
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config %q: %w", path, err)
	}

	return &cfg, nil
}

func (c *Config) validate() error {
	switch c.Broker.Kind {
	case "rabbitmq", "nats":
		if c.Broker.URL == "" {
			return fmt.Errorf("broker kind %q requires a url", c.Broker.Kind)
		}
	case "inmemory":
	default:
		return fmt.Errorf("unknown broker kind %q", c.Broker.Kind)
	}

	if c.Broker.ReplyQueue == "" {
		return fmt.Errorf("broker replyQueue is required")
	}

	switch c.Directory.Transport {
	case "", "broker":
	case "http":
		if c.Directory.HTTPBase == "" {
			return fmt.Errorf("directory transport %q requires httpBase", c.Directory.Transport)
		}
	default:
		return fmt.Errorf("unknown directory transport %q", c.Directory.Transport)
	}

	return nil
}
