package main

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// ReplicaKinds lists the asset kinds the agent knows how to replicate.
var ReplicaKinds = []string{"fonts", "color_schemes", "templates"}

// Config holds the replica agent configuration.
type Config struct {
	ServerURL      string        `yaml:"server_url"`
	AssetDir       string        `yaml:"asset_dir"`
	AgentName      string        `yaml:"agent_name"`
	Kinds          []string      `yaml:"kinds"`
	Peers          []string      `yaml:"peers"`
	SyncInterval   time.Duration `yaml:"sync_interval"`
	ProbeInterval  time.Duration `yaml:"probe_interval"`
	MaxRetries     int           `yaml:"max_retries"`
	RetryBackoff   time.Duration `yaml:"retry_backoff"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
}

// LoadConfig loads configuration from a YAML file and environment variables.
// Environment variables override YAML values.
func LoadConfig(path string) (*Config, error) {
	cfg := &Config{
		// Defaults
		Kinds:          ReplicaKinds,
		SyncInterval:   15 * time.Minute,
		ProbeInterval:  1 * time.Minute,
		MaxRetries:     3,
		RetryBackoff:   5 * time.Second,
		RequestTimeout: 30 * time.Second,
	}

	// Load from YAML file if provided
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
	}

	// Override with environment variables
	if v := os.Getenv("STYLEASSETS_SERVER_URL"); v != "" {
		cfg.ServerURL = v
	}
	if v := os.Getenv("STYLEASSETS_ASSET_DIR"); v != "" {
		cfg.AssetDir = v
	}
	if v := os.Getenv("STYLEASSETS_AGENT_NAME"); v != "" {
		cfg.AgentName = v
	}
	if v := os.Getenv("STYLEASSETS_REPLICA_KINDS"); v != "" {
		cfg.Kinds = strings.Split(v, ",")
	}
	if v := os.Getenv("STYLEASSETS_SYNC_PEERS"); v != "" {
		cfg.Peers = strings.Split(v, ",")
	}
	if v := os.Getenv("STYLEASSETS_SYNC_INTERVAL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.SyncInterval = d
		}
	}
	if v := os.Getenv("STYLEASSETS_PROBE_INTERVAL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.ProbeInterval = d
		}
	}

	// Default the agent name to the hostname
	if cfg.AgentName == "" {
		hostname, _ := os.Hostname()
		if hostname == "" {
			hostname = "unknown"
		}
		cfg.AgentName = hostname
	}

	// Validate required fields
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks that required configuration fields are set.
func (c *Config) Validate() error {
	if c.ServerURL == "" {
		return errors.New("server_url is required (set STYLEASSETS_SERVER_URL or yaml)")
	}
	if c.AssetDir == "" {
		return errors.New("asset_dir is required (set STYLEASSETS_ASSET_DIR or yaml)")
	}
	if c.SyncInterval < 1*time.Minute {
		return errors.New("sync_interval must be at least 1 minute")
	}
	if c.ProbeInterval < 10*time.Second {
		return errors.New("probe_interval must be at least 10 seconds")
	}
	for _, kind := range c.Kinds {
		if !isReplicaKind(kind) {
			return fmt.Errorf("unknown asset kind %q (valid: %s)", kind, strings.Join(ReplicaKinds, ", "))
		}
	}
	return nil
}

func isReplicaKind(kind string) bool {
	for _, k := range ReplicaKinds {
		if kind == k {
			return true
		}
	}
	return false
}
