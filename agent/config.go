/*
 * Copyright © 2025 Dynamode Authors, All rights reserved.
 */

package agent

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Default session parameters. The local endpoint matches the stock
// DynamoDB Local setup; the credentials are placeholders it ignores.
const (
	defaultRegion        = "us-west-2"
	localEndpoint        = "http://localhost:8000"
	localCredential      = "dynamode-local"
	defaultWaitTimeout   = 30 * time.Second
	defaultWaitInterval  = 500 * time.Millisecond
	defaultStreamBuffer  = 100
	defaultStreamPageCap = 100
)

// Config holds session parameters for an agent.
type Config struct {
	// Endpoint overrides the store endpoint URL. Empty means the ambient
	// AWS endpoint resolution.
	Endpoint string

	// Region is the AWS region.
	Region string

	// AccessKey and SecretKey install static credentials when both are set;
	// otherwise the ambient credential chain applies.
	AccessKey string
	SecretKey string

	// TableWaitTimeout bounds how long EnsureTable waits for a created
	// table to become active.
	TableWaitTimeout time.Duration

	// TableWaitInterval is the describe-table polling interval during that
	// wait.
	TableWaitInterval time.Duration
}

// DefaultConfig returns a config for ambient-endpoint sessions.
func DefaultConfig() Config {
	return Config{
		Region:            defaultRegion,
		TableWaitTimeout:  defaultWaitTimeout,
		TableWaitInterval: defaultWaitInterval,
	}
}

// LocalConfig returns a config pointing at a local development store:
// fixed endpoint, fixed region, placeholder credentials.
func LocalConfig() Config {
	cfg := DefaultConfig()
	cfg.Endpoint = localEndpoint
	cfg.AccessKey = localCredential
	cfg.SecretKey = localCredential
	return cfg
}

func (c *Config) applyDefaults() {
	if c.Region == "" {
		c.Region = defaultRegion
	}
	if c.TableWaitTimeout <= 0 {
		c.TableWaitTimeout = defaultWaitTimeout
	}
	if c.TableWaitInterval <= 0 {
		c.TableWaitInterval = defaultWaitInterval
	}
}

// configFile is the on-disk YAML schema; durations are parsed strings.
type configFile struct {
	Endpoint          string `yaml:"endpoint"`
	Region            string `yaml:"region"`
	AccessKey         string `yaml:"access_key"`
	SecretKey         string `yaml:"secret_key"`
	TableWaitTimeout  string `yaml:"table_wait_timeout"`
	TableWaitInterval string `yaml:"table_wait_interval"`
}

// LoadConfig reads a YAML config file over the defaults, then overlays
// environment variables (see FromEnv).
func LoadConfig(path string) (Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config %s: %w", path, err)
	}

	var f configFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}

	cfg := DefaultConfig()
	if f.Endpoint != "" {
		cfg.Endpoint = f.Endpoint
	}
	if f.Region != "" {
		cfg.Region = f.Region
	}
	if f.AccessKey != "" {
		cfg.AccessKey = f.AccessKey
	}
	if f.SecretKey != "" {
		cfg.SecretKey = f.SecretKey
	}
	if f.TableWaitTimeout != "" {
		d, err := time.ParseDuration(f.TableWaitTimeout)
		if err != nil {
			return Config{}, fmt.Errorf("parse config %s: table_wait_timeout: %w", path, err)
		}
		cfg.TableWaitTimeout = d
	}
	if f.TableWaitInterval != "" {
		d, err := time.ParseDuration(f.TableWaitInterval)
		if err != nil {
			return Config{}, fmt.Errorf("parse config %s: table_wait_interval: %w", path, err)
		}
		cfg.TableWaitInterval = d
	}

	return cfg.withEnv(), nil
}

// FromEnv returns the default config overlaid with environment variables.
// A .env file in the working directory is honored when present.
func FromEnv() Config {
	return DefaultConfig().withEnv()
}

func (c Config) withEnv() Config {
	// Best effort: absence of a .env file is the normal case.
	_ = godotenv.Load()

	if v := os.Getenv("DYNAMODE_ENDPOINT"); v != "" {
		c.Endpoint = v
	}
	if v := os.Getenv("AWS_REGION"); v != "" {
		c.Region = v
	}
	if v := os.Getenv("AWS_ACCESS_KEY"); v != "" {
		c.AccessKey = v
	}
	if v := os.Getenv("AWS_SECRET_KEY"); v != "" {
		c.SecretKey = v
	}
	return c
}
