// Copyright 2026 The Strand Authors
// SPDX-License-Identifier: Apache-2.0

// Package config provides configuration loading for tools built on the
// Strand client.
//
// Configuration comes from a single YAML file passed explicitly by the
// caller (typically via a --config flag). There is no search path and
// no automatic discovery — deterministic, auditable configuration with
// no hidden overrides.
package config

import (
	"bytes"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultPort is the Strand server's default listen port.
const DefaultPort = 7379

// Duration is a time.Duration that unmarshals from YAML strings like
// "5s" or "250ms".
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var raw string
	if err := node.Decode(&raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", raw, err)
	}
	*d = Duration(parsed)
	return nil
}

// Std returns the standard library representation.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// Config describes how to reach a Strand server.
type Config struct {
	// Server identifies the endpoint to dial.
	Server ServerConfig `yaml:"server"`

	// ID overrides the generated client identity token. Leave empty
	// to let each client generate its own.
	ID string `yaml:"id,omitempty"`

	// DialTimeout bounds TCP connection establishment. Zero means the
	// client default.
	DialTimeout Duration `yaml:"dial_timeout,omitempty"`

	// RequestTimeout bounds one command/response cycle. Zero means the
	// client default.
	RequestTimeout Duration `yaml:"request_timeout,omitempty"`
}

// ServerConfig identifies the Strand server endpoint.
type ServerConfig struct {
	// Host is the hostname or IP address of the server.
	Host string `yaml:"host"`

	// Port is the server's TCP port. Defaults to DefaultPort.
	Port int `yaml:"port"`
}

// Load reads and validates the config file at path. Unknown fields are
// rejected so typos fail loudly instead of silently doing nothing.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return &cfg, nil
}

// applyDefaults fills zero-valued fields that have defaults.
func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = DefaultPort
	}
}

// Validate checks the configuration for structural errors.
func (c *Config) Validate() error {
	if c.Server.Host == "" {
		return fmt.Errorf("server.host is required")
	}
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d out of range", c.Server.Port)
	}
	if c.DialTimeout < 0 {
		return fmt.Errorf("dial_timeout must not be negative")
	}
	if c.RequestTimeout < 0 {
		return fmt.Errorf("request_timeout must not be negative")
	}
	return nil
}
