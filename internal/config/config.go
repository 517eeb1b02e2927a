// Package config loads service configuration from a YAML file with
// environment variable overrides.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

type Config struct {
	Server   ServerConfig   `koanf:"server"`
	Storage  StorageConfig  `koanf:"storage"`
	Schema   SchemaConfig   `koanf:"schema"`
	Pipeline PipelineConfig `koanf:"pipeline"`
	Auth     AuthConfig     `koanf:"auth"`
}

type ServerConfig struct {
	Port int `koanf:"port"`
	// Timeout is a duration string applied to every request, e.g. "30s".
	Timeout string `koanf:"timeout"`
}

type StorageConfig struct {
	Type   string       `koanf:"type"` // sqlite, memory
	SQLite SQLiteConfig `koanf:"sqlite"`
}

type SQLiteConfig struct {
	Path string `koanf:"path"`
}

type SchemaConfig struct {
	// Path points at the SDL file the document pipeline validates against.
	Path string `koanf:"path"`
}

// PipelineConfig tunes the document pipeline without code changes.
type PipelineConfig struct {
	UseCache bool `koanf:"use_cache"`
	MaxDepth int  `koanf:"max_depth"`
	// Reject drops every phase whose ident matches one of these regular
	// expressions.
	Reject []string `koanf:"reject"`
	// Webhooks splice external HTTP phases into the pipeline.
	Webhooks []WebhookConfig `koanf:"webhooks"`
}

// WebhookConfig describes one webhook phase and where to splice it.
type WebhookConfig struct {
	Name     string            `koanf:"name"`
	URL      string            `koanf:"url"`
	Position string            `koanf:"position"` // "before" or "after"
	Target   string            `koanf:"target"`   // phase ident to splice around
	Timeout  string            `koanf:"timeout"`
	OnError  string            `koanf:"on_error"` // "continue" or "fail"
	Retries  int               `koanf:"retries"`
	Headers  map[string]string `koanf:"headers"`
}

type AuthConfig struct {
	// APIKeys enables bearer-token auth when non-empty. Entries hold the
	// sha256 hex of each accepted key, never the key itself.
	APIKeys []APIKeyConfig `koanf:"api_keys"`
}

type APIKeyConfig struct {
	KeyHash     string `koanf:"key_hash"`
	Description string `koanf:"description"`
}

// Load reads configuration from path (missing file is fine) and applies
// PRISM_ environment variable overrides, with PRISM_SERVER__PORT mapping
// to server.port.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			if !errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("load config file %s: %w", path, err)
			}
		}
	}

	// Environment variables override file config.
	if err := k.Load(env.Provider("PRISM_", ".", func(s string) string {
		return strings.Replace(strings.ToLower(strings.TrimPrefix(s, "PRISM_")), "__", ".", -1)
	}), nil); err != nil {
		return nil, fmt.Errorf("load environment: %w", err)
	}

	// Default values
	if !k.Exists("server.port") {
		k.Set("server.port", 8080)
	}
	if !k.Exists("server.timeout") {
		k.Set("server.timeout", "30s")
	}
	if !k.Exists("storage.type") {
		k.Set("storage.type", "memory")
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	return &cfg, nil
}
