// Package config aggregates the service configuration. Values come from an
// optional YAML file (FAMSIM_CONFIG) overlaid by environment variables, so
// containerized deployments can ship a base file and override per instance.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the full service configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Store    StoreConfig    `yaml:"store"`
	Provider ProviderConfig `yaml:"provider"`
	Dispatch DispatchConfig `yaml:"dispatch"`
	Log      LogConfig      `yaml:"log"`
}

// ServerConfig describes the HTTP listener.
type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// StoreConfig selects and configures the session store backend.
type StoreConfig struct {
	// Backend is one of "memory", "file", "redis".
	Backend string `yaml:"backend"`
	// Dir is the file backend's session root.
	Dir string `yaml:"dir"`
	// RedisAddr is the redis backend's host:port.
	RedisAddr string `yaml:"redis_addr"`
	// RedisPrefix namespaces the redis keys.
	RedisPrefix string `yaml:"redis_prefix"`
}

// ProviderConfig selects the generation collaborator.
type ProviderConfig struct {
	// Name is one of "openai", "anthropic", "mock".
	Name  string `yaml:"name"`
	Model string `yaml:"model"`
}

// Duration is a time.Duration that unmarshals from YAML strings like "20s".
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", raw, err)
	}
	*d = Duration(parsed)
	return nil
}

// Std returns the native time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// DispatchConfig tunes the dispatcher's bounds.
type DispatchConfig struct {
	MaxRespondersPerTurn int      `yaml:"max_responders_per_turn"`
	PerPersonaTimeout    Duration `yaml:"per_persona_timeout"`
	TurnDeadline         Duration `yaml:"turn_deadline"`
	HistoryWindow        int      `yaml:"history_window"`
}

// LogConfig controls the structured logger.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Load builds the configuration: defaults, then the YAML file named by
// FAMSIM_CONFIG (if set), then environment variable overrides.
func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{Addr: ":8080"},
		Store:  StoreConfig{Backend: "memory", Dir: "data/sessions", RedisPrefix: "famsim"},
		Provider: ProviderConfig{
			Name: "mock",
		},
		Dispatch: DispatchConfig{
			MaxRespondersPerTurn: 3,
			PerPersonaTimeout:    Duration(20 * time.Second),
			TurnDeadline:         Duration(45 * time.Second),
			HistoryWindow:        12,
		},
		Log: LogConfig{Level: "info", Format: "json"},
	}

	if path := strings.TrimSpace(os.Getenv("FAMSIM_CONFIG")); path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(raw, cfg); err != nil {
			return nil, fmt.Errorf("parse config file %s: %w", path, err)
		}
	}

	if err := applyEnv(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) error {
	if port := strings.TrimSpace(os.Getenv("PORT")); port != "" {
		if strings.Contains(port, ":") {
			cfg.Server.Addr = port
		} else {
			cfg.Server.Addr = ":" + port
		}
	}
	setEnvString(&cfg.Store.Backend, "FAMSIM_STORE")
	setEnvString(&cfg.Store.Dir, "FAMSIM_STORE_DIR")
	setEnvString(&cfg.Store.RedisAddr, "REDIS_ADDR")
	setEnvString(&cfg.Store.RedisPrefix, "REDIS_PREFIX")
	setEnvString(&cfg.Provider.Name, "FAMSIM_PROVIDER")
	setEnvString(&cfg.Provider.Model, "FAMSIM_MODEL")
	setEnvString(&cfg.Log.Level, "LOG_LEVEL")
	setEnvString(&cfg.Log.Format, "LOG_FORMAT")

	if err := setEnvInt(&cfg.Dispatch.MaxRespondersPerTurn, "FAMSIM_MAX_RESPONDERS"); err != nil {
		return err
	}
	if err := setEnvInt(&cfg.Dispatch.HistoryWindow, "FAMSIM_HISTORY_WINDOW"); err != nil {
		return err
	}
	if err := setEnvDuration(&cfg.Dispatch.PerPersonaTimeout, "FAMSIM_PERSONA_TIMEOUT"); err != nil {
		return err
	}
	if err := setEnvDuration(&cfg.Dispatch.TurnDeadline, "FAMSIM_TURN_DEADLINE"); err != nil {
		return err
	}

	switch cfg.Store.Backend {
	case "memory", "file", "redis":
	default:
		return fmt.Errorf("invalid store backend %q", cfg.Store.Backend)
	}
	switch cfg.Provider.Name {
	case "openai", "anthropic", "mock":
	default:
		return fmt.Errorf("invalid provider %q", cfg.Provider.Name)
	}
	return nil
}

func setEnvString(dst *string, key string) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		*dst = v
	}
}

func setEnvInt(dst *int, key string) error {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fmt.Errorf("invalid %s value %q: %w", key, raw, err)
	}
	*dst = v
	return nil
}

func setEnvDuration(dst *Duration, key string) error {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return nil
	}
	v, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("invalid %s value %q: %w", key, raw, err)
	}
	*dst = Duration(v)
	return nil
}
