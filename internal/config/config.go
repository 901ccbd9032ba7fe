// Package config loads server configuration from an optional YAML file with
// environment overrides. The AI credential is environment-only and never
// written to disk.
package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// DefaultPath is where the server looks for its config file.
const DefaultPath = "./insightflow.yaml"

// Config is the full server configuration.
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	AI      AIConfig      `yaml:"ai"`
	Extract ExtractConfig `yaml:"extract"`
	Session SessionConfig `yaml:"session"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Port                 int    `yaml:"port"`
	BindAddress          string `yaml:"bindAddress"`
	EnableCORS           bool   `yaml:"enableCors"`
	AllowOrigins         string `yaml:"allowOrigins"`
	ReadTimeout          int    `yaml:"readTimeoutSeconds"`
	WriteTimeout         int    `yaml:"writeTimeoutSeconds"`
	IdleTimeout          int    `yaml:"idleTimeoutSeconds"`
	BodyLimit            string `yaml:"bodyLimit"`
	EnableRequestLogging bool   `yaml:"enableRequestLogging"`
}

// AIConfig selects the model. The key comes from the environment only:
// GEMINI_API_KEY, or API_KEY as a fallback for parity with hosted deploys.
type AIConfig struct {
	Model  string `yaml:"model"`
	APIKey string `yaml:"-"`
}

// ExtractConfig tunes the PDF resource engine.
type ExtractConfig struct {
	ResourceURL         string `yaml:"resourceUrl"`
	FallbackResourceURL string `yaml:"fallbackResourceUrl"`
	InitTimeoutSeconds  int    `yaml:"initTimeoutSeconds"`
}

// SessionConfig tunes background cleanup.
type SessionConfig struct {
	CleanupIntervalMinutes int `yaml:"cleanupIntervalMinutes"`
	RunRetentionMinutes    int `yaml:"runRetentionMinutes"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:                 8090,
			BindAddress:          "0.0.0.0",
			EnableCORS:           true,
			AllowOrigins:         "*",
			ReadTimeout:          30,
			WriteTimeout:         120,
			IdleTimeout:          120,
			BodyLimit:            "50M",
			EnableRequestLogging: true,
		},
		AI: AIConfig{
			Model: "gemini-2.5-flash",
		},
		Extract: ExtractConfig{
			InitTimeoutSeconds: 3,
		},
		Session: SessionConfig{
			CleanupIntervalMinutes: 5,
			RunRetentionMinutes:    30,
		},
	}
}

// Load reads the config file at path, falling back to defaults when the file
// does not exist, then applies environment overrides.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
		// Optional file; defaults apply.
	case err != nil:
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config %s: %w", path, err)
		}
	}

	cfg.applyEnv()
	return cfg, nil
}

func (c *Config) applyEnv() {
	if key := os.Getenv("GEMINI_API_KEY"); key != "" {
		c.AI.APIKey = key
	} else if key := os.Getenv("API_KEY"); key != "" {
		c.AI.APIKey = key
	}
	if model := os.Getenv("INSIGHTFLOW_MODEL"); model != "" {
		c.AI.Model = model
	}
	if port := os.Getenv("INSIGHTFLOW_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			c.Server.Port = p
		}
	}
}

// ServerAddr returns the listen address.
func (c *Config) ServerAddr() string {
	return fmt.Sprintf("%s:%d", c.Server.BindAddress, c.Server.Port)
}
