// Package config provides YAML-based configuration with environment
// overrides for deployment-level switches.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const defaultMaxUploadBytes = 25 * 1024 * 1024 // 25 MB

// Config is the root configuration structure.
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Storage    StorageConfig    `yaml:"storage"`
	Processing ProcessingConfig `yaml:"processing"`
	Pipeline   PipelineConfig   `yaml:"pipeline"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Port         int    `yaml:"port"`
	BindAddress  string `yaml:"bindAddress"`
	ReadTimeout  int    `yaml:"readTimeoutSeconds"`
	WriteTimeout int    `yaml:"writeTimeoutSeconds"`
	IdleTimeout  int    `yaml:"idleTimeoutSeconds"`
}

// StorageConfig contains working-storage settings.
type StorageConfig struct {
	WorkDirectory  string `yaml:"workDirectory"`
	MaxUploadBytes int64  `yaml:"maxUploadBytes"`
}

// ProcessingConfig contains scheduling and retention settings.
type ProcessingConfig struct {
	Workers                int  `yaml:"workers"`
	SyncPipeline           bool `yaml:"syncPipeline"`
	RetentionSeconds       int  `yaml:"retentionSeconds"`
	RegistryMaxAgeMinutes  int  `yaml:"registryMaxAgeMinutes"`
	CleanupIntervalMinutes int  `yaml:"cleanupIntervalMinutes"`
}

// PipelineConfig contains extraction feature switches.
type PipelineConfig struct {
	UseDeepTables bool     `yaml:"useDeepTables"`
	OCRCommand    string   `yaml:"ocrCommand"`
	OCRArgs       []string `yaml:"ocrArgs"`
	OCRLanguages  []string `yaml:"ocrLanguages"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:         7860,
			BindAddress:  "0.0.0.0",
			ReadTimeout:  60,
			WriteTimeout: 60,
			IdleTimeout:  120,
		},
		Storage: StorageConfig{
			WorkDirectory:  filepath.Join(os.TempDir(), "pdf2tables"),
			MaxUploadBytes: defaultMaxUploadBytes,
		},
		Processing: ProcessingConfig{
			Workers:                4,
			RetentionSeconds:       3600,
			RegistryMaxAgeMinutes:  240,
			CleanupIntervalMinutes: 15,
		},
		Pipeline: PipelineConfig{
			OCRLanguages: []string{"eng"},
		},
	}
}

// Load reads the YAML config file, falling back to defaults when the
// file is absent, then applies environment overrides.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	} else if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	cfg.applyEnv()
	if cfg.Storage.MaxUploadBytes <= 0 {
		cfg.Storage.MaxUploadBytes = defaultMaxUploadBytes
	}
	return cfg, nil
}

// applyEnv layers the deployment-level switches over the file values.
func (c *Config) applyEnv() {
	if v := os.Getenv("MAX_CONTENT_LENGTH"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil && n > 0 {
			c.Storage.MaxUploadBytes = n
		}
	}
	if v := os.Getenv("SYNC_PIPELINE"); v != "" {
		c.Processing.SyncPipeline = strings.EqualFold(v, "true")
	}
	if v := os.Getenv("USE_DEEP_TABLES"); v != "" {
		c.Pipeline.UseDeepTables = strings.EqualFold(v, "true")
	}
	if v := os.Getenv("OCR_LANGUAGES"); v != "" {
		c.Pipeline.OCRLanguages = strings.Split(v, ",")
	}
	if v := os.Getenv("PORT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Server.Port = n
		}
	}
}

// ServerAddr returns the listen address.
func (c *Config) ServerAddr() string {
	return fmt.Sprintf("%s:%d", c.Server.BindAddress, c.Server.Port)
}

// Retention returns the deferred-cleanup delay.
func (c *Config) Retention() time.Duration {
	return time.Duration(c.Processing.RetentionSeconds) * time.Second
}

// RegistryMaxAge returns how long terminal requests stay listed.
func (c *Config) RegistryMaxAge() time.Duration {
	return time.Duration(c.Processing.RegistryMaxAgeMinutes) * time.Minute
}

// CleanupInterval returns the registry janitor tick.
func (c *Config) CleanupInterval() time.Duration {
	return time.Duration(c.Processing.CleanupIntervalMinutes) * time.Minute
}
