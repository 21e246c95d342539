// Package config provides centralized configuration management using Viper.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration values for resumedesk.
type Config struct {
	BackendURL  string `mapstructure:"backend_url" yaml:"backend_url"`
	EditorURL   string `mapstructure:"editor_url" yaml:"editor_url"`
	DataDir     string `mapstructure:"data_dir" yaml:"data_dir"`
	DownloadDir string `mapstructure:"download_dir" yaml:"download_dir"`
	UploadDir   string `mapstructure:"upload_dir" yaml:"upload_dir"`
	LogLevel    string `mapstructure:"log_level" yaml:"log_level"`
	LogFile     string `mapstructure:"log_file" yaml:"log_file"`
}

// Load loads configuration with full precedence:
// CLI flags > ENV vars > project config > XDG global config > defaults
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetConfigName("resumedesk")

	// Defaults (backend_url has no default - it's required)
	v.SetDefault("editor_url", "")
	v.SetDefault("data_dir", ".resumedesk")
	v.SetDefault("download_dir", "downloads")
	v.SetDefault("upload_dir", ".")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_file", "")

	// ENV binding with RESUMEDESK_ prefix
	v.SetEnvPrefix("RESUMEDESK")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Explicit ENV bindings for predictable parsing
	bindings := map[string]string{
		"backend_url":  "RESUMEDESK_BACKEND_URL",
		"editor_url":   "RESUMEDESK_EDITOR_URL",
		"data_dir":     "RESUMEDESK_DATA_DIR",
		"download_dir": "RESUMEDESK_DOWNLOAD_DIR",
		"upload_dir":   "RESUMEDESK_UPLOAD_DIR",
		"log_level":    "RESUMEDESK_LOG_LEVEL",
		"log_file":     "RESUMEDESK_LOG_FILE",
	}
	for key, env := range bindings {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("binding %s env: %w", key, err)
		}
	}

	// Load global config first (if exists)
	globalPath := GlobalPath()
	if fileExists(globalPath) {
		v.SetConfigFile(globalPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading global config: %w", err)
		}
	}

	// Merge project config on top (if exists)
	projectPath := ProjectPath()
	if fileExists(projectPath) {
		v.SetConfigFile(projectPath)
		if err := v.MergeInConfig(); err != nil {
			return nil, fmt.Errorf("merging project config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	return &cfg, nil
}

// Validate checks that required values are present.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.BackendURL) == "" {
		return fmt.Errorf("backend_url is required (set RESUMEDESK_BACKEND_URL or add it to %s)", ProjectPath())
	}
	return nil
}

// Exists returns true if any config file exists (global or project).
func Exists() bool {
	return fileExists(GlobalPath()) || fileExists(ProjectPath())
}

// GlobalPath returns the XDG global config path.
// Returns ~/.config/resumedesk/resumedesk.yml or $XDG_CONFIG_HOME/resumedesk/resumedesk.yml.
func GlobalPath() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "resumedesk", "resumedesk.yml")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "resumedesk", "resumedesk.yml")
}

// ProjectPath returns the project-local config path.
func ProjectPath() string {
	return "resumedesk.yml"
}

// WriteGlobal writes the config to the XDG global location.
func WriteGlobal(cfg *Config) error {
	path := GlobalPath()

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	return nil
}

// WriteProject writes the config to the project-local location.
func WriteProject(cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	if err := os.WriteFile(ProjectPath(), data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	return nil
}

// fileExists checks if a file exists.
func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
