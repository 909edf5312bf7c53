// Package config loads .lattice/config.yaml (and an optional
// .lattice/config.toml override) with CLI-flag/env/file precedence wired
// through viper, following the teacher's local-config-plus-viper-singleton
// split: a yaml.v3 struct for direct reads when the working directory may
// have changed since viper was initialized, and viper for the merged view
// the CLI actually consults.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Config is the subset of .lattice/config.yaml fields the runtime reads
// directly, independent of viper, mirroring the teacher's LocalConfig
// split for reads that must happen before (or without) a viper singleton.
type Config struct {
	ClientID       string `yaml:"client_id" toml:"client_id"`
	DefaultSkill   string `yaml:"default_skill,omitempty" toml:"default_skill,omitempty"`
	TasksDir       string `yaml:"tasks_dir,omitempty" toml:"tasks_dir,omitempty"`
	DocsDir        string `yaml:"docs_dir,omitempty" toml:"docs_dir,omitempty"`
	ClaimStaleAfter string `yaml:"claim_stale_after,omitempty" toml:"claim_stale_after,omitempty"`
}

const (
	yamlFileName = "config.yaml"
	tomlFileName = "config.toml"
)

// Load reads dir/config.yaml, then applies dir/config.toml as an override
// for any field it sets (spec §5: an optional TOML override file). A
// missing yaml file is not an error; an empty Config is returned.
func Load(dir string) (*Config, error) {
	cfg := &Config{}

	yamlPath := filepath.Join(dir, yamlFileName)
	if data, err := os.ReadFile(yamlPath); err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", yamlPath, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("read %s: %w", yamlPath, err)
	}

	tomlPath := filepath.Join(dir, tomlFileName)
	if data, err := os.ReadFile(tomlPath); err == nil {
		var override Config
		if _, err := toml.Decode(string(data), &override); err != nil {
			return nil, fmt.Errorf("parse %s: %w", tomlPath, err)
		}
		applyOverride(cfg, &override)
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("read %s: %w", tomlPath, err)
	}

	return cfg, nil
}

func applyOverride(base, override *Config) {
	if override.ClientID != "" {
		base.ClientID = override.ClientID
	}
	if override.DefaultSkill != "" {
		base.DefaultSkill = override.DefaultSkill
	}
	if override.TasksDir != "" {
		base.TasksDir = override.TasksDir
	}
	if override.DocsDir != "" {
		base.DocsDir = override.DocsDir
	}
	if override.ClaimStaleAfter != "" {
		base.ClaimStaleAfter = override.ClaimStaleAfter
	}
}

// NewViper builds the precedence chain the CLI layer binds flags onto:
// explicit flags override environment variables (LATTICE_ prefixed) which
// override dir/config.yaml.
func NewViper(dir string) (*viper.Viper, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(dir)
	v.SetEnvPrefix("LATTICE")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}
	return v, nil
}

// Save writes cfg to dir/config.yaml atomically-enough for a config file
// (CLI config edits are infrequent and not on the hot mutate path that
// requires the document package's full atomic-write discipline).
func Save(dir string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, yamlFileName), data, 0o644); err != nil {
		return fmt.Errorf("write config.yaml: %w", err)
	}
	return nil
}
