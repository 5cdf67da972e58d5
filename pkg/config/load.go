// Copyright (c) 2023 Chernenkiy Ivan, Sechenov University
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

package config

import (
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// Default config file names to search for.
var defaultConfigFiles = []string{
	".monaibuilder.yaml",
	".monaibuilder.yml",
	"monaibuilder.yaml",
	"monaibuilder.yml",
}

// Load loads configuration from a specific file path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "failed to read config file %s", path)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, eris.Wrapf(err, "failed to parse config file %s", path)
	}

	if err := cfg.Validate(); err != nil {
		return nil, eris.Wrapf(err, "invalid config file %s", path)
	}

	applyDefaults(&cfg)
	return &cfg, nil
}

// LoadDefault searches for configuration in the start directory, its
// parents and the user config directory. When no config file exists the
// built-in defaults are used.
func LoadDefault(startDir string) (*Config, error) {
	if cfg, err := findInParents(startDir); err == nil {
		return cfg, nil
	} else if !eris.Is(err, errNotFound) {
		return nil, err
	}

	if homeDir, err := os.UserHomeDir(); err == nil {
		userConfigPath := filepath.Join(homeDir, ".config", "monaibuilder", "config.yaml")
		if _, err := os.Stat(userConfigPath); err == nil {
			return Load(userConfigPath)
		}
	}

	cfg := &Config{}
	applyDefaults(cfg)
	return cfg, nil
}

// LoadFromEnv honors the MONAIBUILDER_CONFIG override, then falls back to the
// default search.
func LoadFromEnv(startDir string) (*Config, error) {
	if path := os.Getenv("MONAIBUILDER_CONFIG"); path != "" {
		return Load(path)
	}
	return LoadDefault(startDir)
}

var errNotFound = eris.New("no config file found")

// findInParents searches for a config file in startDir and its parents.
func findInParents(startDir string) (*Config, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return nil, eris.Wrap(err, "failed to resolve start directory")
	}

	for {
		for _, filename := range defaultConfigFiles {
			configPath := filepath.Join(dir, filename)
			if _, err := os.Stat(configPath); err == nil {
				return Load(configPath)
			}
		}

		parentDir := filepath.Dir(dir)
		if parentDir == dir {
			break
		}
		dir = parentDir
	}

	return nil, errNotFound
}

// applyDefaults sets default values for optional fields.
func applyDefaults(cfg *Config) {
	if len(cfg.Check.Paths) == 0 {
		cfg.Check.Paths = []string{"."}
	}
	if cfg.Check.MaxLineLength == 0 {
		cfg.Check.MaxLineLength = 120
	}
	if cfg.Bundle.OutputDir == "" {
		cfg.Bundle.OutputDir = "bundles"
	}
}
