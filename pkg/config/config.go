// Copyright (c) 2023 Chernenkiy Ivan, Sechenov University
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

// Package config handles project configuration loading and validation.
//
// Configuration is read from a .monaibuilder.yaml file found in the working
// directory or one of its parents, or from the path named by the
// MONAIBUILDER_CONFIG environment variable.
package config

// Config represents the complete project configuration.
type Config struct {
	Check  CheckConfig  `yaml:"check"`
	Bundle BundleConfig `yaml:"bundle"`
}

// CheckConfig configures the code-quality pipeline.
type CheckConfig struct {
	// Paths are the targets passed to every external tool. Defaults to ".".
	Paths []string `yaml:"paths"`
	// MaxLineLength is forwarded to the formatters and the style checker.
	MaxLineLength int `yaml:"max_line_length"`
	// Disable lists step names removed from the sequence.
	Disable []string `yaml:"disable"`
	// License configures the header scan.
	License LicenseConfig `yaml:"license"`
	// Hooks maps event names to shell snippets.
	Hooks map[string][]string `yaml:"hooks"`
}

// LicenseConfig configures the license header scan.
type LicenseConfig struct {
	// Text is the substring every checked file must contain.
	Text string `yaml:"text"`
	// Include are base-name glob patterns of files to scan.
	Include []string `yaml:"include"`
	// Exclude are directory or file patterns skipped by the scan.
	Exclude []string `yaml:"exclude"`
}

// BundleConfig configures bundle generation defaults.
type BundleConfig struct {
	// OutputDir is where generated bundles are written.
	OutputDir string `yaml:"output_dir"`
	// Authors and Copyright seed the bundle metadata.
	Authors   string `yaml:"authors"`
	Copyright string `yaml:"copyright"`
}
