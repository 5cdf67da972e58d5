// Copyright (c) 2023 Chernenkiy Ivan, Sechenov University
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

package main

import (
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/sechenov/monaibuilder/pkg/config"
	"github.com/sechenov/monaibuilder/pkg/version"
)

var (
	cfgFile string
	verbose bool
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "monaibuilder",
	Short: "MONAI bundle builder and project tooling",
	Long: `monaibuilder generates MONAI bundles from declarative YAML
descriptions, packs them for distribution and runs the project's
code-quality tool sequence.`,
	Version: version.FullString(),
}

// Execute runs the root command. It is called once from main.main().
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: .monaibuilder.yaml in the working directory or a parent)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug output")
}

// newLogger builds the CLI logger writing colorized lines to stderr.
func newLogger() zerolog.Logger {
	logger := zerolog.New(NewConsoleWriter())
	if verbose {
		return logger.Level(zerolog.DebugLevel)
	}
	return logger.Level(zerolog.InfoLevel)
}

// loadConfig honors --config, then MONAIBUILDER_CONFIG, then the default
// search in the working directory and its parents.
func loadConfig() (*config.Config, error) {
	if cfgFile != "" {
		return config.Load(cfgFile)
	}
	return config.LoadFromEnv(".")
}
