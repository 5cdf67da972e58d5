// Copyright (c) 2023 Chernenkiy Ivan, Sechenov University
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

package main

import (
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/sechenov/monaibuilder/pkg/bundle"
	"github.com/sechenov/monaibuilder/pkg/bundlespec"
)

var buildFlags struct {
	specFile string
	output   string
}

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Generate a MONAI bundle from a YAML description",
	Long: `Read a declarative bundle description and write the bundle directory:
configs/train.json, configs/metadata.json, docs/ and models/.`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		logger := newLogger()

		spec, err := bundlespec.Load(buildFlags.specFile)
		if err != nil {
			return err
		}

		builder, err := spec.Builder()
		if err != nil {
			return err
		}

		meta := spec.Metadata
		if meta.Name == "" {
			meta.Name = spec.Name
		}
		if meta.Authors == "" {
			meta.Authors = cfg.Bundle.Authors
		}
		if meta.Copyright == "" {
			meta.Copyright = cfg.Bundle.Copyright
		}

		outDir := buildFlags.output
		if outDir == "" {
			outDir = filepath.Join(cfg.Bundle.OutputDir, spec.Name)
		}

		if err := bundle.WriteBundle(outDir, builder, meta); err != nil {
			return err
		}

		logger.Info().Str("bundle", spec.Name).Str("path", outDir).Msg("bundle written")
		return nil
	},
}

func init() {
	buildCmd.Flags().StringVarP(&buildFlags.specFile, "file", "f", "bundle.yaml", "bundle description file")
	buildCmd.Flags().StringVarP(&buildFlags.output, "output", "o", "", "output directory (default: <bundle.output_dir>/<name>)")

	rootCmd.AddCommand(buildCmd)
}
