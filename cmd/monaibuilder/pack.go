// Copyright (c) 2023 Chernenkiy Ivan, Sechenov University
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

package main

import (
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sechenov/monaibuilder/pkg/archive"
)

var packOutput string

var packCmd = &cobra.Command{
	Use:          "pack <bundle-dir>",
	Short:        "Pack a bundle directory into a .tar.xz archive",
	Args:         cobra.ExactArgs(1),
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		dir := filepath.Clean(args[0])
		out := packOutput
		if out == "" {
			out = strings.TrimSuffix(filepath.Base(dir), "/") + ".tar.xz"
		}

		logger := newLogger()
		if err := archive.Pack(cmd.Context(), dir, out, true); err != nil {
			return err
		}

		logger.Info().Str("archive", out).Msg("bundle packed")
		return nil
	},
}

func init() {
	packCmd.Flags().StringVarP(&packOutput, "output", "o", "", "archive path (default: <bundle-dir>.tar.xz)")

	rootCmd.AddCommand(packCmd)
}
