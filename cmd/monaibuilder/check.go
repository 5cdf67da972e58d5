// Copyright (c) 2023 Chernenkiy Ivan, Sechenov University
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/sechenov/monaibuilder/pkg/check"
)

var checkFlags struct {
	dryRun bool
	all    bool
	fix    bool
	jobs   int
}

var checkCmd = &cobra.Command{
	Use:   "check [path...]",
	Short: "Run the code-quality tool sequence",
	Long: `Run the project's tool sequence: license header scan, isort, black,
flake8 and, with --all, pylint, mypy and pytype. The sequence stops at the
first failing tool and the command exits with that tool's exit code.

The Python interpreter used to invoke the tools defaults to python3 and can
be overridden with the PY_EXE environment variable.`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		paths := cfg.Check.Paths
		if len(args) > 0 {
			paths = args
		}

		opts := check.Options{
			Paths:       paths,
			DryRun:      checkFlags.dryRun,
			Fix:         checkFlags.fix,
			All:         checkFlags.all,
			Jobs:        checkFlags.jobs,
			MaxLineLen:  cfg.Check.MaxLineLength,
			Disable:     cfg.Check.Disable,
			LicenseText: cfg.Check.License.Text,
			Include:     cfg.Check.License.Include,
			Exclude:     cfg.Check.License.Exclude,
			Hooks:       check.HooksFromConfig(cfg.Check.Hooks),
			Progress:    !checkFlags.dryRun,
		}

		logger := newLogger()
		ctx := check.WithLogger(cmd.Context(), &logger)

		res, err := check.New(opts).Run(ctx)
		if err != nil {
			return err
		}
		if res.ExitCode != 0 {
			os.Exit(res.ExitCode)
		}
		return nil
	},
}

func init() {
	checkCmd.Flags().BoolVar(&checkFlags.dryRun, "dry-run", false, "print the tool commands without executing them")
	checkCmd.Flags().BoolVarP(&checkFlags.all, "all", "a", false, "also run the slow checkers (pylint, mypy, pytype)")
	checkCmd.Flags().BoolVar(&checkFlags.fix, "fix", false, "let isort and black rewrite files instead of checking")
	checkCmd.Flags().IntVarP(&checkFlags.jobs, "jobs", "j", 0, "parallel jobs for pytype (0 = tool default)")

	rootCmd.AddCommand(checkCmd)
}
