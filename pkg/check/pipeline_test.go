// Copyright (c) 2023 Chernenkiy Ivan, Sechenov University
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

package check_test

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sechenov/monaibuilder/pkg/check"
)

// fakeExecutor records every command instead of running it.
type fakeExecutor struct {
	commands []check.Command
	exits    map[string]int // step name -> exit code
}

func (f *fakeExecutor) Run(_ context.Context, cmd check.Command) (int, error) {
	f.commands = append(f.commands, cmd)
	return f.exits[cmd.Step], nil
}

func (f *fakeExecutor) steps() []string {
	names := make([]string, 0, len(f.commands))
	for _, c := range f.commands {
		names = append(names, c.Step)
	}
	return names
}

func testOptions(t *testing.T, exec check.Executor) check.Options {
	t.Helper()
	return check.Options{
		Root:     t.TempDir(),
		Executor: exec,
		Out:      &bytes.Buffer{},
	}
}

func TestPipelinePassesWhenAllStepsPass(t *testing.T) {
	exec := &fakeExecutor{}
	opts := testOptions(t, exec)
	opts.All = true

	res, err := check.New(opts).Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, 0, res.ExitCode)
	require.Empty(t, res.FailedStep)
	require.Equal(t, []string{"isort", "black", "flake8", "pylint", "mypy", "pytype"}, exec.steps())
}

func TestPipelineStopsAtFirstFailure(t *testing.T) {
	exec := &fakeExecutor{exits: map[string]int{"flake8": 3}}
	opts := testOptions(t, exec)
	opts.All = true
	out := opts.Out.(*bytes.Buffer)

	res, err := check.New(opts).Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, 3, res.ExitCode)
	require.Equal(t, "flake8", res.FailedStep)
	// Nothing after the failing step may run.
	require.Equal(t, []string{"isort", "black", "flake8"}, exec.steps())
	require.Contains(t, out.String(), "--fix")
}

func TestDryRunExecutesNothing(t *testing.T) {
	exec := &fakeExecutor{}
	opts := testOptions(t, exec)
	opts.All = true
	opts.DryRun = true
	opts.Interpreter = "python3"
	out := opts.Out.(*bytes.Buffer)

	res, err := check.New(opts).Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, 0, res.ExitCode)
	require.Empty(t, exec.commands, "dry-run must not execute any tool")

	printed := out.String()
	require.Contains(t, printed, "copyright (builtin)")
	require.Contains(t, printed, "python3 -m isort --check-only")
	require.Contains(t, printed, "python3 -m pytype")
}

func TestFixModeUsesWriteArguments(t *testing.T) {
	exec := &fakeExecutor{}
	opts := testOptions(t, exec)
	opts.Fix = true

	_, err := check.New(opts).Run(context.Background())
	require.NoError(t, err)

	for _, cmd := range exec.commands {
		joined := strings.Join(cmd.Args, " ")
		switch cmd.Step {
		case "isort":
			require.NotContains(t, joined, "--check-only")
		case "black":
			require.NotContains(t, joined, "--check")
		}
	}
}

func TestJobsForwardedToTypeChecker(t *testing.T) {
	exec := &fakeExecutor{}
	opts := testOptions(t, exec)
	opts.All = true
	opts.Jobs = 4

	_, err := check.New(opts).Run(context.Background())
	require.NoError(t, err)

	for _, cmd := range exec.commands {
		joined := strings.Join(cmd.Args, " ")
		if cmd.Step == "pytype" {
			require.Contains(t, joined, "-j 4")
		} else {
			require.NotContains(t, joined, "-j 4")
		}
	}
}

func TestLineLengthForwarded(t *testing.T) {
	exec := &fakeExecutor{}
	opts := testOptions(t, exec)
	opts.MaxLineLen = 120

	_, err := check.New(opts).Run(context.Background())
	require.NoError(t, err)

	byStep := map[string]string{}
	for _, cmd := range exec.commands {
		byStep[cmd.Step] = strings.Join(cmd.Args, " ")
	}
	require.Contains(t, byStep["isort"], "--line-length=120")
	require.Contains(t, byStep["black"], "--line-length=120")
	require.Contains(t, byStep["flake8"], "--max-line-length=120")
}

func TestSlowStepsSkippedByDefault(t *testing.T) {
	exec := &fakeExecutor{}
	opts := testOptions(t, exec)

	res, err := check.New(opts).Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, []string{"isort", "black", "flake8"}, exec.steps())

	skipped := map[string]bool{}
	for _, s := range res.Steps {
		if s.Skipped {
			skipped[s.Name] = true
		}
	}
	require.True(t, skipped["pylint"])
	require.True(t, skipped["mypy"])
	require.True(t, skipped["pytype"])
}

func TestDisabledStepsAreDropped(t *testing.T) {
	exec := &fakeExecutor{}
	opts := testOptions(t, exec)
	opts.All = true
	opts.Disable = []string{"copyright", "pylint", "mypy", "pytype"}

	_, err := check.New(opts).Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, []string{"isort", "black", "flake8"}, exec.steps())
}

func TestInterpreterEnvOverride(t *testing.T) {
	t.Setenv("PY_EXE", "python3.11")

	exec := &fakeExecutor{}
	opts := testOptions(t, exec)

	_, err := check.New(opts).Run(context.Background())
	require.NoError(t, err)
	require.NotEmpty(t, exec.commands)
	for _, cmd := range exec.commands {
		require.Equal(t, "python3.11", cmd.Path)
	}
}

func TestBeforeHookFailureAborts(t *testing.T) {
	exec := &fakeExecutor{}
	opts := testOptions(t, exec)
	opts.Hooks = check.Hooks{check.HookBefore: []string{"exit 1"}}

	_, err := check.New(opts).Run(context.Background())
	require.Error(t, err)
	require.Empty(t, exec.commands)
}

func TestCopyrightStepFailsPipeline(t *testing.T) {
	exec := &fakeExecutor{}
	opts := testOptions(t, exec)
	writeFile(t, opts.Root, "module.py", "print('no header')\n")

	res, err := check.New(opts).Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, res.ExitCode)
	require.Equal(t, "copyright", res.FailedStep)
	require.Empty(t, exec.commands, "external tools must not run after a failing step")
}
