// Copyright (c) 2023 Chernenkiy Ivan, Sechenov University
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

package check_test

import (
	"context"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/require"

	"github.com/sechenov/monaibuilder/pkg/check"
)

func TestCommandStringQuotesArguments(t *testing.T) {
	cmd := check.Command{
		Path: "python3",
		Args: []string{"-m", "black", "--check", "my dir"},
	}
	require.Equal(t, "python3 -m black --check 'my dir'", cmd.String())
}

func TestCommandStringPlainArguments(t *testing.T) {
	cmd := check.Command{Path: "python3", Args: []string{"-m", "isort", "."}}
	require.Equal(t, "python3 -m isort .", cmd.String())
}

func TestToolProcessMissingExecutable(t *testing.T) {
	p := check.NewToolProcess(check.Command{Path: "definitely-not-a-real-tool-xyz"})
	err := p.Start(context.Background())
	require.Error(t, err)
	require.True(t, eris.Is(err, check.ErrToolNotFound))
	require.False(t, p.IsRunning())
}

func TestToolProcessDoubleStart(t *testing.T) {
	p := check.NewToolProcess(check.Command{Path: "sh", Args: []string{"-c", "exit 0"}})
	require.NoError(t, p.Start(context.Background()))
	require.Error(t, p.Start(context.Background()))

	code, err := p.Wait(context.Background())
	require.NoError(t, err)
	require.Equal(t, 0, code)
}

func TestToolProcessExitCodeAndOutput(t *testing.T) {
	p := check.NewToolProcess(check.Command{
		Path: "sh",
		Args: []string{"-c", "echo captured; echo oops >&2; exit 4"},
	})
	require.NoError(t, p.Start(context.Background()))

	code, err := p.Wait(context.Background())
	require.NoError(t, err, "a non-zero tool exit is not an infrastructure error")
	require.Equal(t, 4, code)
	require.Contains(t, p.Stdout(), "captured")
	require.Contains(t, p.Stderr(), "oops")
	require.False(t, p.IsRunning())
}
