// Copyright (c) 2023 Chernenkiy Ivan, Sechenov University
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

package check_test

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sechenov/monaibuilder/pkg/check"
)

func TestHooksRunSnippets(t *testing.T) {
	hooks := check.Hooks{check.HookBefore: []string{"echo preparing"}}

	var out bytes.Buffer
	err := hooks.Run(context.Background(), check.HookBefore, t.TempDir(), false, &out)
	require.NoError(t, err)
	require.Contains(t, out.String(), "preparing")
}

func TestHooksDryRunOnlyPrints(t *testing.T) {
	hooks := check.Hooks{check.HookOnSuccess: []string{"echo   published", "exit 1"}}

	var out bytes.Buffer
	err := hooks.Run(context.Background(), check.HookOnSuccess, t.TempDir(), true, &out)
	require.NoError(t, err, "dry-run must not execute snippets")
	require.Contains(t, out.String(), "$ echo published")
	require.Contains(t, out.String(), "$ exit 1")
}

func TestHooksPropagateExitStatus(t *testing.T) {
	hooks := check.Hooks{check.HookOnFailure: []string{"exit 7"}}

	var out bytes.Buffer
	err := hooks.Run(context.Background(), check.HookOnFailure, t.TempDir(), false, &out)
	require.Error(t, err)
	require.Contains(t, err.Error(), "status 7")
}

func TestHooksRejectUnparsableSnippet(t *testing.T) {
	hooks := check.Hooks{check.HookBefore: []string{"if then fi ((("}}

	err := hooks.Run(context.Background(), check.HookBefore, t.TempDir(), false, nil)
	require.Error(t, err)
}

func TestHooksNoSnippetsIsNoop(t *testing.T) {
	var hooks check.Hooks
	err := hooks.Run(context.Background(), check.HookBefore, t.TempDir(), false, nil)
	require.NoError(t, err)
}

func TestHooksFromConfig(t *testing.T) {
	hooks := check.HooksFromConfig(map[string][]string{
		"before":     {"echo a"},
		"on_success": {"echo b", "echo c"},
	})
	require.Len(t, hooks[check.HookBefore], 1)
	require.Len(t, hooks[check.HookOnSuccess], 2)
	require.Empty(t, hooks[check.HookOnFailure])
}
