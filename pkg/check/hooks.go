// Copyright (c) 2023 Chernenkiy Ivan, Sechenov University
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

package check

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mitchellh/colorstring"
	"github.com/rotisserie/eris"
	"mvdan.cc/sh/v3/expand"
	"mvdan.cc/sh/v3/interp"
	"mvdan.cc/sh/v3/syntax"
)

// HookEvent names a point of the pipeline where user shell snippets run.
type HookEvent string

const (
	// HookBefore runs before the first step.
	HookBefore HookEvent = "before"
	// HookOnSuccess runs after every step passed.
	HookOnSuccess HookEvent = "on_success"
	// HookOnFailure runs after the pipeline aborted on a failing step.
	HookOnFailure HookEvent = "on_failure"
)

// KnownHookEvents lists the supported hook event names.
func KnownHookEvents() []string {
	return []string{string(HookBefore), string(HookOnSuccess), string(HookOnFailure)}
}

// Hooks maps events to shell snippets from the project configuration.
type Hooks map[HookEvent][]string

// HooksFromConfig converts the raw config mapping.
func HooksFromConfig(raw map[string][]string) Hooks {
	h := make(Hooks, len(raw))
	for event, snippets := range raw {
		h[HookEvent(event)] = snippets
	}
	return h
}

// Run executes the snippets registered for the event, stopping at the first
// failure. In dry-run mode the parsed statements are printed instead.
func (h Hooks) Run(ctx context.Context, event HookEvent, dir string, dryRun bool, out io.Writer) error {
	snippets := h[event]
	if len(snippets) == 0 {
		return nil
	}
	if out == nil {
		out = os.Stdout
	}

	parser := syntax.NewParser()
	printer := syntax.NewPrinter(syntax.Minify(true))

	for i, src := range snippets {
		name := fmt.Sprintf("%s[%d]", event, i)
		file, err := parser.Parse(strings.NewReader(src), name)
		if err != nil {
			return eris.Wrapf(err, "failed to parse hook %s", name)
		}

		if dryRun {
			for _, stmt := range file.Stmts {
				var buf bytes.Buffer
				_ = printer.Print(&buf, stmt)
				_, _ = colorstring.Fprintln(out, "[cyan]$ "+buf.String())
			}
			continue
		}

		log(ctx).Debug().Str("hook", name).Msg("running hook")
		runner, err := interp.New(
			interp.Dir(dir),
			interp.Env(expand.ListEnviron(os.Environ()...)),
			interp.StdIO(nil, out, out),
			interp.Params("-e"),
		)
		if err != nil {
			return eris.Wrap(err, "failed to initialize hook runner")
		}
		if err := runner.Run(ctx, file); err != nil {
			if code, ok := interp.IsExitStatus(err); ok {
				return eris.Errorf("hook %s exited with status %d", name, code)
			}
			return eris.Wrapf(err, "hook %s failed", name)
		}
	}
	return nil
}
