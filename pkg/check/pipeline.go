// Copyright (c) 2023 Chernenkiy Ivan, Sechenov University
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

// Package check runs the project's code-quality tool sequence: license
// header scan, import sorter, formatter, style checker, linter and two type
// checkers. Steps run strictly in order and the pipeline stops at the first
// failing step, surfacing its exit code unchanged.
package check

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/mitchellh/colorstring"
	"github.com/rotisserie/eris"
)

// interpreterEnv overrides the interpreter used to invoke the Python tools.
const interpreterEnv = "PY_EXE"

// Interpreter returns the interpreter executable for tool invocations.
func Interpreter() string {
	if v := os.Getenv(interpreterEnv); v != "" {
		return v
	}
	return "python3"
}

// Step is one entry of the pipeline. External steps are invoked as
// `<interpreter> -m <module> <args> <paths>`; builtin steps run in-process.
type Step struct {
	Name      string
	Module    string
	CheckArgs []string
	FixArgs   []string
	Fixable   bool
	// LineLenFlag forwards the configured line length, e.g. "--line-length".
	LineLenFlag string
	// JobsFlag forwards the --jobs value, e.g. "-j".
	JobsFlag string
	// Slow steps only run with the --all flag.
	Slow    bool
	Builtin func(ctx context.Context, opts Options) (int, error)
}

// DefaultSteps returns the standard sequence.
func DefaultSteps() []Step {
	return []Step{
		{Name: "copyright", Builtin: copyrightStep},
		{
			Name:        "isort",
			Module:      "isort",
			CheckArgs:   []string{"--check-only", "--diff"},
			Fixable:     true,
			LineLenFlag: "--line-length",
		},
		{
			Name:        "black",
			Module:      "black",
			CheckArgs:   []string{"--check"},
			Fixable:     true,
			LineLenFlag: "--line-length",
		},
		{
			Name:        "flake8",
			Module:      "flake8",
			CheckArgs:   []string{"--count"},
			LineLenFlag: "--max-line-length",
		},
		{Name: "pylint", Module: "pylint", Slow: true},
		{Name: "mypy", Module: "mypy", Slow: true},
		{Name: "pytype", Module: "pytype", JobsFlag: "-j", Slow: true},
	}
}

// KnownStepNames lists the step names of the default sequence.
func KnownStepNames() []string {
	steps := DefaultSteps()
	names := make([]string, 0, len(steps))
	for _, s := range steps {
		names = append(names, s.Name)
	}
	return names
}

// Options configures a pipeline run.
type Options struct {
	// Root is the project directory the tools run in.
	Root string
	// Paths are the targets passed to every external tool.
	Paths []string

	DryRun bool
	Fix    bool
	All    bool
	Jobs   int

	MaxLineLen  int
	Disable     []string
	Interpreter string

	// License scan settings.
	LicenseText string
	Include     []string
	Exclude     []string

	Hooks    Hooks
	Progress bool

	Executor Executor
	Out      io.Writer
}

func (o *Options) setDefaults() {
	if o.Root == "" {
		o.Root = "."
	}
	if len(o.Paths) == 0 {
		o.Paths = []string{"."}
	}
	if o.Interpreter == "" {
		o.Interpreter = Interpreter()
	}
	if o.Executor == nil {
		o.Executor = NewExecutor()
	}
	if o.Out == nil {
		o.Out = os.Stdout
	}
}

// StepResult records the outcome of one step.
type StepResult struct {
	Name     string
	ExitCode int
	Duration time.Duration
	Skipped  bool
}

// Result is the outcome of a pipeline run. ExitCode is zero only when every
// executed step exited zero.
type Result struct {
	RunID      string
	ExitCode   int
	FailedStep string
	Steps      []StepResult
}

// Pipeline executes the configured step sequence.
type Pipeline struct {
	steps []Step
	opts  Options
}

// New builds a pipeline with the default steps, minus the disabled ones.
func New(opts Options) *Pipeline {
	opts.setDefaults()
	disabled := make(map[string]bool, len(opts.Disable))
	for _, name := range opts.Disable {
		disabled[name] = true
	}
	steps := make([]Step, 0)
	for _, s := range DefaultSteps() {
		if !disabled[s.Name] {
			steps = append(steps, s)
		}
	}
	return &Pipeline{steps: steps, opts: opts}
}

// NewWithSteps builds a pipeline with a custom step sequence.
func NewWithSteps(steps []Step, opts Options) *Pipeline {
	opts.setDefaults()
	return &Pipeline{steps: steps, opts: opts}
}

// Run executes the pipeline. A failing step is reported through
// Result.ExitCode, not through the error; errors signal that a step or hook
// could not run at all.
func (p *Pipeline) Run(ctx context.Context) (*Result, error) {
	res := &Result{RunID: uuid.NewString()}
	logger := log(ctx).With().Str("run", res.RunID[:8]).Logger()
	ctx = WithLogger(ctx, &logger)

	if err := p.opts.Hooks.Run(ctx, HookBefore, p.opts.Root, p.opts.DryRun, p.opts.Out); err != nil {
		return res, eris.Wrap(err, "before hook failed")
	}

	for _, step := range p.steps {
		if step.Slow && !p.opts.All {
			res.Steps = append(res.Steps, StepResult{Name: step.Name, Skipped: true})
			logger.Debug().Str("step", step.Name).Msg("skipped (enable with --all)")
			continue
		}

		start := time.Now()
		code, err := p.runStep(ctx, step)
		if err != nil {
			return res, eris.Wrapf(err, "step %s could not run", step.Name)
		}
		res.Steps = append(res.Steps, StepResult{
			Name:     step.Name,
			ExitCode: code,
			Duration: time.Since(start),
		})

		if code != 0 {
			res.ExitCode = code
			res.FailedStep = step.Name
			logger.Error().Str("step", step.Name).Int("exit", code).Msg("step failed")
			_, _ = colorstring.Fprintln(p.opts.Out,
				"[yellow]Run 'monaibuilder check --fix' to apply automatic formatting fixes.")
			if err := p.opts.Hooks.Run(ctx, HookOnFailure, p.opts.Root, p.opts.DryRun, p.opts.Out); err != nil {
				logger.Warn().Err(err).Msg("on_failure hook failed")
			}
			return res, nil
		}
	}

	if err := p.opts.Hooks.Run(ctx, HookOnSuccess, p.opts.Root, p.opts.DryRun, p.opts.Out); err != nil {
		return res, eris.Wrap(err, "on_success hook failed")
	}
	return res, nil
}

func (p *Pipeline) runStep(ctx context.Context, step Step) (int, error) {
	logger := log(ctx)

	if step.Builtin != nil {
		if p.opts.DryRun {
			_, _ = colorstring.Fprintln(p.opts.Out, "[cyan]# "+step.Name+" (builtin)")
			return 0, nil
		}
		logger.Info().Str("step", step.Name).Msg("running")
		return step.Builtin(ctx, p.opts)
	}

	cmd := p.command(step)
	if p.opts.DryRun {
		_, _ = colorstring.Fprintln(p.opts.Out, "[cyan]$ "+cmd.String())
		return 0, nil
	}

	logger.Info().Str("step", step.Name).Msg("running")
	return p.opts.Executor.Run(ctx, cmd)
}

// command assembles the tool invocation for an external step.
func (p *Pipeline) command(step Step) Command {
	args := []string{"-m", step.Module}
	if p.opts.Fix && step.Fixable {
		args = append(args, step.FixArgs...)
	} else {
		args = append(args, step.CheckArgs...)
	}
	if step.LineLenFlag != "" && p.opts.MaxLineLen > 0 {
		args = append(args, fmt.Sprintf("%s=%d", step.LineLenFlag, p.opts.MaxLineLen))
	}
	if step.JobsFlag != "" && p.opts.Jobs > 0 {
		args = append(args, step.JobsFlag, strconv.Itoa(p.opts.Jobs))
	}
	args = append(args, p.opts.Paths...)

	return Command{
		Step: step.Name,
		Path: p.opts.Interpreter,
		Args: args,
		Dir:  p.opts.Root,
	}
}
