// Copyright (c) 2023 Chernenkiy Ivan, Sechenov University
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

package check

import (
	"bytes"
	"context"
	"io"
	"os"
	"os/exec"
	"strings"
	"sync"

	"github.com/rotisserie/eris"
)

// ErrToolNotFound is returned when a step's executable is not on PATH.
var ErrToolNotFound = eris.New("tool executable not found")

// Command describes a single external tool invocation.
type Command struct {
	Step string
	Path string
	Args []string
	Dir  string
	Env  []string
}

// String renders the command the way it would be typed in a shell.
func (c Command) String() string {
	parts := make([]string, 0, len(c.Args)+1)
	for _, p := range append([]string{c.Path}, c.Args...) {
		if strings.ContainsAny(p, " \t'\"") {
			p = "'" + strings.ReplaceAll(p, "'", `'\''`) + "'"
		}
		parts = append(parts, p)
	}
	return strings.Join(parts, " ")
}

// Executor runs tool commands and reports their exit status. The pipeline
// only depends on this interface so tests can substitute a recorder.
type Executor interface {
	Run(ctx context.Context, cmd Command) (int, error)
}

type toolExecutor struct {
	stdout io.Writer
	stderr io.Writer
}

// NewExecutor returns an executor that mirrors tool output to the process
// stdout/stderr.
func NewExecutor() Executor {
	return &toolExecutor{stdout: os.Stdout, stderr: os.Stderr}
}

func (e *toolExecutor) Run(ctx context.Context, cmd Command) (int, error) {
	p := NewToolProcess(cmd).WithMirror(e.stdout, e.stderr)
	if err := p.Start(ctx); err != nil {
		return -1, err
	}
	return p.Wait(ctx)
}

// ToolProcess manages one external tool subprocess: it captures output,
// tracks the exit code and kills the process on context cancellation.
type ToolProcess struct {
	mu sync.RWMutex

	spec Command
	cmd  *exec.Cmd

	started bool
	exited  bool

	stdoutBuf bytes.Buffer
	stderrBuf bytes.Buffer
	outMirror io.Writer
	errMirror io.Writer

	waitCh   chan error
	exitCode int
}

// NewToolProcess creates a process for the given command.
func NewToolProcess(spec Command) *ToolProcess {
	return &ToolProcess{
		spec:   spec,
		waitCh: make(chan error, 1),
	}
}

// WithMirror additionally streams captured output to the given writers.
func (p *ToolProcess) WithMirror(stdout, stderr io.Writer) *ToolProcess {
	p.outMirror = stdout
	p.errMirror = stderr
	return p
}

// Start launches the subprocess.
func (p *ToolProcess) Start(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.started {
		return eris.New("process already started")
	}

	if _, err := exec.LookPath(p.spec.Path); err != nil {
		return eris.Wrapf(ErrToolNotFound, "%s", p.spec.Path)
	}

	p.cmd = exec.CommandContext(ctx, p.spec.Path, p.spec.Args...)
	p.cmd.Dir = p.spec.Dir
	if len(p.spec.Env) > 0 {
		p.cmd.Env = append(os.Environ(), p.spec.Env...)
	}

	stdout, err := p.cmd.StdoutPipe()
	if err != nil {
		return eris.Wrap(err, "failed to create stdout pipe")
	}
	stderr, err := p.cmd.StderrPipe()
	if err != nil {
		return eris.Wrap(err, "failed to create stderr pipe")
	}

	if err := p.cmd.Start(); err != nil {
		return eris.Wrapf(err, "failed to start %s", p.spec.Path)
	}
	p.started = true

	go p.capture(stdout, &p.stdoutBuf, p.outMirror)
	go p.capture(stderr, &p.stderrBuf, p.errMirror)

	go func() {
		err := p.cmd.Wait()
		p.mu.Lock()
		p.exited = true
		if p.cmd.ProcessState != nil {
			p.exitCode = p.cmd.ProcessState.ExitCode()
		}
		p.mu.Unlock()
		p.waitCh <- err
	}()

	return nil
}

// capture copies process output into the buffer chunk by chunk; a
// bufio.Scanner would choke on very long lint output lines.
func (p *ToolProcess) capture(r io.Reader, buf *bytes.Buffer, mirror io.Writer) {
	chunk := make([]byte, 32*1024)
	for {
		n, err := r.Read(chunk)
		if n > 0 {
			p.mu.Lock()
			buf.Write(chunk[:n])
			p.mu.Unlock()
			if mirror != nil {
				_, _ = mirror.Write(chunk[:n])
			}
		}
		if err != nil {
			return
		}
	}
}

// Wait blocks until the process exits and returns its exit code. A non-zero
// tool exit is not an error; infrastructure failures are.
func (p *ToolProcess) Wait(ctx context.Context) (int, error) {
	select {
	case err := <-p.waitCh:
		p.mu.RLock()
		code := p.exitCode
		p.mu.RUnlock()

		if err != nil {
			var exitErr *exec.ExitError
			if eris.As(err, &exitErr) {
				return code, nil
			}
			return code, eris.Wrapf(err, "%s did not run", p.spec.Path)
		}
		return code, nil

	case <-ctx.Done():
		_ = p.Kill()
		return -1, eris.Wrapf(ctx.Err(), "%s interrupted", p.spec.Path)
	}
}

// Kill forcefully terminates the process.
func (p *ToolProcess) Kill() error {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if !p.started || p.exited || p.cmd.Process == nil {
		return nil
	}
	if err := p.cmd.Process.Kill(); err != nil {
		if !strings.Contains(err.Error(), "process already finished") {
			return eris.Wrap(err, "failed to kill process")
		}
	}
	return nil
}

// IsRunning reports whether the process is still alive.
func (p *ToolProcess) IsRunning() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.started && !p.exited
}

// ExitCode returns the recorded exit code.
func (p *ToolProcess) ExitCode() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.exitCode
}

// Stdout returns the captured standard output.
func (p *ToolProcess) Stdout() string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.stdoutBuf.String()
}

// Stderr returns the captured standard error.
func (p *ToolProcess) Stderr() string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.stderrBuf.String()
}
