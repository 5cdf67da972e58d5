// Copyright (c) 2023 Chernenkiy Ivan, Sechenov University
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

package check

import (
	"bytes"
	"context"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"

	"github.com/mitchellh/colorstring"
	"github.com/rotisserie/eris"
	"github.com/schollz/progressbar/v3"
)

// DefaultLicenseText is the substring every checked file must contain.
const DefaultLicenseText = "Licensed under the Apache License"

// Default file selection for the license scan.
var (
	DefaultIncludes = []string{"*.py"}
	DefaultExcludes = []string{".git", "__pycache__", "build", "dist", ".eggs", ".venv"}
)

// CopyrightScan checks that source files carry the required license header.
type CopyrightScan struct {
	Root        string
	LicenseText string
	Include     []string
	Exclude     []string
	Progress    bool
}

// Run returns the files (relative to Root) missing the license text.
func (s CopyrightScan) Run(ctx context.Context) ([]string, error) {
	if s.Root == "" {
		s.Root = "."
	}
	if s.LicenseText == "" {
		s.LicenseText = DefaultLicenseText
	}
	if len(s.Include) == 0 {
		s.Include = DefaultIncludes
	}
	if len(s.Exclude) == 0 {
		s.Exclude = DefaultExcludes
	}

	files, err := s.collect()
	if err != nil {
		return nil, err
	}

	bar := newProgressBar(int64(len(files)), "license scan", s.Progress)
	want := []byte(s.LicenseText)
	missing := make([]string, 0)

	for _, rel := range files {
		if err := ctx.Err(); err != nil {
			return nil, eris.Wrap(err, "license scan interrupted")
		}
		data, err := os.ReadFile(filepath.Join(s.Root, rel))
		if err != nil {
			return nil, eris.Wrapf(err, "failed to read %s", rel)
		}
		if !bytes.Contains(data, want) {
			missing = append(missing, rel)
		}
		_ = bar.Add(1)
	}
	_ = bar.Finish()

	sort.Strings(missing)
	return missing, nil
}

func (s CopyrightScan) collect() ([]string, error) {
	var files []string
	err := filepath.WalkDir(s.Root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(s.Root, p)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		if rel == "." {
			return nil
		}

		if d.IsDir() {
			if s.excluded(rel, d.Name()) {
				return filepath.SkipDir
			}
			return nil
		}
		if s.excluded(rel, d.Name()) {
			return nil
		}
		for _, pattern := range s.Include {
			if ok, _ := path.Match(pattern, d.Name()); ok {
				files = append(files, rel)
				break
			}
		}
		return nil
	})
	if err != nil {
		return nil, eris.Wrapf(err, "failed to walk %s", s.Root)
	}
	sort.Strings(files)
	return files, nil
}

func (s CopyrightScan) excluded(rel, base string) bool {
	for _, pattern := range s.Exclude {
		if pattern == base || pattern == rel {
			return true
		}
		if ok, _ := path.Match(pattern, base); ok {
			return true
		}
		if ok, _ := path.Match(pattern, rel); ok {
			return true
		}
	}
	return false
}

// copyrightStep adapts the scan to the pipeline's builtin step signature.
func copyrightStep(ctx context.Context, opts Options) (int, error) {
	scan := CopyrightScan{
		Root:        opts.Root,
		LicenseText: opts.LicenseText,
		Include:     opts.Include,
		Exclude:     opts.Exclude,
		Progress:    opts.Progress,
	}
	missing, err := scan.Run(ctx)
	if err != nil {
		return -1, err
	}

	for _, rel := range missing {
		_, _ = colorstring.Fprintln(opts.Out, "[red]missing license header: "+rel)
	}
	if len(missing) > 0 {
		log(ctx).Error().Int("files", len(missing)).Msg("license header check failed")
		return 1, nil
	}
	return 0, nil
}

// newProgressBar follows the CI convention: bars are hidden on CI runners
// and when progress reporting is disabled.
func newProgressBar(length int64, desc string, visible bool) *progressbar.ProgressBar {
	if !visible || os.Getenv("CI") == "true" {
		return progressbar.NewOptions64(length, progressbar.OptionSetVisibility(false))
	}
	return progressbar.Default(length, desc)
}
