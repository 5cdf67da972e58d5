// Copyright (c) 2023 Chernenkiy Ivan, Sechenov University
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

// Package archive packs generated bundle directories into .tar.xz archives
// for distribution.
package archive

import (
	"archive/tar"
	"context"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/rotisserie/eris"
	"github.com/schollz/progressbar/v3"
	"github.com/ulikunitz/xz"
)

// Pack writes the contents of dir into an xz-compressed tarball at out.
// Entries are rooted under the directory's base name so the archive unpacks
// into a single folder.
func Pack(ctx context.Context, dir, out string, progress bool) error {
	info, err := os.Stat(dir)
	if err != nil {
		return eris.Wrapf(err, "failed to stat %s", dir)
	}
	if !info.IsDir() {
		return eris.Errorf("%s is not a directory", dir)
	}

	files, total, err := collect(dir)
	if err != nil {
		return err
	}

	f, err := os.Create(out)
	if err != nil {
		return eris.Wrapf(err, "failed to create %s", out)
	}
	defer f.Close()

	xzw, err := xz.NewWriter(f)
	if err != nil {
		return eris.Wrap(err, "failed to initialize xz writer")
	}
	tw := tar.NewWriter(xzw)

	bar := newBar(total, "packing "+filepath.Base(dir), progress)
	base := filepath.Base(dir)

	for _, rel := range files {
		if err := ctx.Err(); err != nil {
			return eris.Wrap(err, "packing interrupted")
		}
		if err := addFile(tw, dir, base, rel, bar); err != nil {
			return err
		}
	}
	_ = bar.Finish()

	if err := tw.Close(); err != nil {
		return eris.Wrap(err, "failed to finalize tar stream")
	}
	if err := xzw.Close(); err != nil {
		return eris.Wrap(err, "failed to finalize xz stream")
	}
	if err := f.Close(); err != nil {
		return eris.Wrapf(err, "failed to close %s", out)
	}
	return nil
}

// collect lists regular files under dir, relative paths sorted for a
// reproducible entry order, plus their combined size.
func collect(dir string) ([]string, int64, error) {
	var files []string
	var total int64
	err := filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(dir, p)
		if err != nil {
			return err
		}
		files = append(files, filepath.ToSlash(rel))
		total += info.Size()
		return nil
	})
	if err != nil {
		return nil, 0, eris.Wrapf(err, "failed to walk %s", dir)
	}
	sort.Strings(files)
	return files, total, nil
}

func addFile(tw *tar.Writer, dir, base, rel string, bar *progressbar.ProgressBar) error {
	full := filepath.Join(dir, filepath.FromSlash(rel))
	info, err := os.Stat(full)
	if err != nil {
		return eris.Wrapf(err, "failed to stat %s", rel)
	}

	hdr, err := tar.FileInfoHeader(info, "")
	if err != nil {
		return eris.Wrapf(err, "failed to build tar header for %s", rel)
	}
	hdr.Name = base + "/" + rel

	if err := tw.WriteHeader(hdr); err != nil {
		return eris.Wrapf(err, "failed to write tar header for %s", rel)
	}

	src, err := os.Open(full)
	if err != nil {
		return eris.Wrapf(err, "failed to open %s", rel)
	}
	defer src.Close()

	if _, err := io.Copy(io.MultiWriter(tw, bar), src); err != nil {
		return eris.Wrapf(err, "failed to archive %s", rel)
	}
	return nil
}

func newBar(length int64, desc string, visible bool) *progressbar.ProgressBar {
	if !visible || os.Getenv("CI") == "true" {
		return progressbar.NewOptions64(length, progressbar.OptionSetVisibility(false))
	}
	return progressbar.DefaultBytes(length, desc)
}
