// Copyright (c) 2023 Chernenkiy Ivan, Sechenov University
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

package bundle

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"
)

// DefaultMetaSchema is the metadata schema the generated bundles declare.
const DefaultMetaSchema = "https://github.com/Project-MONAI/MONAI-extra-test-data/releases/download/0.8.1/meta_schema_20220324.json"

// Metadata describes the bundle per configs/metadata.json of the MONAI
// bundle specification.
type Metadata struct {
	Schema         string `json:"schema" yaml:"schema"`
	Name           string `json:"name" yaml:"name"`
	Version        string `json:"version" yaml:"version"`
	MonaiVersion   string `json:"monai_version" yaml:"monai_version"`
	PytorchVersion string `json:"pytorch_version" yaml:"pytorch_version"`
	NumpyVersion   string `json:"numpy_version" yaml:"numpy_version"`
	Task           string `json:"task" yaml:"task"`
	Description    string `json:"description" yaml:"description"`
	Authors        string `json:"authors" yaml:"authors"`
	Copyright      string `json:"copyright,omitempty" yaml:"copyright"`
}

func (m *Metadata) applyDefaults() {
	if m.Schema == "" {
		m.Schema = DefaultMetaSchema
	}
	if m.Version == "" {
		m.Version = "0.1.0"
	}
	if m.MonaiVersion == "" {
		m.MonaiVersion = "1.2.0"
	}
	if m.PytorchVersion == "" {
		m.PytorchVersion = "2.0.1"
	}
	if m.NumpyVersion == "" {
		m.NumpyVersion = "1.24.4"
	}
}

// WriteBundle writes the bundle directory layout: configs/train.json,
// configs/metadata.json, docs/ and an empty models/ directory for weights.
func WriteBundle(dir string, b *BundleBuilder, meta Metadata) error {
	if meta.Name == "" {
		return eris.New("bundle name is required")
	}
	meta.applyDefaults()

	cfg, err := b.Build()
	if err != nil {
		return eris.Wrap(err, "failed to build train config")
	}

	for _, sub := range []string{"configs", "docs", "models"} {
		if err := os.MkdirAll(filepath.Join(dir, sub), 0o755); err != nil {
			return eris.Wrapf(err, "failed to create %s directory", sub)
		}
	}

	trainPath := filepath.Join(dir, "configs", "train.json")
	if err := os.WriteFile(trainPath, append(cfg, '\n'), 0o644); err != nil {
		return eris.Wrapf(err, "failed to write %s", trainPath)
	}

	metaData, err := json.MarshalIndent(meta, "", "    ")
	if err != nil {
		return eris.Wrap(err, "failed to encode metadata")
	}
	metaPath := filepath.Join(dir, "configs", "metadata.json")
	if err := os.WriteFile(metaPath, append(metaData, '\n'), 0o644); err != nil {
		return eris.Wrapf(err, "failed to write %s", metaPath)
	}

	readme := fmt.Sprintf("# %s\n\n%s\n", meta.Name, meta.Description)
	readmePath := filepath.Join(dir, "docs", "README.md")
	if err := os.WriteFile(readmePath, []byte(readme), 0o644); err != nil {
		return eris.Wrapf(err, "failed to write %s", readmePath)
	}

	return nil
}
