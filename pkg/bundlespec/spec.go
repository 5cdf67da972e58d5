// Copyright (c) 2023 Chernenkiy Ivan, Sechenov University
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

// Package bundlespec loads declarative YAML bundle descriptions and maps
// them onto the bundle builder API. Decoding goes through yaml.Node so the
// author's key order survives into the generated config.
package bundlespec

import (
	"os"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/sechenov/monaibuilder/pkg/bundle"
)

// Spec is the on-disk YAML description of a bundle.
type Spec struct {
	Name      string          `yaml:"name"`
	Metadata  bundle.Metadata `yaml:"metadata"`
	Variables yaml.Node       `yaml:"variables"`
	Network   *Component      `yaml:"network"`
	Loss      *Component      `yaml:"loss"`
	Optimizer *Component      `yaml:"optimizer"`

	Transforms Transforms `yaml:"transforms"`
	Train      Section    `yaml:"train"`
	Validate   Section    `yaml:"validate"`
	Run        Program    `yaml:"run"`
}

// Component instantiates a MONAI class: target plus its arguments.
type Component struct {
	Target string    `yaml:"target"`
	Args   yaml.Node `yaml:"args"`
}

// Named is a component stored under a section key.
type Named struct {
	Key       string `yaml:"key"`
	Component `yaml:",inline"`
}

// Transforms lists the preprocessing and postprocessing transform chains.
type Transforms struct {
	Deterministic  []Component `yaml:"deterministic"`
	Random         []Component `yaml:"random"`
	Postprocessing []Component `yaml:"postprocessing"`
}

// Section describes the train or validate section.
type Section struct {
	Items             []Named     `yaml:"items"`
	Handlers          []Component `yaml:"handlers"`
	Metrics           []Named     `yaml:"metrics"`
	AdditionalMetrics []Named     `yaml:"additional_metrics"`
}

// Program holds the bundle's run expressions.
type Program struct {
	Initialize []string `yaml:"initialize"`
	Run        []string `yaml:"run"`
	Evaluate   []string `yaml:"evaluate"`
}

// Load reads and parses a spec file.
func Load(path string) (*Spec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "failed to read bundle spec %s", path)
	}
	spec, err := Parse(data)
	if err != nil {
		return nil, eris.Wrapf(err, "failed to parse bundle spec %s", path)
	}
	return spec, nil
}

// Parse parses a YAML bundle spec.
func Parse(data []byte) (*Spec, error) {
	var spec Spec
	if err := yaml.Unmarshal(data, &spec); err != nil {
		return nil, eris.Wrap(err, "invalid YAML")
	}
	if spec.Name == "" {
		return nil, eris.New("bundle spec must set a name")
	}
	return &spec, nil
}

// Builder maps the spec onto a bundle builder.
func (s *Spec) Builder() (*bundle.BundleBuilder, error) {
	b := bundle.New()

	err := eachMapping(&s.Variables, func(key string, value *yaml.Node) error {
		v, err := decodeValue(value)
		if err != nil {
			return eris.Wrapf(err, "variable %s", key)
		}
		b.Attribute(key, v)
		return nil
	})
	if err != nil {
		return nil, err
	}

	type topLevel struct {
		key  string
		comp *Component
	}
	for _, tl := range []topLevel{
		{"network_def", s.Network},
		{"loss", s.Loss},
		{"optimizer", s.Optimizer},
	} {
		if tl.comp == nil {
			continue
		}
		opts, err := componentOptions(tl.comp)
		if err != nil {
			return nil, eris.Wrapf(err, "component %s", tl.key)
		}
		b.AddSectionedItem(tl.key, tl.comp.Target, opts...)
	}

	for i := range s.Transforms.Deterministic {
		c := &s.Transforms.Deterministic[i]
		opts, err := componentOptions(c)
		if err != nil {
			return nil, eris.Wrap(err, "deterministic transform")
		}
		b.AddDeterministicTransform(c.Target, opts...)
	}
	for i := range s.Transforms.Random {
		c := &s.Transforms.Random[i]
		opts, err := componentOptions(c)
		if err != nil {
			return nil, eris.Wrap(err, "random transform")
		}
		b.AddRandomTransform(c.Target, opts...)
	}
	for i := range s.Transforms.Postprocessing {
		c := &s.Transforms.Postprocessing[i]
		opts, err := componentOptions(c)
		if err != nil {
			return nil, eris.Wrap(err, "postprocessing transform")
		}
		b.AddPostprocessingTransform(c.Target, opts...)
	}

	if err := applySection(b, bundle.SectionTrain, &s.Train); err != nil {
		return nil, err
	}
	if err := applySection(b, bundle.SectionValidate, &s.Validate); err != nil {
		return nil, err
	}

	if len(s.Run.Initialize) > 0 {
		b.Attribute("initialize", s.Run.Initialize)
	}
	if len(s.Run.Run) > 0 {
		b.Attribute("run", s.Run.Run)
	}
	if len(s.Run.Evaluate) > 0 {
		b.Attribute("evaluate", s.Run.Evaluate)
	}

	return b, nil
}

func applySection(b *bundle.BundleBuilder, name string, sec *Section) error {
	for i := range sec.Items {
		n := &sec.Items[i]
		if n.Key == "" {
			return eris.Errorf("%s item %d has no key", name, i)
		}
		opts, err := componentOptions(&n.Component)
		if err != nil {
			return eris.Wrapf(err, "%s item %s", name, n.Key)
		}
		b.AddSectionItem(name, n.Key, n.Target, opts...)
	}
	for i := range sec.Handlers {
		c := &sec.Handlers[i]
		opts, err := componentOptions(c)
		if err != nil {
			return eris.Wrapf(err, "%s handler %s", name, c.Target)
		}
		b.AddSectionHandler(name, c.Target, opts...)
	}
	for i := range sec.Metrics {
		n := &sec.Metrics[i]
		opts, err := componentOptions(&n.Component)
		if err != nil {
			return eris.Wrapf(err, "%s metric %s", name, n.Key)
		}
		b.AddMetric(name, n.Key, n.Target, opts...)
	}
	for i := range sec.AdditionalMetrics {
		n := &sec.AdditionalMetrics[i]
		opts, err := componentOptions(&n.Component)
		if err != nil {
			return eris.Wrapf(err, "%s additional metric %s", name, n.Key)
		}
		b.AddAdditionalMetric(name, n.Key, n.Target, opts...)
	}
	return nil
}

func componentOptions(c *Component) ([]bundle.Option, error) {
	if c.Target == "" {
		return nil, eris.New("component has no target")
	}
	var opts []bundle.Option
	err := eachMapping(&c.Args, func(key string, value *yaml.Node) error {
		v, err := decodeValue(value)
		if err != nil {
			return eris.Wrapf(err, "argument %s", key)
		}
		opts = append(opts, bundle.Opt(key, v))
		return nil
	})
	if err != nil {
		return nil, err
	}
	return opts, nil
}

// eachMapping iterates a YAML mapping node in document order. A zero node is
// treated as an empty mapping.
func eachMapping(n *yaml.Node, fn func(key string, value *yaml.Node) error) error {
	if n.Kind == 0 || n.Tag == "!!null" {
		return nil
	}
	if n.Kind != yaml.MappingNode {
		return eris.New("expected a YAML mapping")
	}
	for i := 0; i+1 < len(n.Content); i += 2 {
		if err := fn(n.Content[i].Value, n.Content[i+1]); err != nil {
			return err
		}
	}
	return nil
}

// decodeValue converts a YAML node into a builder value. Mappings become
// ordered nodes, sequences become slices.
func decodeValue(n *yaml.Node) (any, error) {
	switch n.Kind {
	case yaml.MappingNode:
		out := bundle.NewNode()
		err := eachMapping(n, func(key string, value *yaml.Node) error {
			v, err := decodeValue(value)
			if err != nil {
				return err
			}
			out.Attribute(key, v)
			return nil
		})
		if err != nil {
			return nil, err
		}
		return out, nil
	case yaml.SequenceNode:
		out := make([]any, 0, len(n.Content))
		for _, item := range n.Content {
			v, err := decodeValue(item)
			if err != nil {
				return nil, err
			}
			out = append(out, v)
		}
		return out, nil
	case yaml.AliasNode:
		return decodeValue(n.Alias)
	default:
		var v any
		if err := n.Decode(&v); err != nil {
			return nil, eris.Wrap(err, "invalid scalar")
		}
		return v, nil
	}
}
