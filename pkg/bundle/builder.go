// Copyright (c) 2023 Chernenkiy Ivan, Sechenov University
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

package bundle

import (
	"github.com/rotisserie/eris"
)

// Section names used by the standard train/validate bundle layout.
const (
	SectionTrain    = "train"
	SectionValidate = "validate"
)

// TargetKey marks a component instantiation in a MONAI config.
const TargetKey = "_target_"

// Option is a single ordered key/value pair of a component's arguments.
type Option struct {
	Key   string
	Value any
}

// Opt builds an Option.
func Opt(key string, value any) Option {
	return Option{Key: key, Value: value}
}

// BundleBuilder assembles the train/validate configuration of a MONAI
// bundle. Sections and lists are re-entrant: adding to an existing section
// extends it instead of overwriting it.
type BundleBuilder struct {
	root      *Node
	keyFormat KeyFormat
	indent    int
}

// New returns a builder producing snake_case keys and 4-space indented JSON.
func New() *BundleBuilder {
	return &BundleBuilder{
		root:      NewNode(),
		keyFormat: KeyFormatSnake,
		indent:    4,
	}
}

// SetKeyFormat overrides the key normalization applied at render time.
func (b *BundleBuilder) SetKeyFormat(f KeyFormat) {
	b.keyFormat = f
}

// Root exposes the underlying config tree.
func (b *BundleBuilder) Root() *Node {
	return b.root
}

// Attribute sets a top-level config variable.
func (b *BundleBuilder) Attribute(name string, value any) {
	b.root.Attribute(name, value)
}

// Section returns the named section node, creating it on first use.
func (b *BundleBuilder) Section(name string) *Node {
	return b.root.Node(name)
}

func item(target string, opts ...Option) *Node {
	n := NewNode()
	n.Attribute(TargetKey, target)
	for _, o := range opts {
		n.Attribute(o.Key, o.Value)
	}
	return n
}

// AddSectionedItem sets a top-level component such as network_def, loss or
// optimizer: {"_target_": target, ...opts}.
func (b *BundleBuilder) AddSectionedItem(name, target string, opts ...Option) {
	b.root.Attribute(name, item(target, opts...))
}

// AddSectionItem sets a component under the given section key, for example
// train#dataset or validate#evaluator.
func (b *BundleBuilder) AddSectionItem(section, key, target string, opts ...Option) {
	b.Section(section).Attribute(key, item(target, opts...))
}

// AddTrainItem sets a component under the train section.
func (b *BundleBuilder) AddTrainItem(key, target string, opts ...Option) {
	b.AddSectionItem(SectionTrain, key, target, opts...)
}

// AddValidateItem sets a component under the validate section.
func (b *BundleBuilder) AddValidateItem(key, target string, opts ...Option) {
	b.AddSectionItem(SectionValidate, key, target, opts...)
}

// AddDeterministicTransform appends to train#deterministic_transforms.
func (b *BundleBuilder) AddDeterministicTransform(target string, opts ...Option) {
	b.Section(SectionTrain).List("deterministic_transforms").Append(item(target, opts...))
}

// AddRandomTransform appends to train#random_transforms.
func (b *BundleBuilder) AddRandomTransform(target string, opts ...Option) {
	b.Section(SectionTrain).List("random_transforms").Append(item(target, opts...))
}

// AddPostprocessingTransform appends a transform to the postprocessing
// Compose of both the train and validate sections.
func (b *BundleBuilder) AddPostprocessingTransform(target string, opts ...Option) {
	for _, section := range []string{SectionTrain, SectionValidate} {
		post := b.Section(section).Node("postprocessing")
		if !post.Has(TargetKey) {
			post.Attribute(TargetKey, "Compose")
		}
		post.List("transforms").Append(item(target, opts...))
	}
}

// AddSectionHandler appends a handler to <section>#handlers.
func (b *BundleBuilder) AddSectionHandler(section, target string, opts ...Option) {
	b.Section(section).List("handlers").Append(item(target, opts...))
}

// AddMetric sets the named key metric of a section.
func (b *BundleBuilder) AddMetric(section, name, target string, opts ...Option) {
	b.Section(section).Node("key_metric").Attribute(name, item(target, opts...))
}

// AddAdditionalMetric sets a named additional metric of a section.
func (b *BundleBuilder) AddAdditionalMetric(section, name, target string, opts ...Option) {
	b.Section(section).Node("additional_metrics").Attribute(name, item(target, opts...))
}

// SetTrainSection seeds the train section skeleton expected by the bundle
// specification. Existing keys are kept.
func (b *BundleBuilder) SetTrainSection() {
	train := b.Section(SectionTrain)
	train.List("deterministic_transforms")
	train.List("random_transforms")
	train.Node("preprocessing")
	train.Node("dataset")
	train.Node("dataloader")
	train.Node("postprocessing")
	train.List("handlers")
	train.Node("key_metric")
	train.Node("additional_metrics")
	train.Node("trainer")
}

// Build finalizes and renders the configuration. The train section must
// exist and define a trainer; every "@" reference must resolve.
func (b *BundleBuilder) Build() ([]byte, error) {
	b.finalize()
	if err := b.validate(); err != nil {
		return nil, err
	}
	return b.root.Encode(b.keyFormat, b.indent)
}

// finalize materializes the preprocessing Compose of each section from the
// collected transform lists, unless the author already set one.
func (b *BundleBuilder) finalize() {
	if !b.root.Has(SectionTrain) {
		return
	}
	train := b.Section(SectionTrain)
	hasDet := train.Has("deterministic_transforms")
	hasRand := train.Has("random_transforms")

	if !train.Has("preprocessing") && (hasDet || hasRand) {
		expr := ""
		switch {
		case hasDet && hasRand:
			expr = "$@train#deterministic_transforms + @train#random_transforms"
		case hasDet:
			expr = "$@train#deterministic_transforms"
		default:
			expr = "$@train#random_transforms"
		}
		pre := train.Node("preprocessing")
		pre.Attribute(TargetKey, "Compose")
		pre.Attribute("transforms", expr)
	}

	// Validation reuses the deterministic pipeline only.
	if b.root.Has(SectionValidate) && hasDet {
		validate := b.Section(SectionValidate)
		if !validate.Has("preprocessing") {
			pre := validate.Node("preprocessing")
			pre.Attribute(TargetKey, "Compose")
			pre.Attribute("transforms", "$@train#deterministic_transforms")
		}
	}
}

func (b *BundleBuilder) validate() error {
	if !b.root.Has(SectionTrain) {
		return eris.New("train section is not defined")
	}
	if !b.Section(SectionTrain).Has("trainer") {
		return eris.New("train section does not define a trainer")
	}
	if err := ValidateRefs(b.root); err != nil {
		return eris.Wrap(err, "config references do not resolve")
	}
	return nil
}
