// Copyright (c) 2023 Chernenkiy Ivan, Sechenov University
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

// Package bundle builds MONAI bundle configurations,
// see https://docs.monai.io/en/stable/mb_specification.html.
package bundle

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/rotisserie/eris"
)

// Node is a configuration mapping that keeps its keys in insertion order.
// JSON object key order carries no meaning for the MONAI config runtime, but
// stable order keeps generated bundles diffable.
type Node struct {
	keys     []string
	children map[string]any
}

// NewNode returns an empty node.
func NewNode() *Node {
	return &Node{children: make(map[string]any)}
}

// Attribute sets a key to a value. An existing key keeps its position.
func (n *Node) Attribute(key string, value any) {
	if _, ok := n.children[key]; !ok {
		n.keys = append(n.keys, key)
	}
	n.children[key] = value
}

// Has reports whether the key is present.
func (n *Node) Has(key string) bool {
	_, ok := n.children[key]
	return ok
}

// Get returns the value stored under key.
func (n *Node) Get(key string) (any, bool) {
	v, ok := n.children[key]
	return v, ok
}

// Keys returns the keys in insertion order.
func (n *Node) Keys() []string {
	out := make([]string, len(n.keys))
	copy(out, n.keys)
	return out
}

// Node returns the child node under key, re-opening it when it already
// exists. A non-node value stored under the same key is replaced.
func (n *Node) Node(key string) *Node {
	if v, ok := n.children[key]; ok {
		if child, ok := v.(*Node); ok {
			return child
		}
	}
	child := NewNode()
	n.Attribute(key, child)
	return child
}

// List returns the list stored under key, creating it if needed. An existing
// list is re-opened so later additions append instead of overwriting.
func (n *Node) List(key string) *List {
	if v, ok := n.children[key]; ok {
		if l, ok := v.(*List); ok {
			return l
		}
	}
	l := &List{}
	n.Attribute(key, l)
	return l
}

// List is an ordered sequence of configuration values.
type List struct {
	items []any
}

// Append adds a value to the end of the list.
func (l *List) Append(v any) {
	l.items = append(l.items, v)
}

// AddNode appends a fresh node and returns it.
func (l *List) AddNode() *Node {
	n := NewNode()
	l.items = append(l.items, n)
	return n
}

// Len returns the number of items.
func (l *List) Len() int {
	return len(l.items)
}

// Items returns the underlying values.
func (l *List) Items() []any {
	return l.items
}

// MarshalJSON renders the node with keys in insertion order.
func (n *Node) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	if err := n.render(&buf, KeyFormatNone); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// MarshalJSON renders the list items in order.
func (l *List) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	if err := renderValue(&buf, l, KeyFormatNone); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Encode renders the node as JSON with the given key format. A positive
// indent produces pretty-printed output.
func (n *Node) Encode(format KeyFormat, indent int) ([]byte, error) {
	var buf bytes.Buffer
	if err := n.render(&buf, format); err != nil {
		return nil, err
	}
	if indent <= 0 {
		return buf.Bytes(), nil
	}
	var out bytes.Buffer
	if err := json.Indent(&out, buf.Bytes(), "", strings.Repeat(" ", indent)); err != nil {
		return nil, eris.Wrap(err, "failed to indent config")
	}
	return out.Bytes(), nil
}

func (n *Node) render(buf *bytes.Buffer, format KeyFormat) error {
	buf.WriteByte('{')
	for i, k := range n.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		kb, err := json.Marshal(format.Apply(k))
		if err != nil {
			return eris.Wrapf(err, "failed to encode key %q", k)
		}
		buf.Write(kb)
		buf.WriteByte(':')
		if err := renderValue(buf, n.children[k], format); err != nil {
			return err
		}
	}
	buf.WriteByte('}')
	return nil
}

func renderValue(buf *bytes.Buffer, v any, format KeyFormat) error {
	switch t := v.(type) {
	case *Node:
		return t.render(buf, format)
	case *List:
		buf.WriteByte('[')
		for i, item := range t.items {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := renderValue(buf, item, format); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
		return nil
	case []any:
		buf.WriteByte('[')
		for i, item := range t {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := renderValue(buf, item, format); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
		return nil
	default:
		b, err := json.Marshal(t)
		if err != nil {
			return eris.Wrapf(err, "failed to encode value %+v", v)
		}
		buf.Write(b)
		return nil
	}
}

// walk visits every key of the tree depth-first, including keys nested in
// lists. The path contains the key chain from the root.
func (n *Node) walk(path []string, fn func(path []string, value any)) {
	for _, k := range n.keys {
		v := n.children[k]
		p := append(append([]string{}, path...), k)
		fn(p, v)
		walkValue(p, v, fn)
	}
}

func walkValue(path []string, v any, fn func(path []string, value any)) {
	switch t := v.(type) {
	case *Node:
		t.walk(path, fn)
	case *List:
		for _, item := range t.items {
			walkValue(path, item, fn)
		}
	case []any:
		for _, item := range t {
			walkValue(path, item, fn)
		}
	}
}
