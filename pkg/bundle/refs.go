// Copyright (c) 2023 Chernenkiy Ivan, Sechenov University
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

package bundle

import (
	"regexp"
	"sort"
	"strings"

	"github.com/rotisserie/eris"
)

// MONAI config string prefixes and the id path separator.
const (
	ExprPrefix  = "$"
	RefPrefix   = "@"
	MacroPrefix = "%"
	PathSep     = "#"
)

// IsExpression reports whether the value is an evaluated expression ("$...").
func IsExpression(s string) bool {
	return strings.HasPrefix(s, ExprPrefix)
}

// IsReference reports whether the value is an id reference ("@...").
func IsReference(s string) bool {
	return strings.HasPrefix(s, RefPrefix)
}

// IsMacro reports whether the value is a macro ("%...").
func IsMacro(s string) bool {
	return strings.HasPrefix(s, MacroPrefix)
}

// Ref is a parsed id reference such as "@train#dataloader".
type Ref struct {
	Parts []string
}

// ID returns the full id path joined with "#".
func (r Ref) ID() string {
	return strings.Join(r.Parts, PathSep)
}

// ParseRef parses an "@" id reference.
func ParseRef(s string) (Ref, error) {
	if !IsReference(s) {
		return Ref{}, eris.Errorf("%q is not an id reference", s)
	}
	body := strings.TrimPrefix(s, RefPrefix)
	if body == "" {
		return Ref{}, eris.New("empty id reference")
	}
	parts := strings.Split(body, PathSep)
	for _, p := range parts {
		if p == "" {
			return Ref{}, eris.Errorf("malformed id reference %q", s)
		}
	}
	return Ref{Parts: parts}, nil
}

var refPattern = regexp.MustCompile(`@[A-Za-z_][A-Za-z0-9_/]*(?:#[A-Za-z_][A-Za-z0-9_/]*)*`)

// ExtractRefs returns every id reference found in a config string. For plain
// "@id" values this is the value itself; for "$..." expressions every
// embedded "@id" token is returned.
func ExtractRefs(s string) []Ref {
	if !IsReference(s) && !IsExpression(s) {
		return nil
	}
	matches := refPattern.FindAllString(s, -1)
	refs := make([]Ref, 0, len(matches))
	for _, m := range matches {
		ref, err := ParseRef(m)
		if err != nil {
			continue
		}
		refs = append(refs, ref)
	}
	return refs
}

// ValidateRefs walks the config tree and verifies that every "@" reference
// resolves to an id defined in the tree. The returned error lists all
// dangling references.
func ValidateRefs(root *Node) error {
	ids := make(map[string]bool)
	root.walk(nil, func(path []string, _ any) {
		ids[strings.Join(path, PathSep)] = true
	})

	dangling := make(map[string]bool)
	root.walk(nil, func(_ []string, value any) {
		switch t := value.(type) {
		case string:
			collectDangling(t, ids, dangling)
		case []string:
			for _, item := range t {
				collectDangling(item, ids, dangling)
			}
		case []any:
			for _, item := range t {
				if s, ok := item.(string); ok {
					collectDangling(s, ids, dangling)
				}
			}
		case *List:
			for _, item := range t.items {
				if s, ok := item.(string); ok {
					collectDangling(s, ids, dangling)
				}
			}
		}
	})

	if len(dangling) == 0 {
		return nil
	}
	names := make([]string, 0, len(dangling))
	for id := range dangling {
		names = append(names, RefPrefix+id)
	}
	sort.Strings(names)
	return eris.Errorf("unresolved references: %s", strings.Join(names, ", "))
}

func collectDangling(s string, ids, dangling map[string]bool) {
	for _, ref := range ExtractRefs(s) {
		if !ids[ref.ID()] {
			dangling[ref.ID()] = true
		}
	}
}
