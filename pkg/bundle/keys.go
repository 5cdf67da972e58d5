// Copyright (c) 2023 Chernenkiy Ivan, Sechenov University
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

package bundle

import (
	"strings"
	"unicode"
)

// KeyFormat controls how configuration keys are normalized when a config is
// rendered.
type KeyFormat int

const (
	// KeyFormatNone leaves keys untouched.
	KeyFormatNone KeyFormat = iota
	// KeyFormatSnake rewrites camelCase keys as snake_case.
	KeyFormatSnake
	// KeyFormatCamel rewrites snake_case keys as camelCase.
	KeyFormatCamel
)

// Apply normalizes a single key.
func (f KeyFormat) Apply(key string) string {
	switch f {
	case KeyFormatSnake:
		return toSnake(key)
	case KeyFormatCamel:
		return toCamel(key)
	default:
		return key
	}
}

func toSnake(key string) string {
	var b strings.Builder
	for i, r := range key {
		if unicode.IsUpper(r) {
			if i > 0 && key[i-1] != '_' {
				b.WriteByte('_')
			}
			b.WriteRune(unicode.ToLower(r))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func toCamel(key string) string {
	parts := strings.Split(key, "_")
	var b strings.Builder
	for i, p := range parts {
		if p == "" {
			continue
		}
		if i == 0 {
			b.WriteString(p)
			continue
		}
		b.WriteString(strings.ToUpper(p[:1]))
		b.WriteString(p[1:])
	}
	return b.String()
}
