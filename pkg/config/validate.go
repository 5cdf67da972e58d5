// Copyright (c) 2023 Chernenkiy Ivan, Sechenov University
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

package config

import (
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sechenov/monaibuilder/pkg/check"
)

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.Check.MaxLineLength < 0 {
		return eris.Errorf("check.max_line_length must not be negative, got %d", c.Check.MaxLineLength)
	}

	known := toSet(check.KnownStepNames())
	for _, name := range c.Check.Disable {
		if !known[name] {
			return eris.Errorf("check.disable: unknown step %q (known steps: %s)",
				name, strings.Join(check.KnownStepNames(), ", "))
		}
	}

	events := toSet(check.KnownHookEvents())
	for event := range c.Check.Hooks {
		if !events[event] {
			return eris.Errorf("check.hooks: unknown event %q (known events: %s)",
				event, strings.Join(check.KnownHookEvents(), ", "))
		}
	}

	return nil
}

func toSet(items []string) map[string]bool {
	set := make(map[string]bool, len(items))
	for _, item := range items {
		set[item] = true
	}
	return set
}
