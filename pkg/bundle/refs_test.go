// Copyright (c) 2023 Chernenkiy Ivan, Sechenov University
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

package bundle

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseRef(t *testing.T) {
	tests := []struct {
		in      string
		want    []string
		wantErr bool
	}{
		{in: "@device", want: []string{"device"}},
		{in: "@train#dataloader", want: []string{"train", "dataloader"}},
		{in: "@train#key_metric#train/accuracy", want: []string{"train", "key_metric", "train/accuracy"}},
		{in: "device", wantErr: true},
		{in: "@", wantErr: true},
		{in: "@train##dataloader", wantErr: true},
	}

	for _, tt := range tests {
		ref, err := ParseRef(tt.in)
		if tt.wantErr {
			if err == nil {
				t.Errorf("ParseRef(%q) expected error", tt.in)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseRef(%q) failed: %v", tt.in, err)
			continue
		}
		require.Equal(t, tt.want, ref.Parts, "ParseRef(%q)", tt.in)
	}
}

func TestExtractRefs(t *testing.T) {
	refs := ExtractRefs("$@train#deterministic_transforms + @train#random_transforms")
	require.Len(t, refs, 2)
	require.Equal(t, "train#deterministic_transforms", refs[0].ID())
	require.Equal(t, "train#random_transforms", refs[1].ID())

	refs = ExtractRefs("@network")
	require.Len(t, refs, 1)
	require.Equal(t, "network", refs[0].ID())

	// Plain strings are never scanned, even if they contain an "@".
	require.Empty(t, ExtractRefs("user@example.com"))

	// Member access on a reference ends the id token.
	refs = ExtractRefs("$@network_def.to(@device)")
	require.Len(t, refs, 2)
	require.Equal(t, "network_def", refs[0].ID())
	require.Equal(t, "device", refs[1].ID())
}

func TestStringKinds(t *testing.T) {
	require.True(t, IsExpression("$import glob"))
	require.True(t, IsReference("@device"))
	require.True(t, IsMacro("%configs/train.json"))
	require.False(t, IsExpression("@device"))
}

func TestValidateRefs(t *testing.T) {
	root := NewNode()
	root.Attribute("device", "cpu")
	train := root.Node("train")
	train.Attribute("dataloader", "$@device + @missing")
	train.List("handlers").Append("@train#dataloader")
	root.Attribute("run", []string{"$@train#trainer.run()"})

	err := ValidateRefs(root)
	require.Error(t, err)
	require.Contains(t, err.Error(), "@missing")
	require.Contains(t, err.Error(), "@train#trainer")
	require.NotContains(t, err.Error(), "@train#dataloader")

	train.Node("trainer")
	train.Attribute("dataloader", "$@device")
	require.NoError(t, ValidateRefs(root))
}
