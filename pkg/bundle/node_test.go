// Copyright (c) 2023 Chernenkiy Ivan, Sechenov University
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

package bundle

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNodeKeepsInsertionOrder(t *testing.T) {
	n := NewNode()
	n.Attribute("zeta", 1)
	n.Attribute("alpha", 2)
	n.Attribute("mid", 3)

	data, err := json.Marshal(n)
	require.NoError(t, err)
	require.Equal(t, `{"zeta":1,"alpha":2,"mid":3}`, string(data))
}

func TestNodeOverwriteKeepsPosition(t *testing.T) {
	n := NewNode()
	n.Attribute("a", 1)
	n.Attribute("b", 2)
	n.Attribute("a", 10)

	data, err := json.Marshal(n)
	require.NoError(t, err)
	require.Equal(t, `{"a":10,"b":2}`, string(data))
}

func TestNodeReopensExistingChild(t *testing.T) {
	n := NewNode()
	n.Node("train").Attribute("dataset", "x")
	n.Node("train").Attribute("dataloader", "y")

	train := n.Node("train")
	require.True(t, train.Has("dataset"))
	require.True(t, train.Has("dataloader"))
	require.Equal(t, []string{"train"}, n.Keys())
}

func TestListReopensAndAppends(t *testing.T) {
	n := NewNode()
	n.List("handlers").Append("first")
	n.List("handlers").Append("second")

	require.Equal(t, 2, n.List("handlers").Len())

	data, err := json.Marshal(n)
	require.NoError(t, err)
	require.Equal(t, `{"handlers":["first","second"]}`, string(data))
}

func TestEncodeAppliesKeyFormat(t *testing.T) {
	n := NewNode()
	n.Attribute("maxEpochs", 10)
	child := n.Node("trainConfig")
	child.Attribute("learningRate", 0.001)

	data, err := n.Encode(KeyFormatSnake, 0)
	require.NoError(t, err)
	require.Equal(t, `{"max_epochs":10,"train_config":{"learning_rate":0.001}}`, string(data))
}

func TestEncodeIndents(t *testing.T) {
	n := NewNode()
	n.Attribute("a", 1)

	data, err := n.Encode(KeyFormatNone, 4)
	require.NoError(t, err)
	require.Equal(t, "{\n    \"a\": 1\n}", string(data))
}

func TestKeyFormats(t *testing.T) {
	tests := []struct {
		format KeyFormat
		in     string
		want   string
	}{
		{KeyFormatNone, "maxEpochs", "maxEpochs"},
		{KeyFormatSnake, "maxEpochs", "max_epochs"},
		{KeyFormatSnake, "already_snake", "already_snake"},
		{KeyFormatSnake, "_target_", "_target_"},
		{KeyFormatCamel, "max_epochs", "maxEpochs"},
		{KeyFormatCamel, "plain", "plain"},
	}

	for _, tt := range tests {
		if got := tt.format.Apply(tt.in); got != tt.want {
			t.Errorf("Apply(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
