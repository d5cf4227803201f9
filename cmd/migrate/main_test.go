package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRun_RejectsArgumentsBeforeConnecting(t *testing.T) {
	var out bytes.Buffer
	// The config path does not exist, so reaching the loader would fail differently.
	err := run(&out, "/nonexistent.yaml", "sideways", 0, -1)
	assert.ErrorContains(t, err, `unknown direction "sideways"`)

	err = run(&out, "/nonexistent.yaml", "force", 0, -1)
	assert.ErrorContains(t, err, "force needs -version")
	assert.Empty(t, out.String())
}

func TestRun_MissingConfig(t *testing.T) {
	var out bytes.Buffer
	assert.Error(t, run(&out, "/nonexistent.yaml", "status", 0, -1))
}
