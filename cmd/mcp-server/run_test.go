// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package main

import (
	"testing"

	"github.com/H0llyW00dzZ/tls-server-trust/src/mcp-server"
	"github.com/stretchr/testify/assert"
)

func TestVersionInit(t *testing.T) {
	assert.NotEmpty(t, version, "version should not be empty after init")

	// The server binary and the library report the same version unless
	// ldflags injected a release override.
	if version != mcpserver.GetVersion() {
		t.Logf("version injected at link time: %s (server version: %s)", version, mcpserver.GetVersion())
	}
}

func TestServerVersionDefault(t *testing.T) {
	// RunCLI stamps this version into the info://version resource, so the
	// binary must never start with an empty one.
	assert.NotEmpty(t, mcpserver.GetVersion())
	assert.NotContains(t, mcpserver.GetVersion(), " ")
}
