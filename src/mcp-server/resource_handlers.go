// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/H0llyW00dzZ/tls-server-trust/src/mcp-server/templates"
	"github.com/H0llyW00dzZ/tls-server-trust/src/version"
	"github.com/mark3labs/mcp-go/mcp"
)

// handleConfigResource handles requests for the configuration template resource.
// It provides a JSON template showing the expected configuration structure for the MCP server.
//
// Parameters:
//   - ctx: Context for cancellation and timeout handling
//   - request: MCP resource read request for the config template
//
// Returns:
//   - A slice containing the configuration template as JSON content
//   - An error if JSON marshaling fails
//
// The resource provides default values for timeoutSeconds, policyFile, revocation, format,
// and the AI integration block.
func handleConfigResource(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	exampleConfig := map[string]any{
		"defaults": map[string]any{
			"timeoutSeconds": 30,
			"policyFile":     "policies.yaml",
			"revocation":     []string{"any"},
			"format":         "report",
		},
		"ai": map[string]any{
			"apiKey":      "",
			"endpoint":    "https://api.x.ai",
			"model":       "grok-4-1-fast-non-reasoning",
			"timeout":     30,
			"maxTokens":   4096,
			"temperature": 0.3,
		},
	}

	jsonData, err := json.MarshalIndent(exampleConfig, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal config template: %w", err)
	}

	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      "config://template",
			MIMEType: "application/json",
			Text:     string(jsonData),
		},
	}, nil
}

// handleVersionResource handles requests for version information resource.
// It provides server metadata including version, capabilities, and supported features.
//
// Parameters:
//   - ctx: Context for cancellation and timeout handling
//   - request: MCP resource read request for version information
//
// Returns:
//   - A slice containing version and capability information as JSON content
//   - An error if JSON marshaling fails
//
// The resource includes server name, version, and the tools, resources, and prompts
// registered with the server, loaded dynamically from the metadata cache populated
// during server initialization.
func handleVersionResource(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	// Load capabilities dynamically from the metadata cache
	prompts, err := loadPromptsConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load prompts config: %w", err)
	}

	tools, err := loadToolsConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load tools config: %w", err)
	}

	resources, err := loadResourcesConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load resources config: %w", err)
	}

	versionInfo := map[string]any{
		"name":    "TLS Server Trust Evaluator",
		"version": version.Version,
		"type":    "MCP Server",
		"capabilities": map[string]any{
			"tools":     tools,     // Loaded from the metadata cache
			"resources": resources, // Loaded from the metadata cache
			"prompts":   prompts,   // Loaded from the metadata cache
		},
		"policyVariants":   []string{"default", "revoked", "pinned-certs", "pinned-keys", "disabled"},
		"supportedFormats": reportFormats,
	}

	jsonData, err := json.MarshalIndent(versionInfo, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal version info: %w", err)
	}

	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      "info://version",
			MIMEType: "application/json",
			Text:     string(jsonData),
		},
	}, nil
}

// handlePolicyFormatsResource handles requests for trust policy format documentation.
// It serves embedded documentation about policy file structure, policy variants, and
// pin bundle layout.
//
// Parameters:
//   - ctx: Context for cancellation and timeout handling
//   - request: MCP resource read request for policy format documentation
//   - embed: Embedded filesystem holding the documentation
//
// Returns:
//   - A slice containing the policy format documentation as markdown content
//   - An error if the embedded file cannot be read
//
// The documentation is stored in templates/trust-policy-formats.md and covers
// the YAML/JSON policy file schema, the five policy variants, and how pin
// bundle directories are loaded.
func handlePolicyFormatsResource(ctx context.Context, request mcp.ReadResourceRequest, embed templates.EmbedFS) ([]mcp.ResourceContents, error) {
	content, err := embed.ReadFile("trust-policy-formats.md")
	if err != nil {
		return nil, fmt.Errorf("failed to read trust policy formats template: %w", err)
	}

	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      "docs://trust-policy-formats",
			MIMEType: "text/markdown",
			Text:     string(content),
		},
	}, nil
}

// handleStatusResource handles requests for server status information resource.
// It provides current server health, version, and operational status.
//
// Parameters:
//   - ctx: Context for cancellation and timeout handling
//   - request: MCP resource read request for server status
//
// Returns:
//   - A slice containing server status information as JSON content
//   - An error if JSON marshaling fails
//
// The status includes server health, timestamp, version, and the registered
// capabilities (tools, resources, prompts) loaded dynamically from the
// metadata cache populated during server initialization.
func handleStatusResource(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	// Load capabilities dynamically from the metadata cache
	prompts, err := loadPromptsConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load prompts config: %w", err)
	}

	tools, err := loadToolsConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load tools config: %w", err)
	}

	resources, err := loadResourcesConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load resources config: %w", err)
	}

	statusInfo := map[string]any{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"server":    "TLS Server Trust Evaluator MCP Server",
		"version":   version.Version,
		"capabilities": map[string]any{
			"tools":     tools,     // Loaded from the metadata cache
			"resources": resources, // Loaded from the metadata cache
			"prompts":   prompts,   // Loaded from the metadata cache
		},
		"policyVariants":   []string{"default", "revoked", "pinned-certs", "pinned-keys", "disabled"},
		"supportedFormats": reportFormats,
	}

	jsonData, err := json.MarshalIndent(statusInfo, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal status info: %w", err)
	}

	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      "status://server-status",
			MIMEType: "application/json",
			Text:     string(jsonData),
		},
	}, nil
}
