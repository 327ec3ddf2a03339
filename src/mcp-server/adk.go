// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package mcpserver

import (
	"context"
	"fmt"
	"os"

	mcptransport "github.com/modelcontextprotocol/go-sdk/mcp"
)

// ADKTransportConfig describes the transport an ADK toolset connects through.
//
// The built transports satisfy the [Official MCP SDK] Transport interface, so they
// plug straight into [mcptoolset.New] from [Google ADK].
//
// Example usage with ADK:
//
//	transport, err := NewADKTransportBuilder().WithInMemoryTransport().BuildTransport(ctx)
//	mcpToolSet, err := mcptoolset.New(mcptoolset.Config{Transport: transport})
//
// [Official MCP SDK]: https://pkg.go.dev/github.com/modelcontextprotocol/go-sdk
// [Google ADK]: https://pkg.go.dev/google.golang.org/adk
type ADKTransportConfig struct {
	// Server configuration file handed to loadConfig; empty means defaults
	MCPConfigFile string
	Version       string

	// Transport type; only "inmemory" is supported
	TransportType string
}

// ADKTransportBuilder assembles the MCP transport embedded agents run the
// trust server behind.
type ADKTransportBuilder struct{ config ADKTransportConfig }

// NewADKTransportBuilder returns a builder seeded from the environment:
// the config file path comes from MCP_TRUST_CONFIG_FILE when it is set.
func NewADKTransportBuilder() *ADKTransportBuilder {
	return &ADKTransportBuilder{
		config: ADKTransportConfig{
			MCPConfigFile: os.Getenv("MCP_TRUST_CONFIG_FILE"),
			Version:       "1.0.0",
			TransportType: "inmemory",
		},
	}
}

// WithMCPConfig overrides the server configuration file path.
func (b *ADKTransportBuilder) WithMCPConfig(configFile string) *ADKTransportBuilder {
	b.config.MCPConfigFile = configFile
	return b
}

// WithVersion sets the version the server reports to the agent.
func (b *ADKTransportBuilder) WithVersion(version string) *ADKTransportBuilder {
	b.config.Version = version
	return b
}

// WithInMemoryTransport selects the in-memory transport, which connects the
// agent directly to the handlers with no child process.
func (b *ADKTransportBuilder) WithInMemoryTransport() *ADKTransportBuilder {
	b.config.TransportType = "inmemory"
	return b
}

// ValidateConfig rejects transport types BuildTransport cannot build.
func (b *ADKTransportBuilder) ValidateConfig() error {
	switch b.config.TransportType {
	case "inmemory":
		return nil
	default:
		return fmt.Errorf("unsupported transport type: %s", b.config.TransportType)
	}
}

// BuildTransport creates an MCP transport for ADK integration
//
// The trust evaluation server is built behind the transport using the
// [mark3labs/mcp-go] server stack, then bridged to the [Official MCP SDK]
// Transport interface that ADK expects.
//
// [mark3labs/mcp-go]: https://github.com/mark3labs/mcp-go
// [Official MCP SDK]: https://pkg.go.dev/github.com/modelcontextprotocol/go-sdk
func (b *ADKTransportBuilder) BuildTransport(ctx context.Context) (mcptransport.Transport, error) {
	if err := b.ValidateConfig(); err != nil {
		return nil, err
	}

	switch b.config.TransportType {
	case "inmemory":
		return b.buildInMemoryTransport(ctx)
	default:
		return nil, fmt.Errorf("unsupported transport type: %s", b.config.TransportType)
	}
}

// buildInMemoryTransport assembles the trust server behind an in-memory
// transport. Server construction stays in TransportBuilder so this path
// and the stdio path register the same tools from the same code.
func (b *ADKTransportBuilder) buildInMemoryTransport(ctx context.Context) (mcptransport.Transport, error) {
	config, err := loadConfig(b.config.MCPConfigFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load MCP config: %w", err)
	}

	transportBuilder := NewTransportBuilder().
		WithConfig(config).
		WithVersion(b.config.Version).
		WithSessionFactory(DefaultSessionFactory{}).
		WithSamplingHandler(NewDefaultSamplingHandler(config, b.config.Version)).
		WithDefaultTools()

	return transportBuilder.BuildInMemoryTransport(ctx)
}
