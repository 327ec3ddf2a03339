// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package mcpserver

import (
	"context"
	"encoding/json"
	"io"
	"os"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/modelcontextprotocol/go-sdk/jsonrpc"
	mcptransport "github.com/modelcontextprotocol/go-sdk/mcp"
)

func TestNewADKTransportBuilder_Defaults(t *testing.T) {
	t.Setenv("MCP_TRUST_CONFIG_FILE", "/from/env/config.json")

	builder := NewADKTransportBuilder()
	if builder.config.MCPConfigFile != "/from/env/config.json" {
		t.Errorf("MCPConfigFile = %q, want value from MCP_TRUST_CONFIG_FILE", builder.config.MCPConfigFile)
	}
	if builder.config.Version != "1.0.0" {
		t.Errorf("Version = %q, want 1.0.0", builder.config.Version)
	}
	if builder.config.TransportType != "inmemory" {
		t.Errorf("TransportType = %q, want inmemory", builder.config.TransportType)
	}
}

func TestADKTransportBuilder_WithVersion(t *testing.T) {
	tests := []struct {
		name         string
		version      string
		expectResult string
	}{
		{
			name:         "default version",
			version:      "",
			expectResult: "1.0.0", // Default version
		},
		{
			name:         "custom version",
			version:      "2.0.0",
			expectResult: "2.0.0",
		},
		{
			name:         "patch version",
			version:      "1.2.3",
			expectResult: "1.2.3",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			builder := NewADKTransportBuilder()
			if tt.version != "" {
				builder = builder.WithVersion(tt.version)
			}

			if builder.config.Version != tt.expectResult {
				t.Errorf("Expected version '%s', got '%s'", tt.expectResult, builder.config.Version)
			}
		})
	}
}

func TestADKTransportBuilder_WithMCPConfig(t *testing.T) {
	tests := []struct {
		name         string
		configFile   string
		expectResult string
	}{
		{
			name:         "custom config file",
			configFile:   "/custom/config.json",
			expectResult: "/custom/config.json",
		},
		{
			name:         "relative config file",
			configFile:   "config/local.json",
			expectResult: "config/local.json",
		},
		{
			name:         "empty config file",
			configFile:   "",
			expectResult: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			builder := NewADKTransportBuilder().
				WithMCPConfig(tt.configFile)

			if builder.config.MCPConfigFile != tt.expectResult {
				t.Errorf("Expected config file '%s', got '%s'", tt.expectResult, builder.config.MCPConfigFile)
			}
		})
	}
}

func TestADKTransportBuilder_WithInMemoryTransport(t *testing.T) {
	tests := []struct {
		name         string
		setup        func(*ADKTransportBuilder) *ADKTransportBuilder
		expectResult string
	}{
		{
			name: "set inmemory transport",
			setup: func(b *ADKTransportBuilder) *ADKTransportBuilder {
				return b.WithInMemoryTransport()
			},
			expectResult: "inmemory",
		},
		{
			name: "default transport type",
			setup: func(b *ADKTransportBuilder) *ADKTransportBuilder {
				return b // No transport set, but default is inmemory
			},
			expectResult: "inmemory", // Default is inmemory
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			builder := tt.setup(NewADKTransportBuilder())

			if builder.config.TransportType != tt.expectResult {
				t.Errorf("Expected transport type '%s', got '%s'", tt.expectResult, builder.config.TransportType)
			}
		})
	}
}

func TestADKTransportBuilder_ValidateConfig(t *testing.T) {
	tests := []struct {
		name          string
		transportType string
		expectError   bool
	}{
		{
			name:          "valid inmemory transport",
			transportType: "inmemory",
			expectError:   false,
		},
		{
			name:          "invalid transport type",
			transportType: "invalid",
			expectError:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			builder := NewADKTransportBuilder()
			builder.config.TransportType = tt.transportType

			err := builder.ValidateConfig()
			if tt.expectError && err == nil {
				t.Error("Expected error but got none")
			}
			if !tt.expectError && err != nil {
				t.Errorf("Expected no error but got: %v", err)
			}
		})
	}
}

func TestADKTransportBuilder_BuildTransport(t *testing.T) {
	os.Unsetenv("MCP_TRUST_CONFIG_FILE")
	os.Unsetenv("TRUST_AI_APIKEY")

	t.Run("builds inmemory transport", func(t *testing.T) {
		ctx := t.Context()

		transport, err := NewADKTransportBuilder().
			WithInMemoryTransport().
			WithVersion("1.0.0-test").
			BuildTransport(ctx)
		if err != nil {
			t.Fatalf("BuildTransport failed: %v", err)
		}
		if transport == nil {
			t.Fatal("Expected a transport")
		}

		conn, err := transport.Connect(ctx)
		if err != nil {
			t.Fatalf("Connect failed: %v", err)
		}
		if conn.SessionID() != "in-memory-transport" {
			t.Errorf("SessionID = %q, want in-memory-transport", conn.SessionID())
		}
		if err := conn.Close(); err != nil {
			t.Errorf("Close failed: %v", err)
		}
	})

	t.Run("rejects unknown transport type", func(t *testing.T) {
		builder := NewADKTransportBuilder()
		builder.config.TransportType = "grpc"

		if _, err := builder.BuildTransport(t.Context()); err == nil {
			t.Fatal("Expected error for unknown transport type")
		} else if !contains(err.Error(), "unsupported transport type: grpc") {
			t.Errorf("Unexpected error: %v", err)
		}
	})

	t.Run("rejects unreadable config file", func(t *testing.T) {
		builder := NewADKTransportBuilder().
			WithMCPConfig("/nonexistent/adk-config.json")

		if _, err := builder.BuildTransport(t.Context()); err == nil {
			t.Fatal("Expected error for nonexistent config file")
		} else if !contains(err.Error(), "failed to load MCP config") {
			t.Errorf("Unexpected error: %v", err)
		}
	})
}

// newEchoServer builds a minimal MCP server with a single echo tool for
// transport round-trip tests.
func newEchoServer() *server.MCPServer {
	s := server.NewMCPServer(
		"Test Server",
		"1.0.0",
		server.WithToolCapabilities(true),
	)

	echoTool := mcp.NewTool("test_tool",
		mcp.WithDescription("Test tool for transport"),
		mcp.WithString("message",
			mcp.Required(),
			mcp.Description("Message to echo"),
		),
	)

	s.AddTool(echoTool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := request.Params.Arguments.(map[string]any)
		msg := args["message"].(string)
		return &mcp.CallToolResult{
			Content: []mcp.Content{
				mcp.NewTextContent("Echo: " + msg),
			},
		}, nil
	})

	return s
}

func TestInMemoryTransport_JSONRPC(t *testing.T) {
	tests := []struct {
		name          string
		request       map[string]any
		expectID      float64
		expectContent string
		expectError   string
	}{
		{
			name: "tools/call request",
			request: map[string]any{
				"jsonrpc": "2.0",
				"method":  "tools/call",
				"params": map[string]any{
					"name": "test_tool",
					"arguments": map[string]any{
						"message": "Hello World",
					},
				},
				"id": 3,
			},
			expectID:      3,
			expectContent: "Echo: Hello World",
		},
		{
			name: "unsupported method",
			request: map[string]any{
				"jsonrpc": "2.0",
				"method":  "bogus/method",
				"id":      4,
			},
			expectID:    4,
			expectError: "method not supported",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := t.Context()

			transport := NewInMemoryTransport(ctx)
			if err := transport.ConnectServer(ctx, newEchoServer()); err != nil {
				t.Fatalf("Failed to connect server: %v", err)
			}
			defer transport.Close()

			data, err := json.Marshal(tt.request)
			if err != nil {
				t.Fatalf("Failed to marshal request: %v", err)
			}
			if err := transport.WriteMessage(data); err != nil {
				t.Fatalf("Failed to write message: %v", err)
			}

			// ReadMessage blocks until the response is processed
			respData, err := transport.ReadMessage()
			if err != nil {
				t.Fatalf("Failed to read response: %v", err)
			}

			var resp map[string]any
			if err := json.Unmarshal(respData, &resp); err != nil {
				t.Fatalf("Failed to unmarshal response: %v", err)
			}

			if resp["id"].(float64) != tt.expectID {
				t.Errorf("Expected id %v, got %v", tt.expectID, resp["id"])
			}

			if tt.expectError != "" {
				respErr, ok := resp["error"].(map[string]any)
				if !ok {
					t.Fatalf("Expected error response, got: %s", string(respData))
				}
				if message, ok := respErr["message"].(string); !ok || !contains(message, tt.expectError) {
					t.Errorf("Error message = %v, want contains %q", respErr["message"], tt.expectError)
				}
				return
			}

			result, ok := resp["result"].(map[string]any)
			if !ok {
				t.Fatalf("Expected result in response, got: %s", string(respData))
			}
			content, ok := result["content"].([]any)
			if !ok || len(content) == 0 {
				t.Fatal("Expected content in result")
			}
			textContent := content[0].(map[string]any)
			if textContent["text"] != tt.expectContent {
				t.Errorf("Expected '%s', got %v", tt.expectContent, textContent["text"])
			}
		})
	}
}

func TestADKTransportConnection(t *testing.T) {
	ctx := t.Context()

	transport := NewInMemoryTransport(ctx)

	// Connect transport to server (this is what BuildInMemoryTransport does)
	if err := transport.ConnectServer(ctx, newEchoServer()); err != nil {
		t.Fatalf("Failed to connect server: %v", err)
	}

	// Test Connect method returns ADKTransportConnection
	conn, err := transport.Connect(ctx)
	if err != nil {
		t.Fatalf("Failed to connect: %v", err)
	}
	if conn == nil {
		t.Fatal("Connect returned nil connection")
	}

	t.Run("session ID is correct", func(t *testing.T) {
		if sessionID := conn.SessionID(); sessionID != "in-memory-transport" {
			t.Errorf("Expected session ID 'in-memory-transport', got '%s'", sessionID)
		}
	})

	t.Run("write and read round-trip", func(t *testing.T) {
		requestData, err := json.Marshal(map[string]any{
			"jsonrpc": "2.0",
			"method":  "tools/list",
			"id":      1,
		})
		if err != nil {
			t.Fatalf("Failed to marshal request: %v", err)
		}

		jsonrpcMsg, err := jsonrpc.DecodeMessage(requestData)
		if err != nil {
			t.Fatalf("Failed to decode message: %v", err)
		}
		if err := conn.Write(ctx, jsonrpcMsg); err != nil {
			t.Fatalf("Write returned unexpected error: %v", err)
		}

		// Drain the response so nothing is queued when the connection closes
		respMsg, err := conn.Read(ctx)
		if err != nil {
			t.Fatalf("Read failed: %v", err)
		}
		respData, err := jsonrpc.EncodeMessage(respMsg)
		if err != nil {
			t.Fatalf("Failed to encode response: %v", err)
		}

		var resp map[string]any
		if err := json.Unmarshal(respData, &resp); err != nil {
			t.Fatalf("Failed to unmarshal response: %v", err)
		}
		if resp["id"].(float64) != 1 {
			t.Errorf("Expected id 1, got %v", resp["id"])
		}
		if resp["result"] == nil {
			t.Errorf("Expected tools/list result, got: %s", string(respData))
		}
	})

	t.Run("close method works", func(t *testing.T) {
		if err := conn.Close(); err != nil {
			t.Errorf("Failed to close connection: %v", err)
		}
	})

	t.Run("read fails after close", func(t *testing.T) {
		if _, err := conn.Read(ctx); err != io.EOF {
			t.Errorf("Expected EOF when reading from closed connection, got %v", err)
		}
	})
}

// Interface satisfaction is part of the ADK contract.
var _ mcptransport.Transport = (*InMemoryTransport)(nil)
var _ mcptransport.Connection = (*ADKTransportConnection)(nil)
