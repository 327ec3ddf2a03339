// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package mcpserver

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"crypto/x509"

	"github.com/H0llyW00dzZ/tls-server-trust/src/internal/helper/gc"
	"github.com/H0llyW00dzZ/tls-server-trust/src/internal/x509/probe"
	"github.com/H0llyW00dzZ/tls-server-trust/src/internal/x509/trust"
	"github.com/H0llyW00dzZ/tls-server-trust/src/mcp-server/templates"
	"github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// CertificateManager defines the interface for certificate operations.
// It provides methods for encoding and decoding certificates in various formats.
//
// Methods:
//   - Decode: Parses a single certificate from PEM or DER data
//   - DecodeMultiple: Parses multiple certificates from concatenated PEM data
//   - EncodePEM: Encodes a certificate to PEM format
//   - EncodeMultiplePEM: Encodes multiple certificates to concatenated PEM format
//   - EncodeDER: Encodes a certificate to DER format
//   - EncodeMultipleDER: Encodes multiple certificates to concatenated DER format
//
// Example usage:
//
//	cert, err := manager.Decode(pemData)
//	if err != nil {
//	    return err
//	}
//	pemBytes := manager.EncodePEM(cert)
type CertificateManager interface {
	Decode(data []byte) (*x509.Certificate, error)
	DecodeMultiple(data []byte) ([]*x509.Certificate, error)
	EncodePEM(cert *x509.Certificate) []byte
	EncodeMultiplePEM(certs []*x509.Certificate) []byte
	EncodeDER(cert *x509.Certificate) []byte
	EncodeMultipleDER(certs []*x509.Certificate) []byte
}

// SessionFactory defines the interface for creating trust evaluation sessions.
// It provides the seam through which tools obtain probe sessions bound to a
// policy registry and fallback policy.
//
// Methods:
//   - New: Creates a probe session from a registry and fallback policy
//
// Example usage:
//
//	factory := DefaultSessionFactory{}
//	session := factory.New(registry, trust.Default(true))
type SessionFactory interface {
	New(registry *trust.Registry, fallback trust.Policy) *probe.Session
}

// DefaultSessionFactory implements SessionFactory using [probe.NewSession].
// It provides the default implementation that binds sessions to the shared
// revocation checker.
//
// This implementation is used when no custom session factory is provided to the server builder.
type DefaultSessionFactory struct{}

// New creates a trust evaluation session using [probe.NewSession].
// It takes a policy registry and a fallback policy for unregistered hosts.
//
// Parameters:
//   - registry: Host-to-policy assignments, may be nil for fallback-only sessions
//   - fallback: Policy applied to hosts without a registry entry (nil means standard validation)
//
// Returns:
//   - A pointer to the newly created probe session
//
// The returned session can probe live endpoints, fetch presented chains,
// and evaluate them under the governing trust policy.
func (d DefaultSessionFactory) New(registry *trust.Registry, fallback trust.Policy) *probe.Session {
	return probe.NewSession(registry, fallback)
}

// ToolHandler defines the signature for tool handlers that matches [MCP] server expectations.
// It processes tool calls and returns results.
//
// Parameters:
//   - ctx: Context for cancellation and timeout handling
//   - request: The MCP tool call request containing arguments and metadata
//
// Returns:
//   - The tool execution result or an error if the tool failed
//
// [MCP]: https://modelcontextprotocol.io/docs/getting-started/intro
type ToolHandler = func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error)

// ToolHandlerWithConfig defines tool handlers that require access to server configuration.
// It extends ToolHandler to include a Config parameter for tools that need configuration data.
//
// Parameters:
//   - ctx: Context for cancellation and timeout handling
//   - request: The MCP tool call request containing arguments and metadata
//   - config: Pointer to the server configuration containing AI settings and other options
//
// Returns:
//   - The tool execution result or an error if the tool failed
//
// This type is used for tools that need access to configuration like AI API keys or timeouts.
type ToolHandlerWithConfig func(ctx context.Context, request mcp.CallToolRequest, config *Config) (*mcp.CallToolResult, error)

// ResourceHandler defines the signature for resource handlers that provide static or dynamic resources.
// It processes resource read requests and returns the resource contents.
//
// Parameters:
//   - ctx: Context for cancellation and timeout handling
//   - request: The MCP resource read request containing the resource URI
//
// Returns:
//   - A slice of resource contents or an error if the resource cannot be read
//
// Resource handlers can return multiple content items for complex resources.
type ResourceHandler = func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error)

// ResourceHandlerWithEmbed defines resource handlers that need embedded filesystem access.
// It extends ResourceHandler with an EmbedFS parameter for resources serving embedded content.
type ResourceHandlerWithEmbed = func(ctx context.Context, request mcp.ReadResourceRequest, embed templates.EmbedFS) ([]mcp.ResourceContents, error)

// PromptHandler defines the signature for prompt handlers that provide predefined prompts.
// It processes prompt requests and returns prompt content with optional arguments.
//
// Parameters:
//   - ctx: Context for cancellation and timeout handling
//   - request: The MCP prompt request containing the prompt name and arguments
//
// Returns:
//   - The prompt result containing messages and description, or an error if the prompt is not found
//
// Prompt handlers are used for guided workflows like trust evaluation or revocation audits.
type PromptHandler = func(ctx context.Context, request mcp.GetPromptRequest) (*mcp.GetPromptResult, error)

// PromptHandlerWithEmbed defines prompt handlers that need embedded filesystem access.
// It extends PromptHandler with an EmbedFS parameter for prompts rendered from embedded templates.
type PromptHandlerWithEmbed = func(ctx context.Context, request mcp.GetPromptRequest, embed templates.EmbedFS) (*mcp.GetPromptResult, error)

// ServerResource pairs an MCP resource specification with its handler.
// It aliases the mcp-go server type so resource lists compose with the builder.
type ServerResource = server.ServerResource

// ServerPrompt pairs an MCP prompt specification with its handler.
// It aliases the mcp-go server type so prompt lists compose with the builder.
type ServerPrompt = server.ServerPrompt

// ServerResourceWithEmbed holds a resource definition whose handler reads from
// the embedded filesystem. The builder binds the configured EmbedFS when
// registering the resource.
type ServerResourceWithEmbed struct {
	Resource mcp.Resource
	Handler  ResourceHandlerWithEmbed
}

// ServerPromptWithEmbed holds a prompt definition whose handler renders from
// the embedded filesystem. The builder binds the configured EmbedFS when
// registering the prompt.
type ServerPromptWithEmbed struct {
	Prompt  mcp.Prompt
	Handler PromptHandlerWithEmbed
}

// ToolDefinition holds a tool definition and its handler.
// It pairs an MCP tool specification with its implementation function.
//
// Fields:
//   - Tool: The MCP tool definition containing name, description, and input schema
//   - Handler: The function that implements the tool's logic
//   - Role: Workflow role name used when rendering instruction templates
//
// This struct is used when registering tools that don't require configuration access.
type ToolDefinition struct {
	Tool    mcp.Tool
	Handler ToolHandler
	Role    string
}

// ToolDefinitionWithConfig holds a tool definition that requires configuration access.
// It pairs an MCP tool specification with a handler that receives server configuration.
//
// Fields:
//   - Tool: The MCP tool definition containing name, description, and input schema
//   - Handler: The function that implements the tool's logic with config access
//   - Role: Workflow role name used when rendering instruction templates
//
// This struct is used for tools that need configuration like AI API keys or timeouts.
// The handler receives a Config parameter in addition to the standard context and request.
type ToolDefinitionWithConfig struct {
	Tool    mcp.Tool
	Handler ToolHandlerWithConfig
	Role    string
}

// ServerDependencies holds all dependencies needed to create the MCP server.
// It consolidates all required components for server initialization using the builder pattern.
//
// Fields:
//   - Config: Server configuration containing AI settings and other options
//   - Embed: Embedded filesystem for static resources and templates
//   - Version: Server version string for User-Agent headers and identification
//   - CertManager: Interface for certificate encoding/decoding operations
//   - SessionFactory: Interface for creating trust evaluation sessions
//   - Tools: List of tool definitions without configuration requirements
//   - ToolsWithConfig: List of tool definitions that need configuration access
//   - Resources: List of static and dynamic resources provided by the server
//   - ResourcesWithEmbed: List of resources that read from the embedded filesystem
//   - Prompts: List of predefined prompts for guided workflows
//   - PromptsWithEmbed: List of prompts rendered from embedded templates
//   - SamplingHandler: Handler for bidirectional AI communication and streaming responses
//   - Instructions: Rendered server instructions sent during MCP initialization
//   - PopulateCache: Whether to populate the metadata cache for resource handlers
//
// This struct is used internally by ServerBuilder and should not be instantiated directly.
type ServerDependencies struct {
	Config             *Config
	Embed              templates.EmbedFS
	Version            string
	CertManager        CertificateManager
	SessionFactory     SessionFactory
	Tools              []ToolDefinition
	ToolsWithConfig    []ToolDefinitionWithConfig
	Resources          []ServerResource
	ResourcesWithEmbed []ServerResourceWithEmbed
	Prompts            []ServerPrompt
	PromptsWithEmbed   []ServerPromptWithEmbed
	SamplingHandler    client.SamplingHandler // Added for bidirectional AI communication
	Instructions       string
	PopulateCache      bool
}

// ServerBuilder helps construct the [MCP] server with proper dependencies using a fluent interface.
// It implements the builder pattern to configure and create MCP servers with all required components.
//
// The builder allows chaining configuration methods and provides default implementations
// for common dependencies. Use NewServerBuilder() to create an instance, chain configuration
// methods, and call Build() to create the server.
//
// Example:
//
//	builder := NewServerBuilder().
//	    WithConfig(config).
//	    WithVersion("1.0.0").
//	    WithDefaultTools().
//	    WithSampling(samplingHandler)
//	server, err := builder.Build()
//
// [MCP]: https://modelcontextprotocol.io/docs/getting-started/intro
type ServerBuilder struct{ deps ServerDependencies }

// NewServerBuilder creates a new server builder with default empty dependencies.
// It initializes a ServerBuilder instance that can be configured using the fluent interface methods.
//
// Returns:
//   - A pointer to a new ServerBuilder instance ready for configuration
//
// The returned builder has no dependencies configured and should be chained with
// configuration methods before calling Build().
func NewServerBuilder() *ServerBuilder { return &ServerBuilder{} }

// WithConfig sets the server configuration containing AI settings and other options.
// It configures the server with the provided Config struct.
//
// Parameters:
//   - config: Pointer to the server configuration (can be nil for basic functionality)
//
// Returns:
//   - The ServerBuilder instance for method chaining
//
// The configuration includes AI API settings, timeouts, the default policy file,
// and other server options. If config is nil, some features like AI analysis may
// not be available.
func (b *ServerBuilder) WithConfig(config *Config) *ServerBuilder {
	b.deps.Config = config
	return b
}

// WithEmbed sets the embedded filesystem for static resources and templates.
// It configures the server with an embedded filesystem containing templates and documentation.
//
// Parameters:
//   - embed: The embedded filesystem (typically templates.MagicEmbed)
//
// Returns:
//   - The ServerBuilder instance for method chaining
//
// The embedded filesystem is used to serve static resources like trust policy
// documentation and workflow templates. If not set, embedded resources and
// prompts are unavailable.
func (b *ServerBuilder) WithEmbed(embed templates.EmbedFS) *ServerBuilder {
	b.deps.Embed = embed
	return b
}

// WithVersion sets the server version string used for identification and User-Agent headers.
// It configures the server with a version string that appears in logs and HTTP requests.
//
// Parameters:
//   - version: The server version string (e.g., "1.0.0" or "v1.2.3")
//
// Returns:
//   - The ServerBuilder instance for method chaining
//
// The version is used in User-Agent headers for HTTP requests and server identification.
func (b *ServerBuilder) WithVersion(version string) *ServerBuilder {
	b.deps.Version = version
	return b
}

// WithCertManager sets the certificate manager for encoding and decoding operations.
// It configures the server with a CertificateManager implementation for PEM/DER operations.
//
// Parameters:
//   - cm: The certificate manager implementation (must implement CertificateManager interface)
//
// Returns:
//   - The ServerBuilder instance for method chaining
//
// If not set, certificate encoding/decoding operations may not be available.
// The default implementation uses the internal certs package.
func (b *ServerBuilder) WithCertManager(cm CertificateManager) *ServerBuilder {
	b.deps.CertManager = cm
	return b
}

// WithSessionFactory sets the session factory for creating trust evaluation sessions.
// It configures the server with a SessionFactory implementation for probe operations.
//
// Parameters:
//   - sf: The session factory implementation (must implement SessionFactory interface)
//
// Returns:
//   - The ServerBuilder instance for method chaining
//
// If not set, trust evaluation tools fall back to constructing sessions directly.
// The default implementation uses the internal probe package.
func (b *ServerBuilder) WithSessionFactory(sf SessionFactory) *ServerBuilder {
	b.deps.SessionFactory = sf
	return b
}

// WithTools adds tool definitions to the server that don't require configuration access.
// It registers multiple tools that can be called by MCP clients.
//
// Parameters:
//   - tools: Variable number of ToolDefinition structs containing tool specs and handlers
//
// Returns:
//   - The ServerBuilder instance for method chaining
//
// Tools added with this method do not receive the server Config parameter.
// Use WithToolsWithConfig for tools that need configuration access.
func (b *ServerBuilder) WithTools(tools ...ToolDefinition) *ServerBuilder {
	b.deps.Tools = append(b.deps.Tools, tools...)
	return b
}

// WithToolsWithConfig adds tool definitions that require configuration access to the server.
// It registers multiple tools that receive the server Config parameter in their handlers.
//
// Parameters:
//   - tools: Variable number of ToolDefinitionWithConfig structs containing tool specs and handlers
//
// Returns:
//   - The ServerBuilder instance for method chaining
//
// Tools added with this method receive access to server configuration like AI API keys.
// Use WithTools for tools that don't need configuration access.
func (b *ServerBuilder) WithToolsWithConfig(tools ...ToolDefinitionWithConfig) *ServerBuilder {
	b.deps.ToolsWithConfig = append(b.deps.ToolsWithConfig, tools...)
	return b
}

// WithResources adds static and dynamic resources to the MCP server.
// It registers resources that can be read by MCP clients using resource URIs.
//
// Parameters:
//   - resources: Variable number of ServerResource structs containing resource specs and handlers
//
// Returns:
//   - The ServerBuilder instance for method chaining
//
// Resources can provide static content (like documentation) or dynamic content
// (like server status). Clients access resources using URIs like "info://version".
func (b *ServerBuilder) WithResources(resources ...ServerResource) *ServerBuilder {
	b.deps.Resources = append(b.deps.Resources, resources...)
	return b
}

// WithEmbeddedResources adds resources whose handlers read from the embedded filesystem.
// The configured EmbedFS is bound to each handler during Build.
//
// Parameters:
//   - resources: Variable number of ServerResourceWithEmbed structs
//
// Returns:
//   - The ServerBuilder instance for method chaining
func (b *ServerBuilder) WithEmbeddedResources(resources ...ServerResourceWithEmbed) *ServerBuilder {
	b.deps.ResourcesWithEmbed = append(b.deps.ResourcesWithEmbed, resources...)
	return b
}

// WithPrompts adds predefined prompts to the MCP server for guided workflows.
// It registers prompts that provide structured interactions for common tasks.
//
// Parameters:
//   - prompts: Variable number of ServerPrompt structs containing prompt specs and handlers
//
// Returns:
//   - The ServerBuilder instance for method chaining
//
// Prompts are used for workflows like trust evaluation or revocation audits,
// providing clients with predefined conversation starters and argument schemas.
func (b *ServerBuilder) WithPrompts(prompts ...ServerPrompt) *ServerBuilder {
	b.deps.Prompts = append(b.deps.Prompts, prompts...)
	return b
}

// WithEmbeddedPrompts adds prompts whose handlers render from the embedded filesystem.
// The configured EmbedFS is bound to each handler during Build.
//
// Parameters:
//   - prompts: Variable number of ServerPromptWithEmbed structs
//
// Returns:
//   - The ServerBuilder instance for method chaining
func (b *ServerBuilder) WithEmbeddedPrompts(prompts ...ServerPromptWithEmbed) *ServerBuilder {
	b.deps.PromptsWithEmbed = append(b.deps.PromptsWithEmbed, prompts...)
	return b
}

// WithSampling adds a sampling handler for bidirectional AI communication.
// It configures the server to support AI-powered features like trust report analysis.
//
// Parameters:
//   - handler: The sampling handler implementation for AI API integration
//
// Returns:
//   - The ServerBuilder instance for method chaining
//
// The sampling handler enables real-time AI analysis of trust reports with streaming responses.
// If not set, AI-powered features will return static guidance messages.
func (b *ServerBuilder) WithSampling(handler client.SamplingHandler) *ServerBuilder {
	// Note: Sampling handler is stored but not in ServerDependencies
	// It's used during Build() to enable sampling on the server
	b.deps.SamplingHandler = handler
	return b
}

// WithInstructions sets the rendered server instructions sent to MCP clients.
// Instructions describe server capabilities and recommended tool workflows.
//
// Parameters:
//   - instructions: The rendered instruction text (typically from loadInstructions)
//
// Returns:
//   - The ServerBuilder instance for method chaining
func (b *ServerBuilder) WithInstructions(instructions string) *ServerBuilder {
	b.deps.Instructions = instructions
	return b
}

// WithPopulate enables metadata cache population during Build.
// Resource handlers use the cache to report registered tools, prompts, and resources.
//
// Returns:
//   - The ServerBuilder instance for method chaining
func (b *ServerBuilder) WithPopulate() *ServerBuilder {
	b.deps.PopulateCache = true
	return b
}

// WithDefaultTools adds the default trust evaluation tools to the server.
// It automatically registers all standard trust-related tools using createTools.
//
// Returns:
//   - The ServerBuilder instance for method chaining
//
// This includes tools for server trust evaluation, chain fetching, revocation
// checking, policy auditing, bundle inspection, and AI-powered analysis. The
// tools are added to both the regular tools list and tools-with-config list as
// appropriate; config-dependent tools receive defaults when no config was set.
func (b *ServerBuilder) WithDefaultTools() *ServerBuilder {
	tools, toolsWithConfig := createTools()
	b.deps.Tools = append(b.deps.Tools, tools...)
	b.deps.ToolsWithConfig = append(b.deps.ToolsWithConfig, toolsWithConfig...)
	return b
}

// Build creates the [MCP] server with all configured dependencies.
// It validates the configuration and constructs a fully configured MCP server instance.
//
// Returns:
//   - A pointer to the configured MCPServer instance
//   - An error if the configuration is invalid or server creation fails
//
// The method enables sampling if a sampling handler was provided, registers all tools,
// resources, and prompts, binds the embedded filesystem into embed-aware handlers,
// and populates the metadata cache when requested. Tools that need configuration
// receive the builder's Config; when none was set, defaults are loaded so handlers
// never see a nil config.
//
// [MCP]: https://modelcontextprotocol.io/docs/getting-started/intro
func (b *ServerBuilder) Build() (*server.MCPServer, error) {
	opts := []server.ServerOption{
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(true, true),
		server.WithPromptCapabilities(true),
	}
	if b.deps.Instructions != "" {
		opts = append(opts, server.WithInstructions(b.deps.Instructions))
	}

	s := server.NewMCPServer(
		"TLS Server Trust Evaluator",
		b.deps.Version,
		opts...,
	)

	// Enable sampling for bidirectional AI communication if handler provided
	if b.deps.SamplingHandler != nil {
		s.EnableSampling()
		// Note: The sampling handler is managed internally by the server
		// when clients connect and request sampling
	}

	// Config-dependent tools must never receive a nil config
	config := b.deps.Config
	if config == nil {
		var err error
		if config, err = loadConfig(""); err != nil {
			return nil, fmt.Errorf("failed to load default config: %w", err)
		}
	}

	// Add tools
	for _, tool := range b.deps.Tools {
		s.AddTool(tool.Tool, tool.Handler)
	}

	// Add tools that need config (wrap the handler)
	for _, tool := range b.deps.ToolsWithConfig {
		handler := func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return tool.Handler(ctx, request, config)
		}
		s.AddTool(tool.Tool, handler)
	}

	// Add resources
	for _, resource := range b.deps.Resources {
		s.AddResource(resource.Resource, resource.Handler)
	}

	// Add embedded resources (bind the configured filesystem)
	for _, resource := range b.deps.ResourcesWithEmbed {
		handler := func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
			return resource.Handler(ctx, request, b.deps.Embed)
		}
		s.AddResource(resource.Resource, handler)
	}

	// Add prompts
	for _, prompt := range b.deps.Prompts {
		s.AddPrompt(prompt.Prompt, prompt.Handler)
	}

	// Add embedded prompts (bind the configured filesystem)
	for _, prompt := range b.deps.PromptsWithEmbed {
		handler := func(ctx context.Context, request mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
			return prompt.Handler(ctx, request, b.deps.Embed)
		}
		s.AddPrompt(prompt.Prompt, handler)
	}

	// Populate the metadata cache for resource handlers when requested
	if b.deps.PopulateCache {
		serverCache := getServerCache()
		populateToolMetadataCache(serverCache, b.deps.Tools, b.deps.ToolsWithConfig)
		populatePromptMetadataCache(serverCache, allPromptSpecs(b.deps.Prompts, b.deps.PromptsWithEmbed))
		populateResourceMetadataCache(serverCache, allResourceSpecs(b.deps.Resources, b.deps.ResourcesWithEmbed))
	}

	return s, nil
}

// allResourceSpecs merges plain and embedded resource definitions so the
// metadata cache lists every registered resource.
func allResourceSpecs(resources []ServerResource, embedded []ServerResourceWithEmbed) []ServerResource {
	merged := make([]ServerResource, 0, len(resources)+len(embedded))
	merged = append(merged, resources...)
	for _, r := range embedded {
		merged = append(merged, ServerResource{Resource: r.Resource})
	}
	return merged
}

// allPromptSpecs merges plain and embedded prompt definitions so the metadata
// cache lists every registered prompt.
func allPromptSpecs(prompts []ServerPrompt, embedded []ServerPromptWithEmbed) []ServerPrompt {
	merged := make([]ServerPrompt, 0, len(prompts)+len(embedded))
	merged = append(merged, prompts...)
	for _, p := range embedded {
		merged = append(merged, ServerPrompt{Prompt: p.Prompt})
	}
	return merged
}

// DefaultSamplingHandler provides configurable AI API integration for bidirectional communication
type DefaultSamplingHandler struct {
	apiKey        string
	endpoint      string
	model         string
	timeout       time.Duration
	client        *http.Client
	version       string
	TokenCallback func(string) // Callback for streaming tokens
}

// NewDefaultSamplingHandler creates a new sampling handler with configurable AI settings
func NewDefaultSamplingHandler(config *Config, version string) *DefaultSamplingHandler {
	return &DefaultSamplingHandler{
		apiKey:   config.AI.APIKey,
		endpoint: config.AI.Endpoint,
		model:    config.AI.Model,
		version:  version,
		timeout:  time.Duration(config.AI.Timeout) * time.Second,
		client:   &http.Client{Timeout: time.Duration(config.AI.Timeout) * time.Second},
	}
}

// CreateMessage handles sampling requests by calling the configured AI API
func (h *DefaultSamplingHandler) CreateMessage(ctx context.Context, request mcp.CreateMessageRequest) (*mcp.CreateMessageResult, error) {
	// Get buffer from pool for efficient memory usage
	// Note: Buffer is primarily used for error response reading.
	// During successful streaming, it remains allocated but unused until the function returns.
	buf := gc.Default.Get()
	defer func() {
		buf.Reset()         // Reset buffer to prevent data leaks
		gc.Default.Put(buf) // Return buffer to pool for reuse
	}()

	// If no API key, return guidance for enabling AI integration
	if h.apiKey == "" {
		return h.handleNoAPIKey()
	}

	// Convert MCP messages to OpenAI-compatible format
	messages := h.convertMessages(request.Messages)

	// Prepare API request
	model := h.selectModel(request.ModelPreferences)
	requestMessages := h.prepareMessages(messages, request.SystemPrompt)
	apiRequest := h.buildAPIRequest(model, requestMessages, request)

	// Create and send HTTP request
	resp, err := h.sendAPIRequest(ctx, apiRequest, buf)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	// Check response status
	if resp.StatusCode != http.StatusOK {
		return nil, h.handleAPIError(resp, buf)
	}

	// Handle streaming response
	content, modelName, stopReason, err := h.parseStreamingResponse(resp.Body, model)
	if err != nil {
		return nil, fmt.Errorf("error reading streaming response: %w", err)
	}

	return h.buildSamplingResult(content, modelName, stopReason), nil
}

// handleNoAPIKey returns a helpful message when no API key is configured
func (h *DefaultSamplingHandler) handleNoAPIKey() (*mcp.CreateMessageResult, error) {
	response := "AI API key not configured. Set TRUST_AI_APIKEY or configure the ai.apiKey field in config.json to enable trust report analysis. " +
		"Until then, the server will return static information only."

	return &mcp.CreateMessageResult{
		SamplingMessage: mcp.SamplingMessage{
			Role:    mcp.RoleAssistant,
			Content: mcp.NewTextContent(response),
		},
		Model:      "not-configured",
		StopReason: "end",
	}, nil
}

// convertMessages converts MCP messages to OpenAI-compatible format
func (h *DefaultSamplingHandler) convertMessages(mcpMessages []mcp.SamplingMessage) []map[string]any {
	var messages []map[string]any
	for _, msg := range mcpMessages {
		message := map[string]any{
			"role": string(msg.Role),
		}

		// Handle different content types
		if textContent, ok := msg.Content.(mcp.TextContent); ok {
			message["content"] = textContent.Text
		} else {
			// For other content types, convert to string representation
			message["content"] = fmt.Sprintf("%v", msg.Content)
		}

		messages = append(messages, message)
	}
	return messages
}

// selectModel chooses the appropriate model based on preferences
func (h *DefaultSamplingHandler) selectModel(preferences *mcp.ModelPreferences) string {
	model := h.model // Use configured default model
	if preferences != nil && len(preferences.Hints) > 0 {
		// Use the first model hint if available
		model = preferences.Hints[0].Name
	}
	return model
}

// prepareMessages adds system prompt if provided
func (h *DefaultSamplingHandler) prepareMessages(messages []map[string]any, systemPrompt string) []map[string]any {
	if systemPrompt == "" {
		return messages
	}

	systemMessage := map[string]any{
		"role":    "system",
		"content": systemPrompt,
	}
	return append([]map[string]any{systemMessage}, messages...)
}

// buildAPIRequest creates the API request payload
func (h *DefaultSamplingHandler) buildAPIRequest(model string, messages []map[string]any, request mcp.CreateMessageRequest) map[string]any {
	apiRequest := map[string]any{
		"model":       model,
		"messages":    messages,
		"max_tokens":  request.MaxTokens,
		"temperature": request.Temperature,
		"stream":      true, // Enable streaming for better performance and real-time responses
	}

	// Add stop sequences if provided
	if len(request.StopSequences) > 0 {
		apiRequest["stop"] = request.StopSequences
	}

	return apiRequest
}

// sendAPIRequest creates and sends the HTTP request
func (h *DefaultSamplingHandler) sendAPIRequest(ctx context.Context, apiRequest map[string]any, _ gc.Buffer) (*http.Response, error) {
	// Marshal request to JSON
	reqBody, err := json.Marshal(apiRequest)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal API request: %w", err)
	}

	// Create HTTP request using bytes.Reader for request body
	req, err := http.NewRequestWithContext(ctx, "POST", h.endpoint+"/v1/chat/completions", bytes.NewReader(reqBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP request: %w", err)
	}

	// Set headers
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+h.apiKey)
	req.Header.Set("User-Agent", "TLS-Server-Trust-MCP/"+h.version+" (+https://github.com/H0llyW00dzZ/tls-server-trust)")

	// Make the request
	resp, err := h.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to call AI API: %w", err)
	}

	return resp, nil
}

// handleAPIError processes API error responses
func (h *DefaultSamplingHandler) handleAPIError(resp *http.Response, buf gc.Buffer) error {
	// Read error response body using buffer pool
	if _, err := buf.ReadFrom(resp.Body); err != nil {
		return fmt.Errorf("AI API error (status %d): failed to read error response: %w", resp.StatusCode, err)
	}
	return fmt.Errorf("AI API error (status %d): %s", resp.StatusCode, string(buf.Bytes()))
}

// parseStreamingResponse handles the streaming response parsing
func (h *DefaultSamplingHandler) parseStreamingResponse(body io.Reader, defaultModel string) (string, string, string, error) {
	var fullContent strings.Builder
	modelName := defaultModel
	stopReason := "stop"

	scanner := bufio.NewScanner(body)
	for scanner.Scan() {
		line := scanner.Text()

		// Skip empty lines and comments
		if line == "" || strings.HasPrefix(line, ":") {
			continue
		}

		// Parse Server-Sent Events format
		if data, found := strings.CutPrefix(line, "data: "); found {
			// Handle end of stream
			if data == "[DONE]" {
				break
			}

			// Parse JSON chunk
			var chunk map[string]any
			if err := json.Unmarshal([]byte(data), &chunk); err != nil {
				continue // Skip malformed chunks
			}

			// Extract model name if available
			if modelFromChunk, ok := chunk["model"].(string); ok && modelName == defaultModel {
				modelName = modelFromChunk
			}

			// Process choices
			if choices, ok := chunk["choices"].([]any); ok && len(choices) > 0 {
				if choice, ok := choices[0].(map[string]any); ok {
					// Extract delta content
					if delta, ok := choice["delta"].(map[string]any); ok {
						if content, ok := delta["content"].(string); ok {
							fullContent.WriteString(content)
							// Stream token via callback if configured
							if h.TokenCallback != nil {
								h.TokenCallback(content)
							}
						}
					}

					// Check for finish reason
					if finishReason, ok := choice["finish_reason"].(string); ok && finishReason != "" {
						stopReason = finishReason
					}
				}
			}
		}
	}

	if err := scanner.Err(); err != nil {
		return "", "", "", err
	}

	return fullContent.String(), modelName, stopReason, nil
}

// buildSamplingResult creates the final sampling result
func (h *DefaultSamplingHandler) buildSamplingResult(content, modelName, stopReason string) *mcp.CreateMessageResult {
	return &mcp.CreateMessageResult{
		SamplingMessage: mcp.SamplingMessage{
			Role:    mcp.RoleAssistant,
			Content: mcp.NewTextContent(content),
		},
		Model:      modelName,
		StopReason: stopReason,
	}
}
