// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package mcpserver

import (
	"fmt"
	"maps"
	"strings"
	"sync"
	"text/template"

	"github.com/H0llyW00dzZ/tls-server-trust/src/mcp-server/templates"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// instructionData holds the data used to populate the MCP server instructions template.
type instructionData struct {
	Tools     []toolInfo
	ToolRoles map[string]string // Maps tool roles to tool names for template use
}

// toolInfo represents information about an MCP tool for template rendering.
type toolInfo struct {
	Name        string
	Description string
}

// loadInstructions renders the embedded instruction template against the
// registered tool set. The result is handed to MCP clients at initialization
// so agents know which tool covers which step of an evaluation workflow.
//
// Parameters:
//   - tools: Tool definitions that run without configuration access
//   - toolsWithConfig: Tool definitions bound to the server configuration
//
// Returns:
//   - string: The rendered instruction text
//   - error: If the embedded template cannot be read, parsed, or executed
func loadInstructions(tools []ToolDefinition, toolsWithConfig []ToolDefinitionWithConfig) (string, error) {
	templateBytes, err := templates.MagicEmbed.ReadFile("trust_instructions.md")
	if err != nil {
		return "", fmt.Errorf("failed to load MCP server instructions template: %w", err)
	}

	var toolInfos []toolInfo
	toolRoles := make(map[string]string)

	add := func(name, description, role string) {
		toolInfos = append(toolInfos, toolInfo{Name: name, Description: description})
		if role != "" {
			toolRoles[role] = name
		}
	}

	for _, tool := range tools {
		add(string(tool.Tool.Name), tool.Tool.Description, tool.Role)
	}
	for _, tool := range toolsWithConfig {
		add(string(tool.Tool.Name), tool.Tool.Description, tool.Role)
	}

	data := instructionData{
		Tools:     toolInfos,
		ToolRoles: toolRoles,
	}

	tmpl, err := template.New("instructions").Parse(string(templateBytes))
	if err != nil {
		return "", fmt.Errorf("failed to parse instructions template: %w", err)
	}

	var buf strings.Builder
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to execute instructions template: %w", err)
	}

	return buf.String(), nil
}

// serverCache holds the registered capability metadata served by the
// info://version and status://server-status resources.
type serverCache struct {
	prompts         []map[string]any
	tools           []map[string]any
	toolsWithConfig []map[string]any
	resources       []map[string]any
}

var (
	cache     *serverCache
	cacheOnce sync.Once
)

// getServerCache returns the process-wide cache, created empty on first use.
// The populate functions below fill it from the builder during Build when
// WithPopulate is set.
func getServerCache() *serverCache {
	cacheOnce.Do(func() {
		cache = &serverCache{}
	})
	return cache
}

// loadPromptsConfig returns the cached prompt metadata.
func loadPromptsConfig() ([]map[string]any, error) {
	return getServerCache().prompts, nil
}

// toolsConfig is the tool view served by the capability resources, split by
// configuration requirement. AllTools carries the merged list in
// registration order.
type toolsConfig struct {
	Tools           []map[string]any
	ToolsWithConfig []map[string]any
	AllTools        []map[string]any
}

// loadToolsConfig assembles the tool metadata view from the cache.
func loadToolsConfig() (*toolsConfig, error) {
	cache := getServerCache()

	all := make([]map[string]any, 0, len(cache.tools)+len(cache.toolsWithConfig))
	all = append(all, cache.tools...)
	all = append(all, cache.toolsWithConfig...)

	return &toolsConfig{
		Tools:           cache.tools,
		ToolsWithConfig: cache.toolsWithConfig,
		AllTools:        all,
	}, nil
}

// loadResourcesConfig returns the cached resource metadata.
func loadResourcesConfig() ([]map[string]any, error) {
	return getServerCache().resources, nil
}

// toolMetadata reduces a tool to the fields the capability resources expose.
func toolMetadata(tool mcp.Tool) map[string]any {
	return map[string]any{
		"name":        tool.Name,
		"description": tool.Description,
	}
}

// metaFields flattens Meta.AdditionalFields for serialization, dropping the
// empty progressToken the MCP library sometimes leaves behind. Returns nil
// when nothing remains.
func metaFields(meta *mcp.Meta) map[string]any {
	if meta == nil {
		return nil
	}

	metaMap := make(map[string]any)
	maps.Copy(metaMap, meta.AdditionalFields)

	if progressToken, exists := metaMap["progressToken"]; exists {
		if progressToken == nil || progressToken == "" || progressToken == "null" {
			delete(metaMap, "progressToken")
		}
	}

	if len(metaMap) == 0 {
		return nil
	}
	return metaMap
}

// populateToolMetadataCache caches metadata for the registered tools. Called
// once during server initialization from the builder's Build method.
func populateToolMetadataCache(serverCache *serverCache, tools []ToolDefinition, toolsWithConfig []ToolDefinitionWithConfig) {
	serverCache.tools = make([]map[string]any, 0, len(tools))
	for _, toolDef := range tools {
		serverCache.tools = append(serverCache.tools, toolMetadata(toolDef.Tool))
	}

	serverCache.toolsWithConfig = make([]map[string]any, 0, len(toolsWithConfig))
	for _, toolDef := range toolsWithConfig {
		serverCache.toolsWithConfig = append(serverCache.toolsWithConfig, toolMetadata(toolDef.Tool))
	}
}

// populatePromptMetadataCache caches metadata for the registered prompts,
// including their argument lists.
func populatePromptMetadataCache(serverCache *serverCache, prompts []server.ServerPrompt) {
	serverCache.prompts = make([]map[string]any, 0, len(prompts))

	for _, promptDef := range prompts {
		prompt := promptDef.Prompt
		metadata := map[string]any{
			"name":        prompt.Name,
			"description": prompt.Description,
		}

		if len(prompt.Arguments) > 0 {
			args := make([]map[string]any, 0, len(prompt.Arguments))
			for _, arg := range prompt.Arguments {
				args = append(args, map[string]any{
					"name":        arg.Name,
					"description": arg.Description,
					"required":    arg.Required,
				})
			}
			metadata["arguments"] = args
		}

		if meta := metaFields(prompt.Meta); meta != nil {
			metadata["meta"] = meta
		}

		serverCache.prompts = append(serverCache.prompts, metadata)
	}
}

// populateResourceMetadataCache caches metadata for the registered
// resources.
func populateResourceMetadataCache(serverCache *serverCache, resources []server.ServerResource) {
	serverCache.resources = make([]map[string]any, 0, len(resources))

	for _, resourceDef := range resources {
		resource := resourceDef.Resource
		metadata := map[string]any{
			"uri":         resource.URI,
			"name":        resource.Name,
			"description": resource.Description,
			"mimeType":    resource.MIMEType,
		}

		if meta := metaFields(resource.Meta); meta != nil {
			metadata["meta"] = meta
		}

		serverCache.resources = append(serverCache.resources, metadata)
	}
}
