// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package codegen

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"go/format"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strconv"
	"strings"
	"text/template"
)

// Config holds the loaded configuration
type Config struct {
	Resources []ResourceDefinition `json:"resources"`
	Tools     []ToolDefinition     `json:"tools"`
	Prompts   []PromptDefinition   `json:"prompts"`
}

// ResourceDefinition represents a resource to be generated
type ResourceDefinition struct {
	URI         string         `json:"uri"`
	Name        string         `json:"name"`
	Comment     string         `json:"comment,omitempty"` // Short label for the generated doc comment
	Description string         `json:"description"`
	MIMEType    string         `json:"mimeType"`
	Handler     string         `json:"handler"`
	Audience    []string       `json:"audience,omitempty"` // user, assistant
	Priority    *float64       `json:"priority,omitempty"` // 0.0 to 10.0
	Meta        map[string]any `json:"meta,omitempty"`
}

// ToolDefinition represents a tool to be generated
type ToolDefinition struct {
	ConstName   string      `json:"constName"`
	Name        string      `json:"name"`
	Comment     string      `json:"comment"`
	Description string      `json:"description"`
	Handler     string      `json:"handler"`
	RoleConst   string      `json:"roleConst"`
	RoleName    string      `json:"roleName"`
	RoleComment string      `json:"roleComment"`
	WithConfig  bool        `json:"withConfig"`
	Params      []ToolParam `json:"params"`
}

// ToolParam represents a parameter for a tool
type ToolParam struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Type        string         `json:"type"` // string, number, boolean, array, object
	Required    bool           `json:"required"`
	Default     string         `json:"default,omitempty"`   // For documentation or default value
	Enum        []string       `json:"enum,omitempty"`      // Allowed values
	Minimum     *float64       `json:"minimum,omitempty"`   // number only
	Maximum     *float64       `json:"maximum,omitempty"`   // number only
	MinLength   *int           `json:"minLength,omitempty"` // string only
	MaxLength   *int           `json:"maxLength,omitempty"` // string only
	Pattern     string         `json:"pattern,omitempty"`   // string only
	Items       map[string]any `json:"items,omitempty"`     // array only
	Properties  map[string]any `json:"properties,omitempty"`
}

// PromptDefinition represents a prompt to be generated
type PromptDefinition struct {
	Name        string           `json:"name"`
	Description string           `json:"description"`
	Handler     string           `json:"handler"`
	Arguments   []PromptArgument `json:"arguments,omitempty"`
	Audience    []string         `json:"audience,omitempty"`
	Priority    *float64         `json:"priority,omitempty"`
	Meta        map[string]any   `json:"meta,omitempty"`
}

// PromptArgument represents an argument for a prompt
type PromptArgument struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Required    bool   `json:"required"`
}

// validParamTypes lists the JSON schema types a tool parameter may declare
var validParamTypes = map[string]bool{
	"string":  true,
	"number":  true,
	"boolean": true,
	"array":   true,
	"object":  true,
}

// getCodegenDir returns the absolute path to the codegen directory
func getCodegenDir() string {
	_, currentFile, _, _ := runtime.Caller(0)
	return filepath.Dir(filepath.Dir(currentFile)) // Go up from internal/ to codegen/
}

// getTemplatePath returns the path to a template file
func getTemplatePath(templateName string) string {
	return filepath.Join(getCodegenDir(), "templates", templateName)
}

// getOutputPath returns the path to an output file
func getOutputPath(outputName string) string {
	return filepath.Join(getCodegenDir(), "..", "..", "src", "mcp-server", outputName)
}

// loadJSON loads a JSON file from the config directory into dest
func loadJSON(filename string, dest any) error {
	path := filepath.Join(getCodegenDir(), "config", filename)
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return fmt.Errorf("parsing %s: %w", filename, err)
	}
	return nil
}

// loadConfig loads the configuration from JSON files
func loadConfig() (*Config, error) {
	config := &Config{}

	var resourcesWrapper struct {
		Resources []ResourceDefinition `json:"resources"`
	}
	if err := loadJSON("resources.json", &resourcesWrapper); err != nil {
		return nil, fmt.Errorf("loading resources config: %w", err)
	}
	config.Resources = resourcesWrapper.Resources

	var toolsWrapper struct {
		Tools []ToolDefinition `json:"tools"`
	}
	if err := loadJSON("tools.json", &toolsWrapper); err != nil {
		return nil, fmt.Errorf("loading tools config: %w", err)
	}
	config.Tools = toolsWrapper.Tools

	var promptsWrapper struct {
		Prompts []PromptDefinition `json:"prompts"`
	}
	if err := loadJSON("prompts.json", &promptsWrapper); err != nil {
		return nil, fmt.Errorf("loading prompts config: %w", err)
	}
	config.Prompts = promptsWrapper.Prompts

	// Validate configuration
	if err := validateConfig(config); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return config, nil
}

// validateConfig validates the loaded configuration
func validateConfig(config *Config) error {
	if err := validateResources(config.Resources); err != nil {
		return err
	}
	if err := validateTools(config.Tools); err != nil {
		return err
	}
	if err := validatePrompts(config.Prompts); err != nil {
		return err
	}
	return nil
}

// validateAudience validates annotation audience roles
func validateAudience(audience []string) error {
	for _, role := range audience {
		if role != "user" && role != "assistant" {
			return fmt.Errorf("invalid audience role '%s', must be 'user' or 'assistant'", role)
		}
	}
	return nil
}

// validatePriority validates an annotation priority value
func validatePriority(priority *float64) error {
	if priority != nil && (*priority < 0.0 || *priority > 10.0) {
		return fmt.Errorf("priority must be between 0.0 and 10.0, got %f", *priority)
	}
	return nil
}

// validateResources validates resource definitions
func validateResources(resources []ResourceDefinition) error {
	resourceURIs := make(map[string]bool)
	for i, res := range resources {
		if res.URI == "" {
			return fmt.Errorf("resource %d: URI is required", i)
		}
		if res.Name == "" {
			return fmt.Errorf("resource %d: Name is required", i)
		}
		if res.Handler == "" {
			return fmt.Errorf("resource %d: Handler is required", i)
		}
		if resourceURIs[res.URI] {
			return fmt.Errorf("resource %d: duplicate URI '%s'", i, res.URI)
		}
		resourceURIs[res.URI] = true
		if err := validateAudience(res.Audience); err != nil {
			return fmt.Errorf("resource %d: %w", i, err)
		}
		if err := validatePriority(res.Priority); err != nil {
			return fmt.Errorf("resource %d: %w", i, err)
		}
	}
	return nil
}

// validateTools validates tool definitions
func validateTools(tools []ToolDefinition) error {
	toolNames := make(map[string]bool)
	roleNames := make(map[string]bool)
	for i, tool := range tools {
		if err := validateTool(&tool, i, toolNames, roleNames); err != nil {
			return err
		}
	}
	return nil
}

// validateTool validates a single tool definition
func validateTool(tool *ToolDefinition, index int, toolNames, roleNames map[string]bool) error {
	if tool.Name == "" {
		return fmt.Errorf("tool %d: Name is required", index)
	}
	if tool.ConstName == "" {
		return fmt.Errorf("tool %d: ConstName is required", index)
	}
	if tool.Handler == "" {
		return fmt.Errorf("tool %d: Handler is required", index)
	}
	if tool.RoleConst == "" {
		return fmt.Errorf("tool %d: RoleConst is required", index)
	}
	if toolNames[tool.Name] {
		return fmt.Errorf("tool %d: duplicate name '%s'", index, tool.Name)
	}
	if roleNames[tool.RoleName] {
		return fmt.Errorf("tool %d: duplicate role name '%s'", index, tool.RoleName)
	}
	toolNames[tool.Name] = true
	roleNames[tool.RoleName] = true

	return validateToolParams(tool.Params, index)
}

// validateToolParams validates tool parameters
func validateToolParams(params []ToolParam, toolIndex int) error {
	paramNames := make(map[string]bool)
	for j, param := range params {
		if param.Name == "" {
			return fmt.Errorf("tool %d param %d: Name is required", toolIndex, j)
		}
		if param.Type == "" {
			return fmt.Errorf("tool %d param %d: Type is required", toolIndex, j)
		}
		if !validParamTypes[param.Type] {
			return fmt.Errorf("tool %d param %d: invalid type '%s', must be string, number, boolean, array, or object", toolIndex, j, param.Type)
		}
		if paramNames[param.Name] {
			return fmt.Errorf("tool %d param %d: duplicate parameter name '%s'", toolIndex, j, param.Name)
		}
		paramNames[param.Name] = true
		if err := validateParamConstraints(&param, toolIndex, j); err != nil {
			return err
		}
	}
	return nil
}

// validateParamConstraints validates schema constraints against the parameter type
func validateParamConstraints(param *ToolParam, toolIndex, paramIndex int) error {
	for _, enumVal := range param.Enum {
		switch param.Type {
		case "number":
			if _, err := strconv.ParseFloat(enumVal, 64); err != nil {
				return fmt.Errorf("tool %d param %d: enum value '%s' is not a valid number", toolIndex, paramIndex, enumVal)
			}
		case "boolean":
			if _, err := strconv.ParseBool(enumVal); err != nil {
				return fmt.Errorf("tool %d param %d: enum value '%s' is not a valid boolean", toolIndex, paramIndex, enumVal)
			}
		}
	}

	if param.MinLength != nil || param.MaxLength != nil {
		if param.Type != "string" {
			return fmt.Errorf("tool %d param %d: minLength/maxLength constraints are only valid for string type", toolIndex, paramIndex)
		}
		if param.MinLength != nil && param.MaxLength != nil && *param.MinLength > *param.MaxLength {
			return fmt.Errorf("tool %d param %d: minLength (%d) cannot be greater than maxLength (%d)", toolIndex, paramIndex, *param.MinLength, *param.MaxLength)
		}
	}

	if param.Minimum != nil || param.Maximum != nil {
		if param.Type != "number" {
			return fmt.Errorf("tool %d param %d: minimum/maximum constraints are only valid for number type", toolIndex, paramIndex)
		}
		if param.Minimum != nil && param.Maximum != nil && *param.Minimum > *param.Maximum {
			return fmt.Errorf("tool %d param %d: minimum (%f) cannot be greater than maximum (%f)", toolIndex, paramIndex, *param.Minimum, *param.Maximum)
		}
	}

	if param.Pattern != "" && param.Type != "string" {
		return fmt.Errorf("tool %d param %d: pattern constraint is only valid for string type", toolIndex, paramIndex)
	}

	if param.Items != nil && param.Type != "array" {
		return fmt.Errorf("tool %d param %d: items constraint is only valid for array type", toolIndex, paramIndex)
	}

	if param.Properties != nil && param.Type != "object" {
		return fmt.Errorf("tool %d param %d: properties constraint is only valid for object type", toolIndex, paramIndex)
	}

	return nil
}

// validatePrompts validates prompt definitions
func validatePrompts(prompts []PromptDefinition) error {
	promptNames := make(map[string]bool)
	for i, prompt := range prompts {
		if prompt.Name == "" {
			return fmt.Errorf("prompt %d: Name is required", i)
		}
		if prompt.Handler == "" {
			return fmt.Errorf("prompt %d: Handler is required", i)
		}
		if promptNames[prompt.Name] {
			return fmt.Errorf("prompt %d: duplicate name '%s'", i, prompt.Name)
		}
		promptNames[prompt.Name] = true
		if err := validateAudience(prompt.Audience); err != nil {
			return fmt.Errorf("prompt %d: %w", i, err)
		}
		if err := validatePriority(prompt.Priority); err != nil {
			return fmt.Errorf("prompt %d: %w", i, err)
		}
		if err := validatePromptArguments(prompt.Arguments, i); err != nil {
			return err
		}
	}
	return nil
}

// validatePromptArguments validates prompt arguments
func validatePromptArguments(arguments []PromptArgument, promptIndex int) error {
	argNames := make(map[string]bool)
	for j, arg := range arguments {
		if arg.Name == "" {
			return fmt.Errorf("prompt %d argument %d: Name is required", promptIndex, j)
		}
		if argNames[arg.Name] {
			return fmt.Errorf("prompt %d argument %d: duplicate argument name '%s'", promptIndex, j, arg.Name)
		}
		argNames[arg.Name] = true
	}
	return nil
}

// formatGoValue renders a JSON-decoded value as a Go literal
func formatGoValue(v any) string {
	switch val := v.(type) {
	case nil:
		return "nil"
	case string:
		return strconv.Quote(val)
	case bool:
		return strconv.FormatBool(val)
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return fmt.Sprintf("%d", val)
	case float32, float64:
		return fmt.Sprintf("%v", val)
	case []any:
		parts := make([]string, len(val))
		for i, item := range val {
			parts[i] = formatGoValue(item)
		}
		return "[]any{" + strings.Join(parts, ", ") + "}"
	case map[string]any:
		return toGoMap(val)
	default:
		return fmt.Sprintf("%q", fmt.Sprintf("%v", val))
	}
}

// toGoMap renders a metadata map as a Go map literal with sorted keys
func toGoMap(m map[string]any) string {
	if len(m) == 0 {
		return "nil"
	}

	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%q: %s", k, formatGoValue(m[k]))
	}
	return "map[string]any{" + strings.Join(parts, ", ") + "}"
}

// GenerateResources generates the resources.go file for the MCP server
func GenerateResources() error {
	config, err := loadConfig()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	templatePath := getTemplatePath("resources.go.tmpl")
	outputPath := getOutputPath("resources.go")

	return generateFile(templatePath, outputPath, config, "resources")
}

// GenerateTools generates the tools.go file for the MCP server
func GenerateTools() error {
	config, err := loadConfig()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	templatePath := getTemplatePath("tools.go.tmpl")
	outputPath := getOutputPath("tools.go")

	return generateFile(templatePath, outputPath, config, "tools")
}

// GeneratePrompts generates the prompts.go file for the MCP server
func GeneratePrompts() error {
	config, err := loadConfig()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	templatePath := getTemplatePath("prompts.go.tmpl")
	outputPath := getOutputPath("prompts.go")

	return generateFile(templatePath, outputPath, config, "prompts")
}

// generateFile generates a file using a template
func generateFile(templatePath, outputPath string, config *Config, fileType string) error {
	tmpl, err := template.New(filepath.Base(templatePath)).Funcs(template.FuncMap{
		"toGoMap":       toGoMap,
		"formatGoValue": formatGoValue,
	}).ParseFiles(templatePath)
	if err != nil {
		return fmt.Errorf("parsing template from %s: %w", templatePath, err)
	}

	var code bytes.Buffer

	// Header
	writeHeader(&code)

	// Package and imports
	code.WriteString("package mcpserver\n\n")
	code.WriteString("import (\n")
	if fileType == "resources" {
		code.WriteString("\t\"context\"\n\n")
		code.WriteString("\t\"github.com/H0llyW00dzZ/tls-server-trust/src/mcp-server/templates\"\n")
		code.WriteString("\t\"github.com/mark3labs/mcp-go/mcp\"\n")
		code.WriteString("\t\"github.com/mark3labs/mcp-go/server\"\n")
	} else {
		code.WriteString("\t\"github.com/mark3labs/mcp-go/mcp\"\n")
	}
	code.WriteString(")\n\n")

	// Execute template
	if err := tmpl.Execute(&code, config); err != nil {
		return fmt.Errorf("executing template: %w", err)
	}

	return writeGeneratedFile(outputPath, code.Bytes())
}

func writeHeader(code *bytes.Buffer) {
	code.WriteString("// Copyright (c) 2025 H0llyW00dzZ All rights reserved.\n")
	code.WriteString("//\n")
	code.WriteString("// By accessing or using this software, you agree to be bound by the terms\n")
	code.WriteString("// of the License Agreement, which you can find at LICENSE files.\n\n")
	code.WriteString("// Code generated by go generate; DO NOT EDIT.\n")
	code.WriteString("// This file is generated from tools/codegen/internal/codegen.go\n\n")
}

func writeGeneratedFile(filename string, content []byte) error {
	// Format the generated code
	formatted, err := format.Source(content)
	if err != nil {
		return fmt.Errorf("formatting code: %w", err)
	}

	// Write to the generated file
	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("creating file: %w", err)
	}
	defer file.Close()

	writer := bufio.NewWriter(file)
	_, err = writer.Write(formatted)
	if err != nil {
		return fmt.Errorf("writing to file: %w", err)
	}

	if err := writer.Flush(); err != nil {
		return fmt.Errorf("flushing file: %w", err)
	}

	fmt.Printf("Generated %s successfully\n", filename)
	return nil
}
