// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package mcpserver

import (
	"context"
	"fmt"
	"html/template"
	"strings"

	"github.com/H0llyW00dzZ/tls-server-trust/src/mcp-server/templates"
	"github.com/mark3labs/mcp-go/mcp"
)

// promptTemplateData holds the data used to populate prompt templates.
type promptTemplateData struct {
	Hostname   string
	Port       string
	BundleDir  string
	PolicyFile string
	IssueType  string
}

// parsePromptTemplate parses a prompt template file and converts it to MCP messages.
//
// This function reads a template file from the supplied embedded filesystem,
// executes it with the provided data, and converts the structured content into
// MCP prompt messages. The template-based approach enables dynamic content
// generation instead of hardcoded values, making prompts more maintainable
// and flexible.
//
// Parameters:
//   - embed: Embedded filesystem holding the prompt templates
//   - templateName: Name of the template file (without .md extension)
//   - data: Template data to populate placeholders
//
// Returns:
//   - []mcp.PromptMessage: Parsed MCP messages
//   - error: Any error during template execution or parsing
func parsePromptTemplate(embed templates.EmbedFS, templateName string, data promptTemplateData) ([]mcp.PromptMessage, error) {
	// Read the template file
	templateContent, err := embed.ReadFile(templateName + ".md")
	if err != nil {
		return nil, fmt.Errorf("failed to read template %s: %w", templateName, err)
	}

	// Parse the template
	tmpl, err := template.New(templateName).Parse(string(templateContent))
	if err != nil {
		return nil, fmt.Errorf("failed to parse template %s: %w", templateName, err)
	}

	// Execute the template
	var buf strings.Builder
	if err := tmpl.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("failed to execute template %s: %w", templateName, err)
	}

	content := buf.String()

	// Parse the executed content into MCP messages
	var messages []mcp.PromptMessage
	lines := strings.Split(content, "\n")
	var currentRole mcp.Role
	var currentContent strings.Builder

	for _, line := range lines {
		line = strings.TrimSpace(line)

		// Check for role markers first (before skipping headers)
		if strings.HasPrefix(line, "### Assistant:") || strings.HasPrefix(line, "##### Assistant:") {
			// Save previous message if any
			if currentContent.Len() > 0 {
				messages = append(messages, mcp.NewPromptMessage(
					currentRole,
					mcp.NewTextContent(strings.TrimSpace(currentContent.String())),
				))
				currentContent.Reset()
			}
			currentRole = mcp.RoleAssistant
			continue
		}

		if strings.HasPrefix(line, "### User:") || strings.HasPrefix(line, "##### User:") {
			// Save previous message if any
			if currentContent.Len() > 0 {
				messages = append(messages, mcp.NewPromptMessage(
					currentRole,
					mcp.NewTextContent(strings.TrimSpace(currentContent.String())),
				))
				currentContent.Reset()
			}
			currentRole = mcp.RoleUser
			continue
		}

		// Skip empty lines and headers
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		// Add line to current content if we have a role
		if currentRole != "" {
			if currentContent.Len() > 0 {
				currentContent.WriteString("\n")
			}
			currentContent.WriteString(line)
		}
	}

	// Add final message if any
	if currentContent.Len() > 0 {
		messages = append(messages, mcp.NewPromptMessage(
			currentRole,
			mcp.NewTextContent(strings.TrimSpace(currentContent.String())),
		))
	}

	return messages, nil
}

// handleTrustEvaluationPrompt handles the server trust evaluation workflow prompt.
//
// This function implements the trust-evaluation prompt, which provides
// a comprehensive workflow for judging whether a live TLS endpoint should
// be trusted. It guides users through systematic steps including chain
// fetching, policy evaluation, revocation checking, and verdict analysis.
//
// Parameters:
//   - ctx: Context for the request, used for cancellation and timeouts
//   - request: The MCP get prompt request containing arguments
//   - embed: Embedded filesystem holding the prompt templates
//
// Returns:
//   - *mcp.GetPromptResult: The prompt result with workflow messages
//   - error: Any error that occurred during prompt handling
//
// The workflow includes:
//  1. Chain fetching using the fetch_server_chain tool
//  2. Policy evaluation using the evaluate_server_trust tool
//  3. Revocation checking using the check_revocation tool
//  4. Verdict analysis and recommendations
//
// Expected arguments in request.Params.Arguments:
//   - hostname: Target hostname to evaluate
//   - port: Port number (default: 443)
func handleTrustEvaluationPrompt(ctx context.Context, request mcp.GetPromptRequest, embed templates.EmbedFS) (*mcp.GetPromptResult, error) {
	hostname := request.Params.Arguments["hostname"]
	port := request.Params.Arguments["port"]
	if port == "" {
		port = "443"
	}

	messages, err := parsePromptTemplate(embed, "trust-evaluation-prompt", promptTemplateData{
		Hostname: hostname,
		Port:     port,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to parse trust evaluation template: %w", err)
	}

	return mcp.NewGetPromptResult(
		"Server Trust Evaluation Workflow",
		messages,
	), nil
}

// handlePinRolloutPrompt handles the pin rollout planning prompt.
//
// This function implements the pin-rollout prompt, which provides guidance
// for introducing a pinned trust policy without locking legitimate servers
// out. It walks through inspecting the pin bundle, verifying the live chain
// against the pins, and staging the rollout.
//
// Parameters:
//   - ctx: Context for the request, used for cancellation and timeouts
//   - request: The MCP get prompt request containing arguments
//   - embed: Embedded filesystem holding the prompt templates
//
// Returns:
//   - *mcp.GetPromptResult: The prompt result with rollout guidance
//   - error: Any error that occurred during prompt handling
//
// The prompt helps users:
//   - Inspect the pin bundle with the inspect_trust_bundle tool
//   - Dry-run the pinned policy against the live chain
//   - Decide between certificate pinning and public key pinning
//   - Plan for certificate rotation without outages
//
// Expected arguments in request.Params.Arguments:
//   - hostname: Hostname the pinned policy will govern
//   - bundle_dir: Pin bundle directory holding the DER certificates
func handlePinRolloutPrompt(ctx context.Context, request mcp.GetPromptRequest, embed templates.EmbedFS) (*mcp.GetPromptResult, error) {
	hostname := request.Params.Arguments["hostname"]
	bundleDir := request.Params.Arguments["bundle_dir"]

	messages, err := parsePromptTemplate(embed, "pin-rollout-prompt", promptTemplateData{
		Hostname:  hostname,
		BundleDir: bundleDir,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to parse pin rollout template: %w", err)
	}

	return mcp.NewGetPromptResult(
		"Pin Rollout Planning",
		messages,
	), nil
}

// handleRevocationAuditPrompt handles the revocation audit prompt.
//
// This function implements the revocation-audit prompt, which provides
// a workflow for auditing the revocation status of every certificate in
// an endpoint's chain. It covers OCSP and CRL checks, interpreting
// unknown statuses, and deciding when to enforce strict revocation.
//
// Parameters:
//   - ctx: Context for the request, used for cancellation and timeouts
//   - request: The MCP get prompt request containing arguments
//   - embed: Embedded filesystem holding the prompt templates
//
// Returns:
//   - *mcp.GetPromptResult: The prompt result with audit workflow
//   - error: Any error that occurred during prompt handling
//
// The audit covers:
//   - Per-certificate OCSP status
//   - Per-certificate CRL status
//   - Soft-fail versus require semantics
//   - Recommendations for revocation policy hardening
//
// Expected arguments in request.Params.Arguments:
//   - hostname: Target hostname to audit
func handleRevocationAuditPrompt(ctx context.Context, request mcp.GetPromptRequest, embed templates.EmbedFS) (*mcp.GetPromptResult, error) {
	hostname := request.Params.Arguments["hostname"]

	messages, err := parsePromptTemplate(embed, "revocation-audit-prompt", promptTemplateData{
		Hostname: hostname,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to parse revocation audit template: %w", err)
	}

	return mcp.NewGetPromptResult(
		"Revocation Audit Workflow",
		messages,
	), nil
}

// handleTroubleshootingPrompt handles the troubleshooting prompt.
//
// This function implements the troubleshooting prompt, which provides
// targeted guidance for common trust evaluation issues based on the
// specified issue type. It offers context-specific troubleshooting
// steps and common solutions for different problem categories.
//
// Parameters:
//   - ctx: Context for the request, used for cancellation and timeouts
//   - request: The MCP get prompt request containing arguments
//   - embed: Embedded filesystem holding the prompt templates
//
// Returns:
//   - *mcp.GetPromptResult: The prompt result with troubleshooting guidance
//   - error: Any error that occurred during prompt handling
//
// Supported issue types:
//   - policy: Policy files that fail to load or select the wrong variant
//   - pinning: Pinned policies rejecting chains they should accept
//   - revocation: OCSP/CRL lookups failing or returning unknown
//   - connection: Handshake failures, timeouts, unreachable hosts
//
// Expected arguments in request.Params.Arguments:
//   - issue_type: Type of issue ('policy', 'pinning', 'revocation', 'connection')
//   - hostname: Target hostname (for connection issues)
//   - policy_file: Policy file path (for policy issues)
func handleTroubleshootingPrompt(ctx context.Context, request mcp.GetPromptRequest, embed templates.EmbedFS) (*mcp.GetPromptResult, error) {
	issueType := request.Params.Arguments["issue_type"]
	hostname := request.Params.Arguments["hostname"]
	policyFile := request.Params.Arguments["policy_file"]

	messages, err := parsePromptTemplate(embed, "troubleshooting-prompt", promptTemplateData{
		IssueType:  issueType,
		Hostname:   hostname,
		PolicyFile: policyFile,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to parse troubleshooting template: %w", err)
	}

	return mcp.NewGetPromptResult(
		"Trust Troubleshooting Guide",
		messages,
	), nil
}
