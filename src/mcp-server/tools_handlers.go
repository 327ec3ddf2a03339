// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package mcpserver

import (
	"context"
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/rsa"
	"crypto/x509"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/renderer"
	"github.com/olekukonko/tablewriter/tw"

	x509certs "github.com/H0llyW00dzZ/tls-server-trust/src/internal/x509/certs"
	"github.com/H0llyW00dzZ/tls-server-trust/src/internal/x509/policyfile"
	"github.com/H0llyW00dzZ/tls-server-trust/src/internal/x509/probe"
	"github.com/H0llyW00dzZ/tls-server-trust/src/internal/x509/revoke"
	"github.com/H0llyW00dzZ/tls-server-trust/src/internal/x509/truststore"
	"github.com/H0llyW00dzZ/tls-server-trust/src/logger"
	"github.com/H0llyW00dzZ/tls-server-trust/src/mcp-server/templates"
)

// policyLoader returns a loader whose lint warnings go to stderr as structured
// JSON. Stdout carries the stdio protocol, so warnings must not reach it.
func policyLoader() *policyfile.Loader {
	return &policyfile.Loader{Log: logger.NewMCPLogger(os.Stderr, false)}
}

// handleEvaluateServerTrust probes a TLS endpoint and evaluates the presented chain under a trust policy.
// It builds the governing policy from tool arguments, connects to the endpoint, and reports the verdict.
//
// Parameters:
//   - ctx: Context for cancellation and timeout handling
//   - request: MCP tool call request containing hostname, port, and policy options
//   - config: Server configuration containing timeout, policy file, and format defaults
//
// Returns:
//   - The tool execution result containing the trust verdict and evaluation report
//   - An error if argument parsing or probing fails critically
//
// The governing policy is resolved in order: an inline 'policy' variant override,
// then the policy file named by 'policy_file' or the config, then standard chain
// validation with hostname verification. The report format follows the 'format'
// argument (report, table, tree, or json).
func handleEvaluateServerTrust(ctx context.Context, request mcp.CallToolRequest, config *Config) (*mcp.CallToolResult, error) {
	// Extract arguments
	hostname, err := request.RequireString("hostname")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("hostname parameter required: %v", err)), nil
	}

	port := request.GetInt("port", 443)

	format := request.GetString("format", config.Defaults.Format)
	if !validReportFormat(format) {
		return mcp.NewToolResultError(fmt.Sprintf("unsupported format %q, supported formats: %s", format, strings.Join(reportFormats, ", "))), nil
	}

	flags, err := parseRevocationMethods(request.GetString("revocation", ""), config.Defaults.Revocation)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid revocation methods: %v", err)), nil
	}

	// Build the governing policy and session
	session, err := sessionFromRequest(request, config, flags)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to build trust policy: %v", err)), nil
	}

	// Probe the endpoint under the configured timeout
	timeout := time.Duration(config.Defaults.Timeout) * time.Second
	probeCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	res, err := session.Probe(probeCtx, hostname, port, timeout, flags)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to probe %s:%d: %v", hostname, port, err)), nil
	}

	// Format output
	switch format {
	case "table":
		result := evaluationHeader(res)
		result += "\n" + res.RenderTable()
		return mcp.NewToolResultText(result), nil

	case "tree":
		result := evaluationHeader(res)
		result += "\n" + res.RenderTree()
		return mcp.NewToolResultText(result), nil

	case "json":
		jsonData, err := res.ToJSON()
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to format evaluation result: %v", err)), nil
		}

		// Parse the JSON back to a map for structured content
		var structuredData map[string]any
		if err := json.Unmarshal(jsonData, &structuredData); err != nil {
			// Fallback to text if parsing fails
			return mcp.NewToolResultText(string(jsonData)), nil
		}

		// Return structured JSON content for programmatic access
		return &mcp.CallToolResult{
			Content: []mcp.Content{
				mcp.NewTextContent(string(jsonData)),
			},
			StructuredContent: structuredData,
			IsError:           false,
		}, nil

	default: // report
		return mcp.NewToolResultText(buildEvaluationReport(res, flags)), nil
	}
}

// handleFetchServerChain fetches the certificate chain a TLS endpoint presents without evaluating trust.
// It dials the endpoint, collects the presented certificates, and formats them for inspection.
//
// Parameters:
//   - ctx: Context for cancellation and timeout handling
//   - request: MCP tool call request containing hostname, port, and format options
//   - config: Server configuration containing the connection timeout
//
// Returns:
//   - The tool execution result containing the fetched certificate chain
//   - An error if connection or certificate retrieval fails critically
//
// The connection accepts whatever chain the server presents; no policy runs.
// Use evaluate_server_trust for a verdict. The output format follows the
// 'format' argument (pem, table, or json).
func handleFetchServerChain(ctx context.Context, request mcp.CallToolRequest, config *Config) (*mcp.CallToolResult, error) {
	// Extract arguments
	hostname, err := request.RequireString("hostname")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("hostname parameter required: %v", err)), nil
	}

	port := request.GetInt("port", 443)
	format := request.GetString("format", "pem")

	timeout := time.Duration(config.Defaults.Timeout) * time.Second
	fetchCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	chain, err := probe.FetchChain(fetchCtx, hostname, port, timeout)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result := "Server Chain Fetch Results:\n"
	result += fmt.Sprintf("Host: %s:%d\n", hostname, port)
	result += fmt.Sprintf("Certificates received: %d\n\n", len(chain))

	certManager := x509certs.New()

	switch format {
	case "table":
		// Revocation was not checked, so status columns read "unknown"
		snapshot := &probe.Result{Host: hostname, Port: port, Chain: chain, ProbedAt: time.Now().UTC()}
		result += snapshot.RenderTable()
	case "json":
		result += "Format: JSON\n\n" + formatChainJSON(chain, certManager)
	default: // pem
		pemData := certManager.EncodeMultiplePEM(chain)
		result += "Format: PEM\n\n" + string(pemData)
	}

	result += fmt.Sprintf("\nTotal certificates in chain: %d", len(chain))

	return mcp.NewToolResultText(result), nil
}

// handleCheckRevocation checks OCSP and CRL revocation status for a live endpoint or certificate data.
// It resolves the target into a certificate chain and runs the enabled revocation methods per certificate.
//
// Parameters:
//   - ctx: Context for cancellation and timeout handling
//   - request: MCP tool call request containing the target, port, and method options
//   - config: Server configuration containing timeout and revocation defaults
//
// Returns:
//   - The tool execution result containing per-certificate OCSP and CRL status
//   - An error if target resolution or checking fails critically
//
// The target can be a hostname (the chain is fetched live), a certificate file
// path, or base64-encoded certificate data. Self-signed trust anchors are
// skipped since they are not revoked via OCSP/CRL.
func handleCheckRevocation(ctx context.Context, request mcp.CallToolRequest, config *Config) (*mcp.CallToolResult, error) {
	// Extract arguments
	target, err := request.RequireString("target")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("target parameter required: %v", err)), nil
	}

	port := request.GetInt("port", 443)

	flags, err := parseRevocationMethods(request.GetString("methods", "any"), config.Defaults.Revocation)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid revocation methods: %v", err)), nil
	}
	if !flags.Has(revoke.AnyMethod) {
		return mcp.NewToolResultError("no revocation methods enabled: pick at least one of ocsp, crl, any"), nil
	}

	timeout := time.Duration(config.Defaults.Timeout) * time.Second

	chain, source, err := resolveRevocationTarget(ctx, target, port, timeout)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	checkCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	statuses := revoke.Default.CheckChain(checkCtx, chain, flags)

	// Build the per-certificate report
	result := "Revocation Check Results:\n"
	result += fmt.Sprintf("Target: %s\n", source)
	result += fmt.Sprintf("Methods: %s\n", flags.String())
	result += fmt.Sprintf("Certificates in chain: %d\n", len(chain))
	result += fmt.Sprintf("Certificates checked: %d (self-signed anchors are skipped)\n\n", len(statuses))

	revokedCount := 0
	goodCount := 0

	for i, status := range statuses {
		result += fmt.Sprintf("Certificate %d: %s\n", i+1, status.Subject)
		result += fmt.Sprintf("  Serial: %s\n", status.SerialNumber)
		result += fmt.Sprintf("  OCSP: %s (%s)\n", status.OCSP.String(), status.OCSPDetail)
		result += fmt.Sprintf("  CRL: %s (%s)\n", status.CRL.String(), status.CRLDetail)

		if status.OCSP == revoke.StatusRevoked || status.CRL == revoke.StatusRevoked {
			revokedCount++
		} else if status.OCSP == revoke.StatusGood || status.CRL == revoke.StatusGood {
			goodCount++
		}
		result += "\n"
	}

	// Summary
	result += "Summary:\n"
	result += fmt.Sprintf("- Revoked: %d\n", revokedCount)
	result += fmt.Sprintf("- Good: %d\n", goodCount)
	result += fmt.Sprintf("- Unknown: %d\n", len(statuses)-revokedCount-goodCount)

	if revokedCount > 0 {
		result += "\n⚠️  Revoked certificates found in the chain."
	} else {
		result += "\n✓ No certificate in the chain is known to be revoked."
	}

	return mcp.NewToolResultText(result), nil
}

// handleListTrustPolicies loads a trust policy file and lists the per-host policy registry it declares.
// It validates the file against the policy schema, builds every policy, and reports the assignments.
//
// Parameters:
//   - ctx: Context for cancellation and timeout handling
//   - request: MCP tool call request containing the policy file path and format option
//   - config: Server configuration containing the default policy file path
//
// Returns:
//   - The tool execution result containing the loaded policy registry
//   - An error if loading or building fails critically
//
// Building surfaces errors schema validation cannot catch, like missing or
// empty pin bundle directories. The output format follows the 'format'
// argument (table or json).
func handleListTrustPolicies(ctx context.Context, request mcp.CallToolRequest, config *Config) (*mcp.CallToolResult, error) {
	policyPath := request.GetString("policy_file", config.Defaults.PolicyFile)
	if policyPath == "" {
		return mcp.NewToolResultError("policy_file parameter required: no policy file configured"), nil
	}

	format := request.GetString("format", "table")

	loader := policyLoader()
	policyConfig, err := loader.Load(policyPath)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to load policy file: %v", err)), nil
	}

	// Build every policy so bundle and variant errors surface here instead of
	// at evaluation time
	registry, _, err := loader.Build(policyConfig)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to build policies: %v", err)), nil
	}

	switch format {
	case "json":
		output := buildPolicyAudit(policyPath, policyConfig, registry.Hosts())
		jsonData, err := json.MarshalIndent(output, "", "  ")
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to format policy audit: %v", err)), nil
		}

		// Parse the JSON back to a map for structured content
		var structuredData map[string]any
		if err := json.Unmarshal(jsonData, &structuredData); err != nil {
			return mcp.NewToolResultText(string(jsonData)), nil
		}

		return &mcp.CallToolResult{
			Content: []mcp.Content{
				mcp.NewTextContent(string(jsonData)),
			},
			StructuredContent: structuredData,
			IsError:           false,
		}, nil

	default: // table
		result := "Trust Policy Audit Results:\n"
		result += fmt.Sprintf("Policy file: %s\n", policyPath)
		result += fmt.Sprintf("Registered hosts: %d\n", len(registry.Hosts()))
		result += defaultPolicyLine(policyConfig)
		result += "\n" + renderPolicyTable(policyConfig, registry.Hosts())
		return mcp.NewToolResultText(result), nil
	}
}

// handleInspectTrustBundle inspects a pin bundle directory and lists the DER certificates it provides.
// It loads the directory the same way pinned policies do and reports every pin that would be used.
//
// Parameters:
//   - ctx: Context for cancellation and timeout handling
//   - request: MCP tool call request containing the directory path and display options
//
// Returns:
//   - The tool execution result containing the loaded pins
//   - An error if directory reading fails critically
//
// Only files with .cer, .crt, or .der extensions (case-insensitive) are
// considered, and each must contain a single DER certificate. Files that fail
// to parse are skipped silently, exactly as policy building skips them, so the
// listing reflects the effective pin set.
func handleInspectTrustBundle(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	// Extract arguments
	directory, err := request.RequireString("directory")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("directory parameter required: %v", err)), nil
	}

	showKeys := request.GetBool("show_keys", false)
	format := request.GetString("format", "table")

	pins, err := truststore.CertificatesInDirectory(directory)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to read bundle directory: %v", err)), nil
	}

	result := "Trust Bundle Inspection Results:\n"
	result += fmt.Sprintf("Directory: %s\n", directory)
	result += fmt.Sprintf("Pins loaded: %d\n", len(pins))

	if len(pins) == 0 {
		result += "\n⚠️  No pins loaded. Pinned policies built from this directory fail closed:\n"
		result += "every chain is rejected until the directory provides at least one DER\n"
		result += "certificate with a .cer, .crt, or .der extension."
		return mcp.NewToolResultText(result), nil
	}

	if showKeys {
		keys := truststore.PublicKeys(pins)
		result += fmt.Sprintf("Public keys extracted: %d\n", len(keys))
	}

	switch format {
	case "json":
		jsonData, err := json.MarshalIndent(buildBundleListing(directory, pins), "", "  ")
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to format bundle listing: %v", err)), nil
		}
		result += "\n" + string(jsonData)
	default: // table
		result += "\n" + renderBundleTable(pins, showKeys)
	}

	return mcp.NewToolResultText(result), nil
}

// handleAnalyzeTrustReport analyzes a trust evaluation report using AI collaboration through sampling.
// It frames the report with policy semantics and security context, then requests an AI assessment
// using bidirectional communication.
//
// Parameters:
//   - ctx: Context for cancellation and timeout handling
//   - request: MCP tool call request containing the report input and analysis type
//   - config: Server configuration containing AI API settings and defaults
//
// Returns:
//   - The tool execution result containing AI-powered trust report analysis
//   - An error if report processing or AI analysis fails critically
//
// The function supports policy, hardening, and general analysis types. If no AI API key
// is configured, it returns a helpful message with the prepared analysis context.
// When AI is available, it uses embedded system prompts and streaming responses for
// comprehensive trust posture assessment.
func handleAnalyzeTrustReport(ctx context.Context, request mcp.CallToolRequest, config *Config) (*mcp.CallToolResult, error) {
	reportInput, err := request.RequireString("report")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("report parameter required: %v", err)), nil
	}

	analysisType := request.GetString("analysis_type", "general")

	// Resolve report text: file path, base64 payload, or inline text
	reportText := reportInput
	if fileData, err := os.ReadFile(reportInput); err == nil {
		reportText = string(fileData)
	} else if decoded, err := base64.StdEncoding.DecodeString(reportInput); err == nil {
		reportText = string(decoded)
	}

	if strings.TrimSpace(reportText) == "" {
		return mcp.NewToolResultError("report is empty: run evaluate_server_trust first and pass its output"), nil
	}

	// Build comprehensive report context for AI analysis
	reportContext := buildReportContext(reportText, analysisType)

	// Use context engineering as the primary prompt for AI analysis
	analysisPrompt := reportContext + "\n\n" + getAnalysisInstruction(analysisType)

	// Try to get AI analysis if API key is configured
	if config.AI.APIKey != "" {
		// Read system prompt from embedded template
		systemPromptBytes, err := templates.MagicEmbed.ReadFile("trust-analysis-system-prompt.md")
		systemPrompt := ""
		if err == nil {
			systemPrompt = string(systemPromptBytes)
		} else {
			// Fallback system prompt if file cannot be read
			systemPrompt = "You are a TLS server trust analyzer. Follow these exact instructions for analyzing trust evaluation reports."
		}

		// Create sampling handler for this request
		samplingHandler := &DefaultSamplingHandler{
			apiKey:   config.AI.APIKey,
			endpoint: config.AI.Endpoint,
			model:    config.AI.Model,
			version:  GetVersion(),
			timeout:  time.Duration(config.AI.Timeout) * time.Second,
			client:   &http.Client{Timeout: time.Duration(config.AI.Timeout) * time.Second},
		}

		// Prepare sampling request with system prompt
		samplingRequest := mcp.CreateMessageRequest{
			CreateMessageParams: mcp.CreateMessageParams{
				Messages: []mcp.SamplingMessage{
					{
						Role:    mcp.RoleUser,
						Content: mcp.TextContent{Text: analysisPrompt},
					},
				},
				SystemPrompt: systemPrompt,
				MaxTokens:    config.AI.MaxTokens,
				Temperature:  config.AI.Temperature,
			},
		}

		// Call the AI API
		samplingResult, err := samplingHandler.CreateMessage(ctx, samplingRequest)
		if err != nil {
			// If sampling fails, return only the error
			result := fmt.Sprintf("AI Analysis Request Failed: %v", err)
			return mcp.NewToolResultText(result), nil
		}

		// Return the AI's analysis
		result := fmt.Sprintf("🤖 AI-Powered Trust Report Analysis (%s)\n\n", analysisType)
		result += "Analysis provided by AI assistant:\n\n"
		if textContent, ok := samplingResult.SamplingMessage.Content.(mcp.TextContent); ok {
			result += textContent.Text
		} else {
			result += "AI provided analysis (content format not supported for display)"
		}
		result += fmt.Sprintf("\n\n---\n*AI Model: %s*", samplingResult.Model)

		return mcp.NewToolResultText(result), nil
	}

	// Fallback: Show what would be sent to AI (no API key configured)
	result := fmt.Sprintf("AI Collaborative Analysis (%s)\n\n", analysisType)
	result += "⚠️  No AI API key configured. To enable real AI analysis:\n"
	result += "   1. Set TRUST_AI_APIKEY environment variable, or\n"
	result += "   2. Configure 'ai.apiKey' in your config file\n\n"
	result += "📋 Report Context Prepared for AI Analysis:\n"
	result += reportContext
	result += fmt.Sprintf("\n\n💭 Analysis Prompt Ready:\n%s", analysisPrompt)
	result += "\n\n🔄 With API key configured, this would send the context to AI for intelligent analysis."

	return mcp.NewToolResultText(result), nil
}

// handleGetResourceUsage handles requests for current resource usage statistics including memory, GC, and CRL cache metrics.
// It collects comprehensive system and application resource data and formats it according to the requested output format.
//
// Parameters:
//   - ctx: Context for cancellation and timeout handling
//   - request: MCP tool call request containing format and detail level parameters
//
// Returns:
//   - The tool execution result containing formatted resource usage data
//   - An error if resource collection or formatting fails
//
// The function supports both JSON and Markdown output formats, with optional detailed metrics
// including CRL cache statistics, memory breakdown, and system information.
func handleGetResourceUsage(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	detailed := request.GetBool("detailed", false)
	format := request.GetString("format", "json")

	// Collect resource usage data
	data := CollectResourceUsage(detailed)

	// Format output based on format parameter
	switch format {
	case "markdown":
		markdown := FormatResourceUsageAsMarkdown(data)
		return mcp.NewToolResultText(markdown), nil
	case "json":
		fallthrough
	default:
		jsonData, err := FormatResourceUsageAsJSON(data)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to format resource usage: %v", err)), nil
		}

		// Parse the JSON string back to a map for structured content
		var structuredData map[string]any
		if err := json.Unmarshal([]byte(jsonData), &structuredData); err != nil {
			// Fallback to text if parsing fails
			return mcp.NewToolResultText(jsonData), nil
		}

		// Return structured JSON content for programmatic access
		return &mcp.CallToolResult{
			Content: []mcp.Content{
				mcp.NewTextContent(jsonData),
			},
			StructuredContent: structuredData,
			IsError:           false,
		}, nil
	}
}

// parseRevocationMethods converts a comma-separated method list into revocation flags.
// It falls back to the configured default names when the argument is empty and
// treats "none" as no methods at all.
//
// Parameters:
//   - raw: Comma-separated method names from the tool argument, may be empty
//   - defaults: Method names from the server configuration
//
// Returns:
//   - The parsed revocation flags (zero when "none" was requested)
//   - An error if a method name is not recognized
func parseRevocationMethods(raw string, defaults []string) (revoke.Flags, error) {
	names := defaults
	if raw != "" {
		names = strings.Split(raw, ",")
	}
	if len(names) == 1 && strings.EqualFold(strings.TrimSpace(names[0]), "none") {
		return 0, nil
	}
	return revoke.ParseFlags(names)
}

// sessionFromRequest builds the probe session governing one evaluation from tool arguments.
// It prefers an inline policy variant override, then a policy file, then standard validation.
//
// Parameters:
//   - request: MCP tool call request carrying policy, bundle, and policy_file arguments
//   - config: Server configuration providing the default policy file path
//   - flags: Parsed revocation flags forwarded to an inline revoked variant
//
// Returns:
//   - A probe session bound to the resolved registry and fallback policy
//   - An error if policy construction fails (unknown variant, missing bundle)
//
// An inline override becomes the session fallback with an empty registry, so
// the override governs every host probed through the session. A policy file
// contributes both its per-host registry and its default policy.
func sessionFromRequest(request mcp.CallToolRequest, config *Config, flags revoke.Flags) (*probe.Session, error) {
	variant := request.GetString("policy", "")
	if variant != "" {
		validateChain := request.GetBool("validate_chain", true)
		validateHost := request.GetBool("validate_host", true)
		spec := &policyfile.PolicySpec{
			Variant:       variant,
			ValidateChain: &validateChain,
			ValidateHost:  &validateHost,
			Bundle:        request.GetString("bundle", ""),
		}
		if variant == "revoked" && flags != 0 {
			spec.Revocation = strings.Split(flags.String(), "|")
		}

		registry, fallback, err := policyLoader().Build(&policyfile.Config{Default: spec})
		if err != nil {
			return nil, err
		}
		return probe.NewSession(registry, fallback), nil
	}

	policyPath := request.GetString("policy_file", config.Defaults.PolicyFile)
	if policyPath != "" {
		registry, fallback, err := policyLoader().LoadAndBuild(policyPath)
		if err != nil {
			return nil, err
		}
		return probe.NewSession(registry, fallback), nil
	}

	return probe.NewSession(nil, nil), nil
}

// resolveRevocationTarget turns the target argument into a certificate chain.
// Certificate data is decoded directly; anything else is probed as a hostname.
//
// Parameters:
//   - ctx: Context for cancellation and timeout handling
//   - target: Hostname, certificate file path, or base64-encoded certificate data
//   - port: Port used when the target resolves to a hostname
//   - timeout: Connection timeout for the live fetch
//
// Returns:
//   - The resolved certificate chain
//   - A display string naming where the chain came from
//   - An error if neither interpretation produces certificates
//
// A readable file that fails to parse is reported as a decode error rather
// than probed, since a file path is never a meaningful hostname.
func resolveRevocationTarget(ctx context.Context, target string, port int, timeout time.Duration) ([]*x509.Certificate, string, error) {
	certManager := x509certs.New()

	var certData []byte
	if fileData, err := os.ReadFile(target); err == nil {
		certData = fileData
	} else if decoded, err := base64.StdEncoding.DecodeString(target); err == nil {
		certData = decoded
	}

	if certData != nil {
		certs, err := decodeCertificates(certManager, certData)
		if err == nil {
			return certs, "certificate data", nil
		}
		if _, statErr := os.Stat(target); statErr == nil {
			return nil, "", fmt.Errorf("failed to decode certificate file: %w", err)
		}
		// Base64-decodable but not a certificate: treat as a hostname below
	}

	fetchCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	chain, err := probe.FetchChain(fetchCtx, target, port, timeout)
	if err != nil {
		return nil, "", fmt.Errorf("failed to fetch chain from %s:%d: %v", target, port, err)
	}
	return chain, fmt.Sprintf("%s:%d", target, port), nil
}

// decodeCertificates parses certificate data as a bundle first, then as a single certificate.
//
// Parameters:
//   - certManager: Certificate manager instance for decoding operations
//   - data: Raw PEM or DER certificate data
//
// Returns:
//   - The decoded certificates, leaf first when the input preserves that order
//   - An error if neither decoding succeeds
func decodeCertificates(certManager *x509certs.Certificate, data []byte) ([]*x509.Certificate, error) {
	if certs, err := certManager.DecodeMultiple(data); err == nil {
		return certs, nil
	}

	cert, err := certManager.Decode(data)
	if err != nil {
		return nil, err
	}
	return []*x509.Certificate{cert}, nil
}

// evaluationHeader renders the verdict summary lines shared by every evaluation format.
//
// Parameters:
//   - res: Probe result carrying the verdict and endpoint identity
//
// Returns:
//   - The formatted summary block ending with the verdict line
func evaluationHeader(res *probe.Result) string {
	header := "Server Trust Evaluation Results:\n"
	header += fmt.Sprintf("Host: %s:%d\n", res.Host, res.Port)
	header += fmt.Sprintf("Policy Source: %s\n", res.PolicySource())
	header += fmt.Sprintf("Probed At: %s UTC\n", res.ProbedAt.Format("2006-01-02 15:04:05"))

	if res.Trusted {
		header += "Verdict: TRUSTED ✓\n"
	} else {
		header += "Verdict: UNTRUSTED ✗\n"
	}

	return header
}

// buildEvaluationReport renders the full text report for an evaluation result.
// It combines the verdict summary, per-certificate chain details, and revocation
// status when lookup methods were enabled.
//
// Parameters:
//   - res: Probe result carrying the verdict, chain, and revocation detail
//   - flags: Revocation flags that governed the evaluation
//
// Returns:
//   - The complete formatted report ready for display
func buildEvaluationReport(res *probe.Result, flags revoke.Flags) string {
	report := evaluationHeader(res)

	report += "\nChain Details:\n"
	for i, cert := range res.Chain {
		report += fmt.Sprintf("%d: %s\n", i+1, cert.Subject.CommonName)
		report += fmt.Sprintf("   Issuer: %s\n", cert.Issuer.CommonName)
		report += fmt.Sprintf("   Valid: %s to %s\n", cert.NotBefore.Format("2006-01-02"), cert.NotAfter.Format("2006-01-02"))
	}
	report += fmt.Sprintf("\nTotal certificates: %d\n", len(res.Chain))

	if flags.Has(revoke.AnyMethod) {
		report += fmt.Sprintf("\nRevocation Status (%s):\n", flags.String())
		if len(res.Revocation) == 0 {
			report += "  No certificates checked (self-signed anchors are skipped)\n"
		}
		for _, status := range res.Revocation {
			report += fmt.Sprintf("  %s (serial %s):\n", status.Subject, status.SerialNumber)
			report += fmt.Sprintf("    OCSP: %s (%s)\n", status.OCSP.String(), status.OCSPDetail)
			report += fmt.Sprintf("    CRL: %s (%s)\n", status.CRL.String(), status.CRLDetail)
		}
	}

	if res.Trusted {
		report += "\n✓ The presented chain satisfies the governing trust policy."
	} else {
		report += "\n⚠️  The presented chain was rejected by the governing trust policy."
	}

	return report
}

// formatChainJSON formats a fetched certificate chain into a structured JSON representation.
// It creates a JSON object containing certificate metadata and PEM-encoded data.
//
// Parameters:
//   - chain: Slice of X.509 certificates to format, leaf first
//   - certManager: Certificate manager instance for PEM encoding operations
//
// Returns:
//   - A JSON string containing structured chain information with host-independent metadata
//
// The JSON output includes subject, issuer, serial number, signature algorithm, and PEM-encoded
// data for each certificate. This format is suitable for programmatic processing and archival.
func formatChainJSON(chain []*x509.Certificate, certManager *x509certs.Certificate) string {
	type certInfo struct {
		Subject            string `json:"subject"`
		Issuer             string `json:"issuer"`
		Serial             string `json:"serial"`
		SignatureAlgorithm string `json:"signatureAlgorithm"`
		NotAfter           string `json:"notAfter"`
		PEM                string `json:"pem"`
	}

	certInfos := make([]certInfo, len(chain))
	for i, cert := range chain {
		pemData := certManager.EncodePEM(cert)
		certInfos[i] = certInfo{
			Subject:            cert.Subject.CommonName,
			Issuer:             cert.Issuer.CommonName,
			Serial:             cert.SerialNumber.String(),
			SignatureAlgorithm: cert.SignatureAlgorithm.String(),
			NotAfter:           cert.NotAfter.Format(time.RFC3339),
			PEM:                string(pemData),
		}
	}

	output := map[string]any{
		"title":            "Presented Certificate Chain",
		"totalPresented":   len(chain),
		"listCertificates": certInfos,
	}

	jsonData, _ := json.MarshalIndent(output, "", "  ")
	return string(jsonData)
}

// defaultPolicyLine describes a policy file's default spec for the audit summary.
//
// Parameters:
//   - policyConfig: Decoded policy file configuration
//
// Returns:
//   - One formatted line naming the fallback behavior
func defaultPolicyLine(policyConfig *policyfile.Config) string {
	if policyConfig.Default == nil {
		return "Default policy: standard validation (no default spec)\n"
	}
	return fmt.Sprintf("Default policy: %s\n", policyConfig.Default.Variant)
}

// renderPolicyTable renders per-host policy assignments as a formatted markdown table.
//
// Parameters:
//   - policyConfig: Decoded policy file configuration holding the specs
//   - hosts: Registered hostnames in display order
//
// Returns:
//   - The rendered markdown table, or a placeholder when no hosts are registered
func renderPolicyTable(policyConfig *policyfile.Config, hosts []string) string {
	if len(hosts) == 0 {
		return "No per-host policies declared; every host uses the default policy."
	}

	var buf strings.Builder
	table := tablewriter.NewTable(&buf,
		tablewriter.WithRenderer(renderer.NewMarkdown(tw.Rendition{Streaming: true})),
	)

	// Headers with emojis
	headers := []string{"🌐 Host", "🛡️ Variant", "🔗 Validate Chain", "🏠 Validate Host", "📁 Bundle", "🔄 Revocation"}
	table.Header(headers)

	var rows [][]string
	for _, host := range hosts {
		spec := policyConfig.Hosts[host]
		if spec == nil {
			continue
		}
		rows = append(rows, []string{
			host,
			spec.Variant,
			fmt.Sprintf("%t", specBool(spec.ValidateChain)),
			fmt.Sprintf("%t", specBool(spec.ValidateHost)),
			orDash(spec.Bundle),
			orDash(strings.Join(spec.Revocation, ", ")),
		})
	}

	table.Bulk(rows)
	table.Render()
	return buf.String()
}

// buildPolicyAudit builds the JSON form of a policy audit.
//
// Parameters:
//   - policyPath: Path the policy file was loaded from
//   - policyConfig: Decoded policy file configuration
//   - hosts: Registered hostnames in display order
//
// Returns:
//   - A map ready for JSON marshaling, with per-host entries and the default spec
func buildPolicyAudit(policyPath string, policyConfig *policyfile.Config, hosts []string) map[string]any {
	type policyEntry struct {
		Host          string   `json:"host"`
		Variant       string   `json:"variant"`
		ValidateChain bool     `json:"validateChain"`
		ValidateHost  bool     `json:"validateHost"`
		Bundle        string   `json:"bundle,omitempty"`
		Revocation    []string `json:"revocation,omitempty"`
	}

	entries := make([]policyEntry, 0, len(hosts))
	for _, host := range hosts {
		spec := policyConfig.Hosts[host]
		if spec == nil {
			continue
		}
		entries = append(entries, policyEntry{
			Host:          host,
			Variant:       spec.Variant,
			ValidateChain: specBool(spec.ValidateChain),
			ValidateHost:  specBool(spec.ValidateHost),
			Bundle:        spec.Bundle,
			Revocation:    spec.Revocation,
		})
	}

	output := map[string]any{
		"title":           "Trust Policy Registry",
		"policyFile":      policyPath,
		"registeredHosts": len(entries),
		"hosts":           entries,
	}

	if policyConfig.Default != nil {
		output["defaultVariant"] = policyConfig.Default.Variant
	} else {
		output["defaultVariant"] = "default"
	}

	return output
}

// renderBundleTable renders loaded pins as a formatted markdown table.
//
// Parameters:
//   - pins: Certificates loaded from the bundle directory
//   - showKeys: Whether to append a public key algorithm and size column
//
// Returns:
//   - The rendered markdown table
func renderBundleTable(pins []*x509.Certificate, showKeys bool) string {
	var buf strings.Builder
	table := tablewriter.NewTable(&buf,
		tablewriter.WithRenderer(renderer.NewMarkdown(tw.Rendition{Streaming: true})),
	)

	// Headers with emojis
	headers := []string{"🔢 #", "📛 Subject", "🏢 Issuer", "📅 Valid Until", "🔑 Serial"}
	if showKeys {
		headers = append(headers, "🔐 Public Key")
	}
	table.Header(headers)

	var rows [][]string
	for i, pin := range pins {
		row := []string{
			fmt.Sprintf("%d", i+1),
			pin.Subject.CommonName,
			pin.Issuer.CommonName,
			pin.NotAfter.Format("2006-01-02"),
			pin.SerialNumber.String(),
		}
		if showKeys {
			row = append(row, publicKeyText(pin))
		}
		rows = append(rows, row)
	}

	table.Bulk(rows)
	table.Render()
	return buf.String()
}

// buildBundleListing builds the JSON form of a bundle inspection.
//
// Parameters:
//   - directory: Bundle directory the pins were loaded from
//   - pins: Certificates loaded from the directory
//
// Returns:
//   - A map ready for JSON marshaling with per-pin metadata
func buildBundleListing(directory string, pins []*x509.Certificate) map[string]any {
	type pinEntry struct {
		Subject   string `json:"subject"`
		Issuer    string `json:"issuer"`
		Serial    string `json:"serial"`
		NotAfter  string `json:"notAfter"`
		PublicKey string `json:"publicKey"`
		IsCA      bool   `json:"isCA"`
	}

	entries := make([]pinEntry, len(pins))
	for i, pin := range pins {
		entries[i] = pinEntry{
			Subject:   pin.Subject.CommonName,
			Issuer:    pin.Issuer.CommonName,
			Serial:    pin.SerialNumber.String(),
			NotAfter:  pin.NotAfter.Format(time.RFC3339),
			PublicKey: publicKeyText(pin),
			IsCA:      pin.IsCA,
		}
	}

	return map[string]any{
		"title":     "Trust Bundle Listing",
		"directory": directory,
		"pinCount":  len(pins),
		"pins":      entries,
	}
}

// publicKeyText formats a certificate's public key algorithm and size for display.
//
// Parameters:
//   - cert: Certificate whose public key is described
//
// Returns:
//   - A string like "2048-bit RSA", or the bare algorithm name for unrecognized key types
func publicKeyText(cert *x509.Certificate) string {
	switch pubKey := cert.PublicKey.(type) {
	case *rsa.PublicKey:
		return fmt.Sprintf("%d-bit RSA", pubKey.Size()*8)
	case *ecdsa.PublicKey:
		return fmt.Sprintf("%d-bit ECDSA", pubKey.Curve.Params().BitSize)
	case ed25519.PublicKey:
		return fmt.Sprintf("%d-bit Ed25519", len(pubKey)*8)
	default:
		return cert.PublicKeyAlgorithm.String()
	}
}

// specBool resolves an optional policy spec flag to its effective value.
// Absent flags default to true, matching policy building.
func specBool(value *bool) bool {
	if value != nil {
		return *value
	}
	return true
}

// orDash substitutes a dash for empty table cells.
func orDash(value string) string {
	if value == "" {
		return "-"
	}
	return value
}

// buildReportContext frames a trust evaluation report for AI analysis.
// It prepends the policy semantics the analyzer needs to interpret verdicts
// correctly and appends current security context.
//
// Parameters:
//   - reportText: The raw trust evaluation report (text or JSON)
//   - analysisType: Type of analysis (policy, hardening, general)
//
// Returns:
//   - A formatted string containing the framed report context
func buildReportContext(reportText, analysisType string) string {
	var context strings.Builder

	// Analysis framing
	fmt.Fprintf(&context, "Analysis Type: %s\n", analysisType)
	fmt.Fprintf(&context, "Current Time: %s UTC\n\n", time.Now().UTC().Format("2006-01-02 15:04:05"))

	// Policy semantics the verdict depends on
	context.WriteString("POLICY SEMANTICS:\n")
	context.WriteString("default: standard chain validation against system roots, optional hostname match.\n")
	context.WriteString("revoked: standard validation plus OCSP/CRL revocation checking.\n")
	context.WriteString("pinned-certs: with chain validation, the pins are the only accepted anchors; without it, raw DER comparison against the pin set.\n")
	context.WriteString("pinned-keys: public key comparison against the pin set, optionally after standard validation.\n")
	context.WriteString("disabled: every chain accepted, including an empty one. Deliberate opt-out.\n")
	context.WriteString("Fail-closed rule: an empty pin set accepts no chain, and an empty presented chain never passes a validating policy.\n\n")

	context.WriteString("=== TRUST EVALUATION REPORT ===\n")
	context.WriteString(reportText)
	context.WriteString("\n=== END OF REPORT ===\n")

	appendSecurityContext(&context)

	return context.String()
}

// appendSecurityContext adds current TLS/SSL security best practices and recommendations to the context builder.
// It includes information about cryptographic algorithms, certificate validity periods, and deprecated protocols.
//
// Parameters:
//   - context: String builder to append security context information to
//
// The function provides guidance on quantum-resistant algorithms, certificate lifetime limits,
// pinning trade-offs, and deprecated cryptographic primitives for comprehensive trust assessment.
func appendSecurityContext(context *strings.Builder) {
	context.WriteString("\n=== SECURITY CONTEXT ===\n")
	context.WriteString("Current TLS/SSL Best Practices:\n")
	context.WriteString("- ~RSA keys should be 2048 bits or larger~ (Quantum Vulnerable 💀)\n")
	context.WriteString("- ~ECDSA keys should use P-256 or stronger curves~ (Quantum Vulnerable 💀)\n")
	context.WriteString("- Certificates should not be valid for more than 398 days (CA/Browser Forum)\n")
	context.WriteString("- Modern clients require SAN (Subject Alternative Name) extension\n")
	context.WriteString("- Pin anchors (CA certificates) rather than leaves so routine rotation does not break trust\n")
	context.WriteString("- Stage pin rollouts: add the next pin before the old certificate rotates out\n")
	context.WriteString("- Quantum-resistant algorithms: Consider ML-KEM (Kyber), ML-DSA (Dilithium), and SLH-DSA (SPHINCS+) for post-quantum cryptography\n")
	context.WriteString("- Deprecated: MD5, SHA-1 signatures\n")
	context.WriteString("- Deprecated: SSLv3, TLS 1.0, TLS 1.1\n")
}

// getAnalysisInstruction returns tailored analysis instructions for AI trust assessment based on the requested analysis type.
// It provides specific prompts for policy, hardening, and general analysis types.
//
// Parameters:
//   - analysisType: The type of analysis requested ("policy", "hardening", or "general")
//
// Returns:
//   - A formatted string containing detailed analysis instructions for the AI
//
// The function uses structured prompts that guide the AI to focus on relevant aspects
// of trust evaluation, including policy fit, pinning posture, and revocation coverage
// with specific risk levels and recommendations.
func getAnalysisInstruction(analysisType string) string {
	switch analysisType {
	case "policy":
		return `
POLICY ANALYSIS REQUEST:
Based on the trust evaluation report above, assess the governing policy:
1. Whether the verdict follows from the policy variant and its options
2. Whether the policy variant fits the endpoint (public CA vs private infrastructure)
3. Pinning posture: anchor pinning vs leaf pinning vs key pinning trade-offs
4. Revocation coverage and what an unreachable responder means for the verdict
5. Registry vs fallback policy source implications for this host
6. Recommended policy changes with concrete variant and option names

Be specific about which policy options produced the verdict in the report.`

	case "hardening":
		return `
HARDENING ANALYSIS REQUEST:
Based on the trust evaluation report above, recommend hardening steps:
1. Weaknesses in the presented chain (key sizes, signature algorithms, validity windows)
2. Whether pinning would measurably reduce exposure for this endpoint
3. Revocation checking: which methods to enable and the availability cost of requiring responses
4. Rotation and pin rollout strategy that avoids outages
5. Monitoring and re-evaluation cadence
6. Risk assessment (Critical/High/Medium/Low) with specific findings

Prioritize recommendations by risk reduction per operational cost.`

	default: // general
		return `
GENERAL TRUST ANALYSIS REQUEST:
Based on the trust evaluation report above, provide a comprehensive analysis covering:
1. The verdict and which policy produced it
2. Certificate chain structure and notable properties
3. Revocation status and what it implies
4. Validity periods and renewal considerations
5. Operational health and maintenance recommendations
6. Any notable characteristics or potential concerns

Provide actionable insights for managing trust in this endpoint.`
	}
}
