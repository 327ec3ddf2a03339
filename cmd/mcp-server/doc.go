// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
// Use of this source code is governed by a BSD 3-Clause
// license that can be found in the LICENSE file.

// mcp-server is a Model Context Protocol (MCP) server that exposes TLS server
// trust evaluation to AI assistants and automation clients over stdio.
//
// # Installation
//
// Install with Go 1.25.5 or later:
//
//	go install github.com/H0llyW00dzZ/tls-server-trust/cmd/mcp-server@latest
//
// # Usage
//
//	mcp-server [FLAGS]
//
// # Flags
//
//	--config        Path to MCP server configuration file (JSON or YAML)
//	--instructions  Display trust evaluation workflows and MCP server usage
//	--help          Show help information
//	--version       Show version information
//
// # Environment Variables
//
//	TRUST_AI_APIKEY        API key for AI-backed trust report analysis (optional)
//	MCP_TRUST_CONFIG_FILE  Path to configuration file (alternative to --config flag)
//
// # MCP Tools
//
// The server provides the following trust evaluation operations:
//
//   - evaluate_server_trust: Probe a TLS endpoint and evaluate the presented chain under a trust policy
//   - fetch_server_chain: Fetch the certificate chain a TLS endpoint presents without evaluating trust
//   - check_revocation: Check OCSP and CRL revocation status for a live endpoint or certificate data
//   - list_trust_policies: Load a trust policy file and list the per-host policy registry it declares
//   - inspect_trust_bundle: Inspect a pin bundle directory and list the DER certificates it provides as pins
//   - analyze_trust_report: Delegate structured trust report analysis to a configured LLM
//   - get_resource_usage: Monitor server resource usage (memory, GC, CRL cache)
//
// # MCP Resources
//
//   - config://template: Server configuration template
//   - info://version: Version and capabilities info
//   - docs://trust-policy-formats: Trust policy file format documentation
//   - status://server-status: Current server health status
//
// # MCP Prompts
//
//   - trust-evaluation: Evaluate a TLS endpoint's trust posture end to end
//   - pin-rollout: Plan and verify a certificate pin rollout without outages
//   - revocation-audit: Audit revocation status across an endpoint's certificate chain
//   - troubleshooting: Troubleshoot common trust evaluation issues
//
// # Examples
//
// Start MCP server with default configuration:
//
//	mcp-server
//
// Load custom configuration:
//
//	mcp-server --config /path/to/config.json
//
// Show trust evaluation workflows:
//
//	mcp-server --instructions
//
// # AI-Assisted Analysis
//
// Set TRUST_AI_APIKEY or configure the ai section of the MCP config to allow
// the server to request completions from xAI Grok (default), OpenAI, or any
// OpenAI-compatible API.
package main
