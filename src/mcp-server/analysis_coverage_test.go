// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package mcpserver

import (
	"context"
	"encoding/base64"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
)

func TestHandleAnalyzeTrustReport_ReportSources(t *testing.T) {
	config := testConfig(t)

	reportFile := filepath.Join(t.TempDir(), "trust-report.txt")
	if err := os.WriteFile(reportFile, []byte(sampleTrustReport), 0644); err != nil {
		t.Fatalf("failed to write report file: %v", err)
	}

	tests := []struct {
		name      string
		arguments map[string]any
		expect    []string
	}{
		{
			// The report parameter resolves as a file path before anything else.
			name: "report from file path",
			arguments: map[string]any{
				"report":        reportFile,
				"analysis_type": "general",
			},
			expect: []string{
				"AI Collaborative Analysis (general)",
				"Analysis Type: general",
				"=== TRUST EVALUATION REPORT ===",
				"internal.api.example.org:8443",
				"=== END OF REPORT ===",
				"GENERAL TRUST ANALYSIS REQUEST:",
			},
		},
		{
			// Base64 payloads decode to the report text when no file matches.
			name: "report from base64 payload",
			arguments: map[string]any{
				"report":        base64.StdEncoding.EncodeToString([]byte(sampleTrustReport)),
				"analysis_type": "hardening",
			},
			expect: []string{
				"AI Collaborative Analysis (hardening)",
				"internal.api.example.org:8443",
				"HARDENING ANALYSIS REQUEST:",
				"Risk assessment (Critical/High/Medium/Low)",
			},
		},
		{
			// Omitting analysis_type defaults to general.
			name: "default analysis type",
			arguments: map[string]any{
				"report": sampleTrustReport,
			},
			expect: []string{
				"AI Collaborative Analysis (general)",
				"GENERAL TRUST ANALYSIS REQUEST:",
			},
		},
		{
			// Unknown analysis types keep their label but fall back to the
			// general instruction set.
			name: "unknown analysis type falls back to general",
			arguments: map[string]any{
				"report":        sampleTrustReport,
				"analysis_type": "forensic",
			},
			expect: []string{
				"AI Collaborative Analysis (forensic)",
				"Analysis Type: forensic",
				"GENERAL TRUST ANALYSIS REQUEST:",
			},
		},
		{
			// The framing gives the AI the policy semantics a verdict depends on.
			name: "context framing includes policy semantics",
			arguments: map[string]any{
				"report":        sampleTrustReport,
				"analysis_type": "policy",
			},
			expect: []string{
				"POLICY SEMANTICS:",
				"Fail-closed rule: an empty pin set accepts no chain",
				"=== SECURITY CONTEXT ===",
				"Certificates should not be valid for more than 398 days",
				"💭 Analysis Prompt Ready:",
				"POLICY ANALYSIS REQUEST:",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := mcp.CallToolRequest{
				Params: mcp.CallToolParams{
					Name:      "analyze_trust_report",
					Arguments: tt.arguments,
				},
			}

			result, err := handleAnalyzeTrustReport(context.Background(), req, config)
			if err != nil {
				t.Fatalf("handleAnalyzeTrustReport returned error: %v", err)
			}
			if result.IsError {
				t.Fatalf("unexpected tool error: %s", getResultText(result))
			}

			text := getResultText(result)
			if !strings.Contains(text, "No AI API key configured") {
				t.Error("expected no API key fallback")
			}
			for _, want := range tt.expect {
				if !strings.Contains(text, want) {
					t.Errorf("result missing %q", want)
				}
			}
		})
	}
}

func TestHandleAnalyzeTrustReport_SamplingFailure(t *testing.T) {
	// With an API key configured the handler calls the AI endpoint. Pointing
	// it at TEST-NET-1 makes the request fail without leaving the test box,
	// which exercises the failure reporting path.
	config := testConfig(t)
	config.AI.APIKey = "test-key"
	config.AI.Endpoint = "http://192.0.2.1:12345" // Test-Net-1 (reserved, unreachable)
	config.AI.Timeout = 1

	req := mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Name: "analyze_trust_report",
			Arguments: map[string]any{
				"report":        sampleTrustReport,
				"analysis_type": "general",
			},
		},
	}

	result, err := handleAnalyzeTrustReport(context.Background(), req, config)

	// Sampling failures surface in the tool result, not as a handler error
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	text := getResultText(result)
	if !strings.Contains(text, "AI Analysis Request Failed") {
		t.Errorf("expected failure message, got: %s", text)
	}
	if strings.Contains(text, "🤖 AI-Powered Trust Report Analysis") {
		t.Error("failed request must not render the analysis banner")
	}
}
