// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package mcpserver

import (
	"io"
	"os"
	"testing"

	"github.com/spf13/cobra"
)

func TestNewDefaultFramework(t *testing.T) {
	os.Unsetenv("MCP_TRUST_CONFIG_FILE")
	os.Unsetenv("TRUST_AI_APIKEY")

	t.Run("assembles default dependencies", func(t *testing.T) {
		framework, err := newDefaultFramework("1.0.0-test", "")
		if err != nil {
			t.Fatalf("newDefaultFramework failed: %v", err)
		}
		if framework.config == nil {
			t.Error("Expected config to be loaded")
		}
		if framework.instructions == "" {
			t.Error("Expected rendered instructions")
		}
		if framework.samplingHandler == nil {
			t.Error("Expected sampling handler")
		}
		if len(framework.tools)+len(framework.toolsWithConfig) == 0 {
			t.Error("Expected default tools")
		}
	})

	t.Run("rejects unreadable config file", func(t *testing.T) {
		_, err := newDefaultFramework("1.0.0-test", "/nonexistent/config.json")
		if err == nil {
			t.Fatal("Expected error for nonexistent config file")
		}
		if !contains(err.Error(), "failed to load config") {
			t.Errorf("Unexpected error: %v", err)
		}
	})
}

func TestBuildRootCommand_Metadata(t *testing.T) {
	os.Unsetenv("MCP_TRUST_CONFIG_FILE")
	os.Unsetenv("TRUST_AI_APIKEY")

	framework, err := newDefaultFramework("2.1.0", "")
	if err != nil {
		t.Fatalf("newDefaultFramework failed: %v", err)
	}

	cmd := framework.BuildRootCommand()
	if cmd.Use == "" {
		t.Error("Expected executable name in Use")
	}
	if cmd.Version != "2.1.0" {
		t.Errorf("Version = %q, want 2.1.0", cmd.Version)
	}

	// The help template must be fully rendered
	if cmd.Long == "" || cmd.Example == "" {
		t.Fatal("Expected rendered Long and Example sections")
	}
	if contains(cmd.Long, "{{") || contains(cmd.Example, "{{") {
		t.Error("Help text contains unrendered template actions")
	}
	if !contains(cmd.Long, "MCP_TRUST_CONFIG_FILE") {
		t.Error("Long description missing environment variable reference")
	}
	if !contains(cmd.Example, cmd.Use) {
		t.Errorf("Examples do not mention the executable name %q", cmd.Use)
	}
	if !contains(cmd.Example, "--config") {
		t.Error("Examples missing --config usage")
	}
}

func TestBuildRootCommand_InstructionsFlag(t *testing.T) {
	os.Unsetenv("MCP_TRUST_CONFIG_FILE")
	os.Unsetenv("TRUST_AI_APIKEY")

	framework, err := newDefaultFramework("1.0.0-test", "")
	if err != nil {
		t.Fatalf("newDefaultFramework failed: %v", err)
	}

	cmd := framework.BuildRootCommand()
	cmd.SetArgs([]string{"--instructions"})

	// Instructions print to stdout; capture them instead of starting a server
	oldStdout := os.Stdout
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("Failed to create pipe: %v", err)
	}
	os.Stdout = w

	outCh := make(chan string, 1)
	go func() {
		data, _ := io.ReadAll(r)
		outCh <- string(data)
	}()

	execErr := cmd.Execute()
	w.Close()
	os.Stdout = oldStdout
	output := <-outCh

	if execErr != nil {
		t.Fatalf("Execute with --instructions failed: %v", execErr)
	}
	if !contains(output, "TLS Server Trust Evaluator MCP Server") {
		t.Error("Instructions missing title")
	}
	if !contains(output, "## Recommended Workflows") {
		t.Error("Instructions missing workflow section")
	}
	if !contains(output, "evaluate_server_trust") {
		t.Error("Instructions missing rendered tool name")
	}
}

func TestBuildRootCommand_UnexpectedArguments(t *testing.T) {
	os.Unsetenv("MCP_TRUST_CONFIG_FILE")
	os.Unsetenv("TRUST_AI_APIKEY")

	framework, err := newDefaultFramework("1.0.0-test", "")
	if err != nil {
		t.Fatalf("newDefaultFramework failed: %v", err)
	}

	cmd := framework.BuildRootCommand()
	cmd.SetArgs([]string{"bogus-subcommand"})
	cmd.SetOut(io.Discard)
	cmd.SetErr(io.Discard)

	if err := cmd.Execute(); err == nil {
		t.Fatal("Expected error for unexpected arguments")
	} else if !contains(err.Error(), "unexpected arguments") {
		t.Errorf("Unexpected error: %v", err)
	}
}

func TestParseTemplateResult(t *testing.T) {
	cf := &CLIFramework{}

	t.Run("splits long description and examples", func(t *testing.T) {
		input := "Tool description here.\n\nMore detail.\n\n## Examples\n\n  tool --flag value\n"
		longDesc, examples, err := cf.parseTemplateResult(input)
		if err != nil {
			t.Fatalf("parseTemplateResult failed: %v", err)
		}
		if longDesc != "Tool description here.\n\nMore detail." {
			t.Errorf("Unexpected long description: %q", longDesc)
		}
		if examples != "tool --flag value" {
			t.Errorf("Unexpected examples: %q", examples)
		}
	})

	t.Run("rejects template without examples marker", func(t *testing.T) {
		if _, _, err := cf.parseTemplateResult("No sections at all"); err == nil {
			t.Fatal("Expected error for missing Examples section")
		} else if !contains(err.Error(), "## Examples") {
			t.Errorf("Unexpected error: %v", err)
		}
	})
}

func TestExtractFlagNames(t *testing.T) {
	t.Run("extracts declared flags", func(t *testing.T) {
		cmd := &cobra.Command{Use: "test"}
		cmd.PersistentFlags().Bool("instructions", false, "")
		cmd.PersistentFlags().String("config", "", "")
		cmd.Flags().BoolP("help", "h", false, "")

		instructions, config, help := extractFlagNames(cmd)
		if instructions != "--instructions" || config != "--config" || help != "--help" {
			t.Errorf("Got %q, %q, %q", instructions, config, help)
		}
	})

	t.Run("falls back to defaults for missing flags", func(t *testing.T) {
		instructions, config, help := extractFlagNames(&cobra.Command{Use: "bare"})
		if instructions != "--instructions" || config != "--config" || help != "--help" {
			t.Errorf("Got %q, %q, %q", instructions, config, help)
		}
	})
}
