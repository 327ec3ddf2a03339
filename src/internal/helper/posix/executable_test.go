// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package posix

import (
	"os"
	"runtime"
	"testing"
)

type execNameCase struct {
	name     string
	args     []string
	expected string
}

func TestGetExecutableName(t *testing.T) {
	tests := []execNameCase{
		{
			name:     "Relative path",
			args:     []string{"./tls-server-trust"},
			expected: "tls-server-trust",
		},
		{
			name:     "Just filename",
			args:     []string{"trust-probe"},
			expected: "trust-probe",
		},
		{
			name:     "Empty args",
			args:     []string{},
			expected: "tls-server-trust",
		},
		{
			name:     "Empty first arg",
			args:     []string{""},
			expected: "tls-server-trust",
		},
	}

	switch runtime.GOOS {
	case "windows":
		tests = append(tests, []execNameCase{
			{
				name:     "Windows absolute path with .exe",
				args:     []string{"C:\\Program Files\\tls-server-trust\\tls-server-trust.exe"},
				expected: "tls-server-trust",
			},
			{
				name:     "Windows absolute path without .exe",
				args:     []string{"C:\\Program Files\\tls-server-trust\\tls-server-trust"},
				expected: "tls-server-trust",
			},
			{
				name:     "Deep deployment path",
				args:     []string{"C:\\Program Files\\Example Corp\\Trust Tooling\\agents\\windows\\x86_64\\release\\tls-server-trust.exe"},
				expected: "tls-server-trust",
			},
			{
				name:     "Per-user install path",
				args:     []string{"C:\\Users\\OperatorWithAVeryLongAccountName\\AppData\\Local\\ExampleCorp\\TrustAgent\\trust-agent.exe"},
				expected: "trust-agent",
			},
		}...)

	default: // Unix-like systems (linux, darwin, etc.)
		tests = append(tests, []execNameCase{
			{
				name:     "Unix absolute path",
				args:     []string{"/usr/local/bin/tls-server-trust"},
				expected: "tls-server-trust",
			},
			{
				name:     "Unix opt path",
				args:     []string{"/opt/trust/bin/trust-probe"},
				expected: "trust-probe",
			},
			{
				// filepath.Base cannot split this here, so the manual
				// separator handling has to
				name:     "Windows path on a Unix system",
				args:     []string{"C:\\agents\\windows\\tls-server-trust.exe"},
				expected: "tls-server-trust",
			},
		}...)
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			origArgs := os.Args
			t.Cleanup(func() { os.Args = origArgs })

			os.Args = tt.args

			if result := GetExecutableName(); result != tt.expected {
				t.Errorf("GetExecutableName() = %q, want %q", result, tt.expected)
			}
		})
	}
}

func TestLastPathComponent(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "Backslash separated",
			input:    "agents\\windows\\trust-agent.exe",
			expected: "trust-agent.exe",
		},
		{
			name:     "Mixed separators",
			input:    "deploy/windows\\trust-agent.exe",
			expected: "trust-agent.exe",
		},
		{
			name:     "Trailing separator",
			input:    "agents\\windows\\",
			expected: "windows",
		},
		{
			name:     "Only separators",
			input:    "\\\\",
			expected: "\\\\",
		},
		{
			name:     "No separators",
			input:    "tls-server-trust",
			expected: "tls-server-trust",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if result := lastPathComponent(tt.input); result != tt.expected {
				t.Errorf("lastPathComponent(%q) = %q, want %q", tt.input, result, tt.expected)
			}
		})
	}
}
