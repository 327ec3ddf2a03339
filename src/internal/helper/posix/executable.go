// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package posix

import (
	"os"
	"path/filepath"
	"strings"
)

// GetExecutableName returns the running binary's name without extension,
// for CLI usage strings.
//
// os.Args[0] can carry a path style from a different platform than the one
// running, so after filepath.Base both separator styles are handled:
//   - Linux/macOS: "tls-server-trust" from "/usr/local/bin/tls-server-trust"
//   - Windows: "tls-server-trust" from "C:\bin\tls-server-trust.exe"
//   - Fallback: "tls-server-trust" when os.Args is unavailable
//
// Returns:
//   - string: Clean executable name suitable for CLI usage
func GetExecutableName() string {
	// This literally never happens. If it happens, then it's not an operating system.
	if len(os.Args) == 0 || os.Args[0] == "" {
		return "tls-server-trust" // fallback name
	}

	name := filepath.Base(os.Args[0])

	// A separator surviving filepath.Base means the path came from the other
	// platform's separator convention
	if strings.ContainsAny(name, `/\`) {
		name = lastPathComponent(name)
	}

	// .exe is the one extension a binary name carries across platforms
	return strings.TrimSuffix(name, ".exe")
}

// lastPathComponent splits on both separator styles and returns the final
// non-empty part, or name unchanged when every part is empty.
func lastPathComponent(name string) string {
	parts := strings.FieldsFunc(name, func(r rune) bool {
		return r == '/' || r == '\\'
	})
	for i := len(parts) - 1; i >= 0; i-- {
		if parts[i] != "" {
			return parts[i]
		}
	}
	return name
}
