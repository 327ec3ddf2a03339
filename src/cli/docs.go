// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

// Package cli provides the command-line interface for evaluating TLS server
// identities. It implements a Cobra-based CLI that connects to a server,
// captures the presented certificate chain, evaluates it under a trust
// policy (standard validation, revocation-checked, pinned certificates or
// public keys, or disabled), and renders the result as a markdown table,
// ASCII tree, JSON, or PEM. Policies come from a declarative policy file or
// from ad-hoc pin flags; the process exit code carries the verdict.
package cli
