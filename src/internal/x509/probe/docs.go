// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

// Package probe connects trust policies to live TLS endpoints. A [Session]
// owns a policy [trust.Registry] plus a fallback policy and turns them into
// enforceable TLS client configurations, swappable at runtime when policy
// configuration reloads. The package also fetches presented certificate
// chains for offline evaluation and renders evaluation results as markdown
// tables, ASCII trees, JSON, or PEM.
//
// The fetch path deliberately disables the standard library's verification:
// the presented chain is the input to a trust policy, and the policy verdict
// alone decides the connection's fate.
package probe
