// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

// Package policyfile loads declarative trust policy configuration from YAML
// or JSON files and builds the [trust.Registry] and fallback policy that the
// probe session evaluates connections with.
//
// A policy file names one spec per host plus an optional default:
//
//	default:
//	  variant: default
//	hosts:
//	  internal.example.org:
//	    variant: pinned-certs
//	    bundle: /etc/trust/internal
//	  legacy.example.org:
//	    variant: revoked
//	    revocation: [ocsp, crl]
//
// Files are validated against an embedded JSON Schema before decoding, so
// typos in variant names or option keys fail loudly instead of silently
// building the wrong policy. The custom variant cannot be declared in a
// file; closures only exist in code.
//
// Host keys are registered exactly as written. Lookups never normalize, so
// entries that differ only by letter case can never both match one incoming
// hostname; loading warns about such pairs and leaves them untouched.
//
// [Watcher] keeps a running process in sync with its policy file: it watches
// the file with fsnotify, debounces bursts of write events, rebuilds, and
// hands the new registry to a callback. A file revision that fails to load
// leaves the previous policies active.
package policyfile
