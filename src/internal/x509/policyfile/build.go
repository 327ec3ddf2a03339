// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package policyfile

import (
	"fmt"

	"github.com/H0llyW00dzZ/tls-server-trust/src/internal/x509/revoke"
	"github.com/H0llyW00dzZ/tls-server-trust/src/internal/x509/trust"
	"github.com/H0llyW00dzZ/tls-server-trust/src/internal/x509/truststore"
)

// Build constructs the registry and fallback policy a config describes.
// Hosts keep their keys exactly as written. A config without a default spec
// falls back to standard chain validation with hostname verification.
func (l *Loader) Build(config *Config) (*trust.Registry, trust.Policy, error) {
	fallback := trust.Default(true)
	if config.Default != nil {
		policy, err := l.buildPolicy(config.Default)
		if err != nil {
			return nil, nil, fmt.Errorf("default policy: %w", err)
		}
		fallback = policy
	}

	policies := make(map[string]trust.Policy, len(config.Hosts))
	for host, spec := range config.Hosts {
		policy, err := l.buildPolicy(spec)
		if err != nil {
			return nil, nil, fmt.Errorf("host %q: %w", host, err)
		}
		policies[host] = policy
	}

	return trust.NewRegistry(policies), fallback, nil
}

// LoadAndBuild is the composition of [Loader.Load] and [Loader.Build].
func (l *Loader) LoadAndBuild(path string) (*trust.Registry, trust.Policy, error) {
	config, err := l.Load(path)
	if err != nil {
		return nil, nil, err
	}
	return l.Build(config)
}

// buildPolicy constructs one policy variant from its spec.
func (l *Loader) buildPolicy(spec *PolicySpec) (trust.Policy, error) {
	if spec.Bundle != "" && spec.Variant != "pinned-certs" && spec.Variant != "pinned-keys" {
		l.logf("Warning: bundle %q is ignored for variant %q", spec.Bundle, spec.Variant)
	}
	if len(spec.Revocation) > 0 && spec.Variant != "revoked" {
		l.logf("Warning: revocation flags are ignored for variant %q", spec.Variant)
	}

	switch spec.Variant {
	case "default":
		return trust.Default(spec.validateHost(true)), nil

	case "revoked":
		flags := revoke.AnyMethod
		if len(spec.Revocation) > 0 {
			parsed, err := revoke.ParseFlags(spec.Revocation)
			if err != nil {
				return nil, err
			}
			flags = parsed
		}
		return trust.Revoked(spec.validateHost(true), flags), nil

	case "pinned-certs":
		if spec.Bundle == "" {
			return nil, ErrMissingBundle
		}
		pins, err := truststore.CertificatesInDirectory(spec.Bundle)
		if err != nil {
			return nil, err
		}
		if len(pins) == 0 {
			return nil, fmt.Errorf("%w: %s", ErrEmptyBundle, spec.Bundle)
		}
		return trust.PinCertificates(pins, spec.validateChain(true), spec.validateHost(true)), nil

	case "pinned-keys":
		if spec.Bundle == "" {
			return nil, ErrMissingBundle
		}
		keys, err := truststore.PublicKeysInDirectory(spec.Bundle)
		if err != nil {
			return nil, err
		}
		if len(keys) == 0 {
			return nil, fmt.Errorf("%w: %s", ErrEmptyBundle, spec.Bundle)
		}
		return trust.PinPublicKeys(keys, spec.validateChain(true), spec.validateHost(true)), nil

	case "disabled":
		return trust.Disabled(), nil

	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownVariant, spec.Variant)
	}
}
