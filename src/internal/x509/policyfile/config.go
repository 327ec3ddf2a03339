// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package policyfile

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/text/cases"
	"gopkg.in/yaml.v3"

	"github.com/H0llyW00dzZ/tls-server-trust/src/logger"
)

var (
	// ErrSchema indicates that a policy file failed schema validation.
	ErrSchema = errors.New("policyfile: configuration rejected by schema")

	// ErrUnknownVariant indicates a policy spec names a variant this package
	// cannot build. The custom variant lands here too: closures cannot be
	// declared in configuration.
	ErrUnknownVariant = errors.New("policyfile: unknown policy variant")

	// ErrMissingBundle indicates a pinned variant has no bundle directory.
	ErrMissingBundle = errors.New("policyfile: pinned variant requires a bundle directory")

	// ErrEmptyBundle indicates a bundle directory yielded no certificates.
	ErrEmptyBundle = errors.New("policyfile: bundle directory contains no certificates")
)

// configFormat represents supported configuration file formats.
type configFormat int

const (
	// configFormatJSON represents JSON configuration format (.json)
	configFormatJSON configFormat = iota
	// configFormatYAML represents YAML configuration format (.yaml, .yml)
	configFormatYAML
)

// PolicySpec declares one trust policy variant and its options.
type PolicySpec struct {
	// Variant: one of default, revoked, pinned-certs, pinned-keys, disabled
	Variant string `json:"variant" yaml:"variant"`
	// ValidateChain: whether pinned variants also validate the chain
	// (defaults to true when omitted)
	ValidateChain *bool `json:"validate_chain,omitempty" yaml:"validate_chain,omitempty"`
	// ValidateHost: whether validation matches the hostname
	// (defaults to true when omitted)
	ValidateHost *bool `json:"validate_host,omitempty" yaml:"validate_host,omitempty"`
	// Bundle: directory of DER certificates providing the pins
	Bundle string `json:"bundle,omitempty" yaml:"bundle,omitempty"`
	// Revocation: flag names for the revoked variant (ocsp, crl, require, any;
	// defaults to any when omitted)
	Revocation []string `json:"revocation,omitempty" yaml:"revocation,omitempty"`
}

// validateChain returns the configured value or def when the key is absent.
func (s *PolicySpec) validateChain(def bool) bool {
	if s.ValidateChain != nil {
		return *s.ValidateChain
	}
	return def
}

// validateHost returns the configured value or def when the key is absent.
func (s *PolicySpec) validateHost(def bool) bool {
	if s.ValidateHost != nil {
		return *s.ValidateHost
	}
	return def
}

// Config is the decoded form of a policy file: an optional default policy
// spec plus per-host specs keyed by the exact hostname they govern.
type Config struct {
	// Default: the fallback policy for hosts without an entry
	Default *PolicySpec `json:"default,omitempty" yaml:"default,omitempty"`
	// Hosts: per-host policy specs, keyed by exact hostname
	Hosts map[string]*PolicySpec `json:"hosts,omitempty" yaml:"hosts,omitempty"`
}

// Loader reads, validates, and builds policy files. The zero value works;
// Log receives lint and reload warnings when set.
type Loader struct {
	// Log: warning sink for lints and watcher reload failures (nil silences)
	Log logger.Logger
}

// logf writes a warning when a logger is configured.
func (l *Loader) logf(format string, v ...any) {
	if l == nil || l.Log == nil {
		return
	}
	l.Log.Printf(format, v...)
}

// detectConfigFormat determines the configuration file format based on file
// extension, matching .yaml and .yml case-insensitively and treating
// everything else as JSON.
func detectConfigFormat(configPath string) configFormat {
	ext := strings.ToLower(filepath.Ext(configPath))
	switch ext {
	case ".yaml", ".yml":
		return configFormatYAML
	default:
		return configFormatJSON
	}
}

// asJSON converts raw file contents to JSON for schema validation. JSON
// input is syntax-checked and passed through; YAML is decoded generically
// and re-marshaled.
func asJSON(data []byte, format configFormat) ([]byte, error) {
	if format == configFormatJSON {
		var doc any
		if err := json.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("policyfile: parsing JSON: %w", err)
		}
		return data, nil
	}

	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("policyfile: parsing YAML: %w", err)
	}

	jsonData, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("policyfile: converting YAML for validation: %w", err)
	}
	return jsonData, nil
}

// decodeStrict decodes validated contents into the typed config, rejecting
// any key the schema somehow let through.
func decodeStrict(data []byte, format configFormat, config *Config) error {
	switch format {
	case configFormatYAML:
		decoder := yaml.NewDecoder(bytes.NewReader(data))
		decoder.KnownFields(true)
		if err := decoder.Decode(config); err != nil {
			return fmt.Errorf("policyfile: decoding YAML config: %w", err)
		}
	default:
		decoder := json.NewDecoder(bytes.NewReader(data))
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(config); err != nil {
			return fmt.Errorf("policyfile: decoding JSON config: %w", err)
		}
	}
	return nil
}

// Load reads a policy file, validates it against the embedded schema, and
// decodes it. The format is detected from the file extension (.yaml, .yml,
// anything else is treated as JSON).
//
// Loading also lints host keys that differ only by letter case. Lookups are
// exact-match, so such pairs are almost certainly a mistake; they produce a
// logger warning and are otherwise registered exactly as written.
func (l *Loader) Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("policyfile: failed to read config file: %w", err)
	}

	format := detectConfigFormat(path)

	jsonData, err := asJSON(data, format)
	if err != nil {
		return nil, err
	}
	if err := validateSchema(jsonData); err != nil {
		return nil, err
	}

	config := &Config{}
	if err := decodeStrict(data, format, config); err != nil {
		return nil, err
	}

	l.lintHostCase(config)
	return config, nil
}

// lintHostCase warns about host keys that case-fold to the same string.
func (l *Loader) lintHostCase(config *Config) {
	if l == nil || l.Log == nil {
		return
	}

	folded := make(map[string][]string, len(config.Hosts))
	folder := cases.Fold()
	for host := range config.Hosts {
		key := folder.String(host)
		folded[key] = append(folded[key], host)
	}

	keys := make([]string, 0, len(folded))
	for key := range folded {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		hosts := folded[key]
		if len(hosts) < 2 {
			continue
		}
		sort.Strings(hosts)
		quoted := make([]string, len(hosts))
		for i, host := range hosts {
			quoted[i] = fmt.Sprintf("%q", host)
		}
		l.logf("Warning: host entries %s differ only by case; lookups are exact-match and a connection can only ever match one of them",
			strings.Join(quoted, ", "))
	}
}
