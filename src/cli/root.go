// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/H0llyW00dzZ/tls-server-trust/src/internal/x509/policyfile"
	"github.com/H0llyW00dzZ/tls-server-trust/src/internal/x509/probe"
	"github.com/H0llyW00dzZ/tls-server-trust/src/internal/x509/revoke"
	"github.com/H0llyW00dzZ/tls-server-trust/src/internal/x509/trust"
	"github.com/H0llyW00dzZ/tls-server-trust/src/internal/x509/truststore"
	"github.com/H0llyW00dzZ/tls-server-trust/src/logger"
)

var (
	// ErrHostRequired indicates no evaluation target was given.
	ErrHostRequired = errors.New("cli: host is required (-H/--host)")

	// ErrConflictingPolicyFlags indicates --insecure-disable was combined
	// with a policy source it would override.
	ErrConflictingPolicyFlags = errors.New("cli: --insecure-disable cannot be combined with --config or --bundle")

	// ErrBundleRequired indicates a pin option was given without a bundle.
	ErrBundleRequired = errors.New("cli: --pin-keys requires --bundle")

	// ErrNoPinsLoaded indicates the bundle directory yielded nothing to pin.
	ErrNoPinsLoaded = errors.New("cli: bundle directory contains no certificates")

	// ErrUnknownOutputFormat indicates an unsupported --output value.
	ErrUnknownOutputFormat = errors.New("cli: unknown output format")

	// ErrUntrusted indicates the evaluation completed and the server's
	// identity was rejected. Process entrypoints map it to exit code 1.
	ErrUntrusted = errors.New("cli: server identity is not trusted")
)

// Operation state for process entrypoints.
var (
	// OperationPerformed reports whether a chain was fetched and evaluated.
	OperationPerformed bool
	// OperationPerformedSuccessfully reports whether the full evaluation and
	// report completed without an operational error. The verdict itself is
	// carried by the returned error.
	OperationPerformedSuccessfully bool
)

// options collects the root command's flag values.
type options struct {
	host    string
	port    int
	timeout time.Duration

	configFile      string
	bundleDir       string
	pinKeys         bool
	noValidateChain bool
	noValidateHost  bool
	revocation      []string
	insecureDisable bool

	output string
	silent bool
}

// Execute runs the root command. It returns nil when the server was
// evaluated and trusted, [ErrUntrusted] when evaluation rejected it, and any
// other error for operational failures.
func Execute(ctx context.Context, version string, log logger.Logger) error {
	if log == nil {
		log = logger.NewCLILogger()
	}
	OperationPerformed = false
	OperationPerformedSuccessfully = false

	opts := &options{}
	rootCmd := &cobra.Command{
		Use:           "tls-server-trust",
		Short:         "TLS server identity trust evaluator",
		Version:       version,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runEvaluation(cmd.Context(), opts, log)
		},
	}

	flags := rootCmd.Flags()
	flags.StringVarP(&opts.host, "host", "H", "", "server hostname or IP to evaluate [required]")
	flags.IntVarP(&opts.port, "port", "p", 443, "server TLS port")
	flags.DurationVar(&opts.timeout, "timeout", 10*time.Second, "connection timeout")
	flags.StringVarP(&opts.configFile, "config", "c", "", "policy file (YAML or JSON; wins over ad-hoc pin flags)")
	flags.StringVarP(&opts.bundleDir, "bundle", "b", "", "directory of DER certificates to pin")
	flags.BoolVar(&opts.pinKeys, "pin-keys", false, "pin the bundle's public keys instead of certificate bytes")
	flags.BoolVar(&opts.noValidateChain, "no-validate-chain", false, "skip chain validation for pinned bundles")
	flags.BoolVar(&opts.noValidateHost, "no-validate-host", false, "skip hostname verification")
	flags.StringSliceVar(&opts.revocation, "revocation", nil, "revocation checks: ocsp, crl, require, any")
	flags.BoolVar(&opts.insecureDisable, "insecure-disable", false, "trust every chain without evaluation (testing only)")
	flags.StringVarP(&opts.output, "output", "o", "table", "report format: table, tree, json, pem")
	flags.BoolVar(&opts.silent, "silent", false, "suppress status logging; report and exit code only")

	return rootCmd.ExecuteContext(ctx)
}

// runEvaluation validates flags, builds the session, probes the target, and
// renders the report.
func runEvaluation(ctx context.Context, opts *options, log logger.Logger) error {
	if opts.host == "" {
		return ErrHostRequired
	}
	if opts.insecureDisable && (opts.configFile != "" || opts.bundleDir != "") {
		return ErrConflictingPolicyFlags
	}
	if opts.pinKeys && opts.bundleDir == "" {
		return ErrBundleRequired
	}
	switch opts.output {
	case "table", "tree", "json", "pem":
	default:
		return fmt.Errorf("%w: %q", ErrUnknownOutputFormat, opts.output)
	}

	revocationFlags, err := revoke.ParseFlags(opts.revocation)
	if err != nil {
		return err
	}

	session, err := buildSession(opts, log, revocationFlags)
	if err != nil {
		return err
	}

	statusf(log, opts, "Evaluating %s:%d ...", opts.host, opts.port)

	result, err := session.Probe(ctx, opts.host, opts.port, opts.timeout, revocationFlags)
	if err != nil {
		return err
	}
	OperationPerformed = true

	if err := renderResult(result, opts, log); err != nil {
		return err
	}
	OperationPerformedSuccessfully = true

	if !result.Trusted {
		return fmt.Errorf("%w: %s", ErrUntrusted, opts.host)
	}
	return nil
}

// buildSession resolves the policy source precedence: --insecure-disable,
// then the policy file, then ad-hoc flags.
func buildSession(opts *options, log logger.Logger, revocationFlags revoke.Flags) (*probe.Session, error) {
	if opts.insecureDisable {
		return probe.NewSession(nil, trust.Disabled()), nil
	}

	if opts.configFile != "" {
		if opts.bundleDir != "" {
			statusf(log, opts, "Warning: --bundle is ignored when --config is set")
		}

		loader := &policyfile.Loader{}
		if !opts.silent {
			loader.Log = log
		}
		registry, fallback, err := loader.LoadAndBuild(opts.configFile)
		if err != nil {
			return nil, err
		}
		return probe.NewSession(registry, fallback), nil
	}

	policy, err := buildAdHocPolicy(opts, log, revocationFlags)
	if err != nil {
		return nil, err
	}
	return probe.NewSession(nil, policy), nil
}

// buildAdHocPolicy constructs the policy described by pin and validation
// flags alone.
func buildAdHocPolicy(opts *options, log logger.Logger, revocationFlags revoke.Flags) (trust.Policy, error) {
	validateHost := !opts.noValidateHost

	if opts.bundleDir != "" {
		if revocationFlags != 0 {
			statusf(log, opts, "Warning: --revocation does not change the pinned verdict; statuses appear in the report only")
		}
		validateChain := !opts.noValidateChain

		if opts.pinKeys {
			keys, err := truststore.PublicKeysInDirectory(opts.bundleDir)
			if err != nil {
				return nil, err
			}
			if len(keys) == 0 {
				return nil, fmt.Errorf("%w: %s", ErrNoPinsLoaded, opts.bundleDir)
			}
			return trust.PinPublicKeys(keys, validateChain, validateHost), nil
		}

		pins, err := truststore.CertificatesInDirectory(opts.bundleDir)
		if err != nil {
			return nil, err
		}
		if len(pins) == 0 {
			return nil, fmt.Errorf("%w: %s", ErrNoPinsLoaded, opts.bundleDir)
		}
		return trust.PinCertificates(pins, validateChain, validateHost), nil
	}

	if opts.noValidateChain {
		statusf(log, opts, "Warning: --no-validate-chain has no effect without --bundle")
	}

	if revocationFlags != 0 {
		return trust.Revoked(validateHost, revocationFlags), nil
	}
	return trust.Default(validateHost), nil
}

// renderResult writes the report to stdout in the selected format and logs
// the verdict line.
func renderResult(result *probe.Result, opts *options, log logger.Logger) error {
	switch opts.output {
	case "json":
		data, err := result.ToJSON()
		if err != nil {
			return fmt.Errorf("cli: rendering JSON report: %w", err)
		}
		fmt.Println(string(data))
	case "pem":
		fmt.Print(string(result.EncodePEM()))
	case "tree":
		fmt.Print(result.RenderTree())
	default:
		fmt.Print(result.RenderTable())
	}

	statusf(log, opts, "Trust verdict for %s:%d: %s (policy source: %s)",
		result.Host, result.Port, result.Verdict(), result.PolicySource())
	return nil
}

// statusf logs progress lines unless silent mode suppresses them.
func statusf(log logger.Logger, opts *options, format string, v ...any) {
	if opts.silent || log == nil {
		return
	}
	log.Printf(format, v...)
}
